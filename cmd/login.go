package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with Last.fm from the terminal",
	Long: `Run the Last.fm login flow from the terminal.

This command will guide you through the Last.fm authentication process:
1. You'll be prompted to enter your Last.fm API key and secret
2. A browser URL will be provided for you to authorize the application
3. Paste the token (or the whole URL Last.fm redirected you to)
4. The user is recorded in the local database and the credentials are saved

You can get API credentials from: https://www.last.fm/api/account/create`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	// Step 1: Get API credentials
	fmt.Println("Last.fm Login")
	fmt.Println("=============")
	fmt.Println()
	fmt.Println("You can get API credentials from: https://www.last.fm/api/account/create")
	fmt.Println()

	// Check if we already have credentials
	if cfg.Enabled() {
		fmt.Printf("Found existing API credentials.\n")
		fmt.Printf("API Key: %s\n", cfg.LastFM.APIKey)
		fmt.Print("\nUse existing credentials? [Y/n]: ")
		response, err := reader.ReadString('\n')
		if err != nil {
			response = "y"
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "" && response != "y" && response != "yes" {
			cfg.LastFM.APIKey = ""
			cfg.LastFM.APISecret = ""
		}
	}

	if cfg.LastFM.APIKey == "" {
		fmt.Print("Enter your Last.fm API Key: ")
		apiKey, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		cfg.LastFM.APIKey = strings.TrimSpace(apiKey)
	}

	if cfg.LastFM.APISecret == "" {
		fmt.Print("Enter your Last.fm API Secret: ")
		apiSecret, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read API secret: %w", err)
		}
		cfg.LastFM.APISecret = strings.TrimSpace(apiSecret)
	}

	if !cfg.Enabled() {
		return fmt.Errorf("API key and secret are required")
	}

	users, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer users.Close()

	coord, err := newCoordinator(cfg, users, logger)
	if err != nil {
		return err
	}

	// Step 2: Direct user to authorize. Without a callback Last.fm uses the
	// one registered for the API account.
	attempt := coord.NewAttempt()
	authURL, err := attempt.AuthorizationURL("")
	if err != nil {
		return fmt.Errorf("failed to build authorization URL: %w", err)
	}

	fmt.Println("\nPlease visit this URL to authorize the application:")
	fmt.Printf("\n  %s\n\n", authURL)
	fmt.Print("Paste the token or the URL you were redirected to: ")
	input, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	// Step 3: Exchange the token. Tokens are single-use, so there is no retry.
	outcome, err := attempt.Complete(ctx, url.Values{"token": {parseToken(input)}})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	// Step 4: Save credentials for serve
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	verb := "Welcome back"
	if outcome.IsNew {
		verb = "Created user"
	}
	fmt.Printf("\n✓ %s %s (%s)\n", verb, outcome.User.Username, outcome.User.ID)
	if outcome.User.FullName != "" {
		fmt.Printf("✓ Name: %s\n", outcome.User.FullName)
	}
	fmt.Printf("✓ Last.fm id: %s\n", outcome.Identity.ExternalID)
	fmt.Printf("✓ Saved to %s\n", cfg.Database)

	return nil
}

// parseToken accepts a bare token or a callback URL carrying ?token=
func parseToken(input string) string {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "token=") {
		return input
	}

	query := input
	if u, err := url.Parse(input); err == nil && u.RawQuery != "" {
		query = u.RawQuery
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return input
	}
	return values.Get("token")
}
