package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jfmyers9/lastfm-auth/internal/identity"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// usersCmd represents the users command
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users who signed in with Last.fm",
	Long: `List the local users created by Last.fm logins.

Names are padded and truncated by display width, so CJK and emoji
names line up in the table.`,
	RunE: runUsers,
}

var usersShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show one user and their Last.fm extra data",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersShow,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersShowCmd)

	usersCmd.Flags().IntP("width", "w", 20, "Column width for names (0=unbounded)")
}

func runUsers(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	users, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer users.Close()

	list, err := users.List(ctx)
	if err != nil {
		return err
	}

	width, _ := cmd.Flags().GetInt("width")
	writeUsersTable(os.Stdout, list, width)
	return nil
}

func runUsersShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	users, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer users.Close()

	u, err := users.GetUser(ctx, args[0])
	if errors.Is(err, identity.ErrUserNotFound) {
		return fmt.Errorf("no user with id %s", args[0])
	}
	if err != nil {
		return err
	}

	writeUser(os.Stdout, u)
	return nil
}

// writeUsersTable prints one row per user. Name columns are padded to width.
func writeUsersTable(w io.Writer, users []identity.User, width int) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users yet")
		return
	}

	row := func(id, username, name, uid, created string) {
		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			padToWidth(id, 36),
			padToWidth(username, width),
			padToWidth(name, width),
			padToWidth(uid, 12),
			created,
		)
	}

	row("ID", "USERNAME", "NAME", "LASTFM ID", "CREATED")
	for _, u := range users {
		row(u.ID, u.Username, u.FullName, u.UID, u.CreatedAt.Format(time.DateOnly))
	}
}

// writeUser prints a user's fields and extra data. The session key is masked.
func writeUser(w io.Writer, u *identity.User) {
	fmt.Fprintf(w, "ID:         %s\n", u.ID)
	fmt.Fprintf(w, "Username:   %s\n", u.Username)
	fmt.Fprintf(w, "Name:       %s\n", u.FullName)
	fmt.Fprintf(w, "First name: %s\n", u.FirstName)
	fmt.Fprintf(w, "Last name:  %s\n", u.LastName)
	fmt.Fprintf(w, "Provider:   %s\n", u.Provider)
	fmt.Fprintf(w, "UID:        %s\n", u.UID)
	fmt.Fprintf(w, "Created:    %s\n", u.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Updated:    %s\n", u.UpdatedAt.Format(time.RFC3339))

	if len(u.Extra) == 0 {
		return
	}

	keys := make([]string, 0, len(u.Extra))
	for k := range u.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, "Extra:")
	for _, k := range keys {
		v := u.Extra[k]
		if k == identity.AccessTokenKey {
			v = maskSecret(v)
		}
		fmt.Fprintf(w, "  %s: %s\n", k, v)
	}
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}

// padToWidth pads or truncates text to exactly width display columns.
// Width is measured in display columns, accounting for Unicode characters.
// If width <= 0, returns text unchanged.
// If text is longer than width, truncates with "..." suffix.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	currentWidth := runewidth.StringWidth(text)

	if currentWidth > width {
		ellipsis := "..."
		ellipsisWidth := runewidth.StringWidth(ellipsis)

		if width <= ellipsisWidth {
			return runewidth.Truncate(ellipsis, width, "")
		}

		// Wide runes can leave the truncated text one column short
		result := runewidth.Truncate(text, width-ellipsisWidth, "") + ellipsis
		return runewidth.FillRight(result, width)
	}

	return runewidth.FillRight(text, width)
}
