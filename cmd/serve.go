package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jfmyers9/lastfm-auth/internal/auth"
	"github.com/jfmyers9/lastfm-auth/internal/metrics"
	"github.com/jfmyers9/lastfm-auth/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the login HTTP server",
	Long: `Run the HTTP server that handles Last.fm logins.

Endpoints:
  GET /login/lastfm     redirect to Last.fm for authorization
  GET /complete/lastfm  Last.fm callback; redirects to the configured
                        default, new-user or error URL
  GET /healthz          liveness check
  GET /metrics          Prometheus metrics

Without an API key and secret the login endpoints are not mounted.
The server shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info().
		Str("version", version).
		Bool("lastfm_enabled", cfg.Enabled()).
		Msg("Starting lastfm-auth server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer users.Close()

	logger.Info().Str("database", cfg.Database).Msg("Using user database")

	coord, err := newCoordinator(cfg, users, logger)
	if err != nil {
		return err
	}

	if err := metrics.Register(nil); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	srv := server.New(server.Options{
		Coordinator: coord,
		Redirects: auth.Redirects{
			Default: cfg.Redirects.Default,
			NewUser: cfg.Redirects.NewUser,
			Error:   cfg.Redirects.Error,
		},
		ForceHTTPCallback: cfg.Server.ForceHTTPCallback,
		Logger:            logger,
	})

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
