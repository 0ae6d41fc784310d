package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jfmyers9/lastfm-auth/internal/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/sync/errgroup"
)

const (
	LoginPath    = "/login/lastfm"
	CompletePath = "/complete/lastfm"
)

// Options configures a Server
type Options struct {
	Coordinator *auth.Coordinator
	Redirects   auth.Redirects

	// ForceHTTPCallback rewrites https callback URLs to http
	ForceHTTPCallback bool

	// Gatherer backs /metrics; nil uses the default registry
	Gatherer prometheus.Gatherer

	Logger zerolog.Logger
}

// Server exposes the Last.fm login flow over HTTP
type Server struct {
	coord     *auth.Coordinator
	redirects auth.Redirects
	forceHTTP bool
	logger    zerolog.Logger
	router    chi.Router
}

// New creates a Server and mounts its routes. The login routes are only
// mounted when the provider is enabled.
func New(opts Options) *Server {
	s := &Server{
		coord:     opts.Coordinator,
		redirects: opts.Redirects,
		forceHTTP: opts.ForceHTTPCallback,
		logger:    opts.Logger.With().Str("component", "server").Logger(),
	}

	metricsHandler := promhttp.Handler()
	if opts.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	if s.coord != nil && s.coord.Enabled() {
		r.Get(LoginPath, s.begin)
		r.Get(CompletePath, s.complete)
	} else {
		s.logger.Warn().Msg("Last.fm credentials not configured, login routes disabled")
	}

	s.router = r
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info().Str("addr", addr).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info().Msg("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info().Msg("Server stopped")
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// begin redirects the browser to Last.fm with a callback to CompletePath
func (s *Server) begin(w http.ResponseWriter, r *http.Request) {
	target, err := s.coord.AuthorizationURL(s.callbackURL(r))
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to build authorization URL")
		http.Redirect(w, r, s.redirects.Error, http.StatusFound)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// complete handles the Last.fm callback
func (s *Server) complete(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.coord.Complete(r.Context(), r.URL.Query())
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Last.fm login failed")
	}
	http.Redirect(w, r, s.redirects.Target(outcome, err), http.StatusFound)
}

func (s *Server) callbackURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if s.forceHTTP && scheme == "https" {
		scheme = "http"
	}
	return scheme + "://" + r.Host + CompletePath
}
