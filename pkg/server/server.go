package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mercator-hq/importcheck/pkg/config"
	"mercator-hq/importcheck/pkg/imports"
	"mercator-hq/importcheck/pkg/report"
	"mercator-hq/importcheck/pkg/security/auth"
	tlsutil "mercator-hq/importcheck/pkg/security/tls"
	"mercator-hq/importcheck/pkg/telemetry"
	"mercator-hq/importcheck/pkg/telemetry/health"
	"mercator-hq/importcheck/pkg/telemetry/metrics"
	"mercator-hq/importcheck/pkg/telemetry/tracing"
)

// Server is the HTTP front end of the validation service.
type Server struct {
	config      *config.ServerConfig
	service     *imports.Service
	storage     report.Storage
	health      *health.Checker
	build       telemetry.BuildInfo
	metrics     *metrics.Collector
	metricsPath string
	locale      string
	logger      *slog.Logger
	auth        *auth.Authenticator
	certs       *tlsutil.CertificateReloader

	httpServer   *http.Server
	addr         net.Addr
	ready        chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Option configures a Server.
type Option func(*Server)

// WithStorage enables the /api/v1/reports endpoints.
func WithStorage(s report.Storage) Option {
	return func(srv *Server) { srv.storage = s }
}

// WithHealth mounts /health, /ready and /version.
func WithHealth(c *health.Checker, build telemetry.BuildInfo) Option {
	return func(srv *Server) {
		srv.health = c
		srv.build = build
	}
}

// WithMetrics mounts the Prometheus handler at path.
func WithMetrics(c *metrics.Collector, path string) Option {
	return func(srv *Server) {
		srv.metrics = c
		srv.metricsPath = path
	}
}

// WithAuth requires an API key on every /api/v1 route.
func WithAuth(a *auth.Authenticator) Option {
	return func(srv *Server) { srv.auth = a }
}

// WithTLS serves HTTPS with certificates from r.
func WithTLS(r *tlsutil.CertificateReloader) Option {
	return func(srv *Server) { srv.certs = r }
}

// WithLocale sets the message language used when a request names none.
func WithLocale(lang string) Option {
	return func(srv *Server) { srv.locale = lang }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// New creates a server. Zero values in cfg take the configuration defaults.
func New(cfg *config.ServerConfig, service *imports.Service, opts ...Option) *Server {
	c := *cfg
	applyDefaults(&c)

	s := &Server{
		config:  &c,
		service: service,
		locale:  config.DefaultLocale,
		logger:  slog.Default().With("component", "server"),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func applyDefaults(c *config.ServerConfig) {
	full := config.Config{Server: *c}
	config.ApplyDefaults(&full)
	*c = full.Server
}

// Start listens on the configured address and serves until ctx is done,
// SIGINT or SIGTERM arrives, or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	scheme := "http"
	if s.certs != nil {
		var tlsCfg *tls.Config
		tlsCfg, err = tlsutil.ServerConfig(s.config.TLS, s.certs)
		if err != nil {
			ln.Close()
			s.mu.Unlock()
			return err
		}
		ln = tls.NewListener(ln, tlsCfg)
		scheme = "https"
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.addr = ln.Addr()
	s.isRunning = true
	s.mu.Unlock()
	close(s.ready)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"address", ln.Addr().String(),
			"scheme", scheme,
			"auth", s.auth != nil,
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if !ok {
			// Shutdown was called directly.
			return nil
		}
		return err
	}
}

// Shutdown stops accepting connections and waits up to the shutdown timeout
// for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// Addr blocks until Start is listening and returns the bound address.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.ready:
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsRunning returns true while the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/validate", s.handleValidate)
	api.HandleFunc("GET /api/v1/reports", s.requireStorage(s.handleListReports))
	api.HandleFunc("GET /api/v1/reports/export", s.requireStorage(s.handleExportReports))
	api.HandleFunc("GET /api/v1/reports/{id}", s.requireStorage(s.handleGetReport))

	mux := http.NewServeMux()
	if s.auth != nil {
		mux.Handle("/api/", Auth(s.auth, s.logger)(api))
	} else {
		mux.Handle("/api/", api)
	}

	if s.health != nil {
		s.health.Register(mux, s.build.Version, s.build.Commit, s.build.BuildTime)
	}
	if s.metrics != nil && s.metrics.Enabled() && s.metricsPath != "" {
		mux.Handle(s.metricsPath, s.metrics.Handler())
	}

	// Recovery is outermost so panics in logging are caught too.
	return chain(mux,
		Recovery(s.logger),
		RequestID,
		Logging(s.logger),
		tracing.HTTPMiddleware,
		Timeout(s.config.RequestTimeout),
	)
}
