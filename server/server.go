// Package server provides the HTTP server for goexample's schedule mode.
//
// The server exposes the suite runner while cron triggers re-run suites in
// the background.
//
// # Endpoints
//
//   - GET /health - Simple health check, returns "ok"
//   - GET /metrics - Prometheus metrics, when a metrics handler is configured
//   - GET /api/status - Current run, next scheduled run and build properties
//   - GET /api/suites - Suites accepted by POST /run
//   - GET /api/reports - Reports of the last finished run (?format=text|yaml|json)
//   - GET /config - Current configuration as YAML, secrets masked
//   - POST /run - Starts a run of {"suites": [...]} in the background
//   - GET /history - Finished runs, most recent first
//
// # Example
//
//	srv, err := server.New(logger, coordinator,
//		server.WithListenAddr(":9102"),
//		server.WithSchedule(manager),
//		server.WithMetricsHandler(scrape.Handler()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
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
	"time"

	"github.com/nomis52/goexample/buildinfo"
	"github.com/nomis52/goexample/config"
	"github.com/nomis52/goexample/report"
	"github.com/nomis52/goexample/schedule"
	"github.com/nomis52/goexample/server/handlers"
	"github.com/nomis52/goexample/server/runs"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultListenAddr      = ":9102"
)

// Server is the HTTP server for goexample.
type Server struct {
	addr        string
	certFile    string
	keyFile     string
	logger      *slog.Logger
	config      *config.Config
	coordinator *runs.Coordinator
	manager     *schedule.Manager
	metrics     http.Handler
	suites      []string
	props       handlers.ServerProperties
	httpServer  *http.Server
}

// Option configures a Server.
type Option func(*Server) error

// WithListenAddr configures the address the server listens on.
// Default is ":9102".
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithTLS serves HTTPS with the given key pair. The pair is loaded when Run
// starts and reloaded when either file changes.
func WithTLS(certFile, keyFile string) Option {
	return func(s *Server) error {
		if certFile == "" || keyFile == "" {
			return errors.New("both certificate and key files are required")
		}
		s.certFile = certFile
		s.keyFile = keyFile
		return nil
	}
}

// WithSchedule starts the manager's triggers when the server runs.
func WithSchedule(m *schedule.Manager) Option {
	return func(s *Server) error {
		s.manager = m
		return nil
	}
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) error {
		s.metrics = h
		return nil
	}
}

// WithSuites sets the suites accepted by POST /run.
func WithSuites(names []string) Option {
	return func(s *Server) error {
		s.suites = append([]string(nil), names...)
		return nil
	}
}

// WithConfig exposes cfg on GET /config.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) error {
		s.config = cfg
		return nil
	}
}

// New creates a new Server around coordinator.
func New(logger *slog.Logger, coordinator *runs.Coordinator, opts ...Option) (*Server, error) {
	if coordinator == nil {
		return nil, errors.New("coordinator is required")
	}
	hostname, _ := os.Hostname()
	s := &Server{
		addr:        defaultListenAddr,
		logger:      logger.With("component", "server"),
		coordinator: coordinator,
		props: handlers.ServerProperties{
			Build:     buildinfo.Get(),
			StartedAt: time.Now(),
			Hostname:  hostname,
		},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Config returns the configuration served on /config.
func (s *Server) Config() *config.Config {
	return s.config
}

// Suites returns the suites accepted by POST /run.
func (s *Server) Suites() []string {
	return s.suites
}

// NextRun returns the next scheduled run time, or nil if no schedule is configured.
func (s *Server) NextRun() *time.Time {
	if s.manager == nil {
		return nil
	}
	next := s.manager.NextRun()
	if next.IsZero() {
		return nil
	}
	return &next
}

// Status returns the current run status by delegating to the coordinator.
func (s *Server) Status() runs.RunStatus {
	return s.coordinator.Status()
}

// History returns the finished runs by delegating to the coordinator.
func (s *Server) History() []runs.RunStatus {
	return s.coordinator.History()
}

// Reports returns the last reports by delegating to the coordinator.
func (s *Server) Reports() []*report.Report {
	return s.coordinator.Reports()
}

// Start starts a background run by delegating to the coordinator.
func (s *Server) Start(ctx context.Context, suites []string) error {
	return s.coordinator.Start(ctx, suites)
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done and waits for
// background runs to finish. A configured schedule is started first.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	if s.certFile != "" {
		loader, err := NewCertLoader(s.certFile, s.keyFile, s.logger)
		if err != nil {
			return err
		}
		s.httpServer.TLSConfig = &tls.Config{GetCertificate: loader.GetCertificate}
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	if s.manager != nil {
		s.logger.Info("starting schedule", "next_run", s.manager.NextRun())
		s.manager.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", ln.Addr().String(), "tls", s.certFile != "")
		var err error
		if s.httpServer.TLSConfig != nil {
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		err := s.httpServer.Shutdown(shutdownCtx)
		s.coordinator.Wait()
		return err
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /api/status", handlers.NewStatusHandler(s.props, s))
	mux.Handle("GET /api/suites", handlers.NewSuitesHandler(s))
	mux.Handle("GET /api/reports", handlers.NewReportsHandler(s))
	mux.Handle("POST /run", handlers.NewRunHandler(s, s))
	mux.Handle("GET /history", handlers.NewHistoryHandler(s))
	if s.config != nil {
		mux.Handle("GET /config", handlers.NewConfigHandler(s))
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
}
