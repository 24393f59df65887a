// Package server exposes the coordination API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ShayCichocki/agentdesk/internal/coordination"
)

// Config holds the HTTP listener settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// SweepInterval, when positive, runs the overdue sweep periodically.
	SweepInterval time.Duration
}

// Server serves the coordination API.
type Server struct {
	svc     *coordination.Service
	cfg     Config
	logger  *slog.Logger
	metrics *metrics
}

// New creates a server for svc.
func New(svc *coordination.Service, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		svc:     svc,
		cfg:     cfg,
		logger:  logger.With("component", "server"),
		metrics: newMetrics(),
	}
}

// Handler returns the HTTP handler with every endpoint mounted at the root.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterHTTPHandlers("", mux)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  requestContext(ctx),
	}

	if s.cfg.SweepInterval > 0 {
		go s.runSweeper(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestContext gives requests the values of ctx but not its cancellation,
// so Shutdown can drain in-flight requests instead of aborting them.
func requestContext(ctx context.Context) func(net.Listener) context.Context {
	base := context.WithoutCancel(ctx)
	return func(net.Listener) context.Context { return base }
}

// runSweeper fails overdue records every SweepInterval until ctx is done.
func (s *Server) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			failed, err := s.svc.SweepOverdue(ctx)
			if err != nil {
				s.logger.Error("Overdue sweep failed", "error", err)
				continue
			}
			s.metrics.swept.Add(float64(len(failed)))
		}
	}
}
