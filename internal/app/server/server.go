package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/eslsoft/skillswap/internal/config"
	"github.com/eslsoft/skillswap/internal/platform/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg        config.Config
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer constructs a Server from the provided dependencies.
func NewServer(cfg config.Config, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddress,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log.With("component", "server"),
	}
}

// Run starts the HTTP server and blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("listening", "address", s.cfg.HTTPAddress, "driver", s.cfg.DBDriver)
		if err := s.httpServer.ListenAndServe(); err != nil {
			errCh <- err
		} else {
			close(errCh)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("shutdown", "error", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
