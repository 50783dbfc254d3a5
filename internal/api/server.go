package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eleven-am/docshift/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Server runs the API until its context is cancelled.
type Server struct {
	http *http.Server
}

func NewServer(port int, repo Repository) *Server {
	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           NewRouter(repo),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Run listens until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	log := logger.HTTP().WithField("addr", s.http.Addr)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server startup: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
