package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"atscore/internal/config"
)

// Start serves the API until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	defer s.shutdownObservability()

	if s.cfg.Server.WatchConfig {
		if err := config.Watch(s.logger, s.reload); err != nil {
			s.logger.Warn("Config reload disabled", "error", err)
		}
	}

	httpServer := s.setupHTTPServer()
	s.displayServerInfo()
	return s.startWithGracefulShutdown(ctx, httpServer)
}

func (s *Server) shutdownObservability() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.obs.Shutdown(ctx); err != nil {
		s.logger.LogError(err, "Failed to shutdown observability")
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	sc := s.cfg.Server
	return &http.Server{
		Addr:         net.JoinHostPort(sc.Host, sc.Port),
		Handler:      s.Handler(),
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	tls := s.cfg.Server.TLS
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", tls.Enabled,
			"provider", s.service.ProviderName())

		var err error
		if tls.Enabled {
			err = server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.Close()

	s.logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.logger.Info("Server shutdown completed successfully")
	return nil
}

// Close releases the rate limiter
func (s *Server) Close() {
	if _, _, limiter := s.access(); limiter != nil {
		limiter.Close()
		s.logger.Info("Rate limiter cleaned up")
	}
}
