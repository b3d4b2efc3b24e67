// Package server runs the HTTP listener with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/acme/autocert"
)

// ShutdownTimeout bounds how long in-flight requests may run after a stop signal.
const ShutdownTimeout = 15 * time.Second

// Options configures New.
type Options struct {
	Port int
	// TLSDomains enables HTTPS with certificates from Let's Encrypt for these hosts.
	TLSDomains  []string
	TLSCacheDir string
}

// New builds an http.Server for handler. With TLS domains the server gets an
// autocert-backed TLS config; the caller must then use ListenAndServeTLS("", "").
func New(opts Options, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if len(opts.TLSDomains) > 0 {
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(opts.TLSDomains...),
			Cache:      autocert.DirCache(opts.TLSCacheDir),
		}
		srv.TLSConfig = m.TLSConfig()
	}

	return srv
}

// Run serves until ctx is cancelled, then shuts srv down gracefully.
func Run(ctx context.Context, srv *http.Server) error {
	serverErr := make(chan error, 1)
	go func() {
		var err error
		if srv.TLSConfig != nil {
			slog.Info("starting https server", "addr", srv.Addr)
			err = srv.ListenAndServeTLS("", "")
		} else {
			slog.Info("starting http server", "addr", srv.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
