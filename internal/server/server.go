// Package server wires the HTTP API and runs it until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/justsurfingit/internship-tracker/internal/notify"
	"github.com/rs/zerolog/log"
)

// Run serves handler on addr until ctx is cancelled, then stops accepting
// requests and waits for in-flight requests and pending notifications.
func Run(ctx context.Context, addr string, handler http.Handler, n *notify.Notifier, timeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: timeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := n.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("notifications still pending at exit")
	}
	return nil
}
