// Package notify sends best-effort email notifications in the background.
// A notification never fails the request that triggered it: errors are
// logged and dropped.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/justsurfingit/internship-tracker/internal/mailer"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Notifier struct {
	mailer      mailer.Mailer
	logger      zerolog.Logger
	timeout     time.Duration
	concurrency int
	wg          sync.WaitGroup
}

type Options struct {
	Timeout     time.Duration
	Concurrency int
}

func New(m mailer.Mailer, logger zerolog.Logger, opts Options) *Notifier {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Notifier{mailer: m, logger: logger, timeout: opts.Timeout, concurrency: opts.Concurrency}
}

func (n *Notifier) Configured() bool {
	return n != nil && n.mailer != nil
}

// Mailer exposes the underlying transport for callers that must wait for
// delivery.
func (n *Notifier) Mailer() mailer.Mailer {
	return n.mailer
}

// Go runs fn in the background with a fresh timeout. The context passed to fn
// is detached from any request.
func (n *Notifier) Go(name string, fn func(ctx context.Context) error) {
	if !n.Configured() {
		if n != nil {
			n.logger.Warn().Msgf("mailer not configured, skipping %s", name)
		}
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.logger.Error().Str("notification", name).Msgf("panic in notification: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			n.logger.Warn().Err(err).Str("notification", name).Msg("notification flow failed")
		}
	}()
}

// Send delivers msgs one after the other in the background.
func (n *Notifier) Send(name string, msgs ...mailer.Message) {
	n.Go(name, func(ctx context.Context) error {
		for _, msg := range msgs {
			n.Deliver(ctx, msg)
		}
		return nil
	})
}

// Deliver sends one message and logs the outcome. It reports whether the
// message was accepted by the transport.
func (n *Notifier) Deliver(ctx context.Context, msg mailer.Message) bool {
	if len(msg.To) == 0 || strings.TrimSpace(msg.To[0]) == "" {
		return false
	}
	id, err := n.mailer.Send(ctx, msg)
	if err != nil {
		n.logger.Warn().Err(err).
			Strs("to", msg.To).
			Str("subject", msg.Subject).
			Msg("failed to send email")
		return false
	}
	n.logger.Info().
		Str("message_id", id).
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Msg("email sent")
	return true
}

// Broadcast delivers msgs concurrently, bounded by the configured
// concurrency, and returns how many were accepted. Individual failures are
// only logged.
func (n *Notifier) Broadcast(ctx context.Context, msgs []mailer.Message) int {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)
	var mu sync.Mutex
	sent := 0
	for _, msg := range msgs {
		g.Go(func() error {
			if n.Deliver(gctx, msg) {
				mu.Lock()
				sent++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return sent
}

// Wait blocks until every pending notification has finished.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

// Shutdown waits for pending notifications or gives up when ctx ends.
func (n *Notifier) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pending notifications abandoned: %w", ctx.Err())
	}
}
