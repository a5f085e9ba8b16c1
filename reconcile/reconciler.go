package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/critique/ai"
	"github.com/poiesic/critique/retry"
)

const (
	// DefaultMaxAttempts bounds model calls per prompt.
	DefaultMaxAttempts = 2

	// DefaultRetryDelay is the base backoff between model calls.
	DefaultRetryDelay = time.Second
)

// Reconciler calls a model and reconciles its reply, retrying transport
// failures and empty replies before falling back.
type Reconciler struct {
	completer   ai.Completer
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler) error

// WithMaxAttempts sets how many times the model is called per prompt.
func WithMaxAttempts(n int) Option {
	return func(r *Reconciler) error {
		if n < 1 {
			return fmt.Errorf("max attempts must be positive, got %d", n)
		}
		r.maxAttempts = n
		return nil
	}
}

// WithRetryDelay sets the base backoff between model calls.
func WithRetryDelay(d time.Duration) Option {
	return func(r *Reconciler) error {
		r.retryDelay = d
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) error {
		r.logger = logger
		return nil
	}
}

// NewReconciler creates a reconciler over completer.
func NewReconciler(completer ai.Completer, opts ...Option) (*Reconciler, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	r := &Reconciler{
		completer:   completer,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      slog.Default().With("component", "reconciler"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MaxAttempts returns the configured number of model calls per prompt.
func (r *Reconciler) MaxAttempts() int {
	return r.maxAttempts
}

// Ask calls the model with up to attempts tries, retrying on errors and
// blank replies. It returns the last error when every attempt failed.
func (r *Reconciler) Ask(ctx context.Context, prompt string, attempts int) (string, error) {
	var reply string
	err := retry.WithBackoff(ctx, func() error {
		out, err := r.completer.Complete(ctx, prompt)
		if err != nil {
			return err
		}
		if strings.TrimSpace(out) == "" {
			return ErrEmptyReply
		}
		reply = out
		return nil
	}, attempts, r.retryDelay)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// Complete asks the model with the configured retry policy and reconciles the
// reply into exactly n records. Exhausted retries yield fallback records; no
// error is returned.
func (r *Reconciler) Complete(ctx context.Context, prompt string, n int) Result {
	return r.complete(ctx, prompt, n, r.maxAttempts)
}

// Once is Complete with a single model call.
func (r *Reconciler) Once(ctx context.Context, prompt string, n int) Result {
	return r.complete(ctx, prompt, n, 1)
}

func (r *Reconciler) complete(ctx context.Context, prompt string, n int, attempts int) Result {
	reply, err := r.Ask(ctx, prompt, attempts)
	if err != nil {
		r.logger.Warn("model call failed, using fallback feedback", "attempts", attempts, "items", n, "err", err)
		return failed(n, RawReceived, err)
	}

	result := Reconcile(reply, n)
	switch {
	case result.State == Failed:
		r.logger.Warn("could not reconcile model reply", "items", n, "err", result.Err)
	case result.Padded > 0:
		r.logger.Info("model reply covered fewer items than requested", "items", n, "padded", result.Padded)
	case result.Truncated > 0:
		r.logger.Debug("model reply had surplus items", "items", n, "truncated", result.Truncated)
	}
	return result
}
