package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/critique/ai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Config controls the circuit breaker and rate limit placed in front of an
// AI service.
type Config struct {
	// Name labels the breaker in logs.
	Name string
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// RequestsPerSecond limits call rate; zero disables limiting.
	RequestsPerSecond float64
	// Burst is the limiter bucket size.
	Burst int
}

// DefaultConfig returns breaker settings suited to a local model server.
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
		Burst:       1,
	}
}

type guard struct {
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func newGuard(cfg Config, logger *slog.Logger) *guard {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		// Cancellation is the caller's doing, not the service's.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	}

	g := &guard{breaker: gobreaker.NewCircuitBreaker(settings)}
	if cfg.RequestsPerSecond > 0 {
		burst := max(cfg.Burst, 1)
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return g
}

func (g *guard) do(ctx context.Context, fn func() (any, error)) (any, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return g.breaker.Execute(fn)
}

// Open reports whether calls are currently being rejected.
func (g *guard) Open() bool {
	return g.breaker.State() == gobreaker.StateOpen
}

// Completer guards an ai.Completer with a circuit breaker and rate limit.
// While the breaker is open calls fail fast with gobreaker.ErrOpenState.
type Completer struct {
	*guard
	next ai.Completer
}

var _ ai.Completer = (*Completer)(nil)

// NewCompleter wraps next.
func NewCompleter(next ai.Completer, cfg Config) *Completer {
	logger := slog.Default().With("component", "resilience")
	return &Completer{guard: newGuard(cfg, logger), next: next}
}

// Complete forwards to the wrapped completer.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := c.do(ctx, func() (any, error) {
		return c.next.Complete(ctx, prompt)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// Embedder guards an ai.Embedder with a circuit breaker and rate limit.
type Embedder struct {
	*guard
	next ai.Embedder
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder wraps next.
func NewEmbedder(next ai.Embedder, cfg Config) *Embedder {
	logger := slog.Default().With("component", "resilience")
	return &Embedder{guard: newGuard(cfg, logger), next: next}
}

// EmbedText forwards to the wrapped embedder.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	out, err := e.do(ctx, func() (any, error) {
		return e.next.EmbedText(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return out.([]float32), nil
}

// EmbedTexts forwards to the wrapped embedder.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := e.do(ctx, func() (any, error) {
		return e.next.EmbedTexts(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return out.([][]float32), nil
}

// Provider wraps every service of an ai.AIProvider.
type Provider struct {
	inner     ai.AIProvider
	embedder  *Embedder
	completer *Completer
}

var _ ai.AIProvider = (*Provider)(nil)

// WrapProvider guards both the embedder and completer of inner.
func WrapProvider(inner ai.AIProvider, embedCfg, completeCfg Config) *Provider {
	return &Provider{
		inner:     inner,
		embedder:  NewEmbedder(inner.Embedder(), embedCfg),
		completer: NewCompleter(inner.Completer(), completeCfg),
	}
}

func (p *Provider) Embedder() ai.Embedder   { return p.embedder }
func (p *Provider) Completer() ai.Completer { return p.completer }
func (p *Provider) Close() error            { return p.inner.Close() }
