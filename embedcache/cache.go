package embedcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/critique/ai"
	"github.com/poiesic/critique/core"
	"github.com/poiesic/critique/retry"
	"github.com/poiesic/critique/storage"
)

const (
	// DefaultCapacity is the number of vectors kept in memory.
	DefaultCapacity = 1000

	// DefaultMaxAttempts bounds encoder calls per cache miss.
	DefaultMaxAttempts = 2

	// DefaultRetryDelay is the base backoff between encoder attempts.
	DefaultRetryDelay = 500 * time.Millisecond
)

// Stats reports cache effectiveness.
type Stats struct {
	Hits     int
	Misses   int
	TierHits int
	Size     int
	Capacity int
}

// Cache memoizes text embeddings by content fingerprint.
//
// Lookups and inserts, including the encoder call for a miss, happen under a
// single mutex so each distinct text is encoded at most once while it stays
// resident. Returned vectors are shared and must not be modified.
type Cache struct {
	embedder    ai.Embedder
	vectors     *lru.Cache[string, core.Vector]
	tier        storage.VectorTier
	capacity    int
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger

	mu       sync.Mutex
	hits     int
	misses   int
	tierHits int
}

// Option configures a Cache.
type Option func(*Cache) error

// WithCapacity sets the maximum number of vectors held in memory.
func WithCapacity(n int) Option {
	return func(c *Cache) error {
		if n < 1 {
			return fmt.Errorf("capacity must be positive, got %d", n)
		}
		c.capacity = n
		return nil
	}
}

// WithTier adds a persistent second tier consulted on in-memory misses.
func WithTier(tier storage.VectorTier) Option {
	return func(c *Cache) error {
		c.tier = tier
		return nil
	}
}

// WithRetry sets how many times the encoder is attempted and the base delay
// between attempts.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Cache) error {
		if maxAttempts < 1 {
			return fmt.Errorf("max attempts must be positive, got %d", maxAttempts)
		}
		c.maxAttempts = maxAttempts
		c.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger for the cache.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		c.logger = logger
		return nil
	}
}

// New creates an embedding cache in front of embedder.
func New(embedder ai.Embedder, opts ...Option) (*Cache, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}

	c := &Cache{
		embedder:    embedder,
		capacity:    DefaultCapacity,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      slog.Default().With("component", "embedding-cache"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	vectors, err := lru.New[string, core.Vector](c.capacity)
	if err != nil {
		return nil, err
	}
	c.vectors = vectors
	return c, nil
}

// Get returns the embedding for text, encoding it only on a miss.
func (c *Cache) Get(ctx context.Context, text string) (core.Vector, error) {
	vecs, err := c.GetBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// GetBatch returns one embedding per input text, aligned with texts.
// Uncached texts are deduplicated and sent to the encoder in a single call.
func (c *Cache) GetBatch(ctx context.Context, texts []string) ([]core.Vector, error) {
	out := make([]core.Vector, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	missing := make(map[int]string)
	pending := make(map[string]string)
	var order []string
	for i, text := range texts {
		key := core.Fingerprint(text)
		if vec, ok := c.vectors.Get(key); ok {
			c.hits++
			out[i] = vec
			continue
		}
		missing[i] = key
		if _, seen := pending[key]; !seen {
			pending[key] = text
			order = append(order, key)
		}
	}

	if len(order) > 0 {
		resolved, err := c.fill(ctx, order, pending)
		if err != nil {
			return nil, err
		}
		for i, key := range missing {
			out[i] = resolved[key]
		}
	}
	return out, nil
}

// fill resolves the given missing keys from the tier and then the encoder,
// inserting every result into memory. Must be called with lock held.
func (c *Cache) fill(ctx context.Context, order []string, pending map[string]string) (map[string]core.Vector, error) {
	resolved := make(map[string]core.Vector, len(order))
	if c.tier != nil {
		found, err := c.tier.GetVectors(ctx, order...)
		if err != nil {
			c.logger.Warn("vector tier lookup failed", "err", err)
		} else if len(found) > 0 {
			remaining := order[:0:0]
			for _, key := range order {
				if vec, ok := found[key]; ok {
					c.vectors.Add(key, vec)
					resolved[key] = vec
					c.tierHits++
					continue
				}
				remaining = append(remaining, key)
			}
			order = remaining
		}
	}
	if len(order) == 0 {
		return resolved, nil
	}

	batch := make([]string, len(order))
	for i, key := range order {
		batch[i] = pending[key]
	}

	var embeddings [][]float32
	err := retry.WithBackoff(ctx, func() error {
		var err error
		embeddings, err = c.embedder.EmbedTexts(ctx, batch)
		if err != nil {
			return err
		}
		if len(embeddings) != len(batch) {
			return retry.Permanent(fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(batch), len(embeddings)))
		}
		return nil
	}, c.maxAttempts, c.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	c.misses += len(order)
	computed := make(map[string][]float32, len(order))
	for i, key := range order {
		c.vectors.Add(key, embeddings[i])
		resolved[key] = embeddings[i]
		computed[key] = embeddings[i]
	}
	c.logger.Debug("encoded texts", "count", len(order))

	if c.tier != nil {
		if err := c.tier.PutVectors(ctx, computed); err != nil {
			c.logger.Warn("vector tier write failed", "err", err)
		}
	}
	return resolved, nil
}

// Contains reports whether text is resident in memory without touching recency.
func (c *Cache) Contains(text string) bool {
	return c.vectors.Contains(core.Fingerprint(text))
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:     c.hits,
		Misses:   c.misses,
		TierHits: c.tierHits,
		Size:     c.vectors.Len(),
		Capacity: c.capacity,
	}
}

// Purge drops every in-memory vector and resets counters. The tier is left
// untouched; use the tier's own Purge to clear persisted vectors.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors.Purge()
	c.hits, c.misses, c.tierHits = 0, 0, 0
}
