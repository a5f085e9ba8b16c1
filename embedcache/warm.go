package embedcache

import (
	"context"
	"fmt"
)

// DefaultWarmBatchSize is the number of texts sent per encoder call during Warm.
const DefaultWarmBatchSize = 32

// Warm pre-embeds texts in batches so later lookups are served from memory
// (and from the tier, when configured). tracker may be nil.
// Returns the number of texts processed before any error.
func Warm(ctx context.Context, cache *Cache, texts []string, batchSize int, tracker *ProgressTracker) (int, error) {
	if batchSize < 1 {
		batchSize = DefaultWarmBatchSize
	}
	if tracker != nil {
		tracker.Start()
	}

	done := 0
	for start := 0; start < len(texts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		end := min(start+batchSize, len(texts))
		if _, err := cache.GetBatch(ctx, texts[start:end]); err != nil {
			return done, fmt.Errorf("warm batch %d-%d: %w", start, end, err)
		}
		done = end
		if tracker != nil {
			tracker.Increment(end - start)
		}
	}

	if tracker != nil {
		tracker.Finish()
	}
	cache.logger.Info("cache warmed", "texts", done)
	return done, nil
}
