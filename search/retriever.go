package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/critique/core"
)

const (
	// DefaultTopK is the number of chunks Retrieve returns by default.
	DefaultTopK = 5

	// FullQueryTopK is how many hits the whole target contributes.
	FullQueryTopK = 3

	// KeywordTopK is how many hits each keyword contributes.
	KeywordTopK = 1
)

// Retriever finds the chunks of a document most relevant to a target text by
// combining a whole-target search with per-keyword searches.
type Retriever struct {
	encoder Encoder
	logger  *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(encoder Encoder, opts ...Option) (*Retriever, error) {
	if encoder == nil {
		return nil, ErrEncoderRequired
	}

	r := &Retriever{
		encoder: encoder,
		logger:  slog.Default().With("component", "retriever"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Retrieve returns up to topK chunks relevant to target.
// A non-positive topK uses DefaultTopK.
func (r *Retriever) Retrieve(ctx context.Context, chunks []core.Chunk, target string, topK int) ([]core.SearchResult, error) {
	return r.RetrieveWithMonitor(ctx, chunks, target, topK, nil)
}

// RetrieveWithMonitor is Retrieve with callbacks at each stage.
//
// The target is searched whole for FullQueryTopK hits, then each of its first
// MaxKeywords words of at least MinKeywordLength runes is searched for
// KeywordTopK hit. Hits are merged with the first occurrence of each distinct
// content winning, sorted by score descending (stable) and truncated to topK.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, chunks []core.Chunk, target string, topK int, monitor RetrievalMonitor) ([]core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	monitor.Start(target, len(chunks))

	store, err := NewStore(r.encoder)
	if err != nil {
		return nil, err
	}
	if err := store.Add(ctx, chunks...); err != nil {
		r.logger.Error("error embedding chunks", "chunks", len(chunks), "err", err)
		return nil, err
	}

	// 1. Whole-target search
	all, err := store.Search(ctx, target, FullQueryTopK)
	if err != nil {
		r.logger.Error("error searching with full target", "err", err)
		return nil, err
	}
	monitor.AfterFullQuerySearch(all)

	// 2. Keyword searches
	keywords := ExtractKeywords(target, MinKeywordLength, MaxKeywords)
	monitor.AfterKeywordExtraction(keywords)
	for _, keyword := range keywords {
		hits, err := store.Search(ctx, keyword, KeywordTopK)
		if err != nil {
			r.logger.Error("error searching keyword", "keyword", keyword, "err", err)
			return nil, err
		}
		monitor.AfterKeywordSearch(keyword, hits)
		all = append(all, hits...)
	}

	// 3. Merge
	seen := make(map[string]bool, len(all))
	results := make([]core.SearchResult, 0, len(all))
	for _, result := range all {
		if seen[result.Content] {
			monitor.DuplicateDropped(result)
			continue
		}
		seen[result.Content] = true
		results = append(results, result)
	}
	sortByScore(results)

	if len(results) > topK {
		results = results[:topK]
	}
	r.logger.Debug("retrieved chunks", "candidates", len(all), "unique", len(seen), "returned", len(results))
	monitor.Finish(results)

	return results, nil
}
