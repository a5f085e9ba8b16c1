package search

import (
	"context"
	"fmt"
	"slices"

	"github.com/poiesic/critique/core"
	"github.com/poiesic/critique/vector"
)

// Encoder turns text into embedding vectors. *embedcache.Cache satisfies it.
type Encoder interface {
	Get(ctx context.Context, text string) (core.Vector, error)
	GetBatch(ctx context.Context, texts []string) ([]core.Vector, error)
}

// Store is an append-only, in-memory collection of chunks and their vectors,
// searchable by cosine similarity. It is scoped to a single request.
// A Store is not safe for concurrent Add.
type Store struct {
	encoder Encoder
	chunks  []core.Chunk
	vectors []core.Vector
}

// NewStore creates an empty store that embeds through encoder.
func NewStore(encoder Encoder) (*Store, error) {
	if encoder == nil {
		return nil, ErrEncoderRequired
	}
	return &Store{encoder: encoder}, nil
}

// Len returns the number of chunks stored.
func (s *Store) Len() int {
	return len(s.chunks)
}

// Add embeds chunks and appends them. Chunks without a SourceID are labeled
// "chunk_<i>" by their position within this call. On error nothing is added.
func (s *Store) Add(ctx context.Context, chunks ...core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vecs, err := s.encoder.GetBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("%w: %d chunks, %d vectors", ErrVectorCountMismatch, len(chunks), len(vecs))
	}

	for i, c := range chunks {
		if c.SourceID == "" {
			c.SourceID = fmt.Sprintf("chunk_%d", i)
		}
		s.chunks = append(s.chunks, c)
	}
	s.vectors = append(s.vectors, vecs...)
	return nil
}

// Search returns up to topK chunks ranked by cosine similarity to query,
// highest first. Equal scores keep insertion order. An empty store or a
// non-positive topK yields an empty result without embedding the query.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]core.SearchResult, error) {
	if len(s.chunks) == 0 || topK <= 0 {
		return []core.SearchResult{}, nil
	}

	q, err := s.encoder.Get(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]core.SearchResult, len(s.chunks))
	for i, c := range s.chunks {
		results[i] = core.SearchResult{
			Content: c.Content,
			Score:   vector.Cosine(q, s.vectors[i]),
			Source:  c.SourceID,
		}
	}
	sortByScore(results)

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// sortByScore orders results by descending score, stable on ties.
func sortByScore(results []core.SearchResult) {
	slices.SortStableFunc(results, func(a, b core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
}
