package gap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/critique/chunking"
	"github.com/poiesic/critique/core"
	"github.com/poiesic/critique/search"
	"github.com/poiesic/critique/vector"
)

// DefaultThreshold is the similarity below which a reference chunk counts as
// uncovered.
const DefaultThreshold = 0.6

// ErrEncoderRequired is returned when an embedding encoder is not provided.
var ErrEncoderRequired = errors.New("embedding encoder required")

// ComputeMissing returns the reference chunks no candidate covers.
//
// matrix has one row per candidate chunk and one column per reference chunk.
// Reference chunk j is missing when the best similarity in column j is strictly
// below threshold. With no candidate rows every reference chunk is missing.
// Output preserves reference order.
func ComputeMissing(matrix vector.Matrix, reference []core.Chunk, threshold float32) []string {
	missing := make([]string, 0)
	for j, chunk := range reference {
		best, ok := matrix.ColumnMax(j)
		if !ok || best < threshold {
			missing = append(missing, chunk.Content)
		}
	}
	return missing
}

// Report compares coverage of a reference document before and after a revision.
type Report struct {
	MissingBefore []string `json:"missing_before"`
	MissingAfter  []string `json:"missing_after"`
	// Improvement is how many fewer reference chunks are missing after revision.
	Improvement int `json:"improvement"`
}

// Analyzer computes coverage gaps between documents.
type Analyzer struct {
	encoder   search.Encoder
	chunker   *chunking.Chunker
	threshold float32
	logger    *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithThreshold sets the coverage threshold.
func WithThreshold(threshold float32) Option {
	return func(a *Analyzer) error {
		if threshold < -1 || threshold > 1 {
			return fmt.Errorf("threshold must be within [-1, 1], got %v", threshold)
		}
		a.threshold = threshold
		return nil
	}
}

// WithChunkSize sets the number of words per chunk.
func WithChunkSize(size int) Option {
	return func(a *Analyzer) error {
		a.chunker = chunking.New(size)
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		a.logger = logger
		return nil
	}
}

// NewAnalyzer creates a gap analyzer that embeds through encoder.
func NewAnalyzer(encoder search.Encoder, opts ...Option) (*Analyzer, error) {
	if encoder == nil {
		return nil, ErrEncoderRequired
	}
	a := &Analyzer{
		encoder:   encoder,
		chunker:   chunking.New(chunking.DefaultChunkSize),
		threshold: DefaultThreshold,
		logger:    slog.Default().With("component", "gap-analyzer"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Threshold returns the configured coverage threshold.
func (a *Analyzer) Threshold() float32 {
	return a.threshold
}

// Missing chunks candidate and reference text and returns the reference chunks
// candidate does not cover.
func (a *Analyzer) Missing(ctx context.Context, candidate, reference string) ([]string, error) {
	refChunks := a.chunker.Chunks(reference)
	return a.missing(ctx, a.chunker.Chunks(candidate), refChunks)
}

// MissingChunks is Missing over pre-chunked input.
func (a *Analyzer) MissingChunks(ctx context.Context, candidate, reference []core.Chunk) ([]string, error) {
	return a.missing(ctx, candidate, reference)
}

func (a *Analyzer) missing(ctx context.Context, candidate, reference []core.Chunk) ([]string, error) {
	if len(reference) == 0 {
		return []string{}, nil
	}
	refVecs, err := a.encoder.GetBatch(ctx, chunking.Contents(reference))
	if err != nil {
		return nil, err
	}
	candVecs, err := a.encoder.GetBatch(ctx, chunking.Contents(candidate))
	if err != nil {
		return nil, err
	}
	matrix := vector.Similarity(candVecs, refVecs)
	missing := ComputeMissing(matrix, reference, a.threshold)
	a.logger.Debug("computed coverage gaps",
		"candidateChunks", len(candidate),
		"referenceChunks", len(reference),
		"missing", len(missing))
	return missing, nil
}

// Compare reports which reference chunks before and after each leave uncovered.
func (a *Analyzer) Compare(ctx context.Context, before, after, reference string) (Report, error) {
	refChunks := a.chunker.Chunks(reference)
	missingBefore, err := a.missing(ctx, a.chunker.Chunks(before), refChunks)
	if err != nil {
		return Report{}, err
	}
	missingAfter, err := a.missing(ctx, a.chunker.Chunks(after), refChunks)
	if err != nil {
		return Report{}, err
	}
	return Report{
		MissingBefore: missingBefore,
		MissingAfter:  missingAfter,
		Improvement:   len(missingBefore) - len(missingAfter),
	}, nil
}
