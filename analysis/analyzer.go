package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/critique/core"
	"github.com/poiesic/critique/metrics"
	"github.com/poiesic/critique/prompt"
	"github.com/poiesic/critique/reconcile"
)

const (
	// LowConfidenceThreshold flags feedback whose quality score falls below it.
	LowConfidenceThreshold = 0.5

	releaseTimeout = 5 * time.Second
)

// Context metadata keys added to feedback in context-aware mode.
const (
	ExtraQuestionNumber = "question_number"
	ExtraTotalQuestions = "total_questions"
)

// Input is one question/response pair to analyze.
type Input struct {
	Question string `json:"question"`
	Response string `json:"response"`
}

// Analyzer scores batches of items and reconciles model feedback for them.
type Analyzer struct {
	scorer        *itemScorer
	reconciler    *reconcile.Reconciler
	pool          *ants.Pool
	contextAware  bool
	lowConfidence float64
	logger        *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithPoolSize sets the worker pool size for per-item scoring.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(a *Analyzer) error {
		if size < 1 {
			size = 1
		}
		if a.pool != nil {
			a.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		a.pool = pool
		return nil
	}
}

// WithLengthBounds sets the accepted response length range in characters.
func WithLengthBounds(bounds core.LengthBounds) Option {
	return func(a *Analyzer) error {
		if bounds.Min < 0 || (bounds.Max > 0 && bounds.Max < bounds.Min) {
			return fmt.Errorf("invalid length bounds %d..%d", bounds.Min, bounds.Max)
		}
		a.scorer.bounds = bounds
		return nil
	}
}

// WithContextAware toggles the single interview-wide prompt.
// When disabled every batch uses the plain batch prompt. Default is enabled.
func WithContextAware(enabled bool) Option {
	return func(a *Analyzer) error {
		a.contextAware = enabled
		return nil
	}
}

// WithLowConfidenceThreshold sets the quality score below which feedback is
// flagged as low confidence.
func WithLowConfidenceThreshold(threshold float64) Option {
	return func(a *Analyzer) error {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("low confidence threshold must be in [0, 1], got %v", threshold)
		}
		a.lowConfidence = threshold
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnalyzer creates an analyzer that embeds through encoder and asks the
// model through reconciler.
func NewAnalyzer(encoder metrics.Encoder, reconciler *reconcile.Reconciler, opts ...Option) (*Analyzer, error) {
	if encoder == nil {
		return nil, ErrEncoderRequired
	}
	if reconciler == nil {
		return nil, ErrReconcilerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		scorer:        &itemScorer{encoder: encoder, bounds: core.DefaultLengthBounds()},
		reconciler:    reconciler,
		pool:          pool,
		contextAware:  true,
		lowConfidence: LowConfidenceThreshold,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(a); optErr != nil {
			a.Release()
			return nil, optErr
		}
	}
	a.logger = a.logger.With("component", "analyzer")
	a.scorer.logger = a.logger

	return a, nil
}

// AnalyzeBatch returns one result per input in input order. It never fails:
// invalid items carry an error message and model failures yield fallback
// feedback.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, inputs []Input) []core.ItemResult {
	results := make([]core.ItemResult, len(inputs))
	if len(inputs) == 0 {
		return results
	}
	logger := a.logger.With("batch", uuid.NewString())
	start := time.Now()

	phase := a.scoreAll(ctx, inputs)

	var survivors []core.AnalysisItem
	for i, s := range phase {
		if s.item == nil {
			if s.failure == nil {
				s = panicked(inputs[i], "item was not scored")
			}
			results[i] = *s.failure
			continue
		}
		survivors = append(survivors, *s.item)
	}
	logger.Info("scored batch", "items", len(inputs), "survivors", len(survivors))

	if len(survivors) == 0 {
		return results
	}

	contextMode := a.contextAware && len(survivors) > 1
	var outcome reconcile.Result
	switch {
	case contextMode:
		outcome = a.reconciler.Complete(ctx, prompt.ContextAware(promptItems(survivors)), len(survivors))
	case len(survivors) == 1:
		outcome = a.reconciler.Once(ctx, prompt.Single(promptItems(survivors)[0]), 1)
	default:
		outcome = a.reconciler.Once(ctx, prompt.Batch(promptItems(survivors)), len(survivors))
	}
	if outcome.Fallback() {
		logger.Warn("using fallback feedback", "items", len(survivors), "err", outcome.Err)
	}

	for i, item := range survivors {
		feedback := outcome.Records[i]
		if contextMode {
			if feedback.Extra == nil {
				feedback.Extra = make(map[string]any, 2)
			}
			feedback.Extra[ExtraQuestionNumber] = i + 1
			feedback.Extra[ExtraTotalQuestions] = len(survivors)
		}
		m := item.Metrics
		quality := reconcile.QualityScore(feedback)
		results[item.Position] = core.ItemResult{
			Question:      item.Question,
			Response:      item.Response,
			Metrics:       &m,
			Feedback:      &feedback,
			Quality:       quality,
			LowConfidence: quality < a.lowConfidence,
		}
	}

	logger.Info("analyzed batch", "items", len(inputs), "context_aware", contextMode,
		"state", outcome.State, "elapsed", time.Since(start))
	return results
}

// scoreAll runs phase one on the pool. Each task writes only its own
// position, so completion order does not matter. A panic while scoring
// becomes a processing failure for that position.
func (a *Analyzer) scoreAll(ctx context.Context, inputs []Input) []scored {
	out := make([]scored, len(inputs))
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("panic while scoring item", "position", i, "panic", r)
					out[i] = panicked(in, r)
				}
			}()
			out[i] = a.scorer.score(ctx, i, in)
		}
		if err := a.pool.Submit(task); err != nil {
			a.logger.Warn("pool rejected task, scoring inline", "position", i, "err", err)
			task()
		}
	}
	wg.Wait()
	return out
}

func promptItems(items []core.AnalysisItem) []prompt.Item {
	out := make([]prompt.Item, len(items))
	for i, item := range items {
		out[i] = prompt.Item{Question: item.Question, Response: item.Response, Metrics: item.Metrics}
	}
	return out
}

// Release releases the worker pool without waiting for workers to exit.
// The analyzer should not be used after calling Release.
func (a *Analyzer) Release() {
	if a.pool != nil {
		a.pool.Release()
	}
}

// Close releases the worker pool and waits for its workers to exit.
func (a *Analyzer) Close() error {
	if a.pool == nil {
		return nil
	}
	return a.pool.ReleaseTimeout(releaseTimeout)
}
