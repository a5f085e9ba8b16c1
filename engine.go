// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package critique

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/critique/ai"
	"github.com/poiesic/critique/ai/openai"
	"github.com/poiesic/critique/ai/resilience"
	"github.com/poiesic/critique/analysis"
	"github.com/poiesic/critique/chunking"
	"github.com/poiesic/critique/config"
	"github.com/poiesic/critique/core"
	"github.com/poiesic/critique/embedcache"
	"github.com/poiesic/critique/gap"
	"github.com/poiesic/critique/reconcile"
	"github.com/poiesic/critique/resume"
	"github.com/poiesic/critique/search"
	"github.com/poiesic/critique/storage"
	"github.com/poiesic/critique/storage/badger"
	"github.com/poiesic/critique/vector"
)

// ErrProviderRequired is returned when no AI provider is supplied.
var ErrProviderRequired = errors.New("AI provider required")

// Engine wires the chunker, embedding cache, retriever, gap analyzer,
// reconciler, batch analyzer and resume optimizer over one AI provider.
// It is safe for concurrent use; call Close when done.
type Engine struct {
	provider   ai.AIProvider
	tier       storage.VectorTier
	ownsTier   bool
	cache      *embedcache.Cache
	chunker    *chunking.Chunker
	retriever  *search.Retriever
	gaps       *gap.Analyzer
	reconciler *reconcile.Reconciler
	analyzer   *analysis.Analyzer
	optimizer  *resume.Optimizer
	config     *config.Config
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	config    *config.Config
	tier      storage.VectorTier
	resilient bool
	logger    *slog.Logger
}

// WithConfig supplies settings. Default is config.Default().
func WithConfig(cfg *config.Config) EngineOption {
	return func(o *engineOptions) {
		o.config = cfg
	}
}

// WithVectorTier supplies a second cache tier. The caller keeps ownership.
// Without it, a tier is opened under the configured cache directory if set.
func WithVectorTier(tier storage.VectorTier) EngineOption {
	return func(o *engineOptions) {
		o.tier = tier
	}
}

// WithoutResilience skips the circuit breaker and rate limiter around the
// provider's services.
func WithoutResilience() EngineOption {
	return func(o *engineOptions) {
		o.resilient = false
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// Open creates an engine backed by the OpenAI-compatible services in cfg.
func Open(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	provider, err := openai.NewProvider(cfg.AIConfig())
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(provider, append([]EngineOption{WithConfig(cfg)}, opts...)...)
	if err != nil {
		provider.Close()
		return nil, err
	}
	return engine, nil
}

// NewEngine wires every component over provider. The engine owns provider
// and closes it in Close.
func NewEngine(provider ai.AIProvider, opts ...EngineOption) (*Engine, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	options := &engineOptions{
		config:    config.Default(),
		resilient: true,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	cfg := options.config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	if options.resilient {
		provider = resilience.WrapProvider(provider, cfg.BreakerConfig("embedder"), cfg.BreakerConfig("completer"))
	}

	e := &Engine{
		provider: provider,
		tier:     options.tier,
		chunker:  chunking.New(cfg.Retrieval.ChunkSize),
		config:   cfg,
		logger:   logger,
	}
	if e.tier == nil && cfg.Cache.Dir != "" {
		tier, err := badger.OpenVectorTier(cfg.Cache.Dir, cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		e.tier = tier
		e.ownsTier = true
	}

	if err := e.build(); err != nil {
		e.closeTier()
		return nil, err
	}
	return e, nil
}

func (e *Engine) build() error {
	cfg := e.config
	var err error

	cacheOpts := []embedcache.Option{
		embedcache.WithCapacity(cfg.Cache.Capacity),
		embedcache.WithRetry(cfg.Analysis.MaxAttempts, cfg.Analysis.RetryDelay),
		embedcache.WithLogger(e.logger.With("component", "embedding-cache")),
	}
	if e.tier != nil {
		cacheOpts = append(cacheOpts, embedcache.WithTier(e.tier))
	}
	if e.cache, err = embedcache.New(e.provider.Embedder(), cacheOpts...); err != nil {
		return err
	}

	if e.retriever, err = search.NewRetriever(e.cache,
		search.WithLogger(e.logger.With("component", "retriever"))); err != nil {
		return err
	}

	if e.gaps, err = gap.NewAnalyzer(e.cache,
		gap.WithThreshold(cfg.Retrieval.SimilarityThreshold),
		gap.WithChunkSize(cfg.Retrieval.ChunkSize),
		gap.WithLogger(e.logger.With("component", "gap-analyzer"))); err != nil {
		return err
	}

	if e.reconciler, err = reconcile.NewReconciler(e.provider.Completer(),
		reconcile.WithMaxAttempts(cfg.Analysis.MaxAttempts),
		reconcile.WithRetryDelay(cfg.Analysis.RetryDelay),
		reconcile.WithLogger(e.logger.With("component", "reconciler"))); err != nil {
		return err
	}

	analyzerOpts := []analysis.Option{
		analysis.WithLengthBounds(cfg.LengthBounds()),
		analysis.WithContextAware(cfg.Analysis.ContextAware),
		analysis.WithLowConfidenceThreshold(cfg.Analysis.LowConfidenceThreshold),
		analysis.WithLogger(e.logger),
	}
	if cfg.Analysis.PoolSize > 0 {
		analyzerOpts = append(analyzerOpts, analysis.WithPoolSize(cfg.Analysis.PoolSize))
	}
	if e.analyzer, err = analysis.NewAnalyzer(e.cache, e.reconciler, analyzerOpts...); err != nil {
		return err
	}

	e.optimizer, err = resume.NewOptimizer(e.retriever, e.gaps, e.reconciler,
		resume.WithTopK(cfg.Retrieval.TopK),
		resume.WithChunkSize(cfg.Retrieval.ChunkSize),
		resume.WithLogger(e.logger))
	if err != nil {
		e.analyzer.Release()
		return err
	}
	return nil
}

// Close releases the worker pool, the cache tier if the engine opened it,
// and the provider.
func (e *Engine) Close() error {
	var errs []error
	if err := e.analyzer.Close(); err != nil {
		e.logger.Error("error releasing analyzer pool", "err", err)
		errs = append(errs, err)
	}
	if err := e.closeTier(); err != nil {
		e.logger.Error("error closing vector tier", "err", err)
		errs = append(errs, err)
	}
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *Engine) closeTier() error {
	if e.tier == nil || !e.ownsTier {
		return nil
	}
	return e.tier.Close()
}

// AnalyzeBatch scores and critiques items, returning one result per item in
// input order.
func (e *Engine) AnalyzeBatch(ctx context.Context, items []analysis.Input) []core.ItemResult {
	return e.analyzer.AnalyzeBatch(ctx, items)
}

// Chunk splits text with the configured chunk size.
func (e *Engine) Chunk(text string) []core.Chunk {
	return e.chunker.Chunks(text)
}

// RetrieveRelevantChunks ranks chunks against target. topK <= 0 uses the
// configured default.
func (e *Engine) RetrieveRelevantChunks(ctx context.Context, chunks []core.Chunk, target string, topK int) ([]core.SearchResult, error) {
	if topK <= 0 {
		topK = e.config.Retrieval.TopK
	}
	return e.retriever.Retrieve(ctx, chunks, target, topK)
}

// ComputeMissing lists reference chunks whose best similarity in matrix is
// below threshold.
func (e *Engine) ComputeMissing(matrix vector.Matrix, reference []core.Chunk, threshold float32) []string {
	return gap.ComputeMissing(matrix, reference, threshold)
}

// MissingChunks lists the reference chunks candidate does not cover at the
// configured threshold.
func (e *Engine) MissingChunks(ctx context.Context, candidate, reference string) ([]string, error) {
	return e.gaps.Missing(ctx, candidate, reference)
}

// CompareCoverage measures how much better after covers reference than before.
func (e *Engine) CompareCoverage(ctx context.Context, before, after, reference string) (gap.Report, error) {
	return e.gaps.Compare(ctx, before, after, reference)
}

// OptimizeResume rewrites resumeText toward jobDescription.
func (e *Engine) OptimizeResume(ctx context.Context, resumeText, jobDescription string) (resume.Report, error) {
	return e.optimizer.Optimize(ctx, resumeText, jobDescription)
}

// Warm embeds texts ahead of time so later calls hit the cache.
func (e *Engine) Warm(ctx context.Context, texts []string, tracker *embedcache.ProgressTracker) (int, error) {
	return embedcache.Warm(ctx, e.cache, texts, embedcache.DefaultWarmBatchSize, tracker)
}

// CacheStats reports embedding cache counters.
func (e *Engine) CacheStats() embedcache.Stats {
	return e.cache.Stats()
}

// Config returns the settings the engine was built with.
func (e *Engine) Config() *config.Config {
	return e.config
}
