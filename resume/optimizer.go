package resume

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/critique/chunking"
	"github.com/poiesic/critique/core"
	"github.com/poiesic/critique/gap"
	"github.com/poiesic/critique/prompt"
	"github.com/poiesic/critique/reconcile"
	"github.com/poiesic/critique/search"
)

var (
	// ErrEmptyInput is returned when the resume or job description is blank.
	ErrEmptyInput = errors.New("resume and job description are required")

	// ErrDependencyRequired is returned when a collaborator is not provided.
	ErrDependencyRequired = errors.New("optimizer dependency required")
)

// Report is the outcome of one optimization.
type Report struct {
	OptimizedResume string              `json:"optimized_resume_text"`
	MissingSkills   []string            `json:"missing_skills"`
	ImprovementTips []string            `json:"improvement_tips"`
	MissingBefore   []string            `json:"before_missing_chunks"`
	MissingAfter    []string            `json:"after_missing_chunks"`
	Improvement     int                 `json:"improvement"`
	Relevant        []core.SearchResult `json:"relevant_chunks"`

	// Fallback is set when the model reply could not be used as a rewrite
	// and OptimizedResume is the original resume.
	Fallback bool `json:"fallback"`
}

type rewrite struct {
	OptimizedResume string   `json:"optimized_resume_text"`
	MissingSkills   []string `json:"missing_skills"`
	ImprovementTips []string `json:"improvement_tips"`
}

// Optimizer rewrites resumes through a model.
type Optimizer struct {
	retriever  *search.Retriever
	gaps       *gap.Analyzer
	reconciler *reconcile.Reconciler
	chunker    *chunking.Chunker
	topK       int
	logger     *slog.Logger
}

// Option configures an Optimizer.
type Option func(*Optimizer) error

// WithTopK sets how many resume chunks are placed in the prompt.
func WithTopK(k int) Option {
	return func(o *Optimizer) error {
		if k < 1 {
			return fmt.Errorf("top k must be positive, got %d", k)
		}
		o.topK = k
		return nil
	}
}

// WithChunkSize sets the chunk size in words.
func WithChunkSize(size int) Option {
	return func(o *Optimizer) error {
		o.chunker = chunking.New(size)
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Optimizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOptimizer creates an optimizer from its collaborators.
func NewOptimizer(retriever *search.Retriever, gaps *gap.Analyzer, reconciler *reconcile.Reconciler, opts ...Option) (*Optimizer, error) {
	if retriever == nil || gaps == nil || reconciler == nil {
		return nil, ErrDependencyRequired
	}
	o := &Optimizer{
		retriever:  retriever,
		gaps:       gaps,
		reconciler: reconciler,
		chunker:    chunking.New(chunking.DefaultChunkSize),
		topK:       search.DefaultTopK,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", "resume-optimizer")
	return o, nil
}

// Optimize rewrites resumeText toward jobDescription. Only embedding failures
// are returned as errors.
func (o *Optimizer) Optimize(ctx context.Context, resumeText, jobDescription string) (Report, error) {
	resumeText = strings.TrimSpace(resumeText)
	jobDescription = strings.TrimSpace(jobDescription)
	if resumeText == "" || jobDescription == "" {
		return Report{}, ErrEmptyInput
	}

	resumeChunks := o.chunker.Chunks(resumeText)
	jdChunks := o.chunker.Chunks(jobDescription)

	before, err := o.gaps.MissingChunks(ctx, resumeChunks, jdChunks)
	if err != nil {
		return Report{}, fmt.Errorf("measuring coverage: %w", err)
	}

	relevant, err := o.retriever.Retrieve(ctx, resumeChunks, jobDescription, o.topK)
	if err != nil {
		return Report{}, fmt.Errorf("retrieving relevant chunks: %w", err)
	}

	p := prompt.ResumeOptimization(relevant, resumeText, jobDescription, before)
	raw, askErr := o.reconciler.Ask(ctx, p, o.reconciler.MaxAttempts())
	out, fallback := o.interpret(raw, askErr, resumeText)

	after, err := o.gaps.MissingChunks(ctx, o.chunker.Chunks(out.OptimizedResume), jdChunks)
	if err != nil {
		return Report{}, fmt.Errorf("measuring rewritten coverage: %w", err)
	}

	o.logger.Info("optimized resume",
		"resumeChunks", len(resumeChunks),
		"jdChunks", len(jdChunks),
		"missingBefore", len(before),
		"missingAfter", len(after),
		"fallback", fallback)

	return Report{
		OptimizedResume: out.OptimizedResume,
		MissingSkills:   nonNil(out.MissingSkills),
		ImprovementTips: nonNil(out.ImprovementTips),
		MissingBefore:   before,
		MissingAfter:    after,
		Improvement:     len(before) - len(after),
		Relevant:        relevant,
		Fallback:        fallback,
	}, nil
}

// interpret turns the model reply into a rewrite and reports whether the
// original resume had to be kept. A reply without any JSON object is taken as
// the rewritten text itself.
func (o *Optimizer) interpret(raw string, askErr error, original string) (rewrite, bool) {
	if askErr != nil {
		o.logger.Warn("model call failed, keeping original resume", "err", askErr)
		return rewrite{OptimizedResume: original}, true
	}

	var out rewrite
	err := reconcile.ParseObject(raw, &out)
	switch {
	case errors.Is(err, reconcile.ErrNoJSONObject):
		o.logger.Debug("model replied with plain text, using it as the rewrite")
		return rewrite{OptimizedResume: strings.TrimSpace(raw)}, false
	case err != nil:
		o.logger.Warn("unusable model reply, keeping original resume", "err", err)
		return rewrite{OptimizedResume: original}, true
	}

	if strings.TrimSpace(out.OptimizedResume) == "" {
		out.OptimizedResume = original
		return out, true
	}
	return out, false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
