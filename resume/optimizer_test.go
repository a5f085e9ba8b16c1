package resume

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/critique/ai/mock"
	"github.com/poiesic/critique/embedcache"
	"github.com/poiesic/critique/gap"
	"github.com/poiesic/critique/reconcile"
	"github.com/poiesic/critique/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testResume = "go kubernetes"
	testJD     = "go kubernetes terraform aws"
)

func newTestOptimizer(t *testing.T, completer *mock.MockCompleter) (*Optimizer, *mock.MockEmbedder) {
	t.Helper()
	embedder := mock.NewMockEmbedder()
	cache, err := embedcache.New(embedder, embedcache.WithRetry(1, time.Millisecond))
	require.NoError(t, err)
	retriever, err := search.NewRetriever(cache)
	require.NoError(t, err)
	gaps, err := gap.NewAnalyzer(cache)
	require.NoError(t, err)
	reconciler, err := reconcile.NewReconciler(completer, reconcile.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	o, err := NewOptimizer(retriever, gaps, reconciler, WithChunkSize(2))
	require.NoError(t, err)
	return o, embedder
}

func TestNewOptimizer(t *testing.T) {
	_, err := NewOptimizer(nil, nil, nil)
	assert.ErrorIs(t, err, ErrDependencyRequired)

	o, _ := newTestOptimizer(t, mock.NewMockCompleter())
	_, err = NewOptimizer(o.retriever, o.gaps, o.reconciler, WithTopK(0))
	assert.Error(t, err)
}

func TestOptimize_UsesRewrite(t *testing.T) {
	reply := "```json\n" + `{
		"optimized_resume_text": "go kubernetes terraform aws",
		"missing_skills": ["terraform"],
		"improvement_tips": ["Quantify impact"],
	}` + "\n```"
	completer := mock.NewMockCompleter(reply)
	o, _ := newTestOptimizer(t, completer)

	report, err := o.Optimize(context.Background(), testResume, testJD)
	require.NoError(t, err)

	assert.False(t, report.Fallback)
	assert.Equal(t, "go kubernetes terraform aws", report.OptimizedResume)
	assert.Equal(t, []string{"terraform"}, report.MissingSkills)
	assert.Equal(t, []string{"Quantify impact"}, report.ImprovementTips)
	assert.Equal(t, []string{"terraform aws"}, report.MissingBefore)
	assert.Empty(t, report.MissingAfter)
	assert.Equal(t, 1, report.Improvement)
	require.NotEmpty(t, report.Relevant)
	assert.Equal(t, testResume, report.Relevant[0].Content)

	prompts := completer.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "] go kubernetes")
	assert.Contains(t, prompts[0], "- terraform aws")
}

func TestOptimize_PlainTextReply(t *testing.T) {
	o, _ := newTestOptimizer(t, mock.NewMockCompleter("  A rewritten resume without JSON.  "))

	report, err := o.Optimize(context.Background(), testResume, testJD)
	require.NoError(t, err)

	assert.False(t, report.Fallback)
	assert.Equal(t, "A rewritten resume without JSON.", report.OptimizedResume)
	assert.Equal(t, []string{}, report.MissingSkills)
	assert.Equal(t, []string{}, report.ImprovementTips)
}

func TestOptimize_MalformedReplyKeepsResume(t *testing.T) {
	o, _ := newTestOptimizer(t, mock.NewMockCompleter(`{"optimized_resume_text": [1, 2}`))

	report, err := o.Optimize(context.Background(), testResume, testJD)
	require.NoError(t, err)

	assert.True(t, report.Fallback)
	assert.Equal(t, testResume, report.OptimizedResume)
	assert.Equal(t, report.MissingBefore, report.MissingAfter)
	assert.Equal(t, 0, report.Improvement)
}

func TestOptimize_EmptyRepliesKeepResume(t *testing.T) {
	completer := mock.NewMockCompleter("")
	o, _ := newTestOptimizer(t, completer)

	report, err := o.Optimize(context.Background(), testResume, testJD)
	require.NoError(t, err)

	assert.True(t, report.Fallback)
	assert.Equal(t, testResume, report.OptimizedResume)
	assert.Equal(t, reconcile.DefaultMaxAttempts, completer.CallCount())
}

func TestOptimize_BlankRewriteKeepsResume(t *testing.T) {
	o, _ := newTestOptimizer(t, mock.NewMockCompleter(`{"optimized_resume_text": "  ", "missing_skills": ["aws"]}`))

	report, err := o.Optimize(context.Background(), testResume, testJD)
	require.NoError(t, err)

	assert.True(t, report.Fallback)
	assert.Equal(t, testResume, report.OptimizedResume)
	assert.Equal(t, []string{"aws"}, report.MissingSkills)
}

func TestOptimize_EmptyInput(t *testing.T) {
	o, _ := newTestOptimizer(t, mock.NewMockCompleter())

	_, err := o.Optimize(context.Background(), "   ", testJD)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = o.Optimize(context.Background(), testResume, "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestOptimize_EmbeddingFailure(t *testing.T) {
	completer := mock.NewMockCompleter("{}")
	o, embedder := newTestOptimizer(t, completer)
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("encoder offline")
	}

	_, err := o.Optimize(context.Background(), testResume, testJD)
	require.Error(t, err)
	assert.ErrorIs(t, err, embedcache.ErrEmbeddingFailed)
	assert.Equal(t, 0, completer.CallCount())
}
