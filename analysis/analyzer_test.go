package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/critique/ai/mock"
	"github.com/poiesic/critique/core"
	"github.com/poiesic/critique/embedcache"
	"github.com/poiesic/critique/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const validReply = `[{"strengths": ["Clear"], "weaknesses": ["Short"], "improvement_tips": ["Add an example"]}]`

type fixture struct {
	embedder  *mock.MockEmbedder
	completer *mock.MockCompleter
	analyzer  *Analyzer
}

func newFixture(t *testing.T, completer *mock.MockCompleter, opts ...Option) *fixture {
	t.Helper()
	embedder := mock.NewMockEmbedder()
	cache, err := embedcache.New(embedder, embedcache.WithRetry(1, time.Millisecond))
	require.NoError(t, err)
	reconciler, err := reconcile.NewReconciler(completer,
		reconcile.WithMaxAttempts(2),
		reconcile.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	analyzer, err := NewAnalyzer(cache, reconciler, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = analyzer.Close() })

	return &fixture{embedder: embedder, completer: completer, analyzer: analyzer}
}

func TestNewAnalyzer(t *testing.T) {
	cache, err := embedcache.New(mock.NewMockEmbedder())
	require.NoError(t, err)
	reconciler, err := reconcile.NewReconciler(mock.NewMockCompleter())
	require.NoError(t, err)

	_, err = NewAnalyzer(nil, reconciler)
	assert.ErrorIs(t, err, ErrEncoderRequired)

	_, err = NewAnalyzer(cache, nil)
	assert.ErrorIs(t, err, ErrReconcilerRequired)

	_, err = NewAnalyzer(cache, reconciler, WithLowConfidenceThreshold(1.5))
	assert.Error(t, err)

	_, err = NewAnalyzer(cache, reconciler, WithLengthBounds(core.LengthBounds{Min: 20, Max: 10}))
	assert.Error(t, err)

	a, err := NewAnalyzer(cache, reconciler, WithPoolSize(0), WithLogger(nil))
	require.NoError(t, err)
	assert.NoError(t, a.Close())
}

func TestAnalyzeBatch_InvalidItemNeverReachesModel(t *testing.T) {
	f := newFixture(t, mock.NewMockCompleter(validReply))

	results := f.analyzer.AnalyzeBatch(context.Background(), []Input{
		{Question: "What is your greatest strength?", Response: "I value teamwork and communication."},
		{Question: "Describe a challenge.", Response: "ok"},
	})

	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, "What is your greatest strength?", first.Question)
	assert.False(t, first.Failed())
	require.NotNil(t, first.Metrics)
	assert.Equal(t, 6, first.Metrics.Objective.WordCount)
	require.NotNil(t, first.Feedback)
	assert.Equal(t, []string{"Clear"}, first.Feedback.Strengths)
	assert.Equal(t, []string{"Short"}, first.Feedback.Weaknesses)
	assert.Equal(t, []string{"Add an example"}, first.Feedback.ImprovementTips)
	assert.Nil(t, first.Feedback.Extra)
	assert.InDelta(t, 1.0, first.Quality, 1e-9)
	assert.False(t, first.LowConfidence)

	second := results[1]
	assert.True(t, second.Failed())
	assert.Equal(t, "Response too short (minimum 10 characters)", second.Error)
	assert.Nil(t, second.Feedback)
	assert.Nil(t, second.Metrics)

	assert.Equal(t, 1, f.completer.CallCount())
	prompts := f.completer.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "What is your greatest strength?")
	assert.NotContains(t, prompts[0], "Describe a challenge.")
}

func TestAnalyzeBatch_EmptyRepliesFallBack(t *testing.T) {
	f := newFixture(t, mock.NewMockCompleter(""))

	results := f.analyzer.AnalyzeBatch(context.Background(), []Input{
		{Question: "Tell me about yourself.", Response: "I have built distributed systems for a decade."},
		{Question: "Why this role?", Response: "The team works on problems I care about deeply."},
	})

	require.Len(t, results, 2)
	assert.Equal(t, 2, f.completer.CallCount())

	fallback := reconcile.FallbackRecord()
	for i, r := range results {
		require.NotNil(t, r.Feedback, "result %d", i)
		assert.Equal(t, fallback.Strengths, r.Feedback.Strengths)
		assert.Equal(t, fallback.Weaknesses, r.Feedback.Weaknesses)
		assert.Equal(t, fallback.ImprovementTips, r.Feedback.ImprovementTips)
		assert.InDelta(t, 0.35, r.Quality, 1e-9)
		assert.True(t, r.LowConfidence)
	}
}

func TestAnalyzeBatch_ContextMetadata(t *testing.T) {
	reply := `[
		{"strengths": ["a"], "weaknesses": [], "improvement_tips": ["x"]},
		{"strengths": ["b"], "weaknesses": [], "improvement_tips": ["y"]},
		{"strengths": ["c"], "weaknesses": [], "improvement_tips": ["z"]},
	]`
	f := newFixture(t, mock.NewMockCompleter(reply))

	results := f.analyzer.AnalyzeBatch(context.Background(), []Input{
		{Question: "First question?", Response: "A sufficiently long first answer."},
		{Question: "Second question?", Response: "pass"},
		{Question: "Third question?", Response: "A sufficiently long second answer."},
		{Question: "Fourth question?", Response: "A sufficiently long third answer."},
	})

	require.Len(t, results, 4)
	assert.True(t, results[1].Failed())
	assert.Contains(t, results[1].Error, "Response too short")

	expected := map[int]struct {
		strength string
		number   int
	}{0: {"a", 1}, 2: {"b", 2}, 3: {"c", 3}}
	for pos, want := range expected {
		fb := results[pos].Feedback
		require.NotNil(t, fb, "position %d", pos)
		assert.Equal(t, []string{want.strength}, fb.Strengths)
		assert.Equal(t, want.number, fb.Extra[ExtraQuestionNumber])
		assert.Equal(t, 3, fb.Extra[ExtraTotalQuestions])
	}

	prompts := f.completer.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "--- Question 3/3 ---")
	assert.Contains(t, prompts[0], "Previous Q&A Context")
	assert.NotContains(t, prompts[0], "Second question?")
}

func TestAnalyzeBatch_ContextDisabled(t *testing.T) {
	f := newFixture(t, mock.NewMockCompleter(""), WithContextAware(false))

	results := f.analyzer.AnalyzeBatch(context.Background(), []Input{
		{Question: "One?", Response: "An answer that is long enough."},
		{Question: "Two?", Response: "Another answer that is long enough."},
	})

	require.Len(t, results, 2)
	assert.Equal(t, 1, f.completer.CallCount())
	prompts := f.completer.Prompts()
	assert.NotContains(t, prompts[0], "Previous Q&A Context")
	for _, r := range results {
		require.NotNil(t, r.Feedback)
		assert.Equal(t, reconcile.FallbackRecord().Weaknesses, r.Feedback.Weaknesses)
		assert.Nil(t, r.Feedback.Extra)
	}
}

func TestAnalyzeBatch_EmbeddingFailure(t *testing.T) {
	f := newFixture(t, mock.NewMockCompleter(validReply))
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("encoder offline")
	}

	results := f.analyzer.AnalyzeBatch(context.Background(), []Input{
		{Question: "Q?", Response: "A long enough response here."},
	})

	require.Len(t, results, 1)
	assert.True(t, strings.HasPrefix(results[0].Error, "Processing failed: "))
	assert.Contains(t, results[0].Error, "encoder offline")
	assert.Equal(t, 0, f.completer.CallCount())
}

func TestAnalyzeBatch_EncoderPanicIsItemFailure(t *testing.T) {
	f := newFixture(t, mock.NewMockCompleter(validReply), WithPoolSize(2))
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		for _, text := range texts {
			if strings.Contains(text, "boom") {
				panic("boom")
			}
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.DeterministicVector(text, mock.DefaultDimension)
		}
		return out, nil
	}

	var results []core.ItemResult
	require.NotPanics(t, func() {
		results = f.analyzer.AnalyzeBatch(context.Background(), []Input{
			{Question: "What did you build?", Response: "A scheduler for batch jobs."},
			{Question: "What went wrong?", Response: "Everything went boom at once."},
		})
	})

	require.Len(t, results, 2)
	require.NotNil(t, results[0].Feedback)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, []string{"Clear"}, results[0].Feedback.Strengths)

	assert.Nil(t, results[1].Feedback)
	assert.Equal(t, "Processing failed: boom", results[1].Error)
	assert.Equal(t, "Everything went boom at once.", results[1].Response)
	assert.Equal(t, 1, f.completer.CallCount())
}

func TestAnalyzeBatch_InvalidMetrics(t *testing.T) {
	f := newFixture(t, mock.NewMockCompleter(validReply))
	nan := float32(math.NaN())
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{nan, nan}, nil
	}

	results := f.analyzer.AnalyzeBatch(context.Background(), []Input{
		{Question: "Q?", Response: "A long enough response here."},
	})

	require.Len(t, results, 1)
	assert.Equal(t, "Invalid metrics computed", results[0].Error)
	assert.Equal(t, 0, f.completer.CallCount())
}

func TestAnalyzeBatch_PreservesOrder(t *testing.T) {
	const n = 20
	records := make([]string, 0, n/2)
	for k := 0; k < n/2; k++ {
		records = append(records, fmt.Sprintf(`{"strengths": ["s%d"], "weaknesses": ["w"], "improvement_tips": ["t"]}`, k))
	}
	f := newFixture(t, mock.NewMockCompleter("["+strings.Join(records, ",")+"]"), WithPoolSize(4))

	inputs := make([]Input, n)
	for i := range inputs {
		inputs[i] = Input{Question: fmt.Sprintf("Question %d?", i), Response: fmt.Sprintf("Answer number %d is long enough.", i)}
		if i%2 == 1 {
			inputs[i].Response = "skip"
		}
	}

	results := f.analyzer.AnalyzeBatch(context.Background(), inputs)

	require.Len(t, results, n)
	for i, r := range results {
		assert.Equal(t, inputs[i].Question, r.Question)
		if i%2 == 1 {
			assert.True(t, r.Failed(), "position %d", i)
			continue
		}
		require.NotNil(t, r.Feedback, "position %d", i)
		assert.Equal(t, []string{fmt.Sprintf("s%d", i/2)}, r.Feedback.Strengths)
	}
}

func TestAnalyzeBatch_TrimsInput(t *testing.T) {
	f := newFixture(t, mock.NewMockCompleter(validReply))

	results := f.analyzer.AnalyzeBatch(context.Background(), []Input{
		{Question: "  Padded?  ", Response: "\n  A response with padding around it.  \n"},
	})

	require.Len(t, results, 1)
	assert.Equal(t, "Padded?", results[0].Question)
	assert.Equal(t, "A response with padding around it.", results[0].Response)
}

func TestAnalyzeBatch_Empty(t *testing.T) {
	f := newFixture(t, mock.NewMockCompleter(validReply))

	results := f.analyzer.AnalyzeBatch(context.Background(), nil)

	assert.Empty(t, results)
	assert.Equal(t, 0, f.completer.CallCount())
	assert.Equal(t, 0, f.embedder.CallCount())
}

func TestAnalyzeBatch_AllInvalid(t *testing.T) {
	f := newFixture(t, mock.NewMockCompleter(validReply))

	results := f.analyzer.AnalyzeBatch(context.Background(), []Input{
		{Question: "", Response: "A long enough response here."},
		{Question: "Q?", Response: ""},
	})

	require.Len(t, results, 2)
	assert.Contains(t, results[0].Error, "Question text is required")
	assert.Contains(t, results[1].Error, "Response text is required")
	assert.Equal(t, 0, f.completer.CallCount())
}

func TestClose_StopsWorkers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cache, err := embedcache.New(mock.NewMockEmbedder())
	require.NoError(t, err)
	reconciler, err := reconcile.NewReconciler(mock.NewMockCompleter(validReply))
	require.NoError(t, err)
	a, err := NewAnalyzer(cache, reconciler, WithPoolSize(3))
	require.NoError(t, err)

	results := a.AnalyzeBatch(context.Background(), []Input{
		{Question: "Q?", Response: "A long enough response here."},
	})
	require.Len(t, results, 1)

	require.NoError(t, a.Close())
}
