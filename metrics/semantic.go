package metrics

import (
	"context"
	"strings"

	"github.com/poiesic/critique/core"
	"github.com/poiesic/critique/vector"
)

// Encoder turns text into embedding vectors. *embedcache.Cache satisfies it.
type Encoder interface {
	Get(ctx context.Context, text string) (core.Vector, error)
	GetBatch(ctx context.Context, texts []string) ([]core.Vector, error)
}

// Semantic computes embedding-derived scores for a question/response pair.
//
// Relevance is the cosine similarity of question and response clamped to
// [0, 1]. Coherence is the mean pairwise cosine similarity of the response's
// '.'-separated sentences, clamped to [0, 1], and 1 for a single sentence.
func Semantic(ctx context.Context, enc Encoder, question, response string) (core.SemanticMetrics, error) {
	vecs, err := enc.GetBatch(ctx, []string{question, response})
	if err != nil {
		return core.SemanticMetrics{}, err
	}
	coherence, err := Coherence(ctx, enc, response)
	if err != nil {
		return core.SemanticMetrics{}, err
	}
	return core.SemanticMetrics{
		RelevanceScore: clamp01(float64(vector.Cosine(vecs[0], vecs[1]))),
		TopicCoherence: coherence,
	}, nil
}

// Coherence is the topic coherence of text on its own.
func Coherence(ctx context.Context, enc Encoder, text string) (float64, error) {
	var sentences []string
	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) <= 1 {
		return 1.0, nil
	}

	vecs, err := enc.GetBatch(ctx, sentences)
	if err != nil {
		return 0, err
	}
	var sum float64
	pairs := 0
	for i := range vecs {
		for j := i + 1; j < len(vecs); j++ {
			sum += float64(vector.Cosine(vecs[i], vecs[j]))
			pairs++
		}
	}
	return clamp01(sum / float64(pairs)), nil
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
