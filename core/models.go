package core

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint returns a deterministic content key for text using BLAKE2b-256.
// Identical text always yields the identical fingerprint; it is used to bound
// cache key size regardless of input length.
func Fingerprint(text string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Vector is a fixed-length embedding associated with exactly one text.
// Vectors handed out by caches and stores are shared and must not be modified.
type Vector []float32

// Chunk is a bounded-size slice of a document's words used as the unit of retrieval.
type Chunk struct {
	Content  string
	SourceID string
}

// SearchResult is a ranked retrieval hit.
type SearchResult struct {
	Content string  `json:"content"`
	Score   float32 `json:"score"`
	Source  string  `json:"source"`
}

// ObjectiveMetrics are deterministic text statistics for a response.
type ObjectiveMetrics struct {
	WordCount           int     `json:"word_count"`
	SentenceCount       int     `json:"sentence_count"`
	AvgSentenceLength   float64 `json:"avg_sentence_length"`
	LexicalDiversity    float64 `json:"lexical_diversity"`
	SyntacticComplexity float64 `json:"syntactic_complexity"`
}

// SemanticMetrics are embedding-derived scores for a question/response pair.
type SemanticMetrics struct {
	RelevanceScore float64 `json:"relevance_score"`
	TopicCoherence float64 `json:"topic_coherence"`
}

// Metrics groups the metrics computed for one analysis item.
type Metrics struct {
	Objective ObjectiveMetrics `json:"objective"`
	Semantic  SemanticMetrics  `json:"semantic"`
}

// AnalysisItem is a validated question/response pair carrying its original
// position in the batch. Position is the key used to restore output order.
type AnalysisItem struct {
	Question string
	Response string
	Metrics  Metrics
	Position int
}

// Field names every feedback record carries.
const (
	FieldStrengths       = "strengths"
	FieldWeaknesses      = "weaknesses"
	FieldImprovementTips = "improvement_tips"
)

// FeedbackRecord is structured model feedback for one item.
// After reconciliation the three core lists are never nil.
//
// In JSON, Extra keys sit beside the core fields rather than under a nested
// object, and unknown keys decode back into Extra.
type FeedbackRecord struct {
	Strengths       []string
	Weaknesses      []string
	ImprovementTips []string
	Extra           map[string]any
}

// MarshalJSON writes the core lists and every Extra key as one flat object.
// Core fields win over Extra keys with the same name.
func (r FeedbackRecord) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(r.Extra)+3)
	for key, value := range r.Extra {
		fields[key] = value
	}
	fields[FieldStrengths] = listOrEmpty(r.Strengths)
	fields[FieldWeaknesses] = listOrEmpty(r.Weaknesses)
	fields[FieldImprovementTips] = listOrEmpty(r.ImprovementTips)
	return json.Marshal(fields)
}

// UnmarshalJSON reads a flat object, keeping non-core keys in Extra.
func (r *FeedbackRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var rec FeedbackRecord
	for key, raw := range fields {
		var err error
		switch key {
		case FieldStrengths:
			err = json.Unmarshal(raw, &rec.Strengths)
		case FieldWeaknesses:
			err = json.Unmarshal(raw, &rec.Weaknesses)
		case FieldImprovementTips:
			err = json.Unmarshal(raw, &rec.ImprovementTips)
		default:
			var value any
			if err = json.Unmarshal(raw, &value); err == nil {
				if rec.Extra == nil {
					rec.Extra = make(map[string]any)
				}
				rec.Extra[key] = value
			}
		}
		if err != nil {
			return fmt.Errorf("feedback field %q: %w", key, err)
		}
	}
	*r = rec
	return nil
}

func listOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ItemResult is the final per-item output of a batch analysis.
// Exactly one of Feedback or Error is set.
type ItemResult struct {
	Question      string          `json:"question"`
	Response      string          `json:"response"`
	Metrics       *Metrics        `json:"metrics,omitempty"`
	Feedback      *FeedbackRecord `json:"feedback,omitempty"`
	Error         string          `json:"error,omitempty"`
	Quality       float64         `json:"quality"`
	LowConfidence bool            `json:"low_confidence"`
}

// Failed reports whether the item was finalized with an error record.
func (r *ItemResult) Failed() bool {
	return r.Error != ""
}
