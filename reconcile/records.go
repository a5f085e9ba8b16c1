package reconcile

import (
	"strings"

	"github.com/poiesic/critique/core"
)

// Field names every feedback record carries.
const (
	FieldStrengths       = core.FieldStrengths
	FieldWeaknesses      = core.FieldWeaknesses
	FieldImprovementTips = core.FieldImprovementTips
)

// FallbackRecord is substituted for every item when a reply cannot be used at all.
func FallbackRecord() core.FeedbackRecord {
	return core.FeedbackRecord{
		Strengths:       []string{},
		Weaknesses:      []string{"Could not generate LLM feedback."},
		ImprovementTips: []string{"Fallback: review your answer manually."},
	}
}

// FallbackRecords returns n independent fallback records.
func FallbackRecords(n int) []core.FeedbackRecord {
	records := make([]core.FeedbackRecord, max(n, 0))
	for i := range records {
		records[i] = FallbackRecord()
	}
	return records
}

// PartialRecord pads a reply that covered fewer items than requested.
func PartialRecord() core.FeedbackRecord {
	return core.FeedbackRecord{
		Strengths:       []string{},
		Weaknesses:      []string{"Could not generate complete feedback."},
		ImprovementTips: []string{"Please review manually."},
	}
}

// QualityScore rates how substantive a record is, from 0 to 1.
// Non-empty strengths and weaknesses add 0.3 each, non-empty tips add 0.4,
// and the total is halved when fallback wording appears anywhere.
func QualityScore(rec core.FeedbackRecord) float64 {
	score := 0.0
	if len(rec.Strengths) > 0 {
		score += 0.3
	}
	if len(rec.Weaknesses) > 0 {
		score += 0.3
	}
	if len(rec.ImprovementTips) > 0 {
		score += 0.4
	}

	parts := make([]string, 0, len(rec.Strengths)+len(rec.Weaknesses)+len(rec.ImprovementTips))
	parts = append(parts, rec.Strengths...)
	parts = append(parts, rec.Weaknesses...)
	parts = append(parts, rec.ImprovementTips...)
	text := strings.ToLower(strings.Join(parts, " "))
	if strings.Contains(text, "could not generate") || strings.Contains(text, "fallback") {
		score *= 0.5
	}
	return score
}
