package reconcile

import (
	"testing"

	"github.com/poiesic/critique/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `[{"a":1}]`, `[{"a":1}]`},
		{"whitespace", "  \n[1]\n ", `[1]`},
		{"json fence", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"trailing comma object", `{"a":1,}`, `{"a":1}`},
		{"trailing comma array", "[1, 2,\n]", `[1, 2]`},
		{"prose around", "Here you go:\n[{\"a\":1}]\nHope this helps!", `[{"a":1}]`},
		{"value then prose", "[{\"a\":1}]\nHope this helps!", `[{"a":1}]`},
		{"object then prose", "{\"a\":1}\n\nLet me know if you need more.", `{"a":1}`},
		{"half-quoted key", `{"strengths": [], weaknesses": []}`, `{"strengths": [], "weaknesses": []}`},
		{"half-quoted first key", `{improvement_tips": ["x"]}`, `{"improvement_tips": ["x"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.raw))
		})
	}
}

func TestClean_LeavesStringValuesAlone(t *testing.T) {
	raw := `[{"strengths": ["Clear, concise answer", "Good pace"]}]`
	assert.Equal(t, raw, Clean(raw))
}

func assertWellFormed(t *testing.T, records []core.FeedbackRecord, n int) {
	t.Helper()
	require.Len(t, records, n)
	for i, rec := range records {
		assert.NotNil(t, rec.Strengths, "record %d strengths", i)
		assert.NotNil(t, rec.Weaknesses, "record %d weaknesses", i)
		assert.NotNil(t, rec.ImprovementTips, "record %d tips", i)
	}
}

func TestReconcile_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		n     int
		state State
	}{
		{"trailing commas", `[{"strengths": ["a",], "weaknesses": ["b"], "improvement_tips": ["c"],},]`, 1, Finalized},
		{"single object", `{"strengths": ["a"], "weaknesses": ["b"], "improvement_tips": ["c"]}`, 1, Finalized},
		{"missing weaknesses", `[{"strengths": ["a"], "improvement_tips": ["c"]}]`, 1, Finalized},
		{"shorter than expected", `[{"strengths": ["a"]}]`, 3, Finalized},
		{"longer than expected", `[{}, {}, {}]`, 2, Finalized},
		{"empty", "", 2, Failed},
		{"not json", "I cannot help with that.", 2, Failed},
		{"scalar", "42", 1, Failed},
		{"array of strings", `["a", "b"]`, 2, Failed},
		{"fenced with prose", "Sure!\n```json\n[{\"strengths\": [\"a\"]}]\n```", 1, Finalized},
		{"trailing prose", "[{\"strengths\": [\"a\"], \"weaknesses\": [\"b\"], \"improvement_tips\": [\"c\"]}]\nHope this helps!", 1, Finalized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Reconcile(tt.raw, tt.n)
			assert.Equal(t, tt.state, result.State)
			assertWellFormed(t, result.Records, tt.n)
			if tt.state == Failed {
				assert.Error(t, result.Err)
				assert.True(t, result.Fallback())
				for _, rec := range result.Records {
					assert.Equal(t, FallbackRecord(), rec)
				}
			} else {
				assert.NoError(t, result.Err)
			}
		})
	}
}

func TestReconcile_PadsWithPartialRecords(t *testing.T) {
	result := Reconcile(`[{"strengths": ["a"], "weaknesses": [], "improvement_tips": []}]`, 3)
	require.Equal(t, Finalized, result.State)
	assert.Equal(t, 2, result.Padded)
	assert.Equal(t, []string{"a"}, result.Records[0].Strengths)
	assert.Equal(t, PartialRecord(), result.Records[1])
	assert.Equal(t, PartialRecord(), result.Records[2])
}

func TestReconcile_Truncates(t *testing.T) {
	result := Reconcile(`[{"strengths": ["1"]}, {"strengths": ["2"]}, {"strengths": ["3"]}]`, 2)
	require.Len(t, result.Records, 2)
	assert.Equal(t, 1, result.Truncated)
	assert.Equal(t, []string{"2"}, result.Records[1].Strengths)
}

func TestReconcile_CoercesFields(t *testing.T) {
	raw := `{"strengths": "Good structure", "weaknesses": 3, "improvement_tips": ["Be specific", 7, true], "consistency_notes": "Consistent"}`
	result := Reconcile(raw, 1)
	require.Equal(t, Finalized, result.State)

	rec := result.Records[0]
	assert.Equal(t, []string{"Good structure"}, rec.Strengths)
	assert.Equal(t, []string{"3"}, rec.Weaknesses)
	assert.Equal(t, []string{"Be specific", "7", "true"}, rec.ImprovementTips)
	assert.Equal(t, map[string]any{"consistency_notes": "Consistent"}, rec.Extra)
}

func TestReconcile_NullFieldIsCoerced(t *testing.T) {
	result := Reconcile(`{"strengths": null}`, 1)
	require.Equal(t, Finalized, result.State)
	assert.Equal(t, []string{"null"}, result.Records[0].Strengths)
	assert.Equal(t, []string{}, result.Records[0].Weaknesses)
	assert.Nil(t, result.Records[0].Extra)
}

func TestReconcile_ZeroItems(t *testing.T) {
	result := Reconcile("garbage", 0)
	assert.Equal(t, Finalized, result.State)
	assert.NotNil(t, result.Records)
	assert.Empty(t, result.Records)
}

func TestFallbackRecords_Independent(t *testing.T) {
	records := FallbackRecords(2)
	records[0].Weaknesses[0] = "changed"
	assert.Equal(t, "Could not generate LLM feedback.", records[1].Weaknesses[0])
	assert.Equal(t, "Could not generate LLM feedback.", FallbackRecord().Weaknesses[0])
	assert.Empty(t, FallbackRecords(-1))
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name string
		rec  core.FeedbackRecord
		want float64
	}{
		{"empty", core.FeedbackRecord{}, 0},
		{"complete", core.FeedbackRecord{
			Strengths:       []string{"clear"},
			Weaknesses:      []string{"short"},
			ImprovementTips: []string{"add detail"},
		}, 1.0},
		{"strengths only", core.FeedbackRecord{Strengths: []string{"clear"}}, 0.3},
		{"tips only", core.FeedbackRecord{ImprovementTips: []string{"x"}}, 0.4},
		{"fallback", FallbackRecord(), 0.35},
		{"partial", PartialRecord(), 0.35},
		{"fallback wording is case insensitive", core.FeedbackRecord{
			Strengths:  []string{"FALLBACK answer"},
			Weaknesses: []string{"x"},
		}, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, QualityScore(tt.rec), 1e-9)
		})
	}
}

func TestParseObject(t *testing.T) {
	type optimized struct {
		Text   string   `json:"optimized_resume_text"`
		Skills []string `json:"missing_skills"`
	}

	t.Run("object in prose", func(t *testing.T) {
		var out optimized
		err := ParseObject("Result:\n```json\n{\"optimized_resume_text\": \"new\", \"missing_skills\": [\"go\",],}\n```", &out)
		require.NoError(t, err)
		assert.Equal(t, "new", out.Text)
		assert.Equal(t, []string{"go"}, out.Skills)
	})

	t.Run("no object", func(t *testing.T) {
		var out optimized
		assert.ErrorIs(t, ParseObject("no json here", &out), ErrNoJSONObject)
	})

	t.Run("broken object", func(t *testing.T) {
		var out optimized
		assert.ErrorIs(t, ParseObject(`{"optimized_resume_text": }`, &out), ErrMalformedJSON)
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "raw_received", RawReceived.String())
	assert.Equal(t, "finalized", Finalized.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", State(99).String())
}
