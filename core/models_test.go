package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("hello world")
	b := Fingerprint("hello world")
	c := Fingerprint("hello world ")

	assert.Equal(t, a, b, "identical text should produce identical fingerprints")
	assert.NotEqual(t, a, c, "near-duplicate text should not collide")
	assert.Len(t, a, 64, "BLAKE2b-256 hex digest is 64 characters")
}

func TestItemResultFailed(t *testing.T) {
	ok := ItemResult{Feedback: &FeedbackRecord{}}
	bad := ItemResult{Error: "Response text is required"}

	assert.False(t, ok.Failed())
	assert.True(t, bad.Failed())
}

func TestFeedbackRecordJSON_ExtraInline(t *testing.T) {
	rec := FeedbackRecord{
		Strengths:       []string{"Specific"},
		Weaknesses:      []string{},
		ImprovementTips: []string{"Add a result"},
		Extra:           map[string]any{"question_number": 1, "consistency_notes": "Consistent"},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"strengths": ["Specific"],
		"weaknesses": [],
		"improvement_tips": ["Add a result"],
		"question_number": 1,
		"consistency_notes": "Consistent"
	}`, string(data))
	assert.NotContains(t, string(data), `"extra"`)
}

func TestFeedbackRecordJSON_FlatInputFillsExtra(t *testing.T) {
	var rec FeedbackRecord
	require.NoError(t, json.Unmarshal([]byte(`{
		"strengths": ["a"],
		"weaknesses": ["b"],
		"improvement_tips": ["c"],
		"question_number": 2,
		"total_questions": 3
	}`), &rec))

	assert.Equal(t, []string{"a"}, rec.Strengths)
	assert.Equal(t, []string{"b"}, rec.Weaknesses)
	assert.Equal(t, []string{"c"}, rec.ImprovementTips)
	assert.Equal(t, map[string]any{"question_number": 2.0, "total_questions": 3.0}, rec.Extra)
}

func TestFeedbackRecordJSON_RoundTrip(t *testing.T) {
	rec := FeedbackRecord{
		Strengths:       []string{"a"},
		Weaknesses:      []string{"b"},
		ImprovementTips: []string{},
		Extra:           map[string]any{"consistency_notes": "ok", "total_questions": 4.0},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var back FeedbackRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)
}

func TestFeedbackRecordJSON_CoreFieldsWin(t *testing.T) {
	rec := FeedbackRecord{
		Strengths: []string{"real"},
		Extra:     map[string]any{FieldStrengths: "shadow"},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"strengths": ["real"], "weaknesses": [], "improvement_tips": []}`, string(data))
}

func TestFeedbackRecordJSON_NoExtraStaysNil(t *testing.T) {
	var rec FeedbackRecord
	require.NoError(t, json.Unmarshal([]byte(`{"strengths": [], "weaknesses": [], "improvement_tips": []}`), &rec))
	assert.Nil(t, rec.Extra)

	var inResult ItemResult
	require.NoError(t, json.Unmarshal([]byte(`{"question": "q", "feedback": {"strengths": ["x"], "question_number": 1}}`), &inResult))
	require.NotNil(t, inResult.Feedback)
	assert.Equal(t, []string{"x"}, inResult.Feedback.Strengths)
	assert.Equal(t, 1.0, inResult.Feedback.Extra["question_number"])
}

func TestFeedbackRecordJSON_RejectsBadCoreField(t *testing.T) {
	var rec FeedbackRecord
	err := json.Unmarshal([]byte(`{"strengths": "not a list"}`), &rec)
	assert.ErrorContains(t, err, "strengths")
}
