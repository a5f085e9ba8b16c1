package core

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateItem(t *testing.T) {
	bounds := DefaultLengthBounds()

	tests := []struct {
		name     string
		question string
		response string
		wantErr  error
	}{
		{"valid item", "What is your greatest strength?", "I value teamwork and communication.", nil},
		{"empty question", "   ", "I value teamwork and communication.", ErrEmptyQuestion},
		{"empty response", "Describe a challenge.", "", ErrEmptyResponse},
		{"too short", "Describe a challenge.", "ok", ErrResponseTooShort},
		{"too long", "Describe a challenge.", strings.Repeat("a", DefaultMaxResponseLength+1), ErrResponseTooLong},
		{"non substantive", "Why us?", "  No Comment ", ErrNonSubstantive},
		{"placeholder below minimum", "Why us?", "pass", ErrResponseTooShort},
		{"non substantive long enough", "Why us?", "I don't know", ErrNonSubstantive},
		{"exactly minimum", "Why us?", "abcdefghij", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItem(tt.question, tt.response, bounds)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidItem)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	bounds := DefaultLengthBounds()

	tests := []struct {
		name     string
		question string
		response string
		message  string
	}{
		{"empty question", "", "I value teamwork.", "Question text is required"},
		{"empty response", "Why?", " ", "Response text is required"},
		{"too short", "Why?", "ok", "Response too short (minimum 10 characters)"},
		{"too long", "Why?", strings.Repeat("a", DefaultMaxResponseLength+1), "Response too long (maximum 5000 characters)"},
		{"non substantive", "Why?", "I don't know", "Non-substantive response detected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItem(tt.question, tt.response, bounds)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Message())
			assert.True(t, strings.HasPrefix(err.Error(), ErrInvalidItem.Error()+": "))
		})
	}
}

func TestValidateItem_CountsCharactersNotBytes(t *testing.T) {
	// nine multi-byte runes stay below the ten character minimum
	err := ValidateItem("Q?", "ééééééééé", DefaultLengthBounds())
	assert.ErrorIs(t, err, ErrResponseTooShort)
}

func TestValidateMetrics(t *testing.T) {
	valid := Metrics{
		Objective: ObjectiveMetrics{LexicalDiversity: 0.8},
		Semantic:  SemanticMetrics{RelevanceScore: 0.5, TopicCoherence: 1},
	}
	assert.NoError(t, ValidateMetrics(valid))

	tooHigh := valid
	tooHigh.Objective.LexicalDiversity = 1.2
	assert.ErrorIs(t, ValidateMetrics(tooHigh), ErrInvalidMetrics)

	negative := valid
	negative.Semantic.RelevanceScore = -0.1
	assert.ErrorIs(t, ValidateMetrics(negative), ErrInvalidMetrics)

	nan := valid
	nan.Semantic.TopicCoherence = math.NaN()
	assert.ErrorIs(t, ValidateMetrics(nan), ErrInvalidMetrics)
}
