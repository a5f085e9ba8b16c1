package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMinResponseLength is the minimum response length in characters.
	DefaultMinResponseLength = 10
	// DefaultMaxResponseLength is the maximum response length in characters.
	DefaultMaxResponseLength = 5000
)

// nonSubstantive holds lowercase responses that carry no answer content.
var nonSubstantive = map[string]bool{
	"i don't know": true,
	"no comment":   true,
	"pass":         true,
	"skip":         true,
}

// LengthBounds limits accepted response length in characters.
type LengthBounds struct {
	Min int
	Max int
}

// DefaultLengthBounds returns the standard response length bounds.
func DefaultLengthBounds() LengthBounds {
	return LengthBounds{Min: DefaultMinResponseLength, Max: DefaultMaxResponseLength}
}

// ValidationError reports why an item was rejected. It matches both
// ErrInvalidItem and its Cause under errors.Is.
type ValidationError struct {
	Cause error
	// Limit is the length bound that was crossed, or 0.
	Limit int
}

func (e *ValidationError) Error() string {
	return ErrInvalidItem.Error() + ": " + e.detail()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrInvalidItem, e.Cause}
}

// Message is the user-facing reason, e.g.
// "Response too short (minimum 10 characters)".
func (e *ValidationError) Message() string {
	d := e.detail()
	r, size := utf8.DecodeRuneInString(d)
	return string(unicode.ToUpper(r)) + d[size:]
}

func (e *ValidationError) detail() string {
	switch {
	case e.Limit > 0 && errors.Is(e.Cause, ErrResponseTooShort):
		return fmt.Sprintf("%s (minimum %d characters)", e.Cause, e.Limit)
	case e.Limit > 0 && errors.Is(e.Cause, ErrResponseTooLong):
		return fmt.Sprintf("%s (maximum %d characters)", e.Cause, e.Limit)
	default:
		return e.Cause.Error()
	}
}

// ValidateItem checks a trimmed question/response pair.
// Returned errors are *ValidationError.
func ValidateItem(question, response string, bounds LengthBounds) error {
	question = strings.TrimSpace(question)
	response = strings.TrimSpace(response)

	if question == "" {
		return &ValidationError{Cause: ErrEmptyQuestion}
	}
	if response == "" {
		return &ValidationError{Cause: ErrEmptyResponse}
	}

	length := utf8.RuneCountInString(response)
	if length < bounds.Min {
		return &ValidationError{Cause: ErrResponseTooShort, Limit: bounds.Min}
	}
	if bounds.Max > 0 && length > bounds.Max {
		return &ValidationError{Cause: ErrResponseTooLong, Limit: bounds.Max}
	}

	if nonSubstantive[strings.ToLower(response)] {
		return &ValidationError{Cause: ErrNonSubstantive}
	}

	return nil
}

// ValidateMetrics sanity checks ratio metrics, which must lie in [0, 1].
func ValidateMetrics(m Metrics) error {
	ratios := map[string]float64{
		"lexical_diversity": m.Objective.LexicalDiversity,
		"relevance_score":   m.Semantic.RelevanceScore,
		"topic_coherence":   m.Semantic.TopicCoherence,
	}
	for name, v := range ratios {
		if v < 0 || v > 1 || v != v {
			return fmt.Errorf("%w: %s=%v", ErrInvalidMetrics, name, v)
		}
	}
	return nil
}
