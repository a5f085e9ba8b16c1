package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/poiesic/critique/core"
)

// Result is the outcome of reconciling one reply.
// Records always has exactly the requested length.
type Result struct {
	Records []core.FeedbackRecord
	// State is Finalized on success and Failed when fallback records were used.
	State State
	// Err explains a Failed state.
	Err error
	// Padded counts partial records appended to reach the requested length.
	Padded int
	// Truncated counts surplus records the reply contained.
	Truncated int
}

// Fallback reports whether every record is a fallback record.
func (r Result) Fallback() bool {
	return r.State == Failed
}

// Reconcile turns a raw model reply into exactly n feedback records.
// It never fails: any cleaning, decoding or validation problem yields n
// fallback records with State Failed.
func Reconcile(raw string, n int) Result {
	if n <= 0 {
		return Result{Records: []core.FeedbackRecord{}, State: Finalized}
	}

	elements, err := decode(Clean(raw))
	if err != nil {
		return failed(n, Cleaned, err)
	}

	records := make([]core.FeedbackRecord, 0, max(len(elements), n))
	for i, element := range elements {
		rec, err := validate(element)
		if err != nil {
			return failed(n, Parsed, fmt.Errorf("element %d: %w", i, err))
		}
		records = append(records, rec)
	}

	result := Result{State: Finalized}
	if len(records) > n {
		result.Truncated = len(records) - n
		records = records[:n]
	}
	for len(records) < n {
		records = append(records, PartialRecord())
		result.Padded++
	}
	result.Records = records
	return result
}

func failed(n int, at State, err error) Result {
	return Result{
		Records: FallbackRecords(n),
		State:   Failed,
		Err:     fmt.Errorf("reconcile failed after %s: %w", at, err),
	}
}

// decode performs the tagged-variant decode: an array yields its elements,
// a lone object yields a one-element slice, anything else is an error.
func decode(cleaned string) ([]json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}

	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
		}
		return elements, nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		return []json.RawMessage{trimmed}, nil
	default:
		return nil, ErrUnexpectedShape
	}
}

// validate converts one decoded element into a record. Missing core fields
// become empty lists, scalars become one-element lists and non-core keys are
// kept in Extra.
func validate(element json.RawMessage) (core.FeedbackRecord, error) {
	trimmed := bytes.TrimSpace(element)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return core.FeedbackRecord{}, ErrInvalidElement
	}
	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return core.FeedbackRecord{}, fmt.Errorf("%w: %w", ErrInvalidElement, err)
	}

	rec := core.FeedbackRecord{
		Strengths:       stringList(fields[FieldStrengths], hasKey(fields, FieldStrengths)),
		Weaknesses:      stringList(fields[FieldWeaknesses], hasKey(fields, FieldWeaknesses)),
		ImprovementTips: stringList(fields[FieldImprovementTips], hasKey(fields, FieldImprovementTips)),
	}
	for key, value := range fields {
		switch key {
		case FieldStrengths, FieldWeaknesses, FieldImprovementTips:
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]any)
		}
		rec.Extra[key] = value
	}
	return rec, nil
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

// stringList coerces a field value to a list of strings.
func stringList(value any, present bool) []string {
	if !present {
		return []string{}
	}
	items, ok := value.([]any)
	if !ok {
		return []string{stringify(value)}
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = stringify(item)
	}
	return out
}

func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(b)
}
