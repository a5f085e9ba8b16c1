package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseObject locates the outermost JSON object in a raw reply and decodes it
// into v. Fences, half-quoted keys and trailing commas are repaired first.
func ParseObject(raw string, v any) error {
	span, ok := objectSpan(raw)
	if !ok {
		return ErrNoJSONObject
	}
	cleaned := trailingComma.ReplaceAllString(repairKeyQuotes(strings.TrimSpace(span)), "$1")
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return nil
}
