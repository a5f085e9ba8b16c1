package reconcile

import (
	"regexp"
	"strings"
)

var (
	openingFence  = regexp.MustCompile("(?mi)^```(?:json)?[ \t]*\r?\n?")
	closingFence  = regexp.MustCompile("(?m)^```[ \t]*$")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// Clean prepares a raw model reply for decoding. It trims whitespace, strips
// code fences, drops prose around the outermost JSON value, quotes keys the
// model left half-quoted and removes trailing commas before '}' or ']'.
func Clean(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = openingFence.ReplaceAllString(cleaned, "")
	cleaned = closingFence.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = outermostValue(cleaned)
	cleaned = repairKeyQuotes(cleaned)
	return trailingComma.ReplaceAllString(cleaned, "$1")
}

// outermostValue returns the span from the first '[' or '{' to the last
// matching closer. Text without brackets is returned unchanged.
func outermostValue(s string) string {
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return s
	}
	closer := byte(']')
	if s[start] == '{' {
		closer = '}'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return s
	}
	return s[start : end+1]
}

// objectSpan returns the text from the first '{' to the last '}'.
func objectSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// repairKeyQuotes fixes keys that are missing their opening quote.
// Example: `, type":` -> `, "type":`
func repairKeyQuotes(s string) string {
	result := []rune(s)
	fixed := make([]rune, 0, len(result)+16)

	i := 0
	for i < len(result) {
		ch := result[i]
		if ch != '{' && ch != ',' {
			fixed = append(fixed, ch)
			i++
			continue
		}

		// After { or , look for unquoted keys
		fixed = append(fixed, ch)
		i++
		for i < len(result) && isSpace(result[i]) {
			fixed = append(fixed, result[i])
			i++
		}
		if i >= len(result) || !isLetter(result[i]) {
			continue
		}

		keyStart := i
		for i < len(result) && (isLetter(result[i]) || result[i] == '_') {
			i++
		}
		// A closing quote directly followed by ':' means the opening one is missing.
		if i+1 < len(result) && result[i] == '"' && result[i+1] == ':' {
			fixed = append(fixed, '"')
		}
		fixed = append(fixed, result[keyStart:i]...)
	}

	return string(fixed)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
