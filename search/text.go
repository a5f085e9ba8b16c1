package search

import (
	"strings"
	"unicode/utf8"
)

const (
	// MinKeywordLength is the minimum rune length of a keyword.
	MinKeywordLength = 5

	// MaxKeywords bounds how many keywords a target yields.
	MaxKeywords = 5
)

// ExtractKeywords lowercases text, splits it on whitespace and returns the
// first max words of at least minLength runes, in their original order.
// Words are not deduplicated, ranked or stripped of punctuation.
func ExtractKeywords(text string, minLength, max int) []string {
	if max <= 0 {
		return []string{}
	}
	keywords := make([]string, 0, max)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(word) < minLength {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == max {
			break
		}
	}
	return keywords
}
