package metrics

import (
	"regexp"
	"strings"

	"github.com/poiesic/critique/core"
)

var (
	// Words and contractions are one token; every other non-space rune is its own.
	tokenPattern    = regexp.MustCompile(`[\p{L}\p{N}_]+(?:['’][\p{L}\p{N}_]+)*|[^\s\p{L}\p{N}_]`)
	sentencePattern = regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`)
)

// Tokens splits text into word and punctuation tokens.
func Tokens(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

// Sentences splits text at runs of '.', '!' or '?'. Blank pieces are dropped.
func Sentences(text string) []string {
	var out []string
	for _, s := range sentencePattern.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" && strings.TrimFunc(s, isTerminator) != "" {
			out = append(out, s)
		}
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Objective computes deterministic text statistics.
func Objective(text string) core.ObjectiveMetrics {
	tokens := Tokens(text)
	sentences := Sentences(text)

	m := core.ObjectiveMetrics{
		WordCount:     len(tokens),
		SentenceCount: len(sentences),
	}
	if len(sentences) > 0 {
		m.AvgSentenceLength = float64(len(tokens)) / float64(len(sentences))

		clauses := 0
		for _, s := range sentences {
			clauses += strings.Count(s, ",") + 1
		}
		m.SyntacticComplexity = float64(clauses) / float64(len(sentences))
	}
	if len(tokens) > 0 {
		unique := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			unique[strings.ToLower(t)] = struct{}{}
		}
		m.LexicalDiversity = float64(len(unique)) / float64(len(tokens))
	}
	return m
}
