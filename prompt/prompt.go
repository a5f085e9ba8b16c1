package prompt

import (
	"fmt"
	"strings"

	"github.com/poiesic/critique/core"
)

// Item is one question/response pair with its computed metrics.
type Item struct {
	Question string
	Response string
	Metrics  core.Metrics
}

const feedbackSchema = `[
  {
    "strengths": ["string"],
    "weaknesses": ["string"],
    "improvement_tips": ["string"]
  }
]`

const batchTemplate = `You are an interview coach. Evaluate the following candidate responses.

%s
Provide structured feedback in JSON format for each question with the following fields:
- strengths: list
- weaknesses: list
- improvement_tips: list

Output should be a JSON array with one object per Q&A in the same order, following this shape:

%s

Output ONLY the JSON array. Do not include any preamble or explanation.`

const contextTemplate = `You are an experienced interview coach analyzing a complete interview session.
Consider the flow, consistency, and development of responses across questions.

Interview Session Analysis:
%s
Analyze each response considering:
1. Individual response quality
2. Consistency with previous answers
3. Interview flow and narrative development
4. Areas where responses build upon or contradict each other

Provide structured feedback in JSON format for each question:
- strengths: list of specific strengths
- weaknesses: list of areas for improvement
- improvement_tips: list of actionable advice
- consistency_notes: observations about consistency with other responses (if applicable)

Output should be a JSON array with one object per question in the same order.
Output ONLY the JSON array. Do not include any preamble or explanation.`

const singleTemplate = `You are an interview coach. Provide detailed feedback on this candidate response.

Question: %s
Response: %s

Analysis Data:
Objective metrics: %s
Semantic metrics: %s

Provide comprehensive feedback in JSON format with:
- strengths: list of specific positive aspects
- weaknesses: list of areas needing improvement
- improvement_tips: list of actionable advice
- overall_assessment: brief overall evaluation
- suggested_improvements: specific ways to enhance the response

Return only valid JSON.`

const resumeTemplate = `You are an expert resume writer. Improve the resume so it better matches the job description.

Relevant resume sections:
%s

Job description:
%s

Requirements from the job description the resume does not yet cover:
%s

Rewrite the resume to highlight matching experience and address the gaps without inventing experience.
Respond with a single JSON object with exactly these fields:
{
  "optimized_resume_text": "string",
  "missing_skills": ["string"],
  "improvement_tips": ["string"]
}

Output ONLY the JSON object.`

// Batch builds the standard prompt covering every item at once.
func Batch(items []Item) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "Q%d: %s\n", i+1, item.Question)
		fmt.Fprintf(&b, "Response: %s\n", item.Response)
		fmt.Fprintf(&b, "Objective metrics: %s\n", formatObjective(item.Metrics.Objective))
		fmt.Fprintf(&b, "Semantic metrics: %s\n\n", formatSemantic(item.Metrics.Semantic))
	}
	return fmt.Sprintf(batchTemplate, b.String(), feedbackSchema)
}

// ContextAware builds a prompt that presents the items as one interview, each
// question numbered against the total and followed by the earlier exchanges.
func ContextAware(items []Item) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "\n--- Question %d/%d ---\n", i+1, len(items))
		fmt.Fprintf(&b, "Question: %s\n", item.Question)
		fmt.Fprintf(&b, "Response: %s\n", item.Response)
		fmt.Fprintf(&b, "Objective metrics: %s\n", formatObjective(item.Metrics.Objective))
		fmt.Fprintf(&b, "Semantic metrics: %s\n", formatSemantic(item.Metrics.Semantic))

		if i > 0 {
			b.WriteString("\nPrevious Q&A Context:\n")
			for j, prev := range items[:i] {
				fmt.Fprintf(&b, "  Q%d: %s\n", j+1, prev.Question)
				fmt.Fprintf(&b, "  A%d: %s\n", j+1, prev.Response)
			}
		}
		b.WriteString("\n")
	}
	return fmt.Sprintf(contextTemplate, b.String())
}

// Single builds a focused prompt for one item.
func Single(item Item) string {
	return fmt.Sprintf(singleTemplate,
		item.Question,
		item.Response,
		formatObjective(item.Metrics.Objective),
		formatSemantic(item.Metrics.Semantic))
}

// ResumeOptimization builds the resume rewrite prompt. Each retrieved chunk is
// rendered as "[Score: x.xx] content", separated by blank lines. The whole
// resume stands in when nothing was retrieved.
func ResumeOptimization(relevant []core.SearchResult, resume, jobDescription string, missing []string) string {
	sections := make([]string, len(relevant))
	for i, r := range relevant {
		sections[i] = fmt.Sprintf("[Score: %.2f] %s", r.Score, r.Content)
	}
	if len(sections) == 0 {
		sections = []string{resume}
	}

	gaps := "None"
	if len(missing) > 0 {
		gaps = "- " + strings.Join(missing, "\n- ")
	}
	return fmt.Sprintf(resumeTemplate, strings.Join(sections, "\n\n"), jobDescription, gaps)
}

func formatObjective(m core.ObjectiveMetrics) string {
	return fmt.Sprintf("{word_count: %d, sentence_count: %d, avg_sentence_length: %.2f, lexical_diversity: %.2f, syntactic_complexity: %.2f}",
		m.WordCount, m.SentenceCount, m.AvgSentenceLength, m.LexicalDiversity, m.SyntacticComplexity)
}

func formatSemantic(m core.SemanticMetrics) string {
	return fmt.Sprintf("{relevance_score: %.2f, topic_coherence: %.2f}", m.RelevanceScore, m.TopicCoherence)
}
