// Package critique scores interview answers and resumes against reference
// text with embeddings and a language model.
//
// Engine wires the embedding cache, retrieval, gap analysis, feedback
// reconciliation and resume optimization behind one value. Use Open for the
// OpenAI-compatible services described by a config.Config, or NewEngine with
// any ai.AIProvider.
package critique
