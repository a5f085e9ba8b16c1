// Package prompt renders the model prompts used for interview feedback and
// resume optimization.
package prompt
