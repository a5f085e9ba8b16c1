// Package vector provides the similarity primitives used by retrieval and gap
// analysis: normalization, dot product, cosine similarity and dense similarity
// matrices.
package vector
