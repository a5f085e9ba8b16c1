// Package gap finds which parts of a reference document a candidate document
// fails to cover, by thresholding chunk-to-chunk cosine similarity.
package gap
