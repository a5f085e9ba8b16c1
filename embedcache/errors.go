package embedcache

import "errors"

var (
	// ErrEmbeddingFailed indicates the encoder could not produce vectors.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrEmbeddingMismatch indicates the encoder returned a different number of
	// vectors than texts requested.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")

	// ErrNilEmbedder indicates the cache was constructed without an encoder.
	ErrNilEmbedder = errors.New("embedder cannot be nil")
)
