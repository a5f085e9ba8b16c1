// Package embedcache memoizes text embeddings.
//
// A Cache keys vectors by the BLAKE2b fingerprint of the text and keeps the
// most recently used ones in a bounded LRU (github.com/hashicorp/golang-lru/v2).
// Batch lookups send only the distinct uncached texts to the encoder, in one
// call, and return vectors aligned with the input. Encoder failures are retried
// with exponential backoff before being reported.
//
// An optional storage.VectorTier sits behind the LRU so vectors outlive the
// process:
//
//	tier, _ := badger.OpenVectorTier(dir, 24*time.Hour)
//	cache, err := embedcache.New(provider.Embedder(), embedcache.WithTier(tier))
//
// Warm pre-embeds a corpus in batches and reports progress.
package embedcache
