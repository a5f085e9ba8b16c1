package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CRITIQUE"

// LoadDotEnv loads KEY=value pairs from the given files (default ".env") into
// the process environment. Missing files are ignored and variables already
// set are not overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// newViper returns a viper instance seeded with the defaults and bound to
// CRITIQUE_* environment variables.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key, which is also what lets AutomaticEnv
// reach it during Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	// AI services
	v.SetDefault("ai.embedding_host", d.AI.EmbeddingHost)
	v.SetDefault("ai.completion_host", d.AI.CompletionHost)
	v.SetDefault("ai.embedding_model", d.AI.EmbeddingModel)
	v.SetDefault("ai.completion_model", d.AI.CompletionModel)
	v.SetDefault("ai.api_key_env", d.AI.APIKeyEnv)
	v.SetDefault("ai.temperature", d.AI.Temperature)
	v.SetDefault("ai.embedding_batch_size", d.AI.EmbeddingBatchSize)

	// Embedding cache
	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	// Retrieval
	v.SetDefault("retrieval.chunk_size", d.Retrieval.ChunkSize)
	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)
	v.SetDefault("retrieval.similarity_threshold", d.Retrieval.SimilarityThreshold)

	// Analysis
	v.SetDefault("analysis.min_response_length", d.Analysis.MinResponseLength)
	v.SetDefault("analysis.max_response_length", d.Analysis.MaxResponseLength)
	v.SetDefault("analysis.pool_size", d.Analysis.PoolSize)
	v.SetDefault("analysis.context_aware", d.Analysis.ContextAware)
	v.SetDefault("analysis.low_confidence_threshold", d.Analysis.LowConfidenceThreshold)
	v.SetDefault("analysis.max_attempts", d.Analysis.MaxAttempts)
	v.SetDefault("analysis.retry_delay", d.Analysis.RetryDelay)

	// Resilience
	v.SetDefault("resilience.max_failures", d.Resilience.MaxFailures)
	v.SetDefault("resilience.open_timeout", d.Resilience.OpenTimeout)
	v.SetDefault("resilience.requests_per_second", d.Resilience.RequestsPerSecond)
	v.SetDefault("resilience.burst", d.Resilience.Burst)
}
