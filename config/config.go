package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/critique/ai"
	"github.com/poiesic/critique/ai/resilience"
	"github.com/poiesic/critique/core"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "critique.yaml"

// AIConfig selects the embedding and completion services.
type AIConfig struct {
	EmbeddingHost      string  `mapstructure:"embedding_host" yaml:"embedding_host"`
	CompletionHost     string  `mapstructure:"completion_host" yaml:"completion_host"`
	EmbeddingModel     string  `mapstructure:"embedding_model" yaml:"embedding_model"`
	CompletionModel    string  `mapstructure:"completion_model" yaml:"completion_model"`
	APIKeyEnv          string  `mapstructure:"api_key_env" yaml:"api_key_env"`
	Temperature        float64 `mapstructure:"temperature" yaml:"temperature"`
	EmbeddingBatchSize int     `mapstructure:"embedding_batch_size" yaml:"embedding_batch_size"`
}

// CacheConfig sizes the embedding cache and its optional on-disk tier.
type CacheConfig struct {
	Capacity int `mapstructure:"capacity" yaml:"capacity"`
	// Dir enables the on-disk tier when set.
	Dir string        `mapstructure:"dir" yaml:"dir"`
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// RetrievalConfig controls chunking, retrieval and gap analysis.
type RetrievalConfig struct {
	ChunkSize           int     `mapstructure:"chunk_size" yaml:"chunk_size"`
	TopK                int     `mapstructure:"top_k" yaml:"top_k"`
	SimilarityThreshold float32 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
}

// AnalysisConfig controls batch analysis and model retries.
type AnalysisConfig struct {
	MinResponseLength      int           `mapstructure:"min_response_length" yaml:"min_response_length"`
	MaxResponseLength      int           `mapstructure:"max_response_length" yaml:"max_response_length"`
	PoolSize               int           `mapstructure:"pool_size" yaml:"pool_size"`
	ContextAware           bool          `mapstructure:"context_aware" yaml:"context_aware"`
	LowConfidenceThreshold float64       `mapstructure:"low_confidence_threshold" yaml:"low_confidence_threshold"`
	MaxAttempts            int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	RetryDelay             time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// ResilienceConfig guards calls to the model services.
type ResilienceConfig struct {
	MaxFailures       uint32        `mapstructure:"max_failures" yaml:"max_failures"`
	OpenTimeout       time.Duration `mapstructure:"open_timeout" yaml:"open_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
}

// Config is the root configuration.
type Config struct {
	AI         AIConfig         `mapstructure:"ai" yaml:"ai"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval" yaml:"retrieval"`
	Analysis   AnalysisConfig   `mapstructure:"analysis" yaml:"analysis"`
	Resilience ResilienceConfig `mapstructure:"resilience" yaml:"resilience"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		AI: AIConfig{
			EmbeddingHost:      aiDefaults.EmbeddingHost,
			CompletionHost:     aiDefaults.CompletionHost,
			EmbeddingModel:     aiDefaults.EmbeddingModel,
			CompletionModel:    aiDefaults.CompletionModel,
			APIKeyEnv:          "OPENAI_API_KEY",
			Temperature:        aiDefaults.Temperature,
			EmbeddingBatchSize: aiDefaults.EmbeddingBatchSize,
		},
		Cache: CacheConfig{
			Capacity: 1000,
			TTL:      7 * 24 * time.Hour,
		},
		Retrieval: RetrievalConfig{
			ChunkSize:           150,
			TopK:                5,
			SimilarityThreshold: 0.6,
		},
		Analysis: AnalysisConfig{
			MinResponseLength:      core.DefaultMinResponseLength,
			MaxResponseLength:      core.DefaultMaxResponseLength,
			ContextAware:           true,
			LowConfidenceThreshold: 0.5,
			MaxAttempts:            2,
			RetryDelay:             time.Second,
		},
		Resilience: ResilienceConfig{
			MaxFailures: 5,
			OpenTimeout: 30 * time.Second,
			Burst:       1,
		},
	}
}

// Load reads a config from path over the defaults and applies CRITIQUE_*
// environment overrides. An empty path or missing file yields the defaults.
//
// Environment variables mirror the YAML keys with dots replaced by
// underscores, e.g. CRITIQUE_RETRIEVAL_TOP_K or CRITIQUE_ANALYSIS_RETRY_DELAY.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./critique.yaml first, then ~/.config/critique/config.yaml.
// It returns the path it read, or "" when only defaults and environment applied.
func LoadDefault() (*Config, string, error) {
	if _, err := os.Stat(FileName); err == nil {
		cfg, err := Load(FileName)
		return cfg, FileName, err
	}
	if userPath, err := UserPath(); err == nil {
		if _, err := os.Stat(userPath); err == nil {
			cfg, err := Load(userPath)
			return cfg, userPath, err
		}
	}
	cfg, err := Load("")
	return cfg, "", err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// UserPath is the per-user config location.
func UserPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "critique", "config.yaml"), nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Cache.Capacity < 1 {
		errs = append(errs, errors.New("cache.capacity must be at least 1"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if c.Retrieval.ChunkSize < 1 {
		errs = append(errs, errors.New("retrieval.chunk_size must be at least 1"))
	}
	if c.Retrieval.TopK < 1 {
		errs = append(errs, errors.New("retrieval.top_k must be at least 1"))
	}
	if c.Retrieval.SimilarityThreshold < -1 || c.Retrieval.SimilarityThreshold > 1 {
		errs = append(errs, errors.New("retrieval.similarity_threshold must be between -1 and 1"))
	}
	if c.Analysis.MinResponseLength < 0 {
		errs = append(errs, errors.New("analysis.min_response_length must not be negative"))
	}
	if c.Analysis.MaxResponseLength > 0 && c.Analysis.MaxResponseLength < c.Analysis.MinResponseLength {
		errs = append(errs, errors.New("analysis.max_response_length must not be below min_response_length"))
	}
	if c.Analysis.LowConfidenceThreshold < 0 || c.Analysis.LowConfidenceThreshold > 1 {
		errs = append(errs, errors.New("analysis.low_confidence_threshold must be between 0 and 1"))
	}
	if c.Analysis.MaxAttempts < 1 {
		errs = append(errs, errors.New("analysis.max_attempts must be at least 1"))
	}
	if c.Resilience.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("resilience.requests_per_second must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// AIConfig converts the service settings, reading the API key from the
// configured environment variable.
func (c *Config) AIConfig() *ai.Config {
	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithCompletionHost(c.AI.CompletionHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithCompletionModel(c.AI.CompletionModel),
		ai.WithTemperature(c.AI.Temperature),
		ai.WithEmbeddingBatchSize(c.AI.EmbeddingBatchSize),
	)
	if c.AI.APIKeyEnv != "" {
		if key := os.Getenv(c.AI.APIKeyEnv); key != "" {
			cfg.APIKey = key
		}
	}
	return cfg
}

// BreakerConfig returns the guard settings for the named service.
func (c *Config) BreakerConfig(name string) resilience.Config {
	return resilience.Config{
		Name:              name,
		MaxFailures:       c.Resilience.MaxFailures,
		OpenTimeout:       c.Resilience.OpenTimeout,
		RequestsPerSecond: c.Resilience.RequestsPerSecond,
		Burst:             c.Resilience.Burst,
	}
}

// LengthBounds returns the accepted response length range.
func (c *Config) LengthBounds() core.LengthBounds {
	return core.LengthBounds{Min: c.Analysis.MinResponseLength, Max: c.Analysis.MaxResponseLength}
}
