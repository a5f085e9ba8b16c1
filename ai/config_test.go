package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.CompletionHost)
	assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.CompletionModel)
	assert.Equal(t, "none", cfg.APIKey)
	assert.InDelta(t, 0.2, cfg.Temperature, 1e-9)
	assert.Equal(t, 64, cfg.EmbeddingBatchSize)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.CompletionHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.CompletionHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithCompletionHost("http://complete:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://complete:9090/v1", cfg.CompletionHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080/v1"),
			WithEmbeddingModel("custom-embed"),
			WithCompletionModel("custom-chat"),
			WithAPIKey("secret"),
			WithTemperature(0.7),
			WithEmbeddingBatchSize(16),
		)

		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "custom-chat", cfg.CompletionModel)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)
		assert.Equal(t, 16, cfg.EmbeddingBatchSize)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name               string
		embeddingHost      string
		completionHost     string
		expectedEmbedding  string
		expectedCompletion string
	}{
		{
			name:               "already has /v1",
			embeddingHost:      "http://localhost:11434/v1",
			completionHost:     "http://localhost:11434/v1",
			expectedEmbedding:  "http://localhost:11434/v1",
			expectedCompletion: "http://localhost:11434/v1",
		},
		{
			name:               "missing /v1",
			embeddingHost:      "http://localhost:11434",
			completionHost:     "http://localhost:11434",
			expectedEmbedding:  "http://localhost:11434/v1",
			expectedCompletion: "http://localhost:11434/v1",
		},
		{
			name:               "has trailing slash",
			embeddingHost:      "http://localhost:11434/",
			completionHost:     "http://localhost:11434/",
			expectedEmbedding:  "http://localhost:11434/v1",
			expectedCompletion: "http://localhost:11434/v1",
		},
		{
			name:               "empty hosts",
			expectedEmbedding:  "",
			expectedCompletion: "",
		},
		{
			name:               "different formats",
			embeddingHost:      "http://embed:8080",
			completionHost:     "http://complete:9090/v1",
			expectedEmbedding:  "http://embed:8080/v1",
			expectedCompletion: "http://complete:9090/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingHost:  tt.embeddingHost,
				CompletionHost: tt.completionHost,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedEmbedding, cfg.EmbeddingHost)
			assert.Equal(t, tt.expectedCompletion, cfg.CompletionHost)
			assert.Equal(t, "none", cfg.APIKey, "empty API key becomes the local placeholder")
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:      "http://localhost:11434",
			CompletionHost:     "http://localhost:11434",
			EmbeddingModel:     "all-minilm",
			CompletionModel:    "qwen2.5:3b",
			EmbeddingBatchSize: 8,
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())

		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.CompletionHost)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing completion host", func(c *Config) { c.CompletionHost = "" }, "CompletionHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"missing completion model", func(c *Config) { c.CompletionModel = "" }, "CompletionModel"},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, "Temperature"},
		{"negative temperature", func(c *Config) { c.Temperature = -1 }, "Temperature"},
		{"zero batch size", func(c *Config) { c.EmbeddingBatchSize = 0 }, "EmbeddingBatchSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
