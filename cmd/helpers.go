package cmd

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/videomind/internal/config"
	"github.com/ziadkadry99/videomind/internal/generate"
	"github.com/ziadkadry99/videomind/internal/llm"
	"github.com/ziadkadry99/videomind/internal/logging"
	"github.com/ziadkadry99/videomind/internal/mindmap"
	"github.com/ziadkadry99/videomind/internal/search"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `videomind init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the command logger; --verbose forces debug level.
func newLogger(cfg *config.Config) *zap.Logger {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.Must(level, cfg.LogDevelopment)
}

// createGeneratorFromConfig creates the mind-map generator, or nil when no
// provider is configured.
func createGeneratorFromConfig(cfg *config.Config, logger *zap.Logger) (*generate.Generator, error) {
	if cfg.Provider == config.ProviderNone {
		return nil, nil
	}
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if cfg.RateLimitRPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM)
	}
	return generate.New(provider, generate.Options{
		Model:       cfg.Model,
		MaxTopics:   cfg.Generation.MaxTopics,
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
	}, logger), nil
}

// createEmbedderFromConfig creates the embedder used by topic search.
func createEmbedderFromConfig(cfg *config.Config) (search.Embedder, error) {
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(config.ProviderType(cfg.EmbeddingProvider)).EmbeddingModel
	}

	switch cfg.EmbeddingProvider {
	case config.EmbeddingOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return search.NewOpenAIEmbedder(apiKey, "", model), nil
	case config.EmbeddingOllama:
		return search.NewOpenAIEmbedder("ollama", llm.OllamaBaseURL(), model), nil
	default:
		return search.HashEmbedder{}, nil
	}
}

func generationTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Generation.TimeoutSeconds) * time.Second
}

// readDocument reads and validates a mind-map file.
func readDocument(path string) (*mindmap.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := mindmap.Validate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
