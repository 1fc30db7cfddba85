package config

import "path/filepath"

// DefaultVideoURL is played when neither an uploaded video nor the active
// document names one.
const DefaultVideoURL = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4"

// Preset describes the models to use with a provider.
type Preset struct {
	Model          string
	EmbeddingModel string
}

// presets maps each provider to its default model choices.
var presets = map[ProviderType]Preset{
	ProviderOpenAI:     {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderOpenRouter: {Model: "openai/gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama:     {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:             ProviderOpenAI,
		Model:                "gpt-4o-mini",
		EmbeddingProvider:    EmbeddingHash,
		DataDir:              ".videomind",
		Host:                 "127.0.0.1",
		Port:                 8090,
		DefaultTier:          "medium",
		DefaultVideoURL:      DefaultVideoURL,
		LogLevel:             "info",
		RateLimitRPM:         0,
		HistoryRetentionDays: 30,
		Generation: GenerationConfig{
			MaxTopics:      12,
			TimeoutSeconds: 120,
			Temperature:    0.2,
			MaxTokens:      4096,
		},
	}
}

// GetPreset returns the preset for the given provider. Unknown providers get
// the OpenAI preset.
func GetPreset(provider ProviderType) Preset {
	if p, ok := presets[provider]; ok {
		return p
	}
	return presets[ProviderOpenAI]
}

// DatabasePath is the sqlite file holding the library and history.
func (c *Config) DatabasePath() string { return filepath.Join(c.DataDir, "videomind.db") }

// MediaDir holds transient uploaded videos.
func (c *Config) MediaDir() string { return filepath.Join(c.DataDir, "media") }

// SearchDir holds the persistent topic search index.
func (c *Config) SearchDir() string { return filepath.Join(c.DataDir, "search") }
