package config

// ProviderType identifies a generation provider. Every provider speaks the
// OpenAI chat API.
type ProviderType string

const (
	ProviderNone       ProviderType = "none"
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderOllama     ProviderType = "ollama"
)

// EmbeddingType selects how topic search embeds text.
type EmbeddingType string

const (
	// EmbeddingHash is the offline bag-of-words embedder.
	EmbeddingHash   EmbeddingType = "hash"
	EmbeddingOpenAI EmbeddingType = "openai"
	EmbeddingOllama EmbeddingType = "ollama"
)

// Config is the top-level videomind configuration, corresponding to .videomind.yml.
type Config struct {
	Provider             ProviderType     `yaml:"provider" koanf:"provider" validate:"required,oneof=none openai openrouter ollama"`
	Model                string           `yaml:"model" koanf:"model" validate:"required_unless=Provider none"`
	BaseURL              string           `yaml:"base_url,omitempty" koanf:"base_url" validate:"omitempty,url"`
	EmbeddingProvider    EmbeddingType    `yaml:"embedding_provider" koanf:"embedding_provider" validate:"required,oneof=hash openai ollama"`
	EmbeddingModel       string           `yaml:"embedding_model,omitempty" koanf:"embedding_model"`
	DataDir              string           `yaml:"data_dir" koanf:"data_dir" validate:"required"`
	Host                 string           `yaml:"host" koanf:"host"`
	Port                 int              `yaml:"port" koanf:"port" validate:"min=1,max=65535"`
	DefaultTier          string           `yaml:"default_tier" koanf:"default_tier" validate:"oneof=small medium large"`
	DefaultVideoURL      string           `yaml:"default_video_url" koanf:"default_video_url" validate:"omitempty,url"`
	LogLevel             string           `yaml:"log_level" koanf:"log_level" validate:"oneof=debug info warn error"`
	LogDevelopment       bool             `yaml:"log_development" koanf:"log_development"`
	RateLimitRPM         int              `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm" validate:"gte=0"`
	HistoryRetentionDays int              `yaml:"history_retention_days" koanf:"history_retention_days" validate:"gte=0"`
	AllowAllOrigins      bool             `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	Generation           GenerationConfig `yaml:"generation" koanf:"generation"`
}

// GenerationConfig tunes mind-map generation.
type GenerationConfig struct {
	MaxTopics      int     `yaml:"max_topics" koanf:"max_topics" validate:"min=1,max=30"`
	TimeoutSeconds int     `yaml:"timeout_seconds" koanf:"timeout_seconds" validate:"min=1"`
	Temperature    float64 `yaml:"temperature" koanf:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int     `yaml:"max_tokens" koanf:"max_tokens" validate:"min=256"`
}
