package llm

import (
	"fmt"
	"os"
	"strings"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOllamaHost = "http://localhost:11434"
)

// NewProvider creates a provider for the given type. Every supported type
// speaks the OpenAI chat API; baseURL overrides the type's default endpoint.
// Supported provider types: "openai", "openrouter", "ollama".
func NewProvider(providerType, model, baseURL string) (Provider, error) {
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider("openai", apiKey, baseURL, model), nil

	case "openrouter":
		apiKey := os.Getenv("OPENROUTER_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable is not set")
		}
		if baseURL == "" {
			baseURL = openRouterBaseURL
		}
		return NewOpenAIProvider("openrouter", apiKey, baseURL, model), nil

	case "ollama":
		if baseURL == "" {
			baseURL = OllamaBaseURL()
		}
		return NewOpenAIProvider("ollama", "ollama", baseURL, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// OllamaBaseURL returns the OpenAI-compatible endpoint of the local Ollama
// server, honouring OLLAMA_HOST.
func OllamaBaseURL() string {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = defaultOllamaHost
	}
	return strings.TrimRight(host, "/") + "/v1"
}

// APIKey returns the API key the provider type reads from the environment.
func APIKey(providerType string) string {
	switch providerType {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	case "ollama":
		return "ollama"
	default:
		return ""
	}
}
