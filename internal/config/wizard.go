package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to videomind! Let's configure your viewer.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select mind-map generation provider",
		Items: []string{"openai", "openrouter", "ollama", "none"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	if cfg.Provider != ProviderNone {
		preset := GetPreset(cfg.Provider)
		modelPrompt := promptui.Prompt{
			Label:   "Model",
			Default: preset.Model,
		}
		cfg.Model, err = modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		cfg.EmbeddingModel = preset.EmbeddingModel
	} else {
		cfg.Model = ""
	}
	cfg.EmbeddingProvider = embeddingFor(cfg.Provider)

	// 3. Built-in mind map shown at startup.
	tierPrompt := promptui.Select{
		Label:     "Default built-in mind map",
		Items:     []string{"small", "medium", "large"},
		CursorPos: 1,
	}
	_, cfg.DefaultTier, err = tierPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("tier selection: %w", err)
	}

	// 4. Default video.
	videoPrompt := promptui.Prompt{
		Label:    "Default video URL",
		Default:  cfg.DefaultVideoURL,
		Validate: validateURL,
	}
	cfg.DefaultVideoURL, err = videoPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("default video: %w", err)
	}

	// 5. Data directory and port.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for the library and uploaded videos",
		Default: cfg.DataDir,
	}
	cfg.DataDir, err = dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	portPrompt := promptui.Prompt{
		Label:    "Port",
		Default:  strconv.Itoa(cfg.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before generating mind maps.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingFor picks the search embedder that matches a provider. Only
// providers with an embeddings endpoint get one; the rest stay offline.
func embeddingFor(p ProviderType) EmbeddingType {
	switch p {
	case ProviderOpenAI:
		return EmbeddingOpenAI
	case ProviderOllama:
		return EmbeddingOllama
	default:
		return EmbeddingHash
	}
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

func validateURL(s string) error {
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("enter an absolute URL")
	}
	return nil
}
