package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.EmbeddingProvider != EmbeddingHash {
		t.Errorf("expected offline embeddings by default, got %q", cfg.EmbeddingProvider)
	}
	if cfg.DefaultTier != "medium" {
		t.Errorf("expected default tier medium, got %q", cfg.DefaultTier)
	}
	if cfg.Generation.TimeoutSeconds != 120 {
		t.Errorf("expected generation timeout 120, got %d", cfg.Generation.TimeoutSeconds)
	}
	if cfg.DatabasePath() != filepath.Join(".videomind", "videomind.db") {
		t.Errorf("unexpected database path %q", cfg.DatabasePath())
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.videomind.yml")

	original := DefaultConfig()
	original.Provider = ProviderOllama
	original.Model = "llama3:70b"
	original.DefaultTier = "large"
	original.Port = 9100
	original.Generation.MaxTopics = 20

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.DefaultTier != original.DefaultTier {
		t.Errorf("default_tier: got %q, want %q", loaded.DefaultTier, original.DefaultTier)
	}
	if loaded.Port != original.Port {
		t.Errorf("port: got %d, want %d", loaded.Port, original.Port)
	}
	if loaded.Generation.MaxTopics != 20 {
		t.Errorf("generation.max_topics: got %d, want 20", loaded.Generation.MaxTopics)
	}
	if loaded.Generation.TimeoutSeconds != original.Generation.TimeoutSeconds {
		t.Errorf("generation.timeout_seconds: got %d", loaded.Generation.TimeoutSeconds)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Port != 8090 {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yml")
	if err := os.WriteFile(path, []byte("port: 9200\ngeneration:\n  max_topics: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9200 || cfg.Generation.MaxTopics != 5 {
		t.Errorf("file values not applied: port %d max_topics %d", cfg.Port, cfg.Generation.MaxTopics)
	}
	if cfg.Generation.TimeoutSeconds != 120 || cfg.DefaultVideoURL != DefaultVideoURL {
		t.Error("defaults lost for keys missing from the file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("VIDEOMIND_PROVIDER", "openrouter")
	t.Setenv("VIDEOMIND_PORT", "9300")
	t.Setenv("VIDEOMIND_GENERATION__TIMEOUT_SECONDS", "15")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOpenRouter {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOpenRouter)
	}
	if loaded.Port != 9300 {
		t.Errorf("port override failed: got %d", loaded.Port)
	}
	if loaded.Generation.TimeoutSeconds != 15 {
		t.Errorf("nested override failed: got %d", loaded.Generation.TimeoutSeconds)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"no provider needs no model", func(c *Config) { c.Provider = ProviderNone; c.Model = "" }, ""},
		{"invalid provider", func(c *Config) { c.Provider = "anthropic" }, "provider"},
		{"empty model", func(c *Config) { c.Model = "" }, "model is required"},
		{"bad base url", func(c *Config) { c.BaseURL = "not a url" }, "base_url"},
		{"bad tier", func(c *Config) { c.DefaultTier = "huge" }, "default_tier"},
		{"bad embedding", func(c *Config) { c.EmbeddingProvider = "google" }, "embedding_provider"},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, "data_dir is required"},
		{"port range", func(c *Config) { c.Port = 70000 }, "port must be at most 65535"},
		{"negative rate", func(c *Config) { c.RateLimitRPM = -1 }, "rate_limit_rpm"},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"max topics", func(c *Config) { c.Generation.MaxTopics = 0 }, "generation.max_topics"},
		{"timeout", func(c *Config) { c.Generation.TimeoutSeconds = 0 }, "generation.timeout_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	if p := GetPreset(ProviderOllama); p.Model != "llama3" || p.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("ollama preset = %+v", p)
	}
	if p := GetPreset("unknown"); p.Model != "gpt-4o-mini" {
		t.Errorf("expected fallback to the openai preset, got %q", p.Model)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderOpenRouter, "OPENROUTER_API_KEY"},
		{ProviderOllama, ""},
		{ProviderNone, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestWizardValidators(t *testing.T) {
	if err := validatePort("8090"); err != nil {
		t.Errorf("validatePort(8090) = %v", err)
	}
	for _, bad := range []string{"0", "99999", "http"} {
		if validatePort(bad) == nil {
			t.Errorf("validatePort(%q) should fail", bad)
		}
	}
	if validateURL("https://example.com/a.mp4") != nil || validateURL("") != nil {
		t.Error("validateURL rejected a valid value")
	}
	if validateURL("example.com/a.mp4") == nil {
		t.Error("validateURL accepted a relative URL")
	}
	if embeddingFor(ProviderOpenRouter) != EmbeddingHash {
		t.Error("openrouter has no embeddings endpoint and should use the hash embedder")
	}
}
