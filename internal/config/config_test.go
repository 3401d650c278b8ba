package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %q", cfg.Model)
	}
	if cfg.SimilarityTopK != 2 {
		t.Errorf("expected default similarity_top_k 2, got %d", cfg.SimilarityTopK)
	}
	if cfg.SimilarityCutoff != 0.5 {
		t.Errorf("expected default similarity_cutoff 0.5, got %f", cfg.SimilarityCutoff)
	}
	if cfg.ChunkSize != 512 || cfg.ChunkOverlap != 100 {
		t.Errorf("expected chunking 512/100, got %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.Server.MaxUploadBytes != 10*1024*1024 {
		t.Errorf("expected 10 MiB upload limit, got %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Salutation != "Name: my friend" {
		t.Errorf("unexpected salutation %q", cfg.Salutation)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.kompas.yml")

	original := DefaultConfig()
	original.Provider = ProviderAnthropic
	original.Model = "claude-haiku-4-5-20251001"
	original.Retriever = RetrieverVector
	original.RequiredExts = []string{".pdf", ".md"}
	original.UploadDir = "docs-in"
	original.SimilarityCutoff = 1.25
	original.LLMTimeout = 30 * time.Second
	original.Server.Port = 9090

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Retriever != original.Retriever {
		t.Errorf("retriever: got %q, want %q", loaded.Retriever, original.Retriever)
	}
	if loaded.UploadDir != original.UploadDir {
		t.Errorf("upload_dir: got %q, want %q", loaded.UploadDir, original.UploadDir)
	}
	if loaded.SimilarityCutoff != original.SimilarityCutoff {
		t.Errorf("similarity_cutoff: got %f, want %f", loaded.SimilarityCutoff, original.SimilarityCutoff)
	}
	if loaded.LLMTimeout != original.LLMTimeout {
		t.Errorf("llm_timeout: got %s, want %s", loaded.LLMTimeout, original.LLMTimeout)
	}
	if loaded.Server.Port != original.Server.Port {
		t.Errorf("server.port: got %d, want %d", loaded.Server.Port, original.Server.Port)
	}
	if len(loaded.RequiredExts) != len(original.RequiredExts) {
		t.Fatalf("required_exts length: got %d, want %d", len(loaded.RequiredExts), len(original.RequiredExts))
	}
	for i, v := range loaded.RequiredExts {
		if v != original.RequiredExts[i] {
			t.Errorf("required_exts[%d]: got %q, want %q", i, v, original.RequiredExts[i])
		}
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
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("KOMPAS_PROVIDER", "ollama")
	t.Setenv("KOMPAS_SERVER__PORT", "9191")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOllama {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOllama)
	}
	if loaded.Server.Port != 9191 {
		t.Errorf("nested env override failed: got %d, want 9191", loaded.Server.Port)
	}
}

func TestLoadLegacyUploadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yml")

	t.Setenv("UPLOAD_DIRECTORY", "/srv/uploads")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.UploadDir != "/srv/uploads" {
		t.Errorf("upload_dir: got %q, want /srv/uploads", cfg.UploadDir)
	}

	// The prefixed variable wins over the legacy one.
	t.Setenv("KOMPAS_UPLOAD_DIR", "/srv/other")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.UploadDir != "/srv/other" {
		t.Errorf("upload_dir: got %q, want /srv/other", cfg.UploadDir)
	}
}

func TestLoadUnreadableConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(path, []byte("provider: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty provider", func(c *Config) { c.Provider = "" }, true},
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }, true},
		{"empty model", func(c *Config) { c.Model = "" }, true},
		{"invalid retriever", func(c *Config) { c.Retriever = "fuzzy" }, true},
		{"vector without embeddings", func(c *Config) {
			c.Retriever = RetrieverVector
			c.EmbeddingProvider = ProviderAnthropic
		}, true},
		{"vector with ollama embeddings", func(c *Config) {
			c.Retriever = RetrieverVector
			c.EmbeddingProvider = ProviderOllama
		}, false},
		{"empty upload dir", func(c *Config) { c.UploadDir = "" }, true},
		{"no extensions", func(c *Config) { c.RequiredExts = nil }, true},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, true},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, true},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, true},
		{"zero top k", func(c *Config) { c.SimilarityTopK = 0 }, true},
		{"negative cutoff", func(c *Config) { c.SimilarityCutoff = -0.1 }, true},
		{"zero cutoff", func(c *Config) { c.SimilarityCutoff = 0 }, false},
		{"zero context window", func(c *Config) { c.ContextWindowTokens = 0 }, true},
		{"negative concurrency", func(c *Config) { c.MaxConcurrency = -1 }, true},
		{"negative timeout", func(c *Config) { c.LLMTimeout = -time.Second }, true},
		{"negative rpm", func(c *Config) { c.RequestsPerMinute = -1 }, true},
		{"empty system prompt", func(c *Config) { c.SystemPrompt = "" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultModel(t *testing.T) {
	if m := DefaultModel(ProviderAnthropic); m != "claude-haiku-4-5-20251001" {
		t.Errorf("expected haiku model, got %q", m)
	}
	if m := DefaultEmbeddingModel(ProviderOllama); m != "nomic-embed-text" {
		t.Errorf("expected nomic-embed-text, got %q", m)
	}
	// Unknown provider falls back to OpenAI.
	if m := DefaultModel("unknown"); m != "gpt-4o-mini" {
		t.Errorf("expected fallback to gpt-4o-mini, got %q", m)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderOpenRouter, "OPENROUTER_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{".pdf,.md,.txt", []string{".pdf", ".md", ".txt"}},
		{" .pdf , .md ", []string{".pdf", ".md"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
