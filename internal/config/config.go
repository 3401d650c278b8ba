package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when --config is not given.
const DefaultPath = ".kompas.yml"

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: KOMPAS_SERVER__PORT -> server.port.
const EnvPrefix = "KOMPAS_"

// legacyUploadDirEnv is honoured for deployments that only set the upload
// directory through the environment.
const legacyUploadDirEnv = "UPLOAD_DIRECTORY"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (KOMPAS_*). A .env file in the working
// directory is loaded into the environment first, without overriding
// variables that are already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if dir := os.Getenv(legacyUploadDirEnv); dir != "" {
		if err := k.Set("upload_dir", dir); err != nil {
			return nil, fmt.Errorf("applying %s: %w", legacyUploadDirEnv, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps KOMPAS_SERVER__PORT to server.port.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI:     true,
	ProviderAnthropic:  true,
	ProviderOllama:     true,
	ProviderOpenRouter: true,
}

// embeddingProviders can produce embeddings for the vector retriever.
var embeddingProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
}

var validRetrievers = map[RetrieverType]bool{
	RetrieverBM25:   true,
	RetrieverVector: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of openai, anthropic, ollama, openrouter", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}

	if !validRetrievers[c.Retriever] {
		return fmt.Errorf("invalid retriever %q: must be bm25 or vector", c.Retriever)
	}
	if c.Retriever == RetrieverVector && !embeddingProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q: vector retrieval needs openai or ollama", c.EmbeddingProvider)
	}

	if c.UploadDir == "" {
		return fmt.Errorf("upload_dir is required")
	}
	if len(c.RequiredExts) == 0 {
		return fmt.Errorf("required_exts must list at least one extension")
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size)")
	}
	if c.SimilarityTopK < 1 {
		return fmt.Errorf("similarity_top_k must be at least 1")
	}
	if c.SimilarityCutoff < 0 {
		return fmt.Errorf("similarity_cutoff must be non-negative")
	}
	if c.ContextWindowTokens <= 0 {
		return fmt.Errorf("context_window_tokens must be positive")
	}

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}
	if c.LLMTimeout < 0 {
		return fmt.Errorf("llm_timeout must be non-negative")
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be non-negative")
	}

	if c.SystemPrompt == "" {
		return fmt.Errorf("system_prompt is required")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}
