package config

import "time"

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI     ProviderType = "openai"
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOllama     ProviderType = "ollama"
	ProviderOpenRouter ProviderType = "openrouter"
)

// RetrieverType selects how chunks are ranked against a query.
type RetrieverType string

const (
	// RetrieverBM25 ranks chunks lexically. No external calls are made.
	RetrieverBM25 RetrieverType = "bm25"
	// RetrieverVector ranks chunks by embedding similarity.
	RetrieverVector RetrieverType = "vector"
)

// Config is the top-level kompas configuration, corresponding to .kompas.yml.
type Config struct {
	Provider          ProviderType  `yaml:"provider" koanf:"provider"`
	Model             string        `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType  `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string        `yaml:"embedding_model" koanf:"embedding_model"`
	Retriever         RetrieverType `yaml:"retriever" koanf:"retriever"`

	UploadDir    string   `yaml:"upload_dir" koanf:"upload_dir"`
	RequiredExts []string `yaml:"required_exts" koanf:"required_exts"`

	ChunkSize           int     `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	SimilarityTopK      int     `yaml:"similarity_top_k" koanf:"similarity_top_k"`
	SimilarityCutoff    float64 `yaml:"similarity_cutoff" koanf:"similarity_cutoff"`
	ContextWindowTokens int     `yaml:"context_window_tokens" koanf:"context_window_tokens"`

	MaxConcurrency    int           `yaml:"max_concurrency" koanf:"max_concurrency"`
	LLMTimeout        time.Duration `yaml:"llm_timeout" koanf:"llm_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" koanf:"requests_per_minute"`

	SystemPrompt string `yaml:"system_prompt" koanf:"system_prompt"`
	Salutation   string `yaml:"salutation" koanf:"salutation"`

	HistoryDB string       `yaml:"history_db" koanf:"history_db"`
	Server    ServerConfig `yaml:"server" koanf:"server"`
	LogLevel  string       `yaml:"log_level" koanf:"log_level"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               int      `yaml:"port" koanf:"port"`
	AllowedOrigins     []string `yaml:"allowed_origins" koanf:"allowed_origins"`
	MaxUploadBytes     int64    `yaml:"max_upload_bytes" koanf:"max_upload_bytes"`
	AllowedUploadTypes []string `yaml:"allowed_upload_types" koanf:"allowed_upload_types"`
	IndexOnStart       bool     `yaml:"index_on_start" koanf:"index_on_start"`
}
