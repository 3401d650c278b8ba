package config

import "time"

// DefaultSystemPrompt is the persona the conversation is seeded with.
const DefaultSystemPrompt = `You are Kompas, an expert career counsellor providing personalized guidance.
Greet the user by name when it is known ("Hello [User Name]! I'm Kompas, your personal career counsellor."),
otherwise greet them as "User", then offer help with:
1. General Career Queries
2. Resume Building
3. Mapping Career Journeys

Work through the conversation in stages: understand the user's career stage and why they are
seeking advice, assess skills, interests and values with short questions (for example
"On a scale of 1-5, how much do you enjoy working with data?"), explore short and long term goals,
then give tailored advice and concrete next steps with milestones and resources.

Keep answers short, friendly and professional. Offer to elaborate when useful, ask for feedback
on your suggestions, build on earlier answers and end each reply on an encouraging note.`

// DefaultSalutation is the user turn placed after the system prompt. It carries
// the user's details so the first reply can address them.
const DefaultSalutation = "Name: my friend"

// MaxUploadBytes is the default upper bound for a single uploaded document (10 MiB).
const MaxUploadBytes int64 = 10 << 20

// defaultModels maps each provider to its default chat and embedding models.
var defaultModels = map[ProviderType]struct {
	Model          string
	EmbeddingModel string
}{
	ProviderOpenAI:     {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderAnthropic:  {Model: "claude-haiku-4-5-20251001", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama:     {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
	ProviderOpenRouter: {Model: "openai/gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
}

// DefaultModel returns the default chat model for the given provider.
func DefaultModel(p ProviderType) string {
	if m, ok := defaultModels[p]; ok {
		return m.Model
	}
	return defaultModels[ProviderOpenAI].Model
}

// DefaultEmbeddingModel returns the default embedding model for the given provider.
func DefaultEmbeddingModel(p ProviderType) string {
	if m, ok := defaultModels[p]; ok {
		return m.EmbeddingModel
	}
	return defaultModels[ProviderOpenAI].EmbeddingModel
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:            ProviderOpenAI,
		Model:               "gpt-4o-mini",
		EmbeddingProvider:   ProviderOpenAI,
		EmbeddingModel:      "text-embedding-3-small",
		Retriever:           RetrieverBM25,
		UploadDir:           "uploads",
		RequiredExts:        []string{".pdf"},
		ChunkSize:           512,
		ChunkOverlap:        100,
		SimilarityTopK:      2,
		SimilarityCutoff:    0.5,
		ContextWindowTokens: 3000,
		MaxConcurrency:      4,
		LLMTimeout:          90 * time.Second,
		RequestsPerMinute:   0,
		SystemPrompt:        DefaultSystemPrompt,
		Salutation:          DefaultSalutation,
		LogLevel:            "info",
		Server: ServerConfig{
			Port:               8000,
			AllowedOrigins:     []string{"http://localhost:3000", "http://localhost:8000"},
			MaxUploadBytes:     MaxUploadBytes,
			AllowedUploadTypes: []string{"application/pdf"},
		},
	}
}
