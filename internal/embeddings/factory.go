package embeddings

import (
	"fmt"
	"os"
)

// ollamaDimensions lists output sizes of common Ollama embedding models.
var ollamaDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
}

// NewEmbedder creates an Embedder for the given provider ("openai" or
// "ollama") and model. API keys and hosts are read from the environment.
func NewEmbedder(provider, model string) (Embedder, error) {
	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		if model == "" {
			model = string(ModelTextEmbedding3Small)
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(model), os.Getenv("OPENAI_BASE_URL")), nil

	case "ollama":
		if model == "" {
			model = "nomic-embed-text"
		}
		dims, ok := ollamaDimensions[model]
		if !ok {
			dims = 768
		}
		return NewOllamaEmbedder(model, dims, os.Getenv("OLLAMA_HOST")), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
