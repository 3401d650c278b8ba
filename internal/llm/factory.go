package llm

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOllamaHost = "http://localhost:11434"
)

// Options selects and tunes a provider.
type Options struct {
	// Provider is one of "openai", "anthropic", "ollama", "openrouter".
	Provider string
	Model    string
	// Timeout bounds every upstream HTTP call. Zero means no timeout.
	Timeout time.Duration
	// RequestsPerMinute wraps the provider in a rate limiter when positive.
	RequestsPerMinute int
}

// NewProvider creates a new LLM provider from opts. API keys are read from
// the environment.
func NewProvider(opts Options) (Provider, error) {
	httpClient := &http.Client{Timeout: opts.Timeout}

	var p Provider
	switch opts.Provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		p = NewOpenAIProvider(apiKey, opts.Model, WithHTTPClient(httpClient))

	case "openrouter":
		apiKey := os.Getenv("OPENROUTER_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable is not set")
		}
		p = NewOpenAIProvider(apiKey, opts.Model,
			WithBaseURL(openRouterBaseURL),
			WithName("openrouter"),
			WithHTTPClient(httpClient),
		)

	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		ap := NewAnthropicProvider(apiKey, opts.Model)
		ap.client = httpClient
		p = ap

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = defaultOllamaHost
		}
		op := NewOllamaProvider(host, opts.Model)
		op.client = httpClient
		p = op

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", opts.Provider)
	}

	if opts.RequestsPerMinute > 0 {
		p = NewRateLimitedProvider(p, opts.RequestsPerMinute)
	}
	return p, nil
}
