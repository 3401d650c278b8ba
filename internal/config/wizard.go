package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to kompas! Let's configure your assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama", "openrouter"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Model = DefaultModel(cfg.Provider)
	cfg.EmbeddingProvider = embeddingProviderFor(cfg.Provider)
	cfg.EmbeddingModel = DefaultEmbeddingModel(cfg.EmbeddingProvider)

	// 2. Retrieval strategy.
	retrieverPrompt := promptui.Select{
		Label: "Select retrieval strategy",
		Items: []string{
			"bm25   (keyword ranking, no embedding calls)",
			"vector (embedding similarity, needs an embedding provider)",
		},
	}
	retrieverIdx, _, err := retrieverPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("retriever selection: %w", err)
	}
	cfg.Retriever = []RetrieverType{RetrieverBM25, RetrieverVector}[retrieverIdx]

	// 3. Watched directory.
	dirPrompt := promptui.Prompt{
		Label:   "Directory holding your documents",
		Default: cfg.UploadDir,
	}
	if cfg.UploadDir, err = dirPrompt.Run(); err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}

	// 4. Extensions.
	extPrompt := promptui.Prompt{
		Label:   "Document extensions (comma-separated)",
		Default: strings.Join(cfg.RequiredExts, ","),
	}
	extStr, err := extPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("extensions: %w", err)
	}
	cfg.RequiredExts = splitAndTrim(extStr)

	// 5. Relevance cutoff.
	cutoffPrompt := promptui.Prompt{
		Label:   "Relevance cutoff",
		Default: strconv.FormatFloat(cfg.SimilarityCutoff, 'f', -1, 64),
		Validate: func(s string) error {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v < 0 {
				return fmt.Errorf("enter a non-negative number")
			}
			return nil
		},
	}
	cutoffStr, err := cutoffPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("cutoff: %w", err)
	}
	cfg.SimilarityCutoff, _ = strconv.ParseFloat(cutoffStr, 64)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running kompas server.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. OpenAI embeddings are used for all cloud providers.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderOllama {
		return ProviderOllama
	}
	return ProviderOpenAI
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
