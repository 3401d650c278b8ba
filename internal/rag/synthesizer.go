package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ziadkadry99/kompas/internal/chunker"
	"github.com/ziadkadry99/kompas/internal/llm"
)

// ErrUpstreamGeneration is returned when the language model fails, times out
// or returns an empty answer.
var ErrUpstreamGeneration = errors.New("upstream generation failed")

// errNoContext is returned when Synthesize is called without chunks.
var errNoContext = errors.New("no context chunks to synthesize")

const (
	defaultContextWindow = 3000
	defaultConcurrency   = 4
	defaultAnswerTokens  = 512
)

// Answer is a synthesized reply and the files it was built from.
type Answer struct {
	Text    string
	Sources []string
}

// Synthesizer combines chunks into one answer with a tree-summarize
// strategy: chunks are packed into prompts that fit the context window,
// each pack is answered, and the partial answers are combined the same way
// until a single answer remains.
type Synthesizer struct {
	provider      llm.Provider
	contextWindow int
	concurrency   int
	answerTokens  int
	logger        *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithContextWindow sets the token budget of a single prompt.
func WithContextWindow(tokens int) Option {
	return func(s *Synthesizer) {
		if tokens > 0 {
			s.contextWindow = tokens
		}
	}
}

// WithConcurrency bounds the number of parallel LLM calls per level.
func WithConcurrency(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSynthesizer creates a Synthesizer backed by provider.
func NewSynthesizer(provider llm.Provider, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		provider:      provider,
		contextWindow: defaultContextWindow,
		concurrency:   defaultConcurrency,
		answerTokens:  defaultAnswerTokens,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize answers query from chunks. Every chunk ends up in exactly one
// first-level prompt.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, chunks []chunker.Chunk) (Answer, error) {
	if len(chunks) == 0 {
		return Answer{}, errNoContext
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	for level := 0; ; level++ {
		packs := s.pack(query, texts)
		s.logger.Debug("synthesis level", "level", level, "inputs", len(texts), "calls", len(packs))

		answers, err := s.answerAll(ctx, query, packs)
		if err != nil {
			return Answer{}, err
		}
		if len(answers) == 1 {
			return Answer{Text: answers[0], Sources: sources(chunks)}, nil
		}
		texts = answers
	}
}

// pack groups texts greedily so each group's prompt stays within the
// context window. A text larger than the window gets a group of its own.
// If packing would not reduce the number of texts, they are paired instead
// so every level makes progress.
func (s *Synthesizer) pack(query string, texts []string) [][]string {
	overhead := llm.EstimateTokens(buildSynthesisPrompt(query, nil)) +
		llm.EstimateTokens(synthesisSystemPrompt) + s.answerTokens
	budget := s.contextWindow - overhead
	sep := llm.EstimateTokens(contextSeparator)

	var packs [][]string
	var cur []string
	used := 0
	for _, t := range texts {
		n := llm.EstimateTokens(t)
		if len(cur) > 0 && used+sep+n > budget {
			packs = append(packs, cur)
			cur, used = nil, 0
		}
		if len(cur) > 0 {
			used += sep
		}
		cur = append(cur, t)
		used += n
	}
	if len(cur) > 0 {
		packs = append(packs, cur)
	}

	if len(packs) == len(texts) && len(texts) > 1 {
		packs = packs[:0]
		for i := 0; i < len(texts); i += 2 {
			packs = append(packs, texts[i:min(i+2, len(texts))])
		}
	}
	return packs
}

// answerAll runs one LLM call per pack with bounded concurrency and returns
// the answers in pack order. The first failure cancels the remaining calls.
func (s *Synthesizer) answerAll(ctx context.Context, query string, packs [][]string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	answers := make([]string, len(packs))
	sem := make(chan struct{}, s.concurrency)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i, p := range packs {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			text, err := s.complete(ctx, query, p)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
				return
			}
			answers[i] = text
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamGeneration, err)
	}
	return answers, nil
}

func (s *Synthesizer) complete(ctx context.Context, query string, texts []string) (string, error) {
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: synthesisSystemPrompt},
			{Role: llm.RoleUser, Content: buildSynthesisPrompt(query, texts)},
		},
		MaxTokens: s.answerTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamGeneration, err)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty answer from %s", ErrUpstreamGeneration, s.provider.Name())
	}
	return text, nil
}

// sources lists the distinct filenames of chunks in first-seen order.
func sources(chunks []chunker.Chunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	var out []string
	for _, ch := range chunks {
		if _, ok := seen[ch.Filename]; ok {
			continue
		}
		seen[ch.Filename] = struct{}{}
		out = append(out, ch.Filename)
	}
	return out
}
