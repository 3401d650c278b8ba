package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ziadkadry99/kompas/internal/chatbot"
	"github.com/ziadkadry99/kompas/internal/chunker"
	"github.com/ziadkadry99/kompas/internal/config"
	"github.com/ziadkadry99/kompas/internal/conversation"
	"github.com/ziadkadry99/kompas/internal/corpus"
	"github.com/ziadkadry99/kompas/internal/db"
	"github.com/ziadkadry99/kompas/internal/embeddings"
	"github.com/ziadkadry99/kompas/internal/historystore"
	"github.com/ziadkadry99/kompas/internal/llm"
	"github.com/ziadkadry99/kompas/internal/progress"
	"github.com/ziadkadry99/kompas/internal/rag"
	"github.com/ziadkadry99/kompas/internal/retrieval"
)

// keepSessions is how many saved sessions survive startup pruning.
const keepSessions = 10

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `kompas init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(llm.Options{
		Provider:          string(cfg.Provider),
		Model:             cfg.Model,
		Timeout:           cfg.LLMTimeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
}

// createBuilderFromConfig picks the index builder for cfg.Retriever.
func createBuilderFromConfig(cfg *config.Config) (retrieval.Builder, error) {
	switch cfg.Retriever {
	case config.RetrieverVector:
		embedder, err := embeddings.NewEmbedder(string(cfg.EmbeddingProvider), cfg.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("creating embedder: %w", err)
		}
		return retrieval.NewVectorBuilder(embedder, cfg.MaxConcurrency), nil
	default:
		return retrieval.BM25Builder{}, nil
	}
}

// app bundles the chatbot with the resources that must be released on exit.
type app struct {
	cfg     *config.Config
	bot     *chatbot.Chatbot
	logger  *slog.Logger
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("closing resource", "error", err)
		}
	}
}

// buildApp wires the chatbot from cfg. reporter may be nil.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, reporter progress.Reporter) (*app, error) {
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	builder, err := createBuilderFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	conv := conversation.New(cfg.SystemPrompt, cfg.Salutation)

	opts := []chatbot.Option{
		chatbot.WithStore(corpus.NewFileStore()),
		chatbot.WithChunker(chunker.New(
			chunker.WithChunkSize(cfg.ChunkSize),
			chunker.WithOverlap(cfg.ChunkOverlap),
		)),
		chatbot.WithBuilder(builder),
		chatbot.WithSynthesizer(rag.NewSynthesizer(provider,
			rag.WithContextWindow(cfg.ContextWindowTokens),
			rag.WithConcurrency(cfg.MaxConcurrency),
			rag.WithLogger(logger),
		)),
		chatbot.WithLogger(logger),
		chatbot.WithProgress(reporter),
	}

	if cfg.HistoryDB != "" {
		observer, err := a.openHistory(ctx, cfg.HistoryDB, conv)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, chatbot.WithHistoryObserver(observer))
	}

	a.bot = chatbot.New(chatbot.Config{
		Dir:        cfg.UploadDir,
		Extensions: cfg.RequiredExts,
		TopK:       cfg.SimilarityTopK,
		Cutoff:     cfg.SimilarityCutoff,
		Timeout:    cfg.LLMTimeout,
	}, provider, conv, opts...)

	logger.Debug("chatbot ready",
		"provider", provider.Name(),
		"model", cfg.Model,
		"retriever", cfg.Retriever,
		"dir", cfg.UploadDir,
	)
	return a, nil
}

// openHistory restores the latest saved conversation into conv and returns
// an observer that saves every change under a fresh session id.
func (a *app) openHistory(ctx context.Context, path string, conv *conversation.State) (chatbot.HistoryObserver, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	a.closers = append(a.closers, database.Close)
	store := historystore.NewStore(database)

	_, turns, err := store.Latest(ctx)
	switch {
	case errors.Is(err, historystore.ErrNoSession):
	case err != nil:
		return nil, fmt.Errorf("restoring history: %w", err)
	default:
		if err := conv.Import(turns); err != nil {
			a.logger.Warn("ignoring saved history", "error", err)
		} else {
			a.logger.Info("restored chat history", "turns", len(turns))
		}
	}

	sessionID := historystore.NewSessionID()
	if err := store.Save(ctx, sessionID, conv.Export()); err != nil {
		return nil, err
	}
	if n, err := store.Prune(ctx, keepSessions); err != nil {
		a.logger.Warn("pruning saved sessions", "error", err)
	} else if n > 0 {
		a.logger.Debug("pruned saved sessions", "count", n)
	}

	logger := a.logger
	return func(turns []conversation.Turn) {
		if err := store.Save(context.Background(), sessionID, turns); err != nil {
			logger.Error("saving chat history", "session", sessionID, "error", err)
		}
	}, nil
}
