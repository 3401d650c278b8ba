// Package chatbot wires corpus indexing, retrieval, the relevance gate,
// synthesis and the conversation into the index and chat operations.
package chatbot

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ziadkadry99/kompas/internal/chunker"
	"github.com/ziadkadry99/kompas/internal/conversation"
	"github.com/ziadkadry99/kompas/internal/corpus"
	"github.com/ziadkadry99/kompas/internal/llm"
	"github.com/ziadkadry99/kompas/internal/progress"
	"github.com/ziadkadry99/kompas/internal/rag"
	"github.com/ziadkadry99/kompas/internal/retrieval"
)

// ErrEmptyMessage is returned by Chat for a blank user message.
var ErrEmptyMessage = errors.New("message is empty")

// Config holds the orchestrator settings.
type Config struct {
	// Dir is the watched directory.
	Dir        string
	Extensions []string
	TopK       int
	// Cutoff is the minimum retrieval score a chunk needs to be used.
	// Zero disables the gate: every chunk the index returns is kept.
	Cutoff float64
	// Timeout bounds each upstream call made by Chat. Zero disables it.
	Timeout time.Duration
}

// HistoryObserver is called with a copy of the history after every change.
// Calls never overlap.
type HistoryObserver func(turns []conversation.Turn)

// Chatbot owns the corpus state, the current index snapshot and the
// conversation. Chat calls are serialized; IndexCorpus calls are serialized
// separately, and Chat always reads a complete index snapshot.
type Chatbot struct {
	cfg      Config
	store    corpus.Store
	chunker  *chunker.Chunker
	builder  retrieval.Builder
	synth    *rag.Synthesizer
	provider llm.Provider
	conv     *conversation.State
	logger   *slog.Logger
	observer HistoryObserver
	progress progress.Reporter

	indexMu sync.Mutex
	state   corpusState

	snap atomic.Pointer[snapshot]

	chatMu sync.Mutex

	// notifyMu orders observer calls so a slow save of an older export
	// cannot land after a newer one.
	notifyMu sync.Mutex
}

// corpusState is only touched with indexMu held.
type corpusState struct {
	indexed map[string]struct{}
	docs    []corpus.Document
	chunks  []chunker.Chunk
}

type snapshot struct {
	index   retrieval.Index
	builtAt time.Time
}

// Option configures a Chatbot.
type Option func(*Chatbot)

// WithStore replaces the filesystem document store.
func WithStore(s corpus.Store) Option {
	return func(c *Chatbot) { c.store = s }
}

// WithChunker replaces the default 512/100 word chunker.
func WithChunker(ch *chunker.Chunker) Option {
	return func(c *Chatbot) { c.chunker = ch }
}

// WithBuilder selects the index implementation. BM25 is the default.
func WithBuilder(b retrieval.Builder) Option {
	return func(c *Chatbot) { c.builder = b }
}

// WithSynthesizer replaces the default synthesizer.
func WithSynthesizer(s *rag.Synthesizer) Option {
	return func(c *Chatbot) { c.synth = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chatbot) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProgress reports the stages of each IndexCorpus call that has new
// files to process.
func WithProgress(r progress.Reporter) Option {
	return func(c *Chatbot) {
		if r != nil {
			c.progress = r
		}
	}
}

// WithHistoryObserver registers fn to be called after each history change.
func WithHistoryObserver(fn HistoryObserver) Option {
	return func(c *Chatbot) { c.observer = fn }
}

// New creates a Chatbot. provider answers direct chats and, unless
// WithSynthesizer is given, drives synthesis too.
func New(cfg Config, provider llm.Provider, conv *conversation.State, opts ...Option) *Chatbot {
	if cfg.TopK <= 0 {
		cfg.TopK = 2
	}
	c := &Chatbot{
		cfg:      cfg,
		store:    corpus.NewFileStore(),
		chunker:  chunker.New(),
		builder:  retrieval.BM25Builder{},
		provider: provider,
		conv:     conv,
		logger:   slog.New(slog.DiscardHandler),
		progress: progress.Nop{},
		state:    corpusState{indexed: make(map[string]struct{})},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.synth == nil {
		c.synth = rag.NewSynthesizer(provider, rag.WithLogger(c.logger))
	}
	return c
}

// Stats describes the current corpus and index.
type Stats struct {
	IndexedFiles int       `json:"indexed_files"`
	Documents    int       `json:"documents"`
	Chunks       int       `json:"chunks"`
	TopK         int       `json:"top_k"`
	Indexed      bool      `json:"indexed"`
	BuiltAt      time.Time `json:"built_at,omitzero"`
	Turns        int       `json:"turns"`
}

// Stats returns a consistent view of the corpus state.
func (c *Chatbot) Stats() Stats {
	c.indexMu.Lock()
	s := Stats{
		IndexedFiles: len(c.state.indexed),
		Documents:    len(c.state.docs),
		Chunks:       len(c.state.chunks),
	}
	c.indexMu.Unlock()

	if snap := c.snap.Load(); snap != nil {
		s.Indexed = true
		s.TopK = snap.index.TopK()
		s.BuiltAt = snap.builtAt
	}
	s.Turns = c.conv.Len()
	return s
}

// History returns the conversation in chronological order.
func (c *Chatbot) History() []conversation.Turn {
	return c.conv.Export()
}

// SetHistory replaces the conversation with turns.
func (c *Chatbot) SetHistory(turns []conversation.Turn) error {
	if err := c.conv.Import(turns); err != nil {
		return err
	}
	c.notify()
	return nil
}

// ResetHistory restores the seed conversation.
func (c *Chatbot) ResetHistory() {
	c.conv.Reset()
	c.notify()
}

func (c *Chatbot) notify() {
	if c.observer == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.observer(c.conv.Export())
}
