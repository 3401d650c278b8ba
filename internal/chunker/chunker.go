// Package chunker splits documents into fixed-size overlapping word windows.
package chunker

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/kompas/internal/corpus"
)

// DefaultChunkSize is the default number of words per chunk.
const DefaultChunkSize = 512

// DefaultChunkOverlap is the default number of words shared by consecutive
// chunks of the same document.
const DefaultChunkOverlap = 100

// Chunk is a contiguous run of words from one document. Start and End are
// word offsets into the document, End exclusive.
type Chunk struct {
	ID       string
	Filename string
	Position int
	Text     string
	Start    int
	End      int
}

// Chunker splits documents into chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in words.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in words.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

// Split chunks every document in order. Output is deterministic for the
// same input and options.
func (c *Chunker) Split(docs []corpus.Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.splitDocument(doc)...)
	}
	return chunks
}

func (c *Chunker) splitDocument(doc corpus.Document) []Chunk {
	words := strings.Fields(doc.Text)
	if len(words) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	chunks := make([]Chunk, 0, len(words)/step+1)

	for start, pos := 0, 0; ; start, pos = start+step, pos+1 {
		end := min(start+c.chunkSize, len(words))
		chunks = append(chunks, Chunk{
			ID:       fmt.Sprintf("%s#%d", doc.Filename, pos),
			Filename: doc.Filename,
			Position: pos,
			Text:     strings.Join(words[start:end], " "),
			Start:    start,
			End:      end,
		})
		// The last window already reaches the end; another one would be
		// entirely inside the overlap.
		if end == len(words) {
			break
		}
	}
	return chunks
}
