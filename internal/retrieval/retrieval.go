// Package retrieval ranks chunks against a query. Indexes are immutable once
// built; callers swap in a new one when the chunk list grows.
package retrieval

import (
	"context"

	"github.com/ziadkadry99/kompas/internal/chunker"
)

// Scored is a chunk with its relevance score for a query.
type Scored struct {
	Chunk chunker.Chunk
	Score float64
}

// Index is a built, read-only ranking structure.
type Index interface {
	// Retrieve returns at most TopK chunks ordered by descending score.
	Retrieve(ctx context.Context, query string) ([]Scored, error)
	// Len is the number of indexed chunks.
	Len() int
	// TopK is the effective result limit, already clamped to Len.
	TopK() int
}

// Builder builds a fresh Index over the complete chunk list.
type Builder interface {
	Build(ctx context.Context, chunks []chunker.Chunk, topK int) (Index, error)
}

// clampTopK keeps k within [0, n].
func clampTopK(k, n int) int {
	if k > n {
		return n
	}
	if k < 0 {
		return 0
	}
	return k
}
