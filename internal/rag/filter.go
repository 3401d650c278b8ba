// Package rag turns retrieved chunks into an answer: a relevance gate that
// drops weak matches and a tree-summarize synthesizer.
package rag

import (
	"github.com/ziadkadry99/kompas/internal/chunker"
	"github.com/ziadkadry99/kompas/internal/retrieval"
)

// DefaultCutoff is the minimum score a chunk needs to be used as context.
const DefaultCutoff = 0.5

// Filter keeps the chunks scoring at least cutoff, in their original order.
// An empty result means the caller should answer without retrieval.
func Filter(scored []retrieval.Scored, cutoff float64) []chunker.Chunk {
	var kept []chunker.Chunk
	for _, s := range scored {
		if s.Score >= cutoff {
			kept = append(kept, s.Chunk)
		}
	}
	return kept
}
