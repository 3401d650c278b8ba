package retrieval

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/ziadkadry99/kompas/internal/chunker"
)

// Okapi BM25 parameters.
const (
	BM25K1 = 1.5
	BM25B  = 0.75
)

// BM25Index is an Okapi BM25 index over a fixed chunk list.
type BM25Index struct {
	chunks []chunker.Chunk
	tf     []map[string]int
	docLen []int
	avgLen float64
	idf    map[string]float64
	topK   int
}

// BuildBM25 indexes chunks. topK is clamped to the number of chunks.
func BuildBM25(chunks []chunker.Chunk, topK int) *BM25Index {
	idx := &BM25Index{
		chunks: slices.Clone(chunks),
		tf:     make([]map[string]int, len(chunks)),
		docLen: make([]int, len(chunks)),
		idf:    make(map[string]float64),
		topK:   clampTopK(topK, len(chunks)),
	}

	df := make(map[string]int)
	total := 0
	for i, ch := range chunks {
		tokens := Tokenize(ch.Text)
		freq := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freq[tok]++
		}
		for tok := range freq {
			df[tok]++
		}
		idx.tf[i] = freq
		idx.docLen[i] = len(tokens)
		total += len(tokens)
	}
	if len(chunks) > 0 {
		idx.avgLen = float64(total) / float64(len(chunks))
	}

	n := float64(len(chunks))
	for tok, d := range df {
		idx.idf[tok] = math.Log(1 + (n-float64(d)+0.5)/(float64(d)+0.5))
	}
	return idx
}

// Retrieve scores every chunk against query and returns the best TopK
// chunks with a positive score. Ties keep chunk order.
func (idx *BM25Index) Retrieve(ctx context.Context, query string) ([]Scored, error) {
	if idx.topK == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := uniqueTerms(Tokenize(query))
	var scored []Scored
	for i := range idx.chunks {
		if s := idx.score(i, terms); s > 0 {
			scored = append(scored, Scored{Chunk: idx.chunks[i], Score: s})
		}
	}

	slices.SortStableFunc(scored, func(a, b Scored) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(scored) > idx.topK {
		scored = scored[:idx.topK]
	}
	return scored, nil
}

func (idx *BM25Index) score(i int, terms []string) float64 {
	norm := 1.0
	if idx.avgLen > 0 {
		norm = 1 - BM25B + BM25B*float64(idx.docLen[i])/idx.avgLen
	}
	var s float64
	for _, t := range terms {
		f := float64(idx.tf[i][t])
		if f == 0 {
			continue
		}
		s += idx.idf[t] * f * (BM25K1 + 1) / (f + BM25K1*norm)
	}
	return s
}

func (idx *BM25Index) Len() int  { return len(idx.chunks) }
func (idx *BM25Index) TopK() int { return idx.topK }

func uniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// BM25Builder builds BM25 indexes.
type BM25Builder struct{}

func (BM25Builder) Build(_ context.Context, chunks []chunker.Chunk, topK int) (Index, error) {
	return BuildBM25(chunks, topK), nil
}
