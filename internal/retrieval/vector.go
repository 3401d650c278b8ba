package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/kompas/internal/chunker"
	"github.com/ziadkadry99/kompas/internal/embeddings"
)

const collectionName = "chunks"

// VectorIndex ranks chunks by cosine similarity of their embeddings using
// an in-memory chromem-go collection.
type VectorIndex struct {
	collection *chromem.Collection
	byID       map[string]int
	chunks     []chunker.Chunk
	topK       int
}

// Retrieve embeds query and returns the TopK most similar chunks. Score is
// the cosine similarity.
func (v *VectorIndex) Retrieve(ctx context.Context, query string) ([]Scored, error) {
	if v.topK == 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	results, err := v.collection.Query(ctx, query, v.topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	scored := make([]Scored, 0, len(results))
	for _, r := range results {
		i, ok := v.byID[r.ID]
		if !ok {
			continue
		}
		scored = append(scored, Scored{Chunk: v.chunks[i], Score: float64(r.Similarity)})
	}
	return scored, nil
}

func (v *VectorIndex) Len() int  { return len(v.chunks) }
func (v *VectorIndex) TopK() int { return v.topK }

// VectorBuilder builds VectorIndexes. Embeddings are cached by chunk ID so a
// rebuild only embeds chunks it has not seen before.
type VectorBuilder struct {
	embedder    embeddings.Embedder
	concurrency int

	mu    sync.Mutex
	cache map[string][]float32
}

// NewVectorBuilder creates a VectorBuilder. concurrency bounds chromem's
// document insertion workers.
func NewVectorBuilder(embedder embeddings.Embedder, concurrency int) *VectorBuilder {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &VectorBuilder{
		embedder:    embedder,
		concurrency: concurrency,
		cache:       make(map[string][]float32),
	}
}

func (b *VectorBuilder) Build(ctx context.Context, chunks []chunker.Chunk, topK int) (Index, error) {
	vecs, err := b.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, embeddings.ToChromemFunc(b.embedder))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	byID := make(map[string]int, len(chunks))
	for i, ch := range chunks {
		docs[i] = chromem.Document{
			ID:        ch.ID,
			Content:   ch.Text,
			Embedding: vecs[i],
			Metadata: map[string]string{
				"filename": ch.Filename,
				"position": strconv.Itoa(ch.Position),
			},
		}
		byID[ch.ID] = i
	}
	if len(docs) > 0 {
		if err := col.AddDocuments(ctx, docs, b.concurrency); err != nil {
			return nil, fmt.Errorf("add documents: %w", err)
		}
	}

	return &VectorIndex{
		collection: col,
		byID:       byID,
		chunks:     append([]chunker.Chunk(nil), chunks...),
		topK:       clampTopK(topK, len(chunks)),
	}, nil
}

// embed returns one vector per chunk, calling the embedder only for chunks
// missing from the cache. The cache is updated only on success.
func (b *VectorBuilder) embed(ctx context.Context, chunks []chunker.Chunk) ([][]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	vecs := make([][]float32, len(chunks))
	var missing []int
	var texts []string
	for i, ch := range chunks {
		if v, ok := b.cache[ch.ID]; ok {
			vecs[i] = v
			continue
		}
		missing = append(missing, i)
		texts = append(texts, ch.Text)
	}
	if len(texts) == 0 {
		return vecs, nil
	}

	out, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(out), len(texts))
	}
	for j, i := range missing {
		vecs[i] = out[j]
		b.cache[chunks[i].ID] = out[j]
	}
	return vecs, nil
}
