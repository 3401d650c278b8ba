package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/kompas/internal/corpus"
)

func words(n int, prefix string) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(w, " ")
}

func TestNewDefaults(t *testing.T) {
	c := New()
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultChunkOverlap, c.overlap)
}

func TestNewClampsOverlap(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(10))
	assert.Equal(t, 2, c.overlap)

	c = New(WithChunkSize(-1), WithOverlap(-5))
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultChunkOverlap, c.overlap)
}

func TestSplitEmptyDocument(t *testing.T) {
	chunks := New().Split([]corpus.Document{{Filename: "empty.txt", Text: "  \n\t "}})
	assert.Empty(t, chunks)
}

func TestSplitShortDocument(t *testing.T) {
	chunks := New().Split([]corpus.Document{{Filename: "a.txt", Text: "hello   career\nworld"}})
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello career world", chunks[0].Text)
	assert.Equal(t, "a.txt#0", chunks[0].ID)
	assert.Equal(t, "a.txt", chunks[0].Filename)
}

func TestSplitExactlyOneWindow(t *testing.T) {
	chunks := New().Split([]corpus.Document{{Filename: "a.txt", Text: words(512, "w")}})
	require.Len(t, chunks, 1, "no trailing chunk made only of overlap")
}

func TestSplitBoundsAndOverlap(t *testing.T) {
	doc := corpus.Document{Filename: "long.txt", Text: words(1500, "w")}
	chunks := New().Split([]corpus.Document{doc})

	// Windows start at 0, 412, 824, 1236; the last one reaches 1500.
	require.Len(t, chunks, 4)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Position)
		assert.LessOrEqual(t, ch.End-ch.Start, DefaultChunkSize)
		assert.Equal(t, len(strings.Fields(ch.Text)), ch.End-ch.Start)
		if i > 0 {
			prev := chunks[i-1]
			assert.Equal(t, DefaultChunkOverlap, prev.End-ch.Start)
			prevWords := strings.Fields(prev.Text)
			curWords := strings.Fields(ch.Text)
			assert.Equal(t, prevWords[len(prevWords)-DefaultChunkOverlap:], curWords[:DefaultChunkOverlap])
		}
	}
	assert.Equal(t, 1500, chunks[3].End)
}

func TestSplitNeverCrossesDocuments(t *testing.T) {
	docs := []corpus.Document{
		{Filename: "a.txt", Text: words(600, "a")},
		{Filename: "b.txt", Text: words(30, "b")},
	}
	chunks := New().Split(docs)
	require.Len(t, chunks, 3)

	for _, ch := range chunks {
		prefix := ch.Filename[:1]
		for _, w := range strings.Fields(ch.Text) {
			assert.True(t, strings.HasPrefix(w, prefix), "chunk %s contains %s", ch.ID, w)
		}
	}
	assert.Equal(t, "b.txt#0", chunks[2].ID)
}

func TestSplitDeterministic(t *testing.T) {
	docs := []corpus.Document{{Filename: "a.txt", Text: words(2000, "x")}}
	c := New(WithChunkSize(100), WithOverlap(20))
	assert.Equal(t, c.Split(docs), c.Split(docs))
}
