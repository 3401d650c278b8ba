package historystore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/kompas/internal/conversation"
	"github.com/ziadkadry99/kompas/internal/db"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func sampleTurns() []conversation.Turn {
	return []conversation.Turn{
		{Role: conversation.RoleSystem, Content: "be helpful"},
		{Role: conversation.RoleUser, Content: "hi"},
		{Role: conversation.RoleAssistant, Content: "hello", Metadata: map[string]any{
			"sources": []any{"cv.pdf"},
		}},
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := NewSessionID()

	require.NoError(t, s.Save(ctx, id, sampleTurns()))

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, conversation.RoleSystem, got[0].Role)
	assert.Equal(t, "hi", got[1].Content)
	assert.Equal(t, map[string]any{}, got[0].Metadata)
	assert.Equal(t, []any{"cv.pdf"}, got[2].Metadata["sources"])
}

func TestSaveReplacesTurns(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := NewSessionID()

	require.NoError(t, s.Save(ctx, id, sampleTurns()))
	require.NoError(t, s.Save(ctx, id, sampleTurns()[:1]))

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "be helpful", got[0].Content)
}

func TestSaveEmptyHistory(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := NewSessionID()

	require.NoError(t, s.Save(ctx, id, nil))
	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveRequiresSessionID(t *testing.T) {
	s := newStore(t)
	assert.Error(t, s.Save(context.Background(), "", sampleTurns()))
}

func TestLoadUnknownSession(t *testing.T) {
	s := newStore(t)
	_, err := s.Load(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestLatest(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, _, err := s.Latest(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	first, second := NewSessionID(), NewSessionID()
	require.NoError(t, s.Save(ctx, first, sampleTurns()))
	require.NoError(t, s.Save(ctx, second, sampleTurns()[:2]))

	id, turns, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, id)
	assert.Len(t, turns, 2)
}

func TestPrune(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	ids := []string{NewSessionID(), NewSessionID(), NewSessionID()}
	for _, id := range ids {
		require.NoError(t, s.Save(ctx, id, sampleTurns()))
	}

	n, err := s.Prune(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = s.Load(ctx, ids[0])
	assert.ErrorIs(t, err, ErrNoSession)
	got, err := s.Load(ctx, ids[2])
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
