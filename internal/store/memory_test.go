package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryCreateAndFind(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rec, err := m.Create(ctx, "abc", "Team Standup")
	require.NoError(t, err)
	require.Equal(t, "abc", rec.ID)
	require.False(t, rec.CreatedAt.IsZero())
	require.Nil(t, rec.EndedAt)

	got, err := m.FindByID(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, rec, got)

	_, err = m.FindByID(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCreateConflict(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Create(ctx, "abc", "first")
	require.NoError(t, err)
	_, err = m.Create(ctx, "abc", "second")
	require.ErrorIs(t, err, ErrConflict)
}

func TestMemoryFindAllNewestFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Create(ctx, "old", "old room")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = m.Create(ctx, "new", "new room")
	require.NoError(t, err)

	recs, err := m.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "new", recs[0].ID)
	require.Equal(t, "old", recs[1].ID)
}

func TestMemoryMarkEnded(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Create(ctx, "abc", "Team Standup")
	require.NoError(t, err)

	ended := time.Now().UTC()
	rec, err := m.MarkEnded(ctx, "abc", ended)
	require.NoError(t, err)
	require.NotNil(t, rec.EndedAt)
	require.True(t, rec.EndedAt.Equal(ended))

	_, err = m.MarkEnded(ctx, "nope", ended)
	require.ErrorIs(t, err, ErrNotFound)
}
