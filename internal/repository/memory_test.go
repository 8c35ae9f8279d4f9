package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/weavd/internal/model"
)

func TestMemoryPosts(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryPosts()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	for _, p := range []*model.Post{
		{ID: "p1", UserID: "alice", ItemName: "Scarf"},
		{ID: "p2", UserID: "bob", ItemName: "Boots"},
		{ID: "p3", UserID: "alice", ItemName: "Hat", Images: []model.ImageRef{{URL: "u", Path: "images/alice/x_hat.jpg"}}},
	} {
		require.NoError(t, m.Create(ctx, p))
		assert.False(t, p.CreatedAt.IsZero())
	}

	all, err := m.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2", "p1"}, ids(all))
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt), "equal clocks still order strictly")

	limited, err := m.List(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2"}, ids(limited))

	closet, err := m.ListByUser(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p1"}, ids(closet))

	got, err := m.Get(ctx, "p3")
	require.NoError(t, err)
	got.Images[0].Path = "mutated"
	again, err := m.Get(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, "images/alice/x_hat.jpg", again.Images[0].Path)

	require.NoError(t, m.Delete(ctx, "p1"))
	assert.ErrorIs(t, m.Delete(ctx, "p1"), ErrNotFound)
	_, err = m.Get(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func ids(posts []model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
