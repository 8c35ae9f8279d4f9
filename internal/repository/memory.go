package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dharsanguruparan/weavd/internal/model"
)

// MemoryPosts keeps posts in process for development and tests.
type MemoryPosts struct {
	mu    sync.RWMutex
	posts []model.Post
	now   func() time.Time
}

// NewMemoryPosts constructs an empty store.
func NewMemoryPosts() *MemoryPosts {
	return &MemoryPosts{now: time.Now}
}

// Create stores a copy of the post, stamping CreatedAt. Timestamps never go
// backwards, so insertion order is also creation order.
func (m *MemoryPosts) Create(ctx context.Context, post *model.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	created := m.now().UTC()
	if n := len(m.posts); n > 0 && !created.After(m.posts[n-1].CreatedAt) {
		created = m.posts[n-1].CreatedAt.Add(time.Microsecond)
	}
	post.CreatedAt = created
	m.posts = append(m.posts, clonePost(*post))
	return nil
}

// Get returns a copy of a post.
func (m *MemoryPosts) Get(ctx context.Context, id string) (*model.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	p := clonePost(m.posts[i])
	return &p, nil
}

func (m *MemoryPosts) List(ctx context.Context, limit int) ([]model.Post, error) {
	return m.newest(limit, func(model.Post) bool { return true }), nil
}

func (m *MemoryPosts) ListByUser(ctx context.Context, userID string, limit int) ([]model.Post, error) {
	return m.newest(limit, func(p model.Post) bool { return p.UserID == userID }), nil
}

func (m *MemoryPosts) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return ErrNotFound
	}
	m.posts = slices.Delete(m.posts, i, i+1)
	return nil
}

func (m *MemoryPosts) newest(limit int, keep func(model.Post) bool) []model.Post {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Post{}
	for i := len(m.posts) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if keep(m.posts[i]) {
			out = append(out, clonePost(m.posts[i]))
		}
	}
	return out
}

func (m *MemoryPosts) index(id string) int {
	return slices.IndexFunc(m.posts, func(p model.Post) bool { return p.ID == id })
}

func clonePost(p model.Post) model.Post {
	p.Images = slices.Clone(p.Images)
	p.ColorTags = slices.Clone(p.ColorTags)
	p.ItemTags = slices.Clone(p.ItemTags)
	return p
}
