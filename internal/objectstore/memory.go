package objectstore

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"sync"
)

type memObject struct {
	data        []byte
	contentType string
}

// Memory keeps objects in process. It backs local development, where the api
// serves the objects itself under baseURL, and tests.
type Memory struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memObject
}

// NewMemory returns an empty store whose URLs are baseURL + "/" + path.
func NewMemory(baseURL string) *Memory {
	return &Memory{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memObject),
	}
}

func (m *Memory) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = memObject{data: slices.Clone(data), contentType: contentType}
	return m.baseURL + "/" + (&url.URL{Path: path}).EscapedPath(), nil
}

func (m *Memory) Get(ctx context.Context, path string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	if !ok {
		return nil, "", ErrNotFound
	}
	return slices.Clone(obj.data), obj.contentType, nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

// Paths lists stored paths with the given prefix, sorted.
func (m *Memory) Paths(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for p := range m.objects {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}
