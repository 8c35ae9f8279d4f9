package objectstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingDelete struct {
	*Memory
}

func (f failingDelete) Delete(context.Context, string) error {
	return errors.New("bucket offline")
}

func TestPaths(t *testing.T) {
	tmp := TempPath("u1", "My Jacket.png")
	assert.True(t, strings.HasPrefix(tmp, "temp/u1/"))
	assert.True(t, strings.HasSuffix(tmp, "_My Jacket.png"))

	perm := Promote(tmp)
	assert.Equal(t, "images/"+strings.TrimPrefix(tmp, "temp/"), perm)

	assert.True(t, strings.HasSuffix(PermanentPath("u1", "../../etc/passwd"), "_passwd"))
	assert.True(t, strings.HasSuffix(PermanentPath("u1", ""), "_image"))
}

func TestMoveCopiesAndDeletes(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("http://localhost:8080/objects")
	_, err := m.Put(ctx, "temp/u1/a.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	url, err := Move(ctx, m, "temp/u1/a.jpg", "images/u1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/objects/images/u1/a.jpg", url)

	data, ct, err := m.Get(ctx, "images/u1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
	assert.Equal(t, "image/jpeg", ct)

	_, _, err = m.Get(ctx, "temp/u1/a.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveReportsFailedDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("mem:")
	_, err := m.Put(ctx, "temp/a.jpg", []byte("x"), "image/jpeg")
	require.NoError(t, err)

	url, err := Move(ctx, failingDelete{m}, "temp/a.jpg", "images/a.jpg")
	assert.ErrorIs(t, err, ErrDeleteFailed)
	assert.NotEmpty(t, url)
	assert.Equal(t, []string{"images/a.jpg"}, m.Paths("images/"))
}

func TestMoveMissingSource(t *testing.T) {
	_, err := Move(context.Background(), NewMemory("mem:"), "temp/nope", "images/nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
