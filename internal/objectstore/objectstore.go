// Package objectstore stores uploaded images. Images start under the temp/
// prefix and are promoted to images/ when their post is submitted.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/weavd/internal/model"
)

var (
	ErrNotFound = errors.New("object not found")
	// ErrDeleteFailed is returned by Move when the copy succeeded but the
	// original could not be removed.
	ErrDeleteFailed = errors.New("delete original failed")
)

// Store is the object storage capability used by sessions and workers.
type Store interface {
	// Put writes data and returns a URL the object can be fetched from.
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, path string) ([]byte, string, error)
	// Delete is idempotent: removing a missing object is not an error.
	Delete(ctx context.Context, path string) error
}

// URLResolver is implemented by stores whose stored URLs are not directly
// fetchable, such as a private bucket. Readers call URL before handing a
// stored image to a client.
type URLResolver interface {
	URL(ctx context.Context, path string) (string, error)
}

// Move copies an object to a new path and deletes the original. The two steps
// are not atomic; a failed delete leaves both copies and is reported with
// ErrDeleteFailed alongside the new URL.
func Move(ctx context.Context, s Store, oldPath, newPath string) (string, error) {
	data, contentType, err := s.Get(ctx, oldPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", oldPath, err)
	}
	url, err := s.Put(ctx, newPath, data, contentType)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", newPath, err)
	}
	if err := s.Delete(ctx, oldPath); err != nil {
		return url, fmt.Errorf("%w: %s: %w", ErrDeleteFailed, oldPath, err)
	}
	return url, nil
}

// TempPath returns a fresh temporary location for a user's upload.
func TempPath(userID, name string) string {
	return model.TempPrefix + objectName(userID, name)
}

// PermanentPath returns a fresh permanent location for a user's upload.
func PermanentPath(userID, name string) string {
	return model.PermanentPrefix + objectName(userID, name)
}

// Promote maps a temporary path onto its permanent counterpart.
func Promote(p string) string {
	return model.PermanentPrefix + strings.TrimPrefix(p, model.TempPrefix)
}

func objectName(userID, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	return fmt.Sprintf("%s/%s_%s", userID, uuid.NewString(), base)
}
