// Package cleanup defines how unused uploads are released. Deletion is best
// effort: failures are logged and never reach the user.
package cleanup

import (
	"context"

	"go.uber.org/zap"
)

// Janitor discards storage objects that are no longer referenced.
type Janitor interface {
	Discard(ctx context.Context, paths ...string)
}

// Deleter is the slice of object storage a janitor needs.
type Deleter interface {
	Delete(ctx context.Context, path string) error
}

// Inline deletes synchronously on the caller's goroutine.
type Inline struct {
	store Deleter
	log   *zap.SugaredLogger
}

// NewInline builds an Inline janitor.
func NewInline(store Deleter, log *zap.SugaredLogger) *Inline {
	return &Inline{store: store, log: log}
}

// Discard deletes each path, logging failures.
func (j *Inline) Discard(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if err := j.store.Delete(ctx, p); err != nil {
			j.log.Warnw("discard object failed", "path", p, "err", err)
		}
	}
}
