// Package labeler defines the detection providers behind the vision proxy.
package labeler

import (
	"context"

	"github.com/dharsanguruparan/weavd/internal/vision"
)

// Labeler detects labels, brands and dominant colors for each image URL.
// Results are returned in input order, one per URL.
type Labeler interface {
	Detect(ctx context.Context, urls []string) ([]vision.Result, error)
	Close() error
}
