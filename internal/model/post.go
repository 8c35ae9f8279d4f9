// Package model contains simple struct definitions shared across packages.
package model

import (
	"strings"
	"time"
)

// Object storage prefixes. An uploaded image lives under TempPrefix until its
// post is submitted, then under PermanentPrefix.
const (
	TempPrefix      = "temp/"
	PermanentPrefix = "images/"
)

// Stage describes where an image currently lives.
type Stage string

const (
	StageLocal     Stage = "local"
	StageTemporary Stage = "temporary"
	StagePermanent Stage = "permanent"
)

// Image is one photo added to an intake session. Until it is uploaded it
// carries its bytes in Data; afterwards URL and Path point at the stored
// object and Data is dropped.
type Image struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	URL         string `json:"url,omitempty"`
	Path        string `json:"path,omitempty"`
	Data        []byte `json:"-"`
}

// Stage derives the lifecycle stage from the storage path.
func (i Image) Stage() Stage {
	switch {
	case i.Path == "":
		return StageLocal
	case strings.HasPrefix(i.Path, TempPrefix):
		return StageTemporary
	default:
		return StagePermanent
	}
}

// Ref returns the persisted form of a remote image.
func (i Image) Ref() ImageRef {
	return ImageRef{URL: i.URL, Path: i.Path}
}

// ImageRef is a stored image as it appears on a Post.
type ImageRef struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Post is one cataloged item. CreatedAt is assigned by the document store.
type Post struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	ItemName    string     `json:"itemName"`
	Description string     `json:"description"`
	Images      []ImageRef `json:"images"`
	ColorTags   []string   `json:"colorTags"`
	ItemTags    []string   `json:"itemTags"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Paths lists the storage paths referenced by the post.
func (p *Post) Paths() []string {
	out := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.Path != "" {
			out = append(out, img.Path)
		}
	}
	return out
}
