// Package autofill merges vision suggestions into the editable fields of a
// post and enforces the tag caps.
package autofill

import (
	"errors"
	"slices"
	"strings"
)

// MaxTags caps both the item and the color tag lists.
const MaxTags = 5

const descriptionPrefix = "AI: "

var (
	ErrBlankTag     = errors.New("tag is blank")
	ErrDuplicateTag = errors.New("tag already present")
	ErrTagLimit     = errors.New("tag limit reached")
)

// Suggestions are the flattened vision results. A nil Colors slice means the
// vision service reported no color information at all.
type Suggestions struct {
	Labels []string
	Brands []string
	Colors []string
}

// Fields are the user-editable values autofill may touch.
type Fields struct {
	ItemTags    []string
	ColorTags   []string
	Description string
}

// Merge folds suggestions into the current fields. It is idempotent and has
// no side effects.
func Merge(s Suggestions, cur Fields) Fields {
	items := make([]string, 0, len(s.Labels)+len(s.Brands)+len(cur.ItemTags))
	items = append(items, s.Labels...)
	items = append(items, s.Brands...)
	items = append(items, cur.ItemTags...)

	out := Fields{
		ItemTags:    Dedupe(items, MaxTags),
		ColorTags:   Dedupe(cur.ColorTags, MaxTags),
		Description: cur.Description,
	}
	if s.Colors != nil {
		out.ColorTags = Dedupe(s.Colors, MaxTags)
	}
	if strings.TrimSpace(cur.Description) == "" && len(s.Labels) > 0 {
		out.Description = descriptionPrefix + strings.Join(s.Labels[:min(len(s.Labels), MaxTags)], ", ")
	}
	return out
}

// Dedupe keeps the first occurrence of each non-blank value, in order, up to
// limit entries.
func Dedupe(values []string, limit int) []string {
	out := make([]string, 0, min(len(values), limit))
	for _, v := range values {
		if len(out) == limit {
			break
		}
		if strings.TrimSpace(v) == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Add appends a manually entered tag.
func Add(tags []string, tag string) ([]string, error) {
	tag = strings.TrimSpace(tag)
	switch {
	case tag == "":
		return tags, ErrBlankTag
	case slices.Contains(tags, tag):
		return tags, ErrDuplicateTag
	case len(tags) >= MaxTags:
		return tags, ErrTagLimit
	}
	return append(slices.Clone(tags), tag), nil
}

// Remove drops a tag if present.
func Remove(tags []string, tag string) []string {
	return slices.DeleteFunc(slices.Clone(tags), func(t string) bool { return t == tag })
}
