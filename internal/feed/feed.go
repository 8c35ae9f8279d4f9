// Package feed filters posts for the shared feed and the closet views.
package feed

import (
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dharsanguruparan/weavd/internal/model"
)

// DefaultTolerance is the RGB distance under which two colors match.
const DefaultTolerance = 60.0

// Filter narrows a list of posts. Zero values match everything.
type Filter struct {
	Query     string
	Color     string
	Tolerance float64
}

// Apply keeps the posts that match, preserving order.
func (f Filter) Apply(posts []model.Post) []model.Post {
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether the post contains the query, case-insensitively,
// across name, description and tags, and carries a color tag near Color.
func (f Filter) Matches(p model.Post) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		parts := append([]string{p.ItemName, p.Description}, p.ColorTags...)
		parts = append(parts, p.ItemTags...)
		if !strings.Contains(strings.ToLower(strings.Join(parts, " ")), q) {
			return false
		}
	}
	color := strings.TrimSpace(f.Color)
	if color == "" {
		return true
	}
	want, err := ParseHex(color)
	if err != nil {
		return false
	}
	tolerance := f.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	for _, tag := range p.ColorTags {
		got, err := ParseHex(tag)
		if err != nil {
			continue
		}
		if Distance(got, want) < tolerance {
			return true
		}
	}
	return false
}

// ParseHex accepts #rgb and #rrggbb, with or without the leading #.
func ParseHex(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	return colorful.Hex(s)
}

// Distance is the Euclidean distance between two colors on the 0-255 scale.
func Distance(a, b colorful.Color) float64 {
	r1, g1, b1 := a.RGB255()
	r2, g2, b2 := b.RGB255()
	dr := float64(r1) - float64(r2)
	dg := float64(g1) - float64(g2)
	db := float64(b1) - float64(b2)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
