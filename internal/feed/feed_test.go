package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/weavd/internal/model"
)

func TestParseHex(t *testing.T) {
	for _, in := range []string{"#ff0000", "ff0000", "#f00", "F00"} {
		c, err := ParseHex(in)
		require.NoError(t, err, in)
		r, g, b := c.RGB255()
		assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b}, in)
	}
	_, err := ParseHex("red")
	assert.Error(t, err)
}

func TestDistance(t *testing.T) {
	black, _ := ParseHex("#000000")
	white, _ := ParseHex("#ffffff")
	assert.InDelta(t, 441.67, Distance(black, white), 0.01)
	assert.Zero(t, Distance(white, white))
}

func TestFilter(t *testing.T) {
	posts := []model.Post{
		{ID: "1", ItemName: "Denim Jacket", ColorTags: []string{"#1e3a5f"}, ItemTags: []string{"Outerwear"}},
		{ID: "2", ItemName: "Tee", Description: "Plain cotton", ColorTags: []string{"#ffffff", "bogus"}},
		{ID: "3", ItemName: "Scarf", ItemTags: []string{"Wool"}},
	}
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"1", "2", "3"}},
		{"name query", Filter{Query: "  denim "}, []string{"1"}},
		{"description query", Filter{Query: "COTTON"}, []string{"2"}},
		{"tag query", Filter{Query: "wool"}, []string{"3"}},
		{"query spans fields", Filter{Query: "tee plain"}, []string{"2"}},
		{"near color", Filter{Color: "#203c60"}, []string{"1"}},
		{"color without hash", Filter{Color: "fafafa"}, []string{"2"}},
		{"tight tolerance", Filter{Color: "#f0f0f0", Tolerance: 10}, nil},
		{"invalid color", Filter{Color: "not-a-color"}, nil},
		{"query and color", Filter{Query: "tee", Color: "#1e3a5f"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, p := range tt.filter.Apply(posts) {
				got = append(got, p.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
