package autofill

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		in   Suggestions
		cur  Fields
		want Fields
	}{
		{
			name: "labels then brands then existing tags",
			in:   Suggestions{Labels: []string{"Jacket", "Denim"}, Brands: []string{"Levi's"}, Colors: []string{"#112233"}},
			cur:  Fields{ItemTags: []string{"vintage", "Denim"}},
			want: Fields{
				ItemTags:    []string{"Jacket", "Denim", "Levi's", "vintage"},
				ColorTags:   []string{"#112233"},
				Description: "AI: Jacket, Denim",
			},
		},
		{
			name: "existing description is kept",
			in:   Suggestions{Labels: []string{"Shoe"}},
			cur:  Fields{Description: "my favourite sneakers", ColorTags: []string{"#ffffff"}},
			want: Fields{
				ItemTags:    []string{"Shoe"},
				ColorTags:   []string{"#ffffff"},
				Description: "my favourite sneakers",
			},
		},
		{
			name: "colors replace existing tags",
			in:   Suggestions{Colors: []string{"#000000", "#000000", "#ff0000"}},
			cur:  Fields{ColorTags: []string{"#ffffff"}},
			want: Fields{ItemTags: []string{}, ColorTags: []string{"#000000", "#ff0000"}},
		},
		{
			name: "empty color list still replaces",
			in:   Suggestions{Colors: []string{}},
			cur:  Fields{ColorTags: []string{"#ffffff"}},
			want: Fields{ItemTags: []string{}, ColorTags: []string{}},
		},
		{
			name: "no color information keeps existing color tags",
			in:   Suggestions{Labels: []string{"Scarf"}, Colors: nil},
			cur:  Fields{ColorTags: []string{"#ffffff", "#000000"}},
			want: Fields{
				ItemTags:    []string{"Scarf"},
				ColorTags:   []string{"#ffffff", "#000000"},
				Description: "AI: Scarf",
			},
		},
		{
			name: "no labels leaves a blank description empty",
			in:   Suggestions{Brands: []string{"Acme"}, Colors: []string{"#abcdef"}},
			cur:  Fields{Description: ""},
			want: Fields{
				ItemTags:    []string{"Acme"},
				ColorTags:   []string{"#abcdef"},
				Description: "",
			},
		},
		{
			name: "description uses at most five labels",
			in:   Suggestions{Labels: []string{"a", "b", "c", "d", "e", "f", "g"}},
			cur:  Fields{Description: "   "},
			want: Fields{
				ItemTags:    []string{"a", "b", "c", "d", "e"},
				ColorTags:   []string{},
				Description: "AI: a, b, c, d, e",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.in, tt.cur)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	in := Suggestions{
		Labels: []string{"Coat", "Wool", "Outerwear", "Coat"},
		Brands: []string{"Acme"},
		Colors: []string{"#101010", "#202020", "#303030", "#404040", "#505050", "#606060"},
	}
	cur := Fields{ItemTags: []string{"winter", "Wool"}}

	once := Merge(in, cur)
	twice := Merge(in, once)
	assert.Equal(t, once.ItemTags, twice.ItemTags)
	assert.Equal(t, once.ColorTags, twice.ColorTags)
	assert.Equal(t, once.Description, twice.Description)
}

func TestMergeNeverExceedsCap(t *testing.T) {
	var labels, colors []string
	for i := 0; i < 40; i++ {
		labels = append(labels, fmt.Sprintf("label-%d", i))
		colors = append(colors, fmt.Sprintf("#%06x", i))
	}
	got := Merge(Suggestions{Labels: labels, Brands: labels, Colors: colors}, Fields{ItemTags: []string{"x", "y", "z"}})
	assert.Len(t, got.ItemTags, MaxTags)
	assert.Len(t, got.ColorTags, MaxTags)
}

func TestAddAndRemove(t *testing.T) {
	tags, err := Add(nil, " denim ")
	require.NoError(t, err)
	assert.Equal(t, []string{"denim"}, tags)

	_, err = Add(tags, "denim")
	assert.ErrorIs(t, err, ErrDuplicateTag)
	_, err = Add(tags, "  ")
	assert.ErrorIs(t, err, ErrBlankTag)

	for _, tag := range []string{"a", "b", "c", "d"} {
		tags, err = Add(tags, tag)
		require.NoError(t, err)
	}
	_, err = Add(tags, "e")
	assert.ErrorIs(t, err, ErrTagLimit)

	assert.Equal(t, []string{"a", "b", "c", "d"}, Remove(tags, "denim"))
	assert.Len(t, tags, MaxTags, "Remove does not mutate its input")
}
