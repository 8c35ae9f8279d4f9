package workspace

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/weavd/internal/model"
)

func intake(t *testing.T, names ...string) (*Workspace, []string) {
	t.Helper()
	w := New()
	imgs := make([]model.Image, len(names))
	for i, n := range names {
		imgs[i] = model.Image{ID: n, Name: n + ".jpg"}
	}
	return w, w.Add(imgs...)
}

func names(w *Workspace) []string {
	out := []string{}
	for _, img := range w.Images() {
		out = append(out, img.ID)
	}
	return out
}

func TestCommitAndRemoveShiftsPositions(t *testing.T) {
	w, _ := intake(t, "A", "B", "C")
	require.NoError(t, w.Select("A"))
	require.NoError(t, w.Select("C"))
	g, err := w.CommitGroup()
	require.NoError(t, err)
	assert.Equal(t, Palette[0], g.Color)
	assert.Equal(t, []string{"A", "C"}, g.Members)

	pos, err := w.Positions(g.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, pos)

	_, err = w.RemoveImage("B")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, names(w))
	pos, err = w.Positions(g.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, pos)
	assert.Empty(t, w.Selection())
	require.NoError(t, w.Check())
}

func TestCommitEmptySelectionIsRejected(t *testing.T) {
	w, _ := intake(t, "A")
	_, err := w.CommitGroup()
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Empty(t, w.Groups())
}

func TestSelectionCap(t *testing.T) {
	w, ids := intake(t, "A", "B", "C", "D", "E", "F")
	for _, id := range ids[:MaxSelection] {
		require.NoError(t, w.Select(id))
	}
	assert.ErrorIs(t, w.Select("F"), ErrSelectionFull)
	assert.Len(t, w.Selection(), MaxSelection)

	// toggling off still works at the cap
	require.NoError(t, w.Select("A"))
	assert.NotContains(t, w.Selection(), "A")
}

func TestSelectingGroupedImageSelectsWholeGroup(t *testing.T) {
	w, _ := intake(t, "A", "B", "C")
	require.NoError(t, w.Select("A"))
	require.NoError(t, w.Select("B"))
	g, err := w.CommitGroup()
	require.NoError(t, err)

	require.NoError(t, w.Select("B"))
	assert.ElementsMatch(t, g.Members, w.Selection())

	_, err = w.CommitGroup()
	assert.ErrorIs(t, err, ErrAlreadyGrouped)

	// a second click on the group deselects it
	require.NoError(t, w.Select("A"))
	assert.Empty(t, w.Selection())

	// a loose image replaces a selected group instead of joining it
	require.NoError(t, w.Select("A"))
	require.NoError(t, w.Select("C"))
	assert.Equal(t, []string{"C"}, w.Selection())
	require.NoError(t, w.Check())
}

func TestRemoveGroupClearsSelectionAndColor(t *testing.T) {
	w, _ := intake(t, "A", "B")
	require.NoError(t, w.Select("A"))
	g1, err := w.CommitGroup()
	require.NoError(t, err)
	require.NoError(t, w.Select("B"))
	g2, err := w.CommitGroup()
	require.NoError(t, err)
	assert.Equal(t, Palette[1], g2.Color)

	require.NoError(t, w.Select("A"))
	require.NoError(t, w.RemoveGroup(g1.ID))
	assert.Empty(t, w.Selection())
	require.Len(t, w.Groups(), 1)
	assert.Equal(t, g2.ID, w.Groups()[0].ID)
	assert.ErrorIs(t, w.RemoveGroup(g1.ID), ErrUnknownGroup)

	// colors keep cycling by creation order
	require.NoError(t, w.Select("A"))
	g3, err := w.CommitGroup()
	require.NoError(t, err)
	assert.Equal(t, Palette[2], g3.Color)
}

func TestRemovingLastMemberDropsGroup(t *testing.T) {
	w, _ := intake(t, "A", "B")
	require.NoError(t, w.Select("A"))
	g, err := w.CommitGroup()
	require.NoError(t, err)
	require.NoError(t, w.SetActive(g.ID))

	_, err = w.RemoveImage("A")
	require.NoError(t, err)
	assert.Empty(t, w.Groups())
	_, ok := w.ActiveGroup()
	assert.False(t, ok)
	assert.Equal(t, []string{"B"}, names(w))
}

func TestActiveImages(t *testing.T) {
	w, _ := intake(t, "A", "B", "C")
	assert.Len(t, w.ActiveImages(), 3, "whole intake without groups")

	require.NoError(t, w.Select("B"))
	first, err := w.CommitGroup()
	require.NoError(t, err)
	require.NoError(t, w.Select("A"))
	require.NoError(t, w.Select("C"))
	second, err := w.CommitGroup()
	require.NoError(t, err)

	active, ok := w.ActiveGroup()
	require.True(t, ok)
	assert.Equal(t, first.ID, active.ID)

	require.NoError(t, w.SetActive(second.ID))
	got := w.ActiveImages()
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].ID)
	assert.Equal(t, "C", got[1].ID)
}

func TestRemoveOrderIndependence(t *testing.T) {
	build := func() *Workspace {
		w, _ := intake(t, "A", "B", "C", "D", "E")
		require.NoError(t, w.Select("A"))
		require.NoError(t, w.Select("C"))
		require.NoError(t, w.Select("E"))
		_, err := w.CommitGroup()
		require.NoError(t, err)
		require.NoError(t, w.Select("B"))
		require.NoError(t, w.Select("D"))
		return w
	}

	first := build()
	_, err := first.RemoveImage("B")
	require.NoError(t, err)
	_, err = first.RemoveImage("C")
	require.NoError(t, err)

	second := build()
	_, err = second.RemoveImage("C")
	require.NoError(t, err)
	_, err = second.RemoveImage("B")
	require.NoError(t, err)

	assert.Equal(t, names(first), names(second))
	assert.Equal(t, first.Selection(), second.Selection())
	require.Len(t, first.Groups(), 1)
	require.Len(t, second.Groups(), 1)
	assert.Equal(t, first.Groups()[0].Members, second.Groups()[0].Members)

	p1, err := first.Positions(first.Groups()[0].ID)
	require.NoError(t, err)
	p2, err := second.Positions(second.Groups()[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, p1)
	assert.Equal(t, p1, p2)
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		w := New()
		for step := 0; step < 60; step++ {
			imgs := w.Images()
			switch op := rng.Intn(5); {
			case op == 0 || len(imgs) == 0:
				w.Add(model.Image{Name: "photo.jpg"})
			case op == 1:
				_ = w.Select(imgs[rng.Intn(len(imgs))].ID)
			case op == 2:
				_, _ = w.CommitGroup()
			case op == 3:
				_, err := w.RemoveImage(imgs[rng.Intn(len(imgs))].ID)
				require.NoError(t, err)
			case op == 4:
				if groups := w.Groups(); len(groups) > 0 {
					require.NoError(t, w.RemoveGroup(groups[rng.Intn(len(groups))].ID))
				}
			}
			require.NoError(t, w.Check(), "round %d step %d", round, step)
			for _, g := range w.Groups() {
				pos, err := w.Positions(g.ID)
				require.NoError(t, err)
				for _, p := range pos {
					assert.True(t, p >= 0 && p < len(w.Images()))
				}
			}
		}
	}
}
