// Package workspace holds the intake list of a session and the groups the
// user partitions it into. Membership is tracked by image id, so removing an
// image never requires re-indexing the remaining groups.
package workspace

import (
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/weavd/internal/model"
)

// MaxSelection caps the pending selection, and therefore the size of a group.
const MaxSelection = 5

// Palette is cycled through in group creation order.
var Palette = []string{"#00aaff", "#4caf50", "#f9a825", "#e040fb", "#ff5252", "#ff9800"}

var (
	ErrUnknownImage   = errors.New("image not in intake list")
	ErrUnknownGroup   = errors.New("group not found")
	ErrSelectionFull  = errors.New("selection is full")
	ErrEmptySelection = errors.New("selection is empty")
	ErrAlreadyGrouped = errors.New("selection is already a group")
)

// Group is a committed, immutable set of intake images.
type Group struct {
	ID      string   `json:"id"`
	Color   string   `json:"color"`
	Members []string `json:"members"`
}

// Workspace is not safe for concurrent use; callers serialise access.
type Workspace struct {
	images    []model.Image
	groups    []Group
	selection []string
	active    string
	created   int
}

// New returns an empty workspace.
func New() *Workspace {
	return &Workspace{}
}

// Add appends images to the intake list and returns their ids. Images without
// an id get a fresh one.
func (w *Workspace) Add(images ...model.Image) []string {
	ids := make([]string, 0, len(images))
	for _, img := range images {
		if img.ID == "" {
			img.ID = uuid.NewString()
		}
		w.images = append(w.images, img)
		ids = append(ids, img.ID)
	}
	return ids
}

// Images returns the intake list in order.
func (w *Workspace) Images() []model.Image {
	return slices.Clone(w.images)
}

// Image looks up one intake image.
func (w *Workspace) Image(id string) (model.Image, bool) {
	if i := w.indexOf(id); i >= 0 {
		return w.images[i], true
	}
	return model.Image{}, false
}

// Replace swaps in a new version of an image with the same id, e.g. after it
// has been uploaded.
func (w *Workspace) Replace(img model.Image) error {
	i := w.indexOf(img.ID)
	if i < 0 {
		return ErrUnknownImage
	}
	w.images[i] = img
	return nil
}

// Groups returns copies of the committed groups in creation order.
func (w *Workspace) Groups() []Group {
	out := make([]Group, len(w.groups))
	for i, g := range w.groups {
		out[i] = Group{ID: g.ID, Color: g.Color, Members: slices.Clone(g.Members)}
	}
	return out
}

// Selection returns the pending selection.
func (w *Workspace) Selection() []string {
	return slices.Clone(w.selection)
}

// Select toggles an image in the pending selection. Selecting an image that
// belongs to a group selects that whole group, or clears the selection when
// the group is already selected.
func (w *Workspace) Select(id string) error {
	if w.indexOf(id) < 0 {
		return ErrUnknownImage
	}
	if g := w.groupIndexOf(id); g >= 0 {
		members := w.groups[g].Members
		if w.selectionIs(members) {
			w.selection = nil
		} else {
			w.selection = slices.Clone(members)
		}
		return nil
	}
	// a selected group is replaced rather than extended with loose images
	if w.selectionGrouped() {
		w.selection = nil
	}
	if i := slices.Index(w.selection, id); i >= 0 {
		w.selection = slices.Delete(w.selection, i, i+1)
		return nil
	}
	if len(w.selection) >= MaxSelection {
		return ErrSelectionFull
	}
	w.selection = append(w.selection, id)
	return nil
}

// ClearSelection drops the pending selection.
func (w *Workspace) ClearSelection() {
	w.selection = nil
}

// CommitGroup turns the pending selection into a new group.
func (w *Workspace) CommitGroup() (Group, error) {
	if len(w.selection) == 0 {
		return Group{}, ErrEmptySelection
	}
	if w.selectionGrouped() {
		return Group{}, ErrAlreadyGrouped
	}
	g := Group{
		ID:      uuid.NewString(),
		Color:   Palette[w.created%len(Palette)],
		Members: w.selection,
	}
	w.created++
	w.groups = append(w.groups, g)
	w.selection = nil
	return Group{ID: g.ID, Color: g.Color, Members: slices.Clone(g.Members)}, nil
}

// RemoveGroup ungroups the images of a group and clears the selection.
func (w *Workspace) RemoveGroup(groupID string) error {
	i := w.groupIndex(groupID)
	if i < 0 {
		return ErrUnknownGroup
	}
	w.groups = slices.Delete(w.groups, i, i+1)
	w.selection = nil
	if w.active == groupID {
		w.active = ""
	}
	return nil
}

// RemoveImage drops an image from the intake list, from any group (dropping
// groups left empty) and from the selection. It returns the removed image.
func (w *Workspace) RemoveImage(id string) (model.Image, error) {
	i := w.indexOf(id)
	if i < 0 {
		return model.Image{}, ErrUnknownImage
	}
	removed := w.images[i]
	w.images = slices.Delete(w.images, i, i+1)

	groups := w.groups[:0]
	for _, g := range w.groups {
		g.Members = slices.DeleteFunc(g.Members, func(m string) bool { return m == id })
		if len(g.Members) == 0 {
			if w.active == g.ID {
				w.active = ""
			}
			continue
		}
		groups = append(groups, g)
	}
	w.groups = groups
	w.selection = slices.DeleteFunc(w.selection, func(m string) bool { return m == id })
	return removed, nil
}

// Positions reports the current intake indices of a group's members.
func (w *Workspace) Positions(groupID string) ([]int, error) {
	i := w.groupIndex(groupID)
	if i < 0 {
		return nil, ErrUnknownGroup
	}
	out := make([]int, 0, len(w.groups[i].Members))
	for _, id := range w.groups[i].Members {
		out = append(out, w.indexOf(id))
	}
	return out, nil
}

// SetActive picks the group that normalize and submit operate on.
func (w *Workspace) SetActive(groupID string) error {
	if w.groupIndex(groupID) < 0 {
		return ErrUnknownGroup
	}
	w.active = groupID
	return nil
}

// ActiveGroup returns the explicitly chosen group, falling back to the first
// committed one.
func (w *Workspace) ActiveGroup() (Group, bool) {
	if len(w.groups) == 0 {
		return Group{}, false
	}
	g := w.groups[0]
	if i := w.groupIndex(w.active); i >= 0 {
		g = w.groups[i]
	}
	return Group{ID: g.ID, Color: g.Color, Members: slices.Clone(g.Members)}, true
}

// ActiveImages is the image set of the active group, or the whole intake
// list when nothing has been grouped yet.
func (w *Workspace) ActiveImages() []model.Image {
	g, ok := w.ActiveGroup()
	if !ok {
		return w.Images()
	}
	out := make([]model.Image, 0, len(g.Members))
	for _, id := range g.Members {
		if img, ok := w.Image(id); ok {
			out = append(out, img)
		}
	}
	return out
}

// Check reports whether the workspace invariants hold: groups are non-empty
// and pairwise disjoint, and every referenced id is in the intake list.
func (w *Workspace) Check() error {
	seen := make(map[string]bool)
	for _, g := range w.groups {
		if len(g.Members) == 0 {
			return errors.New("empty group " + g.ID)
		}
		for _, id := range g.Members {
			if w.indexOf(id) < 0 {
				return errors.New("group " + g.ID + " references missing image " + id)
			}
			if seen[id] {
				return errors.New("image " + id + " is in more than one group")
			}
			seen[id] = true
		}
	}
	if len(w.selection) > MaxSelection {
		return errors.New("selection exceeds cap")
	}
	for _, id := range w.selection {
		if w.indexOf(id) < 0 {
			return errors.New("selection references missing image " + id)
		}
	}
	return nil
}

func (w *Workspace) indexOf(id string) int {
	return slices.IndexFunc(w.images, func(img model.Image) bool { return img.ID == id })
}

func (w *Workspace) groupIndex(groupID string) int {
	if groupID == "" {
		return -1
	}
	return slices.IndexFunc(w.groups, func(g Group) bool { return g.ID == groupID })
}

func (w *Workspace) groupIndexOf(imageID string) int {
	return slices.IndexFunc(w.groups, func(g Group) bool { return slices.Contains(g.Members, imageID) })
}

func (w *Workspace) selectionGrouped() bool {
	for _, id := range w.selection {
		if w.groupIndexOf(id) >= 0 {
			return true
		}
	}
	return false
}

func (w *Workspace) selectionIs(members []string) bool {
	if len(w.selection) != len(members) {
		return false
	}
	for _, id := range members {
		if !slices.Contains(w.selection, id) {
			return false
		}
	}
	return true
}
