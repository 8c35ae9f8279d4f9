// Package session runs one intake session: images are added and grouped,
// optionally normalized against the vision service, edited, and finally
// submitted as a post. Every temporary upload is tracked so that closing the
// session releases whatever did not end up on the post.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/weavd/internal/autofill"
	"github.com/dharsanguruparan/weavd/internal/cleanup"
	"github.com/dharsanguruparan/weavd/internal/model"
	"github.com/dharsanguruparan/weavd/internal/objectstore"
	"github.com/dharsanguruparan/weavd/internal/vision"
	"github.com/dharsanguruparan/weavd/internal/workspace"
)

// State is the lifecycle stage of a session.
type State string

const (
	StateIdle        State = "idle"
	StateIntaking    State = "intaking"
	StateGrouping    State = "grouping"
	StateNormalizing State = "normalizing"
	StateEditing     State = "editing"
	StateSubmitting  State = "submitting"
	StateClosed      State = "closed"
)

var (
	ErrUploadFailure      = errors.New("upload failure")
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrSessionClosed      = errors.New("session closed")
	ErrSessionBusy        = errors.New("session busy")
	ErrNothingToSubmit    = errors.New("no images in the active set")
	ErrUnknownTagKind     = errors.New("unknown tag kind")
)

// TagKind selects which tag list an edit applies to.
type TagKind string

const (
	ItemTag  TagKind = "item"
	ColorTag TagKind = "color"
)

// Detector is the vision capability a session needs.
type Detector interface {
	Detect(ctx context.Context, urls []string) (*vision.Response, error)
}

// PostWriter persists submitted posts. Create fills in CreatedAt.
type PostWriter interface {
	Create(ctx context.Context, post *model.Post) error
}

// Deps are the capabilities injected into every session.
type Deps struct {
	Store   objectstore.Store
	Vision  Detector
	Posts   PostWriter
	Janitor cleanup.Janitor
	Log     *zap.SugaredLogger
}

// Session is safe for concurrent use. Normalize and Submit release the lock
// while they wait on storage and the vision service; other mutations are
// refused with ErrSessionBusy in the meantime.
type Session struct {
	id     string
	userID string
	deps   Deps

	mu          sync.Mutex
	state       State
	ws          *workspace.Workspace
	ledger      []string
	itemName    string
	description string
	itemTags    []string
	colorTags   []string
}

// View is a point-in-time copy of a session for display.
type View struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	State       State             `json:"state"`
	Images      []model.Image     `json:"images"`
	Groups      []workspace.Group `json:"groups"`
	Selection   []string          `json:"selection"`
	ActiveGroup string            `json:"activeGroup,omitempty"`
	ItemName    string            `json:"itemName"`
	Description string            `json:"description"`
	ItemTags    []string          `json:"itemTags"`
	ColorTags   []string          `json:"colorTags"`
	Temporary   []string          `json:"temporaryObjects"`
}

// New opens an idle session for a user.
func New(id, userID string, deps Deps) *Session {
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}
	return &Session{
		id:     id,
		userID: userID,
		deps:   deps,
		state:  StateIdle,
		ws:     workspace.New(),
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }

// State returns the current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot copies the session for display.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:          s.id,
		UserID:      s.userID,
		State:       s.state,
		Images:      s.ws.Images(),
		Groups:      s.ws.Groups(),
		Selection:   s.ws.Selection(),
		ItemName:    s.itemName,
		Description: s.description,
		ItemTags:    slices.Clone(s.itemTags),
		ColorTags:   slices.Clone(s.colorTags),
		Temporary:   slices.Clone(s.ledger),
	}
	if g, ok := s.ws.ActiveGroup(); ok {
		v.ActiveGroup = g.ID
	}
	return v
}

// AddImages appends local images to the intake list.
func (s *Session) AddImages(images ...model.Image) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return nil, err
	}
	ids := s.ws.Add(images...)
	if s.state == StateIdle {
		s.state = StateIntaking
	}
	return ids, nil
}

// RemoveImage drops an image. An already uploaded copy is discarded at once.
func (s *Session) RemoveImage(ctx context.Context, id string) error {
	s.mu.Lock()
	if err := s.mutable(); err != nil {
		s.mu.Unlock()
		return err
	}
	img, err := s.ws.RemoveImage(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if img.Path != "" {
		s.forget(img.Path)
	}
	s.mu.Unlock()

	if img.Path != "" {
		s.deps.Janitor.Discard(ctx, img.Path)
	}
	return nil
}

// Select toggles an image, or its whole group, in the pending selection.
func (s *Session) Select(id string) error {
	return s.group(func(ws *workspace.Workspace) error { return ws.Select(id) })
}

// ClearSelection empties the pending selection.
func (s *Session) ClearSelection() error {
	return s.group(func(ws *workspace.Workspace) error {
		ws.ClearSelection()
		return nil
	})
}

// CommitGroup turns the selection into a group.
func (s *Session) CommitGroup() (workspace.Group, error) {
	var g workspace.Group
	err := s.group(func(ws *workspace.Workspace) error {
		var err error
		g, err = ws.CommitGroup()
		return err
	})
	return g, err
}

// RemoveGroup ungroups a group's images.
func (s *Session) RemoveGroup(groupID string) error {
	return s.group(func(ws *workspace.Workspace) error { return ws.RemoveGroup(groupID) })
}

// SetActive chooses the group normalize and submit operate on.
func (s *Session) SetActive(groupID string) error {
	return s.group(func(ws *workspace.Workspace) error { return ws.SetActive(groupID) })
}

func (s *Session) group(fn func(ws *workspace.Workspace) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	if err := fn(s.ws); err != nil {
		return err
	}
	if s.state == StateIdle || s.state == StateIntaking {
		s.state = StateGrouping
	}
	return nil
}

// SetItemName replaces the item name.
func (s *Session) SetItemName(name string) error {
	return s.edit(func() error {
		s.itemName = name
		return nil
	})
}

// SetDescription replaces the description.
func (s *Session) SetDescription(desc string) error {
	return s.edit(func() error {
		s.description = desc
		return nil
	})
}

// AddTag appends a manually entered tag.
func (s *Session) AddTag(kind TagKind, tag string) error {
	return s.edit(func() error {
		tags, err := s.tags(kind)
		if err != nil {
			return err
		}
		next, err := autofill.Add(*tags, tag)
		if err != nil {
			return err
		}
		*tags = next
		return nil
	})
}

// RemoveTag drops a tag; removing a missing tag is not an error.
func (s *Session) RemoveTag(kind TagKind, tag string) error {
	return s.edit(func() error {
		tags, err := s.tags(kind)
		if err != nil {
			return err
		}
		*tags = autofill.Remove(*tags, tag)
		return nil
	})
}

func (s *Session) edit(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutable(); err != nil {
		return err
	}
	return fn()
}

func (s *Session) tags(kind TagKind) (*[]string, error) {
	switch kind {
	case ItemTag:
		return &s.itemTags, nil
	case ColorTag:
		return &s.colorTags, nil
	}
	return nil, ErrUnknownTagKind
}

// Close ends the session and discards every outstanding temporary upload.
// Closing twice is a no-op; closing mid-submit is refused.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return nil
	case StateSubmitting:
		s.mu.Unlock()
		return ErrSessionBusy
	}
	s.state = StateClosed
	paths := s.ledger
	s.ledger = nil
	s.mu.Unlock()

	if len(paths) > 0 {
		s.deps.Log.Infow("session closed, discarding uploads", "session", s.id, "count", len(paths))
		s.deps.Janitor.Discard(ctx, paths...)
	}
	return nil
}

// mutable reports whether the session accepts changes. Callers hold mu.
func (s *Session) mutable() error {
	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateNormalizing, StateSubmitting:
		return ErrSessionBusy
	}
	return nil
}

// record adds a completed temporary upload to the ledger. Callers hold mu.
func (s *Session) record(path string) {
	if !slices.Contains(s.ledger, path) {
		s.ledger = append(s.ledger, path)
	}
}

// forget drops a path from the ledger. Callers hold mu.
func (s *Session) forget(path string) {
	s.ledger = slices.DeleteFunc(s.ledger, func(p string) bool { return p == path })
}
