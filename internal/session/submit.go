package session

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dharsanguruparan/weavd/internal/model"
	"github.com/dharsanguruparan/weavd/internal/objectstore"
)

// Submit finalizes the active images into permanent storage and writes one
// post. Local images are uploaded, temporary ones moved, permanent ones kept.
// A failed post write leaves already moved images in place and returns the
// session to the state it started from. Temporary uploads not on the post are
// discarded only after the post is written and the session closed; a failed
// write keeps them in the ledger so submit can be retried.
func (s *Session) Submit(ctx context.Context) (*model.Post, error) {
	s.mu.Lock()
	if err := s.mutable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	active := s.ws.ActiveImages()
	if len(active) == 0 {
		s.mu.Unlock()
		return nil, ErrNothingToSubmit
	}
	prev := s.state
	s.state = StateSubmitting
	post := &model.Post{
		ID:          uuid.NewString(),
		UserID:      s.userID,
		ItemName:    s.itemName,
		Description: s.description,
		ItemTags:    slices.Clone(s.itemTags),
		ColorTags:   slices.Clone(s.colorTags),
	}
	s.mu.Unlock()

	final, moved, err := s.finalize(ctx, active)

	s.mu.Lock()
	for i, img := range final {
		if img.Path != "" && img.Path != active[i].Path {
			_ = s.ws.Replace(img)
		}
	}
	for _, p := range moved {
		s.forget(p)
	}
	if err != nil {
		s.state = prev
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	post.Images = make([]model.ImageRef, len(final))
	for i, img := range final {
		post.Images[i] = img.Ref()
	}
	if err := s.deps.Posts.Create(ctx, post); err != nil {
		s.deps.Log.Errorw("post write failed", "session", s.id, "post", post.ID, "err", err)
		s.mu.Lock()
		s.state = prev
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	s.mu.Lock()
	s.state = StateClosed
	keep := post.Paths()
	unused := slices.DeleteFunc(s.ledger, func(p string) bool { return slices.Contains(keep, p) })
	s.ledger = nil
	s.mu.Unlock()

	if len(unused) > 0 {
		s.deps.Janitor.Discard(ctx, unused...)
	}
	s.deps.Log.Infow("post submitted", "session", s.id, "post", post.ID, "images", len(post.Images), "discarded", len(unused))
	return post, nil
}

// finalize brings every image to permanent storage concurrently. It returns
// the images in input order, with an empty Path where finalizing failed, and
// the temporary paths that were moved and deleted. A temporary original whose
// delete failed stays in the ledger for the janitor.
func (s *Session) finalize(ctx context.Context, images []model.Image) ([]model.Image, []string, error) {
	out := make([]model.Image, len(images))
	deleted := make([]bool, len(images))

	// in-flight uploads are not cancelled when a sibling fails
	var g errgroup.Group
	for i, img := range images {
		switch img.Stage() {
		case model.StagePermanent:
			out[i] = img
		case model.StageLocal:
			g.Go(func() error {
				path := objectstore.PermanentPath(s.userID, img.Name)
				url, err := s.deps.Store.Put(ctx, path, img.Data, img.ContentType)
				if err != nil {
					return fmt.Errorf("%w: %s: %w", ErrUploadFailure, img.Name, err)
				}
				out[i] = img
				out[i].URL, out[i].Path, out[i].Data = url, path, nil
				return nil
			})
		case model.StageTemporary:
			g.Go(func() error {
				path := objectstore.Promote(img.Path)
				url, err := objectstore.Move(ctx, s.deps.Store, img.Path, path)
				switch {
				case errors.Is(err, objectstore.ErrDeleteFailed):
					s.deps.Log.Warnw("temporary original not deleted", "path", img.Path, "err", err)
				case err != nil:
					return fmt.Errorf("%w: %s: %w", ErrUploadFailure, img.Name, err)
				default:
					deleted[i] = true
				}
				out[i] = img
				out[i].URL, out[i].Path = url, path
				return nil
			})
		}
	}
	err := g.Wait()

	var moved []string
	for i, ok := range deleted {
		if ok {
			moved = append(moved, images[i].Path)
		}
	}
	return out, moved, err
}
