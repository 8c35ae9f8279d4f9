package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dharsanguruparan/weavd/internal/autofill"
	"github.com/dharsanguruparan/weavd/internal/model"
	"github.com/dharsanguruparan/weavd/internal/objectstore"
)

// Normalize uploads the active images to temporary storage and merges the
// vision suggestions into the editable fields. On failure the fields are left
// untouched and the session falls back to grouping, where manual editing and
// submit stay available.
func (s *Session) Normalize(ctx context.Context) (autofill.Fields, error) {
	s.mu.Lock()
	if err := s.mutable(); err != nil {
		s.mu.Unlock()
		return autofill.Fields{}, err
	}
	active := s.ws.ActiveImages()
	if len(active) == 0 {
		s.mu.Unlock()
		return autofill.Fields{}, ErrNothingToSubmit
	}
	prev := s.state
	s.state = StateNormalizing
	s.mu.Unlock()

	uploaded, err := s.uploadTemporary(ctx, active)

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		s.discardUploads(ctx, active, uploaded)
		return autofill.Fields{}, ErrSessionClosed
	}
	for i, img := range uploaded {
		if active[i].Stage() != model.StageLocal || img.Path == "" {
			continue
		}
		s.record(img.Path)
		_ = s.ws.Replace(img)
	}
	if err != nil {
		s.state = fallback(prev)
		s.mu.Unlock()
		return autofill.Fields{}, err
	}
	s.mu.Unlock()

	urls := make([]string, len(uploaded))
	for i, img := range uploaded {
		urls[i] = img.URL
	}
	resp, err := s.deps.Vision.Detect(ctx, urls)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return autofill.Fields{}, ErrSessionClosed
	}
	if err != nil {
		s.deps.Log.Warnw("vision detection failed", "session", s.id, "err", err)
		s.state = fallback(prev)
		return autofill.Fields{}, err
	}
	merged := autofill.Merge(resp.Suggestions(), autofill.Fields{
		ItemTags:    s.itemTags,
		ColorTags:   s.colorTags,
		Description: s.description,
	})
	s.itemTags = merged.ItemTags
	s.colorTags = merged.ColorTags
	s.description = merged.Description
	s.state = StateEditing
	return merged, nil
}

// uploadTemporary puts every local image under temp/ concurrently. The result
// has one entry per input; entries that failed to upload keep an empty Path.
func (s *Session) uploadTemporary(ctx context.Context, images []model.Image) ([]model.Image, error) {
	out := make([]model.Image, len(images))
	copy(out, images)

	// in-flight uploads are not cancelled when a sibling fails
	var g errgroup.Group
	for i, img := range images {
		if img.Stage() != model.StageLocal {
			continue
		}
		g.Go(func() error {
			path := objectstore.TempPath(s.userID, img.Name)
			url, err := s.deps.Store.Put(ctx, path, img.Data, img.ContentType)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrUploadFailure, img.Name, err)
			}
			out[i].URL, out[i].Path, out[i].Data = url, path, nil
			return nil
		})
	}
	return out, g.Wait()
}

// discardUploads releases the objects uploadTemporary created.
func (s *Session) discardUploads(ctx context.Context, before, after []model.Image) {
	var paths []string
	for i, img := range after {
		if before[i].Stage() == model.StageLocal && img.Path != "" {
			paths = append(paths, img.Path)
		}
	}
	if len(paths) > 0 {
		s.deps.Janitor.Discard(ctx, paths...)
	}
}

func fallback(prev State) State {
	if prev == StateEditing {
		return StateEditing
	}
	return StateGrouping
}
