package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dharsanguruparan/weavd/internal/feed"
	"github.com/dharsanguruparan/weavd/internal/httpx"
	"github.com/dharsanguruparan/weavd/internal/model"
	"github.com/dharsanguruparan/weavd/internal/objectstore"
)

// filters run over at most this many of the newest posts
const maxScan = 1000

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := s.limit(q.Get("limit"))
	f := feed.Filter{Query: q.Get("q"), Color: q.Get("color")}
	if t, err := strconv.ParseFloat(q.Get("tolerance"), 64); err == nil {
		f.Tolerance = t
	}
	window := limit
	if f.Query != "" || f.Color != "" {
		window = maxScan
	}
	posts, err := s.posts.List(r.Context(), window)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	posts = f.Apply(posts)
	if len(posts) > limit {
		posts = posts[:limit]
	}
	s.resolveAll(r.Context(), posts)
	httpx.RespondJSON(w, http.StatusOK, map[string][]model.Post{"posts": posts})
}

func (s *Server) handleCloset(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.ListByUser(r.Context(), r.PathValue("userID"), s.limit(r.URL.Query().Get("limit")))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.resolveAll(r.Context(), posts)
	httpx.RespondJSON(w, http.StatusOK, map[string][]model.Post{"posts": posts})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.resolve(r.Context(), post)
	httpx.RespondJSON(w, http.StatusOK, post)
}

// handleDeletePost removes a post owned by the caller and discards its images.
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		s.respondErr(w, errMissingUser)
		return
	}
	post, err := s.posts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if post.UserID != userID {
		s.respondErr(w, errForbidden)
		return
	}
	if err := s.posts.Delete(r.Context(), post.ID); err != nil {
		s.respondErr(w, err)
		return
	}
	s.janitor.Discard(r.Context(), post.Paths()...)
	w.WriteHeader(http.StatusNoContent)
}

// handleObject serves objects of the in-memory store in development.
func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.objects.Get(r.Context(), r.PathValue("path"))
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// resolve swaps the stored image URLs of a post for fetchable ones when the
// object store signs its URLs. A failed signature keeps the stored URL.
func (s *Server) resolve(ctx context.Context, post *model.Post) {
	resolver, ok := s.objects.(objectstore.URLResolver)
	if !ok {
		return
	}
	for i, img := range post.Images {
		if img.Path == "" {
			continue
		}
		u, err := resolver.URL(ctx, img.Path)
		if err != nil {
			s.log.Warnw("resolve image url failed", "post", post.ID, "path", img.Path, "err", err)
			continue
		}
		post.Images[i].URL = u
	}
}

func (s *Server) resolveAll(ctx context.Context, posts []model.Post) {
	for i := range posts {
		s.resolve(ctx, &posts[i])
	}
}

func (s *Server) limit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxScan {
		return s.cfg.FeedLimit
	}
	return n
}
