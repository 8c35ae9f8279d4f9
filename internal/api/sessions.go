package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/weavd/internal/httpx"
	"github.com/dharsanguruparan/weavd/internal/session"
)

const (
	userHeader  = "X-User-ID"
	tokenHeader = "X-Session-Token"
	tokenTTL    = 12 * time.Hour
)

type openResponse struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		s.respondErr(w, errMissingUser)
		return
	}
	id := uuid.NewString()
	sess := session.New(id, userID, session.Deps{
		Store:   s.objects,
		Vision:  s.vision,
		Posts:   s.posts,
		Janitor: s.janitor,
		Log:     s.log,
	})
	s.sessions.Save(sess)
	expires := s.now().Add(tokenTTL).UTC().Truncate(time.Second)
	s.log.Infow("session opened", "session", id, "user", userID)
	httpx.RespondJSON(w, http.StatusCreated, openResponse{
		ID:        id,
		Token:     s.signer.Token(id, userID, expires),
		ExpiresAt: expires,
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves {id} and checks the caller's user and token.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userHeader)
		if userID == "" {
			s.respondErr(w, errMissingUser)
			return
		}
		id := r.PathValue("id")
		if err := s.signer.Verify(id, userID, r.Header.Get(tokenHeader), s.now()); err != nil {
			s.respondErr(w, err)
			return
		}
		sess, err := s.sessions.Get(id)
		if err != nil {
			s.respondErr(w, err)
			return
		}
		if sess.UserID() != userID {
			s.respondErr(w, errForbidden)
			return
		}
		next(w, r, sess)
	}
}

func (s *Server) respondView(w http.ResponseWriter, sess *session.Session) {
	httpx.RespondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	s.respondView(w, sess)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Close(r.Context()); err != nil {
		s.respondErr(w, err)
		return
	}
	s.sessions.Delete(sess.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddImages(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	images, err := s.readImages(w, r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	ids, err := sess.AddImages(images...)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, map[string][]string{"ids": ids})
}

func (s *Server) handleRemoveImage(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.RemoveImage(r.Context(), r.PathValue("imageID")); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondView(w, sess)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Select(r.PathValue("imageID")); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondView(w, sess)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.ClearSelection(); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondView(w, sess)
}

func (s *Server) handleCommitGroup(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	g, err := sess.CommitGroup()
	if err != nil {
		s.respondErr(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, g)
}

func (s *Server) handleRemoveGroup(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.RemoveGroup(r.PathValue("groupID")); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondView(w, sess)
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var body struct {
		GroupID string `json:"groupId"`
	}
	if err := decode(w, r, &body); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := sess.SetActive(body.GroupID); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondView(w, sess)
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if _, err := sess.Normalize(r.Context()); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondView(w, sess)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var body struct {
		ItemName    *string `json:"itemName"`
		Description *string `json:"description"`
	}
	if err := decode(w, r, &body); err != nil {
		s.respondErr(w, err)
		return
	}
	if body.ItemName != nil {
		if err := sess.SetItemName(*body.ItemName); err != nil {
			s.respondErr(w, err)
			return
		}
	}
	if body.Description != nil {
		if err := sess.SetDescription(*body.Description); err != nil {
			s.respondErr(w, err)
			return
		}
	}
	s.respondView(w, sess)
}

func (s *Server) handleAddTag(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var body struct {
		Value string `json:"value"`
	}
	if err := decode(w, r, &body); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := sess.AddTag(session.TagKind(r.PathValue("kind")), body.Value); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondView(w, sess)
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.RemoveTag(session.TagKind(r.PathValue("kind")), r.PathValue("value")); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondView(w, sess)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	post, err := sess.Submit(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.sessions.Delete(sess.ID())
	out := *post
	out.Images = slices.Clone(post.Images)
	s.resolve(r.Context(), &out)
	httpx.RespondJSON(w, http.StatusCreated, out)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	return nil
}
