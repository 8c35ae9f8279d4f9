// Package api serves the weavd HTTP API: intake sessions, posts and the feed.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/weavd/internal/cleanup"
	"github.com/dharsanguruparan/weavd/internal/config"
	"github.com/dharsanguruparan/weavd/internal/httpx"
	"github.com/dharsanguruparan/weavd/internal/objectstore"
	"github.com/dharsanguruparan/weavd/internal/repository"
	"github.com/dharsanguruparan/weavd/internal/session"
	"github.com/dharsanguruparan/weavd/internal/signing"
	"github.com/dharsanguruparan/weavd/internal/storage"
)

const reapInterval = time.Minute

// Options are the dependencies of a Server.
type Options struct {
	Config   *config.Config
	Sessions *storage.MemoryStore
	Posts    repository.Store
	Objects  objectstore.Store
	Janitor  cleanup.Janitor
	Vision   session.Detector
	Signer   *signing.Signer
	Log      *zap.SugaredLogger
}

// Server exposes HTTP endpoints for intake sessions and posts.
type Server struct {
	cfg      *config.Config
	sessions *storage.MemoryStore
	posts    repository.Store
	objects  objectstore.Store
	janitor  cleanup.Janitor
	vision   session.Detector
	signer   *signing.Signer
	log      *zap.SugaredLogger
	now      func() time.Time

	handler http.Handler
	once    sync.Once
}

// New constructs a Server.
func New(opts Options) *Server {
	return &Server{
		cfg:      opts.Config,
		sessions: opts.Sessions,
		posts:    opts.Posts,
		objects:  opts.Objects,
		janitor:  opts.Janitor,
		vision:   opts.Vision,
		signer:   opts.Signer,
		log:      opts.Log,
		now:      time.Now,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /healthz", s.handleHealth)

		mux.HandleFunc("POST /sessions", s.handleOpenSession)
		mux.HandleFunc("GET /sessions/{id}", s.withSession(s.handleGetSession))
		mux.HandleFunc("DELETE /sessions/{id}", s.withSession(s.handleCloseSession))
		mux.HandleFunc("POST /sessions/{id}/images", s.withSession(s.handleAddImages))
		mux.HandleFunc("DELETE /sessions/{id}/images/{imageID}", s.withSession(s.handleRemoveImage))
		mux.HandleFunc("POST /sessions/{id}/select/{imageID}", s.withSession(s.handleSelect))
		mux.HandleFunc("DELETE /sessions/{id}/selection", s.withSession(s.handleClearSelection))
		mux.HandleFunc("POST /sessions/{id}/groups", s.withSession(s.handleCommitGroup))
		mux.HandleFunc("DELETE /sessions/{id}/groups/{groupID}", s.withSession(s.handleRemoveGroup))
		mux.HandleFunc("PUT /sessions/{id}/active", s.withSession(s.handleSetActive))
		mux.HandleFunc("POST /sessions/{id}/normalize", s.withSession(s.handleNormalize))
		mux.HandleFunc("PATCH /sessions/{id}/details", s.withSession(s.handleDetails))
		mux.HandleFunc("POST /sessions/{id}/tags/{kind}", s.withSession(s.handleAddTag))
		mux.HandleFunc("DELETE /sessions/{id}/tags/{kind}/{value}", s.withSession(s.handleRemoveTag))
		mux.HandleFunc("POST /sessions/{id}/submit", s.withSession(s.handleSubmit))

		mux.HandleFunc("GET /posts", s.handleFeed)
		mux.HandleFunc("GET /posts/{id}", s.handleGetPost)
		mux.HandleFunc("DELETE /posts/{id}", s.handleDeletePost)
		mux.HandleFunc("GET /users/{userID}/posts", s.handleCloset)

		if _, ok := s.objects.(*objectstore.Memory); ok {
			mux.HandleFunc("GET /objects/{path...}", s.handleObject)
		}
		s.handler = httpx.CORS(httpx.Logging(s.log, mux))
	})
	return s.handler
}

// Run starts the HTTP server and the idle-session reaper, and blocks until
// the context is cancelled. Open sessions are closed on the way out.
func (s *Server) Run(ctx context.Context) error {
	reapCtx, stopReap := context.WithCancel(ctx)
	reaped := make(chan struct{})
	go func() {
		defer close(reaped)
		s.reap(reapCtx)
	}()
	err := httpx.Serve(ctx, &http.Server{Addr: s.cfg.Address, Handler: s.Handler()}, s.log)
	stopReap()
	<-reaped

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if n := s.sessions.Reap(closeCtx, 0); n > 0 {
		s.log.Infow("closed open sessions", "count", n)
	}
	return err
}

func (s *Server) reap(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Reap(ctx, s.cfg.SessionTTL); n > 0 {
				s.log.Infow("reaped idle sessions", "count", n)
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
