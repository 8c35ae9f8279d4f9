// Package visionproxy serves POST /vision in front of a labeler provider.
package visionproxy

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/weavd/internal/httpx"
	"github.com/dharsanguruparan/weavd/internal/labeler"
	"github.com/dharsanguruparan/weavd/internal/vision"
)

const maxBody = 10 << 20

// Server exposes a labeler over HTTP.
type Server struct {
	addr    string
	labeler labeler.Labeler
	log     *zap.SugaredLogger
	handler http.Handler
	once    sync.Once
}

// New constructs a Server.
func New(addr string, l labeler.Labeler, log *zap.SugaredLogger) *Server {
	return &Server{addr: addr, labeler: l, log: log}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /healthz", s.handleHealth)
		mux.HandleFunc("POST /vision", s.handleVision)
		s.handler = httpx.CORS(httpx.Logging(s.log, mux))
	})
	return s.handler
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return httpx.Serve(ctx, &http.Server{Addr: s.addr, Handler: s.Handler()}, s.log)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVision(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req vision.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "", "invalid request body")
		return
	}
	if len(req.ImageURLs) == 0 {
		httpx.RespondJSON(w, http.StatusOK, vision.Response{Results: []vision.Result{}})
		return
	}
	s.log.Infow("vision request", "images", len(req.ImageURLs))
	results, err := s.labeler.Detect(r.Context(), req.ImageURLs)
	if err != nil {
		s.log.Errorw("vision detection failed", "err", err)
		httpx.RespondError(w, http.StatusInternalServerError, "", err.Error())
		return
	}
	httpx.RespondJSON(w, http.StatusOK, vision.Response{Results: results})
}
