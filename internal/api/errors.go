package api

import (
	"errors"
	"net/http"

	"github.com/dharsanguruparan/weavd/internal/autofill"
	"github.com/dharsanguruparan/weavd/internal/httpx"
	"github.com/dharsanguruparan/weavd/internal/repository"
	"github.com/dharsanguruparan/weavd/internal/session"
	"github.com/dharsanguruparan/weavd/internal/signing"
	"github.com/dharsanguruparan/weavd/internal/storage"
	"github.com/dharsanguruparan/weavd/internal/vision"
	"github.com/dharsanguruparan/weavd/internal/workspace"
)

var (
	errMissingUser = errors.New("missing X-User-ID header")
	errForbidden   = errors.New("not the owner")
	errBadRequest  = errors.New("bad request")
)

// classify maps an error to its HTTP status and machine-readable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, vision.ErrVisionTimeout):
		return http.StatusGatewayTimeout, "vision_timeout"
	case errors.Is(err, vision.ErrVisionError):
		return http.StatusBadGateway, "vision_error"
	case errors.Is(err, session.ErrUploadFailure):
		return http.StatusBadGateway, "upload_failure"
	case errors.Is(err, session.ErrPersistenceFailure):
		return http.StatusInternalServerError, "persistence_failure"
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusGone, "session_closed"
	case errors.Is(err, session.ErrSessionBusy):
		return http.StatusConflict, "session_busy"
	case errors.Is(err, errMissingUser),
		errors.Is(err, signing.ErrInvalidToken),
		errors.Is(err, signing.ErrExpiredToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, workspace.ErrUnknownImage),
		errors.Is(err, workspace.ErrUnknownGroup):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, workspace.ErrSelectionFull),
		errors.Is(err, workspace.ErrAlreadyGrouped),
		errors.Is(err, autofill.ErrDuplicateTag),
		errors.Is(err, autofill.ErrTagLimit):
		return http.StatusConflict, "conflict"
	case errors.Is(err, workspace.ErrEmptySelection),
		errors.Is(err, session.ErrNothingToSubmit),
		errors.Is(err, session.ErrUnknownTagKind),
		errors.Is(err, autofill.ErrBlankTag),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "validation"
	}
	return http.StatusInternalServerError, "internal"
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorw("request failed", "code", code, "err", err)
	}
	httpx.RespondError(w, status, code, err.Error())
}
