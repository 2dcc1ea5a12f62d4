package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/stream"
)

// SessionDependencies defines the interface for session lifecycle operations.
type SessionDependencies interface {
	CreateSession(ctx context.Context, mode model.Mode) (stream.Info, error)
	Session(ctx context.Context, id string) (stream.Info, error)
	Sessions(ctx context.Context) []stream.Info
	Pause(ctx context.Context, id string) (stream.Info, error)
	Resume(ctx context.Context, id string) (stream.Info, error)
	EndSession(ctx context.Context, id string) (model.SessionSummary, error)
	DefaultMode() model.Mode
}

// createSessionRequest mirrors the OpenAPI schema for POST /sessions.
type createSessionRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=desk squat"`
}

// SessionsHandler handles session lifecycle requests.
type SessionsHandler struct {
	deps     SessionDependencies
	validate *validator.Validate
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies, v *validator.Validate) *SessionsHandler {
	return &SessionsHandler{deps: deps, validate: v}
}

// HandleCreate handles POST /sessions. An empty body uses the default mode.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req createSessionRequest
	if err := decode(r, h.validate, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	mode := h.deps.DefaultMode()
	if req.Mode != "" {
		m, err := model.ParseMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		mode = m
	}

	info, err := h.deps.CreateSession(r.Context(), mode)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// HandleList handles GET /sessions.
func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Sessions(r.Context()))
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	info, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.get_session", err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandlePause handles POST /sessions/{id}/pause.
func (h *SessionsHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	info, err := h.deps.Pause(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.pause_session", err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleResume handles POST /sessions/{id}/resume.
func (h *SessionsHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	info, err := h.deps.Resume(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.resume_session", err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleEnd handles POST /sessions/{id}/end.
func (h *SessionsHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.EndSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.end_session", err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
