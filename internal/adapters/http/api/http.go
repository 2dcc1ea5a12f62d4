// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/okian/posturai/internal/adapters/mq/queue"
	"github.com/okian/posturai/internal/adapters/repository"
	service "github.com/okian/posturai/internal/app"
	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/stream"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	FrameDependencies
	HistoryDependencies
	RulesDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	framesHandler   *FramesHandler
	historyHandler  *HistoryHandler
	rulesHandler    *RulesHandler
}

// NewServer creates a new API server with all handlers. maxHistoryLimit
// caps GET /history?limit.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxHistoryLimit int) *Server {
	v := validator.New(validator.WithRequiredStructEnabled())
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps, v),
		framesHandler:   NewFramesHandler(deps, v),
		historyHandler:  NewHistoryHandler(deps, maxHistoryLimit),
		rulesHandler:    NewRulesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions"))
	mux.HandleFunc("GET /sessions", MetricsMiddleware(s.sessionsHandler.HandleList, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "session"))
	mux.HandleFunc("POST /sessions/{id}/pause", MetricsMiddleware(s.sessionsHandler.HandlePause, "session_pause"))
	mux.HandleFunc("POST /sessions/{id}/resume", MetricsMiddleware(s.sessionsHandler.HandleResume, "session_resume"))
	mux.HandleFunc("POST /sessions/{id}/end", MetricsMiddleware(s.sessionsHandler.HandleEnd, "session_end"))

	mux.HandleFunc("POST /sessions/{id}/frames", MetricsMiddleware(s.framesHandler.HandleFrame, "frames"))
	mux.HandleFunc("POST /sessions/{id}/frames:async", MetricsMiddleware(s.framesHandler.HandleFrameAsync, "frames_async"))

	mux.HandleFunc("GET /history", MetricsMiddleware(s.historyHandler.HandleList, "history"))
	mux.HandleFunc("GET /history/{id}", MetricsMiddleware(s.historyHandler.HandleGet, "history_entry"))
	mux.HandleFunc("GET /insights", MetricsMiddleware(s.historyHandler.HandleInsights, "insights"))
	mux.HandleFunc("GET /rules", MetricsMiddleware(s.rulesHandler.HandleList, "rules"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	setErrorCode(w, code)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err onto a status and error code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrUnknownMode):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, stream.ErrPaused):
		return http.StatusConflict, "session_paused"
	case errors.Is(err, stream.ErrNotActive), errors.Is(err, stream.ErrInvalidTransition):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, v *validator.Validate, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return v.Struct(dst)
}
