package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/posturai/internal/adapters/repository"
	"github.com/okian/posturai/internal/domain/model"
)

const defaultHistoryLimit = 20

// HistoryDependencies defines the interface for ended-session queries.
type HistoryDependencies interface {
	History(ctx context.Context, limit int) ([]model.SessionSummary, error)
	Summary(ctx context.Context, id string) (model.SessionSummary, error)
	Insights(ctx context.Context) (repository.Insights, error)
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps     HistoryDependencies
	maxLimit int
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies, maxLimit int) *HistoryHandler {
	if maxLimit < 1 {
		maxLimit = defaultHistoryLimit
	}
	return &HistoryHandler{deps: deps, maxLimit: maxLimit}
}

// HandleList handles GET /history?limit=N. The limit is capped at the
// configured maximum.
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	n := min(defaultHistoryLimit, h.maxLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = min(v, h.maxLimit)
	}

	sums, err := h.deps.History(r.Context(), n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sums)
}

// HandleGet handles GET /history/{id}.
func (h *HistoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap("api.get_history_entry", err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleInsights handles GET /insights.
func (h *HistoryHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	in, err := h.deps.Insights(r.Context())
	if err != nil {
		writeFailure(w, Wrap("api.get_insights", err))
		return
	}
	writeJSON(w, http.StatusOK, in)
}
