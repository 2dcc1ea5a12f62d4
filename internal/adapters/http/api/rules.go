package api

import (
	"context"
	"net/http"

	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/domain/rules"
)

// RulesDependencies defines the interface for the rule catalog.
type RulesDependencies interface {
	Rules(ctx context.Context, mode model.Mode) []rules.Description
	DefaultMode() model.Mode
}

type rulesResponse struct {
	Mode  model.Mode          `json:"mode"`
	Rules []rules.Description `json:"rules"`
}

// RulesHandler serves the per-mode rule catalog.
type RulesHandler struct {
	deps RulesDependencies
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(deps RulesDependencies) *RulesHandler {
	return &RulesHandler{deps: deps}
}

// HandleList handles GET /rules?mode=desk.
func (h *RulesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rules"
	mode := h.deps.DefaultMode()
	if s := r.URL.Query().Get("mode"); s != "" {
		m, err := model.ParseMode(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		mode = m
	}
	writeJSON(w, http.StatusOK, rulesResponse{Mode: mode, Rules: h.deps.Rules(r.Context(), mode)})
}
