package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/okian/posturai/internal/domain/keypoints"
	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/stream"
)

// FrameDependencies defines the interface for frame submission.
type FrameDependencies interface {
	ProcessFrame(ctx context.Context, id string, landmarks []model.Landmark) (stream.FrameResult, error)
	// EnqueueFrame reports true when frameID was already accepted for the session.
	EnqueueFrame(ctx context.Context, id, frameID string, landmarks []model.Landmark) (bool, error)
}

type landmarkRequest struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility" validate:"gte=0,lte=1"`
}

// frameRequest mirrors the OpenAPI schema for POST /sessions/{id}/frames.
type frameRequest struct {
	Landmarks []landmarkRequest `json:"landmarks" validate:"required,dive"`
}

// asyncFrameRequest adds the idempotency key used by the async endpoint.
type asyncFrameRequest struct {
	FrameID   string            `json:"frame_id" validate:"required,max=128"`
	Landmarks []landmarkRequest `json:"landmarks" validate:"required,dive"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

func toLandmarks(in []landmarkRequest) []model.Landmark {
	out := make([]model.Landmark, len(in))
	for i, l := range in {
		out[i] = model.Landmark{X: l.X, Y: l.Y, Z: l.Z, Visibility: l.Visibility}
	}
	return out
}

// FramesHandler handles frame submissions.
type FramesHandler struct {
	deps     FrameDependencies
	validate *validator.Validate
}

// NewFramesHandler creates a new frames handler.
func NewFramesHandler(deps FrameDependencies, v *validator.Validate) *FramesHandler {
	return &FramesHandler{deps: deps, validate: v}
}

// HandleFrame handles POST /sessions/{id}/frames. A frame with too few
// landmarks is answered with a skipped result rather than an error.
func (h *FramesHandler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_frame"
	var req frameRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.ProcessFrame(r.Context(), r.PathValue("id"), toLandmarks(req.Landmarks))
	if err != nil && !errors.Is(err, keypoints.ErrUnavailable) {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleFrameAsync handles POST /sessions/{id}/frames:async.
func (h *FramesHandler) HandleFrameAsync(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_frame_async"
	var req asyncFrameRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	dup, err := h.deps.EnqueueFrame(r.Context(), r.PathValue("id"), req.FrameID, toLandmarks(req.Landmarks))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
