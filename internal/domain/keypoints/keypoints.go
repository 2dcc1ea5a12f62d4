// Package keypoints projects a raw landmark list onto the named keypoints
// used by posture rules.
package keypoints

import (
	"errors"
	"fmt"

	"github.com/okian/posturai/internal/domain/model"
)

// MinLandmarks is the number of landmarks in the upstream pose topology.
const MinLandmarks = 33

// Upstream topology indices.
const (
	idxNose          = 0
	idxLeftEar       = 7
	idxRightEar      = 8
	idxLeftShoulder  = 11
	idxRightShoulder = 12
	idxLeftElbow     = 13
	idxRightElbow    = 14
	idxLeftWrist     = 15
	idxRightWrist    = 16
	idxLeftHip       = 23
	idxRightHip      = 24
	idxLeftKnee      = 25
	idxRightKnee     = 26
	idxLeftAnkle     = 27
	idxRightAnkle    = 28
)

// ErrUnavailable is returned when a frame carries too few landmarks.
// The caller must skip the frame entirely.
var ErrUnavailable = errors.New("keypoints unavailable")

// Extract returns the named keypoints of a frame. It fails with
// ErrUnavailable, never a partial frame, when fewer than MinLandmarks
// landmarks are supplied. Visibility is left for rules to judge.
func Extract(landmarks []model.Landmark) (model.KeypointFrame, error) {
	if len(landmarks) < MinLandmarks {
		return model.KeypointFrame{}, fmt.Errorf("%w: got %d landmarks, need %d", ErrUnavailable, len(landmarks), MinLandmarks)
	}
	return model.KeypointFrame{
		Nose:          landmarks[idxNose],
		LeftShoulder:  landmarks[idxLeftShoulder],
		RightShoulder: landmarks[idxRightShoulder],
		LeftElbow:     landmarks[idxLeftElbow],
		RightElbow:    landmarks[idxRightElbow],
		LeftWrist:     landmarks[idxLeftWrist],
		RightWrist:    landmarks[idxRightWrist],
		LeftHip:       landmarks[idxLeftHip],
		RightHip:      landmarks[idxRightHip],
		LeftKnee:      landmarks[idxLeftKnee],
		RightKnee:     landmarks[idxRightKnee],
		LeftAnkle:     landmarks[idxLeftAnkle],
		RightAnkle:    landmarks[idxRightAnkle],
		LeftEar:       landmarks[idxLeftEar],
		RightEar:      landmarks[idxRightEar],
	}, nil
}

// Expand is the inverse of Extract: it lays the named keypoints of frame
// out in a MinLandmarks-long list. Unnamed positions are zero with no
// visibility.
func Expand(frame model.KeypointFrame) []model.Landmark {
	out := make([]model.Landmark, MinLandmarks)
	for part := model.Nose; part <= model.RightEar; part++ {
		idx, _ := Index(part)
		out[idx], _ = frame.Point(part)
	}
	return out
}

// Index returns the upstream topology index of part.
func Index(part model.BodyPart) (int, bool) {
	switch part {
	case model.Nose:
		return idxNose, true
	case model.LeftShoulder:
		return idxLeftShoulder, true
	case model.RightShoulder:
		return idxRightShoulder, true
	case model.LeftElbow:
		return idxLeftElbow, true
	case model.RightElbow:
		return idxRightElbow, true
	case model.LeftWrist:
		return idxLeftWrist, true
	case model.RightWrist:
		return idxRightWrist, true
	case model.LeftHip:
		return idxLeftHip, true
	case model.RightHip:
		return idxRightHip, true
	case model.LeftKnee:
		return idxLeftKnee, true
	case model.RightKnee:
		return idxRightKnee, true
	case model.LeftAnkle:
		return idxLeftAnkle, true
	case model.RightAnkle:
		return idxRightAnkle, true
	case model.LeftEar:
		return idxLeftEar, true
	case model.RightEar:
		return idxRightEar, true
	}
	return 0, false
}
