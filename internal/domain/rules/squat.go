package rules

import (
	"math"

	"github.com/okian/posturai/internal/domain/geometry"
	"github.com/okian/posturai/internal/domain/model"
)

const (
	kneeOffsetLimit = 0.05
	backAngleLimit  = 150.0
	backAngleSevere = 130.0
	depthLimit      = -0.02
)

// SquatRules returns the rule set for squats. Only left-side landmarks are
// measured.
func SquatRules() []Rule {
	return []Rule{
		&measureRule{
			name:     "squat.knee_over_toe",
			typ:      model.KneeOverToe,
			requires: []model.BodyPart{model.LeftKnee, model.LeftAnkle},
			desc: Description{
				Title: "Knee Tracking",
				Text:  "Keep knees aligned with toes",
			},
			message:   "Knee tracking issue - adjust stance!",
			threshold: kneeOffsetLimit,
			measure: func(f model.KeypointFrame) (float64, float64) {
				return magnitude(geometry.HorizontalOffset(point(f.LeftKnee), point(f.LeftAnkle)))
			},
			// any offset past the limit is an error
			classify: above(kneeOffsetLimit, kneeOffsetLimit),
		},
		&measureRule{
			name:     "squat.back_angle",
			typ:      model.BackAngle,
			requires: []model.BodyPart{model.LeftKnee, model.LeftHip, model.LeftShoulder},
			desc: Description{
				Title: "Back Angle",
				Text:  "Maintain upright torso during squat",
			},
			message:   "Keep chest up during squat!",
			threshold: backAngleLimit,
			measure: func(f model.KeypointFrame) (float64, float64) {
				return same(geometry.AngleAt(point(f.LeftKnee), point(f.LeftHip), point(f.LeftShoulder)))
			},
			classify: below(backAngleLimit, backAngleSevere),
		},
		&measureRule{
			name:     "squat.squat_depth",
			typ:      model.SquatDepth,
			requires: []model.BodyPart{model.LeftHip, model.LeftKnee},
			desc: Description{
				Title: "Hip Depth",
				Text:  "Descend until hips are below knees",
			},
			message:   "Squat deeper for full range of motion",
			threshold: depthLimit,
			measure: func(f model.KeypointFrame) (float64, float64) {
				return same(geometry.VerticalOffset(point(f.LeftHip), point(f.LeftKnee)))
			},
			classify: above(depthLimit, math.Inf(1)),
		},
	}
}
