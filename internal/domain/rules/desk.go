package rules

import (
	"github.com/okian/posturai/internal/domain/geometry"
	"github.com/okian/posturai/internal/domain/model"
)

const (
	neckAngleLimit  = 30.0
	neckAngleSevere = 45.0
	slouchLimit     = 15.0
	slouchSevere    = 25.0
)

// DeskRules returns the rule set for seated desk posture, in evaluation order.
func DeskRules() []Rule {
	return []Rule{
		&measureRule{
			name:     "desk.neck_angle",
			typ:      model.NeckAngle,
			requires: []model.BodyPart{model.Nose, model.LeftShoulder, model.LeftEar},
			desc: Description{
				Title: "Neck Alignment",
				Text:  "Keep your head aligned with your spine",
			},
			message:   "Forward head posture detected",
			threshold: neckAngleLimit,
			measure: func(f model.KeypointFrame) (float64, float64) {
				return same(geometry.AngleAt(point(f.LeftShoulder), point(f.LeftEar), point(f.Nose)))
			},
			classify: above(neckAngleLimit, neckAngleSevere),
		},
		&measureRule{
			name: "desk.back_slouch",
			typ:  model.BackSlouch,
			requires: []model.BodyPart{
				model.LeftShoulder, model.RightShoulder, model.LeftHip, model.RightHip,
			},
			desc: Description{
				Title: "Back Straightness",
				Text:  "Keep your back straight and shoulders aligned",
			},
			message:   "Slouching detected",
			threshold: slouchLimit,
			measure: func(f model.KeypointFrame) (float64, float64) {
				shoulders := geometry.Midpoint(point(f.LeftShoulder), point(f.RightShoulder))
				hips := geometry.Midpoint(point(f.LeftHip), point(f.RightHip))
				return magnitude(geometry.SignedTilt(shoulders, hips))
			},
			classify: above(slouchLimit, slouchSevere),
		},
	}
}
