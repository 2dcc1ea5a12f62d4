package rules

import "github.com/okian/posturai/internal/domain/model"

var deskCatalog = []Description{
	{Title: "Neck Alignment", Text: "Keep your neck angle < 30°"},
	{Title: "Back Straightness", Text: "Maintain straight back posture"},
	{Title: "Shoulder Position", Text: "Keep shoulders relaxed and aligned"},
}

var squatCatalog = []Description{
	{Title: "Knee Tracking", Text: "Knees should not go past toes"},
	{Title: "Back Angle", Text: "Maintain back angle > 150°"},
	{Title: "Hip Depth", Text: "Descend until hips are below knees"},
}

// Catalog returns the guidance shown to a user for mode. The list is a copy.
func Catalog(mode model.Mode) []Description {
	var src []Description
	switch mode {
	case model.Desk:
		src = deskCatalog
	case model.Squat:
		src = squatCatalog
	}
	out := make([]Description, len(src))
	copy(out, src)
	return out
}
