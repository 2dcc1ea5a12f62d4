// Package model contains domain models passed between layers.
package model

// DefaultVisibilityThreshold is the confidence a landmark must exceed to be
// treated as reliably observed.
const DefaultVisibilityThreshold = 0.5

// Landmark is a single normalized body-joint position reported by the
// upstream pose estimator. X and Y are roughly in [0,1] with Y growing
// downward; Visibility is a detection confidence in [0,1].
type Landmark struct {
	X          float64 `json:"x" msgpack:"x"`
	Y          float64 `json:"y" msgpack:"y"`
	Z          float64 `json:"z" msgpack:"z"`
	Visibility float64 `json:"visibility" msgpack:"visibility"`
}

// Visible reports whether the landmark confidence is strictly above threshold.
func (l Landmark) Visible(threshold float64) bool {
	return l.Visibility > threshold
}

// BodyPart identifies one named keypoint of a KeypointFrame.
type BodyPart int

// Named keypoints used by posture rules.
const (
	Nose BodyPart = iota
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftEar
	RightEar
)

var bodyPartNames = [...]string{
	Nose:          "nose",
	LeftShoulder:  "left_shoulder",
	RightShoulder: "right_shoulder",
	LeftElbow:     "left_elbow",
	RightElbow:    "right_elbow",
	LeftWrist:     "left_wrist",
	RightWrist:    "right_wrist",
	LeftHip:       "left_hip",
	RightHip:      "right_hip",
	LeftKnee:      "left_knee",
	RightKnee:     "right_knee",
	LeftAnkle:     "left_ankle",
	RightAnkle:    "right_ankle",
	LeftEar:       "left_ear",
	RightEar:      "right_ear",
}

func (b BodyPart) String() string {
	if b < 0 || int(b) >= len(bodyPartNames) {
		return "unknown"
	}
	return bodyPartNames[b]
}

// KeypointFrame is the named subset of landmarks relevant to posture rules,
// extracted once per input frame.
type KeypointFrame struct {
	Nose          Landmark `json:"nose"`
	LeftShoulder  Landmark `json:"left_shoulder"`
	RightShoulder Landmark `json:"right_shoulder"`
	LeftElbow     Landmark `json:"left_elbow"`
	RightElbow    Landmark `json:"right_elbow"`
	LeftWrist     Landmark `json:"left_wrist"`
	RightWrist    Landmark `json:"right_wrist"`
	LeftHip       Landmark `json:"left_hip"`
	RightHip      Landmark `json:"right_hip"`
	LeftKnee      Landmark `json:"left_knee"`
	RightKnee     Landmark `json:"right_knee"`
	LeftAnkle     Landmark `json:"left_ankle"`
	RightAnkle    Landmark `json:"right_ankle"`
	LeftEar       Landmark `json:"left_ear"`
	RightEar      Landmark `json:"right_ear"`
}

// Point returns the landmark for part. The second result is false for an
// unknown identifier.
func (f *KeypointFrame) Point(part BodyPart) (Landmark, bool) {
	switch part {
	case Nose:
		return f.Nose, true
	case LeftShoulder:
		return f.LeftShoulder, true
	case RightShoulder:
		return f.RightShoulder, true
	case LeftElbow:
		return f.LeftElbow, true
	case RightElbow:
		return f.RightElbow, true
	case LeftWrist:
		return f.LeftWrist, true
	case RightWrist:
		return f.RightWrist, true
	case LeftHip:
		return f.LeftHip, true
	case RightHip:
		return f.RightHip, true
	case LeftKnee:
		return f.LeftKnee, true
	case RightKnee:
		return f.RightKnee, true
	case LeftAnkle:
		return f.LeftAnkle, true
	case RightAnkle:
		return f.RightAnkle, true
	case LeftEar:
		return f.LeftEar, true
	case RightEar:
		return f.RightEar, true
	}
	return Landmark{}, false
}
