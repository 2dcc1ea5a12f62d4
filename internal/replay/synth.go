package replay

import (
	"fmt"
	"math"

	"github.com/okian/posturai/internal/adapters/codec"
	"github.com/okian/posturai/internal/domain/keypoints"
	"github.com/okian/posturai/internal/domain/model"
)

// Neck angles of the synthetic desk poses, in degrees.
const (
	goodNeckDeg = 10
	badNeckDeg  = 40
)

// Knee offsets of the synthetic squat poses.
const (
	goodKneeOffset = 0.0
	badKneeOffset  = 0.1
)

func point(x, y float64) model.Landmark {
	return model.Landmark{X: x, Y: y, Visibility: 0.9}
}

// deskPose seats the subject with the given neck angle. Shoulders and hips
// share a height, which keeps the torso rule quiet.
func deskPose(neckDeg float64) model.KeypointFrame {
	ear := point(0.5, 0.3)
	heading := (90 - neckDeg) * math.Pi / 180
	return model.KeypointFrame{
		Nose:          point(ear.X+0.1*math.Cos(heading), ear.Y+0.1*math.Sin(heading)),
		LeftEar:       ear,
		RightEar:      point(0.52, 0.3),
		LeftShoulder:  point(0.5, 0.5),
		RightShoulder: point(0.7, 0.5),
		LeftHip:       point(0.4, 0.5),
		RightHip:      point(0.6, 0.5),
	}
}

// squatPose is a deep squat with the knee shifted forward by kneeOffset.
func squatPose(kneeOffset float64) model.KeypointFrame {
	return model.KeypointFrame{
		LeftShoulder: point(0, 0.3),
		LeftHip:      point(0, 0.6),
		LeftKnee:     point(kneeOffset, 0.9),
		LeftAnkle:    point(0, 1.0),
	}
}

// Pose returns a synthetic frame for mode that breaks exactly one rule when
// violating is set and none otherwise.
func Pose(mode model.Mode, violating bool) model.KeypointFrame {
	switch mode {
	case model.Squat:
		if violating {
			return squatPose(badKneeOffset)
		}
		return squatPose(goodKneeOffset)
	default:
		if violating {
			return deskPose(badNeckDeg)
		}
		return deskPose(goodNeckDeg)
	}
}

// Synthesize writes cfg.Frames frames to w, cfg.Violating of them spread
// evenly across the recording.
func Synthesize(w codec.Writer, cfg SynthConfig) error {
	if cfg.Frames < 0 || cfg.Violating < 0 || cfg.Violating > cfg.Frames {
		return fmt.Errorf("%w: frames=%d violating=%d", ErrInvalidSynthArg, cfg.Frames, cfg.Violating)
	}
	if !cfg.Mode.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidSynthArg, model.ErrUnknownMode)
	}

	for i := 0; i < cfg.Frames; i++ {
		bad := (i+1)*cfg.Violating/cfg.Frames > i*cfg.Violating/cfg.Frames
		f := codec.Frame{
			Seq:       uint64(i + 1),
			Landmarks: keypoints.Expand(Pose(cfg.Mode, bad)),
		}
		if err := w.Write(f); err != nil {
			return fmt.Errorf("write frame %d: %w", i+1, err)
		}
	}
	return w.Flush()
}
