package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/posturai/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseMode(t *testing.T) {
	Convey("Given mode names", t, func() {
		Convey("When parsing known names", func() {
			desk, err1 := model.ParseMode("desk")
			squat, err2 := model.ParseMode(" SQUAT ")

			Convey("Then they map to the declared modes", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(desk, ShouldEqual, model.Desk)
				So(squat, ShouldEqual, model.Squat)
			})
		})

		Convey("When parsing an unknown name", func() {
			_, err := model.ParseMode("yoga")

			Convey("Then it should fail with ErrUnknownMode", func() {
				So(errors.Is(err, model.ErrUnknownMode), ShouldBeTrue)
			})
		})
	})
}

func TestModeJSON(t *testing.T) {
	Convey("Given a squat mode", t, func() {
		b, err := json.Marshal(model.Squat)
		So(err, ShouldBeNil)
		So(string(b), ShouldEqual, `"squat"`)

		var m model.Mode
		So(json.Unmarshal([]byte(`"desk"`), &m), ShouldBeNil)
		So(m, ShouldEqual, model.Desk)
		So(json.Unmarshal([]byte(`"run"`), &m), ShouldNotBeNil)

		_, err = json.Marshal(model.Mode(9))
		So(err, ShouldNotBeNil)
	})
}

func TestViolationJSON(t *testing.T) {
	Convey("Given a violation with measured values", t, func() {
		angle, threshold := 31.5, 30.0
		v := model.Violation{
			Type:            model.NeckAngle,
			Severity:        model.Warning,
			Message:         "Forward head posture detected",
			RuleDescription: "Keep your head aligned with your spine",
			Angle:           &angle,
			Threshold:       &threshold,
		}

		b, err := json.Marshal(v)
		So(err, ShouldBeNil)

		var decoded map[string]any
		So(json.Unmarshal(b, &decoded), ShouldBeNil)
		So(decoded["type"], ShouldEqual, "neck_angle")
		So(decoded["severity"], ShouldEqual, "warning")
		So(decoded["rule"], ShouldEqual, "Keep your head aligned with your spine")
		So(decoded["threshold"], ShouldEqual, 30.0)
	})
}

func TestKeypointFramePoint(t *testing.T) {
	Convey("Given a keypoint frame", t, func() {
		f := model.KeypointFrame{LeftKnee: model.Landmark{X: 0.4, Visibility: 0.9}}

		Convey("Then Point resolves named parts", func() {
			lm, ok := f.Point(model.LeftKnee)
			So(ok, ShouldBeTrue)
			So(lm.X, ShouldEqual, 0.4)
			So(model.LeftKnee.String(), ShouldEqual, "left_knee")
		})

		Convey("And unknown parts are reported", func() {
			_, ok := f.Point(model.BodyPart(99))
			So(ok, ShouldBeFalse)
			So(model.BodyPart(99).String(), ShouldEqual, "unknown")
		})

		Convey("And visibility is a strict threshold", func() {
			So(model.Landmark{Visibility: 0.5}.Visible(0.5), ShouldBeFalse)
			So(model.Landmark{Visibility: 0.51}.Visible(0.5), ShouldBeTrue)
		})
	})
}
