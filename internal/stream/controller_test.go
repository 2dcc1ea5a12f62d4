package stream_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/posturai/internal/domain/keypoints"
	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/stream"
	. "github.com/smartystreets/goconvey/convey"
)

func lm(x, y float64) model.Landmark {
	return model.Landmark{X: x, Y: y, Visibility: 0.9}
}

// squatLandmarks is a deep squat; kneeOffset shifts the knee past the ankle.
func squatLandmarks(kneeOffset float64) []model.Landmark {
	return keypoints.Expand(model.KeypointFrame{
		LeftShoulder: lm(0, 0.3),
		LeftHip:      lm(0, 0.6),
		LeftKnee:     lm(kneeOffset, 0.9),
		LeftAnkle:    lm(0, 1.0),
	})
}

type recordingSink struct {
	mu     sync.Mutex
	events []stream.Event
	err    error
}

func (s *recordingSink) Emit(_ context.Context, ev stream.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

type countingObserver struct {
	evaluated   int
	dropped     map[string]int
	sinkFailure int
}

func (o *countingObserver) FrameEvaluated(model.Mode, []model.Violation, time.Duration) {
	o.evaluated++
}
func (o *countingObserver) FrameDropped(_ model.Mode, reason string) { o.dropped[reason]++ }
func (o *countingObserver) SinkFailed(model.Mode)                    { o.sinkFailure++ }

func TestLifecycle(t *testing.T) {
	Convey("Given a new controller", t, func() {
		c := stream.New(model.Desk, stream.WithID("s-1"))
		ctx := context.Background()

		Convey("Then it starts idle and rejects frames", func() {
			So(c.State(), ShouldEqual, stream.Idle)
			So(c.ID(), ShouldEqual, "s-1")
			_, err := c.Process(ctx, squatLandmarks(0))
			So(errors.Is(err, stream.ErrNotActive), ShouldBeTrue)
		})

		Convey("When driven through every valid transition", func() {
			So(c.Start(), ShouldBeNil)
			So(c.State(), ShouldEqual, stream.Active)
			So(c.Pause(), ShouldBeNil)
			So(c.State(), ShouldEqual, stream.Paused)
			So(c.Resume(), ShouldBeNil)
			_, err := c.End()
			So(err, ShouldBeNil)

			Convey("Then the session is ended and final", func() {
				So(c.State(), ShouldEqual, stream.Ended)
				So(errors.Is(c.Start(), stream.ErrInvalidTransition), ShouldBeTrue)
				_, err := c.End()
				So(errors.Is(err, stream.ErrInvalidTransition), ShouldBeTrue)
				_, err = c.Process(ctx, squatLandmarks(0))
				So(errors.Is(err, stream.ErrNotActive), ShouldBeTrue)
			})
		})

		Convey("When an invalid transition is requested", func() {
			err := c.Pause()

			Convey("Then the error names both states", func() {
				So(errors.Is(err, stream.ErrInvalidTransition), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "idle -> paused")
				So(errors.Is(c.Resume(), stream.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When ending a paused session", func() {
			So(c.Start(), ShouldBeNil)
			So(c.Pause(), ShouldBeNil)
			_, err := c.End()
			So(err, ShouldBeNil)
		})
	})
}

func TestProcessSquatSession(t *testing.T) {
	Convey("Given an active squat session with a sink", t, func() {
		sink := &recordingSink{}
		obs := &countingObserver{dropped: map[string]int{}}
		start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		clock := start
		c := stream.New(model.Squat,
			stream.WithID("squat-1"),
			stream.WithSink(sink),
			stream.WithObserver(obs),
			stream.WithClock(func() time.Time { return clock }),
		)
		So(c.Start(), ShouldBeNil)
		ctx := context.Background()

		Convey("When 10 frames arrive and 3 have the knee past the toe", func() {
			var last stream.FrameResult
			for i := 0; i < 10; i++ {
				offset := 0.0
				if i == 2 || i == 5 || i == 7 {
					offset = 0.1
				}
				res, err := c.Process(ctx, squatLandmarks(offset))
				So(err, ShouldBeNil)
				last = res
			}

			Convey("Then the stats are 10 total, 3 violating, 70 percent", func() {
				So(last.Stats, ShouldResemble, model.SessionStats{TotalFrames: 10, ViolatingFrames: 3, AccuracyPercent: 70})
				So(last.Seq, ShouldEqual, 10)
				So(obs.evaluated, ShouldEqual, 10)
			})

			Convey("And the sink saw each violation with its frame sequence", func() {
				So(sink.events, ShouldHaveLength, 3)
				So(sink.events[0].Seq, ShouldEqual, 3)
				So(sink.events[1].Seq, ShouldEqual, 6)
				So(sink.events[2].Seq, ShouldEqual, 8)
				So(sink.events[0].SessionID, ShouldEqual, "squat-1")
				So(sink.events[0].Violation.Type, ShouldEqual, model.KneeOverToe)
			})

			Convey("And ending produces a summary and resets the counters", func() {
				clock = start.Add(2 * time.Second)
				summary, err := c.End()
				So(err, ShouldBeNil)
				So(summary.Stats.AccuracyPercent, ShouldEqual, 70)
				So(summary.DurationSeconds, ShouldEqual, 1)
				So(summary.Mode, ShouldEqual, model.Squat)
				So(summary.StartedAt.Equal(start), ShouldBeTrue)
				So(summary.EndedAt.Equal(start.Add(2*time.Second)), ShouldBeTrue)
				So(c.Info().Stats, ShouldResemble, model.SessionStats{AccuracyPercent: 100})
			})
		})

		Convey("When a frame has too few landmarks", func() {
			res, err := c.Process(ctx, squatLandmarks(0)[:20])

			Convey("Then it is skipped and not counted", func() {
				So(errors.Is(err, keypoints.ErrUnavailable), ShouldBeTrue)
				So(res.Skipped, ShouldBeTrue)
				So(res.Stats.TotalFrames, ShouldEqual, 0)
				So(obs.dropped[stream.DropUnavailable], ShouldEqual, 1)
			})
		})

		Convey("When frames arrive while paused", func() {
			_, err := c.Process(ctx, squatLandmarks(0.1))
			So(err, ShouldBeNil)
			So(c.Pause(), ShouldBeNil)
			_, err = c.Process(ctx, squatLandmarks(0.1))

			Convey("Then they are dropped and not counted", func() {
				So(errors.Is(err, stream.ErrPaused), ShouldBeTrue)
				So(c.Info().Stats.TotalFrames, ShouldEqual, 1)
				So(obs.dropped[stream.DropPaused], ShouldEqual, 1)
				So(c.Info().LastFrameViolations, ShouldEqual, 1)
			})
		})

		Convey("When the sink fails", func() {
			sink.err = errors.New("broker down")
			res, err := c.Process(ctx, squatLandmarks(0.1))

			Convey("Then the frame still succeeds", func() {
				So(err, ShouldBeNil)
				So(res.Violations, ShouldHaveLength, 1)
				So(res.Stats.ViolatingFrames, ShouldEqual, 1)
				So(obs.sinkFailure, ShouldEqual, 1)
			})
		})
	})
}

func TestSinkReadsSessionState(t *testing.T) {
	Convey("Given a sink that reads the session while handling an event", t, func() {
		var c *stream.Controller
		var seen []model.SessionStats
		sink := stream.SinkFunc(func(context.Context, stream.Event) error {
			seen = append(seen, c.Info().Stats)
			return nil
		})
		c = stream.New(model.Squat, stream.WithSink(sink))
		So(c.Start(), ShouldBeNil)

		Convey("When a violating frame is processed", func() {
			done := make(chan error, 1)
			go func() {
				_, err := c.Process(context.Background(), squatLandmarks(0.1))
				done <- err
			}()

			var err error
			select {
			case err = <-done:
			case <-time.After(5 * time.Second):
				err = errors.New("process blocked on the sink")
			}

			Convey("Then the sink sees the recorded frame without blocking", func() {
				So(err, ShouldBeNil)
				So(seen, ShouldHaveLength, 1)
				So(seen[0], ShouldResemble, model.SessionStats{TotalFrames: 1, ViolatingFrames: 1, AccuracyPercent: 0})
			})
		})
	})
}

func TestConcurrentProcess(t *testing.T) {
	Convey("Given frames delivered from many goroutines", t, func() {
		c := stream.New(model.Squat)
		So(c.Start(), ShouldBeNil)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				offset := 0.0
				if i%5 == 0 {
					offset = 0.1
				}
				_, _ = c.Process(context.Background(), squatLandmarks(offset))
			}(i)
		}
		wg.Wait()

		Convey("Then every frame is counted once", func() {
			info := c.Info()
			So(info.Stats.TotalFrames, ShouldEqual, 50)
			So(info.Stats.ViolatingFrames, ShouldEqual, 10)
			So(info.Stats.AccuracyPercent, ShouldEqual, 80)
		})
	})
}

func TestStateString(t *testing.T) {
	Convey("Given the states", t, func() {
		So(stream.Idle.String(), ShouldEqual, "idle")
		So(stream.Ended.String(), ShouldEqual, "ended")
		So(stream.State(9).String(), ShouldEqual, "unknown")
		b, err := stream.Paused.MarshalText()
		So(err, ShouldBeNil)
		So(string(b), ShouldEqual, "paused")

		var st stream.State
		So(st.UnmarshalText([]byte("ended")), ShouldBeNil)
		So(st, ShouldEqual, stream.Ended)
		So(st.UnmarshalText([]byte("sleeping")), ShouldNotBeNil)
	})
}
