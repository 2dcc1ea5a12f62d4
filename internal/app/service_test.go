package service_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	service "github.com/okian/posturai/internal/app"
	"github.com/okian/posturai/internal/domain/keypoints"
	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/stream"
	"github.com/okian/posturai/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func lm(x, y float64) model.Landmark {
	return model.Landmark{X: x, Y: y, Visibility: 0.9}
}

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
}

func (s *recordingSink) Emit(_ context.Context, ev stream.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(16))

		Convey("Then operations fail before Start", func() {
			_, err := svc.CreateSession(ctx, model.Desk)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["workerCount"], ShouldEqual, 2)

			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it is marked as stopped and Stop is idempotent", func() {
				So(svc.Started(), ShouldBeFalse)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_Sessions(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		sink := &recordingSink{}
		svc := startService(service.WithSink(sink))
		defer func() { _ = svc.Stop(ctx) }()

		info, err := svc.CreateSession(ctx, model.Squat)
		So(err, ShouldBeNil)
		So(info.State, ShouldEqual, stream.Active)
		So(info.ID, ShouldNotBeEmpty)

		Convey("When ten squat frames are processed with three violating", func() {
			for i := 0; i < 10; i++ {
				offset := 0.0
				if i == 2 || i == 5 || i == 7 {
					offset = 0.1
				}
				_, err := svc.ProcessFrame(ctx, info.ID, squatLandmarks(offset))
				So(err, ShouldBeNil)
			}

			Convey("Then the live stats match", func() {
				got, err := svc.Session(ctx, info.ID)
				So(err, ShouldBeNil)
				So(got.Stats, ShouldResemble, model.SessionStats{TotalFrames: 10, ViolatingFrames: 3, AccuracyPercent: 70})
				So(sink.len(), ShouldEqual, 3)
			})

			Convey("And ending the session stores the summary", func() {
				sum, err := svc.EndSession(ctx, info.ID)
				So(err, ShouldBeNil)
				So(sum.Stats.AccuracyPercent, ShouldEqual, 70)
				So(sum.DurationSeconds, ShouldEqual, 1)

				_, err = svc.Session(ctx, info.ID)
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)

				hist, err := svc.History(ctx, 10)
				So(err, ShouldBeNil)
				So(hist, ShouldHaveLength, 1)
				So(hist[0].ID, ShouldEqual, info.ID)

				stored, err := svc.Summary(ctx, info.ID)
				So(err, ShouldBeNil)
				So(stored.Stats, ShouldResemble, sum.Stats)

				in, err := svc.Insights(ctx)
				So(err, ShouldBeNil)
				So(in.Sessions, ShouldEqual, 1)
				So(in.AverageAccuracy, ShouldEqual, 70)
				So(in.TotalViolations, ShouldEqual, 3)
				So(in.ViolationsByType[model.KneeOverToe], ShouldEqual, 3)
				So(in.SessionsByMode["squat"], ShouldEqual, 1)
			})
		})

		Convey("When the session is paused", func() {
			_, err := svc.Pause(ctx, info.ID)
			So(err, ShouldBeNil)

			_, err = svc.ProcessFrame(ctx, info.ID, squatLandmarks(0.1))

			Convey("Then frames are rejected and not counted", func() {
				So(errors.Is(err, stream.ErrPaused), ShouldBeTrue)
				got, _ := svc.Session(ctx, info.ID)
				So(got.State, ShouldEqual, stream.Paused)
				So(got.Stats.TotalFrames, ShouldEqual, 0)
			})

			Convey("And resume accepts frames again", func() {
				_, err := svc.Resume(ctx, info.ID)
				So(err, ShouldBeNil)
				res, err := svc.ProcessFrame(ctx, info.ID, squatLandmarks(0.1))
				So(err, ShouldBeNil)
				So(res.Violations, ShouldHaveLength, 1)
			})

			Convey("And pausing twice is an invalid transition", func() {
				_, err := svc.Pause(ctx, info.ID)
				So(errors.Is(err, stream.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When a frame has too few landmarks", func() {
			res, err := svc.ProcessFrame(ctx, info.ID, make([]model.Landmark, 12))

			Convey("Then it is skipped", func() {
				So(errors.Is(err, keypoints.ErrUnavailable), ShouldBeTrue)
				So(res.Skipped, ShouldBeTrue)
				So(res.Stats.TotalFrames, ShouldEqual, 0)
			})
		})

		Convey("When the session id is unknown", func() {
			_, err := svc.ProcessFrame(ctx, "missing", squatLandmarks(0))
			So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
			_, err = svc.EndSession(ctx, "missing")
			So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
		})

		Convey("When an invalid mode is requested", func() {
			_, err := svc.CreateSession(ctx, model.Mode(7))
			So(errors.Is(err, model.ErrUnknownMode), ShouldBeTrue)
		})

		Convey("Then the rule catalog is available", func() {
			So(svc.Rules(ctx, model.Squat), ShouldHaveLength, 3)
			So(svc.Sessions(ctx), ShouldHaveLength, 1)
		})
	})
}

func TestService_AsyncFrames(t *testing.T) {
	Convey("Given a started service with a squat session", t, func() {
		ctx := context.Background()
		svc := startService(service.WithQueueSize(64))
		defer func() { _ = svc.Stop(ctx) }()

		info, err := svc.CreateSession(ctx, model.Squat)
		So(err, ShouldBeNil)

		Convey("When frames are enqueued, one of them twice", func() {
			ids := []string{"f1", "f2", "f3", "f2"}
			var dups int
			for _, id := range ids {
				dup, err := svc.EnqueueFrame(ctx, info.ID, id, squatLandmarks(0.1))
				So(err, ShouldBeNil)
				if dup {
					dups++
				}
			}

			Convey("Then the duplicate is not evaluated", func() {
				So(dups, ShouldEqual, 1)
				So(waitForFrames(svc, info.ID, 3), ShouldBeTrue)

				got, _ := svc.Session(ctx, info.ID)
				So(got.Stats, ShouldResemble, model.SessionStats{TotalFrames: 3, ViolatingFrames: 3, AccuracyPercent: 0})
			})
		})

		Convey("When the session is unknown", func() {
			_, err := svc.EnqueueFrame(ctx, "missing", "f1", squatLandmarks(0))
			So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
		})
	})
}

// gatedSink holds the first event until release is closed.
type gatedSink struct {
	recordingSink
	first   sync.Once
	release chan struct{}
}

func (s *gatedSink) Emit(ctx context.Context, ev stream.Event) error {
	s.first.Do(func() { <-s.release })
	return s.recordingSink.Emit(ctx, ev)
}

func (s *gatedSink) seqs() map[uint64]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[uint64]bool, len(s.events))
	for _, ev := range s.events {
		seen[ev.Seq] = true
	}
	return seen
}

func TestService_StopDrainsQueue(t *testing.T) {
	Convey("Given queued frames held behind a slow sink", t, func() {
		ctx := context.Background()
		sink := &gatedSink{release: make(chan struct{})}
		svc := startService(service.WithQueueSize(16), service.WithSink(sink))

		info, err := svc.CreateSession(ctx, model.Squat)
		So(err, ShouldBeNil)

		const n = 5
		for i := range n {
			dup, err := svc.EnqueueFrame(ctx, info.ID, "f"+strconv.Itoa(i), squatLandmarks(0.1))
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)
		}

		Convey("When Stop runs before the sink is released", func() {
			stopped := make(chan error, 1)
			go func() { stopped <- svc.Stop(ctx) }()

			deadline := time.Now().Add(5 * time.Second)
			for svc.Started() && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(svc.Started(), ShouldBeFalse)
			close(sink.release)

			var stopErr error
			select {
			case stopErr = <-stopped:
			case <-time.After(10 * time.Second):
				stopErr = errors.New("stop did not return")
			}

			Convey("Then every queued frame is evaluated", func() {
				So(stopErr, ShouldBeNil)
				So(len(sink.seqs()), ShouldEqual, n)
			})

			Convey("And new frames are refused", func() {
				_, err := svc.EnqueueFrame(ctx, info.ID, "late", squatLandmarks(0.1))
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func waitForFrames(svc *service.Service, id string, n int) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		info, err := svc.Session(context.Background(), id)
		if err == nil && info.Stats.TotalFrames >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
