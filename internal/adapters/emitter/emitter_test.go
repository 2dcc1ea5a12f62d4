package emitter_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/okian/posturai/internal/adapters/emitter"
	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/stream"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completed(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pending() *fakeToken { return &fakeToken{done: make(chan struct{})} }

func (t *fakeToken) Wait() bool { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}
func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient implements the parts of mqtt.Client the emitter uses.
type fakeClient struct {
	mqtt.Client

	mu          sync.Mutex
	connectTok  mqtt.Token
	publishTok  func() mqtt.Token
	messages    []published
	disconnects int
}

func (c *fakeClient) Connect() mqtt.Token { return c.connectTok }
func (c *fakeClient) IsConnected() bool   { return true }
func (c *fakeClient) Disconnect(uint)     { c.disconnects++ }
func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return c.publishTok()
}

func event(t model.ViolationType) stream.Event {
	angle := 0.08
	return stream.Event{
		SessionID: "abc",
		Mode:      model.Squat,
		Seq:       4,
		Violation: model.Violation{Type: t, Severity: model.Error, Message: "Knee tracking issue - adjust stance!", Angle: &angle},
	}
}

func TestMQTTEmitter(t *testing.T) {
	Convey("Given an emitter over a fake client", t, func() {
		client := &fakeClient{
			connectTok: completed(nil),
			publishTok: func() mqtt.Token { return completed(nil) },
		}
		e := emitter.NewMQTTEmitter("localhost:1883",
			emitter.WithClient(client),
			emitter.WithTopicPrefix("test/violations"),
			emitter.WithQoS(map[string]byte{"knee_over_toe": 1, "neck_angle": 7}),
			emitter.WithPublishTimeout(50*time.Millisecond),
		)
		ctx := context.Background()

		Convey("When publishing before connecting", func() {
			err := e.Emit(ctx, event(model.KneeOverToe))

			Convey("Then it fails with ErrNotConnected", func() {
				So(errors.Is(err, emitter.ErrNotConnected), ShouldBeTrue)
				So(e.Stats().Errors, ShouldEqual, 1)
			})
		})

		Convey("When connected", func() {
			So(e.Connect(ctx), ShouldBeNil)
			So(e.IsConnected(), ShouldBeTrue)

			Convey("And a violation is emitted", func() {
				So(e.Emit(ctx, event(model.KneeOverToe)), ShouldBeNil)

				Convey("Then it is published on the session topic with its QoS", func() {
					So(client.messages, ShouldHaveLength, 1)
					msg := client.messages[0]
					So(msg.topic, ShouldEqual, "test/violations/abc/knee_over_toe")
					So(msg.qos, ShouldEqual, 1)

					var body map[string]any
					So(json.Unmarshal(msg.payload, &body), ShouldBeNil)
					So(body["session_id"], ShouldEqual, "abc")
					So(body["mode"], ShouldEqual, "squat")
					So(body["emitted_at"], ShouldNotBeBlank)
					So(e.Stats().Published["test/violations/abc/knee_over_toe"], ShouldEqual, 1)
				})
			})

			Convey("And an invalid QoS was configured", func() {
				So(e.Emit(ctx, event(model.NeckAngle)), ShouldBeNil)
				So(client.messages[0].qos, ShouldEqual, 0)
			})

			Convey("And the broker never acknowledges", func() {
				client.publishTok = func() mqtt.Token { return pending() }
				err := e.Emit(ctx, event(model.BackAngle))

				Convey("Then the publish times out", func() {
					So(errors.Is(err, emitter.ErrPublishTimeout), ShouldBeTrue)
					So(e.Stats().Errors, ShouldEqual, 1)
				})
			})

			Convey("And the broker rejects the publish", func() {
				client.publishTok = func() mqtt.Token { return completed(errors.New("not authorized")) }
				err := e.Emit(ctx, event(model.BackAngle))
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "not authorized")
			})

			Convey("And the caller context is cancelled", func() {
				client.publishTok = func() mqtt.Token { return pending() }
				cctx, cancel := context.WithCancel(ctx)
				cancel()
				err := e.Emit(cctx, event(model.BackAngle))
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})

			Convey("And then disconnected", func() {
				So(e.Disconnect(), ShouldBeNil)
				So(client.disconnects, ShouldEqual, 1)
				So(e.IsConnected(), ShouldBeFalse)
			})
		})

		Convey("When the broker does not answer the connect", func() {
			client.connectTok = pending()
			e := emitter.NewMQTTEmitter("localhost:1883",
				emitter.WithClient(client),
				emitter.WithConnectTimeout(20*time.Millisecond))
			err := e.Connect(ctx)

			Convey("Then Connect times out", func() {
				So(errors.Is(err, emitter.ErrConnectTimeout), ShouldBeTrue)
				So(e.IsConnected(), ShouldBeFalse)
			})

			Convey("And the client is stopped instead of retrying", func() {
				So(client.disconnects, ShouldEqual, 1)
			})
		})

		Convey("When the broker refuses the connect", func() {
			client.connectTok = completed(errors.New("connection refused"))
			err := e.Connect(ctx)

			Convey("Then the error is returned and the client is stopped", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "connection refused")
				So(client.disconnects, ShouldEqual, 1)
				So(e.IsConnected(), ShouldBeFalse)
			})
		})
	})
}

type failingSink struct{ calls int }

func (s *failingSink) Emit(context.Context, stream.Event) error {
	s.calls++
	return errors.New("down")
}

func TestMultiAndLog(t *testing.T) {
	Convey("Given a fan-out over a failing sink and a log sink", t, func() {
		bad := &failingSink{}
		var got []stream.Event
		rec := stream.SinkFunc(func(_ context.Context, ev stream.Event) error {
			got = append(got, ev)
			return nil
		})
		m := emitter.Multi{bad, nil, emitter.NewLogEmitter(nil), rec}

		err := m.Emit(context.Background(), event(model.SquatDepth))

		Convey("Then every sink is tried and the failure is reported", func() {
			So(err, ShouldNotBeNil)
			So(bad.calls, ShouldEqual, 1)
			So(got, ShouldHaveLength, 1)
			So(got[0].Violation.Type, ShouldEqual, model.SquatDepth)
		})
	})

	Convey("Given an empty fan-out", t, func() {
		So(emitter.Multi{}.Emit(context.Background(), event(model.SquatDepth)), ShouldBeNil)
	})
}
