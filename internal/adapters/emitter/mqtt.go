// Package emitter forwards violation events out of the process.
package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/okian/posturai/internal/stream"
	"github.com/okian/posturai/pkg/logger"
	"github.com/okian/posturai/pkg/metrics"
)

const (
	sinkMQTT              = "mqtt"
	defaultTopicPrefix    = "posturai/violations"
	defaultPublishTimeout = 2 * time.Second
	defaultConnectTimeout = 5 * time.Second
	disconnectQuiesceMs   = 250
)

// payload is the JSON body of a published violation.
type payload struct {
	stream.Event
	EmittedAt time.Time `json:"emitted_at"`
}

// Stats contains emitter statistics.
type Stats struct {
	Connected bool              `json:"connected"`
	Published map[string]uint64 `json:"published"`
	Errors    uint64            `json:"errors"`
}

// MQTTEmitter publishes violation events to an MQTT broker on
// {prefix}/{session_id}/{violation_type}.
type MQTTEmitter struct {
	broker         string
	clientID       string
	topicPrefix    string
	qos            map[string]byte
	defaultQoS     byte
	publishTimeout time.Duration
	connectTimeout time.Duration

	client mqtt.Client
	logger logger.Logger

	mu        sync.RWMutex
	published map[string]uint64 // per topic
	errors    uint64
	connected bool
}

// NewMQTTEmitter creates an emitter for broker (host:port).
func NewMQTTEmitter(broker string, opts ...Option) *MQTTEmitter {
	e := &MQTTEmitter{
		broker:         broker,
		clientID:       "posturai",
		topicPrefix:    defaultTopicPrefix,
		qos:            make(map[string]byte),
		publishTimeout: defaultPublishTimeout,
		connectTimeout: defaultConnectTimeout,
		logger:         logger.GetOrNop().Named("mqtt"),
		published:      make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Connect establishes the broker connection. The client reconnects on its
// own after a lost connection. A failed Connect leaves no client running.
func (e *MQTTEmitter) Connect(ctx context.Context) error {
	if e.client == nil {
		opts := mqtt.NewClientOptions()
		opts.AddBroker("tcp://" + e.broker)
		opts.SetClientID(e.clientID)
		opts.SetAutoReconnect(true)
		opts.SetConnectRetry(true)
		opts.SetConnectRetryInterval(2 * time.Second)
		opts.SetMaxReconnectInterval(30 * time.Second)
		opts.OnConnect = func(mqtt.Client) {
			e.setConnected(true)
			e.logger.Info(ctx, "mqtt connection established",
				logger.String("broker", e.broker),
				logger.String("client_id", e.clientID))
		}
		opts.OnConnectionLost = func(_ mqtt.Client, err error) {
			e.setConnected(false)
			e.logger.Warn(ctx, "mqtt connection lost, will auto-reconnect",
				logger.String("broker", e.broker),
				logger.Error(err))
		}
		e.client = mqtt.NewClient(opts)
	}

	e.logger.Info(ctx, "connecting to mqtt broker", logger.String("broker", e.broker))
	if err := e.wait(ctx, e.client.Connect(), e.connectTimeout, ErrConnectTimeout); err != nil {
		// Stop the client's connect retry loop; it would otherwise keep dialing.
		e.client.Disconnect(0)
		e.setConnected(false)
		return fmt.Errorf("mqtt connect %s: %w", e.broker, err)
	}
	e.setConnected(true)
	return nil
}

// Emit publishes one violation event. It implements stream.Sink.
func (e *MQTTEmitter) Emit(ctx context.Context, ev stream.Event) error {
	if !e.IsConnected() {
		e.failed()
		return ErrNotConnected
	}

	vt := string(ev.Violation.Type)
	topic := e.Topic(ev.SessionID, vt)
	qos := e.qosFor(vt)

	body, err := json.Marshal(payload{Event: ev, EmittedAt: time.Now().UTC()})
	if err != nil {
		e.failed()
		return fmt.Errorf("marshal violation event: %w", err)
	}

	if err := e.wait(ctx, e.client.Publish(topic, qos, false, body), e.publishTimeout, ErrPublishTimeout); err != nil {
		e.failed()
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	e.mu.Lock()
	e.published[topic]++
	e.mu.Unlock()
	metrics.RecordEmitterPublished(sinkMQTT, vt)

	e.logger.Debug(ctx, "violation published",
		logger.String("topic", topic),
		logger.Int("qos", int(qos)),
		logger.Int("size", len(body)))
	return nil
}

// wait blocks until tok completes, ctx is done or timeout elapses.
func (e *MQTTEmitter) wait(ctx context.Context, tok mqtt.Token, timeout time.Duration, timeoutErr error) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-tok.Done():
		return tok.Error()
	case <-timer.C:
		return timeoutErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Topic returns the topic a violation of violationType is published on.
func (e *MQTTEmitter) Topic(sessionID, violationType string) string {
	return fmt.Sprintf("%s/%s/%s", e.topicPrefix, sessionID, violationType)
}

// Disconnect closes the broker connection.
func (e *MQTTEmitter) Disconnect() error {
	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(disconnectQuiesceMs)
		e.logger.Info(context.Background(), "mqtt disconnected")
	}
	e.setConnected(false)
	return nil
}

// Stats returns emitter statistics.
func (e *MQTTEmitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	published := make(map[string]uint64, len(e.published))
	for k, v := range e.published {
		published[k] = v
	}
	return Stats{Connected: e.connected, Published: published, Errors: e.errors}
}

// IsConnected reports the last known connection state.
func (e *MQTTEmitter) IsConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

func (e *MQTTEmitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *MQTTEmitter) failed() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
	metrics.RecordEmitterError(sinkMQTT)
}

func (e *MQTTEmitter) qosFor(violationType string) byte {
	if q, ok := e.qos[violationType]; ok {
		return q
	}
	return e.defaultQoS
}
