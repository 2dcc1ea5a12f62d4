package emitter

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/okian/posturai/pkg/logger"
)

// Option applies a configuration option to the MQTTEmitter.
type Option func(*MQTTEmitter)

// WithClientID sets the MQTT client identifier.
func WithClientID(id string) Option {
	return func(e *MQTTEmitter) {
		if id != "" {
			e.clientID = id
		}
	}
}

// WithTopicPrefix sets the prefix of every published topic.
func WithTopicPrefix(prefix string) Option {
	return func(e *MQTTEmitter) {
		if prefix != "" {
			e.topicPrefix = prefix
		}
	}
}

// WithQoS sets per violation type QoS levels. Unlisted types use the default.
func WithQoS(qos map[string]byte) Option {
	return func(e *MQTTEmitter) {
		for k, v := range qos {
			if v <= 2 {
				e.qos[k] = v
			}
		}
	}
}

// WithDefaultQoS sets the QoS for types without an explicit level.
func WithDefaultQoS(qos byte) Option {
	return func(e *MQTTEmitter) {
		if qos <= 2 {
			e.defaultQoS = qos
		}
	}
}

// WithPublishTimeout bounds how long Emit waits for the broker.
func WithPublishTimeout(d time.Duration) Option {
	return func(e *MQTTEmitter) {
		if d > 0 {
			e.publishTimeout = d
		}
	}
}

// WithConnectTimeout bounds how long Connect waits for the broker.
func WithConnectTimeout(d time.Duration) Option {
	return func(e *MQTTEmitter) {
		if d > 0 {
			e.connectTimeout = d
		}
	}
}

// WithClient uses an existing client instead of dialing the broker.
func WithClient(c mqtt.Client) Option {
	return func(e *MQTTEmitter) { e.client = c }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *MQTTEmitter) {
		if l != nil {
			e.logger = l
		}
	}
}
