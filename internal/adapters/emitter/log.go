package emitter

import (
	"context"

	"github.com/okian/posturai/internal/stream"
	"github.com/okian/posturai/pkg/logger"
	"github.com/okian/posturai/pkg/metrics"
)

// LogEmitter writes violation events to a logger at debug level.
type LogEmitter struct {
	logger logger.Logger
}

// NewLogEmitter creates a LogEmitter. A nil logger discards events.
func NewLogEmitter(l logger.Logger) *LogEmitter {
	if l == nil {
		l = logger.NewNop()
	}
	return &LogEmitter{logger: l}
}

// Emit implements stream.Sink.
func (e *LogEmitter) Emit(ctx context.Context, ev stream.Event) error {
	v := ev.Violation
	fields := []logger.Field{
		logger.String("session", ev.SessionID),
		logger.String("mode", ev.Mode.String()),
		logger.Uint64("seq", ev.Seq),
		logger.String("type", string(v.Type)),
		logger.String("severity", v.Severity.String()),
	}
	if v.Angle != nil {
		fields = append(fields, logger.Float64("angle", *v.Angle))
	}
	e.logger.Debug(ctx, v.Message, fields...)
	metrics.RecordEmitterPublished("log", string(v.Type))
	return nil
}
