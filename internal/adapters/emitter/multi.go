package emitter

import (
	"context"
	"errors"

	"github.com/okian/posturai/internal/stream"
)

// Multi fans an event out to every sink in order. All sinks are tried even
// when one fails; the errors are joined.
type Multi []stream.Sink

// Emit implements stream.Sink.
func (m Multi) Emit(ctx context.Context, ev stream.Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
