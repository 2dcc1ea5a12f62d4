// Package codec reads and writes recorded landmark streams.
//
// Two encodings are supported: JSON Lines, one frame object per line, and
// msgpack frames each preceded by a 4-byte big-endian length.
package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/okian/posturai/internal/domain/model"
)

// MaxFrameSize bounds a single encoded frame.
const MaxFrameSize = 1 << 20

// Frame is one recorded frame.
type Frame struct {
	Seq       uint64           `json:"seq" msgpack:"seq"`
	Landmarks []model.Landmark `json:"landmarks" msgpack:"landmarks"`
}

// Format selects an encoding.
type Format int

// Supported formats.
const (
	JSONL Format = iota
	MsgPack
)

func (f Format) String() string {
	switch f {
	case JSONL:
		return "jsonl"
	case MsgPack:
		return "msgpack"
	}
	return "unknown"
}

// ParseFormat converts "jsonl" or "msgpack" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jsonl", "json":
		return JSONL, nil
	case "msgpack", "mpk":
		return MsgPack, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		return JSONL, nil
	case ".msgpack", ".mpk":
		return MsgPack, nil
	}
	return 0, fmt.Errorf("%w: extension of %q", ErrUnknownFormat, path)
}

// Reader yields recorded frames. Next returns io.EOF after the last frame.
type Reader interface {
	Next() (Frame, error)
}

// Writer appends frames to a recording.
type Writer interface {
	Write(f Frame) error
	// Flush writes any buffered data to the underlying writer.
	Flush() error
}

// NewReader returns a Reader decoding format from r.
func NewReader(r io.Reader, format Format) (Reader, error) {
	switch format {
	case JSONL:
		return newJSONLReader(r), nil
	case MsgPack:
		return newMsgpackReader(r), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
}

// NewWriter returns a Writer encoding format to w.
func NewWriter(w io.Writer, format Format) (Writer, error) {
	switch format {
	case JSONL:
		return newJSONLWriter(w), nil
	case MsgPack:
		return newMsgpackWriter(w), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
}

// ReadAll drains r. An error wrapping io.EOF ends the stream.
func ReadAll(r Reader) ([]Frame, error) {
	var out []Frame
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
}
