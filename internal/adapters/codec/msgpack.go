package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

const lengthPrefixSize = 4

type msgpackReader struct {
	r      *bufio.Reader
	prefix [lengthPrefixSize]byte
}

func newMsgpackReader(r io.Reader) *msgpackReader {
	return &msgpackReader{r: bufio.NewReader(r)}
}

func (r *msgpackReader) Next() (Frame, error) {
	if _, err := io.ReadFull(r.r, r.prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("read length prefix: %w", err)
	}

	n := binary.BigEndian.Uint32(r.prefix[:])
	if n > MaxFrameSize {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, fmt.Errorf("read msgpack frame: %w", err)
	}

	var f Frame
	if err := msgpack.Unmarshal(buf, &f); err != nil {
		return Frame{}, fmt.Errorf("unmarshal msgpack frame: %w", err)
	}
	return f, nil
}

type msgpackWriter struct {
	bw *bufio.Writer
}

func newMsgpackWriter(w io.Writer) *msgpackWriter {
	return &msgpackWriter{bw: bufio.NewWriter(w)}
}

func (w *msgpackWriter) Write(f Frame) error {
	b, err := msgpack.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal msgpack frame: %w", err)
	}
	if len(b) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(b))
	}

	var prefix [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(b)))
	if _, err := w.bw.Write(prefix[:]); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}
	if _, err := w.bw.Write(b); err != nil {
		return fmt.Errorf("write msgpack frame: %w", err)
	}
	return nil
}

func (w *msgpackWriter) Flush() error {
	return w.bw.Flush()
}
