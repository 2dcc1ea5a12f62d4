package codec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type jsonlReader struct {
	sc   *bufio.Scanner
	line int
}

func newJSONLReader(r io.Reader) *jsonlReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), MaxFrameSize)
	return &jsonlReader{sc: sc}
}

func (r *jsonlReader) Next() (Frame, error) {
	for r.sc.Scan() {
		r.line++
		b := bytes.TrimSpace(r.sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(b, &f); err != nil {
			return Frame{}, fmt.Errorf("jsonl line %d: %w", r.line, err)
		}
		return f, nil
	}
	if err := r.sc.Err(); err != nil {
		if err == bufio.ErrTooLong {
			return Frame{}, fmt.Errorf("jsonl line %d: %w", r.line+1, ErrFrameTooLarge)
		}
		return Frame{}, err
	}
	return Frame{}, io.EOF
}

type jsonlWriter struct {
	bw  *bufio.Writer
	enc *json.Encoder
}

func newJSONLWriter(w io.Writer) *jsonlWriter {
	bw := bufio.NewWriter(w)
	return &jsonlWriter{bw: bw, enc: json.NewEncoder(bw)}
}

func (w *jsonlWriter) Write(f Frame) error {
	return w.enc.Encode(f)
}

func (w *jsonlWriter) Flush() error {
	return w.bw.Flush()
}
