package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// LineWriter writes one JSON record per line.
type LineWriter struct {
	w *bufio.Writer
}

// NewLineWriter creates a LineWriter on top of w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: bufio.NewWriter(w)}
}

// Send encodes v as a single line and flushes it.
func (lw *LineWriter) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	data = append(data, '\n')

	if _, err := lw.w.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := lw.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush record: %w", err)
	}
	return nil
}

// WriteRequest implements RequestWriter.
func (lw *LineWriter) WriteRequest(req Request) error {
	return lw.Send(req)
}

// LineReader reads one JSON record per line.
type LineReader struct {
	r *bufio.Reader
}

// NewLineReader creates a LineReader on top of r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// Next returns the next line without its terminator.
// A final line that lacks a newline is still returned; io.EOF follows it.
func (lr *LineReader) Next() ([]byte, error) {
	line, err := lr.r.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				return trimEOL(line), nil
			}
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return trimEOL(line), nil
}

// ReadReply implements ReplyReader.
func (lr *LineReader) ReadReply() (Reply, error) {
	line, err := lr.Next()
	if err != nil {
		return Reply{}, err
	}

	var reply Reply
	if err := reply.UnmarshalJSON(line); err != nil {
		return Reply{}, fmt.Errorf("failed to decode reply: %w", err)
	}
	return reply, nil
}

// ReadRequest reads the next request. Servers and test peers use it.
func (lr *LineReader) ReadRequest() (Request, error) {
	line, err := lr.Next()
	if err != nil {
		return Request{}, err
	}

	var req Request
	if err := req.UnmarshalJSON(line); err != nil {
		return Request{}, fmt.Errorf("failed to decode request: %w", err)
	}
	return req, nil
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}
