package protocol_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/omochice/async-chat/pkg/protocol"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestLineWriter_WriteRequest(t *testing.T) {
	var buf bytes.Buffer
	w := protocol.NewLineWriter(&buf)

	if err := w.WriteRequest(protocol.NewJoin("lobby")); err != nil {
		t.Fatalf("WriteRequest() error = %v", err)
	}
	if err := w.WriteRequest(protocol.NewPost("lobby", "hello world")); err != nil {
		t.Fatalf("WriteRequest() error = %v", err)
	}

	want := `{"Join":{"group_name":"lobby"}}` + "\n" +
		`{"Post":{"group_name":"lobby","message":"hello world"}}` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("written = %q, want %q", got, want)
	}
}

func TestLineWriter_WriteError(t *testing.T) {
	w := protocol.NewLineWriter(failingWriter{})
	if err := w.WriteRequest(protocol.NewJoin("lobby")); err == nil {
		t.Error("expected error from failing writer")
	}
}

func TestLineReader_ReadReply(t *testing.T) {
	input := `{"Message":{"group_name":"lobby","message":"hi"}}` + "\r\n" +
		`{"Error":"no such group"}` + "\n" +
		`{"Message":{"group_name":"lobby","message":"last"}}`
	r := protocol.NewLineReader(strings.NewReader(input))

	want := []protocol.Reply{
		protocol.NewMessage("lobby", "hi"),
		protocol.NewError("no such group"),
		protocol.NewMessage("lobby", "last"),
	}
	for i, w := range want {
		got, err := r.ReadReply()
		if err != nil {
			t.Fatalf("ReadReply() #%d error = %v", i, err)
		}
		if got != w {
			t.Errorf("ReadReply() #%d = %+v, want %+v", i, got, w)
		}
	}

	if _, err := r.ReadReply(); err != io.EOF {
		t.Errorf("ReadReply() at end error = %v, want io.EOF", err)
	}
}

func TestLineReader_ReadReply_Malformed(t *testing.T) {
	r := protocol.NewLineReader(strings.NewReader("not json\n"))
	_, err := r.ReadReply()
	if !errors.Is(err, protocol.ErrMalformed) {
		t.Errorf("ReadReply() error = %v, want ErrMalformed", err)
	}
}

func TestLineRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := protocol.NewLineWriter(&buf)

	sent := []protocol.Request{
		protocol.NewJoin("lobby"),
		protocol.NewPost("lobby", "first"),
		protocol.NewPost("lobby", "second\twith tab"),
	}
	for _, req := range sent {
		if err := w.WriteRequest(req); err != nil {
			t.Fatalf("WriteRequest() error = %v", err)
		}
	}

	r := protocol.NewLineReader(&buf)
	for i, want := range sent {
		got, err := r.ReadRequest()
		if err != nil {
			t.Fatalf("ReadRequest() #%d error = %v", i, err)
		}
		if got != want {
			t.Errorf("ReadRequest() #%d = %+v, want %+v", i, got, want)
		}
	}
	if _, err := r.ReadRequest(); err != io.EOF {
		t.Errorf("ReadRequest() at end error = %v, want io.EOF", err)
	}
}
