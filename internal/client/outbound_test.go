package client_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/omochice/async-chat/internal/client"
	"github.com/omochice/async-chat/internal/logging"
	"github.com/omochice/async-chat/pkg/protocol"
)

func TestSendCommands(t *testing.T) {
	input := strings.Join([]string{
		"join lobby",
		"post lobby hello world",
		"join lobby extra",
		"",
		"shout lobby hi",
		"post lobby  two  spaces ",
		"post lobby",
	}, "\n") + "\n"

	conn := newMockConn()
	var logs bytes.Buffer
	err := client.SendCommands(context.Background(), strings.NewReader(input), conn, logging.New(&logs, slog.LevelInfo))
	if err != nil {
		t.Fatalf("SendCommands() error = %v", err)
	}

	want := []protocol.Request{
		protocol.NewJoin("lobby"),
		protocol.NewPost("lobby", "hello world"),
		protocol.NewPost("lobby", "two  spaces "),
		protocol.NewPost("lobby", ""),
	}
	got := conn.getSent()
	if len(got) != len(want) {
		t.Fatalf("sent %d requests, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("request #%d = %+v, want %+v", i, got[i], want[i])
		}
	}

	out := logs.String()
	if !strings.Contains(out, "join lobby extra") {
		t.Errorf("expected a diagnostic for the rejected join, logs: %q", out)
	}
	if !strings.Contains(out, "shout lobby hi") {
		t.Errorf("expected a diagnostic for the unknown command, logs: %q", out)
	}
	if strings.Count(out, "Ignoring command") != 2 {
		t.Errorf("expected exactly two diagnostics, logs: %q", out)
	}
}

func TestSendCommands_LastLineWithoutNewline(t *testing.T) {
	conn := newMockConn()
	err := client.SendCommands(context.Background(), strings.NewReader("join lobby"), conn, logging.Discard())
	if err != nil {
		t.Fatalf("SendCommands() error = %v", err)
	}
	if got := conn.getSent(); len(got) != 1 || got[0] != protocol.NewJoin("lobby") {
		t.Errorf("sent = %+v, want one join", got)
	}
}

func TestSendCommands_WriteError(t *testing.T) {
	conn := newMockConn()
	conn.writeErr = errors.New("connection reset")

	err := client.SendCommands(context.Background(), strings.NewReader("join lobby\njoin other\n"), conn, logging.Discard())
	if !errors.Is(err, conn.writeErr) {
		t.Errorf("SendCommands() error = %v, want %v", err, conn.writeErr)
	}
}

func TestSendCommands_ReadError(t *testing.T) {
	readErr := errors.New("stdin closed")
	conn := newMockConn()

	err := client.SendCommands(context.Background(), iotest.ErrReader(readErr), conn, logging.Discard())
	if !errors.Is(err, readErr) {
		t.Errorf("SendCommands() error = %v, want %v", err, readErr)
	}
}

func TestSendCommands_RejectedLinesSendNothing(t *testing.T) {
	conn := newMockConn()
	err := client.SendCommands(context.Background(), strings.NewReader("join lobby extra\npost\nhello\n"), conn, logging.Discard())
	if err != nil {
		t.Fatalf("SendCommands() error = %v", err)
	}
	if got := conn.getSent(); len(got) != 0 {
		t.Errorf("sent = %+v, want nothing", got)
	}
}

func TestSendCommands_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := newMockConn()
	err := client.SendCommands(ctx, strings.NewReader("join lobby\n"), conn, logging.Discard())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("SendCommands() error = %v, want context.Canceled", err)
	}
	if got := conn.getSent(); len(got) != 0 {
		t.Errorf("sent = %+v after cancellation, want nothing", got)
	}
}
