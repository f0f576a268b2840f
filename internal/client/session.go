package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Banner lists the available commands. It is printed when a session starts.
const Banner = `Commands:
  join GROUP
  post GROUP MESSAGE...
Press Ctrl+D (Unix) or Ctrl+Z (Windows) to close the connection.`

// Session runs the two pumps of one connection.
type Session struct {
	input  io.Reader
	output io.Writer
	logger *slog.Logger
}

// NewSession creates a Session reading commands from input and displaying
// replies on output.
func NewSession(input io.Reader, output io.Writer, logger *slog.Logger) *Session {
	return &Session{
		input:  input,
		output: output,
		logger: logger,
	}
}

type pumpResult struct {
	pump string
	err  error
}

// Run races the outbound and inbound pumps over conn and returns the result
// of whichever finishes first. Before returning it cancels the other pump
// and closes conn so that a pending socket read is released. The losing
// pump's result is discarded. Run returns ctx.Err() if ctx ends first.
func (s *Session) Run(ctx context.Context, conn Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		if err := conn.Close(); err != nil {
			s.logger.Debug("Failed to close connection", "error", err)
		}
	}()

	fmt.Fprintln(s.output, Banner)

	requests, replies := conn.Requests(), conn.Replies()

	// Room for both results so the loser never blocks on send.
	done := make(chan pumpResult, 2)
	go func() {
		done <- pumpResult{pump: "outbound", err: SendCommands(ctx, s.input, requests, s.logger)}
	}()
	go func() {
		done <- pumpResult{pump: "inbound", err: HandleReplies(ctx, replies, s.output)}
	}()

	select {
	case res := <-done:
		s.logger.Debug("Pump finished", "pump", res.pump, "error", res.err)
		return res.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
