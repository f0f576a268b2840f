package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/omochice/async-chat/internal/command"
	"github.com/omochice/async-chat/pkg/protocol"
)

const maxLineSize = 1 << 20

// SendCommands reads commands line by line from in and sends every accepted
// one through w, in input order. Rejected lines are logged and skipped.
// It returns nil when in is exhausted and stops at the first I/O error.
func SendCommands(ctx context.Context, in io.Reader, w protocol.RequestWriter, logger *slog.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		req, err := command.Parse(line)
		if err != nil {
			if !errors.Is(err, command.ErrEmptyLine) {
				logger.Warn("Ignoring command", "line", line, "error", err)
			}
			continue
		}

		if err := w.WriteRequest(req); err != nil {
			return fmt.Errorf("failed to send %s request: %w", req.Type, err)
		}
		logger.Debug("Sent request", "type", req.Type, "group", req.GroupName)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
