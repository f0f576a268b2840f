package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/omochice/async-chat/pkg/protocol"
)

// HandleReplies displays every reply read from r on out, in arrival order.
// It returns nil once r reports io.EOF. Error replies are shown like any
// other reply and do not stop the loop.
func HandleReplies(ctx context.Context, r protocol.ReplyReader, out io.Writer) error {
	for {
		reply, err := r.ReadReply()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("failed to receive reply: %w", err)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, Render(reply)); err != nil {
			return fmt.Errorf("failed to display reply: %w", err)
		}
	}
}

// Render formats a reply for display.
func Render(reply protocol.Reply) string {
	switch reply.Type {
	case protocol.ReplyTypeMessage:
		return fmt.Sprintf("[%s]: %s", reply.GroupName, reply.Message)
	case protocol.ReplyTypeError:
		return fmt.Sprintf("*** server error: %s ***", reply.Detail)
	default:
		return fmt.Sprintf("*** unknown reply %s ***", reply.Type)
	}
}
