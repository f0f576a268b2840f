// Package ws provides the WebSocket transport: one protobuf record per
// binary message, using gobwas/ws.
package ws

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/omochice/async-chat/pkg/protocol"
)

const closeTimeout = time.Second

// Conn is a WebSocket connection to the chat server split into a request
// half and a reply half.
type Conn struct {
	conn     net.Conn
	frames   *frameWriter
	requests *requestWriter
	replies  *replyReader
}

// Dial performs the WebSocket handshake with the server at url
// (ws:// or wss://). Send coalescing is disabled on the underlying socket.
func Dial(ctx context.Context, url string) (*Conn, error) {
	dialer := ws.Dialer{
		NetDial: func(ctx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if tc, ok := conn.(*net.TCPConn); ok {
				if err := tc.SetNoDelay(true); err != nil {
					conn.Close()
					return nil, fmt.Errorf("failed to set TCP_NODELAY: %w", err)
				}
			}
			return conn, nil
		},
	}

	conn, br, _, err := dialer.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	return newConn(conn, br), nil
}

// NewConn wraps a connection on which the client handshake has completed.
func NewConn(conn net.Conn) *Conn {
	return newConn(conn, nil)
}

// br holds bytes the server sent right after the handshake response, if any.
func newConn(conn net.Conn, br *bufio.Reader) *Conn {
	var src io.Reader = conn
	if br != nil {
		src = br
	}

	frames := &frameWriter{dst: conn}
	return &Conn{
		conn:     conn,
		frames:   frames,
		requests: &requestWriter{frames: frames},
		replies:  newReplyReader(src, frames),
	}
}

// Requests returns the write half.
func (c *Conn) Requests() protocol.RequestWriter {
	return c.requests
}

// Replies returns the read half.
func (c *Conn) Replies() protocol.ReplyReader {
	return c.replies
}

// Close sends a normal close frame and closes the socket.
func (c *Conn) Close() error {
	c.conn.SetWriteDeadline(time.Now().Add(closeTimeout))
	_ = c.frames.write(func(w io.Writer) error {
		body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
		return wsutil.WriteClientMessage(w, ws.OpClose, body)
	})
	return c.conn.Close()
}

// RemoteAddr returns the server address for logging.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// frameWriter serializes whole frames onto the socket. Requests and the
// replies to control frames are the only two producers.
type frameWriter struct {
	mu  sync.Mutex
	dst io.Writer
}

func (fw *frameWriter) write(frame func(w io.Writer) error) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return frame(fw.dst)
}

type requestWriter struct {
	frames *frameWriter
}

// WriteRequest implements protocol.RequestWriter.
func (w *requestWriter) WriteRequest(req protocol.Request) error {
	data, err := req.Encode()
	if err != nil {
		return err
	}
	err = w.frames.write(func(dst io.Writer) error {
		return wsutil.WriteClientBinary(dst, data)
	})
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

type replyReader struct {
	rd      wsutil.Reader
	control wsutil.FrameHandlerFunc
	pending bytes.Buffer
	frames  *frameWriter
}

func newReplyReader(src io.Reader, frames *frameWriter) *replyReader {
	r := &replyReader{frames: frames}
	r.control = wsutil.ControlFrameHandler(&r.pending, ws.StateClientSide)
	r.rd = wsutil.Reader{
		Source:         src,
		State:          ws.StateClientSide,
		OnIntermediate: r.handleControl,
	}
	return r
}

// ReadReply implements protocol.ReplyReader. A normal close from the server
// ends the stream with io.EOF.
func (r *replyReader) ReadReply() (protocol.Reply, error) {
	for {
		hdr, err := r.rd.NextFrame()
		if err != nil {
			return protocol.Reply{}, fmt.Errorf("failed to read frame: %w", err)
		}

		if hdr.OpCode.IsControl() {
			if err := r.handleControl(hdr, &r.rd); err != nil {
				return protocol.Reply{}, err
			}
			continue
		}

		if hdr.OpCode != ws.OpBinary {
			if err := r.rd.Discard(); err != nil {
				return protocol.Reply{}, fmt.Errorf("failed to discard frame: %w", err)
			}
			return protocol.Reply{}, fmt.Errorf("%w: unexpected %s frame", protocol.ErrMalformed, opName(hdr.OpCode))
		}

		data, err := io.ReadAll(&r.rd)
		if err != nil {
			return protocol.Reply{}, fmt.Errorf("failed to read message: %w", err)
		}

		var reply protocol.Reply
		if err := reply.Decode(data); err != nil {
			return protocol.Reply{}, err
		}
		return reply, nil
	}
}

// handleControl answers ping and close frames. The answer is built in
// pending and written as one frame under the frame lock.
func (r *replyReader) handleControl(hdr ws.Header, src io.Reader) error {
	err := r.control(hdr, src)

	if r.pending.Len() > 0 {
		werr := r.frames.write(func(w io.Writer) error {
			_, err := w.Write(r.pending.Bytes())
			return err
		})
		r.pending.Reset()
		if werr != nil && err == nil {
			return fmt.Errorf("failed to answer control frame: %w", werr)
		}
	}

	var closed wsutil.ClosedError
	if errors.As(err, &closed) {
		switch closed.Code {
		case ws.StatusNormalClosure, ws.StatusNoStatusRcvd, ws.StatusGoingAway:
			return io.EOF
		default:
			return fmt.Errorf("connection closed by server: %w", err)
		}
	}
	return err
}

func opName(op ws.OpCode) string {
	switch op {
	case ws.OpText:
		return "text"
	case ws.OpContinuation:
		return "continuation"
	default:
		return fmt.Sprintf("opcode %d", op)
	}
}
