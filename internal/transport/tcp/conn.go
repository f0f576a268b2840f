// Package tcp provides the TCP transport: one JSON record per line over a
// TCP stream.
package tcp

import (
	"context"
	"fmt"
	"net"

	"github.com/omochice/async-chat/pkg/protocol"
)

// Conn is a TCP connection to the chat server split into a request half
// and a reply half.
type Conn struct {
	conn     net.Conn
	requests *protocol.LineWriter
	replies  *protocol.LineReader
}

// Dial connects to address (host:port) with send coalescing disabled.
func Dial(ctx context.Context, address string) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set TCP_NODELAY: %w", err)
		}
	}

	return NewConn(conn), nil
}

// NewConn wraps an established connection.
func NewConn(conn net.Conn) *Conn {
	return &Conn{
		conn:     conn,
		requests: protocol.NewLineWriter(conn),
		replies:  protocol.NewLineReader(conn),
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

// Close closes the connection, releasing any blocked read.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the server address for logging.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
