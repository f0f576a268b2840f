package client_test

import (
	"io"
	"net"
	"sync"

	"github.com/omochice/async-chat/internal/client"
	"github.com/omochice/async-chat/pkg/protocol"
)

// mockConn is a mock implementation of client.Conn for testing.
// Replies are fed through replyCh; closing replyCh ends the stream cleanly.
type mockConn struct {
	replyCh   chan protocol.Reply
	readErr   error
	sentMu    sync.Mutex
	sent      []protocol.Request
	writeErr  error
	closed    chan struct{}
	closeOnce sync.Once
}

func newMockConn() *mockConn {
	return &mockConn{
		replyCh: make(chan protocol.Reply, 10),
		closed:  make(chan struct{}),
	}
}

func (m *mockConn) Requests() protocol.RequestWriter { return m }

func (m *mockConn) Replies() protocol.ReplyReader { return m }

func (m *mockConn) WriteRequest(req protocol.Request) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.sentMu.Lock()
	defer m.sentMu.Unlock()
	m.sent = append(m.sent, req)
	return nil
}

func (m *mockConn) ReadReply() (protocol.Reply, error) {
	select {
	case <-m.closed:
		return protocol.Reply{}, net.ErrClosed
	case reply, ok := <-m.replyCh:
		if !ok {
			if m.readErr != nil {
				return protocol.Reply{}, m.readErr
			}
			return protocol.Reply{}, io.EOF
		}
		return reply, nil
	}
}

func (m *mockConn) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *mockConn) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

func (m *mockConn) getSent() []protocol.Request {
	m.sentMu.Lock()
	defer m.sentMu.Unlock()
	return append([]protocol.Request(nil), m.sent...)
}

// Compile-time check that mockConn implements client.Conn
var _ client.Conn = (*mockConn)(nil)

// replySlice replays a fixed list of replies followed by err (io.EOF if nil).
type replySlice struct {
	replies []protocol.Reply
	err     error
}

func (s *replySlice) ReadReply() (protocol.Reply, error) {
	if len(s.replies) == 0 {
		if s.err != nil {
			return protocol.Reply{}, s.err
		}
		return protocol.Reply{}, io.EOF
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}
