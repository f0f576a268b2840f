// Package chattest provides an in-process chat server for tests. Each
// accepted connection is handed to the test as a Peer that reads requests
// and sends replies on demand.
package chattest

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/omochice/async-chat/pkg/protocol"
)

// Timeout bounds every blocking operation of Server and Peer.
const Timeout = 2 * time.Second

// Server accepts TCP connections on a loopback port.
type Server struct {
	listener net.Listener
	peers    chan *Peer
	quit     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu    sync.Mutex
	conns []net.Conn
}

// NewServer starts a Server and registers its shutdown with t.Cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start test server: %v", err)
	}

	s := &Server{
		listener: listener,
		peers:    make(chan *Peer, 8),
		quit:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	t.Cleanup(s.Stop)
	return s
}

// Addr returns the listening address in host:port form.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Accept waits for the next client connection.
func (s *Server) Accept(t testing.TB) *Peer {
	t.Helper()

	select {
	case p := <-s.peers:
		return p
	case <-time.After(Timeout):
		t.Fatal("timeout waiting for a client connection")
		return nil
	}
}

// Stop closes the listener and every accepted connection.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.listener.Close()

		s.mu.Lock()
		for _, c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()

		s.wg.Wait()
	})
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		select {
		case s.peers <- newPeer(conn):
		case <-s.quit:
			return
		}
	}
}

// Peer is the server side of one client connection.
type Peer struct {
	conn   net.Conn
	reader *protocol.LineReader
	writer *protocol.LineWriter
}

func newPeer(conn net.Conn) *Peer {
	return &Peer{
		conn:   conn,
		reader: protocol.NewLineReader(conn),
		writer: protocol.NewLineWriter(conn),
	}
}

// ReadRequest reads the next request sent by the client.
func (p *Peer) ReadRequest(t testing.TB) protocol.Request {
	t.Helper()

	p.conn.SetReadDeadline(time.Now().Add(Timeout))
	req, err := p.reader.ReadRequest()
	if err != nil {
		t.Fatalf("failed to read request: %v", err)
	}
	return req
}

// ExpectNoRequest fails t if the client sends anything within d.
func (p *Peer) ExpectNoRequest(t testing.TB, d time.Duration) {
	t.Helper()

	p.conn.SetReadDeadline(time.Now().Add(d))
	defer p.conn.SetReadDeadline(time.Time{})

	req, err := p.reader.ReadRequest()
	if err == nil {
		t.Fatalf("unexpected request %+v", req)
	}
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() {
		t.Fatalf("unexpected read error: %v", err)
	}
}

// Send writes a reply to the client.
func (p *Peer) Send(t testing.TB, reply protocol.Reply) {
	t.Helper()

	p.conn.SetWriteDeadline(time.Now().Add(Timeout))
	if err := p.writer.Send(reply); err != nil {
		t.Fatalf("failed to send reply: %v", err)
	}
}

// SendRaw writes line followed by a newline, bypassing the encoder.
func (p *Peer) SendRaw(t testing.TB, line string) {
	t.Helper()

	p.conn.SetWriteDeadline(time.Now().Add(Timeout))
	if _, err := p.conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("failed to send raw line: %v", err)
	}
}

// Close closes the connection from the server side.
func (p *Peer) Close() error {
	return p.conn.Close()
}
