package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/omochice/async-chat/internal/client"
	"github.com/omochice/async-chat/internal/logging"
	"github.com/omochice/async-chat/internal/transport/tcp"
	"github.com/omochice/async-chat/internal/transport/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: client ADDRESS")
		fmt.Fprintln(stderr, "  ADDRESS is host:port for a TCP server, or a ws:// or wss:// URL for a WebSocket server.")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	address := fs.Arg(0)

	logger := logging.New(stderr, slog.LevelInfo)

	conn, err := dial(ctx, address)
	if err != nil {
		logger.Error("Failed to connect", "address", address, "error", err)
		return 1
	}
	logger.Info("Connected", "server", conn.RemoteAddr())

	err = client.NewSession(stdin, stdout, logger).Run(ctx, conn)
	switch {
	case err == nil:
		logger.Info("Disconnected from server")
		return 0
	case errors.Is(err, context.Canceled):
		logger.Info("Interrupted, disconnecting")
		return 0
	default:
		logger.Error("Session failed", "error", err)
		return 1
	}
}

type serverConn interface {
	client.Conn
	RemoteAddr() string
}

// dial picks the transport from the address: WebSocket for ws:// and wss://
// URLs, TCP otherwise.
func dial(ctx context.Context, address string) (serverConn, error) {
	if strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://") {
		conn, err := ws.Dial(ctx, address)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	conn, err := tcp.Dial(ctx, address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
