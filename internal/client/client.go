// Package client drives a chat session: it sends the user's commands and
// displays the server's replies over one connection.
package client

import "github.com/omochice/async-chat/pkg/protocol"

// Conn is a duplex connection split into independently owned halves.
// Requests is used only by the outbound pump and Replies only by the inbound
// pump, so the halves need no locking between them.
type Conn interface {
	Requests() protocol.RequestWriter
	Replies() protocol.ReplyReader
	Close() error
}
