// Package protocol defines the messages exchanged with the group chat server
// and the codecs that carry them over a connection.
package protocol

import "errors"

// ErrMalformed is returned when a record cannot be decoded into a known variant.
var ErrMalformed = errors.New("malformed record")

// RequestType represents the variant of a Request
type RequestType int

const (
	RequestTypeJoin RequestType = iota
	RequestTypePost
)

// String returns the string representation of RequestType
func (rt RequestType) String() string {
	switch rt {
	case RequestTypeJoin:
		return "Join"
	case RequestTypePost:
		return "Post"
	default:
		return "Unknown"
	}
}

// Request is a command sent from the client to the server.
// Message is only meaningful for RequestTypePost.
type Request struct {
	Type      RequestType
	GroupName string
	Message   string
}

// NewJoin returns a request to join the named group.
func NewJoin(group string) Request {
	return Request{Type: RequestTypeJoin, GroupName: group}
}

// NewPost returns a request to post message to the named group.
func NewPost(group, message string) Request {
	return Request{Type: RequestTypePost, GroupName: group, Message: message}
}

// ReplyType represents the variant of a Reply
type ReplyType int

const (
	ReplyTypeMessage ReplyType = iota
	ReplyTypeError
)

// String returns the string representation of ReplyType
func (rt ReplyType) String() string {
	switch rt {
	case ReplyTypeMessage:
		return "Message"
	case ReplyTypeError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Reply is a record broadcast by the server.
// GroupName and Message are set for ReplyTypeMessage, Detail for ReplyTypeError.
type Reply struct {
	Type      ReplyType
	GroupName string
	Message   string
	Detail    string
}

// NewMessage returns a reply carrying a message posted to a group.
func NewMessage(group, message string) Reply {
	return Reply{Type: ReplyTypeMessage, GroupName: group, Message: message}
}

// NewError returns a reply carrying a server-reported error.
func NewError(detail string) Reply {
	return Reply{Type: ReplyTypeError, Detail: detail}
}

// RequestWriter sends requests over the write half of a connection.
// WriteRequest returns only after the request has been flushed.
type RequestWriter interface {
	WriteRequest(req Request) error
}

// ReplyReader receives replies from the read half of a connection.
// ReadReply returns io.EOF once the stream has ended cleanly.
type ReplyReader interface {
	ReadReply() (Reply, error)
}
