// Package command parses the line-oriented commands typed by the user.
//
// Two commands are understood:
//
//	join GROUP
//	post GROUP MESSAGE...
package command

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/omochice/async-chat/pkg/protocol"
)

var (
	// ErrEmptyLine is returned for lines that contain only whitespace.
	ErrEmptyLine = errors.New("empty line")
	// ErrUnknownCommand is returned when the first word is not a known command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMissingGroup is returned when a command lacks its group name.
	ErrMissingGroup = errors.New("missing group name")
	// ErrUnexpectedArgument is returned when join is given more than a group name.
	ErrUnexpectedArgument = errors.New("unexpected argument")
)

// Parse converts one line of user input into a request.
// The message of a post is the rest of the line after the group name with
// leading whitespace removed; everything else in it is kept verbatim.
func Parse(line string) (protocol.Request, error) {
	cmd, rest, ok := nextToken(line)
	if !ok {
		return protocol.Request{}, ErrEmptyLine
	}

	switch cmd {
	case "post":
		group, rest, ok := nextToken(rest)
		if !ok {
			return protocol.Request{}, fmt.Errorf("post: %w", ErrMissingGroup)
		}
		return protocol.NewPost(group, trimLeft(rest)), nil
	case "join":
		group, rest, ok := nextToken(rest)
		if !ok {
			return protocol.Request{}, fmt.Errorf("join: %w", ErrMissingGroup)
		}
		if extra := trimLeft(rest); extra != "" {
			return protocol.Request{}, fmt.Errorf("join: %w %q", ErrUnexpectedArgument, extra)
		}
		return protocol.NewJoin(group), nil
	default:
		return protocol.Request{}, fmt.Errorf("%w %q", ErrUnknownCommand, cmd)
	}
}

// nextToken splits off the first whitespace-delimited word of input.
// rest starts at the whitespace that ended the word.
func nextToken(input string) (token, rest string, ok bool) {
	input = trimLeft(input)
	if input == "" {
		return "", "", false
	}

	end := strings.IndexFunc(input, unicode.IsSpace)
	if end < 0 {
		return input, "", true
	}
	return input[:end], input[end:], true
}

func trimLeft(s string) string {
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}
