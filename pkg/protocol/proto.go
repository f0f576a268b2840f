package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers from proto/chat.proto.
const (
	requestJoinField protowire.Number = 1
	requestPostField protowire.Number = 2

	replyMessageField protowire.Number = 1
	replyErrorField   protowire.Number = 2

	groupNameField protowire.Number = 1
	messageField   protowire.Number = 2
	detailField    protowire.Number = 1
)

// Encode encodes the request into protobuf wire format
func (r Request) Encode() ([]byte, error) {
	var (
		field protowire.Number
		body  []byte
	)
	switch r.Type {
	case RequestTypeJoin:
		field = requestJoinField
		body = appendString(nil, groupNameField, r.GroupName)
	case RequestTypePost:
		field = requestPostField
		body = appendString(nil, groupNameField, r.GroupName)
		body = appendString(body, messageField, r.Message)
	default:
		return nil, fmt.Errorf("failed to encode request: unknown type %d", r.Type)
	}
	return appendBytes(nil, field, body), nil
}

// Decode decodes protobuf wire format into a request
func (r *Request) Decode(data []byte) error {
	field, body, err := consumeVariant(data)
	if err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}
	values, err := consumeStrings(body)
	if err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}

	switch field {
	case requestJoinField:
		*r = NewJoin(values[groupNameField])
	case requestPostField:
		*r = NewPost(values[groupNameField], values[messageField])
	default:
		return fmt.Errorf("failed to decode request: %w: unknown variant field %d", ErrMalformed, field)
	}
	return nil
}

// Encode encodes the reply into protobuf wire format
func (r Reply) Encode() ([]byte, error) {
	var (
		field protowire.Number
		body  []byte
	)
	switch r.Type {
	case ReplyTypeMessage:
		field = replyMessageField
		body = appendString(nil, groupNameField, r.GroupName)
		body = appendString(body, messageField, r.Message)
	case ReplyTypeError:
		field = replyErrorField
		body = appendString(nil, detailField, r.Detail)
	default:
		return nil, fmt.Errorf("failed to encode reply: unknown type %d", r.Type)
	}
	return appendBytes(nil, field, body), nil
}

// Decode decodes protobuf wire format into a reply
func (r *Reply) Decode(data []byte) error {
	field, body, err := consumeVariant(data)
	if err != nil {
		return fmt.Errorf("failed to decode reply: %w", err)
	}
	values, err := consumeStrings(body)
	if err != nil {
		return fmt.Errorf("failed to decode reply: %w", err)
	}

	switch field {
	case replyMessageField:
		*r = NewMessage(values[groupNameField], values[messageField])
	case replyErrorField:
		*r = NewError(values[detailField])
	default:
		return fmt.Errorf("failed to decode reply: %w: unknown variant field %d", ErrMalformed, field)
	}
	return nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// consumeVariant returns the single length-delimited field of a top-level
// record, which selects the oneof variant.
func consumeVariant(data []byte) (protowire.Number, []byte, error) {
	var (
		field protowire.Number
		body  []byte
		seen  int
	)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return 0, nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		if typ != protowire.BytesType {
			return 0, nil, fmt.Errorf("%w: field %d has wire type %d", ErrMalformed, num, typ)
		}
		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return 0, nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		field, body = num, v
		seen++
	}
	if seen != 1 {
		return 0, nil, fmt.Errorf("%w: expected exactly one variant, got %d", ErrMalformed, seen)
	}
	return field, body, nil
}

// consumeStrings collects the length-delimited fields of a payload by field
// number. Fields of other wire types are skipped.
func consumeStrings(data []byte) (map[protowire.Number]string, error) {
	values := make(map[protowire.Number]string)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]
		values[num] = string(v)
	}
	return values, nil
}
