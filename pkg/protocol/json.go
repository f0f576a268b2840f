package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// The JSON form of a variant is an object with a single key naming the
// variant, e.g. {"Post":{"group_name":"lobby","message":"hi"}}.

type joinPayload struct {
	GroupName string `json:"group_name"`
}

type postPayload struct {
	GroupName string `json:"group_name"`
	Message   string `json:"message"`
}

// MarshalJSON encodes the request in its tagged JSON form.
func (r Request) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case RequestTypeJoin:
		return json.Marshal(map[string]joinPayload{
			"Join": {GroupName: r.GroupName},
		})
	case RequestTypePost:
		return json.Marshal(map[string]postPayload{
			"Post": {GroupName: r.GroupName, Message: r.Message},
		})
	default:
		return nil, fmt.Errorf("unknown request type %d", r.Type)
	}
}

// UnmarshalJSON decodes a tagged JSON request.
func (r *Request) UnmarshalJSON(data []byte) error {
	tag, body, err := jsonVariant(data)
	if err != nil {
		return err
	}

	switch tag {
	case "Join":
		group, err := jsonString(body, "group_name")
		if err != nil {
			return err
		}
		*r = NewJoin(group)
	case "Post":
		group, err := jsonString(body, "group_name")
		if err != nil {
			return err
		}
		message, err := jsonString(body, "message")
		if err != nil {
			return err
		}
		*r = NewPost(group, message)
	default:
		return fmt.Errorf("%w: unknown request variant %q", ErrMalformed, tag)
	}
	return nil
}

// MarshalJSON encodes the reply in its tagged JSON form.
// Error replies carry the detail string directly: {"Error":"..."}.
func (r Reply) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case ReplyTypeMessage:
		return json.Marshal(map[string]postPayload{
			"Message": {GroupName: r.GroupName, Message: r.Message},
		})
	case ReplyTypeError:
		return json.Marshal(map[string]string{"Error": r.Detail})
	default:
		return nil, fmt.Errorf("unknown reply type %d", r.Type)
	}
}

// UnmarshalJSON decodes a tagged JSON reply.
func (r *Reply) UnmarshalJSON(data []byte) error {
	tag, body, err := jsonVariant(data)
	if err != nil {
		return err
	}

	switch tag {
	case "Message":
		group, err := jsonString(body, "group_name")
		if err != nil {
			return err
		}
		message, err := jsonString(body, "message")
		if err != nil {
			return err
		}
		*r = NewMessage(group, message)
	case "Error":
		if body.Type != gjson.String {
			return fmt.Errorf("%w: error detail must be a string", ErrMalformed)
		}
		*r = NewError(body.String())
	default:
		return fmt.Errorf("%w: unknown reply variant %q", ErrMalformed, tag)
	}
	return nil
}

// jsonVariant returns the tag and payload of a single-key JSON object.
func jsonVariant(data []byte) (string, gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return "", gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return "", gjson.Result{}, fmt.Errorf("%w: expected an object", ErrMalformed)
	}

	var (
		tag  string
		body gjson.Result
		keys int
	)
	root.ForEach(func(key, value gjson.Result) bool {
		tag, body = key.String(), value
		keys++
		return true
	})
	if keys != 1 {
		return "", gjson.Result{}, fmt.Errorf("%w: expected exactly one variant, got %d", ErrMalformed, keys)
	}
	return tag, body, nil
}

func jsonString(body gjson.Result, name string) (string, error) {
	if !body.IsObject() {
		return "", fmt.Errorf("%w: variant payload must be an object", ErrMalformed)
	}
	field := body.Get(name)
	if field.Type != gjson.String {
		return "", fmt.Errorf("%w: field %q must be a string", ErrMalformed, name)
	}
	return field.String(), nil
}
