package relay

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

var ErrMalformedMessage = errors.New("malformed relay message")

// MaxMessageBytes bounds a single encoded message
const MaxMessageBytes = 1 << 20

// Type is the relay message discriminator
type Type string

const (
	TypeClear Type = "console-clear"
	TypeLog   Type = "console-log"
	TypeWarn  Type = "console-warn"
	TypeError Type = "console-error"
)

// Message is one boundary-crossing notification
type Message struct {
	Type Type   `json:"type"`
	Data string `json:"data"`
}

// Kind maps an entry-producing message type to its console kind.
func (t Type) Kind() (Kind, bool) {
	switch t {
	case TypeLog:
		return KindLog, true
	case TypeWarn:
		return KindWarn, true
	case TypeError:
		return KindError, true
	}
	return "", false
}

// Decode parses and validates an encoded message.
func Decode(raw []byte) (Message, error) {
	if len(raw) == 0 || len(raw) > MaxMessageBytes {
		return Message{}, fmt.Errorf("%w: size %d", ErrMalformedMessage, len(raw))
	}

	var fields map[string]interface{}
	if err := sonic.Unmarshal(raw, &fields); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return FromMap(fields)
}

// FromMap validates a message already decoded into generic fields, as
// exported from a JavaScript object.
func FromMap(fields map[string]interface{}) (Message, error) {
	if fields == nil {
		return Message{}, fmt.Errorf("%w: not an object", ErrMalformedMessage)
	}

	typ, ok := fields["type"].(string)
	if !ok {
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}

	msg := Message{Type: Type(typ)}
	switch msg.Type {
	case TypeClear:
		return msg, nil
	case TypeLog, TypeWarn, TypeError:
		data, ok := fields["data"].(string)
		if !ok {
			return Message{}, fmt.Errorf("%w: %s requires string data", ErrMalformedMessage, typ)
		}
		msg.Data = data
		return msg, nil
	}
	return Message{}, fmt.Errorf("%w: unknown type %q", ErrMalformedMessage, typ)
}
