// Package packets defines the update messages exchanged between
// participants of a scene.
//
// Every message starts with the same header:
//
//	[int32 type][16-byte sender id][int32 parent id][int32 param id][int32 value type]
//
// followed by a type-specific payload. All scalars are little-endian.
package packets

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Faultbox/vpet-sync/internal/param"
	"github.com/Faultbox/vpet-sync/pkg/wire"
)

// Type identifies the message kind.
type Type int32

const (
	TypeParameterUpdate Type = 0 // Parameter value changed
	TypeLock            Type = 1 // Object lock acquired or released
	TypeResetObject     Type = 2 // Object reset to its creation values
)

// String returns a human-readable message type.
func (t Type) String() string {
	switch t {
	case TypeParameterUpdate:
		return "ParameterUpdate"
	case TypeLock:
		return "Lock"
	case TypeResetObject:
		return "ResetObject"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(t))
	}
}

// HeaderSize is the size of the common message header.
const HeaderSize = 4 + 16 + 4 + 4 + 4

// NoParam fills the parameter id and value type of messages that address a
// whole object.
const NoParam int32 = -1

// Message errors.
var (
	ErrUnknownType = errors.New("unknown message type")
	ErrBadPayload  = errors.New("malformed message payload")
)

// Header is the common message header.
type Header struct {
	Type      Type
	Sender    uuid.UUID
	ParentID  int32
	ParamID   int32
	ValueType param.ValueType
}

// Message is a decoded update message. Payload holds the encoded value of a
// ParameterUpdate or the lock flag of a Lock.
type Message struct {
	Header
	Payload []byte
}

// NewParameterUpdate builds a message carrying the current value of p.
func NewParameterUpdate(sender uuid.UUID, p param.Parameter) *Message {
	w := wire.NewWriter(16)
	p.WriteValue(w)
	return &Message{
		Header: Header{
			Type:      TypeParameterUpdate,
			Sender:    sender,
			ParentID:  p.ParentID(),
			ParamID:   p.ID(),
			ValueType: p.Type(),
		},
		Payload: w.Bytes(),
	}
}

// NewLock builds a message that locks or unlocks an object.
func NewLock(sender uuid.UUID, objectID int32, locked bool) *Message {
	w := wire.NewWriter(wire.WordSize)
	w.Bool(locked)
	return &Message{
		Header: Header{
			Type:      TypeLock,
			Sender:    sender,
			ParentID:  objectID,
			ParamID:   NoParam,
			ValueType: param.TypeBool,
		},
		Payload: w.Bytes(),
	}
}

// NewResetObject builds a message that resets every parameter of an object.
func NewResetObject(sender uuid.UUID, objectID int32) *Message {
	return &Message{
		Header: Header{
			Type:      TypeResetObject,
			Sender:    sender,
			ParentID:  objectID,
			ParamID:   NoParam,
			ValueType: param.ValueType(NoParam),
		},
	}
}

// Size returns the encoded size.
func (m *Message) Size() int {
	return HeaderSize + len(m.Payload)
}

// Encode encodes the message to bytes.
func (m *Message) Encode() []byte {
	w := wire.NewWriter(m.Size())
	w.Int32(int32(m.Type))
	w.Raw(m.Sender[:])
	w.Int32(m.ParentID)
	w.Int32(m.ParamID)
	w.Int32(int32(m.ValueType))
	w.Raw(m.Payload)
	return w.Bytes()
}

// Decode decodes a message and validates its payload size against its type.
// The payload of a ParameterUpdate is only checked when it is applied.
func Decode(data []byte) (*Message, error) {
	r := wire.NewReader(data)
	m := &Message{}
	m.Type = Type(r.Int32())
	copy(m.Sender[:], r.Raw(16))
	m.ParentID = r.Int32()
	m.ParamID = r.Int32()
	m.ValueType = param.ValueType(r.Int32())
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("decoding message header: %w", err)
	}
	m.Payload = r.Raw(r.Remaining())

	switch m.Type {
	case TypeParameterUpdate:
	case TypeLock:
		if len(m.Payload) != wire.WordSize {
			return nil, fmt.Errorf("%w: lock payload of %d bytes", ErrBadPayload, len(m.Payload))
		}
	case TypeResetObject:
		if len(m.Payload) != 0 {
			return nil, fmt.Errorf("%w: reset payload of %d bytes", ErrBadPayload, len(m.Payload))
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int32(m.Type))
	}
	return m, nil
}

// Locked returns the flag of a Lock message.
func (m *Message) Locked() bool {
	return wire.NewReader(m.Payload).Bool()
}

// ApplyTo writes the value of a ParameterUpdate into p. It fails with
// param.ErrTypeMismatch if the message's value type differs from p's, and
// with ErrBadPayload if the payload does not hold exactly one value.
func (m *Message) ApplyTo(p param.Parameter, origin param.Origin) error {
	if m.ValueType != p.Type() {
		return fmt.Errorf("%w: message carries %s, parameter %q is %s",
			param.ErrTypeMismatch, m.ValueType, p.Name(), p.Type())
	}

	// Decode into a detached copy so a malformed payload leaves p untouched
	tmp := p.Snapshot()
	r := wire.NewReader(m.Payload)
	if err := tmp.ReadValue(r, origin); err != nil {
		return fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	if !r.Done() {
		return fmt.Errorf("%w: %d trailing bytes", ErrBadPayload, r.Remaining())
	}
	return p.CopyValue(tmp, origin)
}
