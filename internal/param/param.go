// Package param implements the typed, observable parameters through which
// scene objects are edited, recorded in history and synchronised.
package param

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/vpet-sync/pkg/wire"
)

// ErrTypeMismatch is returned when a value of one parameter type is applied
// to a parameter of another.
var ErrTypeMismatch = errors.New("parameter type mismatch")

// ValueType is the type tag carried with every encoded parameter value.
type ValueType int32

const (
	TypeBool       ValueType = 0
	TypeInt        ValueType = 1
	TypeFloat      ValueType = 2
	TypeString     ValueType = 3
	TypeColor      ValueType = 4
	TypeVector2    ValueType = 5
	TypeVector3    ValueType = 6
	TypeVector4    ValueType = 7
	TypeQuaternion ValueType = 8
)

// String returns a human-readable type name.
func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "Bool"
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeString:
		return "String"
	case TypeColor:
		return "Color"
	case TypeVector2:
		return "Vector2"
	case TypeVector3:
		return "Vector3"
	case TypeVector4:
		return "Vector4"
	case TypeQuaternion:
		return "Quaternion"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(t))
	}
}

// Color is an RGBA color. It is distinct from mgl32.Vec4 so the two travel
// with different type tags.
type Color mgl32.Vec4

// Value is the closed set of types a parameter can hold.
type Value interface {
	bool | int32 | float32 | string | Color | mgl32.Vec2 | mgl32.Vec3 | mgl32.Vec4 | mgl32.Quat
}

// Origin tells listeners where a change came from.
type Origin int

const (
	// OriginLocal is an edit made by the local user.
	OriginLocal Origin = iota
	// OriginRemote is an update received from another participant.
	OriginRemote
	// OriginHistory is a value written by undo or redo.
	OriginHistory
	// OriginReset is a value restored to its creation-time default.
	OriginReset
)

// String returns a human-readable origin name.
func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginRemote:
		return "remote"
	case OriginHistory:
		return "history"
	case OriginReset:
		return "reset"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Change is delivered to listeners after a parameter value is written.
type Change struct {
	Param  Parameter
	Origin Origin
}

// Listener receives parameter changes.
type Listener func(Change)

// Parameter is the type-erased view of a Param used by history and
// distribution.
type Parameter interface {
	// ID returns the parameter's index within its owning object.
	ID() int32
	// ParentID returns the id of the owning object.
	ParentID() int32
	Name() string
	Type() ValueType
	// Value returns the current value boxed in an interface.
	Value() any

	// CopyValue writes other's value into this parameter. It fails with
	// ErrTypeMismatch and changes nothing if the types differ.
	CopyValue(other Parameter, origin Origin) error
	// Reset restores the creation-time value.
	Reset(origin Origin)
	// Snapshot returns a detached copy of the current value with the same
	// identity. The copy has no listeners.
	Snapshot() Parameter

	// WriteValue encodes the current value.
	WriteValue(w *wire.Writer)
	// ReadValue decodes a value and applies it.
	ReadValue(r *wire.Reader, origin Origin) error

	Subscribe(l Listener)
}

// Param is a typed parameter owned by a scene object. It is not safe for
// concurrent use.
type Param[T Value] struct {
	id        int32
	parentID  int32
	name      string
	value     T
	initial   T
	listeners []Listener
}

// New creates a parameter whose creation-time default is initial.
func New[T Value](parentID, id int32, name string, initial T) *Param[T] {
	return &Param[T]{
		id:       id,
		parentID: parentID,
		name:     name,
		value:    initial,
		initial:  initial,
	}
}

func (p *Param[T]) ID() int32       { return p.id }
func (p *Param[T]) ParentID() int32 { return p.parentID }
func (p *Param[T]) Name() string    { return p.name }
func (p *Param[T]) Value() any      { return p.value }

// Type returns the tag of T.
func (p *Param[T]) Type() ValueType {
	return TypeOf[T]()
}

// Get returns the current value.
func (p *Param[T]) Get() T {
	return p.value
}

// Default returns the creation-time value.
func (p *Param[T]) Default() T {
	return p.initial
}

// Set writes a local edit.
func (p *Param[T]) Set(v T) {
	p.Apply(v, OriginLocal)
}

// Apply writes v and notifies listeners with the given origin.
func (p *Param[T]) Apply(v T, origin Origin) {
	p.value = v
	p.notify(origin)
}

func (p *Param[T]) notify(origin Origin) {
	c := Change{Param: p, Origin: origin}
	for _, l := range p.listeners {
		l(c)
	}
}

// Subscribe adds a listener.
func (p *Param[T]) Subscribe(l Listener) {
	p.listeners = append(p.listeners, l)
}

func (p *Param[T]) CopyValue(other Parameter, origin Origin) error {
	o, ok := other.(*Param[T])
	if !ok {
		return fmt.Errorf("%w: cannot copy %s into %s parameter %q",
			ErrTypeMismatch, other.Type(), p.Type(), p.name)
	}
	p.Apply(o.value, origin)
	return nil
}

func (p *Param[T]) Reset(origin Origin) {
	p.Apply(p.initial, origin)
}

func (p *Param[T]) Snapshot() Parameter {
	return &Param[T]{
		id:       p.id,
		parentID: p.parentID,
		name:     p.name,
		value:    p.value,
		initial:  p.initial,
	}
}

func (p *Param[T]) WriteValue(w *wire.Writer) {
	writeValue(w, p.value)
}

func (p *Param[T]) ReadValue(r *wire.Reader, origin Origin) error {
	v := readValue[T](r)
	if err := r.Err(); err != nil {
		return fmt.Errorf("reading %s parameter %q: %w", p.Type(), p.name, err)
	}
	p.Apply(v, origin)
	return nil
}

// String formats the parameter as name=value.
func (p *Param[T]) String() string {
	return fmt.Sprintf("%s=%v", p.name, p.value)
}

// TypeOf returns the type tag of T.
func TypeOf[T Value]() ValueType {
	var zero T
	switch any(zero).(type) {
	case bool:
		return TypeBool
	case int32:
		return TypeInt
	case float32:
		return TypeFloat
	case string:
		return TypeString
	case Color:
		return TypeColor
	case mgl32.Vec2:
		return TypeVector2
	case mgl32.Vec3:
		return TypeVector3
	case mgl32.Vec4:
		return TypeVector4
	case mgl32.Quat:
		return TypeQuaternion
	}
	panic("param: unhandled value type")
}

func writeValue(w *wire.Writer, v any) {
	switch v := v.(type) {
	case bool:
		w.Bool(v)
	case int32:
		w.Int32(v)
	case float32:
		w.Float32(v)
	case string:
		w.ASCII(v)
	case Color:
		w.Vec4(mgl32.Vec4(v))
	case mgl32.Vec2:
		w.Vec2(v)
	case mgl32.Vec3:
		w.Vec3(v)
	case mgl32.Vec4:
		w.Vec4(v)
	case mgl32.Quat:
		w.Quat(v)
	default:
		panic(fmt.Sprintf("param: unhandled value type %T", v))
	}
}

func readValue[T Value](r *wire.Reader) T {
	var v T
	switch p := any(&v).(type) {
	case *bool:
		*p = r.Bool()
	case *int32:
		*p = r.Int32()
	case *float32:
		*p = r.Float32()
	case *string:
		*p = r.ASCII()
	case *Color:
		*p = Color(r.Vec4())
	case *mgl32.Vec2:
		*p = r.Vec2()
	case *mgl32.Vec3:
		*p = r.Vec3()
	case *mgl32.Vec4:
		*p = r.Vec4()
	case *mgl32.Quat:
		*p = r.Quat()
	}
	return v
}
