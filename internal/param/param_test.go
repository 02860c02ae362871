package param

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/vpet-sync/pkg/wire"
)

func TestParamSetNotifies(t *testing.T) {
	p := New[float32](3, 1, "intensity", 1)

	var changes []Change
	p.Subscribe(func(c Change) { changes = append(changes, c) })

	p.Set(2.5)
	p.Apply(4, OriginRemote)

	if p.Get() != 4 {
		t.Errorf("expected 4, got %f", p.Get())
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(changes))
	}
	if changes[0].Origin != OriginLocal || changes[1].Origin != OriginRemote {
		t.Errorf("unexpected origins: %v, %v", changes[0].Origin, changes[1].Origin)
	}
	if changes[0].Param != p {
		t.Error("change should reference the parameter")
	}
}

func TestParamReset(t *testing.T) {
	p := New(0, 0, "position", mgl32.Vec3{1, 2, 3})
	p.Set(mgl32.Vec3{9, 9, 9})

	var origin Origin = -1
	p.Subscribe(func(c Change) { origin = c.Origin })
	p.Reset(OriginReset)

	if p.Get() != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("expected creation value, got %v", p.Get())
	}
	if origin != OriginReset {
		t.Errorf("expected reset origin, got %v", origin)
	}
}

func TestParamCopyValue(t *testing.T) {
	dst := New[float32](1, 0, "fov", 60)
	src := New[float32](1, 0, "fov", 45)

	if err := dst.CopyValue(src, OriginHistory); err != nil {
		t.Fatal(err)
	}
	if dst.Get() != 45 {
		t.Errorf("expected 45, got %f", dst.Get())
	}

	wrong := New[int32](1, 0, "fov", 10)
	err := dst.CopyValue(wrong, OriginHistory)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
	if dst.Get() != 45 {
		t.Error("mismatched copy must not change the value")
	}
}

func TestParamColorIsNotVector4(t *testing.T) {
	c := New(0, 0, "color", Color{1, 0, 0, 1})
	v := New(0, 0, "color", mgl32.Vec4{1, 0, 0, 1})

	if c.Type() != TypeColor || v.Type() != TypeVector4 {
		t.Errorf("unexpected types %s, %s", c.Type(), v.Type())
	}
	if err := c.CopyValue(v, OriginLocal); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestParamSnapshotDetached(t *testing.T) {
	p := New[int32](2, 4, "count", 0)
	p.Set(7)

	called := false
	p.Subscribe(func(Change) { called = true })

	snap := p.Snapshot()
	p.Set(8)
	called = false

	if snap.Value() != int32(7) {
		t.Errorf("snapshot should keep 7, got %v", snap.Value())
	}
	if snap.ID() != 4 || snap.ParentID() != 2 || snap.Name() != "count" {
		t.Error("snapshot should keep identity")
	}

	snap.Reset(OriginReset)
	if called {
		t.Error("snapshot must not notify the live parameter's listeners")
	}
	if p.Get() != 8 {
		t.Error("resetting a snapshot must not touch the live parameter")
	}
}

func TestValueRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  Parameter
		dst  Parameter
		size int
	}{
		{"bool", New(0, 0, "b", true), New(0, 0, "b", false), 4},
		{"int", New[int32](0, 0, "i", -42), New[int32](0, 0, "i", 0), 4},
		{"float", New[float32](0, 0, "f", 3.5), New[float32](0, 0, "f", 0), 4},
		{"string", New(0, 0, "s", "hello"), New(0, 0, "s", ""), 4 + 5},
		{"color", New(0, 0, "c", Color{1, 0.5, 0.25, 1}), New(0, 0, "c", Color{}), 16},
		{"vector2", New(0, 0, "v2", mgl32.Vec2{1, 2}), New(0, 0, "v2", mgl32.Vec2{}), 8},
		{"vector3", New(0, 0, "v3", mgl32.Vec3{1, 2, 3}), New(0, 0, "v3", mgl32.Vec3{}), 12},
		{"vector4", New(0, 0, "v4", mgl32.Vec4{1, 2, 3, 4}), New(0, 0, "v4", mgl32.Vec4{}), 16},
		{"quaternion", New(0, 0, "q", mgl32.QuatRotate(1, mgl32.Vec3{0, 1, 0})), New(0, 0, "q", mgl32.QuatIdent()), 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := wire.NewWriter(0)
			tt.src.WriteValue(w)
			if w.Len() != tt.size {
				t.Errorf("expected %d bytes, got %d", tt.size, w.Len())
			}

			r := wire.NewReader(w.Bytes())
			if err := tt.dst.ReadValue(r, OriginRemote); err != nil {
				t.Fatal(err)
			}
			if !r.Done() {
				t.Errorf("%d bytes left unread", r.Remaining())
			}
			if tt.dst.Value() != tt.src.Value() {
				t.Errorf("expected %v, got %v", tt.src.Value(), tt.dst.Value())
			}
		})
	}
}

func TestReadValueTruncated(t *testing.T) {
	p := New(0, 0, "position", mgl32.Vec3{1, 1, 1})
	notified := false
	p.Subscribe(func(Change) { notified = true })

	err := p.ReadValue(wire.NewReader([]byte{0, 0, 0, 0, 0, 0}), OriginRemote)
	if !errors.Is(err, wire.ErrFraming) {
		t.Errorf("expected framing error, got %v", err)
	}
	if p.Get() != (mgl32.Vec3{1, 1, 1}) || notified {
		t.Error("failed read must not apply a value")
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		got  ValueType
		want ValueType
	}{
		{TypeOf[bool](), TypeBool},
		{TypeOf[int32](), TypeInt},
		{TypeOf[float32](), TypeFloat},
		{TypeOf[string](), TypeString},
		{TypeOf[Color](), TypeColor},
		{TypeOf[mgl32.Vec2](), TypeVector2},
		{TypeOf[mgl32.Vec3](), TypeVector3},
		{TypeOf[mgl32.Vec4](), TypeVector4},
		{TypeOf[mgl32.Quat](), TypeQuaternion},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %s, got %s", tt.want, tt.got)
		}
	}
	if ValueType(42).String() != "Unknown(42)" {
		t.Errorf("unexpected name %q", ValueType(42).String())
	}
}
