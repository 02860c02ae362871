// Package wire provides the fixed-width binary primitives shared by the scene
// codec and the update messages.
//
// Every integer is an int32 and every float a float32, both little-endian.
// Booleans travel as int32 0/1. Variable-length arrays are prefixed with an
// int32 element count.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/vpet-sync/pkg/encoding"
)

// WordSize is the byte width of every scalar on the wire.
const WordSize = 4

// ByteOrder is the byte order of every scalar on the wire.
var ByteOrder = binary.LittleEndian

// ErrFraming is returned when a buffer ends in the middle of a record or
// declares a length it cannot hold.
var ErrFraming = errors.New("framing error")

// Writer appends wire-encoded values to a growing buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Int32 writes a 4-byte integer.
func (w *Writer) Int32(v int32) {
	w.buf = ByteOrder.AppendUint32(w.buf, uint32(v))
}

// Float32 writes a 4-byte IEEE-754 float.
func (w *Writer) Float32(v float32) {
	w.buf = ByteOrder.AppendUint32(w.buf, math.Float32bits(v))
}

// Bool writes a boolean as an int32 0 or 1.
func (w *Writer) Bool(v bool) {
	if v {
		w.Int32(1)
		return
	}
	w.Int32(0)
}

// Vec2 writes two floats.
func (w *Writer) Vec2(v mgl32.Vec2) {
	w.Float32(v[0])
	w.Float32(v[1])
}

// Vec3 writes three floats.
func (w *Writer) Vec3(v mgl32.Vec3) {
	for _, f := range v {
		w.Float32(f)
	}
}

// Vec4 writes four floats.
func (w *Writer) Vec4(v mgl32.Vec4) {
	for _, f := range v {
		w.Float32(f)
	}
}

// Quat writes a quaternion as x, y, z, w.
func (w *Writer) Quat(q mgl32.Quat) {
	w.Vec3(q.V)
	w.Float32(q.W)
}

// Mat4 writes 16 floats in row-major order.
func (w *Writer) Mat4(m mgl32.Mat4) {
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			w.Float32(m.At(row, col))
		}
	}
}

// Fixed writes s as an ASCII buffer of exactly size bytes, padding with NUL.
// It returns true if s had to be truncated.
func (w *Writer) Fixed(s string, size int) bool {
	b, truncated := encoding.ToFixed(s, size)
	w.buf = append(w.buf, b...)
	return truncated
}

// Raw appends b without a length prefix.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// ByteArray writes a length-prefixed byte array.
func (w *Writer) ByteArray(b []byte) {
	w.Int32(int32(len(b)))
	w.buf = append(w.buf, b...)
}

// ASCII writes a length-prefixed ASCII string.
func (w *Writer) ASCII(s string) {
	w.ByteArray(encoding.ToASCII(s))
}

// Int32s writes a length-prefixed int32 array.
func (w *Writer) Int32s(v []int32) {
	w.Int32(int32(len(v)))
	for _, x := range v {
		w.Int32(x)
	}
}

// Float32s writes a length-prefixed float32 array.
func (w *Writer) Float32s(v []float32) {
	w.Int32(int32(len(v)))
	for _, x := range v {
		w.Float32(x)
	}
}

// Bools writes a length-prefixed boolean array.
func (w *Writer) Bools(v []bool) {
	w.Int32(int32(len(v)))
	for _, x := range v {
		w.Bool(x)
	}
}

// Reader consumes wire-encoded values from a buffer.
//
// The first short read records an error wrapping ErrFraming; every read after
// that returns a zero value. Callers check Err once at the end of a record.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader returns a reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Err returns the first framing error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Done reports whether the cursor reached the end of the buffer.
func (r *Reader) Done() bool {
	return r.off >= len(r.buf)
}

func (r *Reader) fail(need int) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrFraming, need, r.off, r.Remaining())
	}
}

// take returns the next n bytes, or nil after recording a framing error.
func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Remaining() {
		r.fail(n)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// count reads an element count and checks that count elements of elemSize
// bytes fit in the rest of the buffer.
func (r *Reader) count(elemSize int) int {
	n := r.Int32()
	if r.err != nil {
		return 0
	}
	if n < 0 {
		r.err = fmt.Errorf("%w: negative count %d at offset %d", ErrFraming, n, r.off-WordSize)
		return 0
	}
	if int64(n)*int64(elemSize) > int64(r.Remaining()) {
		r.fail(int(n) * elemSize)
		return 0
	}
	return int(n)
}

// Int32 reads a 4-byte integer.
func (r *Reader) Int32() int32 {
	b := r.take(WordSize)
	if b == nil {
		return 0
	}
	return int32(ByteOrder.Uint32(b))
}

// Float32 reads a 4-byte float.
func (r *Reader) Float32() float32 {
	b := r.take(WordSize)
	if b == nil {
		return 0
	}
	return math.Float32frombits(ByteOrder.Uint32(b))
}

// Bool reads an int32 boolean; any non-zero value is true.
func (r *Reader) Bool() bool {
	return r.Int32() != 0
}

// Vec2 reads two floats.
func (r *Reader) Vec2() mgl32.Vec2 {
	return mgl32.Vec2{r.Float32(), r.Float32()}
}

// Vec3 reads three floats.
func (r *Reader) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{r.Float32(), r.Float32(), r.Float32()}
}

// Vec4 reads four floats.
func (r *Reader) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{r.Float32(), r.Float32(), r.Float32(), r.Float32()}
}

// Quat reads a quaternion stored as x, y, z, w.
func (r *Reader) Quat() mgl32.Quat {
	v := r.Vec3()
	return mgl32.Quat{W: r.Float32(), V: v}
}

// Mat4 reads 16 row-major floats.
func (r *Reader) Mat4() mgl32.Mat4 {
	var m mgl32.Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m.Set(row, col, r.Float32())
		}
	}
	return m
}

// Fixed reads a size-byte NUL-padded ASCII buffer.
func (r *Reader) Fixed(size int) string {
	b := r.take(size)
	if b == nil {
		return ""
	}
	return encoding.FromFixed(b)
}

// Raw reads n bytes without a length prefix. The result is a copy; an empty
// read returns nil.
func (r *Reader) Raw(n int) []byte {
	b := r.take(n)
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// ByteArray reads a length-prefixed byte array.
func (r *Reader) ByteArray() []byte {
	n := r.count(1)
	return r.Raw(n)
}

// ASCII reads a length-prefixed ASCII string.
func (r *Reader) ASCII() string {
	n := r.count(1)
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// Int32s reads a length-prefixed int32 array.
func (r *Reader) Int32s() []int32 {
	n := r.count(WordSize)
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = r.Int32()
	}
	return out
}

// Float32s reads a length-prefixed float32 array.
func (r *Reader) Float32s() []float32 {
	n := r.count(WordSize)
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = r.Float32()
	}
	return out
}

// Bools reads a length-prefixed boolean array.
func (r *Reader) Bools() []bool {
	n := r.count(WordSize)
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = r.Bool()
	}
	return out
}

// Count reads an element count for elements of elemSize bytes, validating it
// against the remaining buffer. Used by callers that decode structured arrays.
func (r *Reader) Count(elemSize int) int {
	return r.count(elemSize)
}
