package utils

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/config"
)

// Cursor is a seekable little-endian reader and writer over a single byte buffer.
// Errors are sticky: after the first failure every read returns a zero value,
// every write is dropped and Err reports the cause.
type Cursor struct {
	buf []byte
	pos int
	err error
	pad byte
}

// NewCursor wraps buf for reading.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf, pad: config.GetCodec().AlignPad}
}

// NewWriter returns an empty growable cursor.
func NewWriter() *Cursor {
	return &Cursor{buf: make([]byte, 0, 0x1000), pad: config.GetCodec().AlignPad}
}

func (c *Cursor) Err() error   { return c.err }
func (c *Cursor) Bytes() []byte { return c.buf }
func (c *Cursor) Len() int      { return len(c.buf) }
func (c *Cursor) Tell() int     { return c.pos }

func (c *Cursor) Remaining() int {
	if c.pos > len(c.buf) {
		return 0
	}
	return len(c.buf) - c.pos
}

func (c *Cursor) String() string {
	return fmt.Sprintf("cursor[pos:0x%x,len:0x%x]", c.pos, len(c.buf))
}

// Fail records err unless an error is already set. Returns the sticky error.
func (c *Cursor) Fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return c.err
}

func (c *Cursor) Failf(kind error, format string, args ...interface{}) error {
	return c.Fail(errors.Wrapf(kind, format+" at 0x%x", append(args, c.pos)...))
}

func (c *Cursor) Seek(pos int) {
	if c.err != nil {
		return
	}
	if pos < 0 || pos > len(c.buf) {
		c.Failf(ErrUnexpectedEndOfStream, "seek to 0x%x outside of 0x%x bytes", pos, len(c.buf))
		return
	}
	c.pos = pos
}

func (c *Cursor) SeekBy(delta int) {
	c.Seek(c.pos + delta)
}

// Need checks that count elements of elemSize bytes can still be read.
// Counts taken from the stream go through here before anything is allocated.
func (c *Cursor) Need(count, elemSize int) bool {
	if c.err != nil {
		return false
	}
	if count < 0 || (elemSize > 0 && count > c.Remaining()/elemSize) {
		c.Failf(ErrUnexpectedEndOfStream, "need %d elements of %d bytes, have 0x%x bytes", count, elemSize, c.Remaining())
		return false
	}
	return true
}

func (c *Cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.Remaining() < n {
		c.Failf(ErrUnexpectedEndOfStream, "read of %d bytes", n)
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

// Read returns a copy of the next n bytes.
func (c *Cursor) Read(n int) []byte {
	b := c.take(n)
	if b == nil {
		return nil
	}
	r := make([]byte, n)
	copy(r, b)
	return r
}

func (c *Cursor) Skip(n int) {
	c.take(n)
}

func (c *Cursor) U8() uint8 {
	if b := c.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (c *Cursor) I8() int8 { return int8(c.U8()) }

func (c *Cursor) U16() uint16 {
	if b := c.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (c *Cursor) I16() int16 { return int16(c.U16()) }

func (c *Cursor) U32() uint32 {
	if b := c.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (c *Cursor) I32() int32 { return int32(c.U32()) }

// I32BE is only used by the cooked mid-phase trees inside ALOC.
func (c *Cursor) I32BE() int32 {
	if b := c.take(4); b != nil {
		return int32(binary.BigEndian.Uint32(b))
	}
	return 0
}

func (c *Cursor) U64() uint64 {
	if b := c.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (c *Cursor) I64() int64 { return int64(c.U64()) }

func (c *Cursor) F32() float32 {
	return math.Float32frombits(c.U32())
}

// Offset32 reads an u32 offset and verifies it points inside the buffer.
func (c *Cursor) Offset32() int {
	off := int(c.U32())
	if c.err == nil && off > len(c.buf) {
		c.Failf(ErrStructuralMismatch, "offset 0x%x outside of 0x%x bytes", off, len(c.buf))
	}
	return off
}

// Offset64 is Offset32 for u64 offsets.
func (c *Cursor) Offset64() int {
	off := c.U64()
	if c.err == nil && off > uint64(len(c.buf)) {
		c.Failf(ErrStructuralMismatch, "offset 0x%x outside of 0x%x bytes", off, len(c.buf))
		return 0
	}
	return int(off)
}

// ReadFixedVec reads n elements in order using elem.
func ReadFixedVec[T any](c *Cursor, n int, elem func(*Cursor) T) []T {
	r := make([]T, 0, n)
	for i := 0; i < n && c.err == nil; i++ {
		r = append(r, elem(c))
	}
	return r
}

func (c *Cursor) F32s(n int) []float32 {
	if !c.Need(n, 4) {
		return nil
	}
	return ReadFixedVec(c, n, (*Cursor).F32)
}

func (c *Cursor) U16s(n int) []uint16 {
	if !c.Need(n, 2) {
		return nil
	}
	return ReadFixedVec(c, n, (*Cursor).U16)
}

func (c *Cursor) I16s(n int) []int16 {
	if !c.Need(n, 2) {
		return nil
	}
	return ReadFixedVec(c, n, (*Cursor).I16)
}

func (c *Cursor) U32s(n int) []uint32 {
	if !c.Need(n, 4) {
		return nil
	}
	return ReadFixedVec(c, n, (*Cursor).U32)
}

func (c *Cursor) I32s(n int) []int32 {
	if !c.Need(n, 4) {
		return nil
	}
	return ReadFixedVec(c, n, (*Cursor).I32)
}

func (c *Cursor) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{c.F32(), c.F32(), c.F32()}
}

func (c *Cursor) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.F32(), c.F32(), c.F32(), c.F32()}
}

// Quat reads a quaternion stored as x, y, z, w.
func (c *Cursor) Quat() mgl32.Quat {
	v := c.Vec4()
	return mgl32.Quat{W: v[3], V: v.Vec3()}
}

// ReadQuantizedI16Vec reads len(scale) signed 16 bit values as raw*scale/32767+bias.
func (c *Cursor) ReadQuantizedI16Vec(scale, bias []float32) []float32 {
	r := make([]float32, len(scale))
	for i := range r {
		r[i] = DequantizeI16(c.I16(), scale[i], bias[i])
	}
	return r
}

// ReadUnitU8Vec reads n bytes mapped onto [-1, 1].
func (c *Cursor) ReadUnitU8Vec(n int) []float32 {
	r := make([]float32, n)
	for i := range r {
		r[i] = DecodeUnitU8(c.U8())
	}
	return r
}

// ReadBitPackedBoolArray reads byteCount bytes, bit i of byte b is index b*8+i.
func (c *Cursor) ReadBitPackedBoolArray(byteCount int) (setCount int, bits []bool) {
	raw := c.take(byteCount)
	if raw == nil {
		return 0, nil
	}
	return UnpackBools(raw)
}

// ReadCString reads until NUL. The terminator is consumed but not returned.
func (c *Cursor) ReadCString() string {
	if c.err != nil {
		return ""
	}
	start := c.pos
	for i := start; i < len(c.buf); i++ {
		if c.buf[i] == 0 {
			c.pos = i + 1
			return BytesToString(c.buf[start:i])
		}
	}
	c.Failf(ErrUnexpectedEndOfStream, "unterminated string")
	return ""
}

// ReadFixedString always advances n bytes, the string ends at the first NUL.
func (c *Cursor) ReadFixedString(n int) string {
	if b := c.take(n); b != nil {
		return BytesToString(b)
	}
	return ""
}

// ExpectTag reads len(tag) bytes and fails with ErrStructuralMismatch if they differ.
func (c *Cursor) ExpectTag(tag string) bool {
	got := c.take(len(tag))
	if got == nil {
		return false
	}
	if string(got) != tag {
		c.Failf(ErrStructuralMismatch, "expected tag %q, got %q", tag, PrintableBytes(got))
		return false
	}
	return true
}

// AlignRead skips to the next multiple of boundary.
func (c *Cursor) AlignRead(boundary int) {
	if rem := c.pos % boundary; rem != 0 {
		c.Skip(boundary - rem)
	}
}
