package utils

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// put writes b at the current position, overwriting or growing the buffer.
func (c *Cursor) put(b []byte) {
	if c.err != nil {
		return
	}
	end := c.pos + len(b)
	if end > len(c.buf) {
		if end > cap(c.buf) {
			nb := make([]byte, len(c.buf), end*2)
			copy(nb, c.buf)
			c.buf = nb
		}
		c.buf = c.buf[:end]
	}
	copy(c.buf[c.pos:], b)
	c.pos = end
}

func (c *Cursor) Write(b []byte) { c.put(b) }

func (c *Cursor) WriteZeros(n int) {
	if n > 0 {
		c.put(make([]byte, n))
	}
}

func (c *Cursor) WriteU8(v uint8) { c.put([]byte{v}) }
func (c *Cursor) WriteI8(v int8)  { c.WriteU8(uint8(v)) }

func (c *Cursor) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	c.put(b[:])
}

func (c *Cursor) WriteI16(v int16) { c.WriteU16(uint16(v)) }

func (c *Cursor) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	c.put(b[:])
}

func (c *Cursor) WriteI32(v int32) { c.WriteU32(uint32(v)) }

func (c *Cursor) WriteI32BE(v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	c.put(b[:])
}

func (c *Cursor) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	c.put(b[:])
}

func (c *Cursor) WriteI64(v int64) { c.WriteU64(uint64(v)) }

func (c *Cursor) WriteF32(v float32) { c.WriteU32(math.Float32bits(v)) }

func (c *Cursor) WriteF32s(vs []float32) {
	for _, v := range vs {
		c.WriteF32(v)
	}
}

func (c *Cursor) WriteU16s(vs []uint16) {
	for _, v := range vs {
		c.WriteU16(v)
	}
}

func (c *Cursor) WriteI16s(vs []int16) {
	for _, v := range vs {
		c.WriteI16(v)
	}
}

func (c *Cursor) WriteU32s(vs []uint32) {
	for _, v := range vs {
		c.WriteU32(v)
	}
}

func (c *Cursor) WriteI32s(vs []int32) {
	for _, v := range vs {
		c.WriteI32(v)
	}
}

func (c *Cursor) WriteVec3(v mgl32.Vec3) { c.WriteF32s(v[:]) }
func (c *Cursor) WriteVec4(v mgl32.Vec4) { c.WriteF32s(v[:]) }

func (c *Cursor) WriteQuat(q mgl32.Quat) {
	c.WriteVec3(q.V)
	c.WriteF32(q.W)
}

// PatchU32At overwrites an already written u32 without moving the cursor.
func (c *Cursor) PatchU32At(pos int, v uint32) {
	if c.err != nil {
		return
	}
	if pos < 0 || pos+4 > len(c.buf) {
		c.Failf(ErrStructuralMismatch, "patch at 0x%x outside of written data", pos)
		return
	}
	binary.LittleEndian.PutUint32(c.buf[pos:], v)
}

func (c *Cursor) PatchU64At(pos int, v uint64) {
	if c.err != nil {
		return
	}
	if pos < 0 || pos+8 > len(c.buf) {
		c.Failf(ErrStructuralMismatch, "patch at 0x%x outside of written data", pos)
		return
	}
	binary.LittleEndian.PutUint64(c.buf[pos:], v)
}

func (c *Cursor) WriteQuantizedI16Vec(v, scale, bias []float32) {
	for i := range scale {
		c.WriteI16(QuantizeI16(v[i], scale[i], bias[i]))
	}
}

func (c *Cursor) WriteUnitU8Vec(v []float32) {
	for _, f := range v {
		c.WriteU8(EncodeUnitU8(f))
	}
}

// WriteBitPackedBoolArray is the inverse of ReadBitPackedBoolArray.
// Bits beyond byteCount*8 are an error, missing bits are written as zero.
func (c *Cursor) WriteBitPackedBoolArray(bits []bool, byteCount int) {
	if len(bits) > byteCount*8 {
		c.Failf(ErrStructuralMismatch, "%d bits do not fit in %d bytes", len(bits), byteCount)
		return
	}
	c.put(PackBools(bits, byteCount))
}

// WriteCString writes s followed by NUL, also for empty strings.
func (c *Cursor) WriteCString(s string) {
	c.put(StringToBytes(s, true))
}

// WriteFixedString writes s NUL padded to exactly n bytes.
func (c *Cursor) WriteFixedString(s string, n int) {
	b := StringToBytes(s, false)
	if len(b) > n {
		b = b[:n]
	}
	c.put(b)
	c.WriteZeros(n - len(b))
}

// Align pads with the configured pad byte until Tell()%boundary == 0.
func (c *Cursor) Align(boundary int) {
	c.AlignWith(boundary, c.pad)
}

func (c *Cursor) AlignWith(boundary int, pad byte) {
	rem := c.pos % boundary
	if rem == 0 {
		return
	}
	b := make([]byte, boundary-rem)
	for i := range b {
		b[i] = pad
	}
	c.put(b)
}
