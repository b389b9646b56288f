package utils

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorFixedWidth(t *testing.T) {
	w := NewWriter()
	w.WriteU8(0xfe)
	w.WriteI8(-2)
	w.WriteU16(0xbeef)
	w.WriteI16(-1234)
	w.WriteU32(0xdeadbeef)
	w.WriteI32(-7)
	w.WriteI32BE(1)
	w.WriteU64(0x0102030405060708)
	w.WriteI64(-9)
	w.WriteF32(1.5)
	require.NoError(t, w.Err())

	assert.Equal(t, []byte{0, 0, 0, 1}, w.Bytes()[14:18], "big endian i32")

	r := NewCursor(w.Bytes())
	assert.Equal(t, uint8(0xfe), r.U8())
	assert.Equal(t, int8(-2), r.I8())
	assert.Equal(t, uint16(0xbeef), r.U16())
	assert.Equal(t, int16(-1234), r.I16())
	assert.Equal(t, uint32(0xdeadbeef), r.U32())
	assert.Equal(t, int32(-7), r.I32())
	assert.Equal(t, int32(1), r.I32BE())
	assert.Equal(t, uint64(0x0102030405060708), r.U64())
	assert.Equal(t, int64(-9), r.I64())
	assert.Equal(t, float32(1.5), r.F32())
	assert.Equal(t, 0, r.Remaining())
	require.NoError(t, r.Err())
}

func TestCursorUnexpectedEnd(t *testing.T) {
	r := NewCursor([]byte{1, 2, 3})
	assert.Equal(t, uint32(0), r.U32())
	assert.True(t, errors.Is(r.Err(), ErrUnexpectedEndOfStream))

	// sticky
	assert.Equal(t, uint8(0), r.U8())
	assert.Equal(t, 0, r.Tell())

	r = NewCursor([]byte{1, 2, 3})
	r.Seek(4)
	assert.True(t, errors.Is(r.Err(), ErrUnexpectedEndOfStream))

	r = NewCursor([]byte{0xff, 0xff, 0xff, 0x7f})
	n := int(r.U32())
	assert.False(t, r.Need(n, 4))
	assert.True(t, errors.Is(r.Err(), ErrUnexpectedEndOfStream))
}

func TestCursorSeekPatch(t *testing.T) {
	w := NewWriter()
	w.WriteU64(420)
	w.WriteU64(0)
	hdr := w.Tell()
	w.WriteU32(0xaabbccdd)
	w.PatchU64At(0, uint64(hdr))
	require.NoError(t, w.Err())

	r := NewCursor(w.Bytes())
	r.Seek(r.Offset64())
	assert.Equal(t, uint32(0xaabbccdd), r.U32())
	r.SeekBy(-4)
	assert.Equal(t, hdr, r.Tell())
}

func TestCursorStrings(t *testing.T) {
	w := NewWriter()
	w.WriteCString("pelvis")
	w.WriteCString("")
	w.WriteFixedString("head", 8)
	w.WriteFixedString("a_very_long_name", 4)
	require.NoError(t, w.Err())
	assert.Equal(t, 7+1+8+4, w.Len())

	r := NewCursor(w.Bytes())
	assert.Equal(t, "pelvis", r.ReadCString())
	assert.Equal(t, "", r.ReadCString())
	assert.Equal(t, "head", r.ReadFixedString(8))
	assert.Equal(t, "a_ve", r.ReadFixedString(4))
	assert.Equal(t, 0, r.Remaining())

	r = NewCursor([]byte("abc"))
	r.ReadCString()
	assert.True(t, errors.Is(r.Err(), ErrUnexpectedEndOfStream))
}

func TestCursorAlign(t *testing.T) {
	w := NewWriter()
	w.WriteU8(1)
	w.AlignWith(16, 0xCD)
	assert.Equal(t, 16, w.Len())
	assert.Equal(t, byte(0xCD), w.Bytes()[15])
	w.Align(16)
	assert.Equal(t, 16, w.Len(), "aligned cursor must not pad")

	r := NewCursor(w.Bytes())
	r.U8()
	r.AlignRead(16)
	assert.Equal(t, 16, r.Tell())
}

func TestCursorBitPackedBoolArray(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for n := 1; n <= 64; n++ {
		bits := make([]bool, n)
		for i := range bits {
			bits[i] = rnd.Intn(2) == 1
		}
		byteCount := (n + 7) / 8

		w := NewWriter()
		w.WriteBitPackedBoolArray(bits, byteCount)
		require.NoError(t, w.Err())

		setCount, got := NewCursor(w.Bytes()).ReadBitPackedBoolArray(byteCount)
		if !assert.Equal(t, bits, got[:n], "n=%d", n) {
			t.Log(SDump(w.Bytes()))
		}
		assert.Equal(t, PopCount(bits), setCount, "n=%d", n)
		for _, b := range got[n:] {
			assert.False(t, b)
		}
	}
}

func TestCursorBitOrder(t *testing.T) {
	_, bits := NewCursor([]byte{0x01, 0x80}).ReadBitPackedBoolArray(2)
	for i, b := range bits {
		assert.Equal(t, i == 0 || i == 15, b, "bit %d", i)
	}
}

func TestCursorFixedVec(t *testing.T) {
	w := NewWriter()
	w.WriteU16s([]uint16{1, 2, 3})
	r := NewCursor(w.Bytes())
	assert.Equal(t, []uint16{1, 2, 3}, ReadFixedVec(r, 3, (*Cursor).U16))
}
