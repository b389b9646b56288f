package utils

import (
	"math/bits"

	"github.com/chewxy/math32"
)

const (
	I16QuantMax  = 32767
	U16QuantMax  = 65535
	U8QuantMax   = 255
	weightQuants = 255
)

func DequantizeI16(raw int16, scale, bias float32) float32 {
	return float32(raw)*scale/I16QuantMax + bias
}

// QuantizeI16 saturates to ±32767. A zero scale encodes every value as 0.
func QuantizeI16(v, scale, bias float32) int16 {
	if scale == 0 {
		return 0
	}
	q := math32.Round((v - bias) * I16QuantMax / scale)
	if math32.IsNaN(q) {
		return 0
	}
	return int16(clamp(q, -I16QuantMax, I16QuantMax))
}

func DecodeUnitU8(raw uint8) float32 {
	return float32(raw)*2/U8QuantMax - 1
}

func EncodeUnitU8(v float32) uint8 {
	return uint8(clamp(math32.Round((v+1)*U8QuantMax/2), 0, U8QuantMax))
}

// DecodeNormU16 maps the full u16 range onto [-1, 1].
func DecodeNormU16(raw uint16) float32 {
	return float32(raw)*2/U16QuantMax - 1
}

func EncodeNormU16(v float32) uint16 {
	return uint16(clamp(math32.Round((v+1)*U16QuantMax/2), 0, U16QuantMax))
}

func DecodeWeight(raw uint8) float32 {
	return float32(raw) / weightQuants
}

func EncodeWeight(w float32) uint8 {
	return uint8(clamp(math32.Round(w*weightQuants), 0, weightQuants))
}

// QuantizeU8Range maps v from [min, max] onto 0..255, degenerate ranges give 0.
func QuantizeU8Range(v, min, max float32) uint8 {
	d := max - min
	if d == 0 {
		return 0
	}
	return uint8(clamp(math32.Round(U8QuantMax*(v-min)/d), 0, U8QuantMax))
}

func clamp(v, lo, hi float32) float32 {
	if math32.IsNaN(v) {
		return lo
	}
	return math32.Min(math32.Max(v, lo), hi)
}

// UnpackBools expands raw LSB first: bit i of byte b is index b*8+i.
func UnpackBools(raw []byte) (setCount int, out []bool) {
	out = make([]bool, len(raw)*8)
	for b, v := range raw {
		setCount += bits.OnesCount8(v)
		for i := 0; i < 8; i++ {
			out[b*8+i] = v&(1<<uint(i)) != 0
		}
	}
	return setCount, out
}

func PackBools(in []bool, byteCount int) []byte {
	raw := make([]byte, byteCount)
	for i, set := range in {
		if set && i/8 < byteCount {
			raw[i/8] |= 1 << uint(i%8)
		}
	}
	return raw
}

func PopCount(in []bool) int {
	n := 0
	for _, b := range in {
		if b {
			n++
		}
	}
	return n
}
