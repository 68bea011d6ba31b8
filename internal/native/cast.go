package native

import (
	"math"

	"github.com/hupe1980/typedann/internal/conv"
	"github.com/hupe1980/typedann/scalar"
)

// decode widens an encoded vector of dims elements into dst.
func decode(kind ScalarKind, src []byte, dst []float32) {
	switch kind {
	case ScalarF32:
		copy(dst, conv.Slice[float32](src))
	case ScalarF64:
		for i, v := range conv.Slice[float64](src)[:len(dst)] {
			dst[i] = float32(v)
		}
	case ScalarF16:
		scalar.DecodeF16(dst, conv.Slice[scalar.F16](src))
	case ScalarBF16:
		scalar.DecodeBF16(dst, conv.Slice[scalar.BF16](src))
	case ScalarI8:
		for i := range dst {
			dst[i] = float32(int8(src[i])) / 127
		}
	case ScalarB1:
		for i := range dst {
			if src[i/8]&(0x80>>(i%8)) != 0 {
				dst[i] = 1
			} else {
				dst[i] = 0
			}
		}
	}
}

// encode narrows src into dst using the layout of kind.
func encode(kind ScalarKind, src []float32, dst []byte) {
	switch kind {
	case ScalarF32:
		copy(conv.Slice[float32](dst), src)
	case ScalarF64:
		out := conv.Slice[float64](dst)
		for i, v := range src {
			out[i] = float64(v)
		}
	case ScalarF16:
		scalar.EncodeF16(conv.Slice[scalar.F16](dst), src)
	case ScalarBF16:
		scalar.EncodeBF16(conv.Slice[scalar.BF16](dst), src)
	case ScalarI8:
		for i, v := range src {
			q := math.Round(float64(v) * 127)
			dst[i] = byte(int8(max(-127, min(127, q))))
		}
	case ScalarB1:
		clear(dst)
		for i, v := range src {
			if v > 0 {
				dst[i/8] |= 0x80 >> (i % 8)
			}
		}
	}
}

// convert re-encodes src from one layout to another.
func convert(from ScalarKind, src []byte, to ScalarKind, dims int) []byte {
	tmp := make([]float32, dims)
	decode(from, src, tmp)
	out := make([]byte, to.VectorBytes(dims))
	encode(to, tmp, out)
	return out
}
