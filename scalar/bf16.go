package scalar

import (
	"math"
	"unsafe"
)

// BF16 is the raw bfloat16 bit-pattern: the upper half of an IEEE-754
// binary32 value (1 sign bit, 8 exponent bits, 7 fraction bits).
type BF16 uint16

var (
	_ [unsafe.Sizeof(BF16(0)) - unsafe.Sizeof(int16(0))]struct{}
	_ [unsafe.Sizeof(int16(0)) - unsafe.Sizeof(BF16(0))]struct{}
	_ [unsafe.Alignof(BF16(0)) - unsafe.Alignof(int16(0))]struct{}
)

// Float32 widens a bfloat16 bit-pattern to float32. The conversion is exact.
func (b BF16) Float32() float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// BF16FromFloat32 narrows a float32 to bfloat16 with round-to-nearest-even.
// NaN inputs stay NaN.
func BF16FromFloat32(f float32) BF16 {
	bits := math.Float32bits(f)
	if bits&0x7F800000 == 0x7F800000 && bits&0x007FFFFF != 0 {
		return BF16(bits>>16) | 0x0040
	}
	rounding := uint32(0x7FFF) + ((bits >> 16) & 1)
	return BF16((bits + rounding) >> 16)
}

// BF16sFromInt16s reinterprets a slice of int16 bit-patterns as BF16.
// The returned slice aliases s.
func BF16sFromInt16s(s []int16) []BF16 {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*BF16)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}

// BF16sToInt16s reinterprets a slice of BF16 as int16 bit-patterns.
// The returned slice aliases s.
func BF16sToInt16s(s []BF16) []int16 {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*int16)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}

// EncodeBF16 converts src into dst. dst must have length >= len(src).
func EncodeBF16(dst []BF16, src []float32) {
	for i := range src {
		dst[i] = BF16FromFloat32(src[i])
	}
}

// DecodeBF16 converts src into dst. dst must have length >= len(src).
func DecodeBF16(dst []float32, src []BF16) {
	for i := range src {
		dst[i] = src[i].Float32()
	}
}
