package scalar

import (
	"math"
	"unsafe"
)

// F16 is the raw IEEE-754 binary16 bit-pattern.
//
// Layout:
//
//	sign: 1 bit
//	exp:  5 bits (bias 15)
//	frac: 10 bits
type F16 uint16

// Compile-time layout equality with int16.
var (
	_ [unsafe.Sizeof(F16(0)) - unsafe.Sizeof(int16(0))]struct{}
	_ [unsafe.Sizeof(int16(0)) - unsafe.Sizeof(F16(0))]struct{}
	_ [unsafe.Alignof(F16(0)) - unsafe.Alignof(int16(0))]struct{}
)

const (
	signMask F16 = 0x8000
	expMask  F16 = 0x7C00
	fracMask F16 = 0x03FF

	f32ExpMask  uint32 = 0x7F800000
	f32FracMask uint32 = 0x007FFFFF
)

// Float32 converts a binary16 bit-pattern to float32. The conversion is exact.
func (h F16) Float32() float32 {
	sign := uint32(h&signMask) << 16
	exp := uint32(h&expMask) >> 10
	frac := uint32(h & fracMask)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: half subnormals have an exponent of -14 and no implicit
		// leading 1, so normalize into a float32 normal.
		e := int32(-14)
		m := frac
		for (m & 0x0400) == 0 {
			m <<= 1
			e--
		}
		m &= 0x03FF
		return math.Float32frombits(sign | uint32(int32(127)+e)<<23 | m<<13)
	case 0x1F:
		if frac == 0 {
			return math.Float32frombits(sign | f32ExpMask)
		}
		return math.Float32frombits(sign | f32ExpMask | (frac << 13))
	default:
		return math.Float32frombits(sign | uint32(int32(exp)-15+127)<<23 | frac<<13)
	}
}

// F16FromFloat32 converts a float32 value into a binary16 bit-pattern.
//
// Rounding mode: round-to-nearest, ties-to-even.
func F16FromFloat32(f float32) F16 {
	bits := math.Float32bits(f)
	sign := F16((bits >> 16) & uint32(signMask))
	exp := int32((bits & f32ExpMask) >> 23)
	frac := bits & f32FracMask

	if exp == 0xFF {
		if frac == 0 {
			return sign | expMask
		}
		// Keep a quiet, non-zero payload.
		payload := F16(frac >> 13)
		if payload == 0 {
			payload = 1
		}
		payload |= 0x0200
		return sign | expMask | (payload & fracMask)
	}

	// float32 subnormals underflow to zero.
	if exp == 0 {
		return sign
	}

	e16 := exp - 127 + 15
	if e16 >= 0x1F {
		return sign | expMask
	}

	if e16 <= 0 {
		if e16 < -10 {
			return sign
		}
		mant := frac | 0x00800000
		shift := uint32(1-e16) + 13
		m := mant >> shift
		remainder := mant & ((uint32(1) << shift) - 1)
		half := uint32(1) << (shift - 1)
		if remainder > half || (remainder == half && (m&1) == 1) {
			m++
		}
		return sign | F16(m)
	}

	m := frac >> 13
	remainder := frac & 0x1FFF
	if remainder > 0x1000 || (remainder == 0x1000 && (m&1) == 1) {
		m++
		if m == 0x0400 {
			m = 0
			e16++
			if e16 >= 0x1F {
				return sign | expMask
			}
		}
	}

	return sign | F16(uint32(e16)<<10) | F16(m)
}

// F16sFromInt16s reinterprets a slice of int16 bit-patterns as F16.
// The returned slice aliases s.
func F16sFromInt16s(s []int16) []F16 {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*F16)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}

// F16sToInt16s reinterprets a slice of F16 as int16 bit-patterns.
// The returned slice aliases s.
func F16sToInt16s(s []F16) []int16 {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*int16)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}

// EncodeF16 converts src into dst. dst must have length >= len(src).
func EncodeF16(dst []F16, src []float32) {
	for i := range src {
		dst[i] = F16FromFloat32(src[i])
	}
}

// DecodeF16 converts src into dst. dst must have length >= len(src).
func DecodeF16(dst []float32, src []F16) {
	for i := range src {
		dst[i] = src[i].Float32()
	}
}
