package scalar

// B1x8 packs eight single-bit dimensions into one byte, most significant bit
// first: dimension i lives in byte i/8 at bit 7-(i%8).
type B1x8 uint8

// B1Bytes returns the number of B1x8 words needed for dims bits.
func B1Bytes(dims int) int {
	return (dims + 7) / 8
}

// PackBits packs a boolean vector into B1x8 words.
func PackBits(bits []bool) []B1x8 {
	out := make([]B1x8, B1Bytes(len(bits)))
	for i, set := range bits {
		if set {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

// Bit reports whether dimension i is set in v.
func Bit(v []B1x8, i int) bool {
	return v[i/8]&(0x80>>(i%8)) != 0
}
