// Package conv provides bounds-checked integer conversions and layout-preserving
// slice reinterpretation.
//
// Integer conversions guard values read from untrusted persisted headers.
// Reinterpretation helpers view a slice of fixed-layout elements as bytes (and
// back) without copying; the result aliases the input.
package conv
