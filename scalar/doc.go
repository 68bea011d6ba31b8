// Package scalar defines the fixed-layout element types that back the
// non-native vector representations: IEEE-754 binary16 (F16), bfloat16 (BF16)
// and packed single-bit vectors (B1x8).
//
// F16 and BF16 share the memory layout of int16. Slices convert to and from
// []int16 by pure reinterpretation (no element is touched), which is how the
// engine receives half-precision vectors. Value conversions to and from
// float32 are offered separately for callers that build or inspect vectors.
package scalar
