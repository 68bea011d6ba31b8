package conv

import "unsafe"

// Bytes views s as its raw bytes.
func Bytes[E any](s []E) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero E
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}

// Slice views b as a slice of E. Trailing bytes that do not fill a whole
// element are dropped.
func Slice[E any](b []byte) []E {
	var zero E
	size := int(unsafe.Sizeof(zero))
	if len(b) < size || size == 0 {
		return nil
	}
	return unsafe.Slice((*E)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/size)
}
