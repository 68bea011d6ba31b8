// Package hash provides the CRC32-Castagnoli checksums used to guard the
// persisted index header and graph sections, and snapshot frames.
//
// Go's hash/crc32 selects hardware instructions (SSE4.2, ARM CRC) when
// available.
package hash
