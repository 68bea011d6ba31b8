// Package mmap maps saved index files into memory for zero-copy views.
//
// A Mapping is read-only and reference counted: the index that views the
// file holds one reference, and the pages stay mapped until the last holder
// calls Release.
package mmap
