package mmap

import (
	"io"
	"os"
	"sync"
)

// Mapping is a read-only memory-mapped file.
type Mapping struct {
	mu    sync.Mutex
	data  []byte
	refs  int
	unmap func([]byte) error
}

// Open maps the file at path. The returned mapping holds one reference.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size < 0 || int64(int(size)) != size {
		return nil, ErrInvalidSize
	}
	if size == 0 {
		return &Mapping{refs: 1}, nil
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}

	return &Mapping{data: data, refs: 1, unmap: unmap}, nil
}

// Retain adds a reference. It fails once the mapping has been released.
func (m *Mapping) Retain() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refs == 0 {
		return ErrClosed
	}
	m.refs++
	return nil
}

// Release drops a reference and unmaps the file when none remain.
// Releasing an already closed mapping is a no-op.
func (m *Mapping) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refs == 0 {
		return nil
	}
	m.refs--
	if m.refs > 0 {
		return nil
	}

	data := m.data
	m.data = nil
	if m.unmap != nil && data != nil {
		return m.unmap(data)
	}
	return nil
}

// Close releases the caller's reference.
func (m *Mapping) Close() error { return m.Release() }

// Refs reports the number of live references.
func (m *Mapping) Refs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs
}

// Bytes returns the mapped contents, or nil after the final release.
// The slice must not be used after the holder's reference is released.
func (m *Mapping) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data
}

// Size returns the mapped length in bytes.
func (m *Mapping) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Advise passes an access hint for the whole mapping.
func (m *Mapping) Advise(pattern AccessPattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refs == 0 {
		return ErrClosed
	}
	if m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refs == 0 {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
