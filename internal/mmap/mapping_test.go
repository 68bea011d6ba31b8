package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestOpenAndRead(t *testing.T) {
	path := writeFile(t, []byte("hello mapped world"))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 18, m.Size())
	assert.Equal(t, []byte("hello mapped world"), m.Bytes())
	require.NoError(t, m.Advise(AccessRandom))

	buf := make([]byte, 6)
	n, err := m.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "mapped", string(buf))

	n, err = m.ReadAt(buf, 15)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, n)

	_, err = m.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrInvalidOffset)
}

func TestEmptyFile(t *testing.T) {
	m, err := Open(writeFile(t, nil))
	require.NoError(t, err)

	assert.Equal(t, 0, m.Size())
	assert.Nil(t, m.Bytes())
	require.NoError(t, m.Close())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRefCounting(t *testing.T) {
	m, err := Open(writeFile(t, []byte("abcd")))
	require.NoError(t, err)

	require.NoError(t, m.Retain())
	assert.Equal(t, 2, m.Refs())

	require.NoError(t, m.Release())
	assert.Equal(t, []byte("abcd"), m.Bytes())

	require.NoError(t, m.Release())
	assert.Equal(t, 0, m.Refs())
	assert.Nil(t, m.Bytes())

	assert.ErrorIs(t, m.Retain(), ErrClosed)
	assert.ErrorIs(t, m.Advise(AccessDefault), ErrClosed)
	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)

	// Extra releases are ignored.
	require.NoError(t, m.Close())
}
