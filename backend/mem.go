package backend

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// memBackend is an in-memory Storage backed by a plain byte slice. It exists
// so tests and short-lived tools can build a filesystem image without ever
// touching the real filesystem.
type memBackend struct {
	data []byte
	pos  int64
}

// NewMem creates a Storage backed by a zeroed in-memory buffer of the given size.
func NewMem(size int64) Storage {
	return &memBackend{data: make([]byte, size)}
}

var _ Storage = (*memBackend)(nil)

func (m *memBackend) Stat() (fs.FileInfo, error) {
	return nil, ErrNotSuitable
}

func (m *memBackend) Read(b []byte) (int, error) {
	n, err := m.ReadAt(b, m.pos)
	m.pos += int64(n)
	return n, err
}

func (m *memBackend) Close() error {
	return nil
}

func (m *memBackend) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memBackend) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	end := off + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	return copy(m.data[off:], p), nil
}

func (m *memBackend) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = m.pos + offset
	case io.SeekEnd:
		pos = int64(len(m.data)) + offset
	default:
		return -1, ErrNotSuitable
	}
	if pos < 0 {
		return -1, errors.New("negative position")
	}
	m.pos = pos
	return pos, nil
}

func (m *memBackend) Sys() (*os.File, error) {
	return nil, ErrNotSuitable
}

func (m *memBackend) Writable() (WritableFile, error) {
	return m, nil
}
