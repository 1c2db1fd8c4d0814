package ext2

import "errors"

// Sentinel errors matching the taxonomy every public operation reports against.
// Callers should use errors.Is(err, ext2.ErrNotFound) etc. rather than string
// matching; the errors for these conditions wrap one of these with
// fmt.Errorf("...: %w", ...). Some other failures (a backend with no writable
// view, a block buffer of the wrong size, a bitmap bounds check, UUID
// generation in Format) are returned without one.
var (
	// ErrNotFound is returned when a path component does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a path resolves to the wrong kind of
	// object, or an operation is attempted outside of what this implementation
	// supports (e.g. a write past the directly-addressable block range).
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidData is returned when an on-disk structure fails to parse or
	// does not satisfy an invariant this implementation depends on.
	ErrInvalidData = errors.New("invalid data")
	// ErrIOError wraps a failure reported by the underlying block device. It
	// is also returned when no free block or inode is left to allocate.
	ErrIOError = errors.New("i/o error")
	// ErrUnexpectedEOF is returned when the device returns fewer bytes than requested.
	ErrUnexpectedEOF = errors.New("unexpected eof")
	// ErrFileExists is returned by create/mkdir when the target path already exists.
	ErrFileExists = errors.New("file exists")
)
