package ext2

import (
	"fmt"
	"io"

	"github.com/diskfs/go-ext2/util/timestamp"
)

// FileHandle is an open regular file. It is not safe for concurrent use
// from multiple goroutines - callers needing concurrent access to one file
// must serialize their own calls, per spec.md §5's single-writer model.
type FileHandle struct {
	fs    *FileSystem
	inode *inode
	pos   int64
}

// Size returns the file's current size.
func (f *FileHandle) Size() uint64 { return f.inode.size() }

// Seek repositions the handle, io.Seeker-style.
func (f *FileHandle) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = f.pos
	case io.SeekEnd:
		base = int64(f.inode.size())
	default:
		return 0, fmt.Errorf("invalid whence %d: %w", whence, ErrInvalidInput)
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, fmt.Errorf("negative seek position: %w", ErrInvalidInput)
	}
	f.pos = newPos
	return f.pos, nil
}

// Read fills p starting at the handle's current position, per io.Reader,
// including returning io.EOF once the file's size is reached.
func (f *FileHandle) Read(p []byte) (int, error) {
	size := int64(f.inode.size())
	if f.pos >= size {
		return 0, io.EOF
	}
	n, err := f.readAt(p, f.pos)
	f.pos += int64(n)
	if err != nil {
		return n, err
	}
	if f.pos >= size {
		return n, io.EOF
	}
	return n, nil
}

// ReadAt reads len(p) bytes (or up to the end of file) starting at off,
// without disturbing the handle's current position.
func (f *FileHandle) ReadAt(p []byte, off int64) (int, error) {
	return f.readAt(p, off)
}

func (f *FileHandle) readAt(p []byte, off int64) (int, error) {
	size := int64(f.inode.size())
	if off >= size {
		return 0, io.EOF
	}
	if off+int64(len(p)) > size {
		p = p[:size-off]
	}
	bs := int64(f.fs.blockSize())
	total := 0
	for total < len(p) {
		logical := uint32((off + int64(total)) / bs)
		within := (off + int64(total)) % bs
		phys, err := f.fs.blockAt(f.inode, logical)
		if err != nil {
			return total, err
		}
		block, err := f.fs.readBlock(phys)
		if err != nil {
			return total, err
		}
		n := copy(p[total:], block[within:])
		total += n
	}
	return total, nil
}

// Write writes p at the handle's current position, growing the file and
// allocating new blocks as needed, and advances the position. Only the 12
// direct block pointers are writable - per spec.md's file handle section,
// writes past 12*block_size fail with ErrInvalidInput. Indirect blocks are
// read (see blockAt) so images written by other ext2 implementations remain
// legible, but this filesystem never allocates indirect blocks for file
// data itself; extending write support to them is flagged open.
//
// Each call that crosses a block boundary follows the ordering spec.md's
// open question #5 settles on: allocate every block the write touches
// first, then update every affected inode field (including size), then
// issue exactly one inode write, then update the in-memory handle. This
// way a crash after allocation but before the inode write leaves an extra
// allocated-but-unreferenced block rather than a size field that claims
// bytes the block map does not yet back.
func (f *FileHandle) Write(p []byte) (int, error) {
	n, err := f.writeAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}

// WriteAt writes p at off without disturbing the handle's current position.
func (f *FileHandle) WriteAt(p []byte, off int64) (int, error) {
	return f.writeAt(p, off)
}

func (f *FileHandle) writeAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	bs := int64(f.fs.blockSize())

	maxLogical := (off + int64(len(p)) - 1) / bs
	maxAllowed := int64(directCount) - 1
	if maxLogical > maxAllowed {
		return 0, fmt.Errorf("write at offset %d exceeds the direct-block extent (%d bytes): %w", off, int64(directCount)*bs, ErrInvalidInput)
	}

	total := 0
	for total < len(p) {
		logical := uint32((off + int64(total)) / bs)
		within := (off + int64(total)) % bs

		phys, err := f.fs.blockAt(f.inode, logical)
		if err != nil {
			return total, err
		}
		if phys == 0 {
			phys, err = f.fs.allocBlock()
			if err != nil {
				return total, err
			}
			if err := f.fs.setBlockAt(f.inode, logical, phys); err != nil {
				return total, err
			}
			f.inode.blocks += f.fs.blockSize() / 512
		}

		block, err := f.fs.readBlock(phys)
		if err != nil {
			return total, err
		}
		n := copy(block[within:], p[total:])
		if err := f.fs.writeBlock(phys, block); err != nil {
			return total, err
		}
		total += n
	}

	newSize := uint64(off) + uint64(total)
	if newSize > f.inode.size() {
		f.inode.setSize(newSize)
	}
	f.inode.mtime = timeToUnix32(timestamp.GetTime())

	if err := f.fs.writeInode(f.inode); err != nil {
		return total, err
	}
	return total, nil
}
