// Package ext2 mounts and operates on a classic (rev 0/1, non-extent) ext2
// filesystem image over an abstract block device. It resolves paths, reads
// file and directory contents, creates files and directories, and persists
// every on-disk structure it touches (superblock, group descriptor table,
// block/inode bitmaps, inode table, directory blocks) back to the device.
package ext2

import (
	"fmt"
	"io"

	"github.com/diskfs/go-ext2/backend"
)

const (
	rootInode             uint32 = 2
	firstNonReservedInode uint32 = 11

	// maxSymlinkFollows bounds path resolution's symlink expansion loop.
	maxSymlinkFollows = 40

	// pointersPerBlock assumes a 4-byte block pointer, true for every ext2 block size.
	blockPointerSize = 4
)

// FileSystem is a mounted ext2 volume. All state lives here; there is no
// global mutable state and no back-pointer from inodes or directory entries
// into the filesystem - they are passed fs as an explicit argument instead.
type FileSystem struct {
	device backend.Storage
	sb     *superblock
	gdt    []groupDescriptor
}

// Mount reads the superblock and group descriptor table from dev and
// returns a FileSystem ready for path resolution and I/O. Fails with
// ErrInvalidData if the superblock magic does not match.
func Mount(dev backend.Storage) (*FileSystem, error) {
	raw, err := readAtDevice(dev, superblockOffset, superblockSize)
	if err != nil {
		return nil, fmt.Errorf("could not read superblock: %w", err)
	}
	sb, err := superblockFromBytes(raw)
	if err != nil {
		return nil, err
	}

	fs := &FileSystem{device: dev, sb: sb}

	groups := sb.groupCount()
	gdt := make([]groupDescriptor, groups)
	for g := uint32(0); g < groups; g++ {
		gd, err := fs.readGroupDescriptor(g)
		if err != nil {
			return nil, fmt.Errorf("could not read group descriptor table: %w", err)
		}
		gdt[g] = gd
	}
	fs.gdt = gdt

	return fs, nil
}

// readAt reads exactly length bytes at byte_offset from the device, per the
// §4.2 disk adapter contract: short reads are reported as ErrUnexpectedEOF.
func (fs *FileSystem) readAt(offset int64, length int) ([]byte, error) {
	return readAtDevice(fs.device, offset, length)
}

func readAtDevice(dev backend.Storage, offset int64, length int) ([]byte, error) {
	b := make([]byte, length)
	n, err := dev.ReadAt(b, offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("device read at %d for %d bytes: %w: %w", offset, length, ErrIOError, err)
	}
	if n < length {
		return nil, fmt.Errorf("short read at %d: got %d of %d bytes: %w", offset, n, length, ErrUnexpectedEOF)
	}
	return b, nil
}

// writeAt writes b at byte_offset on the device.
func (fs *FileSystem) writeAt(offset int64, b []byte) error {
	w, err := fs.device.Writable()
	if err != nil {
		return fmt.Errorf("device is not writable: %w", err)
	}
	n, err := w.WriteAt(b, offset)
	if err != nil {
		return fmt.Errorf("device write at %d: %w: %w", offset, ErrIOError, err)
	}
	if n != len(b) {
		return fmt.Errorf("short write at %d: wrote %d of %d bytes: %w", offset, n, len(b), ErrIOError)
	}
	return nil
}

// writeSuperblock writes the in-memory superblock copy back to its fixed
// location. Called immediately after any change to its free counters.
func (fs *FileSystem) writeSuperblock() error {
	return fs.writeAt(superblockOffset, fs.sb.toBytes())
}

// blockSize is the convenience accessor used throughout the package.
func (fs *FileSystem) blockSize() uint32 {
	return fs.sb.blockSize()
}

// GroupCount returns the number of block groups in the mounted filesystem.
func (fs *FileSystem) GroupCount() uint32 {
	return fs.sb.groupCount()
}

// readBlock reads one whole filesystem block.
func (fs *FileSystem) readBlock(blockNum uint32) ([]byte, error) {
	if blockNum == 0 {
		return make([]byte, fs.blockSize()), nil
	}
	return fs.readAt(int64(blockNum)*int64(fs.blockSize()), int(fs.blockSize()))
}

// writeBlock writes one whole filesystem block.
func (fs *FileSystem) writeBlock(blockNum uint32, b []byte) error {
	if uint32(len(b)) != fs.blockSize() {
		return fmt.Errorf("block write of %d bytes does not match block size %d", len(b), fs.blockSize())
	}
	return fs.writeAt(int64(blockNum)*int64(fs.blockSize()), b)
}
