package ext2

import (
	"fmt"

	"github.com/diskfs/go-ext2/util/timestamp"
)

// Truncate shrinks the regular file at path to size bytes, freeing any
// blocks that fall entirely beyond the new size. Growing a file is not
// supported - per spec.md §4.9a this is a deliberately small extension
// beyond the original read/create surface, not a general-purpose resize.
func (fs *FileSystem) Truncate(path string, size uint64) error {
	_, i, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if !i.isRegular() {
		return fmt.Errorf("%q is not a regular file: %w", path, ErrInvalidInput)
	}
	if size > i.size() {
		return fmt.Errorf("truncate to %d exceeds current size %d: %w", size, i.size(), ErrInvalidInput)
	}
	if size == i.size() {
		return nil
	}

	bs := uint64(fs.blockSize())
	firstFreedLogical := uint32((size + bs - 1) / bs)
	lastLogical := i.dataBlockCount(fs.blockSize())

	for idx := firstFreedLogical; idx < lastLogical; idx++ {
		phys, err := fs.blockAt(i, idx)
		if err != nil {
			return err
		}
		if phys == 0 {
			continue
		}
		if err := fs.freeBlock(phys); err != nil {
			return err
		}
		if err := fs.setBlockAt(i, idx, 0); err != nil {
			return err
		}
		i.blocks -= fs.blockSize() / 512
	}

	i.setSize(size)
	i.mtime = timeToUnix32(timestamp.GetTime())
	return fs.writeInode(i)
}
