package ext2

import (
	"fmt"

	"github.com/diskfs/go-ext2/util/bitmap"
)

// bitmapByteCount is how many bytes of a group's bitmap block actually carry
// meaningful bits: per_group objects, LSB-first, one bit per object. The
// remainder of the block (up to blockSize) is padding and must not be
// scanned for a free slot - scanning past it is exactly the source bug noted
// in spec.md's open questions (#2).
func bitmapByteCount(perGroup uint32) int {
	return int((perGroup + 7) / 8)
}

// Format does not always produce a blocks-per-group value that is a multiple
// of 8 (it caps it at the device's block count), and the last group can hold
// fewer blocks than per_group. Format marks every bit from a group's block
// count up to the end of its last bitmap byte as in use (see format.go), so
// FirstFree never lands on one of those bits.

// readGroupBitmap reads and decodes a group's block or inode bitmap, trimmed
// to the meaningful byte range for perGroup objects.
func (fs *FileSystem) readGroupBitmap(blockNum uint32, perGroup uint32) (*bitmap.Bitmap, error) {
	raw, err := fs.readBlock(blockNum)
	if err != nil {
		return nil, fmt.Errorf("could not read bitmap block %d: %w", blockNum, err)
	}
	n := bitmapByteCount(perGroup)
	if n > len(raw) {
		n = len(raw)
	}
	return bitmap.FromBytes(raw[:n]), nil
}

// writeGroupBitmap writes bm back to its block, padding the untouched tail
// of the block with whatever was already on disk there (zero, in practice,
// since Format never sets those bits).
func (fs *FileSystem) writeGroupBitmap(blockNum uint32, bm *bitmap.Bitmap) error {
	raw, err := fs.readBlock(blockNum)
	if err != nil {
		return err
	}
	copy(raw, bm.ToBytes())
	return fs.writeBlock(blockNum, raw)
}

func (fs *FileSystem) readBlockBitmap(g uint32) (*bitmap.Bitmap, error) {
	return fs.readGroupBitmap(fs.gdt[g].blockBitmap, fs.sb.blocksPerGroup)
}

func (fs *FileSystem) readInodeBitmap(g uint32) (*bitmap.Bitmap, error) {
	return fs.readGroupBitmap(fs.gdt[g].inodeBitmap, fs.sb.inodesPerGroup)
}

// allocBlock finds the first free data block across all groups in order,
// marks it used, and keeps the bitmap, group descriptor, and superblock free
// counters in agreement (P1/P2) before returning. The bitmap, the group
// descriptor and the superblock are written in that order; if one of those
// writes fails the allocation is abandoned, and the writes already made are
// not undone.
//
// The returned block number is global: group_num*blocks_per_group + n, where
// n is the 1-based ordinal of the bit found within the group. (The source
// this was built from returned the local ordinal directly, which is only
// correct for group 0 - see spec.md §9, item 1. This implementation adds the
// group offset.)
func (fs *FileSystem) allocBlock() (uint32, error) {
	groups := fs.sb.groupCount()
	for g := uint32(0); g < groups; g++ {
		bm, err := fs.readBlockBitmap(g)
		if err != nil {
			return 0, err
		}
		loc := bm.FirstFree(0)
		if loc < 0 {
			continue
		}
		if err := bm.Set(loc); err != nil {
			return 0, err
		}
		if err := fs.writeGroupBitmap(fs.gdt[g].blockBitmap, bm); err != nil {
			return 0, err
		}
		gd := fs.gdt[g]
		gd.freeBlocksCount--
		if err := fs.writeGroupDescriptor(g, gd); err != nil {
			return 0, err
		}
		fs.gdt[g] = gd

		fs.sb.freeBlocksCount--
		if err := fs.writeSuperblock(); err != nil {
			return 0, err
		}

		n := uint32(loc) + 1
		return g*fs.sb.blocksPerGroup + n, nil
	}
	return 0, fmt.Errorf("no free blocks: %w", ErrIOError)
}

// allocInode is the inode equivalent of allocBlock. It additionally skips
// the first firstNonReservedInode-1 reserved inodes of group 0.
func (fs *FileSystem) allocInode() (uint32, error) {
	groups := fs.sb.groupCount()
	for g := uint32(0); g < groups; g++ {
		bm, err := fs.readInodeBitmap(g)
		if err != nil {
			return 0, err
		}
		start := 0
		if g == 0 {
			start = int(firstNonReservedInode) - 1
		}
		loc := bm.FirstFree(start)
		if loc < 0 {
			continue
		}
		if err := bm.Set(loc); err != nil {
			return 0, err
		}
		if err := fs.writeGroupBitmap(fs.gdt[g].inodeBitmap, bm); err != nil {
			return 0, err
		}
		gd := fs.gdt[g]
		gd.freeInodesCount--
		if err := fs.writeGroupDescriptor(g, gd); err != nil {
			return 0, err
		}
		fs.gdt[g] = gd

		fs.sb.freeInodesCount--
		if err := fs.writeSuperblock(); err != nil {
			return 0, err
		}

		n := uint32(loc) + 1
		return g*fs.sb.inodesPerGroup + n, nil
	}
	return 0, fmt.Errorf("no free inodes: %w", ErrIOError)
}

// blockGroupOf returns which group a global, 1-based block/inode ordinal
// with the given per-group size falls in, and its 0-based offset within
// that group's bitmap.
func blockGroupOf(globalOneBased uint32, perGroup uint32) (group uint32, localBit int) {
	zero := globalOneBased - 1
	return zero / perGroup, int(zero % perGroup)
}

// freeBlock clears a previously-allocated block's bit and restores the
// counters symmetrically to allocBlock. Truncate uses it to release the
// blocks past a file's new size; there is no unlink, and no creation path
// rolls an allocation back through it.
func (fs *FileSystem) freeBlock(blockNum uint32) error {
	g, bit := blockGroupOf(blockNum, fs.sb.blocksPerGroup)
	bm, err := fs.readBlockBitmap(g)
	if err != nil {
		return err
	}
	if err := bm.Clear(bit); err != nil {
		return err
	}
	if err := fs.writeGroupBitmap(fs.gdt[g].blockBitmap, bm); err != nil {
		return err
	}
	gd := fs.gdt[g]
	gd.freeBlocksCount++
	if err := fs.writeGroupDescriptor(g, gd); err != nil {
		return err
	}
	fs.gdt[g] = gd
	fs.sb.freeBlocksCount++
	return fs.writeSuperblock()
}

// freeInode is the inode equivalent of freeBlock.
func (fs *FileSystem) freeInode(inodeNum uint32) error {
	g, bit := blockGroupOf(inodeNum, fs.sb.inodesPerGroup)
	bm, err := fs.readInodeBitmap(g)
	if err != nil {
		return err
	}
	if err := bm.Clear(bit); err != nil {
		return err
	}
	if err := fs.writeGroupBitmap(fs.gdt[g].inodeBitmap, bm); err != nil {
		return err
	}
	gd := fs.gdt[g]
	gd.freeInodesCount++
	if err := fs.writeGroupDescriptor(g, gd); err != nil {
		return err
	}
	fs.gdt[g] = gd
	fs.sb.freeInodesCount++
	return fs.writeSuperblock()
}
