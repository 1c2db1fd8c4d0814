package ext2

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/diskfs/go-ext2/backend"
	"github.com/diskfs/go-ext2/util/bitmap"
	"github.com/diskfs/go-ext2/util/timestamp"
)

// FormatOptions configures Format. BlockSize defaults to 1024 and
// BlocksPerGroup/InodesPerGroup default to one full block's worth of bitmap
// bits (8*BlockSize) when left at zero, matching mke2fs's own default of one
// bitmap block per group. BlocksPerGroup is capped at the device's block
// count, and the default InodesPerGroup at four inodes per block of a group.
type FormatOptions struct {
	BlockSize      uint32
	Size           int64 // total device size in bytes
	BlocksPerGroup uint32
	InodesPerGroup uint32
	VolumeName     string
}

// Format writes a fresh, minimal classic ext2 filesystem (revision 1, with
// the revision 0 inode size of 128 bytes and first inode 11) onto
// dev and returns it mounted. It is the only way this package creates a
// filesystem from scratch - there is no fsck or resize, per spec.md's
// non-goals - so every structure Format lays down must already satisfy the
// invariants Mount and the allocator rely on afterward.
func Format(dev backend.Storage, opts FormatOptions) (*FileSystem, error) {
	blockSize := opts.BlockSize
	if blockSize == 0 {
		blockSize = 1024
	}
	if blockSize < 1024 || blockSize&(blockSize-1) != 0 {
		return nil, fmt.Errorf("block size %d must be a power of two >= 1024: %w", blockSize, ErrInvalidInput)
	}

	totalBlocks := uint32(opts.Size / int64(blockSize))
	if totalBlocks < 8 {
		return nil, fmt.Errorf("device too small to format: %w", ErrInvalidInput)
	}

	blocksPerGroup := opts.BlocksPerGroup
	if blocksPerGroup == 0 {
		blocksPerGroup = blockSize * 8
	}
	if blocksPerGroup%8 != 0 {
		return nil, fmt.Errorf("blocks per group %d must be a multiple of 8: %w", blocksPerGroup, ErrInvalidInput)
	}
	if blocksPerGroup > totalBlocks {
		blocksPerGroup = totalBlocks
	}

	inodesPerGroup := opts.InodesPerGroup
	if inodesPerGroup == 0 {
		inodesPerGroup = blockSize * 8
		if inodesPerGroup > blocksPerGroup*4 {
			inodesPerGroup = blocksPerGroup * 4
		}
	}
	if inodesPerGroup%8 != 0 {
		return nil, fmt.Errorf("inodes per group %d must be a multiple of 8: %w", inodesPerGroup, ErrInvalidInput)
	}

	groupCount := (totalBlocks + blocksPerGroup - 1) / blocksPerGroup

	now := timeToUnix32(timestamp.GetTime())
	sb := &superblock{
		blocksCount:     totalBlocks,
		blocksPerGroup:  blocksPerGroup,
		fragsPerGroup:   blocksPerGroup,
		inodesPerGroup:  inodesPerGroup,
		magic:           ext2Magic,
		firstDataBlock:  firstDataBlockFor(blockSize),
		logBlockSize:    logOf(blockSize / 1024),
		logFragSize:     logOf(blockSize / 1024),
		mtime:           now,
		wtime:           now,
		state:           stateCleanlyUnmounted,
		errorsBehaviour: errorsContinue,
		revLevel:        uint32(revDynamic),
		firstIno:        firstNonReservedInode,
		inodeSize:       minInodeSize,
		volumeName:      opts.VolumeName,
	}
	sb.inodesCount = inodesPerGroup * groupCount
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("could not generate volume UUID: %w", err)
	}
	copy(sb.uuid[:], id[:])

	gdtBlocks := (groupCount*groupDescriptorSize + blockSize - 1) / blockSize
	inodeTableBlocks := (inodesPerGroup*uint32(sb.inodeSize) + blockSize - 1) / blockSize

	fs := &FileSystem{device: dev, sb: sb}
	fs.gdt = make([]groupDescriptor, groupCount)

	// Lay out each group's metadata contiguously starting right after the
	// group descriptor table: block bitmap, inode bitmap, inode table, data.
	metaStart := sb.gdtStartBlock() + gdtBlocks
	for g := uint32(0); g < groupCount; g++ {
		groupBlocks := blocksPerGroup
		if g == groupCount-1 {
			groupBlocks = totalBlocks - blocksPerGroup*(groupCount-1)
		}

		base := sb.firstDataBlock + g*blocksPerGroup
		if g == 0 {
			base = metaStart
		}
		gd := groupDescriptor{
			blockBitmap: base,
			inodeBitmap: base + 1,
			inodeTable:  base + 2,
		}
		gd.freeBlocksCount = uint16(groupBlocks)
		gd.freeInodesCount = uint16(inodesPerGroup)
		fs.gdt[g] = gd

		if err := zeroBlocks(fs, gd.inodeTable, inodeTableBlocks); err != nil {
			return nil, err
		}

		bbm := bitmap.NewBits(int(blocksPerGroup))
		ibm := bitmap.NewBits(int(inodesPerGroup))

		// reserve this group's own metadata blocks (bitmaps + inode table +,
		// in group 0, the boot block/superblock/GDT) against the block bitmap.
		reserved := 2 + inodeTableBlocks
		if g == 0 {
			reserved += metaStart - sb.firstDataBlock
		}
		for b := uint32(0); b < reserved; b++ {
			_ = bbm.Set(int(b))
		}
		// bits from the group's block count to the end of the bitmap's last
		// byte stand for no real block; mark them in use so they are never
		// allocated (they are not counted as free either).
		for b := groupBlocks; b < uint32(bitmapByteCount(blocksPerGroup))*8; b++ {
			_ = bbm.Set(int(b))
		}
		gd.freeBlocksCount -= uint16(reserved)
		fs.gdt[g] = gd

		if err := fs.writeGroupBitmap(gd.blockBitmap, bbm); err != nil {
			return nil, err
		}
		if err := fs.writeGroupBitmap(gd.inodeBitmap, ibm); err != nil {
			return nil, err
		}
	}

	sb.freeBlocksCount = 0
	for _, gd := range fs.gdt {
		sb.freeBlocksCount += uint32(gd.freeBlocksCount)
	}
	sb.freeInodesCount = sb.inodesCount - (firstNonReservedInode - 1)
	fs.gdt[0].freeInodesCount -= uint16(firstNonReservedInode - 1)

	for g := uint32(0); g < groupCount; g++ {
		if err := fs.writeGroupDescriptor(g, fs.gdt[g]); err != nil {
			return nil, err
		}
	}
	if err := fs.writeSuperblock(); err != nil {
		return nil, err
	}

	// reserve inodes 1..firstNonReservedInode-1 in group 0's inode bitmap,
	// then create the root directory at inode 2.
	ibm0, err := fs.readInodeBitmap(0)
	if err != nil {
		return nil, err
	}
	for n := uint32(0); n < firstNonReservedInode-1; n++ {
		_ = ibm0.Set(int(n))
	}
	if err := fs.writeGroupBitmap(fs.gdt[0].inodeBitmap, ibm0); err != nil {
		return nil, err
	}

	rootBlock, err := fs.allocBlock()
	if err != nil {
		return nil, err
	}
	root := &inode{
		number:     rootInode,
		mode:       modeTypeDir | 0755,
		linksCount: 2,
		atime:      now,
		ctime:      now,
		mtime:      now,
		blocks:     blockSize / 512,
	}
	root.block[0] = rootBlock
	root.setSize(uint64(blockSize))
	if err := fs.writeBlock(rootBlock, fs.newDirectoryBlock(rootInode, rootInode)); err != nil {
		return nil, err
	}
	if err := fs.writeInode(root); err != nil {
		return nil, err
	}
	fs.gdt[0].usedDirsCount++
	if err := fs.writeGroupDescriptor(0, fs.gdt[0]); err != nil {
		return nil, err
	}

	return fs, nil
}

func firstDataBlockFor(blockSize uint32) uint32 {
	if blockSize == 1024 {
		return 1
	}
	return 0
}

// logOf returns log2(n) for a power of two n, used to derive log_block_size
// from a concrete block size.
func logOf(n uint32) uint32 {
	var l uint32
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}

func zeroBlocks(fs *FileSystem, start uint32, count uint32) error {
	zero := make([]byte, fs.blockSize())
	for b := uint32(0); b < count; b++ {
		if err := fs.writeBlock(start+b, zero); err != nil {
			return fmt.Errorf("could not zero block %d: %w", start+b, err)
		}
	}
	return nil
}
