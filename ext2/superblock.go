package ext2

import (
	"fmt"
	"time"
)

const (
	superblockSize   = 1024
	superblockOffset = 1024
	ext2Magic        = 0xEF53

	// filesystem states
	stateCleanlyUnmounted uint16 = 1

	// errors behaviour
	errorsContinue uint16 = 1

	// revision levels
	revGoodOld uint16 = 0
	revDynamic uint16 = 1

	minInodeSize uint16 = 128
)

// superblock is the in-memory copy of the 1024-byte ext2 superblock. Every
// change to freeBlocksCount or freeInodesCount must be followed by a
// writeSuperblock call, per the protocol the allocator relies on to keep
// P1/P2 invariants (the bitmap popcount and the superblock/group-descriptor
// counters) in agreement after every allocation.
type superblock struct {
	inodesCount         uint32
	blocksCount         uint32
	reservedBlocksCount uint32
	freeBlocksCount     uint32
	freeInodesCount     uint32
	firstDataBlock      uint32
	logBlockSize        uint32
	logFragSize         uint32
	blocksPerGroup      uint32
	fragsPerGroup       uint32
	inodesPerGroup      uint32
	mtime               uint32
	wtime               uint32
	mountCount          uint16
	maxMountCount       uint16
	magic               uint16
	state               uint16
	errorsBehaviour     uint16
	minorRevLevel       uint16
	lastCheck           uint32
	checkInterval       uint32
	creatorOS           uint32
	revLevel            uint32
	defResUID           uint16
	defResGID           uint16

	// -- dynamic (EXT2_DYNAMIC_REV) fields --
	firstIno        uint32
	inodeSize       uint16
	blockGroupNr    uint16
	featureCompat   uint32
	featureIncompat uint32
	featureRoCompat uint32
	uuid            [16]byte
	volumeName      string
	lastMounted     string
	algoBitmap      uint32

	preallocBlocks    uint8
	preallocDirBlocks uint8

	journalUUID      [16]byte
	journalInum      uint32
	journalDev       uint32
	lastOrphan       uint32
	hashSeed         [4]uint32
	defHashVersion   uint8
	defaultMountOpts uint32
	firstMetaBg      uint32
}

// blockSize is 1024 << log_block_size, per spec.
func (s *superblock) blockSize() uint32 {
	return 1024 << s.logBlockSize
}

// groupCount is ceil(blocks_count / blocks_per_group).
func (s *superblock) groupCount() uint32 {
	if s.blocksPerGroup == 0 {
		return 0
	}
	return (s.blocksCount + s.blocksPerGroup - 1) / s.blocksPerGroup
}

// gdtStartBlock is the block at which the group descriptor table begins:
// block 1 when block size > 1024, else block 2 (the superblock occupies
// block 1 only when the block size is exactly 1024, since block 0 is then
// the boot block).
func (s *superblock) gdtStartBlock() uint32 {
	if s.blockSize() == 1024 {
		return 2
	}
	return 1
}

// superblockFromBytes parses the 1024-byte superblock and validates the
// invariants spec.md requires at mount time.
func superblockFromBytes(b []byte) (*superblock, error) {
	if len(b) < superblockSize {
		return nil, fmt.Errorf("superblock data too short: %d bytes: %w", len(b), ErrInvalidData)
	}
	magic := le16(b, 0x38)
	if magic != ext2Magic {
		return nil, fmt.Errorf("bad superblock magic %#x, expected %#x: %w", magic, ext2Magic, ErrInvalidData)
	}

	sb := &superblock{
		inodesCount:         le32(b, 0x00),
		blocksCount:         le32(b, 0x04),
		reservedBlocksCount: le32(b, 0x08),
		freeBlocksCount:     le32(b, 0x0c),
		freeInodesCount:     le32(b, 0x10),
		firstDataBlock:      le32(b, 0x14),
		logBlockSize:        le32(b, 0x18),
		logFragSize:         le32(b, 0x1c),
		blocksPerGroup:      le32(b, 0x20),
		fragsPerGroup:       le32(b, 0x24),
		inodesPerGroup:      le32(b, 0x28),
		mtime:               le32(b, 0x2c),
		wtime:               le32(b, 0x30),
		mountCount:          le16(b, 0x34),
		maxMountCount:       le16(b, 0x36),
		magic:               magic,
		state:               le16(b, 0x3a),
		errorsBehaviour:     le16(b, 0x3c),
		minorRevLevel:       le16(b, 0x3e),
		lastCheck:           le32(b, 0x40),
		checkInterval:       le32(b, 0x44),
		creatorOS:           le32(b, 0x48),
		revLevel:            le32(b, 0x4c),
		defResUID:           le16(b, 0x50),
		defResGID:           le16(b, 0x52),
		firstIno:            le32(b, 0x54),
		inodeSize:           le16(b, 0x58),
		blockGroupNr:        le16(b, 0x5a),
		featureCompat:       le32(b, 0x5c),
		featureIncompat:     le32(b, 0x60),
		featureRoCompat:     le32(b, 0x64),
		volumeName:          readString(b[0x78:0x88]),
		lastMounted:         readString(b[0x88:0xc8]),
		algoBitmap:          le32(b, 0xc8),
		preallocBlocks:      b[0xcc],
		preallocDirBlocks:   b[0xcd],
		journalInum:         le32(b, 0xe0),
		journalDev:          le32(b, 0xe4),
		lastOrphan:          le32(b, 0xe8),
		defHashVersion:      b[0xfc],
		defaultMountOpts:    le32(b, 0x100),
		firstMetaBg:         le32(b, 0x104),
	}
	copy(sb.uuid[:], b[0x68:0x78])
	copy(sb.journalUUID[:], b[0xd0:0xe0])
	for i := range sb.hashSeed {
		sb.hashSeed[i] = le32(b, 0xec+4*i)
	}

	// revision 0 images have no dynamic fields; inode size and first non-reserved
	// inode are then fixed at their classic defaults.
	if sb.revLevel == uint32(revGoodOld) {
		sb.inodeSize = minInodeSize
		sb.firstIno = firstNonReservedInode
	}

	if sb.inodeSize < minInodeSize {
		return nil, fmt.Errorf("inode size %d smaller than minimum %d: %w", sb.inodeSize, minInodeSize, ErrInvalidData)
	}
	if sb.blocksPerGroup == 0 || sb.inodesPerGroup == 0 {
		return nil, fmt.Errorf("blocks/inodes per group must be nonzero: %w", ErrInvalidData)
	}

	return sb, nil
}

// toBytes serializes the superblock back to its 1024-byte on-disk form.
// Round-tripping parse -> toBytes is byte-identical for every field in scope (P6).
func (s *superblock) toBytes() []byte {
	b := make([]byte, superblockSize)
	putLE32(b, 0x00, s.inodesCount)
	putLE32(b, 0x04, s.blocksCount)
	putLE32(b, 0x08, s.reservedBlocksCount)
	putLE32(b, 0x0c, s.freeBlocksCount)
	putLE32(b, 0x10, s.freeInodesCount)
	putLE32(b, 0x14, s.firstDataBlock)
	putLE32(b, 0x18, s.logBlockSize)
	putLE32(b, 0x1c, s.logFragSize)
	putLE32(b, 0x20, s.blocksPerGroup)
	putLE32(b, 0x24, s.fragsPerGroup)
	putLE32(b, 0x28, s.inodesPerGroup)
	putLE32(b, 0x2c, s.mtime)
	putLE32(b, 0x30, s.wtime)
	putLE16(b, 0x34, s.mountCount)
	putLE16(b, 0x36, s.maxMountCount)
	putLE16(b, 0x38, s.magic)
	putLE16(b, 0x3a, s.state)
	putLE16(b, 0x3c, s.errorsBehaviour)
	putLE16(b, 0x3e, s.minorRevLevel)
	putLE32(b, 0x40, s.lastCheck)
	putLE32(b, 0x44, s.checkInterval)
	putLE32(b, 0x48, s.creatorOS)
	putLE32(b, 0x4c, s.revLevel)
	putLE16(b, 0x50, s.defResUID)
	putLE16(b, 0x52, s.defResGID)
	putLE32(b, 0x54, s.firstIno)
	putLE16(b, 0x58, s.inodeSize)
	putLE16(b, 0x5a, s.blockGroupNr)
	putLE32(b, 0x5c, s.featureCompat)
	putLE32(b, 0x60, s.featureIncompat)
	putLE32(b, 0x64, s.featureRoCompat)
	copy(b[0x68:0x78], s.uuid[:])
	writeString(b[0x78:0x88], s.volumeName)
	writeString(b[0x88:0xc8], s.lastMounted)
	putLE32(b, 0xc8, s.algoBitmap)
	b[0xcc] = s.preallocBlocks
	b[0xcd] = s.preallocDirBlocks
	copy(b[0xd0:0xe0], s.journalUUID[:])
	putLE32(b, 0xe0, s.journalInum)
	putLE32(b, 0xe4, s.journalDev)
	putLE32(b, 0xe8, s.lastOrphan)
	for i, v := range s.hashSeed {
		putLE32(b, 0xec+4*i, v)
	}
	b[0xfc] = s.defHashVersion
	putLE32(b, 0x100, s.defaultMountOpts)
	putLE32(b, 0x104, s.firstMetaBg)
	return b
}

func (s *superblock) equal(o *superblock) bool {
	if s == nil || o == nil {
		return s == o
	}
	a, bb := *s, *o
	return a == bb
}

func timeToUnix32(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	return uint32(t.Unix())
}

func unix32ToTime(v uint32) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(int64(v), 0).UTC()
}
