package ext2

import (
	"fmt"
)

// file type nibble of the on-disk mode field (top 4 bits).
const (
	modeTypeMask   uint16 = 0xF000
	modeTypeFIFO   uint16 = 0x1000
	modeTypeChar   uint16 = 0x2000
	modeTypeDir    uint16 = 0x4000
	modeTypeBlock  uint16 = 0x6000
	modeTypeFile   uint16 = 0x8000
	modeTypeSymlnk uint16 = 0xA000
	modeTypeSocket uint16 = 0xC000
	modePermMask   uint16 = 0x0FFF
)

// directory record file_type byte values, distinct from the mode nibble above.
const (
	dirFileTypeUnknown byte = 0
	dirFileTypeFile    byte = 1
	dirFileTypeDir     byte = 2
	dirFileTypeSymlink byte = 7
)

const inodeDiskSize = 128 // first 128 bytes, the classic layout spec.md §3 describes

// inode is the in-memory decode of one on-disk inode record.
type inode struct {
	number     uint32
	mode       uint16 // type nibble | permission bits, as stored on disk
	uid        uint16
	gid        uint16
	sizeLow    uint32
	sizeHigh   uint32 // only meaningful (on disk, dirACL slot) for regular files
	atime      uint32
	ctime      uint32
	mtime      uint32
	dtime      uint32
	linksCount uint16
	blocks     uint32 // count of 512-byte sectors, per spec.md §3
	flags      uint32
	osd1       uint32
	block      [15]uint32
	generation uint32
	fileACL    uint32
	faddr      uint32
	osd2       [12]byte
}

func (i *inode) fileType() uint16 {
	return i.mode & modeTypeMask
}

func (i *inode) isDir() bool     { return i.fileType() == modeTypeDir }
func (i *inode) isRegular() bool { return i.fileType() == modeTypeFile }
func (i *inode) isSymlink() bool { return i.fileType() == modeTypeSymlnk }

// size is the file size: low+high 32 bits combined for regular files (the
// only type that uses the high half), low 32 bits only otherwise, per
// spec.md §3.
func (i *inode) size() uint64 {
	if i.isRegular() {
		return uint64(i.sizeHigh)<<32 | uint64(i.sizeLow)
	}
	return uint64(i.sizeLow)
}

func (i *inode) setSize(sz uint64) {
	i.sizeLow = uint32(sz)
	if i.isRegular() {
		i.sizeHigh = uint32(sz >> 32)
	}
}

// dataBlockCount is the logical block count derived from size: ceil(size / block_size).
func (i *inode) dataBlockCount(blockSize uint32) uint32 {
	sz := i.size()
	if sz == 0 {
		return 0
	}
	return uint32((sz + uint64(blockSize) - 1) / uint64(blockSize))
}

// inodeOffset computes the byte offset of inode number n within the device,
// per spec.md §4.5: group = (n-1)/inodes_per_group, local = (n-1)%inodes_per_group,
// offset = group_desc.inode_table * block_size + local * inode_size.
func (fs *FileSystem) inodeOffset(n uint32) (int64, error) {
	if n == 0 {
		return 0, fmt.Errorf("inode 0 does not exist: %w", ErrInvalidInput)
	}
	perGroup := fs.sb.inodesPerGroup
	group := (n - 1) / perGroup
	local := (n - 1) % perGroup
	if group >= uint32(len(fs.gdt)) {
		return 0, fmt.Errorf("inode %d is beyond the last group: %w", n, ErrInvalidInput)
	}
	gd := fs.gdt[group]
	return int64(gd.inodeTable)*int64(fs.blockSize()) + int64(local)*int64(fs.sb.inodeSize), nil
}

// readInode reads and parses inode number n.
func (fs *FileSystem) readInode(n uint32) (*inode, error) {
	off, err := fs.inodeOffset(n)
	if err != nil {
		return nil, err
	}
	b, err := fs.readAt(off, inodeDiskSize)
	if err != nil {
		return nil, fmt.Errorf("could not read inode %d: %w", n, err)
	}
	return inodeFromBytes(n, b), nil
}

func inodeFromBytes(n uint32, b []byte) *inode {
	i := &inode{
		number:     n,
		mode:       le16(b, 0x00),
		uid:        le16(b, 0x02),
		sizeLow:    le32(b, 0x04),
		atime:      le32(b, 0x08),
		ctime:      le32(b, 0x0c),
		mtime:      le32(b, 0x10),
		dtime:      le32(b, 0x14),
		gid:        le16(b, 0x18),
		linksCount: le16(b, 0x1a),
		blocks:     le32(b, 0x1c),
		flags:      le32(b, 0x20),
		osd1:       le32(b, 0x24),
		generation: le32(b, 0x64),
		fileACL:    le32(b, 0x68),
		sizeHigh:   le32(b, 0x6c),
		faddr:      le32(b, 0x70),
	}
	for bi := 0; bi < 15; bi++ {
		i.block[bi] = le32(b, 0x28+4*bi)
	}
	copy(i.osd2[:], b[0x74:0x80])
	return i
}

// toBytes serializes the inode's classic 128-byte layout. Writing pads the
// remainder of the on-disk inode slot (inodeSize may exceed 128) with zero.
func (i *inode) toBytes(inodeSize uint16) []byte {
	b := make([]byte, inodeSize)
	putLE16(b, 0x00, i.mode)
	putLE16(b, 0x02, i.uid)
	putLE32(b, 0x04, i.sizeLow)
	putLE32(b, 0x08, i.atime)
	putLE32(b, 0x0c, i.ctime)
	putLE32(b, 0x10, i.mtime)
	putLE32(b, 0x14, i.dtime)
	putLE16(b, 0x18, i.gid)
	putLE16(b, 0x1a, i.linksCount)
	putLE32(b, 0x1c, i.blocks)
	putLE32(b, 0x20, i.flags)
	putLE32(b, 0x24, i.osd1)
	for bi := 0; bi < 15; bi++ {
		putLE32(b, 0x28+4*bi, i.block[bi])
	}
	putLE32(b, 0x64, i.generation)
	putLE32(b, 0x68, i.fileACL)
	putLE32(b, 0x6c, i.sizeHigh)
	putLE32(b, 0x70, i.faddr)
	copy(b[0x74:0x80], i.osd2[:])
	return b
}

// writeInode persists i back to its slot in the inode table.
func (fs *FileSystem) writeInode(i *inode) error {
	off, err := fs.inodeOffset(i.number)
	if err != nil {
		return err
	}
	return fs.writeAt(off, i.toBytes(fs.sb.inodeSize))
}

// inlineSymlinkTarget reads a symlink's target out of i_block, sliced to
// size (the classic ext2 format stores only size bytes there, not the full
// 60 - see spec.md §9, item 4).
func (i *inode) inlineSymlinkTarget() string {
	var raw [60]byte
	for bi := 0; bi < 15; bi++ {
		putLE32(raw[4*bi:4*bi+4], 0, i.block[bi])
	}
	n := i.size()
	if n > uint64(len(raw)) {
		n = uint64(len(raw))
	}
	return string(raw[:n])
}

// setInlineSymlinkTarget packs target into i_block and sets the size field;
// caller is responsible for ensuring len(target) <= 60.
func (i *inode) setInlineSymlinkTarget(target string) {
	var raw [60]byte
	copy(raw[:], target)
	for bi := 0; bi < 15; bi++ {
		i.block[bi] = le32(raw[:], 4*bi)
	}
	i.sizeLow = uint32(len(target))
}
