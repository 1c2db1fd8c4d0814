package ext2

import "fmt"

const groupDescriptorSize = 32

// groupDescriptor is the fixed 32-byte per-group record: where its two
// bitmaps and inode table live, and the three free/used counters the
// allocator keeps in lockstep with the bitmaps and the superblock.
type groupDescriptor struct {
	blockBitmap     uint32
	inodeBitmap     uint32
	inodeTable      uint32
	freeBlocksCount uint16
	freeInodesCount uint16
	usedDirsCount   uint16
	pad             uint16
	reserved        [12]byte
}

func groupDescriptorFromBytes(b []byte) groupDescriptor {
	var gd groupDescriptor
	gd.blockBitmap = le32(b, 0x00)
	gd.inodeBitmap = le32(b, 0x04)
	gd.inodeTable = le32(b, 0x08)
	gd.freeBlocksCount = le16(b, 0x0c)
	gd.freeInodesCount = le16(b, 0x0e)
	gd.usedDirsCount = le16(b, 0x10)
	gd.pad = le16(b, 0x12)
	copy(gd.reserved[:], b[0x14:0x20])
	return gd
}

func (gd *groupDescriptor) toBytes() []byte {
	b := make([]byte, groupDescriptorSize)
	putLE32(b, 0x00, gd.blockBitmap)
	putLE32(b, 0x04, gd.inodeBitmap)
	putLE32(b, 0x08, gd.inodeTable)
	putLE16(b, 0x0c, gd.freeBlocksCount)
	putLE16(b, 0x0e, gd.freeInodesCount)
	putLE16(b, 0x10, gd.usedDirsCount)
	putLE16(b, 0x12, gd.pad)
	copy(b[0x14:0x20], gd.reserved[:])
	return b
}

// groupDescriptorOffset is the byte offset of group g's descriptor within the device.
func (s *superblock) groupDescriptorOffset(g uint32) int64 {
	return int64(s.gdtStartBlock())*int64(s.blockSize()) + int64(g)*groupDescriptorSize
}

// readGroupDescriptor reads and parses the descriptor for group g.
func (fs *FileSystem) readGroupDescriptor(g uint32) (groupDescriptor, error) {
	b, err := fs.readAt(fs.sb.groupDescriptorOffset(g), groupDescriptorSize)
	if err != nil {
		return groupDescriptor{}, fmt.Errorf("could not read group descriptor %d: %w", g, err)
	}
	return groupDescriptorFromBytes(b), nil
}

// writeGroupDescriptor writes gd back to group g's slot in the descriptor table.
func (fs *FileSystem) writeGroupDescriptor(g uint32, gd groupDescriptor) error {
	if err := fs.writeAt(fs.sb.groupDescriptorOffset(g), gd.toBytes()); err != nil {
		return fmt.Errorf("could not write group descriptor %d: %w", g, err)
	}
	return nil
}
