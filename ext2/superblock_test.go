package ext2

import (
	"testing"

	"github.com/diskfs/go-ext2/util"
)

func TestSuperblockRoundTrip(t *testing.T) {
	sb := &superblock{
		blocksCount:     1000,
		blocksPerGroup:  8192,
		fragsPerGroup:   8192,
		inodesPerGroup:  2048,
		firstDataBlock:  1,
		logBlockSize:    0,
		magic:           ext2Magic,
		revLevel:        uint32(revDynamic),
		inodeSize:       128,
		firstIno:        firstNonReservedInode,
		volumeName:      "myvolume",
		freeBlocksCount: 500,
		freeInodesCount: 2000,
	}

	b := sb.toBytes()
	if len(b) != superblockSize {
		t.Fatalf("toBytes produced %d bytes, want %d", len(b), superblockSize)
	}

	got, err := superblockFromBytes(b)
	if err != nil {
		t.Fatalf("superblockFromBytes: %v", err)
	}
	if !got.equal(sb) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, sb)
	}
	if diff, diffString := util.DumpByteSlicesWithDiffs(got.toBytes(), b, 32, false, true, true); diff {
		t.Errorf("re-encoded superblock bytes differ from the original encoding, actual then expected\n%s", diffString)
	}
}

func TestSuperblockRejectsBadMagic(t *testing.T) {
	b := make([]byte, superblockSize)
	if _, err := superblockFromBytes(b); err == nil {
		t.Fatal("expected an error for all-zero bytes (bad magic)")
	}
}

func TestSuperblockRev0DefaultsInodeSize(t *testing.T) {
	sb := &superblock{
		blocksCount:    1000,
		blocksPerGroup: 8192,
		inodesPerGroup: 2048,
		magic:          ext2Magic,
		revLevel:       uint32(revGoodOld),
	}
	b := sb.toBytes()
	got, err := superblockFromBytes(b)
	if err != nil {
		t.Fatalf("superblockFromBytes: %v", err)
	}
	if got.inodeSize != minInodeSize {
		t.Fatalf("expected rev0 inode size to default to %d, got %d", minInodeSize, got.inodeSize)
	}
	if got.firstIno != firstNonReservedInode {
		t.Fatalf("expected rev0 first_ino to default to %d, got %d", firstNonReservedInode, got.firstIno)
	}
}

func TestBlockSizeFromLog(t *testing.T) {
	sb := &superblock{logBlockSize: 2}
	if got := sb.blockSize(); got != 4096 {
		t.Fatalf("blockSize() = %d, want 4096", got)
	}
}

func TestGdtStartBlock(t *testing.T) {
	sb1k := &superblock{logBlockSize: 0}
	if got := sb1k.gdtStartBlock(); got != 2 {
		t.Fatalf("gdtStartBlock() for 1024-byte blocks = %d, want 2", got)
	}
	sb4k := &superblock{logBlockSize: 2}
	if got := sb4k.gdtStartBlock(); got != 1 {
		t.Fatalf("gdtStartBlock() for 4096-byte blocks = %d, want 1", got)
	}
}
