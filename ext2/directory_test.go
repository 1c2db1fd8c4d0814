package ext2

import (
	"testing"

	"github.com/diskfs/go-ext2/backend"
	"github.com/diskfs/go-ext2/util"
)

func TestMinRecLenAlignment(t *testing.T) {
	cases := map[string]uint16{
		"":     8,
		"a":    12,
		"etc":  12,
		"init.d": 16,
	}
	for name, want := range cases {
		if got := minRecLen(name); got != want {
			t.Errorf("minRecLen(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestDirEntryRoundTrip(t *testing.T) {
	e := dirEntry{inode: 42, recLen: 16, fileType: dirFileTypeDir, name: "init.d"}
	b := e.toBytes()
	got, err := dirEntryFromBytes(b)
	if err != nil {
		t.Fatalf("dirEntryFromBytes: %v", err)
	}
	if got != e {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, e)
	}
	if diff, diffString := util.DumpByteSlicesWithDiffs(got.toBytes(), b, 16, false, true, true); diff {
		t.Errorf("re-encoded directory entry bytes differ from the original encoding, actual then expected\n%s", diffString)
	}
}

func TestAddDirEntrySplicesIntoSlack(t *testing.T) {
	fs, err := Format(backend.NewMem(4*1024*1024), FormatOptions{Size: 4 * 1024 * 1024})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}

	root, err := fs.readInode(rootInode)
	if err != nil {
		t.Fatalf("readInode(root): %v", err)
	}

	if err := fs.addDirEntry(root, "a", 100, dirFileTypeFile); err != nil {
		t.Fatalf("addDirEntry a: %v", err)
	}
	if err := fs.addDirEntry(root, "b", 101, dirFileTypeFile); err != nil {
		t.Fatalf("addDirEntry b: %v", err)
	}

	entries, err := fs.listDir(root)
	if err != nil {
		t.Fatalf("listDir: %v", err)
	}

	names := map[string]uint32{}
	for _, e := range entries {
		names[e.name] = e.inode
	}
	if names["a"] != 100 || names["b"] != 101 {
		t.Fatalf("unexpected directory contents: %+v", names)
	}
	// "." and ".." must still be present and correct after splicing two more entries in.
	if names["."] != rootInode || names[".."] != rootInode {
		t.Fatalf("dot entries corrupted by splice: %+v", names)
	}
}
