package ext2_test

import (
	"errors"
	"io"
	"testing"

	"github.com/diskfs/go-ext2/ext2"
)

func TestMkdirAndReadDir(t *testing.T) {
	fs := mustFormat(t)

	if err := fs.Mkdir("/etc", 0755); err != nil {
		t.Fatalf("Mkdir /etc: %v", err)
	}
	if err := fs.Mkdir("/etc/init.d", 0755); err != nil {
		t.Fatalf("Mkdir /etc/init.d: %v", err)
	}

	entries, err := fs.ReadDir("/etc")
	if err != nil {
		t.Fatalf("ReadDir /etc: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "init.d" || !entries[0].IsDir {
		t.Fatalf("unexpected /etc entries: %+v", entries)
	}

	root, err := fs.ReadDir("/")
	if err != nil {
		t.Fatalf("ReadDir /: %v", err)
	}
	if len(root) != 1 || root[0].Name != "etc" {
		t.Fatalf("unexpected / entries: %+v", root)
	}
}

func TestMkdirDuplicateFails(t *testing.T) {
	fs := mustFormat(t)
	if err := fs.Mkdir("/a", 0755); err != nil {
		t.Fatalf("Mkdir /a: %v", err)
	}
	if err := fs.Mkdir("/a", 0755); !errors.Is(err, ext2.ErrFileExists) {
		t.Fatalf("expected ErrFileExists recreating /a, got %v", err)
	}
}

func TestCreateWriteReadRoundTrip(t *testing.T) {
	fs := mustFormat(t)

	f, err := fs.Create("/hello.txt", 0644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	content := []byte("hello, ext2\n")
	n, err := f.Write(content)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(content) {
		t.Fatalf("short write: wrote %d of %d", n, len(content))
	}

	rf, err := fs.Open("/hello.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(rf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, content)
	}
}

func TestWriteAcrossMultipleBlocks(t *testing.T) {
	fs := mustFormat(t)

	f, err := fs.Create("/big.bin", 0644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// spans most of the 12 direct blocks at the default 1024-byte block size
	content := make([]byte, 1024*11)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if _, err := f.Write(content); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rf, err := fs.Open("/big.bin")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(rf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != len(content) {
		t.Fatalf("size mismatch: got %d, want %d", len(got), len(content))
	}
	for i := range content {
		if got[i] != content[i] {
			t.Fatalf("byte %d mismatch: got %d, want %d", i, got[i], content[i])
		}
	}
}

func TestSymlinkResolution(t *testing.T) {
	fs := mustFormat(t)

	if err := fs.Mkdir("/dir", 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	f, err := fs.Create("/dir/target.txt", 0644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write([]byte("payload")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := fs.Symlink("/dir/target.txt", "/link"); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	target, err := fs.Readlink("/link")
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if target != "/dir/target.txt" {
		t.Fatalf("Readlink returned %q", target)
	}

	rf, err := fs.Open("/link")
	if err != nil {
		t.Fatalf("Open through symlink: %v", err)
	}
	got, err := io.ReadAll(rf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("unexpected content through symlink: %q", got)
	}
}

func TestSymlinkLoopIsBounded(t *testing.T) {
	fs := mustFormat(t)

	if err := fs.Symlink("/b", "/a"); err != nil {
		t.Fatalf("Symlink a->b: %v", err)
	}
	if err := fs.Symlink("/a", "/b"); err != nil {
		t.Fatalf("Symlink b->a: %v", err)
	}

	if _, err := fs.Open("/a"); !errors.Is(err, ext2.ErrInvalidInput) {
		t.Fatalf("expected a bounded-loop error opening /a, got %v", err)
	}
}

func TestTruncateShrinks(t *testing.T) {
	fs := mustFormat(t)

	f, err := fs.Create("/shrink.bin", 0644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	content := make([]byte, 1024*5)
	if _, err := f.Write(content); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := fs.Truncate("/shrink.bin", 1024); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	st, err := fs.Metadata("/shrink.bin")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if st.Size != 1024 {
		t.Fatalf("expected size 1024 after truncate, got %d", st.Size)
	}
}

func TestTruncateRejectsGrow(t *testing.T) {
	fs := mustFormat(t)
	if _, err := fs.Create("/f", 0644); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := fs.Truncate("/f", 100); !errors.Is(err, ext2.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput growing via Truncate, got %v", err)
	}
}

func TestPathResolutionNotFound(t *testing.T) {
	fs := mustFormat(t)
	if _, err := fs.Open("/nope"); !errors.Is(err, ext2.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
