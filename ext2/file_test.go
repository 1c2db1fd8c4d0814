package ext2_test

import (
	"errors"
	"io"
	"testing"

	"github.com/diskfs/go-ext2/ext2"
)

func TestFileHandleSeekAndPartialRead(t *testing.T) {
	fs := mustFormat(t)

	f, err := fs.Create("/f.bin", 0644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write([]byte("0123456789")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rf, err := fs.Open("/f.bin")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := rf.Seek(3, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	buf := make([]byte, 4)
	n, err := rf.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 4 || string(buf) != "3456" {
		t.Fatalf("Read after seek got %q (n=%d), want %q", buf[:n], n, "3456")
	}
}

func TestFileHandleReadPastEndReturnsEOF(t *testing.T) {
	fs := mustFormat(t)
	f, err := fs.Create("/short.bin", 0644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write([]byte("abc")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rf, err := fs.Open("/short.bin")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	buf := make([]byte, 10)
	n, err := rf.Read(buf)
	if n != 3 {
		t.Fatalf("Read returned n=%d, want 3", n)
	}
	if err != io.EOF {
		t.Fatalf("Read returned err=%v, want io.EOF", err)
	}
}

func TestWriteAtDoesNotDisturbPosition(t *testing.T) {
	fs := mustFormat(t)
	f, err := fs.Create("/wat.bin", 0644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write([]byte("aaaaaaaaaa")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := f.WriteAt([]byte("BB"), 2); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	rf, err := fs.Open("/wat.bin")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(rf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "aaBBaaaaaa" {
		t.Fatalf("got %q, want %q", got, "aaBBaaaaaa")
	}
}

func TestWriteBeyondMaxExtentFails(t *testing.T) {
	fs := mustFormat(t)
	f, err := fs.Create("/huge.bin", 0644)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// writes are restricted to the 12 direct block pointers; one byte at the
	// start of the 13th logical block must fail even though the filesystem
	// could in principle grow an indirect block to reach it. mustFormat
	// leaves BlockSize at its 1024-byte default.
	_, err = f.WriteAt([]byte("x"), 12*1024)
	if !errors.Is(err, ext2.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput writing past the direct-block extent, got %v", err)
	}

	// an offset far beyond anything indirection could address must fail too.
	_, err = f.WriteAt([]byte("x"), 1<<40)
	if !errors.Is(err, ext2.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput writing past the maximum addressable extent, got %v", err)
	}
}
