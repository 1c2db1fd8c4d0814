//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build aix darwin dragonfly freebsd linux netbsd openbsd solaris

package file

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/diskfs/go-ext2/backend"
)

const blkgetsize64 = 0x80081272 // Linux BLKGETSIZE64; harmless no-op ioctl number on other unixes

// Size returns the usable size in bytes of the backend: for a regular file,
// its stat size; for a raw block device, the kernel's own idea of the
// device's size via ioctl, since a block device's fs.FileInfo.Size() is
// typically zero.
func Size(s backend.Storage) (int64, error) {
	info, err := s.Stat()
	if err != nil {
		return 0, fmt.Errorf("could not stat backend: %w", err)
	}
	if info.Mode()&os.ModeDevice == 0 {
		return info.Size(), nil
	}

	osFile, err := s.Sys()
	if err != nil {
		return 0, fmt.Errorf("could not get raw handle for device size ioctl: %w", err)
	}
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, osFile.Fd(), blkgetsize64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, fmt.Errorf("BLKGETSIZE64 ioctl failed: %w", errno)
	}
	return int64(size), nil
}
