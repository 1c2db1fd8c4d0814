//go:build !(aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)

package file

import (
	"fmt"

	"github.com/diskfs/go-ext2/backend"
)

// Size returns the backend's stat size. Raw block device sizing via ioctl
// is not supported on this platform; Size still works for ordinary image
// files, which is the common case.
func Size(s backend.Storage) (int64, error) {
	info, err := s.Stat()
	if err != nil {
		return 0, fmt.Errorf("could not stat backend: %w", err)
	}
	return info.Size(), nil
}
