package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/diskfs/go-ext2/backend"
	"github.com/diskfs/go-ext2/backend/file"
	"github.com/diskfs/go-ext2/ext2"
)

func mkfsCmd() *cobra.Command {
	var blockSize uint32
	var label string

	cmd := &cobra.Command{
		Use:   "mkfs IMAGE [SIZE_BYTES]",
		Short: "Create a new classic ext2 image, or format an existing block device in place",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dev, size, err := openMkfsTarget(args)
			if err != nil {
				return err
			}

			fs, err := ext2.Format(dev, ext2.FormatOptions{
				BlockSize:  blockSize,
				Size:       size,
				VolumeName: label,
			})
			if err != nil {
				return fmt.Errorf("mkfs %s: %w", args[0], err)
			}
			log.Infof("formatted %s (%d bytes, %d groups)", args[0], size, fs.GroupCount())
			return nil
		},
	}
	cmd.Flags().Uint32Var(&blockSize, "block-size", 1024, "filesystem block size in bytes")
	cmd.Flags().StringVar(&label, "label", "", "volume label")
	return cmd
}

// openMkfsTarget opens args[0]. When a size is given as args[1] a fresh
// image file of that size is created; otherwise the path is treated as an
// existing device or file whose size is discovered via file.Size (which
// falls back to a BLKGETSIZE64 ioctl for raw block devices).
func openMkfsTarget(args []string) (backend.Storage, int64, error) {
	if len(args) == 2 {
		size, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid size %q: %w", args[1], err)
		}
		dev, err := file.CreateFromPath(args[0], size)
		if err != nil {
			return nil, 0, fmt.Errorf("could not create %s: %w", args[0], err)
		}
		return dev, size, nil
	}

	dev, err := file.OpenFromPath(args[0], false)
	if err != nil {
		return nil, 0, fmt.Errorf("could not open %s: %w", args[0], err)
	}
	size, err := file.Size(dev)
	if err != nil {
		return nil, 0, fmt.Errorf("could not determine size of %s: %w", args[0], err)
	}
	return dev, size, nil
}
