package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diskfs/go-ext2/backend/file"
	"github.com/diskfs/go-ext2/ext2"
)

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls IMAGE [PATH]",
		Short: "List a directory's contents",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) > 1 {
				path = args[1]
			}

			fs, err := mountImage(args[0])
			if err != nil {
				return err
			}

			entries, err := fs.ReadDir(path)
			if err != nil {
				return fmt.Errorf("ls %s: %w", path, err)
			}
			for _, e := range entries {
				fmt.Printf("%s %7d %7d  %s\n", e.Stat.Mode, e.Inode, e.Stat.Size, e.Name)
			}
			log.Debugf("listed %d entries under %s", len(entries), path)
			return nil
		},
	}
}

func mountImage(path string) (*ext2.FileSystem, error) {
	return mountImageMode(path, true)
}

func mountImageMode(path string, readOnly bool) (*ext2.FileSystem, error) {
	dev, err := file.OpenFromPath(path, readOnly)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return ext2.Mount(dev)
}
