package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat IMAGE PATH",
		Short: "Print a path's metadata",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := mountImage(args[0])
			if err != nil {
				return err
			}
			st, err := fs.Metadata(args[1])
			if err != nil {
				return fmt.Errorf("stat %s: %w", args[1], err)
			}
			fmt.Printf("inode:  %d\n", st.Inode)
			fmt.Printf("mode:   %s (%#o)\n", st.Mode, uint16(st.Mode)&0xfff)
			fmt.Printf("uid:    %d\n", st.UID)
			fmt.Printf("gid:    %d\n", st.GID)
			fmt.Printf("size:   %d\n", st.Size)
			fmt.Printf("links:  %d\n", st.Links)
			fmt.Printf("mtime:  %s\n", st.ModTime)
			return nil
		},
	}
}
