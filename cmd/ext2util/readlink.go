package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func readlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "readlink IMAGE PATH",
		Short: "Print a symlink's target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := mountImage(args[0])
			if err != nil {
				return err
			}
			target, err := fs.Readlink(args[1])
			if err != nil {
				return fmt.Errorf("readlink %s: %w", args[1], err)
			}
			fmt.Println(target)
			return nil
		},
	}
}
