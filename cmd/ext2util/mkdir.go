package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func mkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir IMAGE PATH",
		Short: "Create a new directory in an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := mountImageMode(args[0], false)
			if err != nil {
				return err
			}
			if err := fs.Mkdir(args[1], 0755); err != nil {
				return fmt.Errorf("mkdir %s: %w", args[1], err)
			}
			log.Debugf("created directory %s", args[1])
			return nil
		},
	}
}
