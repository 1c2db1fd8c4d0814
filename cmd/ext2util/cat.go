package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat IMAGE PATH",
		Short: "Print a file's contents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := mountImage(args[0])
			if err != nil {
				return err
			}
			f, err := fs.Open(args[1])
			if err != nil {
				return fmt.Errorf("cat %s: %w", args[1], err)
			}
			if _, err := io.Copy(os.Stdout, f); err != nil {
				return fmt.Errorf("cat %s: %w", args[1], err)
			}
			return nil
		},
	}
}
