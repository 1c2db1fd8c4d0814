package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create IMAGE PATH",
		Short: "Create a new empty file in an image, or write stdin into it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := mountImageMode(args[0], false)
			if err != nil {
				return err
			}
			f, err := fs.Create(args[1], 0644)
			if err != nil {
				return fmt.Errorf("create %s: %w", args[1], err)
			}
			n, err := io.Copy(f, os.Stdin)
			if err != nil {
				return fmt.Errorf("create %s: %w", args[1], err)
			}
			log.Debugf("created %s (%d bytes from stdin)", args[1], n)
			return nil
		},
	}
}
