// Command ext2util mounts and inspects classic ext2 images from the shell:
// listing directories, printing file contents and metadata, and formatting
// new images.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.New()

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "ext2util",
		Short:         "Inspect and format classic ext2 filesystem images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(lsCmd(), catCmd(), statCmd(), mkfsCmd(), mkdirCmd(), createCmd(), readlinkCmd())
	return cmd
}
