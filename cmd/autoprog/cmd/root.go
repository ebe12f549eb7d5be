package cmd

import (
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "autoprog",
		Short: "In-circuit auto-programmer for AVR microcontrollers",
		Long: `autoprog identifies an AVR target by its device signature, picks the
matching firmware image and fuse settings from its built-in catalog and
programs the chip: programming fuses, flash, then the chip's normal fuses.

Logging uses glog; pass -v=1 for per-step detail.`,
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			glog.Flush()
		},
	}

	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	root.AddCommand(newCatalogCmd())
	root.AddCommand(newImagesCmd())
	root.AddCommand(newRunCmd())
	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		glog.Flush()
		os.Exit(1)
	}
}

func init() {
	// glog writes to files in the temp dir unless told otherwise
	_ = flag.Set("logtostderr", "true")
}
