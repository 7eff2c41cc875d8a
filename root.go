package main

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose    bool
	configPath string
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "pcchain",
		Short:         "Align a sequence of point cloud scans by chaining pairwise registrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if opts.verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(logOut, level)))
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file")

	root.AddCommand(newAlignCmd(opts))
	root.AddCommand(newScansCmd(opts))
	root.AddCommand(newRecordCmd(opts))
	root.AddCommand(newServeCmd())
	return root
}
