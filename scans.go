package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScansCmd(root *rootOptions) *cobra.Command {
	var sf scanFlags
	cmd := &cobra.Command{
		Use:   "scans [scan...]",
		Short: "Print scans in processing order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			sf.apply(cmd, &cfg)
			scans, err := resolveScans(cfg.Scans, args)
			if err != nil {
				return err
			}
			for i, s := range scans {
				fmt.Fprintf(cmd.OutOrStdout(), "%d %s %s\n", i, s.Name, s.Path)
			}
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}
