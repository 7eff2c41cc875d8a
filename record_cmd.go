package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seqsense/pcchain/chain"
	"github.com/seqsense/pcchain/record"
)

func newRecordCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Inspect and manage pair records",
	}
	cmd.AddCommand(newRecordShowCmd(root))
	cmd.AddCommand(newRecordInvalidateCmd(root))
	return cmd
}

// pairKey accepts scan names or scan file paths.
func pairKey(a, b string) record.Key {
	return record.Key{A: scanName(a), B: scanName(b)}
}

func scanName(s string) string {
	base := filepath.Base(s)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newRecordShowCmd(root *rootOptions) *cobra.Command {
	var sf storeFlags
	cmd := &cobra.Command{
		Use:   "show A B",
		Short: "Print the record of a pair and the transform it implies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			sf.apply(cmd, &cfg)
			if err := cfg.validate(); err != nil {
				return err
			}
			store, closeStore, err := openStore(cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()

			key := pairKey(args[0], args[1])
			rec, err := store.Load(cmd.Context(), key)
			if err != nil {
				return err
			}
			aTb, err := chain.PairTransform(rec)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pair: %s\n", key)
			fmt.Fprintf(out, "orientation: %s\n", rec.Orientation)
			fmt.Fprintf(out, "translation: %g %g %g\n", rec.Translation[0], rec.Translation[1], rec.Translation[2])
			fmt.Fprintf(out, "%s pose in %s frame:\n", key.B, key.A)
			for row := 0; row < 4; row++ {
				fmt.Fprintf(out, "  %9.5f %9.5f %9.5f %9.5f\n",
					aTb.At(row, 0), aTb.At(row, 1), aTb.At(row, 2), aTb.At(row, 3))
			}
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

func newRecordInvalidateCmd(root *rootOptions) *cobra.Command {
	var sf storeFlags
	cmd := &cobra.Command{
		Use:   "invalidate A B",
		Short: "Remove the record of a pair so that the next run registers it again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			sf.apply(cmd, &cfg)
			if err := cfg.validate(); err != nil {
				return err
			}
			store, closeStore, err := openStore(cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()

			key := pairKey(args[0], args[1])
			if err := store.Invalidate(cmd.Context(), key); err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Info("Record removed", "pair", key)
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}
