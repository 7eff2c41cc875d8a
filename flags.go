package main

import (
	"github.com/spf13/cobra"
)

type scanFlags struct {
	dir     string
	pattern string
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "dir", "", "directory to discover scans in")
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "regexp selecting scan file names in --dir")
}

func (f *scanFlags) apply(cmd *cobra.Command, cfg *config) {
	if cmd.Flags().Changed("dir") {
		cfg.Scans.Dir = f.dir
	}
	if cmd.Flags().Changed("pattern") {
		cfg.Scans.Pattern = f.pattern
	}
}

type storeFlags struct {
	dir       string
	sqlite    string
	namespace string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "store-dir", "", "directory of record files")
	cmd.Flags().StringVar(&f.sqlite, "sqlite", "", "keep records in this SQLite database instead of files")
	cmd.Flags().StringVar(&f.namespace, "namespace", "", "record namespace in the SQLite database")
}

func (f *storeFlags) apply(cmd *cobra.Command, cfg *config) {
	if cmd.Flags().Changed("store-dir") {
		cfg.Store.Type = storeDir
		cfg.Store.Dir = f.dir
	}
	if cmd.Flags().Changed("sqlite") {
		cfg.Store.Type = storeSQLite
		cfg.Store.SQLite = f.sqlite
	}
	if cmd.Flags().Changed("namespace") {
		cfg.Store.Namespace = f.namespace
	}
}
