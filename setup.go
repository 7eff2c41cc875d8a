package main

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/charmbracelet/log"

	"github.com/seqsense/pcchain/record"
	"github.com/seqsense/pcchain/registration"
	"github.com/seqsense/pcchain/scan"
	"github.com/seqsense/pcchain/viz"
)

// resolveScans returns args if given, then the configured paths, then the
// scans discovered in the configured directory.
func resolveScans(cfg scansConfig, args []string) ([]scan.Scan, error) {
	switch {
	case len(args) > 0:
		return scan.FromPaths(args), nil
	case len(cfg.Paths) > 0:
		return scan.FromPaths(cfg.Paths), nil
	case cfg.Dir != "":
		re, err := regexp.Compile(cfg.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		return scan.Discover(cfg.Dir, re)
	}
	return nil, errors.New("no scans given: pass scan files or set a directory")
}

func openStore(cfg storeConfig) (record.Store, func() error, error) {
	switch cfg.Type {
	case storeSQLite:
		s, err := record.OpenSQLiteStore(cfg.SQLite, cfg.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s, err := record.NewDirStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	}
}

func newRegistrar(cfg config, store record.Store, loader scan.Loader, logger *log.Logger) registration.Registrar {
	rc := cfg.Registration
	if rc.Backend == backendICP {
		return &registration.ICP{
			Loader:       loader,
			Store:        store,
			Logger:       logger,
			MatchRange:   rc.ICP.MatchRange,
			MaxIteration: rc.ICP.MaxIteration,
		}
	}
	workDir := rc.WorkDir
	if workDir == "" {
		workDir = "."
		if ds, ok := store.(*record.DirStore); ok {
			workDir = ds.Dir
		}
	}
	return &registration.Command{
		Binary:   rc.Binary,
		LambdaS3: rc.LambdaS3,
		LambdaR3: rc.LambdaR3,
		WorkDir:  workDir,
		Timeout:  rc.Timeout,
		Store:    store,
		Logger:   logger,
	}
}

// newSink returns nil if no output is configured.
func newSink(cfg outputConfig) (viz.Sink, viz.Palette, error) {
	palette := viz.LabelPalette
	if len(cfg.Palette) > 0 {
		p, err := viz.ParsePalette(cfg.Palette)
		if err != nil {
			return nil, nil, err
		}
		palette = p
	}

	var sinks []viz.Sink
	if cfg.HTML != "" {
		s := viz.NewHTMLSink(cfg.HTML, cfg.Title)
		s.MaxPointsPerScan = cfg.MaxPointsPerScan
		sinks = append(sinks, s)
	}
	if cfg.PCD != "" {
		sinks = append(sinks, viz.NewPCDSink(cfg.PCD))
	}
	switch len(sinks) {
	case 0:
		return nil, palette, nil
	case 1:
		return sinks[0], palette, nil
	}
	return viz.Multi(sinks...), palette, nil
}
