package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/seqsense/pcchain/chain"
	"github.com/seqsense/pcchain/mat"
	"github.com/seqsense/pcchain/orientation"
	"github.com/seqsense/pcchain/record"
	"github.com/seqsense/pcchain/registration"
	"github.com/seqsense/pcchain/scan"
)

type alignOptions struct {
	scans scanFlags
	store storeFlags

	backend        string
	binary         string
	lambdaS3       float64
	lambdaR3       float64
	timeout        time.Duration
	workDir        string
	html           string
	pcd            string
	title          string
	orthonormalize bool
	refresh        bool
}

func newAlignCmd(root *rootOptions) *cobra.Command {
	o := &alignOptions{}
	cmd := &cobra.Command{
		Use:   "align [scan...]",
		Short: "Align scans into the frame of the first scan",
		Long: `Align scans into the frame of the first scan.

Each scan is registered to the previous one. Pair records already present
in the store are reused, so a stopped run can be resumed by running the
same command again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			o.apply(cmd, &cfg)
			if err := cfg.validate(); err != nil {
				return err
			}
			return runAlign(cmd.Context(), cmd.OutOrStdout(), cfg, args, o.refresh)
		},
	}
	o.scans.register(cmd)
	o.store.register(cmd)
	f := cmd.Flags()
	f.StringVar(&o.backend, "backend", "", "registration backend: command or icp")
	f.StringVar(&o.binary, "bin", "", "external registration program")
	f.Float64Var(&o.lambdaS3, "lambda-s3", 0, "lambda S3 passed to the registration program")
	f.Float64Var(&o.lambdaR3, "lambda-r3", 0, "lambda R3 passed to the registration program")
	f.DurationVar(&o.timeout, "timeout", 0, "time limit of a single registration")
	f.StringVar(&o.workDir, "work-dir", "", "directory the registration program runs in")
	f.StringVar(&o.html, "html", "", "write a 3D scatter plot of the aligned scans")
	f.StringVar(&o.pcd, "pcd", "", "write the aligned scans as one labeled PCD file")
	f.StringVar(&o.title, "title", "", "title of the HTML plot")
	f.BoolVar(&o.orthonormalize, "orthonormalize", false, "re-orthonormalize accumulated rotations")
	f.BoolVar(&o.refresh, "refresh", false, "discard stored records of the given scans and register again")
	return cmd
}

func (o *alignOptions) apply(cmd *cobra.Command, cfg *config) {
	o.scans.apply(cmd, cfg)
	o.store.apply(cmd, cfg)
	f := cmd.Flags()
	if f.Changed("backend") {
		cfg.Registration.Backend = o.backend
	}
	if f.Changed("bin") {
		cfg.Registration.Binary = o.binary
	}
	if f.Changed("lambda-s3") {
		cfg.Registration.LambdaS3 = o.lambdaS3
	}
	if f.Changed("lambda-r3") {
		cfg.Registration.LambdaR3 = o.lambdaR3
	}
	if f.Changed("timeout") {
		cfg.Registration.Timeout = o.timeout
	}
	if f.Changed("work-dir") {
		cfg.Registration.WorkDir = o.workDir
	}
	if f.Changed("html") {
		cfg.Output.HTML = o.html
	}
	if f.Changed("pcd") {
		cfg.Output.PCD = o.pcd
	}
	if f.Changed("title") {
		cfg.Output.Title = o.title
	}
	if f.Changed("orthonormalize") {
		cfg.Orthonormalize = o.orthonormalize
	}
}

func runAlign(ctx context.Context, out io.Writer, cfg config, args []string, refresh bool) error {
	logger := loggerFromContext(ctx)

	scans, err := resolveScans(cfg.Scans, args)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("Failed to close store", "err", err)
		}
	}()

	if refresh {
		for i := 1; i < len(scans); i++ {
			key := registration.Key(scans[i-1], scans[i])
			if err := store.Invalidate(ctx, key); err != nil {
				return fmt.Errorf("invalidating %s: %w", key, err)
			}
		}
	}

	loader := scan.FileLoader{}
	sink, palette, err := newSink(cfg.Output)
	if err != nil {
		return err
	}
	d := &chain.Driver{
		Store:          store,
		Registrar:      newRegistrar(cfg, store, loader, logger),
		Loader:         loader,
		Sink:           sink,
		Palette:        palette,
		Logger:         logger,
		Orthonormalize: cfg.Orthonormalize,
	}

	res, err := d.Run(ctx, scans)
	if sink != nil {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if res != nil {
		if werr := writeWorld(out, scans, res.World); werr != nil && err == nil {
			err = werr
		}
	}
	if err != nil {
		var pe *chain.PairError
		if errors.As(err, &pe) {
			logHint(logger, pe)
		}
		return err
	}
	return nil
}

func logHint(logger *log.Logger, pe *chain.PairError) {
	switch {
	case errors.Is(pe.Err, record.ErrCorrupt):
		logger.Info("Inspect the record, or discard it and register again",
			"cmd", fmt.Sprintf("pcchain record invalidate %s %s", pe.Key.A, pe.Key.B))
	case errors.Is(pe.Err, registration.ErrFailed):
		logger.Info("Fix the registration and run again; stored records are reused")
	}
}

// writeWorld prints one line per scan: name, translation and orientation
// of the scan in the world frame.
func writeWorld(w io.Writer, scans []scan.Scan, world []mat.Mat4) error {
	for i, m := range world {
		t := m.Translation()
		q := orientation.FromMatrix(m.Rotation())
		if _, err := fmt.Fprintf(w, "%s %g %g %g %g %g %g %g\n",
			scans[i].Name, t[0], t[1], t[2], q.W, q.X, q.Y, q.Z); err != nil {
			return err
		}
	}
	return nil
}
