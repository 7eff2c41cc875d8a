// Package chain aligns an ordered sequence of scans into the frame of the
// first scan by composing the pairwise records of consecutive scans.
package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/seqsense/pcchain/mat"
	"github.com/seqsense/pcchain/record"
	"github.com/seqsense/pcchain/registration"
	"github.com/seqsense/pcchain/scan"
	"github.com/seqsense/pcchain/viz"
)

// Driver processes a chain of scans. Scan i is aligned only to scan i-1,
// so pairs are processed strictly in order.
type Driver struct {
	Store     record.Store
	Registrar registration.Registrar
	// Loader and Sink may be nil, in which case only transforms are computed.
	Loader  scan.Loader
	Sink    viz.Sink
	Palette viz.Palette
	Logger  *log.Logger
	// Orthonormalize projects the accumulated rotation onto the nearest
	// proper rotation after every step.
	Orthonormalize bool
}

// State is the accumulated world transform of the scan at Index.
type State struct {
	Index int
	World mat.Mat4
}

// Initial is the state of the first scan, which defines the world frame.
func Initial() State {
	return State{World: mat.Identity()}
}

type Result struct {
	// World holds the world transform of every processed scan.
	World      []mat.Mat4
	Cached     int
	Registered int
	// Exhausted is set if there was no pair to process.
	Exhausted bool
}

func (d *Driver) logger() *log.Logger {
	if d.Logger == nil {
		return log.Default()
	}
	return d.Logger
}

// Record returns the record of the pair (a, b), registering the pair if
// the store has none. A corrupt stored record is returned as an error and
// never replaced.
func (d *Driver) Record(ctx context.Context, a, b scan.Scan) (rec record.Record, registered bool, err error) {
	key := registration.Key(a, b)
	ok, err := d.Store.Exists(ctx, key)
	if err != nil {
		return record.Record{}, false, err
	}
	if ok {
		d.logger().Info("Using cached record", "pair", key)
		rec, err := d.Store.Load(ctx, key)
		return rec, false, err
	}
	if d.Registrar == nil {
		return record.Record{}, false, fmt.Errorf("%w: no registrar configured", record.ErrNotFound)
	}
	rec, err = d.Registrar.Register(ctx, a, b)
	if err != nil {
		return record.Record{}, false, err
	}
	return rec, true, nil
}

// Step advances st, the state of scan a, to the state of scan b.
func (d *Driver) Step(ctx context.Context, st State, a, b scan.Scan) (State, bool, error) {
	rec, registered, err := d.Record(ctx, a, b)
	if err != nil {
		return st, false, err
	}
	world, err := ComposeNext(st.World, rec)
	if err != nil {
		return st, false, err
	}
	if d.Orthonormalize {
		world = world.OrthonormalizeAffine()
	}
	d.logger().Debug("Composed", "pair", registration.Key(a, b),
		"q", rec.Orientation, "t", rec.Translation, "world", world)
	return State{Index: st.Index + 1, World: world}, registered, nil
}

// Run processes scans in order and forwards every scan, transformed into
// the world frame, to the sink. It stops at the first failing pair; the
// records stored up to then are reused by the next run.
func (d *Driver) Run(ctx context.Context, scans []scan.Scan) (*Result, error) {
	if len(scans) == 0 {
		return nil, ErrNoScans
	}

	res := &Result{}
	st := Initial()
	if err := d.emit(ctx, st, scans[0]); err != nil {
		return res, fmt.Errorf("scan %s: %w", scans[0].Name, err)
	}
	res.World = append(res.World, st.World)

	if len(scans) < 2 {
		d.logger().Warn("Input exhausted, nothing to register", "scans", len(scans))
		res.Exhausted = true
		return res, nil
	}

	for i := 1; i < len(scans); i++ {
		a, b := scans[i-1], scans[i]
		key := registration.Key(a, b)
		if err := ctx.Err(); err != nil {
			return res, &PairError{Key: key, Err: err}
		}

		next, registered, err := d.Step(ctx, st, a, b)
		if err != nil {
			d.logger().Error("Chain stopped", "pair", key, "err", err)
			return res, &PairError{Key: key, Err: err}
		}
		if registered {
			res.Registered++
		} else {
			res.Cached++
		}

		if err := d.emit(ctx, next, b); err != nil {
			return res, &PairError{Key: key, Err: err}
		}
		st = next
		res.World = append(res.World, st.World)
	}
	d.logger().Info("Chain aligned", "scans", len(scans), "cached", res.Cached, "registered", res.Registered)
	return res, nil
}

func (d *Driver) emit(ctx context.Context, st State, s scan.Scan) error {
	if d.Sink == nil {
		return nil
	}
	if d.Loader == nil {
		return errors.New("sink configured without loader")
	}
	points, err := d.Loader.Load(ctx, s)
	if err != nil {
		return err
	}
	if st.Index > 0 {
		points = scan.Transform(points, st.World)
	}
	palette := d.Palette
	if palette == nil {
		palette = viz.LabelPalette
	}
	return d.Sink.Emit(ctx, viz.Frame{
		Index:  st.Index,
		Scan:   s,
		Points: points,
		Color:  palette.Color(st.Index),
		World:  st.World,
	})
}
