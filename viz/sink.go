// Package viz receives transformed scans for display or export.
package viz

import (
	"context"
	"errors"

	"github.com/seqsense/pcgol/pc"

	"github.com/seqsense/pcchain/mat"
	"github.com/seqsense/pcchain/scan"
)

// Frame is one scan expressed in the world frame.
type Frame struct {
	Index  int
	Scan   scan.Scan
	Points pc.Vec3Slice
	Color  Color
	// World maps the scan's local frame into the world frame.
	World mat.Mat4
}

// Sink consumes frames in chain order.
type Sink interface {
	Emit(ctx context.Context, f Frame) error
	Close() error
}

type discard struct{}

func (discard) Emit(context.Context, Frame) error { return nil }
func (discard) Close() error                      { return nil }

// Discard drops every frame.
var Discard Sink = discard{}

type multi []Sink

// Multi returns a sink which forwards every frame to all sinks.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Emit(ctx context.Context, f Frame) error {
	for _, s := range m {
		if err := s.Emit(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
