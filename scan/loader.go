package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pcmat "github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"

	"github.com/seqsense/pcchain/mat"
)

// Loader reads the raw points of a scan.
type Loader interface {
	Load(ctx context.Context, s Scan) (pc.Vec3Slice, error)
}

// FileLoader reads PLY or PCD files, chosen by file extension.
// Files with other extensions are read as PCD.
type FileLoader struct{}

func (FileLoader) Load(ctx context.Context, s Scan) (pc.Vec3Slice, error) {
	if strings.EqualFold(filepath.Ext(s.Path), ".ply") {
		return PLYLoader{}.Load(ctx, s)
	}
	return PCDLoader{}.Load(ctx, s)
}

// PCDLoader reads PCD files.
type PCDLoader struct{}

func (PCDLoader) Load(ctx context.Context, s Scan) (pc.Vec3Slice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pp, err := pc.Unmarshal(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.Path, err)
	}
	it, err := pp.Vec3Iterator()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	out := make(pc.Vec3Slice, 0, pp.Points)
	for ; it.IsValid(); it.Incr() {
		out = append(out, it.Vec3())
	}
	return out, nil
}

type transformedVec3RandomAccessor struct {
	pc.Vec3RandomAccessor
	trans pcmat.Mat4
}

func (a *transformedVec3RandomAccessor) Vec3At(i int) pcmat.Vec3 {
	return a.trans.TransformAffine(a.Vec3RandomAccessor.Vec3At(i))
}

// Transform rotates then translates every point by m.
func Transform(points pc.Vec3RandomAccessor, m mat.Mat4) pc.Vec3Slice {
	ra := &transformedVec3RandomAccessor{
		Vec3RandomAccessor: points,
		trans:              m.Float32(),
	}
	out := make(pc.Vec3Slice, ra.Len())
	for i := range out {
		out[i] = ra.Vec3At(i)
	}
	return out
}
