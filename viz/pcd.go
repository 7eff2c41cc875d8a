package viz

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/seqsense/pcgol/pc"
)

// PCDSink merges all frames into one point cloud with a label field
// holding the scan index. The cloud is written to Path on Close.
type PCDSink struct {
	Path string

	points pc.Vec3Slice
	labels []uint32
}

func NewPCDSink(path string) *PCDSink {
	return &PCDSink{Path: path}
}

func (s *PCDSink) Emit(ctx context.Context, f Frame) error {
	s.points = append(s.points, f.Points...)
	for range f.Points {
		s.labels = append(s.labels, uint32(f.Index))
	}
	return nil
}

// PointCloud returns the merged cloud.
func (s *PCDSink) PointCloud() (*pc.PointCloud, error) {
	pp := &pc.PointCloud{
		PointCloudHeader: pc.PointCloudHeader{
			Version:   0.7,
			Fields:    []string{"x", "y", "z", "label"},
			Size:      []int{4, 4, 4, 4},
			Type:      []string{"F", "F", "F", "U"},
			Count:     []int{1, 1, 1, 1},
			Viewpoint: []float32{0, 0, 0, 1, 0, 0, 0},
			Width:     len(s.points),
			Height:    1,
		},
		Points: len(s.points),
	}
	pp.Data = make([]byte, len(s.points)*pp.Stride())

	it, err := pp.Vec3Iterator()
	if err != nil {
		return nil, err
	}
	itL, err := pp.Uint32Iterator("label")
	if err != nil {
		return nil, err
	}
	for i, p := range s.points {
		it.SetVec3(p)
		itL.SetUint32(s.labels[i])
		it.Incr()
		itL.Incr()
	}
	return pp, nil
}

func (s *PCDSink) Render(w io.Writer) error {
	pp, err := s.PointCloud()
	if err != nil {
		return err
	}
	return pc.Marshal(pp, w)
}

func (s *PCDSink) Close() error {
	if s.Path == "" {
		return nil
	}
	f, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	if err := s.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", s.Path, err)
	}
	return f.Close()
}
