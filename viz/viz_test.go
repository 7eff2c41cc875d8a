package viz

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/seqsense/pcgol/pc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqsense/pcchain/scan"
)

func TestPalette(t *testing.T) {
	p := Palette{{R: 1}, {G: 2}, {B: 3}}
	assert.Equal(t, Color{R: 1}, p.Color(0))
	assert.Equal(t, Color{B: 3}, p.Color(2))
	assert.Equal(t, Color{R: 1}, p.Color(3))
	assert.Equal(t, Color{G: 2}, p.Color(7))
	assert.Equal(t, Color{R: 255, G: 255, B: 255}, Palette{}.Color(3))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#1f77b4")
	require.NoError(t, err)
	assert.Equal(t, LabelPalette[0], c)
	assert.Equal(t, "#1f77b4", c.Hex())

	c, err = ParseColor("FF0000")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 255}, c)

	for _, s := range []string{"", "#fff", "#gggggg", "#1234567"} {
		_, err := ParseColor(s)
		assert.Error(t, err, s)
	}

	p, err := ParsePalette([]string{"#000000", "#ffffff"})
	require.NoError(t, err)
	assert.Equal(t, Palette{{}, {R: 255, G: 255, B: 255}}, p)
	_, err = ParsePalette([]string{"#000000", "x"})
	assert.Error(t, err)
}

func frames() []Frame {
	return []Frame{
		{Index: 0, Scan: scan.New("scan_0.pcd"), Points: pc.Vec3Slice{{0, 0, 0}, {1, 0, 0}}, Color: LabelPalette.Color(0)},
		{Index: 1, Scan: scan.New("scan_1.pcd"), Points: pc.Vec3Slice{{0, 1, 0}}, Color: LabelPalette.Color(1)},
	}
}

func TestHTMLSink(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chain.html")
	s := NewHTMLSink(path, "chain")
	for _, f := range frames() {
		require.NoError(t, s.Emit(ctx, f))
	}
	require.NoError(t, s.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "scan_0")
	assert.Contains(t, string(b), "scan_1")
	assert.Contains(t, string(b), LabelPalette.Color(1).Hex())
	assert.Contains(t, string(b), "scans=2 points=3")
}

func TestHTMLSink_Stride(t *testing.T) {
	s := &HTMLSink{MaxPointsPerScan: 10}
	points := make(pc.Vec3Slice, 95)
	require.NoError(t, s.Emit(context.Background(), Frame{Scan: scan.New("s"), Points: points}))
	assert.Equal(t, 10, s.points)

	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf))
}

func TestPCDSink(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chain.pcd")
	s := NewPCDSink(path)
	for _, f := range frames() {
		require.NoError(t, s.Emit(ctx, f))
	}
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	pp, err := pc.Unmarshal(f)
	require.NoError(t, err)
	require.Equal(t, 3, pp.Points)

	it, err := pp.Vec3Iterator()
	require.NoError(t, err)
	itL, err := pp.Uint32Iterator("label")
	require.NoError(t, err)

	expected := pc.Vec3Slice{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	expectedLabels := []uint32{0, 0, 1}
	for i := 0; it.IsValid(); i++ {
		assert.Equal(t, expected[i], it.Vec3())
		assert.Equal(t, expectedLabels[i], itL.Uint32())
		it.Incr()
		itL.Incr()
	}
}

type failingSink struct {
	emitted int
	closed  bool
}

func (s *failingSink) Emit(context.Context, Frame) error {
	s.emitted++
	return errors.New("emit failed")
}

func (s *failingSink) Close() error {
	s.closed = true
	return errors.New("close failed")
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	pcd := NewPCDSink("")
	f := &failingSink{}
	m := Multi(pcd, Discard, f)

	assert.Error(t, m.Emit(ctx, frames()[0]))
	assert.Equal(t, 1, f.emitted)
	assert.Len(t, pcd.points, 2)

	assert.Error(t, m.Close())
	assert.True(t, f.closed)
}
