package registration

import (
	"context"
	"fmt"
	"testing"

	"github.com/seqsense/pcgol/pc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqsense/pcchain/mat"
	"github.com/seqsense/pcchain/record"
	"github.com/seqsense/pcchain/scan"
)

type mapLoader map[string]pc.Vec3Slice

func (l mapLoader) Load(ctx context.Context, s scan.Scan) (pc.Vec3Slice, error) {
	pp, ok := l[s.Name]
	if !ok {
		return nil, fmt.Errorf("no scan %s", s.Name)
	}
	return pp, nil
}

func grid() pc.Vec3Slice {
	var out pc.Vec3Slice
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			for z := 0; z < 3; z++ {
				out = append(out, [3]float32{float32(x) * 0.1, float32(y) * 0.1, float32(z*z) * 0.1})
			}
		}
	}
	return out
}

func TestICP_Register(t *testing.T) {
	ctx := context.Background()
	a, b := scan.New("a.pcd"), scan.New("b.pcd")

	t.Run("Identical", func(t *testing.T) {
		store := record.NewMemoryStore()
		r := &ICP{
			Loader: mapLoader{"a": grid(), "b": grid()},
			Store:  store,
		}
		rec, err := r.Register(ctx, a, b)
		require.NoError(t, err)

		m, err := rec.Orientation.Matrix()
		require.NoError(t, err)
		assert.True(t,
			mat.FromRotationTranslation(m, rec.Translation).Near(mat.Identity(), 1e-3),
			"expected identity, got %v %v", rec.Orientation, rec.Translation,
		)

		stored, err := store.Load(ctx, Key(a, b))
		require.NoError(t, err)
		assert.Equal(t, rec, stored)
	})

	t.Run("TooFewPoints", func(t *testing.T) {
		r := &ICP{
			Loader: mapLoader{"a": grid()[:10], "b": grid()},
			Store:  record.NewMemoryStore(),
		}
		_, err := r.Register(ctx, a, b)
		assert.ErrorIs(t, err, ErrFailed)
	})

	t.Run("MissingScan", func(t *testing.T) {
		r := &ICP{
			Loader: mapLoader{"a": grid()},
			Store:  record.NewMemoryStore(),
		}
		_, err := r.Register(ctx, a, b)
		assert.ErrorIs(t, err, ErrFailed)
	})
}

func TestSample(t *testing.T) {
	in := grid()
	out := sample(in, 100, [3]float32{1, 1, 1})
	assert.LessOrEqual(t, len(out), 100)
	assert.Equal(t, in[0].Sub([3]float32{1, 1, 1}), out[0])

	all := sample(in, len(in), [3]float32{})
	assert.Equal(t, in, all)
}

func TestICP_UpdaterFactory(t *testing.T) {
	f := (&ICP{}).updaterFactory()
	assert.Equal(t, defaultMaxIteration, f.MaxIteration)
	assert.Equal(t, float32(gradientWeight), f.Weight[0])
	assert.Equal(t, float32(gradientPosThresh), f.Threshold[0])
	assert.Equal(t, float32(gradientRotThresh), f.Threshold[5])

	f = (&ICP{MaxIteration: 7}).updaterFactory()
	assert.Equal(t, 7, f.MaxIteration)
}
