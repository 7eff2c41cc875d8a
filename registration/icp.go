package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	pcmat "github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
	"github.com/seqsense/pcgol/pc/registration/icp"
	"github.com/seqsense/pcgol/pc/storage/kdtree"

	"github.com/seqsense/pcchain/mat"
	"github.com/seqsense/pcchain/orientation"
	"github.com/seqsense/pcchain/record"
	"github.com/seqsense/pcchain/scan"
)

// ICP registers pairs in process with point-to-point ICP.
// The fitted transform maps B into A; it is stored inverted so that
// records from ICP and from Command have the same sense.
type ICP struct {
	Loader scan.Loader
	Store  record.Store
	Logger *log.Logger

	MatchRange      float32
	MaxIteration    int
	MaxBasePoints   int
	MaxTargetPoints int
}

const (
	defaultMatchRange      = 0.5
	defaultMaxIteration    = 50
	defaultMaxBasePoints   = 60000
	defaultMaxTargetPoints = 10000
	gradientWeight         = 0.25
	gradientPosThresh      = 0.001
	gradientRotThresh      = 0.002
	minPairs               = 32
)

func (r *ICP) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

func (r *ICP) updaterFactory() icp.GradientDescentUpdaterFactory {
	return icp.GradientDescentUpdaterFactory{
		Weight: pcmat.Vec6{
			gradientWeight, gradientWeight, gradientWeight,
			gradientWeight, gradientWeight, gradientWeight,
		},
		Threshold: pcmat.Vec6{
			gradientPosThresh, gradientPosThresh, gradientPosThresh,
			gradientRotThresh, gradientRotThresh, gradientRotThresh,
		},
		MaxIteration: orDefault(r.MaxIteration, defaultMaxIteration),
	}
}

func orDefault[T int | float32](v, d T) T {
	if v <= 0 {
		return d
	}
	return v
}

func (r *ICP) Register(ctx context.Context, a, b scan.Scan) (record.Record, error) {
	key := Key(a, b)
	start := time.Now()

	pa, err := r.Loader.Load(ctx, a)
	if err != nil {
		return record.Record{}, failed(a, b, err)
	}
	pb, err := r.Loader.Load(ctx, b)
	if err != nil {
		return record.Record{}, failed(a, b, err)
	}
	if len(pa) < minPairs || len(pb) < minPairs {
		return record.Record{}, failed(a, b, fmt.Errorf("too few points: %d, %d", len(pa), len(pb)))
	}

	center := centroid(pa)
	base := sample(pa, orDefault(r.MaxBasePoints, defaultMaxBasePoints), center)
	target := sample(pb, orDefault(r.MaxTargetPoints, defaultMaxTargetPoints), center)
	kdt := kdtree.New(base)

	matchRange := orDefault(r.MatchRange, defaultMatchRange)
	ppicp := &icp.PointToPointICPGradient{
		Evaluator: &icp.PointToPointEvaluator{
			Corresponder: &icp.NearestPointCorresponder{MaxDist: matchRange},
			MinPairs:     minPairs,
			WeightFn: func(distSq float32) float32 {
				w := (1 - distSq/(matchRange*matchRange))
				return w * w
			},
		},
		UpdaterFactory: r.updaterFactory(),
	}
	transFit, stat, err := ppicp.Fit(kdt, target)
	if err != nil {
		return record.Record{}, failed(a, b, fmt.Errorf("%v, stat: %v", err, stat))
	}
	r.logger().Debug("ICP converged", "pair", key, "stat", fmt.Sprintf("%v", stat))

	aTb := mat.FromFloat32(
		pcmat.Translate(center[0], center[1], center[2]).
			Mul(transFit).
			Mul(pcmat.Translate(-center[0], -center[1], -center[2])),
	)
	bTa := aTb.InvAffine()
	rec := record.Record{
		Orientation: orientation.FromMatrix(mat.Orthonormalize(bTa.Rotation())),
		Translation: bTa.Translation(),
	}
	if !rec.Translation.IsFinite() {
		return record.Record{}, failed(a, b, errors.New("non-finite transform"))
	}

	rec, err = persist(ctx, r.Store, key, rec)
	if err != nil {
		return record.Record{}, failed(a, b, err)
	}
	r.logger().Info("Registered", "pair", key, "elapsed", time.Since(start).Round(time.Millisecond))
	return rec, nil
}

func centroid(points pc.Vec3Slice) pcmat.Vec3 {
	var sum [3]float64
	for _, p := range points {
		for i := range sum {
			sum[i] += float64(p[i])
		}
	}
	n := float64(len(points))
	return pcmat.Vec3{float32(sum[0] / n), float32(sum[1] / n), float32(sum[2] / n)}
}

// sample takes at most nMax evenly strided points, shifted by -center.
func sample(points pc.Vec3Slice, nMax int, center pcmat.Vec3) pc.Vec3Slice {
	stride := 1
	if len(points) > nMax {
		stride = (len(points) + nMax - 1) / nMax
	}
	out := make(pc.Vec3Slice, 0, len(points)/stride+1)
	for i := 0; i < len(points); i += stride {
		out = append(out, points[i].Sub(center))
	}
	return out
}
