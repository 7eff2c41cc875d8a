package chain

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/seqsense/pcchain/mat"
	"github.com/seqsense/pcchain/orientation"
	"github.com/seqsense/pcchain/record"
)

func randomRecord(r *rand.Rand) record.Record {
	return record.Record{
		Orientation: orientation.Quaternion{
			W: r.NormFloat64(), X: r.NormFloat64(), Y: r.NormFloat64(), Z: r.NormFloat64(),
		},
		Translation: mat.Vec3{r.NormFloat64(), r.NormFloat64(), r.NormFloat64()},
	}
}

func TestPairTransform(t *testing.T) {
	testCases := map[string]struct {
		rec      record.Record
		expected mat.Mat4
	}{
		"Identity": {
			rec:      record.Record{Orientation: orientation.Identity},
			expected: mat.Identity(),
		},
		"Translation": {
			rec:      record.Record{Orientation: orientation.Identity, Translation: mat.Vec3{1, 2, 3}},
			expected: mat.Translate(-1, -2, -3),
		},
		"Rotation": {
			rec: record.Record{
				Orientation: orientation.Quaternion{W: math.Cos(math.Pi / 4), Z: math.Sin(math.Pi / 4)},
				Translation: mat.Vec3{1, 0, 0},
			},
			// (Rz(90°), (1,0,0))⁻¹ = (Rz(-90°), -Rz(-90°)·(1,0,0)) = (Rz(-90°), (0,1,0))
			expected: mat.Translate(0, 1, 0).Mul(mat.Rotate(0, 0, 1, -math.Pi/2)),
		},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			m, err := PairTransform(tt.rec)
			if err != nil {
				t.Fatal(err)
			}
			if !m.Near(tt.expected, 1e-12) {
				t.Errorf("Expected %v, got %v", tt.expected, m)
			}
		})
	}
}

func TestPairTransform_InvertsRecord(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	for i := 0; i < 100; i++ {
		rec := randomRecord(r)
		aTb, err := PairTransform(rec)
		if err != nil {
			t.Fatal(err)
		}
		rot, err := rec.Orientation.Matrix()
		if err != nil {
			t.Fatal(err)
		}
		bTa := mat.FromRotationTranslation(rot, rec.Translation)
		if !aTb.Mul(bTa).Near(mat.Identity(), 1e-12) {
			t.Fatalf("Expected inverse of %v", rec)
		}
	}
}

func TestComposeNext_Identity(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		rec := randomRecord(r)
		composed, err := ComposeNext(mat.Identity(), rec)
		if err != nil {
			t.Fatal(err)
		}
		aTb, err := PairTransform(rec)
		if err != nil {
			t.Fatal(err)
		}
		if !composed.Near(aTb, 1e-15) {
			t.Fatalf("Expected %v, got %v", aTb, composed)
		}
	}
}

func TestComposeNext_Associative(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	for i := 0; i < 100; i++ {
		r1, r2, r3 := randomRecord(r), randomRecord(r), randomRecord(r)

		// Sequential fold A -> B -> C -> D.
		acc := mat.Identity()
		for _, rec := range []record.Record{r1, r2, r3} {
			var err error
			acc, err = ComposeNext(acc, rec)
			if err != nil {
				t.Fatal(err)
			}
		}

		// Direct composition of the combined transform, grouped from the right.
		p1, _ := PairTransform(r1)
		p2, _ := PairTransform(r2)
		p3, _ := PairTransform(r3)
		direct := p1.Mul(p2.Mul(p3))

		if !acc.Near(direct, 1e-9) {
			t.Fatalf("Expected %v, got %v", direct, acc)
		}
		if !acc.Rotation().IsRotation(1e-9) {
			t.Fatalf("Expected rotation, got %v", acc.Rotation())
		}
	}
}

func TestComposeNext_Order(t *testing.T) {
	rot := record.Record{Orientation: orientation.Quaternion{W: math.Cos(math.Pi / 4), Z: math.Sin(math.Pi / 4)}}
	trans := record.Record{Orientation: orientation.Identity, Translation: mat.Vec3{1, 0, 0}}

	a, _ := ComposeNext(mat.Identity(), rot)
	a, _ = ComposeNext(a, trans)
	b, _ := ComposeNext(mat.Identity(), trans)
	b, _ = ComposeNext(b, rot)

	// World of the last scan: Rz(-90°) then translate by -x in the rotated frame.
	if !a.Translation().Near(mat.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("Expected (0, 1, 0), got %v", a.Translation())
	}
	if !b.Translation().Near(mat.Vec3{-1, 0, 0}, 1e-12) {
		t.Errorf("Expected (-1, 0, 0), got %v", b.Translation())
	}
}

func TestComposeNext_Degenerate(t *testing.T) {
	_, err := ComposeNext(mat.Identity(), record.Record{})
	if !errors.Is(err, orientation.ErrDegenerateOrientation) {
		t.Errorf("Expected ErrDegenerateOrientation, got %v", err)
	}
}

func TestComposeNext_NonFiniteTranslation(t *testing.T) {
	_, err := ComposeNext(mat.Identity(), record.Record{
		Orientation: orientation.Identity,
		Translation: mat.Vec3{1, math.Inf(1), 0},
	})
	if !errors.Is(err, ErrNonFiniteTranslation) {
		t.Errorf("Expected ErrNonFiniteTranslation, got %v", err)
	}
}
