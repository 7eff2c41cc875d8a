// Package orientation converts between unit quaternions and rotation matrices.
package orientation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"

	"github.com/seqsense/pcchain/mat"
)

// ErrDegenerateOrientation is returned for quaternions with zero or non-finite norm.
var ErrDegenerateOrientation = errors.New("degenerate orientation")

// Quaternion is a rotation as (w, x, y, z). It does not need to be normalized.
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity is the quaternion of the zero rotation.
var Identity = Quaternion{W: 1}

func (q Quaternion) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// Norm returns the Euclidean norm of q.
func (q Quaternion) Norm() float64 {
	return quat.Abs(q.number())
}

// Normalized returns q scaled to unit norm.
func (q Quaternion) Normalized() (Quaternion, error) {
	n := q.number()
	if quat.IsNaN(n) || quat.IsInf(n) {
		return Quaternion{}, fmt.Errorf("%w: non-finite component in %v", ErrDegenerateOrientation, q)
	}
	norm := quat.Abs(n)
	if norm == 0 || math.IsInf(norm, 0) {
		return Quaternion{}, fmt.Errorf("%w: norm of %v is %g", ErrDegenerateOrientation, q, norm)
	}
	u := quat.Scale(1/norm, n)
	return Quaternion{W: u.Real, X: u.Imag, Y: u.Jmag, Z: u.Kmag}, nil
}

// Matrix returns the rotation matrix of q after normalizing it.
func (q Quaternion) Matrix() (mat.Mat3, error) {
	u, err := q.Normalized()
	if err != nil {
		return mat.Mat3{}, err
	}
	w, x, y, z := u.W, u.X, u.Y, u.Z

	return mat.Mat3{
		1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y),
		2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x),
		2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y),
	}, nil
}

// FromMatrix returns the unit quaternion of the rotation matrix r, with W >= 0.
func FromMatrix(r mat.Mat3) Quaternion {
	r00, r01, r02 := r.At(0, 0), r.At(0, 1), r.At(0, 2)
	r10, r11, r12 := r.At(1, 0), r.At(1, 1), r.At(1, 2)
	r20, r21, r22 := r.At(2, 0), r.At(2, 1), r.At(2, 2)

	var q Quaternion
	switch tr := r00 + r11 + r22; {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = Quaternion{W: s / 4, X: (r21 - r12) / s, Y: (r02 - r20) / s, Z: (r10 - r01) / s}
	case r00 > r11 && r00 > r22:
		s := math.Sqrt(1+r00-r11-r22) * 2
		q = Quaternion{W: (r21 - r12) / s, X: s / 4, Y: (r01 + r10) / s, Z: (r02 + r20) / s}
	case r11 > r22:
		s := math.Sqrt(1+r11-r00-r22) * 2
		q = Quaternion{W: (r02 - r20) / s, X: (r01 + r10) / s, Y: s / 4, Z: (r12 + r21) / s}
	default:
		s := math.Sqrt(1+r22-r00-r11) * 2
		q = Quaternion{W: (r10 - r01) / s, X: (r02 + r20) / s, Y: (r12 + r21) / s, Z: s / 4}
	}
	if q.W < 0 {
		q = Quaternion{W: -q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
	}
	return q
}

func (q Quaternion) String() string {
	return fmt.Sprintf("(w=%g x=%g y=%g z=%g)", q.W, q.X, q.Y, q.Z)
}
