package chain

import (
	"fmt"

	"github.com/seqsense/pcchain/mat"
	"github.com/seqsense/pcchain/record"
)

// PairTransform returns the transform of B's frame expressed in A's frame
// (A_T_B) for the record of the pair (A, B).
//
// Records hold the sense reported by the registration backend, B_T_A, so
// the record is inverted here: rotation Rᵗ, translation -Rᵗt. A backend
// reporting the opposite sense must be adapted before its records are
// stored, not here.
func PairTransform(r record.Record) (mat.Mat4, error) {
	rot, err := r.Orientation.Matrix()
	if err != nil {
		return mat.Mat4{}, err
	}
	if !r.Translation.IsFinite() {
		return mat.Mat4{}, fmt.Errorf("%w: %v", ErrNonFiniteTranslation, r.Translation)
	}
	return mat.FromRotationTranslation(rot, r.Translation).InvAffine(), nil
}

// ComposeNext returns acc · A_T_B, the world transform of scan B given the
// world transform acc of scan A.
func ComposeNext(acc mat.Mat4, r record.Record) (mat.Mat4, error) {
	aTb, err := PairTransform(r)
	if err != nil {
		return mat.Mat4{}, err
	}
	return acc.MulAffine(aTb), nil
}
