package mat

import (
	gmat "gonum.org/v1/gonum/mat"
)

// Orthonormalize projects r onto the nearest proper rotation (R = U·Vᵗ of
// the SVD of r, with the sign of the last singular direction fixed so that
// det(R) = 1). r is returned unchanged if the factorization fails.
func Orthonormalize(r Mat3) Mat3 {
	a := gmat.NewDense(3, 3, nil)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			a.Set(row, col, r.At(row, col))
		}
	}

	var svd gmat.SVD
	if !svd.Factorize(a, gmat.SVDFull) {
		return r
	}
	var u, v, p gmat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	p.Mul(&u, v.T())
	if gmat.Det(&p) < 0 {
		for row := 0; row < 3; row++ {
			u.Set(row, 2, -u.At(row, 2))
		}
		p.Mul(&u, v.T())
	}

	var out Mat3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			out[3*col+row] = p.At(row, col)
		}
	}
	return out
}

// OrthonormalizeAffine replaces the rotation block of m with its nearest rotation.
func (m Mat4) OrthonormalizeAffine() Mat4 {
	return FromRotationTranslation(Orthonormalize(m.Rotation()), m.Translation())
}
