package mat

// Mat4 is a column-major homogeneous transform, element (row, col) at [4*col+row].
// The layout matches the float32 matrices of github.com/seqsense/pcgol/mat.
type Mat4 [16]float64

func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func (m Mat4) At(row, col int) float64 {
	return m[4*col+row]
}

func (m Mat4) Mul(a Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[4*k+i] * a[4*j+k]
			}
			out[4*j+i] = sum
		}
	}
	return out
}

// MulAffine multiplies two matrices assuming the last row of both is [0 0 0 1].
func (m Mat4) MulAffine(a Mat4) Mat4 {
	r := m.Rotation()
	return FromRotationTranslation(
		r.Mul(a.Rotation()),
		r.MulVec(a.Translation()).Add(m.Translation()),
	)
}

// InvAffine returns the inverse of a rigid transform: rotation Rᵗ and translation -Rᵗt.
func (m Mat4) InvAffine() Mat4 {
	rt := m.Rotation().T()
	return FromRotationTranslation(rt, rt.MulVec(m.Translation()).Mul(-1))
}

func (m Mat4) Rotation() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

func FromRotationTranslation(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], 0,
		r[3], r[4], r[5], 0,
		r[6], r[7], r[8], 0,
		t[0], t[1], t[2], 1,
	}
}

// TransformAffine rotates then translates a.
func (m Mat4) TransformAffine(a Vec3) Vec3 {
	var out Vec3
	out[0] = m[4*0+0]*a[0] + m[4*1+0]*a[1] + m[4*2+0]*a[2] + m[4*3+0]
	out[1] = m[4*0+1]*a[0] + m[4*1+1]*a[1] + m[4*2+1]*a[2] + m[4*3+1]
	out[2] = m[4*0+2]*a[0] + m[4*1+2]*a[1] + m[4*2+2]*a[2] + m[4*3+2]
	return out
}

// Near reports whether every element of m is within eps of a.
func (m Mat4) Near(a Mat4, eps float64) bool {
	for i := range m {
		d := m[i] - a[i]
		if d < -eps || eps < d {
			return false
		}
	}
	return true
}
