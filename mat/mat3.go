package mat

import (
	"math"
)

// Mat3 is a column-major 3x3 matrix, element (row, col) at [3*col+row].
type Mat3 [9]float64

func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

func (m Mat3) At(row, col int) float64 {
	return m[3*col+row]
}

func (m Mat3) Mul(a Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += m[3*k+i] * a[3*j+k]
			}
			out[3*j+i] = sum
		}
	}
	return out
}

func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[3]*v[1] + m[6]*v[2],
		m[1]*v[0] + m[4]*v[1] + m[7]*v[2],
		m[2]*v[0] + m[5]*v[1] + m[8]*v[2],
	}
}

func (m Mat3) T() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

func (m Mat3) Det() float64 {
	return m[0]*(m[4]*m[8]-m[7]*m[5]) -
		m[3]*(m[1]*m[8]-m[7]*m[2]) +
		m[6]*(m[1]*m[5]-m[4]*m[2])
}

// IsRotation checks R·Rᵗ = I and det(R) = 1 within eps.
func (m Mat3) IsRotation(eps float64) bool {
	p := m.Mul(m.T())
	id := Identity3()
	for i := range p {
		if math.Abs(p[i]-id[i]) > eps {
			return false
		}
	}
	return math.Abs(m.Det()-1) <= eps
}
