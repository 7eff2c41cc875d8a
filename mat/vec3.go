package mat

import (
	"math"
)

type Vec3 [3]float64

func NewVec3(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

func (v Vec3) NormSq() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

func (v Vec3) Norm() float64 {
	return math.Sqrt(v.NormSq())
}

func (v Vec3) Mul(a float64) Vec3 {
	return Vec3{v[0] * a, v[1] * a, v[2] * a}
}

func (v Vec3) Sub(a Vec3) Vec3 {
	return Vec3{v[0] - a[0], v[1] - a[1], v[2] - a[2]}
}

func (v Vec3) Add(a Vec3) Vec3 {
	return Vec3{v[0] + a[0], v[1] + a[1], v[2] + a[2]}
}

func (v Vec3) Dot(a Vec3) float64 {
	return v[0]*a[0] + v[1]*a[1] + v[2]*a[2]
}

// Near reports whether every element of v is within eps of a.
func (v Vec3) Near(a Vec3, eps float64) bool {
	for i := range v {
		if math.Abs(v[i]-a[i]) > eps {
			return false
		}
	}
	return true
}

// IsFinite is false if any element is NaN or Inf.
func (v Vec3) IsFinite() bool {
	for _, e := range v {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return false
		}
	}
	return true
}
