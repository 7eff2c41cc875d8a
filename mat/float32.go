package mat

import (
	pcmat "github.com/seqsense/pcgol/mat"
)

// Float32 converts m to the point cloud library's matrix type.
func (m Mat4) Float32() pcmat.Mat4 {
	var out pcmat.Mat4
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}

func FromFloat32(m pcmat.Mat4) Mat4 {
	var out Mat4
	for i := range m {
		out[i] = float64(m[i])
	}
	return out
}
