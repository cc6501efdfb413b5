// Package linear implements the vector, quaternion and matrix math
// needed to blend rigid transforms.
package linear

import (
	"math"
)

// V3 is a 3-component vector of float64.
type V3 [3]float64

// AddV3 returns v + w.
func AddV3(v, w V3) (u V3) {
	for i := range u {
		u[i] = v[i] + w[i]
	}
	return
}

// SubV3 returns v - w.
func SubV3(v, w V3) (u V3) {
	for i := range u {
		u[i] = v[i] - w[i]
	}
	return
}

// ScaleV3 returns s ⋅ v.
func ScaleV3(s float64, v V3) (u V3) {
	for i := range u {
		u[i] = s * v[i]
	}
	return
}

// DotV3 returns v ⋅ w.
func DotV3(v, w V3) (d float64) {
	for i := range v {
		d += v[i] * w[i]
	}
	return
}

// LenV3 returns the length of v.
func LenV3(v V3) float64 { return math.Sqrt(DotV3(v, v)) }

// NormV3 returns v normalized.
// The zero vector is returned unchanged.
func NormV3(v V3) V3 {
	l := LenV3(v)
	if l == 0 {
		return v
	}
	return ScaleV3(1/l, v)
}

// LerpV3 blends v toward w component-wise.
func LerpV3(v, w V3, t float64) (u V3) {
	for i := range u {
		u[i] = v[i] + t*(w[i]-v[i])
	}
	return
}

// Cross returns v × w.
func Cross(v, w V3) (u V3) {
	u[0] = v[1]*w[2] - v[2]*w[1]
	u[1] = v[2]*w[0] - v[0]*w[2]
	u[2] = v[0]*w[1] - v[1]*w[0]
	return
}

// V4 is a 4-component vector of float64.
type V4 [4]float64

// M4 is a column-major 4x4 matrix of float64.
type M4 [4]V4

// I4 returns the identity matrix.
func I4() M4 { return M4{{1}, {0, 1}, {0, 0, 1}, {0, 0, 0, 1}} }

// MulM4 returns l ⋅ r.
func MulM4(l, r M4) (m M4) {
	for i := range m {
		for j := range m {
			for k := range m {
				m[i][j] += l[k][j] * r[i][k]
			}
		}
	}
	return
}

// Translation returns a translation matrix.
func Translation(v V3) M4 {
	m := I4()
	m[3] = V4{v[0], v[1], v[2], 1}
	return m
}

// Scaling returns a scale matrix.
func Scaling(v V3) M4 {
	return M4{{v[0]}, {1: v[1]}, {2: v[2]}, {3: 1}}
}

// Rotation returns the rotation matrix of the unit quaternion q.
func Rotation(q Q) M4 {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.R
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	return M4{
		{1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0},
		{2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0},
		{2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0},
		{0, 0, 0, 1},
	}
}

// MulPoint transforms the point p by m.
func MulPoint(m M4, p V3) (u V3) {
	for i := range u {
		u[i] = m[0][i]*p[0] + m[1][i]*p[1] + m[2][i]*p[2] + m[3][i]
	}
	return
}
