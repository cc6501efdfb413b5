package linear

import "math"

// Transform is a matrix kept in factored form:
// translation T, unit rotation R and scale S.
// The composed matrix is T ⋅ R ⋅ S.
type Transform struct {
	T V3
	R Q
	S V3
}

// Ident returns the identity transform.
func Ident() Transform {
	return Transform{R: IdentQ(), S: V3{1, 1, 1}}
}

// M4 composes x into a single matrix.
func (x Transform) M4() M4 {
	m := MulM4(Translation(x.T), Rotation(x.R))
	return MulM4(m, Scaling(x.S))
}

// Decompose factors m, which must be an affine matrix
// without shear, into a Transform.
// A reflection is folded into the X scale.
func Decompose(m M4) Transform {
	x := Transform{T: V3{m[3][0], m[3][1], m[3][2]}}
	var cols [3]V3
	for i := range cols {
		cols[i] = V3{m[i][0], m[i][1], m[i][2]}
		x.S[i] = LenV3(cols[i])
	}
	if DotV3(cols[0], Cross(cols[1], cols[2])) < 0 {
		x.S[0] = -x.S[0]
	}
	for i := range cols {
		if x.S[i] != 0 {
			cols[i] = ScaleV3(1/x.S[i], cols[i])
		}
	}
	x.R = rotationQ(cols)
	return x
}

// rotationQ converts the orthonormal basis cols into a quaternion.
// r(row, col) reads the rotation matrix in row-major terms.
func rotationQ(cols [3]V3) Q {
	r := func(row, col int) float64 { return cols[col][row] }
	var q Q
	switch tr := r(0, 0) + r(1, 1) + r(2, 2); {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q.R = s / 4
		q.V = V3{(r(2, 1) - r(1, 2)) / s, (r(0, 2) - r(2, 0)) / s, (r(1, 0) - r(0, 1)) / s}
	case r(0, 0) > r(1, 1) && r(0, 0) > r(2, 2):
		s := math.Sqrt(1+r(0, 0)-r(1, 1)-r(2, 2)) * 2
		q.R = (r(2, 1) - r(1, 2)) / s
		q.V = V3{s / 4, (r(0, 1) + r(1, 0)) / s, (r(0, 2) + r(2, 0)) / s}
	case r(1, 1) > r(2, 2):
		s := math.Sqrt(1+r(1, 1)-r(0, 0)-r(2, 2)) * 2
		q.R = (r(0, 2) - r(2, 0)) / s
		q.V = V3{(r(0, 1) + r(1, 0)) / s, s / 4, (r(1, 2) + r(2, 1)) / s}
	default:
		s := math.Sqrt(1+r(2, 2)-r(0, 0)-r(1, 1)) * 2
		q.R = (r(1, 0) - r(0, 1)) / s
		q.V = V3{(r(0, 2) + r(2, 0)) / s, (r(1, 2) + r(2, 1)) / s, s / 4}
	}
	return NormQ(q)
}
