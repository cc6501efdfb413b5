package linear

import "math"

// Q is a quaternion of float64.
// V holds the imaginary part and R the real part.
type Q struct {
	V V3
	R float64
}

// IdentQ returns the identity rotation.
func IdentQ() Q { return Q{R: 1} }

// RotateQ returns the rotation of angle radians around axis.
func RotateQ(angle float64, axis V3) Q {
	s, c := math.Sincos(angle * 0.5)
	return Q{V: ScaleV3(s, NormV3(axis)), R: c}
}

// MulQ returns l ⋅ r.
func MulQ(l, r Q) Q {
	v := AddV3(ScaleV3(r.R, l.V), ScaleV3(l.R, r.V))
	v = AddV3(v, Cross(l.V, r.V))
	return Q{V: v, R: l.R*r.R - DotV3(l.V, r.V)}
}

// DotQ returns the 4D dot product of q and p.
func DotQ(q, p Q) float64 { return DotV3(q.V, p.V) + q.R*p.R }

// NormQ returns q scaled to unit length.
// The zero quaternion becomes the identity.
func NormQ(q Q) Q {
	l := math.Sqrt(DotQ(q, q))
	if l == 0 {
		return IdentQ()
	}
	return Q{V: ScaleV3(1/l, q.V), R: q.R / l}
}

// NegQ returns -q, which encodes the same rotation as q.
func NegQ(q Q) Q { return Q{V: ScaleV3(-1, q.V), R: -q.R} }

// Slerp interpolates along the shortest great arc between
// the unit quaternions a and b.
func Slerp(a, b Q, t float64) Q {
	d := DotQ(a, b)
	if d < 0 {
		b = NegQ(b)
		d = -d
	}
	// Nearly parallel: sin(θ) underflows, fall back to nlerp.
	if d > 0.9995 {
		return NormQ(Q{
			V: LerpV3(a.V, b.V, t),
			R: a.R + t*(b.R-a.R),
		})
	}
	theta := math.Acos(d)
	sin := math.Sin(theta)
	s0 := math.Sin((1-t)*theta) / sin
	s1 := math.Sin(t*theta) / sin
	return Q{
		V: AddV3(ScaleV3(s0, a.V), ScaleV3(s1, b.V)),
		R: s0*a.R + s1*b.R,
	}
}

// AxisAngle returns the rotation axis and angle of the unit quaternion q.
// The identity rotation reports the Z axis.
func AxisAngle(q Q) (axis V3, angle float64) {
	if q.R < 0 {
		q = NegQ(q)
	}
	w := math.Max(-1, math.Min(1, q.R))
	angle = 2 * math.Acos(w)
	s := math.Sqrt(1 - w*w)
	if s < 1e-9 {
		return V3{0, 0, 1}, 0
	}
	return ScaleV3(1/s, q.V), angle
}

// Yaw returns the rotation of q around the Z axis.
func Yaw(q Q) float64 {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.R
	return math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
}
