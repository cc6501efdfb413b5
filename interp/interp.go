// Package interp implements the interpolation rules used between
// two keyframes. All functions are pure: inputs are never mutated
// and identical inputs give identical outputs.
//
// Every function clamps: at or before t0 it yields the first value,
// at or after t1 the second. A zero-length span therefore never
// divides. NaN times are not rejected here and propagate.
package interp

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/milk9111/keyanim/common"
	"github.com/milk9111/keyanim/linear"
)

// Kind selects the blend curve.
type Kind int

const (
	// Constant holds the earlier value for the whole segment.
	Constant Kind = iota
	// Linear blends at a constant rate.
	Linear
	// Smoothstep eases in and out with -2u³+3u².
	// This is sometimes called hermite; it takes no tangents.
	Smoothstep
)

var kindNames = [...]string{
	Constant:   "constant",
	Linear:     "linear",
	Smoothstep: "smoothstep",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses a kind name. "hermite" and "step" are accepted
// as aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return Linear, nil
	case "constant", "step":
		return Constant, nil
	case "smoothstep", "hermite":
		return Smoothstep, nil
	}
	return Linear, fmt.Errorf("interp: unknown interpolation %q", s)
}

// Factor returns the blend factor at t for kind, in [0, 1].
func Factor(kind Kind, t, t0, t1 float64) float64 {
	if t <= t0 {
		return 0
	}
	if t >= t1 {
		return 1
	}
	u := common.Normalize(t, t0, t1)
	switch kind {
	case Constant:
		return 0
	case Smoothstep:
		return common.Smooth(u)
	default:
		return u
	}
}

// LinearAt blends v0 and v1 linearly at t.
func LinearAt(t, t0, t1, v0, v1 float64) float64 {
	return Scalar(Linear, t, t0, t1, v0, v1)
}

// SmoothstepAt blends v0 and v1 along the ease curve at t.
func SmoothstepAt(t, t0, t1, v0, v1 float64) float64 {
	return Scalar(Smoothstep, t, t0, t1, v0, v1)
}

// Scalar blends v0 and v1 at t using kind.
func Scalar(kind Kind, t, t0, t1, v0, v1 float64) float64 {
	if t <= t0 {
		return v0
	}
	if t >= t1 {
		return v1
	}
	return common.Lerp(v0, v1, Factor(kind, t, t0, t1))
}

// Slice blends v0 and v1 element-wise into dst, which is grown
// as needed and returned. Only the common prefix of v0 and v1
// is blended.
func Slice(dst []float64, kind Kind, t, t0, t1 float64, v0, v1 []float64) []float64 {
	n := min(len(v0), len(v1))
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = Scalar(kind, t, t0, t1, v0[i], v1[i])
	}
	return dst
}

// Color blends c0 and c1 per channel. Each channel is rounded to
// the nearest integer after blending.
func Color(kind Kind, t, t0, t1 float64, c0, c1 color.NRGBA) color.NRGBA {
	if t <= t0 {
		return c0
	}
	if t >= t1 {
		return c1
	}
	f := Factor(kind, t, t0, t1)
	ch := func(a, b uint8) uint8 {
		return common.RoundByte(common.Lerp(float64(a), float64(b), f))
	}
	return color.NRGBA{
		R: ch(c0.R, c1.R),
		G: ch(c0.G, c1.G),
		B: ch(c0.B, c1.B),
		A: ch(c0.A, c1.A),
	}
}

// FactoredMatrix blends two factored transforms. Translation and
// scale are blended component-wise, rotation by SLERP. Outside
// the span the matching endpoint is returned unchanged.
func FactoredMatrix(kind Kind, t, t0, t1 float64, a, b linear.Transform) linear.Transform {
	if t <= t0 {
		return a
	}
	if t >= t1 {
		return b
	}
	f := Factor(kind, t, t0, t1)
	return linear.Transform{
		T: linear.LerpV3(a.T, b.T, f),
		R: linear.Slerp(a.R, b.R, f),
		S: linear.LerpV3(a.S, b.S, f),
	}
}

// FactoredMatrixM4 is FactoredMatrix over composed matrices.
func FactoredMatrixM4(kind Kind, t, t0, t1 float64, a, b linear.M4) linear.M4 {
	if t <= t0 {
		return a
	}
	if t >= t1 {
		return b
	}
	x := FactoredMatrix(kind, t, t0, t1, linear.Decompose(a), linear.Decompose(b))
	return x.M4()
}
