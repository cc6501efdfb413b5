package animated

import (
	"image/color"
	"math"

	"github.com/milk9111/keyanim/interp"
	"github.com/milk9111/keyanim/linear"
)

// Ops is the per-kind strategy table a Value is built on.
type Ops[T any] struct {
	// Name is the kind name used in documents and logs.
	Name string

	// Default returns the value of a fresh instance.
	Default func() T

	// Copy returns a copy of v that shares no mutable state with it.
	// Every value moved into or out of a keyframe goes through Copy.
	Copy func(v T) T

	// Equal reports whether a and b hold the same value.
	Equal func(a, b T) bool

	// Interpolate returns the value at t, with t0 < t < t1.
	Interpolate func(kind interp.Kind, t, t0, t1 float64, v0, v1 T) T
}

func identity[T any](v T) T { return v }

func same[T comparable](a, b T) bool { return a == b }

// Double animates a float64.
var Double = &Ops[float64]{
	Name:        "double",
	Default:     func() float64 { return 0 },
	Copy:        identity[float64],
	Equal:       same[float64],
	Interpolate: interp.Scalar,
}

// Integer animates an int. Blending happens in float64 and the
// result is truncated toward zero.
var Integer = &Ops[int]{
	Name:    "integer",
	Default: func() int { return 0 },
	Copy:    identity[int],
	Equal:   same[int],
	Interpolate: func(kind interp.Kind, t, t0, t1 float64, v0, v1 int) int {
		return int(math.Trunc(interp.Scalar(kind, t, t0, t1, float64(v0), float64(v1))))
	},
}

// Boolean animates a bool. It is always a zero-order hold: the
// interpolation kind is ignored and the earlier keyframe wins.
var Boolean = &Ops[bool]{
	Name:    "boolean",
	Default: func() bool { return false },
	Copy:    identity[bool],
	Equal:   same[bool],
	Interpolate: func(_ interp.Kind, _, _, _ float64, v0, _ bool) bool {
		return v0
	},
}

// Color animates a non-premultiplied RGBA color.
var Color = &Ops[color.NRGBA]{
	Name:        "color",
	Default:     func() color.NRGBA { return color.NRGBA{A: 0xff} },
	Copy:        identity[color.NRGBA],
	Equal:       same[color.NRGBA],
	Interpolate: interp.Color,
}

// Transform animates a factored translation, rotation and scale.
var Transform = &Ops[linear.Transform]{
	Name:    "transform",
	Default: linear.Ident,
	Copy:    identity[linear.Transform],
	Equal: func(a, b linear.Transform) bool {
		// q and -q are the same rotation.
		return a.T == b.T && a.S == b.S && (a.R == b.R || a.R == linear.NegQ(b.R))
	},
	Interpolate: interp.FactoredMatrix,
}

// Isometry animates a rigid transform: scale is pinned to one.
var Isometry = &Ops[linear.Transform]{
	Name:    "isometry",
	Default: linear.Ident,
	Copy:    rigid,
	Equal:   Transform.Equal,
	Interpolate: func(kind interp.Kind, t, t0, t1 float64, v0, v1 linear.Transform) linear.Transform {
		return rigid(interp.FactoredMatrix(kind, t, t0, t1, v0, v1))
	},
}

func rigid(x linear.Transform) linear.Transform {
	x.S = linear.V3{1, 1, 1}
	x.R = linear.NormQ(x.R)
	return x
}

// Doubles animates a float64 slice element-wise.
var Doubles = &Ops[[]float64]{
	Name:    "doubles",
	Default: func() []float64 { return nil },
	Copy: func(v []float64) []float64 {
		return append([]float64(nil), v...)
	},
	Equal: func(a, b []float64) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	},
	Interpolate: func(kind interp.Kind, t, t0, t1 float64, v0, v1 []float64) []float64 {
		return interp.Slice(nil, kind, t, t0, t1, v0, v1)
	},
}
