package interp

import (
	"image/color"
	"math"
	"testing"

	"github.com/milk9111/keyanim/linear"
)

func TestScalar(t *testing.T) {
	cases := []struct {
		name string
		f    func(t, t0, t1, v0, v1 float64) float64
		t    float64
		want float64
	}{
		{"linear_mid", LinearAt, 0.5, 5},
		{"linear_before", LinearAt, -1, 0},
		{"linear_after", LinearAt, 2, 10},
		{"smooth_start", SmoothstepAt, 0, 0},
		{"smooth_end", SmoothstepAt, 1, 10},
		{"smooth_mid", SmoothstepAt, 0.5, 5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.f(c.t, 0, 1, 0, 10); got != c.want {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestSmoothstepEasesIn(t *testing.T) {
	for _, e := range []float64{1e-3, 0.01, 0.1} {
		s := SmoothstepAt(e, 0, 1, 0, 10)
		l := LinearAt(e, 0, 1, 0, 10)
		if !(s < l) {
			t.Fatalf("at %v expected smoothstep %v below linear %v", e, s, l)
		}
	}
	// Zero slope at both ends.
	h := 1e-6
	if d := (Factor(Smoothstep, h, 0, 1) - Factor(Smoothstep, 0, 0, 1)) / h; d > 1e-5 {
		t.Fatalf("expected zero slope at start, got %v", d)
	}
	if d := (Factor(Smoothstep, 1, 0, 1) - Factor(Smoothstep, 1-h, 0, 1)) / h; d > 1e-5 {
		t.Fatalf("expected zero slope at end, got %v", d)
	}
}

func TestZeroSpan(t *testing.T) {
	for _, k := range []Kind{Constant, Linear, Smoothstep} {
		for _, at := range []float64{-1, 2, 3} {
			got := Scalar(k, at, 2, 2, 7, 9)
			if math.IsNaN(got) {
				t.Fatalf("%v at %v: NaN on zero-length span", k, at)
			}
		}
	}
}

func TestConstantHoldsStart(t *testing.T) {
	if got := Scalar(Constant, 0.9, 0, 1, 3, 8); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
}

func TestSlice(t *testing.T) {
	dst := Slice(nil, Linear, 0.5, 0, 1, []float64{0, 10, 20}, []float64{10, 20})
	if len(dst) != 2 || dst[0] != 5 || dst[1] != 15 {
		t.Fatalf("expected [5 15], got %v", dst)
	}
}

func TestColor(t *testing.T) {
	c0 := color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	c1 := color.NRGBA{R: 255, G: 100, B: 10, A: 0}

	if got := Color(Linear, 0.5, 0, 1, c0, c1); got != (color.NRGBA{R: 128, G: 50, B: 5, A: 128}) {
		t.Fatalf("expected {128 50 5 128}, got %v", got)
	}
	if got := Color(Linear, -1, 0, 1, c0, c1); got != c0 {
		t.Fatalf("expected start color, got %v", got)
	}
	if got := Color(Smoothstep, 2, 0, 1, c0, c1); got != c1 {
		t.Fatalf("expected end color, got %v", got)
	}
	if c0 != (color.NRGBA{A: 255}) {
		t.Fatalf("input mutated: %v", c0)
	}
}

func TestFactoredMatrix(t *testing.T) {
	a := linear.Transform{T: linear.V3{0, 0, 0}, R: linear.IdentQ(), S: linear.V3{1, 1, 1}}
	b := linear.Transform{
		T: linear.V3{10, -4, 2},
		R: linear.RotateQ(math.Pi/2, linear.V3{0, 0, 1}),
		S: linear.V3{3, 1, 1},
	}

	mid := FactoredMatrix(Linear, 1, 0, 2, a, b)
	if mid.T != (linear.V3{5, -2, 1}) {
		t.Fatalf("expected translation [5 -2 1], got %v", mid.T)
	}
	if mid.S != (linear.V3{2, 1, 1}) {
		t.Fatalf("expected scale [2 1 1], got %v", mid.S)
	}
	if y := linear.Yaw(mid.R); math.Abs(y-math.Pi/4) > 1e-9 {
		t.Fatalf("expected yaw %v, got %v", math.Pi/4, y)
	}

	if got := FactoredMatrix(Linear, -5, 0, 2, a, b); got != a {
		t.Fatalf("expected start transform unchanged, got %v", got)
	}
	if got := FactoredMatrix(Linear, 5, 0, 2, a, b); got != b {
		t.Fatalf("expected end transform unchanged, got %v", got)
	}

	m := FactoredMatrixM4(Linear, 1, 0, 2, a.M4(), b.M4())
	if p := linear.MulPoint(m, linear.V3{}); math.Abs(p[0]-5) > 1e-9 || math.Abs(p[1]+2) > 1e-9 {
		t.Fatalf("expected origin mapped to [5 -2 1], got %v", p)
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"":           Linear,
		"linear":     Linear,
		"STEP":       Constant,
		"hermite":    Smoothstep,
		"smoothstep": Smoothstep,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q): expected %v, got %v err=%v", in, want, got, err)
		}
	}
	if _, err := ParseKind("cubic"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
