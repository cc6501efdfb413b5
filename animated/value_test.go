package animated

import (
	"image/color"
	"math"
	"testing"

	"github.com/milk9111/keyanim/interp"
	"github.com/milk9111/keyanim/keyframe"
	"github.com/milk9111/keyanim/linear"
)

// recorder is a Delegate that remembers every propagated value.
type recorder[T any] struct {
	state T
	calls []T
}

func (r *recorder[T]) Propagate(v T) {
	r.state = v
	r.calls = append(r.calls, v)
}

func (r *recorder[T]) Gather() T { return r.state }

func slot(t *testing.T, a *keyframe.Times, at float64) keyframe.TimeID {
	t.Helper()
	id, err := a.New(at)
	if err != nil {
		t.Fatalf("Times.New(%v): %v", at, err)
	}
	return id
}

// key sets the current value of v and stores it at time at.
func key[T any](t *testing.T, v *Value[T], at float64, val T) keyframe.TimeID {
	t.Helper()
	id := slot(t, v.frames.Times(), at)
	v.SetValue(val)
	v.AddKeyFrame(id)
	return id
}

func TestDoubleBoundaries(t *testing.T) {
	a := keyframe.NewTimes()
	rec := &recorder[float64]{}
	v := NewDouble(a, rec)
	key(t, v, 1, 10.0)
	key(t, v, 3, 30.0)

	cases := []struct {
		name string
		t    float64
		want float64
	}{
		{"before", -5, 10},
		{"at_tmin", 1, 10},
		{"mid", 2, 20},
		{"at_tmax", 3, 30},
		{"after", 100, 30},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v.SetValueAtTime(c.t)
			if got := v.Value(); got != c.want {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
			if rec.state != c.want {
				t.Fatalf("expected delegate to receive %v, got %v", c.want, rec.state)
			}
		})
	}
}

func TestEmptyValueIsNoop(t *testing.T) {
	rec := &recorder[float64]{state: 4}
	v := NewDouble(keyframe.NewTimes(), rec)
	v.SetValueAtTime(1)
	if len(rec.calls) != 0 {
		t.Fatalf("expected no propagation, got %v", rec.calls)
	}
	if v.Value() != 4 {
		t.Fatalf("expected gathered value 4, got %v", v.Value())
	}
	if v.DeleteKeyFrame(keyframe.TimeID(1)) {
		t.Fatalf("delete on empty value should report false")
	}
}

func TestNaNTimeIsNoop(t *testing.T) {
	rec := &recorder[float64]{}
	v := NewDouble(keyframe.NewTimes(), rec)
	key(t, v, 0, 1.0)
	v.SetValueAtTime(math.NaN())
	if len(rec.calls) != 0 {
		t.Fatalf("expected NaN time to be ignored, got %v", rec.calls)
	}
}

func TestIntegerTruncates(t *testing.T) {
	cases := []struct {
		name   string
		v0, v1 int
		want   int
	}{
		{"positive", 10, 50, 18},
		{"negative", 0, -19, -3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := NewInteger(keyframe.NewTimes(), nil)
			key(t, v, 0, c.v0)
			key(t, v, 5, c.v1)
			v.SetValueAtTime(1)
			if got := v.Value(); got != c.want {
				t.Fatalf("expected %d, got %d", c.want, got)
			}
		})
	}
}

func TestBooleanHoldsPrevious(t *testing.T) {
	v := NewBoolean(keyframe.NewTimes(), nil)
	v.SetInterpolation(interp.Smoothstep)
	key(t, v, 0, true)
	key(t, v, 1, false)
	key(t, v, 2, true)

	cases := []struct {
		t    float64
		want bool
	}{
		{0.01, true},
		{0.99, true},
		{1, false},
		{1.5, false},
		{1.999, false},
		{2, true},
	}
	for _, c := range cases {
		v.SetValueAtTime(c.t)
		if got := v.Value(); got != c.want {
			t.Fatalf("at %v expected %v, got %v", c.t, c.want, got)
		}
	}
}

func TestColorValue(t *testing.T) {
	v := NewColor(keyframe.NewTimes(), nil)
	key(t, v, 0, color.NRGBA{R: 0, G: 200, B: 0, A: 255})
	key(t, v, 4, color.NRGBA{R: 100, G: 0, B: 0, A: 255})
	v.SetValueAtTime(1)
	if got := v.Value(); got != (color.NRGBA{R: 25, G: 150, B: 0, A: 255}) {
		t.Fatalf("expected {25 150 0 255}, got %v", got)
	}
}

func TestTransformValue(t *testing.T) {
	rec := &recorder[linear.Transform]{state: linear.Ident()}
	v := NewTransform(keyframe.NewTimes(), rec)
	start := linear.Ident()
	end := linear.Transform{T: linear.V3{4, 0, 0}, R: linear.RotateQ(math.Pi, linear.V3{0, 0, 1}), S: linear.V3{2, 2, 2}}
	key(t, v, 0, start)
	key(t, v, 2, end)

	v.SetValueAtTime(1)
	got := rec.state
	if got.T != (linear.V3{2, 0, 0}) || got.S != (linear.V3{1.5, 1.5, 1.5}) {
		t.Fatalf("expected T=[2 0 0] S=[1.5 1.5 1.5], got T=%v S=%v", got.T, got.S)
	}
	if y := linear.Yaw(got.R); math.Abs(y-math.Pi/2) > 1e-9 {
		t.Fatalf("expected yaw %v, got %v", math.Pi/2, y)
	}

	iso := NewIsometry(keyframe.NewTimes(), nil)
	key(t, iso, 0, start)
	key(t, iso, 2, end)
	iso.SetValueAtTime(1)
	if s := iso.Value().S; s != (linear.V3{1, 1, 1}) {
		t.Fatalf("expected isometry scale pinned to 1, got %v", s)
	}
}

func TestDeleteKeyFrame(t *testing.T) {
	v := NewDouble(keyframe.NewTimes(), nil)
	first := key(t, v, 1, 10.0)
	key(t, v, 2, 20.0)

	if !v.DeleteKeyFrame(first) {
		t.Fatalf("expected delete to succeed")
	}
	kfs := v.KeyFrames()
	if v.Len() != 1 || len(kfs) != 1 || kfs[0].Value != 20 {
		t.Fatalf("expected one keyframe of value 20, got %v", kfs)
	}
}

func TestAddKeyFrameOverwritesSameSlot(t *testing.T) {
	a := keyframe.NewTimes()
	v := NewDouble(a, nil)
	id := key(t, v, 1, 10.0)

	// Another slot with the same time is a new keyframe.
	other := slot(t, a, 1)
	v.SetValue(11)
	v.AddKeyFrame(other)
	if v.Len() != 2 {
		t.Fatalf("expected 2 keyframes, got %d", v.Len())
	}

	v.SetValue(99)
	v.AddKeyFrame(id)
	if v.Len() != 2 {
		t.Fatalf("expected overwrite to keep 2 keyframes, got %d", v.Len())
	}
	if kfs := v.KeyFrames(); kfs[0].Time != id || kfs[0].Value != 99 {
		t.Fatalf("expected slot %d to hold 99, got %v", id, kfs)
	}
}

func TestNotWritable(t *testing.T) {
	v := NewDouble(keyframe.NewTimes(), nil)
	v.SetWritable(false)
	key(t, v, 1, 10.0)
	if v.Len() != 0 {
		t.Fatalf("expected no keyframes on read-only value, got %d", v.Len())
	}
}

func TestKeyFramesDoNotAlias(t *testing.T) {
	v := NewDoubles(keyframe.NewTimes(), nil)
	buf := []float64{1, 2, 3}
	key(t, v, 0, buf)
	buf[0] = 100

	if got := v.KeyFrames()[0].Value[0]; got != 1 {
		t.Fatalf("expected stored keyframe to keep 1, got %v", got)
	}
	out := v.Value()
	out[1] = 200
	if got := v.Value()[1]; got != 2 {
		t.Fatalf("expected current value to keep 2, got %v", got)
	}
	v.KeyFrames()[0].Value[2] = 300
	v.SetValueAtTime(0)
	if got := v.Value()[2]; got != 3 {
		t.Fatalf("expected keyframe to keep 3, got %v", got)
	}
}

func TestGivesWay(t *testing.T) {
	a := keyframe.NewTimes()
	v := NewDouble(a, nil)
	first := key(t, v, 0, 5.0)
	key(t, v, 1, 5.0)
	key(t, v, 2, 5.0)
	key(t, v, 3, 9.0)
	key(t, v, 4, 5.0)

	v.SetGivesWay(true)
	v.SetValue(7)
	v.AddKeyFrame(first)

	want := []float64{7, 7, 7, 9, 5}
	for i, kf := range v.KeyFrames() {
		if kf.Value != want[i] {
			t.Fatalf("keyframe %d: expected %v, got %v", i, want[i], kf.Value)
		}
	}
}

func TestRepeatBoundary(t *testing.T) {
	v := NewDouble(keyframe.NewTimes(), nil)
	key(t, v, 0, 0.0)
	key(t, v, 2, 10.0)
	v.SetBoundary(Repeat)

	cases := []struct {
		t    float64
		want float64
	}{
		{1, 5},
		{3, 5},
		{-1, 5},
		{2, 10},
		{4.5, 2.5},
		{math.Inf(1), 10},
		{math.Inf(-1), 0},
	}
	for _, c := range cases {
		v.SetValueAtTime(c.t)
		if got := v.Value(); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("at %v expected %v, got %v", c.t, c.want, got)
		}
	}
}

func TestRepeatBoundaryInfiniteTimeClamps(t *testing.T) {
	v := NewDouble(keyframe.NewTimes(), nil)
	key(t, v, 0, 0.0)
	key(t, v, 1, 10.0)
	key(t, v, 2, 20.0)
	v.SetBoundary(Repeat)

	v.SetValueAtTime(math.Inf(1))
	if got := v.Value(); got != 20 {
		t.Fatalf("expected last value 20 at +Inf, got %v", got)
	}
	v.SetValueAtTime(math.Inf(-1))
	if got := v.Value(); got != 0 {
		t.Fatalf("expected first value 0 at -Inf, got %v", got)
	}
}

func TestParseBoundary(t *testing.T) {
	if b, err := ParseBoundary("repeat"); err != nil || b != Repeat {
		t.Fatalf("expected Repeat, got %v err=%v", b, err)
	}
	if _, err := ParseBoundary("bounce"); err == nil {
		t.Fatalf("expected error for unknown boundary")
	}
}
