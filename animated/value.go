// Package animated drives properties from keyframes.
//
// A Value owns a keyframe list for one property. SetValueAtTime
// finds the keyframes around a time, blends them with the rules of
// the value's kind and pushes the result to an external target
// through a Delegate.
package animated

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/milk9111/keyanim/common"
	"github.com/milk9111/keyanim/interp"
	"github.com/milk9111/keyanim/keyframe"
	"github.com/milk9111/keyanim/linear"
)

// Delegate connects a Value to the state it animates.
type Delegate[T any] interface {
	// Propagate writes v into the target. A read-only target
	// must ignore the call.
	Propagate(v T)

	// Gather reads the current state of the target.
	Gather() T
}

// Boundary selects what a Value does with times outside its
// keyframe range.
type Boundary int

const (
	// Clamp holds the first or last keyframe value.
	Clamp Boundary = iota
	// Repeat wraps the time into the keyframe range.
	Repeat
	// Extrapolate is accepted but currently behaves as Clamp.
	Extrapolate
)

var boundaryNames = [...]string{
	Clamp:       "clamp",
	Repeat:      "repeat",
	Extrapolate: "extrapolate",
}

func (b Boundary) String() string {
	if b >= 0 && int(b) < len(boundaryNames) {
		return boundaryNames[b]
	}
	return fmt.Sprintf("Boundary(%d)", int(b))
}

// ParseBoundary parses a boundary mode name.
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return Clamp, nil
	case "repeat", "cycle":
		return Repeat, nil
	case "extrapolate":
		return Extrapolate, nil
	}
	return Clamp, fmt.Errorf("animated: unknown boundary %q", s)
}

// Value is an animated property of type T.
// It is safe for concurrent use; the keyframe list and the
// current value are guarded together.
type Value[T any] struct {
	mu            sync.Mutex
	ops           *Ops[T]
	frames        *keyframe.List[T]
	current       T
	interpolation interp.Kind
	boundary      Boundary
	writable      bool
	givesWay      bool
	delegate      Delegate[T]
}

// New creates a writable Value with linear interpolation and
// clamped boundaries. If d is not nil the current value starts
// out gathered from it.
func New[T any](times *keyframe.Times, ops *Ops[T], d Delegate[T]) *Value[T] {
	v := &Value[T]{
		ops:           ops,
		frames:        keyframe.NewList[T](times),
		current:       ops.Default(),
		interpolation: interp.Linear,
		writable:      true,
		delegate:      d,
	}
	if d != nil {
		v.current = ops.Copy(d.Gather())
	}
	return v
}

func NewDouble(times *keyframe.Times, d Delegate[float64]) *Value[float64] {
	return New(times, Double, d)
}

func NewInteger(times *keyframe.Times, d Delegate[int]) *Value[int] {
	return New(times, Integer, d)
}

func NewBoolean(times *keyframe.Times, d Delegate[bool]) *Value[bool] {
	return New(times, Boolean, d)
}

func NewColor(times *keyframe.Times, d Delegate[color.NRGBA]) *Value[color.NRGBA] {
	return New(times, Color, d)
}

func NewTransform(times *keyframe.Times, d Delegate[linear.Transform]) *Value[linear.Transform] {
	return New(times, Transform, d)
}

func NewIsometry(times *keyframe.Times, d Delegate[linear.Transform]) *Value[linear.Transform] {
	return New(times, Isometry, d)
}

func NewDoubles(times *keyframe.Times, d Delegate[[]float64]) *Value[[]float64] {
	return New(times, Doubles, d)
}

// Ops returns the strategy table of v.
func (v *Value[T]) Ops() *Ops[T] { return v.ops }

// SetValueAtTime computes the value at t and propagates it.
// It does nothing if v has no keyframes or t is NaN.
func (v *Value[T]) SetValueAtTime(t float64) {
	if math.IsNaN(t) {
		return
	}
	v.mu.Lock()
	n := v.frames.Len()
	if n == 0 {
		v.mu.Unlock()
		return
	}
	tmin, tmax := v.frames.Tmin(), v.frames.Tmax()
	if v.boundary == Repeat && tmax > tmin {
		t = wrap(t, tmin, tmax)
	}

	var val T
	switch {
	case t <= tmin:
		val = v.ops.Copy(v.frames.At(0).Value)
	case t >= tmax:
		val = v.ops.Copy(v.frames.At(n - 1).Value)
	default:
		i := v.frames.SegmentAt(t)
		a, b := v.frames.At(i), v.frames.At(i+1)
		t0, t1 := v.frames.TimeAt(i), v.frames.TimeAt(i+1)
		val = v.ops.Interpolate(v.interpolation, t, t0, t1, a.Value, b.Value)
	}
	v.current = val
	d := v.delegate
	out := v.ops.Copy(val)
	v.mu.Unlock()

	if d != nil {
		d.Propagate(out)
	}
}

// wrap maps t into [lo, hi). hi itself maps to hi so that the
// last keyframe is reachable.
// Infinite times are returned as is and clamp.
func wrap(t, lo, hi float64) float64 {
	if !common.Finite(t) || (t >= lo && t <= hi) {
		return t
	}
	span := hi - lo
	r := math.Mod(t-lo, span)
	if r < 0 {
		r += span
	}
	return lo + r
}

// AddKeyFrame stores a copy of the current value under id.
// A keyframe already using id is overwritten; otherwise a new one
// is inserted. It does nothing if v is not writable.
//
// When v gives way, overwriting also rewrites the keyframes that
// directly follow and still hold the overwritten value.
func (v *Value[T]) AddKeyFrame(id keyframe.TimeID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.writable {
		return
	}
	i, ok := v.frames.Find(id)
	if !ok {
		v.frames.Add(keyframe.KeyFrame[T]{Time: id, Value: v.ops.Copy(v.current)})
		return
	}
	old := v.frames.At(i).Value
	v.frames.SetValue(i, v.ops.Copy(v.current))
	if !v.givesWay {
		return
	}
	for j := i + 1; j < v.frames.Len(); j++ {
		if !v.ops.Equal(v.frames.At(j).Value, old) {
			break
		}
		v.frames.SetValue(j, v.ops.Copy(v.current))
	}
}

// Insert stores a copy of val under id without touching the
// current value. It does nothing if v is not writable.
func (v *Value[T]) Insert(id keyframe.TimeID, val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.writable {
		return
	}
	if i, ok := v.frames.Find(id); ok {
		v.frames.SetValue(i, v.ops.Copy(val))
		return
	}
	v.frames.Add(keyframe.KeyFrame[T]{Time: id, Value: v.ops.Copy(val)})
}

// DeleteKeyFrame removes the keyframe using id.
func (v *Value[T]) DeleteKeyFrame(id keyframe.TimeID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.frames.Remove(id)
	return ok
}

// ClearKeyFrames removes every keyframe.
func (v *Value[T]) ClearKeyFrames() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frames.Clear()
}

// Len returns the number of keyframes.
func (v *Value[T]) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frames.Len()
}

// KeyFrames returns copies of the keyframes in time order.
func (v *Value[T]) KeyFrames() []keyframe.KeyFrame[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	kfs := v.frames.Frames()
	for i := range kfs {
		kfs[i].Value = v.ops.Copy(kfs[i].Value)
	}
	return kfs
}

// Range returns the times of the first and last keyframes.
func (v *Value[T]) Range() (tmin, tmax float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frames.Tmin(), v.frames.Tmax()
}

// Value returns a copy of the current value.
func (v *Value[T]) Value() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ops.Copy(v.current)
}

// SetValue replaces the current value. Nothing is propagated.
func (v *Value[T]) SetValue(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = v.ops.Copy(val)
}

// Gather refreshes the current value from the delegate.
func (v *Value[T]) Gather() {
	v.mu.Lock()
	d := v.delegate
	v.mu.Unlock()
	if d == nil {
		return
	}
	val := d.Gather()
	v.SetValue(val)
}

// SetDelegate replaces the delegate. nil disables propagation.
func (v *Value[T]) SetDelegate(d Delegate[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.delegate = d
}

func (v *Value[T]) Interpolation() interp.Kind {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.interpolation
}

func (v *Value[T]) SetInterpolation(k interp.Kind) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.interpolation = k
}

func (v *Value[T]) Boundary() Boundary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.boundary
}

func (v *Value[T]) SetBoundary(b Boundary) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.boundary = b
}

func (v *Value[T]) Writable() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.writable
}

func (v *Value[T]) SetWritable(w bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writable = w
}

func (v *Value[T]) GivesWay() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.givesWay
}

func (v *Value[T]) SetGivesWay(g bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.givesWay = g
}
