package animated

import (
	"image/color"
	"sync"

	"github.com/milk9111/keyanim/interp"
	"github.com/milk9111/keyanim/keyframe"
	"github.com/milk9111/keyanim/linear"
)

// SetDelegate connects a Set to the array it animates.
type SetDelegate[T any] interface {
	Propagate(v []T)
	Gather() []T
}

// Set animates a fixed-size array of independent slots.
// Each slot is its own keyframe track; slots may share time
// slots but need not.
type Set[T any] struct {
	mu            sync.Mutex
	times         *keyframe.Times
	ops           *Ops[T]
	tracks        []*Value[T]
	interpolation interp.Kind
	writable      bool
	delegate      SetDelegate[T]
}

// NewSet creates a Set of n slots. If d is not nil the slots
// start out gathered from it.
func NewSet[T any](times *keyframe.Times, ops *Ops[T], n int, d SetDelegate[T]) *Set[T] {
	s := &Set[T]{
		times:         times,
		ops:           ops,
		interpolation: interp.Linear,
		writable:      true,
		delegate:      d,
	}
	s.resize(n)
	if d != nil {
		for i, val := range d.Gather() {
			if i >= n {
				break
			}
			s.tracks[i].SetValue(val)
		}
	}
	return s
}

func NewDoubleSet(times *keyframe.Times, n int, d SetDelegate[float64]) *Set[float64] {
	return NewSet(times, Double, n, d)
}

func NewIntegerSet(times *keyframe.Times, n int, d SetDelegate[int]) *Set[int] {
	return NewSet(times, Integer, n, d)
}

func NewBooleanSet(times *keyframe.Times, n int, d SetDelegate[bool]) *Set[bool] {
	return NewSet(times, Boolean, n, d)
}

func NewColorSet(times *keyframe.Times, n int, d SetDelegate[color.NRGBA]) *Set[color.NRGBA] {
	return NewSet(times, Color, n, d)
}

func NewTransformSet(times *keyframe.Times, n int, d SetDelegate[linear.Transform]) *Set[linear.Transform] {
	return NewSet(times, Transform, n, d)
}

// Ops returns the strategy table of s.
func (s *Set[T]) Ops() *Ops[T] { return s.ops }

func (s *Set[T]) resize(n int) {
	if n < 0 {
		n = 0
	}
	for len(s.tracks) < n {
		v := New[T](s.times, s.ops, nil)
		v.SetInterpolation(s.interpolation)
		v.SetWritable(s.writable)
		s.tracks = append(s.tracks, v)
	}
	clear(s.tracks[n:])
	s.tracks = s.tracks[:n]
}

// Len returns the number of slots.
func (s *Set[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

// Resize grows or shrinks s to n slots. New slots start with the
// kind's default value and no keyframes.
func (s *Set[T]) Resize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resize(n)
}

// Track returns the Value backing slot i.
func (s *Set[T]) Track(i int) *Value[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracks[i]
}

// Values returns a copy of the current value of every slot.
func (s *Set[T]) Values() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values()
}

func (s *Set[T]) values() []T {
	out := make([]T, len(s.tracks))
	for i, tr := range s.tracks {
		out[i] = tr.Value()
	}
	return out
}

// SetValues replaces the current values slot by slot.
// Extra values are ignored.
func (s *Set[T]) SetValues(vals []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tr := range s.tracks {
		if i >= len(vals) {
			break
		}
		tr.SetValue(vals[i])
	}
}

// SetValueAtTime computes every slot at t and propagates the
// whole array once. Slots without keyframes keep their value.
func (s *Set[T]) SetValueAtTime(t float64) {
	s.mu.Lock()
	for _, tr := range s.tracks {
		tr.SetValueAtTime(t)
	}
	out := s.values()
	d := s.delegate
	s.mu.Unlock()

	if d != nil {
		d.Propagate(out)
	}
}

// AddKeyFrame stores the current value of every slot under id.
func (s *Set[T]) AddKeyFrame(id keyframe.TimeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tr := range s.tracks {
		tr.AddKeyFrame(id)
	}
}

// AddKeyFrameAt stores the current value of slot i under id.
func (s *Set[T]) AddKeyFrameAt(i int, id keyframe.TimeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.tracks) {
		return
	}
	s.tracks[i].AddKeyFrame(id)
}

// DeleteKeyFrame removes id from every slot. It reports whether
// any slot had it.
func (s *Set[T]) DeleteKeyFrame(id keyframe.TimeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	for _, tr := range s.tracks {
		if tr.DeleteKeyFrame(id) {
			removed = true
		}
	}
	return removed
}

// Gather refreshes every slot from the delegate.
func (s *Set[T]) Gather() {
	s.mu.Lock()
	d := s.delegate
	s.mu.Unlock()
	if d == nil {
		return
	}
	s.SetValues(d.Gather())
}

func (s *Set[T]) SetInterpolation(k interp.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interpolation = k
	for _, tr := range s.tracks {
		tr.SetInterpolation(k)
	}
}

func (s *Set[T]) SetWritable(w bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writable = w
	for _, tr := range s.tracks {
		tr.SetWritable(w)
	}
}

func (s *Set[T]) Writable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writable
}
