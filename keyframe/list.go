package keyframe

import (
	"sort"
)

// KeyFrame pairs a time slot with a value.
type KeyFrame[T any] struct {
	Time  TimeID
	Value T
}

// List keeps keyframes sorted by the time of their slot.
// Keyframes with equal times keep insertion order.
//
// A List is not safe for concurrent use.
type List[T any] struct {
	times  *Times
	frames []KeyFrame[T]
	gen    uint64
}

// NewList creates an empty list reading times from a.
func NewList[T any](a *Times) *List[T] {
	return &List[T]{times: a, gen: a.generation()}
}

// Times returns the arena l reads from.
func (l *List[T]) Times() *Times { return l.times }

// sync drops keyframes on released slots and re-sorts l if the
// arena changed since the last access.
func (l *List[T]) sync() {
	gen := l.times.generation()
	if gen == l.gen {
		return
	}
	l.gen = gen
	live := l.frames[:0]
	for _, kf := range l.frames {
		if l.times.Live(kf.Time) {
			live = append(live, kf)
		}
	}
	clear(l.frames[len(live):])
	l.frames = live
	sort.SliceStable(l.frames, func(i, j int) bool {
		return l.times.Time(l.frames[i].Time) < l.times.Time(l.frames[j].Time)
	})
}

// Add inserts kf before the first keyframe whose time is
// strictly greater.
func (l *List[T]) Add(kf KeyFrame[T]) int {
	l.sync()
	t := l.times.Time(kf.Time)
	i := sort.Search(len(l.frames), func(i int) bool {
		return l.times.Time(l.frames[i].Time) > t
	})
	l.frames = append(l.frames, KeyFrame[T]{})
	copy(l.frames[i+1:], l.frames[i:])
	l.frames[i] = kf
	return i
}

// Len returns the number of keyframes.
func (l *List[T]) Len() int {
	l.sync()
	return len(l.frames)
}

// At returns the i-th keyframe.
func (l *List[T]) At(i int) KeyFrame[T] {
	l.sync()
	return l.frames[i]
}

// TimeAt returns the time of the i-th keyframe.
func (l *List[T]) TimeAt(i int) float64 {
	l.sync()
	return l.times.Time(l.frames[i].Time)
}

// SetValue replaces the value of the i-th keyframe.
func (l *List[T]) SetValue(i int, v T) {
	l.sync()
	l.frames[i].Value = v
}

// Tmin returns the time of the first keyframe, or 0 if l is empty.
func (l *List[T]) Tmin() float64 {
	l.sync()
	if len(l.frames) == 0 {
		return 0
	}
	return l.TimeAt(0)
}

// Tmax returns the time of the last keyframe, or 0 if l is empty.
func (l *List[T]) Tmax() float64 {
	l.sync()
	if len(l.frames) == 0 {
		return 0
	}
	return l.TimeAt(len(l.frames) - 1)
}

// Find returns the index of the keyframe using slot id.
// Lookup is by identity: a different slot holding the same
// time does not match.
func (l *List[T]) Find(id TimeID) (int, bool) {
	l.sync()
	for i := range l.frames {
		if l.frames[i].Time == id {
			return i, true
		}
	}
	return -1, false
}

// SegmentAt returns the index i such that time(i) <= t < time(i+1).
// It returns -1 if t precedes the first keyframe (or l is empty)
// and Len()-1 if t is at or past the last one.
func (l *List[T]) SegmentAt(t float64) int {
	l.sync()
	n := len(l.frames)
	if n == 0 || t < l.times.Time(l.frames[0].Time) {
		return -1
	}
	if t >= l.times.Time(l.frames[n-1].Time) {
		return n - 1
	}
	// First index with time > t, minus one.
	i := sort.Search(n, func(i int) bool {
		return l.times.Time(l.frames[i].Time) > t
	})
	return i - 1
}

// Remove deletes the keyframe using slot id.
func (l *List[T]) Remove(id TimeID) (KeyFrame[T], bool) {
	i, ok := l.Find(id)
	if !ok {
		return KeyFrame[T]{}, false
	}
	return l.RemoveAt(i), true
}

// RemoveAt deletes and returns the i-th keyframe.
func (l *List[T]) RemoveAt(i int) KeyFrame[T] {
	l.sync()
	kf := l.frames[i]
	copy(l.frames[i:], l.frames[i+1:])
	l.frames[len(l.frames)-1] = KeyFrame[T]{}
	l.frames = l.frames[:len(l.frames)-1]
	return kf
}

// Clear removes every keyframe.
func (l *List[T]) Clear() {
	clear(l.frames)
	l.frames = l.frames[:0]
}

// Frames returns a copy of the keyframes in time order.
// Values are copied shallowly.
func (l *List[T]) Frames() []KeyFrame[T] {
	l.sync()
	return append([]KeyFrame[T](nil), l.frames...)
}
