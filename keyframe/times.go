// Package keyframe stores time-stamped values in time order.
//
// Keyframe times live in a Times arena and are referred to by TimeID.
// Keyframes in different lists may share one TimeID; retiming the
// slot through Times.Set moves all of them at once.
package keyframe

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/milk9111/keyanim/common"
)

var (
	ErrInvalidTime = errors.New("keyframe: time is not finite")
	ErrUnknownTime = errors.New("keyframe: unknown time id")
)

// TimeID identifies a time slot in a Times arena. The low 32 bits
// index the slot and the high 32 bits hold the slot version, so an
// id goes stale once its slot is released and reused.
type TimeID uint64

const slotBits = 32

func makeTimeID(index, version uint32) TimeID {
	return TimeID(uint64(version)<<slotBits | uint64(index))
}

func (id TimeID) index() uint32 { return uint32(id) }

func (id TimeID) version() uint32 { return uint32(uint64(id) >> slotBits) }

// Nil is never returned by Times.New.
const Nil TimeID = 0

type timeSlot struct {
	time     float64
	modified time.Time
	live     bool
	version  uint32
}

// Times is an arena of mutable time slots.
// It is safe for concurrent use.
type Times struct {
	mu    sync.RWMutex
	slots []timeSlot
	free  []uint32
	gen   uint64
	now   func() time.Time
}

// NewTimes creates an empty arena.
func NewTimes() *Times {
	return &Times{now: time.Now}
}

// New allocates a slot holding t.
func (a *Times) New(t float64) (TimeID, error) {
	if !common.Finite(t) {
		return Nil, ErrInvalidTime
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.slots) == 0 {
		// Slot 0 backs Nil.
		a.slots = append(a.slots, timeSlot{})
	}
	slot := timeSlot{time: t, modified: a.clock(), live: true}
	a.gen++
	if n := len(a.free); n > 0 {
		i := a.free[n-1]
		a.free = a.free[:n-1]
		slot.version = a.slots[i].version
		a.slots[i] = slot
		return makeTimeID(i, slot.version), nil
	}
	a.slots = append(a.slots, slot)
	return makeTimeID(uint32(len(a.slots)-1), 0), nil
}

// Time returns the time stored in id.
// Released or unknown ids read as 0.
func (a *Times) Time(id TimeID) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.valid(id) {
		return 0
	}
	return a.slots[id.index()].time
}

// Modified returns when id was last written.
func (a *Times) Modified(id TimeID) time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.valid(id) {
		return time.Time{}
	}
	return a.slots[id.index()].modified
}

// Set retimes id to t and refreshes its modification stamp.
func (a *Times) Set(id TimeID, t float64) error {
	if !common.Finite(t) {
		return ErrInvalidTime
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.valid(id) {
		return fmt.Errorf("keyframe: set %d: %w", id, ErrUnknownTime)
	}
	a.slots[id.index()].time = t
	a.slots[id.index()].modified = a.clock()
	a.gen++
	return nil
}

// Release frees the slot of id for reuse under a new version. Lists
// drop keyframes on a released id the next time they are read.
func (a *Times) Release(id TimeID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.valid(id) {
		return
	}
	i := id.index()
	a.slots[i] = timeSlot{version: a.slots[i].version + 1}
	a.free = append(a.free, i)
	a.gen++
}

// Live reports whether id refers to an allocated slot.
func (a *Times) Live(id TimeID) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.valid(id)
}

// generation changes every time a slot is allocated, retimed or
// released.
func (a *Times) generation() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.gen
}

func (a *Times) valid(id TimeID) bool {
	i := id.index()
	return id != Nil && int(i) < len(a.slots) && a.slots[i].live && a.slots[i].version == id.version()
}

func (a *Times) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}
