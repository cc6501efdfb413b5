// Package playback drives animated values over time.
//
// A Controller owns a list of marker keyframes, advances a clock
// while playing and tells its listeners which time to show.
// Listeners bind the markers to animated values; see Animator.
package playback

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/milk9111/keyanim/common"
	"github.com/milk9111/keyanim/interp"
	"github.com/milk9111/keyanim/keyframe"
)

// DefaultFPS is used when Config.FPS is not positive.
const DefaultFPS = 30

const (
	minInterval = 5 * time.Millisecond
	// tickNudge is how far inside a bound Shuttle mode moves the
	// tick counter after turning around.
	tickNudge = 1e-6
)

var ErrNoMarker = errors.New("playback: no marker selected")

// Mode selects what happens when playback reaches a bound.
type Mode int

const (
	// Normal stops at the end and rewinds to the start.
	Normal Mode = iota
	// Cycle wraps around and keeps playing.
	Cycle
	// Shuttle reverses direction at each end.
	Shuttle
)

var modeNames = [...]string{
	Normal:  "normal",
	Cycle:   "cycle",
	Shuttle: "shuttle",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal", "once":
		return Normal, nil
	case "cycle", "loop":
		return Cycle, nil
	case "shuttle", "pingpong":
		return Shuttle, nil
	}
	return Normal, fmt.Errorf("playback: unknown mode %q", s)
}

// Config configures a Controller.
type Config struct {
	FPS    float64
	Factor float64
	Mode   Mode

	// Scheduler paces ticks while playing.
	// nil uses a TickerScheduler.
	Scheduler Scheduler
	// Clock measures time between ticks. nil uses SystemClock.
	Clock Clock
}

// RecordPrefs describe where a recording hook should write frames.
// The controller only stores them.
type RecordPrefs struct {
	Dir    string
	Prefix string
	Format string
}

// Marker is the value stored in the controller's keyframe list.
type Marker struct {
	Label string
}

// Controller is the playback state machine.
// It is safe for concurrent use. Listeners are called without the
// controller lock held and may call back into it.
type Controller struct {
	// ErrorLog receives listener failures. nil uses the log
	// package's standard logger.
	ErrorLog *log.Logger

	mu      sync.Mutex
	id      uuid.UUID
	times   *keyframe.Times
	markers *keyframe.List[Marker]
	current int

	fps    float64
	factor float64
	mode   Mode

	paused bool
	tick   float64
	total  int
	dir    float64
	frame  int
	time   float64
	last   time.Time

	clock Clock
	sched Scheduler
	task  Task

	listeners    []listenerEntry
	nextListener int

	recording bool
	prefs     RecordPrefs
}

// NewController creates a paused controller at time 0.
func NewController(times *keyframe.Times, cfg Config) *Controller {
	c := &Controller{
		id:      uuid.New(),
		times:   times,
		markers: keyframe.NewList[Marker](times),
		current: -1,
		mode:    cfg.Mode,
		paused:  true,
		total:   1,
		dir:     1,
		clock:   cfg.Clock,
		sched:   cfg.Scheduler,
	}
	c.setFPS(cfg.FPS)
	c.setFactor(cfg.Factor)
	if c.clock == nil {
		c.clock = SystemClock()
	}
	if c.sched == nil {
		c.sched = NewTickerScheduler(nil)
	}
	return c
}

// ID identifies c in events and logs.
func (c *Controller) ID() uuid.UUID { return c.id }

// Times returns the arena marker slots live in.
func (c *Controller) Times() *keyframe.Times { return c.times }

// AddListener registers l. Listeners are called in registration
// order. The returned id removes it again.
func (c *Controller) AddListener(l Listener) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextListener++
	c.listeners = append(c.listeners, listenerEntry{id: c.nextListener, l: l})
	return c.nextListener
}

func (c *Controller) RemoveListener(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.listeners {
		if e.id == id {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// dispatch delivers evs in order, each to every listener.
// It must be called without c.mu held.
func (c *Controller) dispatch(evs ...Event) {
	c.mu.Lock()
	ls := append([]listenerEntry(nil), c.listeners...)
	c.mu.Unlock()
	for _, ev := range evs {
		ev.Source = c
		for _, e := range ls {
			c.deliver(e, ev)
		}
	}
}

func (c *Controller) deliver(e listenerEntry, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logf("playback: controller %s listener %d panicked on %v: %v", c.id, e.id, ev.Type, r)
		}
	}()
	if err := e.l.HandleEvent(ev); err != nil {
		c.logf("playback: controller %s listener %d failed on %v: %v", c.id, e.id, ev.Type, err)
	}
}

func (c *Controller) logf(format string, args ...any) {
	if c.ErrorLog != nil {
		c.ErrorLog.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// AddMarker stores a marker at t without notifying listeners.
// It is meant for restoring saved animations.
func (c *Controller) AddMarker(t float64, label string) (keyframe.TimeID, error) {
	id, err := c.times.New(t)
	if err != nil {
		return keyframe.Nil, fmt.Errorf("playback: add marker: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers.Add(keyframe.KeyFrame[Marker]{Time: id, Value: Marker{Label: label}})
	c.recount()
	return id, nil
}

// InsertKeyFrame creates a marker and selects it. The first marker
// goes at 0; with the last marker selected (or none) the new one
// goes one time unit past the end; otherwise it goes halfway
// between the selected marker and the next.
//
// Listeners get a keyframe added event, then a set value event for
// the new marker's time.
func (c *Controller) InsertKeyFrame() (keyframe.TimeID, error) {
	c.mu.Lock()
	n := c.markers.Len()
	var t float64
	switch {
	case n == 0:
		t = 0
	case c.current < 0 || c.current >= n-1:
		t = c.markers.Tmax() + 1
	default:
		t = (c.markers.TimeAt(c.current) + c.markers.TimeAt(c.current+1)) / 2
	}
	id, err := c.times.New(t)
	if err != nil {
		c.mu.Unlock()
		return keyframe.Nil, fmt.Errorf("playback: insert keyframe: %w", err)
	}
	c.current = c.markers.Add(keyframe.KeyFrame[Marker]{Time: id})
	c.seek(t)
	c.mu.Unlock()

	c.dispatch(
		Event{Type: EventKeyFrameAdded, Time: t, KeyFrame: id},
		Event{Type: EventSetValueAtTime, Time: t},
	)
	return id, nil
}

// SaveKeyFrame tells listeners to store their current values under
// the selected marker.
func (c *Controller) SaveKeyFrame() error {
	c.mu.Lock()
	if c.current < 0 || c.current >= c.markers.Len() {
		c.mu.Unlock()
		return ErrNoMarker
	}
	kf := c.markers.At(c.current)
	t := c.markers.TimeAt(c.current)
	c.mu.Unlock()

	c.dispatch(Event{Type: EventKeyFrameChanged, Time: t, KeyFrame: kf.Time})
	return nil
}

// DeleteKeyFrame removes the selected marker and selects the one
// before it. The marker's slot is released once listeners have
// been told.
func (c *Controller) DeleteKeyFrame() (keyframe.TimeID, error) {
	c.mu.Lock()
	if c.current < 0 || c.current >= c.markers.Len() {
		c.mu.Unlock()
		return keyframe.Nil, ErrNoMarker
	}
	removedAt := c.markers.TimeAt(c.current)
	kf := c.markers.RemoveAt(c.current)
	if c.current > 0 || c.markers.Len() == 0 {
		c.current--
	}
	t := c.time
	if c.current >= 0 {
		t = c.markers.TimeAt(c.current)
	}
	c.seek(t)
	c.mu.Unlock()

	c.dispatch(
		Event{Type: EventKeyFrameDeleted, Time: removedAt, KeyFrame: kf.Time},
		Event{Type: EventSetValueAtTime, Time: t},
	)
	c.times.Release(kf.Time)
	return kf.Time, nil
}

// SelectKeyFrame selects marker i and jumps to its time.
// Like ScrubTime it is ignored while playing.
func (c *Controller) SelectKeyFrame(i int) bool {
	c.mu.Lock()
	if !c.paused || i < 0 || i >= c.markers.Len() {
		c.mu.Unlock()
		return false
	}
	c.current = i
	t := c.markers.TimeAt(i)
	c.seek(t)
	c.mu.Unlock()

	c.dispatch(Event{Type: EventSetValueAtTime, Time: t})
	return true
}

// RetimeKeyFrame moves marker i to t. Every keyframe sharing the
// marker's slot moves with it.
func (c *Controller) RetimeKeyFrame(i int, t float64) error {
	c.mu.Lock()
	if i < 0 || i >= c.markers.Len() {
		c.mu.Unlock()
		return fmt.Errorf("playback: retime marker %d: %w", i, ErrNoMarker)
	}
	id := c.markers.At(i).Time
	selected := keyframe.Nil
	if c.current >= 0 {
		selected = c.markers.At(c.current).Time
	}
	if err := c.times.Set(id, t); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("playback: retime marker %d: %w", i, err)
	}
	if selected != keyframe.Nil {
		c.current, _ = c.markers.Find(selected)
	}
	c.recount()
	now := c.time
	c.mu.Unlock()

	c.dispatch(
		Event{Type: EventKeyFrameMoved, Time: t, KeyFrame: id},
		Event{Type: EventSetValueAtTime, Time: now},
	)
	return nil
}

// TogglePlay starts or pauses playback.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	p := c.paused
	c.mu.Unlock()
	c.SetPaused(!p)
}

// SetPaused pauses or starts playback. Starting computes the tick
// count from the marker range, takes a wall-clock reference and
// schedules ticks at max(5ms, 1s/fps).
func (c *Controller) SetPaused(paused bool) {
	c.mu.Lock()
	if paused == c.paused {
		c.mu.Unlock()
		return
	}
	if paused {
		c.paused = true
		c.stopTask()
		c.mu.Unlock()
		return
	}

	c.paused = false
	c.recount()
	c.tick = c.tickOf(c.time)
	// Starting at the far bound replays from the near one.
	if h := c.heading(); h > 0 && c.tick >= float64(c.total) {
		c.tick = 0
	} else if h < 0 && c.tick <= 0 {
		c.tick = float64(c.total)
	}
	c.last = c.clock.Now()
	interval := max(minInterval, time.Duration(float64(time.Second)/c.fps))
	c.task = c.sched.Schedule(interval, c.Tick)
	t := c.time
	c.mu.Unlock()

	c.dispatch(Event{Type: EventPlaybackStarted, Time: t})
}

// Tick advances playback by the wall-clock time since the previous
// tick and tells listeners the new time. Reaching a bound fires a
// completed event and applies the mode. It does nothing while
// paused.
func (c *Controller) Tick() {
	c.mu.Lock()
	if c.paused {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	dt := now.Sub(c.last).Seconds()
	c.last = now

	total := float64(c.total)
	c.tick = common.Clamp(c.tick+dt*c.fps*c.factor*c.dir, 0, total)
	c.time = c.timeOf(c.tick)
	c.frame++
	evs := []Event{{Type: EventSetValueAtTime, Time: c.time}}

	h := c.heading()
	hitEnd := h > 0 && c.tick >= total
	hitStart := h < 0 && c.tick <= 0
	if hitEnd || hitStart {
		evs = append(evs, Event{Type: EventPlaybackCompleted, Time: c.time})
		switch c.mode {
		case Normal:
			c.paused = true
			c.stopTask()
			c.tick = 0
			c.time = c.timeOf(0)
			evs = append(evs, Event{Type: EventSetValueAtTime, Time: c.time})
		case Cycle:
			if hitEnd {
				c.tick = 0
			} else {
				c.tick = total
			}
			c.time = c.timeOf(c.tick)
		case Shuttle:
			c.dir = -c.dir
			nudge := min(tickNudge, total/2)
			if hitEnd {
				c.tick = total - nudge
			} else {
				c.tick = nudge
			}
		}
	}
	c.mu.Unlock()

	c.dispatch(evs...)
}

// ScrubTime jumps to t. It is ignored while playing, as is a NaN t.
func (c *Controller) ScrubTime(t float64) bool {
	if math.IsNaN(t) {
		return false
	}
	c.mu.Lock()
	if !c.paused {
		c.mu.Unlock()
		return false
	}
	c.seek(t)
	c.mu.Unlock()

	c.dispatch(Event{Type: EventSetValueAtTime, Time: t})
	return true
}

// Reset stops playback and returns to time 0, frame 0, playing
// forward.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTask()
	c.paused = true
	c.time = 0
	c.tick = c.tickOf(0)
	c.frame = 0
	c.dir = 1
}

// seek moves to t and keeps the tick counter in step.
// c.mu must be held.
func (c *Controller) seek(t float64) {
	c.recount()
	c.time = t
	c.tick = c.tickOf(t)
}

// recount recomputes the total tick count: round((tmax-tmin)*fps),
// at least 1. c.mu must be held.
func (c *Controller) recount() {
	span := c.markers.Tmax() - c.markers.Tmin()
	c.total = max(1, int(math.Round(span*c.fps)))
}

// timeOf maps a tick count onto the marker range.
func (c *Controller) timeOf(tick float64) float64 {
	return interp.LinearAt(tick, 0, float64(c.total), c.markers.Tmin(), c.markers.Tmax())
}

// tickOf maps a time onto the tick range. A zero-length range
// maps everything to tick 0.
func (c *Controller) tickOf(t float64) float64 {
	if c.markers.Tmax() == c.markers.Tmin() {
		return 0
	}
	return interp.LinearAt(t, c.markers.Tmin(), c.markers.Tmax(), 0, float64(c.total))
}

// heading is the sign of the direction ticks actually move in.
func (c *Controller) heading() float64 {
	if c.factor < 0 {
		return -c.dir
	}
	return c.dir
}

func (c *Controller) stopTask() {
	if c.task != nil {
		c.task.Stop()
		c.task = nil
	}
}

func (c *Controller) setFPS(fps float64) {
	if !(fps > 0) || math.IsInf(fps, 0) {
		fps = DefaultFPS
	}
	c.fps = fps
}

func (c *Controller) setFactor(f float64) {
	if f == 0 || !common.Finite(f) {
		f = 1
	}
	c.factor = f
}
