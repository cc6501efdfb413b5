package playback

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/milk9111/keyanim/animated"
	"github.com/milk9111/keyanim/keyframe"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// eventLog is a Listener that records every event.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) HandleEvent(ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventType, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Type
	}
	return out
}

func (l *eventLog) count(t EventType) int {
	n := 0
	for _, x := range l.types() {
		if x == t {
			n++
		}
	}
	return n
}

func (l *eventLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

type harness struct {
	ctrl  *Controller
	sched *PolledScheduler
	clock *fakeClock
	log   *eventLog
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		sched: NewPolledScheduler(),
		clock: &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		log:   &eventLog{},
	}
	cfg.Scheduler = h.sched
	cfg.Clock = h.clock
	h.ctrl = NewController(keyframe.NewTimes(), cfg)
	h.ctrl.AddListener(h.log)
	return h
}

// step advances the fake clock by d and runs the pending tick.
func (h *harness) step(t *testing.T, d time.Duration) {
	t.Helper()
	h.clock.Advance(d)
	h.sched.Fire()
}

func (h *harness) markers(t *testing.T, ts ...float64) {
	t.Helper()
	for _, v := range ts {
		if _, err := h.ctrl.AddMarker(v, ""); err != nil {
			t.Fatalf("AddMarker(%v): %v", v, err)
		}
	}
}

func TestInsertKeyFramePlacement(t *testing.T) {
	h := newHarness(t, Config{})
	c := h.ctrl

	want := []float64{0, 1, 2}
	for _, w := range want {
		if _, err := c.InsertKeyFrame(); err != nil {
			t.Fatalf("InsertKeyFrame: %v", err)
		}
		if got := c.MarkerTime(c.Current()); got != w {
			t.Fatalf("expected marker at %v, got %v", w, got)
		}
		if c.CurrentTime() != w {
			t.Fatalf("expected current time %v, got %v", w, c.CurrentTime())
		}
	}

	if !c.SelectKeyFrame(0) {
		t.Fatalf("SelectKeyFrame(0) should be honored while paused")
	}
	if _, err := c.InsertKeyFrame(); err != nil {
		t.Fatalf("InsertKeyFrame: %v", err)
	}
	if c.Current() != 1 || c.MarkerTime(1) != 0.5 {
		t.Fatalf("expected midpoint marker 0.5 at index 1, got %v at %d", c.MarkerTime(c.Current()), c.Current())
	}

	types := h.log.types()
	last := types[len(types)-2:]
	if last[0] != EventKeyFrameAdded || last[1] != EventSetValueAtTime {
		t.Fatalf("expected added then set value, got %v", last)
	}
}

func TestTotalTicksAndInterval(t *testing.T) {
	var got []time.Duration
	sched := schedulerFunc(func(d time.Duration, fn func()) Task {
		got = append(got, d)
		return NewPolledScheduler().Schedule(d, fn)
	})

	cases := []struct {
		name     string
		fps      float64
		markers  []float64
		total    int
		interval time.Duration
	}{
		{"thirty", 30, []float64{0, 1.5}, 45, time.Second / 30},
		{"fast", 1000, []float64{0, 1}, 1000, 5 * time.Millisecond},
		{"single_marker", 30, []float64{2}, 1, time.Second / 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got = nil
			c := NewController(keyframe.NewTimes(), Config{FPS: tc.fps, Scheduler: sched, Clock: &fakeClock{}})
			for _, m := range tc.markers {
				c.AddMarker(m, "")
			}
			c.SetPaused(false)
			if c.TotalTicks() != tc.total {
				t.Fatalf("expected %d total ticks, got %d", tc.total, c.TotalTicks())
			}
			if len(got) != 1 || got[0] != tc.interval {
				t.Fatalf("expected interval %v, got %v", tc.interval, got)
			}
		})
	}
}

type schedulerFunc func(time.Duration, func()) Task

func (f schedulerFunc) Schedule(d time.Duration, fn func()) Task { return f(d, fn) }

func TestTickMapsWallClockToTime(t *testing.T) {
	h := newHarness(t, Config{FPS: 10, Factor: 2})
	h.markers(t, 1, 3)
	h.ctrl.ScrubTime(1)
	h.ctrl.SetPaused(false)

	h.step(t, 250*time.Millisecond)
	// 0.25s * 10fps * 2 = 5 ticks of 20.
	if tick := h.ctrl.CurrentTick(); tick != 5 {
		t.Fatalf("expected tick 5, got %v", tick)
	}
	if tm := h.ctrl.CurrentTime(); tm != 1.5 {
		t.Fatalf("expected time 1.5, got %v", tm)
	}
	if h.ctrl.CurrentFrame() != 1 {
		t.Fatalf("expected frame 1, got %d", h.ctrl.CurrentFrame())
	}
}

func TestNormalModeStopsAtEnd(t *testing.T) {
	h := newHarness(t, Config{FPS: 10, Mode: Normal})
	h.markers(t, 0, 1)
	h.ctrl.SetPaused(false)
	if h.sched.Active() != 1 {
		t.Fatalf("expected one scheduled task, got %d", h.sched.Active())
	}

	h.step(t, 2*time.Second)
	if !h.ctrl.Paused() {
		t.Fatalf("expected playback paused after reaching the end")
	}
	if h.ctrl.CurrentTick() != 0 || h.ctrl.CurrentTime() != 0 {
		t.Fatalf("expected reset to start, got tick=%v time=%v", h.ctrl.CurrentTick(), h.ctrl.CurrentTime())
	}
	if h.sched.Active() != 0 {
		t.Fatalf("expected task stopped, %d still active", h.sched.Active())
	}
	if h.log.count(EventPlaybackCompleted) != 1 {
		t.Fatalf("expected one completed event, got %v", h.log.types())
	}

	// No stray tick after the stop.
	frame := h.ctrl.CurrentFrame()
	h.step(t, time.Second)
	h.ctrl.Tick()
	if h.ctrl.CurrentFrame() != frame {
		t.Fatalf("tick ran after pause")
	}
}

func TestCycleModeWraps(t *testing.T) {
	h := newHarness(t, Config{FPS: 10, Mode: Cycle})
	h.markers(t, 0, 1)
	h.ctrl.SetPaused(false)

	h.step(t, 1500*time.Millisecond)
	if h.ctrl.Paused() {
		t.Fatalf("cycle mode should keep playing")
	}
	if h.ctrl.CurrentTick() != 0 {
		t.Fatalf("expected wrap to tick 0, got %v", h.ctrl.CurrentTick())
	}
	h.step(t, 300*time.Millisecond)
	if tick := h.ctrl.CurrentTick(); tick != 3 {
		t.Fatalf("expected tick 3 after wrap, got %v", tick)
	}
	if h.log.count(EventPlaybackCompleted) != 1 {
		t.Fatalf("expected one completed event, got %v", h.log.types())
	}
}

func TestShuttleModeReverses(t *testing.T) {
	h := newHarness(t, Config{FPS: 10, Mode: Shuttle})
	h.markers(t, 0, 1)
	h.ctrl.SetPaused(false)

	h.step(t, 500*time.Millisecond)
	if h.ctrl.Direction() != 1 {
		t.Fatalf("expected forward direction")
	}
	h.step(t, 600*time.Millisecond)
	if h.ctrl.Direction() != -1 {
		t.Fatalf("expected direction to flip at the end, got %v", h.ctrl.Direction())
	}
	if h.log.count(EventPlaybackCompleted) != 1 {
		t.Fatalf("expected completed event at the end, got %v", h.log.types())
	}

	prev := h.ctrl.CurrentTick()
	for i := 0; i < 4; i++ {
		h.step(t, 100*time.Millisecond)
		tick := h.ctrl.CurrentTick()
		if !(tick < prev) {
			t.Fatalf("step %d: expected tick below %v, got %v", i, prev, tick)
		}
		prev = tick
	}

	// Run into the start: direction flips forward again.
	h.step(t, 2*time.Second)
	if h.ctrl.Direction() != 1 {
		t.Fatalf("expected direction to flip at the start, got %v", h.ctrl.Direction())
	}
	if h.log.count(EventPlaybackCompleted) != 2 {
		t.Fatalf("expected a completed event at each bound, got %v", h.log.types())
	}
	if h.ctrl.Paused() {
		t.Fatalf("shuttle mode should keep playing")
	}
}

func TestScrubIgnoredWhilePlaying(t *testing.T) {
	h := newHarness(t, Config{FPS: 10})
	h.markers(t, 0, 10)

	if !h.ctrl.ScrubTime(2) || h.ctrl.CurrentTime() != 2 {
		t.Fatalf("expected scrub to 2 while paused, got %v", h.ctrl.CurrentTime())
	}
	h.ctrl.SetPaused(false)
	h.step(t, 100*time.Millisecond)
	before := h.ctrl.CurrentTime()
	if h.ctrl.ScrubTime(7) {
		t.Fatalf("scrub should be refused while playing")
	}
	if h.ctrl.CurrentTime() != before {
		t.Fatalf("expected time %v unchanged, got %v", before, h.ctrl.CurrentTime())
	}
	if h.ctrl.SelectKeyFrame(0) {
		t.Fatalf("select should be refused while playing")
	}

	h.ctrl.TogglePlay()
	if !h.ctrl.Paused() || h.sched.Active() != 0 {
		t.Fatalf("expected toggle to pause and stop the task")
	}
}

func TestReset(t *testing.T) {
	h := newHarness(t, Config{FPS: 10, Mode: Shuttle})
	h.markers(t, 0, 1)
	h.ctrl.SetPaused(false)
	h.step(t, 1100*time.Millisecond)
	h.step(t, 100*time.Millisecond)

	h.ctrl.Reset()
	if !h.ctrl.Paused() || h.ctrl.CurrentTime() != 0 || h.ctrl.CurrentFrame() != 0 || h.ctrl.Direction() != 1 {
		t.Fatalf("expected reset state, got paused=%v time=%v frame=%d dir=%v",
			h.ctrl.Paused(), h.ctrl.CurrentTime(), h.ctrl.CurrentFrame(), h.ctrl.Direction())
	}
	if h.sched.Active() != 0 {
		t.Fatalf("expected timer stopped by reset")
	}
}

func TestListenerFailuresAreIsolated(t *testing.T) {
	h := newHarness(t, Config{})
	var buf bytes.Buffer
	h.ctrl.ErrorLog = log.New(&buf, "", 0)

	var order []string
	h.ctrl.RemoveListener(1)
	h.ctrl.AddListener(ListenerFunc(func(Event) error {
		order = append(order, "panics")
		panic("boom")
	}))
	h.ctrl.AddListener(ListenerFunc(func(Event) error {
		order = append(order, "fails")
		return errors.New("nope")
	}))
	h.ctrl.AddListener(ListenerFunc(func(Event) error {
		order = append(order, "records")
		return nil
	}))

	h.ctrl.ScrubTime(1)
	if strings.Join(order, ",") != "panics,fails,records" {
		t.Fatalf("expected delivery in registration order, got %v", order)
	}
	out := buf.String()
	if !strings.Contains(out, "panicked") || !strings.Contains(out, "nope") {
		t.Fatalf("expected both failures logged, got %q", out)
	}
}

func TestAnimatorDrivesValues(t *testing.T) {
	h := newHarness(t, Config{FPS: 10, Mode: Normal})
	times := h.ctrl.Times()
	v := animated.NewDouble(times, nil)
	h.ctrl.AddListener(NewAnimator(v))

	v.SetValue(10)
	first, err := h.ctrl.InsertKeyFrame()
	if err != nil {
		t.Fatalf("InsertKeyFrame: %v", err)
	}
	v.SetValue(20)
	if _, err := h.ctrl.InsertKeyFrame(); err != nil {
		t.Fatalf("InsertKeyFrame: %v", err)
	}
	if v.Len() != 2 {
		t.Fatalf("expected 2 keyframes, got %d", v.Len())
	}

	h.ctrl.ScrubTime(0.5)
	if v.Value() != 15 {
		t.Fatalf("expected 15 at 0.5, got %v", v.Value())
	}

	// Saving overwrites the selected marker's keyframe.
	h.ctrl.SelectKeyFrame(1)
	v.SetValue(40)
	if err := h.ctrl.SaveKeyFrame(); err != nil {
		t.Fatalf("SaveKeyFrame: %v", err)
	}
	h.ctrl.ScrubTime(0.5)
	if v.Value() != 25 {
		t.Fatalf("expected 25 after save, got %v", v.Value())
	}

	// Retiming the first marker moves the value's keyframe too.
	if err := h.ctrl.RetimeKeyFrame(0, -1); err != nil {
		t.Fatalf("RetimeKeyFrame: %v", err)
	}
	h.ctrl.ScrubTime(0)
	if got := v.Value(); got != 25 {
		t.Fatalf("expected 25 at 0 after retime, got %v", got)
	}
	if h.ctrl.Current() != 1 {
		t.Fatalf("expected selection to follow its marker, got %d", h.ctrl.Current())
	}

	// Deleting the first marker removes its keyframe.
	h.ctrl.SelectKeyFrame(0)
	removed, err := h.ctrl.DeleteKeyFrame()
	if err != nil || removed != first {
		t.Fatalf("expected to delete %d, got %d err=%v", first, removed, err)
	}
	if v.Len() != 1 || v.KeyFrames()[0].Value != 40 {
		t.Fatalf("expected one keyframe of value 40, got %v", v.KeyFrames())
	}
	if times.Live(first) {
		t.Fatalf("expected deleted marker slot released")
	}
	if h.ctrl.Current() != 0 {
		t.Fatalf("expected remaining marker selected, got %d", h.ctrl.Current())
	}
}

func TestDeleteDropsKeyFramesListenersMissed(t *testing.T) {
	h := newHarness(t, Config{FPS: 10, Mode: Normal})
	h.ctrl.ErrorLog = log.New(&bytes.Buffer{}, "", 0)
	times := h.ctrl.Times()
	v := animated.NewDouble(times, nil)
	// Stands in for an animator that fails before removing the
	// keyframe.
	h.ctrl.AddListener(ListenerFunc(func(ev Event) error {
		if ev.Type == EventKeyFrameDeleted {
			return errors.New("busy")
		}
		return nil
	}))
	h.markers(t, 0, 1, 2)
	for i, m := range h.ctrl.Markers() {
		v.Insert(m.Time, float64(i*10))
	}

	h.ctrl.SelectKeyFrame(2)
	if _, err := h.ctrl.DeleteKeyFrame(); err != nil {
		t.Fatalf("DeleteKeyFrame: %v", err)
	}
	// A new marker between 0 and 1 reuses the freed slot.
	h.ctrl.SelectKeyFrame(0)
	if _, err := h.ctrl.InsertKeyFrame(); err != nil {
		t.Fatalf("InsertKeyFrame: %v", err)
	}

	if v.Len() != 2 {
		t.Fatalf("expected the stale keyframe dropped, got %d keyframes", v.Len())
	}
	tmin, tmax := v.Range()
	if tmin != 0 || tmax != 1 {
		t.Fatalf("expected range [0 1], got [%v %v]", tmin, tmax)
	}
	v.SetValueAtTime(0.5)
	if v.Value() != 5 {
		t.Fatalf("expected 5 at 0.5, got %v", v.Value())
	}
}

func TestDeleteWithoutSelection(t *testing.T) {
	h := newHarness(t, Config{})
	if _, err := h.ctrl.DeleteKeyFrame(); !errors.Is(err, ErrNoMarker) {
		t.Fatalf("expected ErrNoMarker, got %v", err)
	}
	if err := h.ctrl.SaveKeyFrame(); !errors.Is(err, ErrNoMarker) {
		t.Fatalf("expected ErrNoMarker, got %v", err)
	}
}

func TestTickerSchedulerStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := make(chan struct{}, 64)
	task := NewTickerScheduler(ctx).Schedule(time.Millisecond, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatalf("ticker task never fired")
	}
	task.Stop()
	select {
	case <-task.(*tickerTask).Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("ticker task did not exit after Stop")
	}
	for len(ticks) > 0 {
		<-ticks
	}
	time.Sleep(10 * time.Millisecond)
	if len(ticks) != 0 {
		t.Fatalf("ticker fired after Stop")
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": Normal, "loop": Cycle, "Shuttle": Shuttle}
	for in, want := range cases {
		if got, err := ParseMode(in); err != nil || got != want {
			t.Fatalf("ParseMode(%q): expected %v, got %v err=%v", in, want, got, err)
		}
	}
	if _, err := ParseMode("bounce"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
