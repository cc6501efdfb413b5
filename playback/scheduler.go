package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Clock provides the wall-clock time ticks are measured with.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Task is a scheduled periodic callback.
type Task interface {
	// Stop cancels the task. No invocation starts after Stop
	// returns. Stop may be called from within the callback.
	Stop()
}

// Scheduler runs a callback periodically.
type Scheduler interface {
	Schedule(interval time.Duration, fn func()) Task
}

// TickerScheduler runs each task on its own goroutine paced by
// a time.Ticker. Invocations of one task never overlap.
type TickerScheduler struct {
	ctx context.Context
}

// NewTickerScheduler creates a scheduler whose tasks also stop
// when ctx is done.
func NewTickerScheduler(ctx context.Context) *TickerScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &TickerScheduler{ctx: ctx}
}

func (s *TickerScheduler) Schedule(interval time.Duration, fn func()) Task {
	ctx, cancel := context.WithCancel(s.ctx)
	t := &tickerTask{cancel: cancel, done: make(chan struct{})}
	go t.run(ctx, interval, fn)
	return t
}

type tickerTask struct {
	cancel  context.CancelFunc
	stopped atomic.Bool
	done    chan struct{}
}

func (t *tickerTask) run(ctx context.Context, interval time.Duration, fn func()) {
	defer close(t.done)
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			if t.stopped.Load() {
				return
			}
			fn()
		}
	}
}

func (t *tickerTask) Stop() {
	t.stopped.Store(true)
	t.cancel()
}

// Done is closed once the task goroutine has exited.
func (t *tickerTask) Done() <-chan struct{} { return t.done }

// PolledScheduler runs tasks only when polled. A frame loop (or a
// test) calls Poll once per frame.
type PolledScheduler struct {
	mu    sync.Mutex
	tasks []*polledTask
}

type polledTask struct {
	owner    *PolledScheduler
	interval time.Duration
	fn       func()
	due      time.Time
	stopped  atomic.Bool
}

func (t *polledTask) Stop() {
	t.stopped.Store(true)
	t.owner.prune()
}

func NewPolledScheduler() *PolledScheduler { return &PolledScheduler{} }

func (s *PolledScheduler) Schedule(interval time.Duration, fn func()) Task {
	t := &polledTask{owner: s, interval: interval, fn: fn}
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	return t
}

// Poll runs every task that is due at now. A task is due on its
// first poll and then once per interval.
func (s *PolledScheduler) Poll(now time.Time) int {
	ran := 0
	for _, t := range s.active() {
		if t.stopped.Load() || (!t.due.IsZero() && now.Before(t.due)) {
			continue
		}
		t.due = now.Add(t.interval)
		t.fn()
		ran++
	}
	return ran
}

// Fire runs every active task once, ignoring intervals.
func (s *PolledScheduler) Fire() int {
	ran := 0
	for _, t := range s.active() {
		if t.stopped.Load() {
			continue
		}
		t.fn()
		ran++
	}
	return ran
}

// Active returns the number of tasks not yet stopped.
func (s *PolledScheduler) Active() int {
	return len(s.active())
}

func (s *PolledScheduler) active() []*polledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*polledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.stopped.Load() {
			out = append(out, t)
		}
	}
	return out
}

func (s *PolledScheduler) prune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.stopped.Load() {
			kept = append(kept, t)
		}
	}
	clear(s.tasks[len(kept):])
	s.tasks = kept
}
