package playback

import (
	"time"

	"github.com/milk9111/keyanim/keyframe"
)

func (c *Controller) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

// CurrentFrame counts ticks since the last Reset.
func (c *Controller) CurrentFrame() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// CurrentTick returns the fractional tick counter.
func (c *Controller) CurrentTick() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// TotalTicks returns the tick count computed when playback last
// started or the markers last moved.
func (c *Controller) TotalTicks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Direction is 1 when playing forward and -1 in reverse.
func (c *Controller) Direction() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dir
}

func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) SetMode(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

func (c *Controller) FPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// SetFPS changes the frame rate. While playing, the tick count and
// the tick interval follow immediately.
func (c *Controller) SetFPS(fps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setFPS(fps)
	c.recount()
	c.tick = c.tickOf(c.time)
	if c.task != nil {
		c.stopTask()
		interval := max(minInterval, time.Duration(float64(time.Second)/c.fps))
		c.task = c.sched.Schedule(interval, c.Tick)
	}
}

// Factor is the playback speed multiplier.
func (c *Controller) Factor() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.factor
}

func (c *Controller) SetFactor(f float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setFactor(f)
}

func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

func (c *Controller) SetRecording(r bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recording = r
}

func (c *Controller) RecordPrefs() RecordPrefs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefs
}

func (c *Controller) SetRecordPrefs(p RecordPrefs) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs = p
}

// Current returns the selected marker index, or -1.
func (c *Controller) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Markers returns the marker keyframes in time order.
func (c *Controller) Markers() []keyframe.KeyFrame[Marker] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.markers.Frames()
}

func (c *Controller) MarkerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.markers.Len()
}

// MarkerTime returns the time of marker i.
func (c *Controller) MarkerTime(i int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.markers.TimeAt(i)
}

// Range returns the times of the first and last markers.
func (c *Controller) Range() (tmin, tmax float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.markers.Tmin(), c.markers.Tmax()
}
