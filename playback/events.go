package playback

import (
	"fmt"

	"github.com/milk9111/keyanim/keyframe"
)

// EventType identifies a controller notification.
type EventType int

const (
	EventKeyFrameAdded EventType = iota + 1
	EventKeyFrameChanged
	EventKeyFrameDeleted
	// EventKeyFrameMoved follows a marker retime. Values are
	// unchanged; only the keyframe time moved.
	EventKeyFrameMoved
	EventSetValueAtTime
	EventPlaybackStarted
	EventPlaybackCompleted
)

var eventNames = map[EventType]string{
	EventKeyFrameAdded:     "keyframe_added",
	EventKeyFrameChanged:   "keyframe_changed",
	EventKeyFrameDeleted:   "keyframe_deleted",
	EventKeyFrameMoved:     "keyframe_moved",
	EventSetValueAtTime:    "set_value_at_time",
	EventPlaybackStarted:   "playback_started",
	EventPlaybackCompleted: "playback_completed",
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is what listeners receive.
type Event struct {
	Type   EventType
	Source *Controller
	Time   float64
	// KeyFrame is the marker slot the event is about, or
	// keyframe.Nil.
	KeyFrame keyframe.TimeID
}

// Listener consumes controller events.
// A returned error is logged by the controller and does not
// stop delivery to other listeners.
type Listener interface {
	HandleEvent(ev Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev Event) error

func (f ListenerFunc) HandleEvent(ev Event) error { return f(ev) }

type listenerEntry struct {
	id int
	l  Listener
}
