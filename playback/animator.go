package playback

import (
	"sync"

	"github.com/milk9111/keyanim/keyframe"
)

// Animatable is what an Animator drives. animated.Value and
// animated.Set satisfy it.
type Animatable interface {
	SetValueAtTime(t float64)
	AddKeyFrame(id keyframe.TimeID)
	DeleteKeyFrame(id keyframe.TimeID) bool
}

// Animator is a Listener that keeps a group of animated values in
// step with a controller's markers.
type Animator struct {
	mu      sync.Mutex
	targets []Animatable
}

func NewAnimator(targets ...Animatable) *Animator {
	return &Animator{targets: append([]Animatable(nil), targets...)}
}

// Add appends target. Targets are driven in the order added.
func (a *Animator) Add(target Animatable) {
	if target == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.targets = append(a.targets, target)
}

func (a *Animator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.targets)
}

func (a *Animator) HandleEvent(ev Event) error {
	a.mu.Lock()
	targets := append([]Animatable(nil), a.targets...)
	a.mu.Unlock()

	switch ev.Type {
	case EventKeyFrameAdded, EventKeyFrameChanged:
		for _, t := range targets {
			t.AddKeyFrame(ev.KeyFrame)
		}
	case EventKeyFrameDeleted:
		for _, t := range targets {
			t.DeleteKeyFrame(ev.KeyFrame)
		}
	case EventSetValueAtTime:
		for _, t := range targets {
			t.SetValueAtTime(ev.Time)
		}
	}
	return nil
}
