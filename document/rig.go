package document

import (
	"fmt"
	"image/color"
	"math"

	"github.com/milk9111/keyanim/animated"
	"github.com/milk9111/keyanim/interp"
	"github.com/milk9111/keyanim/keyframe"
	"github.com/milk9111/keyanim/linear"
	"github.com/milk9111/keyanim/playback"
	"github.com/milk9111/keyanim/scene"
)

// Targets a transform track can drive.
const (
	TargetNode = "node"
	TargetBody = "body"
)

// Track is an animated value built from a TrackSpec.
type Track interface {
	playback.Animatable
	// Gather refreshes the track's current value from its target.
	Gather()
}

type track struct {
	Track
	spec    TrackSpec
	capture func(index map[keyframe.TimeID]int) []KeySpec
}

// Rig is a built document: a controller with its markers, the
// animated values bound to graph targets and the animator that
// connects them.
type Rig struct {
	Name       string
	Times      *keyframe.Times
	Controller *playback.Controller
	Animator   *playback.Animator
	Graph      *scene.Graph
	// Markers holds the marker slots in document order.
	Markers []keyframe.TimeID
	// Scripts holds absolute script paths.
	Scripts []string

	scripts []string
	tracks  []*track
	byName map[string]*track
}

// Option adjusts the controller config Build uses.
type Option func(*playback.Config)

func WithScheduler(s playback.Scheduler) Option {
	return func(c *playback.Config) { c.Scheduler = s }
}

func WithClock(clk playback.Clock) Option {
	return func(c *playback.Config) { c.Clock = clk }
}

// Build validates doc and turns it into a rig whose values write
// into targets of g. Every value starts out at the first marker.
func Build(doc *Document, g *scene.Graph, opts ...Option) (*Rig, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}
	mode, _ := playback.ParseMode(doc.Playback.Mode)
	cfg := playback.Config{FPS: doc.Playback.FPS, Factor: doc.Playback.Factor, Mode: mode}
	for _, opt := range opts {
		opt(&cfg)
	}

	times := keyframe.NewTimes()
	r := &Rig{
		Name:       doc.Name,
		Times:      times,
		Controller: playback.NewController(times, cfg),
		Animator:   playback.NewAnimator(),
		Graph:      g,
		Scripts:    doc.ScriptPaths(),
		scripts:    doc.Scripts,
		byName:     make(map[string]*track, len(doc.Tracks)),
	}
	for i, t := range doc.Markers {
		label := ""
		if i < len(doc.Labels) {
			label = doc.Labels[i]
		}
		id, err := r.Controller.AddMarker(t, label)
		if err != nil {
			return nil, fmt.Errorf("document: marker %d: %w", i, err)
		}
		r.Markers = append(r.Markers, id)
	}
	for _, ts := range doc.Tracks {
		if err := r.addTrack(ts); err != nil {
			return nil, fmt.Errorf("document: track %q: %w", ts.Name, err)
		}
	}
	r.Controller.AddListener(r.Animator)
	tmin, _ := r.Controller.Range()
	r.Controller.ScrubTime(tmin)
	return r, nil
}

// Track returns the track named name.
func (r *Rig) Track(name string) (Track, bool) {
	t, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return t.Track, true
}

// TrackNames returns track names in document order.
func (r *Rig) TrackNames() []string {
	out := make([]string, len(r.tracks))
	for i, t := range r.tracks {
		out[i] = t.spec.Name
	}
	return out
}

// Gather refreshes every track from its target, so that saving a
// keyframe stores what the targets currently show.
func (r *Rig) Gather() {
	for _, t := range r.tracks {
		t.Gather()
	}
}

func (r *Rig) addTrack(ts TrackSpec) error {
	var (
		t   *track
		err error
	)
	switch ts.Kind {
	case KindDouble:
		t, err = bindValue(r, ts, 0.0, animated.Double, decodeDouble, encodeSame[float64])
	case KindInteger:
		t, err = bindValue(r, ts, 0, animated.Integer, decodeInteger, encodeSame[int])
	case KindBoolean:
		t, err = bindValue(r, ts, false, animated.Boolean, decodeAs[bool], encodeSame[bool])
	case KindColor:
		t, err = bindValue(r, ts, color.NRGBA{A: 255}, animated.Color, decodeColor, encodeColor)
	case KindDoubles:
		t, err = bindValue(r, ts, []float64(nil), animated.Doubles, decodeAs[[]float64], encodeSame[[]float64])
	case KindTransform, KindIsometry:
		ops := animated.Transform
		if ts.Kind == KindIsometry {
			ops = animated.Isometry
		}
		d, derr := r.spatialTarget(ts)
		if derr != nil {
			return derr
		}
		t, err = valueTrack[linear.Transform](r, ts, d, ops, decodeTransform, encodeTransform)
	case KindDoubleSet:
		t, err = bindSet(r, ts, make([]float64, ts.Size), animated.Double, decodeDouble, encodeSame[float64])
	case KindIntegerSet:
		t, err = bindSet(r, ts, make([]int, ts.Size), animated.Integer, decodeInteger, encodeSame[int])
	case KindBooleanSet:
		t, err = bindSet(r, ts, make([]bool, ts.Size), animated.Boolean, decodeAs[bool], encodeSame[bool])
	case KindColorSet:
		t, err = bindSet(r, ts, make([]color.NRGBA, ts.Size), animated.Color, decodeColor, encodeColor)
	case KindTransformSet:
		xs := make([]linear.Transform, ts.Size)
		for i := range xs {
			xs[i] = linear.Ident()
		}
		t, err = bindSet(r, ts, xs, animated.Transform, decodeTransform, encodeTransform)
	default:
		err = fmt.Errorf("%w %q", ErrUnknownKind, string(ts.Kind))
	}
	if err != nil {
		return err
	}
	r.tracks = append(r.tracks, t)
	r.byName[ts.Name] = t
	r.Animator.Add(t.Track)
	return nil
}

// spatialTarget returns the node or body a transform track drives.
func (r *Rig) spatialTarget(ts TrackSpec) (animated.Delegate[linear.Transform], error) {
	if ts.Target == TargetBody {
		b, err := r.Graph.Body(ts.Name, 0, 0)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	n, err := r.Graph.Node(ts.Name)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// bindValue binds a single-valued track to the graph property of
// the same name.
func bindValue[T any](r *Rig, ts TrackSpec, def T, ops *animated.Ops[T], decode func(any) (T, error), encode func(T) any) (*track, error) {
	p, err := scene.Lookup(r.Graph, ts.Name, def)
	if err != nil {
		return nil, err
	}
	return valueTrack[T](r, ts, p, ops, decode, encode)
}

// bindSet binds a set track to the graph array property of the same
// name.
func bindSet[T any](r *Rig, ts TrackSpec, def []T, ops *animated.Ops[T], decode func(any) (T, error), encode func(T) any) (*track, error) {
	p, err := scene.Lookup(r.Graph, ts.Name, def)
	if err != nil {
		return nil, err
	}
	return setTrack[T](r, ts, p, ops, decode, encode)
}

func valueTrack[T any](r *Rig, ts TrackSpec, d animated.Delegate[T], ops *animated.Ops[T], decode func(any) (T, error), encode func(T) any) (*track, error) {
	kind, _ := interp.ParseKind(ts.Interpolation)
	boundary, _ := animated.ParseBoundary(ts.Boundary)

	v := animated.New[T](r.Times, ops, d)
	v.SetInterpolation(kind)
	v.SetBoundary(boundary)
	v.SetGivesWay(ts.GivesWay)
	for _, k := range ts.Keys {
		val, err := decode(k.Value)
		if err != nil {
			return nil, fmt.Errorf("key at marker %d: %w", k.Marker, err)
		}
		v.Insert(r.Markers[k.Marker], val)
	}
	v.SetWritable(!ts.ReadOnly)

	return &track{
		Track: v,
		spec:  ts,
		capture: func(index map[keyframe.TimeID]int) []KeySpec {
			var keys []KeySpec
			for _, kf := range v.KeyFrames() {
				if i, ok := index[kf.Time]; ok {
					keys = append(keys, KeySpec{Marker: i, Value: encode(kf.Value)})
				}
			}
			return keys
		},
	}, nil
}

func setTrack[T any](r *Rig, ts TrackSpec, d animated.SetDelegate[T], ops *animated.Ops[T], decode func(any) (T, error), encode func(T) any) (*track, error) {
	kind, _ := interp.ParseKind(ts.Interpolation)
	boundary, _ := animated.ParseBoundary(ts.Boundary)

	s := animated.NewSet[T](r.Times, ops, ts.Size, d)
	s.SetInterpolation(kind)
	for i := 0; i < s.Len(); i++ {
		s.Track(i).SetBoundary(boundary)
		s.Track(i).SetGivesWay(ts.GivesWay)
	}
	for _, k := range ts.Keys {
		for slot, raw := range k.Values {
			if raw == nil {
				continue
			}
			val, err := decode(raw)
			if err != nil {
				return nil, fmt.Errorf("key at marker %d slot %d: %w", k.Marker, slot, err)
			}
			s.Track(slot).Insert(r.Markers[k.Marker], val)
		}
	}
	s.SetWritable(!ts.ReadOnly)

	return &track{
		Track: s,
		spec:  ts,
		capture: func(index map[keyframe.TimeID]int) []KeySpec {
			n := s.Len()
			rows := make(map[int][]any)
			for slot := 0; slot < n; slot++ {
				for _, kf := range s.Track(slot).KeyFrames() {
					i, ok := index[kf.Time]
					if !ok {
						continue
					}
					if rows[i] == nil {
						rows[i] = make([]any, n)
					}
					rows[i][slot] = encode(kf.Value)
				}
			}
			var keys []KeySpec
			for i := 0; i < len(index); i++ {
				if row, ok := rows[i]; ok {
					keys = append(keys, KeySpec{Marker: i, Values: row})
				}
			}
			return keys
		},
	}, nil
}

// Capture turns the rig's current state back into a document.
// Markers come out in time order and keys are renumbered to match.
func Capture(r *Rig) *Document {
	c := r.Controller
	doc := &Document{
		Name: r.Name,
		Playback: PlaybackSpec{
			FPS:    c.FPS(),
			Factor: c.Factor(),
			Mode:   c.Mode().String(),
		},
		Scripts: append([]string(nil), r.scripts...),
	}

	index := make(map[keyframe.TimeID]int)
	labeled := false
	for i, m := range c.Markers() {
		index[m.Time] = i
		doc.Markers = append(doc.Markers, r.Times.Time(m.Time))
		doc.Labels = append(doc.Labels, m.Value.Label)
		if m.Value.Label != "" {
			labeled = true
		}
	}
	if !labeled {
		doc.Labels = nil
	}

	for _, t := range r.tracks {
		ts := t.spec
		ts.Keys = t.capture(index)
		doc.Tracks = append(doc.Tracks, ts)
	}
	return doc
}

// Sample evaluates every track at t without moving the controller
// and returns the target values by track name.
func Sample(r *Rig, t float64) map[string]any {
	if math.IsNaN(t) {
		return nil
	}
	out := make(map[string]any, len(r.tracks))
	for _, tr := range r.tracks {
		tr.SetValueAtTime(t)
		target, ok := r.Graph.Target(tr.spec.Name)
		if !ok {
			continue
		}
		out[tr.spec.Name] = gatherTarget(target)
	}
	return out
}

func gatherTarget(target any) any {
	switch v := target.(type) {
	case *scene.Property[float64]:
		return v.Get()
	case *scene.Property[int]:
		return v.Get()
	case *scene.Property[bool]:
		return v.Get()
	case *scene.Property[color.NRGBA]:
		return hexColor(v.Get())
	case *scene.Property[[]float64]:
		return v.Get()
	case *scene.Property[[]int]:
		return v.Get()
	case *scene.Property[[]bool]:
		return v.Get()
	case *scene.Property[[]color.NRGBA]:
		cs := v.Get()
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = hexColor(c)
		}
		return out
	case *scene.Property[[]linear.Transform]:
		xs := v.Get()
		out := make([]TransformSpec, len(xs))
		for i, x := range xs {
			out[i] = specOf(x)
		}
		return out
	case *scene.Node:
		return specOf(v.Gather())
	case *scene.Body:
		return specOf(v.Gather())
	}
	return nil
}
