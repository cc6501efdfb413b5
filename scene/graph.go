package scene

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jakecoffman/cp"
)

var ErrKindMismatch = errors.New("scene: target has a different kind")

const (
	defaultBodySize = 32
	spaceIterations = 10
)

// Graph is a registry of named animation targets. Bodies also live
// in the graph's chipmunk space.
type Graph struct {
	mu      sync.RWMutex
	space   *cp.Space
	targets map[string]any
}

func NewGraph() *Graph {
	space := cp.NewSpace()
	space.Iterations = spaceIterations
	space.SetGravity(cp.Vector{})
	return &Graph{
		space:   space,
		targets: make(map[string]any),
	}
}

// Space returns the chipmunk space bodies are added to.
func (g *Graph) Space() *cp.Space {
	if g == nil {
		return nil
	}
	return g.space
}

// Names returns the registered target names in sorted order.
func (g *Graph) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.targets))
	for name := range g.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Target returns the target registered as name.
func (g *Graph) Target(name string) (any, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.targets[name]
	return t, ok
}

// Lookup returns the property registered as name, creating it with
// value def if missing. A different kind of target under the same
// name is an error.
func Lookup[T any](g *Graph, name string, def T) (*Property[T], error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.targets[name]; ok {
		p, ok := t.(*Property[T])
		if !ok {
			return nil, fmt.Errorf("scene: property %q is %T: %w", name, t, ErrKindMismatch)
		}
		return p, nil
	}
	p := NewProperty(name, def)
	g.targets[name] = p
	return p, nil
}

// Double is Lookup for float64 properties.
func (g *Graph) Double(name string) (*Property[float64], error) {
	return Lookup(g, name, 0.0)
}

// Node returns the node registered as name, creating it if missing.
func (g *Graph) Node(name string) (*Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.targets[name]; ok {
		n, ok := t.(*Node)
		if !ok {
			return nil, fmt.Errorf("scene: node %q is %T: %w", name, t, ErrKindMismatch)
		}
		return n, nil
	}
	n := NewNode(name)
	g.targets[name] = n
	return n, nil
}

// Body returns the body registered as name, creating a kinematic
// box of w by h if missing. Non-positive sizes use a default.
func (g *Graph) Body(name string, w, h float64) (*Body, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.targets[name]; ok {
		b, ok := t.(*Body)
		if !ok {
			return nil, fmt.Errorf("scene: body %q is %T: %w", name, t, ErrKindMismatch)
		}
		return b, nil
	}
	if w <= 0 {
		w = defaultBodySize
	}
	if h <= 0 {
		h = defaultBodySize
	}

	body := cp.NewKinematicBody()
	shape := cp.NewBox(body, w, h, 0)
	shape.SetSensor(true)
	g.space.AddBody(body)
	g.space.AddShape(shape)

	b := &Body{name: name, body: body, shape: shape, space: g.space, width: w, height: h}
	g.targets[name] = b
	return b, nil
}

// Remove unregisters name. A body is taken out of the space.
func (g *Graph) Remove(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.targets[name]
	if !ok {
		return false
	}
	if b, ok := t.(*Body); ok {
		g.space.RemoveShape(b.shape)
		g.space.RemoveBody(b.body)
		b.mu.Lock()
		b.space = nil
		b.mu.Unlock()
	}
	delete(g.targets, name)
	return true
}

// Nodes returns the registered nodes sorted by name.
func (g *Graph) Nodes() []*Node {
	return collect[*Node](g)
}

// Bodies returns the registered bodies sorted by name.
func (g *Graph) Bodies() []*Body {
	return collect[*Body](g)
}

// Step advances the space by dt.
func (g *Graph) Step(dt float64) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	g.space.Step(dt)
}

func collect[T interface{ Name() string }](g *Graph) []T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []T
	for _, t := range g.targets {
		if v, ok := t.(T); ok {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
