// Package scene holds the targets animated values write into:
// plain properties, matrix nodes and physics bodies, registered
// by name in a Graph.
package scene

import "sync"

// Property is a named value an animated.Value can propagate into.
// A read-only property ignores propagated values.
type Property[T any] struct {
	mu       sync.Mutex
	name     string
	value    T
	readOnly bool
	writes   int
}

func NewProperty[T any](name string, value T) *Property[T] {
	return &Property[T]{name: name, value: value}
}

func (p *Property[T]) Name() string { return p.name }

// Propagate stores v unless p is read-only.
func (p *Property[T]) Propagate(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readOnly {
		return
	}
	p.value = v
	p.writes++
}

func (p *Property[T]) Gather() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Get is Gather under the name callers outside animation expect.
func (p *Property[T]) Get() T { return p.Gather() }

// Set stores v even if p is read-only. It is the owner's write,
// not an animation write, and does not count as one.
func (p *Property[T]) Set(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
}

func (p *Property[T]) ReadOnly() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readOnly
}

func (p *Property[T]) SetReadOnly(ro bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readOnly = ro
}

// Writes counts accepted propagations.
func (p *Property[T]) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}
