package scene

import (
	"sync"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/keyanim/linear"
)

// Body adapts a chipmunk body to a transform delegate. Only the
// planar part of a transform reaches the body: translation x/y and
// the rotation about Z.
type Body struct {
	mu       sync.Mutex
	name     string
	body     *cp.Body
	shape    *cp.Shape
	space    *cp.Space
	width    float64
	height   float64
	readOnly bool
}

func (b *Body) Name() string { return b.name }

// Body returns the wrapped chipmunk body.
func (b *Body) Body() *cp.Body { return b.body }

// Size returns the extent of the body's box shape.
func (b *Body) Size() (w, h float64) { return b.width, b.height }

func (b *Body) Propagate(x linear.Transform) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readOnly {
		return
	}
	b.body.SetPosition(cp.Vector{X: x.T[0], Y: x.T[1]})
	b.body.SetAngle(linear.Yaw(x.R))
	b.body.SetVelocityVector(cp.Vector{})
	if b.space != nil {
		b.space.ReindexShapesForBody(b.body)
	}
}

// Gather reads the position and angle back as a rigid transform.
func (b *Body) Gather() linear.Transform {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.body.Position()
	return linear.Transform{
		T: linear.V3{p.X, p.Y, 0},
		R: linear.RotateQ(b.body.Angle(), linear.V3{0, 0, 1}),
		S: linear.V3{1, 1, 1},
	}
}

func (b *Body) ReadOnly() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readOnly
}

func (b *Body) SetReadOnly(ro bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readOnly = ro
}
