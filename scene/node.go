package scene

import (
	"sync"

	"github.com/milk9111/keyanim/linear"
)

// Node is a scene node whose local matrix is animated through a
// factored transform.
type Node struct {
	mu       sync.Mutex
	name     string
	matrix   linear.M4
	readOnly bool
}

// NewNode creates a node with the identity matrix.
func NewNode(name string) *Node {
	return &Node{name: name, matrix: linear.I4()}
}

func (n *Node) Name() string { return n.name }

// Propagate composes x into the node matrix.
func (n *Node) Propagate(x linear.Transform) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.readOnly {
		return
	}
	n.matrix = x.M4()
}

// Gather decomposes the node matrix.
func (n *Node) Gather() linear.Transform {
	n.mu.Lock()
	defer n.mu.Unlock()
	return linear.Decompose(n.matrix)
}

func (n *Node) Matrix() linear.M4 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.matrix
}

func (n *Node) SetMatrix(m linear.M4) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.matrix = m
}

func (n *Node) ReadOnly() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.readOnly
}

func (n *Node) SetReadOnly(ro bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.readOnly = ro
}
