package fanscene

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// nodeIDCounter hands out node IDs. Atomic so snapshots taken by the
// exporter never race with construction of helper scenes in tests.
var nodeIDCounter atomic.Uint32

func nextNodeID() uint32 {
	return nodeIDCounter.Add(1)
}

// Transform is a local position, Euler rotation (radians, XYZ order) and scale.
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

// IdentityTransform returns a transform with unit scale and no rotation.
func IdentityTransform() Transform {
	return Transform{Scale: Vec3{1, 1, 1}}
}

// Node is the scene graph element. A single flat struct is used for all node
// types; the payload pointer that matches Type is non-nil.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local). Call MarkDirty after writing these fields directly.
	Position Vec3
	Rotation Vec3
	Scale    Vec3

	Visible bool

	// Payloads
	Mesh   *Mesh
	Light  *Light
	Camera *Camera

	UserData any

	// Computed during traversal
	worldTransform Mat4
	transformDirty bool
}

func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.Scale = Vec3{1, 1, 1}
	n.Visible = true
	n.transformDirty = true
	n.worldTransform = mgl64.Ident4()
}

// NewGroup creates a transform-only node.
func NewGroup(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeGroup}
	nodeDefaults(n)
	return n
}

// NewMeshNode creates a node carrying a mesh. Point geometry yields a
// NodeTypePoints node.
func NewMeshNode(name string, m *Mesh) *Node {
	n := &Node{Name: name}
	nodeDefaults(n)
	n.Attach(m)
	return n
}

// NewLightNode creates a node carrying a light.
func NewLightNode(name string, l *Light) *Node {
	n := &Node{Name: name}
	nodeDefaults(n)
	n.Attach(l)
	return n
}

// NewCameraNode creates a node carrying a camera.
func NewCameraNode(name string, c *Camera) *Node {
	n := &Node{Name: name}
	nodeDefaults(n)
	n.Attach(c)
	return n
}

// Attach sets the node's payload, which must be a *Mesh, *Light, *Camera or
// nil. Any previous payload is replaced; nil turns the node into a group.
// Panics on any other type.
func (n *Node) Attach(payload any) {
	n.Mesh, n.Light, n.Camera = nil, nil, nil
	switch p := payload.(type) {
	case nil:
		n.Type = NodeTypeGroup
	case *Mesh:
		if p == nil {
			n.Type = NodeTypeGroup
			return
		}
		n.Mesh = p
		n.Type = NodeTypeMesh
		if p.Geometry != nil && p.Geometry.Primitive() == PrimitivePoints {
			n.Type = NodeTypePoints
		}
	case *Light:
		if p == nil {
			n.Type = NodeTypeGroup
			return
		}
		n.Light = p
		n.Type = NodeTypeLight
	case *Camera:
		if p == nil {
			n.Type = NodeTypeGroup
			return
		}
		n.Camera = p
		n.Type = NodeTypeCamera
	default:
		panic("fanscene: unsupported payload type")
	}
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("fanscene: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("fanscene: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	markSubtreeDirty(child)
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("fanscene: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	markSubtreeDirty(child)
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		panic("fanscene: child index out of range")
	}
	return n.children[index]
}

// FindChild returns the first descendant (depth-first, parent before
// children) with the given name, or nil.
func (n *Node) FindChild(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
		if found := c.FindChild(name); found != nil {
			return found
		}
	}
	return nil
}

// Depth returns the number of ancestors of n.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// Walk visits n and its descendants depth-first, parent before children.
// Returning false from fn skips that node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node (or node itself).
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets transformDirty on node and all its descendants.
func markSubtreeDirty(node *Node) {
	node.transformDirty = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}
