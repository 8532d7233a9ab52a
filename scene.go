package fanscene

import (
	"github.com/go-gl/mathgl/mgl64"
)

const defaultCommandCap = 64

// Scene owns the node tree, the active camera node and the per-frame
// render command list.
type Scene struct {
	root   *Node
	camera *Node

	// Render state
	commands []RenderCommand
	sortBuf  []RenderCommand
	lights   lightSet
}

// NewScene creates a new scene with a pre-created root group.
func NewScene() *Scene {
	return &Scene{
		root:     NewGroup("root"),
		commands: make([]RenderCommand, 0, defaultCommandCap),
		sortBuf:  make([]RenderCommand, 0, defaultCommandCap),
	}
}

// Root returns the scene's root group node.
func (s *Scene) Root() *Node {
	return s.root
}

// CreateNode creates a group node with the given local transform under
// parent (the root when parent is nil).
func (s *Scene) CreateNode(parent *Node, name string, t Transform) *Node {
	n := NewGroup(name)
	n.SetLocalTransform(t)
	if parent == nil {
		parent = s.root
	}
	parent.AddChild(n)
	return n
}

// SetCamera makes the camera node n the active camera. The node must carry
// a Camera payload and should be part of the tree.
func (s *Scene) SetCamera(n *Node) {
	if n != nil && n.Camera == nil {
		panic("fanscene: camera node has no camera payload")
	}
	s.camera = n
}

// Camera returns the active camera node, or nil.
func (s *Scene) Camera() *Node {
	return s.camera
}

// AddAmbientLight adds an ambient light node under the root.
func (s *Scene) AddAmbientLight(name string, c Color, intensity float64) *Node {
	n := NewLightNode(name, NewAmbientLight(c, intensity))
	s.root.AddChild(n)
	return n
}

// AddDirectionalLight adds a directional light node under the root,
// positioned at from and aimed at the world origin.
func (s *Scene) AddDirectionalLight(name string, c Color, intensity float64, from Vec3) *Node {
	n := NewLightNode(name, NewDirectionalLight(c, intensity))
	n.SetPosition(from[0], from[1], from[2])
	s.root.AddChild(n)
	n.LookAt(Vec3{})
	return n
}

// Walk visits every node depth-first, parent before children.
func (s *Scene) Walk(fn func(*Node) bool) {
	s.root.Walk(fn)
}

// NodeCount returns the number of nodes in the tree including the root.
func (s *Scene) NodeCount() int {
	count := 0
	s.root.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// MaxDepth returns the depth of the deepest node (the root has depth 0).
func (s *Scene) MaxDepth() int {
	deepest := 0
	var walk func(n *Node, d int)
	walk = func(n *Node, d int) {
		if d > deepest {
			deepest = d
		}
		for _, c := range n.children {
			walk(c, d+1)
		}
	}
	walk(s.root, 0)
	return deepest
}

// Update refreshes cached world transforms for the whole tree.
func (s *Scene) Update() {
	updateWorldTransform(s.root, mgl64.Ident4(), false)
}
