package fanscene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// CommandType identifies the kind of render command.
type CommandType uint8

const (
	CommandMesh   CommandType = iota // lit triangles
	CommandPoints                    // fixed-size point sprites
)

// renderPass orders commands: opaque geometry first, then blended
// triangles, then points.
type renderPass uint8

const (
	passOpaque renderPass = iota
	passTransparent
	passPoints
)

// RenderCommand is a single draw instruction emitted during scene traversal.
type RenderCommand struct {
	Type   CommandType
	World  Mat4
	Normal mgl64.Mat3
	Mesh   *Mesh

	pass      renderPass
	depth     float64 // view-space distance of the node origin
	treeOrder int     // assigned during traversal for stable sort
}

// prepareFrame refreshes world transforms, gathers lights and emits the
// sorted command list for the given view matrix.
func (s *Scene) prepareFrame(view Mat4) {
	s.commands = s.commands[:0]
	s.lights.reset()
	treeOrder := 0
	s.traverse(s.root, mgl64.Ident4(), false, view, &treeOrder)
	s.mergeSort()
}

// traverse walks the node tree depth-first, parent before children,
// updating transforms and emitting commands for visible mesh nodes.
func (s *Scene) traverse(n *Node, parentTransform Mat4, parentRecomputed bool, view Mat4, treeOrder *int) {
	recompute := n.transformDirty || parentRecomputed
	if recompute {
		n.worldTransform = parentTransform.Mul4(computeLocalTransform(n))
		n.transformDirty = false
	}
	if !n.Visible {
		// Keep descendants' caches coherent for when the node is shown again.
		for _, child := range n.children {
			markSubtreeDirty(child)
		}
		return
	}

	switch n.Type {
	case NodeTypeLight:
		if n.Light != nil {
			s.lights.add(n.Light, n.worldTransform)
		}
	case NodeTypeMesh, NodeTypePoints:
		if m := n.Mesh; m != nil && m.Geometry != nil && m.Material != nil && m.Geometry.VertexCount() > 0 {
			*treeOrder++
			cmd := RenderCommand{
				World:     n.worldTransform,
				Normal:    normalMatrix(n.worldTransform),
				Mesh:      m,
				treeOrder: *treeOrder,
			}
			origin := view.Mul4x1(n.worldTransform.Col(3))
			cmd.depth = -origin[2]
			switch {
			case m.Geometry.Primitive() == PrimitivePoints:
				cmd.Type = CommandPoints
				cmd.pass = passPoints
			case m.Material.Transparent:
				cmd.pass = passTransparent
			default:
				cmd.pass = passOpaque
			}
			s.commands = append(s.commands, cmd)
		}
	}

	for _, child := range n.children {
		s.traverse(child, n.worldTransform, recompute, view, treeOrder)
	}
}

// --- Merge sort ---

// commandLessOrEqual returns true if a should sort before or at the same position as b.
// Blended passes sort back to front; ties fall back to tree order.
func commandLessOrEqual(a, b RenderCommand) bool {
	if a.pass != b.pass {
		return a.pass < b.pass
	}
	if a.pass != passOpaque && a.depth != b.depth {
		return a.depth > b.depth
	}
	return a.treeOrder <= b.treeOrder
}

// mergeSort sorts s.commands in-place using s.sortBuf as scratch space.
// Bottom-up merge sort: zero allocations after the sort buffer reaches high-water mark.
func (s *Scene) mergeSort() {
	n := len(s.commands)
	if n <= 1 {
		return
	}
	if cap(s.sortBuf) < n {
		s.sortBuf = make([]RenderCommand, n)
	}
	s.sortBuf = s.sortBuf[:n]

	a := s.commands
	b := s.sortBuf
	swapped := false

	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			lo := i
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeRun(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}

	if swapped {
		copy(s.commands, s.sortBuf)
	}
}

// mergeRun merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeRun(src, dst []RenderCommand, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if commandLessOrEqual(src[i], src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	for i < mid {
		dst[k] = src[i]
		i++
		k++
	}
	for j < hi {
		dst[k] = src[j]
		j++
		k++
	}
}
