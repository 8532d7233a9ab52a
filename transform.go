package fanscene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// eulerMatrix returns the rotation matrix for Euler angles applied in XYZ
// order: M = Rx * Ry * Rz.
func eulerMatrix(e Vec3) Mat4 {
	return mgl64.HomogRotate3DX(e[0]).
		Mul4(mgl64.HomogRotate3DY(e[1])).
		Mul4(mgl64.HomogRotate3DZ(e[2]))
}

// eulerQuat returns the quaternion equivalent of eulerMatrix(e).
func eulerQuat(e Vec3) mgl64.Quat {
	return mgl64.QuatRotate(e[0], Vec3{1, 0, 0}).
		Mul(mgl64.QuatRotate(e[1], Vec3{0, 1, 0})).
		Mul(mgl64.QuatRotate(e[2], Vec3{0, 0, 1}))
}

// eulerFromMatrix extracts XYZ Euler angles from a pure rotation matrix.
// Near gimbal lock (|m13| ~ 1) the Z angle is fixed to zero.
func eulerFromMatrix(m mgl64.Mat3) Vec3 {
	m11, m12, m13 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m22, m23 := m.At(1, 1), m.At(1, 2)
	m32, m33 := m.At(2, 1), m.At(2, 2)

	var e Vec3
	e[1] = math.Asin(mgl64.Clamp(m13, -1, 1))
	if math.Abs(m13) < 0.9999999 {
		e[0] = math.Atan2(-m23, m33)
		e[2] = math.Atan2(-m12, m11)
	} else {
		e[0] = math.Atan2(m32, m22)
		e[2] = 0
	}
	return e
}

// computeLocalTransform composes Translate * Rotate(XYZ) * Scale.
func computeLocalTransform(n *Node) Mat4 {
	return mgl64.Translate3D(n.Position[0], n.Position[1], n.Position[2]).
		Mul4(eulerMatrix(n.Rotation)).
		Mul4(mgl64.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2]))
}

// updateWorldTransform recomputes a node's cached world matrix.
// parentRecomputed forces recomputation of this node even if it's not dirty.
func updateWorldTransform(n *Node, parent Mat4, parentRecomputed bool) {
	recompute := n.transformDirty || parentRecomputed
	if recompute {
		n.worldTransform = parent.Mul4(computeLocalTransform(n))
		n.transformDirty = false
	}
	for _, child := range n.children {
		updateWorldTransform(child, n.worldTransform, recompute)
	}
}

// WorldTransform composes the local transforms from the root down to n.
// It never reads the traversal cache, so it always reflects the latest
// local transforms even if fields were written without MarkDirty.
func (n *Node) WorldTransform() Mat4 {
	m := computeLocalTransform(n)
	for p := n.Parent; p != nil; p = p.Parent {
		m = computeLocalTransform(p).Mul4(m)
	}
	return m
}

// WorldPosition returns the translation part of WorldTransform.
func (n *Node) WorldPosition() Vec3 {
	return n.WorldTransform().Col(3).Vec3()
}

// Quat returns the node's local rotation as a quaternion.
func (n *Node) Quat() mgl64.Quat {
	return eulerQuat(n.Rotation)
}

// normalMatrix returns the inverse transpose of the upper 3x3 of m.
// Returns the plain upper 3x3 if it is singular.
func normalMatrix(m Mat4) mgl64.Mat3 {
	m3 := m.Mat3()
	if math.Abs(m3.Det()) < 1e-18 {
		return m3
	}
	return m3.Inv().Transpose()
}

// --- Transform property setters ---

// LocalTransform returns the node's local transform.
func (n *Node) LocalTransform() Transform {
	return Transform{Position: n.Position, Rotation: n.Rotation, Scale: n.Scale}
}

// SetLocalTransform replaces the node's local transform and marks it dirty.
func (n *Node) SetLocalTransform(t Transform) {
	n.Position = t.Position
	n.Rotation = t.Rotation
	n.Scale = t.Scale
	n.transformDirty = true
}

// SetPosition sets the node's local position and marks it dirty.
func (n *Node) SetPosition(x, y, z float64) {
	n.Position = Vec3{x, y, z}
	n.transformDirty = true
}

// SetRotation sets the node's Euler rotation (radians, XYZ order) and marks it dirty.
func (n *Node) SetRotation(x, y, z float64) {
	n.Rotation = Vec3{x, y, z}
	n.transformDirty = true
}

// RotateOnAxis adds angle radians to one Euler component and marks it dirty.
func (n *Node) RotateOnAxis(axis Axis, angle float64) {
	n.Rotation[axis] += angle
	n.transformDirty = true
}

// SetScale sets the node's scale and marks it dirty.
func (n *Node) SetScale(x, y, z float64) {
	n.Scale = Vec3{x, y, z}
	n.transformDirty = true
}

// MarkDirty marks the node's transform as dirty, forcing recomputation
// on the next frame. Useful after bulk-setting fields directly.
func (n *Node) MarkDirty() {
	n.transformDirty = true
}

// LookAt rotates the node so that it faces target (world space). Cameras
// and lights point their -Z axis at the target; other nodes point +Z.
// No-op if the node sits on the target.
func (n *Node) LookAt(target Vec3) {
	eye := n.WorldPosition()
	if eye.Sub(target).Len() < 1e-12 {
		return
	}
	up := Vec3{0, 1, 0}
	dir := target.Sub(eye).Normalize()
	if math.Abs(dir.Dot(up)) > 1-1e-9 {
		up = Vec3{0, 0, 1}
	}

	var view Mat4
	if n.Type == NodeTypeCamera || n.Type == NodeTypeLight {
		view = mgl64.LookAtV(eye, target, up)
	} else {
		view = mgl64.LookAtV(target, eye, up)
	}
	rot := view.Mat3().Transpose()

	if n.Parent != nil {
		rot = worldRotation(n.Parent.WorldTransform()).Transpose().Mul3(rot)
	}
	n.Rotation = eulerFromMatrix(rot)
	n.transformDirty = true
}

// worldRotation strips scale from the upper 3x3 of m.
func worldRotation(m Mat4) mgl64.Mat3 {
	var cols [3]Vec3
	for i := range cols {
		c := m.Col(i).Vec3()
		if l := c.Len(); l > 1e-12 {
			c = c.Mul(1 / l)
		}
		cols[i] = c
	}
	return mgl64.Mat3FromCols(cols[0], cols[1], cols[2])
}

// --- Coordinate conversion ---

// LocalToWorld converts a local-space point to world space.
func (n *Node) LocalToWorld(p Vec3) Vec3 {
	return mgl64.TransformCoordinate(p, n.WorldTransform())
}

// WorldToLocal converts a world-space point to this node's local space.
// Returns p unchanged if the world matrix is singular.
func (n *Node) WorldToLocal(p Vec3) Vec3 {
	m := n.WorldTransform()
	if math.Abs(m.Det()) < 1e-18 {
		return p
	}
	return mgl64.TransformCoordinate(p, m.Inv())
}
