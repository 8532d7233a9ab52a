package fanscene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertNearEps(t *testing.T, name string, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Errorf("%s = %v, want %v (eps %g)", name, got, want, eps)
	}
}

func assertVec3(t *testing.T, name string, got, want Vec3) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, want)
			return
		}
	}
}

func assertMatrix(t *testing.T, name string, got, want Mat4) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
			return
		}
	}
}

// --- computeLocalTransform ---

func TestLocalTransformIdentity(t *testing.T) {
	n := NewGroup("test")
	assertMatrix(t, "identity", computeLocalTransform(n), mgl64.Ident4())
}

func TestLocalTransformTranslation(t *testing.T) {
	n := NewGroup("test")
	n.SetPosition(10, 20, 30)
	assertMatrix(t, "translation", computeLocalTransform(n), mgl64.Translate3D(10, 20, 30))
}

func TestLocalTransformScale(t *testing.T) {
	n := NewGroup("test")
	n.SetScale(2, 3, 4)
	assertMatrix(t, "scale", computeLocalTransform(n), mgl64.Scale3D(2, 3, 4))
}

func TestLocalTransformRotationZ90(t *testing.T) {
	n := NewGroup("test")
	n.SetRotation(0, 0, math.Pi/2)
	got := computeLocalTransform(n)
	// +X maps to +Y.
	assertVec3(t, "x axis", mgl64.TransformNormal(Vec3{1, 0, 0}, got), Vec3{0, 1, 0})
}

func TestLocalTransformOrderTRS(t *testing.T) {
	n := NewGroup("test")
	n.SetPosition(1, 0, 0)
	n.SetRotation(0, 0, math.Pi/2)
	n.SetScale(2, 2, 2)
	// Scale first, then rotate, then translate.
	got := mgl64.TransformCoordinate(Vec3{1, 0, 0}, computeLocalTransform(n))
	assertVec3(t, "point", got, Vec3{1, 2, 0})
}

// --- Euler conventions ---

func TestEulerXYZOrder(t *testing.T) {
	e := Vec3{0.3, -0.7, 1.1}
	want := mgl64.HomogRotate3DX(e[0]).Mul4(mgl64.HomogRotate3DY(e[1])).Mul4(mgl64.HomogRotate3DZ(e[2]))
	assertMatrix(t, "euler", eulerMatrix(e), want)
}

func TestEulerQuatMatchesMatrix(t *testing.T) {
	e := Vec3{0.1, -0.4, 2.5}
	assertMatrix(t, "quat", eulerQuat(e).Mat4(), eulerMatrix(e))
}

func TestEulerFromMatrixRoundTrip(t *testing.T) {
	cases := []Vec3{
		{0, 0, 0},
		{0.1, -0.4, 0},
		{-1.2, 0.5, 2.9},
		{3, -1.5, -0.2},
	}
	for _, e := range cases {
		back := eulerFromMatrix(eulerMatrix(e).Mat3())
		// Angles may differ, rotations must not.
		assertMatrix(t, "round trip", eulerMatrix(back), eulerMatrix(e))
	}
}

func TestEulerFromMatrixGimbalLock(t *testing.T) {
	e := Vec3{0.3, math.Pi / 2, 0.2}
	back := eulerFromMatrix(eulerMatrix(e).Mat3())
	assertNear(t, "z", back[2], 0)
	assertMatrix(t, "rotation", eulerMatrix(back), eulerMatrix(e))
}

// --- World transforms ---

func TestWorldTransformComposes(t *testing.T) {
	parent := NewGroup("parent")
	parent.SetPosition(0, 5, 0)
	parent.SetRotation(0, 0, math.Pi/2)
	child := NewGroup("child")
	child.SetPosition(1, 0, 0)
	parent.AddChild(child)

	want := computeLocalTransform(parent).Mul4(computeLocalTransform(child))
	assertMatrix(t, "world", child.WorldTransform(), want)
	assertVec3(t, "world position", child.WorldPosition(), Vec3{0, 6, 0})
}

func TestWorldTransformIgnoresStaleCache(t *testing.T) {
	s := NewScene()
	n := s.CreateNode(nil, "n", IdentityTransform())
	s.Update()
	n.Position[0] = 4 // direct write without MarkDirty
	assertVec3(t, "world position", n.WorldPosition(), Vec3{4, 0, 0})
}

func TestUpdateWorldTransformCachesAndPropagates(t *testing.T) {
	s := NewScene()
	parent := s.CreateNode(nil, "parent", Transform{Position: Vec3{1, 0, 0}, Scale: Vec3{1, 1, 1}})
	child := s.CreateNode(parent, "child", Transform{Position: Vec3{0, 2, 0}, Scale: Vec3{1, 1, 1}})
	s.Update()
	assertMatrix(t, "cached", child.worldTransform, mgl64.Translate3D(1, 2, 0))

	parent.SetPosition(5, 0, 0)
	s.Update()
	assertMatrix(t, "after parent move", child.worldTransform, mgl64.Translate3D(5, 2, 0))
}

func TestSetLocalTransformRoundTrip(t *testing.T) {
	n := NewGroup("n")
	tr := Transform{Position: Vec3{1, 2, 3}, Rotation: Vec3{0.1, 0.2, 0.3}, Scale: Vec3{2, 2, 2}}
	n.SetLocalTransform(tr)
	if n.LocalTransform() != tr {
		t.Errorf("LocalTransform = %+v, want %+v", n.LocalTransform(), tr)
	}
	if !n.transformDirty {
		t.Error("SetLocalTransform should mark dirty")
	}
}

func TestRotateOnAxis(t *testing.T) {
	n := NewGroup("n")
	n.RotateOnAxis(AxisZ, -0.15)
	n.RotateOnAxis(AxisZ, -0.15)
	assertNear(t, "z", n.Rotation[2], -0.3)
}

// --- LookAt ---

func TestCameraLookAtOrigin(t *testing.T) {
	cam := NewCameraNode("cam", NewPerspectiveCamera(45, 1, 0.1, 100))
	cam.SetPosition(3, 4, 10)
	cam.LookAt(Vec3{})

	// The camera looks down its local -Z.
	forward := mgl64.TransformNormal(Vec3{0, 0, -1}, cam.WorldTransform())
	want := Vec3{-3, -4, -10}.Normalize()
	assertVec3(t, "forward", forward, want)

	// The view matrix maps the origin onto the -Z axis.
	o := mgl64.TransformCoordinate(Vec3{}, cam.WorldTransform().Inv())
	assertNearEps(t, "view x", o[0], 0, 1e-9)
	assertNearEps(t, "view y", o[1], 0, 1e-9)
	if o[2] >= 0 {
		t.Errorf("origin in view space z = %v, want negative", o[2])
	}
}

func TestMeshLookAtPointsPlusZ(t *testing.T) {
	n := NewGroup("n")
	n.SetPosition(0, 0, -5)
	n.LookAt(Vec3{5, 0, -5})
	fwd := mgl64.TransformNormal(Vec3{0, 0, 1}, n.WorldTransform())
	assertVec3(t, "forward", fwd, Vec3{1, 0, 0})
}

func TestLookAtUnderRotatedParent(t *testing.T) {
	parent := NewGroup("parent")
	parent.SetRotation(0, math.Pi/3, 0.2)
	parent.SetPosition(1, 1, 1)
	cam := NewCameraNode("cam", NewPerspectiveCamera(45, 1, 0.1, 100))
	cam.SetPosition(0, 0, 5)
	parent.AddChild(cam)
	cam.LookAt(Vec3{})

	eye := cam.WorldPosition()
	forward := mgl64.TransformNormal(Vec3{0, 0, -1}, cam.WorldTransform())
	assertVec3(t, "forward", forward, eye.Mul(-1).Normalize())
}

func TestLookAtStraightDown(t *testing.T) {
	cam := NewCameraNode("cam", NewPerspectiveCamera(45, 1, 0.1, 100))
	cam.SetPosition(0, 10, 0)
	cam.LookAt(Vec3{})
	forward := mgl64.TransformNormal(Vec3{0, 0, -1}, cam.WorldTransform())
	assertVec3(t, "forward", forward, Vec3{0, -1, 0})
}

func TestLookAtOnTargetNoOp(t *testing.T) {
	n := NewGroup("n")
	n.SetRotation(0.1, 0.2, 0.3)
	n.LookAt(Vec3{})
	assertVec3(t, "rotation", n.Rotation, Vec3{0.1, 0.2, 0.3})
}

// --- Coordinate conversion ---

func TestLocalWorldRoundTrip(t *testing.T) {
	parent := NewGroup("parent")
	parent.SetPosition(3, -2, 1)
	parent.SetRotation(0.4, 0.5, 0.6)
	parent.SetScale(2, 2, 2)
	child := NewGroup("child")
	child.SetPosition(1, 1, 1)
	parent.AddChild(child)

	p := Vec3{0.5, -1, 2}
	back := child.WorldToLocal(child.LocalToWorld(p))
	assertVec3(t, "round trip", back, p)
}

func TestWorldToLocalSingular(t *testing.T) {
	n := NewGroup("n")
	n.SetScale(0, 1, 1)
	p := Vec3{1, 2, 3}
	assertVec3(t, "singular", n.WorldToLocal(p), p)
}

func TestNormalMatrixNonUniformScale(t *testing.T) {
	m := mgl64.Scale3D(2, 1, 1)
	nm := normalMatrix(m)
	// The normal of the plane x = y stretched along X must stay perpendicular.
	n := nm.Mul3x1(Vec3{1, -1, 0}).Normalize()
	tangent := m.Mat3().Mul3x1(Vec3{1, 1, 0})
	assertNear(t, "dot", n.Dot(tangent), 0)
}
