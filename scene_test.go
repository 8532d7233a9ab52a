package fanscene

import (
	"testing"
)

func TestNewSceneRoot(t *testing.T) {
	s := NewScene()
	if s.Root() == nil || s.Root().Name != "root" || s.Root().Type != NodeTypeGroup {
		t.Fatalf("root = %+v", s.Root())
	}
	if s.Camera() != nil {
		t.Error("new scene should have no camera")
	}
	if s.NodeCount() != 1 || s.MaxDepth() != 0 {
		t.Errorf("NodeCount/MaxDepth = %d/%d, want 1/0", s.NodeCount(), s.MaxDepth())
	}
}

func TestCreateNode(t *testing.T) {
	s := NewScene()
	tr := Transform{Position: Vec3{1, 2, 3}, Rotation: Vec3{0, 0.5, 0}, Scale: Vec3{1, 1, 1}}
	a := s.CreateNode(nil, "a", tr)
	b := s.CreateNode(a, "b", IdentityTransform())

	if a.Parent != s.Root() || b.Parent != a {
		t.Error("CreateNode should attach under parent, root when nil")
	}
	if a.LocalTransform() != tr {
		t.Errorf("transform = %+v, want %+v", a.LocalTransform(), tr)
	}
	if s.NodeCount() != 3 || s.MaxDepth() != 2 {
		t.Errorf("NodeCount/MaxDepth = %d/%d, want 3/2", s.NodeCount(), s.MaxDepth())
	}
}

func TestSetCameraRequiresPayload(t *testing.T) {
	s := NewScene()
	cam := NewCameraNode("cam", NewPerspectiveCamera(45, 1, 0.1, 100))
	s.Root().AddChild(cam)
	s.SetCamera(cam)
	if s.Camera() != cam {
		t.Error("Camera() should return the active camera")
	}
	s.SetCamera(nil)
	if s.Camera() != nil {
		t.Error("SetCamera(nil) should clear the camera")
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for a group used as camera")
		}
	}()
	s.SetCamera(NewGroup("not a camera"))
}

func TestAddLights(t *testing.T) {
	s := NewScene()
	amb := s.AddAmbientLight("ambient", ColorWhite, 0.4)
	key := s.AddDirectionalLight("key", ColorWhite, 1.2, Vec3{5, 5, 5})
	if amb.Light.Kind != LightAmbient || key.Light.Kind != LightDirectional {
		t.Error("light kinds not set")
	}
	assertVec3(t, "key position", key.Position, Vec3{5, 5, 5})
	// The key light's +Z axis points back at its own position from the origin.
	z := key.WorldTransform().Col(2).Vec3()
	assertVec3(t, "key +z", z, Vec3{1, 1, 1}.Normalize())
}

func TestSceneWalkVisitsAll(t *testing.T) {
	s := NewScene()
	a := s.CreateNode(nil, "a", IdentityTransform())
	s.CreateNode(a, "a1", IdentityTransform())
	s.CreateNode(nil, "b", IdentityTransform())

	count := 0
	s.Walk(func(*Node) bool {
		count++
		return true
	})
	if count != s.NodeCount() || count != 4 {
		t.Errorf("walk visited %d, NodeCount %d, want 4", count, s.NodeCount())
	}
}

func TestSceneUpdateClearsDirty(t *testing.T) {
	s := NewScene()
	a := s.CreateNode(nil, "a", IdentityTransform())
	s.Update()
	if a.transformDirty || s.Root().transformDirty {
		t.Error("Update should clear every dirty flag")
	}
}
