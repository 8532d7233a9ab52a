package fanscene

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func testFanScene(t *testing.T) *FanScene {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Particles.Seed = 42
	fs, err := NewFanScene(cfg)
	if err != nil {
		t.Fatalf("NewFanScene: %v", err)
	}
	return fs
}

func TestFanSceneStructure(t *testing.T) {
	fs := testFanScene(t)
	fan := fs.Fan

	if len(fan.BladeNodes) != 9 {
		t.Fatalf("blades = %d, want 9", len(fan.BladeNodes))
	}
	for i, b := range fan.BladeNodes {
		if want := fmt.Sprintf("blade-%d", i); b.Name != want {
			t.Errorf("blade %d name = %q, want %q", i, b.Name, want)
		}
		if b.Parent != fan.Blades {
			t.Errorf("blade %d parent = %v, want blades group", i, b.Parent.Name)
		}
	}
	if len(fan.Struts) != 4 {
		t.Errorf("struts = %d, want 4", len(fan.Struts))
	}
	if fan.Hub.Parent != fan.Blades || fan.Sticker.Parent != fan.Blades {
		t.Error("hub and sticker should spin with the blades")
	}
	if fan.Body.Parent != fan.Frame || fan.Blades.Parent != fan.Frame {
		t.Error("body and blades should hang under the frame")
	}
	if fan.Frame.Parent != fs.Root() {
		t.Error("frame should hang under the root")
	}
	for _, name := range []string{"camera", "ambient-light", "key-light", "fill-light", "frame", "frame-body", "blades", "hub", "sticker", "particles", "particle-cloud"} {
		if fs.Root().FindChild(name) == nil {
			t.Errorf("FindChild(%q) = nil", name)
		}
	}
	if fs.Camera() == nil || fs.Camera().Name != "camera" {
		t.Error("the scene camera should be active")
	}
	if len(fs.Lights) != 3 {
		t.Errorf("lights = %d, want 3", len(fs.Lights))
	}
}

func TestFanScenePose(t *testing.T) {
	fs := testFanScene(t)
	assertVec3(t, "frame position", fs.Fan.Frame.Position, Vec3{3, -0.5, -2})
	assertVec3(t, "frame rotation", fs.Fan.Frame.Rotation, Vec3{0.1, -0.4, 0})
	assertVec3(t, "camera position", fs.Camera().Position, Vec3{0, 0, 10})
	assertVec3(t, "particles", fs.Particles.Group.Position, Vec3{0, 0, -5})
}

func TestFanBladeOrientation(t *testing.T) {
	fs := testFanScene(t)
	tilt := DefaultConfig().Fan.BladeTilt
	for i, b := range fs.Fan.BladeNodes {
		angle := float64(i) / 9 * 2 * math.Pi
		want := mgl64.Rotate3DZ(angle).Mul3(mgl64.Rotate3DX(tilt)).Mat4()
		assertMatrix(t, fmt.Sprintf("blade %d", i), eulerMatrix(b.Rotation), want)
	}
}

func TestFanBladesShareGeometry(t *testing.T) {
	fs := testFanScene(t)
	first := fs.Fan.BladeNodes[0].Mesh
	for _, b := range fs.Fan.BladeNodes[1:] {
		if b.Mesh.Geometry != first.Geometry || b.Mesh.Material != first.Material {
			t.Fatal("blades should share geometry and material")
		}
	}
	if fs.Fan.Struts[0].Mesh.Material != fs.Fan.Body.Mesh.Material {
		t.Error("struts should share the frame material")
	}
}

func TestFanStickerEmissive(t *testing.T) {
	fs := testFanScene(t)
	m := fs.Fan.Sticker.Mesh.Material
	if m.Emissive == ColorBlack {
		t.Error("sticker should glow")
	}
	assertNear(t, "emissive intensity", m.EmissiveIntensity, 1.5)
	assertNearEps(t, "sticker z", fs.Fan.Sticker.Position[2], 0.36, 1e-12)
}

func TestFanSceneWorldTransformsCached(t *testing.T) {
	fs := testFanScene(t)
	// NewFanScene runs Update, so caches are clean.
	if fs.Fan.BladeNodes[3].transformDirty {
		t.Error("blade transform should be clean after construction")
	}
	hub := fs.Fan.Hub.WorldPosition()
	assertVec3(t, "hub world", hub, Vec3{3, -0.5, -2})
}

func TestNewFanSceneInvalidGeometry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fan.HubSegments = 2
	if _, err := NewFanScene(cfg); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}

	cfg = DefaultConfig()
	cfg.Fan.BladeCount = 0
	_, err := NewFanScene(cfg)
	var pe *ParamError
	if !errors.As(err, &pe) || pe.Field != "blade count" {
		t.Errorf("err = %v, want blade count ParamError", err)
	}
}
