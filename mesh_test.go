package fanscene

import (
	"math"
	"testing"
)

func TestNewStandardMaterialDefaults(t *testing.T) {
	m := NewStandardMaterial("frame", ColorHex(0x1c1c20), 0.4, 0.8)
	if m.Transparent || m.Blending != BlendNormal {
		t.Error("standard material should be opaque with normal blending")
	}
	assertNear(t, "opacity", m.opacity(), 1)
	assertNear(t, "emissive intensity", m.EmissiveIntensity, 1)
	if m.emission() != (Color{}) {
		t.Errorf("emission = %v, want black", m.emission())
	}
	if err := m.check(); err != nil {
		t.Errorf("check: %v", err)
	}
}

func TestNewPointsMaterialDefaults(t *testing.T) {
	m := NewPointsMaterial("particles", ColorHex(0x88aaff), 2, 0.6)
	if !m.Transparent || m.Blending != BlendAdditive {
		t.Error("points material should be transparent and additive")
	}
	assertNear(t, "opacity", m.opacity(), 0.6)
	assertNear(t, "size", m.PointSize, 2)
}

func TestMaterialEmission(t *testing.T) {
	m := NewStandardMaterial("sticker", ColorWhite, 0.3, 0)
	m.Emissive = Color{0.2, 0.4, 1}
	m.EmissiveIntensity = 1.5
	e := m.emission()
	assertNear(t, "r", e.R, 0.3)
	assertNear(t, "b", e.B, 1.5)
}

func TestMaterialOpacityClamped(t *testing.T) {
	m := NewStandardMaterial("m", ColorWhite, 0.5, 0)
	m.Opacity = 0.3
	assertNear(t, "opaque ignores opacity", m.opacity(), 1)
	m.Transparent = true
	assertNear(t, "transparent", m.opacity(), 0.3)
	m.Opacity = 4
	assertNear(t, "clamped", m.opacity(), 1)
}

func TestMaterialCheckRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Material)
	}{
		{"NaN color", func(m *Material) { m.Color.R = math.NaN() }},
		{"roughness", func(m *Material) { m.Roughness = 1.5 }},
		{"metalness", func(m *Material) { m.Metalness = -0.1 }},
		{"emissive intensity", func(m *Material) { m.EmissiveIntensity = math.Inf(1) }},
		{"opacity", func(m *Material) { m.Transparent, m.Opacity = true, 2 }},
		{"blending", func(m *Material) { m.Blending = 7 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStandardMaterial("m", ColorWhite, 0.5, 0.5)
			tt.mutate(m)
			if err := m.check(); err == nil {
				t.Error("check should fail")
			}
		})
	}
}

func TestNewMeshSharesPayload(t *testing.T) {
	g := mustBuild(t, Disc{Radius: 1, Segments: 8})
	mat := NewStandardMaterial("m", ColorWhite, 0.5, 0)
	a := NewMesh(g, mat)
	b := NewMesh(g, mat)
	if a.Geometry != b.Geometry || a.Material != b.Material {
		t.Error("meshes should share geometry and material by reference")
	}
}
