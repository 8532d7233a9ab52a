package fanscene

import (
	"fmt"
)

// Material is a shading parameter set shared by any number of meshes.
// The renderer only reads it.
type Material struct {
	Name string

	Color     Color
	Roughness float64
	Metalness float64

	Emissive          Color
	EmissiveIntensity float64

	Transparent bool
	Opacity     float64
	Blending    BlendMode
	DoubleSided bool

	// PointSize is the fixed screen-space point size in pixels, used when
	// the material is attached to a point-cloud geometry.
	PointSize float64
}

// NewStandardMaterial creates an opaque lit material.
func NewStandardMaterial(name string, color Color, roughness, metalness float64) *Material {
	return &Material{
		Name:              name,
		Color:             color,
		Roughness:         roughness,
		Metalness:         metalness,
		EmissiveIntensity: 1,
		Opacity:           1,
		DoubleSided:       true,
	}
}

// NewPointsMaterial creates an additive, transparent material for point
// clouds with a fixed pixel size.
func NewPointsMaterial(name string, color Color, size, opacity float64) *Material {
	return &Material{
		Name:              name,
		Color:             color,
		Roughness:         1,
		EmissiveIntensity: 1,
		Transparent:       true,
		Opacity:           opacity,
		Blending:          BlendAdditive,
		DoubleSided:       true,
		PointSize:         size,
	}
}

// emission returns the emissive contribution added to every fragment.
func (m *Material) emission() Color {
	return m.Emissive.Scale(m.EmissiveIntensity)
}

// opacity returns the effective opacity, 1 for opaque materials.
func (m *Material) opacity() float64 {
	if !m.Transparent {
		return 1
	}
	return clamp01(m.Opacity)
}

// check reports material values that cannot be represented in an exported
// document.
func (m *Material) check() error {
	switch {
	case !m.Color.finite() || !m.Emissive.finite():
		return fmt.Errorf("material %q: non-finite color", m.Name)
	case !isFinite(m.Roughness) || m.Roughness < 0 || m.Roughness > 1:
		return fmt.Errorf("material %q: roughness %v outside [0, 1]", m.Name, m.Roughness)
	case !isFinite(m.Metalness) || m.Metalness < 0 || m.Metalness > 1:
		return fmt.Errorf("material %q: metalness %v outside [0, 1]", m.Name, m.Metalness)
	case !isFinite(m.EmissiveIntensity) || m.EmissiveIntensity < 0:
		return fmt.Errorf("material %q: unsupported emissive intensity %v", m.Name, m.EmissiveIntensity)
	case m.Transparent && (!isFinite(m.Opacity) || m.Opacity < 0 || m.Opacity > 1):
		return fmt.Errorf("material %q: opacity %v outside [0, 1]", m.Name, m.Opacity)
	case m.Blending != BlendNormal && m.Blending != BlendAdditive:
		return fmt.Errorf("material %q: unsupported blending mode %d", m.Name, m.Blending)
	}
	return nil
}

// Mesh pairs a shared Geometry with a shared Material.
type Mesh struct {
	Geometry *Geometry
	Material *Material
}

// NewMesh creates a mesh payload.
func NewMesh(g *Geometry, m *Material) *Mesh {
	return &Mesh{Geometry: g, Material: m}
}
