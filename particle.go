package fanscene

import (
	"fmt"
)

// ParticleField is the ambient point cloud: a group node holding a single
// point mesh whose positions are sampled once at construction.
type ParticleField struct {
	Group *Node
	Cloud *Node
}

// Count returns the number of points in the field.
func (p *ParticleField) Count() int {
	return p.Cloud.Mesh.Geometry.VertexCount()
}

// newParticleField builds the field under parent from cfg.
func newParticleField(parent *Node, cfg ParticleConfig) (*ParticleField, error) {
	half := cfg.Spread / 2
	geom, err := Build(PointCloud{
		Count:       cfg.Count,
		HalfExtents: Vec3{half, half, half},
		Seed:        cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("particle cloud: %w", err)
	}
	mat := NewPointsMaterial("particles", ColorHex(cfg.Color), cfg.Size, cfg.Opacity)

	group := NewGroup("particles")
	group.SetPosition(cfg.Position[0], cfg.Position[1], cfg.Position[2])
	cloud := NewMeshNode("particle-cloud", NewMesh(geom, mat))
	group.AddChild(cloud)
	parent.AddChild(group)
	return &ParticleField{Group: group, Cloud: cloud}, nil
}
