package fanscene

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidParameter is returned (wrapped in a *ParamError) when a shape
// is built from a non-positive dimension, segment count or point count.
var ErrInvalidParameter = errors.New("fanscene: invalid parameter")

// ParamError describes the offending shape parameter.
type ParamError struct {
	Shape string
	Field string
	Value float64
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("fanscene: invalid %s %s: %v", e.Shape, e.Field, e.Value)
}

// Unwrap reports ErrInvalidParameter so callers can use errors.Is.
func (e *ParamError) Unwrap() error { return ErrInvalidParameter }

func requirePositive(shape, field string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return &ParamError{Shape: shape, Field: field, Value: v}
	}
	return nil
}

func requireNonNegative(shape, field string, v float64) error {
	if !(v >= 0) || math.IsInf(v, 0) {
		return &ParamError{Shape: shape, Field: field, Value: v}
	}
	return nil
}

// Primitive is the topology of a Geometry's vertex stream.
type Primitive uint8

const (
	PrimitiveTriangles Primitive = iota // indexed triangle list
	PrimitivePoints                     // unconnected points, no indices
)

// Geometry is an immutable vertex buffer (positions, optional normals) with
// an optional index buffer. Geometries are shared by reference between
// meshes; nothing mutates them after Build returns.
type Geometry struct {
	primitive Primitive
	positions []float32
	normals   []float32
	indices   []uint32
	min, max  Vec3
}

// Primitive returns the vertex topology.
func (g *Geometry) Primitive() Primitive { return g.primitive }

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int { return len(g.positions) / 3 }

// IndexCount returns the number of indices (0 for point clouds).
func (g *Geometry) IndexCount() int { return len(g.indices) }

// HasNormals reports whether the geometry carries per-vertex normals.
func (g *Geometry) HasNormals() bool { return len(g.normals) > 0 }

// Positions returns the packed xyz positions. The returned slice MUST NOT be mutated.
func (g *Geometry) Positions() []float32 { return g.positions }

// Normals returns the packed xyz normals, or nil. The returned slice MUST NOT be mutated.
func (g *Geometry) Normals() []float32 { return g.normals }

// Indices returns the triangle indices, or nil. The returned slice MUST NOT be mutated.
func (g *Geometry) Indices() []uint32 { return g.indices }

// Position returns vertex i's position.
func (g *Geometry) Position(i int) Vec3 {
	return Vec3{float64(g.positions[i*3]), float64(g.positions[i*3+1]), float64(g.positions[i*3+2])}
}

// Normal returns vertex i's normal. Panics if the geometry has no normals.
func (g *Geometry) Normal(i int) Vec3 {
	return Vec3{float64(g.normals[i*3]), float64(g.normals[i*3+1]), float64(g.normals[i*3+2])}
}

// Bounds returns the axis-aligned bounding box of all positions.
func (g *Geometry) Bounds() (lo, hi Vec3) { return g.min, g.max }

// --- Shapes ---

// Shape is one of ExtrudedProfile, Cylinder, Box, Disc or PointCloud.
type Shape interface {
	shapeName() string
}

// ExtrudedProfile extrudes a closed 2D outline (with optional holes) along
// +Z by Depth, with an optional bevel. The built solid is re-centered on its
// bounding-box centroid.
type ExtrudedProfile struct {
	Outline        []Vec2
	Holes          [][]Vec2
	Depth          float64
	BevelThickness float64
	BevelSize      float64
	BevelSegments  int
}

// Cylinder is a capped cylinder along Y, optionally pre-rotated about an axis.
type Cylinder struct {
	Radius         float64
	Height         float64
	RadialSegments int
	RotateAxis     Axis
	RotateAngle    float64 // radians; zero means no pre-rotation
}

// Box is an axis-aligned box centered at the origin, optionally
// pre-translated along one axis.
type Box struct {
	Width, Height, Depth float64
	OffsetAxis           Axis
	Offset               float64
}

// Disc is a flat circle in the XY plane facing +Z.
type Disc struct {
	Radius   float64
	Segments int
}

// PointCloud samples Count points uniformly inside [-HalfExtents, +HalfExtents].
// A zero Seed draws a seed from the global source; any other value is deterministic.
type PointCloud struct {
	Count       int
	HalfExtents Vec3
	Seed        uint64
}

func (ExtrudedProfile) shapeName() string { return "extrude" }
func (Cylinder) shapeName() string        { return "cylinder" }
func (Box) shapeName() string             { return "box" }
func (Disc) shapeName() string            { return "disc" }
func (PointCloud) shapeName() string      { return "points" }

// Build produces the immutable Geometry for a shape. Invalid parameters
// return an error wrapping ErrInvalidParameter and no geometry.
func Build(s Shape) (*Geometry, error) {
	switch v := s.(type) {
	case ExtrudedProfile:
		return buildExtrude(v)
	case *ExtrudedProfile:
		return buildExtrude(*v)
	case Cylinder:
		return buildCylinder(v)
	case *Cylinder:
		return buildCylinder(*v)
	case Box:
		return buildBox(v)
	case *Box:
		return buildBox(*v)
	case Disc:
		return buildDisc(v)
	case *Disc:
		return buildDisc(*v)
	case PointCloud:
		return buildPointCloud(v)
	case *PointCloud:
		return buildPointCloud(*v)
	case nil:
		return nil, fmt.Errorf("%w: nil shape", ErrInvalidParameter)
	default:
		return nil, fmt.Errorf("%w: unknown shape %T", ErrInvalidParameter, s)
	}
}

// --- Builder ---

// geometryBuilder accumulates vertices and indices before freezing them
// into a Geometry.
type geometryBuilder struct {
	positions []float32
	normals   []float32
	indices   []uint32
}

func newGeometryBuilder(vertexCap, indexCap int) *geometryBuilder {
	return &geometryBuilder{
		positions: make([]float32, 0, vertexCap*3),
		normals:   make([]float32, 0, vertexCap*3),
		indices:   make([]uint32, 0, indexCap),
	}
}

func (b *geometryBuilder) vertex(p, n Vec3) uint32 {
	idx := uint32(len(b.positions) / 3)
	b.positions = append(b.positions, float32(p[0]), float32(p[1]), float32(p[2]))
	b.normals = append(b.normals, float32(n[0]), float32(n[1]), float32(n[2]))
	return idx
}

func (b *geometryBuilder) tri(a, c, d uint32) {
	b.indices = append(b.indices, a, c, d)
}

// transform applies m to positions and its rotation part to normals.
func (b *geometryBuilder) transform(m Mat4) {
	nm := m.Mat3().Inv().Transpose()
	for i := 0; i < len(b.positions); i += 3 {
		p := m.Mul4x1(mgl64.Vec4{float64(b.positions[i]), float64(b.positions[i+1]), float64(b.positions[i+2]), 1})
		b.positions[i], b.positions[i+1], b.positions[i+2] = float32(p[0]), float32(p[1]), float32(p[2])
		if len(b.normals) > i {
			n := nm.Mul3x1(Vec3{float64(b.normals[i]), float64(b.normals[i+1]), float64(b.normals[i+2])}).Normalize()
			b.normals[i], b.normals[i+1], b.normals[i+2] = float32(n[0]), float32(n[1]), float32(n[2])
		}
	}
}

func (b *geometryBuilder) build(p Primitive) *Geometry {
	g := &Geometry{primitive: p, positions: b.positions, indices: b.indices}
	if len(b.normals) > 0 {
		g.normals = b.normals
	}
	if len(g.indices) == 0 {
		g.indices = nil
	}
	g.min, g.max = positionBounds(g.positions)
	return g
}

func positionBounds(pos []float32) (lo, hi Vec3) {
	if len(pos) < 3 {
		return Vec3{}, Vec3{}
	}
	lo = Vec3{float64(pos[0]), float64(pos[1]), float64(pos[2])}
	hi = lo
	for i := 3; i < len(pos); i += 3 {
		for k := 0; k < 3; k++ {
			v := float64(pos[i+k])
			if v < lo[k] {
				lo[k] = v
			}
			if v > hi[k] {
				hi[k] = v
			}
		}
	}
	return lo, hi
}

// --- Cylinder ---

// buildCylinder emits 2n side vertices (one top and one bottom per radial
// segment, no seam duplicate) plus a center and n rim vertices per cap:
// 4n+2 vertices and 12n indices.
func buildCylinder(c Cylinder) (*Geometry, error) {
	if err := requirePositive("cylinder", "radius", c.Radius); err != nil {
		return nil, err
	}
	if err := requirePositive("cylinder", "height", c.Height); err != nil {
		return nil, err
	}
	n := c.RadialSegments
	if n < 3 {
		return nil, &ParamError{Shape: "cylinder", Field: "radial segments", Value: float64(n)}
	}

	b := newGeometryBuilder(4*n+2, 12*n)
	hh := c.Height / 2

	for i := 0; i < n; i++ {
		sin, cos := math.Sincos(float64(i) / float64(n) * 2 * math.Pi)
		normal := Vec3{sin, 0, cos}
		b.vertex(Vec3{c.Radius * sin, hh, c.Radius * cos}, normal)
		b.vertex(Vec3{c.Radius * sin, -hh, c.Radius * cos}, normal)
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		top, bot := uint32(2*i), uint32(2*i+1)
		nextTop, nextBot := uint32(2*j), uint32(2*j+1)
		b.tri(top, bot, nextTop)
		b.tri(bot, nextBot, nextTop)
	}

	for _, sign := range [2]float64{1, -1} {
		normal := Vec3{0, sign, 0}
		center := b.vertex(Vec3{0, hh * sign, 0}, normal)
		for i := 0; i < n; i++ {
			sin, cos := math.Sincos(float64(i) / float64(n) * 2 * math.Pi)
			b.vertex(Vec3{c.Radius * sin, hh * sign, c.Radius * cos}, normal)
		}
		for i := 0; i < n; i++ {
			a := center + 1 + uint32(i)
			d := center + 1 + uint32((i+1)%n)
			if sign > 0 {
				b.tri(center, a, d)
			} else {
				b.tri(center, d, a)
			}
		}
	}

	if c.RotateAngle != 0 {
		b.transform(mgl64.HomogRotate3D(c.RotateAngle, c.RotateAxis.unit()))
	}
	return b.build(PrimitiveTriangles), nil
}

// --- Box ---

// boxFaces lists each face normal with tangents u, v such that u x v = n.
var boxFaces = [6][3]Vec3{
	{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
}

// buildBox emits four vertices per face (flat normals): 24 vertices, 36 indices.
func buildBox(bx Box) (*Geometry, error) {
	if err := requirePositive("box", "width", bx.Width); err != nil {
		return nil, err
	}
	if err := requirePositive("box", "height", bx.Height); err != nil {
		return nil, err
	}
	if err := requirePositive("box", "depth", bx.Depth); err != nil {
		return nil, err
	}

	half := Vec3{bx.Width / 2, bx.Height / 2, bx.Depth / 2}
	offset := bx.OffsetAxis.unit().Mul(bx.Offset)
	corners := [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	b := newGeometryBuilder(24, 36)
	for _, f := range boxFaces {
		n, u, v := f[0], f[1], f[2]
		base := uint32(len(b.positions) / 3)
		for _, st := range corners {
			p := mulComp(n, half).Add(mulComp(u, half).Mul(st[0])).Add(mulComp(v, half).Mul(st[1]))
			b.vertex(p.Add(offset), n)
		}
		b.tri(base, base+1, base+2)
		b.tri(base, base+2, base+3)
	}
	return b.build(PrimitiveTriangles), nil
}

func mulComp(a, b Vec3) Vec3 {
	return Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// --- Disc ---

// buildDisc emits a center plus n rim vertices: n+1 vertices, 3n indices.
func buildDisc(d Disc) (*Geometry, error) {
	if err := requirePositive("disc", "radius", d.Radius); err != nil {
		return nil, err
	}
	n := d.Segments
	if n < 3 {
		return nil, &ParamError{Shape: "disc", Field: "segments", Value: float64(n)}
	}

	normal := Vec3{0, 0, 1}
	b := newGeometryBuilder(n+1, 3*n)
	center := b.vertex(Vec3{}, normal)
	for i := 0; i < n; i++ {
		sin, cos := math.Sincos(float64(i) / float64(n) * 2 * math.Pi)
		b.vertex(Vec3{d.Radius * cos, d.Radius * sin, 0}, normal)
	}
	for i := 0; i < n; i++ {
		b.tri(center, center+1+uint32(i), center+1+uint32((i+1)%n))
	}
	return b.build(PrimitiveTriangles), nil
}

// --- Point cloud ---

func buildPointCloud(pc PointCloud) (*Geometry, error) {
	if pc.Count < 0 {
		return nil, &ParamError{Shape: "points", Field: "count", Value: float64(pc.Count)}
	}
	for k, name := range [3]string{"half extent x", "half extent y", "half extent z"} {
		if err := requirePositive("points", name, pc.HalfExtents[k]); err != nil {
			return nil, err
		}
	}

	seed := pc.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	pos := make([]float32, 0, pc.Count*3)
	for i := 0; i < pc.Count; i++ {
		for k := 0; k < 3; k++ {
			pos = append(pos, float32((rng.Float64()*2-1)*pc.HalfExtents[k]))
		}
	}
	g := &Geometry{primitive: PrimitivePoints, positions: pos}
	g.min, g.max = positionBounds(pos)
	return g, nil
}

// --- Path helpers ---

// SquarePath returns a counter-clockwise square outline of the given side,
// centered at the origin.
func SquarePath(side float64) []Vec2 {
	h := side / 2
	return []Vec2{{-h, -h}, {h, -h}, {h, h}, {-h, h}}
}

// CirclePath returns a counter-clockwise circle outline with the given
// number of segments, centered at the origin.
func CirclePath(radius float64, segments int) []Vec2 {
	pts := make([]Vec2, segments)
	for i := range pts {
		sin, cos := math.Sincos(float64(i) / float64(segments) * 2 * math.Pi)
		pts[i] = Vec2{radius * cos, radius * sin}
	}
	return pts
}
