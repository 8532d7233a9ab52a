package fanscene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// clipVertex is a vertex after the model and view-projection transforms.
type clipVertex struct {
	sx, sy, sz float64 // screen x, y and window depth in [0, 1]
	invW       float64
	world      Vec3
	normal     Vec3
	visible    bool // w above the near plane
}

// rasterStats counts primitives drawn in one scene pass.
type rasterStats struct {
	triangles int
	points    int
}

// rasterizer draws render commands into an HDR color buffer with a depth
// buffer. Triangles crossing the near plane are skipped rather than clipped.
type rasterizer struct {
	color *HDRBuffer
	depth *depthBuffer

	viewProj   Mat4
	eye        Vec3
	near       float64
	pixelRatio float64
	lights     *lightSet

	verts []clipVertex
	stats rasterStats
}

func (r *rasterizer) begin(viewProj Mat4, eye Vec3, near, pixelRatio float64, lights *lightSet) {
	r.viewProj = viewProj
	r.eye = eye
	r.near = near
	r.pixelRatio = pixelRatio
	r.lights = lights
	r.stats = rasterStats{}
}

// project transforms every vertex of cmd into r.verts.
func (r *rasterizer) project(cmd *RenderCommand) {
	g := cmd.Mesh.Geometry
	n := g.VertexCount()
	if cap(r.verts) < n {
		r.verts = make([]clipVertex, n)
	}
	r.verts = r.verts[:n]

	w, h := float64(r.color.Width), float64(r.color.Height)
	mvp := r.viewProj.Mul4(cmd.World)
	hasNormals := g.HasNormals()
	for i := range r.verts {
		p := g.Position(i)
		clip := mvp.Mul4x1(p.Vec4(1))
		v := &r.verts[i]
		v.visible = clip[3] >= r.near
		if !v.visible {
			continue
		}
		v.invW = 1 / clip[3]
		v.sx = (clip[0]*v.invW + 1) * 0.5 * w
		v.sy = (1 - clip[1]*v.invW) * 0.5 * h
		v.sz = (clip[2]*v.invW + 1) * 0.5
		v.world = mgl64.TransformCoordinate(p, cmd.World)
		if hasNormals {
			v.normal = cmd.Normal.Mul3x1(g.Normal(i))
		}
	}
}

// drawMesh rasterizes an indexed triangle command.
func (r *rasterizer) drawMesh(cmd *RenderCommand) {
	r.project(cmd)
	idx := cmd.Mesh.Geometry.Indices()
	for t := 0; t+2 < len(idx); t += 3 {
		r.drawTriangle(cmd.Mesh.Material, &r.verts[idx[t]], &r.verts[idx[t+1]], &r.verts[idx[t+2]], cmd.pass == passOpaque)
	}
}

func (r *rasterizer) drawTriangle(m *Material, v0, v1, v2 *clipVertex, writeDepth bool) {
	if !v0.visible || !v1.visible || !v2.visible {
		return
	}

	// Screen space is y-down, so counter-clockwise front faces have negative area.
	area := (v1.sx-v0.sx)*(v2.sy-v0.sy) - (v2.sx-v0.sx)*(v1.sy-v0.sy)
	if area == 0 || math.IsNaN(area) {
		return
	}
	frontFacing := area < 0
	if !frontFacing && !m.DoubleSided {
		return
	}

	minX := int(math.Max(0, math.Floor(min(v0.sx, v1.sx, v2.sx))))
	maxX := int(math.Min(float64(r.color.Width-1), math.Ceil(max(v0.sx, v1.sx, v2.sx))))
	minY := int(math.Max(0, math.Floor(min(v0.sy, v1.sy, v2.sy))))
	maxY := int(math.Min(float64(r.color.Height-1), math.Ceil(max(v0.sy, v1.sy, v2.sy))))
	if minX > maxX || minY > maxY {
		return
	}
	r.stats.triangles++

	invArea := 1 / area
	opacity := m.opacity()
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5

			// Barycentric weights from edge functions.
			b0 := ((v1.sx-px)*(v2.sy-py) - (v2.sx-px)*(v1.sy-py)) * invArea
			b1 := ((v2.sx-px)*(v0.sy-py) - (v0.sx-px)*(v2.sy-py)) * invArea
			b2 := 1 - b0 - b1
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*v0.sz + b1*v1.sz + b2*v2.sz
			di := y*r.depth.width + x
			if z < 0 || z >= float64(r.depth.z[di]) {
				continue
			}

			// Perspective-correct attribute weights.
			w0, w1, w2 := b0*v0.invW, b1*v1.invW, b2*v2.invW
			ws := w0 + w1 + w2
			w0, w1, w2 = w0/ws, w1/ws, w2/ws

			pos := v0.world.Mul(w0).Add(v1.world.Mul(w1)).Add(v2.world.Mul(w2))
			view := r.eye.Sub(pos)
			if l := view.Len(); l > 1e-12 {
				view = view.Mul(1 / l)
			}
			n := v0.normal.Mul(w0).Add(v1.normal.Mul(w1)).Add(v2.normal.Mul(w2))
			if l := n.Len(); l > 1e-12 {
				n = n.Mul(1 / l)
			} else {
				n = view
			}
			if n.Dot(view) < 0 {
				n = n.Mul(-1)
			}

			c := shadeFragment(m, n, view, r.lights)
			r.blend(x, y, c, opacity, m.Blending, m.Transparent)
			if writeDepth {
				r.depth.z[di] = float32(z)
			}
		}
	}
}

// drawPoints rasterizes every vertex of a point command as a square of
// PointSize pixels (scaled by the pixel ratio). Points are depth tested
// but never write depth.
func (r *rasterizer) drawPoints(cmd *RenderCommand) {
	r.project(cmd)
	m := cmd.Mesh.Material
	size := math.Max(m.PointSize*r.pixelRatio, 1)
	half := size / 2
	opacity := m.opacity()
	if !m.Transparent {
		opacity = 1
	}
	for i := range r.verts {
		v := &r.verts[i]
		if !v.visible || v.sz < 0 || v.sz > 1 {
			continue
		}
		x0 := int(math.Max(0, math.Floor(v.sx-half+0.5)))
		x1 := int(math.Min(float64(r.color.Width), math.Floor(v.sx+half+0.5)))
		y0 := int(math.Max(0, math.Floor(v.sy-half+0.5)))
		y1 := int(math.Min(float64(r.color.Height), math.Floor(v.sy+half+0.5)))
		if x0 >= x1 || y0 >= y1 {
			continue
		}
		r.stats.points++
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				if v.sz >= float64(r.depth.z[y*r.depth.width+x]) {
					continue
				}
				r.blend(x, y, m.Color, opacity, m.Blending, true)
			}
		}
	}
}

// blend combines c into the color buffer at (x, y).
func (r *rasterizer) blend(x, y int, c Color, opacity float64, mode BlendMode, transparent bool) {
	i := (y*r.color.Width + x) * 3
	pix := r.color.Pix
	switch {
	case mode == BlendAdditive:
		pix[i] += float32(c.R * opacity)
		pix[i+1] += float32(c.G * opacity)
		pix[i+2] += float32(c.B * opacity)
	case transparent:
		a := float32(opacity)
		pix[i] = float32(c.R)*a + pix[i]*(1-a)
		pix[i+1] = float32(c.G)*a + pix[i+1]*(1-a)
		pix[i+2] = float32(c.B)*a + pix[i+2]*(1-a)
	default:
		pix[i] = float32(c.R)
		pix[i+1] = float32(c.G)
		pix[i+2] = float32(c.B)
	}
}
