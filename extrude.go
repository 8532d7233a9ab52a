package fanscene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// extrudeLayer is one ring of the extruded side wall: the contour pushed
// outward by offset at depth z.
type extrudeLayer struct {
	z, offset float64
}

// extrudeLayers returns the side-wall rings front to back. Without a bevel
// there are two rings (z=0 and z=depth); with S bevel segments each end gets
// S+1 rings following a quarter circle, 2(S+1) in total.
func extrudeLayers(e ExtrudedProfile) []extrudeLayer {
	s := e.BevelSegments
	if s == 0 {
		return []extrudeLayer{{0, 0}, {e.Depth, 0}}
	}
	layers := make([]extrudeLayer, 0, 2*(s+1))
	for b := 0; b <= s; b++ {
		sin, cos := math.Sincos(float64(b) / float64(s) * math.Pi / 2)
		layers = append(layers, extrudeLayer{-e.BevelThickness * cos, e.BevelSize * sin})
	}
	for b := s; b >= 0; b-- {
		sin, cos := math.Sincos(float64(b) / float64(s) * math.Pi / 2)
		layers = append(layers, extrudeLayer{e.Depth + e.BevelThickness*cos, e.BevelSize * sin})
	}
	return layers
}

// bevelVectors returns, per contour point, the miter direction pointing away
// from the solid, scaled so an offset of d moves each edge by d.
func bevelVectors(contour []Vec2) []Vec2 {
	m := len(contour)
	out := make([]Vec2, m)
	for k := range contour {
		prev, cur, next := contour[(k+m-1)%m], contour[k], contour[(k+1)%m]
		e1 := cur.Sub(prev).Normalize()
		e2 := next.Sub(cur).Normalize()
		n1 := Vec2{e1[1], -e1[0]}
		n2 := Vec2{e2[1], -e2[0]}
		denom := 1 + n1.Dot(n2)
		if denom < 1e-6 {
			out[k] = n1
			continue
		}
		out[k] = n1.Add(n2).Mul(1 / denom)
	}
	return out
}

func buildExtrude(e ExtrudedProfile) (*Geometry, error) {
	outer := cleanContour(e.Outline)
	if len(outer) < 3 {
		return nil, &ParamError{Shape: "extrude", Field: "outline points", Value: float64(len(outer))}
	}
	if err := requirePositive("extrude", "depth", e.Depth); err != nil {
		return nil, err
	}
	if e.BevelSegments < 0 {
		return nil, &ParamError{Shape: "extrude", Field: "bevel segments", Value: float64(e.BevelSegments)}
	}
	if err := requireNonNegative("extrude", "bevel thickness", e.BevelThickness); err != nil {
		return nil, err
	}
	if err := requireNonNegative("extrude", "bevel size", e.BevelSize); err != nil {
		return nil, err
	}

	area := signedArea(outer)
	if math.Abs(area) < 1e-12 {
		return nil, &ParamError{Shape: "extrude", Field: "outline area", Value: area}
	}
	if area < 0 {
		outer = reversed(outer)
	}

	contours := [][]Vec2{outer}
	holes := make([][]Vec2, 0, len(e.Holes))
	for _, h := range e.Holes {
		h = cleanContour(h)
		if len(h) < 3 {
			return nil, &ParamError{Shape: "extrude", Field: "hole points", Value: float64(len(h))}
		}
		if signedArea(h) > 0 {
			h = reversed(h)
		}
		holes = append(holes, h)
		contours = append(contours, h)
	}

	capTris := triangulate(outer, holes)

	var flat, bevel []Vec2
	for _, c := range contours {
		flat = append(flat, c...)
		bevel = append(bevel, bevelVectors(c)...)
	}
	p := len(flat)
	layers := extrudeLayers(e)
	l := len(layers)

	at := func(layer extrudeLayer, j int) Vec3 {
		return Vec3{
			flat[j][0] + bevel[j][0]*layer.offset,
			flat[j][1] + bevel[j][1]*layer.offset,
			layer.z,
		}
	}

	b := newGeometryBuilder(4*(l-1)*p+2*p, 6*(l-1)*p+2*len(capTris))

	// Front cap faces -Z, back cap faces +Z.
	front := uint32(len(b.positions) / 3)
	for j := 0; j < p; j++ {
		b.vertex(at(layers[0], j), Vec3{0, 0, -1})
	}
	for i := 0; i < len(capTris); i += 3 {
		b.tri(front+capTris[i], front+capTris[i+2], front+capTris[i+1])
	}
	back := uint32(len(b.positions) / 3)
	for j := 0; j < p; j++ {
		b.vertex(at(layers[l-1], j), Vec3{0, 0, 1})
	}
	for i := 0; i < len(capTris); i += 3 {
		b.tri(back+capTris[i], back+capTris[i+1], back+capTris[i+2])
	}

	offset := 0
	for _, c := range contours {
		m := len(c)
		for li := 0; li < l-1; li++ {
			for k := 0; k < m; k++ {
				j0, j1 := offset+k, offset+(k+1)%m
				pa, pb := at(layers[li], j0), at(layers[li], j1)
				pc, pd := at(layers[li+1], j1), at(layers[li+1], j0)
				n := pb.Sub(pa).Cross(pd.Sub(pa))
				if n.Len() < 1e-12 {
					n = pc.Sub(pa).Cross(pd.Sub(pb))
				}
				if n.Len() < 1e-12 {
					n = Vec3{0, 0, 1}
				}
				n = n.Normalize()
				ia := b.vertex(pa, n)
				ib := b.vertex(pb, n)
				ic := b.vertex(pc, n)
				id := b.vertex(pd, n)
				b.tri(ia, ib, ic)
				b.tri(ia, ic, id)
			}
		}
		offset += m
	}

	lo, hi := positionBounds(b.positions)
	center := lo.Add(hi).Mul(0.5)
	b.transform(mgl64.Translate3D(-center[0], -center[1], -center[2]))
	return b.build(PrimitiveTriangles), nil
}
