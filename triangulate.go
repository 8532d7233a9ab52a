package fanscene

import (
	"math"
	"sort"
)

// signedArea returns the shoelace area of a closed outline; positive when
// the outline winds counter-clockwise.
func signedArea(p []Vec2) float64 {
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i][0]*p[j][1] - p[j][0]*p[i][1]
	}
	return sum / 2
}

func reversed(p []Vec2) []Vec2 {
	out := make([]Vec2, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// cleanContour drops consecutive duplicate points, including an explicit
// closing point equal to the first.
func cleanContour(p []Vec2) []Vec2 {
	out := make([]Vec2, 0, len(p))
	for _, v := range p {
		if len(out) > 0 && samePoint(out[len(out)-1], v) {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && samePoint(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func samePoint(a, b Vec2) bool {
	return math.Abs(a[0]-b[0]) < 1e-12 && math.Abs(a[1]-b[1]) < 1e-12
}

// cross2 returns the z component of (b-a) x (c-b).
func cross2(a, b, c Vec2) float64 {
	return (b[0]-a[0])*(c[1]-b[1]) - (b[1]-a[1])*(c[0]-b[0])
}

func pointInTriangle(p, a, b, c Vec2) bool {
	d1 := (p[0]-b[0])*(a[1]-b[1]) - (a[0]-b[0])*(p[1]-b[1])
	d2 := (p[0]-c[0])*(b[1]-c[1]) - (b[0]-c[0])*(p[1]-c[1])
	d3 := (p[0]-a[0])*(c[1]-a[1]) - (c[0]-a[0])*(p[1]-a[1])
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

// triangulate splits a counter-clockwise outline with clockwise holes into
// triangles. Indices address the concatenation outer ++ holes[0] ++ ...
// A polygon with P points and H holes always yields P+2H-2 triangles.
func triangulate(outer []Vec2, holes [][]Vec2) []uint32 {
	pts := make([]Vec2, 0, len(outer))
	pts = append(pts, outer...)

	ring := make([]int, len(outer))
	for i := range ring {
		ring[i] = i
	}

	type holeRef struct {
		start, n, right int
	}
	refs := make([]holeRef, 0, len(holes))
	for _, h := range holes {
		ref := holeRef{start: len(pts), n: len(h)}
		for i := range h {
			if h[i][0] > h[ref.right][0] {
				ref.right = i
			}
		}
		pts = append(pts, h...)
		refs = append(refs, ref)
	}
	// Bridge the rightmost holes first so later bridges never cross them.
	sort.SliceStable(refs, func(i, j int) bool {
		return pts[refs[i].start+refs[i].right][0] > pts[refs[j].start+refs[j].right][0]
	})

	for _, ref := range refs {
		seq := make([]int, 0, ref.n+1)
		for k := 0; k <= ref.n; k++ {
			seq = append(seq, ref.start+(ref.right+k)%ref.n)
		}
		ring = bridgeHole(pts, ring, seq)
	}
	return earClip(pts, ring)
}

// bridgeHole splices a hole (seq starts and ends at its rightmost point M)
// into ring through the ring vertex visible from M along +X.
func bridgeHole(pts []Vec2, ring []int, seq []int) []int {
	m := pts[seq[0]]
	bestX := math.Inf(1)
	cand := -1

	n := len(ring)
	for i := 0; i < n; i++ {
		a, b := pts[ring[i]], pts[ring[(i+1)%n]]
		if a[1] == b[1] {
			continue
		}
		if (m[1] < math.Min(a[1], b[1])) || (m[1] > math.Max(a[1], b[1])) {
			continue
		}
		x := a[0] + (m[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
		if x < m[0] || x >= bestX {
			continue
		}
		bestX = x
		if a[0] > b[0] {
			cand = i
		} else {
			cand = (i + 1) % n
		}
	}
	if cand < 0 {
		// Hole outside the outline: connect to the nearest ring vertex.
		best := math.Inf(1)
		for i := range ring {
			if d := pts[ring[i]].Sub(m).Len(); d < best {
				best, cand = d, i
			}
		}
	} else if hit := (Vec2{bestX, m[1]}); !samePoint(hit, pts[ring[cand]]) {
		// A ring vertex inside triangle (M, I, P) would block the bridge;
		// pick the one closest in angle to the ray instead.
		p := pts[ring[cand]]
		bestTan := math.Inf(1)
		for i := range ring {
			v := pts[ring[i]]
			if i == cand || v[0] <= m[0] || samePoint(v, p) {
				continue
			}
			if !pointInTriangle(v, m, hit, p) {
				continue
			}
			tan := math.Abs(v[1]-m[1]) / (v[0] - m[0])
			if tan < bestTan {
				bestTan, cand = tan, i
			}
		}
	}

	out := make([]int, 0, len(ring)+len(seq)+1)
	out = append(out, ring[:cand+1]...)
	out = append(out, seq...)
	out = append(out, ring[cand])
	out = append(out, ring[cand+1:]...)
	return out
}

// earClip triangulates a simple counter-clockwise ring by repeatedly
// clipping convex vertices whose triangle contains no other ring point.
// When no clean ear exists the most convex vertex is clipped anyway so the
// triangle count stays len(ring)-2.
func earClip(pts []Vec2, ring []int) []uint32 {
	idx := append([]int(nil), ring...)
	tris := make([]uint32, 0, (len(idx)-2)*3)

	for len(idx) > 3 {
		n := len(idx)
		clip := -1
		for i := 0; i < n && clip < 0; i++ {
			a, b, c := idx[(i+n-1)%n], idx[i], idx[(i+1)%n]
			if isEar(pts, idx, a, b, c) {
				clip = i
			}
		}
		if clip < 0 {
			best := math.Inf(-1)
			for i := 0; i < n; i++ {
				a, b, c := idx[(i+n-1)%n], idx[i], idx[(i+1)%n]
				if cr := cross2(pts[a], pts[b], pts[c]); cr > best {
					best, clip = cr, i
				}
			}
		}
		a, b, c := idx[(clip+n-1)%n], idx[clip], idx[(clip+1)%n]
		tris = append(tris, uint32(a), uint32(b), uint32(c))
		idx = append(idx[:clip], idx[clip+1:]...)
	}
	if len(idx) == 3 {
		tris = append(tris, uint32(idx[0]), uint32(idx[1]), uint32(idx[2]))
	}
	return tris
}

func isEar(pts []Vec2, idx []int, a, b, c int) bool {
	pa, pb, pc := pts[a], pts[b], pts[c]
	if cross2(pa, pb, pc) <= 1e-12 {
		return false
	}
	for _, v := range idx {
		if v == a || v == b || v == c {
			continue
		}
		p := pts[v]
		if samePoint(p, pa) || samePoint(p, pb) || samePoint(p, pc) {
			continue
		}
		if pointInTriangle(p, pa, pb, pc) {
			return false
		}
	}
	return true
}
