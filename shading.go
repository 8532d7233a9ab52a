package fanscene

import (
	"math"
)

// minRoughness keeps the specular lobe finite for perfectly smooth materials.
const minRoughness = 0.04

// shadeFragment evaluates the lit color of a surface point. n must be a unit
// normal facing the viewer and v the unit vector from the point to the eye.
// The model combines a Lambert diffuse term, a normalized Blinn-Phong
// specular lobe with Schlick fresnel, ambient light and emission.
func shadeFragment(m *Material, n, v Vec3, lights *lightSet) Color {
	base := m.Color
	metal := clamp01(m.Metalness)
	diffuse := base.Scale(1 - metal)
	f0 := Color{
		R: 0.04 + (base.R-0.04)*metal,
		G: 0.04 + (base.G-0.04)*metal,
		B: 0.04 + (base.B-0.04)*metal,
	}

	rough := math.Max(clamp01(m.Roughness), minRoughness)
	alpha := rough * rough
	shininess := 2/(alpha*alpha) - 2
	specNorm := (shininess + 2) / 8

	out := lights.ambient.Mul(diffuse)
	for _, dl := range lights.directional {
		l := dl.toLight
		nl := n.Dot(l)
		if nl <= 0 {
			continue
		}
		irradiance := dl.radiance.Scale(nl)
		out = out.Add(irradiance.Mul(diffuse))

		h := l.Add(v)
		if hl := h.Len(); hl > 1e-12 {
			h = h.Mul(1 / hl)
			nh := math.Max(n.Dot(h), 0)
			vh := math.Max(v.Dot(h), 0)
			d := specNorm * math.Pow(nh, shininess)
			fw := math.Pow(1-vh, 5)
			fres := Color{
				R: f0.R + (1-f0.R)*fw,
				G: f0.G + (1-f0.G)*fw,
				B: f0.B + (1-f0.B)*fw,
			}
			out = out.Add(irradiance.Mul(fres).Scale(d))
		}
	}
	return out.Add(m.emission())
}

// toneMapACES applies the fitted ACES filmic curve to a linear color.
// Output components are in [0, 1].
func toneMapACES(c Color, exposure float64) Color {
	k := exposure / 0.6
	r, g, b := c.R*k, c.G*k, c.B*k

	// sRGB => XYZ => D65_2_D60 => AP1 => RRT_SAT
	ir := 0.59719*r + 0.35458*g + 0.04823*b
	ig := 0.07600*r + 0.90834*g + 0.01566*b
	ib := 0.02840*r + 0.13383*g + 0.83777*b

	ir, ig, ib = rrtAndODTFit(ir), rrtAndODTFit(ig), rrtAndODTFit(ib)

	// ODT_SAT => XYZ => D60_2_D65 => sRGB
	or := 1.60475*ir - 0.53108*ig - 0.07367*ib
	og := -0.10208*ir + 1.10813*ig - 0.00605*ib
	ob := -0.00327*ir - 0.07276*ig + 1.07602*ib
	return Color{clamp01(or), clamp01(og), clamp01(ob)}
}

func rrtAndODTFit(v float64) float64 {
	a := v*(v+0.0245786) - 0.000090537
	b := v*(0.983729*v+0.4329510) + 0.238081
	return a / b
}

// encodeSRGB8 converts a linear [0, 1] component to an 8-bit sRGB value.
func encodeSRGB8(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	return uint8(clamp01(linearToSRGB(v))*255 + 0.5)
}
