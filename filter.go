package fanscene

import (
	"math"
)

// Filter is a full-frame post-processing pass over HDR buffers.
type Filter interface {
	// Apply renders src into dst with the filter effect. dst may have a
	// different size than src, in which case src is resampled bilinearly.
	Apply(src, dst *HDRBuffer)
}

// --- Gaussian blur ---

// gaussianKernel returns the one-sided weights for a kernel of the given
// radius (center weight first), with sigma = radius / 3.
func gaussianKernel(radius int) []float32 {
	if radius < 1 {
		radius = 1
	}
	sigma := float64(radius) / 3
	k := make([]float32, radius)
	for i := range k {
		x := float64(i)
		k[i] = float32(0.39894 * math.Exp(-0.5*x*x/(sigma*sigma)) / sigma)
	}
	return k
}

// blurPass runs a one-dimensional weighted blur. Each dst pixel samples src
// at its own normalized center offset by (dx, dy) dst texels per tap.
func blurPass(src, dst *HDRBuffer, kernel []float32, dx, dy float64) {
	invW := 1 / float64(dst.Width)
	invH := 1 / float64(dst.Height)
	weightSum := kernel[0]
	for _, w := range kernel[1:] {
		weightSum += 2 * w
	}
	norm := 1 / weightSum

	for y := 0; y < dst.Height; y++ {
		v := (float64(y) + 0.5) * invH
		for x := 0; x < dst.Width; x++ {
			u := (float64(x) + 0.5) * invW
			r, g, b := src.sample(u, v)
			r, g, b = r*kernel[0], g*kernel[0], b*kernel[0]
			for i := 1; i < len(kernel); i++ {
				ou := dx * float64(i) * invW
				ov := dy * float64(i) * invH
				r1, g1, b1 := src.sample(u+ou, v+ov)
				r2, g2, b2 := src.sample(u-ou, v-ov)
				w := kernel[i]
				r += (r1 + r2) * w
				g += (g1 + g2) * w
				b += (b1 + b2) * w
			}
			o := (y*dst.Width + x) * 3
			dst.Pix[o] = r * norm
			dst.Pix[o+1] = g * norm
			dst.Pix[o+2] = b * norm
		}
	}
}

// BlurFilter applies a separable gaussian blur.
type BlurFilter struct {
	Radius int
	kernel []float32
	tmp    *HDRBuffer
}

// NewBlurFilter creates a blur filter with the given kernel radius in pixels.
func NewBlurFilter(radius int) *BlurFilter {
	if radius < 0 {
		radius = 0
	}
	return &BlurFilter{Radius: radius}
}

// Apply blurs src horizontally into a scratch buffer, then vertically into dst.
func (f *BlurFilter) Apply(src, dst *HDRBuffer) {
	if f.Radius <= 0 {
		copyResampled(src, dst)
		return
	}
	if len(f.kernel) != f.Radius {
		f.kernel = gaussianKernel(f.Radius)
	}
	if f.tmp == nil || f.tmp.Width != dst.Width || f.tmp.Height != dst.Height {
		tmp, err := NewHDRBuffer(dst.Width, dst.Height)
		if err != nil {
			copyResampled(src, dst)
			return
		}
		f.tmp = tmp
	}
	blurPass(src, f.tmp, f.kernel, 1, 0)
	blurPass(f.tmp, dst, f.kernel, 0, 1)
}

// copyResampled copies src into dst, resampling bilinearly when sizes differ.
func copyResampled(src, dst *HDRBuffer) {
	if src.Width == dst.Width && src.Height == dst.Height {
		copy(dst.Pix, src.Pix)
		return
	}
	blurPass(src, dst, []float32{1}, 0, 0)
}

// --- Luminosity high-pass ---

// LuminosityFilter keeps pixels whose luma exceeds Threshold and blacks out
// the rest, with a smoothstep transition of width SmoothWidth.
type LuminosityFilter struct {
	Threshold   float64
	SmoothWidth float64
}

// Apply writes the high-passed src into dst.
func (f *LuminosityFilter) Apply(src, dst *HDRBuffer) {
	invW := 1 / float64(dst.Width)
	invH := 1 / float64(dst.Height)
	for y := 0; y < dst.Height; y++ {
		v := (float64(y) + 0.5) * invH
		for x := 0; x < dst.Width; x++ {
			u := (float64(x) + 0.5) * invW
			r, g, b := src.sample(u, v)
			c := Color{float64(r), float64(g), float64(b)}
			a := float32(smoothstep(f.Threshold, f.Threshold+f.SmoothWidth, c.Luminance()))
			o := (y*dst.Width + x) * 3
			dst.Pix[o] = r * a
			dst.Pix[o+1] = g * a
			dst.Pix[o+2] = b * a
		}
	}
}

func smoothstep(e0, e1, x float64) float64 {
	if e1 <= e0 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

// --- Bloom ---

// DefaultBloomLevels is the number of mip levels in the bloom blur chain.
const DefaultBloomLevels = 5

// bloomSmoothWidth is the width of the threshold transition.
const bloomSmoothWidth = 0.01

// BloomFilter extracts bright pixels, blurs them over a chain of
// progressively half-sized buffers and adds the weighted sum back onto the
// source.
type BloomFilter struct {
	Strength  float64
	Radius    float64
	Threshold float64
	Tint      Color

	levels   int
	highPass LuminosityFilter
	bright   *HDRBuffer
	horiz    []*HDRBuffer
	vert     []*HDRBuffer
	kernels  [][]float32
}

// NewBloomFilter creates a bloom filter. Call Resize before Apply.
func NewBloomFilter(strength, radius, threshold float64, levels int) *BloomFilter {
	if levels < 1 {
		levels = DefaultBloomLevels
	}
	f := &BloomFilter{
		Strength:  strength,
		Radius:    radius,
		Threshold: threshold,
		Tint:      ColorWhite,
		levels:    levels,
	}
	f.kernels = make([][]float32, levels)
	for i := range f.kernels {
		f.kernels[i] = gaussianKernel(3 + 2*i)
	}
	return f
}

// Levels returns the number of blur levels.
func (f *BloomFilter) Levels() int { return f.levels }

// Resize reallocates the blur chain for a (w, h) source. The bright buffer
// and first level are half size; each further level halves again.
// On failure the previous chain is kept.
func (f *BloomFilter) Resize(w, h int) error {
	lw := max(int(math.Round(float64(w)/2)), 1)
	lh := max(int(math.Round(float64(h)/2)), 1)

	bright, err := NewHDRBuffer(lw, lh)
	if err != nil {
		return err
	}
	horiz := make([]*HDRBuffer, f.levels)
	vert := make([]*HDRBuffer, f.levels)
	for i := 0; i < f.levels; i++ {
		if horiz[i], err = NewHDRBuffer(lw, lh); err != nil {
			return err
		}
		if vert[i], err = NewHDRBuffer(lw, lh); err != nil {
			return err
		}
		lw = max(int(math.Round(float64(lw)/2)), 1)
		lh = max(int(math.Round(float64(lh)/2)), 1)
	}
	f.bright, f.horiz, f.vert = bright, horiz, vert
	return nil
}

// LevelSize returns the dimensions of blur level i, or (0, 0) before Resize.
func (f *BloomFilter) LevelSize(i int) (int, int) {
	if i < 0 || i >= len(f.vert) {
		return 0, 0
	}
	return f.vert[i].Width, f.vert[i].Height
}

// factors returns the per-level composite weights, spread by Radius.
func (f *BloomFilter) factors() []float64 {
	out := make([]float64, f.levels)
	for i := range out {
		base := math.Max(1-0.2*float64(i), 0.2)
		out[i] = base + (1.2-2*base)*f.Radius
	}
	return out
}

// Apply writes src plus the bloom contribution into dst (same size as src).
// Without buffers from Resize, src is copied unchanged.
func (f *BloomFilter) Apply(src, dst *HDRBuffer) {
	if f.bright == nil || f.Strength == 0 {
		copyResampled(src, dst)
		return
	}

	f.highPass = LuminosityFilter{Threshold: f.Threshold, SmoothWidth: bloomSmoothWidth}
	f.highPass.Apply(src, f.bright)

	input := f.bright
	for i := 0; i < f.levels; i++ {
		blurPass(input, f.horiz[i], f.kernels[i], 1, 0)
		blurPass(f.horiz[i], f.vert[i], f.kernels[i], 0, 1)
		input = f.vert[i]
	}

	factors := f.factors()
	weights := make([]float32, len(factors))
	for i, fac := range factors {
		weights[i] = float32(f.Strength * fac)
	}
	tr, tg, tb := float32(f.Tint.R), float32(f.Tint.G), float32(f.Tint.B)

	invW := 1 / float64(dst.Width)
	invH := 1 / float64(dst.Height)
	for y := 0; y < dst.Height; y++ {
		v := (float64(y) + 0.5) * invH
		for x := 0; x < dst.Width; x++ {
			u := (float64(x) + 0.5) * invW
			var br, bg, bb float32
			for i, lvl := range f.vert {
				r, g, b := lvl.sample(u, v)
				br += r * weights[i]
				bg += g * weights[i]
				bb += b * weights[i]
			}
			o := (y*dst.Width + x) * 3
			sr, sg, sb := src.sample(u, v)
			dst.Pix[o] = sr + br*tr
			dst.Pix[o+1] = sg + bg*tg
			dst.Pix[o+2] = sb + bb*tb
		}
	}
}

// --- Filter application helper ---

// applyFilters runs a filter chain on src, ping-ponging between pooled
// buffers. Returns the buffer containing the final result (src itself when
// the chain is empty). Every pooled buffer other than the result is released.
func applyFilters(filters []Filter, src *HDRBuffer, pool *bufferPool) (*HDRBuffer, error) {
	current := src
	for _, f := range filters {
		scratch, err := pool.Acquire(src.Width, src.Height)
		if err != nil {
			if current != src {
				pool.Release(current)
			}
			return nil, err
		}
		f.Apply(current, scratch)
		if current != src {
			pool.Release(current)
		}
		current = scratch
	}
	return current, nil
}
