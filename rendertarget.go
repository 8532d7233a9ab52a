package fanscene

import (
	"errors"
	"fmt"
	"math"
)

// MaxBufferDim is the largest width or height accepted for an intermediate buffer.
const MaxBufferDim = 16384

var (
	// ErrBufferAlloc is returned when an intermediate buffer cannot be allocated.
	ErrBufferAlloc = errors.New("fanscene: buffer allocation failed")
	// ErrNoBuffers is returned by Render before the first successful Resize.
	ErrNoBuffers = errors.New("fanscene: render buffers not allocated")
)

// HDRBuffer is a linear-light RGB float image. Pixels are stored row-major
// as consecutive R, G, B triplets with no clamping.
type HDRBuffer struct {
	Width, Height int
	Pix           []float32
}

// NewHDRBuffer allocates a zeroed buffer. Fails with ErrBufferAlloc for
// non-positive sizes or sizes above MaxBufferDim.
func NewHDRBuffer(w, h int) (b *HDRBuffer, err error) {
	if w <= 0 || h <= 0 || w > MaxBufferDim || h > MaxBufferDim {
		return nil, fmt.Errorf("%w: %dx%d", ErrBufferAlloc, w, h)
	}
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%w: %dx%d: %v", ErrBufferAlloc, w, h, r)
		}
	}()
	return &HDRBuffer{Width: w, Height: h, Pix: make([]float32, w*h*3)}, nil
}

// At returns the pixel at (x, y). Coordinates are clamped to the edges.
func (b *HDRBuffer) At(x, y int) Color {
	x = clampInt(x, 0, b.Width-1)
	y = clampInt(y, 0, b.Height-1)
	i := (y*b.Width + x) * 3
	return Color{float64(b.Pix[i]), float64(b.Pix[i+1]), float64(b.Pix[i+2])}
}

// Set stores c at (x, y). Out-of-range coordinates are ignored.
func (b *HDRBuffer) Set(x, y int, c Color) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := (y*b.Width + x) * 3
	b.Pix[i] = float32(c.R)
	b.Pix[i+1] = float32(c.G)
	b.Pix[i+2] = float32(c.B)
}

// Fill sets every pixel to c.
func (b *HDRBuffer) Fill(c Color) {
	r, g, bl := float32(c.R), float32(c.G), float32(c.B)
	for i := 0; i < len(b.Pix); i += 3 {
		b.Pix[i] = r
		b.Pix[i+1] = g
		b.Pix[i+2] = bl
	}
}

// sample returns the bilinearly filtered color at normalized coordinates
// (u, v) with clamp-to-edge addressing. (0, 0) is the top-left corner.
func (b *HDRBuffer) sample(u, v float64) (r, g, bl float32) {
	fx := u*float64(b.Width) - 0.5
	fy := v*float64(b.Height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := float32(fx - float64(x0))
	ty := float32(fy - float64(y0))

	x1 := clampInt(x0+1, 0, b.Width-1)
	y1 := clampInt(y0+1, 0, b.Height-1)
	x0 = clampInt(x0, 0, b.Width-1)
	y0 = clampInt(y0, 0, b.Height-1)

	i00 := (y0*b.Width + x0) * 3
	i10 := (y0*b.Width + x1) * 3
	i01 := (y1*b.Width + x0) * 3
	i11 := (y1*b.Width + x1) * 3
	lerp2 := func(c int) float32 {
		top := b.Pix[i00+c] + (b.Pix[i10+c]-b.Pix[i00+c])*tx
		bot := b.Pix[i01+c] + (b.Pix[i11+c]-b.Pix[i01+c])*tx
		return top + (bot-top)*ty
	}
	return lerp2(0), lerp2(1), lerp2(2)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// --- Buffer pool ---

// bufferPool manages reusable HDR buffers keyed by exact dimensions.
// After warmup, Acquire/Release are zero-alloc.
type bufferPool struct {
	buckets map[uint64][]*HDRBuffer
}

// poolKey packs width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// Acquire returns a zeroed buffer of exactly (w, h) pixels.
func (p *bufferPool) Acquire(w, h int) (*HDRBuffer, error) {
	key := poolKey(w, h)
	if p.buckets != nil {
		if stack := p.buckets[key]; len(stack) > 0 {
			b := stack[len(stack)-1]
			p.buckets[key] = stack[:len(stack)-1]
			clear(b.Pix)
			return b, nil
		}
	}
	return NewHDRBuffer(w, h)
}

// Release returns a buffer to the pool for reuse. The buffer is cleared on
// next Acquire, not here.
func (p *bufferPool) Release(b *HDRBuffer) {
	if b == nil {
		return
	}
	if p.buckets == nil {
		p.buckets = make(map[uint64][]*HDRBuffer)
	}
	key := poolKey(b.Width, b.Height)
	p.buckets[key] = append(p.buckets[key], b)
}

// Drain drops every pooled buffer. Called when the viewport size changes so
// buffers of stale sizes are not retained.
func (p *bufferPool) Drain() {
	p.buckets = nil
}

// depthBuffer holds normalized window depth per pixel, 1 = far plane.
type depthBuffer struct {
	width, height int
	z             []float32
}

func newDepthBuffer(w, h int) (d *depthBuffer, err error) {
	if w <= 0 || h <= 0 || w > MaxBufferDim || h > MaxBufferDim {
		return nil, fmt.Errorf("%w: depth %dx%d", ErrBufferAlloc, w, h)
	}
	defer func() {
		if r := recover(); r != nil {
			d, err = nil, fmt.Errorf("%w: depth %dx%d: %v", ErrBufferAlloc, w, h, r)
		}
	}()
	return &depthBuffer{width: w, height: h, z: make([]float32, w*h)}, nil
}

func (d *depthBuffer) reset() {
	for i := range d.z {
		d.z[i] = 1
	}
}
