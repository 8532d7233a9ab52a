package fanscene

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"golang.org/x/image/draw"
)

// ErrNoCamera is returned by Render when the scene has no active camera.
var ErrNoCamera = errors.New("fanscene: scene has no camera")

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Bloom BloomConfig
	// Exposure scales scene radiance before tone mapping.
	Exposure float64
	// RenderScale sets the internal buffer resolution relative to the
	// viewport, clamped to (0, 2].
	RenderScale float64
	Background  Color
	Debug       bool
}

// Pipeline renders a Scene through three ordered passes: the lit scene pass
// into an HDR buffer, the bloom extract/blur pass, and the composite pass
// that adds bloom, tone maps and presents an sRGB frame.
type Pipeline struct {
	scene   *Scene
	bloom   *BloomFilter
	filters []Filter

	exposure    float64
	renderScale float64
	background  Color
	debug       bool

	width, height int // viewport size
	sceneBuf      *HDRBuffer
	depth         *depthBuffer
	pool          bufferPool
	raster        rasterizer

	internal *image.RGBA // composite at buffer resolution
	frame    *image.RGBA // presented frame at viewport resolution
	frames   uint64
}

// NewPipeline creates a pipeline for scene. Resize must be called before
// the first Render.
func NewPipeline(scene *Scene, opts PipelineOptions) *Pipeline {
	scale := opts.RenderScale
	if !(scale > 0) {
		scale = 1
	}
	scale = math.Min(scale, 2)
	exposure := opts.Exposure
	if !(exposure > 0) {
		exposure = 1
	}
	b := opts.Bloom
	return &Pipeline{
		scene:       scene,
		bloom:       NewBloomFilter(b.Strength, b.Radius, b.Threshold, b.Levels),
		exposure:    exposure,
		renderScale: scale,
		background:  opts.Background,
		debug:       opts.Debug,
	}
}

// Bloom returns the pipeline's bloom filter so its parameters can be tuned.
func (p *Pipeline) Bloom() *BloomFilter { return p.bloom }

// AddFilter appends a post-processing filter that runs after bloom and
// before tone mapping.
func (p *Pipeline) AddFilter(f Filter) {
	p.filters = append(p.filters, f)
}

// SetDebugMode enables per-frame timing stats at debug log level.
func (p *Pipeline) SetDebugMode(enabled bool) {
	p.debug = enabled
}

// Size returns the current viewport size, (0, 0) before the first Resize.
func (p *Pipeline) Size() (int, int) { return p.width, p.height }

// BufferSize returns the internal buffer size, (0, 0) before the first Resize.
func (p *Pipeline) BufferSize() (int, int) {
	if p.sceneBuf == nil {
		return 0, 0
	}
	return p.sceneBuf.Width, p.sceneBuf.Height
}

// FrameCount returns the number of frames rendered so far.
func (p *Pipeline) FrameCount() uint64 { return p.frames }

// Resize reallocates every intermediate buffer for a (w, h) viewport.
// Repeated calls with the current size are no-ops. On failure the previous
// buffers are kept and an error wrapping ErrBufferAlloc is returned.
func (p *Pipeline) Resize(w, h int) error {
	if w <= 0 || h <= 0 || w > MaxBufferDim || h > MaxBufferDim {
		return fmt.Errorf("%w: viewport %dx%d", ErrBufferAlloc, w, h)
	}
	if p.sceneBuf != nil && w == p.width && h == p.height {
		return nil
	}
	bw := min(max(int(math.Ceil(float64(w)*p.renderScale)), 1), MaxBufferDim)
	bh := min(max(int(math.Ceil(float64(h)*p.renderScale)), 1), MaxBufferDim)

	sceneBuf, err := NewHDRBuffer(bw, bh)
	if err != nil {
		return fmt.Errorf("resize scene buffer: %w", err)
	}
	depth, err := newDepthBuffer(bw, bh)
	if err != nil {
		return fmt.Errorf("resize depth buffer: %w", err)
	}
	if err := p.bloom.Resize(bw, bh); err != nil {
		return fmt.Errorf("resize bloom chain: %w", err)
	}

	p.pool.Drain()
	p.sceneBuf, p.depth = sceneBuf, depth
	p.raster.color, p.raster.depth = sceneBuf, depth
	p.internal = image.NewRGBA(image.Rect(0, 0, bw, bh))
	if bw == w && bh == h {
		p.frame = p.internal
	} else {
		p.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	p.width, p.height = w, h
	Logger().Debug("pipeline resized", "width", w, "height", h, "bufferWidth", bw, "bufferHeight", bh)
	return nil
}

// Render runs the scene, bloom and composite passes for the current scene
// and camera state and presents the result to Frame. Render keeps no state
// between calls other than the reused buffers.
func (p *Pipeline) Render() error {
	if p.sceneBuf == nil {
		return ErrNoBuffers
	}
	camNode := p.scene.Camera()
	if camNode == nil || camNode.Camera == nil {
		return ErrNoCamera
	}

	var stats debugStats
	var t0 time.Time
	if p.debug {
		t0 = time.Now()
	}

	camWorld := camNode.WorldTransform()
	view := camWorld.Inv()
	cam := camNode.Camera
	p.scene.prepareFrame(view)

	if p.debug {
		stats.prepareTime = time.Since(t0)
		stats.commandCount = len(p.scene.commands)
		t0 = time.Now()
	}

	p.scenePass(cam.Projection().Mul4(view), camWorld.Col(3).Vec3(), cam.Near)

	if p.debug {
		stats.sceneTime = time.Since(t0)
		stats.triangleCount = p.raster.stats.triangles
		stats.pointCount = p.raster.stats.points
		t0 = time.Now()
	}

	chain := make([]Filter, 0, 1+len(p.filters))
	chain = append(chain, p.bloom)
	chain = append(chain, p.filters...)
	out, err := applyFilters(chain, p.sceneBuf, &p.pool)
	if err != nil {
		return fmt.Errorf("bloom pass: %w", err)
	}

	if p.debug {
		stats.bloomTime = time.Since(t0)
		t0 = time.Now()
	}

	p.compositePass(out)
	if out != p.sceneBuf {
		p.pool.Release(out)
	}
	p.frames++

	if p.debug {
		stats.compositeTime = time.Since(t0)
		p.debugLog(stats)
	}
	return nil
}

// scenePass clears the buffers and rasterizes every command.
func (p *Pipeline) scenePass(viewProj Mat4, eye Vec3, near float64) {
	p.sceneBuf.Fill(p.background)
	p.depth.reset()
	p.raster.begin(viewProj, eye, near, p.renderScale, &p.scene.lights)
	for i := range p.scene.commands {
		cmd := &p.scene.commands[i]
		switch cmd.Type {
		case CommandPoints:
			p.raster.drawPoints(cmd)
		default:
			p.raster.drawMesh(cmd)
		}
	}
}

// compositePass tone maps src into the internal frame and scales it to the
// viewport when the render scale differs from 1.
func (p *Pipeline) compositePass(src *HDRBuffer) {
	dst := p.internal
	for y := 0; y < src.Height; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < src.Width; x++ {
			i := (y*src.Width + x) * 3
			c := toneMapACES(Color{float64(src.Pix[i]), float64(src.Pix[i+1]), float64(src.Pix[i+2])}, p.exposure)
			o := x * 4
			row[o] = encodeSRGB8(c.R)
			row[o+1] = encodeSRGB8(c.G)
			row[o+2] = encodeSRGB8(c.B)
			row[o+3] = 0xff
		}
	}
	if p.frame != p.internal {
		draw.ApproxBiLinear.Scale(p.frame, p.frame.Bounds(), p.internal, p.internal.Bounds(), draw.Src, nil)
	}
}

// Frame returns the most recently presented frame, or nil before the first
// Resize. The image is reused by the next Render.
func (p *Pipeline) Frame() *image.RGBA {
	return p.frame
}
