package fanscene

import (
	"errors"
	"math"
	"testing"
)

// testPipelineScene builds a scene with a camera at (0, 0, 5) looking at an
// emissive unit box at the origin.
func testPipelineScene(t *testing.T) *Scene {
	t.Helper()
	s := NewScene()
	cam := NewCameraNode("camera", NewPerspectiveCamera(45, 1, 0.1, 100))
	cam.SetPosition(0, 0, 5)
	s.Root().AddChild(cam)
	cam.LookAt(Vec3{})
	s.SetCamera(cam)

	m := NewStandardMaterial("glow", ColorBlack, 0.5, 0)
	m.Emissive = ColorWhite
	s.Root().AddChild(NewMeshNode("box", NewMesh(mustBuild(t, Box{Width: 1, Height: 1, Depth: 1}), m)))
	return s
}

func TestRenderBeforeResize(t *testing.T) {
	p := NewPipeline(testPipelineScene(t), PipelineOptions{})
	if err := p.Render(); !errors.Is(err, ErrNoBuffers) {
		t.Errorf("err = %v, want ErrNoBuffers", err)
	}
	if p.Frame() != nil {
		t.Error("Frame should be nil before Resize")
	}
}

func TestRenderWithoutCamera(t *testing.T) {
	p := NewPipeline(NewScene(), PipelineOptions{})
	if err := p.Resize(16, 16); err != nil {
		t.Fatal(err)
	}
	if err := p.Render(); !errors.Is(err, ErrNoCamera) {
		t.Errorf("err = %v, want ErrNoCamera", err)
	}
	if p.FrameCount() != 0 {
		t.Errorf("FrameCount = %d, want 0", p.FrameCount())
	}
}

func TestResizeInvalidKeepsBuffers(t *testing.T) {
	p := NewPipeline(NewScene(), PipelineOptions{})
	if err := p.Resize(32, 24); err != nil {
		t.Fatal(err)
	}
	frame := p.Frame()
	for _, sz := range [][2]int{{0, 24}, {32, -1}, {MaxBufferDim + 1, 24}} {
		if err := p.Resize(sz[0], sz[1]); !errors.Is(err, ErrBufferAlloc) {
			t.Errorf("Resize(%d, %d) err = %v, want ErrBufferAlloc", sz[0], sz[1], err)
		}
	}
	if w, h := p.Size(); w != 32 || h != 24 {
		t.Errorf("Size = %dx%d, want 32x24", w, h)
	}
	if p.Frame() != frame {
		t.Error("failed Resize should keep the previous frame")
	}
}

func TestResizeSameSizeNoOp(t *testing.T) {
	p := NewPipeline(NewScene(), PipelineOptions{})
	if err := p.Resize(40, 30); err != nil {
		t.Fatal(err)
	}
	frame := p.Frame()
	if err := p.Resize(40, 30); err != nil {
		t.Fatal(err)
	}
	if p.Frame() != frame {
		t.Error("same-size Resize should not reallocate")
	}
}

func TestResizeRenderScale(t *testing.T) {
	tests := []struct {
		scale        float64
		wantW, wantH int
	}{
		{1, 101, 51},
		{0.5, 51, 26},
		{2, 202, 102},
		{5, 202, 102}, // clamped to 2
		{0, 101, 51},  // defaults to 1
	}
	for _, tt := range tests {
		p := NewPipeline(NewScene(), PipelineOptions{RenderScale: tt.scale})
		if err := p.Resize(101, 51); err != nil {
			t.Fatal(err)
		}
		if w, h := p.BufferSize(); w != tt.wantW || h != tt.wantH {
			t.Errorf("scale %v: BufferSize = %dx%d, want %dx%d", tt.scale, w, h, tt.wantW, tt.wantH)
		}
		b := p.Frame().Bounds()
		if b.Dx() != 101 || b.Dy() != 51 {
			t.Errorf("scale %v: frame = %v, want viewport size", tt.scale, b)
		}
	}
}

func TestRenderProducesFrame(t *testing.T) {
	p := NewPipeline(testPipelineScene(t), PipelineOptions{})
	if err := p.Resize(64, 64); err != nil {
		t.Fatal(err)
	}
	if err := p.Render(); err != nil {
		t.Fatal(err)
	}
	if p.FrameCount() != 1 {
		t.Errorf("FrameCount = %d, want 1", p.FrameCount())
	}
	img := p.Frame()
	center := img.RGBAAt(32, 32)
	if center.R < 128 || center.A != 0xff {
		t.Errorf("center = %v, want a bright opaque pixel", center)
	}
	corner := img.RGBAAt(0, 0)
	if corner.R != 0 || corner.G != 0 || corner.B != 0 {
		t.Errorf("corner = %v, want black background", corner)
	}
}

func TestRenderIsRepeatable(t *testing.T) {
	p := NewPipeline(testPipelineScene(t), PipelineOptions{
		Bloom: BloomConfig{Strength: 0.8, Radius: 0.4, Threshold: 0.5},
	})
	if err := p.Resize(32, 32); err != nil {
		t.Fatal(err)
	}
	if err := p.Render(); err != nil {
		t.Fatal(err)
	}
	first := append([]uint8(nil), p.Frame().Pix...)
	if err := p.Render(); err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if first[i] != p.Frame().Pix[i] {
			t.Fatalf("Pix[%d] changed between identical frames: %d vs %d", i, first[i], p.Frame().Pix[i])
		}
	}
}

func TestRenderBloomSpreadsGlow(t *testing.T) {
	plain := NewPipeline(testPipelineScene(t), PipelineOptions{})
	glow := NewPipeline(testPipelineScene(t), PipelineOptions{
		Bloom: BloomConfig{Strength: 1.5, Radius: 0.5, Threshold: 0.1},
	})
	for _, p := range []*Pipeline{plain, glow} {
		if err := p.Resize(64, 64); err != nil {
			t.Fatal(err)
		}
		if err := p.Render(); err != nil {
			t.Fatal(err)
		}
	}
	// Just outside the box silhouette the bloom adds light.
	a := plain.Frame().RGBAAt(32, 18)
	b := glow.Frame().RGBAAt(32, 18)
	if b.R <= a.R {
		t.Errorf("bloom pixel = %d, plain = %d, want brighter with bloom", b.R, a.R)
	}
}

func TestRenderCustomFilterRuns(t *testing.T) {
	p := NewPipeline(testPipelineScene(t), PipelineOptions{})
	f := &countingFilter{}
	p.AddFilter(f)
	if err := p.Resize(16, 16); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := p.Render(); err != nil {
			t.Fatal(err)
		}
	}
	if f.calls != 3 {
		t.Errorf("filter calls = %d, want 3", f.calls)
	}
}

type countingFilter struct {
	calls int
}

func (f *countingFilter) Apply(src, dst *HDRBuffer) {
	f.calls++
	copyResampled(src, dst)
}

// --- Composite helpers ---

func TestToneMapACESBounds(t *testing.T) {
	for _, v := range []float64{0, 0.01, 0.18, 1, 4, 100, 1e6} {
		c := toneMapACES(Color{v, v, v}, 1)
		for _, ch := range []float64{c.R, c.G, c.B} {
			if ch < 0 || ch > 1 || math.IsNaN(ch) {
				t.Fatalf("toneMapACES(%v) = %v, want components in [0, 1]", v, c)
			}
		}
	}
}

func TestToneMapACESMonotonic(t *testing.T) {
	prev := -1.0
	for _, v := range []float64{0.05, 0.1, 0.5, 1, 2, 8} {
		c := toneMapACES(Color{v, v, v}, 1)
		if c.G <= prev {
			t.Fatalf("toneMapACES(%v).G = %v, not above %v", v, c.G, prev)
		}
		prev = c.G
	}
}

func TestToneMapACESExposure(t *testing.T) {
	lo := toneMapACES(Color{0.2, 0.2, 0.2}, 1)
	hi := toneMapACES(Color{0.2, 0.2, 0.2}, 2)
	if hi.R <= lo.R {
		t.Errorf("exposure 2 = %v, exposure 1 = %v, want brighter", hi.R, lo.R)
	}
}

func TestEncodeSRGB8(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-1, 0},
		{0, 0},
		{math.NaN(), 0},
		{1, 255},
		{2, 255},
		{0.5, 188},
	}
	for _, tt := range tests {
		if got := encodeSRGB8(tt.in); got != tt.want {
			t.Errorf("encodeSRGB8(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
