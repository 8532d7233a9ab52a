package fanscene

import (
	"fmt"
	"image"

	"github.com/tanema/gween/ease"
)

// Session owns everything needed to animate, render and export the fan
// scene. Every signal is a method; there is no package-level scene state.
//
// A Session is not safe for concurrent use. Input signals, FrameTick and
// ExportScene must all be called from the same goroutine (the frame thread).
type Session struct {
	cfg Config

	scene    *FanScene
	pipeline *Pipeline
	animator *Animator
	viewport *ViewportManager
	exporter *Exporter

	lastElapsed float64
	skipped     uint64
}

// NewSession builds the scene, pipeline and animator described by cfg and
// applies the configured viewport size. Any construction error is returned
// and the session must not be used.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fs, err := NewFanScene(cfg)
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	debugCheckTree(fs.Scene)

	rc := cfg.Render
	pipeline := NewPipeline(fs.Scene, PipelineOptions{
		Bloom:       cfg.Bloom,
		Exposure:    rc.Exposure,
		RenderScale: rc.Scale,
		Background:  ColorHex(rc.Background),
		Debug:       rc.Debug,
	})
	animator := NewAnimator(cfg.Animation, AnimationTargets{
		Fan:       fs.Fan.Frame,
		Blades:    fs.Fan.Blades,
		Particles: fs.Particles.Group,
		Camera:    fs.Camera(),
	})
	s := &Session{
		cfg:      cfg,
		scene:    fs,
		pipeline: pipeline,
		animator: animator,
		viewport: NewViewportManager(fs.Camera().Camera, pipeline),
		exporter: NewExporter(),
	}
	if err := s.viewport.Resize(cfg.Viewport.Width, cfg.Viewport.Height); err != nil {
		return nil, fmt.Errorf("initial viewport: %w", err)
	}
	Logger().Info("session ready",
		"nodes", fs.NodeCount(),
		"depth", fs.MaxDepth(),
		"blades", len(fs.Fan.BladeNodes),
		"particles", fs.Particles.Count(),
		"width", cfg.Viewport.Width,
		"height", cfg.Viewport.Height,
	)
	return s, nil
}

// Config returns the configuration the session was built with.
func (s *Session) Config() Config { return s.cfg }

// Scene returns the session's scene.
func (s *Session) Scene() *FanScene { return s.scene }

// Pipeline returns the render pipeline.
func (s *Session) Pipeline() *Pipeline { return s.pipeline }

// Animator returns the animation controller.
func (s *Session) Animator() *Animator { return s.animator }

// Viewport returns the viewport manager.
func (s *Session) Viewport() *ViewportManager { return s.viewport }

// State returns a copy of the current frame state.
func (s *Session) State() FrameState { return s.animator.State() }

// SkippedFrames returns the number of frames whose render failed.
func (s *Session) SkippedFrames() uint64 { return s.skipped }

// OnScroll records a raw vertical scroll offset.
func (s *Session) OnScroll(offset float64) {
	s.animator.SetTargetScroll(offset)
}

// OnPointerMove records the normalized pointer position in [-1, 1].
func (s *Session) OnPointerMove(x, y float64) {
	s.animator.SetPointer(x, y)
}

// OnViewportResize applies a new viewport size. Invalid sizes are rejected
// and the previous size kept.
func (s *Session) OnViewportResize(w, h int) error {
	return s.viewport.Resize(w, h)
}

// ScrollTo animates the raw scroll target to offset over seconds.
func (s *Session) ScrollTo(offset, seconds float64, fn ease.TweenFunc) {
	s.animator.ScrollTo(offset, seconds, fn)
}

// FrameTick runs one frame: finished exports are delivered, the animation
// advances to elapsed and the scene is rendered. A render failure is logged,
// the frame skipped and the error returned; the next tick tries again.
func (s *Session) FrameTick(elapsed float64) error {
	if !isFinite(elapsed) || elapsed < s.lastElapsed {
		Logger().Warn("non-monotonic frame time clamped", "elapsed", elapsed, "previous", s.lastElapsed)
		elapsed = s.lastElapsed
	}
	s.lastElapsed = elapsed

	s.exporter.Deliver(false)
	s.animator.Step(elapsed)

	if err := s.pipeline.Render(); err != nil {
		s.skipped++
		Logger().Warn("frame skipped", "elapsed", elapsed, "err", err)
		return err
	}
	return nil
}

// ExportScene snapshots the scene and encodes it in the background. The
// callbacks run on the frame thread during a later FrameTick or FlushExports.
func (s *Session) ExportScene(onSuccess func(doc []byte), onError func(reason string)) {
	s.exporter.Start(s.scene.Scene, onSuccess, onError)
}

// PendingExports returns the number of exports not yet delivered.
func (s *Session) PendingExports() int { return s.exporter.Pending() }

// FlushExports delivers finished exports. With wait set it blocks until
// every pending export has been delivered.
func (s *Session) FlushExports(wait bool) int {
	return s.exporter.Deliver(wait)
}

// Frame returns the last presented frame, nil before the first render.
func (s *Session) Frame() *image.RGBA { return s.pipeline.Frame() }
