package fanscene

import (
	"errors"
	"fmt"
)

// ErrInvalidViewport is returned for non-positive viewport dimensions.
var ErrInvalidViewport = errors.New("fanscene: invalid viewport size")

// ViewportManager keeps the camera projection and the pipeline buffers in
// step with the viewport size.
type ViewportManager struct {
	camera   *Camera
	pipeline *Pipeline

	width, height int
}

// NewViewportManager creates a manager for camera and pipeline. No size is
// applied until the first Resize.
func NewViewportManager(camera *Camera, pipeline *Pipeline) *ViewportManager {
	return &ViewportManager{camera: camera, pipeline: pipeline}
}

// Size returns the last accepted viewport size, (0, 0) before the first.
func (v *ViewportManager) Size() (int, int) { return v.width, v.height }

// Resize applies a new viewport size: the camera aspect ratio and projection
// are recomputed and the pipeline buffers are reallocated. Repeating the
// current size changes nothing. Non-positive sizes are rejected with
// ErrInvalidViewport and allocation failures are returned; in both cases the
// previous size stays in effect.
func (v *ViewportManager) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		Logger().Warn("viewport resize rejected", "width", w, "height", h)
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, w, h)
	}
	if w == v.width && h == v.height {
		return nil
	}
	if v.pipeline != nil {
		if err := v.pipeline.Resize(w, h); err != nil {
			Logger().Warn("viewport resize failed", "width", w, "height", h, "err", err)
			return err
		}
	}
	if v.camera != nil {
		v.camera.SetAspect(float64(w) / float64(h))
	}
	v.width, v.height = w, h
	return nil
}
