package fanscene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Camera holds perspective projection parameters. Its pose comes from the
// node it is attached to; the camera looks along the node's -Z axis.
type Camera struct {
	// FOV is the vertical field of view in degrees.
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64

	projection Mat4
}

// NewPerspectiveCamera creates a camera and computes its projection matrix.
func NewPerspectiveCamera(fovDeg, aspect, near, far float64) *Camera {
	c := &Camera{FOV: fovDeg, Aspect: aspect, Near: near, Far: far}
	c.UpdateProjection()
	return c
}

// SetAspect sets the aspect ratio (width / height) and updates the projection.
// Non-positive or non-finite values are ignored.
func (c *Camera) SetAspect(aspect float64) {
	if !(aspect > 0) || !isFinite(aspect) {
		return
	}
	c.Aspect = aspect
	c.UpdateProjection()
}

// UpdateProjection recomputes the projection matrix from FOV, Aspect, Near and Far.
// Call this after modifying those fields directly.
func (c *Camera) UpdateProjection() {
	c.projection = mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// Projection returns the current projection matrix.
func (c *Camera) Projection() Mat4 {
	return c.projection
}
