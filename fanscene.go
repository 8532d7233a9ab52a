package fanscene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is a 2D point used for extrusion outlines.
type Vec2 = mgl64.Vec2

// Vec3 is a 3D vector used for positions, rotations, scales and directions.
type Vec3 = mgl64.Vec3

// Mat4 is a column-major 4x4 matrix.
type Mat4 = mgl64.Mat4

// Color is a linear-space RGB color. Components are usually in [0, 1] but
// emissive and light contributions may exceed 1 before tone mapping.
type Color struct {
	R, G, B float64
}

// ColorWhite is full-intensity white.
var ColorWhite = Color{1, 1, 1}

// ColorBlack is the zero color.
var ColorBlack = Color{}

// ColorHex converts a 0xRRGGBB sRGB value to a linear Color.
func ColorHex(hex uint32) Color {
	return Color{
		R: srgbToLinear(float64((hex>>16)&0xff) / 255),
		G: srgbToLinear(float64((hex>>8)&0xff) / 255),
		B: srgbToLinear(float64(hex&0xff) / 255),
	}
}

// Hex returns the color as a 0xRRGGBB sRGB value, rounding each channel.
func (c Color) Hex() uint32 {
	r := uint32(clamp01(linearToSRGB(c.R))*255 + 0.5)
	g := uint32(clamp01(linearToSRGB(c.G))*255 + 0.5)
	b := uint32(clamp01(linearToSRGB(c.B))*255 + 0.5)
	return r<<16 | g<<8 | b
}

// Scale returns c multiplied by k.
func (c Color) Scale(k float64) Color {
	return Color{c.R * k, c.G * k, c.B * k}
}

// Add returns the component-wise sum of c and o.
func (c Color) Add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B}
}

// Mul returns the component-wise product of c and o.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B}
}

// Luminance returns the Rec. 601 luma of the color.
func (c Color) Luminance() float64 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

func (c Color) finite() bool {
	return isFinite(c.R) && isFinite(c.G) && isFinite(c.B)
}

func srgbToLinear(c float64) float64 {
	if c < 0.04045 {
		return c * 0.0773993808
	}
	return math.Pow(c*0.9478672986+0.0521327014, 2.4)
}

func linearToSRGB(c float64) float64 {
	if c < 0.0031308 {
		return c * 12.92
	}
	return 1.055*math.Pow(c, 0.41666) - 0.055
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Axis names a principal axis.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// unit returns the unit vector along the axis.
func (a Axis) unit() Vec3 {
	switch a {
	case AxisX:
		return Vec3{1, 0, 0}
	case AxisY:
		return Vec3{0, 1, 0}
	default:
		return Vec3{0, 0, 1}
	}
}

// String returns "x", "y" or "z".
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "z"
	}
}

// BlendMode selects how a material's fragments combine with the color buffer.
type BlendMode uint8

const (
	BlendNormal   BlendMode = iota // source-over, honoring opacity when transparent
	BlendAdditive                  // dst + src*opacity
)

// NodeType distinguishes the payload carried by a Node.
type NodeType uint8

const (
	NodeTypeGroup  NodeType = iota // transform-only node
	NodeTypeMesh                   // triangle mesh
	NodeTypePoints                 // point cloud mesh
	NodeTypeLight                  // ambient or directional light
	NodeTypeCamera                 // perspective camera
)

// String returns a short lowercase name for the node type.
func (t NodeType) String() string {
	switch t {
	case NodeTypeMesh:
		return "mesh"
	case NodeTypePoints:
		return "points"
	case NodeTypeLight:
		return "light"
	case NodeTypeCamera:
		return "camera"
	default:
		return "group"
	}
}
