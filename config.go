package fanscene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("fanscene: invalid config")

// Config holds every tunable of a session. DefaultConfig returns the
// reference scene; config files overlay it.
type Config struct {
	Viewport  ViewportConfig `toml:"viewport" yaml:"viewport"`
	Render    RenderConfig   `toml:"render" yaml:"render"`
	Bloom     BloomConfig    `toml:"bloom" yaml:"bloom"`
	Camera    CameraConfig   `toml:"camera" yaml:"camera"`
	Lights    LightsConfig   `toml:"lights" yaml:"lights"`
	Fan       FanConfig      `toml:"fan" yaml:"fan"`
	Particles ParticleConfig `toml:"particles" yaml:"particles"`
	Animation Params         `toml:"animation" yaml:"animation"`
}

// ViewportConfig is the initial viewport size.
type ViewportConfig struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`
}

// RenderConfig configures the render pipeline and host.
type RenderConfig struct {
	Scale      float64 `toml:"scale" yaml:"scale"`
	Exposure   float64 `toml:"exposure" yaml:"exposure"`
	Background uint32  `toml:"background" yaml:"background"`
	Debug      bool    `toml:"debug" yaml:"debug"`
	// ScreenshotDir is where screenshots are written.
	ScreenshotDir string `toml:"screenshot_dir" yaml:"screenshot_dir"`
	// ExportDir is where the host writes exported documents.
	ExportDir string `toml:"export_dir" yaml:"export_dir"`
}

// BloomConfig configures the bloom pass.
type BloomConfig struct {
	Strength  float64 `toml:"strength" yaml:"strength"`
	Radius    float64 `toml:"radius" yaml:"radius"`
	Threshold float64 `toml:"threshold" yaml:"threshold"`
	Levels    int     `toml:"levels" yaml:"levels"`
}

// CameraConfig configures the perspective camera.
type CameraConfig struct {
	FOV      float64    `toml:"fov" yaml:"fov"`
	Near     float64    `toml:"near" yaml:"near"`
	Far      float64    `toml:"far" yaml:"far"`
	Position [3]float64 `toml:"position" yaml:"position"`
}

// LightConfig describes one light. Position is only used by directional lights.
type LightConfig struct {
	Color     uint32     `toml:"color" yaml:"color"`
	Intensity float64    `toml:"intensity" yaml:"intensity"`
	Position  [3]float64 `toml:"position" yaml:"position"`
}

// LightsConfig holds the ambient light and the two directional lights.
type LightsConfig struct {
	Ambient LightConfig `toml:"ambient" yaml:"ambient"`
	Key     LightConfig `toml:"key" yaml:"key"`
	Fill    LightConfig `toml:"fill" yaml:"fill"`
}

// MaterialConfig is the config form of a standard material.
type MaterialConfig struct {
	Color             uint32  `toml:"color" yaml:"color"`
	Roughness         float64 `toml:"roughness" yaml:"roughness"`
	Metalness         float64 `toml:"metalness" yaml:"metalness"`
	Emissive          uint32  `toml:"emissive" yaml:"emissive"`
	EmissiveIntensity float64 `toml:"emissive_intensity" yaml:"emissive_intensity"`
}

func (m MaterialConfig) material(name string) *Material {
	mat := NewStandardMaterial(name, ColorHex(m.Color), m.Roughness, m.Metalness)
	mat.Emissive = ColorHex(m.Emissive)
	mat.EmissiveIntensity = m.EmissiveIntensity
	return mat
}

// FanConfig is the procedural fan recipe.
type FanConfig struct {
	FrameSide      float64 `toml:"frame_side" yaml:"frame_side"`
	HoleRadius     float64 `toml:"hole_radius" yaml:"hole_radius"`
	HoleSegments   int     `toml:"hole_segments" yaml:"hole_segments"`
	Depth          float64 `toml:"depth" yaml:"depth"`
	BevelThickness float64 `toml:"bevel_thickness" yaml:"bevel_thickness"`
	BevelSize      float64 `toml:"bevel_size" yaml:"bevel_size"`
	BevelSegments  int     `toml:"bevel_segments" yaml:"bevel_segments"`

	StrutWidth  float64 `toml:"strut_width" yaml:"strut_width"`
	StrutLength float64 `toml:"strut_length" yaml:"strut_length"`

	HubRadius   float64 `toml:"hub_radius" yaml:"hub_radius"`
	HubHeight   float64 `toml:"hub_height" yaml:"hub_height"`
	HubSegments int     `toml:"hub_segments" yaml:"hub_segments"`

	StickerRadius   float64 `toml:"sticker_radius" yaml:"sticker_radius"`
	StickerSegments int     `toml:"sticker_segments" yaml:"sticker_segments"`
	StickerGap      float64 `toml:"sticker_gap" yaml:"sticker_gap"`

	BladeCount     int     `toml:"blade_count" yaml:"blade_count"`
	BladeWidth     float64 `toml:"blade_width" yaml:"blade_width"`
	BladeLength    float64 `toml:"blade_length" yaml:"blade_length"`
	BladeThickness float64 `toml:"blade_thickness" yaml:"blade_thickness"`
	BladeTilt      float64 `toml:"blade_tilt" yaml:"blade_tilt"`

	Position [3]float64 `toml:"position" yaml:"position"`
	Rotation [3]float64 `toml:"rotation" yaml:"rotation"`

	FrameMaterial   MaterialConfig `toml:"frame_material" yaml:"frame_material"`
	HubMaterial     MaterialConfig `toml:"hub_material" yaml:"hub_material"`
	StickerMaterial MaterialConfig `toml:"sticker_material" yaml:"sticker_material"`
	BladeMaterial   MaterialConfig `toml:"blade_material" yaml:"blade_material"`
}

// ParticleConfig configures the ambient point field.
type ParticleConfig struct {
	Count    int        `toml:"count" yaml:"count"`
	Spread   float64    `toml:"spread" yaml:"spread"`
	Position [3]float64 `toml:"position" yaml:"position"`
	Color    uint32     `toml:"color" yaml:"color"`
	Size     float64    `toml:"size" yaml:"size"`
	Opacity  float64    `toml:"opacity" yaml:"opacity"`
	// Seed fixes the point positions; 0 draws a random seed.
	Seed uint64 `toml:"seed" yaml:"seed"`
}

// DefaultConfig returns the reference scene configuration.
func DefaultConfig() Config {
	return Config{
		Viewport: ViewportConfig{Width: 960, Height: 540},
		Render: RenderConfig{
			Scale:         1,
			Exposure:      1,
			Background:    0x000000,
			ScreenshotDir: "screenshots",
			ExportDir:     ".",
		},
		Bloom: BloomConfig{Strength: 0.6, Radius: 0.4, Threshold: 0.85, Levels: DefaultBloomLevels},
		Camera: CameraConfig{
			FOV:      45,
			Near:     0.1,
			Far:      100,
			Position: [3]float64{0, 0, 10},
		},
		Lights: LightsConfig{
			Ambient: LightConfig{Color: 0xffffff, Intensity: 0.4},
			Key:     LightConfig{Color: 0xffffff, Intensity: 1.2, Position: [3]float64{5, 5, 5}},
			Fill:    LightConfig{Color: 0x4488ff, Intensity: 0.8, Position: [3]float64{-5, 3, -5}},
		},
		Fan: FanConfig{
			FrameSide:      7,
			HoleRadius:     3.2,
			HoleSegments:   64,
			Depth:          0.6,
			BevelThickness: 0.1,
			BevelSize:      0.1,
			BevelSegments:  3,

			StrutWidth:  0.18,
			StrutLength: 3.2,

			HubRadius:   1.1,
			HubHeight:   0.7,
			HubSegments: 48,

			StickerRadius:   0.8,
			StickerSegments: 48,
			StickerGap:      0.01,

			BladeCount:     9,
			BladeWidth:     1.1,
			BladeLength:    2.0,
			BladeThickness: 0.05,
			BladeTilt:      0.3,

			Position: [3]float64{3, -0.5, -2},
			Rotation: [3]float64{0.1, -0.4, 0},

			FrameMaterial:   MaterialConfig{Color: 0x1c1c20, Roughness: 0.4, Metalness: 0.8, EmissiveIntensity: 1},
			HubMaterial:     MaterialConfig{Color: 0x111114, Roughness: 0.5, Metalness: 0.6, EmissiveIntensity: 1},
			StickerMaterial: MaterialConfig{Color: 0x4488ff, Roughness: 0.3, Metalness: 0.2, Emissive: 0x4488ff, EmissiveIntensity: 1.5},
			BladeMaterial:   MaterialConfig{Color: 0xc8ccd4, Roughness: 0.25, Metalness: 0.7, EmissiveIntensity: 1},
		},
		Particles: ParticleConfig{
			Count:    300,
			Spread:   20,
			Position: [3]float64{0, 0, -5},
			Color:    0x88aaff,
			Size:     2,
			Opacity:  0.6,
		},
		Animation: DefaultParams(),
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	bad := func(field string, v any) error {
		return fmt.Errorf("%w: %s = %v", ErrInvalidConfig, field, v)
	}
	switch {
	case c.Viewport.Width <= 0 || c.Viewport.Width > MaxBufferDim:
		return bad("viewport.width", c.Viewport.Width)
	case c.Viewport.Height <= 0 || c.Viewport.Height > MaxBufferDim:
		return bad("viewport.height", c.Viewport.Height)
	case !(c.Render.Scale > 0) || c.Render.Scale > 2:
		return bad("render.scale", c.Render.Scale)
	case !(c.Render.Exposure > 0) || !isFinite(c.Render.Exposure):
		return bad("render.exposure", c.Render.Exposure)
	case c.Render.Background > 0xffffff:
		return bad("render.background", c.Render.Background)
	case c.Bloom.Strength < 0 || !isFinite(c.Bloom.Strength):
		return bad("bloom.strength", c.Bloom.Strength)
	case c.Bloom.Radius < 0 || c.Bloom.Radius > 1:
		return bad("bloom.radius", c.Bloom.Radius)
	case c.Bloom.Threshold < 0 || !isFinite(c.Bloom.Threshold):
		return bad("bloom.threshold", c.Bloom.Threshold)
	case c.Bloom.Levels < 1 || c.Bloom.Levels > 8:
		return bad("bloom.levels", c.Bloom.Levels)
	case !(c.Camera.FOV > 0) || c.Camera.FOV >= 180:
		return bad("camera.fov", c.Camera.FOV)
	case !(c.Camera.Near > 0) || !(c.Camera.Far > c.Camera.Near):
		return bad("camera.near/far", [2]float64{c.Camera.Near, c.Camera.Far})
	case c.Fan.BladeCount < 1:
		return bad("fan.blade_count", c.Fan.BladeCount)
	case !(c.Fan.HoleRadius < c.Fan.FrameSide/2):
		return bad("fan.hole_radius", c.Fan.HoleRadius)
	case c.Particles.Count < 0:
		return bad("particles.count", c.Particles.Count)
	case !(c.Particles.Spread > 0):
		return bad("particles.spread", c.Particles.Spread)
	case c.Particles.Size < 0 || c.Particles.Opacity < 0 || c.Particles.Opacity > 1:
		return bad("particles.size/opacity", [2]float64{c.Particles.Size, c.Particles.Opacity})
	}
	if err := c.Animation.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Decoder is implemented by the TOML and YAML stream decoders.
type Decoder interface {
	Decode(v any) error
}

// DecoderFunc creates a Decoder reading from r.
type DecoderFunc func(r io.Reader) Decoder

// NewDecoderFunc adapts a typed decoder constructor to a DecoderFunc.
func NewDecoderFunc[T Decoder](f func(r io.Reader) T) DecoderFunc {
	return func(r io.Reader) Decoder { return f(r) }
}

// decoderFor returns the decoder for a format name ("toml", "yaml" or "yml").
func decoderFor(format string) (DecoderFunc, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "toml":
		return NewDecoderFunc(toml.NewDecoder), nil
	case "yaml", "yml":
		return NewDecoderFunc(yaml.NewDecoder), nil
	}
	return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, format)
}

// ParseConfig overlays data in the given format onto DefaultConfig and
// validates the result. Keys absent from data keep their defaults.
func ParseConfig(data []byte, format string) (Config, error) {
	cfg := DefaultConfig()
	dec, err := decoderFor(format)
	if err != nil {
		return cfg, err
	}
	if err := dec(bytes.NewReader(data)).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s config: %w", format, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfig reads a .toml, .yaml or .yml file and parses it with ParseConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("load config: %w", err)
	}
	return ParseConfig(data, filepath.Ext(path))
}
