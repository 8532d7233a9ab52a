package fanscene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 9, cfg.Fan.BladeCount)
	assert.Equal(t, 300, cfg.Particles.Count)
	assert.Equal(t, DefaultParams(), cfg.Animation)
}

func TestParseConfigTOMLOverlay(t *testing.T) {
	data := []byte(`
[viewport]
width = 1280
height = 720

[bloom]
strength = 1.2

[fan]
blade_count = 5
position = [1.0, 2.0, 3.0]

[animation]
smooth_factor = 0.25
frame_rate_independent = true
`)
	cfg, err := ParseConfig(data, "toml")
	require.NoError(t, err)

	assert.Equal(t, 1280, cfg.Viewport.Width)
	assert.Equal(t, 720, cfg.Viewport.Height)
	assert.InDelta(t, 1.2, cfg.Bloom.Strength, 1e-12)
	assert.Equal(t, 5, cfg.Fan.BladeCount)
	assert.Equal(t, [3]float64{1, 2, 3}, cfg.Fan.Position)
	assert.InDelta(t, 0.25, cfg.Animation.SmoothFactor, 1e-12)
	assert.True(t, cfg.Animation.FrameRateIndependent)

	// Untouched keys keep their defaults.
	def := DefaultConfig()
	assert.Equal(t, def.Bloom.Threshold, cfg.Bloom.Threshold)
	assert.Equal(t, def.Fan.HoleRadius, cfg.Fan.HoleRadius)
	assert.Equal(t, def.Animation.BaseSpeed, cfg.Animation.BaseSpeed)
	assert.Equal(t, def.Lights, cfg.Lights)
}

func TestParseConfigYAMLOverlay(t *testing.T) {
	data := []byte(`
camera:
  fov: 60
  position: [0, 1, 12]
particles:
  count: 50
  color: 0xff0000
render:
  scale: 0.5
  export_dir: out
`)
	cfg, err := ParseConfig(data, "yaml")
	require.NoError(t, err)

	assert.InDelta(t, 60, cfg.Camera.FOV, 1e-12)
	assert.Equal(t, [3]float64{0, 1, 12}, cfg.Camera.Position)
	assert.Equal(t, 50, cfg.Particles.Count)
	assert.Equal(t, uint32(0xff0000), cfg.Particles.Color)
	assert.InDelta(t, 0.5, cfg.Render.Scale, 1e-12)
	assert.Equal(t, "out", cfg.Render.ExportDir)
	assert.Equal(t, DefaultConfig().Camera.Near, cfg.Camera.Near)
}

func TestParseConfigEmptyKeepsDefaults(t *testing.T) {
	for _, format := range []string{"toml", "yaml", ".yml"} {
		cfg, err := ParseConfig(nil, format)
		require.NoError(t, err, format)
		assert.Equal(t, DefaultConfig(), cfg, format)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
	}{
		{"unknown format", "", "json"},
		{"toml syntax", "[viewport\nwidth = 3", "toml"},
		{"yaml syntax", "viewport: [1, 2", "yaml"},
		{"zero width", "[viewport]\nwidth = 0", "toml"},
		{"render scale", "render:\n  scale: 3", "yaml"},
		{"hole too large", "[fan]\nhole_radius = 4.0", "toml"},
		{"smooth factor", "[animation]\nsmooth_factor = 0.0", "toml"},
		{"bloom levels", "bloom:\n  levels: 0", "yaml"},
		{"camera planes", "camera:\n  near: 5\n  far: 1", "yaml"},
		{"opacity", "[particles]\nopacity = 1.5", "toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestParseConfigValidationWrapsSentinel(t *testing.T) {
	_, err := ParseConfig([]byte("[fan]\nblade_count = 0"), "toml")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte("[animation]\ncamera_ease = 2.0"), "toml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestLoadConfigByExtension(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "scene.toml")
	yamlPath := filepath.Join(dir, "scene.yml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[fan]\nblade_count = 7\n"), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte("fan:\n  blade_count: 3\n"), 0o644))

	cfg, err := LoadConfig(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Fan.BladeCount)

	cfg, err = LoadConfig(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Fan.BladeCount)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigBuildsScene(t *testing.T) {
	cfg, err := ParseConfig([]byte("fan:\n  blade_count: 4\nparticles:\n  count: 10\n  seed: 9\n"), "yaml")
	require.NoError(t, err)
	fs, err := NewFanScene(cfg)
	require.NoError(t, err)
	assert.Len(t, fs.Fan.BladeNodes, 4)
	assert.Equal(t, 10, fs.Particles.Count())
}
