package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadConfigLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[application]
name = "Partial"
start_width = 1920
start_height = 1080

[renderer]
render_scale = 0.5
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Partial", config.Application.Name)
	assert.Equal(t, uint32(1920), config.Application.StartWidth)
	assert.Equal(t, float32(0.5), config.Renderer.RenderScale)

	// Everything not mentioned keeps its default.
	assert.Equal(t, 2, config.Renderer.FramesInFlight)
	assert.Equal(t, "assets/shaders", config.Renderer.ShaderDir)
	assert.Equal(t, "assets", config.AssetDir)
}

func TestLoadConfigRejectsZeroWindow(t *testing.T) {
	path := writeConfig(t, `
[application]
start_width = 0
start_height = 720
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadFramesInFlight(t *testing.T) {
	path := writeConfig(t, `
[renderer]
frames_in_flight = 5
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadRenderScale(t *testing.T) {
	path := writeConfig(t, `
[renderer]
render_scale = 1.5
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsBrokenTOML(t *testing.T) {
	path := writeConfig(t, "not valid [toml")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
