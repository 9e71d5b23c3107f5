package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const validManifest = `
name = "test"

[[materials]]
name = "red"
mode = "opaque"
color = [1.0, 0.0, 0.0, 1.0]

[[nodes]]
name = "cube"
mesh = "cube"
size = 1.0
material = "red"
position = [1.0, 2.0, 3.0]

[[nodes]]
name = "child"
mesh = "plane"
size = 4.0
parent = "cube"
`

func TestParseManifest(t *testing.T) {
	manifest, err := ParseManifest(writeManifest(t, validManifest))
	require.NoError(t, err)

	assert.Equal(t, "test", manifest.Name)
	require.Len(t, manifest.Materials, 1)
	assert.Equal(t, "red", manifest.Materials[0].Name)
	require.Len(t, manifest.Nodes, 2)
	assert.Equal(t, [3]float32{1, 2, 3}, manifest.Nodes[0].Position)
	assert.Equal(t, "cube", manifest.Nodes[1].Parent)
}

func TestParseManifestMissingFile(t *testing.T) {
	_, err := ParseManifest(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseManifestRejectsDuplicateMaterial(t *testing.T) {
	_, err := ParseManifest(writeManifest(t, `
[[materials]]
name = "red"
[[materials]]
name = "red"
`))
	assert.ErrorContains(t, err, "duplicate material")
}

func TestParseManifestRejectsUnknownMode(t *testing.T) {
	_, err := ParseManifest(writeManifest(t, `
[[materials]]
name = "red"
mode = "shiny"
`))
	assert.ErrorContains(t, err, "unknown mode")
}

func TestParseManifestRejectsUnknownMesh(t *testing.T) {
	_, err := ParseManifest(writeManifest(t, `
[[nodes]]
name = "thing"
mesh = "teapot"
size = 1.0
`))
	assert.ErrorContains(t, err, "unknown mesh kind")
}

func TestParseManifestRejectsMissingSize(t *testing.T) {
	_, err := ParseManifest(writeManifest(t, `
[[nodes]]
name = "thing"
mesh = "cube"
`))
	assert.ErrorContains(t, err, "positive size")
}

func TestParseManifestRejectsUnknownMaterialRef(t *testing.T) {
	_, err := ParseManifest(writeManifest(t, `
[[nodes]]
name = "thing"
mesh = "cube"
size = 1.0
material = "ghost"
`))
	assert.ErrorContains(t, err, "unknown material")
}

func TestParseManifestRejectsUnknownParent(t *testing.T) {
	_, err := ParseManifest(writeManifest(t, `
[[nodes]]
name = "thing"
parent = "ghost"
`))
	assert.ErrorContains(t, err, "unknown parent")
}
