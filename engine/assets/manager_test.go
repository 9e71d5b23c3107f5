package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireo3d/vireo/engine/scene"
)

// fakeGPU satisfies the GPU port without a device.
type fakeGPU struct {
	uploads  int
	released []*scene.GPUMeshBuffers

	sources         []*fakeMaterialSource
	defaultMaterial *scene.MaterialInstance
}

type fakeMaterialSource struct {
	materials []scene.AlphaMode
	released  bool
	pipeline  *scene.MaterialPipeline
}

func (s *fakeMaterialSource) CreateColorMaterial(mode scene.AlphaMode, colorFactors, metalRoughFactors mgl32.Vec4) (*scene.MaterialInstance, error) {
	s.materials = append(s.materials, mode)
	return &scene.MaterialInstance{
		Pipeline:    s.pipeline,
		MaterialSet: scene.ResourceRef{ID: uint64(len(s.materials) + 10)},
		Mode:        mode,
	}, nil
}

func (s *fakeMaterialSource) Release() {
	s.released = true
}

func newFakeGPU() *fakeGPU {
	return &fakeGPU{
		defaultMaterial: &scene.MaterialInstance{
			Pipeline:    &scene.MaterialPipeline{Pipeline: scene.ResourceRef{ID: 1}, Layout: scene.ResourceRef{ID: 2}},
			MaterialSet: scene.ResourceRef{ID: 3},
		},
	}
}

func (g *fakeGPU) UploadMeshBuffers(indices []uint32, vertices []scene.Vertex) (*scene.GPUMeshBuffers, error) {
	g.uploads++
	return &scene.GPUMeshBuffers{
		IndexBuffer:  scene.ResourceRef{ID: uint64(g.uploads*2 + 100)},
		VertexBuffer: scene.ResourceRef{ID: uint64(g.uploads*2 + 101)},
	}, nil
}

func (g *fakeGPU) ReleaseMeshBuffers(buffers *scene.GPUMeshBuffers) {
	g.released = append(g.released, buffers)
}

func (g *fakeGPU) NewMaterialSource() (scene.MaterialSource, error) {
	source := &fakeMaterialSource{pipeline: g.defaultMaterial.Pipeline}
	g.sources = append(g.sources, source)
	return source, nil
}

func (g *fakeGPU) DefaultMaterialInstance() *scene.MaterialInstance {
	return g.defaultMaterial
}

func testAssetDir(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scenes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenes", "test.toml"), []byte(manifest), 0o644))
	return dir
}

const managerManifest = `
name = "managed"

[[materials]]
name = "glass"
mode = "blend"
color = [0.0, 0.0, 1.0, 0.5]

[[nodes]]
name = "pivot"
position = [0.0, 3.0, 0.0]

[[nodes]]
name = "box"
mesh = "cube"
size = 2.0
material = "glass"
parent = "pivot"
position = [1.0, 0.0, 0.0]

[[nodes]]
name = "ground"
mesh = "plane"
size = 10.0
`

func TestManagerLoadScene(t *testing.T) {
	gpu := newFakeGPU()
	m, err := NewManager(gpu, testAssetDir(t, managerManifest))
	require.NoError(t, err)
	defer m.Shutdown()

	ls, err := m.LoadScene("scenes/test.toml")
	require.NoError(t, err)

	assert.Equal(t, "managed", ls.Name)
	assert.Equal(t, 2, gpu.uploads)
	require.Len(t, gpu.sources, 1)
	assert.Equal(t, []scene.AlphaMode{scene.AlphaModeBlend}, gpu.sources[0].materials)
	assert.Equal(t, []string{"box", "ground", "pivot"}, ls.NodeNames())

	// The child hangs under its named parent and inherits its transform.
	box := ls.Node("box")
	require.NotNil(t, box)
	assert.Same(t, ls.Node("pivot"), box.Parent())
	world := box.WorldTransform()
	assert.InDelta(t, 1, world.At(0, 3), 1e-5)
	assert.InDelta(t, 3, world.At(1, 3), 1e-5)

	// A node without a material gets the default one.
	ground := ls.Node("ground")
	require.NotNil(t, ground)
	require.Equal(t, scene.NodeMesh, ground.Kind)
	assert.Same(t, gpu.defaultMaterial, ground.Mesh.Surfaces[0].Material)

	// The blend material reached the cube's surface.
	assert.Equal(t, scene.AlphaModeBlend, box.Mesh.Surfaces[0].Material.Mode)
}

func TestManagerLoadSceneBadManifest(t *testing.T) {
	gpu := newFakeGPU()
	m, err := NewManager(gpu, testAssetDir(t, "mesh = [broken"))
	require.NoError(t, err)
	defer m.Shutdown()

	_, err = m.LoadScene("scenes/test.toml")
	assert.Error(t, err)
	assert.Zero(t, gpu.uploads)
}

func TestManagerUnloadReleasesBuffers(t *testing.T) {
	gpu := newFakeGPU()
	m, err := NewManager(gpu, testAssetDir(t, managerManifest))
	require.NoError(t, err)
	defer m.Shutdown()

	ls, err := m.LoadScene("scenes/test.toml")
	require.NoError(t, err)

	m.UnloadScene(ls)
	assert.Len(t, gpu.released, 2)
	require.Len(t, gpu.sources, 1)
	assert.True(t, gpu.sources[0].released)

	// Unloading twice is harmless.
	m.UnloadScene(ls)
	assert.Len(t, gpu.released, 2)
	m.UnloadScene(nil)
}

func TestManagerReportsManifestEdits(t *testing.T) {
	gpu := newFakeGPU()
	dir := testAssetDir(t, managerManifest)
	m, err := NewManager(gpu, dir)
	require.NoError(t, err)
	defer m.Shutdown()

	path := filepath.Join(dir, "scenes", "test.toml")
	require.NoError(t, os.WriteFile(path, []byte(managerManifest+"\n# touched\n"), 0o644))

	select {
	case changed := <-m.Reloads():
		assert.Equal(t, path, changed)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload event for an edited manifest")
	}
}

func TestManagerIgnoresNonManifestFiles(t *testing.T) {
	gpu := newFakeGPU()
	dir := testAssetDir(t, managerManifest)
	m, err := NewManager(gpu, dir)
	require.NoError(t, err)
	defer m.Shutdown()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenes", "notes.txt"), []byte("hi"), 0o644))

	select {
	case changed := <-m.Reloads():
		t.Fatalf("unexpected reload event for %s", changed)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestComposeTransformDefaultsScale(t *testing.T) {
	nm := &NodeManifest{Position: [3]float32{1, 2, 3}}
	m := composeTransform(nm)

	// No scale in the manifest means identity scale, not zero.
	v := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 2, v.X(), 1e-5)
	assert.InDelta(t, 2, v.Y(), 1e-5)
	assert.InDelta(t, 3, v.Z(), 1e-5)
}

func TestComposeTransformRotation(t *testing.T) {
	nm := &NodeManifest{RotationDeg: [3]float32{0, 90, 0}, Scale: [3]float32{1, 1, 1}}
	m := composeTransform(nm)

	// Yaw by 90 degrees turns +X into -Z.
	v := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 0, v.X(), 1e-5)
	assert.InDelta(t, -1, v.Z(), 1e-5)
}

func ExampleGenerateCube() {
	cube := GenerateCube(1, mgl32.Vec4{1, 1, 1, 1})
	fmt.Println(len(cube.Vertices), len(cube.Indices))
	// Output: 24 36
}
