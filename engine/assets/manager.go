// Package assets turns scene manifests and procedural geometry into
// uploaded scene graphs, and watches the asset directory so edited
// manifests can be hot-reloaded.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/vireo3d/vireo/engine/core"
	"github.com/vireo3d/vireo/engine/scene"
)

// GPU is what the asset layer needs from the renderer: geometry upload,
// deferred release and material construction. Each loaded scene gets
// its own MaterialSource so its descriptor pool-set goes away with it.
type GPU interface {
	UploadMeshBuffers(indices []uint32, vertices []scene.Vertex) (*scene.GPUMeshBuffers, error)
	ReleaseMeshBuffers(buffers *scene.GPUMeshBuffers)
	NewMaterialSource() (scene.MaterialSource, error)
	DefaultMaterialInstance() *scene.MaterialInstance
}

// LoadedScene is a built scene graph plus the GPU resources it owns.
type LoadedScene struct {
	Name string
	Path string
	Root *scene.Node

	nodes     map[string]*scene.Node
	buffers   []*scene.GPUMeshBuffers
	materials scene.MaterialSource
}

// Node looks a named node up for runtime animation.
func (ls *LoadedScene) Node(name string) *scene.Node {
	return ls.nodes[name]
}

// NodeNames lists the scene's named nodes, sorted.
func (ls *LoadedScene) NodeNames() []string {
	names := maps.Keys(ls.nodes)
	slices.Sort(names)
	return names
}

// Manager loads scenes against a GPU and watches the asset directory
// for manifest edits.
type Manager struct {
	gpu     GPU
	rootDir string

	mutex  sync.Mutex
	loaded map[string]*LoadedScene

	watcher *fsnotify.Watcher
	reloads chan string
	done    chan struct{}
}

func NewManager(gpu GPU, rootDir string) (*Manager, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		err = fmt.Errorf("creating asset watcher: %w", err)
		core.LogError(err.Error())
		return nil, err
	}

	m := &Manager{
		gpu:     gpu,
		rootDir: rootDir,
		loaded:  make(map[string]*LoadedScene),
		watcher: watcher,
		reloads: make(chan string, 16),
		done:    make(chan struct{}),
	}

	if err := m.watchRecursive(rootDir); err != nil {
		core.LogWarn("Asset directory %s not watchable: %s", rootDir, err.Error())
	}
	go m.watch()

	return m, nil
}

// Reloads delivers the path of every scene manifest changed on disk.
// The engine's game decides when to act on them; events are dropped
// when nobody drains the channel.
func (m *Manager) Reloads() <-chan string {
	return m.reloads
}

// LoadScene parses a manifest relative to the asset root and builds its
// node tree on the GPU.
func (m *Manager) LoadScene(relPath string) (*LoadedScene, error) {
	path := filepath.Join(m.rootDir, relPath)
	manifest, err := ParseManifest(path)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	ls, err := m.buildScene(manifest, path)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	m.mutex.Lock()
	m.loaded[path] = ls
	m.mutex.Unlock()

	core.LogInfo("Scene '%s' loaded: %d nodes, %d meshes.", ls.Name, len(manifest.Nodes), len(ls.buffers))
	return ls, nil
}

// UnloadScene schedules the scene's GPU buffers and its material
// pool-set for release and drops it from the registry. The node tree
// becomes invalid for drawing.
func (m *Manager) UnloadScene(ls *LoadedScene) {
	if ls == nil {
		return
	}
	for _, buffers := range ls.buffers {
		m.gpu.ReleaseMeshBuffers(buffers)
	}
	ls.buffers = nil
	if ls.materials != nil {
		ls.materials.Release()
		ls.materials = nil
	}

	m.mutex.Lock()
	delete(m.loaded, ls.Path)
	m.mutex.Unlock()

	core.LogInfo("Scene '%s' unloaded.", ls.Name)
}

// Shutdown stops the watcher. Loaded scenes are released by whoever
// owns them, normally before the renderer goes down.
func (m *Manager) Shutdown() {
	close(m.done)
}

func (m *Manager) buildScene(manifest *SceneManifest, path string) (*LoadedScene, error) {
	name := manifest.Name
	if name == "" {
		name = core.GenerateName("scene")
	}
	source, err := m.gpu.NewMaterialSource()
	if err != nil {
		return nil, fmt.Errorf("creating material pool-set for scene %q: %w", name, err)
	}
	ls := &LoadedScene{
		Name:      name,
		Path:      path,
		Root:      scene.NewNode(),
		nodes:     make(map[string]*scene.Node),
		materials: source,
	}

	materials := make(map[string]*scene.MaterialInstance, len(manifest.Materials))
	for i := range manifest.Materials {
		mat := &manifest.Materials[i]
		mode := scene.AlphaModeOpaque
		if mat.Mode == "blend" {
			mode = scene.AlphaModeBlend
		}
		instance, err := source.CreateColorMaterial(mode, mgl32.Vec4(mat.Color), mgl32.Vec4(mat.MetalRough))
		if err != nil {
			source.Release()
			return nil, fmt.Errorf("building material %q: %w", mat.Name, err)
		}
		materials[mat.Name] = instance
	}

	// First pass creates every node, second pass parents them, so a
	// child may precede its parent in the manifest.
	built := make([]*scene.Node, len(manifest.Nodes))
	for i := range manifest.Nodes {
		nm := &manifest.Nodes[i]
		node, err := m.buildNode(nm, materials, ls)
		if err != nil {
			for _, buffers := range ls.buffers {
				m.gpu.ReleaseMeshBuffers(buffers)
			}
			source.Release()
			return nil, err
		}
		built[i] = node
		if nm.Name != "" {
			ls.nodes[nm.Name] = node
		}
	}
	for i := range manifest.Nodes {
		nm := &manifest.Nodes[i]
		parent := ls.Root
		if nm.Parent != "" {
			parent = ls.nodes[nm.Parent]
		}
		parent.AddChild(built[i])
	}

	ls.Root.RefreshTransform(mgl32.Ident4())
	return ls, nil
}

func (m *Manager) buildNode(nm *NodeManifest, materials map[string]*scene.MaterialInstance, ls *LoadedScene) (*scene.Node, error) {
	node := scene.NewNode()
	node.SetLocalTransform(composeTransform(nm))

	if nm.Mesh == "" {
		return node, nil
	}

	var geometry Geometry
	switch nm.Mesh {
	case "cube":
		geometry = GenerateCube(nm.Size, mgl32.Vec4{1, 1, 1, 1})
	case "plane":
		geometry = GeneratePlane(nm.Size, nm.Size, mgl32.Vec4{1, 1, 1, 1})
	}

	buffers, err := m.gpu.UploadMeshBuffers(geometry.Indices, geometry.Vertices)
	if err != nil {
		return nil, fmt.Errorf("uploading mesh for node %q: %w", nm.Name, err)
	}
	ls.buffers = append(ls.buffers, buffers)

	material := m.gpu.DefaultMaterialInstance()
	if nm.Material != "" {
		material = materials[nm.Material]
	}

	meshName := nm.Name
	if meshName == "" {
		meshName = core.GenerateName("mesh")
	}
	mesh := &scene.MeshAsset{
		Name: meshName,
		Surfaces: []scene.GeoSurface{{
			StartIndex: 0,
			Count:      uint32(len(geometry.Indices)),
			Bounds:     geometry.Bounds,
			Material:   material,
		}},
		Buffers: buffers,
	}

	node.Kind = scene.NodeMesh
	node.Mesh = mesh
	return node, nil
}

func composeTransform(nm *NodeManifest) mgl32.Mat4 {
	scaleVec := mgl32.Vec3(nm.Scale)
	if scaleVec == (mgl32.Vec3{}) {
		scaleVec = mgl32.Vec3{1, 1, 1}
	}

	translate := mgl32.Translate3D(nm.Position[0], nm.Position[1], nm.Position[2])
	rotate := mgl32.HomogRotate3DY(mgl32.DegToRad(nm.RotationDeg[1])).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(nm.RotationDeg[0]))).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(nm.RotationDeg[2])))
	scale := mgl32.Scale3D(scaleVec[0], scaleVec[1], scaleVec[2])

	return translate.Mul4(rotate).Mul4(scale)
}

func (m *Manager) watch() {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if event.Op&fsnotify.Create != 0 {
					m.watchRecursive(event.Name)
				}
				continue
			}
			if filepath.Ext(event.Name) != ".toml" {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				select {
				case m.reloads <- event.Name:
				default:
					core.LogWarn("Reload backlog full, dropping %s", event.Name)
				}
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("Asset watcher: %s", err.Error())

		case <-m.done:
			m.watcher.Close()
			return
		}
	}
}

func (m *Manager) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return m.watcher.Add(path)
		}
		return nil
	})
}
