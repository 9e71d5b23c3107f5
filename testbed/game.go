// Package testbed is the example application driving the engine: a
// manifest-loaded scene with a fly camera and manifest hot reload.
package testbed

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/vireo3d/vireo/engine"
	"github.com/vireo3d/vireo/engine/assets"
	"github.com/vireo3d/vireo/engine/core"
	"github.com/vireo3d/vireo/engine/scene"
)

const sceneManifest = "scenes/default.toml"

type TestGame struct {
	*engine.Game
}

type gameState struct {
	scene   *assets.LoadedScene
	spinner *scene.Node

	statsTimer float64
}

func NewTestGame(config *engine.Config) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Config: config,
			State:  &gameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown
	return tg
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	state := g.State.(*gameState)

	if err := g.loadScene(e, state); err != nil {
		core.LogWarn("Scene manifest unusable, building the fallback scene: %s", err.Error())
		if err := g.buildFallbackScene(e, state); err != nil {
			return err
		}
	}

	e.Camera().Position = mgl32.Vec3{0, 2, 8}
	return nil
}

func (g *TestGame) loadScene(e *engine.Engine, state *gameState) error {
	loaded, err := e.Assets().LoadScene(sceneManifest)
	if err != nil {
		return err
	}
	state.scene = loaded
	state.spinner = loaded.Node("spinner")
	e.SceneRoot().AddChild(loaded.Root)
	return nil
}

// buildFallbackScene puts something on screen without any asset files:
// a floor, a row of opaque cubes and two transparent ones.
func (g *TestGame) buildFallbackScene(e *engine.Engine, state *gameState) error {
	gpu := e.Backend()

	floor := assets.GeneratePlane(20, 20, mgl32.Vec4{1, 1, 1, 1})
	floorBuffers, err := gpu.UploadMeshBuffers(floor.Indices, floor.Vertices)
	if err != nil {
		return err
	}
	grey, err := gpu.CreateColorMaterial(scene.AlphaModeOpaque, mgl32.Vec4{0.4, 0.4, 0.4, 1}, mgl32.Vec4{0, 0.9, 0, 0})
	if err != nil {
		return err
	}
	floorNode := scene.NewMeshNode(&scene.MeshAsset{
		Name: "floor",
		Surfaces: []scene.GeoSurface{{
			Count:    uint32(len(floor.Indices)),
			Bounds:   floor.Bounds,
			Material: grey,
		}},
		Buffers: floorBuffers,
	})
	floorNode.SetLocalTransform(mgl32.Translate3D(0, -1, 0))
	e.SceneRoot().AddChild(floorNode)

	cube := assets.GenerateCube(1, mgl32.Vec4{1, 1, 1, 1})
	cubeBuffers, err := gpu.UploadMeshBuffers(cube.Indices, cube.Vertices)
	if err != nil {
		return err
	}

	colors := []mgl32.Vec4{
		{0.9, 0.2, 0.2, 1},
		{0.2, 0.9, 0.2, 1},
		{0.2, 0.2, 0.9, 1},
	}
	for i, color := range colors {
		material, err := gpu.CreateColorMaterial(scene.AlphaModeOpaque, color, mgl32.Vec4{0, 0.5, 0, 0})
		if err != nil {
			return err
		}
		node := scene.NewMeshNode(&scene.MeshAsset{
			Name: fmt.Sprintf("cube-%d", i),
			Surfaces: []scene.GeoSurface{{
				Count:    uint32(len(cube.Indices)),
				Bounds:   cube.Bounds,
				Material: material,
			}},
			Buffers: cubeBuffers,
		})
		node.SetLocalTransform(mgl32.Translate3D(float32(i*2-2), 0, 0))
		e.SceneRoot().AddChild(node)
		if i == 1 {
			state.spinner = node
		}
	}

	glass, err := gpu.CreateColorMaterial(scene.AlphaModeBlend, mgl32.Vec4{0.3, 0.6, 1, 0.4}, mgl32.Vec4{0, 0.1, 0, 0})
	if err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		node := scene.NewMeshNode(&scene.MeshAsset{
			Name: fmt.Sprintf("glass-%d", i),
			Surfaces: []scene.GeoSurface{{
				Count:    uint32(len(cube.Indices)),
				Bounds:   cube.Bounds,
				Material: glass,
			}},
			Buffers: cubeBuffers,
		})
		node.SetLocalTransform(mgl32.Translate3D(float32(i*2-1), 0, 2))
		e.SceneRoot().AddChild(node)
	}
	return nil
}

func (g *TestGame) Update(e *engine.Engine, deltaTime float64) error {
	state := g.State.(*gameState)
	input := e.Input()
	camera := e.Camera()

	// Fly camera. Velocity is in camera space, the camera rotates it.
	var velocity mgl32.Vec3
	if input.IsKeyDown(core.KEY_W) {
		velocity[2] -= 1
	}
	if input.IsKeyDown(core.KEY_S) {
		velocity[2] += 1
	}
	if input.IsKeyDown(core.KEY_A) {
		velocity[0] -= 1
	}
	if input.IsKeyDown(core.KEY_D) {
		velocity[0] += 1
	}
	if input.IsKeyDown(core.KEY_E) {
		velocity[1] += 1
	}
	if input.IsKeyDown(core.KEY_Q) {
		velocity[1] -= 1
	}
	camera.Velocity = velocity

	turn := float32(1.5 * deltaTime)
	if input.IsKeyDown(core.KEY_LEFT) {
		camera.Yaw -= turn
	}
	if input.IsKeyDown(core.KEY_RIGHT) {
		camera.Yaw += turn
	}
	if input.IsKeyDown(core.KEY_UP) {
		camera.ProcessMouseDelta(0, -200*turn)
	}
	if input.IsKeyDown(core.KEY_DOWN) {
		camera.ProcessMouseDelta(0, 200*turn)
	}

	if input.IsKeyUp(core.KEY_P) && input.WasKeyDown(core.KEY_P) {
		core.LogInfo("Camera at [%.2f %.2f %.2f]", camera.Position.X(), camera.Position.Y(), camera.Position.Z())
	}

	if state.spinner != nil {
		spin := mgl32.HomogRotate3DY(float32(0.5 * deltaTime))
		state.spinner.SetLocalTransform(state.spinner.LocalTransform().Mul4(spin))
	}

	// Pick up manifest edits without blocking the frame.
	select {
	case path := <-e.Assets().Reloads():
		core.LogInfo("Manifest %s changed, reloading scene.", path)
		g.reloadScene(e, state)
	default:
	}

	state.statsTimer += deltaTime
	if state.statsTimer >= 5 {
		state.statsTimer = 0
		fps, frameMS := e.Metrics().Frame()
		frame := e.Metrics().LastFrame()
		core.LogInfo("%.0f fps (%.2f ms), %d draws, %d tris, %d culled",
			fps, frameMS, frame.DrawCalls, frame.Triangles, frame.CulledObjects)
	}

	return nil
}

func (g *TestGame) reloadScene(e *engine.Engine, state *gameState) {
	if state.scene == nil {
		return
	}
	old := state.scene
	if err := g.loadScene(e, state); err != nil {
		core.LogError("Scene reload failed, keeping the old scene: %s", err.Error())
		return
	}
	e.SceneRoot().RemoveChild(old.Root)
	e.Assets().UnloadScene(old)
}

func (g *TestGame) OnResize(e *engine.Engine, width, height uint32) error {
	core.LogDebug("Testbed resized to %dx%d.", width, height)
	return nil
}

func (g *TestGame) Shutdown(e *engine.Engine) error {
	state := g.State.(*gameState)
	if state.scene != nil {
		e.Assets().UnloadScene(state.scene)
		state.scene = nil
	}
	return nil
}
