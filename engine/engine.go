// Package engine wires the platform, renderer, asset manager and game
// hooks into one main loop.
package engine

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/vireo3d/vireo/engine/assets"
	"github.com/vireo3d/vireo/engine/core"
	"github.com/vireo3d/vireo/engine/platform"
	"github.com/vireo3d/vireo/engine/renderer"
	"github.com/vireo3d/vireo/engine/renderer/vulkan"
	"github.com/vireo3d/vireo/engine/scene"
)

type Stage uint8

const (
	EngineStageUninitialized Stage = iota
	EngineStageInitializing
	EngineStageInitialized
	EngineStageRunning
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	config       *Config
	game         *Game

	isRunning   bool
	isSuspended bool

	platform *platform.Platform
	events   *core.EventSystem
	input    *core.InputState
	clock    *core.Clock
	metrics  *core.Metrics

	backend  *vulkan.VulkanRenderer
	renderer *renderer.Renderer
	assets   *assets.Manager

	camera *scene.Camera
	root   *scene.Node

	drawContext scene.DrawContext

	width  uint32
	height uint32

	lastTime float64
}

func New(game *Game) (*Engine, error) {
	if game == nil || game.Config == nil {
		return nil, fmt.Errorf("engine needs a game with a config")
	}
	config := game.Config
	core.SetLogLevel(config.Application.LogLevel)

	events := core.NewEventSystem()
	input := core.NewInputState(events)

	camera := scene.NewCamera()
	camera.Position = mgl32.Vec3{config.Camera.Position[0], config.Camera.Position[1], config.Camera.Position[2]}
	if config.Camera.Speed > 0 {
		camera.Speed = config.Camera.Speed
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       config,
		game:         game,
		platform:     platform.New(events, input),
		events:       events,
		input:        input,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		camera:       camera,
		root:         scene.NewNode(),
		width:        config.Application.StartWidth,
		height:       config.Application.StartHeight,
		isRunning:    true,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	e.events.Register(core.EventApplicationQuit, e.onQuit)
	e.events.Register(core.EventKeyPressed, e.onKey)
	e.events.Register(core.EventResized, e.onResized)

	app := e.config.Application
	if err := e.platform.Startup(app.Name, app.StartPosX, app.StartPosY, app.StartWidth, app.StartHeight); err != nil {
		return err
	}

	fbWidth, fbHeight := e.platform.GetFramebufferSize()
	e.width, e.height = fbWidth, fbHeight

	e.backend = vulkan.New(e.platform, vulkan.RendererOptions{
		FramesInFlight:           e.config.Renderer.FramesInFlight,
		RenderScale:              e.config.Renderer.RenderScale,
		DescriptorInitialSets:    e.config.Renderer.DescriptorInitialSets,
		DescriptorMaxSetsPerPool: e.config.Renderer.DescriptorMaxSetsPerPool,
		ShaderDir:                e.config.Renderer.ShaderDir,
		Debug:                    e.config.Renderer.Debug,
	})
	if err := e.backend.Initialize(app.Name, fbWidth, fbHeight); err != nil {
		return err
	}
	e.renderer = renderer.NewRenderer(e.backend, e.config.Renderer.FramesInFlight)

	manager, err := assets.NewManager(e.backend, e.config.AssetDir)
	if err != nil {
		return err
	}
	e.assets = manager

	if e.game.FnInitialize != nil {
		if err := e.game.FnInitialize(e); err != nil {
			return err
		}
	}
	if e.game.FnOnResize != nil {
		if err := e.game.FnOnResize(e, e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		e.platform.PumpMessages()
		e.events.Pump()

		if e.isSuspended {
			// Nothing to draw, do not spin the CPU.
			time.Sleep(50 * time.Millisecond)
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		e.lastTime = currentTime

		updateStart := time.Now()
		if e.game.FnUpdate != nil {
			if err := e.game.FnUpdate(e, delta); err != nil {
				core.LogError("Game update failed, shutting down: %s", err.Error())
				e.isRunning = false
				break
			}
		}
		e.camera.Update(float32(delta))

		// Flatten the scene graph into this frame's draw context.
		e.root.RefreshTransform(mgl32.Ident4())
		e.drawContext.Reset()
		e.root.Draw(mgl32.Ident4(), &e.drawContext)
		sceneUpdateMS := float64(time.Since(updateStart)) / float64(time.Millisecond)

		drawStart := time.Now()
		packet := &renderer.RenderPacket{
			DeltaTime:      delta,
			View:           e.camera.ViewMatrix(),
			Projection:     e.projectionMatrix(),
			CameraPosition: e.camera.Position,
			Context:        &e.drawContext,
		}
		if err := e.renderer.DrawFrame(packet); err != nil {
			core.LogError("Frame draw failed, shutting down: %s", err.Error())
			e.isRunning = false
			break
		}
		drawRecordMS := float64(time.Since(drawStart)) / float64(time.Millisecond)

		stats := e.renderer.LastStats()
		e.metrics.RecordFrame(core.FrameStats{
			DrawCalls:     stats.DrawCalls,
			Triangles:     stats.Triangles,
			CulledObjects: stats.CulledObjects,
			SceneUpdateMS: sceneUpdateMS,
			DrawRecordMS:  drawRecordMS,
		})
		e.metrics.Update(delta)

		// Input state rolls over last, so WasKeyDown works all frame.
		e.input.Update()
	}

	return nil
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	if e.game.FnShutdown != nil {
		if err := e.game.FnShutdown(e); err != nil {
			core.LogError("Game shutdown failed: %s", err.Error())
		}
	}
	if e.assets != nil {
		e.assets.Shutdown()
	}
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			return err
		}
	}
	return e.platform.Shutdown()
}

// projectionMatrix builds the perspective projection for the current
// framebuffer, flipped for Vulkan's inverted Y clip space.
func (e *Engine) projectionMatrix() mgl32.Mat4 {
	aspect := float32(e.width) / float32(e.height)
	proj := mgl32.Perspective(mgl32.DegToRad(70.0), aspect, 0.1, 1000.0)
	proj.Set(1, 1, -proj.At(1, 1))
	return proj
}

func (e *Engine) Input() *core.InputState        { return e.input }
func (e *Engine) Events() *core.EventSystem      { return e.events }
func (e *Engine) Metrics() *core.Metrics         { return e.metrics }
func (e *Engine) Camera() *scene.Camera          { return e.camera }
func (e *Engine) SceneRoot() *scene.Node         { return e.root }
func (e *Engine) Assets() *assets.Manager        { return e.assets }
func (e *Engine) Backend() *vulkan.VulkanRenderer { return e.backend }

// GetFramebufferSize returns the current width and height in pixels.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onQuit(context core.EventContext) {
	core.LogInfo("Quit requested, shutting down.")
	e.isRunning = false
}

func (e *Engine) onKey(context core.EventContext) {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		return
	}
	if core.KeyCode(ke.KeyCode) == core.KEY_ESCAPE {
		e.events.Fire(core.EventContext{Type: core.EventApplicationQuit})
	}
}

func (e *Engine) onResized(context core.EventContext) {
	re, ok := context.Data.(*core.ResizeEvent)
	if !ok {
		core.LogError("wrong event payload for resize event")
		return
	}
	if re.Width == e.width && re.Height == e.height {
		return
	}
	e.width, e.height = re.Width, re.Height

	if re.Width == 0 || re.Height == 0 {
		core.LogInfo("Window minimized, suspending.")
		e.isSuspended = true
		e.renderer.RequestResize(0, 0)
		return
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming.")
		e.isSuspended = false
	}
	e.renderer.RequestResize(re.Width, re.Height)
	if e.game.FnOnResize != nil {
		if err := e.game.FnOnResize(e, re.Width, re.Height); err != nil {
			core.LogError(err.Error())
		}
	}
}
