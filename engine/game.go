package engine

// Game is the application the engine drives. The hooks receive the
// engine so a game can reach the camera, input, asset manager and the
// scene root without globals.
type Game struct {
	Config *Config
	State  interface{}

	FnInitialize Initialize
	FnUpdate     Update
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Initialize func(e *Engine) error
type Update func(e *Engine, deltaTime float64) error
type OnResize func(e *Engine, width, height uint32) error
type Shutdown func(e *Engine) error
