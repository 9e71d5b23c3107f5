package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/vireo3d/vireo/engine/core"
)

// ApplicationConfig is the window and logging setup.
type ApplicationConfig struct {
	Name        string `toml:"name"`
	StartPosX   uint32 `toml:"start_pos_x"`
	StartPosY   uint32 `toml:"start_pos_y"`
	StartWidth  uint32 `toml:"start_width"`
	StartHeight uint32 `toml:"start_height"`
	LogLevel    string `toml:"log_level"`
}

// RendererConfig tunes the frame loop and the descriptor allocator.
type RendererConfig struct {
	FramesInFlight int `toml:"frames_in_flight"`
	// RenderScale scales the off-screen draw resolution relative to the
	// window, in (0, 1].
	RenderScale              float32 `toml:"render_scale"`
	DescriptorInitialSets    uint32  `toml:"descriptor_initial_sets"`
	DescriptorMaxSetsPerPool uint32  `toml:"descriptor_max_sets_per_pool"`
	ShaderDir                string  `toml:"shader_dir"`
	Debug                    bool    `toml:"debug"`
}

// CameraConfig is the starting state of the fly camera.
type CameraConfig struct {
	Position [3]float32 `toml:"position"`
	Speed    float32    `toml:"speed"`
}

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Camera      CameraConfig      `toml:"camera"`
	// AssetDir is the root the asset manager watches for scene
	// manifests.
	AssetDir string `toml:"asset_dir"`
}

// DefaultConfig is what you get with no config file at all.
func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:        "Vireo Application",
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
			LogLevel:    "info",
		},
		Renderer: RendererConfig{
			FramesInFlight:           2,
			RenderScale:              1.0,
			DescriptorInitialSets:    1000,
			DescriptorMaxSetsPerPool: 4092,
			ShaderDir:                "assets/shaders",
			Debug:                    false,
		},
		Camera: CameraConfig{
			Position: [3]float32{0, 0, 5},
			Speed:    5.0,
		},
		AssetDir: "assets",
	}
}

// LoadConfig reads a TOML config, layered over the defaults so partial
// files are fine. A missing file returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		core.LogInfo("No config at %s, using defaults.", path)
		return config, nil
	}
	if err != nil {
		err = fmt.Errorf("reading config %s: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}

	if err := toml.Unmarshal(data, config); err != nil {
		err = fmt.Errorf("parsing config %s: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}

	if err := config.validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Application.StartWidth == 0 || c.Application.StartHeight == 0 {
		return fmt.Errorf("config: window size must be non-zero, got %dx%d", c.Application.StartWidth, c.Application.StartHeight)
	}
	if c.Renderer.FramesInFlight < 1 || c.Renderer.FramesInFlight > 3 {
		return fmt.Errorf("config: frames_in_flight must be 1..3, got %d", c.Renderer.FramesInFlight)
	}
	if c.Renderer.RenderScale <= 0 || c.Renderer.RenderScale > 1 {
		return fmt.Errorf("config: render_scale must be in (0, 1], got %f", c.Renderer.RenderScale)
	}
	return nil
}
