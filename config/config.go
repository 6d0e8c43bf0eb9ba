package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"physics-viewer/core"
)

const (
	DefaultWidth       = 1280
	DefaultHeight      = 720
	DefaultMaxStep     = 0.1
	DefaultMapSize     = 1024
	DefaultStiffness   = 100.0
	DefaultMaxImpulse  = 20.0
	DefaultFOV         = 0.8
	DefaultNear        = 0.01
	DefaultFar         = 100.0
	DefaultCameraSpeed = 20.0
	DefaultSkyboxSize  = 1000.0
	DefaultUIAddr      = "127.0.0.1:8089"

	// DefaultFeed lists the glTF physics samples.
	DefaultFeed = "https://raw.githubusercontent.com/eoineoineoin/glTF_Physics/master/samples/samplelist.json"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Window      WindowConfig      `yaml:"window"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Shadows     ShadowConfig      `yaml:"shadows"`
	Spring      SpringConfig      `yaml:"spring"`
	Camera      CameraConfig      `yaml:"camera"`
	Environment EnvironmentConfig `yaml:"environment"`
	Catalog     CatalogConfig     `yaml:"catalog"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
}

type PhysicsConfig struct {
	Gravity [3]float32 `yaml:"gravity"`
	// MaxStep caps the seconds a single frame may advance the simulation.
	MaxStep  float32 `yaml:"max_step"`
	PauseKey string  `yaml:"pause_key"`
}

type ShadowConfig struct {
	MapSize         int  `yaml:"map_size"`
	PoissonSampling bool `yaml:"poisson_sampling"`
}

type SpringConfig struct {
	Stiffness  float32 `yaml:"stiffness"`
	Damping    float32 `yaml:"damping"`
	MaxImpulse float32 `yaml:"max_impulse"`
	PickKey    string  `yaml:"pick_key"`
}

type CameraConfig struct {
	Position [3]float32 `yaml:"position"`
	Target   [3]float32 `yaml:"target"`
	FOV      float32    `yaml:"fov"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Speed    float32    `yaml:"speed"`
}

type EnvironmentConfig struct {
	TextureURL string     `yaml:"texture_url"`
	SkyboxSize float32    `yaml:"skybox_size"`
	SkyColor   [4]float32 `yaml:"sky_color"`
}

type CatalogConfig struct {
	Feed   string `yaml:"feed"`
	UIAddr string `yaml:"ui_addr"`
}

func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
			Title:  "Physics Viewer",
			VSync:  true,
		},
		Physics: PhysicsConfig{
			Gravity:  [3]float32{0, -9.81, 0},
			MaxStep:  DefaultMaxStep,
			PauseKey: "p",
		},
		Shadows: ShadowConfig{
			MapSize:         DefaultMapSize,
			PoissonSampling: true,
		},
		Spring: SpringConfig{
			Stiffness:  DefaultStiffness,
			MaxImpulse: DefaultMaxImpulse,
			PickKey:    "space",
		},
		Camera: CameraConfig{
			Position: [3]float32{0.1, 1.8, 1.3},
			Target:   [3]float32{-0.2, 0.8, -0.3},
			FOV:      DefaultFOV,
			Near:     DefaultNear,
			Far:      DefaultFar,
			Speed:    DefaultCameraSpeed,
		},
		Environment: EnvironmentConfig{
			SkyboxSize: DefaultSkyboxSize,
			SkyColor:   [4]float32{0.5, 0.7, 1.0, 1.0},
		},
		Catalog: CatalogConfig{
			Feed:   DefaultFeed,
			UIAddr: DefaultUIAddr,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d", c.Window.Width, c.Window.Height)
	check(finite(c.Physics.Gravity[:]...), "physics.gravity %v", c.Physics.Gravity)
	check(c.Physics.MaxStep > 0, "physics.max_step %v", c.Physics.MaxStep)
	check(c.Shadows.MapSize > 0 && c.Shadows.MapSize&(c.Shadows.MapSize-1) == 0,
		"shadows.map_size %d must be a power of two", c.Shadows.MapSize)
	check(c.Spring.Stiffness > 0, "spring.stiffness %v", c.Spring.Stiffness)
	check(c.Spring.Damping >= 0, "spring.damping %v", c.Spring.Damping)
	check(c.Spring.MaxImpulse >= 0, "spring.max_impulse %v", c.Spring.MaxImpulse)
	check(c.Camera.Near > 0 && c.Camera.Far > c.Camera.Near,
		"camera clip planes %v..%v", c.Camera.Near, c.Camera.Far)
	check(c.Camera.FOV > 0 && c.Camera.FOV < math.Pi, "camera.fov %v", c.Camera.FOV)
	check(c.Camera.Position != c.Camera.Target, "camera.target equals camera.position")
	check(c.Environment.SkyboxSize > 0, "environment.skybox_size %v", c.Environment.SkyboxSize)

	if _, ok := core.KeyByName(c.Spring.PickKey); !ok {
		errs = append(errs, fmt.Errorf("%w: spring.pick_key %q", ErrInvalid, c.Spring.PickKey))
	}
	if _, ok := core.KeyByName(c.Physics.PauseKey); !ok {
		errs = append(errs, fmt.Errorf("%w: physics.pause_key %q", ErrInvalid, c.Physics.PauseKey))
	}
	return errors.Join(errs...)
}

// PickKey returns the key code bound to picking. Validate guarantees it resolves.
func (c *Config) PickKey() int {
	k, _ := core.KeyByName(c.Spring.PickKey)
	return k
}

func (c *Config) PauseKey() int {
	k, _ := core.KeyByName(c.Physics.PauseKey)
	return k
}

func finite(vs ...float32) bool {
	for _, v := range vs {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
