// Package config provides configuration loading and access for the simulator.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all application configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Sim       SimConfig       `yaml:"sim"`
	Assembly  AssemblyConfig  `yaml:"assembly"`
	Presets   PresetsConfig   `yaml:"presets"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds simulation world scaling.
// Entity count and canvas resolution both derive from Size so that spatial
// particle density stays roughly constant as the world grows.
type WorldConfig struct {
	Size            float64 `yaml:"size"`              // World size multiplier (1.0 = base)
	BaseEntityCount int     `yaml:"base_entity_count"` // Entities at size 1.0
	BaseCanvasDim   int     `yaml:"base_canvas_dim"`   // Canvas texture dim at size 1.0
}

// SimConfig holds simulation behavior settings.
type SimConfig struct {
	WorkgroupSize   int     `yaml:"workgroup_size"`   // Entities per dispatch group
	SensingInterval int     `yaml:"sensing_interval"` // Ticks between trail readbacks for entity sensing (windowed device)
	ProgressScale   float64 `yaml:"progress_scale"`   // Ticks for one full multi-load ring traversal at pace 1.0
	DrawSize        float64 `yaml:"draw_size"`        // Default mouse-draw stamp radius (UV units)
	DrawPower       float64 `yaml:"draw_power"`       // Default mouse-draw stamp intensity
}

// AssemblyConfig holds frame assembly (temporal supersampling) settings.
type AssemblyConfig struct {
	Samples    int     `yaml:"samples"`    // Raw frames accumulated per output frame
	Gamma      float64 `yaml:"gamma"`      // Output gamma
	Brightness float64 `yaml:"brightness"` // Global brightness multiplier pre-gamma
}

// PresetsConfig holds preset storage settings.
type PresetsConfig struct {
	Dir         string `yaml:"dir"`          // Directory for preset files
	LibraryPath string `yaml:"library_path"` // SQLite preset library ("" = in-memory)
}

// TelemetryConfig holds diagnostics and recording settings.
type TelemetryConfig struct {
	DiagRepeatLimit int     `yaml:"diag_repeat_limit"` // Max emissions per distinct diagnostic message
	StatsInterval   float64 `yaml:"stats_interval"`    // Seconds between stats log lines (0 = off)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	EntityCount int     // BaseEntityCount * Size
	CanvasDim   int     // BaseCanvasDim * sqrt(Size)
	ScreenW32   float32 // Screen.Width as float32
	ScreenH32   float32 // Screen.Height as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.World.Size <= 0 {
		c.World.Size = 1.0
	}
	c.Derived.EntityCount = int(float64(c.World.BaseEntityCount) * c.World.Size)
	c.Derived.CanvasDim = int(float64(c.World.BaseCanvasDim) * math.Sqrt(c.World.Size))
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
}

// EntityCountFor returns the entity count for an arbitrary world size.
func (c *Config) EntityCountFor(worldSize float64) int {
	return int(float64(c.World.BaseEntityCount) * worldSize)
}

// CanvasDimFor returns the canvas texture dimension for an arbitrary world size.
func (c *Config) CanvasDimFor(worldSize float64) int {
	return int(float64(c.World.BaseCanvasDim) * math.Sqrt(worldSize))
}
