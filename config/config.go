// Package config provides configuration loading and access for the
// visualization.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Quality   QualityConfig   `yaml:"quality"`
	Links     LinksConfig     `yaml:"links"`
	Field     FieldConfig     `yaml:"field"`
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

// QualityConfig holds the adaptive controller's bounds and hysteresis
// constants. The hysteresis values are tuning choices carried over from the
// reference behavior, exposed here rather than hard-coded.
type QualityConfig struct {
	MinParticles int `yaml:"min_particles"`
	MaxParticles int `yaml:"max_particles"`
	ParticleStep int `yaml:"particle_step"`

	StabilityBand     float64 `yaml:"stability_band"`      // fps deficit treated as on-target
	FastPathDeficit   float64 `yaml:"fast_path_deficit"`   // immediate degrade threshold
	SustainedRequired int     `yaml:"sustained_required"`  // out-of-band readings before adjusting
	AdjustIntervalSec float64 `yaml:"adjust_interval_sec"` // evaluation cadence
	HistoryLen        int     `yaml:"history_len"`
	MinSamples        int     `yaml:"min_samples"`
	UpgradeDeficit    float64 `yaml:"upgrade_deficit"`
	UpgradeHeadroom   float64 `yaml:"upgrade_headroom"`
	RenderScaleStep   float64 `yaml:"render_scale_step"`
}

// LinksConfig holds the proximity graph budgets.
type LinksConfig struct {
	ConnectionDistance float64 `yaml:"connection_distance"`
	MaxPerParticle     int     `yaml:"max_per_particle"`
	ScanLimit          int     `yaml:"scan_limit"`
	MaxSegments        int     `yaml:"max_segments"`
}

// FieldConfig holds the particle volume and motion parameters.
type FieldConfig struct {
	Bounds       float64 `yaml:"bounds"` // half-extent of the cubic volume
	Speed        float64 `yaml:"speed"`
	FlowScale    float64 `yaml:"flow_scale"`
	FlowStrength float64 `yaml:"flow_strength"`
	Damping      float64 `yaml:"damping"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int  `yaml:"perf_collector_window"`
	LogReports          bool `yaml:"log_reports"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	AdjustInterval time.Duration // Quality.AdjustIntervalSec as a Duration
	Bounds32       float32       // Field.Bounds as float32
	ConnDist32     float32       // Links.ConnectionDistance as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

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
	c.Derived.AdjustInterval = time.Duration(c.Quality.AdjustIntervalSec * float64(time.Second))
	c.Derived.Bounds32 = float32(c.Field.Bounds)
	c.Derived.ConnDist32 = float32(c.Links.ConnectionDistance)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
