package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cradle/internal/sim"
)

const (
	DefaultDt             = 1.0 / 60
	DefaultDuration       = 10.0
	DefaultBalls          = 5
	DefaultStartingDegree = 30.0
	DefaultLeftCount      = 1

	DefaultGravity      = 9.81
	DefaultMass         = 1.0
	DefaultRadius       = 0.25
	DefaultArmLength    = 1.5
	DefaultGap          = 0.0
	DefaultMaxDeltaTime = 1.0 / 30

	DefaultVolume = 0.3
)

type Config struct {
	Dt             float64       `yaml:"dt"`
	Duration       float64       `yaml:"duration"`
	Balls          int           `yaml:"balls"`
	StartingDegree float64       `yaml:"starting_degree"`
	UseLeft        bool          `yaml:"use_left"`
	LeftCount      int           `yaml:"left_count"`
	UseRight       bool          `yaml:"use_right"`
	RightCount     int           `yaml:"right_count"`
	Physics        PhysicsConfig `yaml:"physics"`
	Audio          AudioConfig   `yaml:"audio"`
}

type PhysicsConfig struct {
	Gravity      float64 `yaml:"gravity"`
	Mass         float64 `yaml:"mass"`
	Radius       float64 `yaml:"radius"`
	ArmLength    float64 `yaml:"arm_length"`
	Gap          float64 `yaml:"gap"`
	MaxDeltaTime float64 `yaml:"max_delta_time"`
}

type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`
}

func DefaultConfig() *Config {
	return &Config{
		Dt:             DefaultDt,
		Duration:       DefaultDuration,
		Balls:          DefaultBalls,
		StartingDegree: DefaultStartingDegree,
		UseLeft:        true,
		LeftCount:      DefaultLeftCount,
		Physics: PhysicsConfig{
			Gravity:      DefaultGravity,
			Mass:         DefaultMass,
			Radius:       DefaultRadius,
			ArmLength:    DefaultArmLength,
			Gap:          DefaultGap,
			MaxDeltaTime: DefaultMaxDeltaTime,
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  DefaultVolume,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
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
	if !(c.Dt > 0) {
		return &sim.ConfigError{Field: "dt", Value: c.Dt, Wrapped: sim.ErrInvalidConfig}
	}
	if !(c.Duration > 0) {
		return &sim.ConfigError{Field: "duration", Value: c.Duration, Wrapped: sim.ErrInvalidConfig}
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return &sim.ConfigError{Field: "audio.volume", Value: c.Audio.Volume, Wrapped: sim.ErrInvalidConfig}
	}
	return c.Settings().Validate()
}

// Frames is the number of fixed steps covering Duration.
func (c *Config) Frames() int {
	if c.Dt <= 0 {
		return 0
	}
	return int(c.Duration/c.Dt + 0.5)
}

func (c *Config) Settings() sim.Settings {
	return sim.Settings{
		Balls:          c.Balls,
		StartingDegree: c.StartingDegree,
		UseLeft:        c.UseLeft,
		LeftCount:      c.LeftCount,
		UseRight:       c.UseRight,
		RightCount:     c.RightCount,
		Physics: sim.Physics{
			Gravity:      c.Physics.Gravity,
			Mass:         c.Physics.Mass,
			Radius:       c.Physics.Radius,
			ArmLength:    c.Physics.ArmLength,
			Gap:          c.Physics.Gap,
			MaxDeltaTime: c.Physics.MaxDeltaTime,
		},
	}
}
