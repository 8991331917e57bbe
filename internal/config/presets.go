package config

import "sort"

// Presets are complete configurations built on the defaults.
var Presets = map[string]*Config{
	"classic": preset(func(c *Config) {}),
	"double": preset(func(c *Config) {
		c.LeftCount = 2
	}),
	"triple": preset(func(c *Config) {
		c.Balls = 7
		c.LeftCount = 3
	}),
	"split": preset(func(c *Config) {
		c.UseRight, c.RightCount = true, 1
	}),
	"symmetric": preset(func(c *Config) {
		c.Balls = 9
		c.StartingDegree = 45
		c.LeftCount = 2
		c.UseRight, c.RightCount = true, 2
	}),
	"steep": preset(func(c *Config) {
		c.StartingDegree = 80
	}),
	"long": preset(func(c *Config) {
		c.Balls = 11
		c.StartingDegree = 60
		c.Duration = 30
	}),
	"spaced": preset(func(c *Config) {
		c.Physics.Gap = 0.05
		c.LeftCount = 2
	}),
}

func preset(apply func(*Config)) *Config {
	c := DefaultConfig()
	apply(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
