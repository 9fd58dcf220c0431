package config

import (
	"fmt"
	"os"
	"time"

	"github.com/san-kum/linkage/internal/linkage"
	"github.com/san-kum/linkage/internal/trace"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFPS      = 60
	DefaultDuration = 6.0
	DefaultBranch   = "nearest"
)

type Config struct {
	Crank CrankConfig `yaml:"crank" json:"crank"`
	Fixed FixedConfig `yaml:"fixed" json:"fixed"`
	Link  LinkConfig  `yaml:"link" json:"link"`
	Trace TraceConfig `yaml:"trace" json:"trace"`
}

type CrankConfig struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Length float64 `yaml:"length" json:"length"`
	Angle  float64 `yaml:"angle" json:"angle"`
	RPM    float64 `yaml:"rpm" json:"rpm"`
}

type FixedConfig struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Length float64 `yaml:"length" json:"length"`
}

type LinkConfig struct {
	Length float64 `yaml:"length" json:"length"`
}

type TraceConfig struct {
	FPS      int     `yaml:"fps" json:"fps"`
	Duration float64 `yaml:"duration" json:"duration"`
	Branch   string  `yaml:"branch" json:"branch"`
}

// DefaultConfig returns the reference mechanism.
func DefaultConfig() *Config {
	return &Config{
		Crank: CrankConfig{X: -100, Y: -100, Length: 120, RPM: 10},
		Fixed: FixedConfig{X: 100, Y: 20, Length: 200},
		Link:  LinkConfig{Length: 170},
		Trace: TraceConfig{
			FPS:      DefaultFPS,
			Duration: DefaultDuration,
			Branch:   DefaultBranch,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
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

// Mechanism builds and validates the linkage geometry.
func (c *Config) Mechanism() (linkage.Mechanism, error) {
	m := linkage.Mechanism{
		Crank: linkage.Crank{
			Pivot:  linkage.Point{X: c.Crank.X, Y: c.Crank.Y},
			Length: c.Crank.Length,
			Angle:  c.Crank.Angle,
			RPM:    c.Crank.RPM,
		},
		Fixed: linkage.FixedLink{
			Pivot:  linkage.Point{X: c.Fixed.X, Y: c.Fixed.Y},
			Length: c.Fixed.Length,
		},
		Link: linkage.ConnectingLink{Length: c.Link.Length},
	}
	if err := m.Validate(); err != nil {
		return linkage.Mechanism{}, fmt.Errorf("invalid mechanism: %w", err)
	}
	return m, nil
}

func (c *Config) BranchMode() (trace.BranchMode, error) {
	return trace.ParseBranchMode(c.Trace.Branch)
}

// TraceConfig converts the trace section, validating it.
func (c *Config) TraceConfig() (trace.Config, error) {
	mode, err := c.BranchMode()
	if err != nil {
		return trace.Config{}, err
	}
	tc := trace.Config{
		FPS:      c.Trace.FPS,
		Duration: time.Duration(c.Trace.Duration * float64(time.Second)),
		Branch:   mode,
	}
	if err := tc.Validate(); err != nil {
		return trace.Config{}, fmt.Errorf("invalid trace config: %w", err)
	}
	return tc, nil
}

// Clone returns a deep copy; Config holds no reference types.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
