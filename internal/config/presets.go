package config

import "sort"

var Presets = map[string]*Config{
	// The mechanism used throughout the docs and tests.
	"reference": DefaultConfig(),
	// Crank from the original canvas sketch, closed with a rocker that
	// reaches it through a full turn.
	"sketch": {
		Crank: CrankConfig{X: -200, Y: -100, Length: 134, RPM: 10},
		Fixed: FixedConfig{X: 90, Y: -30, Length: 260},
		Link:  LinkConfig{Length: 180},
		Trace: TraceConfig{FPS: 60, Duration: 6, Branch: "nearest"},
	},
	"crank-rocker": {
		Crank: CrankConfig{X: 0, Y: 0, Length: 20, RPM: 30},
		Fixed: FixedConfig{X: 100, Y: 0, Length: 80},
		Link:  LinkConfig{Length: 90},
		Trace: TraceConfig{FPS: 60, Duration: 2, Branch: "plus"},
	},
	// Fully extends once per turn: the span touches fixed+link at angle π.
	"toggle": {
		Crank: CrankConfig{X: 0, Y: 0, Length: 20, RPM: 20},
		Fixed: FixedConfig{X: 100, Y: 0, Length: 60},
		Link:  LinkConfig{Length: 60},
		Trace: TraceConfig{FPS: 120, Duration: 3, Branch: "nearest"},
	},
	"reverse": {
		Crank: CrankConfig{X: -100, Y: -100, Length: 120, RPM: -15},
		Fixed: FixedConfig{X: 100, Y: 20, Length: 200},
		Link:  LinkConfig{Length: 170},
		Trace: TraceConfig{FPS: 60, Duration: 4, Branch: "minus"},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
