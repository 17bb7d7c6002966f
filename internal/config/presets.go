package config

import "sort"

// Presets adjust the defaults for common runs.
var Presets = map[string]func(*Config){
	"baseline": func(*Config) {},
	"fine": func(c *Config) {
		c.Dt = 0.001
	},
	"long": func(c *Config) {
		c.Params.T = 30
	},
}

// GetPreset returns a full config for the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
