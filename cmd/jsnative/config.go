package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the host configuration read from a TOML file.
//
//	[log]
//	verbosity = 1
//	file = "jsnative.log"
//
//	[runtime]
//	strict-protocol = true
//	preload = ["prelude.js"]
//
//	[classes]
//	counter = true
//	greeter = false
type Config struct {
	Log     LogConfig     `toml:"log"`
	Runtime RuntimeConfig `toml:"runtime"`
	Classes ClassConfig   `toml:"classes"`
}

type LogConfig struct {
	// Verbosity is passed to commonlog: 0 errors only, 1 warnings, 2 info,
	// 3 and above debug.
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

type RuntimeConfig struct {
	StrictProtocol bool `toml:"strict-protocol"`

	// Preload scripts run before anything else. Relative paths are
	// resolved against the directory of the config file.
	Preload []string `toml:"preload"`
}

// ClassConfig selects the demo classes installed as globals.
type ClassConfig struct {
	Counter bool `toml:"counter"`
	Greeter bool `toml:"greeter"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Verbosity: 0},
		Classes: ClassConfig{
			Counter: true,
			Greeter: true,
		},
	}
}

// LoadConfig reads path over the defaults. Unknown keys are an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Log.Verbosity < 0 {
		return nil, fmt.Errorf("config %s: log.verbosity must not be negative", path)
	}

	dir := filepath.Dir(path)
	for i, p := range cfg.Runtime.Preload {
		if !filepath.IsAbs(p) {
			cfg.Runtime.Preload[i] = filepath.Join(dir, p)
		}
	}
	if cfg.Log.File != "" && !filepath.IsAbs(cfg.Log.File) {
		cfg.Log.File = filepath.Join(dir, cfg.Log.File)
	}
	return cfg, nil
}
