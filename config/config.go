// The MIT License (MIT)
//
// Copyright (c) 2019 West Damron
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package config holds the language level and engine settings of a Resolver.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/wdamron/resolve/internal/logging"
)

// Incorporation policies
const (
	// Legacy only checks the consistency of equality bounds during incorporation and solves
	// with a two-step minimize/maximize procedure.
	Legacy = "legacy"
	// Modern runs full bound propagation and solves with the inference graph.
	Modern = "modern"
)

// Language levels at which resolution features are enabled
const (
	// Boxing and variable-arity invocation
	SourceBoxing = 5
	// Graph inference (the modern incorporation policy)
	SourceGraphInference = 8
)

// Config represents a resolver configuration file (YAML or TOML).
type Config struct {
	// Source is the language level. Below 5 only strict invocation is attempted; below 8 the
	// legacy incorporation policy is used.
	Source int `yaml:"source" toml:"source"`

	// Incorporation overrides the policy implied by Source ("legacy" or "modern").
	Incorporation string `yaml:"incorporation,omitempty" toml:"incorporation"`

	// MaxIncorporationRounds caps the incorporation fixpoint loop of a single context.
	MaxIncorporationRounds int `yaml:"max_incorporation_rounds" toml:"max_incorporation_rounds"`

	// FallbackWeight is the cost of a variable which lacks proper bounds when the solver chooses
	// which variables to instantiate first.
	FallbackWeight int `yaml:"fallback_weight" toml:"fallback_weight"`

	// LogLevel is one of silent, error, warn, verbose or trace.
	LogLevel string `yaml:"log_level,omitempty" toml:"log_level"`
}

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (cfg *Config) setDefaults() {
	if cfg.Source == 0 {
		cfg.Source = SourceGraphInference
	}
	if cfg.MaxIncorporationRounds == 0 {
		cfg.MaxIncorporationRounds = 10000
	}
	if cfg.FallbackWeight == 0 {
		cfg.FallbackWeight = 4
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = logging.LevelSilent.String()
	}
}

// Load reads a configuration file. The format is chosen by extension: .yaml/.yml or .toml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("Unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (cfg *Config) Validate() error {
	switch cfg.Incorporation {
	case "", Legacy, Modern:
	default:
		return fmt.Errorf("Unknown incorporation policy %q", cfg.Incorporation)
	}
	if cfg.Source < 1 {
		return fmt.Errorf("Invalid source level %d", cfg.Source)
	}
	if cfg.MaxIncorporationRounds < 1 {
		return fmt.Errorf("max_incorporation_rounds must be positive, found %d", cfg.MaxIncorporationRounds)
	}
	if cfg.FallbackWeight < 1 {
		return fmt.Errorf("fallback_weight must be positive, found %d", cfg.FallbackWeight)
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// Policy returns the incorporation policy in effect.
func (cfg *Config) Policy() string {
	if cfg.Incorporation != "" {
		return cfg.Incorporation
	}
	if cfg.Source < SourceGraphInference {
		return Legacy
	}
	return Modern
}

// AllowBoxing reports whether the loose and variable-arity phases are enabled.
func (cfg *Config) AllowBoxing() bool { return cfg.Source >= SourceBoxing }

// Level returns the parsed log level. Invalid names are silent.
func (cfg *Config) Level() logging.Level {
	l, _ := logging.ParseLevel(cfg.LogLevel)
	return l
}
