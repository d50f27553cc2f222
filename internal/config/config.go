// Package config handles geobuild configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/geobuild/pkg/geodata"
)

// Config holds all geobuild settings.
type Config struct {
	Build   geodata.Settings `yaml:"build"`
	Grid    geodata.Grid     `yaml:"grid"`
	Export  ExportConfig     `yaml:"export"`
	Logging LoggingConfig    `yaml:"logging"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	Compress  bool   `yaml:"compress"` // write .l2j.zst
	Workers   int    `yaml:"workers"`  // maps built in parallel
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Build: geodata.DefaultSettings(),
		Grid:  geodata.DefaultGrid(),
		Export: ExportConfig{
			Enabled:   true,
			OutputDir: ".",
			Compress:  false,
			Workers:   1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Build.Validate(); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if c.Export.Workers < 1 {
		return fmt.Errorf("export: workers must be at least 1, got %d", c.Export.Workers)
	}
	return nil
}
