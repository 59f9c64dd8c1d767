// Package config handles configuration loading for the normal tools.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all tool settings.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Compare  CompareConfig  `yaml:"compare"`
	Bench    BenchConfig    `yaml:"bench"`
	Server   ServerConfig   `yaml:"server"`
	Generate GenerateConfig `yaml:"generate"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// CompareConfig holds settings for checking computed normals against the reference solver.
type CompareConfig struct {
	Tolerance float32 `yaml:"tolerance"` // max absolute difference per component
}

// BenchConfig holds benchmark settings.
type BenchConfig struct {
	Attempts int  `yaml:"attempts"`
	Warmup   bool `yaml:"warmup"` // one untimed call before measuring
}

// ServerConfig holds websocket host settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxMessageBytes int64         `yaml:"max_message_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
}

// GenerateConfig holds defaults for procedural meshes.
type GenerateConfig struct {
	Kind       string  `yaml:"kind"`       // plane, terrain or sphere
	Resolution int     `yaml:"resolution"` // grid cells per side, or sphere rings
	Size       float32 `yaml:"size"`
	Amplitude  float32 `yaml:"amplitude"` // terrain height scale
	Seed       int64   `yaml:"seed"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Compare: CompareConfig{
			Tolerance: 1e-4,
		},
		Bench: BenchConfig{
			Attempts: 1000,
			Warmup:   true,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8087",
			MaxMessageBytes: 64 << 20,
			ReadTimeout:     time.Minute,
			WriteTimeout:    10 * time.Second,
		},
		Generate: GenerateConfig{
			Kind:       "terrain",
			Resolution: 128,
			Size:       100,
			Amplitude:  12,
			Seed:       1,
		},
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Compare.Tolerance <= 0:
		return fmt.Errorf("%w: compare.tolerance must be positive, got %v", ErrInvalidConfig, c.Compare.Tolerance)
	case c.Bench.Attempts < 1:
		return fmt.Errorf("%w: bench.attempts must be at least 1, got %d", ErrInvalidConfig, c.Bench.Attempts)
	case c.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is empty", ErrInvalidConfig)
	case c.Server.MaxMessageBytes <= 0:
		return fmt.Errorf("%w: server.max_message_bytes must be positive, got %d", ErrInvalidConfig, c.Server.MaxMessageBytes)
	case c.Generate.Resolution < 1:
		return fmt.Errorf("%w: generate.resolution must be at least 1, got %d", ErrInvalidConfig, c.Generate.Resolution)
	case c.Generate.Size <= 0:
		return fmt.Errorf("%w: generate.size must be positive, got %v", ErrInvalidConfig, c.Generate.Size)
	}
	return nil
}
