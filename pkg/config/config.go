// Package config handles configuration for element-locator.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/element-locator/pkg/core"
)

// Environment variables that override file values.
const (
	EnvPort         = "PORT"
	EnvDevice       = "ELEMENT_LOCATOR_DEVICE"
	EnvADBPath      = "ADB_PATH"
	EnvPollInterval = "ELEMENT_LOCATOR_POLL_INTERVAL"
)

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Server settings
	Port        int    `yaml:"port"`        // HTTP port
	CORSOrigins string `yaml:"corsOrigins"` // Comma-separated allowed origins

	// Device settings
	Device       string        `yaml:"device"`       // Serial; empty means first connected device
	ADBPath      string        `yaml:"adbPath"`      // adb binary; empty means look up PATH
	PollInterval time.Duration `yaml:"pollInterval"` // Device list refresh period
	DumpRetries  int           `yaml:"dumpRetries"`  // Extra attempts when a hierarchy dump fails
	DumpDir      string        `yaml:"dumpDir"`      // Device directory for temporary dump files

	LogFile string `yaml:"logFile"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:         3001,
		CORSOrigins:  "*",
		PollInterval: 5 * time.Second,
		DumpRetries:  2,
		DumpDir:      "/sdcard",
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, core.ErrInvalidConfig.WithMessage("failed to parse " + path).WithCause(err)
	}

	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return defaults
	return Defaults(), nil
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment. Variables that are already set are kept. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with values from the environment.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("%s must be a number, got %q", EnvPort, v))
		}
		c.Port = port
	}
	if v, ok := lookup(EnvDevice); ok && v != "" {
		c.Device = v
	}
	if v, ok := lookup(EnvADBPath); ok && v != "" {
		c.ADBPath = v
	}
	if v, ok := lookup(EnvPollInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("%s must be a duration, got %q", EnvPollInterval, v))
		}
		c.PollInterval = d
	}
	return nil
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("port must be between 1 and 65535, got %d", c.Port))
	}
	if c.PollInterval <= 0 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("pollInterval must be positive, got %v", c.PollInterval))
	}
	if c.DumpRetries < 0 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("dumpRetries must not be negative, got %d", c.DumpRetries))
	}
	if c.DumpDir == "" {
		return core.ErrInvalidConfig.WithMessage("dumpDir is required")
	}
	return nil
}

// LogPath returns the configured log file, or the default under the home dir.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return DefaultLogPath()
}
