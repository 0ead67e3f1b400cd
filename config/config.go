// Package config holds the patchconv settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// ResolveConfig tunes the converter.
type ResolveConfig struct {
	// Prune runs the usage analyzer on the source before matching.
	Prune bool `yaml:"prune"`
	// MaxTrials caps tried assignments, 0 for no limit.
	MaxTrials int `yaml:"max_trials" validate:"gte=0"`
	// MultiDestFallback splits a modulation group no multi destination
	// slot can take into single slots instead of rejecting the assignment.
	MultiDestFallback bool `yaml:"multi_dest_fallback"`
}

// BlofeldConfig is where sysex output is addressed.
type BlofeldConfig struct {
	DeviceID byte   `yaml:"device_id" validate:"lte=127"`
	Bank     string `yaml:"bank" validate:"omitempty,len=1,oneof=A B C D E F G H a b c d e f g h"`

	// Program must be set with a bank; the edit buffer ignores it.
	Program int `yaml:"program" validate:"required_with=Bank,gte=0,lte=128"`
}

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Resolve ResolveConfig `yaml:"resolve"`
	Blofeld BlofeldConfig `yaml:"blofeld"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfig returns the settings used when no file exists. An empty
// bank addresses the edit buffer.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Resolve: ResolveConfig{
			Prune:     true,
			MaxTrials: 10000,
		},
	}
}

// Dir returns ~/.config/patchconv.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "patchconv"), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the file at path over the defaults. An empty path means the
// default location; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Save writes c to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
