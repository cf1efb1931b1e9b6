package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the queue service configuration.
type Config struct {
	Addr     string    `yaml:"addr"`
	LogLevel string    `yaml:"log_level"`
	MaxBody  string    `yaml:"max_body"`
	Faults   FaultsCfg `yaml:"faults"`
}

// FaultsCfg enables allocation failure injection for every queue.
type FaultsCfg struct {
	FailRate float64 `yaml:"fail_rate"`
	Seed     int64   `yaml:"seed"`
}

var ErrInvalid = errors.New("invalid config")

func Default() Config {
	return Config{
		Addr:     ":8080",
		LogLevel: "info",
		MaxBody:  "1M",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalid)
	}
	if c.Faults.FailRate < 0 || c.Faults.FailRate > 1 {
		return fmt.Errorf("%w: faults.fail_rate %v outside [0,1]", ErrInvalid, c.Faults.FailRate)
	}
	return nil
}
