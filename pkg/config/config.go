// Package config holds the server configuration. Everything the
// original deployment compiled in (listen address, worker count) is an
// explicit field here so pools and servers can be built with varying
// sizes and ports.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures the server and its worker pool.
type Config struct {
	// ListenAddr is the TCP address the acceptor binds.
	ListenAddr string

	// Workers is the fixed size of the worker pool.
	Workers int

	// StaticDir holds the pages served for matched request lines.
	StaticDir string

	// SleepDelay is how long the /sleep endpoint stalls before
	// responding. It exists to exercise slow-task behavior.
	SleepDelay time.Duration

	// MetricsAddr is where the Prometheus endpoint listens. Empty
	// disables the metrics server.
	MetricsAddr string

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string
}

// fileConfig is the on-disk shape. Durations are strings parsed with
// time.ParseDuration.
type fileConfig struct {
	ListenAddr  string `yaml:"listen_addr" json:"listen_addr"`
	Workers     *int   `yaml:"workers" json:"workers"`
	StaticDir   string `yaml:"static_dir" json:"static_dir"`
	SleepDelay  string `yaml:"sleep_delay" json:"sleep_delay"`
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
}

// Default returns the configuration matching the original deployment.
func Default() Config {
	return Config{
		ListenAddr:  "127.0.0.1:7878",
		Workers:     4,
		StaticDir:   "static",
		SleepDelay:  5 * time.Second,
		MetricsAddr: "",
		LogLevel:    "info",
	}
}

// Load reads a config file, YAML or JSON by extension, on top of the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml", ".json":
		// yaml.v3 accepts JSON input too.
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension %q", ext)
	}

	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.StaticDir != "" {
		cfg.StaticDir = fc.StaticDir
	}
	if fc.SleepDelay != "" {
		d, err := time.ParseDuration(fc.SleepDelay)
		if err != nil {
			return cfg, fmt.Errorf("invalid sleep_delay %q: %w", fc.SleepDelay, err)
		}
		cfg.SleepDelay = d
	}
	if fc.MetricsAddr != "" {
		cfg.MetricsAddr = fc.MetricsAddr
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func Save(path string, cfg Config) error {
	fc := fileConfig{
		ListenAddr:  cfg.ListenAddr,
		Workers:     &cfg.Workers,
		StaticDir:   cfg.StaticDir,
		SleepDelay:  cfg.SleepDelay.String(),
		MetricsAddr: cfg.MetricsAddr,
		LogLevel:    cfg.LogLevel,
	}

	data, err := yaml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr cannot be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.StaticDir == "" {
		return fmt.Errorf("static_dir cannot be empty")
	}
	if c.SleepDelay < 0 {
		return fmt.Errorf("sleep_delay cannot be negative")
	}
	return nil
}
