// Package daemon holds the process configuration: where data lives, where
// the API binds and how often the sweep runs. This is distinct from the
// runtime-mutable Settings record (the creation window), which has its own
// store. Config is read once at startup from ~/.stakedo/config.toml and
// merged over the defaults; a missing file just means defaults.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration.
type Config struct {
	Data    DataConfig    `toml:"data"`
	API     APIConfig     `toml:"api"`
	Sweep   SweepConfig   `toml:"sweep"`
	History HistoryConfig `toml:"history"`
}

// DataConfig controls the storage location and backend.
type DataConfig struct {
	Dir     string `toml:"dir"`     // data directory (default: ~/.stakedo)
	Backend string `toml:"backend"` // "jsonl" or "sqlite" (default: jsonl)
}

// APIConfig controls the HTTP surface.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"` // expose /metrics
}

// SweepConfig controls the periodic maintenance pass.
type SweepConfig struct {
	Interval     string `toml:"interval"`      // Go duration (default: "1m")
	StartupDelay string `toml:"startup_delay"` // Go duration (default: "2s")
}

// HistoryConfig controls audit-log display.
type HistoryConfig struct {
	DisplayLimit int `toml:"display_limit"` // most recent N records (default: 500)
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Data: DataConfig{
			Dir:     DataDir(),
			Backend: "jsonl",
		},
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    7433,
			Metrics: true,
		},
		Sweep: SweepConfig{
			Interval:     "1m",
			StartupDelay: "2s",
		},
		History: HistoryConfig{
			DisplayLimit: 500,
		},
	}
}

// DataDir returns the data directory, honoring STAKEDO_HOME.
func DataDir() string {
	if env := os.Getenv("STAKEDO_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".stakedo")
}

// ConfigPath returns the config file location inside the data directory.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// Load reads the config file at path, merging it over the defaults. A
// missing file returns the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.normalized(), nil
}

// normalized fills any field the file cleared back in from the defaults.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Data.Dir == "" {
		c.Data.Dir = def.Data.Dir
	}
	if c.Data.Backend == "" {
		c.Data.Backend = def.Data.Backend
	}
	if c.API.Host == "" {
		c.API.Host = def.API.Host
	}
	if c.API.Port == 0 {
		c.API.Port = def.API.Port
	}
	if c.Sweep.Interval == "" {
		c.Sweep.Interval = def.Sweep.Interval
	}
	if c.Sweep.StartupDelay == "" {
		c.Sweep.StartupDelay = def.Sweep.StartupDelay
	}
	if c.History.DisplayLimit == 0 {
		c.History.DisplayLimit = def.History.DisplayLimit
	}
	return c
}

// SweepInterval parses the sweep interval, falling back to the default on a
// bad duration string.
func (c Config) SweepInterval() time.Duration {
	return parseDuration(c.Sweep.Interval, time.Minute)
}

// SweepStartupDelay parses the startup delay.
func (c Config) SweepStartupDelay() time.Duration {
	return parseDuration(c.Sweep.StartupDelay, 2*time.Second)
}

// Addr returns the API bind address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
