package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML layout. Durations are plain integers
// with the unit in the key so the file needs no custom parsing.
type fileConfig struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Idle struct {
		TimeoutMs      int    `yaml:"timeout_ms"`
		PollIntervalMs int    `yaml:"poll_interval_ms"`
		Backend        string `yaml:"backend"`
	} `yaml:"idle"`
	Daemon struct {
		PIDFile string `yaml:"pid_file"`
		LogFile string `yaml:"log_file"`
	} `yaml:"daemon"`
	Query struct {
		Socket            string `yaml:"socket"`
		RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	} `yaml:"query"`
	Retention struct {
		KeepDays int `yaml:"keep_days"`
	} `yaml:"retention"`
}

// ConfigFilePath resolves the config file location:
// PLASMATRACK_CONFIG override, then $XDG_CONFIG_HOME, then
// ~/.config/plasmatrack/config.yaml. Empty when no home is known.
func ConfigFilePath() string {
	if path := os.Getenv("PLASMATRACK_CONFIG"); path != "" {
		return path
	}
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "plasmatrack", "config.yaml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "plasmatrack", "config.yaml")
}

// LoadFromFile overlays settings from the YAML file at path onto cfg.
// A missing file is not an error; set fields override defaults and
// unset fields leave them alone.
func LoadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Database.Path != "" {
		cfg.Database.Path = fc.Database.Path
	}
	if fc.Idle.TimeoutMs > 0 {
		cfg.Idle.Timeout = time.Duration(fc.Idle.TimeoutMs) * time.Millisecond
	}
	if fc.Idle.PollIntervalMs > 0 {
		cfg.Idle.PollInterval = time.Duration(fc.Idle.PollIntervalMs) * time.Millisecond
	}
	if fc.Idle.Backend != "" {
		cfg.Idle.Backend = fc.Idle.Backend
	}
	if fc.Daemon.PIDFile != "" {
		cfg.Daemon.PIDFile = fc.Daemon.PIDFile
	}
	if fc.Daemon.LogFile != "" {
		cfg.Daemon.LogFile = fc.Daemon.LogFile
	}
	if fc.Query.Socket != "" {
		cfg.Query.SocketPath = fc.Query.Socket
	}
	if fc.Query.RequestTimeoutSec > 0 {
		cfg.Query.RequestTimeout = time.Duration(fc.Query.RequestTimeoutSec) * time.Second
	}
	if fc.Retention.KeepDays > 0 {
		cfg.Retention.Keep = time.Duration(fc.Retention.KeepDays) * 24 * time.Hour
	}

	return nil
}
