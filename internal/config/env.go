package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration from environment variables.
// Environment variables override file and default values.
func LoadFromEnv(cfg *Config) {
	// Database configuration
	if dbPath := os.Getenv("PLASMATRACK_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Idle configuration
	if idleTimeout := os.Getenv("PLASMATRACK_IDLE_TIMEOUT"); idleTimeout != "" {
		if ms, err := strconv.Atoi(idleTimeout); err == nil && ms > 0 {
			cfg.Idle.Timeout = time.Duration(ms) * time.Millisecond
		}
	}

	if pollInterval := os.Getenv("PLASMATRACK_IDLE_POLL_INTERVAL"); pollInterval != "" {
		if ms, err := strconv.Atoi(pollInterval); err == nil && ms > 0 {
			cfg.Idle.PollInterval = time.Duration(ms) * time.Millisecond
		}
	}

	if backend := os.Getenv("PLASMATRACK_IDLE_BACKEND"); backend != "" {
		cfg.Idle.Backend = backend
	}

	// Daemon configuration
	if pidFile := os.Getenv("PLASMATRACK_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	if logFile := os.Getenv("PLASMATRACK_LOG_FILE"); logFile != "" {
		cfg.Daemon.LogFile = logFile
	}

	// Query configuration
	if socket := os.Getenv("PLASMATRACK_SOCKET"); socket != "" {
		cfg.Query.SocketPath = socket
	}

	if requestTimeout := os.Getenv("PLASMATRACK_REQUEST_TIMEOUT"); requestTimeout != "" {
		if seconds, err := strconv.Atoi(requestTimeout); err == nil && seconds > 0 {
			cfg.Query.RequestTimeout = time.Duration(seconds) * time.Second
		}
	}

	// Retention configuration
	if keepDays := os.Getenv("PLASMATRACK_RETENTION_DAYS"); keepDays != "" {
		if days, err := strconv.Atoi(keepDays); err == nil && days >= 0 {
			cfg.Retention.Keep = time.Duration(days) * 24 * time.Hour
		}
	}
}

// New creates a new Config with default values, then overlays the
// config file and environment variables, in that order.
func New() *Config {
	cfg := Default()
	if path := ConfigFilePath(); path != "" {
		// A broken config file should not silently vanish; the
		// daemon still starts with whatever could be applied.
		if err := LoadFromFile(cfg, path); err != nil {
			os.Stderr.WriteString("plasmatrack: " + err.Error() + "\n")
		}
	}
	LoadFromEnv(cfg)
	return cfg
}
