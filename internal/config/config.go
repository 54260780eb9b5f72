package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Idle watcher configuration
	Idle IdleConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Query server configuration
	Query QueryConfig

	// Retention configuration
	Retention RetentionConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string // Path to SQLite database file
}

// IdleConfig holds idle detection configuration
type IdleConfig struct {
	Timeout      time.Duration // Input silence before the display counts as idle
	PollInterval time.Duration // How often the watcher samples the idle counter
	Backend      string        // "auto", "x11" or "wayland"
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file for daemon management
	LogFile string // Log destination for the detached daemon
}

// QueryConfig holds query server configuration
type QueryConfig struct {
	SocketPath     string        // Unix socket the query server listens on
	RequestTimeout time.Duration // Per-connection read/write deadline
}

// RetentionConfig holds interval retention configuration
type RetentionConfig struct {
	Keep time.Duration // Closed intervals older than this may be pruned; 0 disables
}

// Default returns a Config with sensible default values
func Default() *Config {
	uid := os.Getuid()
	return &Config{
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/plasmatrack/plasmatrack.db
		},
		Idle: IdleConfig{
			Timeout:      5000 * time.Millisecond,
			PollInterval: time.Second,
			Backend:      "auto",
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/plasmatrack-%d.pid", uid),
			LogFile: fmt.Sprintf("/tmp/plasmatrack-%d.log", uid),
		},
		Query: QueryConfig{
			SocketPath:     defaultSocketPath(uid),
			RequestTimeout: 30 * time.Second,
		},
		Retention: RetentionConfig{
			Keep: 0, // Keep everything unless asked to prune
		},
	}
}

func defaultSocketPath(uid int) string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "plasmatrack.sock")
	}
	return fmt.Sprintf("/tmp/plasmatrack-%d.sock", uid)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Idle.Timeout < 100*time.Millisecond {
		return fmt.Errorf("idle timeout (%v) must be at least 100ms", c.Idle.Timeout)
	}

	if c.Idle.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("idle poll interval (%v) must be at least 100ms", c.Idle.PollInterval)
	}

	if c.Idle.PollInterval > c.Idle.Timeout {
		return fmt.Errorf("idle poll interval (%v) cannot be greater than the idle timeout (%v)",
			c.Idle.PollInterval, c.Idle.Timeout)
	}

	switch c.Idle.Backend {
	case "auto", "x11", "wayland":
	default:
		return fmt.Errorf("idle backend must be auto, x11 or wayland, got %q", c.Idle.Backend)
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	if c.Query.SocketPath == "" {
		return fmt.Errorf("query socket path cannot be empty")
	}

	if c.Query.RequestTimeout <= 0 {
		return fmt.Errorf("query request timeout must be positive, got %v", c.Query.RequestTimeout)
	}

	if c.Retention.Keep < 0 {
		return fmt.Errorf("retention keep window cannot be negative")
	}

	return nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Idle:
    Timeout: %v
    Poll Interval: %v
    Backend: %s
  Daemon:
    PID File: %s
    Log File: %s
  Query:
    Socket: %s
    Request Timeout: %v
  Retention:
    Keep: %v`,
		c.Database.Path,
		c.Idle.Timeout,
		c.Idle.PollInterval,
		c.Idle.Backend,
		c.Daemon.PIDFile,
		c.Daemon.LogFile,
		c.Query.SocketPath,
		c.Query.RequestTimeout,
		c.Retention.Keep,
	)
}
