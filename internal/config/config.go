// Package config provides configuration management for the clipx agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8765
	DefaultLogLevel = "info"
	DefaultDataDir  = ".clipx"

	// Environment variable names
	EnvPort     = "CLIPX_PORT"
	EnvLogLevel = "CLIPX_LOG_LEVEL"
	EnvDataDir  = "CLIPX_DATA_DIR"
	EnvFFmpeg   = "CLIPX_FFMPEG"
	EnvFFprobe  = "CLIPX_FFPROBE"
	EnvHeadless = "CLIPX_HEADLESS"

	// Database filename
	DBFilename = "clipx.db"

	// Tool defaults; bare names are resolved on PATH by os/exec.
	DefaultFFmpeg  = "ffmpeg"
	DefaultFFprobe = "ffprobe"

	// Probe timeout in seconds
	DefaultProbeTimeout = 30
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ScratchDir() string
	FFmpegPath() string
	FFprobePath() string
	ProbeTimeout() time.Duration
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	ffmpeg   string
	ffprobe  string
	headless bool
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
		ffmpeg:   DefaultFFmpeg,
		ffprobe:  DefaultFFprobe,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if f := os.Getenv(EnvFFmpeg); f != "" {
		cfg.ffmpeg = f
	}

	if f := os.Getenv(EnvFFprobe); f != "" {
		cfg.ffprobe = f
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ScratchDir returns the base directory for per-task scratch storage
func (c *EnvConfig) ScratchDir() string {
	return filepath.Join(c.dataDir, "scratch")
}

// FFmpegPath returns the ffmpeg executable path or PATH name
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpeg
}

// FFprobePath returns the ffprobe executable path or PATH name
func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

// ProbeTimeout returns the timeout for a single ffprobe invocation
func (c *EnvConfig) ProbeTimeout() time.Duration {
	return time.Duration(DefaultProbeTimeout) * time.Second
}

// Headless reports whether the system tray should be disabled
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
