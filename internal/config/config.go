// Package config loads and validates the deskd configuration file. Every
// knob has a default; a missing config file yields the default config, not
// an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HTTPConfig configures the webhook/SSE server.
type HTTPConfig struct {
	// Addr is the listen address for the HTTP API.
	Addr string `yaml:"addr,omitempty"`
	// ToolTimeoutSeconds bounds a single tool call end to end, including
	// client-side execution round trips.
	ToolTimeoutSeconds int `yaml:"tool_timeout_seconds,omitempty"`
	// InterCallDelayMS is the pause between calls of one webhook batch,
	// giving the UI time to animate each mutation.
	InterCallDelayMS int `yaml:"inter_call_delay_ms,omitempty"`
	// SSEHeartbeatSeconds is the keepalive comment interval on event
	// streams.
	SSEHeartbeatSeconds int `yaml:"sse_heartbeat_seconds,omitempty"`
}

// ViewportConfig sets the headless viewport used when no client has
// reported real geometry yet.
type ViewportConfig struct {
	Width  int     `yaml:"width,omitempty"`
	Height int     `yaml:"height,omitempty"`
	DPR    float64 `yaml:"dpr,omitempty"`
}

// LayoutConfig tunes the layout engine.
type LayoutConfig struct {
	// MaxSplitDepth caps container nesting; 0 disables the guard.
	MaxSplitDepth int `yaml:"max_split_depth,omitempty"`
}

// LoggingConfig configures layout action logging.
type LoggingConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
	// Level controls logging verbosity: debug, info, warn, error.
	Level string `yaml:"level,omitempty"`
	// File is the log file path (default: ~/.local/share/deskd/actions.log).
	File      string `yaml:"file,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb,omitempty"`
	MaxFiles  int    `yaml:"max_files,omitempty"`
}

// Config is the effective daemon configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http,omitempty"`
	Viewport ViewportConfig `yaml:"viewport,omitempty"`
	Layout   LayoutConfig   `yaml:"layout,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	// SocketPath overrides the runtime-dir IPC socket location.
	SocketPath string `yaml:"socket_path,omitempty"`
}

// ValidationError reports a config value that failed validation, with the
// YAML path that produced it.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:                ":3100",
			ToolTimeoutSeconds:  15,
			InterCallDelayMS:    500,
			SSEHeartbeatSeconds: 25,
		},
		Viewport: ViewportConfig{Width: 1280, Height: 800, DPR: 1},
		Layout:   LayoutConfig{MaxSplitDepth: 6},
		Logging: LoggingConfig{
			Enabled:   true,
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
	}
}

// applyDefaults backfills zero values so partial config files work.
func (c *Config) applyDefaults() {
	def := Default()
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}
	if c.HTTP.ToolTimeoutSeconds == 0 {
		c.HTTP.ToolTimeoutSeconds = def.HTTP.ToolTimeoutSeconds
	}
	if c.HTTP.InterCallDelayMS == 0 {
		c.HTTP.InterCallDelayMS = def.HTTP.InterCallDelayMS
	}
	if c.HTTP.SSEHeartbeatSeconds == 0 {
		c.HTTP.SSEHeartbeatSeconds = def.HTTP.SSEHeartbeatSeconds
	}
	if c.Viewport.Width == 0 {
		c.Viewport.Width = def.Viewport.Width
	}
	if c.Viewport.Height == 0 {
		c.Viewport.Height = def.Viewport.Height
	}
	if c.Viewport.DPR == 0 {
		c.Viewport.DPR = def.Viewport.DPR
	}
	if c.Layout.MaxSplitDepth == 0 {
		c.Layout.MaxSplitDepth = def.Layout.MaxSplitDepth
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = def.Logging.MaxSizeMB
	}
	if c.Logging.MaxFiles == 0 {
		c.Logging.MaxFiles = def.Logging.MaxFiles
	}
}

// Validate checks the effective configuration.
func (c *Config) Validate() error {
	if c.HTTP.ToolTimeoutSeconds < 1 {
		return &ValidationError{Path: "http.tool_timeout_seconds", Message: "must be at least 1"}
	}
	if c.HTTP.InterCallDelayMS < 0 {
		return &ValidationError{Path: "http.inter_call_delay_ms", Message: "must not be negative"}
	}
	if c.HTTP.SSEHeartbeatSeconds < 1 {
		return &ValidationError{Path: "http.sse_heartbeat_seconds", Message: "must be at least 1"}
	}
	if c.Viewport.Width < 1 || c.Viewport.Height < 1 {
		return &ValidationError{Path: "viewport", Message: "width and height must be positive"}
	}
	if c.Viewport.DPR <= 0 {
		return &ValidationError{Path: "viewport.dpr", Message: "must be positive"}
	}
	if c.Layout.MaxSplitDepth < 0 {
		return &ValidationError{Path: "layout.max_split_depth", Message: "must not be negative"}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	return nil
}

// ToolTimeout returns the per-call timeout as a duration.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.HTTP.ToolTimeoutSeconds) * time.Second
}

// InterCallDelay returns the batch pacing delay as a duration.
func (c *Config) InterCallDelay() time.Duration {
	return time.Duration(c.HTTP.InterCallDelayMS) * time.Millisecond
}

// SSEHeartbeat returns the stream keepalive interval as a duration.
func (c *Config) SSEHeartbeat() time.Duration {
	return time.Duration(c.HTTP.SSEHeartbeatSeconds) * time.Second
}

// LogFilePath returns the configured action log path, defaulting under the
// user data dir.
func (c *Config) LogFilePath() (string, error) {
	if c.Logging.File != "" {
		return c.Logging.File, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "deskd", "actions.log"), nil
}
