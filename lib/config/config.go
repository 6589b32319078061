// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads engine settings. Settings come from one YAML
// file named explicitly or through MUXUX_CONFIG; there is no search
// path. A missing default-location file means defaults, a malformed
// file is an error.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the settings file when no explicit path is
// given.
const EnvConfigPath = "MUXUX_CONFIG"

// Config is the engine's settings.
type Config struct {
	// SocketPath is the unix socket the protocol server listens on.
	SocketPath string `yaml:"socket_path" json:"socket_path"`

	// TmuxSocketPath identifies the dedicated tmux server MuxUX
	// drives. Never the user's personal server.
	TmuxSocketPath string `yaml:"tmux_socket" json:"tmux_socket"`

	// TmuxConfigFile is passed to tmux on server start. The default
	// /dev/null keeps the user's ~/.tmux.conf out of engine sessions.
	TmuxConfigFile string `yaml:"tmux_config" json:"tmux_config"`

	// TemplateDir holds saved layout templates.
	TemplateDir string `yaml:"template_dir" json:"template_dir"`

	// PartsFile is the markdown parts library. Optional.
	PartsFile string `yaml:"parts_file" json:"parts_file"`

	// MinPaneShare is the smallest percentage share a resize leaves
	// any sibling.
	MinPaneShare int `yaml:"min_pane_share" json:"min_pane_share"`

	// CaptureInterval is how often the drift monitor re-reads the
	// multiplexer. A time.ParseDuration string such as "2s".
	CaptureInterval string `yaml:"capture_interval" json:"capture_interval"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Default returns the settings used when no file overrides them.
func Default() Config {
	base := stateDir()
	return Config{
		SocketPath:      filepath.Join(base, "daemon.sock"),
		TmuxSocketPath:  filepath.Join(base, "tmux.sock"),
		TmuxConfigFile:  "/dev/null",
		TemplateDir:     filepath.Join(base, "templates"),
		PartsFile:       filepath.Join(base, "parts.md"),
		MinPaneShare:    5,
		CaptureInterval: "2s",
		LogLevel:        "info",
	}
}

func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "muxux")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "muxux")
	}
	return filepath.Join(home, ".local", "state", "muxux")
}

// Load reads settings from path, or from $MUXUX_CONFIG when path is
// empty. With neither set, defaults are returned.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		if path == "" {
			return Default(), nil
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings no component can work with.
func (c Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket_path is empty")
	}
	if c.TmuxSocketPath == "" {
		return fmt.Errorf("tmux_socket is empty")
	}
	if c.MinPaneShare < 1 || c.MinPaneShare > 49 {
		return fmt.Errorf("min_pane_share %d out of range 1..49", c.MinPaneShare)
	}
	interval, err := time.ParseDuration(c.CaptureInterval)
	if err != nil {
		return fmt.Errorf("capture_interval: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("capture_interval must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not debug/info/warn/error", c.LogLevel)
	}
	return nil
}

// Interval returns the parsed capture interval. Validate guarantees
// it parses.
func (c Config) Interval() time.Duration {
	interval, err := time.ParseDuration(c.CaptureInterval)
	if err != nil {
		return 2 * time.Second
	}
	return interval
}

// SlogLevel maps LogLevel onto the slog scale. Validate guarantees
// the name is one of the four known levels.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// JSON renders the settings for the get_settings protocol reply.
func (c Config) JSON() (string, error) {
	encoded, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	return string(encoded), nil
}
