// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "muxux.yaml")
	contents := `
socket_path: /run/muxux/daemon.sock
tmux_socket: /run/muxux/tmux.sock
min_pane_share: 10
capture_interval: 5s
log_level: debug
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SocketPath != "/run/muxux/daemon.sock" {
		t.Fatalf("socket_path = %q", cfg.SocketPath)
	}
	if cfg.MinPaneShare != 10 {
		t.Fatalf("min_pane_share = %d, want 10", cfg.MinPaneShare)
	}
	if cfg.Interval() != 5*time.Second {
		t.Fatalf("capture_interval = %v, want 5s", cfg.Interval())
	}
	// Unset fields keep their defaults.
	if cfg.TmuxConfigFile != "/dev/null" {
		t.Fatalf("tmux_config = %q, want default /dev/null", cfg.TmuxConfigFile)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("explicit missing file should fail")
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "muxux.yaml")
	if err := os.WriteFile(path, []byte("min_pane_share: 7\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MinPaneShare != 7 {
		t.Fatalf("min_pane_share = %d, want 7", cfg.MinPaneShare)
	}
}

func TestLoadWithoutAnySource(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MinPaneShare != Default().MinPaneShare {
		t.Fatal("expected defaults with no config source")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty socket", func(c *Config) { c.SocketPath = "" }},
		{"empty tmux socket", func(c *Config) { c.TmuxSocketPath = "" }},
		{"share too small", func(c *Config) { c.MinPaneShare = 0 }},
		{"share too large", func(c *Config) { c.MinPaneShare = 50 }},
		{"zero interval", func(c *Config) { c.CaptureInterval = "0s" }},
		{"garbled interval", func(c *Config) { c.CaptureInterval = "soon" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate accepted a bad config")
			}
		})
	}
}

func TestJSONRoundTrips(t *testing.T) {
	encoded, err := Default().JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
		t.Fatalf("settings JSON invalid: %v", err)
	}
	if _, ok := decoded["socket_path"]; !ok {
		t.Fatal("socket_path missing from settings JSON")
	}
}
