// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

// Muxux-daemon is the long-lived layout engine process. It owns a
// dedicated tmux server (socket-scoped, never the user's personal
// one), mirrors its sessions into the registry, and serves the
// structure protocol on a unix socket for the muxux CLI and the
// desktop overlay.
//
// On startup:
//  1. Loads settings (explicit --config, then $MUXUX_CONFIG, then
//     defaults).
//  2. Performs an initial registry refresh against the tmux server.
//  3. Starts the drift monitor, which re-reads pane geometry on an
//     interval and logs external changes.
//  4. Serves protocol commands until SIGINT/SIGTERM or daemon.stop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/muxux-dev/muxux/lib/clock"
	"github.com/muxux-dev/muxux/lib/config"
	"github.com/muxux-dev/muxux/lib/executor"
	"github.com/muxux-dev/muxux/lib/parts"
	"github.com/muxux-dev/muxux/lib/registry"
	"github.com/muxux-dev/muxux/lib/service"
	"github.com/muxux-dev/muxux/lib/template"
	"github.com/muxux-dev/muxux/lib/tmux"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		socketPath string
		tmuxSocket string
	)
	pflag.StringVar(&configPath, "config", "", "settings file (default $MUXUX_CONFIG)")
	pflag.StringVar(&socketPath, "socket", "", "protocol socket path (overrides settings)")
	pflag.StringVar(&tmuxSocket, "tmux-socket", "", "tmux server socket path (overrides settings)")
	pflag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if socketPath != "" {
		cfg.SocketPath = socketPath
	}
	if tmuxSocket != "" {
		cfg.TmuxSocketPath = tmuxSocket
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	adapter := tmux.NewServer(cfg.TmuxSocketPath, cfg.TmuxConfigFile)
	reg := registry.New(adapter)
	exec := executor.New(adapter, reg, logger)
	exec.MinShare = cfg.MinPaneShare

	store, err := template.NewStore(cfg.TemplateDir)
	if err != nil {
		return err
	}
	if err := store.SeedBuiltins(); err != nil {
		return err
	}
	library, err := parts.Load(cfg.PartsFile)
	if err != nil {
		return err
	}

	// Sessions left behind by a previous daemon run are picked up
	// here; their trees rebuild from observed geometry.
	if _, err := reg.Refresh(); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}

	monitor := registry.NewMonitor(reg, cfg.Interval(), clock.Real(), logger)
	go monitor.Run(ctx)

	server := service.NewServer(cfg.SocketPath, logger)
	engine := &service.Engine{
		Executor:  exec,
		Registry:  reg,
		Agents:    registry.NewAgentSet(),
		Templates: store,
		Parts:     library,
		Config:    cfg,
		Stop:      cancel,
	}
	engine.Register(server)

	logger.Info("muxux daemon starting",
		"socket", cfg.SocketPath,
		"tmux_socket", cfg.TmuxSocketPath,
	)
	return server.Serve(ctx)
}
