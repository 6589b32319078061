// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/muxux-dev/muxux/lib/clock"
)

// Monitor refreshes a registry on an interval and reports drift: pane
// sets changing behind the engine's back, trees rebuilt from geometry.
// The executor refreshes around every mutation it performs, so the
// monitor only ever observes changes made by something else — a human
// driving the multiplexer directly, or a pane process exiting.
type Monitor struct {
	registry *Registry
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	// OnDrift, if set, is invoked from the monitor goroutine for every
	// refresh that observed a change.
	OnDrift func(Diff)
}

// NewMonitor returns a monitor over the given registry. The clock is
// injectable so tests drive ticks deterministically.
func NewMonitor(registry *Registry, interval time.Duration, c clock.Clock, logger *slog.Logger) *Monitor {
	return &Monitor{
		registry: registry,
		interval: interval,
		clock:    c,
		logger:   logger,
	}
}

// Run refreshes on every tick until the context is cancelled. Refresh
// failures are logged and retried on the next tick; a multiplexer
// restart is drift, not a reason to stop watching.
func (m *Monitor) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		diff, err := m.registry.Refresh()
		if err != nil {
			m.logger.Warn("registry refresh failed", "error", err)
			continue
		}
		if diff.Empty() {
			continue
		}
		m.logger.Info("layout drift detected",
			"added", diff.AddedPanes,
			"removed", diff.RemovedPanes,
			"rebuilt", diff.RebuiltWindows,
			"reordered", diff.ReorderedWindows)
		if m.OnDrift != nil {
			m.OnDrift(diff)
		}
	}
}
