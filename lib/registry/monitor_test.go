// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/muxux-dev/muxux/lib/clock"
	"github.com/muxux-dev/muxux/lib/tmux"
)

func TestMonitorReportsDrift(t *testing.T) {
	fake := tmux.NewFake()
	if err := fake.NewSession("work", ""); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	registry := New(fake)
	if _, err := registry.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fakeClock := clock.Fake(time.Unix(0, 0))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := NewMonitor(registry, time.Second, fakeClock, logger)

	drift := make(chan Diff, 1)
	monitor.OnDrift = func(d Diff) { drift <- d }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	if _, err := fake.InjectPane("work", 0); err != nil {
		t.Fatalf("InjectPane: %v", err)
	}

	// The monitor goroutine registers its ticker asynchronously, so
	// keep advancing until a tick lands and the drift is reported.
	deadline := time.After(5 * time.Second)
	var diff Diff
waiting:
	for {
		fakeClock.Advance(time.Second)
		select {
		case diff = <-drift:
			break waiting
		case <-deadline:
			t.Fatal("timed out waiting for drift report")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if len(diff.AddedPanes) != 1 {
		t.Fatalf("drift added = %v, want one pane", diff.AddedPanes)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop on context cancel")
	}
}

func TestMonitorQuietWhenNothingChanges(t *testing.T) {
	fake := tmux.NewFake()
	if err := fake.NewSession("work", ""); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	registry := New(fake)
	if _, err := registry.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fakeClock := clock.Fake(time.Unix(0, 0))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := NewMonitor(registry, time.Second, fakeClock, logger)
	monitor.OnDrift = func(Diff) { t.Error("drift reported without change") }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	for i := 0; i < 20; i++ {
		fakeClock.Advance(time.Second)
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done
}
