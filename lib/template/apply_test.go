// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/muxux-dev/muxux/lib/executor"
	"github.com/muxux-dev/muxux/lib/layout"
	"github.com/muxux-dev/muxux/lib/registry"
	"github.com/muxux-dev/muxux/lib/tmux"
)

func applyHarness(t *testing.T) (*executor.Executor, *registry.Registry, *tmux.Fake) {
	t.Helper()
	fake := tmux.NewFake()
	reg := registry.New(fake)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec := executor.New(fake, reg, logger)
	if err := exec.CreateSession("work", ""); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return exec, reg, fake
}

func mustBuiltin(t *testing.T, name string) Template {
	t.Helper()
	builtins, err := Builtins()
	if err != nil {
		t.Fatalf("Builtins: %v", err)
	}
	for _, builtin := range builtins {
		if builtin.Name == name {
			return builtin
		}
	}
	t.Fatalf("builtin %q missing", name)
	return Template{}
}

func TestApplyTwoCol(t *testing.T) {
	exec, reg, _ := applyHarness(t)

	if err := Apply(exec, reg, "work", 0, mustBuiltin(t, "2-col")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	window, _ := reg.Window("work", 0)
	tree := window.Tree
	if tree.Kind != layout.KindRow || len(tree.Children) != 2 {
		t.Fatalf("tree = %s, want two-child row", tree)
	}
	if *tree.Children[0].Proportion != 50 || *tree.Children[1].Proportion != 50 {
		t.Fatalf("proportions %d/%d, want 50/50",
			*tree.Children[0].Proportion, *tree.Children[1].Proportion)
	}
}

func TestApplyThreeColShares(t *testing.T) {
	exec, reg, fake := applyHarness(t)

	if err := Apply(exec, reg, "work", 0, mustBuiltin(t, "3-col")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	window, _ := reg.Window("work", 0)
	if got := window.Tree.LeafCount(); got != 3 {
		t.Fatalf("leaf count %d, want 3", got)
	}

	sessions, err := fake.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	// 160 cells in thirds: every pane within a couple of cells of 53.
	for _, pane := range sessions[0].Windows[0].Panes {
		if pane.Width < 51 || pane.Width > 55 {
			t.Fatalf("pane width %d, want roughly a third of 160", pane.Width)
		}
	}
}

func TestApplyDashboardRoundTrip(t *testing.T) {
	exec, reg, _ := applyHarness(t)
	dashboard := mustBuiltin(t, "dashboard")

	if err := Apply(exec, reg, "work", 0, dashboard); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	window, _ := reg.Window("work", 0)

	// Capturing the applied window reproduces the template exactly:
	// same shape, proportions, and occupant placeholders.
	captured, err := Capture("dashboard", window.Tree)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !captured.Tree.Equal(dashboard.Tree) {
		t.Fatalf("captured tree %s\nwant %s", captured.Tree, dashboard.Tree)
	}
	want := []string{"main", "shell", "logs", "monitor"}
	if len(captured.Occupants) != len(want) {
		t.Fatalf("occupants %v, want %v", captured.Occupants, want)
	}
	for i := range want {
		if captured.Occupants[i] != want[i] {
			t.Fatalf("occupants %v, want %v", captured.Occupants, want)
		}
	}
}

func TestApplyRequiresSinglePane(t *testing.T) {
	exec, reg, _ := applyHarness(t)
	session, _ := reg.Session("work")
	pane := session.Windows[0].Panes[0].ID
	if _, err := exec.Split(pane, layout.AxisRow, 50); err != nil {
		t.Fatalf("Split: %v", err)
	}

	err := Apply(exec, reg, "work", 0, mustBuiltin(t, "2-col"))
	if !errors.Is(err, executor.ErrInvalidStructure) {
		t.Fatalf("error = %v, want ErrInvalidStructure", err)
	}
}

func TestApplyMissingWindow(t *testing.T) {
	exec, reg, _ := applyHarness(t)
	err := Apply(exec, reg, "work", 7, mustBuiltin(t, "2-col"))
	if !errors.Is(err, executor.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
