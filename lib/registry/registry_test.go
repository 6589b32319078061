// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"strings"
	"testing"

	"github.com/muxux-dev/muxux/lib/layout"
	"github.com/muxux-dev/muxux/lib/tmux"
)

// newMirrored creates a fake adapter with one session holding two
// side-by-side panes, and a registry refreshed over it. Returns the
// registry, the fake, and the two pane IDs in left-to-right order.
func newMirrored(t *testing.T) (*Registry, *tmux.Fake, string, string) {
	t.Helper()
	fake := tmux.NewFake()
	if err := fake.NewSession("work", ""); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	sessions, err := fake.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	first := sessions[0].Windows[0].Panes[0].ID
	second, err := fake.SplitPane(first, layout.AxisRow, 50)
	if err != nil {
		t.Fatalf("SplitPane: %v", err)
	}

	registry := New(fake)
	if _, err := registry.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return registry, fake, first, second
}

func TestRefreshMirrorsSessions(t *testing.T) {
	registry, _, first, second := newMirrored(t)

	session, ok := registry.Session("work")
	if !ok {
		t.Fatal("session not mirrored")
	}
	if len(session.Windows) != 1 {
		t.Fatalf("%d windows, want 1", len(session.Windows))
	}
	window := session.Windows[0]
	if len(window.Panes) != 2 {
		t.Fatalf("%d panes, want 2", len(window.Panes))
	}
	if window.Panes[0].ID != first || window.Panes[1].ID != second {
		t.Fatalf("pane order %s,%s, want %s,%s",
			window.Panes[0].ID, window.Panes[1].ID, first, second)
	}
	if window.Tree == nil || window.Tree.Kind != layout.KindRow {
		t.Fatalf("tree = %v, want row", window.Tree)
	}
}

func TestRefreshReportsFirstObservationAsAdded(t *testing.T) {
	fake := tmux.NewFake()
	if err := fake.NewSession("work", ""); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	registry := New(fake)
	diff, err := registry.Refresh()
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(diff.AddedPanes) != 1 {
		t.Fatalf("added = %v, want one pane", diff.AddedPanes)
	}
}

func TestRefreshKeepsCommittedTree(t *testing.T) {
	registry, _, first, second := newMirrored(t)

	// Commit a tree with explicit proportions that geometry alone
	// would not reproduce exactly.
	authored := layout.NewRow(
		layout.Entry{Node: layout.NewPane(first, ""), Proportion: layout.Pct(49)},
		layout.Entry{Node: layout.NewPane(second, ""), Proportion: layout.Pct(51)},
	)
	if err := registry.SetTree("work", 0, authored); err != nil {
		t.Fatalf("SetTree: %v", err)
	}

	diff, err := registry.Refresh()
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !diff.Empty() {
		t.Fatalf("diff = %+v, want empty", diff)
	}
	window, _ := registry.Window("work", 0)
	if !window.Tree.Equal(authored) {
		t.Fatalf("tree after refresh = %s, want committed tree", window.Tree)
	}
}

func TestRefreshRebuildsOnDrift(t *testing.T) {
	registry, fake, _, _ := newMirrored(t)

	if _, err := fake.InjectPane("work", 0); err != nil {
		t.Fatalf("InjectPane: %v", err)
	}
	diff, err := registry.Refresh()
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(diff.AddedPanes) != 1 {
		t.Fatalf("added = %v, want the injected pane", diff.AddedPanes)
	}
	if len(diff.RebuiltWindows) != 1 || diff.RebuiltWindows[0] != "work:0" {
		t.Fatalf("rebuilt = %v, want [work:0]", diff.RebuiltWindows)
	}
	window, _ := registry.Window("work", 0)
	if window.Tree.LeafCount() != 3 {
		t.Fatalf("rebuilt tree has %d leaves, want 3", window.Tree.LeafCount())
	}
}

func TestRefreshDetectsExternalSwap(t *testing.T) {
	registry, fake, first, second := newMirrored(t)

	// A swap behind the registry's back keeps the pane set intact but
	// moves every pane; keeping the old tree would lie about where
	// each pane sits.
	if err := fake.SwapPanes(first, second); err != nil {
		t.Fatalf("SwapPanes: %v", err)
	}
	diff, err := registry.Refresh()
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if diff.Empty() {
		t.Fatal("diff empty, want the reorder reported")
	}
	if len(diff.ReorderedWindows) != 1 || diff.ReorderedWindows[0] != "work:0" {
		t.Fatalf("reordered = %v, want [work:0]", diff.ReorderedWindows)
	}
	window, _ := registry.Window("work", 0)
	leaves := window.Tree.Leaves()
	if leaves[0].PaneID != second || leaves[1].PaneID != first {
		t.Fatalf("leaf order %s,%s after swap, want %s,%s",
			leaves[0].PaneID, leaves[1].PaneID, second, first)
	}
}

func TestRefreshReportsRemovedPanes(t *testing.T) {
	registry, fake, _, second := newMirrored(t)

	if err := fake.RemovePane(second); err != nil {
		t.Fatalf("RemovePane: %v", err)
	}
	diff, err := registry.Refresh()
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(diff.RemovedPanes) != 1 || diff.RemovedPanes[0] != second {
		t.Fatalf("removed = %v, want [%s]", diff.RemovedPanes, second)
	}
}

func TestRefreshSyncsOccupants(t *testing.T) {
	registry, fake, first, _ := newMirrored(t)

	if err := fake.SetPaneOccupant(first, "editor"); err != nil {
		t.Fatalf("SetPaneOccupant: %v", err)
	}
	if _, err := registry.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	window, _ := registry.Window("work", 0)
	if window.Tree.Leaves()[0].Occupant != "editor" {
		t.Fatal("occupant not synced onto tree leaf")
	}
}

func TestSetTreeRejectsMismatchedLeaves(t *testing.T) {
	registry, _, first, _ := newMirrored(t)

	wrong := layout.NewRow(
		layout.Entry{Node: layout.NewPane(first, "")},
		layout.Entry{Node: layout.NewPane("%99", "")},
	)
	err := registry.SetTree("work", 0, wrong)
	if err == nil || !strings.Contains(err.Error(), "do not match") {
		t.Fatalf("SetTree error = %v, want leaf mismatch", err)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	registry, _, _, _ := newMirrored(t)

	window, _ := registry.Window("work", 0)
	window.Tree.Leaves()[0].Occupant = "tampered"
	window.Panes[0].Occupant = "tampered"

	again, _ := registry.Window("work", 0)
	if again.Tree.Leaves()[0].Occupant == "tampered" ||
		again.Panes[0].Occupant == "tampered" {
		t.Fatal("mutating an accessor result leaked into the registry")
	}
}

func TestFindPane(t *testing.T) {
	registry, _, first, _ := newMirrored(t)

	session, window, ok := registry.FindPane(first)
	if !ok || session != "work" || window != 0 {
		t.Fatalf("FindPane = %q,%d,%v, want work,0,true", session, window, ok)
	}
	if _, _, ok := registry.FindPane("%404"); ok {
		t.Fatal("FindPane found a pane that does not exist")
	}
}
