// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"testing"

	"github.com/muxux-dev/muxux/lib/layout"
)

func TestCaptureResolvesAndStrips(t *testing.T) {
	live := layout.NewRow(
		layout.Entry{Node: layout.NewPane("%0", "editor"), Proportion: layout.Pct(50)},
		layout.Entry{Node: layout.NewCol(
			layout.Entry{Node: layout.NewPane("%1", "logs")},
			layout.Entry{Node: layout.NewPane("%2", "")},
		)},
	)

	captured, err := Capture("split-view", live)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	for _, leaf := range captured.Tree.Leaves() {
		if leaf.PaneID != "" {
			t.Fatalf("pane ID %q survived capture", leaf.PaneID)
		}
	}
	// The implicit second entry resolves to the leftover share, and
	// the inner column's implicit halves become explicit.
	if *captured.Tree.Children[1].Proportion != 50 {
		t.Fatalf("outer proportion %d, want 50", *captured.Tree.Children[1].Proportion)
	}
	inner := captured.Tree.Children[1].Node
	if *inner.Children[0].Proportion != 50 || *inner.Children[1].Proportion != 50 {
		t.Fatal("inner proportions not resolved to explicit halves")
	}
	if len(captured.Occupants) != 2 || captured.Occupants[0] != "editor" || captured.Occupants[1] != "logs" {
		t.Fatalf("occupants %v, want [editor logs]", captured.Occupants)
	}
}

func TestCaptureDoesNotMutateInput(t *testing.T) {
	live := layout.NewRow(
		layout.Entry{Node: layout.NewPane("%0", "")},
		layout.Entry{Node: layout.NewPane("%1", "")},
	)
	if _, err := Capture("snap", live); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if live.Children[0].Node.PaneID != "%0" || live.Children[0].Proportion != nil {
		t.Fatal("capture mutated the live tree")
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"2-col", "my_layout", "v1.2", "A"}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}
	invalid := []string{"", ".hidden", "a/b", "a b", "über"}
	for _, name := range invalid {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) succeeded, want error", name)
		}
	}
}

func TestBuiltins(t *testing.T) {
	builtins, err := Builtins()
	if err != nil {
		t.Fatalf("Builtins: %v", err)
	}
	byName := make(map[string]Template, len(builtins))
	for _, builtin := range builtins {
		byName[builtin.Name] = builtin
	}
	for _, name := range []string{"2-col", "3-col", "2-row", "dashboard"} {
		if _, ok := byName[name]; !ok {
			t.Errorf("builtin %q missing", name)
		}
	}

	twoCol := byName["2-col"].Tree
	if twoCol.Kind != layout.KindRow || len(twoCol.Children) != 2 {
		t.Fatalf("2-col tree = %s, want two-child row", twoCol)
	}
	if *twoCol.Children[0].Proportion != 50 || *twoCol.Children[1].Proportion != 50 {
		t.Fatal("2-col proportions not 50/50")
	}

	dashboard := byName["dashboard"].Tree
	if dashboard.LeafCount() != 4 {
		t.Fatalf("dashboard has %d leaves, want 4", dashboard.LeafCount())
	}
}
