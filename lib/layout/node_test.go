// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package layout

import "testing"

// twoByOne builds Col(Row(a, b), c): two panes on top, one full-width
// pane below.
func twoByOne() *Node {
	return NewCol(
		Entry{Node: NewRow(
			Entry{Node: NewPane("%0", "editor"), Proportion: Pct(50)},
			Entry{Node: NewPane("%1", "logs"), Proportion: Pct(50)},
		), Proportion: Pct(70)},
		Entry{Node: NewPane("%2", "shell"), Proportion: Pct(30)},
	)
}

func TestLeavesOrdered(t *testing.T) {
	tree := twoByOne()
	leaves := tree.Leaves()
	if len(leaves) != 3 {
		t.Fatalf("LeafCount = %d, want 3", len(leaves))
	}
	wantIDs := []string{"%0", "%1", "%2"}
	for i, leaf := range leaves {
		if leaf.PaneID != wantIDs[i] {
			t.Errorf("leaf %d = %q, want %q", i, leaf.PaneID, wantIDs[i])
		}
	}
}

func TestOccupants(t *testing.T) {
	tree := twoByOne()
	occupants := tree.Occupants()
	want := []string{"editor", "logs", "shell"}
	for i, occupant := range occupants {
		if occupant != want[i] {
			t.Errorf("occupant %d = %q, want %q", i, occupant, want[i])
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := twoByOne()
	copied := original.Clone()
	if !original.Equal(copied) {
		t.Fatal("clone not equal to original")
	}

	copied.Children[1].Node.Occupant = "changed"
	*copied.Children[0].Proportion = 10
	if original.Children[1].Node.Occupant != "shell" {
		t.Error("mutating clone occupant leaked into original")
	}
	if *original.Children[0].Proportion != 70 {
		t.Error("mutating clone proportion leaked into original")
	}
}

func TestEqualDetectsDifferences(t *testing.T) {
	base := twoByOne()

	differentShape := NewRow(
		Entry{Node: NewPane("%0", "editor")},
		Entry{Node: NewPane("%1", "logs")},
	)
	if base.Equal(differentShape) {
		t.Error("trees of different shape reported equal")
	}

	differentProportion := twoByOne()
	*differentProportion.Children[0].Proportion = 60
	if base.Equal(differentProportion) {
		t.Error("trees with different proportions reported equal")
	}

	missingProportion := twoByOne()
	missingProportion.Children[0].Proportion = nil
	if base.Equal(missingProportion) {
		t.Error("explicit vs implicit proportion reported equal")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		tree    *Node
		wantErr bool
	}{
		{"single pane", NewPane("%0", ""), false},
		{"two-child row", NewRow(Entry{Node: NewPane("%0", "")}, Entry{Node: NewPane("%1", "")}), false},
		{"one-child row", &Node{Kind: KindRow, Children: []Entry{{Node: NewPane("%0", "")}}}, true},
		{"empty col", &Node{Kind: KindCol}, true},
		{"proportions over 100", NewRow(
			Entry{Node: NewPane("%0", ""), Proportion: Pct(60)},
			Entry{Node: NewPane("%1", ""), Proportion: Pct(60)},
		), true},
		{"proportion zero", NewRow(
			Entry{Node: NewPane("%0", ""), Proportion: Pct(0)},
			Entry{Node: NewPane("%1", "")},
		), true},
		{"pane with children", &Node{Kind: KindPane, Children: []Entry{{Node: NewPane("%0", "")}}}, true},
		{"nested valid", twoByOne(), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.tree.Validate()
			if (err != nil) != test.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}
