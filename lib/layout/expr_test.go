// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package layout

import "testing"

func TestSerialize(t *testing.T) {
	tests := []struct {
		name string
		tree *Node
		want string
	}{
		{"unoccupied pane", NewPane("%0", ""), ""},
		{"occupied pane", NewPane("%0", "pm"), "pm"},
		{"row with percents", NewRow(
			Entry{Node: NewPane("", "editor"), Proportion: Pct(60)},
			Entry{Node: NewPane("", "logs"), Proportion: Pct(40)},
		), "ROW(editor 60%, logs 40%)"},
		{"implicit proportions", NewRow(
			Entry{Node: NewPane("", "a")},
			Entry{Node: NewPane("", "b")},
		), "ROW(a, b)"},
		{"nested", NewCol(
			Entry{Node: NewPane("", "pm"), Proportion: Pct(30)},
			Entry{Node: NewRow(
				Entry{Node: NewPane("", "worker")},
				Entry{Node: NewPane("", "worker")},
			), Proportion: Pct(70)},
		), "COL(pm 30%, ROW(worker, worker) 70%)"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Serialize(test.tree); got != test.want {
				t.Fatalf("Serialize = %q, want %q", got, test.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		check func(t *testing.T, n *Node)
	}{
		{"ROW(a, b)", func(t *testing.T, n *Node) {
			if n.Kind != KindRow || len(n.Children) != 2 {
				t.Fatalf("got %v", n)
			}
			if n.Children[0].Proportion != nil {
				t.Fatal("expected implicit proportion")
			}
		}},
		{"COL(remote 70%, worker 30%)", func(t *testing.T, n *Node) {
			if n.Kind != KindCol {
				t.Fatalf("kind = %q", n.Kind)
			}
			if *n.Children[0].Proportion != 70 || *n.Children[1].Proportion != 30 {
				t.Fatalf("proportions = %v, %v", n.Children[0].Proportion, n.Children[1].Proportion)
			}
			if n.Children[0].Node.Occupant != "remote" {
				t.Fatalf("occupant = %q", n.Children[0].Node.Occupant)
			}
		}},
		{"col(pm 30%, ROW(worker, worker) 70%)", func(t *testing.T, n *Node) {
			if n.Kind != KindCol {
				t.Fatalf("lowercase col not recognized: kind = %q", n.Kind)
			}
			inner := n.Children[1].Node
			if inner.Kind != KindRow || len(inner.Children) != 2 {
				t.Fatalf("nested row not parsed: %v", inner)
			}
		}},
		{"pm", func(t *testing.T, n *Node) {
			if !n.IsLeaf() || n.Occupant != "pm" {
				t.Fatalf("bare name: got %v", n)
			}
		}},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			node, err := Parse(test.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", test.input, err)
			}
			test.check(t, node)
		})
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		"",
		"ROW(a",
		"ROW(a,)",
		"ROW()",
		"ROW(a) trailing",
		"ROW(a 120%, b)", // proportion out of range
		"ROW(a 50% b)",   // missing comma
		"ROW(single)",    // one child violates the >=2 invariant
	}
	for _, input := range inputs {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", input)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"ROW(editor 60%, logs 40%)",
		"COL(pm 30%, ROW(worker, worker) 70%)",
		"ROW(a, b, c)",
	}
	for _, input := range inputs {
		node, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		if got := Serialize(node); got != input {
			t.Errorf("round trip of %q produced %q", input, got)
		}
	}
}
