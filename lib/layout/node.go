// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

// Package layout implements the logical pane-arrangement model: a tree
// of horizontal and vertical splits terminating in content-bearing
// leaves. The tree is pure data — no I/O, no tmux knowledge — and all
// traversal is top-down by child-index path, so nodes own their
// children outright and carry no parent pointers.
package layout

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the three node variants.
type Kind string

const (
	// KindRow arranges children left to right.
	KindRow Kind = "row"
	// KindCol arranges children top to bottom.
	KindCol Kind = "col"
	// KindPane is a leaf that hosts content.
	KindPane Kind = "pane"
)

// Axis is a split direction. A Row node splits along AxisRow (its
// children divide the width); a Col node splits along AxisCol.
type Axis string

const (
	AxisRow Axis = "row"
	AxisCol Axis = "col"
)

// Node is one node of a layout tree. Row and Col nodes hold at least
// two children (a container with a single effective child is illegal
// and is collapsed by Collapse); Pane nodes hold an optional live pane
// binding and an optional occupant identifier.
type Node struct {
	// Kind is row, col, or pane.
	Kind Kind `json:"kind"`

	// Children is the ordered child sequence. Only set on Row/Col.
	Children []Entry `json:"children,omitempty"`

	// PaneID is the multiplexer's opaque pane handle bound to this
	// leaf (e.g., "%3"). Live trees carry it; templates do not.
	PaneID string `json:"pane_id,omitempty"`

	// Occupant names the content assigned to this leaf: an agent name,
	// a part reference, or empty for an unassigned pane.
	Occupant string `json:"occupant,omitempty"`
}

// Entry pairs a child node with its share of the parent's space.
type Entry struct {
	Node *Node `json:"node"`

	// Proportion is the child's share in percent (1-99). Nil means
	// "divide the space not claimed by explicit siblings equally".
	// Within one Children sequence the explicit proportions must sum
	// to at most 100.
	Proportion *int `json:"proportion,omitempty"`
}

// Pct returns a pointer to p, for building entries with explicit
// proportions.
func Pct(p int) *int { return &p }

// NewPane returns a leaf with the given live pane binding and occupant.
func NewPane(paneID, occupant string) *Node {
	return &Node{Kind: KindPane, PaneID: paneID, Occupant: occupant}
}

// NewRow returns a Row node over the given entries.
func NewRow(children ...Entry) *Node {
	return &Node{Kind: KindRow, Children: children}
}

// NewCol returns a Col node over the given entries.
func NewCol(children ...Entry) *Node {
	return &Node{Kind: KindCol, Children: children}
}

// Axis returns the split axis of a Row or Col node. Panes have no
// axis; calling Axis on a pane returns the zero value.
func (n *Node) Axis() Axis {
	switch n.Kind {
	case KindRow:
		return AxisRow
	case KindCol:
		return AxisCol
	}
	return ""
}

// IsLeaf reports whether n is a pane node.
func (n *Node) IsLeaf() bool { return n.Kind == KindPane }

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	copied := &Node{
		Kind:     n.Kind,
		PaneID:   n.PaneID,
		Occupant: n.Occupant,
	}
	if n.Children != nil {
		copied.Children = make([]Entry, len(n.Children))
		for i, child := range n.Children {
			copied.Children[i] = Entry{
				Node:       child.Node.Clone(),
				Proportion: clonePct(child.Proportion),
			}
		}
	}
	return copied
}

func clonePct(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Leaves returns the pane nodes of the subtree in left-to-right,
// top-to-bottom order — the order in which the multiplexer lists the
// window's physical panes.
func (n *Node) Leaves() []*Node {
	if n == nil {
		return nil
	}
	if n.IsLeaf() {
		return []*Node{n}
	}
	var leaves []*Node
	for _, child := range n.Children {
		leaves = append(leaves, child.Node.Leaves()...)
	}
	return leaves
}

// LeafCount returns the number of panes in the subtree.
func (n *Node) LeafCount() int {
	return len(n.Leaves())
}

// Occupants returns the occupant identifiers of all leaves in order,
// including empty strings for unassigned panes.
func (n *Node) Occupants() []string {
	leaves := n.Leaves()
	occupants := make([]string, len(leaves))
	for i, leaf := range leaves {
		occupants[i] = leaf.Occupant
	}
	return occupants
}

// Equal reports deep structural equality: same shape, same
// proportions, same occupants, same pane bindings.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Kind != other.Kind || n.PaneID != other.PaneID || n.Occupant != other.Occupant {
		return false
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i, child := range n.Children {
		otherChild := other.Children[i]
		if (child.Proportion == nil) != (otherChild.Proportion == nil) {
			return false
		}
		if child.Proportion != nil && *child.Proportion != *otherChild.Proportion {
			return false
		}
		if !child.Node.Equal(otherChild.Node) {
			return false
		}
	}
	return true
}

// Validate checks the tree invariants: Row/Col nodes have at least two
// children, explicit proportions within each sequence sum to at most
// 100, and every proportion is in 1..99.
func (n *Node) Validate() error {
	if n == nil {
		return fmt.Errorf("nil layout node")
	}
	switch n.Kind {
	case KindPane:
		if len(n.Children) != 0 {
			return fmt.Errorf("pane node has %d children", len(n.Children))
		}
		return nil
	case KindRow, KindCol:
		if len(n.Children) < 2 {
			return fmt.Errorf("%s node has %d children, need at least 2", n.Kind, len(n.Children))
		}
		sum := 0
		for _, child := range n.Children {
			if child.Proportion != nil {
				p := *child.Proportion
				if p < 1 || p > 99 {
					return fmt.Errorf("proportion %d out of range 1..99", p)
				}
				sum += p
			}
			if err := child.Node.Validate(); err != nil {
				return err
			}
		}
		if sum > 100 {
			return fmt.Errorf("explicit proportions sum to %d, exceeding 100", sum)
		}
		return nil
	default:
		return fmt.Errorf("unknown node kind %q", n.Kind)
	}
}

// String returns the layout expression form of the tree, useful in
// logs and error messages.
func (n *Node) String() string {
	return Serialize(n)
}

// MarshalJSONString returns the tree as a compact JSON document. Used
// by protocol handlers that return trees in string payloads.
func (n *Node) MarshalJSONString() (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("marshaling layout tree: %w", err)
	}
	return string(data), nil
}
