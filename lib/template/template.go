// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

// Package template captures window layouts under a name and replays
// them onto fresh windows. A template is a layout tree with every
// proportion resolved to an explicit percentage and pane IDs
// stripped; leaf occupants are kept as placeholders naming which
// agent belongs in each slot.
package template

import (
	"fmt"
	"strings"

	"github.com/muxux-dev/muxux/lib/layout"
)

// Template is a named, persisted layout.
type Template struct {
	Name      string       `json:"name"`
	Tree      *layout.Node `json:"tree"`
	Occupants []string     `json:"occupants"`
}

// Capture reduces a live window tree to a template: pane IDs are
// dropped, implicit proportions resolved to explicit percentages, and
// the occupant set collected from the leaves.
func Capture(name string, tree *layout.Node) (Template, error) {
	if err := ValidateName(name); err != nil {
		return Template{}, err
	}
	captured := tree.Clone()
	resolveTree(captured)

	var occupants []string
	for _, occupant := range captured.Occupants() {
		if occupant != "" {
			occupants = append(occupants, occupant)
		}
	}
	return Template{Name: name, Tree: captured, Occupants: occupants}, nil
}

// resolveTree strips pane IDs and makes every proportion explicit.
func resolveTree(node *layout.Node) {
	node.PaneID = ""
	if node.IsLeaf() {
		return
	}
	resolved := layout.ResolveProportions(node.Children)
	for i := range node.Children {
		node.Children[i].Proportion = layout.Pct(resolved[i])
		resolveTree(node.Children[i].Node)
	}
}

// ValidateName rejects names that cannot serve as file stems.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("template name is empty")
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("template name %q starts with a dot", name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("template name %q contains %q", name, r)
		}
	}
	return nil
}

// Validate checks the template's tree against the layout invariants.
func (t Template) Validate() error {
	if err := ValidateName(t.Name); err != nil {
		return err
	}
	if t.Tree == nil {
		return fmt.Errorf("template %q has no tree", t.Name)
	}
	if err := t.Tree.Validate(); err != nil {
		return fmt.Errorf("template %q: %w", t.Name, err)
	}
	return nil
}
