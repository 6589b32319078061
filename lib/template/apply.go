// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"

	"github.com/muxux-dev/muxux/lib/executor"
	"github.com/muxux-dev/muxux/lib/layout"
	"github.com/muxux-dev/muxux/lib/registry"
)

// Apply replays a template onto a window as a sequence of splits,
// root to leaf, largest shares first within each level. The window
// must hold a single pane; the result carries the template's
// proportions regardless of the window's size. Leaves with occupant
// placeholders get the occupant bound to the created pane.
//
// Splits are binary, so a level with more than two children is
// realized by carving children off the tail one at a time; the
// resolved shares match the template even though the committed tree
// nests where the template was flat.
func Apply(exec *executor.Executor, reg *registry.Registry, session string, windowIndex int, t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := reg.Refresh(); err != nil {
		return err
	}
	window, ok := reg.Window(session, windowIndex)
	if !ok {
		return fmt.Errorf("%w: window %s:%d", executor.ErrNotFound, session, windowIndex)
	}
	if window.Tree.LeafCount() != 1 {
		return fmt.Errorf("%w: template applies to a single-pane window, %s:%d has %d panes",
			executor.ErrInvalidStructure, session, windowIndex, window.Tree.LeafCount())
	}
	return applyNode(exec, window.Tree.Leaves()[0].PaneID, t.Tree)
}

// applyNode realizes one template subtree inside the pane paneID
// currently covers.
func applyNode(exec *executor.Executor, paneID string, node *layout.Node) error {
	if node.IsLeaf() {
		if node.Occupant != "" {
			if err := exec.PlaceAgent(paneID, node.Occupant); err != nil {
				return err
			}
		}
		return nil
	}

	shares := layout.ResolveProportions(node.Children)
	paneIDs := make([]string, len(node.Children))
	paneIDs[0] = paneID

	// Carve the last child off first: the head pane keeps covering
	// children 0..i-1 while child i takes its share of what remains.
	remaining := 100
	for i := len(node.Children) - 1; i >= 1; i-- {
		percent := shares[i] * 100 / remaining
		if percent < 1 {
			percent = 1
		}
		if percent > 99 {
			percent = 99
		}
		newID, err := exec.Split(paneID, node.Axis(), percent)
		if err != nil {
			return err
		}
		paneIDs[i] = newID
		remaining -= shares[i]
	}

	for i, child := range node.Children {
		if err := applyNode(exec, paneIDs[i], child.Node); err != nil {
			return err
		}
	}
	return nil
}
