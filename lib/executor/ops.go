// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"errors"
	"fmt"

	"github.com/muxux-dev/muxux/lib/layout"
	"github.com/muxux-dev/muxux/lib/registry"
	"github.com/muxux-dev/muxux/lib/tmux"
)

// Split replaces the target leaf with a two-child Row (AxisRow) or
// Col whose first child is the original pane and whose second is the
// new pane carved off at percent. Returns the new pane's ID.
func (e *Executor) Split(paneID string, axis layout.Axis, percent int) (string, error) {
	if percent < 1 || percent > 99 {
		return "", fmt.Errorf("%w: split proportion %d", ErrInvalidStructure, percent)
	}
	session, windowIndex, _, err := e.locate(paneID)
	if err != nil {
		return "", err
	}
	lock := e.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	window, err := e.snapshot(session, windowIndex, paneID)
	if err != nil {
		return "", err
	}
	path, err := layout.FindPath(window.Tree, paneID)
	if err != nil {
		return "", fmt.Errorf("%w: pane %s", ErrNotFound, paneID)
	}

	original, err := layout.NodeAt(window.Tree, path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	children := []layout.Entry{
		{Node: layout.NewPane(original.PaneID, original.Occupant), Proportion: layout.Pct(100 - percent)},
		{Node: layout.NewPane("", ""), Proportion: layout.Pct(percent)},
	}
	group := layout.NewCol(children...)
	if axis == layout.AxisRow {
		group = layout.NewRow(children...)
	}
	candidate, err := layout.ReplaceAt(window.Tree, path, group)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}

	newID, err := e.adapter.SplitPane(paneID, axis, percent)
	if err != nil {
		if errors.Is(err, tmux.ErrNoSpace) {
			return "", fmt.Errorf("%w: splitting %s at %d%%", ErrLayoutTooSmall, paneID, percent)
		}
		return "", &AdapterError{Op: "split-pane", Err: err}
	}

	// Bind the adapter-reported ID to the empty leaf before verifying.
	newLeaf, err := layout.NodeAt(candidate, append(path.Clone(), 1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAdapterDesync, err)
	}
	newLeaf.PaneID = newID

	if err := e.verifyAndCommit(session, windowIndex, candidate); err != nil {
		return "", err
	}
	e.logger.Info("pane split", "session", session, "pane", paneID,
		"axis", string(axis), "percent", percent, "new_pane", newID)
	return newID, nil
}

// Merge removes the target's sibling, promoting the target into its
// parent's slot. The sibling must be a leaf; its pane is killed.
func (e *Executor) Merge(paneID string) error {
	session, windowIndex, _, err := e.locate(paneID)
	if err != nil {
		return err
	}
	lock := e.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	window, err := e.snapshot(session, windowIndex, paneID)
	if err != nil {
		return err
	}
	path, err := layout.FindPath(window.Tree, paneID)
	if err != nil {
		return fmt.Errorf("%w: pane %s", ErrNotFound, paneID)
	}
	if len(path) == 0 {
		return fmt.Errorf("%w: pane %s is the only pane", ErrNothingToMerge, paneID)
	}

	parent, err := layout.NodeAt(window.Tree, path[:len(path)-1])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	siblingIndex, sibling := eligibleSibling(parent, path[len(path)-1])
	if sibling == nil {
		return fmt.Errorf("%w: no leaf sibling next to %s", ErrNothingToMerge, paneID)
	}

	siblingPath := append(path[:len(path)-1].Clone(), siblingIndex)
	candidate, err := layout.RemoveAt(window.Tree, siblingPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}

	if err := e.adapter.KillPane(sibling.PaneID); err != nil {
		return &AdapterError{Op: "kill-pane", Err: err}
	}
	if err := e.verifyAndCommit(session, windowIndex, candidate); err != nil {
		return err
	}
	e.logger.Info("panes merged", "session", session,
		"pane", paneID, "absorbed", sibling.PaneID)
	return nil
}

// eligibleSibling picks the leaf sibling adjacent to the child at
// index, preferring the following one.
func eligibleSibling(parent *layout.Node, index int) (int, *layout.Node) {
	if index+1 < len(parent.Children) && parent.Children[index+1].Node.IsLeaf() {
		return index + 1, parent.Children[index+1].Node
	}
	if index > 0 && parent.Children[index-1].Node.IsLeaf() {
		return index - 1, parent.Children[index-1].Node
	}
	return 0, nil
}

// KillPane removes the target leaf, collapses the tree, and kills the
// multiplexer pane.
func (e *Executor) KillPane(paneID string) error {
	session, windowIndex, _, err := e.locate(paneID)
	if err != nil {
		return err
	}
	lock := e.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	window, err := e.snapshot(session, windowIndex, paneID)
	if err != nil {
		return err
	}
	if window.Tree.LeafCount() == 1 {
		return fmt.Errorf("%w: %s", ErrCannotKillSolePane, paneID)
	}
	path, err := layout.FindPath(window.Tree, paneID)
	if err != nil {
		return fmt.Errorf("%w: pane %s", ErrNotFound, paneID)
	}
	candidate, err := layout.RemoveAt(window.Tree, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}

	if err := e.adapter.KillPane(paneID); err != nil {
		return &AdapterError{Op: "kill-pane", Err: err}
	}
	if err := e.verifyAndCommit(session, windowIndex, candidate); err != nil {
		return err
	}
	e.logger.Info("pane killed", "session", session, "pane", paneID)
	return nil
}

// BreakPane detaches the target leaf into a newly created session,
// collapsing the source tree. Returns the new session's name.
func (e *Executor) BreakPane(paneID string) (string, error) {
	session, windowIndex, _, err := e.locate(paneID)
	if err != nil {
		return "", err
	}
	lock := e.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	window, err := e.snapshot(session, windowIndex, paneID)
	if err != nil {
		return "", err
	}
	if window.Tree.LeafCount() == 1 {
		return "", fmt.Errorf("%w: %s", ErrCannotBreakSolePane, paneID)
	}
	path, err := layout.FindPath(window.Tree, paneID)
	if err != nil {
		return "", fmt.Errorf("%w: pane %s", ErrNotFound, paneID)
	}
	candidate, err := layout.RemoveAt(window.Tree, path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}

	newSession, err := e.adapter.MoveToNewSession(paneID)
	if err != nil {
		return "", &AdapterError{Op: "move-to-new-session", Err: err}
	}

	if err := e.verifyAndCommit(session, windowIndex, candidate); err != nil {
		return "", err
	}
	// The pane still exists; verifyAndCommit only checked that the
	// source window shrank, so confirm it landed where reported.
	if home, _, ok := e.registry.FindPane(paneID); !ok || home != newSession {
		return "", fmt.Errorf("%w: pane %s is not in session %q",
			ErrAdapterDesync, paneID, newSession)
	}
	e.logger.Info("pane broken out", "session", session,
		"pane", paneID, "new_session", newSession)
	return newSession, nil
}

// Swap exchanges the occupants of the target pane and its neighbor in
// leaf order. Tree shape is unchanged; pane IDs trade places because
// content travels with the ID.
func (e *Executor) Swap(paneID string, direction Direction) error {
	session, windowIndex, _, err := e.locate(paneID)
	if err != nil {
		return err
	}
	lock := e.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	window, err := e.snapshot(session, windowIndex, paneID)
	if err != nil {
		return err
	}
	leaves := window.Tree.Leaves()
	index := -1
	for i, leaf := range leaves {
		if leaf.PaneID == paneID {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("%w: pane %s", ErrNotFound, paneID)
	}
	neighborIndex := index - 1
	if direction.forward() {
		neighborIndex = index + 1
	}
	if neighborIndex < 0 || neighborIndex >= len(leaves) {
		return fmt.Errorf("%w: no pane %s of %s", ErrNoAdjacentPane, direction, paneID)
	}
	neighborID := leaves[neighborIndex].PaneID

	candidate := window.Tree.Clone()
	candidateLeaves := candidate.Leaves()
	a, b := candidateLeaves[index], candidateLeaves[neighborIndex]
	a.PaneID, b.PaneID = b.PaneID, a.PaneID
	a.Occupant, b.Occupant = b.Occupant, a.Occupant

	if err := e.adapter.SwapPanes(paneID, neighborID); err != nil {
		return &AdapterError{Op: "swap-panes", Err: err}
	}
	if err := e.verifyAndCommit(session, windowIndex, candidate); err != nil {
		return err
	}
	e.logger.Info("panes swapped", "session", session,
		"pane", paneID, "with", neighborID)
	return nil
}

// snapshot re-reads one window under the session lock. The pane must
// still be in it.
func (e *Executor) snapshot(session string, windowIndex int, paneID string) (registry.Window, error) {
	if _, err := e.registry.Refresh(); err != nil {
		return registry.Window{}, err
	}
	window, ok := e.registry.Window(session, windowIndex)
	if !ok {
		return registry.Window{}, fmt.Errorf("%w: window %s:%d", ErrNotFound, session, windowIndex)
	}
	if _, err := layout.FindPath(window.Tree, paneID); err != nil {
		return registry.Window{}, fmt.Errorf("%w: pane %s", ErrNotFound, paneID)
	}
	return window, nil
}
