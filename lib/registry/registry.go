// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry mirrors the live multiplexer state: every session,
// its windows, and each window's pane geometry plus the logical layout
// tree the engine maintains for it.
//
// The multiplexer is the source of truth for which panes exist and
// where they sit; the engine is the source of truth for the tree
// structure it built those panes with. Refresh reconciles the two:
// when the observed pane set still matches a window's tree, the tree
// is kept (occupants updated from observation); when they diverge —
// a human split or closed a pane behind the engine's back — the tree
// is rebuilt from geometry and the divergence reported.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/muxux-dev/muxux/lib/layout"
	"github.com/muxux-dev/muxux/lib/tmux"
)

// Session is one multiplexer session as mirrored by the registry.
type Session struct {
	Name    string
	Windows []Window
}

// Window is one window: observed pane geometry plus the logical tree.
// Panes are held in leaf order, the tree's left-to-right, top-to-
// bottom traversal.
type Window struct {
	Index int
	Name  string
	Tree  *layout.Node
	Panes []layout.PaneGeometry
}

// Target returns the window's "session:index" multiplexer target.
func (w Window) Target(session string) string {
	return fmt.Sprintf("%s:%d", session, w.Index)
}

// Diff describes what changed between two refreshes.
type Diff struct {
	AddedPanes   []string
	RemovedPanes []string
	// RebuiltWindows lists "session:index" targets whose trees were
	// discarded and reconstructed from geometry because the observed
	// pane set no longer matched the tree's leaves.
	RebuiltWindows []string
	// ReorderedWindows lists "session:index" targets whose pane set
	// was unchanged but whose physical arrangement moved, an external
	// swap-pane. Their trees are rebuilt from geometry too.
	ReorderedWindows []string
}

// Empty reports whether the refresh observed no structural change.
func (d Diff) Empty() bool {
	return len(d.AddedPanes) == 0 && len(d.RemovedPanes) == 0 &&
		len(d.RebuiltWindows) == 0 && len(d.ReorderedWindows) == 0
}

// Registry holds the mirrored state. Accessors return deep copies; the
// only mutations are Refresh and SetTree.
type Registry struct {
	adapter tmux.Adapter

	mu       sync.RWMutex
	sessions []Session
}

// New returns an empty registry reading through the given adapter.
// Call Refresh before the first read.
func New(adapter tmux.Adapter) *Registry {
	return &Registry{adapter: adapter}
}

// Refresh re-reads the multiplexer and reconciles every window's tree
// with the observed pane set. Trees whose leaf pane IDs still match
// observation are kept with occupants refreshed; the rest are rebuilt
// from geometry. The returned Diff describes what changed since the
// previous refresh.
func (r *Registry) Refresh() (Diff, error) {
	observed, err := r.adapter.ListSessions()
	if err != nil {
		return Diff{}, fmt.Errorf("refresh registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var diff Diff
	previousPanes := paneSet(r.sessions)

	var next []Session
	for _, session := range observed {
		mirrored := Session{Name: session.Name}
		for _, window := range session.Windows {
			reconciled, rebuilt, reordered := r.reconcileWindowLocked(session.Name, window)
			if rebuilt {
				diff.RebuiltWindows = append(diff.RebuiltWindows,
					reconciled.Target(session.Name))
			}
			if reordered {
				diff.ReorderedWindows = append(diff.ReorderedWindows,
					reconciled.Target(session.Name))
			}
			mirrored.Windows = append(mirrored.Windows, reconciled)
		}
		next = append(next, mirrored)
	}
	r.sessions = next

	currentPanes := paneSet(r.sessions)
	for _, session := range r.sessions {
		for _, window := range session.Windows {
			for _, pane := range window.Panes {
				if !previousPanes[pane.ID] {
					diff.AddedPanes = append(diff.AddedPanes, pane.ID)
				}
			}
		}
	}
	for id := range previousPanes {
		if !currentPanes[id] {
			diff.RemovedPanes = append(diff.RemovedPanes, id)
		}
	}
	return diff, nil
}

// reconcileWindowLocked produces the mirrored window, keeping the
// previous tree when its leaf set still matches observation AND the
// panes still sit in the same physical order. The bool returns report
// whether a previously tracked tree had to be rebuilt and whether the
// rebuild was caused by a same-set reorder (an external swap-pane,
// which leaves the leaf set intact).
func (r *Registry) reconcileWindowLocked(sessionName string, window tmux.WindowInfo) (Window, bool, bool) {
	rebuilt := layout.FromPanes(window.Panes)
	ordered := orderPanes(window.Panes, rebuilt)

	mirrored := Window{
		Index: window.Index,
		Name:  window.Name,
		Panes: ordered,
	}

	previous, ok := r.findWindowLocked(sessionName, window.Index)
	if ok && previous.Tree != nil && treeMatchesPanes(previous.Tree, ordered) {
		if sameIDOrder(physicalOrder(previous.Panes), physicalOrder(window.Panes)) {
			mirrored.Tree = previous.Tree.Clone()
			syncOccupants(mirrored.Tree, ordered)
			return mirrored, false, false
		}
		// Same panes, different arrangement: the tree's structure no
		// longer describes where the panes actually are.
		mirrored.Tree = rebuilt
		return mirrored, false, true
	}
	mirrored.Tree = rebuilt
	return mirrored, ok && previous.Tree != nil, false
}

// SetTree installs the authoritative tree for a window. The tree's
// leaves must match the window's observed panes one to one; callers
// refresh first, mutate, refresh again, and commit the tree they
// built.
func (r *Registry) SetTree(sessionName string, windowIndex int, tree *layout.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for si, session := range r.sessions {
		if session.Name != sessionName {
			continue
		}
		for wi, window := range session.Windows {
			if window.Index != windowIndex {
				continue
			}
			if !treeMatchesPanes(tree, window.Panes) {
				return fmt.Errorf("tree leaves do not match observed panes in %s:%d",
					sessionName, windowIndex)
			}
			installed := tree.Clone()
			syncOccupants(installed, window.Panes)
			r.sessions[si].Windows[wi].Tree = installed
			r.sessions[si].Windows[wi].Panes = orderPanes(window.Panes, installed)
			return nil
		}
	}
	return fmt.Errorf("%w: window %s:%d", ErrNoSuchTarget, sessionName, windowIndex)
}

// Sessions returns a deep copy of every mirrored session.
func (r *Registry) Sessions() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	copies := make([]Session, len(r.sessions))
	for i, session := range r.sessions {
		copies[i] = copySession(session)
	}
	return copies
}

// Session returns a deep copy of one session by name.
func (r *Registry) Session(name string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, session := range r.sessions {
		if session.Name == name {
			return copySession(session), true
		}
	}
	return Session{}, false
}

// Window returns a deep copy of one window.
func (r *Registry) Window(sessionName string, windowIndex int) (Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	window, ok := r.findWindowLocked(sessionName, windowIndex)
	if !ok {
		return Window{}, false
	}
	return copyWindow(window), true
}

// FindPane locates a pane ID across all sessions, returning its
// session name and window index.
func (r *Registry) FindPane(paneID string) (string, int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, session := range r.sessions {
		for _, window := range session.Windows {
			for _, pane := range window.Panes {
				if pane.ID == paneID {
					return session.Name, window.Index, true
				}
			}
		}
	}
	return "", 0, false
}

func (r *Registry) findWindowLocked(sessionName string, windowIndex int) (Window, bool) {
	for _, session := range r.sessions {
		if session.Name != sessionName {
			continue
		}
		for _, window := range session.Windows {
			if window.Index == windowIndex {
				return window, true
			}
		}
	}
	return Window{}, false
}

func copySession(session Session) Session {
	copied := Session{Name: session.Name}
	for _, window := range session.Windows {
		copied.Windows = append(copied.Windows, copyWindow(window))
	}
	return copied
}

func copyWindow(window Window) Window {
	copied := Window{Index: window.Index, Name: window.Name}
	if window.Tree != nil {
		copied.Tree = window.Tree.Clone()
	}
	copied.Panes = append([]layout.PaneGeometry(nil), window.Panes...)
	return copied
}

func paneSet(sessions []Session) map[string]bool {
	set := make(map[string]bool)
	for _, session := range sessions {
		for _, window := range session.Windows {
			for _, pane := range window.Panes {
				set[pane.ID] = true
			}
		}
	}
	return set
}

// orderPanes arranges observed geometry into the tree's leaf order.
// Panes the tree does not know (should not happen after reconcile)
// are appended in observed order.
func orderPanes(panes []layout.PaneGeometry, tree *layout.Node) []layout.PaneGeometry {
	byID := make(map[string]layout.PaneGeometry, len(panes))
	for _, pane := range panes {
		byID[pane.ID] = pane
	}
	var ordered []layout.PaneGeometry
	for _, leaf := range tree.Leaves() {
		if pane, ok := byID[leaf.PaneID]; ok {
			ordered = append(ordered, pane)
			delete(byID, leaf.PaneID)
		}
	}
	for _, pane := range panes {
		if _, left := byID[pane.ID]; left {
			ordered = append(ordered, pane)
			delete(byID, pane.ID)
		}
	}
	return ordered
}

// physicalOrder lists pane IDs sorted by screen position, top to
// bottom then left to right. Two windows holding the same panes in the
// same rectangles produce the same sequence regardless of the order
// the panes were reported in.
func physicalOrder(panes []layout.PaneGeometry) []string {
	sorted := append([]layout.PaneGeometry(nil), panes...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Top != sorted[j].Top {
			return sorted[i].Top < sorted[j].Top
		}
		return sorted[i].Left < sorted[j].Left
	})
	ids := make([]string, len(sorted))
	for i, pane := range sorted {
		ids[i] = pane.ID
	}
	return ids
}

func sameIDOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// treeMatchesPanes reports whether the tree's leaf pane IDs are
// exactly the observed pane IDs.
func treeMatchesPanes(tree *layout.Node, panes []layout.PaneGeometry) bool {
	leaves := tree.Leaves()
	if len(leaves) != len(panes) {
		return false
	}
	observed := make(map[string]bool, len(panes))
	for _, pane := range panes {
		observed[pane.ID] = true
	}
	for _, leaf := range leaves {
		if !observed[leaf.PaneID] {
			return false
		}
	}
	return true
}

// syncOccupants copies observed occupant bindings onto the tree's
// leaves. The multiplexer stores the binding, so observation wins.
func syncOccupants(tree *layout.Node, panes []layout.PaneGeometry) {
	byID := make(map[string]string, len(panes))
	for _, pane := range panes {
		byID[pane.ID] = pane.Occupant
	}
	for _, leaf := range tree.Leaves() {
		if occupant, ok := byID[leaf.PaneID]; ok {
			leaf.Occupant = occupant
		}
	}
}
