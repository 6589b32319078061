// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

// Package tmux drives the terminal multiplexer that physically hosts
// MuxUX panes. The engine runs its own dedicated tmux server (distinct
// from any personal tmux the user may run) identified by a Unix socket
// path, so the user's ~/.tmux.conf is never loaded unless explicitly
// requested.
//
// The Adapter interface is the seam between the layout engine and the
// multiplexer: the executor issues mutations through it and the
// registry reads geometry back through it. Server is the real
// implementation backed by the tmux binary; Fake is an in-memory
// implementation with full geometry simulation for tests.
package tmux

import (
	"errors"

	"github.com/muxux-dev/muxux/lib/layout"
)

// ErrNoSpace is returned by SplitPane when the target pane cannot fit
// the requested split without a side dropping below the multiplexer's
// minimum pane size.
var ErrNoSpace = errors.New("no space for new pane")

// SessionInfo is one multiplexer session as observed by ListSessions.
type SessionInfo struct {
	Name    string
	Windows []WindowInfo
}

// WindowInfo is one window within a session. Panes carry the geometry
// the multiplexer reports, in no guaranteed order.
type WindowInfo struct {
	Index int
	Name  string
	Panes []layout.PaneGeometry
}

// Adapter is the multiplexer operations the engine depends on. Every
// mutation is a single multiplexer command; the caller is responsible
// for reading geometry back afterwards and reconciling its model with
// what the multiplexer actually did.
type Adapter interface {
	// ListSessions returns every session on the server with its
	// windows and pane geometry. A server that is not running yet
	// reports zero sessions, not an error.
	ListSessions() ([]SessionInfo, error)

	// NewSession creates a detached session. dir, if non-empty, is the
	// working directory of the initial pane.
	NewSession(name, dir string) error

	// KillSession terminates a session. A session that is already gone
	// is not an error.
	KillSession(name string) error

	// SplitPane divides an existing pane along the given axis, giving
	// the new pane percent of the original extent. Returns the new
	// pane's ID. A split refused for lack of room reports ErrNoSpace.
	SplitPane(paneID string, axis layout.Axis, percent int) (string, error)

	// KillPane removes a pane; its space is absorbed by a neighbor.
	KillPane(paneID string) error

	// SwapPanes exchanges the screen positions of two panes. Pane IDs
	// travel with their content, so after the swap each ID occupies
	// the other's former rectangle.
	SwapPanes(first, second string) error

	// ResizePane moves the pane's trailing edge by delta cells along
	// the given axis. Positive delta grows the pane, negative shrinks.
	ResizePane(paneID string, axis layout.Axis, delta int) error

	// MoveToNewSession detaches a pane into a freshly created session
	// and returns the new session's name.
	MoveToNewSession(paneID string) (string, error)

	// SendKeys delivers keystrokes to a pane or window target.
	SendKeys(target string, keys ...string) error

	// SetPaneOccupant records which agent owns a pane. The binding
	// lives in the multiplexer itself so it survives engine restarts.
	SetPaneOccupant(paneID, occupant string) error
}
