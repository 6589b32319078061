// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

// Package executor applies structure commands to live multiplexer
// sessions. Every command follows the same transactional shape: take
// a registry snapshot, build the candidate tree in memory, issue the
// adapter calls, refresh the registry, and commit the candidate only
// if observation matches what the command expected. A mismatch means
// something else mutated the multiplexer mid-command; the logical
// tree is dropped in favor of observed geometry and the command fails
// with ErrAdapterDesync.
//
// Commands are serialized per session: one command in flight per
// session, independent sessions in parallel. A command that has
// issued its first adapter call always runs to completion.
package executor

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/muxux-dev/muxux/lib/layout"
	"github.com/muxux-dev/muxux/lib/registry"
	"github.com/muxux-dev/muxux/lib/tmux"
)

// minPaneCells is the smallest pane extent the multiplexer will
// create; splits and even-out stop short of it.
const minPaneCells = 2

// DefaultMinShare is the smallest percentage share a resize leaves
// any sibling.
const DefaultMinShare = 5

// Direction names the four resize/swap directions.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
)

// ParseDirection validates a wire-level direction string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case DirectionLeft:
		return DirectionLeft, nil
	case DirectionRight:
		return DirectionRight, nil
	case DirectionUp:
		return DirectionUp, nil
	case DirectionDown:
		return DirectionDown, nil
	}
	return "", fmt.Errorf("%w: direction %q", ErrInvalidStructure, s)
}

// axis is the split axis the direction moves along.
func (d Direction) axis() layout.Axis {
	if d == DirectionLeft || d == DirectionRight {
		return layout.AxisRow
	}
	return layout.AxisCol
}

// forward reports whether the direction points at the following
// sibling (right/down) rather than the preceding one.
func (d Direction) forward() bool {
	return d == DirectionRight || d == DirectionDown
}

// Executor owns all writes to the registry and the multiplexer.
type Executor struct {
	adapter  tmux.Adapter
	registry *registry.Registry
	logger   *slog.Logger

	// MinShare is the smallest percentage share a resize leaves any
	// sibling. Zero means DefaultMinShare.
	MinShare int

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

// New returns an executor writing through the given adapter and
// committing into the given registry.
func New(adapter tmux.Adapter, reg *registry.Registry, logger *slog.Logger) *Executor {
	return &Executor{
		adapter:  adapter,
		registry: reg,
		logger:   logger,
		sessions: make(map[string]*sync.Mutex),
	}
}

func (e *Executor) minShare() int {
	if e.MinShare > 0 {
		return e.MinShare
	}
	return DefaultMinShare
}

// sessionLock returns the mutex serializing commands for one session.
func (e *Executor) sessionLock(session string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.sessions[session]
	if !ok {
		lock = &sync.Mutex{}
		e.sessions[session] = lock
	}
	return lock
}

// locate refreshes the registry and finds the window holding paneID.
func (e *Executor) locate(paneID string) (string, int, registry.Window, error) {
	if _, err := e.registry.Refresh(); err != nil {
		return "", 0, registry.Window{}, err
	}
	session, windowIndex, ok := e.registry.FindPane(paneID)
	if !ok {
		return "", 0, registry.Window{}, fmt.Errorf("%w: pane %s", ErrNotFound, paneID)
	}
	window, ok := e.registry.Window(session, windowIndex)
	if !ok {
		return "", 0, registry.Window{}, fmt.Errorf("%w: window %s:%d", ErrNotFound, session, windowIndex)
	}
	return session, windowIndex, window, nil
}

// verifyAndCommit refreshes after adapter calls and installs the
// candidate tree if the window's observed pane set is exactly the
// candidate's leaf set. Verification compares against the candidate
// itself rather than the refresh diff: the diff is consumed by
// whichever refresh runs first, and read-only queries on other
// connections refresh concurrently.
func (e *Executor) verifyAndCommit(session string, windowIndex int, candidate *layout.Node) error {
	if _, err := e.registry.Refresh(); err != nil {
		return err
	}
	window, ok := e.registry.Window(session, windowIndex)
	if !ok {
		return fmt.Errorf("%w: window %s:%d is gone",
			ErrAdapterDesync, session, windowIndex)
	}
	observed := make([]string, len(window.Panes))
	for i, pane := range window.Panes {
		observed[i] = pane.ID
	}
	expected := candidate.Leaves()
	want := make([]string, len(expected))
	for i, leaf := range expected {
		want[i] = leaf.PaneID
	}
	if !sameSet(observed, want) {
		e.logger.Warn("mutation verification failed, tree rebuilt from geometry",
			"session", session, "window", windowIndex,
			"observed", observed, "expected", want)
		return fmt.Errorf("%w: observed panes did not match in %s:%d",
			ErrAdapterDesync, session, windowIndex)
	}
	if err := e.registry.SetTree(session, windowIndex, candidate); err != nil {
		return fmt.Errorf("%w: %v", ErrAdapterDesync, err)
	}
	return nil
}

func sameSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	members := make(map[string]bool, len(want))
	for _, id := range want {
		members[id] = true
	}
	for _, id := range got {
		if !members[id] {
			return false
		}
	}
	return true
}

// CreateSession creates a new multiplexer session with one pane.
func (e *Executor) CreateSession(name, dir string) error {
	lock := e.sessionLock(name)
	lock.Lock()
	defer lock.Unlock()

	if err := e.adapter.NewSession(name, dir); err != nil {
		return &AdapterError{Op: "new-session", Err: err}
	}
	_, err := e.registry.Refresh()
	return err
}

// KillSession terminates a session.
func (e *Executor) KillSession(name string) error {
	lock := e.sessionLock(name)
	lock.Lock()
	defer lock.Unlock()

	if _, ok := e.registry.Session(name); !ok {
		if _, err := e.registry.Refresh(); err != nil {
			return err
		}
		if _, ok := e.registry.Session(name); !ok {
			return fmt.Errorf("%w: session %q", ErrNotFound, name)
		}
	}
	if err := e.adapter.KillSession(name); err != nil {
		return &AdapterError{Op: "kill-session", Err: err}
	}
	_, err := e.registry.Refresh()
	return err
}

// SendKeys delivers keystrokes to a resolved target.
func (e *Executor) SendKeys(target string, keys ...string) error {
	if err := e.adapter.SendKeys(target, keys...); err != nil {
		return &AdapterError{Op: "send-keys", Err: err}
	}
	return nil
}

// PlaceAgent binds an agent name to a pane.
func (e *Executor) PlaceAgent(paneID, agent string) error {
	session, _, _, err := e.locate(paneID)
	if err != nil {
		return err
	}
	lock := e.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	if err := e.adapter.SetPaneOccupant(paneID, agent); err != nil {
		return &AdapterError{Op: "set-occupant", Err: err}
	}
	_, err = e.registry.Refresh()
	return err
}
