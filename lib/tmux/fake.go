// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package tmux

import (
	"fmt"
	"strings"
	"sync"

	"github.com/muxux-dev/muxux/lib/layout"
)

// Fake is an in-memory Adapter that simulates pane geometry the way a
// real tmux server maintains it: splits carve cells off the target
// pane, kills merge the freed rectangle into an edge neighbor, and
// resizes move one divider. Tests exercise the engine against Fake and
// then verify the reconstructed tree, so the simulation has to produce
// geometry a real server would.
//
// Fake also records every adapter call and supports one-shot failure
// injection, which is how rollback and idempotency behavior is tested.
type Fake struct {
	mu       sync.Mutex
	sessions []*fakeSession
	nextPane int
	calls    []string
	failures map[string]error

	// Width and Height size new session windows. Zero values fall
	// back to the same defaults the real server uses.
	Width  int
	Height int
}

var _ Adapter = (*Fake)(nil)

type fakeSession struct {
	name    string
	windows []*fakeWindow
}

type fakeWindow struct {
	index int
	name  string
	panes []*fakePane
}

type fakePane struct {
	id         string
	x, y, w, h int
	occupant   string
}

// NewFake returns an empty fake server with no sessions.
func NewFake() *Fake {
	return &Fake{failures: make(map[string]error)}
}

// FailNext arranges for the next call of the named operation to return
// err without touching state. Operation names match the tmux commands:
// "new-session", "kill-session", "split-pane", "kill-pane",
// "swap-panes", "resize-pane", "move-to-new-session", "send-keys",
// "set-occupant", "list-sessions".
func (f *Fake) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

// Calls returns a copy of the adapter call log.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// ResetCalls clears the adapter call log.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// takeFailure consumes a pending injected failure for op, recording
// the attempt in the call log either way. Callers must hold f.mu.
func (f *Fake) takeFailure(op string, args ...string) error {
	entry := op
	if len(args) > 0 {
		entry += " " + strings.Join(args, " ")
	}
	f.calls = append(f.calls, entry)
	if err, ok := f.failures[op]; ok {
		delete(f.failures, op)
		return err
	}
	return nil
}

func (f *Fake) dims() (int, int) {
	width, height := f.Width, f.Height
	if width == 0 {
		width = defaultWidth
	}
	if height == 0 {
		height = defaultHeight
	}
	return width, height
}

// ListSessions returns a deep copy of the simulated server state.
func (f *Fake) ListSessions() ([]SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("list-sessions"); err != nil {
		return nil, err
	}

	var sessions []SessionInfo
	for _, session := range f.sessions {
		info := SessionInfo{Name: session.name}
		for _, window := range session.windows {
			windowInfo := WindowInfo{Index: window.index, Name: window.name}
			for _, pane := range window.panes {
				windowInfo.Panes = append(windowInfo.Panes, layout.PaneGeometry{
					ID:       pane.id,
					Occupant: pane.occupant,
					Width:    pane.w,
					Height:   pane.h,
					Top:      pane.y,
					Left:     pane.x,
				})
			}
			info.Windows = append(info.Windows, windowInfo)
		}
		sessions = append(sessions, info)
	}
	return sessions, nil
}

// NewSession creates a session with one full-size pane.
func (f *Fake) NewSession(name, dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("new-session", name); err != nil {
		return err
	}
	if f.findSession(name) != nil {
		return fmt.Errorf("duplicate session: %s", name)
	}

	width, height := f.dims()
	f.sessions = append(f.sessions, &fakeSession{
		name: name,
		windows: []*fakeWindow{{
			index: 0,
			name:  name,
			panes: []*fakePane{{id: f.newPaneID(), w: width, h: height}},
		}},
	})
	return nil
}

// KillSession removes a session. A session that is already gone is not
// an error, matching the real adapter.
func (f *Fake) KillSession(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("kill-session", name); err != nil {
		return err
	}
	for i, session := range f.sessions {
		if session.name == name {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			return nil
		}
	}
	return nil
}

// SplitPane carves percent of the target pane's extent off for a new
// pane placed to the right (AxisRow) or below (AxisCol).
func (f *Fake) SplitPane(paneID string, axis layout.Axis, percent int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("split-pane", paneID, string(axis), fmt.Sprint(percent)); err != nil {
		return "", err
	}

	_, window, pane := f.findPane(paneID)
	if pane == nil {
		return "", fmt.Errorf("can't find pane: %s", paneID)
	}
	return f.splitLocked(window, pane, axis, percent)
}

// splitLocked performs the geometry split. Callers must hold f.mu.
func (f *Fake) splitLocked(window *fakeWindow, pane *fakePane, axis layout.Axis, percent int) (string, error) {
	span := pane.h
	if axis == layout.AxisRow {
		span = pane.w
	}
	newSpan := span * percent / 100
	// tmux refuses splits that would leave either side below its
	// minimum pane size.
	if newSpan < 2 || span-newSpan < 2 {
		return "", ErrNoSpace
	}

	created := &fakePane{id: f.newPaneID()}
	if axis == layout.AxisRow {
		pane.w = span - newSpan
		*created = fakePane{id: created.id, x: pane.x + pane.w, y: pane.y, w: newSpan, h: pane.h}
	} else {
		pane.h = span - newSpan
		*created = fakePane{id: created.id, x: pane.x, y: pane.y + pane.h, w: pane.w, h: newSpan}
	}

	for i, candidate := range window.panes {
		if candidate == pane {
			window.panes = append(window.panes[:i+1],
				append([]*fakePane{created}, window.panes[i+1:]...)...)
			break
		}
	}
	return created.id, nil
}

// KillPane removes a pane and merges its rectangle into an edge
// neighbor. Killing the last pane of a window removes the window, and
// killing the last window removes the session.
func (f *Fake) KillPane(paneID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("kill-pane", paneID); err != nil {
		return err
	}
	return f.killPaneLocked(paneID)
}

func (f *Fake) killPaneLocked(paneID string) error {
	session, window, pane := f.findPane(paneID)
	if pane == nil {
		return fmt.Errorf("can't find pane: %s", paneID)
	}

	for i, candidate := range window.panes {
		if candidate == pane {
			window.panes = append(window.panes[:i], window.panes[i+1:]...)
			break
		}
	}
	if len(window.panes) == 0 {
		f.removeWindow(session, window)
		return nil
	}

	if neighbor := edgeNeighbor(window, pane); neighbor != nil {
		absorb(neighbor, pane)
	}
	return nil
}

// edgeNeighbor finds a surviving pane that shares a full edge with the
// removed pane, preferring the pane to its left or above.
func edgeNeighbor(window *fakeWindow, removed *fakePane) *fakePane {
	for _, p := range window.panes {
		if p.y == removed.y && p.h == removed.h &&
			(p.x+p.w == removed.x || removed.x+removed.w == p.x) {
			return p
		}
	}
	for _, p := range window.panes {
		if p.x == removed.x && p.w == removed.w &&
			(p.y+p.h == removed.y || removed.y+removed.h == p.y) {
			return p
		}
	}
	return nil
}

// absorb extends neighbor to cover the removed pane's rectangle.
func absorb(neighbor, removed *fakePane) {
	if neighbor.y == removed.y && neighbor.h == removed.h {
		if removed.x < neighbor.x {
			neighbor.x = removed.x
		}
		neighbor.w += removed.w
		return
	}
	if removed.y < neighbor.y {
		neighbor.y = removed.y
	}
	neighbor.h += removed.h
}

func (f *Fake) removeWindow(session *fakeSession, window *fakeWindow) {
	for i, candidate := range session.windows {
		if candidate == window {
			session.windows = append(session.windows[:i], session.windows[i+1:]...)
			break
		}
	}
	if len(session.windows) == 0 {
		for i, candidate := range f.sessions {
			if candidate == session {
				f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
				break
			}
		}
	}
}

// SwapPanes exchanges the rectangles of two panes. IDs and occupants
// travel with their content, matching real tmux swap-pane.
func (f *Fake) SwapPanes(first, second string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("swap-panes", first, second); err != nil {
		return err
	}

	_, _, a := f.findPane(first)
	_, _, b := f.findPane(second)
	if a == nil {
		return fmt.Errorf("can't find pane: %s", first)
	}
	if b == nil {
		return fmt.Errorf("can't find pane: %s", second)
	}
	a.x, b.x = b.x, a.x
	a.y, b.y = b.y, a.y
	a.w, b.w = b.w, a.w
	a.h, b.h = b.h, a.h
	return nil
}

// ResizePane moves the divider at the pane's right edge (AxisRow) or
// bottom edge (AxisCol) by delta cells, adjusting every pane touching
// that divider. The delta is clamped so no pane shrinks below the
// minimum size, matching tmux's partial-resize behavior.
func (f *Fake) ResizePane(paneID string, axis layout.Axis, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("resize-pane", paneID, string(axis), fmt.Sprint(delta)); err != nil {
		return err
	}

	_, window, pane := f.findPane(paneID)
	if pane == nil {
		return fmt.Errorf("can't find pane: %s", paneID)
	}
	if delta == 0 {
		return nil
	}

	if axis == layout.AxisRow {
		boundary := pane.x + pane.w
		delta = clampDivider(window, delta, func(p *fakePane) (int, int, int) {
			return p.x, p.w, boundary
		})
		for _, p := range window.panes {
			if p.x+p.w == boundary {
				p.w += delta
			} else if p.x == boundary {
				p.x += delta
				p.w -= delta
			}
		}
		return nil
	}

	boundary := pane.y + pane.h
	delta = clampDivider(window, delta, func(p *fakePane) (int, int, int) {
		return p.y, p.h, boundary
	})
	for _, p := range window.panes {
		if p.y+p.h == boundary {
			p.h += delta
		} else if p.y == boundary {
			p.y += delta
			p.h -= delta
		}
	}
	return nil
}

// clampDivider limits a divider move so every pane on either side
// keeps at least two cells.
func clampDivider(window *fakeWindow, delta int, span func(*fakePane) (low, size, boundary int)) int {
	for _, p := range window.panes {
		low, size, boundary := span(p)
		if low+size == boundary && size+delta < 2 {
			delta = 2 - size
		}
		if low == boundary && size-delta < 2 {
			delta = size - 2
		}
	}
	return delta
}

// MoveToNewSession moves a pane into a fresh session named after its
// source and returns the new session's name. The vacated rectangle is
// merged into an edge neighbor, the same healing a kill performs.
func (f *Fake) MoveToNewSession(paneID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("move-to-new-session", paneID); err != nil {
		return "", err
	}

	session, window, pane := f.findPane(paneID)
	if pane == nil {
		return "", fmt.Errorf("can't find pane: %s", paneID)
	}
	if len(window.panes) == 1 {
		return "", fmt.Errorf("can't break with only one pane")
	}

	for i, candidate := range window.panes {
		if candidate == pane {
			window.panes = append(window.panes[:i], window.panes[i+1:]...)
			break
		}
	}
	if neighbor := edgeNeighbor(window, pane); neighbor != nil {
		absorb(neighbor, pane)
	}

	var name string
	for i := 1; ; i++ {
		name = fmt.Sprintf("%s-%d", session.name, i)
		if f.findSession(name) == nil {
			break
		}
	}
	width, height := f.dims()
	pane.x, pane.y, pane.w, pane.h = 0, 0, width, height
	f.sessions = append(f.sessions, &fakeSession{
		name: name,
		windows: []*fakeWindow{{
			index: 0,
			name:  name,
			panes: []*fakePane{pane},
		}},
	})
	return name, nil
}

// SendKeys records the delivery. Pane targets must exist; other target
// forms are accepted as-is.
func (f *Fake) SendKeys(target string, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("send-keys", append([]string{target}, keys...)...); err != nil {
		return err
	}
	if strings.HasPrefix(target, "%") {
		if _, _, pane := f.findPane(target); pane == nil {
			return fmt.Errorf("can't find pane: %s", target)
		}
	}
	return nil
}

// SetPaneOccupant binds an agent name to a pane.
func (f *Fake) SetPaneOccupant(paneID, occupant string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure("set-occupant", paneID, occupant); err != nil {
		return err
	}
	_, _, pane := f.findPane(paneID)
	if pane == nil {
		return fmt.Errorf("can't find pane: %s", paneID)
	}
	pane.occupant = occupant
	return nil
}

// InjectPane splits the first pane of a window without going through
// the Adapter surface or the call log. Tests use it to simulate drift
// caused by a human driving tmux directly.
func (f *Fake) InjectPane(sessionName string, windowIndex int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session := f.findSession(sessionName)
	if session == nil {
		return "", fmt.Errorf("can't find session: %s", sessionName)
	}
	for _, window := range session.windows {
		if window.index == windowIndex {
			if len(window.panes) == 0 {
				return "", fmt.Errorf("window %s:%d has no panes", sessionName, windowIndex)
			}
			return f.splitLocked(window, window.panes[0], layout.AxisRow, 50)
		}
	}
	return "", fmt.Errorf("can't find window: %s:%d", sessionName, windowIndex)
}

// RemovePane kills a pane without going through the Adapter surface
// or the call log, simulating an externally closed pane.
func (f *Fake) RemovePane(paneID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.killPaneLocked(paneID)
}

func (f *Fake) newPaneID() string {
	id := fmt.Sprintf("%%%d", f.nextPane)
	f.nextPane++
	return id
}

func (f *Fake) findSession(name string) *fakeSession {
	for _, session := range f.sessions {
		if session.name == name {
			return session
		}
	}
	return nil
}

func (f *Fake) findPane(paneID string) (*fakeSession, *fakeWindow, *fakePane) {
	for _, session := range f.sessions {
		for _, window := range session.windows {
			for _, pane := range window.panes {
				if pane.id == paneID {
					return session, window, pane
				}
			}
		}
	}
	return nil, nil, nil
}
