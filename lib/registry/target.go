// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoSuchTarget marks a target string that resolves to nothing.
var ErrNoSuchTarget = errors.New("no such target")

// ResolveTarget turns a user-facing target string into a pane ID
// within the given session.
//
// Two forms are accepted. Positional notation "P<window>[.<pane>]"
// (case-insensitive) addresses a window by index and a pane by its
// position in leaf order, defaulting to pane 0: "P0" is the first
// pane of window 0, "P1.2" the third pane of window 1. Anything else
// is an agent name, matched against pane occupants in leaf order;
// the first occupied match wins.
func ResolveTarget(session Session, target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("%w: empty target", ErrNoSuchTarget)
	}

	if windowIndex, paneIndex, ok := parsePositional(target); ok {
		for _, window := range session.Windows {
			if window.Index != windowIndex {
				continue
			}
			if paneIndex >= len(window.Panes) {
				return "", fmt.Errorf("%w: window %d has %d panes, asked for %d",
					ErrNoSuchTarget, windowIndex, len(window.Panes), paneIndex)
			}
			return window.Panes[paneIndex].ID, nil
		}
		return "", fmt.Errorf("%w: no window %d in session %q",
			ErrNoSuchTarget, windowIndex, session.Name)
	}

	for _, window := range session.Windows {
		for _, pane := range window.Panes {
			if pane.Occupant == target {
				return pane.ID, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no agent %q in session %q",
		ErrNoSuchTarget, target, session.Name)
}

// parsePositional recognizes "P<window>[.<pane>]" with either case of
// the leading letter. Both indices must be bare decimal numbers.
func parsePositional(target string) (windowIndex, paneIndex int, ok bool) {
	if len(target) < 2 || (target[0] != 'P' && target[0] != 'p') {
		return 0, 0, false
	}
	windowPart, panePart, hasPane := strings.Cut(target[1:], ".")
	windowIndex, err := strconv.Atoi(windowPart)
	if err != nil || windowIndex < 0 {
		return 0, 0, false
	}
	if !hasPane {
		return windowIndex, 0, true
	}
	paneIndex, err = strconv.Atoi(panePart)
	if err != nil || paneIndex < 0 {
		return 0, 0, false
	}
	return windowIndex, paneIndex, true
}
