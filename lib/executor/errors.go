// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"errors"
	"fmt"
)

// Sentinel errors for command failures the caller can act on. All
// errors returned by Executor wrap one of these (or AdapterError) so
// callers dispatch with errors.Is.
var (
	// ErrNotFound marks a session, window, pane, or agent that does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStructure marks a command that would violate tree
	// invariants, such as a split proportion outside 1..99.
	ErrInvalidStructure = errors.New("invalid structure")

	// ErrAdapterDesync means the adapter call succeeded but the
	// registry refresh did not match expectations. The logical tree
	// has been dropped and rebuilt from observed geometry; the command
	// was not committed and must not be retried blindly.
	ErrAdapterDesync = errors.New("adapter desync")

	// ErrLayoutTooSmall means the window cannot satisfy the minimum
	// pane size the command requires. No partial mutation was made.
	ErrLayoutTooSmall = errors.New("layout too small")

	ErrCannotKillSolePane  = errors.New("cannot kill sole pane")
	ErrCannotBreakSolePane = errors.New("cannot break sole pane")
	ErrNoResizableAncestor = errors.New("no resizable ancestor")
	ErrNoAdjacentPane      = errors.New("no adjacent pane")
	ErrNothingToMerge      = errors.New("nothing to merge")
)

// AdapterError wraps a multiplexer command that was rejected or
// errored. The underlying message is surfaced verbatim.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
