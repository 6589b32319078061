// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"testing"

	"github.com/muxux-dev/muxux/lib/layout"
)

func targetSession() Session {
	return Session{
		Name: "work",
		Windows: []Window{
			{Index: 0, Panes: []layout.PaneGeometry{
				{ID: "%0", Occupant: "editor"},
				{ID: "%1", Occupant: "logs"},
			}},
			{Index: 2, Panes: []layout.PaneGeometry{
				{ID: "%5", Occupant: "shell"},
				{ID: "%6"},
				{ID: "%7", Occupant: "shell"},
			}},
		},
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"P0", "%0"},
		{"p0", "%0"},
		{"P0.1", "%1"},
		{"P2.2", "%7"},
		{"editor", "%0"},
		{"shell", "%5"}, // first match in leaf order
	}
	for _, test := range tests {
		t.Run(test.target, func(t *testing.T) {
			got, err := ResolveTarget(targetSession(), test.target)
			if err != nil {
				t.Fatalf("ResolveTarget(%q): %v", test.target, err)
			}
			if got != test.want {
				t.Fatalf("ResolveTarget(%q) = %q, want %q", test.target, got, test.want)
			}
		})
	}
}

func TestResolveTargetErrors(t *testing.T) {
	targets := []string{
		"",
		"P9",     // no such window
		"P0.5",   // pane index out of range
		"nobody", // no such agent
	}
	for _, target := range targets {
		if _, err := ResolveTarget(targetSession(), target); !errors.Is(err, ErrNoSuchTarget) {
			t.Errorf("ResolveTarget(%q) error = %v, want ErrNoSuchTarget", target, err)
		}
	}
}

func TestResolveTargetPositionalLookalikes(t *testing.T) {
	// Names that start with P but aren't positional fall through to
	// agent lookup.
	session := Session{
		Name: "work",
		Windows: []Window{{Index: 0, Panes: []layout.PaneGeometry{
			{ID: "%0", Occupant: "P0x"},
		}}},
	}
	got, err := ResolveTarget(session, "P0x")
	if err != nil {
		t.Fatalf("ResolveTarget: %v", err)
	}
	if got != "%0" {
		t.Fatalf("ResolveTarget = %q, want %%0", got)
	}
}
