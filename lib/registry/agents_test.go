// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"testing"
)

func TestAgentCreateAndGet(t *testing.T) {
	set := NewAgentSet()
	if err := set.Create("editor", "coder", "/src/app"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	agent, ok := set.Get("editor")
	if !ok {
		t.Fatal("editor missing after create")
	}
	if agent.Role != "coder" || agent.Path != "/src/app" {
		t.Fatalf("agent = %+v", agent)
	}
	if agent.PaneID != "" {
		t.Fatalf("unplaced agent has pane %q", agent.PaneID)
	}
}

func TestAgentCreateDuplicate(t *testing.T) {
	set := NewAgentSet()
	if err := set.Create("editor", "coder", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := set.Create("editor", "other", ""); !errors.Is(err, ErrAgentExists) {
		t.Fatalf("error = %v, want ErrAgentExists", err)
	}
}

func TestAgentCreateEmptyName(t *testing.T) {
	if err := NewAgentSet().Create("", "coder", ""); err == nil {
		t.Fatal("empty agent name accepted")
	}
}

func TestAgentKill(t *testing.T) {
	set := NewAgentSet()
	if err := set.Create("editor", "coder", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := set.Kill("editor"); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if _, ok := set.Get("editor"); ok {
		t.Fatal("editor survived kill")
	}
	if err := set.Kill("editor"); !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("error = %v, want ErrAgentNotFound", err)
	}
}

func TestAgentAssign(t *testing.T) {
	set := NewAgentSet()
	if err := set.Create("editor", "coder", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	set.Assign("editor", "work", "%3")
	agent, _ := set.Get("editor")
	if agent.Session != "work" || agent.PaneID != "%3" {
		t.Fatalf("agent = %+v, want placed in work/%%3", agent)
	}
}

func TestAgentAssignRegistersImplicitly(t *testing.T) {
	set := NewAgentSet()
	set.Assign("stray", "work", "%5")
	agent, ok := set.Get("stray")
	if !ok {
		t.Fatal("implicitly placed agent not registered")
	}
	if agent.PaneID != "%5" {
		t.Fatalf("pane = %q, want %%5", agent.PaneID)
	}
}

func TestAgentListOrder(t *testing.T) {
	set := NewAgentSet()
	for _, name := range []string{"c", "a", "b"} {
		if err := set.Create(name, "", ""); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	if err := set.Kill("a"); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	listed := set.List()
	if len(listed) != 2 || listed[0].Name != "c" || listed[1].Name != "b" {
		t.Fatalf("list = %v, want [c b]", listed)
	}
}
