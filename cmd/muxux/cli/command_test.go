// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesSubcommand(t *testing.T) {
	ran := false
	root := &Command{
		Name: "muxux",
		Subcommands: []*Command{
			{Name: "status", Run: func(args []string) error {
				ran = true
				return nil
			}},
		},
	}
	if err := root.Execute([]string{"status"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !ran {
		t.Fatal("subcommand did not run")
	}
}

func TestExecuteNestedDispatch(t *testing.T) {
	var got []string
	root := &Command{
		Name: "muxux",
		Subcommands: []*Command{
			{Name: "layout", Subcommands: []*Command{
				{Name: "row", Run: func(args []string) error {
					got = args
					return nil
				}},
			}},
		},
	}
	if err := root.Execute([]string{"layout", "row", "P0"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(got) != 1 || got[0] != "P0" {
		t.Fatalf("args = %v, want [P0]", got)
	}
}

func TestExecuteSuggestsCommand(t *testing.T) {
	root := &Command{
		Name: "muxux",
		Subcommands: []*Command{
			{Name: "session", Run: func([]string) error { return nil }},
			{Name: "template", Run: func([]string) error { return nil }},
		},
	}
	err := root.Execute([]string{"sesion"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "session"`) {
		t.Fatalf("error = %v, want session suggestion", err)
	}
}

func TestExecuteSuggestsFlag(t *testing.T) {
	command := &Command{
		Name: "split",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("split", pflag.ContinueOnError)
			flagSet.Int("percent", 50, "")
			return flagSet
		},
		Run: func([]string) error { return nil },
	}
	err := command.Execute([]string{"--percnet", "30"})
	if err == nil || !strings.Contains(err.Error(), "--percent") {
		t.Fatalf("error = %v, want --percent suggestion", err)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var percent int
	command := &Command{
		Name: "split",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("split", pflag.ContinueOnError)
			flagSet.IntVar(&percent, "percent", 50, "")
			return flagSet
		},
		Run: func([]string) error { return nil },
	}
	if err := command.Execute([]string{"--percent", "30"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if percent != 30 {
		t.Fatalf("percent = %d, want 30", percent)
	}
}

func TestPrintHelpListsSubcommands(t *testing.T) {
	root := Root()
	var out bytes.Buffer
	root.PrintHelp(&out)
	help := out.String()
	for _, name := range []string{"session", "layout", "template", "agent", "send"} {
		if !strings.Contains(help, name) {
			t.Errorf("help output missing %q:\n%s", name, help)
		}
	}
}

func TestRootTreeHasNoDuplicateNames(t *testing.T) {
	var walk func(t *testing.T, command *Command)
	walk = func(t *testing.T, command *Command) {
		seen := map[string]bool{}
		for _, sub := range command.Subcommands {
			if seen[sub.Name] {
				t.Errorf("duplicate subcommand %q under %q", sub.Name, command.Name)
			}
			seen[sub.Name] = true
			walk(t, sub)
		}
	}
	walk(t, Root())
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"sesion", "session", 1},
		{"kitten", "sitting", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestRenderData(t *testing.T) {
	compact := `{"ok":true}`
	if got := RenderData(compact, false); got != compact {
		t.Fatalf("piped output %q, want compact passthrough", got)
	}
	if got := RenderData(compact, true); !strings.Contains(got, "\n") {
		t.Fatalf("terminal output %q, want indented JSON", got)
	}
	if got := RenderData("plain text", true); got != "plain text" {
		t.Fatalf("non-JSON payload %q, want passthrough", got)
	}
}
