// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/pflag"
)

// connFlags are the connection flags every daemon-backed command
// carries.
type connFlags struct {
	socket string
	config string
}

func (f *connFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.socket, "socket", "", "daemon socket path (overrides settings)")
	flagSet.StringVar(&f.config, "config", "", "settings file (default $MUXUX_CONFIG)")
}

// call runs one protocol command and prints its payload.
func (f *connFlags) call(command string, args map[string]any) error {
	client, err := DialDaemon(f.socket, f.config)
	if err != nil {
		return err
	}
	defer client.Close()

	data, err := client.Call(command, args)
	if err != nil {
		return err
	}
	PrintData(data)
	return nil
}

// Root builds the muxux command tree.
func Root() *Command {
	return &Command{
		Name:    "muxux",
		Summary: "drive the MuxUX layout engine",
		Description: "Muxux is the command-line client for the MuxUX layout daemon.\n" +
			"It manages multiplexer sessions, splits and rearranges panes, and\n" +
			"captures layouts as reusable templates.",
		Subcommands: []*Command{
			statusCommand(),
			settingsCommand(),
			stopCommand(),
			sessionCommand(),
			splitCommand(),
			layoutCommand(),
			templateCommand(),
			agentCommand(),
			sendCommand(),
			partsCommand(),
		},
	}
}

// simpleCommand is a no-argument protocol call.
func simpleCommand(name, summary, protocol string) *Command {
	conn := &connFlags{}
	return &Command{
		Name:    name,
		Summary: summary,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
			conn.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("%s takes no arguments", name)
			}
			return conn.call(protocol, nil)
		},
	}
}

func statusCommand() *Command {
	return simpleCommand("status", "show session, pane, and agent counts", "status")
}

func settingsCommand() *Command {
	return simpleCommand("settings", "print the daemon's effective settings", "get_settings")
}

func stopCommand() *Command {
	return simpleCommand("stop", "shut the daemon down", "daemon.stop")
}

func partsCommand() *Command {
	return simpleCommand("parts", "list the parts library", "parts.list")
}

func sessionCommand() *Command {
	listConn := &connFlags{}
	newConn := &connFlags{}
	killConn := &connFlags{}
	var cwd string

	return &Command{
		Name:    "session",
		Summary: "manage multiplexer sessions",
		Subcommands: []*Command{
			{
				Name:    "list",
				Summary: "list sessions with their windows and layouts",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
					listConn.register(flagSet)
					return flagSet
				},
				Run: func(args []string) error {
					return listConn.call("session.list", nil)
				},
			},
			{
				Name:    "new",
				Summary: "create a session",
				Usage:   "muxux session new <name> [flags]",
				Examples: []Example{
					{Description: "start a session in a project directory",
						Command: "muxux session new work --cwd ~/src/app"},
				},
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("new", pflag.ContinueOnError)
					newConn.register(flagSet)
					flagSet.StringVar(&cwd, "cwd", "", "working directory for the first pane")
					return flagSet
				},
				Run: func(args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("session new takes exactly one name")
					}
					return newConn.call("create_session", map[string]any{
						"name": args[0], "cwd": cwd,
					})
				},
			},
			{
				Name:    "kill",
				Summary: "terminate a session",
				Usage:   "muxux session kill <name> [flags]",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("kill", pflag.ContinueOnError)
					killConn.register(flagSet)
					return flagSet
				},
				Run: func(args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("session kill takes exactly one name")
					}
					return killConn.call("kill_session", map[string]any{"name": args[0]})
				},
			},
		},
	}
}

func splitCommand() *Command {
	conn := &connFlags{}
	var direction string
	var percent int

	return &Command{
		Name:    "split",
		Summary: "split the newest pane of a session",
		Usage:   "muxux split <session> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("split", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.StringVar(&direction, "direction", "horizontal", "horizontal or vertical")
			flagSet.IntVar(&percent, "percent", 50, "share given to the new pane")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("split takes exactly one session name")
			}
			return conn.call("split_pane", map[string]any{
				"session": args[0], "direction": direction, "percent": percent,
			})
		},
	}
}

// targetCommand is a layout command addressing one pane by target.
func targetCommand(name, summary, protocol string, extra func(*pflag.FlagSet), extraArgs func() map[string]any) *Command {
	conn := &connFlags{}
	var session, target string

	return &Command{
		Name:    name,
		Summary: summary,
		Usage:   fmt.Sprintf("muxux layout %s <target> [flags]", name),
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.StringVar(&session, "session", "", "session the target lives in")
			if extra != nil {
				extra(flagSet)
			}
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("layout %s takes exactly one target (pane id, P<w>.<p>, or agent name)", name)
			}
			target = args[0]
			callArgs := map[string]any{"session": session, "target": target}
			if extraArgs != nil {
				for key, value := range extraArgs() {
					callArgs[key] = value
				}
			}
			return conn.call(protocol, callArgs)
		},
	}
}

func layoutCommand() *Command {
	var rowPercent, colPercent int
	var resizeDirection, swapDirection string
	var resizeStep int

	evenConn := &connFlags{}
	var evenSession string
	var evenWindow int

	captureConn := &connFlags{}
	saveConn := &connFlags{}
	var saveSession string
	var saveWindow int

	return &Command{
		Name:    "layout",
		Summary: "rearrange panes within a window",
		Subcommands: []*Command{
			targetCommand("row", "split a pane side by side", "layout.row",
				func(flagSet *pflag.FlagSet) {
					flagSet.IntVar(&rowPercent, "percent", 50, "share given to the new pane")
				},
				func() map[string]any { return map[string]any{"percent": rowPercent} }),
			targetCommand("column", "split a pane stacked", "layout.column",
				func(flagSet *pflag.FlagSet) {
					flagSet.IntVar(&colPercent, "percent", 50, "share given to the new pane")
				},
				func() map[string]any { return map[string]any{"percent": colPercent} }),
			targetCommand("merge", "absorb a pane's sibling", "layout.merge", nil, nil),
			targetCommand("kill", "remove a pane", "layout.kill_pane", nil, nil),
			targetCommand("break", "move a pane to its own session", "layout.break_pane", nil, nil),
			targetCommand("resize", "shift a pane's boundary", "layout.resize",
				func(flagSet *pflag.FlagSet) {
					flagSet.StringVar(&resizeDirection, "direction", "", "left, right, up, or down")
					flagSet.IntVar(&resizeStep, "step", 5, "boundary shift in percent")
				},
				func() map[string]any {
					return map[string]any{"direction": resizeDirection, "step": resizeStep}
				}),
			targetCommand("swap", "exchange a pane with its neighbor", "layout.swap_pane",
				func(flagSet *pflag.FlagSet) {
					flagSet.StringVar(&swapDirection, "direction", "", "left, right, up, or down")
				},
				func() map[string]any { return map[string]any{"direction": swapDirection} }),
			{
				Name:    "even",
				Summary: "distribute a window's panes evenly",
				Usage:   "muxux layout even <session> [flags]",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("even", pflag.ContinueOnError)
					evenConn.register(flagSet)
					flagSet.IntVar(&evenWindow, "window", 0, "window index")
					return flagSet
				},
				Run: func(args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("layout even takes exactly one session name")
					}
					evenSession = args[0]
					return evenConn.call("layout.even_out", map[string]any{
						"session": evenSession, "window": evenWindow,
					})
				},
			},
			{
				Name:    "capture",
				Summary: "print a session's layout expressions",
				Usage:   "muxux layout capture <session> [flags]",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("capture", pflag.ContinueOnError)
					captureConn.register(flagSet)
					return flagSet
				},
				Run: func(args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("layout capture takes exactly one session name")
					}
					return captureConn.call("layout.capture", map[string]any{"session": args[0]})
				},
			},
			{
				Name:    "save",
				Summary: "save a window's layout as a template",
				Usage:   "muxux layout save <session> <template-name> [flags]",
				Examples: []Example{
					{Description: "capture the current arrangement of work's first window",
						Command: "muxux layout save work my-layout"},
				},
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("save", pflag.ContinueOnError)
					saveConn.register(flagSet)
					flagSet.IntVar(&saveWindow, "window", 0, "window index")
					return flagSet
				},
				Run: func(args []string) error {
					if len(args) != 2 {
						return fmt.Errorf("layout save takes a session and a template name")
					}
					saveSession = args[0]
					return saveConn.call("layout.capture_save", map[string]any{
						"session": saveSession, "window": saveWindow, "name": args[1],
					})
				},
			},
		},
	}
}

func templateCommand() *Command {
	applyConn := &connFlags{}
	var applySession string
	var applyWindow int

	return &Command{
		Name:    "template",
		Summary: "list and apply layout templates",
		Subcommands: []*Command{
			simpleCommand("list", "list saved and built-in templates", "template.list"),
			{
				Name:    "apply",
				Summary: "replay a template onto a single-pane window",
				Usage:   "muxux template apply <name> --session <session> [flags]",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("apply", pflag.ContinueOnError)
					applyConn.register(flagSet)
					flagSet.StringVar(&applySession, "session", "", "session to apply into (required)")
					flagSet.IntVar(&applyWindow, "window", 0, "window index")
					return flagSet
				},
				Run: func(args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("template apply takes exactly one template name")
					}
					if applySession == "" {
						return fmt.Errorf("template apply requires --session")
					}
					return applyConn.call("template.apply", map[string]any{
						"name": args[0], "session": applySession, "window": applyWindow,
					})
				},
			},
		},
	}
}

func agentCommand() *Command {
	createConn := &connFlags{}
	killConn := &connFlags{}
	placeConn := &connFlags{}
	var role, path string

	return &Command{
		Name:    "agent",
		Summary: "manage named agents",
		Subcommands: []*Command{
			{
				Name:    "create",
				Summary: "register an agent",
				Usage:   "muxux agent create <name> [flags]",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("create", pflag.ContinueOnError)
					createConn.register(flagSet)
					flagSet.StringVar(&role, "role", "", "agent role")
					flagSet.StringVar(&path, "path", "", "agent working directory")
					return flagSet
				},
				Run: func(args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("agent create takes exactly one name")
					}
					return createConn.call("create_agent", map[string]any{
						"name": args[0], "role": role, "path": path,
					})
				},
			},
			{
				Name:    "kill",
				Summary: "remove an agent",
				Usage:   "muxux agent kill <name> [flags]",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("kill", pflag.ContinueOnError)
					killConn.register(flagSet)
					return flagSet
				},
				Run: func(args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("agent kill takes exactly one name")
					}
					return killConn.call("kill_agent", map[string]any{"name": args[0]})
				},
			},
			{
				Name:    "place",
				Summary: "seat an agent in a pane",
				Usage:   "muxux agent place <pane-id> <agent> [flags]",
				Flags: func() *pflag.FlagSet {
					flagSet := pflag.NewFlagSet("place", pflag.ContinueOnError)
					placeConn.register(flagSet)
					return flagSet
				},
				Run: func(args []string) error {
					if len(args) != 2 {
						return fmt.Errorf("agent place takes a pane id and an agent name")
					}
					return placeConn.call("place_agent", map[string]any{
						"pane_id": args[0], "agent": args[1],
					})
				},
			},
		},
	}
}

func sendCommand() *Command {
	conn := &connFlags{}
	var session string

	return &Command{
		Name:    "send",
		Summary: "send keys to a pane",
		Usage:   "muxux send <target> <keys>... [flags]",
		Examples: []Example{
			{Description: "run a command in the editor agent's pane",
				Command: "muxux send editor 'make test' Enter"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("send", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.StringVar(&session, "session", "", "session the target lives in")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("send takes a target and at least one key")
			}
			return conn.call("send_keys", map[string]any{
				"session": session, "target": args[0], "keys": args[1:],
			})
		},
	}
}
