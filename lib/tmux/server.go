// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package tmux

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/muxux-dev/muxux/lib/layout"
)

// occupantOption is the pane-scoped tmux user option that records
// which agent a pane belongs to. Storing the binding in tmux itself
// means a restarted engine can recover occupancy from geometry alone.
const occupantOption = "@muxux_occupant"

// Detached sessions have no client to size them, so tmux falls back
// to 80x24 unless told otherwise. These defaults leave enough room
// for any built-in template to apply without hitting minimum-size
// failures.
const (
	defaultWidth  = 160
	defaultHeight = 48
)

// Server is the real Adapter, backed by the tmux binary. All commands
// target one specific server identified by its Unix socket path; the
// -S flag is injected on every invocation so it is structurally
// impossible to touch a different server.
type Server struct {
	socketPath string
	configFile string // passed as "-f <path>" on new-session; empty = tmux default
}

var _ Adapter = (*Server)(nil)

// NewServer returns a Server that targets the given socket path.
//
// configFile controls which configuration file tmux loads when the
// server starts (which happens on the first new-session call). Pass
// "/dev/null" to prevent loading the user's ~/.tmux.conf — production
// daemons and all tests want this. If configFile is empty, tmux uses
// its default config resolution.
func NewServer(socketPath, configFile string) *Server {
	return &Server{
		socketPath: socketPath,
		configFile: configFile,
	}
}

// SocketPath returns the Unix socket path that identifies this server.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Run executes an arbitrary tmux subcommand on this server and returns
// the combined output. This is the escape hatch for commands that
// don't have a dedicated method.
func (s *Server) Run(args ...string) (string, error) {
	full := append([]string{"-S", s.socketPath}, args...)
	cmd := exec.Command("tmux", full...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %w (%s)",
			args[0], err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// ListSessions enumerates every session with its windows and pane
// geometry. A server that is not running yet is reported as zero
// sessions.
func (s *Server) ListSessions() ([]SessionInfo, error) {
	output, err := s.Run("list-sessions", "-F", "#{session_name}")
	if err != nil {
		if strings.Contains(err.Error(), "no server running") ||
			strings.Contains(err.Error(), "No such file or directory") {
			return nil, nil
		}
		return nil, err
	}

	var sessions []SessionInfo
	for _, name := range splitLines(output) {
		windows, err := s.listWindows(name)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, SessionInfo{Name: name, Windows: windows})
	}
	return sessions, nil
}

func (s *Server) listWindows(sessionName string) ([]WindowInfo, error) {
	output, err := s.Run("list-windows", "-t", sessionName,
		"-F", "#{window_index}\t#{window_name}")
	if err != nil {
		return nil, err
	}

	var windows []WindowInfo
	for _, line := range splitLines(output) {
		index, name, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("unexpected list-windows output: %q", line)
		}
		windowIndex, err := strconv.Atoi(index)
		if err != nil {
			return nil, fmt.Errorf("bad window index %q: %w", index, err)
		}
		panes, err := s.listPanes(fmt.Sprintf("%s:%d", sessionName, windowIndex))
		if err != nil {
			return nil, err
		}
		windows = append(windows, WindowInfo{
			Index: windowIndex,
			Name:  name,
			Panes: panes,
		})
	}
	return windows, nil
}

func (s *Server) listPanes(windowTarget string) ([]layout.PaneGeometry, error) {
	output, err := s.Run("list-panes", "-t", windowTarget,
		"-F", "#{pane_id}\t#{pane_width}\t#{pane_height}\t#{pane_top}\t#{pane_left}\t#{"+occupantOption+"}")
	if err != nil {
		return nil, err
	}

	var panes []layout.PaneGeometry
	for _, line := range splitLines(output) {
		fields := strings.Split(line, "\t")
		if len(fields) != 6 {
			return nil, fmt.Errorf("unexpected list-panes output (expected 6 fields): %q", line)
		}
		geometry := layout.PaneGeometry{ID: fields[0], Occupant: fields[5]}
		for i, target := range []*int{&geometry.Width, &geometry.Height, &geometry.Top, &geometry.Left} {
			value, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, fmt.Errorf("bad pane geometry field %q in %q: %w", fields[i+1], line, err)
			}
			*target = value
		}
		panes = append(panes, geometry)
	}
	return panes, nil
}

// NewSession creates a detached session. The -f flag is passed here
// because new-session may start the server; later commands don't
// re-read the config file.
func (s *Server) NewSession(name, dir string) error {
	var args []string
	if s.configFile != "" {
		args = append(args, "-f", s.configFile)
	}
	args = append(args, "-S", s.socketPath, "new-session", "-d", "-s", name,
		"-x", strconv.Itoa(defaultWidth), "-y", strconv.Itoa(defaultHeight))
	if dir != "" {
		args = append(args, "-c", dir)
	}
	cmd := exec.Command("tmux", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tmux new-session %q: %w (%s)",
			name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// KillSession terminates a session. Returns nil if the session was
// already gone or the server was not running — normal conditions
// during cleanup, not errors.
func (s *Server) KillSession(name string) error {
	_, err := s.Run("kill-session", "-t", name)
	if err != nil {
		message := err.Error()
		if strings.Contains(message, "can't find session") ||
			strings.Contains(message, "no server running") {
			return nil
		}
		return err
	}
	return nil
}

// KillServer terminates the entire tmux server, stopping all sessions.
// Returns nil if the server was already stopped.
func (s *Server) KillServer() error {
	_, err := s.Run("kill-server")
	if err != nil {
		message := err.Error()
		// "server exited unexpectedly" appears when the socket file
		// lingers briefly after the server process has exited.
		if strings.Contains(message, "no server running") ||
			strings.Contains(message, "server exited unexpectedly") {
			return nil
		}
		return err
	}
	return nil
}

// HasSession reports whether a session with the given name exists.
// Returns false if the server is not running.
func (s *Server) HasSession(name string) bool {
	cmd := exec.Command("tmux", "-S", s.socketPath, "has-session", "-t", name)
	return cmd.Run() == nil
}

// SplitPane divides a pane along the given axis. AxisRow places the
// new pane to the right (tmux -h); AxisCol places it below (tmux -v).
// percent is the share of the original extent the new pane receives.
func (s *Server) SplitPane(paneID string, axis layout.Axis, percent int) (string, error) {
	direction := "-v"
	if axis == layout.AxisRow {
		direction = "-h"
	}
	output, err := s.Run("split-window", direction, "-d",
		"-t", paneID,
		"-l", fmt.Sprintf("%d%%", percent),
		"-P", "-F", "#{pane_id}")
	if err != nil {
		if strings.Contains(err.Error(), "no space for new pane") {
			return "", fmt.Errorf("split %s: %w", paneID, ErrNoSpace)
		}
		return "", err
	}
	newID := strings.TrimSpace(output)
	if newID == "" {
		return "", fmt.Errorf("tmux split-window %q returned no pane id", paneID)
	}
	return newID, nil
}

// KillPane removes a pane.
func (s *Server) KillPane(paneID string) error {
	_, err := s.Run("kill-pane", "-t", paneID)
	return err
}

// SwapPanes exchanges the screen positions of two panes without
// changing which pane is active.
func (s *Server) SwapPanes(first, second string) error {
	_, err := s.Run("swap-pane", "-d", "-s", first, "-t", second)
	return err
}

// ResizePane moves the pane's right edge (AxisRow) or bottom edge
// (AxisCol) by delta cells.
func (s *Server) ResizePane(paneID string, axis layout.Axis, delta int) error {
	if delta == 0 {
		return nil
	}
	var direction string
	switch {
	case axis == layout.AxisRow && delta > 0:
		direction = "-R"
	case axis == layout.AxisRow:
		direction = "-L"
	case delta > 0:
		direction = "-D"
	default:
		direction = "-U"
	}
	amount := delta
	if amount < 0 {
		amount = -amount
	}
	_, err := s.Run("resize-pane", "-t", paneID, direction, strconv.Itoa(amount))
	return err
}

// MoveToNewSession detaches a pane into a brand-new session named
// after its source ("work" breaks out into "work-1") and returns the
// new session's name. tmux has no single command that moves a pane
// into a session that does not exist yet, so the move is staged:
// create the session with a placeholder pane, join the pane into it,
// kill the placeholder.
func (s *Server) MoveToNewSession(paneID string) (string, error) {
	output, err := s.Run("display-message", "-p", "-t", paneID, "#{session_name}")
	if err != nil {
		return "", err
	}
	source := strings.TrimSpace(output)

	var name string
	for i := 1; ; i++ {
		name = fmt.Sprintf("%s-%d", source, i)
		if !s.HasSession(name) {
			break
		}
	}

	var args []string
	if s.configFile != "" {
		args = append(args, "-f", s.configFile)
	}
	args = append(args, "-S", s.socketPath, "new-session", "-d", "-s", name,
		"-x", strconv.Itoa(defaultWidth), "-y", strconv.Itoa(defaultHeight),
		"-P", "-F", "#{pane_id}")
	cmd := exec.Command("tmux", args...)
	created, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tmux new-session %q: %w (%s)",
			name, err, strings.TrimSpace(string(created)))
	}
	placeholder := strings.TrimSpace(string(created))

	if _, err := s.Run("join-pane", "-d", "-s", paneID, "-t", placeholder); err != nil {
		s.Run("kill-session", "-t", name)
		return "", err
	}
	if _, err := s.Run("kill-pane", "-t", placeholder); err != nil {
		return "", err
	}
	return name, nil
}

// SendKeys delivers keystrokes to a target pane or window.
func (s *Server) SendKeys(target string, keys ...string) error {
	args := append([]string{"send-keys", "-t", target}, keys...)
	_, err := s.Run(args...)
	return err
}

// SetPaneOccupant records the agent occupying a pane as a pane-scoped
// user option.
func (s *Server) SetPaneOccupant(paneID, occupant string) error {
	_, err := s.Run("set-option", "-p", "-t", paneID, occupantOption, occupant)
	return err
}

func splitLines(output string) []string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
