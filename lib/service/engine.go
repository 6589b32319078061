// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/muxux-dev/muxux/lib/config"
	"github.com/muxux-dev/muxux/lib/executor"
	"github.com/muxux-dev/muxux/lib/layout"
	"github.com/muxux-dev/muxux/lib/parts"
	"github.com/muxux-dev/muxux/lib/registry"
	"github.com/muxux-dev/muxux/lib/template"
)

// Engine bundles the components the protocol commands drive. Stop is
// called by daemon.stop; the daemon wires it to its root context
// cancel.
type Engine struct {
	Executor  *executor.Executor
	Registry  *registry.Registry
	Agents    *registry.AgentSet
	Templates *template.Store
	Parts     *parts.Library
	Config    config.Config
	Stop      func()
}

// Register installs every protocol command on the server.
func (e *Engine) Register(server *Server) {
	server.Handle("status", e.handleStatus)
	server.Handle("session.list", e.handleSessionList)
	server.Handle("create_session", e.handleCreateSession)
	server.Handle("kill_session", e.handleKillSession)
	server.Handle("split_pane", e.handleSplitPane)
	server.Handle("place_agent", e.handlePlaceAgent)
	server.Handle("create_agent", e.handleCreateAgent)
	server.Handle("kill_agent", e.handleKillAgent)
	server.Handle("send_keys", e.handleSendKeys)
	server.Handle("parts.list", e.handlePartsList)
	server.Handle("get_settings", e.handleGetSettings)
	server.Handle("template.list", e.handleTemplateList)
	server.Handle("template.apply", e.handleTemplateApply)
	server.Handle("layout.row", e.handleLayoutRow)
	server.Handle("layout.column", e.handleLayoutColumn)
	server.Handle("layout.merge", e.handleLayoutMerge)
	server.Handle("layout.resize", e.handleLayoutResize)
	server.Handle("layout.even_out", e.handleLayoutEvenOut)
	server.Handle("layout.kill_pane", e.handleLayoutKillPane)
	server.Handle("layout.swap_pane", e.handleLayoutSwapPane)
	server.Handle("layout.break_pane", e.handleLayoutBreakPane)
	server.Handle("layout.capture", e.handleLayoutCapture)
	server.Handle("layout.capture_save", e.handleLayoutCaptureSave)
	server.Handle("daemon.stop", e.handleDaemonStop)
}

func decode(payload []byte, into any) error {
	if err := json.Unmarshal(payload, into); err != nil {
		return fmt.Errorf("malformed request: %w", err)
	}
	return nil
}

func encode(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode response: %w", err)
	}
	return string(data), nil
}

// resolvePane turns a request's session+target pair into a pane ID.
// A literal "%N" pane id passes through after an existence check.
// With no session named, agent targets are searched across every
// session; positional targets need the session.
func (e *Engine) resolvePane(session, target string) (string, error) {
	if strings.HasPrefix(target, "%") {
		if _, _, ok := e.Registry.FindPane(target); !ok {
			return "", fmt.Errorf("%w: pane %s", registry.ErrNoSuchTarget, target)
		}
		return target, nil
	}
	if session != "" {
		mirrored, ok := e.Registry.Session(session)
		if !ok {
			return "", fmt.Errorf("%w: session %q", registry.ErrNoSuchTarget, session)
		}
		return registry.ResolveTarget(mirrored, target)
	}
	var firstErr error
	for _, mirrored := range e.Registry.Sessions() {
		paneID, err := registry.ResolveTarget(mirrored, target)
		if err == nil {
			return paneID, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = fmt.Errorf("%w: %q", registry.ErrNoSuchTarget, target)
	}
	return "", firstErr
}

func (e *Engine) handleStatus(ctx context.Context, payload []byte) (string, error) {
	if _, err := e.Registry.Refresh(); err != nil {
		return "", err
	}
	sessions := e.Registry.Sessions()
	panes := 0
	for _, session := range sessions {
		for _, window := range session.Windows {
			panes += len(window.Panes)
		}
	}
	return encode(map[string]int{
		"sessions": len(sessions),
		"panes":    panes,
		"agents":   len(e.Agents.List()),
	})
}

// Wire views for session.list. The registry's own types carry the
// live tree; clients get the serialized layout expression instead.
type paneView struct {
	ID       string `json:"id"`
	Occupant string `json:"occupant,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type windowView struct {
	Index  int        `json:"index"`
	Name   string     `json:"name"`
	Layout string     `json:"layout"`
	Panes  []paneView `json:"panes"`
}

type sessionView struct {
	Name    string       `json:"name"`
	Windows []windowView `json:"windows"`
}

func (e *Engine) handleSessionList(ctx context.Context, payload []byte) (string, error) {
	if _, err := e.Registry.Refresh(); err != nil {
		return "", err
	}
	views := []sessionView{}
	for _, session := range e.Registry.Sessions() {
		view := sessionView{Name: session.Name}
		for _, window := range session.Windows {
			wv := windowView{
				Index:  window.Index,
				Name:   window.Name,
				Layout: layout.Serialize(window.Tree),
			}
			for _, pane := range window.Panes {
				wv.Panes = append(wv.Panes, paneView{
					ID:       pane.ID,
					Occupant: pane.Occupant,
					Width:    pane.Width,
					Height:   pane.Height,
				})
			}
			view.Windows = append(view.Windows, wv)
		}
		views = append(views, view)
	}
	return encode(views)
}

func (e *Engine) handleCreateSession(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		Name string `json:"name"`
		Cwd  string `json:"cwd"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	if req.Name == "" {
		return "", fmt.Errorf("%w: session name is empty", executor.ErrInvalidStructure)
	}
	return "", e.Executor.CreateSession(req.Name, req.Cwd)
}

func (e *Engine) handleKillSession(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	return "", e.Executor.KillSession(req.Name)
}

// split_pane splits the last pane of the session's first window, the
// region most recently carved out. The layout.row / layout.column
// commands address an explicit pane instead.
func (e *Engine) handleSplitPane(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		Session   string `json:"session"`
		Direction string `json:"direction"`
		Percent   int    `json:"percent"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	var axis layout.Axis
	switch req.Direction {
	case "horizontal":
		axis = layout.AxisRow
	case "vertical":
		axis = layout.AxisCol
	default:
		return "", fmt.Errorf("%w: direction %q is not horizontal/vertical",
			executor.ErrInvalidStructure, req.Direction)
	}
	if req.Percent == 0 {
		req.Percent = 50
	}

	window, ok := e.Registry.Window(req.Session, 0)
	if !ok {
		return "", fmt.Errorf("%w: session %q", executor.ErrNotFound, req.Session)
	}
	if len(window.Panes) == 0 {
		return "", fmt.Errorf("%w: session %q has no panes", executor.ErrNotFound, req.Session)
	}
	target := window.Panes[len(window.Panes)-1].ID

	newID, err := e.Executor.Split(target, axis, req.Percent)
	if err != nil {
		return "", err
	}
	return encode(map[string]string{"pane_id": newID})
}

func (e *Engine) handlePlaceAgent(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		PaneID string `json:"pane_id"`
		Agent  string `json:"agent"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	if req.Agent == "" {
		return "", fmt.Errorf("%w: agent name is empty", executor.ErrInvalidStructure)
	}
	if err := e.Executor.PlaceAgent(req.PaneID, req.Agent); err != nil {
		return "", err
	}
	session, _, _ := e.Registry.FindPane(req.PaneID)
	e.Agents.Assign(req.Agent, session, req.PaneID)
	return "", nil
}

func (e *Engine) handleCreateAgent(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		Name string `json:"name"`
		Role string `json:"role"`
		Path string `json:"path"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	return "", e.Agents.Create(req.Name, req.Role, req.Path)
}

func (e *Engine) handleKillAgent(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	return "", e.Agents.Kill(req.Name)
}

func (e *Engine) handleSendKeys(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		Session string   `json:"session"`
		Target  string   `json:"target"`
		Keys    []string `json:"keys"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	if len(req.Keys) == 0 {
		return "", fmt.Errorf("%w: no keys to send", executor.ErrInvalidStructure)
	}
	if _, err := e.Registry.Refresh(); err != nil {
		return "", err
	}
	paneID, err := e.resolvePane(req.Session, req.Target)
	if err != nil {
		return "", err
	}
	return "", e.Executor.SendKeys(paneID, req.Keys...)
}

func (e *Engine) handlePartsList(ctx context.Context, payload []byte) (string, error) {
	return e.Parts.Catalog()
}

func (e *Engine) handleGetSettings(ctx context.Context, payload []byte) (string, error) {
	return e.Config.JSON()
}

func (e *Engine) handleTemplateList(ctx context.Context, payload []byte) (string, error) {
	names, err := e.Templates.List()
	if err != nil {
		return "", err
	}
	sort.Strings(names)
	return encode(names)
}

func (e *Engine) handleTemplateApply(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		Name    string `json:"name"`
		Session string `json:"session"`
		Window  int    `json:"window"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	loaded, err := e.Templates.Load(req.Name)
	if err != nil {
		return "", err
	}
	return "", template.Apply(e.Executor, e.Registry, req.Session, req.Window, loaded)
}

// targetRequest is the shape shared by the pane-addressed layout
// commands.
type targetRequest struct {
	Session string `json:"session"`
	Target  string `json:"target"`
}

// targetPane resolves a pane-addressed request against the mirror.
// No refresh here: the executor refreshes around every mutation, and
// an extra one would double the multiplexer round-trips per command.
func (e *Engine) targetPane(payload []byte) (string, targetRequest, error) {
	var req targetRequest
	if err := decode(payload, &req); err != nil {
		return "", req, err
	}
	paneID, err := e.resolvePane(req.Session, req.Target)
	return paneID, req, err
}

func (e *Engine) split(payload []byte, axis layout.Axis) (string, error) {
	var req struct {
		targetRequest
		Percent int `json:"percent"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	if req.Percent == 0 {
		req.Percent = 50
	}
	paneID, err := e.resolvePane(req.Session, req.Target)
	if err != nil {
		return "", err
	}
	newID, err := e.Executor.Split(paneID, axis, req.Percent)
	if err != nil {
		return "", err
	}
	return encode(map[string]string{"pane_id": newID})
}

func (e *Engine) handleLayoutRow(ctx context.Context, payload []byte) (string, error) {
	return e.split(payload, layout.AxisRow)
}

func (e *Engine) handleLayoutColumn(ctx context.Context, payload []byte) (string, error) {
	return e.split(payload, layout.AxisCol)
}

func (e *Engine) handleLayoutMerge(ctx context.Context, payload []byte) (string, error) {
	paneID, _, err := e.targetPane(payload)
	if err != nil {
		return "", err
	}
	return "", e.Executor.Merge(paneID)
}

func (e *Engine) handleLayoutResize(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		targetRequest
		Direction string `json:"direction"`
		Step      int    `json:"step"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	direction, err := executor.ParseDirection(req.Direction)
	if err != nil {
		return "", err
	}
	if req.Step == 0 {
		req.Step = 5
	}
	paneID, err := e.resolvePane(req.Session, req.Target)
	if err != nil {
		return "", err
	}
	return "", e.Executor.Resize(paneID, direction, req.Step)
}

func (e *Engine) handleLayoutEvenOut(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		Session string `json:"session"`
		Window  int    `json:"window"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	return "", e.Executor.EvenOut(req.Session, req.Window)
}

func (e *Engine) handleLayoutKillPane(ctx context.Context, payload []byte) (string, error) {
	paneID, _, err := e.targetPane(payload)
	if err != nil {
		return "", err
	}
	return "", e.Executor.KillPane(paneID)
}

func (e *Engine) handleLayoutSwapPane(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		targetRequest
		Direction string `json:"direction"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	direction, err := executor.ParseDirection(req.Direction)
	if err != nil {
		return "", err
	}
	paneID, err := e.resolvePane(req.Session, req.Target)
	if err != nil {
		return "", err
	}
	return "", e.Executor.Swap(paneID, direction)
}

func (e *Engine) handleLayoutBreakPane(ctx context.Context, payload []byte) (string, error) {
	paneID, _, err := e.targetPane(payload)
	if err != nil {
		return "", err
	}
	newSession, err := e.Executor.BreakPane(paneID)
	if err != nil {
		return "", err
	}
	return encode(map[string]string{"session": newSession})
}

// layout.capture returns the serialized layout expression of every
// window in the session.
func (e *Engine) handleLayoutCapture(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		Session string `json:"session"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	if _, err := e.Registry.Refresh(); err != nil {
		return "", err
	}
	session, ok := e.Registry.Session(req.Session)
	if !ok {
		return "", fmt.Errorf("%w: session %q", executor.ErrNotFound, req.Session)
	}
	captured := []map[string]any{}
	for _, window := range session.Windows {
		captured = append(captured, map[string]any{
			"index":  window.Index,
			"layout": layout.Serialize(window.Tree),
		})
	}
	return encode(captured)
}

func (e *Engine) handleLayoutCaptureSave(ctx context.Context, payload []byte) (string, error) {
	var req struct {
		Session string `json:"session"`
		Window  int    `json:"window"`
		Name    string `json:"name"`
	}
	if err := decode(payload, &req); err != nil {
		return "", err
	}
	if _, err := e.Registry.Refresh(); err != nil {
		return "", err
	}
	window, ok := e.Registry.Window(req.Session, req.Window)
	if !ok {
		return "", fmt.Errorf("%w: window %s:%d", executor.ErrNotFound, req.Session, req.Window)
	}
	captured, err := template.Capture(req.Name, window.Tree)
	if err != nil {
		return "", err
	}
	return "", e.Templates.Save(captured)
}

func (e *Engine) handleDaemonStop(ctx context.Context, payload []byte) (string, error) {
	if e.Stop == nil {
		return "", fmt.Errorf("daemon stop is not wired")
	}
	// Deferred so the ok response reaches the client before the
	// listener and connections shut down.
	time.AfterFunc(100*time.Millisecond, e.Stop)
	return "", nil
}
