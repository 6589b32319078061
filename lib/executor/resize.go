// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"fmt"

	"github.com/muxux-dev/muxux/lib/layout"
	"github.com/muxux-dev/muxux/lib/registry"
)

// Resize grows the target pane by step percent in the given
// direction, shrinking the adjacent sibling branch. The nearest
// ancestor splitting along the direction's axis absorbs the change;
// the shift is clamped so no sibling drops below the minimum share.
func (e *Executor) Resize(paneID string, direction Direction, step int) error {
	if step < 1 || step > 99 {
		return fmt.Errorf("%w: resize step %d", ErrInvalidStructure, step)
	}
	session, windowIndex, _, err := e.locate(paneID)
	if err != nil {
		return err
	}
	lock := e.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	window, err := e.snapshot(session, windowIndex, paneID)
	if err != nil {
		return err
	}
	path, err := layout.FindPath(window.Tree, paneID)
	if err != nil {
		return fmt.Errorf("%w: pane %s", ErrNotFound, paneID)
	}

	// Walk from the leaf toward the root looking for an ancestor that
	// splits along the direction's axis and has a neighbor on the
	// wanted side of the target's branch.
	depth := -1
	childIndex, neighborIndex := 0, 0
	var ancestor *layout.Node
	for i := len(path) - 1; i >= 0; i-- {
		node, err := layout.NodeAt(window.Tree, path[:i])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		if node.Axis() != direction.axis() {
			continue
		}
		idx := path[i]
		neighbor := idx - 1
		if direction.forward() {
			neighbor = idx + 1
		}
		if neighbor < 0 || neighbor >= len(node.Children) {
			continue
		}
		depth, childIndex, neighborIndex, ancestor = i, idx, neighbor, node
		break
	}
	if ancestor == nil {
		return fmt.Errorf("%w: no %s-axis ancestor above %s",
			ErrNoResizableAncestor, direction.axis(), paneID)
	}

	resolved := layout.ResolveProportions(ancestor.Children)
	delta := step
	if room := resolved[neighborIndex] - e.minShare(); room < delta {
		delta = room
	}
	if delta <= 0 {
		// Fully clamped: nothing to shift.
		return nil
	}

	candidate := window.Tree.Clone()
	target, err := layout.NodeAt(candidate, path[:depth])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	for i := range target.Children {
		share := resolved[i]
		switch i {
		case childIndex:
			share += delta
		case neighborIndex:
			share -= delta
		}
		target.Children[i].Proportion = layout.Pct(share)
	}

	geometry := paneRects(window)
	extent := boundingRect(ancestor, geometry).span(direction.axis())
	deltaCells := extent * delta / 100
	if deltaCells != 0 {
		lower := childIndex
		signed := deltaCells
		if !direction.forward() {
			lower = neighborIndex
			signed = -deltaCells
		}
		edgePane := lastLeaf(ancestor.Children[lower].Node).PaneID
		if err := e.adapter.ResizePane(edgePane, direction.axis(), signed); err != nil {
			return &AdapterError{Op: "resize-pane", Err: err}
		}
	}

	if err := e.verifyAndCommit(session, windowIndex, candidate); err != nil {
		return err
	}
	e.logger.Info("pane resized", "session", session, "pane", paneID,
		"direction", string(direction), "step", delta)
	return nil
}

// EvenOut resets every proportion in the window's tree to an equal
// split. The whole tree is evened, not just one subtree. Idempotent:
// a second call finds every divider already in place and issues no
// resize work.
func (e *Executor) EvenOut(session string, windowIndex int) error {
	lock := e.sessionLock(session)
	lock.Lock()
	defer lock.Unlock()

	if _, err := e.registry.Refresh(); err != nil {
		return err
	}
	window, ok := e.registry.Window(session, windowIndex)
	if !ok {
		return fmt.Errorf("%w: window %s:%d", ErrNotFound, session, windowIndex)
	}

	candidate := window.Tree.Clone()
	clearProportions(candidate)

	geometry := paneRects(window)
	plan, err := evenPlan(window.Tree, boundingRect(window.Tree, geometry), geometry)
	if err != nil {
		return err
	}
	for _, move := range plan {
		if err := e.adapter.ResizePane(move.paneID, move.axis, move.delta); err != nil {
			return &AdapterError{Op: "resize-pane", Err: err}
		}
	}

	if err := e.verifyAndCommit(session, windowIndex, candidate); err != nil {
		return err
	}
	e.logger.Info("window evened out", "session", session,
		"window", windowIndex, "moves", len(plan))
	return nil
}

func clearProportions(node *layout.Node) {
	for i := range node.Children {
		node.Children[i].Proportion = nil
		clearProportions(node.Children[i].Node)
	}
}

// divider is one planned adapter resize: move the divider at paneID's
// trailing edge along axis by delta cells.
type divider struct {
	paneID string
	axis   layout.Axis
	delta  int
}

// evenPlan computes the divider moves that take the tree from its
// observed geometry to an equal split of the desired rectangle.
// Dividers move independently of each other, so every delta is the
// difference between a divider's desired and observed absolute
// position. Fails before planning any move if an equal share would
// fall below the minimum pane size.
func evenPlan(node *layout.Node, desired rect, geometry map[string]rect) ([]divider, error) {
	if node.IsLeaf() {
		return nil, nil
	}
	axis := node.Axis()
	count := len(node.Children)
	extent := desired.span(axis)
	if extent/count < minPaneCells {
		return nil, fmt.Errorf("%w: %d cells across %d panes",
			ErrLayoutTooSmall, extent, count)
	}

	var plan []divider
	low := desired.low(axis)
	for i, child := range node.Children {
		childDesired := desired
		from := low + extent*i/count
		to := low + extent*(i+1)/count
		childDesired.setRange(axis, from, to)

		if i < count-1 {
			observed := boundingRect(child.Node, geometry).high(axis)
			if delta := to - observed; delta != 0 {
				plan = append(plan, divider{
					paneID: lastLeaf(child.Node).PaneID,
					axis:   axis,
					delta:  delta,
				})
			}
		}

		childPlan, err := evenPlan(child.Node, childDesired, geometry)
		if err != nil {
			return nil, err
		}
		plan = append(plan, childPlan...)
	}
	return plan, nil
}

// rect is a pane or subtree rectangle in cells.
type rect struct {
	x, y, w, h int
}

func (r rect) span(axis layout.Axis) int {
	if axis == layout.AxisRow {
		return r.w
	}
	return r.h
}

func (r rect) low(axis layout.Axis) int {
	if axis == layout.AxisRow {
		return r.x
	}
	return r.y
}

func (r rect) high(axis layout.Axis) int {
	if axis == layout.AxisRow {
		return r.x + r.w
	}
	return r.y + r.h
}

func (r *rect) setRange(axis layout.Axis, from, to int) {
	if axis == layout.AxisRow {
		r.x, r.w = from, to-from
		return
	}
	r.y, r.h = from, to-from
}

// paneRects indexes a window's observed geometry by pane ID.
func paneRects(window registry.Window) map[string]rect {
	rects := make(map[string]rect, len(window.Panes))
	for _, pane := range window.Panes {
		rects[pane.ID] = rect{x: pane.Left, y: pane.Top, w: pane.Width, h: pane.Height}
	}
	return rects
}

// boundingRect is the smallest rectangle covering every leaf of the
// subtree.
func boundingRect(node *layout.Node, geometry map[string]rect) rect {
	leaves := node.Leaves()
	bound := rect{x: -1, y: -1}
	maxX, maxY := 0, 0
	for _, leaf := range leaves {
		r, ok := geometry[leaf.PaneID]
		if !ok {
			continue
		}
		if bound.x == -1 || r.x < bound.x {
			bound.x = r.x
		}
		if bound.y == -1 || r.y < bound.y {
			bound.y = r.y
		}
		if r.x+r.w > maxX {
			maxX = r.x + r.w
		}
		if r.y+r.h > maxY {
			maxY = r.y + r.h
		}
	}
	if bound.x == -1 {
		return rect{}
	}
	bound.w = maxX - bound.x
	bound.h = maxY - bound.y
	return bound
}

// lastLeaf is the bottom-right leaf of a subtree; its trailing edges
// lie on the subtree's boundary along both axes.
func lastLeaf(node *layout.Node) *layout.Node {
	for !node.IsLeaf() {
		node = node.Children[len(node.Children)-1].Node
	}
	return node
}
