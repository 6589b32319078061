// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package layout

import "sort"

// PaneGeometry is the observed position and size of one physical pane
// in character cells, as reported by the multiplexer. Geometry is
// never authored — it is ground truth read back after every mutation.
type PaneGeometry struct {
	ID       string
	Occupant string
	Width    int
	Height   int
	Top      int
	Left     int
}

// FromPanes reconstructs a layout tree from a flat list of pane
// geometries.
//
// Panes sharing a top coordinate sit side by side; distinct top
// coordinates are bands stacked vertically. The algorithm groups by
// top (multiple bands → Col), then within a band by left (multiple
// columns → Row), recursing until single panes remain. Proportions
// are derived from cell sizes relative to the enclosing extent.
//
// An empty input produces a single unbound, unoccupied pane.
func FromPanes(panes []PaneGeometry) *Node {
	if len(panes) == 0 {
		return &Node{Kind: KindPane}
	}
	if len(panes) == 1 {
		return &Node{Kind: KindPane, PaneID: panes[0].ID, Occupant: panes[0].Occupant}
	}

	topGroups := groupBy(panes, func(p PaneGeometry) int { return p.Top })
	if len(topGroups) > 1 {
		sort.Slice(topGroups, func(i, j int) bool {
			return topGroups[i][0].Top < topGroups[j][0].Top
		})
		totalHeight := extent(topGroups,
			func(p PaneGeometry) int { return p.Top },
			func(p PaneGeometry) int { return p.Top + p.Height })
		children := make([]Entry, len(topGroups))
		for i, group := range topGroups {
			children[i] = Entry{
				Node:       FromPanes(group),
				Proportion: proportionOf(bandHeight(group), totalHeight),
			}
		}
		return &Node{Kind: KindCol, Children: children}
	}

	// All panes share the same top: side by side, split by left.
	leftGroups := groupBy(panes, func(p PaneGeometry) int { return p.Left })
	sort.Slice(leftGroups, func(i, j int) bool {
		return leftGroups[i][0].Left < leftGroups[j][0].Left
	})
	totalWidth := extent(leftGroups,
		func(p PaneGeometry) int { return p.Left },
		func(p PaneGeometry) int { return p.Left + p.Width })
	children := make([]Entry, len(leftGroups))
	for i, group := range leftGroups {
		children[i] = Entry{
			Node:       FromPanes(group),
			Proportion: proportionOf(bandWidth(group), totalWidth),
		}
	}
	return &Node{Kind: KindRow, Children: children}
}

// groupBy partitions panes by a coordinate, preserving first-seen
// group order.
func groupBy(panes []PaneGeometry, key func(PaneGeometry) int) [][]PaneGeometry {
	var keys []int
	groups := make(map[int][]PaneGeometry)
	for _, p := range panes {
		k := key(p)
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], p)
	}
	result := make([][]PaneGeometry, len(keys))
	for i, k := range keys {
		result[i] = groups[k]
	}
	return result
}

// extent computes the span covered by all groups along one axis.
func extent(groups [][]PaneGeometry, low, high func(PaneGeometry) int) int {
	min, max := -1, 0
	for _, group := range groups {
		for _, p := range group {
			if min == -1 || low(p) < min {
				min = low(p)
			}
			if high(p) > max {
				max = high(p)
			}
		}
	}
	if min == -1 {
		return 0
	}
	return max - min
}

// bandHeight is the height of a group of panes sharing a top
// coordinate.
func bandHeight(group []PaneGeometry) int {
	h := 0
	for _, p := range group {
		if p.Height > h {
			h = p.Height
		}
	}
	return h
}

// bandWidth is the width of a group of panes sharing a left
// coordinate.
func bandWidth(group []PaneGeometry) int {
	w := 0
	for _, p := range group {
		if p.Width > w {
			w = p.Width
		}
	}
	return w
}

// proportionOf converts a cell span to a percentage of the total,
// clamped into 1..99 so reconstructed trees always validate. Returns
// nil when the total is zero.
func proportionOf(span, total int) *int {
	if total <= 0 {
		return nil
	}
	pct := span * 100 / total
	if pct < 1 {
		pct = 1
	}
	if pct > 99 {
		pct = 99
	}
	return Pct(pct)
}
