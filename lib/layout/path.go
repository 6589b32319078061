// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package layout

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no leaf in the tree carries the
// requested pane binding.
var ErrNotFound = errors.New("pane not found in layout tree")

// ErrInvalidPath is returned when a child-index path no longer
// resolves against the tree — the structural race a caller hits when
// it holds a path across a mutation.
var ErrInvalidPath = errors.New("path does not resolve in layout tree")

// Path locates a node as a sequence of child indices from the root.
// The empty path is the root itself.
type Path []int

// Clone returns a copy of the path.
func (p Path) Clone() Path {
	copied := make(Path, len(p))
	copy(copied, p)
	return copied
}

// FindPath returns the path to the leaf bound to paneID. Returns
// ErrNotFound if no leaf carries that binding.
func FindPath(root *Node, paneID string) (Path, error) {
	path, found := findPath(root, paneID, nil)
	if !found {
		return nil, fmt.Errorf("pane %q: %w", paneID, ErrNotFound)
	}
	return path, nil
}

func findPath(n *Node, paneID string, prefix Path) (Path, bool) {
	if n == nil {
		return nil, false
	}
	if n.IsLeaf() {
		if n.PaneID == paneID {
			return prefix.Clone(), true
		}
		return nil, false
	}
	for i, child := range n.Children {
		if path, found := findPath(child.Node, paneID, append(prefix, i)); found {
			return path, true
		}
	}
	return nil, false
}

// NodeAt returns the node at path. Returns ErrInvalidPath if the path
// does not resolve.
func NodeAt(root *Node, path Path) (*Node, error) {
	current := root
	for _, index := range path {
		if current == nil || current.IsLeaf() || index < 0 || index >= len(current.Children) {
			return nil, fmt.Errorf("index %d: %w", index, ErrInvalidPath)
		}
		current = current.Children[index].Node
	}
	if current == nil {
		return nil, ErrInvalidPath
	}
	return current, nil
}

// ReplaceAt returns a new tree with the node at path replaced by
// subtree. The input tree is not modified; nodes along the path are
// copied, untouched branches are cloned wholesale. The replaced
// entry's proportion is preserved. Returns ErrInvalidPath if the path
// does not resolve.
func ReplaceAt(root *Node, path Path, subtree *Node) (*Node, error) {
	if len(path) == 0 {
		return subtree, nil
	}
	if root == nil || root.IsLeaf() {
		return nil, fmt.Errorf("index %d at non-container: %w", path[0], ErrInvalidPath)
	}
	index := path[0]
	if index < 0 || index >= len(root.Children) {
		return nil, fmt.Errorf("index %d out of range: %w", index, ErrInvalidPath)
	}

	copied := &Node{Kind: root.Kind, PaneID: root.PaneID, Occupant: root.Occupant}
	copied.Children = make([]Entry, len(root.Children))
	for i, child := range root.Children {
		if i == index {
			replacedChild, err := ReplaceAt(child.Node, path[1:], subtree)
			if err != nil {
				return nil, err
			}
			copied.Children[i] = Entry{Node: replacedChild, Proportion: clonePct(child.Proportion)}
		} else {
			copied.Children[i] = Entry{Node: child.Node.Clone(), Proportion: clonePct(child.Proportion)}
		}
	}
	return copied, nil
}

// RemoveAt returns a new tree with the node at path removed from its
// parent, followed by a Collapse so no container is left with fewer
// than two children. Removing the root (empty path) returns nil.
func RemoveAt(root *Node, path Path) (*Node, error) {
	if len(path) == 0 {
		return nil, nil
	}
	parentPath := path[:len(path)-1]
	index := path[len(path)-1]

	parent, err := NodeAt(root, parentPath)
	if err != nil {
		return nil, err
	}
	if parent.IsLeaf() || index < 0 || index >= len(parent.Children) {
		return nil, fmt.Errorf("index %d out of range: %w", index, ErrInvalidPath)
	}

	trimmed := &Node{Kind: parent.Kind}
	for i, child := range parent.Children {
		if i == index {
			continue
		}
		trimmed.Children = append(trimmed.Children, Entry{
			Node:       child.Node.Clone(),
			Proportion: clonePct(child.Proportion),
		})
	}
	NormalizeProportions(trimmed.Children)

	replaced, err := ReplaceAt(root, parentPath, trimmed)
	if err != nil {
		return nil, err
	}
	return Collapse(replaced), nil
}

// Collapse returns a tree in which every Row/Col node left with a
// single child has been replaced by that child, recursively. A
// container left with zero children collapses to nil, which
// propagates upward. Run after every structural mutation to restore
// the ≥2-children invariant.
func Collapse(n *Node) *Node {
	if n == nil || n.IsLeaf() {
		return n
	}
	var children []Entry
	for _, child := range n.Children {
		collapsed := Collapse(child.Node)
		if collapsed == nil {
			continue
		}
		children = append(children, Entry{Node: collapsed, Proportion: clonePct(child.Proportion)})
	}
	switch len(children) {
	case 0:
		return nil
	case 1:
		// The sole survivor is promoted into the parent's slot; its
		// proportion no longer means anything there.
		return children[0].Node
	default:
		return &Node{Kind: n.Kind, Children: children}
	}
}

// NormalizeProportions rescales the explicit proportions in children
// so they sum to at most 100. Entries with nil proportion are left nil
// — they share whatever space the explicit entries do not claim. When
// every entry is explicit and the sum exceeds 100, all are scaled down
// proportionally; when some entries are implicit and the explicit sum
// is 100 or more, the explicit entries are scaled to leave room for
// the implicit ones.
func NormalizeProportions(children []Entry) {
	explicit := 0
	implicitCount := 0
	for _, child := range children {
		if child.Proportion == nil {
			implicitCount++
		} else {
			explicit += *child.Proportion
		}
	}

	// Budget for explicit entries: the whole space if everything is
	// explicit, otherwise leave the implicit entries an equal share
	// each alongside the explicit ones.
	budget := 100
	if implicitCount > 0 {
		budget = 100 - implicitCount*(100/len(children))
	}
	if explicit <= budget || explicit == 0 {
		return
	}

	for _, child := range children {
		if child.Proportion != nil {
			scaled := *child.Proportion * budget / explicit
			if scaled < 1 {
				scaled = 1
			}
			*child.Proportion = scaled
		}
	}
}

// ResolveProportions computes the effective percentage of each entry:
// explicit proportions as given, with the unclaimed remainder divided
// equally among implicit entries. The result always sums to 100 give
// or take integer rounding, with the rounding remainder assigned to
// the final entry.
func ResolveProportions(children []Entry) []int {
	if len(children) == 0 {
		return nil
	}
	resolved := make([]int, len(children))
	remainder := 100
	implicit := make([]int, 0, len(children))
	for i, child := range children {
		if child.Proportion != nil {
			resolved[i] = *child.Proportion
			remainder -= *child.Proportion
		} else {
			implicit = append(implicit, i)
		}
	}
	if len(implicit) > 0 {
		if remainder < len(implicit) {
			remainder = len(implicit)
		}
		share := remainder / len(implicit)
		for _, i := range implicit {
			resolved[i] = share
		}
		resolved[implicit[len(implicit)-1]] += remainder - share*len(implicit)
	}
	return resolved
}
