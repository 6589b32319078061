// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

// Package parts loads the user's parts library: a markdown file of
// named tiles that layouts are assembled from. Each "##" heading
// starts a part; a body of "role: <r>" declares an agent tile, a body
// holding a ROW(...)/COL(...) layout expression declares a
// composition. Compositions whose leaves reference other parts are
// session tiles: expanding one recursively inlines the referenced
// parts into a single layout tree.
package parts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/muxux-dev/muxux/lib/layout"
)

// Kind classifies a part.
type Kind string

const (
	// KindAgent is a single tile running one agent role.
	KindAgent Kind = "agent"
	// KindComposition is a layout of plain tiles.
	KindComposition Kind = "composition"
	// KindSession is a composition that references other parts.
	KindSession Kind = "session"
)

// Part is one entry of the library.
type Part struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// Role is set for agent parts.
	Role string `json:"role,omitempty"`
	// Layout is the layout expression for composition and session
	// parts.
	Layout string `json:"layout,omitempty"`
}

// ErrPartNotFound marks a reference to a part the library lacks.
var ErrPartNotFound = errors.New("part not found")

// Library is a parsed parts file. Lookup is by name; List preserves
// file order.
type Library struct {
	parts map[string]Part
	order []string
}

// Load reads and parses a parts file. A missing file is an empty
// library, not an error: the parts library is optional.
func Load(path string) (*Library, error) {
	source, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Library{parts: map[string]Part{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load parts file: %w", err)
	}
	library, err := Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse parts file %s: %w", path, err)
	}
	return library, nil
}

// Parse builds a library from markdown source.
func Parse(source []byte) (*Library, error) {
	document := goldmark.New().Parser().Parse(text.NewReader(source))

	library := &Library{parts: map[string]Part{}}
	var name string
	var body []string

	flush := func() error {
		if name == "" {
			return nil
		}
		part, err := classify(name, body)
		if err != nil {
			return err
		}
		if _, dup := library.parts[part.Name]; dup {
			return fmt.Errorf("duplicate part %q", part.Name)
		}
		library.parts[part.Name] = part
		library.order = append(library.order, part.Name)
		name, body = "", nil
		return nil
	}

	for node := document.FirstChild(); node != nil; node = node.NextSibling() {
		if heading, ok := node.(*ast.Heading); ok && heading.Level == 2 {
			if err := flush(); err != nil {
				return nil, err
			}
			name = strings.TrimSpace(string(heading.Text(source)))
			continue
		}
		if name == "" {
			continue
		}
		body = append(body, blockLines(node, source)...)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	library.reclassifySessions()
	return library, nil
}

// blockLines extracts the raw source lines of one block node.
func blockLines(node ast.Node, source []byte) []string {
	var collected []string
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		line := strings.TrimSpace(string(segment.Value(source)))
		if line != "" {
			collected = append(collected, line)
		}
	}
	return collected
}

// classify decides what kind of part a heading and its body declare.
func classify(name string, body []string) (Part, error) {
	for _, line := range body {
		if role, ok := strings.CutPrefix(line, "role:"); ok {
			return Part{Name: name, Kind: KindAgent, Role: strings.TrimSpace(role)}, nil
		}
		upper := strings.ToUpper(line)
		if strings.HasPrefix(upper, "ROW(") || strings.HasPrefix(upper, "COL(") {
			if _, err := layout.Parse(line); err != nil {
				return Part{}, fmt.Errorf("part %q: %w", name, err)
			}
			return Part{Name: name, Kind: KindComposition, Layout: line}, nil
		}
	}
	return Part{}, fmt.Errorf("part %q has neither a role nor a layout", name)
}

// reclassifySessions upgrades compositions whose leaves reference
// other parts.
func (l *Library) reclassifySessions() {
	for _, name := range l.order {
		part := l.parts[name]
		if part.Kind != KindComposition {
			continue
		}
		tree, err := layout.Parse(part.Layout)
		if err != nil {
			continue
		}
		for _, occupant := range tree.Occupants() {
			if occupant == "" || occupant == name {
				continue
			}
			if _, ok := l.parts[occupant]; ok {
				part.Kind = KindSession
				l.parts[name] = part
				break
			}
		}
	}
}

// Get looks a part up by name.
func (l *Library) Get(name string) (Part, bool) {
	part, ok := l.parts[name]
	return part, ok
}

// List returns all parts in file order.
func (l *Library) List() []Part {
	parts := make([]Part, 0, len(l.order))
	for _, name := range l.order {
		parts = append(parts, l.parts[name])
	}
	return parts
}

// Catalog renders the library as a JSON array for protocol clients.
func (l *Library) Catalog() (string, error) {
	encoded, err := json.Marshal(l.List())
	if err != nil {
		return "", fmt.Errorf("encode parts catalog: %w", err)
	}
	return string(encoded), nil
}

// Expand resolves a part into a fully inlined layout tree. Agent
// parts expand to a single pane occupied by the part name;
// compositions and sessions expand their expression with every leaf
// that references another part replaced by that part's expansion.
func (l *Library) Expand(name string) (*layout.Node, error) {
	return l.expand(name, map[string]bool{})
}

func (l *Library) expand(name string, visiting map[string]bool) (*layout.Node, error) {
	part, ok := l.parts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPartNotFound, name)
	}
	if visiting[name] {
		return nil, fmt.Errorf("part %q references itself", name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	if part.Kind == KindAgent {
		return layout.NewPane("", part.Name), nil
	}
	tree, err := layout.Parse(part.Layout)
	if err != nil {
		return nil, fmt.Errorf("part %q: %w", name, err)
	}
	expanded, err := l.expandLeaves(tree, visiting)
	if err != nil {
		return nil, err
	}
	return expanded, nil
}

// expandLeaves replaces part-referencing leaves with their
// expansions, leaving literal occupants alone.
func (l *Library) expandLeaves(node *layout.Node, visiting map[string]bool) (*layout.Node, error) {
	if node.IsLeaf() {
		if _, ok := l.parts[node.Occupant]; !ok {
			return node, nil
		}
		return l.expand(node.Occupant, visiting)
	}
	for i, child := range node.Children {
		expanded, err := l.expandLeaves(child.Node, visiting)
		if err != nil {
			return nil, err
		}
		node.Children[i].Node = expanded
	}
	return node, nil
}
