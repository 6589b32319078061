// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Layout expressions are the compact textual form of a tree:
//
//	ROW(editor 60%, COL(logs, shell) 40%)
//
// ROW/COL are case-insensitive; a bare name is a pane occupied by that
// name; an entry may carry a trailing percentage. The expression form
// is used in the parts library, in drift detection (two captures are
// compared by their serialized expressions), and in logs.

// Serialize renders a tree as a layout expression. Pane bindings
// (PaneID) are not represented — expressions describe shape and
// occupancy only. An unoccupied pane serializes as the empty string.
func Serialize(n *Node) string {
	if n == nil {
		return ""
	}
	if n.IsLeaf() {
		return n.Occupant
	}
	keyword := "ROW"
	if n.Kind == KindCol {
		keyword = "COL"
	}
	parts := make([]string, len(n.Children))
	for i, child := range n.Children {
		part := Serialize(child.Node)
		if child.Proportion != nil {
			part = fmt.Sprintf("%s %d%%", part, *child.Proportion)
		}
		parts[i] = part
	}
	return keyword + "(" + strings.Join(parts, ", ") + ")"
}

// Parse parses a layout expression into a tree. The result carries
// occupants but no pane bindings.
func Parse(input string) (*Node, error) {
	parser := &exprParser{input: input}
	node, err := parser.parseNode()
	if err != nil {
		return nil, err
	}
	parser.skipSpaces()
	if parser.pos != len(parser.input) {
		return nil, fmt.Errorf("unexpected trailing input at offset %d in %q", parser.pos, input)
	}
	if err := node.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout expression %q: %w", input, err)
	}
	return node, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

// parseNode parses a group (ROW(...)/COL(...)) or a bare pane name.
func (p *exprParser) parseNode() (*Node, error) {
	p.skipSpaces()

	if kind, ok := p.peekGroupKeyword(); ok {
		return p.parseGroup(kind)
	}

	name := p.parseName()
	if name == "" {
		return nil, fmt.Errorf("expected ROW(, COL(, or a name at offset %d in %q", p.pos, p.input)
	}
	return &Node{Kind: KindPane, Occupant: name}, nil
}

// peekGroupKeyword reports whether the input at the cursor starts a
// ROW( or COL( group, without consuming it.
func (p *exprParser) peekGroupKeyword() (Kind, bool) {
	rest := p.input[p.pos:]
	upper := strings.ToUpper(rest)
	if strings.HasPrefix(upper, "ROW(") {
		return KindRow, true
	}
	if strings.HasPrefix(upper, "COL(") {
		return KindCol, true
	}
	return "", false
}

func (p *exprParser) parseGroup(kind Kind) (*Node, error) {
	p.pos += 4 // consume "ROW(" or "COL("
	var children []Entry
	for {
		child, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		entry := Entry{Node: child}

		p.skipSpaces()
		if pct, ok, err := p.parsePercent(); err != nil {
			return nil, err
		} else if ok {
			entry.Proportion = Pct(pct)
		}
		children = append(children, entry)

		p.skipSpaces()
		if p.pos >= len(p.input) {
			return nil, fmt.Errorf("unterminated group in %q", p.input)
		}
		switch p.input[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return &Node{Kind: kind, Children: children}, nil
		default:
			return nil, fmt.Errorf("expected ',' or ')' at offset %d in %q", p.pos, p.input)
		}
	}
}

// parsePercent consumes "NN%" if present.
func (p *exprParser) parsePercent() (int, bool, error) {
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, false, nil
	}
	if p.pos >= len(p.input) || p.input[p.pos] != '%' {
		return 0, false, fmt.Errorf("expected '%%' after number at offset %d in %q", p.pos, p.input)
	}
	value, err := strconv.Atoi(p.input[start:p.pos])
	if err != nil {
		return 0, false, fmt.Errorf("parsing percentage in %q: %w", p.input, err)
	}
	p.pos++ // consume '%'
	return value, true, nil
}

// parseName consumes a pane occupant name: letters, digits, and the
// separator characters parts and agents use.
func (p *exprParser) parseName() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		isNameChar := c == '-' || c == '_' || c == '.' || c == '/' ||
			(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !isNameChar {
			break
		}
		p.pos++
	}
	return p.input[start:p.pos]
}
