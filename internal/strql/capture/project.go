// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

// Package capture implements STRQL's capture projector (spec.md §4.3):
// walking a matcher.Derivation to assemble the JSON value its captures
// describe, resolving each Path against either the document root or a
// currently-open object alias.
package capture

import (
	"strings"

	"github.com/strql/strql/internal/strql/grammar"
	"github.com/strql/strql/internal/strql/matcher"
)

// varBinding is one entry of the dynamically-scoped local-variable
// stack: the matched text of a statement reference or inline statement
// whose subtree is being walked, available to its own capture and to
// captures fired inside that subtree (`ADD <var> TO ...`).
type varBinding struct {
	name string
	text string
}

type projector struct {
	input   string
	root    map[string]any
	vars    []varBinding
	aliases map[string]map[string]any
}

// Project walks root (the Derivation spec.md's TEXT statement matched)
// and builds the JSON object its captures describe. A Model with no
// captures anywhere produces an empty object, matching spec.md §4.3's
// "capture-free queries still produce a well-formed empty document".
func Project(model *grammar.Model, root *matcher.Derivation, input string) (map[string]any, error) {
	p := &projector{input: input, root: map[string]any{}, aliases: map[string]map[string]any{}}

	if text := model.Text(); text.Capture != nil {
		pop, err := p.apply(text.Capture, root)
		if err != nil {
			return nil, err
		}
		defer pop()
	}
	if err := p.walk(root); err != nil {
		return nil, err
	}
	return p.root, nil
}

func (p *projector) walk(d *matcher.Derivation) error {
	switch d.Expr.Kind {
	case grammar.KindInline:
		p.vars = append(p.vars, varBinding{name: d.Expr.Inline.Name, text: d.Text(p.input)})
		defer func() { p.vars = p.vars[:len(p.vars)-1] }()

		if cap := d.Expr.Inline.Capture; cap != nil {
			pop, err := p.apply(cap, d.Sub[0])
			if err != nil {
				return err
			}
			defer pop()
		}
		return p.walk(d.Sub[0])

	case grammar.KindVarRef:
		var name string
		var cap *grammar.Capture
		switch {
		case d.Target != nil:
			name = d.Target.Name
			cap = d.Target.Capture
		case d.InlineTarget != nil:
			name = d.InlineTarget.Name
			cap = d.InlineTarget.Capture
		}

		// Register this reference's matched text under its statement
		// name so captures fired inside its subtree can find it via
		// `ADD <name> TO ...` or a NamedKey path segment, the same way
		// an inline binding's own definition site does. The binding is
		// popped on return, so later siblings do not see it.
		p.vars = append(p.vars, varBinding{name: name, text: d.Text(p.input)})
		defer func() { p.vars = p.vars[:len(p.vars)-1] }()

		if cap != nil {
			pop, err := p.apply(cap, d.Sub[0])
			if err != nil {
				return err
			}
			defer pop()
		}
		return p.walk(d.Sub[0])

	case grammar.KindAlt, grammar.KindCaseScope:
		return p.walk(d.Sub[0])

	case grammar.KindSeq, grammar.KindRepeat:
		for _, c := range d.Sub {
			if err := p.walk(c); err != nil {
				return err
			}
		}
		return nil

	default: // Literal, Class, Line: terminal, nothing to capture below
		return nil
	}
}

// apply resolves one Capture's value and writes it at its Path. source
// is the derivation the capture is attached to, used for the Default
// source. It returns a pop func that the caller must defer until the
// enclosing statement's firing is complete: for an Object source that
// is the window during which the new alias stays registered
// (spec.md §4.3, "Object aliases ... are popped when the enclosing
// statement firing completes"); for every other source pop is a no-op.
func (p *projector) apply(c *grammar.Capture, source *matcher.Derivation) (pop func(), err error) {
	noop := func() {}
	switch c.Source.Kind {
	case grammar.SourceObject:
		obj := map[string]any{}
		if err := p.setAtPath(c.Path, obj); err != nil {
			return noop, err
		}
		prev, had := p.aliases[c.Source.Name]
		p.aliases[c.Source.Name] = obj
		return func() {
			if had {
				p.aliases[c.Source.Name] = prev
			} else {
				delete(p.aliases, c.Source.Name)
			}
		}, nil

	case grammar.SourceVar:
		text, ok := p.lookupVar(c.Source.Name)
		if !ok {
			return noop, &CaptureConflict{Path: pathString(c.Path) + " (unknown variable " + c.Source.Name + ")"}
		}
		return noop, p.setAtPath(c.Path, text)

	default: // SourceDefault
		return noop, p.setAtPath(c.Path, source.Text(p.input))
	}
}

func (p *projector) lookupVar(name string) (string, bool) {
	for i := len(p.vars) - 1; i >= 0; i-- {
		if p.vars[i].name == name {
			return p.vars[i].text, true
		}
	}
	return "", false
}

// setAtPath resolves path against the document root or, when its first
// segment names a currently-open object alias, against that alias's
// object instead (spec.md §4.3, "Path resolution").
func (p *projector) setAtPath(path []grammar.Segment, value any) error {
	if len(path) == 0 {
		return nil
	}
	cur := p.root
	rest := path
	switch {
	case path[0].Kind == grammar.SegRoot:
		rest = path[1:]
	case path[0].Kind == grammar.SegField:
		if alias, ok := p.aliases[path[0].Name]; ok {
			cur = alias
			rest = path[1:]
		}
	}
	if len(rest) == 0 {
		return &CaptureConflict{Path: pathString(path)}
	}
	return p.set(cur, rest, value, path)
}

func (p *projector) set(cur map[string]any, segs []grammar.Segment, value any, full []grammar.Segment) error {
	seg := segs[0]
	last := len(segs) == 1

	switch seg.Kind {
	case grammar.SegField:
		if last {
			if _, exists := cur[seg.Name]; exists {
				return &CaptureConflict{Path: pathString(full)}
			}
			cur[seg.Name] = value
			return nil
		}
		child, ok := cur[seg.Name].(map[string]any)
		if !ok {
			if _, exists := cur[seg.Name]; exists {
				return &CaptureConflict{Path: pathString(full)}
			}
			child = map[string]any{}
			cur[seg.Name] = child
		}
		return p.set(child, segs[1:], value, full)

	case grammar.SegArray:
		existing, ok := cur[seg.Name].([]any)
		if !ok {
			if _, exists := cur[seg.Name]; exists {
				return &CaptureConflict{Path: pathString(full)}
			}
		}
		if last {
			cur[seg.Name] = append(existing, value)
			return nil
		}
		if len(existing) == 0 {
			existing = append(existing, map[string]any{})
		}
		child, ok := existing[len(existing)-1].(map[string]any)
		if !ok {
			return &CaptureConflict{Path: pathString(full)}
		}
		cur[seg.Name] = existing
		return p.set(child, segs[1:], value, full)

	case grammar.SegNamedKey:
		text, ok := p.lookupVar(seg.KeyVar)
		if !ok {
			return &CaptureConflict{Path: pathString(full) + " (unknown key variable " + seg.KeyVar + ")"}
		}
		obj, ok := cur[seg.Name].(map[string]any)
		if !ok {
			if _, exists := cur[seg.Name]; exists {
				return &CaptureConflict{Path: pathString(full)}
			}
			obj = map[string]any{}
			cur[seg.Name] = obj
		}
		if last {
			if _, exists := obj[text]; exists {
				return &CaptureConflict{Path: pathString(full)}
			}
			obj[text] = value
			return nil
		}
		child, ok := obj[text].(map[string]any)
		if !ok {
			child = map[string]any{}
			obj[text] = child
		}
		return p.set(child, segs[1:], value, full)

	default: // SegRoot mid-path is rejected by syntax.validate before reaching here
		return p.set(cur, segs[1:], value, full)
	}
}

func pathString(path []grammar.Segment) string {
	parts := make([]string, len(path))
	for i, s := range path {
		switch s.Kind {
		case grammar.SegRoot:
			parts[i] = "ROOT"
		case grammar.SegArray:
			parts[i] = s.Name + "[]"
		case grammar.SegNamedKey:
			parts[i] = s.Name + "[" + s.KeyVar + "]"
		default:
			parts[i] = s.Name
		}
	}
	return strings.Join(parts, ".")
}
