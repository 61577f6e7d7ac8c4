// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package grammar

import (
	"fmt"

	"github.com/strql/strql/internal/strql/syntax"
)

// CycleError reports a productive-cycle violation detected while
// building the Model (spec.md §4.2, §9 "Cycle detection"): a statement
// (or local inline binding) reachable from itself with no consuming
// atom or grounded alternative anywhere in the cycle.
type CycleError struct {
	Names []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("productive cycle with no consuming atom: %v", e.Names)
}

// Build resolves a syntax.RawQuery into an immutable Model: identifiers
// become statement indices or inline-binding pointers, builtin
// shortcuts are de-sugared into their expansions, quantifiers are
// numbered in pre-order, and the productive-cycle check runs last. The
// grammar-version pragma is checked earlier, by syntax.Parse.
func Build(raw *syntax.RawQuery) (*Model, error) {
	m := &Model{index: make(map[string]int, len(raw.Statements))}
	for i, s := range raw.Statements {
		m.index[s.Name] = i
		if s.Name == "TEXT" {
			m.TextIndex = i
		}
		m.Statements = append(m.Statements, &Statement{Name: s.Name})
	}

	c := &buildCtx{model: m}
	for i, s := range raw.Statements {
		scope := newScope(nil)
		m.Statements[i].Body = c.convertOr(s.Body, scope)
		if s.Capture != nil {
			m.Statements[i].Capture = convertCapture(s.Capture)
		}
	}
	m.NumSlots = c.slot

	if err := checkCycles(m, c.inlines); err != nil {
		return nil, err
	}
	return m, nil
}

// buildCtx carries the pre-order quantifier-slot counter and the list
// of inline-statement nodes created during conversion, for later cycle
// analysis.
type buildCtx struct {
	model   *Model
	slot    int
	inlines []*InlineStmt
}

func (c *buildCtx) nextSlot() int {
	s := c.slot
	c.slot++
	return s
}

// scope is an immutable, copy-on-write chain of local inline bindings
// visible within one statement's body.
type scope struct {
	vars map[string]*InlineStmt
}

func newScope(parent *scope) *scope {
	s := &scope{vars: make(map[string]*InlineStmt)}
	if parent != nil {
		for k, v := range parent.vars {
			s.vars[k] = v
		}
	}
	return s
}

func (s *scope) with(name string, in *InlineStmt) *scope {
	next := newScope(s)
	next.vars[name] = in
	return next
}

func (s *scope) lookup(name string) (*InlineStmt, bool) {
	in, ok := s.vars[name]
	return in, ok
}

func (c *buildCtx) convertOr(o *syntax.RawOr, sc *scope) *Expr {
	result := c.convertSplit(o.Head, sc)
	for _, r := range o.Rest {
		result = &Expr{Kind: KindAlt, Left: result, Right: c.convertSplit(r, sc)}
	}
	return result
}

func (c *buildCtx) convertSplit(s *syntax.RawSplit, sc *scope) *Expr {
	base := c.convertSeq(s.Head, sc)
	if s.SplitBy == nil {
		return base
	}
	slot := c.nextSlot()
	sep := c.convertSeq(s.SplitBy, sc)
	repeat := &Expr{
		Kind: KindRepeat,
		Min:  Bound{Value: 0},
		Max:  Bound{Unbounded: true},
		Pref: parsePref(s.Pref),
		Body: &Expr{Kind: KindSeq, Children: []*Expr{sep, base}},
		Slot: slot,
	}
	return &Expr{Kind: KindSeq, Children: []*Expr{base, repeat}}
}

func (c *buildCtx) convertSeq(sq *syntax.RawSeq, sc *scope) *Expr {
	if len(sq.Items) == 1 {
		return c.convertUnit(sq.Items[0], sc)
	}
	children := make([]*Expr, len(sq.Items))
	for i, item := range sq.Items {
		children[i] = c.convertUnit(item, sc)
	}
	return &Expr{Kind: KindSeq, Children: children}
}

func (c *buildCtx) convertUnit(u *syntax.RawUnit, sc *scope) *Expr {
	switch {
	case u.Range != nil:
		slot := c.nextSlot()
		body := c.convertUnit(u.Range.Unit, sc)
		return &Expr{
			Kind: KindRepeat,
			Min:  parseBound(u.Range.Min),
			Max:  parseBound(u.Range.Max),
			Pref: parsePref(u.Range.Pref),
			Body: body,
			Slot: slot,
		}
	case u.Case != nil:
		body := c.convertUnit(u.Case.Unit, sc)
		return &Expr{Kind: KindCaseScope, Mode: parseCaseMode(u.Case.Mode), Body: body}
	default:
		return c.convertAtom(u.Atom, sc)
	}
}

func (c *buildCtx) convertAtom(a *syntax.RawAtom, sc *scope) *Expr {
	switch {
	case a.Literal != nil:
		return &Expr{Kind: KindLiteral, Literal: *a.Literal}
	case a.Inline != nil:
		return c.convertInline(a.Inline, sc)
	case a.Paren != nil:
		return c.convertOr(a.Paren, sc)
	case a.Ident != nil:
		return c.convertIdent(*a.Ident, sc)
	default:
		panic("strql: grammar: empty RawAtom reached Build (parser invariant violated)")
	}
}

func (c *buildCtx) convertInline(in *syntax.RawInline, sc *scope) *Expr {
	inline := &InlineStmt{Name: in.Name}
	c.inlines = append(c.inlines, inline)
	inner := sc.with(in.Name, inline)
	inline.Body = c.convertOr(in.Body, inner)
	if in.Capture != nil {
		inline.Capture = convertCapture(in.Capture)
	}
	return &Expr{Kind: KindInline, Inline: inline}
}

func (c *buildCtx) convertIdent(id string, sc *scope) *Expr {
	if e := desugarBuiltin(id, c); e != nil {
		return e
	}
	if in, ok := sc.lookup(id); ok {
		return &Expr{Kind: KindVarRef, Ref: VarTarget{Inline: in}}
	}
	idx, _, ok := c.model.StatementOf(id)
	_ = idx
	if !ok {
		// syntax.Parse already validated every reference resolves; reaching
		// here means the two passes disagree, which is an engine bug.
		panic(fmt.Sprintf("strql: grammar: unresolved variable %q survived parser validation", id))
	}
	stmtIdx, _, _ := c.model.StatementOf(id)
	return &Expr{Kind: KindVarRef, Ref: VarTarget{StmtIndex: stmtIdx}}
}

// desugarBuiltin expands the builtin shortcut keywords (spec.md §3,
// "Built-in shortcuts") into their equivalent Expr shape, or returns nil
// if id is not a builtin.
func desugarBuiltin(id string, c *buildCtx) *Expr {
	switch id {
	case "LETTER":
		return &Expr{Kind: KindClass, Class: ClassLetter}
	case "DIGIT":
		return &Expr{Kind: KindClass, Class: ClassDigit}
	case "SPACE":
		return &Expr{Kind: KindClass, Class: ClassSpace}
	case "NEWLINE":
		return &Expr{Kind: KindClass, Class: ClassNewline}
	case "ANYCHAR":
		return &Expr{Kind: KindClass, Class: ClassAnyChar}
	case "LINE":
		return &Expr{Kind: KindLine}
	case "WORD":
		slot := c.nextSlot()
		return &Expr{Kind: KindRepeat, Min: Bound{Value: 1}, Max: Bound{Unbounded: true},
			Body: &Expr{Kind: KindClass, Class: ClassLetter}, Slot: slot}
	case "ANY":
		slot := c.nextSlot()
		return &Expr{Kind: KindRepeat, Min: Bound{Value: 0}, Max: Bound{Unbounded: true},
			Body: &Expr{Kind: KindClass, Class: ClassAnyChar}, Slot: slot}
	case "ALPHANUM":
		slot := c.nextSlot()
		body := &Expr{Kind: KindAlt,
			Left:  &Expr{Kind: KindClass, Class: ClassLetter},
			Right: &Expr{Kind: KindClass, Class: ClassDigit},
		}
		return &Expr{Kind: KindRepeat, Min: Bound{Value: 1}, Max: Bound{Unbounded: true},
			Body: body, Slot: slot}
	default:
		return nil
	}
}

func parsePref(s string) Preference {
	switch s {
	case "GREEDY":
		return PrefGreedy
	case "LAZY":
		return PrefLazy
	default:
		return PrefUnspecified
	}
}

func parseCaseMode(s string) CaseMode {
	switch s {
	case "UPPER":
		return CaseUpper
	case "LOWER":
		return CaseLower
	default:
		return CaseAnyCase
	}
}

// parseBound converts a range endpoint token into a Bound. A
// digit-sequence token is an exact value; anything else (an identifier,
// or n/N) means "unbounded in this direction" (spec.md §3, Repeat note).
func parseBound(tok string) Bound {
	if tok == "" {
		return Bound{Unbounded: true}
	}
	n := 0
	for _, r := range tok {
		if r < '0' || r > '9' {
			return Bound{Unbounded: true}
		}
		n = n*10 + int(r-'0')
	}
	return Bound{Value: n}
}

func convertCapture(rc *syntax.RawCapture) *Capture {
	src := CaptureSource{Kind: SourceDefault}
	if rc.Name != "" {
		if rc.IsObject != "" {
			src = CaptureSource{Kind: SourceObject, Name: rc.Name}
		} else {
			src = CaptureSource{Kind: SourceVar, Name: rc.Name}
		}
	}
	segs := make([]Segment, len(rc.Path.Segments))
	for i, s := range rc.Path.Segments {
		switch {
		case s.Name == "ROOT" && i == 0:
			segs[i] = Segment{Kind: SegRoot}
		case s.IsArray:
			segs[i] = Segment{Kind: SegArray, Name: s.Name}
		case s.KeyVar != "":
			segs[i] = Segment{Kind: SegNamedKey, Name: s.Name, KeyVar: s.KeyVar}
		default:
			segs[i] = Segment{Kind: SegField, Name: s.Name}
		}
	}
	return &Capture{Source: src, Path: segs}
}
