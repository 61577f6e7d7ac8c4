// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

// Package grammar is the resolved, immutable representation of a parsed
// STRQL query: statements indexed by name, expressions with symbol
// references resolved to statement indices or inline bindings, and
// pre-order quantifier numbering used by the matcher's preference
// vectors.
package grammar

import "fmt"

// ExprKind tags the variant held by an Expr node.
type ExprKind int

const (
	KindLiteral ExprKind = iota
	KindVarRef
	KindAlt
	KindSeq
	KindRepeat
	KindClass
	KindLine
	KindCaseScope
	KindInline
)

func (k ExprKind) String() string {
	switch k {
	case KindLiteral:
		return "Literal"
	case KindVarRef:
		return "VarRef"
	case KindAlt:
		return "Alt"
	case KindSeq:
		return "Seq"
	case KindRepeat:
		return "Repeat"
	case KindClass:
		return "Class"
	case KindLine:
		return "Line"
	case KindCaseScope:
		return "CaseScope"
	case KindInline:
		return "Inline"
	default:
		return fmt.Sprintf("ExprKind(%d)", int(k))
	}
}

// ClassKind is a character class predicate (spec.md §6).
type ClassKind int

const (
	ClassLetter ClassKind = iota
	ClassDigit
	ClassSpace
	ClassNewline
	ClassAnyChar
)

// CaseMode selects the case-comparison rule inside a CaseScope.
type CaseMode int

const (
	CaseUpper CaseMode = iota
	CaseLower
	CaseAnyCase
)

// Preference is the disambiguation preference attached to a Repeat.
type Preference int

const (
	PrefUnspecified Preference = iota
	PrefGreedy
	PrefLazy
)

// Bound is one side (min or max) of a Repeat's count range. A bound
// spelled with a number is exact; one spelled with an identifier or
// n/N is unbounded in that direction (spec.md §3, Repeat note).
type Bound struct {
	Value     int
	Unbounded bool
}

// VarTarget is where a VarRef resolves: either a top-level statement
// (by index into Model.Statements) or a lexically enclosing InlineStmt
// binding.
type VarTarget struct {
	StmtIndex int         // valid when Inline == nil
	Inline    *InlineStmt // valid when resolved to a local inline binding
}

// Name returns the referenced variable's name, for diagnostics.
func (t VarTarget) Name(m *Model) string {
	if t.Inline != nil {
		return t.Inline.Name
	}
	return m.Statements[t.StmtIndex].Name
}

// Expr is a resolved grammar expression node. Exactly the fields for
// Kind are meaningful; see ExprKind's doc for the mapping (mirrors the
// tagged-variant Expression of spec.md §3).
type Expr struct {
	Kind ExprKind

	// KindLiteral
	Literal string

	// KindVarRef
	Ref VarTarget

	// KindAlt
	Left, Right *Expr

	// KindSeq
	Children []*Expr

	// KindRepeat
	Min, Max Bound
	Pref     Preference
	Body     *Expr
	Slot     int // pre-order quantifier slot, assigned by Build

	// KindClass
	Class ClassKind

	// KindCaseScope (reuses Body)
	Mode CaseMode

	// KindInline
	Inline *InlineStmt
}

// InlineStmt is a parenthesized `(x = expr [-> ...])` local binding. It
// is its own addressable node (by pointer identity) so VarRefs from
// within the enclosing statement can resolve to it without a global
// name table entry.
type InlineStmt struct {
	Name    string
	Body    *Expr
	Capture *Capture
}

// SegKind tags a capture Path segment.
type SegKind int

const (
	SegRoot SegKind = iota
	SegField
	SegArray
	SegNamedKey
)

// Segment is one step of a capture Path (spec.md §3, Path).
type Segment struct {
	Kind SegKind
	Name string // field/array/named-key name; empty for SegRoot
	// KeyVar is the variable whose matched text supplies the dynamic key,
	// for SegNamedKey.
	KeyVar string
}

// CaptureSourceKind tags a Capture's value source.
type CaptureSourceKind int

const (
	SourceDefault CaptureSourceKind = iota
	SourceVar
	SourceObject
)

// CaptureSource selects what text/value a capture contributes.
type CaptureSource struct {
	Kind CaptureSourceKind
	Name string // variable name (SourceVar) or new alias name (SourceObject)
}

// Capture is the `-> ADD ... TO <path>` annotation on a statement or
// inline statement.
type Capture struct {
	Source CaptureSource
	Path   []Segment
}

// Statement is a named top-level production (spec.md §3, Statement).
type Statement struct {
	Name    string
	Body    *Expr
	Capture *Capture
}

// Model is the fully resolved grammar: statements indexed by name, plus
// the TEXT entry point. Immutable once built by Build.
type Model struct {
	Statements []*Statement
	index      map[string]int
	TextIndex  int

	// NumSlots is the number of distinct quantifier pre-order slots
	// assigned across the whole grammar; preference vectors are sparse
	// maps with keys in [0, NumSlots).
	NumSlots int
}

// StatementOf returns the statement with the given name, or (nil, false).
func (m *Model) StatementOf(name string) (*Statement, int, bool) {
	idx, ok := m.index[name]
	if !ok {
		return nil, 0, false
	}
	return m.Statements[idx], idx, true
}

// Text returns the distinguished TEXT statement.
func (m *Model) Text() *Statement {
	return m.Statements[m.TextIndex]
}
