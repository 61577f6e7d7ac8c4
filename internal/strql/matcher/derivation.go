// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

// Package matcher implements STRQL's recursive-descent matcher
// (spec.md §4.2): given a resolved grammar.Model and an input string, it
// finds the preferred Derivation of the TEXT statement spanning the
// whole input, resolving ambiguity between candidate parses via each
// Repeat's preference vector.
package matcher

import "github.com/strql/strql/internal/strql/grammar"

// Derivation is one node of a successful match: the grammar.Expr it
// came from, the input span [Lo, Hi) it covers, and the sub-derivations
// needed to reconstruct how it matched (spec.md §3, Derivation).
//
// Sub's meaning depends on Expr.Kind:
//   - Literal, Class, Line: no children.
//   - Alt: exactly one child, the branch that matched; AltRight
//     records which branch.
//   - Seq: one child per Expr.Children, same order.
//   - Repeat: one child per repetition (len(Sub) == the chosen count).
//   - CaseScope: one child, the body's derivation.
//   - VarRef: one child, the resolved statement/inline body's derivation.
//   - Inline: one child, the body's derivation.
type Derivation struct {
	Expr *grammar.Expr
	Lo   int
	Hi   int
	Sub  []*Derivation

	AltRight bool // meaningful only when Expr.Kind == grammar.KindAlt

	// Target/InlineTarget identify what a VarRef derivation resolved to,
	// so the capture projector can find its Capture annotation without
	// re-walking the grammar.
	Target       *grammar.Statement
	InlineTarget *grammar.InlineStmt

	// Tied records that some part of this derivation was chosen among
	// candidates with an exactly equal preference vector; it surfaces as
	// Ambiguous if this derivation ends up being the overall match.
	Tied bool
}

// Text returns the substring of input this derivation covers.
func (d *Derivation) Text(input string) string {
	return input[d.Lo:d.Hi]
}
