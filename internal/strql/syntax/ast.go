// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

// Package syntax implements the STRQL surface-syntax parser (spec.md
// §4.1): lexing and grammar-attributed parsing of query source into a
// raw, not-yet-resolved AST, plus the post-parse validation that
// prepares it for the grammar model. Builtin shortcuts are only
// recognized here; package grammar de-sugars them.
package syntax

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// reservedWords are identifiers the grammar treats as keywords rather
// than statement/variable names (spec.md §3).
var reservedWords = map[string]bool{
	"TEXT": true, "LETTER": true, "WORD": true, "DIGIT": true,
	"SPACE": true, "NEWLINE": true, "ANYCHAR": true, "ANY": true,
	"ALPHANUM": true, "LINE": true, "ROOT": true, "OR": true,
	"SPLITBY": true, "GREEDY": true, "LAZY": true, "UPPER": true,
	"LOWER": true, "ANYCASE": true, "ADD": true, "TO": true,
	"n": true, "N": true,
}

// IsReservedWord reports whether word is a reserved STRQL identifier.
func IsReservedWord(word string) bool {
	return reservedWords[word]
}

// builtinShortcuts are the builtin zero-argument expression keywords
// that validation accepts as known names; grammar.Build de-sugars them
// (spec.md §3, "Built-in shortcuts").
var builtinShortcuts = map[string]bool{
	"WORD": true, "ANY": true, "ALPHANUM": true, "LINE": true,
	"LETTER": true, "DIGIT": true, "SPACE": true, "NEWLINE": true,
	"ANYCHAR": true,
}

// --- Raw (pre-resolution) AST ---
//
// RawQuery is what the participle parser produces directly: statement
// bodies reference other statements and local bindings by bare
// identifier. Resolving those identifiers into grammar.Model indices
// happens one layer up, in package grammar.

// RawQuery is the top-level parse result: zero or more statements.
type RawQuery struct {
	Pos        lexer.Position  `parser:""`
	Statements []*RawStatement `parser:"@@*"`
}

// RawStatement is `name = expr [-> capture] ;`.
type RawStatement struct {
	Pos     lexer.Position `parser:""`
	Name    string         `parser:"@Ident '='"`
	Body    *RawOr         `parser:"@@"`
	Capture *RawCapture    `parser:"('->' @@)?"`
	Semi    string         `parser:"';'"`
}

// RawOr is OR-precedence: a left-associative chain of RawSplit terms.
type RawOr struct {
	Pos  lexer.Position `parser:""`
	Head *RawSplit      `parser:"@@"`
	Rest []*RawSplit    `parser:"('OR' @@)*"`
}

// RawSplit is SPLITBY-precedence: an optional [GREEDY|LAZY] SPLITBY
// suffix on a concatenation.
type RawSplit struct {
	Pos     lexer.Position `parser:""`
	Head    *RawSeq        `parser:"@@"`
	Pref    string         `parser:"( (@('GREEDY' | 'LAZY'))?"`
	SplitBy *RawSeq        `parser:"  'SPLITBY' @@ )?"`
}

// RawSeq is implicit-concatenation precedence: one or more prefixed
// units juxtaposed.
type RawSeq struct {
	Pos   lexer.Position `parser:""`
	Items []*RawUnit     `parser:"@@+"`
}

// RawUnit is a single atom optionally wrapped in a range-repetition
// prefix and/or a case-scope prefix (spec.md §4.1 precedence levels
// 4-6). The two prefixes may nest in either order; RawRange and
// RawCaseMod each recurse into RawUnit so `2..5 UPPER "x"` and
// `UPPER 2..5 "x"` both parse.
type RawUnit struct {
	Pos   lexer.Position `parser:""`
	Range *RawRange      `parser:"(  @@"`
	Case  *RawCaseMod    `parser:" | @@"`
	Atom  *RawAtom       `parser:" | @@ )"`
}

// RawRange is a `<min>..<max> [GREEDY|LAZY] <unit>` prefix.
type RawRange struct {
	Pos  lexer.Position `parser:""`
	Min  string         `parser:"@(Number | Ident)"`
	Max  string         `parser:"DotDot @(Number | Ident)"`
	Pref string         `parser:"(@('GREEDY' | 'LAZY'))?"`
	Unit *RawUnit       `parser:"@@"`
}

// RawCaseMod is a `UPPER|LOWER|ANYCASE <unit>` prefix.
type RawCaseMod struct {
	Pos  lexer.Position `parser:""`
	Mode string         `parser:"@('UPPER' | 'LOWER' | 'ANYCASE')"`
	Unit *RawUnit       `parser:"@@"`
}

// RawAtom is a literal, an inline statement, a parenthesized
// sub-expression, or a bare identifier (variable reference or builtin
// keyword). Inline is tried before Paren since both start with '(';
// participle's configured MaxLookahead backtracks to Paren when the
// `Ident '='` prefix fails to match.
type RawAtom struct {
	Pos     lexer.Position `parser:""`
	Literal *string        `parser:"(  @String"`
	Inline  *RawInline     `parser:" | @@"`
	Paren   *RawOr         `parser:" | '(' @@ ')'"`
	Ident   *string        `parser:" | @Ident )"`
}

// RawInline is `(name = expr [-> capture])`, a local binding scoped to
// the enclosing statement.
type RawInline struct {
	Pos     lexer.Position `parser:""`
	Name    string         `parser:"'(' @Ident '='"`
	Body    *RawOr         `parser:"@@"`
	Capture *RawCapture    `parser:"('->' @@)?"`
	RParen  string         `parser:"')'"`
}

// RawCapture is `ADD [name ['{' '}']] TO <path>`.
type RawCapture struct {
	Pos      lexer.Position `parser:""`
	Add      string         `parser:"'ADD'"`
	Name     string         `parser:"(@Ident"`
	IsObject string         `parser:" @('{' '}')? )?"`
	To       string         `parser:"'TO'"`
	Path     *RawPath       `parser:"@@"`
}

// RawPath is a dotted sequence of segments; each segment may carry an
// empty-bracket array suffix or a bracketed-identifier named-key
// suffix (e.g. `ROOT.results[]`, `ROOT.byId[id]`).
type RawPath struct {
	Pos      lexer.Position `parser:""`
	Segments []*RawSegment  `parser:"@@ ('.' @@)*"`
}

// RawSegment is one path step: `name`, `name[]`, or `name[varRef]`.
type RawSegment struct {
	Pos      lexer.Position `parser:""`
	Name    string `parser:"@(Ident | 'ROOT')"`
	IsArray bool   `parser:"(  @('[' ']')"`
	KeyVar  string `parser:" | '[' @Ident ']' )?"`
}
