// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package syntax

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"
)

// GrammarVersion is the version of the STRQL surface grammar implemented
// here, checked against an optional leading `# strql <constraint>` pragma
// (SPEC_FULL.md, "Supplemented features" §1).
const GrammarVersion = "1.0.0"

// parser is the singleton participle parser instance, built once at
// package init like the access-policy DSL's parser.
var parser *participle.Parser[RawQuery]

func init() {
	var err error
	parser, err = NewParser()
	if err != nil {
		panic(fmt.Sprintf("failed to build STRQL parser: %v", err))
	}
}

// NewParser constructs a participle parser for the STRQL grammar.
// MaxLookahead enables full backtracking: RawAtom's Inline/Paren
// alternatives share a leading '(' and many RawUnit prefixes share a
// leading Ident with a bare VarRef atom.
func NewParser() (*participle.Parser[RawQuery], error) {
	return participle.Build[RawQuery](
		participle.Lexer(strqlLexer),
		participle.Unquote("String"),
		participle.UseLookahead(participle.MaxLookahead),
	)
}

// ParseErrorKind enumerates the closed set of query-time error kinds
// (spec.md §4.1).
type ParseErrorKind int

const (
	UnexpectedToken ParseErrorKind = iota
	UnterminatedLiteral
	BadRange
	UnknownVariable
	DuplicateStatement
	BadCapturePath
	MissingText
)

func (k ParseErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "UnexpectedToken"
	case UnterminatedLiteral:
		return "UnterminatedLiteral"
	case BadRange:
		return "BadRange"
	case UnknownVariable:
		return "UnknownVariable"
	case DuplicateStatement:
		return "DuplicateStatement"
	case BadCapturePath:
		return "BadCapturePath"
	case MissingText:
		return "MissingText"
	default:
		return "Unknown"
	}
}

// ParseError is a location-tagged query-compile-time error.
type ParseError struct {
	Line    int
	Col     int
	Kind    ParseErrorKind
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", e.Line, e.Col, e.Kind, e.Message)
}

func newParseError(pos lexer.Position, kind ParseErrorKind, format string, args ...any) *ParseError {
	return &ParseError{
		Line:    pos.Line,
		Col:     pos.Column,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Parse parses STRQL source into a validated, but not yet
// symbol-resolved, RawQuery. It enforces: TEXT defined exactly once, no
// duplicate statement names, no reserved-word statement/local names, and
// (for captures) Root appearing only as a path's first segment. Unknown
// variable references are checked here too, against both the top-level
// statement table and each statement's own local inline bindings.
func Parse(source string) (*RawQuery, error) {
	query, compat, body := splitCompatPragma(source)
	if compat != "" {
		if err := checkCompat(compat); err != nil {
			return nil, err
		}
	}

	raw, err := parser.ParseString("", body)
	if err != nil {
		return nil, mapParticipleError(err)
	}

	if err := validate(raw); err != nil {
		return nil, err
	}

	_ = query // query == body when no pragma; kept for clarity/debugging
	return raw, nil
}

// splitCompatPragma strips a leading `# strql <constraint>` comment line,
// returning the constraint text (empty if absent) and the remaining
// source to parse.
func splitCompatPragma(source string) (original, constraint, rest string) {
	trimmed := strings.TrimLeft(source, " \t\r\n")
	if !strings.HasPrefix(trimmed, "#") {
		return source, "", source
	}
	nl := strings.IndexByte(trimmed, '\n')
	var line string
	if nl == -1 {
		line, rest = trimmed, ""
	} else {
		line, rest = trimmed[:nl], trimmed[nl+1:]
	}
	fields := strings.Fields(strings.TrimPrefix(line, "#"))
	if len(fields) >= 2 && fields[0] == "strql" {
		return source, strings.Join(fields[1:], " "), rest
	}
	return source, "", source
}

func checkCompat(constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return &ParseError{Line: 1, Col: 1, Kind: BadRange,
			Message: fmt.Sprintf("invalid #strql version constraint %q: %v", constraint, err)}
	}
	v := semver.MustParse(GrammarVersion)
	if !c.Check(v) {
		return &ParseError{Line: 1, Col: 1, Kind: BadRange,
			Message: fmt.Sprintf("query requires strql %s, engine implements %s", constraint, GrammarVersion)}
	}
	return nil
}

// mapParticipleError translates a participle parse failure into a
// ParseError (keeping participle's position and message) and wraps
// that ParseError with oops for operator-facing diagnostics; callers
// can still errors.As the result to *ParseError.
func mapParticipleError(err error) error {
	kind := UnexpectedToken
	msg := err.Error()
	line, col := 1, 1

	var perr participle.Error
	if errors.As(err, &perr) {
		line, col = perr.Position().Line, perr.Position().Column
		msg = perr.Message()
	}
	if strings.Contains(msg, `"`) && strings.Contains(msg, "invalid") {
		kind = UnterminatedLiteral
	}
	pe := &ParseError{Line: line, Col: col, Kind: kind, Message: msg}
	return oops.Code("strql_parse_error").
		With("line", line).
		With("col", col).
		Wrapf(pe, "parsing STRQL query")
}

// validate performs the referential-integrity checks spec.md §4.1
// assigns to the parser: TEXT defined exactly once, no duplicate
// statement names, no reserved-word misuse, captures whose path
// contains Root anywhere but first rejected, and every VarRef resolves
// to either a defined statement or a local inline binding in scope.
func validate(q *RawQuery) error {
	seen := make(map[string]*RawStatement, len(q.Statements))
	var textCount int
	for _, stmt := range q.Statements {
		if IsReservedWord(stmt.Name) && stmt.Name != "TEXT" {
			return newParseError(stmt.Pos, UnexpectedToken,
				"%q is a reserved word and cannot be used as a statement name", stmt.Name)
		}
		if prev, ok := seen[stmt.Name]; ok {
			return newParseError(stmt.Pos, DuplicateStatement,
				"statement %q already defined at %d:%d", stmt.Name, prev.Pos.Line, prev.Pos.Column)
		}
		seen[stmt.Name] = stmt
		if stmt.Name == "TEXT" {
			textCount++
		}
	}
	if textCount == 0 {
		return &ParseError{Line: 1, Col: 1, Kind: MissingText, Message: "no TEXT statement defined"}
	}

	names := make(map[string]bool, len(seen))
	for n := range seen {
		names[n] = true
	}
	for _, stmt := range q.Statements {
		if err := validateExprOr(stmt.Body, names, map[string]bool{}); err != nil {
			return err
		}
		if stmt.Capture != nil {
			if err := validateCapture(stmt.Capture); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateExprOr(e *RawOr, names, locals map[string]bool) error {
	if err := validateExprSplit(e.Head, names, locals); err != nil {
		return err
	}
	for _, r := range e.Rest {
		if err := validateExprSplit(r, names, locals); err != nil {
			return err
		}
	}
	return nil
}

func validateExprSplit(e *RawSplit, names, locals map[string]bool) error {
	if err := validateExprSeq(e.Head, names, locals); err != nil {
		return err
	}
	if e.SplitBy != nil {
		return validateExprSeq(e.SplitBy, names, locals)
	}
	return nil
}

func validateExprSeq(e *RawSeq, names, locals map[string]bool) error {
	for _, item := range e.Items {
		if err := validateUnit(item, names, locals); err != nil {
			return err
		}
	}
	return nil
}

func validateUnit(u *RawUnit, names, locals map[string]bool) error {
	switch {
	case u.Range != nil:
		return validateUnit(u.Range.Unit, names, locals)
	case u.Case != nil:
		return validateUnit(u.Case.Unit, names, locals)
	default:
		return validateAtom(u.Atom, names, locals)
	}
}

func validateAtom(a *RawAtom, names, locals map[string]bool) error {
	switch {
	case a.Literal != nil:
		return nil
	case a.Inline != nil:
		return validateInline(a.Inline, names, locals)
	case a.Paren != nil:
		return validateExprOr(a.Paren, names, locals)
	case a.Ident != nil:
		id := *a.Ident
		if builtinShortcuts[id] {
			return nil
		}
		if locals[id] || names[id] {
			return nil
		}
		return newParseError(a.Pos, UnknownVariable, "unknown variable %q", id)
	}
	return nil
}

func validateInline(in *RawInline, names, locals map[string]bool) error {
	if IsReservedWord(in.Name) {
		return newParseError(in.Pos, UnexpectedToken,
			"%q is a reserved word and cannot be used as a local variable name", in.Name)
	}
	inner := make(map[string]bool, len(locals)+1)
	for k := range locals {
		inner[k] = true
	}
	inner[in.Name] = true
	if err := validateExprOr(in.Body, names, inner); err != nil {
		return err
	}
	if in.Capture != nil {
		return validateCapture(in.Capture)
	}
	return nil
}

func validateCapture(c *RawCapture) error {
	for i, seg := range c.Path.Segments {
		if seg.Name == "ROOT" && i != 0 {
			return newParseError(seg.Pos, BadCapturePath, "ROOT may only appear as the first path segment")
		}
	}
	return nil
}
