// Package strql is the public entry point to the STRQL engine: compile
// query source once with Compile, then Run it against any number of
// input strings to get back the JSON document its captures describe
// (spec.md §2 "System overview").
package strql

import (
	"encoding/json"

	"github.com/strql/strql/internal/observability"
	"github.com/strql/strql/internal/strql/capture"
	"github.com/strql/strql/internal/strql/grammar"
	"github.com/strql/strql/internal/strql/matcher"
	"github.com/strql/strql/internal/strql/syntax"
)

// Re-exported error types so callers can dispatch with errors.As without
// importing the internal packages directly.
type (
	// ParseError is a query-compile-time syntax or referential-integrity
	// error (spec.md §4.1).
	ParseError = syntax.ParseError
	// CycleError reports a productive-cycle violation in the grammar
	// (spec.md §4.2 "Cycle detection").
	CycleError = grammar.CycleError
	// NoMatch means no derivation of TEXT spans the whole input.
	NoMatch = matcher.NoMatch
	// Ambiguous means two or more candidate derivations tie exactly.
	Ambiguous = matcher.Ambiguous
	// CaptureConflict means two captures wrote incompatible values at
	// the same JSON location.
	CaptureConflict = capture.CaptureConflict
)

// GrammarVersion is the STRQL surface grammar version this build
// implements, checked against an optional `# strql <constraint>` pragma
// in query source.
const GrammarVersion = syntax.GrammarVersion

// Query is a compiled STRQL program: parsed, symbol-resolved, and free
// of productive cycles, ready to run against any number of inputs.
type Query struct {
	model *grammar.Model
}

// Compile parses and resolves STRQL source into a reusable Query. It
// returns a *ParseError for syntax/referential-integrity failures or a
// *grammar.CycleError for an unproductive self-reference.
func Compile(source string) (*Query, error) {
	raw, err := syntax.Parse(source)
	if err != nil {
		return nil, err
	}
	model, err := grammar.Build(raw)
	if err != nil {
		return nil, err
	}
	return &Query{model: model}, nil
}

// Run matches the compiled query against input and projects the
// winning derivation's captures into a JSON document. It returns
// *NoMatch, *Ambiguous, or *CaptureConflict on failure.
func (q *Query) Run(input string) (json.RawMessage, error) {
	doc, err := q.RunValue(input)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// RunValue is Run without the final JSON encoding step, for callers
// that want to inspect or further transform the captured document.
func (q *Query) RunValue(input string) (map[string]any, error) {
	return q.RunValueWithMetrics(input, nil)
}

// RunValueWithMetrics is RunValue, additionally recording match
// duration and outcome on metrics when non-nil (SPEC_FULL.md "Matcher
// metrics").
func (q *Query) RunValueWithMetrics(input string, metrics *observability.Metrics) (map[string]any, error) {
	derivation, err := matcher.MatchWithMetrics(q.model, input, metrics)
	if err != nil {
		return nil, err
	}
	return capture.Project(q.model, derivation, input)
}

// Run compiles source and runs it against input in one step. Prefer
// Compile once and Query.Run per input when running the same query
// repeatedly.
func Run(source, input string) (json.RawMessage, error) {
	q, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return q.Run(input)
}
