// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package capture_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strql/strql/internal/strql/capture"
	"github.com/strql/strql/internal/strql/grammar"
	"github.com/strql/strql/internal/strql/matcher"
	"github.com/strql/strql/internal/strql/syntax"
)

func run(t *testing.T, src, input string) (map[string]any, error) {
	t.Helper()
	raw, err := syntax.Parse(src)
	require.NoError(t, err, "source should parse: %s", src)
	model, err := grammar.Build(raw)
	require.NoError(t, err, "source should build: %s", src)
	d, err := matcher.Match(model, input)
	if err != nil {
		return nil, err
	}
	return capture.Project(model, d, input)
}

func TestProject_EmptyModelProducesEmptyObject(t *testing.T) {
	doc, err := run(t, `TEXT = "hi";`, "hi")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, doc)
}

func TestProject_DefaultSourceWritesMatchedSlice(t *testing.T) {
	doc, err := run(t, `
		greeting = "hi" -> ADD TO ROOT.greeting;
		TEXT = greeting;
	`, "hi")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"greeting": "hi"}, doc)
}

func TestProject_ArrayCaptureAppendsEachFiring(t *testing.T) {
	doc, err := run(t, `
		word = WORD -> ADD TO ROOT.words[];
		TEXT = word " " word " " word;
	`, "one two three")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"words": []any{"one", "two", "three"}}, doc)
}

// An Object-source capture belongs on the statement whose firing owns
// the alias (`-> ADD item{} TO ...`), not on an atom inside its body;
// nested statements then reach that alias by name through their own
// `-> ADD TO item.<field>` captures.
func TestProject_ObjectCaptureCreatesAliasForNestedFields(t *testing.T) {
	doc, err := run(t, `
		kind = WORD -> ADD TO item.kind;
		name = WORD -> ADD TO item.name;
		entry = kind " " name -> ADD item{} TO ROOT.entries[];
		TEXT = entry;
	`, "cat Whiskers")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"entries": []any{
			map[string]any{"kind": "cat", "name": "Whiskers"},
		},
	}, doc)
}

// A capture's Var(name) source resolves against the dynamic scope stack,
// which only holds bindings still enclosing the point of reference: the
// referenced name must be an ancestor in the derivation tree (a
// statement whose body contains this one), not a preceding sibling.
func TestProject_VarSourceCopiesAnEnclosingStatementsFullText(t *testing.T) {
	doc, err := run(t, `
		value = WORD -> ADD wrapper TO ROOT.copied;
		wrapper = WORD ":" value;
		TEXT = wrapper;
	`, "abc:xyz")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"copied": "abc:xyz"}, doc)
}

func TestProject_NamedKeySegmentUsesAnEnclosingStatementsTextAsKey(t *testing.T) {
	doc, err := run(t, `
		value = WORD -> ADD TO byId[entry];
		entry = "K" value;
		TEXT = entry;
	`, "Kfoo")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"byId": map[string]any{"Kfoo": "foo"},
	}, doc)
}

func TestProject_ReassigningScalarFieldIsAConflictEvenWithEqualValues(t *testing.T) {
	_, err := run(t, `
		a = "x" -> ADD TO ROOT.field;
		b = "x" -> ADD TO ROOT.field;
		TEXT = a b;
	`, "xx")
	require.Error(t, err)
	var conflict *capture.CaptureConflict
	require.ErrorAs(t, err, &conflict)
}

func TestProject_ArrayThenFieldAtSameNameIsAConflict(t *testing.T) {
	_, err := run(t, `
		a = "x" -> ADD TO ROOT.thing[];
		b = "y" -> ADD TO ROOT.thing;
		TEXT = a b;
	`, "xy")
	require.Error(t, err)
	var conflict *capture.CaptureConflict
	require.ErrorAs(t, err, &conflict)
}

// Two statements each opening their own "entry" alias must not see each
// other's fields: the alias is popped when its owning statement's
// firing completes (spec.md §4.3).
func TestProject_ObjectAliasIsScopedToOneStatementFiring(t *testing.T) {
	doc, err := run(t, `
		label = WORD -> ADD TO entry.label;
		one = label -> ADD entry{} TO ROOT.first;
		two = label -> ADD entry{} TO ROOT.second;
		TEXT = one " " two;
	`, "alpha beta")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"first":  map[string]any{"label": "alpha"},
		"second": map[string]any{"label": "beta"},
	}, doc)
}

func TestProject_CaptureConflictErrorStringMentionsPath(t *testing.T) {
	_, err := run(t, `
		a = "x" -> ADD TO ROOT.field;
		b = "x" -> ADD TO ROOT.field;
		TEXT = a b;
	`, "xx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field")
}
