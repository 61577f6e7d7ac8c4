package strql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strql/strql/pkg/strql"
)

func TestCompileAndRun_MultiCaptureDocument(t *testing.T) {
	q, err := strql.Compile(`
		level = WORD -> ADD TO ROOT.level;
		message = LINE -> ADD TO ROOT.message;
		TEXT = level " " message;
	`)
	require.NoError(t, err)

	doc, err := q.RunValue("ERROR disk full")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"level":   "ERROR",
		"message": "disk full",
	}, doc)

	raw, err := q.Run("ERROR disk full")
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"ERROR","message":"disk full"}`, string(raw))
}

func TestCompileOnce_RunManyInputs(t *testing.T) {
	q, err := strql.Compile(`word = WORD -> ADD TO ROOT.words[]; TEXT = word " " word;`)
	require.NoError(t, err)

	for _, tc := range []struct{ input, first, second string }{
		{"up down", "up", "down"},
		{"left right", "left", "right"},
	} {
		doc, err := q.RunValue(tc.input)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"words": []any{tc.first, tc.second}}, doc)
	}
}

func TestRun_PackageLevelHelperCompilesAndRunsInOneStep(t *testing.T) {
	raw, err := strql.Run(`TEXT = "hi" -> ADD TO ROOT.greeting;`, "hi")
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"hi"}`, string(raw))
}

func TestCompile_ReturnsParseErrorOnSyntaxFailure(t *testing.T) {
	_, err := strql.Compile(`level = ;`)
	require.Error(t, err)
	var pe *strql.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestCompile_ReturnsCycleErrorOnUnproductiveSelfReference(t *testing.T) {
	_, err := strql.Compile(`
		a = a;
		TEXT = a;
	`)
	require.Error(t, err)
	var ce *strql.CycleError
	require.ErrorAs(t, err, &ce)
}

func TestRunValue_ReturnsNoMatchWhenNoDerivationSpansTheInput(t *testing.T) {
	q, err := strql.Compile(`TEXT = "a";`)
	require.NoError(t, err)

	_, err = q.RunValue("b")
	require.Error(t, err)
	var nm *strql.NoMatch
	require.ErrorAs(t, err, &nm)
}

func TestRunValue_ReturnsAmbiguousOnUnresolvedTie(t *testing.T) {
	q, err := strql.Compile(`
		w = ANY -> ADD TO ROOT.results[];
		TEXT = w SPLITBY ".";
	`)
	require.NoError(t, err)

	_, err = q.RunValue("a. b. c.")
	require.Error(t, err)
	var amb *strql.Ambiguous
	require.ErrorAs(t, err, &amb)
}

func TestRunValue_ReturnsCaptureConflictOnIncompatibleWrites(t *testing.T) {
	q, err := strql.Compile(`
		a = "x" -> ADD TO ROOT.field;
		b = "x" -> ADD TO ROOT.field;
		TEXT = a b;
	`)
	require.NoError(t, err)

	_, err = q.RunValue("xx")
	require.Error(t, err)
	var cc *strql.CaptureConflict
	require.ErrorAs(t, err, &cc)
}

func TestGrammarVersion_IsSetAndParseable(t *testing.T) {
	assert.NotEmpty(t, strql.GrammarVersion)
	_, err := strql.Compile("# strql >= " + strql.GrammarVersion + "\nTEXT = \"a\";")
	require.NoError(t, err)
}
