// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"run", "validate", "schema", "version"} {
		assert.Contains(t, output, sub)
	}
}

func TestRunCommand_MatchesAndPrintsJSON(t *testing.T) {
	configFile = ""
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetIn(strings.NewReader(""))

	queryPath := writeTemp(t, `TEXT = "hi" -> ADD TO ROOT.greeting;`)
	inputPath := writeTemp(t, "hi")
	cmd.SetArgs([]string{"run", "--query", queryPath, "--input", inputPath})

	require.NoError(t, cmd.Execute())
	assert.JSONEq(t, `{"greeting":"hi"}`, out.String())
}

func TestValidateCommand_ReportsParseError(t *testing.T) {
	configFile = ""
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)

	queryPath := writeTemp(t, `TEXT = ;`)
	cmd.SetArgs([]string{"validate", "--query", queryPath})

	assert.Error(t, cmd.Execute())
}

func TestVersionCommand_PrintsGrammarVersion(t *testing.T) {
	configFile = ""
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "grammar")
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	f := t.TempDir() + "/f"
	require.NoError(t, os.WriteFile(f, []byte(content), 0o600))
	return f
}
