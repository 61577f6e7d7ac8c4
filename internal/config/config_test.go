package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strql/strql/internal/config"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: json-pretty\ncolor: false\n"), 0o600))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "json-pretty", cfg.Format)
	assert.False(t, cfg.Color)
	assert.True(t, cfg.CaseSensitive, "unset fields keep their default")
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: json-pretty\n"), 0o600))

	fs := pflag.NewFlagSet("strql", pflag.ContinueOnError)
	fs.String("format", "json", "output format")
	require.NoError(t, fs.Set("format", "json"))
	require.NoError(t, fs.Parse([]string{"--format=json"}))

	cfg, err := config.Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format, "an explicitly-set flag wins over the file")
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}
