// Package config loads strql CLI defaults (SPEC_FULL.md "Configuration"):
// built-in defaults, then an optional YAML file, then command-line
// flags, composed with koanf the same way koanf's own file+posflag
// example does.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the strql CLI's operator-facing defaults. None of it
// affects engine semantics (spec.md §3/§8 invariants are untouched by
// configuration) — it only governs how results are printed and where
// files are found.
type Config struct {
	// Format is the default --format value ("json" or "json-pretty").
	Format string `koanf:"format"`
	// CaseSensitive notes the CLI's default documentation string for
	// case handling; it does not change matcher behavior, which is
	// always driven by CaseScope in query source (spec.md §6).
	CaseSensitive bool `koanf:"case_sensitive"`
	// Color is loaded like the other fields, but no command reads it:
	// CLI output is never colored.
	Color bool `koanf:"color"`
	// LogFormat is the default logging.Setup format ("json" or "text").
	LogFormat string `koanf:"log_format"`
	// MetricsAddr, if non-empty, is the default --metrics-addr for
	// `strql run` (SPEC_FULL.md "Matcher metrics").
	MetricsAddr string `koanf:"metrics_addr"`
}

// Defaults returns the built-in configuration, the first and lowest
// layer in the resolution order described in SPEC_FULL.md.
func Defaults() Config {
	return Config{
		Format:        "json",
		CaseSensitive: true,
		Color:         true,
		LogFormat:     "json",
		MetricsAddr:   "",
	}
}

// Load resolves a Config from, in ascending priority: built-in
// defaults, the YAML file at path (skipped if path is empty or the
// file doesn't exist), then flags already parsed onto fs that the
// caller registered with the same `koanf` tag names as Config's
// fields.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	defaults := Defaults()
	defaultsMap := map[string]any{
		"format":         defaults.Format,
		"case_sensitive": defaults.CaseSensitive,
		"color":          defaults.Color,
		"log_format":     defaults.LogFormat,
		"metrics_addr":   defaults.MetricsAddr,
	}
	if err := k.Load(confmap.Provider(defaultsMap, "."), nil); err != nil {
		return Config{}, oops.Wrapf(err, "load default config")
	}

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, oops.With("path", path).Wrapf(err, "load config file")
			}
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, oops.Wrapf(err, "load flag overrides")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Wrapf(err, "unmarshal config")
	}
	return cfg, nil
}
