// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package main

import (
	"time"

	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// observabilityShutdownTimeout bounds how long `run --metrics-addr`
// waits for the metrics server to drain before giving up.
const observabilityShutdownTimeout = 5 * time.Second

// NewRootCmd creates the root command for the strql CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strql",
		Short: "strql - match free-form text against a grammar and project captures to JSON",
		Long: `strql compiles a small grammar of named statements and matches it
against an input string, projecting the capture clauses of the winning
derivation into a JSON document.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
