// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strql/strql/internal/strql/syntax"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the strql build version and grammar version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "strql %s (commit %s, built %s), grammar %s\n",
				version, commit, date, syntax.GrammarVersion)
			return nil
		},
	}
}
