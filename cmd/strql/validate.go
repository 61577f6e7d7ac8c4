// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strql/strql/pkg/strql"
)

func newValidateCmd() *cobra.Command {
	var queryPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse a query and build its grammar model without matching any input",
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, err := readPathOrStdin(cmd.InOrStdin(), queryPath)
			if err != nil {
				return err
			}
			if _, err := strql.Compile(source); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	cmd.Flags().StringVar(&queryPath, "query", "-", "query source file, or - for stdin")
	return cmd
}
