// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/strql/strql/internal/config"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for the strql config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := generateConfigSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

// generateConfigSchema reflects config.Config into a JSON Schema
// document, not the STRQL engine's output — that is dynamically
// shaped per query and has no fixed schema (SPEC_FULL.md "Supplemented
// features" §2).
func generateConfigSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&config.Config{})
	schema.Title = "strql CLI configuration"
	schema.Description = "Schema for strql's config.yaml"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Wrapf(err, "marshal config schema")
	}
	return data, nil
}
