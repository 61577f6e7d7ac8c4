// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/strql/strql/internal/config"
	"github.com/strql/strql/internal/logging"
	"github.com/strql/strql/internal/observability"
	"github.com/strql/strql/pkg/errutil"
	"github.com/strql/strql/pkg/strql"
)

func newRunCmd() *cobra.Command {
	var queryPath, inputPath, format, metricsAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compile a query and match it against an input, printing the resulting JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = cfg.Format
			}
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = cfg.MetricsAddr
			}
			return runQuery(cmd, queryPath, inputPath, format, metricsAddr, cfg)
		},
	}

	cmd.Flags().StringVar(&queryPath, "query", "-", "query source file, or - for stdin")
	cmd.Flags().StringVar(&inputPath, "input", "-", "input text file, or - for stdin")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or json-pretty")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address while the query runs")

	return cmd
}

func runQuery(cmd *cobra.Command, queryPath, inputPath, format, metricsAddr string, cfg config.Config) error {
	logger := logging.Setup("strql", version, cfg.LogFormat, cmd.ErrOrStderr())
	runID := ulid.Make().String()
	logger = logger.With("run_id", runID)

	source, err := readPathOrStdin(cmd.InOrStdin(), queryPath)
	if err != nil {
		return oops.With("path", queryPath).Wrapf(err, "read query")
	}
	input, err := readPathOrStdin(cmd.InOrStdin(), inputPath)
	if err != nil {
		return oops.With("path", inputPath).Wrapf(err, "read input")
	}

	var metrics *observability.Metrics
	if metricsAddr != "" {
		srv := observability.NewServer(metricsAddr, nil)
		if _, startErr := srv.Start(); startErr != nil {
			return oops.With("addr", metricsAddr).Wrapf(startErr, "start metrics server")
		}
		metrics = srv.Metrics()
		defer func() {
			ctx, cancel := context.WithTimeout(cmd.Context(), observabilityShutdownTimeout)
			defer cancel()
			if stopErr := srv.Stop(ctx); stopErr != nil {
				errutil.LogError(logger, "stop metrics server", stopErr)
			}
		}()
	}

	query, err := strql.Compile(source)
	if err != nil {
		errutil.LogError(logger, "compile query", err)
		return err
	}

	doc, err := query.RunValueWithMetrics(input, metrics)
	if err != nil {
		var noMatch *strql.NoMatch
		var ambiguous *strql.Ambiguous
		switch {
		case errors.As(err, &noMatch), errors.As(err, &ambiguous):
			logger.Info("query did not match", "error", err)
		default:
			errutil.LogError(logger, "run query", err)
		}
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if format == "json-pretty" {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return oops.Wrapf(err, "encode result")
	}
	return nil
}

// readPathOrStdin reads path, or stdin when path is "-" or empty.
func readPathOrStdin(stdin io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path) //nolint:gosec // CLI argument, operator-supplied
	return string(b), err
}
