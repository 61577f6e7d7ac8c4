// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package matcher

import (
	"time"

	"github.com/strql/strql/internal/observability"
	"github.com/strql/strql/internal/strql/grammar"
)

// MatchWithMetrics is Match, additionally recording match duration and
// outcome on metrics when non-nil (SPEC_FULL.md "Matcher metrics"),
// mirroring how policy.RecordEvaluationMetrics instruments the
// access-control engine around its own decision call.
func MatchWithMetrics(model *grammar.Model, input string, metrics *observability.Metrics) (*Derivation, error) {
	start := time.Now()
	d, err := Match(model, input)
	if metrics == nil {
		return d, err
	}

	metrics.MatchDuration.Observe(time.Since(start).Seconds())
	outcome := "matched"
	switch err.(type) {
	case *NoMatch:
		outcome = "no_match"
	case *Ambiguous:
		outcome = "ambiguous"
	}
	metrics.MatchesTotal.WithLabelValues(outcome).Inc()
	return d, err
}
