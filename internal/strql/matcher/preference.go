// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package matcher

import (
	"sort"

	"github.com/strql/strql/internal/strql/grammar"
)

// PreferenceVector is the sparse per-quantifier disambiguation vector
// described in spec.md §4.2 "Disambiguation": one signed entry per
// Repeat slot a derivation passed through, +k for a GREEDY repetition
// matched k times, -k for LAZY, and no entry (implicit 0) for
// Unspecified or for slots never reached. Slot numbers are the grammar's
// pre-order quantifier numbering (grammar.Model.NumSlots), so comparing
// two vectors slot-by-slot in ascending order compares outer
// quantifiers before inner ones.
type PreferenceVector map[int]int

// repeatContribution is the PreferenceVector entry a Repeat with the
// given preference and chosen repetition count contributes at its slot.
func repeatContribution(slot int, pref grammar.Preference, count int) PreferenceVector {
	switch pref {
	case grammar.PrefGreedy:
		return PreferenceVector{slot: count}
	case grammar.PrefLazy:
		return PreferenceVector{slot: -count}
	default:
		return PreferenceVector{}
	}
}

// merge combines two preference vectors additively, as when two
// sibling sub-expressions (e.g. a Seq's children) each contribute their
// own slots. A slot can appear on both sides (the same statement
// referenced twice, or a quantifier inside a repeated body); its
// contributions are then summed.
func merge(a, b PreferenceVector) PreferenceVector {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make(PreferenceVector, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] += v
	}
	return out
}

// compare returns -1, 0, or 1 as a is less-preferred, tied, or
// more-preferred than b: lexicographic comparison over the ascending
// union of slot keys, higher value wins, absent entries default to 0.
func compare(a, b PreferenceVector) int {
	keys := make(map[int]bool, len(a)+len(b))
	for k := range a {
		keys[k] = true
	}
	for k := range b {
		keys[k] = true
	}
	sorted := make([]int, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Ints(sorted)
	for _, k := range sorted {
		va, vb := a[k], b[k]
		if va != vb {
			if va < vb {
				return -1
			}
			return 1
		}
	}
	return 0
}
