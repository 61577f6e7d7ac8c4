// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package matcher

import (
	"unicode"
	"unicode/utf8"

	"github.com/strql/strql/internal/strql/grammar"
)

// candidate is one way of matching an Expr starting at a fixed lo: it
// ends at hi, carries the preference vector accumulated along the way,
// and the Derivation describing the match.
type candidate struct {
	hi   int
	pref PreferenceVector
	der  *Derivation
	tied bool
}

// memoKey identifies one (statement-or-inline, start position) matching
// subproblem, the granularity spec.md §4.2 memoizes at.
type memoKey struct {
	stmtIdx int // valid when inline == nil
	inline  *grammar.InlineStmt
	lo      int
}

type memoEntry struct {
	candidates []candidate
	growing    bool
}

// matcher holds the state of one top-level Match call: the grammar, the
// input, and the statement/inline memoization table.
type matcher struct {
	model *grammar.Model
	input string
	memo  map[memoKey]*memoEntry
}

// Match finds the preferred Derivation of the model's TEXT statement
// spanning the entire input. It returns *NoMatch if no derivation spans
// all of input, or *Ambiguous if two or more equally-preferred
// derivations do.
func Match(model *grammar.Model, input string) (*Derivation, error) {
	m := &matcher{model: model, input: input, memo: make(map[memoKey]*memoEntry)}

	text := model.Text()
	target := grammar.VarTarget{StmtIndex: model.TextIndex}
	candidates := m.matchNode(target, 0, text.Body)

	var best *candidate
	tiedAtBest := false
	for i := range candidates {
		c := &candidates[i]
		if c.hi != len(input) {
			continue
		}
		if best == nil {
			best = c
			tiedAtBest = c.tied
			continue
		}
		switch compare(c.pref, best.pref) {
		case 1:
			best = c
			tiedAtBest = c.tied
		case 0:
			tiedAtBest = true
		}
	}
	if best == nil {
		return nil, &NoMatch{InputLen: len(input)}
	}
	if tiedAtBest || best.tied {
		return nil, &Ambiguous{InputLen: len(input)}
	}
	return best.der, nil
}

// matchNode matches a statement or inline binding's body at lo, using a
// Warth-style growing seed so accepted self-referential statements
// (spec.md §4.2 "Cycle detection" — cycles with an escaping
// alternative) resolve without infinite recursion: the first pass sees
// an empty seed for any self-reference at the same position, and
// successive passes re-match against the previous pass's result until
// it stops growing.
func (m *matcher) matchNode(target grammar.VarTarget, lo int, body *grammar.Expr) []candidate {
	key := memoKey{lo: lo}
	if target.Inline != nil {
		key.stmtIdx = -1
		key.inline = target.Inline
	} else {
		key.stmtIdx = target.StmtIndex
	}

	if entry, ok := m.memo[key]; ok {
		return entry.candidates
	}

	entry := &memoEntry{candidates: nil, growing: true}
	m.memo[key] = entry

	seed := []candidate{}
	for pass := 0; pass <= len(m.input)+1; pass++ {
		entry.candidates = seed
		next := m.matchExpr(body, lo, nil)
		merged := mergeCandidates(seed, next)
		if candidatesEqual(seed, merged) {
			break
		}
		seed = merged
	}
	entry.candidates = seed
	entry.growing = false
	return seed
}

func candidatesEqual(a, b []candidate) bool {
	if len(a) != len(b) {
		return false
	}
	byHi := make(map[int]PreferenceVector, len(a))
	for _, c := range a {
		byHi[c.hi] = c.pref
	}
	for _, c := range b {
		other, ok := byHi[c.hi]
		if !ok || compare(c.pref, other) != 0 {
			return false
		}
	}
	return true
}

// mergeCandidates unions two candidate sets keyed by hi, keeping the
// more-preferred candidate at each hi and marking ties.
func mergeCandidates(a, b []candidate) []candidate {
	byHi := make(map[int]candidate, len(a)+len(b))
	order := make([]int, 0, len(a)+len(b))
	add := func(c candidate) {
		existing, ok := byHi[c.hi]
		if !ok {
			byHi[c.hi] = c
			order = append(order, c.hi)
			return
		}
		switch compare(c.pref, existing.pref) {
		case 1:
			byHi[c.hi] = c
		case 0:
			existing.tied = true
			byHi[c.hi] = existing
		}
	}
	for _, c := range a {
		add(c)
	}
	for _, c := range b {
		add(c)
	}
	out := make([]candidate, 0, len(order))
	for _, hi := range order {
		out = append(out, byHi[hi])
	}
	return out
}

// matchExpr enumerates every way e can match starting at lo, under the
// given active case scope (nil outside any CaseScope).
func (m *matcher) matchExpr(e *grammar.Expr, lo int, scope *grammar.CaseMode) []candidate {
	switch e.Kind {
	case grammar.KindLiteral:
		return m.matchLiteral(e, lo, scope)
	case grammar.KindClass:
		return m.matchClass(e, lo, scope)
	case grammar.KindLine:
		return m.matchLine(e, lo)
	case grammar.KindVarRef:
		return m.matchVarRef(e, lo)
	case grammar.KindAlt:
		return m.matchAlt(e, lo, scope)
	case grammar.KindSeq:
		return m.matchSeq(e, lo, scope)
	case grammar.KindRepeat:
		return m.matchRepeat(e, lo, scope)
	case grammar.KindCaseScope:
		mode := e.Mode
		return m.matchExpr(e.Body, lo, &mode)
	case grammar.KindInline:
		return m.matchInline(e, lo)
	default:
		return nil
	}
}

// requiredCase reports whether r satisfies mode's case constraint.
// Case scoping is restricted to ASCII letters (spec.md §6, §9 Open
// Question 1): any other character, including non-ASCII letters,
// passes the scope unchanged.
func requiredCase(r rune, mode grammar.CaseMode) bool {
	if !isASCIILetter(r) {
		return true
	}
	switch mode {
	case grammar.CaseUpper:
		return 'A' <= r && r <= 'Z'
	case grammar.CaseLower:
		return 'a' <= r && r <= 'z'
	default:
		return true
	}
}

func isASCIILetter(r rune) bool {
	return ('A' <= r && r <= 'Z') || ('a' <= r && r <= 'z')
}

func (m *matcher) matchLiteral(e *grammar.Expr, lo int, scope *grammar.CaseMode) []candidate {
	lit := e.Literal
	if lo+len(lit) > len(m.input) {
		return nil
	}
	span := m.input[lo : lo+len(lit)]

	matched := false
	switch {
	case scope == nil:
		matched = span == lit
	case *scope == grammar.CaseAnyCase:
		matched = foldEqual(span, lit)
	default:
		matched = foldEqual(span, lit)
		if matched {
			for _, r := range span {
				if !requiredCase(r, *scope) {
					matched = false
					break
				}
			}
		}
	}
	if !matched {
		return nil
	}
	hi := lo + len(lit)
	return []candidate{{hi: hi, pref: PreferenceVector{}, der: &Derivation{Expr: e, Lo: lo, Hi: hi}}}
}

func foldEqual(a, b string) bool {
	if len(a) != len(b) {
		// Byte-length can still differ under folding for non-ASCII text;
		// fall back to a rune-wise comparison in that case.
		ra, rb := []rune(a), []rune(b)
		if len(ra) != len(rb) {
			return false
		}
		for i := range ra {
			if unicode.ToLower(ra[i]) != unicode.ToLower(rb[i]) {
				return false
			}
		}
		return true
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func (m *matcher) matchClass(e *grammar.Expr, lo int, scope *grammar.CaseMode) []candidate {
	if lo >= len(m.input) {
		return nil
	}
	r, size := utf8.DecodeRuneInString(m.input[lo:])
	ok := false
	switch e.Class {
	case grammar.ClassLetter:
		ok = isASCIILetter(r)
	case grammar.ClassDigit:
		ok = '0' <= r && r <= '9'
	case grammar.ClassSpace:
		ok = r == ' ' || r == '\t' || r == '\n' || r == '\r'
	case grammar.ClassNewline:
		ok = r == '\n'
	case grammar.ClassAnyChar:
		ok = true
	}
	if ok && scope != nil && *scope != grammar.CaseAnyCase {
		ok = requiredCase(r, *scope)
	}
	if !ok {
		return nil
	}
	hi := lo + size
	return []candidate{{hi: hi, pref: PreferenceVector{}, der: &Derivation{Expr: e, Lo: lo, Hi: hi}}}
}

// matchLine matches from lo up to (but not including) the next newline,
// or the end of input if there is none — always exactly one candidate
// (spec.md §6, LINE).
func (m *matcher) matchLine(e *grammar.Expr, lo int) []candidate {
	hi := len(m.input)
	if idx := indexByteFrom(m.input, lo, '\n'); idx >= 0 {
		hi = idx
	}
	return []candidate{{hi: hi, pref: PreferenceVector{}, der: &Derivation{Expr: e, Lo: lo, Hi: hi}}}
}

func indexByteFrom(s string, from int, b byte) int {
	for i := from; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func (m *matcher) matchVarRef(e *grammar.Expr, lo int) []candidate {
	var body *grammar.Expr
	var target *grammar.Statement
	if e.Ref.Inline != nil {
		body = e.Ref.Inline.Body
	} else {
		target = m.model.Statements[e.Ref.StmtIndex]
		body = target.Body
	}
	raw := m.matchNode(e.Ref, lo, body)
	out := make([]candidate, len(raw))
	for i, c := range raw {
		out[i] = candidate{
			hi:   c.hi,
			pref: c.pref,
			tied: c.tied,
			der: &Derivation{
				Expr: e, Lo: lo, Hi: c.hi, Sub: []*Derivation{c.der},
				Target: target, InlineTarget: e.Ref.Inline,
			},
		}
	}
	return out
}

func (m *matcher) matchInline(e *grammar.Expr, lo int) []candidate {
	target := grammar.VarTarget{Inline: e.Inline}
	raw := m.matchNode(target, lo, e.Inline.Body)
	out := make([]candidate, len(raw))
	for i, c := range raw {
		out[i] = candidate{
			hi: c.hi, pref: c.pref, tied: c.tied,
			der: &Derivation{Expr: e, Lo: lo, Hi: c.hi, Sub: []*Derivation{c.der}},
		}
	}
	return out
}

func (m *matcher) matchAlt(e *grammar.Expr, lo int, scope *grammar.CaseMode) []candidate {
	left := m.matchExpr(e.Left, lo, scope)
	right := m.matchExpr(e.Right, lo, scope)
	out := make([]candidate, 0, len(left)+len(right))
	for _, c := range left {
		out = append(out, candidate{
			hi: c.hi, pref: c.pref, tied: c.tied,
			der: &Derivation{Expr: e, Lo: lo, Hi: c.hi, Sub: []*Derivation{c.der}, AltRight: false},
		})
	}
	for _, c := range right {
		out = append(out, candidate{
			hi: c.hi, pref: c.pref, tied: c.tied,
			der: &Derivation{Expr: e, Lo: lo, Hi: c.hi, Sub: []*Derivation{c.der}, AltRight: true},
		})
	}
	return mergeCandidates(nil, out)
}

// seqPartial is an in-progress concatenation match: how far it has
// reached and the per-child derivations gathered so far.
type seqPartial struct {
	hi   int
	pref PreferenceVector
	tied bool
	ders []*Derivation
}

func (m *matcher) matchSeq(e *grammar.Expr, lo int, scope *grammar.CaseMode) []candidate {
	partials := m.matchSeqFrom(e.Children, 0, lo, scope)
	out := make([]candidate, len(partials))
	for i, p := range partials {
		out[i] = candidate{
			hi: p.hi, pref: p.pref, tied: p.tied,
			der: &Derivation{Expr: e, Lo: lo, Hi: p.hi, Sub: p.ders},
		}
	}
	return mergeCandidates(nil, out)
}

func (m *matcher) matchSeqFrom(children []*grammar.Expr, idx, lo int, scope *grammar.CaseMode) []seqPartial {
	if idx == len(children) {
		return []seqPartial{{hi: lo, pref: PreferenceVector{}}}
	}
	var out []seqPartial
	for _, c1 := range m.matchExpr(children[idx], lo, scope) {
		for _, rest := range m.matchSeqFrom(children, idx+1, c1.hi, scope) {
			ders := make([]*Derivation, 0, len(rest.ders)+1)
			ders = append(ders, c1.der)
			ders = append(ders, rest.ders...)
			out = append(out, seqPartial{
				hi:   rest.hi,
				pref: merge(c1.pref, rest.pref),
				tied: c1.tied || rest.tied,
				ders: ders,
			})
		}
	}
	return out
}

// repPartial is an in-progress repetition match. pref accumulates only
// the contributions of quantifiers nested inside the repeated body
// (e.g. an inner SPLITBY); the repeat's own slot contribution is added
// once in matchRepeat, keyed on the final chosen count.
type repPartial struct {
	hi   int
	pref PreferenceVector
	tied bool
	ders []*Derivation
}

func (m *matcher) matchRepeat(e *grammar.Expr, lo int, scope *grammar.CaseMode) []candidate {
	effMin := 0
	if !e.Min.Unbounded {
		effMin = e.Min.Value
	}
	parts := m.matchRepeatFrom(e.Body, lo, 0, effMin, e.Max, scope)

	out := make([]candidate, len(parts))
	for i, p := range parts {
		k := len(p.ders)
		own := repeatContribution(e.Slot, e.Pref, k)
		out[i] = candidate{
			hi:   p.hi,
			pref: merge(own, p.pref),
			tied: p.tied,
			der:  &Derivation{Expr: e, Lo: lo, Hi: p.hi, Sub: p.ders},
		}
	}
	return mergeCandidates(nil, out)
}

func (m *matcher) matchRepeatFrom(body *grammar.Expr, lo, count, effMin int, max grammar.Bound, scope *grammar.CaseMode) []repPartial {
	var out []repPartial
	if count >= effMin {
		out = append(out, repPartial{hi: lo})
	}

	canContinue := max.Unbounded || count < max.Value
	if !canContinue {
		return out
	}
	for _, c := range m.matchExpr(body, lo, scope) {
		var rest []repPartial
		if c.hi == lo {
			// Zero-width repetition guard: a body match that consumes no
			// input can only be counted once, or growth would never
			// terminate. Stop here instead of recursing again at the same
			// position.
			rest = []repPartial{{hi: lo}}
		} else {
			rest = m.matchRepeatFrom(body, c.hi, count+1, effMin, max, scope)
		}
		for _, r := range rest {
			ders := make([]*Derivation, 0, len(r.ders)+1)
			ders = append(ders, c.der)
			ders = append(ders, r.ders...)
			out = append(out, repPartial{hi: r.hi, pref: merge(c.pref, r.pref), tied: c.tied || r.tied, ders: ders})
		}
	}
	return out
}
