// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package grammar

// checkCycles rejects any statement or local inline binding whose every
// definition path loops back to itself (or to other cycle members)
// without ever reaching a consuming atom or an external, already-
// grounded reference (spec.md §4.2 "Cycle detection", §9). `A = A` is
// rejected; `A = A OR "x"` is accepted, because the OR branch escapes
// the cycle through a literal.
//
// The analysis has two passes over a unified node set (every top-level
// Statement plus every InlineStmt, addressed by index, statements
// first in Model.Statements order so a VarTarget.StmtIndex is usable
// directly as a node index):
//
//  1. a "may match empty" (MME) fixpoint, needed to know whether a Seq's
//     later children are reachable at zero consumption from its start;
//  2. a "zero-consumption reachability" graph of VarRef edges between
//     nodes, whose strongly connected components are checked for at
//     least one member with an escape: a terminal production (Literal,
//     Class, Line), an always-available zero-repetition Repeat, or an
//     edge leaving the component entirely.
func checkCycles(m *Model, inlines []*InlineStmt) error {
	nodes := buildNodes(m, inlines)
	mme := computeMME(nodes)
	g := buildGraph(nodes, mme)

	for _, scc := range tarjanSCCs(g.edges) {
		if g.isVacuous(scc) {
			names := make([]string, len(scc))
			for i, n := range scc {
				names[i] = nodes[n].name()
			}
			return &CycleError{Names: names}
		}
	}
	return nil
}

// cnode is one fixpoint/graph node: a top-level statement or a local
// inline binding, addressed uniformly by index into the `nodes` slice.
type cnode struct {
	stmt   *Statement  // non-nil for a top-level statement
	inline *InlineStmt // non-nil for a local inline binding
}

func (n cnode) body() *Expr {
	if n.stmt != nil {
		return n.stmt.Body
	}
	return n.inline.Body
}

func (n cnode) name() string {
	if n.stmt != nil {
		return n.stmt.Name
	}
	return n.inline.Name
}

func buildNodes(m *Model, inlines []*InlineStmt) []cnode {
	nodes := make([]cnode, 0, len(m.Statements)+len(inlines))
	for _, s := range m.Statements {
		nodes = append(nodes, cnode{stmt: s})
	}
	for _, in := range inlines {
		nodes = append(nodes, cnode{inline: in})
	}
	return nodes
}

// indexOfTarget resolves a VarTarget to its node index. Top-level
// statements occupy nodes[0:numStmts] in Model.Statements order, so a
// statement target is just its StmtIndex; an inline target is found by
// pointer identity.
func indexOfTarget(t VarTarget, nodes []cnode) int {
	if t.Inline == nil {
		return t.StmtIndex
	}
	for i, n := range nodes {
		if n.inline == t.Inline {
			return i
		}
	}
	return -1
}

// computeMME computes, for every node, whether its body may match the
// empty string. Monotone fixpoint: start all false, repeat until no
// change (bounded by len(nodes) passes, since each pass can only flip
// an entry false->true).
func computeMME(nodes []cnode) []bool {
	mme := make([]bool, len(nodes))
	for pass := 0; pass <= len(nodes); pass++ {
		changed := false
		for i, n := range nodes {
			if mmeOfExpr(n.body(), nodes, mme) && !mme[i] {
				mme[i] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return mme
}

func mmeOfExpr(e *Expr, nodes []cnode, mme []bool) bool {
	switch e.Kind {
	case KindLiteral:
		return e.Literal == ""
	case KindClass:
		return false
	case KindLine:
		return true
	case KindVarRef:
		idx := indexOfTarget(e.Ref, nodes)
		if idx < 0 {
			return false
		}
		return mme[idx]
	case KindAlt:
		return mmeOfExpr(e.Left, nodes, mme) || mmeOfExpr(e.Right, nodes, mme)
	case KindSeq:
		for _, c := range e.Children {
			if !mmeOfExpr(c, nodes, mme) {
				return false
			}
		}
		return true
	case KindRepeat:
		if effectiveMin(e.Min) == 0 {
			return true
		}
		return mmeOfExpr(e.Body, nodes, mme)
	case KindCaseScope:
		return mmeOfExpr(e.Body, nodes, mme)
	case KindInline:
		return mmeOfExpr(e.Inline.Body, nodes, mme)
	default:
		return false
	}
}

func effectiveMin(b Bound) int {
	if b.Unbounded {
		return 0
	}
	return b.Value
}

// edgeSet is the zero-consumption-reachable analysis of one node's
// body: the VarRef targets reachable without consuming input, and
// whether a non-recursive escape is reachable at zero consumption too.
type edgeSet struct {
	targets []int
	escape  bool
}

// depGraph is the zero-consumption dependency graph over cnode indices,
// paired with each node's own escape flag.
type depGraph struct {
	edges   [][]int
	escapes []bool
}

// isVacuous reports whether every node in scc lacks an escape: no
// member reaches a terminal production, an always-available empty
// repeat, or an edge to a node outside the component.
func (g depGraph) isVacuous(scc []int) bool {
	inSCC := make(map[int]bool, len(scc))
	for _, n := range scc {
		inSCC[n] = true
	}
	for _, n := range scc {
		if g.escapes[n] {
			return false
		}
		for _, t := range g.edges[n] {
			if !inSCC[t] {
				return false
			}
		}
	}
	return true
}

func buildGraph(nodes []cnode, mme []bool) depGraph {
	g := depGraph{edges: make([][]int, len(nodes)), escapes: make([]bool, len(nodes))}
	for i, n := range nodes {
		es := analyze(n.body(), nodes, mme)
		g.edges[i] = es.targets
		g.escapes[i] = es.escape
	}
	return g
}

func analyze(e *Expr, nodes []cnode, mme []bool) edgeSet {
	switch e.Kind {
	case KindLiteral, KindClass, KindLine:
		return edgeSet{escape: true}
	case KindVarRef:
		idx := indexOfTarget(e.Ref, nodes)
		if idx < 0 {
			return edgeSet{escape: true}
		}
		return edgeSet{targets: []int{idx}}
	case KindAlt:
		l := analyze(e.Left, nodes, mme)
		r := analyze(e.Right, nodes, mme)
		return edgeSet{targets: append(append([]int{}, l.targets...), r.targets...), escape: l.escape || r.escape}
	case KindSeq:
		var out edgeSet
		for _, c := range e.Children {
			cs := analyze(c, nodes, mme)
			out.targets = append(out.targets, cs.targets...)
			out.escape = out.escape || cs.escape
			if !mmeOfExpr(c, nodes, mme) {
				break
			}
		}
		return out
	case KindRepeat:
		body := analyze(e.Body, nodes, mme)
		out := edgeSet{targets: body.targets, escape: body.escape}
		if effectiveMin(e.Min) == 0 {
			out.escape = true
		}
		return out
	case KindCaseScope:
		return analyze(e.Body, nodes, mme)
	case KindInline:
		return analyze(e.Inline.Body, nodes, mme)
	default:
		return edgeSet{}
	}
}

// tarjanSCCs computes the strongly connected components of edges
// (adjacency list by node index), returning only components relevant
// to cycle detection: a single self-looping node, or a component with
// more than one node. Singleton non-looping nodes are omitted.
func tarjanSCCs(edges [][]int) [][]int {
	n := len(edges)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	counter := 0
	var sccs [][]int

	var strongconnect func(v int)
	strongconnect = func(v int) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if index[w] == -1 {
				strongconnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if index[w] < low[v] {
					low[v] = index[w]
				}
			}
		}

		if low[v] == index[v] {
			var comp []int
			for {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[top] = false
				comp = append(comp, top)
				if top == v {
					break
				}
			}
			selfLoop := len(comp) == 1 && hasEdge(edges, comp[0], comp[0])
			if len(comp) > 1 || selfLoop {
				sccs = append(sccs, comp)
			}
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == -1 {
			strongconnect(v)
		}
	}
	return sccs
}

func hasEdge(edges [][]int, from, to int) bool {
	for _, t := range edges[from] {
		if t == to {
			return true
		}
	}
	return false
}
