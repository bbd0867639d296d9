package analysis

import (
	"sort"

	"github.com/StarGazerM/datalchemy/ast"
)

// stratify builds the relation dependency graph (an edge body→head for every
// body literal of every rule) and returns its strongly connected components
// with prerequisites first, so the engine saturates each component before any
// component that reads from it.
func stratify(rules []ast.Clause) [][]string {
	nodes := make(map[string]struct{})
	edges := make(map[string]map[string]struct{})
	addNode := func(name string) {
		if _, ok := nodes[name]; !ok {
			nodes[name] = struct{}{}
			edges[name] = make(map[string]struct{})
		}
	}
	for _, c := range rules {
		addNode(c.Head.Predicate)
		for _, lit := range c.Body {
			addNode(lit.Predicate)
			edges[lit.Predicate][c.Head.Predicate] = struct{}{}
		}
	}

	// Deterministic traversal order keeps stratum contents stable across
	// runs; the condensation order itself is forced by the edges.
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	t := &tarjan{
		edges:   edges,
		index:   make(map[string]int, len(nodes)),
		lowlink: make(map[string]int, len(nodes)),
		onStack: make(map[string]bool, len(nodes)),
	}
	for _, name := range names {
		if _, visited := t.index[name]; !visited {
			t.strongConnect(name)
		}
	}

	// Tarjan emits a component only after every component reachable from it,
	// which is the reverse of prerequisites-first under body→head edges.
	for i, j := 0, len(t.sccs)-1; i < j; i, j = i+1, j-1 {
		t.sccs[i], t.sccs[j] = t.sccs[j], t.sccs[i]
	}
	for _, scc := range t.sccs {
		sort.Strings(scc)
	}
	return t.sccs
}

// tarjan is the classic recursive strongly-connected-components search.
// Program dependency graphs are shallow, so recursion depth is not a concern.
type tarjan struct {
	edges   map[string]map[string]struct{}
	counter int
	index   map[string]int
	lowlink map[string]int
	stack   []string
	onStack map[string]bool
	sccs    [][]string
}

func (t *tarjan) strongConnect(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	succs := make([]string, 0, len(t.edges[v]))
	for w := range t.edges[v] {
		succs = append(succs, w)
	}
	sort.Strings(succs)
	for _, w := range succs {
		if _, visited := t.index[w]; !visited {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var scc []string
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}

// IsRecursive reports whether the stratum needs fixed-point iteration: either
// it contains more than one relation, or its single relation depends on
// itself through some rule.
func IsRecursive(stratum []string, rules []ast.Clause) bool {
	if len(stratum) > 1 {
		return true
	}
	name := stratum[0]
	for _, c := range rules {
		if c.Head.Predicate != name {
			continue
		}
		for _, lit := range c.Body {
			if lit.Predicate == name {
				return true
			}
		}
	}
	return false
}
