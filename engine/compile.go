package engine

import (
	"github.com/StarGazerM/datalchemy/ast"
	"github.com/StarGazerM/datalchemy/factstore"
)

// colRef addresses one column of one body literal instance. Repeated
// references to the same relation inside a body are distinct instances, so
// the literal index (not the relation name) identifies the source.
type colRef struct {
	lit int
	col int
}

// constCheck is a selection predicate: the column must equal the constant.
type constCheck struct {
	col int
	val ast.Constant
}

// joinCheck is an equality constraint between the current column and the
// column where the same variable first occurred.
type joinCheck struct {
	col   int
	first colRef
}

// litPlan is the per-literal slice of a rule plan: which relation to scan and
// which checks to apply to each candidate tuple.
type litPlan struct {
	rel    string
	consts []constCheck
	joins  []joinCheck
}

// headSlot says how to fill one head position: either a constant or the value
// bound at a body column.
type headSlot struct {
	isConst bool
	val     ast.Constant
	ref     colRef
}

// compiledRule is the relational plan for one Horn clause: scan the body
// literals left to right, apply selection and join checks, and build one head
// tuple per surviving combination.
type compiledRule struct {
	head  string
	body  []litPlan
	slots []headSlot
}

// compileRule translates a validated clause into a plan. The first occurrence
// of each named variable becomes its binding column; later occurrences become
// equijoin constraints; constants become selections; wildcards bind nothing.
func compileRule(c ast.Clause) *compiledRule {
	r := &compiledRule{
		head: c.Head.Predicate,
		body: make([]litPlan, len(c.Body)),
	}
	firstSeen := make(map[string]colRef)
	for li, lit := range c.Body {
		plan := litPlan{rel: lit.Predicate}
		for ci, arg := range lit.Args {
			switch a := arg.(type) {
			case ast.Constant:
				plan.consts = append(plan.consts, constCheck{col: ci, val: a})
			case ast.Variable:
				if a.IsWildcard() {
					continue
				}
				if first, ok := firstSeen[a.Name]; ok {
					plan.joins = append(plan.joins, joinCheck{col: ci, first: first})
				} else {
					firstSeen[a.Name] = colRef{lit: li, col: ci}
				}
			}
		}
		r.body[li] = plan
	}
	r.slots = make([]headSlot, len(c.Head.Args))
	for i, arg := range c.Head.Args {
		switch a := arg.(type) {
		case ast.Constant:
			r.slots[i] = headSlot{isConst: true, val: a}
		case ast.Variable:
			// The validator guarantees every named head variable is bound.
			r.slots[i] = headSlot{ref: firstSeen[a.Name]}
		}
	}
	return r
}

// scanSet selects which tuple set a body literal reads during one evaluation.
type scanSet int

const (
	scanFull scanSet = iota
	scanDelta
)

// eval runs the plan against the store and returns the derived head tuples.
// scans chooses full or delta per body literal; len(scans) == len(r.body).
// A rule with an empty body derives nothing (facts do not travel as rules).
func (r *compiledRule) eval(store *factstore.Store, scans []scanSet) []factstore.Tuple {
	if len(r.body) == 0 {
		return nil
	}
	var out []factstore.Tuple
	rows := make([]factstore.Tuple, len(r.body))
	r.join(store, scans, 0, rows, &out)
	return out
}

func (r *compiledRule) join(store *factstore.Store, scans []scanSet, li int, rows []factstore.Tuple, out *[]factstore.Tuple) {
	if li == len(r.body) {
		head := make(factstore.Tuple, len(r.slots))
		for i, s := range r.slots {
			if s.isConst {
				head[i] = s.val
			} else {
				head[i] = rows[s.ref.lit][s.ref.col]
			}
		}
		*out = append(*out, head)
		return
	}
	plan := r.body[li]
	visit := func(t factstore.Tuple) {
		// Bind before checking: a join constraint may reference an earlier
		// column of this same literal (e.g. p(x, x)).
		rows[li] = t
		for _, c := range plan.consts {
			if !t[c.col].Equal(c.val) {
				return
			}
		}
		for _, j := range plan.joins {
			if !t[j.col].Equal(rows[j.first.lit][j.first.col]) {
				return
			}
		}
		r.join(store, scans, li+1, rows, out)
	}
	if scans[li] == scanDelta {
		store.ScanDelta(plan.rel, visit)
	} else {
		store.ScanFull(plan.rel, visit)
	}
}
