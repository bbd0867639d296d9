// Package analysis checks a Datalog program before evaluation: declarations,
// arity and type agreement, rule safety, and the absence of negation. It also
// normalises rules and computes the strata the engine schedules.
package analysis

import (
	"errors"
	"fmt"

	"github.com/StarGazerM/datalchemy/ast"
)

// Validation failures. Every error returned by Analyze wraps exactly one of
// these sentinels; callers dispatch with errors.Is.
var (
	// ErrUndeclaredRelation is returned when a literal, fact or output
	// references a relation that was never declared.
	ErrUndeclaredRelation = errors.New("undeclared relation")
	// ErrArityMismatch is returned when an argument count differs from the
	// declared arity.
	ErrArityMismatch = errors.New("arity mismatch")
	// ErrTypeMismatch is returned when a constant or variable binding is
	// incompatible with the declared column type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrNegatedHead is returned when a rule head is marked negated.
	ErrNegatedHead = errors.New("negated head")
	// ErrNegatedLiteral is returned when a body literal is marked negated.
	// Negation stays rejected until stratified negation is designed.
	ErrNegatedLiteral = errors.New("negated body literal")
	// ErrUnsafeRule is returned when a named head variable is not grounded
	// in the body, or an anonymous variable appears in the head.
	ErrUnsafeRule = errors.New("unsafe rule")
	// ErrDuplicateDecl is returned when a relation is declared twice.
	ErrDuplicateDecl = errors.New("duplicate relation declaration")
)

// ProgramInfo is the result of analysis: the validated, normalised program
// plus the evaluation order the engine follows.
type ProgramInfo struct {
	Name  string
	Decls map[string]ast.Decl
	// EdbPredicates are relations that never appear in a rule head.
	EdbPredicates map[string]struct{}
	// IdbPredicates are relations appearing in some rule head.
	IdbPredicates map[string]struct{}
	// Rules are the program's clauses after normalisation.
	Rules   []ast.Clause
	Facts   []ast.Fact
	Outputs []string
	// Strata are the strongly connected components of the relation
	// dependency graph, prerequisites first.
	Strata [][]string
}

// Analyze validates the program and returns the information the engine needs.
// The first violation found is returned; no partial results are produced.
func Analyze(p ast.Program) (*ProgramInfo, error) {
	decls := make(map[string]ast.Decl, len(p.Decls))
	for _, d := range p.Decls {
		if _, ok := decls[d.Name]; ok {
			return nil, fmt.Errorf("program %q: relation %q: %w", p.Name, d.Name, ErrDuplicateDecl)
		}
		decls[d.Name] = d
	}

	for _, f := range p.Facts {
		if err := checkFact(decls, f); err != nil {
			return nil, fmt.Errorf("program %q: fact %v: %w", p.Name, f, err)
		}
	}

	rules := make([]ast.Clause, 0, len(p.Clauses))
	for _, c := range p.Clauses {
		if err := checkRule(decls, c); err != nil {
			return nil, fmt.Errorf("program %q: rule %v: %w", p.Name, c, err)
		}
		rules = append(rules, normalize(c))
	}

	for _, out := range p.Outputs {
		if _, ok := decls[out]; !ok {
			return nil, fmt.Errorf("program %q: output %q: %w", p.Name, out, ErrUndeclaredRelation)
		}
	}

	idb := make(map[string]struct{})
	for _, c := range rules {
		idb[c.Head.Predicate] = struct{}{}
	}
	edb := make(map[string]struct{})
	for name := range decls {
		if _, ok := idb[name]; !ok {
			edb[name] = struct{}{}
		}
	}

	return &ProgramInfo{
		Name:          p.Name,
		Decls:         decls,
		EdbPredicates: edb,
		IdbPredicates: idb,
		Rules:         rules,
		Facts:         p.Facts,
		Outputs:       p.Outputs,
		Strata:        stratify(rules),
	}, nil
}

func checkFact(decls map[string]ast.Decl, f ast.Fact) error {
	decl, ok := decls[f.Predicate]
	if !ok {
		return ErrUndeclaredRelation
	}
	if len(f.Values) != decl.Arity() {
		return fmt.Errorf("%w: got %d values, declared arity %d", ErrArityMismatch, len(f.Values), decl.Arity())
	}
	for i, v := range f.Values {
		if v.Type != decl.Cols[i].Type {
			return fmt.Errorf("%w: column %s is %v, value %v is %v",
				ErrTypeMismatch, decl.Cols[i].Name, decl.Cols[i].Type, v, v.Type)
		}
	}
	return nil
}

func checkRule(decls map[string]ast.Decl, c ast.Clause) error {
	if c.Head.Negated {
		return ErrNegatedHead
	}
	if err := checkLiteral(decls, c.Head); err != nil {
		return err
	}
	for _, a := range c.Head.Args {
		if v, ok := a.(ast.Variable); ok && v.IsWildcard() {
			return fmt.Errorf("%w: anonymous variable in head", ErrUnsafeRule)
		}
	}
	bodyVars := make(map[string]struct{})
	for _, lit := range c.Body {
		if lit.Negated {
			return ErrNegatedLiteral
		}
		if err := checkLiteral(decls, lit); err != nil {
			return err
		}
		for name := range lit.VarNames() {
			bodyVars[name] = struct{}{}
		}
	}
	for name := range c.Head.VarNames() {
		if _, ok := bodyVars[name]; !ok {
			return fmt.Errorf("%w: head variable %q not bound in body", ErrUnsafeRule, name)
		}
	}
	return checkVarTypes(decls, c)
}

func checkLiteral(decls map[string]ast.Decl, lit ast.Literal) error {
	decl, ok := decls[lit.Predicate]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUndeclaredRelation, lit.Predicate)
	}
	if len(lit.Args) != decl.Arity() {
		return fmt.Errorf("%w: literal %v has %d args, declared arity %d",
			ErrArityMismatch, lit, len(lit.Args), decl.Arity())
	}
	for i, a := range lit.Args {
		if v, ok := a.(ast.Constant); ok && v.Type != decl.Cols[i].Type {
			return fmt.Errorf("%w: column %s is %v, constant %v is %v",
				ErrTypeMismatch, decl.Cols[i].Name, decl.Cols[i].Type, v, v.Type)
		}
	}
	return nil
}

// checkVarTypes ensures every named variable unifies columns of a single
// scalar type across the body, and that head occurrences agree with it.
func checkVarTypes(decls map[string]ast.Decl, c ast.Clause) error {
	bound := make(map[string]ast.ConstType)
	for _, lit := range c.Body {
		decl := decls[lit.Predicate]
		for i, a := range lit.Args {
			v, ok := a.(ast.Variable)
			if !ok || v.IsWildcard() {
				continue
			}
			col := decl.Cols[i]
			if prev, seen := bound[v.Name]; seen {
				if prev != col.Type {
					return fmt.Errorf("%w: variable %q joins %v column %s with a %v column",
						ErrTypeMismatch, v.Name, prev, col.Name, col.Type)
				}
			} else {
				bound[v.Name] = col.Type
			}
		}
	}
	headDecl := decls[c.Head.Predicate]
	for i, a := range c.Head.Args {
		v, ok := a.(ast.Variable)
		if !ok {
			continue
		}
		col := headDecl.Cols[i]
		if bt, seen := bound[v.Name]; seen && bt != col.Type {
			return fmt.Errorf("%w: head column %s is %v, variable %q is bound to %v",
				ErrTypeMismatch, col.Name, col.Type, v.Name, bt)
		}
	}
	return nil
}

// normalize rewrites body variables that occur exactly once in the whole
// clause to the anonymous variable. Single-use names carry no join
// constraint, so dropping them only removes work from the evaluator.
func normalize(c ast.Clause) ast.Clause {
	count := make(map[string]int)
	for name := range c.Head.VarNames() {
		// Head occurrences keep a variable alive regardless of body count.
		count[name] = 2
	}
	for _, lit := range c.Body {
		for _, a := range lit.Args {
			if v, ok := a.(ast.Variable); ok && !v.IsWildcard() {
				count[v.Name]++
			}
		}
	}
	body := make([]ast.Literal, len(c.Body))
	for bi, lit := range c.Body {
		args := make([]ast.BaseTerm, len(lit.Args))
		for i, a := range lit.Args {
			if v, ok := a.(ast.Variable); ok && !v.IsWildcard() && count[v.Name] == 1 {
				args[i] = ast.Variable{Name: ast.Wildcard, Type: v.Type}
			} else {
				args[i] = a
			}
		}
		body[bi] = ast.Literal{Predicate: lit.Predicate, Args: args, Negated: lit.Negated}
	}
	return ast.Clause{Head: c.Head, Body: body}
}
