// Package builder assembles Program values through a fluent, host-level
// surface. Errors are sticky: the first problem is remembered and returned by
// Program, so call chains never need intermediate checks.
package builder

import (
	"errors"
	"fmt"

	"github.com/StarGazerM/datalchemy/ast"
)

// ErrBuild wraps every construction failure reported by Program.
var ErrBuild = errors.New("program build failed")

// Lit is an unresolved literal: a relation name plus raw arguments. Arguments
// may be Go scalars (coerced against the declared column), ast.Constant
// values, V variables, or W wildcards.
type Lit struct {
	Rel  string
	Args []any
}

// L returns a literal reference for use in Rule.
func L(rel string, args ...any) Lit {
	return Lit{Rel: rel, Args: args}
}

type varRef struct{ name string }

type wildRef struct{}

// V marks a rule variable. Its type is inferred from the declared column of
// the position where it appears.
func V(name string) any { return varRef{name: name} }

// W marks an anonymous (wildcard) position.
func W() any { return wildRef{} }

// Builder accumulates declarations, facts, rules and output markers.
type Builder struct {
	prog ast.Program
	err  error
}

// New starts a program with the given diagnostic name.
func New(name string) *Builder {
	return &Builder{prog: ast.Program{Name: name}}
}

func (b *Builder) fail(format string, args ...any) *Builder {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
	return b
}

func (b *Builder) declByName(name string) (ast.Decl, bool) {
	for _, d := range b.prog.Decls {
		if d.Name == name {
			return d, true
		}
	}
	return ast.Decl{}, false
}

// Decl declares a relation. Columns are (name, type) pairs:
//
//	b.Decl("edge", builder.Col("from", ast.TypeInt), builder.Col("to", ast.TypeInt))
func (b *Builder) Decl(name string, cols ...ast.Column) *Builder {
	if b.err != nil {
		return b
	}
	b.prog.Decls = append(b.prog.Decls, ast.NewDecl(name, cols...))
	return b
}

// Col returns a column spec.
func Col(name string, t ast.ConstType) ast.Column {
	return ast.Column{Name: name, Type: t}
}

// Fact adds an EDB tuple. The relation must be declared first; values are
// coerced against the declared column types.
func (b *Builder) Fact(rel string, values ...any) *Builder {
	if b.err != nil {
		return b
	}
	decl, ok := b.declByName(rel)
	if !ok {
		return b.fail("fact %s: relation must be declared before use", rel)
	}
	if len(values) != decl.Arity() {
		return b.fail("fact %s: got %d values, declared arity %d", rel, len(values), decl.Arity())
	}
	consts := make([]ast.Constant, len(values))
	for i, v := range values {
		c, err := coerce(v, decl.Cols[i].Type)
		if err != nil {
			return b.fail("fact %s, column %s: %v", rel, decl.Cols[i].Name, err)
		}
		consts[i] = c
	}
	b.prog.Facts = append(b.prog.Facts, ast.Fact{Predicate: rel, Values: consts})
	return b
}

// Rule adds a Horn clause. Head and body literals are resolved against the
// declarations; arity is checked eagerly, everything else is left to the
// validator.
func (b *Builder) Rule(head Lit, body ...Lit) *Builder {
	if b.err != nil {
		return b
	}
	h, err := b.resolve(head)
	if err != nil {
		return b.fail("rule head %s: %v", head.Rel, err)
	}
	lits := make([]ast.Literal, len(body))
	for i, raw := range body {
		lit, err := b.resolve(raw)
		if err != nil {
			return b.fail("rule %s, body literal %d (%s): %v", head.Rel, i, raw.Rel, err)
		}
		lits[i] = lit
	}
	b.prog.Clauses = append(b.prog.Clauses, ast.Clause{Head: h, Body: lits})
	return b
}

func (b *Builder) resolve(raw Lit) (ast.Literal, error) {
	decl, ok := b.declByName(raw.Rel)
	if !ok {
		return ast.Literal{}, fmt.Errorf("relation must be declared before use")
	}
	if len(raw.Args) != decl.Arity() {
		return ast.Literal{}, fmt.Errorf("got %d args, declared arity %d", len(raw.Args), decl.Arity())
	}
	args := make([]ast.BaseTerm, len(raw.Args))
	for i, a := range raw.Args {
		colType := decl.Cols[i].Type
		switch v := a.(type) {
		case varRef:
			args[i] = ast.Var(v.name, colType)
		case wildRef:
			args[i] = ast.Variable{Name: ast.Wildcard, Type: colType}
		default:
			c, err := coerce(a, colType)
			if err != nil {
				return ast.Literal{}, fmt.Errorf("arg %d: %v", i, err)
			}
			args[i] = c
		}
	}
	return ast.Literal{Predicate: raw.Rel, Args: args}, nil
}

// Output marks relations whose contents the evaluation returns.
func (b *Builder) Output(names ...string) *Builder {
	if b.err != nil {
		return b
	}
	b.prog.Outputs = append(b.prog.Outputs, names...)
	return b
}

// Program returns the assembled program, or the first construction error.
func (b *Builder) Program() (ast.Program, error) {
	if b.err != nil {
		return ast.Program{}, fmt.Errorf("%w: %v", ErrBuild, b.err)
	}
	return b.prog, nil
}

// coerce converts a raw Go value into a Constant of the declared column type.
// ast.Constant values pass through untouched; the validator checks their type.
func coerce(v any, t ast.ConstType) (ast.Constant, error) {
	if c, ok := v.(ast.Constant); ok {
		return c, nil
	}
	switch t {
	case ast.TypeInt:
		switch n := v.(type) {
		case int:
			return ast.Int(int64(n)), nil
		case int32:
			return ast.Int(int64(n)), nil
		case int64:
			return ast.Int(n), nil
		}
	case ast.TypeFloat:
		switch n := v.(type) {
		case float32:
			return ast.Float(float64(n)), nil
		case float64:
			return ast.Float(n), nil
		case int:
			return ast.Float(float64(n)), nil
		case int64:
			return ast.Float(float64(n)), nil
		}
	case ast.TypeSym:
		if s, ok := v.(string); ok {
			return ast.Sym(s), nil
		}
	case ast.TypeStr:
		if s, ok := v.(string); ok {
			return ast.Str(s), nil
		}
	}
	return ast.Constant{}, fmt.Errorf("cannot use %T as %v", v, t)
}
