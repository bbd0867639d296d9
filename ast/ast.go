// Package ast defines the abstract syntax of a Datalog program: typed scalar
// constants, rule-level variables, relation declarations, literals, Horn
// clauses, ground facts, and the Program value consumed by the evaluator.
package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Wildcard is the reserved variable name for an anonymous binding position.
// It introduces no cross-occurrence constraint and may not appear in a head.
const Wildcard = "_"

// ConstType is the tag of a scalar constant and of a declared column.
type ConstType int

const (
	// TypeInt is a signed 64-bit integer.
	TypeInt ConstType = iota
	// TypeFloat is a 64-bit float.
	TypeFloat
	// TypeSym is a short symbol (bounded printable text).
	TypeSym
	// TypeStr is unbounded text.
	TypeStr
)

func (t ConstType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeSym:
		return "sym"
	case TypeStr:
		return "str"
	default:
		return fmt.Sprintf("ConstType(%d)", int(t))
	}
}

// ConstTypeFromString maps the textual type names used by declarations
// ("int", "float", "sym", "str") back to a ConstType.
func ConstTypeFromString(s string) (ConstType, bool) {
	switch s {
	case "int":
		return TypeInt, true
	case "float":
		return TypeFloat, true
	case "sym":
		return TypeSym, true
	case "str":
		return TypeStr, true
	}
	return 0, false
}

// BaseTerm is an argument position of a literal: either a Constant or a
// Variable.
type BaseTerm interface {
	isBaseTerm()
	fmt.Stringer
}

// Constant is a tagged scalar value. Equality is structural and cross-type
// equality is always false. Constants carry no ordering.
type Constant struct {
	Type     ConstType
	IntVal   int64
	FloatVal float64
	// StrVal holds the payload for both TypeSym and TypeStr.
	StrVal string
}

func (Constant) isBaseTerm() {}

// Int returns an integer constant.
func Int(v int64) Constant { return Constant{Type: TypeInt, IntVal: v} }

// Float returns a float constant.
func Float(v float64) Constant { return Constant{Type: TypeFloat, FloatVal: v} }

// Sym returns a symbol constant.
func Sym(s string) Constant { return Constant{Type: TypeSym, StrVal: s} }

// Str returns a string constant.
func Str(s string) Constant { return Constant{Type: TypeStr, StrVal: s} }

// Equal reports structural equality. Constants of different types are never
// equal, even when their payloads would render identically.
func (c Constant) Equal(o Constant) bool {
	if c.Type != o.Type {
		return false
	}
	switch c.Type {
	case TypeInt:
		return c.IntVal == o.IntVal
	case TypeFloat:
		return c.FloatVal == o.FloatVal
	default:
		return c.StrVal == o.StrVal
	}
}

func (c Constant) String() string {
	switch c.Type {
	case TypeInt:
		return strconv.FormatInt(c.IntVal, 10)
	case TypeFloat:
		return strconv.FormatFloat(c.FloatVal, 'g', -1, 64)
	case TypeSym:
		return c.StrVal
	default:
		return strconv.Quote(c.StrVal)
	}
}

// Variable is a rule-level variable identified by name and column type. The
// type is inherited from the declared column of the position where the
// variable first appears.
type Variable struct {
	Name string
	Type ConstType
}

func (Variable) isBaseTerm() {}

// IsWildcard reports whether the variable is the anonymous "_".
func (v Variable) IsWildcard() bool { return v.Name == Wildcard }

func (v Variable) String() string { return v.Name }

// Var returns a named variable of the given type.
func Var(name string, t ConstType) Variable { return Variable{Name: name, Type: t} }

// Column is one position of a relation declaration.
type Column struct {
	Name string
	Type ConstType
}

// Decl declares a relation with its named, typed columns. Arity is the
// number of columns. Relation names are unique within a program.
type Decl struct {
	Name string
	Cols []Column
}

// NewDecl returns a declaration for the given relation and columns.
func NewDecl(name string, cols ...Column) Decl {
	return Decl{Name: name, Cols: cols}
}

// Arity returns the number of declared columns.
func (d Decl) Arity() int { return len(d.Cols) }

func (d Decl) String() string {
	var sb strings.Builder
	sb.WriteString(".decl ")
	sb.WriteString(d.Name)
	sb.WriteByte('(')
	for i, c := range d.Cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.Name)
		sb.WriteByte(':')
		sb.WriteString(c.Type.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Literal references a relation with one argument per column. A negated
// literal is representable but rejected by validation; the evaluator never
// sees one.
type Literal struct {
	Predicate string
	Args      []BaseTerm
	Negated   bool
}

// NewLiteral returns a positive literal.
func NewLiteral(predicate string, args ...BaseTerm) Literal {
	return Literal{Predicate: predicate, Args: args}
}

// NewNegatedLiteral returns a negated literal.
func NewNegatedLiteral(predicate string, args ...BaseTerm) Literal {
	return Literal{Predicate: predicate, Args: args, Negated: true}
}

func (l Literal) String() string {
	var sb strings.Builder
	if l.Negated {
		sb.WriteByte('!')
	}
	sb.WriteString(l.Predicate)
	sb.WriteByte('(')
	for i, a := range l.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// VarNames returns the set of named (non-wildcard) variable names in the
// literal's argument list.
func (l Literal) VarNames() map[string]struct{} {
	names := make(map[string]struct{})
	for _, a := range l.Args {
		if v, ok := a.(Variable); ok && !v.IsWildcard() {
			names[v.Name] = struct{}{}
		}
	}
	return names
}

// Clause is a Horn clause: head :- body. A clause with an empty body is not
// used for EDB facts here; ground facts travel as Fact values.
type Clause struct {
	Head Literal
	Body []Literal
}

// NewClause returns a clause with the given head and body literals.
func NewClause(head Literal, body ...Literal) Clause {
	return Clause{Head: head, Body: body}
}

func (c Clause) String() string {
	var sb strings.Builder
	sb.WriteString(c.Head.String())
	if len(c.Body) > 0 {
		sb.WriteString(" :- ")
		for i, l := range c.Body {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(l.String())
		}
	}
	sb.WriteByte('.')
	return sb.String()
}

// Fact is a ground EDB tuple for a declared relation.
type Fact struct {
	Predicate string
	Values    []Constant
}

// NewFact returns a fact for the given relation.
func NewFact(predicate string, values ...Constant) Fact {
	return Fact{Predicate: predicate, Values: values}
}

func (f Fact) String() string {
	var sb strings.Builder
	sb.WriteString(f.Predicate)
	sb.WriteByte('(')
	for i, v := range f.Values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteString(").")
	return sb.String()
}

// Program is the full input to the evaluator. Ordering of declarations,
// clauses and facts carries no semantic weight.
type Program struct {
	// Name identifies the program in diagnostics only.
	Name    string
	Decls   []Decl
	Clauses []Clause
	Facts   []Fact
	// Outputs lists the relations whose contents the evaluation returns.
	Outputs []string
}
