package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstantEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Constant
		want bool
	}{
		{"int equal", Int(42), Int(42), true},
		{"int unequal", Int(42), Int(43), false},
		{"float equal", Float(1.5), Float(1.5), true},
		{"sym equal", Sym("alice"), Sym("alice"), true},
		{"str equal", Str("hello"), Str("hello"), true},
		{"cross type int/float", Int(1), Float(1), false},
		{"cross type sym/str", Sym("x"), Str("x"), false},
		{"cross type int/str", Int(12), Str("12"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestConstTypeRoundTrip(t *testing.T) {
	for _, typ := range []ConstType{TypeInt, TypeFloat, TypeSym, TypeStr} {
		got, ok := ConstTypeFromString(typ.String())
		require.True(t, ok, "type %v", typ)
		assert.Equal(t, typ, got)
	}
	_, ok := ConstTypeFromString("bool")
	assert.False(t, ok)
}

func TestDeclString(t *testing.T) {
	d := NewDecl("edge", Column{"from", TypeInt}, Column{"to", TypeInt})
	assert.Equal(t, ".decl edge(from:int, to:int)", d.String())
	assert.Equal(t, 2, d.Arity())
}

func TestClauseString(t *testing.T) {
	edge := NewLiteral("edge", Var("f", TypeInt), Var("t", TypeInt))
	path := NewLiteral("path", Var("f", TypeInt), Var("t", TypeInt))
	c := NewClause(path, edge)
	assert.Equal(t, "path(f, t) :- edge(f, t).", c.String())

	rec := NewClause(path,
		NewLiteral("path", Var("f", TypeInt), Var("m", TypeInt)),
		NewLiteral("path", Var("m", TypeInt), Var("t", TypeInt)))
	assert.Equal(t, "path(f, t) :- path(f, m), path(m, t).", rec.String())
}

func TestLiteralString(t *testing.T) {
	l := NewLiteral("a", Int(1), Var("y", TypeInt), Variable{Name: Wildcard})
	assert.Equal(t, "a(1, y, _)", l.String())

	n := NewNegatedLiteral("edge", Var("x", TypeInt), Var("y", TypeInt))
	assert.Equal(t, "!edge(x, y)", n.String())

	s := NewLiteral("name", Sym("alice"), Str("Alice A."))
	assert.Equal(t, `name(alice, "Alice A.")`, s.String())
}

func TestFactString(t *testing.T) {
	f := NewFact("edge", Int(1), Int(2))
	assert.Equal(t, "edge(1, 2).", f.String())
}

func TestVarNames(t *testing.T) {
	l := NewLiteral("p", Var("x", TypeInt), Variable{Name: Wildcard}, Int(3), Var("y", TypeSym))
	names := l.VarNames()
	assert.Equal(t, map[string]struct{}{"x": {}, "y": {}}, names)
}

func TestWildcard(t *testing.T) {
	assert.True(t, Variable{Name: "_"}.IsWildcard())
	assert.False(t, Var("x", TypeInt).IsWildcard())
}
