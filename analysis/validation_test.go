package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StarGazerM/datalchemy/ast"
)

func intCol(name string) ast.Column { return ast.Column{Name: name, Type: ast.TypeInt} }

func graphProgram() ast.Program {
	edge := ast.NewDecl("edge", intCol("from"), intCol("to"))
	path := ast.NewDecl("path", intCol("from"), intCol("to"))
	f := ast.Var("f", ast.TypeInt)
	m := ast.Var("m", ast.TypeInt)
	t := ast.Var("t", ast.TypeInt)
	return ast.Program{
		Name:  "graph",
		Decls: []ast.Decl{edge, path},
		Clauses: []ast.Clause{
			ast.NewClause(ast.NewLiteral("path", f, t), ast.NewLiteral("edge", f, t)),
			ast.NewClause(ast.NewLiteral("path", f, t),
				ast.NewLiteral("path", f, m), ast.NewLiteral("path", m, t)),
		},
		Facts: []ast.Fact{
			ast.NewFact("edge", ast.Int(1), ast.Int(2)),
			ast.NewFact("edge", ast.Int(2), ast.Int(3)),
		},
		Outputs: []string{"path"},
	}
}

func TestAnalyzeValidProgram(t *testing.T) {
	info, err := Analyze(graphProgram())
	require.NoError(t, err)

	assert.Equal(t, "graph", info.Name)
	assert.Contains(t, info.EdbPredicates, "edge")
	assert.Contains(t, info.IdbPredicates, "path")
	assert.NotContains(t, info.IdbPredicates, "edge")
	assert.Len(t, info.Rules, 2)
	assert.Equal(t, [][]string{{"edge"}, {"path"}}, info.Strata)
}

func TestUndeclaredRelation(t *testing.T) {
	p := graphProgram()
	p.Facts = append(p.Facts, ast.NewFact("vertex", ast.Int(1)))
	_, err := Analyze(p)
	assert.ErrorIs(t, err, ErrUndeclaredRelation)

	p = graphProgram()
	p.Outputs = []string{"reachable"}
	_, err = Analyze(p)
	assert.ErrorIs(t, err, ErrUndeclaredRelation)

	p = graphProgram()
	x := ast.Var("x", ast.TypeInt)
	p.Clauses = append(p.Clauses,
		ast.NewClause(ast.NewLiteral("path", x, x), ast.NewLiteral("ghost", x)))
	_, err = Analyze(p)
	assert.ErrorIs(t, err, ErrUndeclaredRelation)
}

func TestArityMismatch(t *testing.T) {
	p := graphProgram()
	p.Facts = append(p.Facts, ast.NewFact("edge", ast.Int(1)))
	_, err := Analyze(p)
	assert.ErrorIs(t, err, ErrArityMismatch)

	p = graphProgram()
	x := ast.Var("x", ast.TypeInt)
	p.Clauses = append(p.Clauses,
		ast.NewClause(ast.NewLiteral("path", x, x), ast.NewLiteral("edge", x)))
	_, err = Analyze(p)
	assert.ErrorIs(t, err, ErrArityMismatch)
}

func TestTypeMismatch(t *testing.T) {
	p := graphProgram()
	p.Facts = append(p.Facts, ast.NewFact("edge", ast.Int(1), ast.Sym("two")))
	_, err := Analyze(p)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	// Constant in a literal with the wrong column type.
	p = graphProgram()
	x := ast.Var("x", ast.TypeInt)
	p.Clauses = append(p.Clauses,
		ast.NewClause(ast.NewLiteral("path", x, x), ast.NewLiteral("edge", x, ast.Str("3"))))
	_, err = Analyze(p)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestVariableJoinTypeMismatch(t *testing.T) {
	rel := ast.NewDecl("named", ast.Column{Name: "id", Type: ast.TypeInt}, ast.Column{Name: "name", Type: ast.TypeSym})
	out := ast.NewDecl("out", intCol("id"))
	x := ast.Var("x", ast.TypeInt)
	p := ast.Program{
		Name:  "bad-join",
		Decls: []ast.Decl{rel, out},
		Clauses: []ast.Clause{
			// x unifies an int column with a sym column.
			ast.NewClause(ast.NewLiteral("out", x), ast.NewLiteral("named", x, x)),
		},
	}
	_, err := Analyze(p)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestNegation(t *testing.T) {
	p := graphProgram()
	f := ast.Var("f", ast.TypeInt)
	tv := ast.Var("t", ast.TypeInt)
	p.Clauses = append(p.Clauses,
		ast.NewClause(ast.NewNegatedLiteral("path", f, tv), ast.NewLiteral("edge", f, tv)))
	_, err := Analyze(p)
	assert.ErrorIs(t, err, ErrNegatedHead)

	p = graphProgram()
	p.Clauses = append(p.Clauses,
		ast.NewClause(ast.NewLiteral("path", f, tv),
			ast.NewLiteral("edge", f, tv),
			ast.NewNegatedLiteral("edge", tv, f)))
	_, err = Analyze(p)
	assert.ErrorIs(t, err, ErrNegatedLiteral)
}

func TestUnsafeRule(t *testing.T) {
	in := ast.NewDecl("in", intCol("x"))
	out := ast.NewDecl("out", intCol("x"), intCol("y"))
	x := ast.Var("x", ast.TypeInt)
	y := ast.Var("y", ast.TypeInt)
	p := ast.Program{
		Name:  "unsafe",
		Decls: []ast.Decl{in, out},
		Clauses: []ast.Clause{
			ast.NewClause(ast.NewLiteral("out", x, y), ast.NewLiteral("in", x)),
		},
	}
	_, err := Analyze(p)
	assert.ErrorIs(t, err, ErrUnsafeRule)
}

func TestWildcardInHeadRejected(t *testing.T) {
	in := ast.NewDecl("in", intCol("x"))
	out := ast.NewDecl("out", intCol("x"))
	x := ast.Var("x", ast.TypeInt)
	p := ast.Program{
		Name:  "wild-head",
		Decls: []ast.Decl{in, out},
		Clauses: []ast.Clause{
			ast.NewClause(
				ast.NewLiteral("out", ast.Variable{Name: ast.Wildcard, Type: ast.TypeInt}),
				ast.NewLiteral("in", x)),
		},
	}
	_, err := Analyze(p)
	assert.ErrorIs(t, err, ErrUnsafeRule)
}

func TestDuplicateDecl(t *testing.T) {
	p := graphProgram()
	p.Decls = append(p.Decls, ast.NewDecl("edge", intCol("a"), intCol("b")))
	_, err := Analyze(p)
	assert.ErrorIs(t, err, ErrDuplicateDecl)
}

func TestNormalizeSingleUseVariables(t *testing.T) {
	p3 := ast.NewDecl("p", intCol("x"), intCol("y"), intCol("z"))
	s := ast.NewDecl("s", intCol("x"))
	x := ast.Var("x", ast.TypeInt)
	y := ast.Var("y", ast.TypeInt)
	z := ast.Var("z", ast.TypeInt)
	p := ast.Program{
		Name:  "single-use",
		Decls: []ast.Decl{p3, s},
		Clauses: []ast.Clause{
			// y and z are used once each and not in the head.
			ast.NewClause(ast.NewLiteral("s", x), ast.NewLiteral("p", x, y, z)),
		},
	}
	info, err := Analyze(p)
	require.NoError(t, err)
	require.Len(t, info.Rules, 1)
	body := info.Rules[0].Body[0]
	v1, ok := body.Args[1].(ast.Variable)
	require.True(t, ok)
	v2, ok := body.Args[2].(ast.Variable)
	require.True(t, ok)
	assert.True(t, v1.IsWildcard())
	assert.True(t, v2.IsWildcard())

	// x appears in the head and stays.
	v0, ok := body.Args[0].(ast.Variable)
	require.True(t, ok)
	assert.Equal(t, "x", v0.Name)
}

func TestNormalizeKeepsJoinVariables(t *testing.T) {
	p := graphProgram()
	info, err := Analyze(p)
	require.NoError(t, err)
	// The recursive rule's m joins the two body literals and must survive.
	rec := info.Rules[1]
	m0, ok := rec.Body[0].Args[1].(ast.Variable)
	require.True(t, ok)
	assert.Equal(t, "m", m0.Name)
}
