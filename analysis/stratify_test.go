package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StarGazerM/datalchemy/ast"
)

func rule(head string, headArgs []ast.BaseTerm, body ...ast.Literal) ast.Clause {
	return ast.NewClause(ast.NewLiteral(head, headArgs...), body...)
}

func TestStratifyChain(t *testing.T) {
	x := ast.Var("x", ast.TypeInt)
	args := []ast.BaseTerm{x}
	rules := []ast.Clause{
		rule("t1", args, ast.NewLiteral("base", x)),
		rule("t2", args, ast.NewLiteral("t1", x)),
		rule("t3", args, ast.NewLiteral("t2", x)),
	}
	strata := stratify(rules)
	assert.Equal(t, [][]string{{"base"}, {"t1"}, {"t2"}, {"t3"}}, strata)
}

func TestStratifyRecursion(t *testing.T) {
	f := ast.Var("f", ast.TypeInt)
	m := ast.Var("m", ast.TypeInt)
	tv := ast.Var("t", ast.TypeInt)
	rules := []ast.Clause{
		rule("path", []ast.BaseTerm{f, tv}, ast.NewLiteral("edge", f, tv)),
		rule("path", []ast.BaseTerm{f, tv},
			ast.NewLiteral("path", f, m), ast.NewLiteral("path", m, tv)),
	}
	strata := stratify(rules)
	require.Len(t, strata, 2)
	assert.Equal(t, []string{"edge"}, strata[0])
	assert.Equal(t, []string{"path"}, strata[1])
}

func TestStratifyMutualRecursion(t *testing.T) {
	x := ast.Var("x", ast.TypeInt)
	args := []ast.BaseTerm{x}
	rules := []ast.Clause{
		rule("even", args, ast.NewLiteral("oddsucc", x)),
		rule("oddsucc", args, ast.NewLiteral("even", x)),
		rule("even", args, ast.NewLiteral("zero", x)),
		rule("report", args, ast.NewLiteral("even", x)),
	}
	strata := stratify(rules)
	require.Len(t, strata, 3)
	assert.Equal(t, []string{"zero"}, strata[0])
	assert.Equal(t, []string{"even", "oddsucc"}, strata[1])
	assert.Equal(t, []string{"report"}, strata[2])
}

func TestStratifyPrerequisitesComeFirst(t *testing.T) {
	x := ast.Var("x", ast.TypeInt)
	args := []ast.BaseTerm{x}
	rules := []ast.Clause{
		rule("c", args, ast.NewLiteral("a", x), ast.NewLiteral("b", x)),
		rule("b", args, ast.NewLiteral("a", x)),
	}
	strata := stratify(rules)
	pos := make(map[string]int)
	for i, s := range strata {
		for _, name := range s {
			pos[name] = i
		}
	}
	assert.Less(t, pos["a"], pos["b"])
	assert.Less(t, pos["b"], pos["c"])
}

func TestIsRecursive(t *testing.T) {
	f := ast.Var("f", ast.TypeInt)
	m := ast.Var("m", ast.TypeInt)
	tv := ast.Var("t", ast.TypeInt)
	rules := []ast.Clause{
		rule("path", []ast.BaseTerm{f, tv}, ast.NewLiteral("edge", f, tv)),
		rule("path", []ast.BaseTerm{f, tv},
			ast.NewLiteral("path", f, m), ast.NewLiteral("path", m, tv)),
	}
	assert.True(t, IsRecursive([]string{"path"}, rules))
	assert.False(t, IsRecursive([]string{"edge"}, rules))
	assert.True(t, IsRecursive([]string{"even", "oddsucc"}, nil))
}
