// Package datalchemy is a bottom-up Datalog evaluator. A program of relation
// declarations, facts and safe Horn rules is validated, its least fixed point
// computed by stratified semi-naive iteration, and the contents of the
// declared output relations returned as deduplicated tuple sets.
//
// Programs are assembled with the builder package or constructed directly
// from ast values:
//
//	prog, err := builder.New("graph").
//		Decl("edge", builder.Col("from", ast.TypeInt), builder.Col("to", ast.TypeInt)).
//		Decl("path", builder.Col("from", ast.TypeInt), builder.Col("to", ast.TypeInt)).
//		Fact("edge", 1, 2).
//		Rule(builder.L("path", builder.V("f"), builder.V("t")),
//			builder.L("edge", builder.V("f"), builder.V("t"))).
//		Output("path").
//		Program()
//	res, err := datalchemy.Run(prog)
package datalchemy

import (
	"github.com/StarGazerM/datalchemy/analysis"
	"github.com/StarGazerM/datalchemy/ast"
	"github.com/StarGazerM/datalchemy/engine"
	"github.com/StarGazerM/datalchemy/factstore"
)

// Run validates and evaluates the program and returns the output relations.
// Validation failures abort before any evaluation; no partial results are
// produced.
func Run(p ast.Program, opts ...engine.Option) (engine.Result, error) {
	res, _, err := RunWithStats(p, opts...)
	return res, err
}

// RunWithStats is Run plus the engine's per-stratum statistics.
func RunWithStats(p ast.Program, opts ...engine.Option) (engine.Result, engine.Stats, error) {
	info, err := analysis.Analyze(p)
	if err != nil {
		return nil, engine.Stats{}, err
	}
	store := factstore.New(p.Decls)
	stats, err := engine.Eval(info, store, opts...)
	if err != nil {
		return nil, engine.Stats{}, err
	}
	return engine.Results(info, store), stats, nil
}
