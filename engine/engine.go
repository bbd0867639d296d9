// Package engine computes the least fixed point of a validated Datalog
// program. Strata are processed prerequisites-first; inside each recursive
// stratum the engine runs semi-naive rounds, re-deriving only from the tuples
// that became new in the previous round, until a full pass adds nothing.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/StarGazerM/datalchemy/analysis"
	"github.com/StarGazerM/datalchemy/factstore"
)

// ErrFactLimit is returned when, after a round, the store holds more tuples
// (facts included) than the configured cap allows. The cap is an opt-in
// resource guard; with the default (no limit) evaluation never fails.
var ErrFactLimit = errors.New("fact limit exceeded")

// Stats reports how the fixed point was reached.
type Stats struct {
	// Strata mirrors analysis.ProgramInfo.Strata.
	Strata [][]string
	// Rounds is the number of evaluation passes each stratum took.
	Rounds []int
	// Duration is the wall time each stratum took.
	Duration []time.Duration
}

type options struct {
	logger      *zap.Logger
	factLimit   int
	parallelism int
}

// Option configures one evaluation.
type Option func(*options)

// WithLogger attaches a logger; round and stratum progress is logged at
// debug level. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFactLimit aborts evaluation once the store holds more than n tuples.
// Zero means no limit.
func WithFactLimit(n int) Option {
	return func(o *options) { o.factLimit = n }
}

// WithParallelism evaluates the rule batch of each round on up to n
// goroutines. Staging insertion and promotion stay on the calling goroutine,
// so the round barrier of the evaluation model is preserved. Values below 2
// keep evaluation fully sequential.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}

// Result maps each output relation to its tuples. No ordering is prescribed.
type Result map[string][]factstore.Tuple

// variant is one unit of round work: a compiled rule with a chosen tuple set
// per body literal.
type variant struct {
	rule  *compiledRule
	scans []scanSet
}

// Eval seeds the store with the program's facts and runs every stratum to
// saturation. The store must have been created from the same program.
func Eval(info *analysis.ProgramInfo, store *factstore.Store, opts ...Option) (Stats, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("program", info.Name),
	)

	for _, f := range info.Facts {
		store.InsertFull(f.Predicate, factstore.Tuple(f.Values))
	}

	rulesByHead := make(map[string][]*compiledRule)
	for _, c := range info.Rules {
		rulesByHead[c.Head.Predicate] = append(rulesByHead[c.Head.Predicate], compileRule(c))
	}

	stats := Stats{
		Strata:   info.Strata,
		Rounds:   make([]int, len(info.Strata)),
		Duration: make([]time.Duration, len(info.Strata)),
	}
	for si, stratum := range info.Strata {
		start := time.Now()
		rounds, err := evalStratum(stratum, rulesByHead, store, &o)
		if err != nil {
			return Stats{}, fmt.Errorf("stratum %d (%v): %w", si, stratum, err)
		}
		stats.Rounds[si] = rounds
		stats.Duration[si] = time.Since(start)
		log.Debug("stratum saturated",
			zap.Int("stratum", si),
			zap.Strings("relations", stratum),
			zap.Int("rounds", rounds),
			zap.Duration("took", stats.Duration[si]),
			zap.Int("store_facts", store.FactCount()),
		)
	}
	return stats, nil
}

func evalStratum(stratum []string, rulesByHead map[string][]*compiledRule, store *factstore.Store, o *options) (int, error) {
	inStratum := make(map[string]struct{}, len(stratum))
	for _, rel := range stratum {
		inStratum[rel] = struct{}{}
	}
	var rules []*compiledRule
	for _, rel := range stratum {
		rules = append(rules, rulesByHead[rel]...)
	}
	if len(rules) == 0 {
		// Pure EDB stratum; its facts are already in full.
		return 0, nil
	}

	for _, rel := range stratum {
		store.SeedDeltaFromFull(rel)
	}

	// First pass reads full for every body literal: it observes all
	// inherited facts and everything earlier strata derived.
	first := make([]variant, len(rules))
	for i, r := range rules {
		first[i] = variant{rule: r, scans: make([]scanSet, len(r.body))}
	}
	if err := runRound(first, stratum, store, o); err != nil {
		return 1, err
	}
	rounds := 1

	// Delta variants: one per body literal whose relation lives in this
	// stratum. That literal reads delta, the rest read full, so every
	// new×old combination is reached. Rules that only read earlier strata
	// contribute no variants and are done after the first pass.
	var deltas []variant
	for _, r := range rules {
		for li, plan := range r.body {
			if _, ok := inStratum[plan.rel]; !ok {
				continue
			}
			scans := make([]scanSet, len(r.body))
			scans[li] = scanDelta
			deltas = append(deltas, variant{rule: r, scans: scans})
		}
	}
	for len(deltas) > 0 && deltaTotal(stratum, store) > 0 {
		if err := runRound(deltas, stratum, store, o); err != nil {
			return rounds, err
		}
		rounds++
	}
	return rounds, nil
}

// runRound evaluates the batch against the delta snapshot captured at round
// start, stages every derived tuple, and promotes the stratum's relations.
// Promotion is the round barrier: no rule observes in-round output.
func runRound(batch []variant, stratum []string, store *factstore.Store, o *options) error {
	derived := make([][]factstore.Tuple, len(batch))
	if o.parallelism > 1 {
		var g errgroup.Group
		g.SetLimit(o.parallelism)
		for i, v := range batch {
			g.Go(func() error {
				derived[i] = v.rule.eval(store, v.scans)
				return nil
			})
		}
		// Rule evaluation only reads the store, so the only error source
		// would be a panic; Wait still provides the join point.
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		for i, v := range batch {
			derived[i] = v.rule.eval(store, v.scans)
		}
	}
	for i, tuples := range derived {
		head := batch[i].rule.head
		for _, t := range tuples {
			store.InsertStaging(head, t)
		}
	}
	for _, rel := range stratum {
		store.Promote(rel)
	}
	if o.factLimit > 0 && store.FactCount() > o.factLimit {
		return fmt.Errorf("%w: %d > %d", ErrFactLimit, store.FactCount(), o.factLimit)
	}
	return nil
}

func deltaTotal(stratum []string, store *factstore.Store) int {
	n := 0
	for _, rel := range stratum {
		n += store.CountDelta(rel)
	}
	return n
}

// Results returns the tuples of every output relation from the store.
func Results(info *analysis.ProgramInfo, store *factstore.Store) Result {
	out := make(Result, len(info.Outputs))
	for _, name := range info.Outputs {
		var tuples []factstore.Tuple
		store.ScanFull(name, func(t factstore.Tuple) { tuples = append(tuples, t) })
		out[name] = tuples
	}
	return out
}
