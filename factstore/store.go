// Package factstore holds the tuples of every declared relation during one
// evaluation. Each relation owns three deduplicated sets: full (everything
// derived or asserted so far), delta (tuples that became new in the previous
// round), and staging (tuples derived in the round still in progress).
package factstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/StarGazerM/datalchemy/ast"
)

// Tuple is an ordered sequence of scalar values. Tuple identity is the
// sequence of values, compared structurally.
type Tuple []ast.Constant

// Equal reports element-wise structural equality.
func (t Tuple) Equal(o Tuple) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if !t[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (t Tuple) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, v := range t {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// key renders the tuple as an unambiguous map key. Every element carries a
// type tag and string payloads are quoted, so ("12","3") and ("1","23") get
// distinct keys and an int never collides with a sym of the same spelling.
func (t Tuple) key() string {
	var sb strings.Builder
	for _, v := range t {
		switch v.Type {
		case ast.TypeInt:
			sb.WriteByte('i')
			sb.WriteString(strconv.FormatInt(v.IntVal, 10))
		case ast.TypeFloat:
			sb.WriteByte('f')
			sb.WriteString(strconv.FormatFloat(v.FloatVal, 'g', -1, 64))
		case ast.TypeSym:
			sb.WriteByte('s')
			sb.WriteString(strconv.Quote(v.StrVal))
		default:
			sb.WriteByte('t')
			sb.WriteString(strconv.Quote(v.StrVal))
		}
		sb.WriteByte('|')
	}
	return sb.String()
}

type relation struct {
	full    map[string]Tuple
	delta   map[string]Tuple
	staging map[string]Tuple
}

func newRelation() *relation {
	return &relation{
		full:    make(map[string]Tuple),
		delta:   make(map[string]Tuple),
		staging: make(map[string]Tuple),
	}
}

// Store owns the tuple sets of all declared relations. It is created at the
// start of an evaluation, mutated only by the engine, and read by the result
// extractor; it is not safe for concurrent mutation.
type Store struct {
	rels map[string]*relation
}

// New returns a store with one empty relation per declaration.
func New(decls []ast.Decl) *Store {
	rels := make(map[string]*relation, len(decls))
	for _, d := range decls {
		rels[d.Name] = newRelation()
	}
	return &Store{rels: rels}
}

func (s *Store) rel(name string) *relation {
	r, ok := s.rels[name]
	if !ok {
		panic(fmt.Sprintf("factstore: unknown relation %q", name))
	}
	return r
}

// InsertFull set-inserts into full and reports whether the tuple was new.
func (s *Store) InsertFull(name string, t Tuple) bool {
	r := s.rel(name)
	k := t.key()
	if _, ok := r.full[k]; ok {
		return false
	}
	r.full[k] = t
	return true
}

// InsertStaging set-inserts into staging and reports whether the tuple was
// new to the staging set.
func (s *Store) InsertStaging(name string, t Tuple) bool {
	r := s.rel(name)
	k := t.key()
	if _, ok := r.staging[k]; ok {
		return false
	}
	r.staging[k] = t
	return true
}

// Promote ends a round for the relation: delta becomes the staged tuples not
// already in full, staging is merged into full, and staging is cleared.
func (s *Store) Promote(name string) {
	r := s.rel(name)
	delta := make(map[string]Tuple)
	for k, t := range r.staging {
		if _, ok := r.full[k]; ok {
			continue
		}
		r.full[k] = t
		delta[k] = t
	}
	r.delta = delta
	r.staging = make(map[string]Tuple)
}

// SeedDeltaFromFull copies full into delta. The engine calls it on entry to
// every stratum that has rules.
func (s *Store) SeedDeltaFromFull(name string) {
	r := s.rel(name)
	r.delta = make(map[string]Tuple, len(r.full))
	for k, t := range r.full {
		r.delta[k] = t
	}
}

// ClearDelta empties the relation's delta set.
func (s *Store) ClearDelta(name string) {
	s.rel(name).delta = make(map[string]Tuple)
}

// ScanFull calls fn for every tuple in full, in no particular order.
func (s *Store) ScanFull(name string, fn func(Tuple)) {
	for _, t := range s.rel(name).full {
		fn(t)
	}
}

// ScanDelta calls fn for every tuple in delta, in no particular order.
func (s *Store) ScanDelta(name string, fn func(Tuple)) {
	for _, t := range s.rel(name).delta {
		fn(t)
	}
}

// ContainsFull reports whether full holds the tuple.
func (s *Store) ContainsFull(name string, t Tuple) bool {
	_, ok := s.rel(name).full[t.key()]
	return ok
}

// CountFull returns |full| for the relation.
func (s *Store) CountFull(name string) int { return len(s.rel(name).full) }

// CountDelta returns |delta| for the relation.
func (s *Store) CountDelta(name string) int { return len(s.rel(name).delta) }

// FactCount returns the total number of tuples across all full sets.
func (s *Store) FactCount() int {
	n := 0
	for _, r := range s.rels {
		n += len(r.full)
	}
	return n
}
