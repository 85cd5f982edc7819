// Package sat defines the incremental SAT solver contract the CNF
// adapter (C3) drives, and a self-contained default implementation.
// Design Notes §9 explicitly calls for keeping the solver "behind a
// trait... so the core can be tested against mock solvers"; Solver is
// that trait.
package sat

import (
	"context"
	"time"
)

// Lit is a solver-level literal: a variable number with a sign, packed
// DIMACS-style as var*2+negated so Var(0) is reserved and unusable —
// variable numbering in this package starts at 1.
type Lit int32

// MakeLit packs a variable and polarity into a literal.
func MakeLit(v int32, negated bool) Lit {
	l := Lit(v) << 1
	if negated {
		l |= 1
	}
	return l
}

// Var returns the variable addressed by l.
func (l Lit) Var() int32 { return int32(l >> 1) }

// Negated reports whether l is the negative phase of its variable.
func (l Lit) Negated() bool { return l&1 != 0 }

// Not returns the complemented literal.
func (l Lit) Not() Lit { return l ^ 1 }

// Outcome is the three-way result of a solve call.
type Outcome int

const (
	Unknown Outcome = iota
	Sat
	Unsat
)

// SolveResult is the outcome of one solve_with_assumptions call.
type SolveResult struct {
	Outcome Outcome
	// Model holds var_value results when Outcome == Sat, indexed by
	// variable number (Model[0] is unused filler).
	Model []bool
}

// Solver is the incremental CDCL contract C3 drives. Implementations
// need not be thread-safe; the engine treats a solver as exclusively
// owned by its calling goroutine (spec.md §5 shared-resource policy).
type Solver interface {
	// NewVar allocates and returns a fresh variable number.
	NewVar() int32
	// AddClause adds a clause (disjunction of lits). Returns false if
	// the clause set is now provably unsatisfiable (a unit-propagation
	// contradiction), matching the "inconsistent" trigger in spec.md §7.
	AddClause(lits ...Lit) bool
	// SolveWithAssumptions solves under the given assumptions, bounding
	// search by conflictLimit conflicts (0 = unbounded) and timeLimit
	// wall-clock (0 = unbounded).
	SolveWithAssumptions(ctx context.Context, assumptions []Lit, conflictLimit int, timeLimit time.Duration) SolveResult
	// VarValue returns v's value in the most recent Sat model.
	VarValue(v int32) bool
}
