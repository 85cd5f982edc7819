package sat

import (
	"context"
	"time"
)

// DPLLSolver is the default Solver backend: no example repo in the
// corpus ships a SAT engine, so this is a from-scratch DPLL with unit
// propagation and chronological backtracking rather than full CDCL
// clause learning. It is behind the same Solver trait as any real
// solver, so swapping in a production CDCL backend later touches
// nothing upstream.
type DPLLSolver struct {
	nVars int32
	all   [][]Lit
	fixed []int8 // -1 unknown, 0 false, 1 true; level-0 assignments, persist across Solve calls
	model []bool
}

// NewDPLLSolver returns an empty solver with variable 1 preassigned as
// the engine's reserved constant-1 var (spec.md §4.1: "variable 1 is
// reserved for constant-1").
func NewDPLLSolver() *DPLLSolver {
	s := &DPLLSolver{fixed: []int8{-1, -1}}
	v := s.NewVar()
	s.fixed[v] = 1
	return s
}

func (s *DPLLSolver) NewVar() int32 {
	s.nVars++
	s.fixed = append(s.fixed, -1)
	return s.nVars
}

func (s *DPLLSolver) AddClause(lits ...Lit) bool {
	c := append([]Lit(nil), lits...)
	s.all = append(s.all, c)
	return s.propagateFixed()
}

// propagateFixed runs unit propagation to a fixpoint over s.fixed,
// reporting false the moment a clause is simultaneously forced true
// and false (the "inconsistent" AddClause contract).
func (s *DPLLSolver) propagateFixed() bool {
	for {
		changed := false
		for _, c := range s.all {
			sat := false
			var unit Lit
			nUnassigned := 0
			for _, l := range c {
				v := s.fixed[l.Var()]
				if v == -1 {
					nUnassigned++
					unit = l
					continue
				}
				lv := v == 1
				if l.Negated() {
					lv = !lv
				}
				if lv {
					sat = true
					break
				}
			}
			if sat {
				continue
			}
			if nUnassigned == 0 {
				return false // every literal false, unsatisfiable clause
			}
			if nUnassigned == 1 {
				want := int8(1)
				if unit.Negated() {
					want = 0
				}
				if cur := s.fixed[unit.Var()]; cur != -1 {
					if cur != want {
						return false
					}
					continue
				}
				s.fixed[unit.Var()] = want
				changed = true
			}
		}
		if !changed {
			return true
		}
	}
}

func (s *DPLLSolver) VarValue(v int32) bool {
	if int(v) < len(s.model) {
		return s.model[v]
	}
	return false
}

// SolveWithAssumptions runs DPLL search seeded by the assumption
// literals, bounded by conflictLimit (0 = unbounded) conflicts and
// timeLimit (0 = unbounded) wall-clock.
func (s *DPLLSolver) SolveWithAssumptions(ctx context.Context, assumptions []Lit, conflictLimit int, timeLimit time.Duration) SolveResult {
	assign := make([]int8, len(s.fixed))
	copy(assign, s.fixed)

	deadline := time.Time{}
	if timeLimit > 0 {
		deadline = time.Now().Add(timeLimit)
	}
	conflicts := 0

	for _, a := range assumptions {
		want := int8(1)
		if a.Negated() {
			want = 0
		}
		if cur := assign[a.Var()]; cur != -1 && cur != want {
			return SolveResult{Outcome: Unsat}
		}
		assign[a.Var()] = want
	}

	result, ok := s.search(ctx, assign, &conflicts, conflictLimit, deadline)
	if !ok {
		return SolveResult{Outcome: Unknown}
	}
	if result == nil {
		return SolveResult{Outcome: Unsat}
	}
	s.model = make([]bool, len(result))
	for v, val := range result {
		s.model[v] = val == 1
	}
	model := make([]bool, len(result))
	copy(model, s.model)
	return SolveResult{Outcome: Sat, Model: model}
}

// search returns (assignment, true) on a definite answer — assignment
// nil means UNSAT, non-nil means SAT — or (nil, false) once the
// conflict budget or deadline is exhausted (UNKNOWN).
func (s *DPLLSolver) search(ctx context.Context, assign []int8, conflicts *int, conflictLimit int, deadline time.Time) ([]int8, bool) {
	select {
	case <-ctx.Done():
		return nil, false
	default:
	}
	if !deadline.IsZero() && time.Now().After(deadline) {
		return nil, false
	}

	clauseState, unitLit, conflict := s.evalClauses(assign)
	if conflict {
		*conflicts++
		if conflictLimit > 0 && *conflicts >= conflictLimit {
			return nil, false
		}
		return nil, true
	}
	if clauseState {
		return assign, true
	}
	if unitLit != 0 {
		next := append([]int8(nil), assign...)
		want := int8(1)
		if unitLit.Negated() {
			want = 0
		}
		next[unitLit.Var()] = want
		return s.search(ctx, next, conflicts, conflictLimit, deadline)
	}

	branchVar := int32(-1)
	for v := int32(1); v <= s.nVars; v++ {
		if assign[v] == -1 {
			branchVar = v
			break
		}
	}
	if branchVar == -1 {
		return assign, true
	}

	for _, want := range [2]int8{1, 0} {
		next := append([]int8(nil), assign...)
		next[branchVar] = want
		if res, ok := s.search(ctx, next, conflicts, conflictLimit, deadline); !ok {
			return nil, false
		} else if res != nil {
			return res, true
		}
	}
	return nil, true
}

// evalClauses reports (allSatisfied, forcedUnit, conflict). At most
// one of forcedUnit/conflict is meaningful per call: conflict takes
// priority, then a single forced unit literal to propagate next.
func (s *DPLLSolver) evalClauses(assign []int8) (allSat bool, unit Lit, conflict bool) {
	allSat = true
	for _, c := range s.all {
		sat := false
		nUnassigned := 0
		var lastUnassigned Lit
		for _, l := range c {
			v := assign[l.Var()]
			if v == -1 {
				nUnassigned++
				lastUnassigned = l
				continue
			}
			lv := v == 1
			if l.Negated() {
				lv = !lv
			}
			if lv {
				sat = true
				break
			}
		}
		if sat {
			continue
		}
		allSat = false
		if nUnassigned == 0 {
			return false, 0, true
		}
		if nUnassigned == 1 && unit == 0 {
			unit = lastUnassigned
		}
	}
	if allSat {
		return true, 0, false
	}
	return false, unit, false
}
