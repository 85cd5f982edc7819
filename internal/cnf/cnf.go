// Package cnf implements the CNF/Solver adapter (C3): incrementally
// converts an AIG cone into clauses, maintains the node-to-SAT-variable
// map, and exposes the equivalence/constraint queries the sweeper and
// refinement controller drive.
package cnf

import (
	"context"

	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/sat"
	"github.com/ssw-eda/ssw/internal/sswerr"
)

// Outcome is the three-way result of an equivalence query.
type Outcome int

const (
	Equal Outcome = iota
	NotEqual
	Timeout
)

// Adapter owns one solver instance plus the node→var map for the AIG
// currently loaded into it.
type Adapter struct {
	g         *aig.AIG
	solver    sat.Solver
	satVar    []int32 // NodeId -> solver var, 0 = unassigned
	usedPis   map[int32]bool
	polarFlip bool

	nCalls int
	nVars  int
}

// NewAdapter wires a fresh adapter over g; call SolverStart before
// loading any cone.
func NewAdapter(g *aig.AIG) *Adapter {
	return &Adapter{g: g, satVar: make([]int32, len(g.Nodes)), usedPis: make(map[int32]bool)}
}

// SolverStart creates the solver, allocating a fresh variable for
// constant-1 and asserting it with a unit clause (the DPLL backend
// fixes its own var 1 true at creation, so this is var 2). If polarFlip is set, every clause loaded afterward
// has literal signs flipped on the side where the source node's phase
// is 1, biasing search toward the typical simulation polarity.
func (a *Adapter) SolverStart(polarFlip bool) error {
	a.solver = sat.NewDPLLSolver()
	a.satVar = make([]int32, len(a.g.Nodes))
	a.usedPis = make(map[int32]bool)
	a.polarFlip = polarFlip
	a.nCalls = 0
	a.nVars = 0

	v := a.solver.NewVar() // the adapter's constant-1 variable
	a.nVars++
	a.satVar[aig.ConstID] = v
	if !a.solver.AddClause(sat.MakeLit(v, false)) {
		return sswerr.New(sswerr.KindSolverContradiction, "unit clause for constant-1 rejected at solver start")
	}
	return nil
}

// varFor returns id's solver variable, allocating one lazily on first
// reference (DFS order, as cnf_load visits it).
func (a *Adapter) varFor(id int32) int32 {
	if v := a.satVar[id]; v != 0 {
		return v
	}
	v := a.solver.NewVar()
	a.nVars++
	a.satVar[id] = v
	n := a.g.Node(id)
	if n.Kind == aig.KindPI || n.Kind == aig.KindLO {
		a.usedPis[id] = true
	}
	return v
}

// solverLit converts an AIG literal to a solver literal for the
// already-loaded node addressed by l, applying the polarity bias when
// SolverStart enabled it.
func (a *Adapter) solverLit(l aig.Lit) sat.Lit {
	v := a.varFor(l.ID())
	neg := l.IsComp()
	if a.polarFlip && a.g.Node(l.ID()).Phase {
		neg = !neg
	}
	return sat.MakeLit(v, neg)
}

// isMuxPattern reports whether n is two ANDs with complemented fanins
// sharing one input — the canonical MUX shape CNF loading special-cases
// into the compact 6-clause encoding (spec.md §4.3). n is built as
// ¬(AND(sel,t) ∨ AND(¬sel,e)) = ¬MUX(sel,t,e) = MUX(sel,¬t,¬e), so the
// literals returned already carry the negation that makes raw(n)
// equal sel ? t : e.
func isMuxPattern(g *aig.AIG, n *aig.Node) (sel, t, e aig.Lit, ok bool) {
	if !n.Fanin0.IsComp() || !n.Fanin1.IsComp() {
		return 0, 0, 0, false
	}
	f0, f1 := g.Node(n.Fanin0.ID()), g.Node(n.Fanin1.ID())
	if f0.Kind != aig.KindAnd || f1.Kind != aig.KindAnd {
		return 0, 0, 0, false
	}
	p := [2]aig.Lit{f0.Fanin0, f0.Fanin1}
	q := [2]aig.Lit{f1.Fanin0, f1.Fanin1}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if p[i].ID() == q[j].ID() && p[i].IsComp() != q[j].IsComp() {
				tOther, eOther := p[1-i], q[1-j]
				return p[i], tOther.Not(), eOther.Not(), true
			}
		}
	}
	return 0, 0, 0, false
}

// CnfLoad performs a depth-first traversal from node, stopping at
// nodes that already have a SAT variable, emitting Tseitin clauses for
// plain AND gates and the 6-clause MUX encoding for recognized MUX
// shapes. Every CI visited is recorded in usedPis.
func (a *Adapter) CnfLoad(node int32) error {
	if a.satVar[node] != 0 {
		return nil
	}
	n := a.g.Node(node)
	switch n.Kind {
	case aig.KindConst, aig.KindPI, aig.KindLO:
		a.varFor(node)
		return nil
	case aig.KindPO, aig.KindLI:
		if err := a.CnfLoad(n.Fanin0.ID()); err != nil {
			return err
		}
		a.satVar[node] = a.varFor(n.Fanin0.ID())
		return nil
	case aig.KindAnd:
		// fallthrough below
	}

	if err := a.CnfLoad(n.Fanin0.ID()); err != nil {
		return err
	}
	if err := a.CnfLoad(n.Fanin1.ID()); err != nil {
		return err
	}

	if sel, t, e, ok := isMuxPattern(a.g, n); ok {
		return a.loadMux(node, sel, t, e)
	}
	return a.loadAnd(node, n.Fanin0, n.Fanin1)
}

// loadAnd emits the standard three-clause Tseitin encoding for
// out = a ∧ b.
func (a *Adapter) loadAnd(node int32, f0, f1 aig.Lit) error {
	out := sat.MakeLit(a.varFor(node), false)
	la, lb := a.solverLit(f0), a.solverLit(f1)
	ok := a.solver.AddClause(out.Not(), la) &&
		a.solver.AddClause(out.Not(), lb) &&
		a.solver.AddClause(out, la.Not(), lb.Not())
	if !ok {
		return sswerr.New(sswerr.KindSolverContradiction, "AND clause set inconsistent")
	}
	return nil
}

// loadMux emits the 6-clause encoding for out = sel ? t : e.
func (a *Adapter) loadMux(node int32, sel, t, e aig.Lit) error {
	out := sat.MakeLit(a.varFor(node), false)
	ls, lt, le := a.solverLit(sel), a.solverLit(t), a.solverLit(e)
	ok := a.solver.AddClause(out.Not(), ls.Not(), lt) &&
		a.solver.AddClause(out, ls.Not(), lt.Not()) &&
		a.solver.AddClause(out.Not(), ls, le) &&
		a.solver.AddClause(out, ls, le.Not()) &&
		a.solver.AddClause(out.Not(), lt, le) &&
		a.solver.AddClause(out, lt.Not(), le.Not())
	if !ok {
		return sswerr.New(sswerr.KindSolverContradiction, "MUX clause set inconsistent")
	}
	return nil
}

// CexPattern holds the PI assignment extracted from a SAT model.
type CexPattern struct {
	PIValues map[int32]bool
}

// NodesEquiv tests a ≡ b by asserting "a ∧ ¬b" is UNSAT, then
// symmetrically "¬a ∧ b" unless a is the constant-1 literal. On UNSAT the
// learned equivalence clauses are added. On SAT, the PI assignment is
// returned for the caller to resimulate. On a conflict-budget overrun,
// Timeout is reported without touching the class relation.
func (a *Adapter) NodesEquiv(ctx context.Context, x, y aig.Lit, btLimit int) (Outcome, *CexPattern, error) {
	a.nCalls++
	if err := a.CnfLoad(x.ID()); err != nil {
		return Equal, nil, err
	}
	if err := a.CnfLoad(y.ID()); err != nil {
		return Equal, nil, err
	}

	res, pat, err := a.trySat(ctx, x, y.Not(), btLimit)
	if err != nil || res != Equal {
		return res, pat, err
	}

	if x != aig.True {
		res, pat, err = a.trySat(ctx, x.Not(), y, btLimit)
		if err != nil || res != Equal {
			return res, pat, err
		}
	}

	if !a.solver.AddClause(a.solverLit(x).Not(), a.solverLit(y)) ||
		!a.solver.AddClause(a.solverLit(x), a.solverLit(y).Not()) {
		return Equal, nil, sswerr.New(sswerr.KindSolverContradiction, "learned equivalence clause inconsistent")
	}
	return Equal, nil, nil
}

// trySat solves "p ∧ q" once and classifies the result as Equal (the
// conjunction is UNSAT, consistent with equivalence), NotEqual (SAT,
// with the pattern extracted), or Timeout.
func (a *Adapter) trySat(ctx context.Context, p, q aig.Lit, btLimit int) (Outcome, *CexPattern, error) {
	assumptions := []sat.Lit{a.solverLit(p), a.solverLit(q)}
	res := a.solver.SolveWithAssumptions(ctx, assumptions, btLimit, 0)
	switch res.Outcome {
	case sat.Unsat:
		return Equal, nil, nil
	case sat.Sat:
		pat := &CexPattern{PIValues: make(map[int32]bool, len(a.usedPis))}
		for id := range a.usedPis {
			pat.PIValues[id] = a.solver.VarValue(a.satVar[id])
		}
		return NotEqual, pat, nil
	default:
		return Timeout, nil, nil
	}
}

// NodesConstrain adds the biconditional clause pair asserting a = b.
func (a *Adapter) NodesConstrain(x, y aig.Lit) error {
	if err := a.CnfLoad(x.ID()); err != nil {
		return err
	}
	if err := a.CnfLoad(y.ID()); err != nil {
		return err
	}
	if !a.solver.AddClause(a.solverLit(x).Not(), a.solverLit(y)) ||
		!a.solver.AddClause(a.solverLit(x), a.solverLit(y).Not()) {
		return sswerr.New(sswerr.KindSolverContradiction, "constrain(a,b) clause set inconsistent")
	}
	return nil
}

// NodeConstrain1 adds a unit clause asserting a = 1.
func (a *Adapter) NodeConstrain1(x aig.Lit) error {
	if err := a.CnfLoad(x.ID()); err != nil {
		return err
	}
	if !a.solver.AddClause(a.solverLit(x)) {
		return sswerr.New(sswerr.KindSolverContradiction, "constrain1(a) clause set inconsistent")
	}
	return nil
}

// Solve checks satisfiability of whatever clauses/constraints have
// been loaded so far, with no extra assumptions — used by the
// constraint handler's initial-phase finder, which only needs "does
// any assignment satisfy every constrain1 call issued" rather than a
// node-equivalence query.
func (a *Adapter) Solve(ctx context.Context, btLimit int) (sat.Outcome, *CexPattern, error) {
	a.nCalls++
	res := a.solver.SolveWithAssumptions(ctx, nil, btLimit, 0)
	if res.Outcome != sat.Sat {
		return res.Outcome, nil, nil
	}
	pat := &CexPattern{PIValues: make(map[int32]bool, len(a.usedPis))}
	for id := range a.usedPis {
		pat.PIValues[id] = a.solver.VarValue(a.satVar[id])
	}
	return sat.Sat, pat, nil
}

// SolverRecycle destroys and rebuilds the solver while preserving the
// caller's equivalence relation — the relation lives in the class
// store, not here, so recycling is simply a fresh SolverStart.
func (a *Adapter) SolverRecycle() error {
	return a.SolverStart(a.polarFlip)
}

// CallCount is the number of NodesEquiv calls issued since the last
// SolverStart/SolverRecycle, used by the controller to decide when a
// call-count threshold demands recycling.
func (a *Adapter) CallCount() int { return a.nCalls }

// VarCount is the number of solver variables allocated since the last
// SolverStart/SolverRecycle, used by the controller to decide when a
// variable-count threshold (nSatVarMax) demands recycling.
func (a *Adapter) VarCount() int { return a.nVars }

// UsedPIs returns the CI node ids that have acquired a SAT variable
// since the last SolverStart/SolverRecycle.
func (a *Adapter) UsedPIs() []int32 {
	out := make([]int32, 0, len(a.usedPis))
	for id := range a.usedPis {
		out = append(out, id)
	}
	return out
}
