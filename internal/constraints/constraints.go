// Package constraints implements the constraint handler (C7): it
// treats designated trailing POs as invariants, finding a legal
// initial state under them and biasing simulation and the CNF adapter
// to respect them throughout a run (spec.md §4.7).
package constraints

import (
	"context"

	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/classes"
	"github.com/ssw-eda/ssw/internal/cnf"
	"github.com/ssw-eda/ssw/internal/frames"
	"github.com/ssw-eda/ssw/internal/sat"
	"github.com/ssw-eda/ssw/internal/sim"
	"github.com/ssw-eda/ssw/internal/sswerr"
)

// InitialPhase is a legal (constraint-satisfying) CI assignment across
// frames 0..k, keyed by the frames-AIG origin metadata so it can be
// replayed onto a simulator over the original AIG.
type InitialPhase struct {
	// Frame0LO holds the frame-0 value chosen for each register (index
	// matches g.LOs), since frame 0's LOs are free CIs in the unrolling.
	Frame0LO []bool
	// PI holds, for every frame 0..k, the chosen value for each PI
	// (index matches g.PIs).
	PI [][]bool
}

// FindInitialPhase builds k+1 constraint-only frames and searches for
// an assignment under which every constraint PO is 0 in every frame.
// An UNSAT result means the constraint set is self-contradictory and
// the run cannot proceed (spec.md §4.7, scenario S4).
func FindInitialPhase(ctx context.Context, g *aig.AIG, k, btLimit int) (*InitialPhase, error) {
	if g.NumConstrs == 0 {
		return &InitialPhase{Frame0LO: make([]bool, len(g.LOs)), PI: make([][]bool, k+1)}, nil
	}

	fm := frames.UnrollConstraintsOnly(g, k)
	frameAig := fm.Build()
	adapter := cnf.NewAdapter(frameAig)
	if err := adapter.SolverStart(false); err != nil {
		return nil, err
	}

	nOrdinary := len(g.POs) - g.NumConstrs
	for f := 0; f <= k; f++ {
		for i := nOrdinary; i < len(g.POs); i++ {
			lit := fm.POFrame(i, f)
			if err := adapter.NodeConstrain1(lit.Not()); err != nil {
				if sswerr.As(err, sswerr.KindSolverContradiction) {
					return nil, sswerr.New(sswerr.KindConstraintsUnsat, "constraint POs cannot all be 0: unit propagation contradiction")
				}
				return nil, err
			}
		}
	}

	outcome, pat, err := adapter.Solve(ctx, btLimit)
	if err != nil {
		return nil, err
	}
	if outcome != sat.Sat {
		return nil, sswerr.New(sswerr.KindConstraintsUnsat, "no input assignment satisfies every constraint PO across all frames")
	}

	phase := &InitialPhase{
		Frame0LO: make([]bool, len(g.LOs)),
		PI:       make([][]bool, k+1),
	}
	for i := range phase.PI {
		phase.PI[i] = make([]bool, len(g.PIs))
	}
	for ciID, origin := range fm.CIOrigin {
		v := pat.PIValues[ciID]
		n := g.Node(origin.OrigID)
		switch n.Kind {
		case aig.KindLO:
			for i, loID := range g.LOs {
				if loID == origin.OrigID {
					phase.Frame0LO[i] = v
				}
			}
		case aig.KindPI:
			for i, piID := range g.PIs {
				if piID == origin.OrigID {
					phase.PI[origin.Frame][i] = v
				}
			}
		}
	}
	return phase, nil
}

// Apply replays phase onto s (which must be allocated with at least
// len(phase.PI) frames over the same AIG), runs the simulation, and
// then copies the resulting per-node bit into that node's Phase field
// (spec.md §4.7 "simulation refinement under constraints") so every
// later phase-adjustment in the class store and frame builder treats
// this legal state, not the all-zero state, as canonical.
func Apply(g *aig.AIG, s *sim.Sim, phase *InitialPhase) {
	vInit := make([]bool, len(g.LOs))
	copy(vInit, phase.Frame0LO)
	s.SeedVec(vInit)
	for f, row := range phase.PI {
		for i, piID := range g.PIs {
			v := uint64(0)
			if row[i] {
				v = ^uint64(0)
			}
			s.Poke(piID, f, 0, v)
		}
	}
	s.Run()

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Kind == aig.KindPI || n.Kind == aig.KindLO || n.Kind == aig.KindConst {
			continue
		}
		frame := len(phase.PI) - 1
		n.Phase = s.Raw(n.ID, frame, 0)&1 != 0
	}
}

// DropConeEquivalences detaches every node in the structural fanin
// cone of a constraint output — following register boundaries back
// through their driving LI, since a constraint is itself a sequential
// property — from its equivalence class (spec.md §4.6 step 4). Nodes
// this run only merged under constraint-biased simulation have no
// standing once those constraints are set aside at materialization
// time.
func DropConeEquivalences(g *aig.AIG, st *classes.Store) {
	nOrdinary := len(g.POs) - g.NumConstrs
	if nOrdinary == len(g.POs) {
		return
	}

	seen := make(map[int32]bool)
	var walk func(id int32)
	walk = func(id int32) {
		if seen[id] {
			return
		}
		seen[id] = true
		n := g.Node(id)
		switch n.Kind {
		case aig.KindAnd:
			walk(n.Fanin0.ID())
			walk(n.Fanin1.ID())
		case aig.KindLO:
			walk(g.LIs[n.RegIndex])
		case aig.KindLI:
			walk(n.Fanin0.ID())
		}
	}
	for i := nOrdinary; i < len(g.POs); i++ {
		walk(g.POs[i].ID())
	}

	for id := range seen {
		st.RemoveNode(id)
	}
}

// ConstrainSweepFrames asserts every constraint PO is 0 in every frame
// 0..k of the already-loaded adapter/frame-map pair, the "sweep with
// constraints" variant of the frame builder and sweeper (spec.md §4.7):
// every constraint-PO fanin must be unit-clause-forced to false before
// any equivalence query runs against that frame range.
func ConstrainSweepFrames(adapter *cnf.Adapter, fm *frames.FrameMap, orig *aig.AIG, k int) error {
	nOrdinary := len(orig.POs) - orig.NumConstrs
	for f := 0; f <= k; f++ {
		for i := nOrdinary; i < len(orig.POs); i++ {
			lit := fm.POFrame(i, f)
			if err := adapter.NodeConstrain1(lit.Not()); err != nil {
				return err
			}
		}
	}
	return nil
}
