// Package sweep implements the induction/BMC sweeper (C5): drives
// per-node equivalence queries through the CNF adapter and folds the
// results back into the equivalence-class store (spec.md §4.5).
package sweep

import (
	"context"

	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/classes"
	"github.com/ssw-eda/ssw/internal/cnf"
	"github.com/ssw-eda/ssw/internal/frames"
	"github.com/ssw-eda/ssw/internal/sim"
)

// orderedCandidates returns every node id eligible for sweeping, LOs
// first and then AND nodes in ascending id, matching the topological
// order spec.md §4.5 step 1 requires.
func orderedCandidates(g *aig.AIG) []int32 {
	ids := make([]int32, 0, len(g.LOs)+len(g.Nodes))
	ids = append(ids, g.LOs...)
	for i := range g.Nodes {
		if g.Nodes[i].Kind == aig.KindAnd {
			ids = append(ids, g.Nodes[i].ID)
		}
	}
	return ids
}

// Result summarizes one sweep pass.
type Result struct {
	Refined  bool
	SatCalls int
	// TimedOut reports whether any candidate in this pass hit the
	// solver's backtrack budget, for fDynamic's backtrack-limit
	// adaptation (spec.md §4.6).
	TimedOut bool
}

// StrangerEvent records one node/representative pair whose phase-
// flipped comparison turned out wrong: the store assumed node and
// repr agreed after correcting for their structural Phase fields, and
// the solver disproved it (spec.md §9).
type StrangerEvent struct {
	NodeID int32
	ReprID int32
	Frame  int
}

// Diagnostics accumulates the induction sweeper's "stranger" counter:
// the source treats a wrong phase assumption as a bug signal but keeps
// going rather than halting, so we surface every occurrence instead of
// silently absorbing it into an ordinary refinement.
type Diagnostics struct {
	Strangers      int
	StrangerEvents []StrangerEvent
}

func (d *Diagnostics) record(nodeID, reprID int32, frame int) {
	if d == nil {
		return
	}
	d.Strangers++
	d.StrangerEvents = append(d.StrangerEvents, StrangerEvent{NodeID: nodeID, ReprID: reprID, Frame: frame})
}

// Sweep runs one pass over every candidate at frame f, querying the
// adapter for each pair ⟨repr(n), n⟩ still distinct in the frames AIG.
// s and rng back the resimulation step triggered by a SAT outcome; s
// must already be allocated with at least f+1 frames over orig. diag
// may be nil when the caller doesn't care about the stranger count.
// localSim narrows the refinement that follows each resimulation to
// just the disproven candidate's own class (fLocalSim) instead of the
// whole partition; the resimulation itself always covers the whole AIG.
//
// The source batches resimulation every 32nd SAT call; at this
// solver's scale a full resim per SAT call is cheap enough that the
// batching is not worth the extra bookkeeping, so SatCalls is reported
// for callers that want to reproduce the batching cadence themselves.
func Sweep(ctx context.Context, fm *frames.FrameMap, st *classes.Store, orig *aig.AIG, adapter *cnf.Adapter, s *sim.Sim, rng *sim.Rng, f, btLimit int, localSim bool, diag *Diagnostics) (Result, error) {
	var res Result
	for _, id := range orderedCandidates(orig) {
		r := st.Repr(id)
		if r == id {
			continue
		}

		nNode, rNode := orig.Node(id), orig.Node(r)
		flipped := nNode.Phase != rNode.Phase
		rf := fm.NodeFrame(r, f)
		if flipped {
			rf = rf.Not()
		}
		nf := fm.NodeFrame(id, f)
		if rf == nf {
			continue // SAME-FRAME-NODE: already confirmed by construction
		}

		outcome, pat, err := adapter.NodesEquiv(ctx, rf, nf, btLimit)
		if err != nil {
			return res, err
		}
		switch outcome {
		case cnf.Equal:
			// CONFIRMED: the class relation already encodes this; no
			// further mutation needed here.
		case cnf.NotEqual:
			if flipped {
				diag.record(id, r, f)
			}
			res.SatCalls++
			resimulate(fm, s, rng, pat)
			if localSim {
				st.RefineOne(s, r, true)
			} else {
				st.RefineConst1(s, true)
				st.RefineAll(s, true)
			}
			res.Refined = true
		case cnf.Timeout:
			st.RemoveNode(id)
			res.Refined = true
			res.TimedOut = true
		}
	}
	return res, nil
}

// resimulate grafts a SAT-extracted pattern onto a freshly reseeded
// window of the original AIG's simulator and runs it, so classes.Refine*
// can split on real data (spec.md §4.5 step 5).
func resimulate(fm *frames.FrameMap, s *sim.Sim, rng *sim.Rng, pat *cnf.CexPattern) {
	s.SeedRandom(rng, false)
	for ciID, v := range pat.PIValues {
		origin, ok := fm.CIOrigin[ciID]
		if !ok {
			continue
		}
		word := uint64(0)
		if v {
			word = ^uint64(0)
		}
		for w := 0; w < s.WordsPerFrame(); w++ {
			s.Poke(origin.OrigID, origin.Frame, w, word)
		}
	}
	s.Run()
}
