// Package frames implements the speculative-frame builder (C4): it
// unrolls K copies of an AIG's transition function into a fresh
// "frames AIG" and, in inductive mode, tracks which nodes currently
// carry a non-trivial candidate representative so the induction
// sweeper (C5) knows which ⟨repr, node⟩ pairs are still worth asking
// the solver about (spec.md §4.4).
package frames

import (
	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/classes"
)

// FrameMap owns the frames AIG under construction and the memo table
// mapping (original node id, frame) to a literal in that AIG.
type FrameMap struct {
	B    *aig.Builder
	orig *aig.AIG

	memo map[int64]aig.Lit

	// CIOrigin maps a frames-AIG CI node id back to the original node
	// and frame it stands for, so a SAT-extracted pattern (keyed by
	// frames-AIG node id) can be grafted onto a resimulation of the
	// original AIG.
	CIOrigin map[int32]CIOrigin

	// NConstrTotal counts candidate substitutions attempted;
	// NConstrReduced counts how many of those collapsed into an
	// identity (spec == raw already, so no new constraint CO was
	// needed) — spec.md §4.4's "actually used vs collapsed" counters.
	NConstrTotal   int
	NConstrReduced int
}

// CIOrigin identifies which original-AIG node and frame a frames-AIG
// CI variable was allocated for.
type CIOrigin struct {
	OrigID int32
	Frame  int
}

func newFrameMap(orig *aig.AIG) *FrameMap {
	return &FrameMap{B: aig.NewBuilder(), orig: orig, memo: make(map[int64]aig.Lit), CIOrigin: make(map[int32]CIOrigin)}
}

func key(id int32, f int) int64 { return int64(id)<<32 | int64(uint32(f)) }

func applyComp(l aig.Lit, comp bool) aig.Lit {
	if comp {
		return l.Not()
	}
	return l
}

// UnrollBMC builds frames 0..k-1 with LO[*] in frame 0 initialized as
// fresh CIs (the base-case unrolling); internal nodes map straight,
// with no candidate substitution.
func UnrollBMC(orig *aig.AIG, k int) *FrameMap {
	fm := newFrameMap(orig)
	for f := 0; f < k; f++ {
		for _, po := range orig.POs {
			fm.nodeFrame(nil, po.ID(), f, false)
		}
	}
	return fm
}

// UnrollInd builds frames 0..k over the raw (unsubstituted) transition
// function, same as UnrollBMC, but in inductive mode so every AND node
// also tallies whether it currently has a non-trivial candidate
// representative (fm.NConstrTotal/NConstrReduced). The frame-node
// substitution spec.md §4.4 describes is not baked in here — it is
// sweep.Sweep's job to query the solver over the genuine ⟨repr, node⟩
// pair and only then treat the candidate as confirmed.
func UnrollInd(orig *aig.AIG, st *classes.Store, k int) *FrameMap {
	fm := newFrameMap(orig)
	for f := 0; f <= k; f++ {
		for _, po := range orig.POs {
			fm.nodeFrame(st, po.ID(), f, true)
		}
	}
	return fm
}

// UnrollConstraintsOnly builds frames 0..k over orig's constraint POs
// alone (no substitution, no ordinary POs), the minimal unrolling the
// constraint handler's initial-phase finder needs (spec.md §4.7).
func UnrollConstraintsOnly(orig *aig.AIG, k int) *FrameMap {
	fm := newFrameMap(orig)
	nOrdinary := len(orig.POs) - orig.NumConstrs
	for f := 0; f <= k; f++ {
		for i := nOrdinary; i < len(orig.POs); i++ {
			fm.nodeFrame(nil, orig.POs[i].ID(), f, false)
		}
	}
	return fm
}

// NodeFrame returns the frames-AIG literal standing in for id in
// frame f (building it on demand if this is the first reference).
func (fm *FrameMap) NodeFrame(id int32, f int) aig.Lit {
	l, ok := fm.memo[key(id, f)]
	if !ok {
		return fm.nodeFrame(nil, id, f, false)
	}
	return l
}

// Build finalizes the frames AIG. Call once, after the unroll that
// produced fm has added every node and constraint it needs.
func (fm *FrameMap) Build() *aig.AIG { return fm.B.Build() }

// POFrame returns the frames-AIG literal for original PO index i in
// frame f, applying that PO's own complement bit.
func (fm *FrameMap) POFrame(i, f int) aig.Lit {
	po := fm.orig.POs[i]
	return applyComp(fm.NodeFrame(po.ID(), f), po.IsComp())
}

// nodeFrame is the memoized recursive frame-node constructor. st is
// nil in BMC mode (no substitution is ever attempted).
func (fm *FrameMap) nodeFrame(st *classes.Store, id int32, f int, inductive bool) aig.Lit {
	k := key(id, f)
	if l, ok := fm.memo[k]; ok {
		return l
	}

	n := fm.orig.Node(id)
	var result aig.Lit
	switch n.Kind {
	case aig.KindConst:
		result = aig.True
	case aig.KindPI:
		result = fm.B.PI()
		fm.CIOrigin[result.ID()] = CIOrigin{OrigID: id, Frame: f}
	case aig.KindLO:
		if f == 0 {
			result = fm.B.PI() // frame-0 LOs are fresh CIs (contract: "unless constraints demand init")
			fm.CIOrigin[result.ID()] = CIOrigin{OrigID: id, Frame: f}
		} else {
			liID := fm.orig.LIs[n.RegIndex]
			result = fm.nodeFrame(st, liID, f-1, inductive) // LI[f-1] feeds LO[f]
		}
	case aig.KindLI:
		fanin := fm.nodeFrame(st, n.Fanin0.ID(), f, inductive)
		result = applyComp(fanin, n.Fanin0.IsComp())
	case aig.KindAnd:
		c0 := applyComp(fm.nodeFrame(st, n.Fanin0.ID(), f, inductive), n.Fanin0.IsComp())
		c1 := applyComp(fm.nodeFrame(st, n.Fanin1.ID(), f, inductive), n.Fanin1.IsComp())
		result = fm.B.And(c0, c1)
		if inductive {
			// Tally the attempted substitution for spec.md §4.4's
			// counters only. The frame node itself stays raw: folding a
			// candidate's value into its representative's here would
			// make every later ⟨repr, node⟩ comparison trivially equal
			// by construction, so the induction sweep would never
			// actually ask the solver anything. Substitution is
			// recorded only once sweep.Sweep gets a real UNSAT back.
			fm.speculate(st, n, id, f, inductive, result)
		}
	default:
		result = fm.B.PI() // KindPO never occurs as a standalone node; defensive fallback
	}

	fm.memo[k] = result
	return result
}

// speculate tallies whether n has a non-trivial candidate
// representative at this frame: NConstrTotal counts every node it is
// invoked for, NConstrReduced counts those whose phase-adjusted
// representative value already equals raw by construction (a
// structural-hash coincidence, not a proof). It does not itself
// establish any equivalence — nodeFrame's return value is always the
// raw, unsubstituted AND, and sweep.Sweep is the only place a
// substitution is confirmed, via a real SAT query over this genuinely
// distinct ⟨raw, spec⟩ pair.
func (fm *FrameMap) speculate(st *classes.Store, n *aig.Node, id int32, f int, inductive bool, raw aig.Lit) {
	repr := st.Repr(id)
	if repr == id {
		return
	}
	fm.NConstrTotal++

	reprNode := fm.orig.Node(repr)
	specBase := fm.nodeFrame(st, repr, f, inductive)
	spec := specBase
	if n.Phase != reprNode.Phase {
		spec = specBase.Not()
	}

	if spec == raw {
		fm.NConstrReduced++
	}
}
