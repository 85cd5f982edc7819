// Package refine implements the refinement controller (C6): it
// orchestrates the seed → BMC sweep → induction-sweep loop described in
// spec.md §4.6, applying the stop rules and producing the final
// representative map.
package refine

import (
	"context"
	"log/slog"

	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/classes"
	"github.com/ssw-eda/ssw/internal/cnf"
	"github.com/ssw-eda/ssw/internal/config"
	"github.com/ssw-eda/ssw/internal/constraints"
	"github.com/ssw-eda/ssw/internal/frames"
	"github.com/ssw-eda/ssw/internal/sim"
	"github.com/ssw-eda/ssw/internal/sweep"
)

// Result is the outcome of a correspondence run: the final partition
// plus enough bookkeeping to explain how far the run got.
type Result struct {
	Store      *classes.Store
	Iterations int
	StoppedWhy string
	Diag       sweep.Diagnostics
}

// Run executes the seed/sweep loop over g according to pars, returning
// the final equivalence partition.
func Run(ctx context.Context, g *aig.AIG, pars *config.Pars, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(g.Nodes) <= 1 {
		return &Result{Store: classes.New(g), StoppedWhy: "empty_aig"}, nil
	}

	k := pars.NFramesK
	if k < 1 {
		k = 1
	}

	st := classes.New(g)
	seedFrames := pars.NFramesAddSim + k
	if seedFrames < 4 {
		seedFrames = 4
	}
	rng := sim.NewRng(1)
	s := sim.Alloc(g, 0, seedFrames, 2)

	// Step 0: under fConstrs, find a legal initial state before seeding
	// anything, failing fast on an inconsistent constraint set (the S4
	// scenario) rather than discovering it deep inside a sweep.
	if pars.FConstrs && g.NumConstrs > 0 {
		phase, err := constraints.FindInitialPhase(ctx, g, k, pars.NBTLimit)
		if err != nil {
			return nil, err
		}
		constraints.Apply(g, s, phase)
	}

	// Step 1: seed candidates, rehashing up to 16 times to stabilize
	// the coarse partition before any solver call.
	st.PrepareSimple(pars.FLatchCorr, pars.FOutputCorr, 0)
	for i := 0; i < 16; i++ {
		s.SeedRandom(rng, true)
		s.Run()
		cands := candidateSet(st, g)
		st.PrepareHash(s, cands, pars.FConstCorr)
		if len(cands) == 0 {
			break
		}
	}
	logger.Debug("seed complete", slog.Int("classes", st.ClassCount()), slog.Int("cand1", st.Cand1Count()))

	res := &Result{Store: st}

	// Step 2: sweep_bmc once, unless latch-correspondence with k==1.
	if !(pars.FLatchCorr && k == 1) {
		refined, err := bmcSweep(ctx, g, st, s, rng, pars, &res.Diag)
		if err != nil {
			return nil, err
		}
		_ = refined
	}

	// Step 3: induction loop. Under fSemiFormal, a cheap random
	// resimulation round runs ahead of each SAT-based sweep, so any
	// split simulation alone can already find doesn't cost a solver
	// call (spec.md §4.6 step 3, "semiformal filtering").
	for iter := 0; pars.NItersStop < 0 || iter < pars.NItersStop; iter++ {
		if pars.NStepsMax > 0 && iter >= pars.NStepsMax {
			res.StoppedWhy = "n_steps_max"
			break
		}
		if pars.FSemiFormal {
			s.SeedRandom(rng, false)
			s.Run()
			st.RefineConst1(s, true)
			st.RefineAll(s, true)
		}
		refined, err := indSweep(ctx, g, st, s, rng, pars, k, &res.Diag)
		if err != nil {
			return nil, err
		}
		res.Iterations++
		if !refined {
			res.StoppedWhy = "sweep_stable"
			break
		}
	}

	// Step 4: constraint-cone walk. A merge justified only because
	// simulation was biased toward a constraint-legal state (§4.7)
	// must not survive into the materialized design unless fMergeFull
	// explicitly opts into trusting it anyway.
	if pars.FConstrs && !pars.FMergeFull && g.NumConstrs > 0 {
		constraints.DropConeEquivalences(g, st)
	}

	return res, nil
}

func candidateSet(st *classes.Store, g *aig.AIG) []int32 {
	out := make([]int32, 0, len(g.Nodes))
	for i := range g.Nodes {
		id := int32(i)
		if id == aig.ConstID {
			continue
		}
		if st.Repr(id) != id || st.ClassMembers(id) != nil {
			out = append(out, id)
		}
	}
	return out
}

func bmcSweep(ctx context.Context, g *aig.AIG, st *classes.Store, s *sim.Sim, rng *sim.Rng, pars *config.Pars, diag *sweep.Diagnostics) (bool, error) {
	fm := frames.UnrollBMC(g, 1)
	frameAig := fm.Build()
	adapter := cnf.NewAdapter(frameAig)
	if err := adapter.SolverStart(pars.FPolarFlip); err != nil {
		return false, err
	}
	if pars.FConstrs && g.NumConstrs > 0 {
		if err := constraints.ConstrainSweepFrames(adapter, fm, g, 0); err != nil {
			return false, err
		}
	}
	return sweepOnce(ctx, fm, st, g, adapter, s, rng, 0, pars, diag)
}

func indSweep(ctx context.Context, g *aig.AIG, st *classes.Store, s *sim.Sim, rng *sim.Rng, pars *config.Pars, k int, diag *sweep.Diagnostics) (bool, error) {
	fm := frames.UnrollInd(g, st, k)
	frameAig := fm.Build()
	adapter := cnf.NewAdapter(frameAig)
	if err := adapter.SolverStart(pars.FPolarFlip); err != nil {
		return false, err
	}
	if pars.FConstrs && g.NumConstrs > 0 {
		if err := constraints.ConstrainSweepFrames(adapter, fm, g, k); err != nil {
			return false, err
		}
	}
	return sweepOnce(ctx, fm, st, g, adapter, s, rng, k, pars, diag)
}

// sweepOnce is a small indirection point kept separate so tests (and a
// future dynamic-mode variant) can substitute the sweep call without
// duplicating the frame/solver setup above it.
var sweepOnce = defaultSweepOnce
