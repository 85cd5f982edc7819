package refine

import (
	"context"

	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/classes"
	"github.com/ssw-eda/ssw/internal/cnf"
	"github.com/ssw-eda/ssw/internal/config"
	"github.com/ssw-eda/ssw/internal/frames"
	"github.com/ssw-eda/ssw/internal/sim"
	"github.com/ssw-eda/ssw/internal/sweep"
)

// defaultSweepOnce drives sweep.Sweep across every frame the frame map
// built, recycling the solver when the configured call or variable-count
// threshold is exceeded, and reports whether any frame's pass refined
// the relation.
//
// Under fDynamic, the backtrack limit fed to each frame's sweep adapts
// to the previous frame's outcome: a timeout halves it (the frame was
// too expensive to chase further at this budget), and a clean pass
// grows it back modestly, both clamped to keep it within a sane band
// around the configured nBTLimit.
func defaultSweepOnce(ctx context.Context, fm *frames.FrameMap, st *classes.Store, g *aig.AIG, adapter *cnf.Adapter, s *sim.Sim, rng *sim.Rng, k int, pars *config.Pars, diag *sweep.Diagnostics) (bool, error) {
	anyRefined := false
	bt := pars.NBTLimit
	for f := 0; f <= k; f++ {
		if pars.NRecycleCalls > 0 && adapter.CallCount() >= pars.NRecycleCalls {
			if err := adapter.SolverRecycle(); err != nil {
				return anyRefined, err
			}
		}
		if pars.NSatVarMax > 0 && adapter.VarCount() >= pars.NSatVarMax {
			if err := adapter.SolverRecycle(); err != nil {
				return anyRefined, err
			}
		}
		result, err := sweep.Sweep(ctx, fm, st, g, adapter, s, rng, f, bt, pars.FLocalSim, diag)
		if err != nil {
			return anyRefined, err
		}
		if result.Refined {
			anyRefined = true
		}
		if pars.FDynamic {
			bt = adjustBTLimit(bt, pars.NBTLimit, result.TimedOut)
		}
	}
	return anyRefined, nil
}

// adjustBTLimit implements fDynamic's backtrack-limit adaptation: halve
// on a timeout (floored at 1 so the next frame still gets a chance to
// run), grow by half again on a clean pass (capped at 4x the configured
// nBTLimit so an easy streak doesn't let a later hard frame run
// unbounded).
func adjustBTLimit(cur, base int, timedOut bool) int {
	if timedOut {
		next := cur / 2
		if next < 1 {
			next = 1
		}
		return next
	}
	ceiling := base * 4
	next := cur + cur/2
	if next > ceiling {
		next = ceiling
	}
	return next
}
