package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gookit/gcli/v2"

	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/config"
	"github.com/ssw-eda/ssw/internal/fixture"
	"github.com/ssw-eda/ssw/internal/obs/paths"
	"github.com/ssw-eda/ssw/internal/obs/slogx"
	"github.com/ssw-eda/ssw/internal/partition"
	"github.com/ssw-eda/ssw/internal/rarity"
	"github.com/ssw-eda/ssw/internal/refine"
	"github.com/ssw-eda/ssw/internal/sim"
	"github.com/ssw-eda/ssw/internal/sswerr"
)

// runOpts holds the flags that don't belong to Pars/RarPars directly:
// which fixture to run, whether to partition it first, and the rarity
// engine's random seed.
var runOpts struct {
	literal    string
	partSize   int
	nProcs     int
	rarityOnly bool
	seed       int64
}

func newRunCommand() *gcli.Command {
	cfg := loadConfigOrDefaults()

	cmd := &gcli.Command{
		Name:   "run",
		UseFor: "Run the correspondence engine over a named fixture AIG",
		Examples: "{$binName} {$cmd} -aig-literal miter\n" +
			"  {$binName} {$cmd} -aig-literal latch-chain -part-size 2 -n-procs 2\n" +
			"  {$binName} {$cmd} -aig-literal unsat-constraint -f-constrs",
		Config: func(c *gcli.Command) {
			c.Flags.StrOpt(&runOpts.literal, "aig-literal", "a", "miter",
				"fixture to run: "+strings.Join(fixture.Names, ", "))
			c.Flags.IntOpt(&runOpts.partSize, "part-size", "", 0,
				"registers per partition window (0 disables partitioning)")
			c.Flags.IntOpt(&runOpts.nProcs, "n-procs", "", 1, "partition worker pool size")
			c.Flags.BoolOpt(&runOpts.rarityOnly, "rarity", "", false, "run the rarity engine instead of the sweep-based refiner")
			c.Flags.Int64Opt(&runOpts.seed, "seed", "", 1, "simulator RNG seed")

			bindPars(&c.Flags, &cfg.Pars)
			bindRarPars(&c.Flags, &cfg.Rarity)
		},
		Func: func(_ *gcli.Command, _ []string) error {
			return runEngine(cfg)
		},
	}
	return cmd
}

func loadConfigOrDefaults() *config.Config {
	cfg, err := config.LoadFromTomlFile(configPath())
	if err != nil {
		return config.NewDefaultConfig()
	}
	return cfg
}

func bindPars(fs *gcli.Flags, p *config.Pars) {
	fs.IntOpt(&p.NFramesK, "n-frames-k", "", p.NFramesK, "induction depth")
	fs.IntOpt(&p.NFramesAddSim, "n-frames-add-sim", "", p.NFramesAddSim, "extra simulation frames beyond k")
	fs.IntOpt(&p.NBTLimit, "n-bt-limit", "", p.NBTLimit, "per-call solver backtrack limit")
	fs.IntOpt(&p.NBTLimitGlobal, "n-bt-limit-global", "", p.NBTLimitGlobal, "run-wide solver backtrack limit (accepted; not read by the engine)")
	fs.IntOpt(&p.NMinDomSize, "n-min-dom-size", "", p.NMinDomSize, "minimum register count for a trailing partition window")
	fs.IntOpt(&p.NItersStop, "n-iters-stop", "", p.NItersStop, "induction iterations before stopping (-1 = unbounded)")
	fs.IntOpt(&p.NStepsMax, "n-steps-max", "", p.NStepsMax, "maximum induction steps")
	fs.IntOpt(&p.NSatVarMax, "n-sat-var-max", "", p.NSatVarMax, "solver variable cap before recycling")
	fs.IntOpt(&p.NRecycleCalls, "n-recycle-calls", "", p.NRecycleCalls, "solver calls before recycling")
	fs.IntOpt(&p.NResimDelta, "n-resim-delta", "", p.NResimDelta, "resimulation batch size (accepted; not read by the engine)")
	fs.BoolOpt(&p.FLatchCorr, "f-latch-corr", "", p.FLatchCorr, "run in latch-correspondence mode")
	fs.BoolOpt(&p.FLatchCorrOpt, "f-latch-corr-opt", "", p.FLatchCorrOpt, "skip the first BMC sweep under latch correspondence (accepted; not read by the engine)")
	fs.BoolOpt(&p.FConstCorr, "f-const-corr", "", p.FConstCorr, "restrict candidates to the constant-1 class")
	fs.BoolOpt(&p.FOutputCorr, "f-output-corr", "", p.FOutputCorr, "restrict candidates to primary outputs")
	fs.BoolOpt(&p.FDynamic, "f-dynamic", "", p.FDynamic, "adjust backtrack limits dynamically")
	fs.BoolOpt(&p.FPolarFlip, "f-polar-flip", "", p.FPolarFlip, "enable solver polarity flipping")
	fs.BoolOpt(&p.FSemiFormal, "f-semi-formal", "", p.FSemiFormal, "run an extra resimulation round ahead of each induction step")
	fs.BoolOpt(&p.FConstrs, "f-constrs", "", p.FConstrs, "honor the AIG's constraint outputs")
	fs.BoolOpt(&p.FLocalSim, "f-local-sim", "", p.FLocalSim, "refine only the disproven candidate's own class, not the whole partition")
	fs.BoolOpt(&p.FMergeFull, "f-merge-full", "", p.FMergeFull, "keep equivalences inside constraint cones instead of dropping them")
	fs.BoolOpt(&p.FStopWhenGone, "f-stop-when-gone", "", p.FStopWhenGone, "stop once every candidate class is resolved (accepted; not read by the engine)")
	fs.BoolOpt(&p.FVerbose, "f-verbose", "", p.FVerbose, "verbose controller logging (accepted; not read by the engine)")
}

func bindRarPars(fs *gcli.Flags, r *config.RarPars) {
	fs.IntOpt(&r.NFrames, "rar-n-frames", "", r.NFrames, "rarity engine frames per round")
	fs.IntOpt(&r.NWords, "rar-n-words", "", r.NWords, "rarity engine simulation words per round")
	fs.IntOpt(&r.NBinSize, "rar-n-bin-size", "", r.NBinSize, "rarity histogram bin width in bits")
	fs.IntOpt(&r.NRounds, "rar-n-rounds", "", r.NRounds, "rarity engine round budget (0 = unbounded)")
	fs.IntOpt(&r.NRestart, "rar-n-restart", "", r.NRestart, "rounds between forced restarts (0 = never)")
	fs.Int64Opt(&r.NRandSeed, "rar-n-rand-seed", "", r.NRandSeed, "rarity engine RNG seed override")
	fs.IntOpt(&r.TimeOut, "rar-time-out", "", r.TimeOut, "rarity engine time budget in seconds (accepted; not read by the engine)")
	fs.IntOpt(&r.TimeOutGap, "rar-time-out-gap", "", r.TimeOutGap, "seconds between time-budget checks (accepted; not read by the engine)")
	fs.BoolOpt(&r.FSolveAll, "rar-f-solve-all", "", r.FSolveAll, "keep searching after the first failure (accepted; not read by the engine)")
	fs.BoolOpt(&r.FDropSatOuts, "rar-f-drop-sat-outs", "", r.FDropSatOuts, "drop outputs once they've failed once (accepted; not read by the engine)")
	fs.BoolOpt(&r.FSetLastState, "rar-f-set-last-state", "", r.FSetLastState, "seed the next run from the last round's state (accepted; not read by the engine)")
}

func runEngine(cfg *config.Config) error {
	logger, err := setupLogger()
	if err != nil {
		return err
	}

	g := fixture.Build(runOpts.literal)
	if g == nil {
		return fmt.Errorf("run: unknown -aig-literal %q (want one of: %s)", runOpts.literal, strings.Join(fixture.Names, ", "))
	}

	ctx := context.Background()

	if runOpts.rarityOnly {
		return runRarity(ctx, g, &cfg.Rarity)
	}
	if runOpts.partSize > 0 {
		return runPartitioned(ctx, g, &cfg.Pars, logger)
	}
	return runRefine(ctx, g, &cfg.Pars, logger)
}

func setupLogger() (*slog.Logger, error) {
	return slogx.Setup(paths.LogDir(), globalOpts.verbose)
}

func runRefine(ctx context.Context, g *aig.AIG, pars *config.Pars, logger *slog.Logger) error {
	res, err := refine.Run(ctx, g, pars, logger)
	if err != nil {
		reportErr(err)
		return err
	}
	fmt.Printf("classes=%d iterations=%d stopped=%q strangers=%d\n",
		res.Store.ClassCount(), res.Iterations, res.StoppedWhy, res.Diag.Strangers)
	return nil
}

func runPartitioned(ctx context.Context, g *aig.AIG, pars *config.Pars, logger *slog.Logger) error {
	merged, err := partition.Run(ctx, g, pars, logger, runOpts.partSize, runOpts.nProcs)
	if err != nil {
		reportErr(err)
		return err
	}
	fmt.Printf("lifted_equivalences=%d\n", len(merged))
	return nil
}

func runRarity(ctx context.Context, g *aig.AIG, pars *config.RarPars) error {
	e := rarity.New(g, pars)
	seed := runOpts.seed
	if pars.NRandSeed != 0 {
		seed = pars.NRandSeed
	}
	res, err := e.Run(ctx, sim.NewRng(seed))
	if err != nil {
		reportErr(err)
		return err
	}
	if res.Solved {
		fmt.Printf("failure: po=%d frame=%d rounds=%d\n", res.PO, res.Frame, res.Rounds)
	} else {
		fmt.Printf("no failure found within %d rounds\n", res.Rounds)
	}
	return nil
}

func reportErr(err error) {
	if e, ok := err.(*sswerr.Error); ok {
		fmt.Printf("error (%s): %v\n", e.Kind, e)
		return
	}
	fmt.Printf("error: %v\n", err)
}
