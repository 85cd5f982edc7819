// Package rarity implements the rarity-driven semi-formal engine
// (C8): a bit-parallel simulator that keeps, between rounds, the
// least-seen register-state slices (measured against a flop-bin
// rarity histogram) to push the search toward unexplored state space,
// either to chase a property failure or to shrink the equivalence
// partition without ever calling the solver (spec.md §4.8).
package rarity

import (
	"context"
	"math"

	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/classes"
	"github.com/ssw-eda/ssw/internal/config"
	"github.com/ssw-eda/ssw/internal/sim"
)

// Cex is a replayable counter-example: the register state the
// producing round started from, plus the per-frame PI assignment that
// drove the failing PO.
type Cex struct {
	InitLO []bool
	PI     [][]bool
}

// Result is the outcome of one engine run.
type Result struct {
	Solved bool
	PO     int
	Frame  int
	Rounds int
	Cex    *Cex
}

// Engine owns the rarity table for one AIG's register set.
type Engine struct {
	g         *aig.AIG
	pars      *config.RarPars
	nRegs     int
	binSize   int
	nGroups   int
	nWordsReg int
	rarity    [][]uint32 // [group][pattern], pattern in [0, 2^binSize)
}

// New builds an engine over g's registers, grouping them into bins of
// pars.NBinSize (a non-positive size falls back to 8, and sizes above
// 64 are clamped to 64 so a bin never spans more than one transposed
// pattern word).
func New(g *aig.AIG, pars *config.RarPars) *Engine {
	nRegs := len(g.LOs)
	binSize := pars.NBinSize
	if binSize <= 0 {
		binSize = 8
	}
	if binSize > 64 {
		binSize = 64
	}
	nGroups := (nRegs + binSize - 1) / binSize
	if nGroups == 0 {
		nGroups = 1
	}
	rarity := make([][]uint32, nGroups)
	for i := range rarity {
		rarity[i] = make([]uint32, 1<<uint(binSize))
	}
	return &Engine{
		g:         g,
		pars:      pars,
		nRegs:     nRegs,
		binSize:   binSize,
		nGroups:   nGroups,
		nWordsReg: (nRegs + 63) / 64,
		rarity:    rarity,
	}
}

// Run drives the per-round algorithm until a property fails, the
// round/time budget is exhausted, or nRestart forces a restart from
// the all-zero state with a perturbed seed (spec.md §4.8).
func (e *Engine) Run(ctx context.Context, rng *sim.Rng) (*Result, error) {
	nWords := e.pars.NWords
	if nWords <= 0 {
		nWords = 1
	}
	nFrames := e.pars.NFrames
	if nFrames <= 0 {
		nFrames = 1
	}

	vInits := make([]bool, e.nRegs)
	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return &Result{Rounds: round}, nil
		}
		if e.pars.NRounds > 0 && round >= e.pars.NRounds {
			return &Result{Rounds: round}, nil
		}
		if e.pars.NRestart > 0 && round > 0 && round%e.pars.NRestart == 0 {
			for i := range vInits {
				vInits[i] = false
			}
			rng.Next64() // perturb the seed on restart
		}

		s := sim.Alloc(e.g, 0, nFrames, nWords)
		s.SeedRandom(rng, true)
		e.seedVInits(s, vInits, nWords)
		s.Run()

		if po, frame, word, bit, found := s.CheckNonConstOutputs(e.g.NumConstrs); found {
			return &Result{
				Solved: true,
				PO:     po,
				Frame:  frame,
				Rounds: round + 1,
				Cex:    e.deriveCex(s, frame, word, bit, vInits),
			}, nil
		}

		pat := e.transposeLIs(s, nWords)
		costs := e.scoreAndUpdate(pat)
		vInits = e.selectNext(pat, costs, nWords)
	}
}

// seedVInits broadcasts vInits (one register vector) across every
// parallel lane of every word in frame 0, so all 64·nWords lanes start
// this round from the same rarity-selected state while PI randomness
// (already seeded by SeedRandom) still diversifies the trajectories.
func (e *Engine) seedVInits(s *sim.Sim, vInits []bool, nWords int) {
	for i, id := range e.g.LOs {
		var v uint64
		if vInits[i] {
			v = ^uint64(0)
		}
		for w := 0; w < nWords; w++ {
			s.Poke(id, 0, w, v)
		}
	}
}

// transposeLIs builds the pattern matrix: pat[k][c] is the 64-bit
// state of registers [c*64, c*64+64) for global pattern k, obtained by
// transposing the last frame's LI words 64 registers at a time
// (spec.md §4.8 step 4).
func (e *Engine) transposeLIs(s *sim.Sim, nWords int) [][]uint64 {
	nPatterns := 64 * nWords
	pat := make([][]uint64, nPatterns)
	for k := range pat {
		pat[k] = make([]uint64, e.nWordsReg)
	}

	frame := s.NumFrames() - 1
	for c := 0; c < e.nWordsReg; c++ {
		for w := 0; w < nWords; w++ {
			var rows [64]uint64
			for r := 0; r < 64; r++ {
				regIdx := c*64 + r
				if regIdx >= e.nRegs {
					continue
				}
				liID := e.g.LIs[regIdx]
				rows[r] = s.Raw(liID, frame, w)
			}
			Transpose64(&rows)
			for p := 0; p < 64; p++ {
				pat[w*64+p][c] = rows[p]
			}
		}
	}
	return pat
}

// scoreAndUpdate updates the rarity histogram with every pattern's
// group segments, then scores each pattern (spec.md §4.8 steps 5-6):
// cost[k] = Σ_g 1/rarity[g][byte_g(pat[k])]², so a pattern touching
// only often-seen segments scores low and one whose segments were
// first seen this round (count 1) scores highest. The counts already
// include this round, so no count is zero when scored.
func (e *Engine) scoreAndUpdate(pat [][]uint64) []float64 {
	segments := make([][]uint32, len(pat))
	for k, p := range pat {
		segments[k] = make([]uint32, e.nGroups)
		for g := 0; g < e.nGroups; g++ {
			segments[k][g] = extractBits(p, g*e.binSize, e.binSize)
		}
	}
	for k := range pat {
		for g, v := range segments[k] {
			e.rarity[g][v]++
		}
	}

	costs := make([]float64, len(pat))
	for k := range pat {
		var cost float64
		for g, v := range segments[k] {
			count := float64(e.rarity[g][v])
			if count == 0 {
				cost = math.Inf(1)
				break
			}
			cost += 1 / (count * count)
		}
		costs[k] = cost
	}
	return costs
}

// selectNext picks the top nWords patterns by cost (spec.md §4.8 step
// 6-7), each pick excluded from the next by setting its cost to -Inf,
// and returns the register vector of the first (highest-cost) pick,
// which seeds next round's vInits; the other picks are not returned.
func (e *Engine) selectNext(pat [][]uint64, costs []float64, nWords int) []bool {
	picks := make([]int, 0, nWords)
	for i := 0; i < nWords && i < len(pat); i++ {
		best := -1
		for k, c := range costs {
			if c == math.Inf(-1) {
				continue
			}
			if best == -1 || c > costs[best] {
				best = k
			}
		}
		if best == -1 {
			break
		}
		picks = append(picks, best)
		costs[best] = math.Inf(-1)
	}

	out := make([]bool, e.nRegs)
	if len(picks) == 0 {
		return out
	}
	k := picks[0]
	for i := 0; i < e.nRegs; i++ {
		word := pat[k][i/64]
		out[i] = word&(uint64(1)<<uint(i%64)) != 0
	}
	return out
}

// deriveCex reads the PI assignment straight out of the just-completed
// round's simulator: unlike a source constrained to a compact
// patBests log, this engine keeps the whole round's window in memory,
// so the failing lane's inputs can be read back directly instead of
// walked backward through per-round bookkeeping.
func (e *Engine) deriveCex(s *sim.Sim, frame, word, bit int, initLO []bool) *Cex {
	cex := &Cex{InitLO: append([]bool(nil), initLO...), PI: make([][]bool, frame+1)}
	for f := 0; f <= frame; f++ {
		row := make([]bool, len(e.g.PIs))
		for i, id := range e.g.PIs {
			row[i] = s.Raw(id, f, word)&(uint64(1)<<uint(bit)) != 0
		}
		cex.PI[f] = row
	}
	return cex
}

// WhichBin reproduces the source's phase-coercing bin lookup: despite
// taking a phase argument, the routine forces it to false before
// using it, so a caller can never actually select the inverted bin.
// We keep that exact coercion here (spec.md §9 open question) rather
// than silently "fixing" a caller-visible parameter that the source
// never let do anything.
func WhichBin(pattern []uint64, group, binSize int, phase bool) int {
	phase = false
	v := extractBits(pattern, group*binSize, binSize)
	if phase {
		mask := uint32(1)<<uint(binSize) - 1
		v = ^v & mask
	}
	return int(v)
}

// extractBits reads an nBits-wide unsigned value starting at bitStart
// out of a little-endian sequence of 64-bit words, supporting spans
// that straddle a word boundary.
func extractBits(words []uint64, bitStart, nBits int) uint32 {
	var v uint32
	for i := 0; i < nBits; i++ {
		idx := bitStart + i
		w, b := idx/64, idx%64
		if w >= len(words) {
			continue
		}
		if words[w]&(uint64(1)<<uint(b)) != 0 {
			v |= 1 << uint(i)
		}
	}
	return v
}

// SignalFilter is the class-filter variant (spec.md §4.8
// "signalFilter"): the same simulation backbone, but instead of
// hunting a property failure it refines st after every frame using
// the equivalence-class store's own primitives, with no solver call.
func SignalFilter(ctx context.Context, g *aig.AIG, pars *config.RarPars, rng *sim.Rng, st *classes.Store, rounds int) error {
	nWords := pars.NWords
	if nWords <= 0 {
		nWords = 1
	}
	nFrames := pars.NFrames
	if nFrames <= 0 {
		nFrames = 1
	}
	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := sim.Alloc(g, 0, nFrames, nWords)
		s.SeedRandom(rng, true)
		s.Run()
		st.RefineConst1(s, true)
		st.RefineAll(s, true)
	}
	return nil
}

// FindStartingState is the CEX-replay variant (spec.md §4.8
// "findStartingState"): replays an externally supplied CEX through
// the circuit and returns the register values at the target frame, to
// be used as a fresh vInits by a later Run.
func FindStartingState(g *aig.AIG, piFrames [][]bool, targetFrame int) []bool {
	s := sim.Alloc(g, 0, targetFrame+1, 1)
	for f, row := range piFrames {
		if f > targetFrame {
			break
		}
		for i, id := range g.PIs {
			v := uint64(0)
			if i < len(row) && row[i] {
				v = ^uint64(0)
			}
			s.Poke(id, f, 0, v)
		}
	}
	s.Run()

	out := make([]bool, len(g.LOs))
	for i := range g.LOs {
		liID := g.LIs[i]
		out[i] = s.Raw(liID, targetFrame, 0)&1 != 0
	}
	return out
}
