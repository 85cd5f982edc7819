// Package sim implements the 64-bit-word bit-parallel simulator (C1):
// evaluate an AIG over K frames with PI/LO seeding, and expose the
// phase-normalized equality primitives the class store and the rarity
// engine refine against.
package sim

import (
	"math/bits"

	"github.com/ssw-eda/ssw/internal/aig"
)

// hashPrimes mixes normalized sim words into a signature; a fixed
// table beats re-deriving multipliers per call, matching the "fixed
// prime table" spec.md calls for in obj_hash_word.
var hashPrimes = [8]uint64{
	0x9E3779B97F4A7C15, 0xC2B2AE3D27D4EB4F, 0x165667B19E3779F9, 0x27D4EB2F165667C5,
	0xFF51AFD7ED558CCD, 0xC4CEB9FE1A85EC53, 0x2545F4914F6CDD1D, 0xBF58476D1CE4E5B9,
}

// Sim holds per-node sim-word storage for an AIG across a prefix
// window plus nFrames frames of nWordsFrame words each.
type Sim struct {
	g           *aig.AIG
	nPref       int
	nFrames     int
	nWordsFrame int
	words       [][]uint64 // words[nodeID][(nPref+f)*nWordsFrame+w]
}

// Alloc allocates simulation storage for g. nPref frames are a
// scratch prefix ignored by every signature/equality operation (they
// exist so callers can run a throwaway warm-up frame ahead of the
// window that matters).
func Alloc(g *aig.AIG, nPref, nFrames, nWordsFrame int) *Sim {
	total := (nPref + nFrames) * nWordsFrame
	words := make([][]uint64, len(g.Nodes))
	for i := range words {
		words[i] = make([]uint64, total)
	}
	s := &Sim{g: g, nPref: nPref, nFrames: nFrames, nWordsFrame: nWordsFrame, words: words}
	for w := 0; w < total; w++ {
		words[aig.ConstID][w] = ^uint64(0)
	}
	return s
}

func (s *Sim) NumFrames() int     { return s.nFrames }
func (s *Sim) WordsPerFrame() int { return s.nWordsFrame }

func (s *Sim) idx(f, w int) int { return (s.nPref+f)*s.nWordsFrame + w }

func (s *Sim) rawWord(id int32, f, w int) uint64 { return s.words[id][s.idx(f, w)] }

func (s *Sim) setWord(id int32, f, w int, v uint64) { s.words[id][s.idx(f, w)] = v }

func (s *Sim) litWord(l aig.Lit, f, w int) uint64 {
	v := s.rawWord(l.ID(), f, w)
	if l.IsComp() {
		return ^v
	}
	return v
}

// SeedRandom assigns PRNG words to every CI (PI and LO) across all
// frames. A PI's word-0 low nibble is pinned to a tag derived from its
// index so distinct PIs never hash identically purely by RNG
// coincidence, while still being deterministic given the same seed
// (spec.md §4.1 edge case). If fInit, LO[*] in frame 0 is forced to
// the all-zero vector instead of a random one.
func (s *Sim) SeedRandom(rng *Rng, fInit bool) {
	for idx, id := range s.g.PIs {
		tag := uint64(idx & 0xF)
		for f := 0; f < s.nFrames; f++ {
			for w := 0; w < s.nWordsFrame; w++ {
				v := rng.Next64()
				if w == 0 {
					v = (v &^ 0xF) | tag
				}
				s.setWord(id, f, w, v)
			}
		}
	}
	for _, id := range s.g.LOs {
		for f := 0; f < s.nFrames; f++ {
			for w := 0; w < s.nWordsFrame; w++ {
				if fInit && f == 0 {
					s.setWord(id, f, w, 0)
					continue
				}
				s.setWord(id, f, w, rng.Next64())
			}
		}
	}
}

// SeedVec assigns LO[*] in frame 0 bitwise from a 0/1 vector, one bit
// per register, replicated across all nWordsFrame words.
func (s *Sim) SeedVec(vInit []bool) {
	for i, id := range s.g.LOs {
		var v uint64
		if i < len(vInit) && vInit[i] {
			v = ^uint64(0)
		}
		for w := 0; w < s.nWordsFrame; w++ {
			s.setWord(id, 0, w, v)
		}
	}
}

// Run evaluates every internal node across all nFrames frames in
// topological (ascending id) order, then threads LI into the next
// frame's LO per register.
func (s *Sim) Run() {
	for f := 0; f < s.nFrames; f++ {
		for i := range s.g.Nodes {
			n := &s.g.Nodes[i]
			if n.Kind != aig.KindAnd {
				continue
			}
			for w := 0; w < s.nWordsFrame; w++ {
				v := s.litWord(n.Fanin0, f, w) & s.litWord(n.Fanin1, f, w)
				s.setWord(n.ID, f, w, v)
			}
		}
		for i, liID := range s.g.LIs {
			fanin := s.g.Nodes[liID].Fanin0
			for w := 0; w < s.nWordsFrame; w++ {
				s.setWord(liID, f, w, s.litWord(fanin, f, w))
			}
			if f+1 < s.nFrames {
				loID := s.g.LOs[i]
				for w := 0; w < s.nWordsFrame; w++ {
					s.setWord(loID, f+1, w, s.rawWord(liID, f, w))
				}
			}
		}
	}
}

// TransferLastToFirst copies the LI word of the last frame into the
// LO word of frame 0, so a second Run() call continues the same
// trajectory (spec.md §4.1: "enabling concatenation of simulation
// runs").
func (s *Sim) TransferLastToFirst() {
	last := s.nFrames - 1
	for i, liID := range s.g.LIs {
		loID := s.g.LOs[i]
		for w := 0; w < s.nWordsFrame; w++ {
			s.setWord(loID, 0, w, s.rawWord(liID, last, w))
		}
	}
}

// normWord returns node n's phase-normalized word: its raw simulated
// value XORed by its own phase bit, so equivalence reduces to bitwise
// equality without a separate flip table (spec.md §3, §9).
func (s *Sim) normWord(n int32, f, w int) uint64 {
	v := s.rawWord(n, f, w)
	if s.g.Nodes[n].Phase {
		return ^v
	}
	return v
}

// ObjIsZero reports whether n's phase-normalized simulation is zero in
// every (frame, word) of the simulated window — i.e. n behaves as a
// structural constant equal to its own phase.
func (s *Sim) ObjIsZero(n int32) bool {
	for f := 0; f < s.nFrames; f++ {
		for w := 0; w < s.nWordsFrame; w++ {
			if s.normWord(n, f, w) != 0 {
				return false
			}
		}
	}
	return true
}

// ObjsEqualWord reports whether a and b have bit-identical
// phase-normalized simulation across the whole window.
func (s *Sim) ObjsEqualWord(a, b int32) bool {
	for f := 0; f < s.nFrames; f++ {
		for w := 0; w < s.nWordsFrame; w++ {
			if s.normWord(a, f, w) != s.normWord(b, f, w) {
				return false
			}
		}
	}
	return true
}

// ObjHashWord mixes n's phase-normalized words into a signature, used
// to bucket candidate nodes before pairwise comparison.
func (s *Sim) ObjHashWord(n int32) uint64 {
	var h uint64
	i := 0
	for f := 0; f < s.nFrames; f++ {
		for w := 0; w < s.nWordsFrame; w++ {
			v := s.normWord(n, f, w)
			p := hashPrimes[i%len(hashPrimes)]
			h ^= bits.RotateLeft64(v*p, i%63+1)
			i++
		}
	}
	return h
}

// CheckNonConstOutputs scans PO simulation vectors (excluding the
// trailing nConstrs constraint POs) for the first PO with a set bit,
// returning its index and the (frame, word, bit) location of that set
// bit.
func (s *Sim) CheckNonConstOutputs(nConstrs int) (po, frame, word, bit int, found bool) {
	n := len(s.g.POs) - nConstrs
	for i := 0; i < n; i++ {
		l := s.g.POs[i]
		for f := 0; f < s.nFrames; f++ {
			for w := 0; w < s.nWordsFrame; w++ {
				v := s.litWord(l, f, w)
				if v != 0 {
					return i, f, w, bits.TrailingZeros64(v), true
				}
			}
		}
	}
	return 0, 0, 0, 0, false
}

// Poke overwrites a single CI's simulated word directly, used to graft
// a concrete SAT-derived assignment onto an otherwise random pattern
// before resimulating (spec.md §4.5 step 5).
func (s *Sim) Poke(id int32, f, w int, v uint64) { s.setWord(id, f, w, v) }

// Raw exposes a node's raw (non phase-normalized) word for callers
// that need the actual simulated bit, such as PI extraction and CEX
// replay.
func (s *Sim) Raw(n int32, f, w int) uint64 { return s.rawWord(n, f, w) }

// LitValue exposes a literal's raw simulated word (fanin complement
// applied, node phase not applied).
func (s *Sim) LitValue(l aig.Lit, f, w int) uint64 { return s.litWord(l, f, w) }
