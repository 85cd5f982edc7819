package constraints

import "github.com/ssw-eda/ssw/internal/aig"

// cloneInto builds a structural identity copy of every node reachable
// from the given roots (as the materializer does, minus representative
// substitution), returning a literal resolver callers can apply to any
// literal of g.
func cloneInto(g *aig.AIG, b *aig.Builder) func(aig.Lit) aig.Lit {
	memo := make(map[int32]aig.Lit)
	var resolve func(id int32) aig.Lit
	resolve = func(id int32) aig.Lit {
		if l, ok := memo[id]; ok {
			return l
		}
		n := g.Node(id)
		var result aig.Lit
		switch n.Kind {
		case aig.KindConst:
			result = aig.True
		case aig.KindPI:
			result = b.PI()
		case aig.KindLO:
			lo, reg := b.Latch()
			memo[id] = lo
			liID := g.LIs[n.RegIndex]
			fanin := g.Node(liID).Fanin0
			b.SetLatchInput(reg, applyComp(resolve(fanin.ID()), fanin.IsComp()))
			return lo
		case aig.KindAnd:
			c0 := applyComp(resolve(n.Fanin0.ID()), n.Fanin0.IsComp())
			c1 := applyComp(resolve(n.Fanin1.ID()), n.Fanin1.IsComp())
			result = b.And(c0, c1)
		}
		memo[id] = result
		return result
	}
	return func(l aig.Lit) aig.Lit { return applyComp(resolve(l.ID()), l.IsComp()) }
}

func applyComp(l aig.Lit, comp bool) aig.Lit {
	if comp {
		return l.Not()
	}
	return l
}

// UnfoldType1 converts every constraint PO into its own "ever
// violated" latch (spec.md §4.7, "type I"): a fresh register bad_i,
// initialized false, with bad_i' = bad_i ∨ c_i. The output AIG carries
// no constraints at all — bad_i is an ordinary PO a property check can
// assert stays 0 — followed by a second trailing block of the same
// length holding each c_i's instantaneous (pre-accumulation) literal,
// which DupFoldConstrs needs to invert the transform. NBad is the
// per-block length both blocks share.
func UnfoldType1(g *aig.AIG) (out *aig.AIG, nBad int) {
	b := aig.NewBuilder()
	resolve := cloneInto(g, b)

	nOrdinary := len(g.POs) - g.NumConstrs
	for i := 0; i < nOrdinary; i++ {
		b.AddPO(resolve(g.POs[i]))
	}

	witnesses := make([]aig.Lit, 0, g.NumConstrs)
	for i := nOrdinary; i < len(g.POs); i++ {
		c := resolve(g.POs[i])
		witnesses = append(witnesses, c)
		bad, reg := b.Latch()
		b.SetLatchInput(reg, b.Or(bad, c))
		b.AddPO(bad)
	}
	for _, c := range witnesses {
		b.AddPO(c)
	}
	return b.Build(), g.NumConstrs
}

// UnfoldType2 pools every constraint into a single shared "any
// constraint ever violated" latch (spec.md §4.7, "type II"): one
// register instead of one per constraint, at the cost of no longer
// being able to tell which constraint tripped. This direction has no
// inverse — DupFoldConstrs only undoes UnfoldType1's output.
func UnfoldType2(g *aig.AIG) *aig.AIG {
	b := aig.NewBuilder()
	resolve := cloneInto(g, b)

	nOrdinary := len(g.POs) - g.NumConstrs
	for i := 0; i < nOrdinary; i++ {
		b.AddPO(resolve(g.POs[i]))
	}

	var anyViol aig.Lit = aig.False
	for i := nOrdinary; i < len(g.POs); i++ {
		anyViol = b.Or(anyViol, resolve(g.POs[i]))
	}
	bad, reg := b.Latch()
	b.SetLatchInput(reg, b.Or(bad, anyViol))
	b.AddPO(bad)
	return b.Build()
}

// DupFoldConstrs re-absorbs an UnfoldType1 output back into a
// constraints-bearing AIG: it clones everything reachable from the
// ordinary POs and the trailing witness block, re-adding the
// witnesses as constraints. The bad_i latches are reachable from
// neither, so they are dropped by simply never being visited.
func DupFoldConstrs(g *aig.AIG, nBad int) *aig.AIG {
	b := aig.NewBuilder()
	resolve := cloneInto(g, b)

	total := len(g.POs)
	nOrdinary := total - 2*nBad
	for i := 0; i < nOrdinary; i++ {
		b.AddPO(resolve(g.POs[i]))
	}
	for i := total - nBad; i < total; i++ {
		b.AddConstraint(resolve(g.POs[i]))
	}
	return b.Build()
}
