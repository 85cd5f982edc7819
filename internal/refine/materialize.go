package refine

import (
	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/classes"
)

// Materialize rebuilds g with every node routed through its final
// representative (spec.md §4.6 step 5, "aig_dup_repr"): a node that is
// its own representative gets a fresh node in the output AIG; any other
// node is replaced by its representative's (phase-adjusted) node. A
// register whose LO was folded into another class is dropped entirely
// rather than rebuilt, which is how a proven-constant or proven-merged
// register disappears from the reduced AIG.
func Materialize(g *aig.AIG, st *classes.Store) *aig.AIG {
	b := aig.NewBuilder()
	memo := make(map[int32]aig.Lit)

	var resolve func(id int32) aig.Lit
	resolve = func(id int32) aig.Lit {
		if l, ok := memo[id]; ok {
			return l
		}
		if eff := st.Repr(id); eff != id {
			inner := resolve(eff)
			if g.Node(id).Phase != g.Node(eff).Phase {
				inner = inner.Not()
			}
			memo[id] = inner
			return inner
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
			memo[id] = lo // install before recursing into this register's LI
			liID := g.LIs[n.RegIndex]
			b.SetLatchInput(reg, resolve(liID))
			return lo
		case aig.KindLI:
			result = applyComp(resolve(n.Fanin0.ID()), n.Fanin0.IsComp())
		case aig.KindAnd:
			c0 := applyComp(resolve(n.Fanin0.ID()), n.Fanin0.IsComp())
			c1 := applyComp(resolve(n.Fanin1.ID()), n.Fanin1.IsComp())
			result = b.And(c0, c1)
		}
		memo[id] = result
		return result
	}

	nOrdinary := len(g.POs) - g.NumConstrs
	for i, po := range g.POs {
		lit := applyComp(resolve(po.ID()), po.IsComp())
		if i < nOrdinary {
			b.AddPO(lit)
		} else {
			b.AddConstraint(lit)
		}
	}
	return b.Build()
}

func applyComp(l aig.Lit, comp bool) aig.Lit {
	if comp {
		return l.Not()
	}
	return l
}
