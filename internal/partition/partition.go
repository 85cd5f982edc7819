// Package partition implements the partitioner (C9): it slices an AIG
// into register-window sub-AIGs, runs the full correspondence engine
// on each independently — optionally on a bounded worker pool — and
// lifts the per-partition representative maps back onto the original
// AIG's node ids (spec.md §4.9).
package partition

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/classes"
	"github.com/ssw-eda/ssw/internal/config"
	"github.com/ssw-eda/ssw/internal/refine"
	"github.com/ssw-eda/ssw/internal/sswerr"
)

// Partition is one register-window slice: a self-contained sub-AIG
// plus the bookkeeping needed to lift its equivalences back.
type Partition struct {
	Sub *aig.AIG
	// NodeOrigin maps a sub-AIG node id to the original AIG's node id,
	// for every node this partition's building traced back to.
	NodeOrigin map[int32]int32
	// Boundary marks a sub-AIG PI that stands in for a register owned
	// by a different window — a partition-local artifact, not safe to
	// lift an equivalence through.
	Boundary map[int32]bool
}

func applyComp(l aig.Lit, comp bool) aig.Lit {
	if comp {
		return l.Not()
	}
	return l
}

// Slice partitions g's registers into contiguous windows of up to
// partSize registers, each becoming its own sub-AIG. A register
// outside a window that feeds into it becomes a free boundary PI of
// that sub-AIG rather than being followed further, which is what
// bounds a window's sub-AIG to roughly partSize registers regardless
// of the original AIG's overall size.
//
// minDomSize floors how small a trailing window is allowed to be: a
// last window with fewer than minDomSize registers is folded into the
// window before it rather than run on its own, since a sub-AIG that
// small carries too little internal structure to make sweeping it
// separately worth the per-partition solver setup cost (nMinDomSize).
func Slice(g *aig.AIG, partSize, minDomSize int) []*Partition {
	nRegs := len(g.LOs)
	if partSize <= 0 || partSize > nRegs {
		partSize = nRegs
	}
	if partSize == 0 {
		return nil
	}

	var bounds [][2]int
	for start := 0; start < nRegs; start += partSize {
		end := start + partSize
		if end > nRegs {
			end = nRegs
		}
		bounds = append(bounds, [2]int{start, end})
	}
	if minDomSize > 0 && len(bounds) > 1 {
		last := bounds[len(bounds)-1]
		if last[1]-last[0] < minDomSize {
			bounds = bounds[:len(bounds)-1]
			bounds[len(bounds)-1][1] = last[1]
		}
	}

	var parts []*Partition
	for _, b := range bounds {
		regs := make([]int32, 0, b[1]-b[0])
		for i := b[0]; i < b[1]; i++ {
			regs = append(regs, int32(i))
		}
		parts = append(parts, buildPartition(g, regs))
	}
	return parts
}

// buildPartition clones the LI cone of every register in regIdxs
// (demand-driven, the same structural-clone idiom materialize.go and
// unfold.go use), stopping the recursion at any register not in the
// window, and exposes every kept register's LO as a PO so the frame
// builder's traversal reaches its whole cone.
func buildPartition(g *aig.AIG, regIdxs []int32) *Partition {
	inWindow := make(map[int32]bool, len(regIdxs))
	for _, ri := range regIdxs {
		inWindow[ri] = true
	}

	b := aig.NewBuilder()
	memo := make(map[int32]aig.Lit)
	nodeOrigin := make(map[int32]int32)
	boundary := make(map[int32]bool)

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
			nodeOrigin[result.ID()] = id
		case aig.KindLO:
			if !inWindow[n.RegIndex] {
				result = b.PI()
				nodeOrigin[result.ID()] = id
				boundary[result.ID()] = true
				break
			}
			lo, reg := b.Latch()
			memo[id] = lo
			nodeOrigin[lo.ID()] = id
			liID := g.LIs[n.RegIndex]
			liFanin := g.Node(liID).Fanin0
			b.SetLatchInput(reg, applyComp(resolve(liFanin.ID()), liFanin.IsComp()))
			return lo
		case aig.KindAnd:
			c0 := applyComp(resolve(n.Fanin0.ID()), n.Fanin0.IsComp())
			c1 := applyComp(resolve(n.Fanin1.ID()), n.Fanin1.IsComp())
			result = b.And(c0, c1)
			nodeOrigin[result.ID()] = id
		}
		memo[id] = result
		return result
	}

	for _, ri := range regIdxs {
		lo := resolve(g.LOs[ri])
		b.AddPO(lo)
	}

	return &Partition{Sub: b.Build(), NodeOrigin: nodeOrigin, Boundary: boundary}
}

// Run executes the full correspondence engine over every partition of
// g (windows of partSize registers), at most nProcs concurrently, and
// returns the lifted equivalence map: original node id -> original
// representative id, for every pair a partition could actually prove
// (boundary-only classes are never lifted, since a boundary PI is a
// partition-local stand-in, not the real register).
func Run(ctx context.Context, g *aig.AIG, pars *config.Pars, logger *slog.Logger, partSize, nProcs int) (map[int32]int32, error) {
	if g.NumConstrs > 0 {
		return nil, sswerr.New(sswerr.KindUnsupportedCombo, "constraints disable partitioning")
	}

	parts := Slice(g, partSize, pars.NMinDomSize)
	lifted := make([]map[int32]int32, len(parts))

	eg, egCtx := errgroup.WithContext(ctx)
	if nProcs > 0 {
		eg.SetLimit(nProcs)
	}
	for i, p := range parts {
		eg.Go(func() error {
			res, err := refine.Run(egCtx, p.Sub, pars, logger)
			if err != nil {
				return err
			}
			lifted[i] = liftResult(p, res.Store)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[int32]int32)
	for _, m := range lifted {
		for id, repr := range m {
			merged[id] = repr
		}
	}
	return merged, nil
}

// liftResult walks every sub-AIG node with a non-trivial representative
// and, when both sides trace back to a real (non-boundary) original
// node, records the equivalence under the original ids.
func liftResult(p *Partition, st *classes.Store) map[int32]int32 {
	out := make(map[int32]int32)
	for subID := range p.Sub.Nodes {
		id := int32(subID)
		if p.Boundary[id] {
			continue
		}
		origID, ok := p.NodeOrigin[id]
		if !ok {
			continue
		}
		repr := st.Repr(id)
		if repr == id {
			continue
		}
		if p.Boundary[repr] {
			continue
		}
		origRepr, ok := p.NodeOrigin[repr]
		if !ok {
			continue
		}
		out[origID] = origRepr
	}
	return out
}
