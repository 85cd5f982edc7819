package aig

// Trace is a scalar (one-bit-per-pattern) multi-frame replay of an
// AIG, used by tests and by counter-example verification where a full
// 64-wide bit-parallel simulator (package sim) would be overkill.
type Trace struct {
	POs [][]bool // POs[f][i] = value of PO i in frame f
	LOs [][]bool // LOs[f][i] = value of register i's output entering frame f
}

// Replay drives g for len(pis) frames. pis[f][i] is the value of PI i
// in frame f. lo0 seeds register outputs in frame 0 (nil means all
// zero, the standard initial state).
func Replay(g *AIG, pis [][]bool, lo0 []bool) Trace {
	nFrames := len(pis)
	tr := Trace{
		POs: make([][]bool, nFrames),
		LOs: make([][]bool, nFrames),
	}

	cur := make([]bool, g.NumRegs())
	if lo0 != nil {
		copy(cur, lo0)
	}

	for f := 0; f < nFrames; f++ {
		val := make([]bool, len(g.Nodes))
		val[ConstID] = true
		for i, id := range g.PIs {
			val[id] = pis[f][i]
		}
		for i, id := range g.LOs {
			val[id] = cur[i]
		}
		for i := range g.Nodes {
			n := &g.Nodes[i]
			if n.Kind != KindAnd {
				continue
			}
			val[n.ID] = evalLitRaw(val, n.Fanin0) && evalLitRaw(val, n.Fanin1)
		}

		poVals := make([]bool, len(g.POs))
		for i, l := range g.POs {
			poVals[i] = evalLitRaw(val, l)
		}
		tr.POs[f] = poVals

		loSnapshot := append([]bool(nil), cur...)
		tr.LOs[f] = loSnapshot

		next := make([]bool, g.NumRegs())
		for i, id := range g.LIs {
			next[i] = evalLitRaw(val, g.Nodes[id].Fanin0)
		}
		cur = next
	}
	return tr
}

func evalLitRaw(val []bool, l Lit) bool {
	v := val[l.ID()]
	if l.IsComp() {
		return !v
	}
	return v
}
