// Package fixture builds small named in-memory AIGs for cmd/ssw's
// -aig-literal debug flag. AIGER file I/O is out of scope (spec.md
// §1), so exercising the engine from the command line needs some
// source of circuits that isn't a parser; these are it.
package fixture

import "github.com/ssw-eda/ssw/internal/aig"

// Names lists every literal recognized by Build, in the order they're
// listed in cmd/ssw's help text.
var Names = []string{"miter", "latch-chain", "const-reg", "unsat-constraint"}

// Build returns the named fixture AIG, or nil if name isn't one of
// Names.
func Build(name string) *aig.AIG {
	switch name {
	case "miter":
		return buildMiter()
	case "latch-chain":
		return buildLatchChain()
	case "const-reg":
		return buildConstReg()
	case "unsat-constraint":
		return buildUnsatConstraint()
	default:
		return nil
	}
}

// buildMiter is an S2-shaped combinational equivalence: two
// structurally different but always-equal AND trees sharing the same
// primary inputs, feeding two separate POs.
func buildMiter() *aig.AIG {
	b := aig.NewBuilder()
	a := b.PI()
	c := b.PI()
	n1 := b.And(a, c)
	n2 := b.And(n1, a) // always equal to n1
	b.AddPO(n1)
	b.AddPO(n2)
	return b.Build()
}

// buildLatchChain is an S1-shaped register-merge fixture: three
// registers all driven by the same next-state function, which a
// correspondence run should fold into a single class.
func buildLatchChain() *aig.AIG {
	b := aig.NewBuilder()
	pi := b.PI()
	for i := 0; i < 3; i++ {
		lo, reg := b.Latch()
		b.SetLatchInput(reg, pi)
		b.AddPO(lo)
	}
	return b.Build()
}

// buildConstReg is a register that never leaves its reset value,
// exercising the constant-class refinement path.
func buildConstReg() *aig.AIG {
	b := aig.NewBuilder()
	lo, reg := b.Latch()
	b.SetLatchInput(reg, aig.False)
	b.AddPO(lo)
	return b.Build()
}

// buildUnsatConstraint is the S4 shape: a constraint that can never
// hold (its PO is ¬(x ∧ ¬x), which is never 0), so the constraint
// handler must fail fast with KindConstraintsUnsat rather than run the
// sweep.
func buildUnsatConstraint() *aig.AIG {
	b := aig.NewBuilder()
	x := b.PI()
	n := b.And(x, x.Not())
	b.AddPO(x)
	b.AddConstraint(n.Not())
	return b.Build()
}
