package cnf

import (
	"context"
	"testing"

	"github.com/ssw-eda/ssw/internal/aig"
)

func TestNodesEquivDetectsEqualAndNodes(t *testing.T) {
	b := aig.NewBuilder()
	p := b.PI()
	q := b.PI()
	n1 := b.And(p, q)
	n2 := b.And(n1, p) // always equal to n1, distinct node (see classes_test rationale)
	b.AddPO(n1)
	b.AddPO(n2)
	g := b.Build()

	a := NewAdapter(g)
	if err := a.SolverStart(false); err != nil {
		t.Fatalf("SolverStart: %v", err)
	}
	outcome, pat, err := a.NodesEquiv(context.Background(), n1, n2, 0)
	if err != nil {
		t.Fatalf("NodesEquiv: %v", err)
	}
	if outcome != Equal {
		t.Fatalf("outcome = %v, pattern = %+v, want Equal", outcome, pat)
	}
}

func TestNodesEquivDetectsDistinctAndNodes(t *testing.T) {
	b := aig.NewBuilder()
	p := b.PI()
	q := b.PI()
	r := b.PI()
	n1 := b.And(p, q)
	n2 := b.And(p, r)
	b.AddPO(n1)
	b.AddPO(n2)
	g := b.Build()

	a := NewAdapter(g)
	if err := a.SolverStart(false); err != nil {
		t.Fatalf("SolverStart: %v", err)
	}
	outcome, pat, err := a.NodesEquiv(context.Background(), n1, n2, 0)
	if err != nil {
		t.Fatalf("NodesEquiv: %v", err)
	}
	if outcome != NotEqual {
		t.Fatalf("outcome = %v, want NotEqual (q and r can differ)", outcome)
	}
	if pat == nil || len(pat.PIValues) == 0 {
		t.Fatalf("NotEqual outcome should carry a witnessing PI pattern")
	}
}

func TestNodeConstrain1ForcesValue(t *testing.T) {
	b := aig.NewBuilder()
	p := b.PI()
	b.AddPO(p)
	g := b.Build()

	a := NewAdapter(g)
	if err := a.SolverStart(false); err != nil {
		t.Fatalf("SolverStart: %v", err)
	}
	if err := a.NodeConstrain1(p); err != nil {
		t.Fatalf("NodeConstrain1: %v", err)
	}
	// Asserting p = 0 on top of p = 1 must now be inconsistent.
	if err := a.NodeConstrain1(p.Not()); err == nil {
		t.Fatalf("constraining ¬p after p should be inconsistent")
	}
}

func TestSolverRecycleResetsCallCount(t *testing.T) {
	b := aig.NewBuilder()
	p := b.PI()
	q := b.PI()
	n := b.And(p, q)
	b.AddPO(n)
	g := b.Build()

	a := NewAdapter(g)
	a.SolverStart(false)
	a.NodesEquiv(context.Background(), n, n, 0)
	if a.CallCount() == 0 {
		t.Fatalf("CallCount should be nonzero after a NodesEquiv call")
	}
	if err := a.SolverRecycle(); err != nil {
		t.Fatalf("SolverRecycle: %v", err)
	}
	if a.CallCount() != 0 {
		t.Fatalf("CallCount should reset after SolverRecycle")
	}
}
