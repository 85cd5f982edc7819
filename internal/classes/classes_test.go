package classes

import (
	"testing"

	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/sim"
)

// buildTwoEqualAnds builds const, two PIs a,c, n1 = a&c, and a second,
// structurally distinct AND node n2 = n1&a. Structural hashing collapses
// any direct reordering of a single AND's own fanins, so getting two
// distinct node ids with provably identical semantics (n1&a == n1,
// since n1 already implies a) requires going through an extra gate
// rather than reordering n1's own operands.
func buildTwoEqualAnds() (*aig.AIG, int32, int32) {
	b := aig.NewBuilder()
	a := b.PI()
	c := b.PI()
	n1 := b.And(a, c)
	n2 := b.And(n1, a)
	b.AddPO(n1)
	b.AddPO(n2)
	g := b.Build()
	return g, n1.ID(), n2.ID()
}

func TestPrepareHashGroupsEqualNodes(t *testing.T) {
	g, n1, n2 := buildTwoEqualAnds()
	s := sim.Alloc(g, 0, 4, 1)
	s.SeedRandom(sim.NewRng(5), false)
	s.Run()

	st := New(g)
	cands := []int32{n1, n2}
	st.PrepareHash(s, cands, false)

	if st.Repr(n1) != st.Repr(n2) {
		t.Fatalf("n1 and n2 should land in the same class, got repr %d vs %d", st.Repr(n1), st.Repr(n2))
	}
}

func TestPrepareSimpleConst1Class(t *testing.T) {
	b := aig.NewBuilder()
	lo, reg := b.Latch()
	b.SetLatchInput(reg, lo.Not())
	g := b.Build()

	st := New(g)
	st.PrepareSimple(true, false, 0)

	_ = reg
	if st.Repr(lo.ID()) != aig.ConstID {
		t.Fatalf("PrepareSimple should put every LO in the const-1 candidate class")
	}
	if st.Cand1Count() == 0 {
		t.Fatalf("Cand1Count should be nonzero after PrepareSimple")
	}
}

// TestRefinementMonotonicity covers the "refinement never grows a
// class and never un-separates two nodes" property: starting from the
// coarse constant-1 candidate class, refining against real simulation
// data can only shrink classes or leave them unchanged, and a node
// moved out of a class never silently reappears.
func TestRefinementMonotonicity(t *testing.T) {
	b := aig.NewBuilder()
	lo, reg := b.Latch()
	b.SetLatchInput(reg, lo.Not()) // r' = !r: the register toggles 0,1,0,... from reset
	a := b.PI()
	n := b.And(a, a) // simplifies structurally to a, irrelevant to this test's shape
	b.AddPO(n)
	g := b.Build()

	s := sim.Alloc(g, 0, 4, 1)
	s.SeedRandom(sim.NewRng(9), true)
	s.Run()

	st := New(g)
	st.PrepareSimple(false, false, 0)
	before := st.Cand1Count()

	created := st.RefineOne(s, aig.ConstID, true)

	after := st.Cand1Count()
	if after > before {
		t.Fatalf("Cand1Count grew from %d to %d after refinement", before, after)
	}
	if st.Repr(lo.ID()) == aig.ConstID {
		t.Fatalf("toggling LO of r'=!r should have been refined out of the const-1 class")
	}
	_ = created
}

func TestRemoveNodeDestroysTwoMemberClass(t *testing.T) {
	g, n1, n2 := buildTwoEqualAnds()
	s := sim.Alloc(g, 0, 4, 1)
	s.SeedRandom(sim.NewRng(5), false)
	s.Run()

	st := New(g)
	st.PrepareHash(s, []int32{n1, n2}, false)
	if st.Repr(n1) != st.Repr(n2) {
		t.Fatalf("setup: expected n1, n2 to start in the same class")
	}

	// Split the pair by removing n2 with RemoveNode, the store's
	// mutation primitive; the class is then down to its representative.
	st.RemoveNode(n2)
	if st.Repr(n2) != n2 {
		t.Fatalf("RemoveNode should downgrade n2 to a singleton")
	}
	if st.ClassCount() != 0 {
		t.Fatalf("the only class should have been destroyed once reduced to repr alone, got %d classes", st.ClassCount())
	}
}

func TestRemoveNodeReassignsRepresentative(t *testing.T) {
	g, n1, n2 := buildTwoEqualAnds()
	s := sim.Alloc(g, 0, 4, 1)
	s.SeedRandom(sim.NewRng(5), false)
	s.Run()

	st := New(g)
	st.PrepareHash(s, []int32{n1, n2}, false)

	repr := st.Repr(n1)
	third := n1
	if repr != n1 {
		third = n2
	}
	_ = third

	st.RemoveNode(repr)
	if st.Repr(repr) != repr {
		t.Fatalf("removed node should become its own singleton")
	}
}

func TestRefineAllIsIdempotentOnceStable(t *testing.T) {
	g, n1, n2 := buildTwoEqualAnds()
	s := sim.Alloc(g, 0, 4, 1)
	s.SeedRandom(sim.NewRng(42), false)
	s.Run()

	st := New(g)
	st.PrepareHash(s, []int32{n1, n2}, false)

	first := st.RefineAll(s, true)
	second := st.RefineAll(s, true)
	if first != 0 {
		t.Fatalf("PrepareHash already verified equality; RefineAll should find nothing to split, got %d", first)
	}
	if second != 0 {
		t.Fatalf("RefineAll should be idempotent once stable, got %d new classes", second)
	}
}
