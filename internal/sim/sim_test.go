package sim

import (
	"testing"

	"github.com/ssw-eda/ssw/internal/aig"
)

func buildAndGraph() (*aig.AIG, aig.Lit, aig.Lit, aig.Lit) {
	b := aig.NewBuilder()
	a := b.PI()
	c := b.PI()
	n := b.And(a, c)
	b.AddPO(n)
	return b.Build(), a, c, n
}

func TestSimulationConsistency(t *testing.T) {
	g, a, c, n := buildAndGraph()
	s := Alloc(g, 0, 4, 1)
	s.SeedRandom(NewRng(7), false)
	s.Run()

	for f := 0; f < s.NumFrames(); f++ {
		want := s.litWord(a, f, 0) & s.litWord(c, f, 0)
		got := s.Raw(n.ID(), f, 0)
		if got != want {
			t.Fatalf("frame %d: AND node = %x, want %x", f, got, want)
		}
	}
}

func TestPhaseInvarianceEqualsByNormalizedWords(t *testing.T) {
	b := aig.NewBuilder()
	a := b.PI()
	n1 := b.And(a, a) // simplifies to a, but exercise the literal returned
	g := b.Build()
	s := Alloc(g, 0, 3, 2)
	s.SeedRandom(NewRng(1), false)
	s.Run()

	if !s.ObjsEqualWord(a.ID(), n1.ID()) {
		t.Fatalf("a and And(a,a) should be phase-normalized equal")
	}
}

func TestObjIsZeroDetectsConstantCandidate(t *testing.T) {
	b := aig.NewBuilder()
	lo, reg := b.Latch()
	b.SetLatchInput(reg, lo) // r' = r: held at its reset value 0
	g := b.Build()

	s := Alloc(g, 0, 4, 1)
	s.SeedRandom(NewRng(3), true)
	s.Run()

	liID := g.LIs[reg]
	if !s.ObjIsZero(liID) {
		t.Fatalf("LI of r'=r should be a constant-1 candidate (normalized zero)")
	}
}

func TestCombinationalZeroFrames(t *testing.T) {
	g, _, _, n := buildAndGraph()
	s := Alloc(g, 0, 0, 1)
	s.SeedRandom(NewRng(2), false)
	s.Run() // no-op, nFrames == 0
	if s.Raw(n.ID(), 0, 0) != 0 {
		t.Fatalf("no frames simulated, node storage should remain zero")
	}
}

func TestCheckNonConstOutputsExcludesConstraints(t *testing.T) {
	b := aig.NewBuilder()
	a := b.PI()
	b.AddPO(a)         // property PO, can be nonzero
	b.AddConstraint(a) // constraint PO, excluded from the scan
	g := b.Build()

	s := Alloc(g, 0, 1, 1)
	s.SeedRandom(NewRng(11), false)
	s.Run()
	// Force the property PO to have a set bit, and confirm the
	// constraint PO (last one) is never inspected.
	s.setWord(a.ID(), 0, 0, 1)

	po, _, _, _, found := s.CheckNonConstOutputs(g.NumConstrs)
	if !found || po != 0 {
		t.Fatalf("CheckNonConstOutputs = (%d, found=%v), want (0, true)", po, found)
	}
}
