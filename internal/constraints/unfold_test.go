package constraints

import (
	"testing"

	"github.com/ssw-eda/ssw/internal/aig"
)

func buildSingleConstraintAIG() *aig.AIG {
	b := aig.NewBuilder()
	pi := b.PI()
	b.AddPO(pi)
	b.AddConstraint(pi.Not())
	return b.Build()
}

func TestUnfoldType1DropsConstraintsAndAddsBadLatch(t *testing.T) {
	g := buildSingleConstraintAIG()
	out, nBad := UnfoldType1(g)
	if nBad != 1 {
		t.Fatalf("nBad = %d, want 1", nBad)
	}
	if out.NumConstrs != 0 {
		t.Fatalf("unfolded AIG should carry no constraints, got %d", out.NumConstrs)
	}
	if len(out.LOs) != 1 {
		t.Fatalf("expected exactly one bad-tracking register, got %d", len(out.LOs))
	}
	// ordinary PO (1) + bad PO (1) + witness PO (1) = 3.
	if len(out.POs) != 3 {
		t.Fatalf("expected 3 POs (ordinary, bad, witness), got %d", len(out.POs))
	}
}

func TestDupFoldConstrsRecoversConstraintShape(t *testing.T) {
	g := buildSingleConstraintAIG()
	unfolded, nBad := UnfoldType1(g)
	folded := DupFoldConstrs(unfolded, nBad)

	if folded.NumConstrs != g.NumConstrs {
		t.Fatalf("NumConstrs = %d, want %d", folded.NumConstrs, g.NumConstrs)
	}
	if len(folded.POs) != len(g.POs) {
		t.Fatalf("POs = %d, want %d", len(folded.POs), len(g.POs))
	}
	if len(folded.LOs) != 0 {
		t.Fatalf("folded AIG should have shed the bad-tracking register, got %d", len(folded.LOs))
	}
}

func TestUnfoldType2SharesOneLatchAcrossConstraints(t *testing.T) {
	b := aig.NewBuilder()
	pi1 := b.PI()
	pi2 := b.PI()
	b.AddPO(pi1)
	b.AddConstraint(pi1.Not())
	b.AddConstraint(pi2.Not())
	g := b.Build()

	out := UnfoldType2(g)
	if out.NumConstrs != 0 {
		t.Fatalf("unfolded AIG should carry no constraints, got %d", out.NumConstrs)
	}
	if len(out.LOs) != 1 {
		t.Fatalf("expected a single shared bad register regardless of constraint count, got %d", len(out.LOs))
	}
}
