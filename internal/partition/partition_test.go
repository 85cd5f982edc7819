package partition

import (
	"context"
	"testing"

	"github.com/ssw-eda/ssw/internal/aig"
	"github.com/ssw-eda/ssw/internal/config"
	"github.com/ssw-eda/ssw/internal/sswerr"
)

func buildThreeRegisterAIG() *aig.AIG {
	b := aig.NewBuilder()
	pi := b.PI()
	for i := 0; i < 3; i++ {
		_, reg := b.Latch()
		b.SetLatchInput(reg, pi)
	}
	return b.Build()
}

func TestSlicePartitionsRegistersIntoWindows(t *testing.T) {
	g := buildThreeRegisterAIG()
	parts := Slice(g, 2, 0)
	if len(parts) != 2 {
		t.Fatalf("got %d partitions, want 2", len(parts))
	}
	if len(parts[0].Sub.LOs) != 2 {
		t.Fatalf("first partition has %d registers, want 2", len(parts[0].Sub.LOs))
	}
	if len(parts[1].Sub.LOs) != 1 {
		t.Fatalf("second partition has %d registers, want 1", len(parts[1].Sub.LOs))
	}
}

func TestSliceFoldsUndersizedTrailingWindow(t *testing.T) {
	g := buildThreeRegisterAIG()
	parts := Slice(g, 2, 2)
	if len(parts) != 1 {
		t.Fatalf("got %d partitions, want 1 (trailing window of 1 < minDomSize 2 should fold back)", len(parts))
	}
	if len(parts[0].Sub.LOs) != 3 {
		t.Fatalf("folded partition has %d registers, want 3", len(parts[0].Sub.LOs))
	}
}

func TestRunRejectsConstraints(t *testing.T) {
	b := aig.NewBuilder()
	pi := b.PI()
	b.AddPO(pi)
	b.AddConstraint(pi.Not())
	g := b.Build()

	_, err := Run(context.Background(), g, config.NewDefaultPars(), nil, 1, 1)
	if err == nil {
		t.Fatalf("expected an UnsupportedCombo error, got nil")
	}
	sErr, ok := err.(*sswerr.Error)
	if !ok {
		t.Fatalf("expected *sswerr.Error, got %T", err)
	}
	if sErr.Kind != sswerr.KindUnsupportedCombo {
		t.Fatalf("Kind = %v, want KindUnsupportedCombo", sErr.Kind)
	}
}

func TestRunLiftsEquivalenceWithinPartition(t *testing.T) {
	b := aig.NewBuilder()
	a := b.PI()
	c := b.PI()
	n1 := b.And(a, c)
	n2 := b.And(n1, a) // always equal to n1
	_, reg := b.Latch()
	b.SetLatchInput(reg, n2)
	g := b.Build()

	merged, err := Run(context.Background(), g, config.NewDefaultPars(), nil, 1, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repr, ok := merged[n2.ID()]; !ok || repr != n1.ID() {
		t.Fatalf("expected n2 -> n1 in the lifted map, got %v (ok=%v)", repr, ok)
	}
}
