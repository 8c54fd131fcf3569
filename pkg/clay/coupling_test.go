package clay

import (
	"bytes"
	"testing"
)

func TestCouplerForwardReverseRoundTrip(t *testing.T) {
	c, err := NewCoupler()
	if err != nil {
		t.Fatalf("NewCoupler: %v", err)
	}
	ua := []byte{1, 2, 3, 4}
	ub := []byte{5, 6, 7, 8}
	ca, cb, err := c.forwardFromUncoupled(ua, ub)
	if err != nil {
		t.Fatalf("forwardFromUncoupled: %v", err)
	}
	gotA, gotB, err := c.reverseFromCoupled(ca, cb)
	if err != nil {
		t.Fatalf("reverseFromCoupled: %v", err)
	}
	if !bytes.Equal(gotA, ua) || !bytes.Equal(gotB, ub) {
		t.Fatalf("round trip mismatch: got %x/%x, want %x/%x", gotA, gotB, ua, ub)
	}
}

func TestCouplerCompletePartialKnown(t *testing.T) {
	c, err := NewCoupler()
	if err != nil {
		t.Fatalf("NewCoupler: %v", err)
	}
	ua := []byte{9, 9, 9}
	ub := []byte{1, 1, 1}
	ca, cb, err := c.forwardFromUncoupled(ua, ub)
	if err != nil {
		t.Fatalf("forwardFromUncoupled: %v", err)
	}

	// Known: uncoupledA and coupledB. Recover uncoupledB and coupledA.
	full, err := c.complete(map[int][]byte{
		slotUncoupledA: ua,
		slotCoupledB:   cb,
	}, 3)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !bytes.Equal(full[slotUncoupledB], ub) {
		t.Errorf("uncoupledB = %x, want %x", full[slotUncoupledB], ub)
	}
	if !bytes.Equal(full[slotCoupledA], ca) {
		t.Errorf("coupledA = %x, want %x", full[slotCoupledA], ca)
	}
}

func TestPairForSymmetric(t *testing.T) {
	p := &Params{Q: 3, T: 2}
	// row 1, z = 1*3+2 = 5 -> vec = [1,2], dot digit d=2 for row1.
	z := 5
	x := 0 // hole column
	a, b := p.pairFor(z, 1, x)
	if a.Col != 0 || b.Col != 2 {
		t.Fatalf("pairFor(5,1,0) = a=%v b=%v, want a.Col=0 b.Col=2", a, b)
	}
	// Approaching from the mirror plane b.Z with hole column b.Col should
	// yield the same canonical pair.
	a2, b2 := p.pairFor(b.Z, 1, b.Col)
	if a2 != a || b2 != b {
		t.Fatalf("pairFor not symmetric: from z=%d got a=%v b=%v, from mirror got a=%v b=%v", z, a, b, a2, b2)
	}
}
