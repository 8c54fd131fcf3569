package clay

import "testing"

func TestPlaneVectorMSBFirst(t *testing.T) {
	p := &Params{Q: 3, T: 2}
	// z=0..8 covers every 2-digit base-3 combination.
	for z := 0; z < 9; z++ {
		vec := p.planeVector(z)
		if len(vec) != 2 {
			t.Fatalf("z=%d: len(vec) = %d, want 2", z, len(vec))
		}
		want := z / 3 // MSB is the coefficient of q^(t-1) = q^1
		if vec[0] != want {
			t.Errorf("z=%d: vec[0] = %d, want %d", z, vec[0], want)
		}
		if vec[1] != z%3 {
			t.Errorf("z=%d: vec[1] = %d, want %d", z, vec[1], z%3)
		}
	}
}

func TestNodeXYAndIsDot(t *testing.T) {
	p := &Params{Q: 3, T: 2}
	// node 4 -> x=1, y=1
	x, y := p.nodeXY(Node(4))
	if x != 1 || y != 1 {
		t.Fatalf("nodeXY(4) = (%d,%d), want (1,1)", x, y)
	}
	vec := []int{2, 1} // row0 dot at x=2, row1 dot at x=1
	if !p.isDot(vec, Node(4)) {
		t.Errorf("expected node 4 to be a dot on vec %v", vec)
	}
	if p.isDot(vec, Node(3)) { // x=0,y=1
		t.Errorf("expected node 3 to be a hole on vec %v", vec)
	}
}

func TestSequentialDecodingOrderCoversAllPlanes(t *testing.T) {
	p, err := deriveParams(Profile{"k": "4", "m": "2", "d": "5"})
	if err != nil {
		t.Fatalf("deriveParams: %v", err)
	}
	erasures := []Node{p.nodeOf(0), p.nodeOf(5)}
	steps := p.sequentialDecodingOrder(erasures)
	if len(steps) != p.Alpha {
		t.Fatalf("len(steps) = %d, want %d", len(steps), p.Alpha)
	}
	seen := make(map[int]bool)
	for _, s := range steps {
		seen[s.Z] = true
	}
	if len(seen) != p.Alpha {
		t.Fatalf("schedule does not cover every plane exactly once: got %d distinct", len(seen))
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].Order < steps[i-1].Order {
			t.Fatalf("schedule not sorted ascending by Order at index %d", i)
		}
	}
}

func TestRepairPlanesAreDotsForLostNode(t *testing.T) {
	p, err := deriveParams(Profile{"k": "4", "m": "2", "d": "5"})
	if err != nil {
		t.Fatalf("deriveParams: %v", err)
	}
	lost := p.nodeOf(2)
	planes := p.repairPlanes(lost)
	lx, ly := p.nodeXY(lost)
	for _, z := range planes {
		vec := p.planeVector(z)
		if vec[ly] != lx {
			t.Fatalf("plane %d has lost node as a hole, not a dot", z)
		}
	}
	if len(planes) != p.Alpha/p.Q {
		t.Fatalf("len(planes) = %d, want %d", len(planes), p.Alpha/p.Q)
	}
}
