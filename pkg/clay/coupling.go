package clay

import (
	"fmt"

	"github.com/spool-labs/clay/pkg/mds"
)

// Slot indices into the (2,2) pairwise transform: the two uncoupled
// sub-chunks are the code's data positions, the two coupled sub-chunks
// are its parity positions.
const (
	slotUncoupledA = 0
	slotUncoupledB = 1
	slotCoupledA   = 2
	slotCoupledB   = 3
)

// nodePlane names one (column, plane) cell of the q-by-t grid.
type nodePlane struct {
	Col int
	Z   int
}

// Coupler is the pairwise forward/reverse transform (PFT) engine: a
// literal (2,2) scalar MDS instance, never hand-rolled Galois field
// arithmetic. Every coupled/uncoupled relation the layered decoder and
// the repair fast path need reduces to a call through this type.
type Coupler struct {
	pft mds.ScalarCode
}

// NewCoupler builds the (2,2) scalar code the pairwise transform is
// defined over.
func NewCoupler() (*Coupler, error) {
	pft, err := mds.New(2, 2)
	if err != nil {
		return nil, internalError(fmt.Errorf("create pairwise transform code: %w", err))
	}
	return &Coupler{pft: pft}, nil
}

// rowWeight is the place value of row y's digit in the base-q
// representation of a plane index.
func (p *Params) rowWeight(y int) int { return intPow(p.Q, p.T-1-y) }

// pairFor computes the canonical coupling pair for the hole at column x,
// row y, on plane z: the two (column, plane) cells related by the
// pairwise transform. a is always the cell whose column is the lower of
// {x, d}, where d is z's dot digit for row y; b is the cell with the
// higher column. This canonicalization is what the "index swap based on
// the sign of d-x" amounts to: which physical node lands in the a slot
// versus the b slot flips with that sign, but a and b always resolve to
// the same two cells regardless of which of the pair the caller started
// from.
func (p *Params) pairFor(z, y, x int) (a, b nodePlane) {
	vec := p.planeVector(z)
	d := vec[y]
	w := p.rowWeight(y)
	base := z - d*w
	lo, hi := x, d
	if d < x {
		lo, hi = d, x
	}
	return nodePlane{Col: lo, Z: base + hi*w}, nodePlane{Col: hi, Z: base + lo*w}
}

// forwardFromUncoupled computes the coupled pair from the uncoupled
// pair.
func (c *Coupler) forwardFromUncoupled(uncoupledA, uncoupledB []byte) (coupledA, coupledB []byte, err error) {
	size := len(uncoupledA)
	shards := [][]byte{
		append([]byte(nil), uncoupledA...),
		append([]byte(nil), uncoupledB...),
		make([]byte, size),
		make([]byte, size),
	}
	if err := c.pft.EncodeChunks(shards); err != nil {
		return nil, nil, internalError(fmt.Errorf("pairwise forward transform: %w", err))
	}
	return shards[slotCoupledA], shards[slotCoupledB], nil
}

// reverseFromCoupled computes the uncoupled pair from the coupled pair.
func (c *Coupler) reverseFromCoupled(coupledA, coupledB []byte) (uncoupledA, uncoupledB []byte, err error) {
	size := len(coupledA)
	shards := [][]byte{
		make([]byte, size),
		make([]byte, size),
		append([]byte(nil), coupledA...),
		append([]byte(nil), coupledB...),
	}
	if err := c.pft.DecodeChunks([]int{slotUncoupledA, slotUncoupledB}, shards); err != nil {
		return nil, nil, internalError(fmt.Errorf("pairwise reverse transform: %w", err))
	}
	return shards[slotUncoupledA], shards[slotUncoupledB], nil
}

// complete solves for every slot missing from known, given the slots
// present. It is the general form used when the layered decoder has
// only a partial view of a coupling pair: one coupled half from one
// plane's MDS solve, one uncoupled half from another. Any subset of the
// four slots (up to 2 missing) determines the rest, by the same MDS
// property mds.ScalarCode.DecodeChunks relies on elsewhere.
func (c *Coupler) complete(known map[int][]byte, size int) (map[int][]byte, error) {
	shards := make([][]byte, 4)
	var erasures []int
	for i := 0; i < 4; i++ {
		if v, ok := known[i]; ok {
			shards[i] = append([]byte(nil), v...)
		} else {
			shards[i] = make([]byte, size)
			erasures = append(erasures, i)
		}
	}
	if len(erasures) == 0 {
		return known, nil
	}
	if len(erasures) > 2 {
		return nil, internalError(fmt.Errorf("pairwise transform: %d of 4 slots unknown", len(erasures)))
	}
	if err := c.pft.DecodeChunks(erasures, shards); err != nil {
		return nil, internalError(fmt.Errorf("pairwise transform completion: %w", err))
	}
	out := make(map[int][]byte, 4)
	for i, s := range shards {
		out[i] = s
	}
	return out, nil
}
