package clay

import (
	"fmt"

	"github.com/spool-labs/clay/pkg/mds"
)

// Layout binds a Params instance to its two scalar MDS collaborators:
// the main (k+nu, m) code that runs once per plane in uncoupled space,
// and the (2,2) pairwise transform that converts between coupled and
// uncoupled representations at holes.
type Layout struct {
	Params  *Params
	Main    mds.ScalarCode
	Coupler *Coupler
}

// NewLayout constructs the scalar MDS collaborators for p.
func NewLayout(p *Params) (*Layout, error) {
	main, err := mds.New(p.mdsK(), p.M)
	if err != nil {
		return nil, internalError(fmt.Errorf("create main scalar code: %w", err))
	}
	coupler, err := NewCoupler()
	if err != nil {
		return nil, err
	}
	return &Layout{Params: p, Main: main, Coupler: coupler}, nil
}

// planeNode identifies one sub-chunk: a node's value on one plane.
type planeNode struct {
	Node Node
	Z    int
}

// solver holds the mutable state of one solve: the coupled sub-chunks
// known so far (both the caller's input and whatever the solve derives
// along the way), which nodes are being solved for, and the caches that
// let plane resolution and coupling resolution proceed in either order
// without redoing work. It is addressed sparsely by (node, plane) so
// the same machinery serves both a full decode, which supplies every
// plane, and a single-node repair, which supplies only the planes the
// fast path actually needs.
type solver struct {
	layout       *Layout
	subChunkSize int
	coupled      map[planeNode][]byte
	erased       map[Node]bool
	uncoupled       map[planeNode][]byte
	inProgress      map[planeNode]bool
	planeSolved     map[int]bool
	planeInProgress map[int]bool
}

func newSolver(l *Layout, subChunkSize int, known map[planeNode][]byte, erased []Node) *solver {
	coupled := make(map[planeNode][]byte, len(known))
	for k, v := range known {
		coupled[k] = v
	}
	return &solver{
		layout:       l,
		subChunkSize: subChunkSize,
		coupled:      coupled,
		erased:       nodeSet(erased),
		uncoupled:       make(map[planeNode][]byte),
		inProgress:      make(map[planeNode]bool),
		planeSolved:     make(map[int]bool),
		planeInProgress: make(map[int]bool),
	}
}

func nodeSet(nodes []Node) map[Node]bool {
	m := make(map[Node]bool, len(nodes))
	for _, n := range nodes {
		m[n] = true
	}
	return m
}

// layeredSolve fills in the coupled sub-chunk of every erased node, for
// every plane in planes, given the coupled sub-chunks the caller
// already knows (in known). encode uses this over every plane with
// erasures set to the parity nodes; decode uses it over every plane
// with erasures set to whatever is actually missing. RepairOne does not
// call it: it drives the same solver directly over its repair planes.
// The returned map holds the sub-chunks of known plus every derived
// coupled sub-chunk; known itself is not modified.
func (l *Layout) layeredSolve(known map[planeNode][]byte, erased []Node, planes []int, subChunkSize int) (map[planeNode][]byte, error) {
	s := newSolver(l, subChunkSize, known, erased)
	order := l.Params.orderPlanes(planes, erased)
	for _, z := range order {
		if err := s.solvePlane(z); err != nil {
			return nil, err
		}
	}
	return s.coupled, nil
}

// orderPlanes sorts the given planes by the same ascending
// dot-erasure-count / hole-row-count schedule sequentialDecodingOrder
// uses, restricted to the requested subset.
func (p *Params) orderPlanes(planes []int, erasures []Node) []int {
	full := p.sequentialDecodingOrder(erasures)
	want := make(map[int]bool, len(planes))
	for _, z := range planes {
		want[z] = true
	}
	ordered := make([]int, 0, len(planes))
	for _, step := range full {
		if want[step.Z] {
			ordered = append(ordered, step.Z)
		}
	}
	return ordered
}

// solvePlane resolves every erased node's uncoupled value on plane z,
// running the main scalar code once over the plane's uncoupled row. It
// also sets the coupled value of every erased dot, and of every erased
// hole whose coupling partner is erased too and already solved (both
// halves of that pair at once). An erased hole whose partner is not
// erased gets its coupled value when uncoupledAt resolves that partner.
func (s *solver) solvePlane(z int) error {
	if s.planeSolved[z] {
		return nil
	}
	if s.planeInProgress[z] {
		return decodeFailed(z, fmt.Errorf("plane resolution cycle"))
	}
	s.planeInProgress[z] = true
	defer delete(s.planeInProgress, z)

	p := s.layout.Params
	total := p.totalNodes()
	shards := make([][]byte, total)
	var planeErasures []int
	for n := 0; n < total; n++ {
		node := Node(n)
		if s.erased[node] {
			shards[n] = make([]byte, s.subChunkSize)
			planeErasures = append(planeErasures, n)
			continue
		}
		v, err := s.uncoupledAt(node, z)
		if err != nil {
			return err
		}
		shards[n] = v
	}
	if len(planeErasures) > 0 {
		if err := s.layout.Main.DecodeChunks(planeErasures, shards); err != nil {
			return decodeFailed(z, err)
		}
	}
	s.planeSolved[z] = true

	vec := p.planeVector(z)
	for _, n := range planeErasures {
		node := Node(n)
		key := planeNode{node, z}
		s.uncoupled[key] = shards[n]
		if p.isDot(vec, node) {
			s.setCoupled(node, z, shards[n])
			continue
		}
		x, y := p.nodeXY(node)
		a, b := p.pairFor(z, y, x)
		an, bn := Node(y*p.Q+a.Col), Node(y*p.Q+b.Col)
		ua, okA := s.uncoupled[planeNode{an, a.Z}]
		ub, okB := s.uncoupled[planeNode{bn, b.Z}]
		if !s.erased[an] || !s.erased[bn] || !okA || !okB {
			continue
		}
		ca, cb, err := s.layout.Coupler.forwardFromUncoupled(ua, ub)
		if err != nil {
			return err
		}
		s.setCoupled(an, a.Z, ca)
		s.setCoupled(bn, b.Z, cb)
	}
	return nil
}

// uncoupledAt returns the uncoupled sub-chunk of node at plane z. Dots
// resolve trivially; an erased dot resolves by solving plane z first
// (recursively, with cycle detection). Holes resolve via the pairwise
// transform against their coupling partner: if the partner's coupled
// value is directly known, one call to complete finishes both; if the
// partner node is erased, its uncoupled value is taken from the earlier
// solve of its own plane (the plane schedule puts that plane first),
// and the call fails with an error if that value is not there.
func (s *solver) uncoupledAt(node Node, z int) ([]byte, error) {
	key := planeNode{node, z}
	if v, ok := s.uncoupled[key]; ok {
		return v, nil
	}
	p := s.layout.Params
	vec := p.planeVector(z)
	x, y := p.nodeXY(node)
	if vec[y] == x {
		if s.erased[node] {
			if err := s.solvePlane(z); err != nil {
				return nil, err
			}
			if v, ok := s.uncoupled[key]; ok {
				return v, nil
			}
			return nil, internalError(fmt.Errorf("plane %d solve did not resolve dot node %d", z, node))
		}
		v := s.getCoupled(node, z)
		if v == nil {
			return nil, internalError(fmt.Errorf("missing coupled data for dot node %d plane %d", node, z))
		}
		s.uncoupled[key] = v
		return v, nil
	}

	if s.inProgress[key] {
		return nil, decodeFailed(z, fmt.Errorf("coupling cycle resolving node %d", node))
	}
	s.inProgress[key] = true
	defer delete(s.inProgress, key)

	a, b := p.pairFor(z, y, x)
	local, partner := a, b
	if !(a.Col == x && a.Z == z) {
		local, partner = b, a
	}
	localNode := Node(y*p.Q + local.Col)
	partnerNode := Node(y*p.Q + partner.Col)

	known := make(map[int][]byte, 4)
	if v := s.getCoupled(localNode, local.Z); v != nil {
		known[slotCoupledA] = v
	}
	if v := s.getCoupled(partnerNode, partner.Z); v != nil {
		known[slotCoupledB] = v
	} else if !s.erased[partnerNode] {
		return nil, internalError(fmt.Errorf("missing coupled data for non-erased partner node %d plane %d", partnerNode, partner.Z))
	} else {
		pu, err := s.uncoupledAt(partnerNode, partner.Z)
		if err != nil {
			return nil, err
		}
		known[slotUncoupledB] = pu
	}
	if len(known) < 2 {
		return nil, internalError(fmt.Errorf("insufficient known slots resolving node %d plane %d", node, z))
	}

	full, err := s.layout.Coupler.complete(known, s.subChunkSize)
	if err != nil {
		return nil, err
	}
	s.uncoupled[planeNode{localNode, local.Z}] = full[slotUncoupledA]
	s.uncoupled[planeNode{partnerNode, partner.Z}] = full[slotUncoupledB]
	if s.erased[partnerNode] {
		s.setCoupled(partnerNode, partner.Z, full[slotCoupledB])
	}
	if s.erased[localNode] {
		s.setCoupled(localNode, local.Z, full[slotCoupledA])
	}
	return s.uncoupled[key], nil
}

func (s *solver) getCoupled(node Node, z int) []byte {
	return s.coupled[planeNode{node, z}]
}

func (s *solver) setCoupled(node Node, z int, val []byte) {
	s.coupled[planeNode{node, z}] = val
}

// allPlanes returns every plane index in [0, Alpha).
func (p *Params) allPlanes() []int {
	planes := make([]int, p.Alpha)
	for i := range planes {
		planes[i] = i
	}
	return planes
}

// splitChunk records every per-plane sub-chunk of a node's full chunk
// buffer into dst.
func (p *Params) splitChunk(dst map[planeNode][]byte, node Node, buf []byte) {
	size := len(buf) / p.Alpha
	for z := 0; z < p.Alpha; z++ {
		dst[planeNode{node, z}] = buf[z*size : (z+1)*size]
	}
}

// joinChunk assembles a node's full chunk buffer from its per-plane
// sub-chunks, in ascending plane order. Planes absent from src are left
// zeroed.
func (p *Params) joinChunk(src map[planeNode][]byte, node Node, subChunkSize int) []byte {
	buf := make([]byte, p.Alpha*subChunkSize)
	for z := 0; z < p.Alpha; z++ {
		if v, ok := src[planeNode{node, z}]; ok {
			copy(buf[z*subChunkSize:(z+1)*subChunkSize], v)
		}
	}
	return buf
}
