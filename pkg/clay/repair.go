package clay

import "fmt"

// RequiredRepairSubChunks reports, for every node eligible to help repair
// lost (every node except lost, aloof, and the shortening virtuals,
// which are seeded internally), the fixed set of alpha/q planes
// single-node repair needs from it: repairPlanes(lost), the planes on
// which lost itself is a dot. Every eligible helper supplies exactly
// this same list, packed consecutively, which is what keeps the repair
// bandwidth at alpha/q sub-chunks per helper instead of a full chunk.
func (l *Layout) RequiredRepairSubChunks(lost Node, aloof []Node) map[Node][]int {
	p := l.Params
	planes := p.repairPlanes(lost)
	excluded := nodeSet(aloof)
	excluded[lost] = true

	out := make(map[Node][]int, p.totalNodes()-1-len(aloof))
	for n := 0; n < p.totalNodes(); n++ {
		node := Node(n)
		if excluded[node] || p.isVirtual(node) {
			continue
		}
		out[node] = append([]int(nil), planes...)
	}
	return out
}

// RepairOne reconstructs the full coupled chunk of a single lost node
// using Clay's MSR single-node repair: every other node in lost's row
// must be present in helperSubChunks (the shortening virtuals are
// exempt, seeded as zero automatically); aloof names any further
// helpers that are unreachable. helperSubChunks must supply at least
// the planes RequiredRepairSubChunks(lost, aloof) named for each node it
// covers; a superset (e.g. whole chunks) also works.
//
// The alpha/q planes on which lost is a dot are read straight out of the
// row's MDS solve. The remaining (q-1)*alpha/q planes are never fetched
// from anywhere: they are derived afterward by running the pairwise
// transform backward against each row-mate's own (already-known)
// coupled value and its freshly solved uncoupled value.
func (l *Layout) RepairOne(lost Node, aloof []Node, helperSubChunks map[Node]map[int][]byte, subChunkSize int) ([]byte, error) {
	p := l.Params
	lx, ly := p.nodeXY(lost)

	rowPeers := make([]Node, 0, p.Q-1)
	for x := 0; x < p.Q; x++ {
		if x == lx {
			continue
		}
		rowPeers = append(rowPeers, Node(ly*p.Q+x))
	}
	for _, peer := range rowPeers {
		if p.isVirtual(peer) {
			continue
		}
		if _, ok := helperSubChunks[peer]; !ok {
			return nil, internalError(fmt.Errorf("repair: missing row helper %d for lost node %d", peer, lost))
		}
	}

	planes := p.repairPlanes(lost)
	erased := append([]Node{lost}, rowPeers...)
	erased = append(erased, aloof...)
	erasedSet := nodeSet(erased)

	known := make(map[planeNode][]byte)
	for node, byPlane := range helperSubChunks {
		for z, buf := range byPlane {
			known[planeNode{node, z}] = buf
		}
	}
	zero := make([]byte, subChunkSize)
	for n := 0; n < p.totalNodes(); n++ {
		node := Node(n)
		if !p.isVirtual(node) || erasedSet[node] {
			continue
		}
		for _, z := range planes {
			known[planeNode{node, z}] = zero
		}
	}
	for _, peer := range rowPeers {
		if p.isVirtual(peer) {
			for _, z := range planes {
				known[planeNode{peer, z}] = zero
			}
		}
	}

	s := newSolver(l, subChunkSize, known, erased)
	for _, z := range p.orderPlanes(planes, erased) {
		if err := s.solvePlane(z); err != nil {
			return nil, err
		}
	}

	result := make(map[planeNode][]byte, p.Alpha)
	for _, z := range planes {
		direct := s.getCoupled(lost, z)
		if direct == nil {
			return nil, internalError(fmt.Errorf("repair: plane %d did not resolve lost node %d directly", z, lost))
		}
		result[planeNode{lost, z}] = direct

		for _, peer := range rowPeers {
			cPeer := s.getCoupled(peer, z)
			uPeer, ok := s.uncoupled[planeNode{peer, z}]
			if cPeer == nil || !ok {
				continue // peer unavailable at this plane; its complementary plane stays unrecoverable via this route
			}
			px, _ := p.nodeXY(peer)
			a, b := p.pairFor(z, ly, px)
			partner := b
			if !(a.Col == px && a.Z == z) {
				partner = a
			}
			full, err := l.Coupler.complete(map[int][]byte{slotUncoupledA: uPeer, slotCoupledA: cPeer}, subChunkSize)
			if err != nil {
				return nil, err
			}
			result[planeNode{lost, partner.Z}] = full[slotCoupledB]
		}
	}

	return p.joinChunk(result, lost, subChunkSize), nil
}

// IsRepair reports whether a request naming lostCount missing chunks
// and availableHelpers surviving ones qualifies for the single-node
// repair fast path, rather than a general decode: exactly one lost
// chunk, and enough helpers to meet the code's helper count d.
func (p *Params) IsRepair(lostCount, availableHelpers int) bool {
	return lostCount == 1 && availableHelpers >= p.D
}

// RepairHelperCandidates lists every node other than lost, in ascending
// order, as the pool a caller may draw its d helpers from.
func (p *Params) RepairHelperCandidates(lost Node) []Node {
	candidates := make([]Node, 0, p.totalNodes()-1)
	for n := 0; n < p.totalNodes(); n++ {
		if Node(n) != lost {
			candidates = append(candidates, Node(n))
		}
	}
	return candidates
}
