package clay

// UserIndex is a caller-visible chunk index in [0, k+m), with no notion
// of the internal shortening nodes.
type UserIndex int

// Node is an internal node index in [0, k+m+nu), including the nu virtual
// zero nodes inserted by shortening. Nodes in [k, k+nu) never correspond
// to a UserIndex and never leave the core.
type Node int

// nodeOf maps a user chunk index to its internal node index: unchanged
// below k, shifted by nu at or above it to make room for the virtual
// shortening nodes.
func (p *Params) nodeOf(i UserIndex) Node {
	if int(i) < p.K {
		return Node(i)
	}
	return Node(int(i) + p.Nu)
}

// userIndexOf maps an internal node index back to a user chunk index. ok
// is false for the nu virtual nodes in [k, k+nu), which have no user
// visible counterpart.
func (p *Params) userIndexOf(n Node) (UserIndex, bool) {
	if int(n) < p.K {
		return UserIndex(n), true
	}
	if int(n) < p.K+p.Nu {
		return 0, false
	}
	return UserIndex(int(n) - p.Nu), true
}

// totalNodes is k+m+nu, the size of the internal node space, always a
// multiple of q.
func (p *Params) totalNodes() int { return p.K + p.M + p.Nu }

// isVirtual reports whether n is one of the nu shortening nodes.
func (p *Params) isVirtual(n Node) bool {
	return int(n) >= p.K && int(n) < p.K+p.Nu
}
