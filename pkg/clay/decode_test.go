package clay

import (
	"bytes"
	"testing"
)

func newTestLayout(t *testing.T) (*Params, *Layout) {
	t.Helper()
	p, err := deriveParams(Profile{"k": "4", "m": "2", "d": "5"})
	if err != nil {
		t.Fatalf("deriveParams: %v", err)
	}
	l, err := NewLayout(p)
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	return p, l
}

func TestLayeredSolveEncodeThenDecode(t *testing.T) {
	p, l := newTestLayout(t)
	const subChunkSize = 4

	dataChunks := make(map[Node][]byte, p.K)
	for i := 0; i < p.K; i++ {
		node := p.nodeOf(UserIndex(i))
		buf := make([]byte, p.Alpha*subChunkSize)
		for j := range buf {
			buf[j] = byte(i*17 + j)
		}
		dataChunks[node] = buf
	}

	known := make(map[planeNode][]byte)
	for node, buf := range dataChunks {
		p.splitChunk(known, node, buf)
	}

	var parity []Node
	for i := p.K; i < p.K+p.M; i++ {
		parity = append(parity, p.nodeOf(UserIndex(i)))
	}
	resolved, err := l.layeredSolve(known, parity, p.allPlanes(), subChunkSize)
	if err != nil {
		t.Fatalf("encode via layeredSolve: %v", err)
	}

	allNodes := append([]Node{}, parity...)
	for node := range dataChunks {
		allNodes = append(allNodes, node)
	}
	original := make(map[Node][]byte, len(allNodes))
	for _, node := range allNodes {
		original[node] = p.joinChunk(resolved, node, subChunkSize)
	}

	lostA := p.nodeOf(0)
	lostB := p.nodeOf(UserIndex(p.K + p.M - 1))
	decodeKnown := make(map[planeNode][]byte)
	for node, buf := range original {
		if node == lostA || node == lostB {
			continue
		}
		p.splitChunk(decodeKnown, node, buf)
	}
	decoded, err := l.layeredSolve(decodeKnown, []Node{lostA, lostB}, p.allPlanes(), subChunkSize)
	if err != nil {
		t.Fatalf("decode via layeredSolve: %v", err)
	}

	gotA := p.joinChunk(decoded, lostA, subChunkSize)
	gotB := p.joinChunk(decoded, lostB, subChunkSize)
	if !bytes.Equal(gotA, original[lostA]) {
		t.Errorf("node %d mismatch after decode", lostA)
	}
	if !bytes.Equal(gotB, original[lostB]) {
		t.Errorf("node %d mismatch after decode", lostB)
	}
}
