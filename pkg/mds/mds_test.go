package mds

import (
	"bytes"
	"testing"
)

func shardsOf(t *testing.T, k, m, size int, fill byte) [][]byte {
	t.Helper()
	shards := make([][]byte, k+m)
	for i := 0; i < k+m; i++ {
		shards[i] = make([]byte, size)
	}
	for i := 0; i < k; i++ {
		for j := range shards[i] {
			shards[i][j] = fill + byte(i)
		}
	}
	return shards
}

func TestEncodeThenDecodeRoundTrip(t *testing.T) {
	code, err := New(4, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	shards := shardsOf(t, 4, 2, 16, 1)
	if err := code.EncodeChunks(shards); err != nil {
		t.Fatalf("EncodeChunks: %v", err)
	}

	want := make([][]byte, len(shards))
	for i, s := range shards {
		want[i] = append([]byte(nil), s...)
	}

	// Erase two shards and reconstruct.
	shards[1] = make([]byte, 16)
	shards[4] = make([]byte, 16)
	if err := code.DecodeChunks([]int{1, 4}, shards); err != nil {
		t.Fatalf("DecodeChunks: %v", err)
	}
	for i := range shards {
		if !bytes.Equal(shards[i], want[i]) {
			t.Errorf("shard %d mismatch: got %x, want %x", i, shards[i], want[i])
		}
	}
}

func TestPFTQuadrupleAnyTwoRecoverOther(t *testing.T) {
	pft, err := New(2, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	shards := shardsOf(t, 2, 2, 8, 5)
	if err := pft.EncodeChunks(shards); err != nil {
		t.Fatalf("EncodeChunks: %v", err)
	}
	original := make([][]byte, 4)
	for i, s := range shards {
		original[i] = append([]byte(nil), s...)
	}

	// Knowing positions {1,2}, recover {0,3}.
	work := make([][]byte, 4)
	work[1] = append([]byte(nil), original[1]...)
	work[2] = append([]byte(nil), original[2]...)
	work[0] = make([]byte, 8)
	work[3] = make([]byte, 8)
	if err := pft.DecodeChunks([]int{0, 3}, work); err != nil {
		t.Fatalf("DecodeChunks: %v", err)
	}
	if !bytes.Equal(work[0], original[0]) || !bytes.Equal(work[3], original[3]) {
		t.Fatalf("PFT quadruple did not invert: got %x/%x, want %x/%x", work[0], work[3], original[0], original[3])
	}
}

func TestDecodeChunksRejectsTooManyErasures(t *testing.T) {
	code, err := New(4, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	shards := shardsOf(t, 4, 2, 8, 0)
	if err := code.DecodeChunks([]int{0, 1, 2}, shards); err == nil {
		t.Fatalf("expected error for erasures exceeding parity capacity")
	}
}
