// Package mds wraps a scalar MDS erasure code as a plug-point collaborator.
// The Clay core treats the scalar code as a black box exposing encode and
// decode over fixed-size, equal-length byte shards; this package supplies
// the concrete "jerasure reed_sol_van" analogue used throughout the
// ecosystem: Reed-Solomon over GF(256) via klauspost/reedsolomon.
package mds

import (
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// ScalarCode is the contract the Clay core requires of its scalar MDS
// collaborators (both the main (k+ν, m) code and the (2, 2) pairwise
// coupling code). All shard slices passed to EncodeChunks/DecodeChunks
// must have equal, non-zero length.
type ScalarCode interface {
	// DataShards returns k'.
	DataShards() int
	// ParityShards returns m'.
	ParityShards() int
	// EncodeChunks fills shards[DataShards():] from shards[:DataShards()].
	EncodeChunks(shards [][]byte) error
	// DecodeChunks fills shards[e] for every e in erasures, using every
	// other entry of shards as known input. len(erasures) must not
	// exceed ParityShards().
	DecodeChunks(erasures []int, shards [][]byte) error
}

// ReedSolomon is a ScalarCode backed by klauspost/reedsolomon, the
// Vandermonde Reed-Solomon construction the Clay paper calls
// "jerasure reed_sol_van".
type ReedSolomon struct {
	enc  reedsolomon.Encoder
	k, m int
}

// New creates a ReedSolomon scalar MDS with k data shards and m parity
// shards over GF(256) (w=8, fixed per the Clay profile contract).
func New(k, m int) (*ReedSolomon, error) {
	if k <= 0 || m <= 0 {
		return nil, fmt.Errorf("mds: invalid shard counts: k=%d, m=%d", k, m)
	}
	enc, err := reedsolomon.New(k, m)
	if err != nil {
		return nil, fmt.Errorf("mds: create reed-solomon encoder: %w", err)
	}
	return &ReedSolomon{enc: enc, k: k, m: m}, nil
}

// DataShards returns k'.
func (r *ReedSolomon) DataShards() int { return r.k }

// ParityShards returns m'.
func (r *ReedSolomon) ParityShards() int { return r.m }

// EncodeChunks computes the m parity shards from the k data shards,
// in place.
func (r *ReedSolomon) EncodeChunks(shards [][]byte) error {
	if len(shards) != r.k+r.m {
		return fmt.Errorf("mds: expected %d shards, got %d", r.k+r.m, len(shards))
	}
	if err := r.enc.Encode(shards); err != nil {
		return fmt.Errorf("mds: encode parity shards: %w", err)
	}
	return nil
}

// DecodeChunks reconstructs every shard named in erasures from the
// remaining, known shards. Shards named in erasures must already be
// allocated to the correct length; their contents on entry are ignored.
func (r *ReedSolomon) DecodeChunks(erasures []int, shards [][]byte) error {
	if len(shards) != r.k+r.m {
		return fmt.Errorf("mds: expected %d shards, got %d", r.k+r.m, len(shards))
	}
	if len(erasures) > r.m {
		return fmt.Errorf("mds: %d erasures exceeds parity capacity %d", len(erasures), r.m)
	}

	work := make([][]byte, len(shards))
	copy(work, shards)
	erased := make(map[int]bool, len(erasures))
	for _, e := range erasures {
		erased[e] = true
		work[e] = nil
	}
	if err := r.enc.Reconstruct(work); err != nil {
		return fmt.Errorf("mds: reconstruct erasures %v: %w", erasures, err)
	}
	for e := range erased {
		if n := copy(shards[e], work[e]); n != len(shards[e]) {
			return fmt.Errorf("mds: reconstructed shard %d truncated: got %d of %d bytes", e, n, len(shards[e]))
		}
	}
	return nil
}
