package clay

import "fmt"

// Instance is a fully initialized Clay code: a derived parameter set
// bound to its scalar MDS collaborators. It is safe for concurrent use;
// every operation is read-only over the Instance itself.
type Instance struct {
	Params *Params
	Layout *Layout
}

// Init derives and validates parameters from profile and builds the
// scalar MDS collaborators they require.
func Init(profile Profile) (*Instance, error) {
	p, err := deriveParams(profile)
	if err != nil {
		return nil, err
	}
	l, err := NewLayout(p)
	if err != nil {
		return nil, err
	}
	return &Instance{Params: p, Layout: l}, nil
}

// DataChunkCount returns k.
func (in *Instance) DataChunkCount() int { return in.Params.K }

// ParityChunkCount returns m.
func (in *Instance) ParityChunkCount() int { return in.Params.M }

// SubChunkCount returns alpha, the number of sub-chunks each chunk is
// split into.
func (in *Instance) SubChunkCount() int { return in.Params.Alpha }

// RequiresSubChunks reports whether this profile's alpha is greater
// than one, i.e. whether callers must think in terms of sub-chunks at
// all. Some profiles (q=1, the degenerate case where d=k) never
// shorten or sub-packetize and behave exactly like the underlying
// scalar code.
func (in *Instance) RequiresSubChunks() bool { return in.Params.Alpha > 1 }

// ChunkSize returns the per-chunk size in bytes for a stripe of
// stripeLen bytes, and validates that the stripe divides evenly across
// k chunks and each chunk's alpha sub-chunks.
func (in *Instance) ChunkSize(stripeLen int) (int, error) {
	p := in.Params
	unit := p.K * p.Alpha
	if stripeLen <= 0 || stripeLen%unit != 0 {
		return 0, misalignedInput(fmt.Errorf("stripe length %d is not a multiple of k*alpha=%d", stripeLen, unit))
	}
	return stripeLen / p.K, nil
}

func (in *Instance) subChunkSize(chunkSize int) (int, error) {
	p := in.Params
	if chunkSize <= 0 || chunkSize%p.Alpha != 0 {
		return 0, misalignedChunk(fmt.Errorf("chunk size %d is not a multiple of alpha=%d", chunkSize, p.Alpha))
	}
	return chunkSize / p.Alpha, nil
}

// Encode splits data into k data chunks and computes m parity chunks,
// in user chunk index order: chunks[0:k] are the data chunks (verbatim
// copies of data's k equal parts), chunks[k:k+m] are the computed parity
// chunks.
func (in *Instance) Encode(data []byte) ([][]byte, error) {
	p := in.Params
	chunkSize, err := in.ChunkSize(len(data))
	if err != nil {
		return nil, err
	}
	subSize, err := in.subChunkSize(chunkSize)
	if err != nil {
		return nil, err
	}

	known := make(map[planeNode][]byte)
	for i := 0; i < p.K; i++ {
		p.splitChunk(known, p.nodeOf(UserIndex(i)), data[i*chunkSize:(i+1)*chunkSize])
	}
	in.seedVirtualNodes(known, chunkSize)

	parity := make([]Node, 0, p.M)
	for i := 0; i < p.M; i++ {
		parity = append(parity, p.nodeOf(UserIndex(p.K+i)))
	}
	resolved, err := in.Layout.layeredSolve(known, parity, p.allPlanes(), subSize)
	if err != nil {
		return nil, err
	}

	chunks := make([][]byte, p.K+p.M)
	for i := 0; i < p.K; i++ {
		chunks[i] = append([]byte(nil), data[i*chunkSize:(i+1)*chunkSize]...)
	}
	for i := 0; i < p.M; i++ {
		chunks[p.K+i] = p.joinChunk(resolved, p.nodeOf(UserIndex(p.K+i)), subSize)
	}
	return chunks, nil
}

// seedVirtualNodes fills in the nu shortening nodes' coupled
// representation: always the all-zero chunk, on every plane.
func (in *Instance) seedVirtualNodes(known map[planeNode][]byte, chunkSize int) {
	p := in.Params
	zero := make([]byte, chunkSize)
	for n := p.K; n < p.K+p.Nu; n++ {
		p.splitChunk(known, Node(n), zero)
	}
}

// MinimumToDecode reports whether the available chunks can reconstruct
// every chunk named in want, and if so returns the helper set (a subset
// of available) the decode will actually read from.
func (in *Instance) MinimumToDecode(want, available []UserIndex) ([]UserIndex, error) {
	p := in.Params
	avail := make(map[UserIndex]bool, len(available))
	for _, u := range available {
		avail[u] = true
	}
	missing := 0
	for _, w := range want {
		if !avail[w] {
			missing++
		}
	}
	if missing > p.M {
		return nil, insufficientShares(len(available), p.K)
	}
	if len(available) < p.K {
		return nil, insufficientShares(len(available), p.K)
	}
	return append([]UserIndex{}, available...), nil
}

// Decode reconstructs every chunk named in want that is not already
// present in chunks, using every entry of chunks as helper data. All
// present chunks must share the same length.
func (in *Instance) Decode(chunks map[UserIndex][]byte, want []UserIndex) (map[UserIndex][]byte, error) {
	p := in.Params
	if len(chunks) < p.K {
		return nil, insufficientShares(len(chunks), p.K)
	}
	var chunkSize int
	for _, buf := range chunks {
		chunkSize = len(buf)
		break
	}
	subSize, err := in.subChunkSize(chunkSize)
	if err != nil {
		return nil, err
	}

	known := make(map[planeNode][]byte)
	for u, buf := range chunks {
		if len(buf) != chunkSize {
			return nil, misalignedChunk(fmt.Errorf("chunk %d has length %d, want %d", u, len(buf), chunkSize))
		}
		p.splitChunk(known, p.nodeOf(u), buf)
	}
	in.seedVirtualNodes(known, chunkSize)

	out := make(map[UserIndex][]byte, len(want))
	missingWanted := false
	for _, w := range want {
		if buf, ok := chunks[w]; ok {
			out[w] = buf
			continue
		}
		missingWanted = true
	}
	if !missingWanted {
		return out, nil
	}
	var erasedNodes []Node
	for i := 0; i < p.K+p.M; i++ {
		if _, ok := chunks[UserIndex(i)]; !ok {
			erasedNodes = append(erasedNodes, p.nodeOf(UserIndex(i)))
		}
	}
	if len(erasedNodes) > p.M {
		return nil, insufficientShares(len(chunks), p.K)
	}

	resolved, err := in.Layout.layeredSolve(known, erasedNodes, p.allPlanes(), subSize)
	if err != nil {
		return nil, err
	}
	for _, w := range want {
		if _, ok := out[w]; ok {
			continue
		}
		out[w] = p.joinChunk(resolved, p.nodeOf(w), subSize)
	}
	return out, nil
}

// DecodeConcat reconstructs every data chunk and returns them
// concatenated back into the original stripe.
func (in *Instance) DecodeConcat(chunks map[UserIndex][]byte) ([]byte, error) {
	p := in.Params
	want := make([]UserIndex, p.K)
	for i := range want {
		want[i] = UserIndex(i)
	}
	data, err := in.Decode(chunks, want)
	if err != nil {
		return nil, err
	}
	var chunkSize int
	for _, buf := range data {
		chunkSize = len(buf)
		break
	}
	out := make([]byte, 0, chunkSize*p.K)
	for i := 0; i < p.K; i++ {
		out = append(out, data[UserIndex(i)]...)
	}
	return out, nil
}

// RequiredRepairSubChunks reports, in user chunk index space, exactly
// which sub-chunk planes single-node repair of lost needs from each
// surviving node it names, given that aloof is unreachable.
func (in *Instance) RequiredRepairSubChunks(lost UserIndex, aloof []UserIndex) map[UserIndex][]int {
	p := in.Params
	aloofNodes := make([]Node, len(aloof))
	for i, u := range aloof {
		aloofNodes[i] = p.nodeOf(u)
	}
	byNode := in.Layout.RequiredRepairSubChunks(p.nodeOf(lost), aloofNodes)
	out := make(map[UserIndex][]int, len(byNode))
	for n, planes := range byNode {
		if u, ok := p.userIndexOf(n); ok {
			out[u] = planes
		}
	}
	return out
}

// RepairOne reconstructs a single lost chunk from partial helper data,
// keyed by user chunk index and plane. helperSubChunks must supply at
// least the planes RequiredRepairSubChunks named.
func (in *Instance) RepairOne(lost UserIndex, aloof []UserIndex, helperSubChunks map[UserIndex]map[int][]byte, chunkSize int) ([]byte, error) {
	p := in.Params
	subSize, err := in.subChunkSize(chunkSize)
	if err != nil {
		return nil, err
	}
	aloofNodes := make([]Node, len(aloof))
	for i, u := range aloof {
		aloofNodes[i] = p.nodeOf(u)
	}
	byNode := make(map[Node]map[int][]byte, len(helperSubChunks))
	for u, byPlane := range helperSubChunks {
		byNode[p.nodeOf(u)] = byPlane
	}
	return in.Layout.RepairOne(p.nodeOf(lost), aloofNodes, byNode, subSize)
}
