package graph

import "github.com/RoaringBitmap/roaring"

// NewTrivialHashParams allocates the identity task_index_by_hash mapping
// ([0,1,...,N-1]) spec §4.B calls for when a parallel-union-all-style stage
// has no upstream Map to inherit column-shard hash params from.
func NewTrivialHashParams(n int) *HashShuffleParams {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return &HashShuffleParams{SourceShardCount: n, TaskIndexByHash: idx}
}

// mapCandidate is one upstream connection a downstream stage could inherit
// ColumnShardHashV1 params from: either the stage's last input, or any
// upstream Map connection.
type mapCandidate struct {
	isMap  bool
	params *HashShuffleParams
}

// PickShuffleEliminationSource resolves the Open Question spec §9 flags as
// ambiguous: when multiple Map inputs could donate ColumnShardHashV1 params,
// this picks the first one in declaration order. lastInput is the params
// inherited through the stage's last input and mapInputs those of its Map
// connections in declaration order; the first non-nil Map entry wins, per
// spec §4.B ("Map wins"), and lastInput is returned only when none is set.
func PickShuffleEliminationSource(lastInput *HashShuffleParams, mapInputs []*HashShuffleParams) *HashShuffleParams {
	for _, p := range mapInputs {
		if p != nil {
			return p
		}
	}
	return lastInput
}

// ActiveTaskIndices returns the set of downstream task indices that receive
// at least one hash bucket under params, using a roaring bitmap — a compact
// representation well suited to the dense small-integer task-index domain
// ColumnShardHashV1 partitions over.
func ActiveTaskIndices(params *HashShuffleParams) *roaring.Bitmap {
	bm := roaring.New()
	if params == nil {
		return bm
	}
	for _, idx := range params.TaskIndexByHash {
		bm.Add(uint32(idx))
	}
	return bm
}

// ValidateColumnShardHashV1 enforces spec §4.B / §8: key_column_types.len()
// must equal key_columns.len() for ColumnShardHashV1 outputs.
func ValidateColumnShardHashV1(keyColumns []string, keyColumnTypes []KeyType) error {
	if len(keyColumns) != len(keyColumnTypes) {
		return errHashArity(len(keyColumns), len(keyColumnTypes))
	}
	return nil
}
