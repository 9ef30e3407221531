package constraints

import "sort"

// PairKind distinguishes the three primitive-pair kinds that generate a
// distance-barrier constraint row.
type PairKind int

const (
	// KindVertexEdge is a 2D vertex-edge pair.
	KindVertexEdge PairKind = iota
	// KindEdgeEdge is a 3D edge-edge pair.
	KindEdgeEdge
	// KindFaceVertex is a 3D face-vertex pair.
	KindFaceVertex
)

// PairKey identifies one candidate primitive pair, e.g. an edge id and a
// vertex id surviving broad-phase culling.
type PairKey struct {
	Kind PairKind
	IDA  int
	IDB  int
}

// Index assigns and remembers a stable constraint row per PairKey across
// time steps, so the solver's constraint Jacobian keeps a consistent row
// layout even as pairs enter and leave the broad-phase candidate set.
type Index struct {
	rows map[PairKey]int
	next int
}

// NewIndex returns an empty constraint index.
func NewIndex() *Index {
	return &Index{rows: make(map[PairKey]int)}
}

// GetConstraintIndex returns the row assigned to key, assigning the next
// available row on first use.
func (idx *Index) GetConstraintIndex(key PairKey) int {
	if row, ok := idx.rows[key]; ok {
		return row
	}
	row := idx.next
	idx.rows[key] = row
	idx.next++
	return row
}

// Len returns the number of distinct rows assigned so far.
func (idx *Index) Len() int {
	return idx.next
}

// Prune drops every key not present in active, compacting the remaining rows
// to [0, Len()) in a stable order (sorted by prior row index) so per-step
// Jacobians never carry stale rows for pairs that left the candidate set.
func (idx *Index) Prune(active map[PairKey]struct{}) {
	type entry struct {
		key PairKey
		row int
	}
	kept := make([]entry, 0, len(active))
	for k := range active {
		if row, ok := idx.rows[k]; ok {
			kept = append(kept, entry{key: k, row: row})
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].row < kept[j].row })

	idx.rows = make(map[PairKey]int, len(kept))
	for i, e := range kept {
		idx.rows[e.key] = i
	}
	idx.next = len(kept)
}
