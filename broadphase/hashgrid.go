// Package broadphase implements the uniform-cell spatial hash that culls the
// O(n^2) primitive-pair space down to a candidate set whose swept AABBs
// actually overlap, plus the rigid-body specialization that sizes and fills
// the grid from screw-motion interval sweeps.
package broadphase

import (
	"math"
	"sort"

	"github.com/rigidccd/ccdcore/ccderrors"
	"github.com/rigidccd/ccdcore/spatialmath"
)

// PrimitiveKind distinguishes the three primitive buckets a HashGrid
// indexes.
type PrimitiveKind int

const (
	// KindVertex indexes point primitives.
	KindVertex PrimitiveKind = iota
	// KindEdge indexes 2-vertex primitives.
	KindEdge
	// KindFace indexes 3-vertex (triangle) primitives.
	KindFace
)

// HashItem is one primitive's cell membership: key encodes the grid cell, id
// identifies the primitive, and aabb is its swept bounding box.
type HashItem struct {
	Key  int64
	ID   int
	AABB spatialmath.AABB
	// GroupID partitions primitives into bodies that never collide with
	// their own group; a negative GroupID means "no group" (always eligible).
	GroupID int
}

// HashGrid is a uniform 3D cell hash mapping AABBs to cell-key buckets.
type HashGrid struct {
	CellSize float64
	GridSize int64
	Domain   spatialmath.AABB

	vertexItems []HashItem
	edgeItems   []HashItem
	faceItems   []HashItem
}

// Clear empties every bucket, keeping the current sizing.
func (g *HashGrid) Clear() {
	g.vertexItems = g.vertexItems[:0]
	g.edgeItems = g.edgeItems[:0]
	g.faceItems = g.faceItems[:0]
}

// Resize sets the grid's domain and cell size, and derives GridSize so that
// gridSize^3 cell keys are representable as a single non-negative integer.
func (g *HashGrid) Resize(domain spatialmath.AABB, cellSize float64) error {
	if cellSize <= 0 {
		return ccderrors.NewInputValidationError("hash grid cell size must be > 0, got %g", cellSize)
	}
	extent := domain.Max.Sub(domain.Min)
	maxExtent := math.Max(extent.X, math.Max(extent.Y, extent.Z))
	g.GridSize = int64(math.Ceil(maxExtent/cellSize)) + 1
	g.CellSize = cellSize
	g.Domain = domain
	g.Clear()
	return nil
}

// ResizeForLinearSweep computes cellSize from the mean edge length and mean
// per-vertex displacement between t0 and t1, then calls Resize.
func (g *HashGrid) ResizeForLinearSweep(domain spatialmath.AABB, verticesT0, verticesT1 [][3]float64, edges [][2]int, inflation float64) error {
	meanEdge := meanEdgeLength(verticesT0, edges)
	meanDisp := meanDisplacement(verticesT0, verticesT1)
	cellSize := math.Max(meanEdge, meanDisp) + inflation
	if cellSize <= 0 {
		cellSize = inflation
		if cellSize <= 0 {
			cellSize = 1e-6
		}
	}
	return g.Resize(domain, cellSize)
}

func meanEdgeLength(vertices [][3]float64, edges [][2]int) float64 {
	if len(edges) == 0 {
		return 0
	}
	total := 0.0
	for _, e := range edges {
		p0, p1 := vertices[e[0]], vertices[e[1]]
		dx, dy, dz := p0[0]-p1[0], p0[1]-p1[1], p0[2]-p1[2]
		total += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return total / float64(len(edges))
}

func meanDisplacement(v0, v1 [][3]float64) float64 {
	if len(v0) == 0 {
		return 0
	}
	total := 0.0
	for i := range v0 {
		dx, dy, dz := v1[i][0]-v0[i][0], v1[i][1]-v0[i][1], v1[i][2]-v0[i][2]
		total += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return total / float64(len(v0))
}

// cellSpan returns the inclusive [lo,hi] integer cell range an AABB spans on
// one axis, clamped to [0, GridSize).
func (g *HashGrid) cellSpan(minV, maxV, domainMin float64) (int64, int64) {
	lo := int64(math.Floor((minV - domainMin) / g.CellSize))
	hi := int64(math.Floor((maxV - domainMin) / g.CellSize))
	if lo < 0 {
		lo = 0
	}
	if hi >= g.GridSize {
		hi = g.GridSize - 1
	}
	if hi < 0 {
		hi = 0
	}
	if lo >= g.GridSize {
		lo = g.GridSize - 1
	}
	return lo, hi
}

func (g *HashGrid) cellKey(x, y, z int64) int64 {
	return (z*g.GridSize+y)*g.GridSize + x
}

// Insert emits one HashItem per cell the AABB spans, into the bucket
// selected by kind.
func (g *HashGrid) Insert(kind PrimitiveKind, id int, groupID int, box spatialmath.AABB) error {
	if g.GridSize == 0 {
		return ccderrors.NewCapacityError("hash grid not sized before insertion")
	}
	xLo, xHi := g.cellSpan(box.Min.X, box.Max.X, g.Domain.Min.X)
	yLo, yHi := g.cellSpan(box.Min.Y, box.Max.Y, g.Domain.Min.Y)
	zLo, zHi := g.cellSpan(box.Min.Z, box.Max.Z, g.Domain.Min.Z)
	if box.Dim == 2 {
		zLo, zHi = 0, 0
	}

	items := g.bucket(kind)
	for z := zLo; z <= zHi; z++ {
		for y := yLo; y <= yHi; y++ {
			for x := xLo; x <= xHi; x++ {
				*items = append(*items, HashItem{
					Key:     g.cellKey(x, y, z),
					ID:      id,
					AABB:    box,
					GroupID: groupID,
				})
			}
		}
	}
	return nil
}

func (g *HashGrid) bucket(kind PrimitiveKind) *[]HashItem {
	switch kind {
	case KindVertex:
		return &g.vertexItems
	case KindEdge:
		return &g.edgeItems
	case KindFace:
		return &g.faceItems
	default:
		panic("broadphase: unknown primitive kind")
	}
}

// Items returns the current contents of the given bucket, for inspection or
// custom candidate extraction.
func (g *HashGrid) Items(kind PrimitiveKind) []HashItem {
	return *g.bucket(kind)
}

// Pair is a candidate primitive pair that survived broad-phase culling:
// overlapping swept AABBs, differing group IDs, and (for same-kind pairs)
// differing ids.
type Pair struct {
	IDA, IDB int
}

// Candidates extracts candidate pairs between bucket X and bucket Y (which
// may be the same slice, for same-kind self-pairs like edge-edge): sort both
// by key, cross the items sharing a cell, and dedup by (idA,idB) at the end.
// sameKind suppresses id==id self-pairs.
func Candidates(bx, by []HashItem, sameKind bool) []Pair {
	x := append([]HashItem(nil), bx...)
	y := append([]HashItem(nil), by...)
	sort.Slice(x, func(i, j int) bool { return x[i].Key < x[j].Key || (x[i].Key == x[j].Key && x[i].ID < x[j].ID) })
	sort.Slice(y, func(i, j int) bool { return y[i].Key < y[j].Key || (y[i].Key == y[j].Key && y[i].ID < y[j].ID) })

	seen := make(map[Pair]struct{})
	var out []Pair

	i, j := 0, 0
	for i < len(x) && j < len(y) {
		switch {
		case x[i].Key < y[j].Key:
			i++
		case x[i].Key > y[j].Key:
			j++
		default:
			key := x[i].Key
			iEnd, jEnd := i, j
			for iEnd < len(x) && x[iEnd].Key == key {
				iEnd++
			}
			for jEnd < len(y) && y[jEnd].Key == key {
				jEnd++
			}
			for a := i; a < iEnd; a++ {
				for b := j; b < jEnd; b++ {
					emitPair(x[a], y[b], sameKind, seen, &out)
				}
			}
			i, j = iEnd, jEnd
		}
	}
	return out
}

func emitPair(a, b HashItem, sameKind bool, seen map[Pair]struct{}, out *[]Pair) {
	if sameKind && a.ID == b.ID {
		return
	}
	if a.GroupID >= 0 && a.GroupID == b.GroupID {
		return
	}
	if !spatialmath.Overlap(a.AABB, b.AABB) {
		return
	}
	ida, idb := a.ID, b.ID
	if sameKind && ida > idb {
		ida, idb = idb, ida
	}
	p := Pair{IDA: ida, IDB: idb}
	if _, dup := seen[p]; dup {
		return
	}
	seen[p] = struct{}{}
	*out = append(*out, p)
}

// Candidates returns self-pair candidates within a single bucket, deduped
// with IDA < IDB.
func (g *HashGrid) Candidates(kind PrimitiveKind) []Pair {
	items := g.Items(kind)
	return Candidates(items, items, true)
}

// EdgeVertexCandidates returns EV candidate pairs.
func (g *HashGrid) EdgeVertexCandidates() []Pair {
	return Candidates(g.edgeItems, g.vertexItems, false)
}

// EdgeEdgeCandidates returns unordered EE candidate pairs with IDA < IDB.
func (g *HashGrid) EdgeEdgeCandidates() []Pair {
	return Candidates(g.edgeItems, g.edgeItems, true)
}

// EdgeFaceCandidates returns EF candidate pairs.
func (g *HashGrid) EdgeFaceCandidates() []Pair {
	return Candidates(g.edgeItems, g.faceItems, false)
}

// FaceVertexCandidates returns FV candidate pairs.
func (g *HashGrid) FaceVertexCandidates() []Pair {
	return Candidates(g.faceItems, g.vertexItems, false)
}
