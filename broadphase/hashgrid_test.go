package broadphase

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/rigidccd/ccdcore/spatialmath"
)

func randomAABB(r *rand.Rand, dim int) spatialmath.AABB {
	c := r3.Vector{X: r.Float64() * 10, Y: r.Float64() * 10, Z: 0}
	if dim == 3 {
		c.Z = r.Float64() * 10
	}
	half := r3.Vector{X: 0.1 + r.Float64()*0.4, Y: 0.1 + r.Float64()*0.4, Z: 0.1 + r.Float64()*0.4}
	box, _ := spatialmath.NewAABB(c.Sub(half), c.Add(half), dim)
	return box
}

// S4 — hash grid determinism: insert 100 random swept AABBs with fixed seed
// twice; candidate sets are equal as sorted sequences.
func TestHashGridDeterminism(t *testing.T) {
	build := func() []Pair {
		r := rand.New(rand.NewSource(42))
		domain, _ := spatialmath.NewAABB(r3.Vector{X: -1, Y: -1, Z: -1}, r3.Vector{X: 11, Y: 11, Z: 11}, 3)
		var g HashGrid
		test.That(t, g.Resize(domain, 1.0), test.ShouldBeNil)
		for i := 0; i < 100; i++ {
			box := randomAABB(r, 3)
			test.That(t, g.Insert(KindVertex, i, -1, box), test.ShouldBeNil)
		}
		return g.Candidates(KindVertex)
	}

	first := build()
	second := build()

	sortPairs(first)
	sortPairs(second)
	test.That(t, first, test.ShouldResemble, second)
}

func sortPairs(p []Pair) {
	sort.Slice(p, func(i, j int) bool {
		if p[i].IDA != p[j].IDA {
			return p[i].IDA < p[j].IDA
		}
		return p[i].IDB < p[j].IDB
	})
}

// Candidates must be exactly the pairs whose swept AABBs overlap and whose
// group ids differ.
func TestCandidatesMatchBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	domain, _ := spatialmath.NewAABB(r3.Vector{X: -1, Y: -1, Z: -1}, r3.Vector{X: 11, Y: 11, Z: 11}, 3)
	var g HashGrid
	test.That(t, g.Resize(domain, 1.0), test.ShouldBeNil)

	boxes := make([]spatialmath.AABB, 40)
	for i := range boxes {
		boxes[i] = randomAABB(r, 3)
		test.That(t, g.Insert(KindVertex, i, -1, boxes[i]), test.ShouldBeNil)
	}

	got := g.Candidates(KindVertex)
	sortPairs(got)

	var want []Pair
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			if spatialmath.Overlap(boxes[i], boxes[j]) {
				want = append(want, Pair{IDA: i, IDB: j})
			}
		}
	}
	sortPairs(want)

	test.That(t, got, test.ShouldResemble, want)
}

func TestEdgeVertexCandidateBasic(t *testing.T) {
	domain, _ := spatialmath.NewAABB(r3.Vector{X: -3, Y: -3, Z: 0}, r3.Vector{X: 3, Y: 3, Z: 0}, 2)
	var g HashGrid
	test.That(t, g.Resize(domain, 1.0), test.ShouldBeNil)

	edgeBox, err := spatialmath.SweptEdgeAABB(
		r3.Vector{X: -1, Y: 0, Z: 0}, r3.Vector{X: -1, Y: 0, Z: 0},
		r3.Vector{X: 1, Y: 0, Z: 0}, r3.Vector{X: 1, Y: 0, Z: 0},
		0, 2,
	)
	test.That(t, err, test.ShouldBeNil)
	vertexBox, err := spatialmath.SweptPointAABB(r3.Vector{X: 0, Y: 1, Z: 0}, r3.Vector{X: 0, Y: -1, Z: 0}, 0, 2)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, g.Insert(KindEdge, 0, -1, edgeBox), test.ShouldBeNil)
	test.That(t, g.Insert(KindVertex, 0, -1, vertexBox), test.ShouldBeNil)

	got := g.EdgeVertexCandidates()
	test.That(t, got, test.ShouldResemble, []Pair{{IDA: 0, IDB: 0}})
}

func TestGroupIDSuppressesCandidate(t *testing.T) {
	domain, _ := spatialmath.NewAABB(r3.Vector{X: -3, Y: -3, Z: -3}, r3.Vector{X: 3, Y: 3, Z: 3}, 3)
	var g HashGrid
	test.That(t, g.Resize(domain, 1.0), test.ShouldBeNil)

	box, _ := spatialmath.NewAABB(r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}, 3)
	test.That(t, g.Insert(KindVertex, 0, 5, box), test.ShouldBeNil)
	test.That(t, g.Insert(KindVertex, 1, 5, box), test.ShouldBeNil)

	test.That(t, g.Candidates(KindVertex), test.ShouldBeEmpty)
}
