package constraints

import (
	"testing"

	"go.viam.com/test"
)

func dvec2(x, y float64, base int) DVec2 {
	return DVec2{Var(x, base, 8), Var(y, base+1, 8)}
}

func dvec3(x, y, z float64, base, n int) DVec3 {
	return DVec3{Var(x, base, n), Var(y, base+1, n), Var(z, base+2, n)}
}

func TestPointSegmentDistance2Perpendicular(t *testing.T) {
	p := dvec2(0, 1, 0)
	a := dvec2(-1, 0, 2)
	b := dvec2(1, 0, 4)
	d2 := PointSegmentDistance2(p, a, b)
	test.That(t, d2.Val, test.ShouldAlmostEqual, 1.0, 1e-9)
}

func TestPointSegmentDistance2ClampsToEndpoint(t *testing.T) {
	p := dvec2(5, 0, 0)
	a := dvec2(-1, 0, 2)
	b := dvec2(1, 0, 4)
	d2 := PointSegmentDistance2(p, a, b)
	// Closest point is endpoint b=(1,0); distance is 4.
	test.That(t, d2.Val, test.ShouldAlmostEqual, 16.0, 1e-9)
}

func TestSegmentSegmentDistance2Crossing(t *testing.T) {
	a0 := dvec3(-1, 0, 1, 0, 12)
	a1 := dvec3(1, 0, 1, 3, 12)
	b0 := dvec3(0, -1, 0, 6, 12)
	b1 := dvec3(0, 1, 0, 9, 12)
	d2 := SegmentSegmentDistance2(a0, a1, b0, b1)
	test.That(t, d2.Val, test.ShouldAlmostEqual, 1.0, 1e-9)
}

func TestSegmentSegmentDistance2Coincident(t *testing.T) {
	a0 := dvec3(-1, 0, 0, 0, 12)
	a1 := dvec3(1, 0, 0, 3, 12)
	b0 := dvec3(-1, 0, 0, 6, 12)
	b1 := dvec3(1, 0, 0, 9, 12)
	d2 := SegmentSegmentDistance2(a0, a1, b0, b1)
	test.That(t, d2.Val, test.ShouldAlmostEqual, 0.0, 1e-6)
}

func TestPointTriangleDistance2AbovePlane(t *testing.T) {
	p := dvec3(0.25, 0.25, 2, 0, 12)
	q0 := dvec3(0, 0, 0, 3, 12)
	q1 := dvec3(1, 0, 0, 6, 12)
	q2 := dvec3(0, 1, 0, 9, 12)
	d2 := PointTriangleDistance2(p, q0, q1, q2)
	test.That(t, d2.Val, test.ShouldAlmostEqual, 4.0, 1e-9)
}

func TestPointTriangleDistance2OutsideVertexRegion(t *testing.T) {
	p := dvec3(-1, -1, 0, 0, 12)
	q0 := dvec3(0, 0, 0, 3, 12)
	q1 := dvec3(1, 0, 0, 6, 12)
	q2 := dvec3(0, 1, 0, 9, 12)
	d2 := PointTriangleDistance2(p, q0, q1, q2)
	test.That(t, d2.Val, test.ShouldAlmostEqual, 2.0, 1e-9)
}

func TestDistanceBarrierZeroOutsideActivation(t *testing.T) {
	d2 := Var(1.0, 0, 1)
	phi, err := DistanceBarrier(d2, 0.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, phi.Val, test.ShouldEqual, 0.0)
}

func TestDistanceBarrierPositiveInsideActivation(t *testing.T) {
	// eps=1e-1 activates at d2 <= eps^2 = 1e-2.
	mid := Var(5e-3, 0, 1)
	phi, err := DistanceBarrier(mid, 1e-1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, phi.Val, test.ShouldBeGreaterThan, 0.0)
}

func TestDistanceBarrierVanishesAtZero(t *testing.T) {
	// phi(d2)=-d2*ln(d2/eps^2) -> 0 as d2 -> 0, since d2*ln(d2) -> 0.
	small := Var(1e-6, 0, 1)
	tiny := Var(1e-12, 0, 1)
	phiSmall, err := DistanceBarrier(small, 1e-2)
	test.That(t, err, test.ShouldBeNil)
	phiTiny, err := DistanceBarrier(tiny, 1e-2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, phiTiny.Val, test.ShouldBeLessThan, phiSmall.Val)
}

func TestDistanceBarrierContinuousAtActivation(t *testing.T) {
	// eps^2 = 0.25; just inside that cutoff phi should be near zero.
	justInside := Var(0.25-1e-9, 0, 1)
	phi, err := DistanceBarrier(justInside, 0.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, phi.Val, test.ShouldAlmostEqual, 0.0, 1e-6)
}

func TestVolumeConstraintSignFlip(t *testing.T) {
	p := dvec3(0, 0, 1, 0, 12)
	q0 := dvec3(0, 0, 0, 3, 12)
	q1 := dvec3(1, 0, 0, 6, 12)
	q2 := dvec3(0, 1, 0, 9, 12)
	vol := SignedVolumeTetrahedron(p, q0, q1, q2)
	_, violated := VolumeConstraint(vol, 1)
	test.That(t, violated, test.ShouldBeFalse)
	_, violated = VolumeConstraint(vol, -1)
	test.That(t, violated, test.ShouldBeTrue)
}

func TestConstraintIndexAssignsStableRows(t *testing.T) {
	idx := NewIndex()
	k1 := PairKey{Kind: KindVertexEdge, IDA: 1, IDB: 2}
	k2 := PairKey{Kind: KindEdgeEdge, IDA: 3, IDB: 4}

	r1 := idx.GetConstraintIndex(k1)
	r2 := idx.GetConstraintIndex(k2)
	test.That(t, r1, test.ShouldNotEqual, r2)
	test.That(t, idx.GetConstraintIndex(k1), test.ShouldEqual, r1)
	test.That(t, idx.Len(), test.ShouldEqual, 2)
}

func TestConstraintIndexPruneCompacts(t *testing.T) {
	idx := NewIndex()
	k1 := PairKey{Kind: KindVertexEdge, IDA: 1, IDB: 2}
	k2 := PairKey{Kind: KindEdgeEdge, IDA: 3, IDB: 4}
	k3 := PairKey{Kind: KindFaceVertex, IDA: 5, IDB: 6}
	idx.GetConstraintIndex(k1)
	idx.GetConstraintIndex(k2)
	idx.GetConstraintIndex(k3)

	idx.Prune(map[PairKey]struct{}{k1: {}, k3: {}})
	test.That(t, idx.Len(), test.ShouldEqual, 2)
	test.That(t, idx.GetConstraintIndex(k1), test.ShouldEqual, 0)
	test.That(t, idx.GetConstraintIndex(k3), test.ShouldEqual, 1)
}
