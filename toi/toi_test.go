package toi

import (
	"testing"

	"go.viam.com/test"

	"github.com/rigidccd/ccdcore/interval"
)

func withRounding(t *testing.T) func() {
	t.Helper()
	return interval.AcquireRounding()
}

// S1 — vertex-edge 2D impact: a point moving straight down crosses a
// stationary horizontal edge it is initially above.
func TestVertexEdge2DImpact(t *testing.T) {
	defer withRounding(t)()

	p := Linear{P0: [3]float64{0, 1, 0}, P1: [3]float64{0, -1, 0}}
	e0 := Linear{P0: [3]float64{-1, 0, 0}, P1: [3]float64{-1, 0, 0}}
	e1 := Linear{P0: [3]float64{1, 0, 0}, P1: [3]float64{1, 0, 0}}

	res, err := VertexEdge2D(p, e0, e1, Options{Tol: 1e-9, MaxIterations: 200000})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Found, test.ShouldBeTrue)
	test.That(t, res.T.Mid(), test.ShouldAlmostEqual, 0.5, 1e-3)
}

// A point that passes to the side of the edge segment (outside its span)
// never registers an impact even though its line of motion is collinear
// with the edge's line at some time.
func TestVertexEdge2DMissesOutsideSpan(t *testing.T) {
	defer withRounding(t)()

	p := Linear{P0: [3]float64{5, 1, 0}, P1: [3]float64{5, -1, 0}}
	e0 := Linear{P0: [3]float64{-1, 0, 0}, P1: [3]float64{-1, 0, 0}}
	e1 := Linear{P0: [3]float64{1, 0, 0}, P1: [3]float64{1, 0, 0}}

	res, err := VertexEdge2D(p, e0, e1, Options{Tol: 1e-9, MaxIterations: 200000})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Found, test.ShouldBeFalse)
}

// S2 — edge-edge 3D miss: two edges pass over/under each other in the Z
// direction and never become coplanar-and-overlapping.
func TestEdgeEdge3DMiss(t *testing.T) {
	defer withRounding(t)()

	a0 := Linear{P0: [3]float64{-1, 0, 1}, P1: [3]float64{-1, 0, 1}}
	a1 := Linear{P0: [3]float64{1, 0, 1}, P1: [3]float64{1, 0, 1}}
	b0 := Linear{P0: [3]float64{0, -1, -1}, P1: [3]float64{0, -1, -1}}
	b1 := Linear{P0: [3]float64{0, 1, -1}, P1: [3]float64{0, 1, -1}}

	res, err := EdgeEdge3D(a0, a1, b0, b1, Options{Tol: 1e-9, MaxIterations: 200000})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Found, test.ShouldBeFalse)
}

// Edge-edge impact: edge B sweeps from below the plane of edge A to above
// it, crossing directly through A's midpoint.
func TestEdgeEdge3DImpact(t *testing.T) {
	defer withRounding(t)()

	a0 := Linear{P0: [3]float64{-1, 0, 0}, P1: [3]float64{-1, 0, 0}}
	a1 := Linear{P0: [3]float64{1, 0, 0}, P1: [3]float64{1, 0, 0}}
	b0 := Linear{P0: [3]float64{0, -1, -1}, P1: [3]float64{0, -1, 1}}
	b1 := Linear{P0: [3]float64{0, 1, -1}, P1: [3]float64{0, 1, 1}}

	res, err := EdgeEdge3D(a0, a1, b0, b1, Options{Tol: 1e-9, MaxIterations: 200000})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Found, test.ShouldBeTrue)
	test.That(t, res.T.Mid(), test.ShouldAlmostEqual, 0.5, 1e-3)
}

// S3 — face-vertex tangential touch: a point moves to just graze a
// triangle's edge at the final instant, testing the barycentric boundary
// case (u+v == 1).
func TestFaceVertexTangentialTouch(t *testing.T) {
	defer withRounding(t)()

	q0 := Linear{P0: [3]float64{0, 0, 0}, P1: [3]float64{0, 0, 0}}
	q1 := Linear{P0: [3]float64{2, 0, 0}, P1: [3]float64{2, 0, 0}}
	q2 := Linear{P0: [3]float64{0, 2, 0}, P1: [3]float64{0, 2, 0}}

	// The midpoint of the hypotenuse (1,1,0) lies exactly on edge q1-q2
	// (u+v=1); the point descends to touch it at t=1.
	p := Linear{P0: [3]float64{1, 1, 1}, P1: [3]float64{1, 1, 0}}

	res, err := FaceVertex3D(p, q0, q1, q2, Options{Tol: 1e-9, MaxIterations: 200000})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Found, test.ShouldBeTrue)
	test.That(t, res.T.Mid(), test.ShouldAlmostEqual, 1.0, 1e-3)
}

func TestFaceVertexMissesOutsideTriangle(t *testing.T) {
	defer withRounding(t)()

	q0 := Linear{P0: [3]float64{0, 0, 0}, P1: [3]float64{0, 0, 0}}
	q1 := Linear{P0: [3]float64{1, 0, 0}, P1: [3]float64{1, 0, 0}}
	q2 := Linear{P0: [3]float64{0, 1, 0}, P1: [3]float64{0, 1, 0}}

	p := Linear{P0: [3]float64{5, 5, 1}, P1: [3]float64{5, 5, -1}}

	res, err := FaceVertex3D(p, q0, q1, q2, Options{Tol: 1e-9, MaxIterations: 200000})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Found, test.ShouldBeFalse)
}

func TestVertexEdgeRejectsWithoutRoundingAcquired(t *testing.T) {
	p := Linear{P0: [3]float64{0, 1, 0}, P1: [3]float64{0, -1, 0}}
	e0 := Linear{P0: [3]float64{-1, 0, 0}, P1: [3]float64{-1, 0, 0}}
	e1 := Linear{P0: [3]float64{1, 0, 0}, P1: [3]float64{1, 0, 0}}
	_, err := VertexEdge2D(p, e0, e1, Options{})
	test.That(t, err, test.ShouldBeError)
}
