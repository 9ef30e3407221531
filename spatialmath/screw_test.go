package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"go.viam.com/test"
)

func TestAxisAngleQuatRoundTrip(t *testing.T) {
	for _, aa := range []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: math.Pi / 2, Y: 0, Z: 0},
		{X: 0.3, Y: 0.4, Z: 0.5},
		{X: 0, Y: 0, Z: math.Pi},
	} {
		q := AxisAngleToQuat(aa)
		back := QuatToAxisAngle(q)
		test.That(t, back.X, test.ShouldAlmostEqual, aa.X, 1e-9)
		test.That(t, back.Y, test.ShouldAlmostEqual, aa.Y, 1e-9)
		test.That(t, back.Z, test.ShouldAlmostEqual, aa.Z, 1e-9)
	}
}

func TestScrewDecomposeReconstructs(t *testing.T) {
	// A 90-degree rotation about an arbitrary axis.
	aa := r3.Vector{X: 0.2, Y: 0.6, Z: 0.4}.Normalize().Mul(math.Pi / 2)
	q := AxisAngleToQuat(aa)
	rel := RotationMatrixFromQuat(q)

	screw, err := Decompose(rel)
	test.That(t, err, test.ShouldBeNil)

	reconstructed := screw.RotationAt(1.0)
	frobDiff(t, rel, reconstructed, 1e-9)
}

func TestScrewInterpolationAtZeroIsIdentity(t *testing.T) {
	aa := r3.Vector{X: 0, Y: 0, Z: 1}.Mul(math.Pi / 3)
	rel := RotationMatrixFromQuat(AxisAngleToQuat(aa))
	screw, err := Decompose(rel)
	test.That(t, err, test.ShouldBeNil)

	id := screw.RotationAt(0)
	frobDiff(t, id, identity3(), 1e-9)
}

func frobDiff(t *testing.T, a, b *mat.Dense, tol float64) {
	t.Helper()
	var diff mat.Dense
	diff.Sub(a, b)
	norm := mat.Norm(&diff, 2)
	test.That(t, norm, test.ShouldBeLessThan, tol)
}

func TestRotationMatrixQuatRoundTrip(t *testing.T) {
	aa := r3.Vector{X: 0.1, Y: -0.2, Z: 0.3}
	q := AxisAngleToQuat(aa)
	m := RotationMatrixFromQuat(q)
	q2 := QuatFromRotationMatrix(m)
	m2 := RotationMatrixFromQuat(q2)
	frobDiff(t, m, m2, 1e-9)
}
