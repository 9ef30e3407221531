package constraints

import (
	"testing"

	"go.viam.com/test"
)

func TestGetConstraintIndexSplitsBySide(t *testing.T) {
	test.That(t, GetConstraintIndex(3, true, 10), test.ShouldEqual, 3)
	test.That(t, GetConstraintIndex(3, false, 10), test.ShouldEqual, 13)
	test.That(t, NumberOfVolumeConstraints(10), test.ShouldEqual, 20)
}

func TestEdgeImpactTableKeepsFirstImpact(t *testing.T) {
	table := NewEdgeImpactTable(4)
	table.RecordImpact(0, 1)
	table.RecordImpact(0, 2) // edge 0 already has an impact; ignored
	table.RecordImpact(2, 3)

	other, isImpacted, ok := table.Impact(0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, other, test.ShouldEqual, 1)
	test.That(t, isImpacted, test.ShouldBeFalse)

	other, isImpacted, ok = table.Impact(1)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, other, test.ShouldEqual, 0)
	test.That(t, isImpacted, test.ShouldBeTrue)

	// Edge 2's first impact is the (0,2) record: only edge 0's side of it was
	// ignored, so edge 2 keeps the impacted role against edge 0 and the later
	// (2,3) record does not replace it.
	other, isImpacted, ok = table.Impact(2)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, other, test.ShouldEqual, 0)
	test.That(t, isImpacted, test.ShouldBeTrue)

	_, _, ok = table.Impact(3)
	test.That(t, ok, test.ShouldBeTrue)
}

func TestVolumeLayoutComputeConstraintsNonzeroOnlyForImpacts(t *testing.T) {
	// Two edges: edge 0 = (v0,v1), edge 1 = (v2,v3), sharing no vertices,
	// swept through each other (nonzero triple product).
	u := []float64{
		0, 0, 0, // v0
		1, 0, 0, // v1
		0.5, -1, 1, // v2
		0.5, 1, -0.5, // v3
	}
	layout := VolumeLayout{EdgeVertices: [][2]int{{0, 1}, {2, 3}}, Dim: 3}
	table := NewEdgeImpactTable(2)
	table.RecordImpact(0, 1)

	g := layout.ComputeConstraints(table, u)
	test.That(t, len(g), test.ShouldEqual, NumberOfVolumeConstraints(2))
	// Edge 1 is the impacted side -> row 1; edge 0 is impacting -> row 0+2=2.
	test.That(t, g[1], test.ShouldNotEqual, 0.0)
	test.That(t, g[2], test.ShouldNotEqual, 0.0)
	test.That(t, g[0], test.ShouldEqual, 0.0)
	test.That(t, g[3], test.ShouldEqual, 0.0)
}

func TestVolumeLayoutJacobianMatchesFiniteDifference(t *testing.T) {
	u := []float64{
		0, 0, 0,
		1, 0, 0,
		0.5, -1, 1,
		0.5, 1, -1,
	}
	layout := VolumeLayout{EdgeVertices: [][2]int{{0, 1}, {2, 3}}, Dim: 3}
	table := NewEdgeImpactTable(2)
	table.RecordImpact(0, 1)

	jac, err := layout.ComputeConstraintsJacobian(table, u)
	test.That(t, err, test.ShouldBeNil)

	const h = 1e-6
	dof := 3 // perturb v1.x
	up := append([]float64(nil), u...)
	up[dof] += h
	um := append([]float64(nil), u...)
	um[dof] -= h
	gp := layout.ComputeConstraints(table, up)
	gm := layout.ComputeConstraints(table, um)
	row := GetConstraintIndex(1, true, 2)
	fd := (gp[row] - gm[row]) / (2 * h)

	analytic, err := jac.At(row, dof)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, analytic, test.ShouldAlmostEqual, fd, 1e-4)
}

func TestVolumeLayoutHessianOnlyCoversActiveRows(t *testing.T) {
	u := []float64{
		0, 0, 0,
		1, 0, 0,
		0.5, -1, 1,
		0.5, 1, -1,
	}
	layout := VolumeLayout{EdgeVertices: [][2]int{{0, 1}, {2, 3}}, Dim: 3}
	table := NewEdgeImpactTable(2)
	table.RecordImpact(0, 1)

	rows := layout.ComputeConstraintsHessian(table, u)
	test.That(t, len(rows), test.ShouldEqual, 2)
	for _, r := range rows {
		test.That(t, len(r.DOFs), test.ShouldEqual, 12)
	}
}
