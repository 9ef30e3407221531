package constraints

import (
	"gorgonia.org/tensor"

	"github.com/rigidccd/ccdcore/ccderrors"
)

// EdgeImpactTable maps each edge to its first recorded edge-edge impact: the
// swept-volume constraint (spec C7) is keyed off this table rather than the
// live candidate set, so an edge that stops appearing in the broad phase
// after its first impact still keeps a stable constraint row for the rest of
// the step.
type EdgeImpactTable struct {
	other      []int
	isImpacted []bool
}

// NewEdgeImpactTable returns a table for numEdges edges, none of which have a
// recorded impact yet.
func NewEdgeImpactTable(numEdges int) *EdgeImpactTable {
	other := make([]int, numEdges)
	for i := range other {
		other[i] = -1
	}
	return &EdgeImpactTable{other: other, isImpacted: make([]bool, numEdges)}
}

// NumEdges returns the edge count the table was built for.
func (t *EdgeImpactTable) NumEdges() int { return len(t.other) }

// RecordImpact records that edge impacting swept through edge impacted,
// assigning each edge its first-recorded partner and role: later impacts
// against an edge that already has one are ignored.
func (t *EdgeImpactTable) RecordImpact(impacting, impacted int) {
	if t.other[impacting] < 0 {
		t.other[impacting] = impacted
		t.isImpacted[impacting] = false
	}
	if t.other[impacted] < 0 {
		t.other[impacted] = impacting
		t.isImpacted[impacted] = true
	}
}

// Impact returns edge e's recorded partner and role, if any.
func (t *EdgeImpactTable) Impact(e int) (other int, isImpacted bool, ok bool) {
	o := t.other[e]
	if o < 0 {
		return 0, false, false
	}
	return o, t.isImpacted[e], true
}

// NumberOfVolumeConstraints returns 2*numEdges: one row per edge for the
// impacted side of its first impact, one for the impacting side, matching
// spec C7's "one row per edge per side of the impact."
func NumberOfVolumeConstraints(numEdges int) int {
	return 2 * numEdges
}

// GetConstraintIndex returns the dense row assigned to edge's constraint
// given its role in its first recorded impact: the impacted-side rows
// occupy [0, numEdges), the impacting-side rows occupy
// [numEdges, 2*numEdges).
func GetConstraintIndex(edge int, isImpacted bool, numEdges int) int {
	if isImpacted {
		return edge
	}
	return edge + numEdges
}

// VolumeLayout maps each edge to the pair of vertex indices whose
// coordinates, packed into a flat DOF vector U at vertex*Dim, define the
// edge's endpoints. Edge-edge swept volume is a 3D-only quantity (spec C7),
// so Dim is always 3 here.
type VolumeLayout struct {
	EdgeVertices [][2]int
	Dim          int
}

func (l VolumeLayout) point(u []float64, vertex int, seed func(i int) Dual) DVec3 {
	base := vertex * l.Dim
	return DVec3{X: seed(base), Y: seed(base + 1), Z: seed(base + 2)}
}

// signedVolume evaluates SignedVolumeParallelepiped for edges e and other,
// with the four endpoints seeded as independent variables 0..11 of a
// 12-wide gradient space local to this call, matching DESIGN NOTES §9's
// "12 for EE/FV in 3D" fixed-size autodiff context.
func (l VolumeLayout) signedVolume(u []float64, e, other int) (Dual, [12]int) {
	const n = 12
	ev := l.EdgeVertices[e]
	ov := l.EdgeVertices[other]
	dofs := [12]int{}
	globalIdx := []int{ev[0], ev[1], ov[0], ov[1]}
	for vi, gv := range globalIdx {
		for c := 0; c < 3; c++ {
			dofs[vi*3+c] = gv*l.Dim + c
		}
	}
	seed := func(i int) Dual { return Var(u[dofs[i]], i, n) }
	a0 := DVec3{X: seed(0), Y: seed(1), Z: seed(2)}
	a1 := DVec3{X: seed(3), Y: seed(4), Z: seed(5)}
	b0 := DVec3{X: seed(6), Y: seed(7), Z: seed(8)}
	b1 := DVec3{X: seed(9), Y: seed(10), Z: seed(11)}
	return SignedVolumeParallelepiped(a0, a1, b0, b1), dofs
}

// ComputeConstraints returns the dense g vector of length
// NumberOfVolumeConstraints(table.NumEdges()): the signed swept volume for
// every edge with a recorded impact, at the row GetConstraintIndex selects
// for its role, zero for every edge without one.
func (l VolumeLayout) ComputeConstraints(table *EdgeImpactTable, u []float64) []float64 {
	n := table.NumEdges()
	g := make([]float64, NumberOfVolumeConstraints(n))
	for e := 0; e < n; e++ {
		other, isImpacted, ok := table.Impact(e)
		if !ok {
			continue
		}
		vol, _ := l.signedVolume(u, e, other)
		g[GetConstraintIndex(e, isImpacted, n)] = vol.Val
	}
	return g
}

// ComputeConstraintsJacobian returns the dense
// NumberOfVolumeConstraints(numEdges) x len(u) Jacobian: each active row's
// nonzero entries are the local 12-wide gradient scattered to the global DOF
// indices of the two edges' four endpoints.
func (l VolumeLayout) ComputeConstraintsJacobian(table *EdgeImpactTable, u []float64) (*tensor.Dense, error) {
	n := table.NumEdges()
	rows := NumberOfVolumeConstraints(n)
	cols := len(u)
	if cols == 0 {
		return nil, ccderrors.NewInputValidationError("ComputeConstraintsJacobian requires a non-empty DOF vector")
	}
	backing := make([]float64, rows*cols)
	for e := 0; e < n; e++ {
		other, isImpacted, ok := table.Impact(e)
		if !ok {
			continue
		}
		vol, dofs := l.signedVolume(u, e, other)
		row := GetConstraintIndex(e, isImpacted, n)
		for i, dof := range dofs {
			backing[row*cols+dof] = vol.Grad[i]
		}
	}
	return tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing)), nil
}

// VolumeConstraintHessianRow is one active constraint row's local Hessian:
// nonzero only over the 12 DOFs of the two edges' four endpoints, matching
// the gather/scatter pattern package solver uses for its own free-DoF
// Hessian block.
type VolumeConstraintHessianRow struct {
	Row   int
	DOFs  [12]int
	Local [12][12]float64
}

// ComputeConstraintsHessian returns one VolumeConstraintHessianRow per
// active constraint. SignedVolumeParallelepiped is a cubic form, so its
// exact Hessian is available in closed form from the Dual gradient via
// central differencing over the local 12-wide coordinate space — the same
// finite-difference-over-an-exact-gradient technique
// scene.finiteDiffHessian uses, since Dual only carries first derivatives.
func (l VolumeLayout) ComputeConstraintsHessian(table *EdgeImpactTable, u []float64) []VolumeConstraintHessianRow {
	const n = 12
	const h = 1e-6
	numEdges := table.NumEdges()
	var out []VolumeConstraintHessianRow
	for e := 0; e < numEdges; e++ {
		other, isImpacted, ok := table.Impact(e)
		if !ok {
			continue
		}
		_, dofs := l.signedVolume(u, e, other)
		grad := func(x [12]float64) [12]float64 {
			seeded := make([]float64, len(u))
			copy(seeded, u)
			for i, dof := range dofs {
				seeded[dof] = x[i]
			}
			vol, _ := l.signedVolume(seeded, e, other)
			var g [12]float64
			copy(g[:], vol.Grad)
			return g
		}
		var x0 [12]float64
		for i, dof := range dofs {
			x0[i] = u[dof]
		}
		var hess [12][12]float64
		for j := 0; j < n; j++ {
			xp, xm := x0, x0
			xp[j] += h
			xm[j] -= h
			gp, gm := grad(xp), grad(xm)
			for i := 0; i < n; i++ {
				hess[i][j] = (gp[i] - gm[i]) / (2 * h)
			}
		}
		out = append(out, VolumeConstraintHessianRow{Row: GetConstraintIndex(e, isImpacted, numEdges), DOFs: dofs, Local: hess})
	}
	return out
}
