package scene

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/rigidccd/ccdcore/constraints"
	"github.com/rigidccd/ccdcore/solver"
)

// barrierValue evaluates the distance-barrier potential on a precomputed
// squared distance, treating an exactly-zero or negative distance (two
// primitives already coincident) as maximally violated rather than
// propagating the numerical error up through RunStep's report.
func barrierValue(d2, eps float64) float64 {
	if d2 <= 0 {
		return math.Inf(1)
	}
	if d2 >= eps*eps {
		return 0
	}
	phi, err := constraints.DistanceBarrier(constraints.Const(d2, 1), eps)
	if err != nil {
		return math.Inf(1)
	}
	return phi.Val
}

// vertexEdgeDistance2 returns the squared distance from p to segment [a,b]
// at the given world positions.
func vertexEdgeDistance2(p, a, b [3]float64) float64 {
	pv := constraints.DVec2{X: constraints.Const(p[0], 1), Y: constraints.Const(p[1], 1)}
	av := constraints.DVec2{X: constraints.Const(a[0], 1), Y: constraints.Const(a[1], 1)}
	bv := constraints.DVec2{X: constraints.Const(b[0], 1), Y: constraints.Const(b[1], 1)}
	return constraints.PointSegmentDistance2(pv, av, bv).Val
}

// edgeEdgeDistance2 returns the squared distance between segments [a0,a1]
// and [b0,b1] at the given world positions.
func edgeEdgeDistance2(a0, a1, b0, b1 [3]float64) float64 {
	return constraints.SegmentSegmentDistance2(dvec3(a0), dvec3(a1), dvec3(b0), dvec3(b1)).Val
}

// faceVertexDistance2 returns the squared distance from p to triangle
// (q0,q1,q2) at the given world positions.
func faceVertexDistance2(p, q0, q1, q2 [3]float64) float64 {
	return constraints.PointTriangleDistance2(dvec3(p), dvec3(q0), dvec3(q1), dvec3(q2)).Val
}

func dvec3(p [3]float64) constraints.DVec3 {
	return constraints.DVec3{X: constraints.Const(p[0], 1), Y: constraints.Const(p[1], 1), Z: constraints.Const(p[2], 1)}
}

// pointSegmentPush is a 2-DoF solver.Objective driving a 2D point's [x,y]
// away from a fixed segment until the distance-barrier potential clears,
// used by RunStep to report how far the worst vertex-edge violation would
// need to move to satisfy its barrier.
type pointSegmentPush struct {
	a, b [2]float64
	eps  float64
}

func (o pointSegmentPush) barrier(x []float64) constraints.Dual {
	p := constraints.DVec2{X: constraints.Var(x[0], 0, 2), Y: constraints.Var(x[1], 1, 2)}
	a := constraints.DVec2{X: constraints.Const(o.a[0], 2), Y: constraints.Const(o.a[1], 2)}
	b := constraints.DVec2{X: constraints.Const(o.b[0], 2), Y: constraints.Const(o.b[1], 2)}
	d2 := constraints.PointSegmentDistance2(p, a, b)
	if d2.Val <= 0 {
		d2 = constraints.Const(1e-12, 2)
	}
	phi, err := constraints.DistanceBarrier(d2, o.eps)
	if err != nil {
		return constraints.Const(0, 2)
	}
	return phi
}

func (o pointSegmentPush) Fx(x []float64) float64        { return o.barrier(x).Val }
func (o pointSegmentPush) GradFx(x []float64) []float64  { return o.barrier(x).Grad }
func (o pointSegmentPush) CollisionCheck([]float64) bool { return true }

func (o pointSegmentPush) HessianFx(x []float64) *mat.SymDense {
	return finiteDiffHessian(o.GradFx, x)
}

// pointTrianglePush is a 3-DoF solver.Objective, the face-vertex analog of
// pointSegmentPush.
type pointTrianglePush struct {
	q0, q1, q2 [3]float64
	eps        float64
}

func (o pointTrianglePush) barrier(x []float64) constraints.Dual {
	p := constraints.DVec3{X: constraints.Var(x[0], 0, 3), Y: constraints.Var(x[1], 1, 3), Z: constraints.Var(x[2], 2, 3)}
	q0 := constraints.DVec3{X: constraints.Const(o.q0[0], 3), Y: constraints.Const(o.q0[1], 3), Z: constraints.Const(o.q0[2], 3)}
	q1 := constraints.DVec3{X: constraints.Const(o.q1[0], 3), Y: constraints.Const(o.q1[1], 3), Z: constraints.Const(o.q1[2], 3)}
	q2 := constraints.DVec3{X: constraints.Const(o.q2[0], 3), Y: constraints.Const(o.q2[1], 3), Z: constraints.Const(o.q2[2], 3)}
	d2 := constraints.PointTriangleDistance2(p, q0, q1, q2)
	if d2.Val <= 0 {
		d2 = constraints.Const(1e-12, 3)
	}
	phi, err := constraints.DistanceBarrier(d2, o.eps)
	if err != nil {
		return constraints.Const(0, 3)
	}
	return phi
}

func (o pointTrianglePush) Fx(x []float64) float64        { return o.barrier(x).Val }
func (o pointTrianglePush) GradFx(x []float64) []float64  { return o.barrier(x).Grad }
func (o pointTrianglePush) CollisionCheck([]float64) bool { return true }

func (o pointTrianglePush) HessianFx(x []float64) *mat.SymDense {
	return finiteDiffHessian(o.GradFx, x)
}

// finiteDiffHessian builds a symmetric Hessian by central-differencing an
// exact gradient function; the constraint layer's forward-mode Dual only
// carries first derivatives, so a second-order objective needs one extra
// numerical layer on top of it.
func finiteDiffHessian(gradFx func([]float64) []float64, x []float64) *mat.SymDense {
	const h = 1e-5
	n := len(x)
	hess := mat.NewSymDense(n, nil)
	for j := 0; j < n; j++ {
		xp := append([]float64(nil), x...)
		xp[j] += h
		xm := append([]float64(nil), x...)
		xm[j] -= h
		gp, gm := gradFx(xp), gradFx(xm)
		for i := 0; i <= j; i++ {
			hess.SetSym(i, j, (gp[i]-gm[i])/(2*h))
		}
	}
	return hess
}

// resolveVertexEdgeBarrier runs the barrier-guarded Newton solver over a
// single vertex-edge pair's point coordinates and returns the solver's
// result; RunStep measures how far its X lies from p.
func resolveVertexEdgeBarrier(cfg Config, p, a, b [3]float64, eps float64) (solver.Result, error) {
	obj := pointSegmentPush{a: [2]float64{a[0], a[1]}, b: [2]float64{b[0], b[1]}, eps: eps}
	opts := cfg.NewtonOptions([]bool{true, true})
	return solver.Solve(obj, []float64{p[0], p[1]}, opts)
}

// resolveFaceVertexBarrier is the 3D face-vertex analog of
// resolveVertexEdgeBarrier.
func resolveFaceVertexBarrier(cfg Config, p, q0, q1, q2 [3]float64, eps float64) (solver.Result, error) {
	obj := pointTrianglePush{q0: q0, q1: q1, q2: q2, eps: eps}
	opts := cfg.NewtonOptions([]bool{true, true, true})
	return solver.Solve(obj, []float64{p[0], p[1], p[2]}, opts)
}
