// Package toi implements the time-of-impact kernels: vertex-edge in 2D, and
// edge-edge and face-vertex in 3D. Each kernel constructs an interval-
// extended residual whose zero set is the impact condition, evaluated
// directly against each point's enclosed screw-motion trajectory over the
// current time sub-box during bisection, and hands it to package rootfind
// together with a domain-validity predicate over the barycentric
// coordinates of the contact.
package toi

import (
	"github.com/golang/geo/r3"

	"github.com/rigidccd/ccdcore/broadphase"
	"github.com/rigidccd/ccdcore/ccderrors"
	"github.com/rigidccd/ccdcore/interval"
	"github.com/rigidccd/ccdcore/rootfind"
)

// barySlack widens the [0,1] barycentric-validity window so that a contact
// sitting exactly on a primitive's boundary is never pruned away by rounding
// in the domain-validity check.
const barySlack = 1e-9

// Vec3 is a 3-component interval vector: one axis per position component,
// used to carry an enclosure of a moving point's coordinates over a time
// sub-box.
type Vec3 [3]interval.I

func vSub(a, b Vec3) Vec3 {
	return Vec3{interval.Sub(a[0], b[0]), interval.Sub(a[1], b[1]), interval.Sub(a[2], b[2])}
}

func vDot(a, b Vec3) interval.I {
	return interval.Add(interval.Add(interval.Mul(a[0], b[0]), interval.Mul(a[1], b[1])), interval.Mul(a[2], b[2]))
}

func vCross(a, b Vec3) Vec3 {
	return Vec3{
		interval.Sub(interval.Mul(a[1], b[2]), interval.Mul(a[2], b[1])),
		interval.Sub(interval.Mul(a[2], b[0]), interval.Mul(a[0], b[2])),
		interval.Sub(interval.Mul(a[0], b[1]), interval.Mul(a[1], b[0])),
	}
}

// Trajectory is a point's enclosed world-position trajectory over a time
// sub-box. The kernels evaluate it fresh at whatever sub-box the bisection
// is currently examining, not just at t=0 and t=1, so rotational motion
// stays exact through the search rather than being re-linearized between
// two sampled endpoints.
type Trajectory interface {
	At(t interval.I) (Vec3, error)
}

// Linear is a point's straight-line trajectory between two positions over
// the unit time domain: position at t is P0 + t*(P1-P0). It is exact for
// translation-only motion (zero angular velocity) and is otherwise a
// reference/test trajectory; production callers use RigidVertex.
type Linear struct {
	P0, P1 [3]float64
}

// At evaluates the trajectory's enclosure over time sub-box t.
func (l Linear) At(t interval.I) (Vec3, error) {
	var out Vec3
	for i := 0; i < 3; i++ {
		out[i] = interval.Add(interval.Point(l.P0[i]), interval.Scale(t, l.P1[i]-l.P0[i]))
	}
	return out, nil
}

// RigidVertex is a body-local vertex's trajectory under the body's screw-
// interpolated rigid motion, evaluated via broadphase.VertexIntervalTrajectory
// so the same rotational sweep the broad phase sizes its grid on is what the
// narrow phase actually roots against.
type RigidVertex struct {
	Body  broadphase.Body
	Local r3.Vector
}

// At evaluates the vertex's enclosed world position over time sub-box t.
func (rv RigidVertex) At(t interval.I) (Vec3, error) {
	xyz, err := broadphase.VertexIntervalTrajectory(rv.Body, rv.Local, t)
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{xyz[0], xyz[1], xyz[2]}, nil
}

// overlapsUnitInterval reports whether x could contain a value in
// [-barySlack, 1+barySlack]; used as the domain-validity check on barycentric
// coordinates, which must never falsely discard a genuine root.
func overlapsUnitInterval(x interval.I) bool {
	return x.Lo <= 1+barySlack && x.Hi >= -barySlack
}

// Result is a resolved time of impact, or found=false if the two primitives
// never come into contact over the search window.
type Result struct {
	T     interval.I
	Found bool
}

// Options bounds the search; see rootfind.Options.
type Options struct {
	Tol           float64
	MaxIterations int
}

func defaultOptions(o Options) rootfind.Options {
	tol := o.Tol
	if tol <= 0 {
		tol = 1e-9
	}
	maxIter := o.MaxIterations
	if maxIter <= 0 {
		maxIter = 100000
	}
	return rootfind.Options{Tol: []float64{tol}, MaxIterations: maxIter}
}

// VertexEdge2D finds the earliest time in [0,1] at which point p becomes
// collinear with, and lies between, the endpoints of edge (e0,e1), all
// moving along their own trajectories. Only the X and Y components are
// used; Z is ignored.
func VertexEdge2D(p, e0, e1 Trajectory, opts Options) (Result, error) {
	if !interval.RoundingAcquired() {
		return Result{}, ccderrors.NewNumericalError("VertexEdge2D invoked without an acquired rounding scope")
	}

	var evalErr error
	at := func(tr Trajectory, t interval.I) Vec3 {
		v, err := tr.At(t)
		if err != nil && evalErr == nil {
			evalErr = err
		}
		return v
	}

	f := func(t interval.I) interval.I {
		pp, pe0, pe1 := at(p, t), at(e0, t), at(e1, t)
		edge := vSub(pe1, pe0)
		toPoint := vSub(pp, pe0)
		// 2D cross product z-component: collinearity residual.
		return interval.Sub(interval.Mul(edge[0], toPoint[1]), interval.Mul(edge[1], toPoint[0]))
	}
	baryS := func(t interval.I) interval.I {
		pp, pe0, pe1 := at(p, t), at(e0, t), at(e1, t)
		edge := vSub(pe1, pe0)
		toPoint := vSub(pp, pe0)
		num := interval.Add(interval.Mul(edge[0], toPoint[0]), interval.Mul(edge[1], toPoint[1]))
		den := interval.Add(interval.Mul(edge[0], edge[0]), interval.Mul(edge[1], edge[1]))
		if den.Lo <= 0 && den.Hi >= 0 {
			// Degenerate (zero-length) edge over this sub-box: cannot rule
			// out a contact, so stay conservative and let further
			// bisection narrow it.
			return interval.I{Lo: 0, Hi: 1}
		}
		return interval.Div(num, den)
	}

	domainValid := func(b interval.Box) bool {
		return overlapsUnitInterval(baryS(b[0]))
	}
	constraint := func(b interval.Box) bool {
		return true
	}

	res, err := rootfind.Find(interval.Box{{Lo: 0, Hi: 1}}, wrap1D(f), domainValid, constraint, defaultOptions(opts))
	if err != nil {
		return Result{}, err
	}
	if evalErr != nil {
		return Result{}, evalErr
	}
	if !res.Found {
		return Result{}, nil
	}
	return Result{T: res.Box[0], Found: true}, nil
}

// EdgeEdge3D finds the earliest time in [0,1] at which edges (a0,a1) and
// (b0,b1) come into coplanar contact with both barycentric parameters inside
// [0,1], all four endpoints moving along their own trajectories.
func EdgeEdge3D(a0, a1, b0, b1 Trajectory, opts Options) (Result, error) {
	if !interval.RoundingAcquired() {
		return Result{}, ccderrors.NewNumericalError("EdgeEdge3D invoked without an acquired rounding scope")
	}

	var evalErr error
	at := func(tr Trajectory, t interval.I) Vec3 {
		v, err := tr.At(t)
		if err != nil && evalErr == nil {
			evalErr = err
		}
		return v
	}

	edges := func(t interval.I) (d1, d2, r Vec3) {
		pa0, pa1, pb0, pb1 := at(a0, t), at(a1, t), at(b0, t), at(b1, t)
		d1 = vSub(pa1, pa0)
		d2 = vSub(pb1, pb0)
		r = vSub(pb0, pa0)
		return
	}

	f := func(t interval.I) interval.I {
		d1, d2, r := edges(t)
		return vDot(d1, vCross(d2, r))
	}

	baryParams := func(t interval.I) (s, u interval.I, denomStraddlesZero bool) {
		d1, d2, r := edges(t)
		a := vDot(d1, d1)
		b := vDot(d1, d2)
		c := vDot(d2, d2)
		d := vDot(d1, r)
		e := vDot(d2, r)
		denom := interval.Sub(interval.Mul(a, c), interval.Mul(b, b))
		if denom.Lo <= 0 && denom.Hi >= 0 {
			return interval.I{Lo: 0, Hi: 1}, interval.I{Lo: 0, Hi: 1}, true
		}
		s = interval.Div(interval.Sub(interval.Mul(c, d), interval.Mul(b, e)), denom)
		u = interval.Div(interval.Sub(interval.Mul(b, d), interval.Mul(a, e)), denom)
		return s, u, false
	}

	domainValid := func(box interval.Box) bool {
		s, u, _ := baryParams(box[0])
		return overlapsUnitInterval(s) && overlapsUnitInterval(u)
	}
	constraint := func(interval.Box) bool { return true }

	res, err := rootfind.Find(interval.Box{{Lo: 0, Hi: 1}}, wrap1D(f), domainValid, constraint, defaultOptions(opts))
	if err != nil {
		return Result{}, err
	}
	if evalErr != nil {
		return Result{}, evalErr
	}
	if !res.Found {
		return Result{}, nil
	}
	return Result{T: res.Box[0], Found: true}, nil
}

// FaceVertex3D finds the earliest time in [0,1] at which point p becomes
// coplanar with, and falls inside, triangle (q0,q1,q2), all endpoints moving
// along their own trajectories.
func FaceVertex3D(p, q0, q1, q2 Trajectory, opts Options) (Result, error) {
	if !interval.RoundingAcquired() {
		return Result{}, ccderrors.NewNumericalError("FaceVertex3D invoked without an acquired rounding scope")
	}

	var evalErr error
	at := func(tr Trajectory, t interval.I) Vec3 {
		v, err := tr.At(t)
		if err != nil && evalErr == nil {
			evalErr = err
		}
		return v
	}

	tri := func(t interval.I) (e1, e2, d Vec3) {
		pp, pq0, pq1, pq2 := at(p, t), at(q0, t), at(q1, t), at(q2, t)
		e1 = vSub(pq1, pq0)
		e2 = vSub(pq2, pq0)
		d = vSub(pp, pq0)
		return
	}

	f := func(t interval.I) interval.I {
		e1, e2, d := tri(t)
		return vDot(vCross(e1, e2), d)
	}

	baryParams := func(t interval.I) (u, v interval.I, denomStraddlesZero bool) {
		e1, e2, d := tri(t)
		dot11 := vDot(e1, e1)
		dot12 := vDot(e1, e2)
		dot22 := vDot(e2, e2)
		dot1d := vDot(e1, d)
		dot2d := vDot(e2, d)
		denom := interval.Sub(interval.Mul(dot11, dot22), interval.Mul(dot12, dot12))
		if denom.Lo <= 0 && denom.Hi >= 0 {
			return interval.I{Lo: 0, Hi: 1}, interval.I{Lo: 0, Hi: 1}, true
		}
		u = interval.Div(interval.Sub(interval.Mul(dot22, dot1d), interval.Mul(dot12, dot2d)), denom)
		v = interval.Div(interval.Sub(interval.Mul(dot11, dot2d), interval.Mul(dot12, dot1d)), denom)
		return u, v, false
	}

	domainValid := func(box interval.Box) bool {
		u, v, straddles := baryParams(box[0])
		if straddles {
			return true
		}
		if !overlapsUnitInterval(u) || !overlapsUnitInterval(v) {
			return false
		}
		sum := interval.Add(u, v)
		return sum.Lo <= 1+barySlack
	}
	constraint := func(interval.Box) bool { return true }

	res, err := rootfind.Find(interval.Box{{Lo: 0, Hi: 1}}, wrap1D(f), domainValid, constraint, defaultOptions(opts))
	if err != nil {
		return Result{}, err
	}
	if evalErr != nil {
		return Result{}, evalErr
	}
	if !res.Found {
		return Result{}, nil
	}
	return Result{T: res.Box[0], Found: true}, nil
}

func wrap1D(f func(interval.I) interval.I) rootfind.Func {
	return func(b interval.Box) interval.Box {
		return interval.Box{f(b[0])}
	}
}
