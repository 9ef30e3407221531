package constraints

// DVec2 and DVec3 hold dual-numbered coordinates for a point whose components
// are individually seeded as independent variables in the same
// fixed-size gradient space, so distance functions built from them carry
// exact derivatives with respect to every point's coordinates at once.

// DVec2 is a 2D point with dual-numbered coordinates.
type DVec2 struct{ X, Y Dual }

// DVec3 is a 3D point with dual-numbered coordinates.
type DVec3 struct{ X, Y, Z Dual }

func sub2(a, b DVec2) DVec2 { return DVec2{Sub(a.X, b.X), Sub(a.Y, b.Y)} }
func dot2(a, b DVec2) Dual  { return Add(Mul(a.X, b.X), Mul(a.Y, b.Y)) }

func sub3(a, b DVec3) DVec3 { return DVec3{Sub(a.X, b.X), Sub(a.Y, b.Y), Sub(a.Z, b.Z)} }
func dot3(a, b DVec3) Dual  { return Add(Add(Mul(a.X, b.X), Mul(a.Y, b.Y)), Mul(a.Z, b.Z)) }
func cross3(a, b DVec3) DVec3 {
	return DVec3{
		Sub(Mul(a.Y, b.Z), Mul(a.Z, b.Y)),
		Sub(Mul(a.Z, b.X), Mul(a.X, b.Z)),
		Sub(Mul(a.X, b.Y), Mul(a.Y, b.X)),
	}
}
func addScaled3(a DVec3, dir DVec3, t Dual) DVec3 {
	return DVec3{Add(a.X, Mul(dir.X, t)), Add(a.Y, Mul(dir.Y, t)), Add(a.Z, Mul(dir.Z, t))}
}

// PointSegmentDistance2 returns the squared distance from p to the closest
// point on segment [a,b] in 2D, the residual the vertex-edge distance-barrier
// constraint is built from.
func PointSegmentDistance2(p, a, b DVec2) Dual {
	n := p.X.n()
	ab := sub2(b, a)
	denom := dot2(ab, ab)
	var t Dual
	if denom.Val == 0 {
		t = Const(0, n)
	} else {
		t = Clamp01(Div(dot2(sub2(p, a), ab), denom))
	}
	closest := DVec2{Add(a.X, Mul(ab.X, t)), Add(a.Y, Mul(ab.Y, t))}
	d := sub2(p, closest)
	return dot2(d, d)
}

// SegmentSegmentDistance2 returns the squared distance between the closest
// points of segments [a0,a1] and [b0,b1] in 3D, the residual the edge-edge
// distance-barrier constraint is built from. Uses the standard clamped
// closest-point-between-segments construction; for near-parallel segments
// the first segment's parameter starts at 0, and both parameters are then
// recomputed and clamped as in the general case.
func SegmentSegmentDistance2(a0, a1, b0, b1 DVec3) Dual {
	n := a0.X.n()
	d1 := sub3(a1, a0)
	d2 := sub3(b1, b0)
	r := sub3(a0, b0)

	aa := dot3(d1, d1)
	ee := dot3(d2, d2)
	f := dot3(d2, r)

	var s, t Dual
	const parallelTol = 1e-12
	if aa.Val <= parallelTol && ee.Val <= parallelTol {
		s, t = Const(0, n), Const(0, n)
	} else if aa.Val <= parallelTol {
		s = Const(0, n)
		t = Clamp01(Div(f, ee))
	} else {
		c := dot3(d1, r)
		if ee.Val <= parallelTol {
			t = Const(0, n)
			s = Clamp01(Div(Neg(c), aa))
		} else {
			b := dot3(d1, d2)
			denom := Sub(Mul(aa, ee), Mul(b, b))
			if denom.Val > parallelTol {
				s = Clamp01(Div(Sub(Mul(b, f), Mul(c, ee)), denom))
			} else {
				s = Const(0, n)
			}
			tNum := Add(Mul(b, s), f)
			t = Clamp01(Div(tNum, ee))
			s = Clamp01(Div(Sub(Mul(t, b), c), aa))
		}
	}

	closestA := addScaled3(a0, d1, s)
	closestB := addScaled3(b0, d2, t)
	diff := sub3(closestA, closestB)
	return dot3(diff, diff)
}

// PointTriangleDistance2 returns the squared distance from p to the closest
// point on triangle (q0,q1,q2) in 3D, the residual the face-vertex
// distance-barrier constraint is built from. Implements the seven-region
// closest-point-on-triangle test, branching on the scalar values of the
// barycentric coordinates (the region decision is not itself differentiated,
// matching the vertex-edge and edge-edge clamp treatment).
func PointTriangleDistance2(p, q0, q1, q2 DVec3) Dual {
	n := p.X.n()
	ab := sub3(q1, q0)
	ac := sub3(q2, q0)
	ap := sub3(p, q0)

	d1 := dot3(ab, ap)
	d2 := dot3(ac, ap)
	if d1.Val <= 0 && d2.Val <= 0 {
		diff := sub3(p, q0)
		return dot3(diff, diff)
	}

	bp := sub3(p, q1)
	d3 := dot3(ab, bp)
	d4 := dot3(ac, bp)
	if d3.Val >= 0 && d4.Val <= d3.Val {
		diff := sub3(p, q1)
		return dot3(diff, diff)
	}

	vc := Sub(Mul(d1, d4), Mul(d3, d2))
	if vc.Val <= 0 && d1.Val >= 0 && d3.Val <= 0 {
		v := Div(d1, Sub(d1, d3))
		closest := addScaled3(q0, ab, v)
		diff := sub3(p, closest)
		return dot3(diff, diff)
	}

	cp := sub3(p, q2)
	d5 := dot3(ab, cp)
	d6 := dot3(ac, cp)
	if d6.Val >= 0 && d5.Val <= d6.Val {
		diff := sub3(p, q2)
		return dot3(diff, diff)
	}

	vb := Sub(Mul(d5, d2), Mul(d1, d6))
	if vb.Val <= 0 && d2.Val >= 0 && d6.Val <= 0 {
		w := Div(d2, Sub(d2, d6))
		closest := addScaled3(q0, ac, w)
		diff := sub3(p, closest)
		return dot3(diff, diff)
	}

	va := Sub(Mul(d3, d6), Mul(d5, d4))
	if va.Val <= 0 && (d4.Val-d3.Val) >= 0 && (d5.Val-d6.Val) >= 0 {
		w := Div(Sub(d4, d3), Add(Sub(d4, d3), Sub(d5, d6)))
		bc := sub3(q2, q1)
		closest := addScaled3(q1, bc, w)
		diff := sub3(p, closest)
		return dot3(diff, diff)
	}

	denom := Const(1, n)
	denom = Add(va, Add(vb, vc))
	v := Div(vb, denom)
	w := Div(vc, denom)
	closest := DVec3{
		Add(q0.X, Add(Mul(ab.X, v), Mul(ac.X, w))),
		Add(q0.Y, Add(Mul(ab.Y, v), Mul(ac.Y, w))),
		Add(q0.Z, Add(Mul(ab.Z, v), Mul(ac.Z, w))),
	}
	diff := sub3(p, closest)
	return dot3(diff, diff)
}
