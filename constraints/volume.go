package constraints

// SignedVolumeTetrahedron returns six times the signed volume of the
// tetrahedron (p,q0,q1,q2): the face-vertex swept-volume constraint spec C7
// uses to detect a vertex having tunneled clean through a triangle between
// the two poses a distance-only check would miss. Its sign flips exactly
// when p crosses the triangle's plane.
func SignedVolumeTetrahedron(p, q0, q1, q2 DVec3) Dual {
	ab := sub3(q1, q0)
	ac := sub3(q2, q0)
	ap := sub3(p, q0)
	return dot3(cross3(ab, ac), ap)
}

// SignedVolumeParallelepiped returns the scalar triple product of the two
// edge directions and their separation vector: the edge-edge swept-volume
// constraint's coplanarity residual, whose sign flip signals the edges
// having swept through each other.
func SignedVolumeParallelepiped(a0, a1, b0, b1 DVec3) Dual {
	d1 := sub3(a1, a0)
	d2 := sub3(b1, b0)
	r := sub3(b0, a0)
	return dot3(d1, cross3(d2, r))
}

// VolumeConstraint evaluates the swept-volume non-penetration constraint:
// the signed volume must keep the same sign as its value at reference
// (typically the pose-t0 configuration), i.e. the primitive must not have
// crossed to the opposite side. It returns the volume itself; callers treat
// sign(current) != sign(reference) as a violated constraint.
func VolumeConstraint(current Dual, referenceSign float64) (value Dual, violated bool) {
	if referenceSign == 0 {
		return current, false
	}
	violated = (current.Val >= 0) != (referenceSign >= 0)
	return current, violated
}
