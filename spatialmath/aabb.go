// Package spatialmath provides the geometric primitives the CCD core is
// built on: axis-aligned bounding boxes, poses, and the rotation
// decompositions the rigid-body hash grid needs for its screw-motion sweep.
// Vectors are github.com/golang/geo/r3.Vector throughout, matching the
// teacher's convention; 2D quantities use r3.Vector with Z held at 0.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/rigidccd/ccdcore/ccderrors"
)

// AABB is an axis-aligned bounding box in 2 or 3 dimensions. In 2D, Min.Z
// and Max.Z are held at 0 and ignored by Overlap/Union.
type AABB struct {
	Min, Max r3.Vector
	Dim      int
}

// NewAABB builds an AABB from two corners in either order, componentwise.
func NewAABB(a, b r3.Vector, dim int) (AABB, error) {
	if dim != 2 && dim != 3 {
		return AABB{}, ccderrors.NewUnimplementedConfigError("AABB dimension %d not in {2,3}", dim)
	}
	box := AABB{
		Min: r3.Vector{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)},
		Max: r3.Vector{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)},
		Dim: dim,
	}
	if dim == 2 {
		box.Min.Z, box.Max.Z = 0, 0
	}
	return box, nil
}

// Center returns (Min+Max)/2.
func (b AABB) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// HalfExtent returns (Max-Min)/2, i.e. Center - Min.
func (b AABB) HalfExtent() r3.Vector {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Inflate returns b grown outward by r on every axis (r may be 0).
func (b AABB) Inflate(r float64) AABB {
	pad := r3.Vector{X: r, Y: r, Z: r}
	if b.Dim == 2 {
		pad.Z = 0
	}
	return AABB{Min: b.Min.Sub(pad), Max: b.Max.Add(pad), Dim: b.Dim}
}

// Union returns the componentwise hull of a and b.
func Union(a, b AABB) AABB {
	return AABB{
		Min: r3.Vector{X: math.Min(a.Min.X, b.Min.X), Y: math.Min(a.Min.Y, b.Min.Y), Z: math.Min(a.Min.Z, b.Min.Z)},
		Max: r3.Vector{X: math.Max(a.Max.X, b.Max.X), Y: math.Max(a.Max.Y, b.Max.Y), Z: math.Max(a.Max.Z, b.Max.Z)},
		Dim: a.Dim,
	}
}

// Overlap reports whether a and b intersect, componentwise, over the active
// dimensions of a.Dim.
func Overlap(a, b AABB) bool {
	if a.Min.X > b.Max.X || b.Min.X > a.Max.X {
		return false
	}
	if a.Min.Y > b.Max.Y || b.Min.Y > a.Max.Y {
		return false
	}
	if a.Dim == 3 && (a.Min.Z > b.Max.Z || b.Min.Z > a.Max.Z) {
		return false
	}
	return true
}

// SweptPointAABB returns the AABB of a point moving from p0 to p1, inflated
// by radius (0 for an infinitesimal point).
func SweptPointAABB(p0, p1 r3.Vector, radius float64, dim int) (AABB, error) {
	box, err := NewAABB(p0, p1, dim)
	if err != nil {
		return AABB{}, err
	}
	return box.Inflate(radius), nil
}

// SweptEdgeAABB returns the union of the swept AABBs of an edge's two
// endpoints, from t0 to t1.
func SweptEdgeAABB(a0, a1, b0, b1 r3.Vector, radius float64, dim int) (AABB, error) {
	av, err := SweptPointAABB(a0, a1, radius, dim)
	if err != nil {
		return AABB{}, err
	}
	bv, err := SweptPointAABB(b0, b1, radius, dim)
	if err != nil {
		return AABB{}, err
	}
	return Union(av, bv), nil
}

// SweptFaceAABB returns the union of the swept AABBs of a triangular face's
// three vertices, from t0 to t1.
func SweptFaceAABB(a0, a1, b0, b1, c0, c1 r3.Vector, radius float64) (AABB, error) {
	av, err := SweptPointAABB(a0, a1, radius, 3)
	if err != nil {
		return AABB{}, err
	}
	bv, err := SweptPointAABB(b0, b1, radius, 3)
	if err != nil {
		return AABB{}, err
	}
	cv, err := SweptPointAABB(c0, c1, radius, 3)
	if err != nil {
		return AABB{}, err
	}
	return Union(Union(av, bv), cv), nil
}
