package scene

import (
	"github.com/golang/geo/r3"

	"github.com/rigidccd/ccdcore/broadphase"
	"github.com/rigidccd/ccdcore/ccderrors"
	"github.com/rigidccd/ccdcore/spatialmath"
	"github.com/rigidccd/ccdcore/stepper"
	"github.com/rigidccd/ccdcore/utils"
)

// RigidBody is one assembled body: its broad-phase representation, plus the
// bookkeeping the constraint and solver layers need.
type RigidBody struct {
	broadphase.Body
	Dim        int
	Mass       float64
	IsDofFixed []bool
	Faces      [][]int
	Edges      [][]int
	// Oriented reports whether Faces' vertex winding is consistent, carried
	// from RigidBodyConfig.Oriented.
	Oriented bool
}

// RotationDeg reports the body's rotation at t1 in the scene file's units
// (degrees), the inverse of the degrees-to-radians conversion Assemble
// applies to RotationDeg/AngularVelocity: a single heading in 2D, an
// axis-angle vector in 3D.
func (rb RigidBody) RotationDeg() []float64 {
	if rb.Dim == 2 {
		return []float64{utils.RadToDeg(rb.PoseT1.Angle2D())}
	}
	aa := rb.PoseT1.AxisAngleVector()
	deg := radToDegVec(aa)
	return []float64{deg.X, deg.Y, deg.Z}
}

// Assembly is a whole scene's rigid bodies plus the vertex-id offset table
// (spec C4's FillVertices input) mapping each body's local vertex index to a
// scene-global id.
type Assembly struct {
	Bodies           []RigidBody
	VertexIDOffsets  []int
	Dim              int
}

// Assemble converts a validated Config into an Assembly: local vertex arrays
// as r3.Vector, PoseT0 from position/rotation, and PoseT1 by integrating
// velocity across dt with the stepper matching the scene's dimensionality.
// Rotation and angular_velocity are read in degrees and degrees/second and
// converted to radians here.
func Assemble(cfg Config, dt float64) (Assembly, error) {
	if err := cfg.Validate(); err != nil {
		return Assembly{}, err
	}

	sceneDim, err := cfg.RigidBodies[0].dim()
	if err != nil {
		return Assembly{}, err
	}

	bodies := make([]RigidBody, len(cfg.RigidBodies))
	offsets := make([]int, len(cfg.RigidBodies))
	vertexCount := 0

	for i, rb := range cfg.RigidBodies {
		offsets[i] = vertexCount
		vertexCount += len(rb.Vertices)

		body, mass, err := assembleOne(rb, sceneDim, dt)
		if err != nil {
			return Assembly{}, errIn(i, err)
		}
		bodies[i] = RigidBody{
			Body:       body,
			Dim:        sceneDim,
			Mass:       mass,
			IsDofFixed: rb.IsDofFixed,
			Faces:      rb.Faces,
			Edges:      rb.Edges,
			Oriented:   rb.Oriented,
		}
	}

	return Assembly{Bodies: bodies, VertexIDOffsets: offsets, Dim: sceneDim}, nil
}

func assembleOne(rb RigidBodyConfig, dim int, dt float64) (broadphase.Body, float64, error) {
	localVerts := make([]r3.Vector, len(rb.Vertices))
	sumEdgeLen := 0.0
	for i, v := range rb.Vertices {
		if dim == 2 {
			localVerts[i] = r3.Vector{X: v[0], Y: v[1]}
		} else {
			localVerts[i] = r3.Vector{X: v[0], Y: v[1], Z: v[2]}
		}
	}
	for _, e := range rb.Edges {
		if len(e) != 2 {
			return broadphase.Body{}, 0, ccderrors.NewInputValidationError("edge must have 2 endpoints, got %d", len(e))
		}
		sumEdgeLen += localVerts[e[0]].Sub(localVerts[e[1]]).Norm()
	}
	avgEdgeLen := 0.0
	if len(rb.Edges) > 0 {
		avgEdgeLen = sumEdgeLen / float64(len(rb.Edges))
	}

	position := toVec3(rb.Position, dim)

	var pose0 spatialmath.Pose
	var kind stepper.Kind
	var linVel, angVel r3.Vector
	if dim == 2 {
		kind = stepper.Symplectic2D
		pose0 = spatialmath.NewPose2D(position, utils.DegToRad(rb.RotationDeg[0]))
		linVel = toVec3(rb.LinearVelocity, dim)
		angVel = r3.Vector{Z: utils.DegToRad(rb.AngularVelocity[0])}
	} else {
		kind = stepper.Exponential3D
		axisAngleDeg := r3.Vector{X: rb.RotationDeg[0], Y: rb.RotationDeg[1], Z: rb.RotationDeg[2]}
		pose0 = spatialmath.NewPose3D(position, degToRadVec(axisAngleDeg))
		linVel = toVec3(rb.LinearVelocity, dim)
		angVel = degToRadVec(r3.Vector{X: rb.AngularVelocity[0], Y: rb.AngularVelocity[1], Z: rb.AngularVelocity[2]})
	}

	state0 := stepper.State{Pose: pose0, LinearVelocity: linVel, AngularVelocity: angVel}
	state1, err := stepper.Step(kind, state0, dt)
	if err != nil {
		return broadphase.Body{}, 0, err
	}

	mass := rb.Density * meshExtentVolume(localVerts, dim)

	return broadphase.Body{
		LocalVertices:     localVerts,
		PoseT0:            pose0,
		PoseT1:            state1.Pose,
		AverageEdgeLength: avgEdgeLen,
	}, mass, nil
}

func toVec3(v []float64, dim int) r3.Vector {
	if dim == 2 {
		return r3.Vector{X: v[0], Y: v[1]}
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

func degToRadVec(v r3.Vector) r3.Vector {
	return r3.Vector{X: utils.DegToRad(v.X), Y: utils.DegToRad(v.Y), Z: utils.DegToRad(v.Z)}
}

func radToDegVec(v r3.Vector) r3.Vector {
	return r3.Vector{X: utils.RadToDeg(v.X), Y: utils.RadToDeg(v.Y), Z: utils.RadToDeg(v.Z)}
}

// meshExtentVolume approximates a body's volume (2D: area) from its vertex
// bounding box, a coarse stand-in used only to derive a mass for
// diagnostics; the solver's constraint layer never depends on it.
func meshExtentVolume(verts []r3.Vector, dim int) float64 {
	if len(verts) == 0 {
		return 0
	}
	min, max := verts[0], verts[0]
	for _, v := range verts[1:] {
		min = r3.Vector{X: minf(min.X, v.X), Y: minf(min.Y, v.Y), Z: minf(min.Z, v.Z)}
		max = r3.Vector{X: maxf(max.X, v.X), Y: maxf(max.Y, v.Y), Z: maxf(max.Z, v.Z)}
	}
	extent := max.Sub(min)
	if dim == 2 {
		return extent.X * extent.Y
	}
	return extent.X * extent.Y * extent.Z
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
