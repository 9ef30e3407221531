package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/rigidccd/ccdcore/ccderrors"
)

// Pose is a rigid-body pose in 2 or 3 dimensions: a position plus a rotation
// of dimension a = 1 (2D, an angle in radians) or a = 3 (3D, an axis-angle
// vector whose norm is the angle and whose direction is the axis).
type Pose struct {
	Dim      int
	Position r3.Vector
	Rotation []float64
}

// NewPose2D builds a 2D pose from a position (Z ignored) and an angle in
// radians.
func NewPose2D(position r3.Vector, angle float64) Pose {
	position.Z = 0
	return Pose{Dim: 2, Position: position, Rotation: []float64{angle}}
}

// NewPose3D builds a 3D pose from a position and an axis-angle rotation
// vector (norm = angle, direction = axis).
func NewPose3D(position r3.Vector, axisAngle r3.Vector) Pose {
	return Pose{Dim: 3, Position: position, Rotation: []float64{axisAngle.X, axisAngle.Y, axisAngle.Z}}
}

// Validate checks that Rotation has the length its Dim requires.
func (p Pose) Validate() error {
	switch p.Dim {
	case 2:
		if len(p.Rotation) != 1 {
			return ccderrors.NewInputValidationError("2D pose needs 1 rotation component, got %d", len(p.Rotation))
		}
	case 3:
		if len(p.Rotation) != 3 {
			return ccderrors.NewInputValidationError("3D pose needs 3 rotation components, got %d", len(p.Rotation))
		}
	default:
		return ccderrors.NewUnimplementedConfigError("pose dimension %d not in {2,3}", p.Dim)
	}
	return nil
}

// AxisAngleVector returns the 3D pose's rotation as an r3.Vector.
func (p Pose) AxisAngleVector() r3.Vector {
	return r3.Vector{X: p.Rotation[0], Y: p.Rotation[1], Z: p.Rotation[2]}
}

// Angle2D returns the 2D pose's rotation angle in radians.
func (p Pose) Angle2D() float64 {
	return p.Rotation[0]
}

// Quaternion returns the 3D pose's rotation as a unit quaternion.
func (p Pose) Quaternion() quat.Number {
	return AxisAngleToQuat(p.AxisAngleVector())
}

// Lerp linearly interpolates position and, for 2D, angle between p and q at
// parameter t in [0,1]. For 3D it interpolates the axis-angle vector
// componentwise, which is not the screw-motion rotation path (Decompose and
// Screw.RotationAt) that broadphase.VertexIntervalTrajectory sweeps.
func (p Pose) Lerp(q Pose, t float64) Pose {
	pos := p.Position.Add(q.Position.Sub(p.Position).Mul(t))
	switch p.Dim {
	case 2:
		angle := p.Angle2D() + t*(q.Angle2D()-p.Angle2D())
		return NewPose2D(pos, angle)
	default:
		aa := p.AxisAngleVector().Add(q.AxisAngleVector().Sub(p.AxisAngleVector()).Mul(t))
		return NewPose3D(pos, aa)
	}
}
