package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/rigidccd/ccdcore/ccderrors"
)

// AxisAngleToQuat converts an axis-angle rotation vector (norm = angle,
// direction = axis) to a unit quaternion.
func AxisAngleToQuat(aa r3.Vector) quat.Number {
	theta := aa.Norm()
	if theta < 1e-15 {
		return quat.Number{Real: 1}
	}
	axis := aa.Mul(1 / theta)
	half := theta / 2
	s := math.Sin(half)
	return quat.Number{Real: math.Cos(half), Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

// QuatToAxisAngle converts a unit quaternion back to an axis-angle vector.
func QuatToAxisAngle(q quat.Number) r3.Vector {
	q = quat.Scale(1/quat.Abs(q), q)
	sinHalf := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	theta := 2 * math.Atan2(sinHalf, q.Real)
	if sinHalf < 1e-15 {
		return r3.Vector{}
	}
	return r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}.Mul(theta / sinHalf)
}

// RotationMatrixFromQuat returns the 3x3 rotation matrix for a unit
// quaternion.
func RotationMatrixFromQuat(q quat.Number) *mat.Dense {
	n := quat.Abs(q)
	if n > 0 {
		q = quat.Scale(1/n, q)
	}
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	m := mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	})
	return m
}

// QuatFromRotationMatrix recovers a unit quaternion from a 3x3 rotation
// matrix, via the standard trace-based extraction.
func QuatFromRotationMatrix(m *mat.Dense) quat.Number {
	tr := m.At(0, 0) + m.At(1, 1) + m.At(2, 2)
	if tr > 0 {
		s := 0.5 / math.Sqrt(tr+1)
		return quat.Number{
			Real: 0.25 / s,
			Imag: (m.At(2, 1) - m.At(1, 2)) * s,
			Jmag: (m.At(0, 2) - m.At(2, 0)) * s,
			Kmag: (m.At(1, 0) - m.At(0, 1)) * s,
		}
	}
	// Largest diagonal element determines the numerically stable branch.
	if m.At(0, 0) > m.At(1, 1) && m.At(0, 0) > m.At(2, 2) {
		s := 2 * math.Sqrt(1+m.At(0, 0)-m.At(1, 1)-m.At(2, 2))
		return quat.Number{
			Real: (m.At(2, 1) - m.At(1, 2)) / s,
			Imag: 0.25 * s,
			Jmag: (m.At(0, 1) + m.At(1, 0)) / s,
			Kmag: (m.At(0, 2) + m.At(2, 0)) / s,
		}
	} else if m.At(1, 1) > m.At(2, 2) {
		s := 2 * math.Sqrt(1+m.At(1, 1)-m.At(0, 0)-m.At(2, 2))
		return quat.Number{
			Real: (m.At(0, 2) - m.At(2, 0)) / s,
			Imag: (m.At(0, 1) + m.At(1, 0)) / s,
			Jmag: 0.25 * s,
			Kmag: (m.At(1, 2) + m.At(2, 1)) / s,
		}
	}
	s := 2 * math.Sqrt(1+m.At(2, 2)-m.At(0, 0)-m.At(1, 1))
	return quat.Number{
		Real: (m.At(1, 0) - m.At(0, 1)) / s,
		Imag: (m.At(0, 2) + m.At(2, 0)) / s,
		Jmag: (m.At(1, 2) + m.At(2, 1)) / s,
		Kmag: 0.25 * s,
	}
}

// Screw is the decomposition of a relative rotation R1*R0^T into an angle w
// about the z-axis of a change-of-basis frame P: R1*R0^T = P^T * Rz(w) * P.
type Screw struct {
	// P is the orthonormal change of basis whose z-row is the rotation axis.
	P *mat.Dense
	// Omega is the total rotation angle about that axis, in radians.
	Omega float64
}

// Decompose factors relative rotation rel = R1*R0^T into a Screw. rel must be
// a 3x3 orthonormal rotation matrix.
func Decompose(rel *mat.Dense) (Screw, error) {
	r, c := rel.Dims()
	if r != 3 || c != 3 {
		return Screw{}, ccderrors.NewInputValidationError("screw decomposition needs a 3x3 matrix, got %dx%d", r, c)
	}
	q := QuatFromRotationMatrix(rel)
	axis := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	sinHalf := axis.Norm()
	omega := 2 * math.Atan2(sinHalf, q.Real)
	if sinHalf < 1e-12 {
		// No well-defined axis for a near-identity rotation; P is the
		// identity basis and omega is (near) zero.
		return Screw{P: identity3(), Omega: omega}, nil
	}
	axis = axis.Mul(1 / sinHalf)
	return Screw{P: basisFromZAxis(axis), Omega: omega}, nil
}

// RotationAt returns R1*R0^T evaluated at fraction t of the screw's total
// rotation, i.e. P^T * Rz(t*omega) * P.
func (s Screw) RotationAt(t float64) *mat.Dense {
	rz := rzMatrix(t * s.Omega)
	var pt mat.Dense
	pt.CloneFrom(s.P.T())

	var tmp, out mat.Dense
	tmp.Mul(&pt, rz)
	out.Mul(&tmp, s.P)
	return &out
}

func rzMatrix(theta float64) *mat.Dense {
	c, sn := math.Cos(theta), math.Sin(theta)
	return mat.NewDense(3, 3, []float64{
		c, -sn, 0,
		sn, c, 0,
		0, 0, 1,
	})
}

func identity3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

// basisFromZAxis returns an orthonormal 3x3 matrix P whose third row is
// axis, i.e. P maps world coordinates into a frame where axis is z.
func basisFromZAxis(axis r3.Vector) *mat.Dense {
	up := r3.Vector{X: 0, Y: 0, Z: 1}
	if math.Abs(axis.Dot(up)) > 0.999 {
		up = r3.Vector{X: 1, Y: 0, Z: 0}
	}
	x := up.Cross(axis).Normalize()
	y := axis.Cross(x).Normalize()
	return mat.NewDense(3, 3, []float64{
		x.X, x.Y, x.Z,
		y.X, y.Y, y.Z,
		axis.X, axis.Y, axis.Z,
	})
}
