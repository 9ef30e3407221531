package broadphase

import (
	"math"

	"github.com/golang/geo/r3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/rigidccd/ccdcore/interval"
	"github.com/rigidccd/ccdcore/spatialmath"
)

// Body is the read-only per-body snapshot the rigid-body hash grid sweeps:
// vertex positions in body frame plus the poses at t0 and t1.
type Body struct {
	// LocalVertices are vertex positions in the body's local frame.
	LocalVertices []r3.Vector
	PoseT0        spatialmath.Pose
	PoseT1        spatialmath.Pose
	// AverageEdgeLength is used by the caller to size the grid.
	AverageEdgeLength float64
}

// VertexIntervalTrajectory evaluates the world position of local vertex v
// under body's screw-interpolated motion at time interval t (t subset of
// [0,1]), returning an interval box (one interval per axis) that encloses
// the true trajectory over t.
func VertexIntervalTrajectory(body Body, v r3.Vector, t interval.I) ([3]interval.I, error) {
	if body.PoseT0.Dim == 2 {
		return vertexIntervalTrajectory2D(body, v, t), nil
	}
	return vertexIntervalTrajectory3D(body, v, t)
}

func vertexIntervalTrajectory2D(body Body, v r3.Vector, t interval.I) [3]interval.I {
	p0, p1 := body.PoseT0.Position, body.PoseT1.Position
	a0, a1 := body.PoseT0.Angle2D(), body.PoseT1.Angle2D()

	angle := interval.Add(interval.Point(a0), interval.Scale(t, a1-a0))
	cosI, sinI := interval.Cos(angle), interval.Sin(angle)

	// Rotated local vertex: (x cosθ - y sinθ, x sinθ + y cosθ).
	rx := interval.Sub(interval.Scale(cosI, v.X), interval.Scale(sinI, v.Y))
	ry := interval.Add(interval.Scale(sinI, v.X), interval.Scale(cosI, v.Y))

	posX := interval.Add(interval.Point(p0.X), interval.Scale(t, p1.X-p0.X))
	posY := interval.Add(interval.Point(p0.Y), interval.Scale(t, p1.Y-p0.Y))

	return [3]interval.I{
		interval.Add(posX, rx),
		interval.Add(posY, ry),
		interval.Point(0),
	}
}

func vertexIntervalTrajectory3D(body Body, v r3.Vector, t interval.I) ([3]interval.I, error) {
	p0, p1 := body.PoseT0.Position, body.PoseT1.Position

	q0 := body.PoseT0.Quaternion()
	q1 := body.PoseT1.Quaternion()
	r0 := spatialmath.RotationMatrixFromQuat(q0)
	r1 := spatialmath.RotationMatrixFromQuat(q1)

	var r0T mat.Dense
	r0T.CloneFrom(r0.T())
	var rel mat.Dense
	rel.Mul(r1, &r0T)

	screw, err := spatialmath.Decompose(&rel)
	if err != nil {
		return [3]interval.I{}, err
	}

	// R(t) = Rz_interval(t*omega) applied in the screw frame, then mapped
	// back to world via P, then composed with R0: R(t) = P^T Rz(t*omega) P R0.
	angle := interval.Scale(t, screw.Omega)
	cosI, sinI := interval.Cos(angle), interval.Sin(angle)

	localV := mat.NewVecDense(3, []float64{v.X, v.Y, v.Z})
	var rotated mat.VecDense
	rotated.MulVec(r0, localV)
	rv := r3.Vector{X: rotated.AtVec(0), Y: rotated.AtVec(1), Z: rotated.AtVec(2)}

	// Express rv in the screw's P frame: pv = P * rv.
	pv := applyMat(screw.P, rv)

	// Rz(theta) applied to pv, as intervals.
	rzX := interval.Sub(interval.Scale(cosI, pv.X), interval.Scale(sinI, pv.Y))
	rzY := interval.Add(interval.Scale(sinI, pv.X), interval.Scale(cosI, pv.Y))
	rzZ := interval.Point(pv.Z)

	// Map back with P^T: world_rot = P^T * [rzX,rzY,rzZ].
	pT := transpose(screw.P)
	worldX := interval.Add(interval.Add(interval.Scale(rzX, pT.At(0, 0)), interval.Scale(rzY, pT.At(0, 1))), interval.Scale(rzZ, pT.At(0, 2)))
	worldY := interval.Add(interval.Add(interval.Scale(rzX, pT.At(1, 0)), interval.Scale(rzY, pT.At(1, 1))), interval.Scale(rzZ, pT.At(1, 2)))
	worldZ := interval.Add(interval.Add(interval.Scale(rzX, pT.At(2, 0)), interval.Scale(rzY, pT.At(2, 1))), interval.Scale(rzZ, pT.At(2, 2)))

	posX := interval.Add(interval.Point(p0.X), interval.Scale(t, p1.X-p0.X))
	posY := interval.Add(interval.Point(p0.Y), interval.Scale(t, p1.Y-p0.Y))
	posZ := interval.Add(interval.Point(p0.Z), interval.Scale(t, p1.Z-p0.Z))

	return [3]interval.I{
		interval.Add(posX, worldX),
		interval.Add(posY, worldY),
		interval.Add(posZ, worldZ),
	}, nil
}

func applyMat(m *mat.Dense, v r3.Vector) r3.Vector {
	vec := mat.NewVecDense(3, []float64{v.X, v.Y, v.Z})
	var out mat.VecDense
	out.MulVec(m, vec)
	return r3.Vector{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

func transpose(m *mat.Dense) *mat.Dense {
	var t mat.Dense
	t.CloneFrom(m.T())
	return &t
}

// VertexSweptAABB returns the AABB enclosing local vertex v's world
// trajectory over t in [0,1] under body's screw-interpolated motion,
// inflated by inflation.
func VertexSweptAABB(body Body, v r3.Vector, inflation float64) (spatialmath.AABB, error) {
	full := interval.I{Lo: 0, Hi: 1}
	xyz, err := VertexIntervalTrajectory(body, v, full)
	if err != nil {
		return spatialmath.AABB{}, err
	}
	dim := body.PoseT0.Dim
	box, err := spatialmath.NewAABB(
		r3.Vector{X: xyz[0].Lo, Y: xyz[1].Lo, Z: xyz[2].Lo},
		r3.Vector{X: xyz[0].Hi, Y: xyz[1].Hi, Z: xyz[2].Hi},
		dim,
	)
	if err != nil {
		return spatialmath.AABB{}, err
	}
	return box.Inflate(inflation), nil
}

// meanVertexIntervalWidth returns the mean, over all vertices of all bodies,
// of the interval width of their swept world position (summed over axes) —
// the displacement proxy used to size the rigid-body grid's cells.
func meanVertexIntervalWidth(bodies []Body) (float64, error) {
	full := interval.I{Lo: 0, Hi: 1}
	total := 0.0
	count := 0
	for _, b := range bodies {
		for _, v := range b.LocalVertices {
			xyz, err := VertexIntervalTrajectory(b, v, full)
			if err != nil {
				return 0, err
			}
			total += xyz[0].Width() + xyz[1].Width() + xyz[2].Width()
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return total / float64(count), nil
}

// ResizeForRigidBodySweep sizes the grid from the mean edge length across
// bodies and the mean per-vertex interval width, a rotation-aware
// displacement proxy.
func (g *HashGrid) ResizeForRigidBodySweep(domain spatialmath.AABB, bodies []Body, inflation float64) error {
	meanDisp, err := meanVertexIntervalWidth(bodies)
	if err != nil {
		return err
	}
	meanEdge := 0.0
	if len(bodies) > 0 {
		sum := 0.0
		for _, b := range bodies {
			sum += b.AverageEdgeLength
		}
		meanEdge = sum / float64(len(bodies))
	}
	cellSize := math.Max(meanEdge, meanDisp) + inflation
	if cellSize <= 0 {
		cellSize = inflation
		if cellSize <= 0 {
			cellSize = 1e-6
		}
	}
	return g.Resize(domain, cellSize)
}

// FillVertices computes each body's swept vertex AABBs in parallel, one task
// per body, and inserts them, tagging each vertex's GroupID with its owning
// body index so vertices of the same rigid body never collide with each
// other.
func (g *HashGrid) FillVertices(bodies []Body, vertexIDOffset []int, inflation float64) error {
	type result struct {
		bodyIdx int
		boxes   []spatialmath.AABB
	}
	results := make([]result, len(bodies))

	var eg errgroup.Group
	for bi := range bodies {
		bi := bi
		eg.Go(func() error {
			boxes := make([]spatialmath.AABB, len(bodies[bi].LocalVertices))
			for vi, v := range bodies[bi].LocalVertices {
				box, err := VertexSweptAABB(bodies[bi], v, inflation)
				if err != nil {
					return err
				}
				boxes[vi] = box
			}
			results[bi] = result{bodyIdx: bi, boxes: boxes}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for bi, res := range results {
		base := vertexIDOffset[bi]
		for vi, box := range res.boxes {
			if err := g.Insert(KindVertex, base+vi, bi, box); err != nil {
				return err
			}
		}
	}
	return nil
}
