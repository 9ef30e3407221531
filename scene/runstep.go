package scene

import (
	"math"

	"github.com/golang/geo/r3"
	"golang.org/x/sync/errgroup"

	"github.com/rigidccd/ccdcore/broadphase"
	"github.com/rigidccd/ccdcore/ccderrors"
	"github.com/rigidccd/ccdcore/ccdlog"
	"github.com/rigidccd/ccdcore/constraints"
	"github.com/rigidccd/ccdcore/interval"
	"github.com/rigidccd/ccdcore/spatialmath"
	"github.com/rigidccd/ccdcore/toi"
)

// StepReport summarizes one RunStep call: whether any candidate pair
// resolved to an earlier impact than the full step, the worst distance-
// barrier violation found among the surviving candidates, and the resolved
// end-of-step orientation of every body in the scene's units.
type StepReport struct {
	CandidatePairs int
	Impact         bool
	EarliestTOI    float64

	// BarrierViolations counts candidate pairs whose post-step squared
	// distance fell below the square of the constraint layer's activation
	// epsilon.
	BarrierViolations int
	// MinDistance2 is the smallest post-step squared distance seen across
	// every evaluated candidate pair.
	MinDistance2 float64
	// CorrectionDistance is how far the worst-violating pair's point would
	// need to move, per the Newton solver, to clear the activation width;
	// zero if no violation was found or the worst violation was an
	// edge-edge pair (not corrected; see DESIGN.md).
	CorrectionDistance float64
	// TunnelingDetected reports whether an oriented body's face-vertex
	// swept-volume sign flipped between t0 and t1 beyond VolumeEpsilon,
	// indicating a vertex may have passed clean through a face.
	TunnelingDetected bool
	// FinalRotationsDeg is each body's PoseT1 rotation, in the scene file's
	// degree units, indexed by rigid body.
	FinalRotationsDeg [][]float64
	// VolumeConstraintRows is the dense edge-indexed swept-volume constraint
	// vector (constraints.NumberOfVolumeConstraints(numEdges) long), gathered
	// via constraints.VolumeLayout.ComputeConstraints over every edge whose
	// first edge-edge impact this step recorded. Empty in 2D, where the
	// volume constraint has no edge-edge candidates to key off of.
	VolumeConstraintRows []float64
}

// RunStepOptions bounds the narrow-phase root search each candidate pair
// runs; see toi.Options.
type RunStepOptions struct {
	Inflation float64
	TOI       toi.Options
}

// DefaultRunStepOptions returns conservative defaults: a small AABB
// inflation to absorb floating-point slack at cell boundaries, and a
// narrow-phase tolerance tight enough for typical scene units.
func DefaultRunStepOptions() RunStepOptions {
	return RunStepOptions{
		Inflation: 1e-4,
		TOI:       toi.Options{Tol: 1e-9, MaxIterations: 200000},
	}
}

// RunStep assembles cfg over one step of length dt, culls candidate
// primitive pairs through the broad-phase hash grid, and resolves every
// candidate through the matching narrow-phase kernel and the constraint
// layer's distance barrier, returning the earliest time of impact found (if
// any) and the worst barrier violation seen.
func RunStep(cfg Config, dt float64, opts RunStepOptions) (StepReport, error) {
	log := ccdlog.New("scene")
	release := interval.AcquireRounding()
	defer release()

	assembly, err := Assemble(cfg, dt)
	if err != nil {
		return StepReport{}, err
	}

	toiOpts := opts.TOI
	if cfg.RootFind.Tol > 0 {
		toiOpts.Tol = cfg.RootFind.Tol
	}
	if cfg.RootFind.MaxIterations > 0 {
		toiOpts.MaxIterations = cfg.RootFind.MaxIterations
	}

	bodies := make([]broadphase.Body, len(assembly.Bodies))
	for i, b := range assembly.Bodies {
		bodies[i] = b.Body
	}

	eps := cfg.ActivationEpsilon()
	epsSq := eps * eps
	// Swept AABBs are inflated by at least the activation epsilon, so a pair
	// that ends the step closer than eps is still a broad-phase candidate and
	// reaches the barrier check below.
	inflation := math.Max(opts.Inflation, eps)

	domain, err := sweptDomain(bodies, inflation)
	if err != nil {
		return StepReport{}, err
	}

	var grid broadphase.HashGrid
	if err := grid.ResizeForRigidBodySweep(domain, bodies, inflation); err != nil {
		return StepReport{}, err
	}
	if err := grid.FillVertices(bodies, assembly.VertexIDOffsets, inflation); err != nil {
		return StepReport{}, err
	}

	edgeOwner, err := fillEdges(&grid, assembly, inflation)
	if err != nil {
		return StepReport{}, err
	}
	faceOwner, err := fillFaces(&grid, assembly, inflation)
	if err != nil {
		return StepReport{}, err
	}
	vertexOwner := ownerLookup(assembly.VertexIDOffsets, totalVertices(assembly))

	var report StepReport
	report.EarliestTOI = 1.0
	report.MinDistance2 = math.Inf(1)

	var worst worstViolation

	resolve := func(res toi.Result, err error) error {
		if err != nil {
			return err
		}
		report.CandidatePairs++
		if res.Found && res.T.Lo < report.EarliestTOI {
			report.EarliestTOI = res.T.Lo
			report.Impact = true
		}
		return nil
	}

	track := func(d2 float64, kind worstKind, positions [4][3]float64) {
		if d2 < report.MinDistance2 {
			report.MinDistance2 = d2
		}
		if d2 < epsSq {
			report.BarrierViolations++
			if d2 < worst.d2 || !worst.set {
				worst = worstViolation{set: true, d2: d2, kind: kind, positions: positions}
			}
		}
	}

	if assembly.Dim == 2 {
		for _, pair := range grid.EdgeVertexCandidates() {
			e := edgeOwner[pair.IDA]
			v := vertexOwner[pair.IDB]
			e0, e1 := edgeEndpoint(assembly, e, 0), edgeEndpoint(assembly, e, 1)
			pLin := vertexLinear(assembly, v)
			e0Lin := vertexLinear(assembly, e0)
			e1Lin := vertexLinear(assembly, e1)
			res, err := toi.VertexEdge2D(vertexRigid(assembly, v), vertexRigid(assembly, e0), vertexRigid(assembly, e1), toiOpts)
			log.Debugw("vertex-edge candidate", "vertex", v, "edge", e, "found", res.Found)
			if err := resolve(res, err); err != nil {
				return StepReport{}, err
			}
			d2 := vertexEdgeDistance2(pLin.P1, e0Lin.P1, e1Lin.P1)
			track(d2, worstVertexEdge, [4][3]float64{pLin.P1, e0Lin.P1, e1Lin.P1})
		}
	} else {
		edgeImpacts := constraints.NewEdgeImpactTable(len(edgeOwner))
		for _, pair := range grid.EdgeEdgeCandidates() {
			ea := edgeOwner[pair.IDA]
			eb := edgeOwner[pair.IDB]
			gva0, gva1 := edgeEndpoint(assembly, ea, 0), edgeEndpoint(assembly, ea, 1)
			gvb0, gvb1 := edgeEndpoint(assembly, eb, 0), edgeEndpoint(assembly, eb, 1)
			a0 := vertexLinear(assembly, gva0)
			a1 := vertexLinear(assembly, gva1)
			b0 := vertexLinear(assembly, gvb0)
			b1 := vertexLinear(assembly, gvb1)
			res, err := toi.EdgeEdge3D(vertexRigid(assembly, gva0), vertexRigid(assembly, gva1), vertexRigid(assembly, gvb0), vertexRigid(assembly, gvb1), toiOpts)
			log.Debugw("edge-edge candidate", "edgeA", ea, "edgeB", eb, "found", res.Found)
			if err := resolve(res, err); err != nil {
				return StepReport{}, err
			}
			d2 := edgeEdgeDistance2(a0.P1, a1.P1, b0.P1, b1.P1)
			track(d2, worstEdgeEdge, [4][3]float64{a0.P1, a1.P1, b0.P1, b1.P1})
			if res.Found {
				edgeImpacts.RecordImpact(pair.IDA, pair.IDB)
			}
		}
		rows, err := volumeConstraintRows(assembly, edgeOwner, vertexOwner, edgeImpacts)
		if err != nil {
			return StepReport{}, err
		}
		report.VolumeConstraintRows = rows
		for _, pair := range grid.FaceVertexCandidates() {
			f := faceOwner[pair.IDA]
			v := vertexOwner[pair.IDB]
			gvq0, gvq1, gvq2 := faceVertex(assembly, f, 0), faceVertex(assembly, f, 1), faceVertex(assembly, f, 2)
			pLin := vertexLinear(assembly, v)
			q0Lin := vertexLinear(assembly, gvq0)
			q1Lin := vertexLinear(assembly, gvq1)
			q2Lin := vertexLinear(assembly, gvq2)
			res, err := toi.FaceVertex3D(vertexRigid(assembly, v), vertexRigid(assembly, gvq0), vertexRigid(assembly, gvq1), vertexRigid(assembly, gvq2), toiOpts)
			log.Debugw("face-vertex candidate", "face", f, "vertex", v, "found", res.Found)
			if err := resolve(res, err); err != nil {
				return StepReport{}, err
			}
			d2 := faceVertexDistance2(pLin.P1, q0Lin.P1, q1Lin.P1, q2Lin.P1)
			track(d2, worstFaceVertex, [4][3]float64{pLin.P1, q0Lin.P1, q1Lin.P1, q2Lin.P1})

			body := assembly.Bodies[f.body]
			if body.Oriented {
				vol0 := constraints.SignedVolumeTetrahedron(dvec3(pLin.P0), dvec3(q0Lin.P0), dvec3(q1Lin.P0), dvec3(q2Lin.P0))
				vol1 := constraints.SignedVolumeTetrahedron(dvec3(pLin.P1), dvec3(q0Lin.P1), dvec3(q1Lin.P1), dvec3(q2Lin.P1))
				if _, violated := constraints.VolumeConstraint(vol1, vol0.Val); violated {
					if abs(vol0.Val) > cfg.VolumeEpsilon() || abs(vol1.Val) > cfg.VolumeEpsilon() {
						report.TunnelingDetected = true
					}
				}
			}
		}
	}

	if worst.set {
		switch worst.kind {
		case worstVertexEdge:
			res, err := resolveVertexEdgeBarrier(cfg, worst.positions[0], worst.positions[1], worst.positions[2], eps)
			if err == nil {
				report.CorrectionDistance = correctionNorm(worst.positions[0][:2], res.X)
			}
		case worstFaceVertex:
			res, err := resolveFaceVertexBarrier(cfg, worst.positions[0], worst.positions[1], worst.positions[2], worst.positions[3], eps)
			if err == nil {
				report.CorrectionDistance = correctionNorm(worst.positions[0][:], res.X)
			}
			// worstEdgeEdge is not corrected: its four points span two
			// independent bodies with no single free point to push, and
			// splitting the correction across both edges needs a mass-aware
			// model this report-level check does not have.
		}
	}

	report.FinalRotationsDeg = make([][]float64, len(assembly.Bodies))
	for i, b := range assembly.Bodies {
		report.FinalRotationsDeg[i] = b.RotationDeg()
	}

	log.Infow("step resolved", "candidatePairs", report.CandidatePairs, "impact", report.Impact,
		"earliestTOI", report.EarliestTOI, "barrierViolations", report.BarrierViolations, "tunneling", report.TunnelingDetected)
	return report, nil
}

type worstKind int

const (
	worstVertexEdge worstKind = iota
	worstEdgeEdge
	worstFaceVertex
)

type worstViolation struct {
	set       bool
	d2        float64
	kind      worstKind
	positions [4][3]float64
}

func correctionNorm(initial []float64, resolved []float64) float64 {
	sum := 0.0
	for i := range initial {
		d := resolved[i] - initial[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// globalVertex identifies a body-local vertex by scene-global body and local
// indices.
type globalVertex struct {
	body, local int
}

func totalVertices(a Assembly) int {
	n := 0
	for _, b := range a.Bodies {
		n += len(b.LocalVertices)
	}
	return n
}

// ownerLookup returns, for every global vertex id, the body/local index it
// belongs to, derived from the offsets Assemble produced.
func ownerLookup(offsets []int, total int) []globalVertex {
	owner := make([]globalVertex, total)
	for bi, off := range offsets {
		end := total
		if bi+1 < len(offsets) {
			end = offsets[bi+1]
		}
		for id := off; id < end; id++ {
			owner[id] = globalVertex{body: bi, local: id - off}
		}
	}
	return owner
}

func vertexLinear(a Assembly, gv globalVertex) toi.Linear {
	body := a.Bodies[gv.body]
	local := body.LocalVertices[gv.local]
	p0 := worldVertex(body.Body, local, 0)
	p1 := worldVertex(body.Body, local, 1)
	return toi.Linear{P0: p0, P1: p1}
}

// vertexRigid returns gv's true screw-motion trajectory, for use as a
// toi kernel's Trajectory argument: the kernel's own bisection samples this
// at whatever time sub-box it is currently narrowing, not just at t=0/t=1.
func vertexRigid(a Assembly, gv globalVertex) toi.RigidVertex {
	body := a.Bodies[gv.body]
	local := body.LocalVertices[gv.local]
	return toi.RigidVertex{Body: body.Body, Local: local}
}

// globalVertexID returns gv's index in the scene-wide flattened vertex
// numbering Assemble produced via VertexIDOffsets.
func globalVertexID(a Assembly, gv globalVertex) int {
	return a.VertexIDOffsets[gv.body] + gv.local
}

// volumeConstraintRows evaluates the dense swept-volume constraint set
// (constraints.VolumeLayout.ComputeConstraints) over every edge with a
// recorded first impact, at the end-of-step (t1) world positions of every
// vertex in the scene. Returns nil if no edge recorded an impact.
func volumeConstraintRows(a Assembly, edgeOwner []globalEdge, vertexOwner []globalVertex, table *constraints.EdgeImpactTable) ([]float64, error) {
	numEdges := len(edgeOwner)
	if numEdges == 0 {
		return nil, nil
	}
	any := false
	for e := 0; e < numEdges; e++ {
		if _, _, ok := table.Impact(e); ok {
			any = true
			break
		}
	}
	if !any {
		return nil, nil
	}

	total := len(vertexOwner)
	u := make([]float64, total*3)
	for id, gv := range vertexOwner {
		p := vertexLinear(a, gv).P1
		u[id*3], u[id*3+1], u[id*3+2] = p[0], p[1], p[2]
	}

	edgeVerts := make([][2]int, numEdges)
	for e, ge := range edgeOwner {
		v0 := globalVertexID(a, edgeEndpoint(a, ge, 0))
		v1 := globalVertexID(a, edgeEndpoint(a, ge, 1))
		edgeVerts[e] = [2]int{v0, v1}
	}
	layout := constraints.VolumeLayout{EdgeVertices: edgeVerts, Dim: 3}
	return layout.ComputeConstraints(table, u), nil
}

func worldVertex(body broadphase.Body, local r3.Vector, t float64) [3]float64 {
	xyz, err := broadphase.VertexIntervalTrajectory(body, local, interval.Point(t))
	if err != nil {
		// Degenerate screw decomposition (identity rotation) at an exact
		// point in time cannot fail; if it ever does, report the vertex at
		// the world origin rather than panic.
		return [3]float64{0, 0, 0}
	}
	return [3]float64{xyz[0].Mid(), xyz[1].Mid(), xyz[2].Mid()}
}

// globalEdge identifies a body-local edge.
type globalEdge struct {
	body, local int
}

func edgeEndpoint(a Assembly, ge globalEdge, which int) globalVertex {
	edge := a.Bodies[ge.body].Edges[ge.local]
	return globalVertex{body: ge.body, local: edge[which]}
}

// fillEdges computes each body's swept edge AABBs in parallel, one task per
// body, mirroring broadphase.HashGrid.FillVertices, then inserts them
// sequentially since HashGrid.Insert mutates unsynchronized slices.
func fillEdges(grid *broadphase.HashGrid, a Assembly, inflation float64) ([]globalEdge, error) {
	type result struct {
		boxes []spatialmath.AABB
	}
	results := make([]result, len(a.Bodies))

	var eg errgroup.Group
	for bi := range a.Bodies {
		bi := bi
		eg.Go(func() error {
			body := a.Bodies[bi]
			boxes := make([]spatialmath.AABB, len(body.Edges))
			for li, edge := range body.Edges {
				v0 := body.LocalVertices[edge[0]]
				v1 := body.LocalVertices[edge[1]]
				box0, err := broadphase.VertexSweptAABB(body.Body, v0, inflation)
				if err != nil {
					return err
				}
				box1, err := broadphase.VertexSweptAABB(body.Body, v1, inflation)
				if err != nil {
					return err
				}
				boxes[li] = spatialmath.Union(box0, box1)
			}
			results[bi] = result{boxes: boxes}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var owner []globalEdge
	for bi, res := range results {
		for li, box := range res.boxes {
			id := len(owner)
			if err := grid.Insert(broadphase.KindEdge, id, bi, box); err != nil {
				return nil, err
			}
			owner = append(owner, globalEdge{body: bi, local: li})
		}
	}
	return owner, nil
}

// globalFace identifies a body-local face.
type globalFace struct {
	body, local int
}

func faceVertex(a Assembly, gf globalFace, which int) globalVertex {
	face := a.Bodies[gf.body].Faces[gf.local]
	return globalVertex{body: gf.body, local: face[which]}
}

// fillFaces is the face-list analog of fillEdges: per-body AABB computation
// runs in parallel, insertion runs after the barrier since HashGrid.Insert is
// not safe for concurrent calls.
func fillFaces(grid *broadphase.HashGrid, a Assembly, inflation float64) ([]globalFace, error) {
	type result struct {
		boxes []spatialmath.AABB
	}
	results := make([]result, len(a.Bodies))

	var eg errgroup.Group
	for bi := range a.Bodies {
		bi := bi
		eg.Go(func() error {
			body := a.Bodies[bi]
			boxes := make([]spatialmath.AABB, len(body.Faces))
			for li, face := range body.Faces {
				if len(face) != 3 {
					return ccderrors.NewInputValidationError("face must have 3 vertices, got %d", len(face))
				}
				var box spatialmath.AABB
				for k, idx := range face {
					b, err := broadphase.VertexSweptAABB(body.Body, body.LocalVertices[idx], inflation)
					if err != nil {
						return err
					}
					if k == 0 {
						box = b
					} else {
						box = spatialmath.Union(box, b)
					}
				}
				boxes[li] = box
			}
			results[bi] = result{boxes: boxes}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var owner []globalFace
	for bi, res := range results {
		for li, box := range res.boxes {
			id := len(owner)
			if err := grid.Insert(broadphase.KindFace, id, bi, box); err != nil {
				return nil, err
			}
			owner = append(owner, globalFace{body: bi, local: li})
		}
	}
	return owner, nil
}

// sweptDomain returns the union of every body's per-vertex swept AABB,
// inflated, as the hash grid's covering domain.
func sweptDomain(bodies []broadphase.Body, inflation float64) (spatialmath.AABB, error) {
	var domain spatialmath.AABB
	first := true
	for _, b := range bodies {
		for _, v := range b.LocalVertices {
			box, err := broadphase.VertexSweptAABB(b, v, inflation)
			if err != nil {
				return spatialmath.AABB{}, err
			}
			if first {
				domain = box
				first = false
			} else {
				domain = spatialmath.Union(domain, box)
			}
		}
	}
	if first {
		return spatialmath.AABB{}, ccderrors.NewInputValidationError("scene has no vertices to bound")
	}
	return domain, nil
}
