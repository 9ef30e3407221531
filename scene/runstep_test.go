package scene

import (
	"testing"

	"go.viam.com/test"
)

// A point body falls straight down onto a stationary horizontal edge it
// starts above; RunStep must report an impact partway through the step.
func TestRunStep2DVertexEdgeImpact(t *testing.T) {
	pointBody := RigidBodyConfig{
		Vertices:        [][]float64{{0, 0}},
		Density:         1,
		Position:        []float64{0, 1},
		RotationDeg:     []float64{0},
		LinearVelocity:  []float64{0, -2},
		AngularVelocity: []float64{0},
	}
	edgeBody := RigidBodyConfig{
		Vertices:        [][]float64{{-1, 0}, {1, 0}},
		Edges:           [][]int{{0, 1}},
		Density:         1,
		Position:        []float64{0, 0},
		RotationDeg:     []float64{0},
		LinearVelocity:  []float64{0, 0},
		AngularVelocity: []float64{0},
	}
	cfg := Config{RigidBodies: []RigidBodyConfig{pointBody, edgeBody}}

	report, err := RunStep(cfg, 1.0, DefaultRunStepOptions())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Impact, test.ShouldBeTrue)
	test.That(t, report.EarliestTOI, test.ShouldBeBetween, 0.0, 1.0)
}

// Two bodies moving apart never register an impact; RunStep reports no
// impact and the full step's earliest TOI stays at 1.0.
func TestRunStep2DNoImpactWhenSeparating(t *testing.T) {
	pointBody := RigidBodyConfig{
		Vertices:        [][]float64{{0, 5}},
		Density:         1,
		Position:        []float64{0, 0},
		RotationDeg:     []float64{0},
		LinearVelocity:  []float64{0, 1},
		AngularVelocity: []float64{0},
	}
	edgeBody := RigidBodyConfig{
		Vertices:        [][]float64{{-1, 0}, {1, 0}},
		Edges:           [][]int{{0, 1}},
		Density:         1,
		Position:        []float64{0, -5},
		RotationDeg:     []float64{0},
		LinearVelocity:  []float64{0, 0},
		AngularVelocity: []float64{0},
	}
	cfg := Config{RigidBodies: []RigidBodyConfig{pointBody, edgeBody}}

	report, err := RunStep(cfg, 1.0, DefaultRunStepOptions())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Impact, test.ShouldBeFalse)
	test.That(t, report.EarliestTOI, test.ShouldEqual, 1.0)
}

// A point body ends the step just above a stationary edge, close enough to
// trip the distance barrier's activation width without actually crossing it;
// RunStep must report the violation and a nonzero correction distance.
func TestRunStep2DReportsBarrierViolation(t *testing.T) {
	pointBody := RigidBodyConfig{
		Vertices:        [][]float64{{0, 0}},
		Density:         1,
		Position:        []float64{0, 0.005},
		RotationDeg:     []float64{0},
		LinearVelocity:  []float64{0, 0},
		AngularVelocity: []float64{0},
	}
	edgeBody := RigidBodyConfig{
		Vertices:        [][]float64{{-1, 0}, {1, 0}},
		Edges:           [][]int{{0, 1}},
		Density:         1,
		Position:        []float64{0, 0},
		RotationDeg:     []float64{0},
		LinearVelocity:  []float64{0, 0},
		AngularVelocity: []float64{0},
	}
	cfg := Config{
		RigidBodies: []RigidBodyConfig{pointBody, edgeBody},
		Constraints: ConstraintSettings{BarrierEpsilon: 0.01},
	}

	report, err := RunStep(cfg, 1.0, DefaultRunStepOptions())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.BarrierViolations, test.ShouldBeGreaterThan, 0)
	test.That(t, report.MinDistance2, test.ShouldBeLessThan, 0.01)
	test.That(t, report.CorrectionDistance, test.ShouldBeGreaterThan, 0)
	test.That(t, len(report.FinalRotationsDeg), test.ShouldEqual, 2)
}

func TestAssembleConvertsDegreesToRadians(t *testing.T) {
	body := minimal2DBody()
	body.RotationDeg = []float64{90}
	cfg := Config{RigidBodies: []RigidBodyConfig{body}}
	assembly, err := Assemble(cfg, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, assembly.Bodies[0].PoseT0.Angle2D(), test.ShouldAlmostEqual, 1.5707963267948966, 1e-9)
}
