// Package scene parses the JSON scene description, assembles it into the
// rigid-body and broad-phase types the CCD pipeline operates on, and runs
// one full step of the pipeline end to end.
package scene

import (
	"encoding/json"

	"go.uber.org/multierr"

	"github.com/rigidccd/ccdcore/ccderrors"
)

// RigidBodyConfig is one entry of the scene file's rigid_bodies array. Only
// an explicit vertex/face/edge list is supported; mesh is accepted so the
// schema is forward-compatible with an external-file loader, but is
// currently rejected at validation time as unimplemented.
type RigidBodyConfig struct {
	Mesh            string      `json:"mesh,omitempty"`
	Vertices        [][]float64 `json:"vertices"`
	Faces           [][]int     `json:"faces,omitempty"`
	Edges           [][]int     `json:"edges,omitempty"`
	Density         float64     `json:"density"`
	IsDofFixed      []bool      `json:"is_dof_fixed,omitempty"`
	// Oriented reports whether Faces' vertex winding is consistent across
	// the body (all outward, or all inward); it gates whether RunStep trusts
	// winding-dependent sign tests such as SignedVolumeTetrahedron.
	Oriented        bool        `json:"oriented"`
	Position        []float64   `json:"position"`
	RotationDeg     []float64   `json:"rotation"`
	LinearVelocity  []float64   `json:"linear_velocity"`
	AngularVelocity []float64   `json:"angular_velocity"`
}

// ConstraintSettings configures package constraints' distance-barrier and
// swept-volume checks.
type ConstraintSettings struct {
	// BarrierEpsilon is the distance activation width: the distance barrier
	// is nonzero where a pair's squared distance is below its square.
	BarrierEpsilon float64 `json:"barrier_epsilon"`
	// CustomInitialEpsilon, when > 0, replaces BarrierEpsilon as the
	// activation width for every constraint (see Config.ActivationEpsilon).
	CustomInitialEpsilon float64 `json:"custom_inital_epsilon"`
	// VolumeEpsilon is the swept-volume magnitude below which a sign flip is
	// treated as numerical noise rather than a genuine tunneling event.
	VolumeEpsilon float64 `json:"volume_epsilon"`
}

// SolverSettings configures the Newton solver's stopping criteria and line
// search.
type SolverSettings struct {
	// MaxIterations caps the outer Newton loop.
	MaxIterations int `json:"max_iterations"`
	// MinStepLength is the line-search step-norm floor: backtracking stops
	// once the trial step's norm falls below it, whether or not a sufficient
	// decrease was found.
	MinStepLength float64 `json:"min_step_length"`
	// ArmijoCoeff is the Armijo sufficient-decrease constant.
	ArmijoCoeff float64 `json:"armijo_coeff"`
	// AbsoluteTolerance is the gradient-norm convergence tolerance on free
	// DoFs.
	AbsoluteTolerance float64 `json:"absolute_tolerance"`
}

// RootFindSettings configures package rootfind's search.
type RootFindSettings struct {
	Tol           float64 `json:"tol"`
	MaxIterations int     `json:"max_iterations"`
}

// Config is the top-level scene description.
type Config struct {
	RigidBodies []RigidBodyConfig `json:"rigid_bodies"`
	Constraints ConstraintSettings `json:"constraints"`
	Solver      SolverSettings     `json:"solver"`
	RootFind    RootFindSettings   `json:"root_find"`
	TimeStep    float64            `json:"time_step"`
}

// dim returns the rigid body's dimensionality from its position vector's
// length, which must be 2 or 3.
func (rb RigidBodyConfig) dim() (int, error) {
	switch len(rb.Position) {
	case 2:
		return 2, nil
	case 3:
		return 3, nil
	default:
		return 0, ccderrors.NewInputValidationError("rigid body position must have length 2 or 3, got %d", len(rb.Position))
	}
}

// Load parses and validates a scene JSON document. rotation and
// angular_velocity are given in degrees and degrees/second and are converted
// to radians during Assemble, not here, so Config still reflects the file's
// literal units for inspection or re-serialization.
func Load(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, ccderrors.NewInputValidationError("parsing scene JSON: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks structural invariants Load and Assemble both depend on:
// every body resolves to a dimension, every body in the scene shares the
// same dimension (spec explicitly forbids mixed 2D/3D scenes), and no body
// requests the unimplemented external-mesh loader. Every rigid body is
// checked independently and their errors combined with multierr, so a
// malformed scene reports every offending body in one pass instead of
// forcing a fix-and-rerun cycle per error.
func (c Config) Validate() error {
	if len(c.RigidBodies) == 0 {
		return ccderrors.NewInputValidationError("scene must contain at least one rigid body")
	}

	var errs error
	sceneDim := 0
	for i, rb := range c.RigidBodies {
		if rb.Mesh != "" {
			errs = multierr.Append(errs, ccderrors.NewUnimplementedConfigError("rigid body %d: external mesh loading is not implemented, use inline vertices", i))
			continue
		}
		d, err := rb.dim()
		if err != nil {
			errs = multierr.Append(errs, errIn(i, err))
			continue
		}
		if sceneDim == 0 {
			sceneDim = d
		} else if d != sceneDim {
			errs = multierr.Append(errs, ccderrors.NewInputValidationError("scene mixes 2D and 3D rigid bodies (body %d has dimension %d, scene is %d); mixed-dimension scenes are not supported", i, d, sceneDim))
			continue
		}
		errs = multierr.Append(errs, validateBody(i, rb, d))
	}
	return errs
}

func validateBody(i int, rb RigidBodyConfig, d int) error {
	if len(rb.Vertices) == 0 {
		return errIn(i, ccderrors.NewInputValidationError("rigid body has no vertices"))
	}
	for _, v := range rb.Vertices {
		if len(v) != d {
			return errIn(i, ccderrors.NewInputValidationError("vertex has %d components, expected %d", len(v), d))
		}
	}
	if len(rb.LinearVelocity) != d {
		return errIn(i, ccderrors.NewInputValidationError("linear_velocity has %d components, expected %d", len(rb.LinearVelocity), d))
	}
	wantAngular := 1
	if d == 3 {
		wantAngular = 3
	}
	if len(rb.AngularVelocity) != wantAngular {
		return errIn(i, ccderrors.NewInputValidationError("angular_velocity has %d components, expected %d", len(rb.AngularVelocity), wantAngular))
	}
	if len(rb.RotationDeg) != wantAngular {
		return errIn(i, ccderrors.NewInputValidationError("rotation has %d components, expected %d", len(rb.RotationDeg), wantAngular))
	}
	if rb.Density <= 0 {
		return errIn(i, ccderrors.NewInputValidationError("density must be > 0, got %g", rb.Density))
	}
	if rb.IsDofFixed != nil && len(rb.IsDofFixed) != dofCount(d) {
		return errIn(i, ccderrors.NewInputValidationError("is_dof_fixed has %d entries, expected %d", len(rb.IsDofFixed), dofCount(d)))
	}
	return nil
}

// dofCount returns the number of rigid-body DoFs for the given dimension:
// position + heading in 2D, position + axis-angle in 3D.
func dofCount(dim int) int {
	if dim == 2 {
		return 3
	}
	return 6
}

func errIn(bodyIdx int, err error) error {
	return ccderrors.NewInputValidationError("rigid body %d: %v", bodyIdx, err)
}
