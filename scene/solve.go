package scene

import (
	"github.com/rigidccd/ccdcore/solver"
)

const (
	defaultBarrierEpsilon = 1e-3
	defaultVolumeEpsilon  = 1e-6
)

// BarrierEpsilon returns the constraint layer's distance-barrier activation
// width, defaulting when the scene file leaves it unset.
func (c Config) BarrierEpsilon() float64 {
	if c.Constraints.BarrierEpsilon > 0 {
		return c.Constraints.BarrierEpsilon
	}
	return defaultBarrierEpsilon
}

// ActivationEpsilon returns CustomInitialEpsilon when the scene sets it,
// otherwise BarrierEpsilon, matching the original barrier constraint's use
// of a wider initial activation width for pairs already close at t0.
func (c Config) ActivationEpsilon() float64 {
	if c.Constraints.CustomInitialEpsilon > 0 {
		return c.Constraints.CustomInitialEpsilon
	}
	return c.BarrierEpsilon()
}

// VolumeEpsilon returns the swept-volume noise floor, defaulting when unset.
func (c Config) VolumeEpsilon() float64 {
	if c.Constraints.VolumeEpsilon > 0 {
		return c.Constraints.VolumeEpsilon
	}
	return defaultVolumeEpsilon
}

// NewtonOptions builds a solver.Options from the scene's solver settings for
// a problem with the given free-DoF mask, defaulting any field the scene
// file leaves unset to solver.DefaultOptions' tuning.
func (c Config) NewtonOptions(freeDoF []bool) solver.Options {
	opts := solver.DefaultOptions(len(freeDoF))
	opts.FreeDoF = freeDoF
	if c.Solver.MaxIterations > 0 {
		opts.MaxNewtonIterations = c.Solver.MaxIterations
	}
	if c.Solver.ArmijoCoeff > 0 {
		opts.ArmijoC = c.Solver.ArmijoCoeff
	}
	if c.Solver.AbsoluteTolerance > 0 {
		opts.GradTol = c.Solver.AbsoluteTolerance
	}
	if c.Solver.MinStepLength > 0 {
		opts.MinStepLength = c.Solver.MinStepLength
	}
	return opts
}
