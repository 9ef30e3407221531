// Package solver implements a barrier-guarded Newton solver: free-DoF
// masking, a Cholesky direction solve with diagonal PSD lifting on failure,
// an Armijo backtracking line search, and per-solve telemetry counters.
package solver

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/rigidccd/ccdcore/ccderrors"
)

// Objective evaluates a scalar potential and its gradient/Hessian at x. The
// solver calls GradFx once per outer iteration and HessianFx only when it
// needs a fresh Newton direction, so a caller whose Hessian is expensive
// never pays for it during Fx-only line-search evaluations.
type Objective interface {
	// Fx returns the objective value at x.
	Fx(x []float64) float64
	// GradFx returns the objective's gradient at x.
	GradFx(x []float64) []float64
	// HessianFx returns the objective's Hessian at x, as a dense symmetric
	// matrix.
	HessianFx(x []float64) *mat.SymDense
	// CollisionCheck reports whether x is inside every constraint's
	// feasible region (e.g. every distance-barrier activation domain); the
	// line search rejects any step that fails it, even one that reduces Fx.
	CollisionCheck(x []float64) bool
}

// Options configures Solve.
type Options struct {
	// FreeDoF marks which coordinates the solver may move; false entries
	// are held fixed at their initial value throughout.
	FreeDoF []bool
	// GradTol is the gradient-norm convergence tolerance on free DoFs.
	GradTol float64
	// MaxNewtonIterations caps the outer loop.
	MaxNewtonIterations int
	// MaxLineSearchIterations caps each Armijo backtrack, as a safety net
	// alongside MinStepLength.
	MaxLineSearchIterations int
	// ArmijoC is the sufficient-decrease constant, typically 1e-4.
	ArmijoC float64
	// InitialMu is the starting diagonal-lifting coefficient tried when the
	// Hessian's Cholesky factorization fails; it doubles on each retry.
	InitialMu float64
	// MinStepLength is the line-search step-norm floor: backtracking stops,
	// rejecting the step, once the trial displacement's norm falls below it.
	MinStepLength float64
}

// DefaultOptions returns the solver's standard tuning, matching common
// Newton-with-line-search practice: tight gradient tolerance, generous
// iteration caps, and a small initial PSD-lifting coefficient.
func DefaultOptions(n int) Options {
	free := make([]bool, n)
	for i := range free {
		free[i] = true
	}
	return Options{
		FreeDoF:                 free,
		GradTol:                 1e-8,
		MaxNewtonIterations:     100,
		MaxLineSearchIterations: 40,
		ArmijoC:                 1e-4,
		InitialMu:               1e-9,
		MinStepLength:           1e-10,
	}
}

// Telemetry counts the work a Solve call performed.
type Telemetry struct {
	NumFx              int
	NumGradFx          int
	NumHessianFx       int
	NumCollisionCheck  int
	LineSearchIters    int
	NewtonIterations   int
}

// Result is a Solve outcome.
type Result struct {
	X         []float64
	Converged bool
	Telemetry Telemetry
}

// Solve runs Newton's method with PSD-projected directions and an Armijo
// line search from x0: at each iterate, freeze non-free DoFs to zero
// displacement, factor the (possibly diagonally-lifted) free-DoF Hessian
// block via Cholesky to get a descent direction, then backtrack until both
// sufficient decrease and the caller's feasibility predicate hold.
func Solve(obj Objective, x0 []float64, opts Options) (Result, error) {
	if len(opts.FreeDoF) != len(x0) {
		return Result{}, ccderrors.NewInputValidationError("FreeDoF length %d does not match x0 length %d", len(opts.FreeDoF), len(x0))
	}
	n := len(x0)
	x := append([]float64(nil), x0...)
	var tel Telemetry

	freeIdx := make([]int, 0, n)
	for i, free := range opts.FreeDoF {
		if free {
			freeIdx = append(freeIdx, i)
		}
	}
	m := len(freeIdx)
	if m == 0 {
		return Result{X: x, Converged: true, Telemetry: tel}, nil
	}

	for iter := 0; iter < opts.MaxNewtonIterations; iter++ {
		tel.NewtonIterations++

		grad := obj.GradFx(x)
		tel.NumGradFx++
		freeGrad := gather(grad, freeIdx)
		if norm2(freeGrad) < opts.GradTol {
			return Result{X: x, Converged: true, Telemetry: tel}, nil
		}

		hess := obj.HessianFx(x)
		tel.NumHessianFx++
		freeHess := gatherSym(hess, freeIdx)

		dir, err := descentDirection(freeHess, freeGrad, opts.InitialMu)
		if err != nil {
			return Result{X: x, Converged: false, Telemetry: tel}, errors.Wrap(err, "computing Newton direction")
		}

		fx := obj.Fx(x)
		tel.NumFx++

		minStep := opts.MinStepLength
		if minStep <= 0 {
			minStep = 1e-10
		}
		step := 1.0
		stepNorm := step * norm2(dir)
		accepted := false
		for ls := 0; ls < opts.MaxLineSearchIterations && stepNorm >= minStep; ls++ {
			tel.LineSearchIters++
			trial := scatterAdd(x, freeIdx, dir, -step)
			ok := obj.CollisionCheck(trial)
			tel.NumCollisionCheck++
			if ok {
				trialFx := obj.Fx(trial)
				tel.NumFx++
				directional := dotSubset(freeGrad, dir)
				if trialFx <= fx-opts.ArmijoC*step*directional {
					x = trial
					accepted = true
					break
				}
			}
			step *= 0.5
			stepNorm = step * norm2(dir)
		}
		if !accepted {
			return Result{X: x, Converged: false, Telemetry: tel}, nil
		}
	}

	return Result{X: x, Converged: false, Telemetry: tel}, nil
}

// descentDirection solves H*d = g for a descent direction via Cholesky,
// lifting the diagonal by an increasing mu*I whenever factorization fails
// because H is not (numerically) positive definite. The lift coefficient
// doubles from InitialMu on each retry.
func descentDirection(h *mat.SymDense, g []float64, initialMu float64) ([]float64, error) {
	n := len(g)
	mu := initialMu
	if mu <= 0 {
		mu = 1e-9
	}

	// The first attempt factors H unlifted; each retry adds lift*I, with
	// lift starting at mu and doubling.
	lift := 0.0
	lifted := mat.NewSymDense(n, nil)
	const maxLifts = 60
	for attempt := 0; attempt < maxLifts; attempt++ {
		lifted.CopySym(h)
		for i := 0; i < n; i++ {
			lifted.SetSym(i, i, lifted.At(i, i)+lift)
		}

		var chol mat.Cholesky
		if chol.Factorize(lifted) {
			gv := mat.NewVecDense(n, g)
			var dv mat.VecDense
			if err := chol.SolveVecTo(&dv, gv); err != nil {
				lift, mu = mu, mu*2
				continue
			}
			return dv.RawVector().Data, nil
		}
		lift, mu = mu, mu*2
	}
	return nil, errors.New("Hessian could not be lifted to positive definite within the retry budget")
}

func norm2(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func dotSubset(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func gather(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

func gatherSym(m *mat.SymDense, idx []int) *mat.SymDense {
	n := len(idx)
	out := mat.NewSymDense(n, nil)
	for i, gi := range idx {
		for j, gj := range idx {
			if j < i {
				continue
			}
			out.SetSym(i, j, m.At(gi, gj))
		}
	}
	return out
}

func scatterAdd(x []float64, idx []int, dir []float64, coeff float64) []float64 {
	out := append([]float64(nil), x...)
	for i, j := range idx {
		out[j] += coeff * dir[i]
	}
	return out
}
