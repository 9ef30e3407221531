// Package rootfind implements the interval branch-and-bound search for the
// earliest root of an interval-extended function on a bounded n-D domain,
// subject to a domain-validity predicate and a caller-supplied constraint
// predicate.
package rootfind

import (
	"github.com/rigidccd/ccdcore/ccderrors"
	"github.com/rigidccd/ccdcore/interval"
)

// Func is an interval-extended vector function: given a box, it returns an
// enclosure of the true function's range over that box.
type Func func(x interval.Box) interval.Box

// Predicate is a domain-validity or constraint check on a box.
type Predicate func(x interval.Box) bool

// AlwaysValid is the trivial domain-validity predicate used by the 1D
// specialization and by kernels with no extra domain restriction.
func AlwaysValid(interval.Box) bool { return true }

// Options configures Find.
type Options struct {
	// Tol is the componentwise width tolerance at which a box is accepted
	// as a leaf.
	Tol []float64
	// MaxIterations bounds the number of stack pops; exceeding it aborts
	// the search and returns found=false rather than falling back to an
	// unbounded search.
	MaxIterations int
}

// Result is the earliest root found, or found=false if none exists within
// MaxIterations pops or the domain is otherwise exhausted.
type Result struct {
	Box   interval.Box
	Found bool
}

// Find runs a depth-first branch-and-bound search: pop the stack, prune
// against the current earliest root, discard boxes failing domain validity
// or not containing a zero of f, accept boxes within tolerance that satisfy
// the constraint predicate, and otherwise bisect on the axis with the
// largest width/tol ratio, pushing the upper half first so the lower half
// (containing the earlier time) is explored first.
func Find(x0 interval.Box, f Func, domainValid, constraint Predicate, opts Options) (Result, error) {
	if !interval.RoundingAcquired() {
		return Result{}, ccderrors.NewNumericalError("interval root finder invoked without an acquired rounding scope")
	}
	if len(opts.Tol) != len(x0) {
		return Result{}, ccderrors.NewInputValidationError("tolerance length %d does not match box dimension %d", len(opts.Tol), len(x0))
	}

	tol := append([]float64(nil), opts.Tol...)

	// Preflight: a root pinned at the very start of the search box would
	// otherwise satisfy the tolerance check on the very first pop and mask
	// all further bisection progress on coordinate 0. Shrinking tol[0] by
	// two orders of magnitude forces at least a few more bisections before
	// such a root is accepted.
	origin := x0.Origin()
	preflightBox := make(interval.Box, len(x0))
	for i := range preflightBox {
		preflightBox[i] = interval.I{Lo: origin[i].Lo, Hi: origin[i].Lo + tol[i]}
	}
	if f(preflightBox).ZeroIn() {
		tol[0] /= 100
	}

	stack := []interval.Box{x0.Clone()}
	var earliest interval.Box
	found := false

	iterations := 0
	for len(stack) > 0 {
		if opts.MaxIterations > 0 && iterations >= opts.MaxIterations {
			return Result{Found: false}, nil
		}
		iterations++

		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if found && x[0].Lo >= earliest[0].Lo {
			continue
		}
		if !domainValid(x) {
			continue
		}
		y := f(x)
		if !y.ZeroIn() {
			continue
		}
		if x.WithinTol(tol) {
			if constraint(x) {
				earliest = x
				found = true
			}
			continue
		}

		axis := x.SplitAxis(tol)
		if axis == -1 {
			if constraint(x) {
				earliest = x
				found = true
			}
			continue
		}
		lo, hi := x.BisectAxis(axis)
		stack = append(stack, hi, lo)
	}

	return Result{Box: earliest, Found: found}, nil
}

// Find1D wraps Find for n=1 with a trivially-true domain-validity predicate.
func Find1D(x0 interval.I, f func(interval.I) interval.I, constraint func(interval.I) bool, tol float64, maxIterations int) (interval.I, bool, error) {
	wrapped := func(b interval.Box) interval.Box { return interval.Box{f(b[0])} }
	wrappedConstraint := func(b interval.Box) bool { return constraint(b[0]) }
	res, err := Find(interval.Box{x0}, wrapped, AlwaysValid, wrappedConstraint, Options{Tol: []float64{tol}, MaxIterations: maxIterations})
	if err != nil {
		return interval.I{}, false, err
	}
	if !res.Found {
		return interval.I{}, false, nil
	}
	return res.Box[0], true, nil
}
