// Package constraints implements the non-penetration constraint layer that
// sits between broad-phase culling and the Newton solver: a distance-barrier
// potential between primitive pairs and a swept-volume sign constraint,
// both differentiated by forward-mode automatic differentiation so the
// solver (package solver) can consume exact gradients without a
// hand-derived Jacobian per primitive pair (spec C7). Dual carries first
// derivatives only: Hessians are not produced by automatic differentiation
// but by central differences of these gradients
// (VolumeLayout.ComputeConstraintsHessian, and the scene package's
// point-push objectives).
package constraints

import "math"

// Dual is a forward-mode dual number carrying a value and its gradient with
// respect to a fixed-size set of variables. Each call site chooses its own
// variable count (12 for VolumeLayout's edge-edge swept volume, 1 to 3 in the
// scene package's single-point objectives) and the Grad slice is allocated fresh for each constraint evaluation, never
// shared or reused across calls, so evaluations on different goroutines never
// alias.
type Dual struct {
	Val  float64
	Grad []float64
}

// Const returns the dual constant v with an all-zero gradient of length n.
func Const(v float64, n int) Dual {
	return Dual{Val: v, Grad: make([]float64, n)}
}

// Var returns the dual variable seeded at value v, whose gradient is the
// i-th standard basis vector in n dimensions.
func Var(v float64, i, n int) Dual {
	d := Const(v, n)
	d.Grad[i] = 1
	return d
}

func (a Dual) n() int { return len(a.Grad) }

// Add returns a + b.
func Add(a, b Dual) Dual {
	out := Dual{Val: a.Val + b.Val, Grad: make([]float64, a.n())}
	for i := range out.Grad {
		out.Grad[i] = a.Grad[i] + b.Grad[i]
	}
	return out
}

// Sub returns a - b.
func Sub(a, b Dual) Dual {
	out := Dual{Val: a.Val - b.Val, Grad: make([]float64, a.n())}
	for i := range out.Grad {
		out.Grad[i] = a.Grad[i] - b.Grad[i]
	}
	return out
}

// Neg returns -a.
func Neg(a Dual) Dual {
	out := Dual{Val: -a.Val, Grad: make([]float64, a.n())}
	for i := range out.Grad {
		out.Grad[i] = -a.Grad[i]
	}
	return out
}

// Mul returns a * b, via the product rule.
func Mul(a, b Dual) Dual {
	out := Dual{Val: a.Val * b.Val, Grad: make([]float64, a.n())}
	for i := range out.Grad {
		out.Grad[i] = a.Grad[i]*b.Val + a.Val*b.Grad[i]
	}
	return out
}

// Scale returns a * s for a real scalar s.
func Scale(a Dual, s float64) Dual {
	out := Dual{Val: a.Val * s, Grad: make([]float64, a.n())}
	for i := range out.Grad {
		out.Grad[i] = a.Grad[i] * s
	}
	return out
}

// Div returns a / b, via the quotient rule. b.Val must be nonzero.
func Div(a, b Dual) Dual {
	out := Dual{Val: a.Val / b.Val, Grad: make([]float64, a.n())}
	inv := 1 / b.Val
	for i := range out.Grad {
		out.Grad[i] = (a.Grad[i]*b.Val - a.Val*b.Grad[i]) * inv * inv
	}
	return out
}

// Sqrt returns sqrt(a). a.Val must be >= 0.
func Sqrt(a Dual) Dual {
	v := math.Sqrt(a.Val)
	out := Dual{Val: v, Grad: make([]float64, a.n())}
	if v == 0 {
		return out
	}
	scale := 0.5 / v
	for i := range out.Grad {
		out.Grad[i] = a.Grad[i] * scale
	}
	return out
}

// Log returns ln(a). a.Val must be > 0.
func Log(a Dual) Dual {
	out := Dual{Val: math.Log(a.Val), Grad: make([]float64, a.n())}
	inv := 1 / a.Val
	for i := range out.Grad {
		out.Grad[i] = a.Grad[i] * inv
	}
	return out
}

// Square returns a * a.
func Square(a Dual) Dual {
	return Mul(a, a)
}

// Clamp01 returns a clamped into [0,1]. At the clamp boundary the gradient is
// zeroed rather than passed through, matching the standard treatment of a
// closest-point projection's non-differentiable corner.
func Clamp01(a Dual) Dual {
	if a.Val < 0 {
		return Const(0, a.n())
	}
	if a.Val > 1 {
		return Const(1, a.n())
	}
	return a
}
