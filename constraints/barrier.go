package constraints

import "github.com/rigidccd/ccdcore/ccderrors"

// DistanceBarrier evaluates the log-barrier potential
//
//	phi(d2; eps) = -d2 * ln(d2 / eps^2),  0 < d2 <= eps^2
//	phi(d2; eps) = 0,                     d2 > eps^2
//
// on the squared distance d2 with activation threshold eps, the constraint
// spec C7 lays out for keeping non-adjacent primitives apart between
// discrete time steps. The activation cutoff is on eps^2, matching that d2
// is itself a squared distance: eps is a length, so the comparable quantity
// is eps^2, not eps.
func DistanceBarrier(d2 Dual, eps float64) (Dual, error) {
	if eps <= 0 {
		return Dual{}, ccderrors.NewInputValidationError("distance barrier activation eps must be > 0, got %g", eps)
	}
	epsSq := eps * eps
	if d2.Val > epsSq {
		return Const(0, d2.n()), nil
	}
	if d2.Val <= 0 {
		return Dual{}, ccderrors.NewNumericalError("distance barrier evaluated at non-positive squared distance %g", d2.Val)
	}
	epsSqD := Const(epsSq, d2.n())
	ratio := Div(d2, epsSqD)
	return Neg(Mul(d2, Log(ratio))), nil
}
