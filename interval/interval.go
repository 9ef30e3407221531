// Package interval implements rounded interval arithmetic over float64: the
// enclosure operations, hull, bisection, and width used by the broad-phase
// AABB sweep and the narrow-phase root finder to bound the true range of a
// nonlinear function on a box.
//
// Every arithmetic operation is outward-rounding: for interval x and any
// real v in x, f(v) must lie in f(x). Rounding is done in software rather
// than by toggling the hardware FPU's rounding mode, since Go exposes no
// portable API for that control and this package has no cgo or
// platform-specific dependency to reach for it. The algebraic operators
// (+,-,*,/,sqrt) push each result bound outward one ULP with math.Nextafter
// (see nextUp/nextDown); the transcendentals (sin, cos, exp, log) widen
// their endpoint values by a fixed relative slack instead (see
// transcendentalSlack and inflate).
package interval

import "math"

// I is a closed interval [Lo, Hi] with Lo <= Hi.
type I struct {
	Lo, Hi float64
}

// Point returns the degenerate interval [v, v].
func Point(v float64) I {
	return I{Lo: v, Hi: v}
}

// FromBounds builds an interval from two bounds in either order.
func FromBounds(a, b float64) I {
	if a <= b {
		return I{Lo: a, Hi: b}
	}
	return I{Lo: b, Hi: a}
}

// Width returns Hi - Lo.
func (x I) Width() float64 {
	return x.Hi - x.Lo
}

// Mid returns the interval midpoint.
func (x I) Mid() float64 {
	return 0.5 * (x.Lo + x.Hi)
}

// ZeroIn reports whether 0 is a member of x.
func (x I) ZeroIn() bool {
	return x.Lo <= 0 && 0 <= x.Hi
}

// Contains reports whether v is a member of x.
func (x I) Contains(v float64) bool {
	return x.Lo <= v && v <= x.Hi
}

// Hull returns the smallest interval containing both a and b.
func Hull(a, b I) I {
	return I{Lo: math.Min(a.Lo, b.Lo), Hi: math.Max(a.Hi, b.Hi)}
}

// Bisect splits x at its midpoint into a lower and upper half; the halves
// share the midpoint so their union is exactly x.
func (x I) Bisect() (lo, hi I) {
	m := x.Mid()
	return I{Lo: x.Lo, Hi: m}, I{Lo: m, Hi: x.Hi}
}

// nextUp/nextDown implement the outward-rounding envelope for the algebraic
// backend: every result is inflated by one ULP in the offending direction so
// that float64 rounding error cannot shrink the true enclosure.
func nextUp(v float64) float64 {
	return math.Nextafter(v, math.Inf(1))
}

func nextDown(v float64) float64 {
	return math.Nextafter(v, math.Inf(-1))
}

// Add returns the outward-rounded sum x + y.
func Add(x, y I) I {
	return I{Lo: nextDown(x.Lo + y.Lo), Hi: nextUp(x.Hi + y.Hi)}
}

// Sub returns the outward-rounded difference x - y.
func Sub(x, y I) I {
	return I{Lo: nextDown(x.Lo - y.Hi), Hi: nextUp(x.Hi - y.Lo)}
}

// Neg returns -x.
func Neg(x I) I {
	return I{Lo: -x.Hi, Hi: -x.Lo}
}

// Mul returns the outward-rounded product x * y.
func Mul(x, y I) I {
	candidates := [4]float64{x.Lo * y.Lo, x.Lo * y.Hi, x.Hi * y.Lo, x.Hi * y.Hi}
	lo, hi := candidates[0], candidates[0]
	for _, c := range candidates[1:] {
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	return I{Lo: nextDown(lo), Hi: nextUp(hi)}
}

// Scale returns the outward-rounded product of interval x with real scalar s.
func Scale(x I, s float64) I {
	if s >= 0 {
		return I{Lo: nextDown(x.Lo * s), Hi: nextUp(x.Hi * s)}
	}
	return I{Lo: nextDown(x.Hi * s), Hi: nextUp(x.Lo * s)}
}

// Div returns the outward-rounded quotient x / y. The caller must ensure
// 0 is not in y; division by a zero-straddling interval is undefined here
// because the CCD core never needs it (all divisors are barrier epsilons or
// nonzero displacement denominators).
func Div(x, y I) I {
	candidates := [4]float64{x.Lo / y.Lo, x.Lo / y.Hi, x.Hi / y.Lo, x.Hi / y.Hi}
	lo, hi := candidates[0], candidates[0]
	for _, c := range candidates[1:] {
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	return I{Lo: nextDown(lo), Hi: nextUp(hi)}
}

// Sqrt returns the outward-rounded square root of x. x.Lo must be >= 0.
func Sqrt(x I) I {
	lo := x.Lo
	if lo < 0 {
		lo = 0
	}
	return I{Lo: nextDown(math.Sqrt(lo)), Hi: nextUp(math.Sqrt(x.Hi))}
}

// transcendentalSlack inflates a monotonic-region transcendental enclosure to
// cover libm's last-bit error on platforms where directed rounding cannot be
// requested around the call. It is the transcendental rounding described in
// the package doc.
const transcendentalSlack = 4 * 2.220446049250313e-16 // 4 ULP at 1.0

func inflate(lo, hi float64) I {
	span := math.Max(math.Abs(lo), math.Abs(hi))
	slack := transcendentalSlack * math.Max(span, 1)
	return I{Lo: lo - slack, Hi: hi + slack}
}

// Sin returns an enclosure of sin over x. It splits x at the nearest
// multiples of pi/2 so monotonic sub-ranges can be evaluated at their
// endpoints, then takes the hull.
func Sin(x I) I {
	return trigEnvelope(x, math.Sin)
}

// Cos returns an enclosure of cos over x, by the same construction as Sin.
func Cos(x I) I {
	return trigEnvelope(x, math.Cos)
}

func trigEnvelope(x I, f func(float64) float64) I {
	const step = math.Pi / 2
	lo, hi := f(x.Lo), f(x.Lo)
	if v := f(x.Hi); v < lo {
		lo = v
	} else if v > hi {
		hi = v
	}
	start := math.Ceil(x.Lo/step) * step
	for k := start; k <= x.Hi; k += step {
		v := f(k)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return inflate(lo, hi)
}

// Exp returns an enclosure of exp over x; exp is monotonically increasing so
// the endpoints suffice.
func Exp(x I) I {
	return inflate(math.Exp(x.Lo), math.Exp(x.Hi))
}

// Log returns an enclosure of log over x; x.Lo must be > 0. log is
// monotonically increasing so the endpoints suffice.
func Log(x I) I {
	lo := x.Lo
	if lo <= 0 {
		lo = math.SmallestNonzeroFloat64
	}
	return inflate(math.Log(lo), math.Log(x.Hi))
}
