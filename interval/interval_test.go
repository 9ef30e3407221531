package interval

import (
	"math"
	"math/rand"
	"testing"

	"go.viam.com/test"
)

// containment checks the invariant from spec.md §8.1: for any real v in x,
// f(v) must be a member of f(x).
func checkContainment(t *testing.T, x I, f func(float64) float64, fx I, n int, seed int64) {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		v := x.Lo + r.Float64()*x.Width()
		test.That(t, fx.Contains(f(v)), test.ShouldBeTrue)
	}
}

func TestArithmeticContainment(t *testing.T) {
	x := I{Lo: -2.3, Hi: 4.7}
	y := I{Lo: 0.5, Hi: 3.1}

	checkContainment(t, x, func(v float64) float64 { return v + 1.0 }, Add(x, Point(1.0)), 200, 1)
	checkContainment(t, x, func(v float64) float64 { return v - 1.0 }, Sub(x, Point(1.0)), 200, 2)
	checkContainment(t, x, func(v float64) float64 { return -v }, Neg(x), 200, 3)
	checkContainment(t, x, math.Sin, Sin(x), 200, 4)
	checkContainment(t, x, math.Cos, Cos(x), 200, 5)
	checkContainment(t, x, math.Exp, Exp(x), 200, 6)

	posX := I{Lo: 0.1, Hi: 4.7}
	checkContainment(t, posX, math.Log, Log(posX), 200, 7)
	checkContainment(t, posX, math.Sqrt, Sqrt(posX), 200, 8)

	mulRes := Mul(x, y)
	r := rand.New(rand.NewSource(9))
	for i := 0; i < 200; i++ {
		vx := x.Lo + r.Float64()*x.Width()
		vy := y.Lo + r.Float64()*y.Width()
		test.That(t, mulRes.Contains(vx*vy), test.ShouldBeTrue)
	}

	posY := I{Lo: 0.5, Hi: 3.1}
	divRes := Div(x, posY)
	r2 := rand.New(rand.NewSource(10))
	for i := 0; i < 200; i++ {
		vx := x.Lo + r2.Float64()*x.Width()
		vy := posY.Lo + r2.Float64()*posY.Width()
		test.That(t, divRes.Contains(vx/vy), test.ShouldBeTrue)
	}
}

func TestZeroIn(t *testing.T) {
	test.That(t, I{Lo: -1, Hi: 1}.ZeroIn(), test.ShouldBeTrue)
	test.That(t, I{Lo: 0, Hi: 1}.ZeroIn(), test.ShouldBeTrue)
	test.That(t, I{Lo: -1, Hi: 0}.ZeroIn(), test.ShouldBeTrue)
	test.That(t, I{Lo: 0.1, Hi: 1}.ZeroIn(), test.ShouldBeFalse)
	test.That(t, I{Lo: -1, Hi: -0.1}.ZeroIn(), test.ShouldBeFalse)
}

func TestBoxZeroIn(t *testing.T) {
	b := NewBox(I{Lo: -1, Hi: 1}, I{Lo: -0.5, Hi: 0.5})
	test.That(t, b.ZeroIn(), test.ShouldBeTrue)
	b[1] = I{Lo: 0.1, Hi: 0.5}
	test.That(t, b.ZeroIn(), test.ShouldBeFalse)
}

func TestBisectHalvesWidth(t *testing.T) {
	x := I{Lo: 0, Hi: 1}
	lo, hi := x.Bisect()
	test.That(t, lo.Width(), test.ShouldAlmostEqual, 0.5)
	test.That(t, hi.Width(), test.ShouldAlmostEqual, 0.5)
	test.That(t, lo.Hi, test.ShouldAlmostEqual, hi.Lo)
	test.That(t, lo.Lo, test.ShouldAlmostEqual, x.Lo)
	test.That(t, hi.Hi, test.ShouldAlmostEqual, x.Hi)
}

func TestSplitAxisPicksWidestRelativeToTol(t *testing.T) {
	b := NewBox(I{Lo: 0, Hi: 0.01}, I{Lo: 0, Hi: 1})
	tol := []float64{1e-6, 0.5}
	// axis 0: width/tol = 10000, axis 1: width/tol = 2 -> axis 0 wins despite smaller absolute width.
	test.That(t, b.SplitAxis(tol), test.ShouldEqual, 0)
}

func TestSplitAxisNoneNeeded(t *testing.T) {
	b := NewBox(I{Lo: 0, Hi: 1e-7}, I{Lo: 0, Hi: 1e-7})
	tol := []float64{1e-6, 1e-6}
	test.That(t, b.SplitAxis(tol), test.ShouldEqual, -1)
}

func TestHullContainsBoth(t *testing.T) {
	a := I{Lo: -1, Hi: 0.2}
	b := I{Lo: 0, Hi: 3}
	h := Hull(a, b)
	test.That(t, h.Lo, test.ShouldAlmostEqual, -1.0)
	test.That(t, h.Hi, test.ShouldAlmostEqual, 3.0)
}

func TestAcquireRoundingScoping(t *testing.T) {
	test.That(t, RoundingAcquired(), test.ShouldBeFalse)
	release := AcquireRounding()
	test.That(t, RoundingAcquired(), test.ShouldBeTrue)
	release()
	test.That(t, RoundingAcquired(), test.ShouldBeFalse)
}
