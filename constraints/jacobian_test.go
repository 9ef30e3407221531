package constraints

import (
	"testing"

	"go.viam.com/test"
)

func TestJacobianTensorStacksGradientRows(t *testing.T) {
	a := Var(1, 0, 3)
	b := Var(2, 1, 3)
	rows := []Dual{Add(a, b), Mul(a, b)}

	jac, err := JacobianTensor(rows)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, jac.Shape()[0], test.ShouldEqual, 2)
	test.That(t, jac.Shape()[1], test.ShouldEqual, 3)

	v, err := jac.At(0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, rows[0].Grad[0])

	v, err = jac.At(1, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, rows[1].Grad[1])
}

func TestJacobianTensorRejectsEmptyInput(t *testing.T) {
	_, err := JacobianTensor(nil)
	test.That(t, err, test.ShouldBeError)
}

func TestJacobianTensorRejectsMismatchedGradientLength(t *testing.T) {
	a := Var(1, 0, 3)
	b := Var(2, 0, 2)
	_, err := JacobianTensor([]Dual{a, b})
	test.That(t, err, test.ShouldBeError)
}
