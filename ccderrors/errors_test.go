package ccderrors

import (
	"testing"

	"go.viam.com/test"
)

func TestErrorConstructors(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		kind Kind
		msg  string
	}{
		{"input validation", NewInputValidationError("scene mixes dim %d and %d", 2, 3), KindInputValidation, "scene mixes dim 2 and 3"},
		{"unimplemented config", NewUnimplementedConfigError("dim %d unsupported", 4), KindUnimplementedConfig, "dim 4 unsupported"},
		{"numerical", NewNumericalError("cholesky failed at mu=%g", 1e-9), KindNumerical, "cholesky failed"},
		{"capacity", NewCapacityError("aabb exceeds domain %v", 1.0), KindCapacity, "aabb exceeds domain"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			test.That(t, tc.err.Error(), test.ShouldContainSubstring, tc.msg)
			kind, ok := KindOf(tc.err)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, kind, test.ShouldEqual, tc.kind)
		})
	}
}

func TestKindOfNonCCDError(t *testing.T) {
	_, ok := KindOf(errPlain{})
	test.That(t, ok, test.ShouldBeFalse)
}

type errPlain struct{}

func (errPlain) Error() string { return "plain" }

func TestWrapNumerical(t *testing.T) {
	test.That(t, WrapNumerical(nil, "should stay nil"), test.ShouldBeNil)

	wrapped := WrapNumerical(errPlain{}, "cholesky")
	kind, ok := KindOf(wrapped)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, kind, test.ShouldEqual, KindNumerical)
	test.That(t, wrapped.Error(), test.ShouldContainSubstring, "plain")
}
