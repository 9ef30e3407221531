// Package ccderrors defines the error kinds used across the CCD core, per the
// error handling design: input-validation and unimplemented-configuration
// errors terminate the current operation immediately; numerical errors are
// recovered locally and only reported on final failure; capacity errors
// surface when a grid's domain cannot contain the geometry it was asked to
// index.
package ccderrors

import (
	"github.com/pkg/errors"
)

// Kind classifies an error for callers that need to branch on it rather than
// match strings.
type Kind int

const (
	// KindInputValidation covers malformed scene/constraint/solver input,
	// e.g. a scene mixing 2D and 3D rigid bodies.
	KindInputValidation Kind = iota
	// KindUnimplementedConfig covers a request for a dimension or
	// time-stepper variant that has no implementation.
	KindUnimplementedConfig
	// KindNumerical covers a Cholesky factorization failure prior to PSD
	// projection, or an interval evaluation producing an empty set.
	KindNumerical
	// KindCapacity covers a hash grid domain too small to contain an
	// inserted AABB.
	KindCapacity
)

func (k Kind) String() string {
	switch k {
	case KindInputValidation:
		return "input-validation"
	case KindUnimplementedConfig:
		return "unimplemented-configuration"
	case KindNumerical:
		return "numerical"
	case KindCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// Error wraps an error built with github.com/pkg/errors with a Kind so
// callers can distinguish "terminate now" (input-validation,
// unimplemented-configuration) from "recover locally, report on final
// failure" (numerical, capacity).
type Error struct {
	kind  Kind
	cause error
}

func (e *Error) Error() string {
	return e.cause.Error()
}

// Cause supports github.com/pkg/errors.Cause / errors.Unwrap chains.
func (e *Error) Cause() error { return e.cause }

// Unwrap supports errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.cause }

// KindOf returns the Kind of err if it is (or wraps) a *Error, and false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.kind, true
	}
	return 0, false
}

// NewInputValidationError reports a malformed scene, constraint, or solver
// settings document. Input-validation errors are surfaced immediately.
func NewInputValidationError(format string, args ...interface{}) error {
	return &Error{kind: KindInputValidation, cause: errors.Errorf(format, args...)}
}

// NewUnimplementedConfigError reports a dimension or time-stepper variant
// with no implementation, e.g. dim outside {2,3}.
func NewUnimplementedConfigError(format string, args ...interface{}) error {
	return &Error{kind: KindUnimplementedConfig, cause: errors.Errorf(format, args...)}
}

// NewNumericalError reports a recoverable numerical failure, e.g. a Cholesky
// factorization that failed before PSD projection was attempted.
func NewNumericalError(format string, args ...interface{}) error {
	return &Error{kind: KindNumerical, cause: errors.Errorf(format, args...)}
}

// NewCapacityError reports a hash grid domain too small to contain an
// inserted AABB.
func NewCapacityError(format string, args ...interface{}) error {
	return &Error{kind: KindCapacity, cause: errors.Errorf(format, args...)}
}

// WrapNumerical wraps an underlying error (e.g. from gonum's Cholesky) as a
// numerical error without discarding its message.
func WrapNumerical(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: KindNumerical, cause: errors.Wrap(err, msg)}
}
