package constraints

import (
	"gorgonia.org/tensor"

	"github.com/rigidccd/ccdcore/ccderrors"
)

// JacobianTensor stacks a set of constraint Duals sharing the same gradient
// space into a dense rows x n Jacobian, one row per constraint.
func JacobianTensor(rows []Dual) (*tensor.Dense, error) {
	if len(rows) == 0 {
		return nil, ccderrors.NewInputValidationError("JacobianTensor requires at least one row")
	}
	n := rows[0].n()
	backing := make([]float64, 0, len(rows)*n)
	for i, r := range rows {
		if r.n() != n {
			return nil, ccderrors.NewInputValidationError("row %d has gradient length %d, expected %d", i, r.n(), n)
		}
		backing = append(backing, r.Grad...)
	}
	return tensor.New(tensor.WithShape(len(rows), n), tensor.WithBacking(backing)), nil
}
