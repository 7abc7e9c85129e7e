package forecast

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var errNotPositiveDefinite = errors.New("normal equations are not positive definite")

// solveNormal solves (XᵀX + λI) β = Xᵀy through a Cholesky factorization.
func solveNormal(xtx *mat.SymDense, xty *mat.VecDense) ([]float64, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(xtx); !ok {
		return nil, errNotPositiveDefinite
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, xty); err != nil {
		return nil, fmt.Errorf("solve normal equations: %w", err)
	}
	out := make([]float64, beta.Len())
	for i := range out {
		out[i] = beta.AtVec(i)
	}
	return out, nil
}
