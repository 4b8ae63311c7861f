package capm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

// EmpiricalCovariance computes the unbiased sample covariance of the return
// columns, scaled by periodsPerYear. A non-positive periodsPerYear leaves the
// matrix at per-period scale.
func EmpiricalCovariance(returns contracts.ReturnTable, periodsPerYear float64) (contracts.CovarianceMatrix, error) {
	if err := returns.Validate(); err != nil {
		return contracts.CovarianceMatrix{}, err
	}
	if returns.Len() < MinObservations {
		return contracts.CovarianceMatrix{}, fmt.Errorf("%w: got %d return rows, need %d",
			contracts.ErrInsufficientData, returns.Len(), MinObservations)
	}

	n := len(returns.Symbols)
	data := make([]float64, 0, returns.Len()*n)
	for i, row := range returns.Rows {
		for j, v := range row {
			if !isFinite(v) {
				return contracts.CovarianceMatrix{}, fmt.Errorf("%w: non-finite return for %s at row %d",
					contracts.ErrInvalidInput, returns.Symbols[j], i)
			}
		}
		data = append(data, row...)
	}

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, mat.NewDense(returns.Len(), n, data), nil)

	if periodsPerYear > 0 {
		cov.ScaleSym(periodsPerYear, cov)
	}

	return fromSym(returns.Symbols, cov), nil
}
