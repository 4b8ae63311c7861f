package capm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

// ExpectedReturns applies E[R_i] = rf + beta_i * (E[R_M] - rf)
func ExpectedReturns(betas contracts.BetaVector, market contracts.MarketParameters, riskFreeRate float64) contracts.ExpectedReturnVector {
	premium := market.Premium(riskFreeRate)

	values := make([]float64, betas.Len())
	for i, b := range betas.Values {
		values[i] = riskFreeRate + b*premium
	}

	return contracts.ExpectedReturnVector{AssetVector: contracts.NewAssetVector(betas.Symbols, values)}
}

// SyntheticCovariance builds the single-factor covariance sigma²_M * beta * betaᵀ.
// The result is rank one and carries no idiosyncratic variance.
func SyntheticCovariance(betas contracts.BetaVector, marketVariance float64) contracts.CovarianceMatrix {
	n := betas.Len()
	beta := mat.NewVecDense(n, append([]float64(nil), betas.Values...))

	cov := mat.NewSymDense(n, nil)
	cov.SymOuterK(marketVariance, beta)

	return fromSym(betas.Symbols, cov)
}

func fromSym(symbols []string, s mat.Symmetric) contracts.CovarianceMatrix {
	n := s.SymmetricDim()
	values := make([][]float64, n)
	for i := 0; i < n; i++ {
		values[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			values[i][j] = s.At(i, j)
		}
	}

	out := make([]string, len(symbols))
	copy(out, symbols)

	return contracts.CovarianceMatrix{Symbols: out, Values: values}
}
