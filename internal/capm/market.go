package capm

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

// Annualization factors
const (
	CalendarDaysPerYear = 365.0
	TradingDaysPerYear  = 252.0
)

// EstimateMarketParameters returns the annualized mean (mean × 365) and the
// unbiased sample variance of the market series.
//
// The variance stays at per-period scale. Expected returns are annual while the
// variance is daily, and downstream formulas consume the pair as-is.
func EstimateMarketParameters(market contracts.Series) (contracts.MarketParameters, error) {
	if market.Len() < MinObservations {
		return contracts.MarketParameters{}, fmt.Errorf("%w: got %d market observations, need %d",
			contracts.ErrInsufficientData, market.Len(), MinObservations)
	}
	for i, v := range market.Values {
		if !isFinite(v) {
			return contracts.MarketParameters{}, fmt.Errorf("%w: non-finite market return at row %d",
				contracts.ErrInvalidInput, i)
		}
	}

	mean, variance := stat.MeanVariance(market.Values, nil)

	return contracts.MarketParameters{
		ExpectedReturn: mean * CalendarDaysPerYear,
		Variance:       variance,
	}, nil
}
