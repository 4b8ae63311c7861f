package capm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

// EstimateBetas fits r_asset = alpha + beta * r_market by ordinary least
// squares for every asset column and returns the slopes in column order.
// The intercept is fitted but discarded.
func EstimateBetas(assets contracts.ReturnTable, market contracts.Series) (contracts.BetaVector, error) {
	if err := checkAligned(assets, market); err != nil {
		return contracts.BetaVector{}, err
	}

	x := market.Values
	if floats.Max(x) == floats.Min(x) || stat.Variance(x, nil) <= 0 {
		return contracts.BetaVector{}, fmt.Errorf("%w: market %s has zero variance over %d observations",
			contracts.ErrDegenerateInput, market.Symbol, len(x))
	}

	cols := assets.Columns()
	betas := make([]float64, len(cols))
	for j, y := range cols {
		_, beta := stat.LinearRegression(x, y, nil, false)
		betas[j] = beta
	}

	return contracts.BetaVector{AssetVector: contracts.NewAssetVector(assets.Symbols, betas)}, nil
}

// checkAligned requires identical timestamps, enough rows and finite values
func checkAligned(assets contracts.ReturnTable, market contracts.Series) error {
	if err := assets.Validate(); err != nil {
		return err
	}

	if assets.Len() != market.Len() || len(market.Index) != market.Len() {
		return fmt.Errorf("%w: asset returns have %d rows, market %d",
			contracts.ErrInvalidInput, assets.Len(), market.Len())
	}
	for i, ts := range assets.Index {
		if !ts.Equal(market.Index[i]) {
			return fmt.Errorf("%w: timestamps differ at row %d", contracts.ErrInvalidInput, i)
		}
	}

	if market.Len() < MinObservations {
		return fmt.Errorf("%w: got %d observations, need %d",
			contracts.ErrInsufficientData, market.Len(), MinObservations)
	}

	for i, v := range market.Values {
		if !isFinite(v) {
			return fmt.Errorf("%w: non-finite market return at row %d", contracts.ErrInvalidInput, i)
		}
	}
	for i, row := range assets.Rows {
		for j, v := range row {
			if !isFinite(v) {
				return fmt.Errorf("%w: non-finite return for %s at row %d", contracts.ErrInvalidInput, assets.Symbols[j], i)
			}
		}
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
