package capm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

func TestEstimateMarketParameters(t *testing.T) {
	params, err := EstimateMarketParameters(series("MKT", []float64{0.01, 0.02, 0.03}))
	require.NoError(t, err)

	// mean 0.02 annualized by calendar days; variance stays daily (ddof=1)
	assert.InDelta(t, 0.02*365, params.ExpectedReturn, 1e-12)
	assert.InDelta(t, 0.0001, params.Variance, 1e-15)
}

func TestEstimateMarketParametersConstant(t *testing.T) {
	params, err := EstimateMarketParameters(series("MKT", []float64{0.001, 0.001, 0.001}))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, params.Variance, 1e-18)
}

func TestEstimateMarketParametersInsufficient(t *testing.T) {
	_, err := EstimateMarketParameters(series("MKT", []float64{0.01}))
	assert.True(t, errors.Is(err, contracts.ErrInsufficientData))
}
