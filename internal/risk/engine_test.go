package risk

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

func weights(symbols []string, values ...float64) contracts.WeightVector {
	return contracts.WeightVector{AssetVector: contracts.NewAssetVector(symbols, values)}
}

func TestMetrics(t *testing.T) {
	e := NewEngine()
	symbols := []string{"A", "B"}

	mu := contracts.ExpectedReturnVector{AssetVector: contracts.NewAssetVector(symbols, []float64{0.10, 0.20})}
	cov := contracts.CovarianceMatrix{
		Symbols: symbols,
		Values:  [][]float64{{0.04, 0.01}, {0.01, 0.09}},
	}

	m, err := e.Metrics(weights(symbols, 0.5, 0.5), mu, cov, 0.04)
	require.NoError(t, err)

	wantVar := 0.25*0.04 + 0.25*0.09 + 2*0.25*0.01
	assert.InDelta(t, 0.15, m.ExpectedReturn, 1e-12)
	assert.InDelta(t, math.Sqrt(wantVar), m.Volatility, 1e-12)
	assert.InDelta(t, (0.15-0.04)/math.Sqrt(wantVar), m.Sharpe, 1e-12)
}

func TestMetricsZeroVolatility(t *testing.T) {
	e := NewEngine()
	symbols := []string{"A", "B"}

	mu := contracts.ExpectedReturnVector{AssetVector: contracts.NewAssetVector(symbols, []float64{0.05, 0.05})}
	cov := contracts.CovarianceMatrix{Symbols: symbols, Values: [][]float64{{0, 0}, {0, 0}}}

	m, err := e.Metrics(weights(symbols, 0.3, 0.7), mu, cov, 0.04)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.Volatility)
	assert.Equal(t, 0.0, m.Sharpe)
}

func TestMetricsDimensionMismatch(t *testing.T) {
	e := NewEngine()
	mu := contracts.ExpectedReturnVector{AssetVector: contracts.NewAssetVector([]string{"A"}, []float64{0.05})}
	cov := contracts.CovarianceMatrix{Symbols: []string{"A"}, Values: [][]float64{{0.01}}}

	_, err := e.Metrics(weights([]string{"A", "B"}, 0.5, 0.5), mu, cov, 0.04)
	assert.True(t, errors.Is(err, contracts.ErrInvalidInput))
}

func TestRealizedReturns(t *testing.T) {
	e := NewEngine()
	returns := contracts.ReturnTable{TimeTable: contracts.TimeTable{
		Index:   []time.Time{time.Unix(0, 0), time.Unix(86400, 0)},
		Symbols: []string{"A", "B"},
		Rows:    [][]float64{{0.01, -0.02}, {0.03, 0.01}},
	}}

	// weight order differs from column order on purpose
	w := weights([]string{"B", "A"}, 0.25, 0.75)

	got, err := e.RealizedReturns(w, returns)
	require.NoError(t, err)
	assert.InDelta(t, 0.75*0.01+0.25*-0.02, got[0], 1e-15)
	assert.InDelta(t, 0.75*0.03+0.25*0.01, got[1], 1e-15)

	_, err = e.RealizedReturns(weights([]string{"A", "C"}, 0.5, 0.5), returns)
	assert.True(t, errors.Is(err, contracts.ErrInvalidInput))
}

func TestCalculateVaR(t *testing.T) {
	tests := []struct {
		name       string
		returns    []float64
		confidence float64
		wantVaR    float64
		wantCVaR   float64
	}{
		{
			name:       "empty",
			returns:    nil,
			confidence: 0.95,
		},
		{
			name:       "twenty samples 95%",
			returns:    []float64{-0.05, -0.03, -0.01, 0, 0.01, 0.02, 0.01, 0.02, 0.03, 0.01, 0.02, 0.01, 0.0, 0.01, 0.02, 0.01, 0.03, 0.02, 0.01, 0.02},
			confidence: 0.95,
			wantVaR:    0.03, // idx = floor(0.05*20) = 1
			wantCVaR:   0.04, // mean(-0.05, -0.03)
		},
		{
			name:       "all gains",
			returns:    []float64{0.01, 0.02, 0.03},
			confidence: 0.99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateVaR(tt.returns, tt.confidence)
			assert.InDelta(t, tt.wantVaR, got.VaR, 1e-12)
			assert.InDelta(t, tt.wantCVaR, got.CVaR, 1e-12)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, len(tt.returns), got.Samples)
			assert.Equal(t, VaRConvention, got.Convention)
		})
	}
}

func TestCalculateParametricVaR(t *testing.T) {
	got := CalculateParametricVaR(0, 0.02, 0.95)
	assert.InDelta(t, 1.6449*0.02, got.VaR, 1e-5)
	assert.Greater(t, got.CVaR, got.VaR)

	assert.Equal(t, VaRConvention, got.Convention)

	// 평균 수익이 꼬리 손실보다 크면 손실 없음 (음수 VaR 은 0)
	gain := CalculateParametricVaR(0.1, 0.02, 0.95)
	assert.Equal(t, 0.0, gain.VaR)

	none := CalculateParametricVaR(0, 0, 0.95)
	assert.Equal(t, 0.0, none.VaR)
}

func TestEngineParametricVaRMatchesCalculator(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, CalculateParametricVaR(0.001, 0.015, 0.99), e.ParametricVaR(0.001, 0.015, 0.99))
}
