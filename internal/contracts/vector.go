package contracts

import (
	"fmt"
	"math"
)

// AssetVector is an ordered mapping from asset symbol to value.
// Every vector derived from the same table shares its symbol order.
type AssetVector struct {
	Symbols []string  `json:"symbols"`
	Values  []float64 `json:"values"`
}

// BetaVector holds each asset's CAPM beta against the market
type BetaVector struct {
	AssetVector
}

// ExpectedReturnVector holds annualized expected returns per asset
type ExpectedReturnVector struct {
	AssetVector
}

// WeightVector holds portfolio weights per asset
// ⭐ 불변식: Sum() == 1 (허용오차 1e-6)
type WeightVector struct {
	AssetVector
}

// NewAssetVector copies symbols and values into a vector
func NewAssetVector(symbols []string, values []float64) AssetVector {
	s := make([]string, len(symbols))
	copy(s, symbols)
	v := make([]float64, len(values))
	copy(v, values)
	return AssetVector{Symbols: s, Values: v}
}

// Len returns the number of assets
func (v AssetVector) Len() int {
	return len(v.Values)
}

// Get returns the value for symbol
func (v AssetVector) Get(symbol string) (float64, bool) {
	for i, s := range v.Symbols {
		if s == symbol {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Sum returns the sum of all values
func (v AssetVector) Sum() float64 {
	total := 0.0
	for _, x := range v.Values {
		total += x
	}
	return total
}

// Map returns the vector as a symbol-keyed map
func (v AssetVector) Map() map[string]float64 {
	m := make(map[string]float64, len(v.Symbols))
	for i, s := range v.Symbols {
		m[s] = v.Values[i]
	}
	return m
}

// Validate checks that symbols and values line up and every value is finite
func (v AssetVector) Validate() error {
	if len(v.Symbols) != len(v.Values) {
		return fmt.Errorf("%w: %d symbols but %d values", ErrInvalidInput, len(v.Symbols), len(v.Values))
	}
	seen := make(map[string]struct{}, len(v.Symbols))
	for i, s := range v.Symbols {
		if _, dup := seen[s]; dup {
			return fmt.Errorf("%w: duplicate symbol %s", ErrInvalidInput, s)
		}
		seen[s] = struct{}{}
		if math.IsNaN(v.Values[i]) || math.IsInf(v.Values[i], 0) {
			return fmt.Errorf("%w: non-finite value for %s", ErrInvalidInput, s)
		}
	}
	return nil
}

// MarketParameters summarizes the market index return series
// ⭐ ExpectedReturn 은 연율화(mean×365), Variance 는 일간 기준 그대로
type MarketParameters struct {
	ExpectedReturn float64 `json:"expected_return"`
	Variance       float64 `json:"variance"`
}

// Premium returns the market risk premium E[R_M] - rf
func (m MarketParameters) Premium(riskFreeRate float64) float64 {
	return m.ExpectedReturn - riskFreeRate
}

// CovarianceMatrix is a square covariance matrix indexed by asset symbol
type CovarianceMatrix struct {
	Symbols []string    `json:"symbols"`
	Values  [][]float64 `json:"values"`
}

// Dim returns the number of assets
func (c CovarianceMatrix) Dim() int {
	return len(c.Symbols)
}

// Diagonal returns per-asset variances
func (c CovarianceMatrix) Diagonal() []float64 {
	d := make([]float64, len(c.Values))
	for i := range c.Values {
		if i < len(c.Values[i]) {
			d[i] = c.Values[i][i]
		}
	}
	return d
}

// PortfolioMetrics are the derived statistics of a weight vector
type PortfolioMetrics struct {
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	Sharpe         float64 `json:"sharpe"`
}
