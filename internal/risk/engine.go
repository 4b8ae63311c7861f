package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

// =============================================================================
// Engine - 순수 계산기
// =============================================================================

// Engine 포트폴리오 지표 계산기 (순수 계산기)
// ⭐ SSOT: 비중 산출은 internal/portfolio, 여기서는 산출된 비중의 지표만 계산
type Engine struct{}

// NewEngine 새 리스크 엔진 생성
func NewEngine() *Engine {
	return &Engine{}
}

// =============================================================================
// Portfolio Metrics
// =============================================================================

// Metrics 기대수익률(wᵀμ), 변동성(sqrt(wᵀΣw)), 샤프지수 계산
// 변동성이 정확히 0이면 샤프지수는 0
func (e *Engine) Metrics(weights contracts.WeightVector, mu contracts.ExpectedReturnVector, cov contracts.CovarianceMatrix, riskFreeRate float64) (contracts.PortfolioMetrics, error) {
	n := weights.Len()
	if mu.Len() != n || cov.Dim() != n || len(cov.Values) != n {
		return contracts.PortfolioMetrics{}, fmt.Errorf("%w: weights %d, returns %d, covariance %d",
			contracts.ErrInvalidInput, n, mu.Len(), cov.Dim())
	}

	data := make([]float64, 0, n*n)
	for _, row := range cov.Values {
		if len(row) != n {
			return contracts.PortfolioMetrics{}, fmt.Errorf("%w: covariance is not square", contracts.ErrInvalidInput)
		}
		data = append(data, row...)
	}

	w := mat.NewVecDense(n, append([]float64(nil), weights.Values...))
	sigma := mat.NewDense(n, n, data)

	ret := floats.Dot(weights.Values, mu.Values)
	variance := mat.Inner(w, sigma, w)
	if variance < 0 {
		variance = 0 // 수치 오차
	}
	vol := math.Sqrt(variance)

	sharpe := 0.0
	if vol != 0 {
		sharpe = (ret - riskFreeRate) / vol
	}

	return contracts.PortfolioMetrics{
		ExpectedReturn: ret,
		Volatility:     vol,
		Sharpe:         sharpe,
	}, nil
}

// RealizedReturns 비중으로 가중한 포트폴리오 기간 수익률 시계열
// 로그수익률의 가중합 (근사치, VaR 리포트용)
func (e *Engine) RealizedReturns(weights contracts.WeightVector, returns contracts.ReturnTable) ([]float64, error) {
	if len(returns.Symbols) != weights.Len() {
		return nil, fmt.Errorf("%w: %d weights for %d return columns",
			contracts.ErrInvalidInput, weights.Len(), len(returns.Symbols))
	}

	// 컬럼 순서는 심볼 기준으로 맞춤
	w := make([]float64, len(returns.Symbols))
	for j, s := range returns.Symbols {
		v, ok := weights.Get(s)
		if !ok {
			return nil, fmt.Errorf("%w: no weight for %s", contracts.ErrInvalidInput, s)
		}
		w[j] = v
	}

	out := make([]float64, returns.Len())
	for i, row := range returns.Rows {
		out[i] = floats.Dot(w, row)
	}
	return out, nil
}

// =============================================================================
// VaR/CVaR (Pure)
// =============================================================================

// VaR Historical VaR 계산
// returns: 기간 수익률 (양수=이익, 음수=손실)
// confidence: 신뢰수준 (예: 0.95, 0.99)
func (e *Engine) VaR(returns []float64, confidence float64) VaRResult {
	return CalculateVaR(returns, confidence)
}

// ParametricVaR 정규분포 가정 VaR 계산
func (e *Engine) ParametricVaR(mean, stdDev, confidence float64) VaRResult {
	return CalculateParametricVaR(mean, stdDev, confidence)
}

// Performance 실현 수익률 성과 요약
func (e *Engine) Performance(logReturns []float64, periodsPerYear, riskFreeRate float64) Performance {
	return CalculatePerformance(logReturns, periodsPerYear, riskFreeRate)
}
