package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// =============================================================================
// Realized Performance (표본 내 실현 성과)
// =============================================================================

// Performance summarizes a realized log-return series
type Performance struct {
	TotalReturn  float64 `json:"total_return"`  // 누적 단순수익률
	AnnualReturn float64 `json:"annual_return"` // 기하 연율화
	Volatility   float64 `json:"volatility"`    // 연율화 표준편차
	Sharpe       float64 `json:"sharpe"`
	Sortino      float64 `json:"sortino"`
	MaxDrawdown  float64 `json:"max_drawdown"` // 음수 (예: -0.12 = 12% 하락)
	Periods      int     `json:"periods"`
}

// CalculatePerformance computes realized statistics of per-period log returns.
// periodsPerYear scales volatility and return; ratios are 0 when their denominator is 0.
func CalculatePerformance(logReturns []float64, periodsPerYear, riskFreeRate float64) Performance {
	p := Performance{Periods: len(logReturns)}
	if len(logReturns) == 0 || periodsPerYear <= 0 {
		return p
	}

	var cum float64
	for _, r := range logReturns {
		cum += r
	}
	p.TotalReturn = math.Expm1(cum)
	p.AnnualReturn = math.Expm1(cum * periodsPerYear / float64(len(logReturns)))

	if len(logReturns) >= 2 {
		p.Volatility = stat.StdDev(logReturns, nil) * math.Sqrt(periodsPerYear)
	}
	if p.Volatility > 0 {
		p.Sharpe = (p.AnnualReturn - riskFreeRate) / p.Volatility
	}

	// Downside deviation (음수 수익률만)
	var sumSquaredNegative float64
	var countNegative int
	for _, r := range logReturns {
		if r < 0 {
			sumSquaredNegative += r * r
			countNegative++
		}
	}
	if countNegative > 0 {
		downsideVol := math.Sqrt(sumSquaredNegative/float64(countNegative)) * math.Sqrt(periodsPerYear)
		if downsideVol > 0 {
			p.Sortino = (p.AnnualReturn - riskFreeRate) / downsideVol
		}
	}

	p.MaxDrawdown = maxDrawdown(logReturns)
	return p
}

// maxDrawdown 누적 가치 기준 최대 낙폭
func maxDrawdown(logReturns []float64) float64 {
	cumLog, peakLog := 0.0, 0.0
	maxDD := 0.0

	for _, r := range logReturns {
		cumLog += r
		if cumLog > peakLog {
			peakLog = cumLog
		}
		if dd := math.Expm1(cumLog - peakLog); dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
