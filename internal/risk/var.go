package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// =============================================================================
// Historical VaR
// =============================================================================

// CalculateVaR 과거 수익률 기반 VaR 계산 (Historical Simulation)
// 반환값: VaR는 손실을 양수로 표현 (예: 0.05 = 5% 손실 가능)
func CalculateVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence, Convention: VaRConvention}
	}

	// 오름차순: 손실이 앞에
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	// 95% VaR = 하위 5% 백분위수
	idx := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        lossPositive(sorted[idx]),
		CVaR:       CalculateCVaR(sorted, idx),
		Samples:    len(sorted),
		Convention: VaRConvention,
	}
}

// CalculateCVaR Expected Shortfall: VaR 인덱스까지 tail 평균 손실
// sorted: 오름차순 정렬된 수익률
func CalculateCVaR(sorted []float64, varIdx int) float64 {
	if len(sorted) == 0 || varIdx < 0 {
		return 0
	}
	if varIdx >= len(sorted) {
		varIdx = len(sorted) - 1
	}

	var sum float64
	for i := 0; i <= varIdx; i++ {
		sum += sorted[i]
	}
	return lossPositive(sum / float64(varIdx+1))
}

// =============================================================================
// Parametric VaR (정규분포 가정)
// =============================================================================

// CalculateParametricVaR 정규분포 가정 VaR/CVaR
// VaR = z·σ - μ, CVaR = σ·φ(z)/(1-c) - μ
func CalculateParametricVaR(mean, stdDev, confidence float64) VaRResult {
	if stdDev <= 0 || confidence <= 0 || confidence >= 1 {
		return VaRResult{Confidence: confidence, Convention: VaRConvention}
	}

	std := distuv.UnitNormal
	z := std.Quantile(confidence)

	return VaRResult{
		Confidence: confidence,
		VaR:        math.Max(z*stdDev-mean, 0),
		CVaR:       math.Max(stdDev*std.Prob(z)/(1-confidence)-mean, 0),
		Convention: VaRConvention,
	}
}

func lossPositive(r float64) float64 {
	if r < 0 {
		return -r
	}
	return 0
}
