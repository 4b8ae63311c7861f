package portfolio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

// MinAssets is the smallest basket the optimizer accepts
const MinAssets = 2

// problem is a validated solve input; the covariance is reordered to the
// expected-return symbol order.
type problem struct {
	symbols []string
	mu      []float64
	sigma   *mat.SymDense
	cov     contracts.CovarianceMatrix
	rf      float64
}

// prepare validates a request before any solver work.
// 검증 순서: 자산 수 → 차원 → 자산 집합 일치 → 유한값 → 대칭 → PSD
func (o *Optimizer) prepare(req Request) (*problem, error) {
	mu := req.ExpectedReturns
	if err := mu.Validate(); err != nil {
		return nil, err
	}

	n := mu.Len()
	if n < MinAssets {
		return nil, fmt.Errorf("%w: got %d assets, need at least %d", contracts.ErrInvalidInput, n, MinAssets)
	}

	if math.IsNaN(req.RiskFreeRate) || math.IsInf(req.RiskFreeRate, 0) {
		return nil, fmt.Errorf("%w: risk-free rate is not finite", contracts.ErrInvalidInput)
	}

	cov := req.Covariance
	if len(cov.Symbols) != n || len(cov.Values) != n {
		return nil, fmt.Errorf("%w: covariance is %dx%d for %d assets",
			contracts.ErrInvalidInput, len(cov.Symbols), len(cov.Values), n)
	}
	for i, row := range cov.Values {
		if len(row) != n {
			return nil, fmt.Errorf("%w: covariance row %d has %d entries, want %d",
				contracts.ErrInvalidInput, i, len(row), n)
		}
	}

	pos := make(map[string]int, n)
	for i, s := range cov.Symbols {
		if _, dup := pos[s]; dup {
			return nil, fmt.Errorf("%w: duplicate covariance symbol %s", contracts.ErrInvalidInput, s)
		}
		pos[s] = i
	}
	order := make([]int, n)
	for i, s := range mu.Symbols {
		j, ok := pos[s]
		if !ok {
			return nil, fmt.Errorf("%w: asset %s missing from covariance", contracts.ErrInvalidInput, s)
		}
		order[i] = j
	}

	sigma := mat.NewSymDense(n, nil)
	aligned := make([][]float64, n)
	for i := 0; i < n; i++ {
		aligned[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			a := cov.Values[order[i]][order[j]]
			b := cov.Values[order[j]][order[i]]
			if math.IsNaN(a) || math.IsInf(a, 0) {
				return nil, fmt.Errorf("%w: non-finite covariance entry (%s, %s)",
					contracts.ErrInvalidInput, mu.Symbols[i], mu.Symbols[j])
			}
			if math.Abs(a-b) > o.config.SymmetryTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) {
				return nil, fmt.Errorf("%w: covariance is not symmetric at (%s, %s)",
					contracts.ErrInvalidInput, mu.Symbols[i], mu.Symbols[j])
			}
			aligned[i][j] = a
			if j >= i {
				sigma.SetSym(i, j, a)
			}
		}
	}

	if err := o.checkPSD(sigma); err != nil {
		return nil, err
	}

	symbols := make([]string, n)
	copy(symbols, mu.Symbols)

	return &problem{
		symbols: symbols,
		mu:      append([]float64(nil), mu.Values...),
		sigma:   sigma,
		cov:     contracts.CovarianceMatrix{Symbols: symbols, Values: aligned},
		rf:      req.RiskFreeRate,
	}, nil
}

// checkPSD rejects matrices with a materially negative eigenvalue
func (o *Optimizer) checkPSD(sigma *mat.SymDense) error {
	var eig mat.EigenSym
	if ok := eig.Factorize(sigma, false); !ok {
		return fmt.Errorf("%w: covariance eigen decomposition failed", contracts.ErrInvalidInput)
	}

	values := eig.Values(nil)
	minEig, maxAbs := math.Inf(1), 0.0
	for _, v := range values {
		minEig = math.Min(minEig, v)
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}

	if minEig < -o.config.PSDTolerance*math.Max(1, maxAbs) {
		return fmt.Errorf("%w: covariance is not positive semidefinite (min eigenvalue %.3g)",
			contracts.ErrInvalidInput, minEig)
	}
	return nil
}
