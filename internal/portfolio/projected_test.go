package portfolio

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

func TestProjectSimplex(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"already feasible", []float64{0.2, 0.3, 0.5}, []float64{0.2, 0.3, 0.5}},
		{"uniform shift", []float64{0.5, 0.5, 0.5}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}},
		{"single dominant", []float64{2, 0, 0}, []float64{1, 0, 0}},
		{"negative coordinate dropped", []float64{0.6, 0.6, -1}, []float64{0.5, 0.5, 0}},
		{"all negative", []float64{-3, -1, -2}, []float64{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := append([]float64(nil), tt.in...)
			projectSimplex(v)
			assert.InDeltaSlice(t, tt.want, v, 1e-12)
			assert.InDelta(t, 1.0, v[0]+v[1]+v[2], 1e-12)
		})
	}
}

func TestStationarityVanishesAtVertexOptimum(t *testing.T) {
	// 첫 종목만 초과수익이 양수, 나머지는 기울기가 바깥을 향함
	w := []float64{1, 0, 0}
	g := []float64{-2, 0.5, 0.1}
	assert.InDelta(t, 0.0, stationarity(make([]float64, 3), w, g), 1e-15)

	// 두번째 종목을 늘리면 개선되는 점은 정상점이 아님
	g = []float64{0, -1, 0}
	assert.Greater(t, stationarity(make([]float64, 3), w, g), 0.1)
}

func TestOptimizeLongOnlyExcludesAssetBelowRiskFree(t *testing.T) {
	// z = Σ⁻¹(μ - rf) = [4, 1, -0.5]: C 를 빼면 w = [0.8, 0.2, 0]
	res, err := newTestOptimizer().Optimize(context.Background(),
		request([]string{"A", "B", "C"}, []float64{0.20, 0.08, 0.02}, diag(0.04, 0.04, 0.04), 0.04, false))
	require.NoError(t, err)

	assertWeightInvariants(t, res.Weights, false)
	assert.Equal(t, "ProjectedGradient", res.Method)
	assert.InDeltaSlice(t, []float64{0.8, 0.2, 0}, res.Weights.Values, 1e-6)
	assert.False(t, res.Clipped)
}

func TestOptimizeLongOnlyAllBelowRiskFreePicksBestVertex(t *testing.T) {
	// 모든 종목이 무위험수익률 미만이면 최대값은 꼭짓점: C 의 -0.01/0.3
	mu := []float64{0.01, 0.02, 0.03, 0.00}
	cov := diag(0.04, 0.01, 0.09, 0.04)

	res, err := newTestOptimizer().Optimize(context.Background(),
		request([]string{"A", "B", "C", "D"}, mu, cov, 0.04, false))
	require.NoError(t, err)

	assertWeightInvariants(t, res.Weights, false)
	assert.InDelta(t, 1.0, res.Weights.Values[2], 1e-6)
	assert.InDelta(t, -0.01/0.3, sharpeOf(mu, cov, 0.04, res.Weights.Values), 1e-6)
}

func TestOptimizeLongOnlyIterationCapFails(t *testing.T) {
	req := request([]string{"A", "B", "C"}, []float64{0.10, 0.20, 0.30}, diag(1e-6, 1, 1e4), 0.04, false)

	_, err := newTestOptimizer(func(c *SolverConfig) { c.MaxIterations = 1 }).Optimize(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrOptimizationFailure), "got %v", err)

	var optErr *OptimizationError
	require.True(t, errors.As(err, &optErr))
	assert.Equal(t, "ProjectedGradient", optErr.Method)
	assert.Equal(t, "IterationLimit", optErr.Status)
}

func TestOptimizeLongOnlyNotBeatenByFeasiblePoints(t *testing.T) {
	rng := rand.New(rand.NewSource(84))
	const rf = 0.04

	for trial := 0; trial < 40; trial++ {
		n := 3 + rng.Intn(5)
		cov := randomCovariance(rng, n)
		mu := make([]float64, n)
		for i := range mu {
			if trial%4 == 0 {
				mu[i] = 0.05 * rng.Float64() // 대부분 무위험수익률 근처 또는 미만
			} else {
				mu[i] = 0.02 + 0.23*rng.Float64()
			}
		}

		symbols := make([]string, n)
		for i := range symbols {
			symbols[i] = string(rune('A' + i))
		}

		res, err := newTestOptimizer().Optimize(context.Background(), request(symbols, mu, cov, rf, false))
		require.NoError(t, err, "trial %d", trial)
		assertWeightInvariants(t, res.Weights, false)

		got := sharpeOf(mu, cov, rf, res.Weights.Values)

		// KKT: 사영 기울기 잔차가 0 에 가까워야 함
		obj := &negativeSharpe{mu: mu, sigma: symDense(cov), rf: rf, floor: 1e-10, penalty: 1e6}
		g := make([]float64, n)
		obj.eval(res.Weights.Values, g)
		assert.Less(t, stationarity(make([]float64, n), res.Weights.Values, g), 1e-6, "trial %d", trial)

		best := math.Inf(-1)
		w := make([]float64, n)
		for k := 0; k < 5000; k++ {
			randomFeasible(rng, w)
			if s := sharpeOf(mu, cov, rf, w); s > best {
				best = s
			}
		}
		for i := 0; i < n; i++ {
			for j := range w {
				w[j] = 0
			}
			w[i] = 1
			best = math.Max(best, sharpeOf(mu, cov, rf, w))
		}

		assert.GreaterOrEqual(t, got, best-1e-7, "trial %d: mu=%v weights=%v", trial, mu, res.Weights.Values)
	}
}

// randomCovariance returns AAᵀ/n + 0.001·I, symmetric by construction
func randomCovariance(rng *rand.Rand, n int) [][]float64 {
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		for j := range a[i] {
			a[i][j] = 0.2 * rng.NormFloat64()
		}
	}

	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := dot(a[i], a[j]) / float64(n)
			if i == j {
				v += 0.001
			}
			cov[i][j], cov[j][i] = v, v
		}
	}
	return cov
}

// randomFeasible fills w with a point of the simplex, about half on a face
func randomFeasible(rng *rand.Rand, w []float64) {
	sparse := rng.Intn(2) == 0
	total := 0.0
	for i := range w {
		w[i] = rng.ExpFloat64()
		if sparse && rng.Intn(2) == 0 {
			w[i] = 0
		}
		total += w[i]
	}
	if total == 0 {
		w[rng.Intn(len(w))] = 1
		return
	}
	for i := range w {
		w[i] /= total
	}
}

func sharpeOf(mu []float64, cov [][]float64, rf float64, w []float64) float64 {
	variance := 0.0
	for i := range w {
		for j := range w {
			variance += w[i] * cov[i][j] * w[j]
		}
	}
	return (dot(w, mu) - rf) / math.Sqrt(variance)
}

func symDense(cov [][]float64) *mat.SymDense {
	n := len(cov)
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, cov[i][j])
		}
	}
	return s
}
