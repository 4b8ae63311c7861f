package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNegativeSharpeGradient(t *testing.T) {
	sigma := mat.NewSymDense(3, []float64{
		0.04, 0.01, 0.00,
		0.01, 0.09, 0.02,
		0.00, 0.02, 0.16,
	})
	f := &negativeSharpe{mu: []float64{0.1, 0.15, 0.2}, sigma: sigma, rf: 0.03, floor: 1e-10, penalty: 1e6}

	w := []float64{0.5, 0.3, 0.2}
	grad := make([]float64, 3)
	f.eval(w, grad)

	// central differences
	const h = 1e-6
	for i := range w {
		up := append([]float64(nil), w...)
		dn := append([]float64(nil), w...)
		up[i] += h
		dn[i] -= h
		numeric := (f.eval(up, nil) - f.eval(dn, nil)) / (2 * h)
		assert.InDelta(t, numeric, grad[i], 1e-6, "component %d", i)
	}
}

func TestNegativeSharpePenalty(t *testing.T) {
	f := &negativeSharpe{mu: []float64{0.1, 0.1}, sigma: mat.NewSymDense(2, nil), floor: 1e-10, penalty: 1e6}

	grad := []float64{1, 1}
	assert.Equal(t, 1e6, f.eval([]float64{0.5, 0.5}, grad))
	assert.Equal(t, []float64{0, 0}, grad)
}

func TestHyperplaneStartAndBudget(t *testing.T) {
	p := hyperplane{n: 4}
	w := make([]float64, 4)
	p.weights(w, p.start())
	for _, v := range w {
		assert.InDelta(t, 0.25, v, 1e-15)
	}

	p.weights(w, []float64{0.7, -1.2, 2.5})
	assert.InDelta(t, 1.0, w[0]+w[1]+w[2]+w[3], 1e-12)
	assert.InDelta(t, -1.0, w[3], 1e-12)
}

func TestPullbackMatchesFiniteDifference(t *testing.T) {
	// objective g(w) = cᵀw, so d/dx = Jᵀc
	c := []float64{0.3, -0.1, 0.7}
	p := hyperplane{n: 3}
	x := []float64{0.4, -0.3}

	got := make([]float64, 2)
	p.pullback(got, c)

	const h = 1e-6
	for i := range x {
		up := append([]float64(nil), x...)
		dn := append([]float64(nil), x...)
		up[i] += h
		dn[i] -= h
		wu, wd := make([]float64, 3), make([]float64, 3)
		p.weights(wu, up)
		p.weights(wd, dn)
		numeric := (dot(c, wu) - dot(c, wd)) / (2 * h)
		assert.InDelta(t, numeric, got[i], 1e-8)
	}
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
