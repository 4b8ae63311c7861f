package portfolio

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// negativeSharpe is the minimization objective -(wᵀμ - rf)/sqrt(wᵀΣw).
// At or below the volatility floor it returns a finite penalty with a zero gradient.
type negativeSharpe struct {
	mu      []float64
	sigma   *mat.SymDense
	rf      float64
	floor   float64
	penalty float64
}

// eval returns the objective at w and, when grad is non-nil, fills d/dw
func (f *negativeSharpe) eval(w, grad []float64) float64 {
	n := len(w)
	wv := mat.NewVecDense(n, w)
	sw := mat.NewVecDense(n, nil)
	sw.MulVec(f.sigma, wv)

	variance := mat.Dot(wv, sw)
	if variance < 0 {
		variance = 0
	}
	vol := math.Sqrt(variance)

	if vol <= f.floor {
		if grad != nil {
			for i := range grad {
				grad[i] = 0
			}
		}
		return f.penalty
	}

	excess := floats.Dot(w, f.mu) - f.rf

	if grad != nil {
		// d/dw_i = -μ_i/σ + excess·(Σw)_i/σ³
		vol3 := vol * vol * vol
		for i := range grad {
			grad[i] = -f.mu[i]/vol + excess*sw.AtVec(i)/vol3
		}
	}

	return -excess / vol
}

// hyperplane maps unconstrained solver variables onto weights with Σw = 1:
// w = (x_1..x_{n-1}, 1-Σx). Weights are unbounded (short selling).
type hyperplane struct{ n int }

func (p hyperplane) dim() int { return p.n - 1 }

// start maps to equal weights
func (p hyperplane) start() []float64 {
	x := make([]float64, p.n-1)
	for i := range x {
		x[i] = 1 / float64(p.n)
	}
	return x
}

func (p hyperplane) weights(dst, x []float64) {
	copy(dst, x)
	dst[p.n-1] = 1 - floats.Sum(x)
}

// pullback sets dst = Jᵀ·gw
func (p hyperplane) pullback(dst, gw []float64) {
	last := gw[p.n-1]
	for i := range dst {
		dst[i] = gw[i] - last
	}
}
