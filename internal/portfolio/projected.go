package portfolio

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// ============================================================================
// Long-only solve: spectral projected gradient on the unit simplex
// ============================================================================

const (
	armijoFraction = 1e-4
	maxBacktracks  = 60
	minStep        = 1e-12
	maxStep        = 1e12
)

// pgRun is one projected-gradient descent from a single start
type pgRun struct {
	x           []float64
	f           float64
	status      optimize.Status
	iterations  int
	evaluations int
}

// projectedGradient minimizes negativeSharpe over {w ≥ 0, Σw = 1}.
// 모든 반복점이 가능해 위에 있으므로 0 으로 내려간 종목도 기울기만 맞으면 다시 편입됨
type projectedGradient struct {
	obj    *negativeSharpe
	config SolverConfig
}

// run descends from start until the stationarity residual vanishes or the
// objective stalls at a point that satisfies the KKT tolerance.
func (s *projectedGradient) run(start []float64) pgRun {
	n := len(start)
	w := append([]float64(nil), start...)
	projectSimplex(w)

	g := make([]float64, n)
	f := s.obj.eval(w, g)
	out := pgRun{evaluations: 1}

	window := s.config.ConvergenceWindow
	if window < 1 {
		window = 1
	}

	trial := make([]float64, n)
	tg := make([]float64, n)
	d := make([]float64, n)
	scratch := make([]float64, n)
	step := 1.0
	stalled := 0

	finish := func(status optimize.Status, iter int) pgRun {
		out.x, out.f, out.status, out.iterations = w, f, status, iter
		return out
	}

	for iter := 0; iter < s.config.MaxIterations; iter++ {
		if stationarity(scratch, w, g) <= s.config.GradientThreshold {
			return finish(optimize.GradientThreshold, iter)
		}

		// d = P(w - α·g) - w
		for i := range d {
			d[i] = w[i] - step*g[i]
		}
		projectSimplex(d)
		floats.Sub(d, w)

		slope := floats.Dot(g, d)
		if slope >= 0 {
			// 수치적으로 더 내려갈 방향이 없음
			return s.stop(finish, w, g, scratch, iter)
		}

		// Armijo backtracking along the feasible segment [w, w+d]
		t := 1.0
		ft := 0.0
		accepted := false
		for k := 0; k < maxBacktracks; k++ {
			floats.AddScaledTo(trial, w, t, d)
			ft = s.obj.eval(trial, tg)
			out.evaluations++
			if ft <= f+armijoFraction*t*slope {
				accepted = true
				break
			}
			t *= 0.5
		}
		if !accepted {
			return s.stop(finish, w, g, scratch, iter)
		}

		// Barzilai-Borwein step for the next direction
		floats.SubTo(d, trial, w)
		floats.SubTo(scratch, tg, g)
		ss := floats.Dot(d, d)
		sy := floats.Dot(d, scratch)
		if sy > 0 {
			step = math.Min(maxStep, math.Max(minStep, ss/sy))
		} else {
			step = maxStep
		}

		decrease := f - ft
		copy(w, trial)
		copy(g, tg)
		f = ft

		if decrease <= s.config.Tolerance {
			stalled++
		} else {
			stalled = 0
		}
		if stalled >= window && stationarity(scratch, w, g) <= s.config.KKTTolerance {
			return finish(optimize.FunctionConvergence, iter+1)
		}
	}

	return finish(optimize.IterationLimit, s.config.MaxIterations)
}

// stop ends a run that can make no further progress. It counts as converged
// only when the point is stationary within the KKT tolerance.
func (s *projectedGradient) stop(finish func(optimize.Status, int) pgRun, w, g, scratch []float64, iter int) pgRun {
	if stationarity(scratch, w, g) <= s.config.KKTTolerance {
		return finish(optimize.StepConvergence, iter)
	}
	return finish(optimize.Failure, iter)
}

// stationarity returns ||P(w - g) - w||∞, zero exactly at KKT points of the
// simplex-constrained problem. buf is overwritten.
func stationarity(buf, w, g []float64) float64 {
	floats.SubTo(buf, w, g)
	projectSimplex(buf)
	floats.Sub(buf, w)
	return floats.Norm(buf, math.Inf(1))
}

// projectSimplex replaces v with its Euclidean projection onto {x ≥ 0, Σx = 1}
func projectSimplex(v []float64) {
	n := len(v)
	sorted := append([]float64(nil), v...)
	idx := make([]int, n)
	floats.Argsort(sorted, idx) // 오름차순

	// 큰 값부터 누적하며 임계값 θ 결정
	cum := 0.0
	theta := 0.0
	for k := 1; k <= n; k++ {
		u := sorted[n-k]
		cum += u
		if t := (cum - 1) / float64(k); u > t {
			theta = t
		}
	}

	for i := range v {
		v[i] = math.Max(v[i]-theta, 0)
	}
}

// bestVertex returns the single-asset portfolio with the best objective,
// or -1 when every vertex is degenerate.
func bestVertex(obj *negativeSharpe, n int) int {
	best, bestF := -1, obj.penalty
	e := make([]float64, n)
	for i := 0; i < n; i++ {
		e[i] = 1
		if f := obj.eval(e, nil); f < bestF {
			best, bestF = i, f
		}
		e[i] = 0
	}
	return best
}

// longOnly solves from equal weights. A non-positive Sharpe ratio means the
// feasible set may hold no positive excess return; the maximum then sits at a
// vertex, so the best single-asset start is tried and kept when it improves.
func (s *projectedGradient) longOnly(n int) pgRun {
	start := make([]float64, n)
	for i := range start {
		start[i] = 1 / float64(n)
	}

	best := s.run(start)
	if !pgConverged(best.status) || best.f < 0 {
		return best
	}

	v := bestVertex(s.obj, n)
	best.evaluations += n
	if v < 0 {
		return best
	}
	for i := range start {
		start[i] = 0
	}
	start[v] = 1

	alt := s.run(start)
	evaluations := best.evaluations + alt.evaluations
	if pgConverged(alt.status) && alt.f < best.f {
		best = alt
	}
	best.evaluations = evaluations
	return best
}

func pgConverged(status optimize.Status) bool {
	switch status {
	case optimize.GradientThreshold, optimize.FunctionConvergence, optimize.StepConvergence:
		return true
	default:
		return false
	}
}
