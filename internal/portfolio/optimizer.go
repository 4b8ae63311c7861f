package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/optimize"

	"github.com/wonny/capm-optimizer/internal/contracts"
	"github.com/wonny/capm-optimizer/internal/risk"
	"github.com/wonny/capm-optimizer/pkg/logger"
)

// Optimizer computes maximum-Sharpe weights for one basket per call
// ⭐ SSOT: 비중 최적화 로직은 여기서만. 상태를 유지하지 않음
type Optimizer struct {
	config SolverConfig
	engine *risk.Engine
	logger *logger.Logger
}

// Request is one optimization problem
type Request struct {
	ExpectedReturns contracts.ExpectedReturnVector
	Covariance      contracts.CovarianceMatrix
	RiskFreeRate    float64
	AllowShort      bool
}

// Result is the outcome of a converged solve
type Result struct {
	RunID           string                     `json:"run_id"`
	Weights         contracts.WeightVector     `json:"weights"`
	RawWeights      contracts.WeightVector     `json:"raw_weights"` // 클리핑 이전 해
	Metrics         contracts.PortfolioMetrics `json:"metrics"`
	Method          string                     `json:"method"`
	Status          string                     `json:"status"`
	Iterations      int                        `json:"iterations"`
	FuncEvaluations int                        `json:"func_evaluations"`
	Clipped         bool                       `json:"clipped"` // 음수 비중이 0으로 잘렸는지
	SolvedAt        time.Time                  `json:"solved_at"`
}

// NewOptimizer creates a new optimizer
func NewOptimizer(config SolverConfig, log *logger.Logger) *Optimizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Optimizer{
		config: config,
		engine: risk.NewEngine(),
		logger: log.Component("optimizer"),
	}
}

// Config returns the solver configuration in use
func (o *Optimizer) Config() SolverConfig {
	return o.config
}

// Optimize maximizes (wᵀμ - rf)/sqrt(wᵀΣw) subject to Σw = 1, starting from
// equal weights. Without short selling every weight stays in [0, 1] and the
// long-only result satisfies the KKT conditions within KKTTolerance.
func (o *Optimizer) Optimize(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. Validate (solver 호출 전에 모두 검증)
	p, err := o.prepare(req)
	if err != nil {
		return nil, err
	}

	n := len(p.symbols)
	obj := &negativeSharpe{
		mu:      p.mu,
		sigma:   p.sigma,
		rf:      p.rf,
		floor:   o.config.VolatilityFloor,
		penalty: o.config.Penalty,
	}

	// 2. Solve
	var sol *solution
	if req.AllowShort {
		sol, err = o.solveShort(obj, n)
	} else {
		sol, err = o.solveLongOnly(obj, n)
	}
	if err != nil {
		return nil, err
	}

	// 3. Weights
	w := sol.weights
	raw := contracts.WeightVector{AssetVector: contracts.NewAssetVector(p.symbols, append([]float64(nil), w...))}

	clipped := false
	if o.config.ClipNegativeWeights {
		clipped, err = clipAndRenormalize(w)
		if err != nil {
			return nil, &OptimizationError{
				Method:     sol.method,
				Status:     sol.status,
				Message:    err.Error(),
				Iterations: sol.iterations,
			}
		}
	}
	weights := contracts.WeightVector{AssetVector: contracts.NewAssetVector(p.symbols, w)}

	// 4. Derived metrics
	metrics, err := o.engine.Metrics(weights, contracts.ExpectedReturnVector{
		AssetVector: contracts.NewAssetVector(p.symbols, p.mu),
	}, p.cov, p.rf)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:           uuid.NewString(),
		Weights:         weights,
		RawWeights:      raw,
		Metrics:         metrics,
		Method:          sol.method,
		Status:          sol.status,
		Iterations:      sol.iterations,
		FuncEvaluations: sol.evaluations,
		Clipped:         clipped,
		SolvedAt:        time.Now(),
	}

	log := o.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"assets":      n,
		"allow_short": req.AllowShort,
		"method":      sol.method,
		"status":      result.Status,
		"iterations":  result.Iterations,
		"sharpe":      metrics.Sharpe,
	})
	if clipped && req.AllowShort {
		// 공매도 허용인데 음수 비중이 제거됨: 반환 비중은 최적해가 아님
		log.Warn("Short weights clipped to zero and renormalized")
	}
	log.Debug("Sharpe optimization converged")

	return result, nil
}

// solution is a converged solver point mapped back to weights
type solution struct {
	weights     []float64
	method      string
	status      string
	iterations  int
	evaluations int
}

// solveLongOnly runs projected gradient on the simplex. Weights never leave [0, 1].
func (o *Optimizer) solveLongOnly(obj *negativeSharpe, n int) (*solution, error) {
	pg := &projectedGradient{obj: obj, config: o.config}
	run := pg.longOnly(n)

	const method = "ProjectedGradient"
	if !pgConverged(run.status) {
		return nil, &OptimizationError{
			Method:     method,
			Status:     run.status.String(),
			Message:    run.status.String(),
			Iterations: run.iterations,
		}
	}
	return &solution{
		weights:     run.x,
		method:      method,
		status:      run.status.String(),
		iterations:  run.iterations,
		evaluations: run.evaluations,
	}, nil
}

// solveShort runs BFGS on the Σw = 1 hyperplane and, on a line-search failure,
// retries once with Nelder-Mead from the best point BFGS reached. Any terminal
// status other than convergence fails.
func (o *Optimizer) solveShort(obj *negativeSharpe, n int) (*solution, error) {
	param := hyperplane{n: n}
	w := make([]float64, n)
	gw := make([]float64, n)

	prob := optimize.Problem{
		Func: func(x []float64) float64 {
			param.weights(w, x)
			return obj.eval(w, nil)
		},
		Grad: func(grad, x []float64) {
			param.weights(w, x)
			obj.eval(w, gw)
			param.pullback(grad, gw)
		},
	}

	method := "BFGS"
	res, err := optimize.Minimize(prob, param.start(), o.settings(), &optimize.BFGS{})

	if !converged(res, err) && o.config.FallbackNelderMead && res != nil && res.Status == optimize.Failure {
		o.logger.WithFields(map[string]interface{}{
			"status":     res.Status.String(),
			"iterations": res.MajorIterations,
		}).Debug("BFGS failed, retrying with Nelder-Mead")

		method = "NelderMead"
		res, err = optimize.Minimize(prob, append([]float64(nil), res.X...), o.settings(), &optimize.NelderMead{})
	}

	if !converged(res, err) {
		return nil, failure(method, res, err)
	}

	out := make([]float64, n)
	param.weights(out, res.X)
	return &solution{
		weights:     out,
		method:      method,
		status:      res.Status.String(),
		iterations:  res.MajorIterations,
		evaluations: res.FuncEvaluations,
	}, nil
}

func (o *Optimizer) settings() *optimize.Settings {
	window := o.config.ConvergenceWindow
	if window < 1 {
		window = 1
	}
	return &optimize.Settings{
		MajorIterations:   o.config.MaxIterations,
		GradientThreshold: o.config.GradientThreshold,
		Converger: &optimize.FunctionConverge{
			Absolute:   o.config.Tolerance,
			Iterations: window,
		},
	}
}

// converged accepts only statuses that mean the solver reached a stationary point
func converged(res *optimize.Result, err error) bool {
	if err != nil || res == nil {
		return false
	}
	switch res.Status {
	case optimize.Success,
		optimize.FunctionConvergence,
		optimize.GradientThreshold,
		optimize.StepConvergence,
		optimize.FunctionThreshold,
		optimize.MethodConverge:
		return true
	default:
		return false
	}
}

func failure(method string, res *optimize.Result, err error) *OptimizationError {
	e := &OptimizationError{Method: method, Status: "unknown", Message: "solver returned no result"}
	if res != nil {
		e.Status = res.Status.String()
		e.Iterations = res.MajorIterations
		e.Message = res.Status.String()
	}
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

// clipAndRenormalize zeroes negative weights and rescales to sum 1
func clipAndRenormalize(w []float64) (bool, error) {
	clipped := false
	total := 0.0
	for i, v := range w {
		if v < 0 {
			w[i] = 0
			clipped = true
		}
		total += w[i]
	}

	if total <= 0 {
		return clipped, fmt.Errorf("no positive weight left after clipping")
	}
	for i := range w {
		w[i] /= total
	}
	return clipped, nil
}
