package pipeline

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/capm-optimizer/internal/capm"
	"github.com/wonny/capm-optimizer/internal/contracts"
	"github.com/wonny/capm-optimizer/internal/portfolio"
	"github.com/wonny/capm-optimizer/internal/risk"
	"github.com/wonny/capm-optimizer/internal/strategyconfig"
	"github.com/wonny/capm-optimizer/pkg/config"
	"github.com/wonny/capm-optimizer/pkg/logger"
)

// Orchestrator runs returns → betas → market parameters → CAPM inputs → weights
// ⭐ SSOT: 파이프라인 조율은 여기서만. 단계는 앞으로만 진행
type Orchestrator struct {
	solver portfolio.SolverConfig
	engine *risk.Engine
	logger *logger.Logger
}

// Input is one basket run
type Input struct {
	ID           string
	Assets       contracts.PriceTable // 종목 종가
	Market       contracts.PriceTable // 시장 지수 종가 (MarketSymbol 컬럼 포함)
	MarketSymbol string
	From         time.Time // 수익률 표본 시작 (zero = 전체)

	RiskFreeRate         float64
	AllowShort           bool
	CovarianceSource     string  // empirical | capm
	AnnualizationPeriods float64 // empirical 공분산 연율화 계수

	// Solver overrides; zero values keep the orchestrator defaults
	ClipWeights   *bool
	Tolerance     float64
	MaxIterations int

	ConfigHash string
	Snapshot   *strategyconfig.Snapshot // 바스켓 YAML 재현성 기록 (없으면 nil)
}

// Report holds every intermediate product of a run
type Report struct {
	RunID            string                         `json:"run_id"`
	ID               string                         `json:"id,omitempty"`
	ConfigHash       string                         `json:"config_hash,omitempty"`
	Snapshot         *strategyconfig.Snapshot       `json:"snapshot,omitempty"`
	Observations     int                            `json:"observations"`
	Start            time.Time                      `json:"start"`
	End              time.Time                      `json:"end"`
	MarketSymbol     string                         `json:"market_symbol"`
	RiskFreeRate     float64                        `json:"risk_free_rate"`
	Betas            contracts.BetaVector           `json:"betas"`
	Market           contracts.MarketParameters     `json:"market"`
	MarketPremium    float64                        `json:"market_premium"`
	ExpectedReturns  contracts.ExpectedReturnVector `json:"expected_returns"`
	CovarianceSource string                         `json:"covariance_source"`
	Covariance       contracts.CovarianceMatrix     `json:"covariance"`
	Optimization     *portfolio.Result              `json:"optimization"`
	HistoricalVaR    risk.VaRResult                 `json:"historical_var"`
	ParametricVaR    risk.VaRResult                 `json:"parametric_var"`
	InSample         risk.Performance               `json:"in_sample"`
	CompletedStages  []string                       `json:"completed_stages"`
	DurationMs       int64                          `json:"duration_ms"`
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(solver portfolio.SolverConfig, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		solver: solver,
		engine: risk.NewEngine(),
		logger: log.Component("pipeline"),
	}
}

// Run executes the pipeline for one basket. The first failing stage aborts the run.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Report, error) {
	startTime := time.Now()
	report := &Report{
		ID:               in.ID,
		ConfigHash:       in.ConfigHash,
		Snapshot:         in.Snapshot,
		MarketSymbol:     in.MarketSymbol,
		RiskFreeRate:     in.RiskFreeRate,
		CovarianceSource: in.CovarianceSource,
		CompletedStages:  make([]string, 0, 5),
	}
	if report.CovarianceSource == "" {
		report.CovarianceSource = config.CovarianceEmpirical
	}

	log := o.logger.WithFields(map[string]interface{}{
		"id":     in.ID,
		"assets": len(in.Assets.Symbols),
		"market": in.MarketSymbol,
	})
	log.Info("Starting optimization run")

	// 1. Return transform + alignment
	assetReturns, err := capm.LogReturns(in.Assets)
	if err != nil {
		return nil, stageError("returns", err)
	}
	marketTable, err := capm.LogReturns(in.Market)
	if err != nil {
		return nil, stageError("returns", err)
	}
	marketReturns, ok := marketTable.Column(in.MarketSymbol)
	if !ok {
		return nil, stageError("returns", fmt.Errorf("%w: market table has no column %s",
			contracts.ErrInvalidInput, in.MarketSymbol))
	}
	assetReturns, marketReturns, err = capm.Align(assetReturns, marketReturns, in.From)
	if err != nil {
		return nil, stageError("returns", err)
	}
	report.Observations = assetReturns.Len()
	report.Start = assetReturns.Start()
	report.End = assetReturns.End()
	report.CompletedStages = append(report.CompletedStages, "returns")

	// 2. Betas
	betas, err := capm.EstimateBetas(assetReturns, marketReturns)
	if err != nil {
		return nil, stageError("betas", err)
	}
	report.Betas = betas
	report.CompletedStages = append(report.CompletedStages, "betas")

	// 3. Market parameters
	market, err := capm.EstimateMarketParameters(marketReturns)
	if err != nil {
		return nil, stageError("market", err)
	}
	report.Market = market
	report.MarketPremium = market.Premium(in.RiskFreeRate)
	report.CompletedStages = append(report.CompletedStages, "market")

	// 4. CAPM inputs
	report.ExpectedReturns = capm.ExpectedReturns(betas, market, in.RiskFreeRate)
	switch report.CovarianceSource {
	case config.CovarianceCAPM:
		report.Covariance = capm.SyntheticCovariance(betas, market.Variance)
	case config.CovarianceEmpirical:
		report.Covariance, err = capm.EmpiricalCovariance(assetReturns, in.AnnualizationPeriods)
		if err != nil {
			return nil, stageError("capm", err)
		}
	default:
		return nil, stageError("capm", fmt.Errorf("%w: unknown covariance source %q",
			contracts.ErrInvalidInput, report.CovarianceSource))
	}
	report.CompletedStages = append(report.CompletedStages, "capm")

	// 5. Optimize
	optimizer := portfolio.NewOptimizer(o.solverFor(in), o.logger)
	result, err := optimizer.Optimize(ctx, portfolio.Request{
		ExpectedReturns: report.ExpectedReturns,
		Covariance:      report.Covariance,
		RiskFreeRate:    in.RiskFreeRate,
		AllowShort:      in.AllowShort,
	})
	if err != nil {
		return nil, stageError("optimize", err)
	}
	report.Optimization = result
	report.RunID = result.RunID
	report.CompletedStages = append(report.CompletedStages, "optimize")

	// 실현 수익률 기반 VaR (리포트용)
	realized, err := o.engine.RealizedReturns(result.Weights, assetReturns)
	if err != nil {
		return nil, stageError("report", err)
	}
	report.HistoricalVaR = o.engine.VaR(realized, risk.DefaultConfidence)
	mean, std := stat.MeanStdDev(realized, nil)
	report.ParametricVaR = o.engine.ParametricVaR(mean, std, risk.DefaultConfidence)
	report.ParametricVaR.Samples = len(realized)
	periods := in.AnnualizationPeriods
	if periods <= 0 {
		periods = capm.TradingDaysPerYear
	}
	report.InSample = o.engine.Performance(realized, periods, in.RiskFreeRate)
	report.DurationMs = time.Since(startTime).Milliseconds()

	log.WithFields(map[string]interface{}{
		"run_id":       report.RunID,
		"observations": report.Observations,
		"sharpe":       result.Metrics.Sharpe,
		"duration_ms":  report.DurationMs,
	}).Info("Optimization run completed")

	return report, nil
}

func (o *Orchestrator) solverFor(in Input) portfolio.SolverConfig {
	cfg := o.solver
	if in.ClipWeights != nil {
		cfg.ClipNegativeWeights = *in.ClipWeights
	}
	if in.Tolerance > 0 {
		cfg.Tolerance = in.Tolerance
	}
	if in.MaxIterations > 0 {
		cfg.MaxIterations = in.MaxIterations
	}
	return cfg
}

func stageError(stage string, err error) error {
	return fmt.Errorf("%s stage: %w", stage, err)
}
