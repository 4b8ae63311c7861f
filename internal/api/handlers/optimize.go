package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wonny/capm-optimizer/internal/contracts"
	"github.com/wonny/capm-optimizer/internal/pipeline"
	"github.com/wonny/capm-optimizer/internal/portfolio"
	"github.com/wonny/capm-optimizer/pkg/config"
	"github.com/wonny/capm-optimizer/pkg/logger"
)

// maxBodyBytes bounds request bodies (price tables included)
const maxBodyBytes = 8 << 20

// OptimizerHandler serves the optimization endpoints
// ⭐ SSOT: 최적화 API 핸들러는 여기서만. 요청 간 상태 공유 없음
type OptimizerHandler struct {
	solver       portfolio.SolverConfig
	defaults     config.OptimizerConfig
	orchestrator *pipeline.Orchestrator
	logger       *logger.Logger
}

// NewOptimizerHandler creates a new optimizer handler
func NewOptimizerHandler(solver portfolio.SolverConfig, defaults config.OptimizerConfig, log *logger.Logger) *OptimizerHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &OptimizerHandler{
		solver:       solver,
		defaults:     defaults,
		orchestrator: pipeline.NewOrchestrator(solver, log),
		logger:       log.Component("api"),
	}
}

// OptimizeRequest is a direct optimizer call on caller-supplied inputs
type OptimizeRequest struct {
	ExpectedReturns contracts.ExpectedReturnVector `json:"expected_returns"`
	Covariance      contracts.CovarianceMatrix     `json:"covariance"`
	RiskFreeRate    *float64                       `json:"risk_free_rate"`
	AllowShort      *bool                          `json:"allow_short"`
	ClipWeights     *bool                          `json:"clip_weights"`
}

// PipelineRequest runs the full CAPM pipeline on inline price tables
type PipelineRequest struct {
	ID                   string               `json:"id"`
	Assets               contracts.PriceTable `json:"assets"`
	Market               contracts.PriceTable `json:"market"`
	MarketSymbol         string               `json:"market_symbol"`
	From                 string               `json:"from"` // YYYY-MM-DD, 생략 가능
	RiskFreeRate         *float64             `json:"risk_free_rate"`
	AllowShort           *bool                `json:"allow_short"`
	ClipWeights          *bool                `json:"clip_weights"`
	CovarianceSource     string               `json:"covariance_source"`
	AnnualizationPeriods float64              `json:"annualization_periods"`
}

// Optimize solves for maximum-Sharpe weights
// POST /api/optimize
func (h *OptimizerHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	solver := h.solver
	if req.ClipWeights != nil {
		solver.ClipNegativeWeights = *req.ClipWeights
	}

	result, err := portfolio.NewOptimizer(solver, h.logger).Optimize(r.Context(), portfolio.Request{
		ExpectedReturns: req.ExpectedReturns,
		Covariance:      req.Covariance,
		RiskFreeRate:    floatOr(req.RiskFreeRate, h.defaults.RiskFreeRate),
		AllowShort:      boolOr(req.AllowShort, h.defaults.AllowShort),
	})
	if err != nil {
		h.logger.WithError(err).Warn("Optimize request failed")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// RunPipeline runs returns → betas → market → CAPM → optimize on the supplied prices
// POST /api/pipeline
func (h *OptimizerHandler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	var req PipelineRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.MarketSymbol == "" {
		respondError(w, http.StatusBadRequest, "market_symbol is required")
		return
	}

	var from time.Time
	if req.From != "" {
		var err error
		from, err = time.Parse("2006-01-02", req.From)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
			return
		}
	}

	in := pipeline.Input{
		ID:                   req.ID,
		Assets:               req.Assets,
		Market:               req.Market,
		MarketSymbol:         req.MarketSymbol,
		From:                 from,
		RiskFreeRate:         floatOr(req.RiskFreeRate, h.defaults.RiskFreeRate),
		AllowShort:           boolOr(req.AllowShort, h.defaults.AllowShort),
		ClipWeights:          req.ClipWeights,
		CovarianceSource:     req.CovarianceSource,
		AnnualizationPeriods: req.AnnualizationPeriods,
	}
	if in.CovarianceSource == "" {
		in.CovarianceSource = h.defaults.CovarianceSource
	}
	if in.AnnualizationPeriods == 0 {
		in.AnnualizationPeriods = h.defaults.AnnualizationPeriods
	}

	report, err := h.orchestrator.Run(r.Context(), in)
	if err != nil {
		h.logger.WithError(err).Warn("Pipeline request failed")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
