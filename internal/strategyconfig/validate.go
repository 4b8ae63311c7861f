package strategyconfig

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/capm-optimizer/pkg/config"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Universe ===
	if len(cfg.Universe.Symbols) < 2 {
		return ValidationError{"universe.symbols", "at least 2 symbols required"}
	}
	seen := make(map[string]struct{}, len(cfg.Universe.Symbols))
	for i, s := range cfg.Universe.Symbols {
		if s == "" {
			return ValidationError{fmt.Sprintf("universe.symbols[%d]", i), "must not be empty"}
		}
		if _, dup := seen[s]; dup {
			return ValidationError{fmt.Sprintf("universe.symbols[%d]", i), fmt.Sprintf("duplicate symbol %s", s)}
		}
		seen[s] = struct{}{}
	}
	if cfg.Universe.MarketIndex == "" {
		return ValidationError{"universe.market_index", "required"}
	}
	if _, dup := seen[cfg.Universe.MarketIndex]; dup {
		return ValidationError{"universe.market_index", "must not be one of universe.symbols"}
	}

	// === Window ===
	from, err := time.Parse(dateLayout, cfg.Window.From)
	if err != nil {
		return ValidationError{"window.from", "must be YYYY-MM-DD"}
	}
	if cfg.Window.To != "" {
		to, err := time.Parse(dateLayout, cfg.Window.To)
		if err != nil {
			return ValidationError{"window.to", "must be YYYY-MM-DD"}
		}
		if !from.Before(to) {
			return ValidationError{"window", "from must be before to"}
		}
	}

	// === CAPM ===
	if math.IsNaN(cfg.CAPM.RiskFreeRate) || math.IsInf(cfg.CAPM.RiskFreeRate, 0) {
		return ValidationError{"capm.risk_free_rate", "must be finite"}
	}
	if cfg.CAPM.AnnualizationPeriods < 0 {
		return ValidationError{"capm.annualization_periods", "must be >= 0"}
	}
	switch cfg.CAPM.CovarianceSource {
	case "", config.CovarianceEmpirical, config.CovarianceCAPM:
	default:
		return ValidationError{"capm.covariance_source", "must be empirical or capm"}
	}

	// === Optimizer ===
	if cfg.Optimizer.Tolerance < 0 {
		return ValidationError{"optimizer.tolerance", "must be >= 0"}
	}
	if cfg.Optimizer.MaxIterations < 0 {
		return ValidationError{"optimizer.max_iterations", "must be >= 0"}
	}

	return nil
}
