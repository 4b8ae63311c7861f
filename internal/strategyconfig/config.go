package strategyconfig

import "time"

// Config는 하나의 바스켓 최적화 실행 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Window    Window    `yaml:"window" json:"window"`
	CAPM      CAPM      `yaml:"capm" json:"capm"`
	Optimizer Optimizer `yaml:"optimizer" json:"optimizer"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Universe 최적화 대상 종목과 시장 지수
type Universe struct {
	Symbols     []string `yaml:"symbols" json:"symbols"`
	MarketIndex string   `yaml:"market_index" json:"market_index"`
}

// Window 수익률 표본 기간 (YYYY-MM-DD, to 는 생략 가능)
type Window struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// CAPM 기대수익률/공분산 산출 설정
type CAPM struct {
	RiskFreeRate         float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
	AnnualizationPeriods float64 `yaml:"annualization_periods" json:"annualization_periods"` // empirical 공분산 연율화
	CovarianceSource     string  `yaml:"covariance_source" json:"covariance_source"`         // empirical | capm
}

// Optimizer 최적화 설정. 0 값은 환경설정 기본값 사용
type Optimizer struct {
	AllowShort    bool    `yaml:"allow_short" json:"allow_short"`
	ClipWeights   *bool   `yaml:"clip_weights" json:"clip_weights"` // 생략 시 환경설정 기본값
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
}

// FromDate returns the parsed window start. Validate guarantees it parses.
func (w Window) FromDate() time.Time {
	t, _ := time.Parse(dateLayout, w.From)
	return t
}

// ToDate returns the parsed window end, zero when open-ended
func (w Window) ToDate() time.Time {
	if w.To == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, w.To)
	return t
}

// Snapshot 재현성 기록 (해시 + 원본 YAML)
type Snapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	CreatedAt  time.Time `json:"created_at"`
}

const dateLayout = "2006-01-02"
