package portfolio

// SolverConfig defines the Sharpe-maximization solve parameters
// ⭐ SSOT: 최적화 파라미터는 여기서만
type SolverConfig struct {
	Tolerance         float64 // 목적함수 수렴 허용오차 (절대값)
	MaxIterations     int     // 최대 반복 횟수, 초과 시 OptimizationFailure
	ConvergenceWindow int     // Tolerance 이하 개선이 연속으로 몇 번 나와야 수렴으로 볼지
	GradientThreshold float64 // 그래디언트 무한노름이 이 값보다 작으면 수렴
	VolatilityFloor   float64 // 이 값 이하의 변동성은 퇴화로 간주
	Penalty           float64 // 퇴화 구간의 목적함수 값 (유한)

	// KKTTolerance 비공매도 해의 정상성 잔차 ||P(w-∇F) - w||∞ 상한.
	// 목적함수 개선이 멈춰도 이 값을 넘으면 계속 반복
	KKTTolerance float64

	// ClipNegativeWeights 음수 비중을 0으로 자르고 재정규화.
	// 공매도 허용 시에도 적용되며, false 로 두면 공매도 비중이 그대로 반환됨
	ClipNegativeWeights bool

	// FallbackNelderMead BFGS 라인서치 실패 시 Nelder-Mead 로 한 번 재시도
	FallbackNelderMead bool

	PSDTolerance      float64 // 최소 고유값 허용 하한 (상대값)
	SymmetryTolerance float64 // |Σij - Σji| 허용치 (상대값)
}

// DefaultSolverConfig returns default solver configuration
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Tolerance:           1e-9,
		MaxIterations:       1000,
		ConvergenceWindow:   5,
		GradientThreshold:   1e-9,
		VolatilityFloor:     1e-10,
		Penalty:             1e6,
		KKTTolerance:        1e-7,
		ClipNegativeWeights: true,
		FallbackNelderMead:  true,
		PSDTolerance:        1e-10,
		SymmetryTolerance:   1e-10,
	}
}
