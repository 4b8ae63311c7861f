package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/capm-optimizer/internal/pipeline"
	"github.com/wonny/capm-optimizer/internal/prices"
	"github.com/wonny/capm-optimizer/internal/strategyconfig"
	"github.com/wonny/capm-optimizer/pkg/config"
	"github.com/wonny/capm-optimizer/pkg/logger"
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "바스켓 최대 샤프 비중 계산",
	Long: `YAML 바스켓 정의로 CAPM 파이프라인을 실행합니다.

단계:
  1. 종가 → 로그수익률 (결측 행 제거, 시장과 날짜 정렬)
  2. 종목별 베타 (OLS)
  3. 시장 기대수익률(×365) / 분산
  4. CAPM 기대수익률 + 공분산 (empirical | capm)
  5. 최대 샤프 비중 (Σw = 1, 공매도 미허용 시 0 ≤ w ≤ 1)

여러 바스켓은 서로 독립적으로 병렬 실행되며, 하나가 실패해도 나머지는 계속됩니다.

Example:
  go run ./cmd/quant optimize --basket config/baskets/example.yaml
  go run ./cmd/quant optimize --basket a.yaml --basket b.yaml --parallel 4
  go run ./cmd/quant optimize --basket a.yaml --csv data/prices.csv --short --json`,
	RunE: runOptimize,
}

var (
	optBaskets    []string
	optCSVPath    string
	optShort      bool
	optNoClip     bool
	optRiskFree   float64
	optCovariance string
	optParallel   int
	optJSON       bool
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringSliceVar(&optBaskets, "basket", nil, "바스켓 YAML 경로 (반복 가능)")
	optimizeCmd.Flags().StringVar(&optCSVPath, "csv", "", "CSV 종가 파일 (지정 시 PRICE_SOURCE=csv)")
	optimizeCmd.Flags().BoolVar(&optShort, "short", false, "공매도 허용 (바스켓 설정 덮어씀)")
	optimizeCmd.Flags().BoolVar(&optNoClip, "no-clip", false, "음수 비중 클리핑 비활성화")
	optimizeCmd.Flags().Float64Var(&optRiskFree, "rf", 0, "무위험 수익률 (바스켓 설정 덮어씀)")
	optimizeCmd.Flags().StringVar(&optCovariance, "covariance", "", "공분산 소스 (empirical|capm)")
	optimizeCmd.Flags().IntVar(&optParallel, "parallel", 2, "동시 실행 바스켓 수")
	optimizeCmd.Flags().BoolVar(&optJSON, "json", false, "리포트를 JSON 으로 출력")
	_ = optimizeCmd.MarkFlagRequired("basket")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	if optJSON {
		// stdout 은 리포트 전용
		log = logger.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	}
	if optCSVPath != "" {
		cfg.Prices.Source = config.PriceSourceCSV
		cfg.Prices.CSVPath = optCSVPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load basket definitions
	jobs := make([]basketJob, 0, len(optBaskets))
	for _, path := range optBaskets {
		basket, raw, err := strategyconfig.Load(path)
		if err != nil {
			return fmt.Errorf("load basket %s: %w", path, err)
		}
		applyFlagOverrides(cmd, basket)
		if err := strategyconfig.Validate(basket); err != nil {
			return fmt.Errorf("basket %s: %w", path, err)
		}
		jobs = append(jobs, basketJob{path: path, basket: basket, raw: raw})
	}

	// 2. Prices
	src, cleanup, err := openPriceSource(ctx, cfg, log)
	defer cleanup()
	if err != nil {
		return err
	}

	// 3. Run
	orchestrator := pipeline.NewOrchestrator(solverConfig(cfg.Optimizer), log)
	results := runBaskets(ctx, src, orchestrator, jobs, cfg.Optimizer, optParallel, log)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			PrintError(fmt.Sprintf("%s: %v", res.ID, res.Err))
			continue
		}
		if optJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res.Report); err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			continue
		}
		PrintReport(res.Report)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d baskets failed", failed, len(results))
	}
	return nil
}

// basketJob is one validated basket file
type basketJob struct {
	path   string
	basket *strategyconfig.Config
	raw    []byte
}

// runBaskets loads prices for every basket and runs the ones that loaded.
// 가격 로딩에 실패한 바스켓은 실패 결과로 남고 나머지는 계속 실행됨. 결과 순서 = jobs 순서
func runBaskets(ctx context.Context, src prices.Source, orchestrator *pipeline.Orchestrator, jobs []basketJob,
	defaults config.OptimizerConfig, parallel int, log *logger.Logger) []pipeline.BatchResult {
	results := make([]pipeline.BatchResult, len(jobs))
	inputs := make([]pipeline.Input, 0, len(jobs))
	slots := make([]int, 0, len(jobs))

	for i, job := range jobs {
		in, err := pipeline.BuildInput(ctx, src, job.basket, job.raw, defaults)
		if err != nil {
			log.WithFields(map[string]interface{}{
				"basket": job.path,
				"error":  err.Error(),
			}).Warn("Basket input failed, skipping")
			results[i] = pipeline.BatchResult{
				ID:  job.basket.Meta.StrategyID,
				Err: fmt.Errorf("basket %s: %w", job.path, err),
			}
			continue
		}
		inputs = append(inputs, in)
		slots = append(slots, i)
	}

	for k, res := range orchestrator.RunBatch(ctx, inputs, parallel) {
		results[slots[k]] = res
	}
	return results
}

// applyFlagOverrides applies only the flags the user actually set
func applyFlagOverrides(cmd *cobra.Command, basket *strategyconfig.Config) {
	flags := cmd.Flags()
	if flags.Changed("short") {
		basket.Optimizer.AllowShort = optShort
	}
	if flags.Changed("no-clip") {
		clip := !optNoClip
		basket.Optimizer.ClipWeights = &clip
	}
	if flags.Changed("rf") {
		basket.CAPM.RiskFreeRate = optRiskFree
	}
	if flags.Changed("covariance") {
		basket.CAPM.CovarianceSource = optCovariance
	}
}
