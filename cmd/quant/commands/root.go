package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/capm-optimizer/internal/portfolio"
	"github.com/wonny/capm-optimizer/internal/prices"
	"github.com/wonny/capm-optimizer/pkg/config"
	"github.com/wonny/capm-optimizer/pkg/database"
	"github.com/wonny/capm-optimizer/pkg/logger"
	"github.com/wonny/capm-optimizer/pkg/redis"
)

var (
	// Global flags
	verbose   bool
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "CAPM 기반 최대 샤프 비중 최적화",
	Long: `CAPM Optimizer CLI

종가 → 로그수익률 → 베타 → 시장 파라미터 → CAPM 기대수익률/공분산 → 최대 샤프 비중.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant optimize --basket config/baskets/example.yaml
  go run ./cmd/quant api
  go run ./cmd/quant import-prices --csv data/prices.csv
  go run ./cmd/quant test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (LOG_LEVEL=debug)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (json|console)")
}

// loadRuntime loads config and builds the logger with CLI overrides applied
func loadRuntime() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, logger.New(cfg), nil
}

// solverConfig maps environment defaults onto the solver settings
func solverConfig(cfg config.OptimizerConfig) portfolio.SolverConfig {
	solver := portfolio.DefaultSolverConfig()
	solver.ClipNegativeWeights = cfg.ClipWeights
	if cfg.Tolerance > 0 {
		solver.Tolerance = cfg.Tolerance
	}
	if cfg.MaxIterations > 0 {
		solver.MaxIterations = cfg.MaxIterations
	}
	return solver
}

// openPriceSource builds the configured price source behind the Redis cache.
// The returned cleanup closes every connection it opened.
func openPriceSource(ctx context.Context, cfg *config.Config, log *logger.Logger) (prices.Source, func(), error) {
	var (
		src     prices.Source
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Prices.Source {
	case config.PriceSourcePostgres:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect to database: %w", err)
		}
		closers = append(closers, db.Close)
		src = prices.NewRepository(db.Pool)
		log.Info("Using PostgreSQL price source")
	default:
		src = prices.NewCSVSource(cfg.Prices.CSVPath)
		log.WithField("path", cfg.Prices.CSVPath).Info("Using CSV price source")
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		// 캐시는 선택 사항: 연결 실패 시 캐시 없이 진행
		log.WithError(err).Warn("Redis unavailable, price cache disabled")
		rdb = redis.Disabled()
	}
	closers = append(closers, func() { _ = rdb.Close() })

	cache := redis.NewCache(rdb, "capm")
	return prices.NewCachedSource(src, cache, cfg.Prices.CacheTTL, log), cleanup, nil
}
