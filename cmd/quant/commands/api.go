package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/capm-optimizer/internal/api"
	"github.com/wonny/capm-optimizer/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 최적화 요청은 요청마다 독립적으로 처리 (공유 상태 없음)
- /api 경로는 token bucket 으로 요청 수 제한

Endpoints:
  GET  /health          - Health check
  POST /api/optimize    - 기대수익률/공분산으로 직접 최적화
  POST /api/pipeline    - 종가 테이블로 전체 CAPM 파이프라인 실행

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== CAPM Optimizer API Server ===")

	// 1. Load config + logger
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port":       cfg.Port,
		"env":        cfg.Env,
		"rate_limit": cfg.API.RateLimit,
		"rate_burst": cfg.API.RateBurst,
	}).Info("Initializing API server")

	// 2. Handler + router
	optHandler := handlers.NewOptimizerHandler(solverConfig(cfg.Optimizer), cfg.Optimizer, log)
	router := api.NewRouter(optHandler, cfg.API, log)

	// 3. Server with graceful shutdown on SIGINT/SIGTERM
	server := api.New(cfg, log, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/optimize")
	fmt.Println("  POST /api/pipeline")
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
