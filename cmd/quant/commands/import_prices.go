package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/capm-optimizer/internal/prices"
	"github.com/wonny/capm-optimizer/pkg/database"
)

// importPricesCmd represents the import-prices command
var importPricesCmd = &cobra.Command{
	Use:   "import-prices",
	Short: "CSV 종가를 PostgreSQL 에 적재",
	Long: `와이드 포맷 CSV (date,SYM1,SYM2,...) 를 data.daily_prices 에 upsert 합니다.
빈 셀은 결측으로 건너뜁니다.

Example:
  go run ./cmd/quant import-prices --csv data/prices.csv`,
	RunE: runImportPrices,
}

var importCSVPath string

func init() {
	rootCmd.AddCommand(importPricesCmd)

	importPricesCmd.Flags().StringVar(&importCSVPath, "csv", "", "CSV 종가 파일")
	_ = importPricesCmd.MarkFlagRequired("csv")
}

func runImportPrices(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	startTime := time.Now()

	f, err := os.Open(importCSVPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", importCSVPath, err)
	}
	defer f.Close()

	obs, err := prices.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("%s: %w", importCSVPath, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := prices.NewRepository(db.Pool).SaveBatch(ctx, obs); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"file":         importCSVPath,
		"observations": len(obs),
	}).Info("Prices imported")
	PrintSuccess(fmt.Sprintf("Imported %d prices in %.2fs", len(obs), time.Since(startTime).Seconds()))
	return nil
}
