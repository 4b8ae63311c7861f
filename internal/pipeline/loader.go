package pipeline

import (
	"context"
	"fmt"

	"github.com/wonny/capm-optimizer/internal/contracts"
	"github.com/wonny/capm-optimizer/internal/prices"
	"github.com/wonny/capm-optimizer/internal/strategyconfig"
	"github.com/wonny/capm-optimizer/pkg/config"
)

// BuildInput loads prices for a basket definition and fills unset values from defaults.
// raw is the basket YAML as read from disk; it is recorded in the run snapshot.
func BuildInput(ctx context.Context, src prices.Source, basket *strategyconfig.Config, raw []byte, defaults config.OptimizerConfig) (Input, error) {
	symbols := append(append([]string(nil), basket.Universe.Symbols...), basket.Universe.MarketIndex)

	from := basket.Window.FromDate()
	table, err := src.Load(ctx, symbols, from, basket.Window.ToDate())
	if err != nil {
		return Input{}, fmt.Errorf("load prices: %w", err)
	}

	assets, market, err := SplitMarket(table, basket.Universe.MarketIndex)
	if err != nil {
		return Input{}, err
	}

	snapshot, err := strategyconfig.NewSnapshot(basket, raw)
	if err != nil {
		return Input{}, fmt.Errorf("hash basket config: %w", err)
	}

	in := Input{
		ID:                   basket.Meta.StrategyID,
		Assets:               assets,
		Market:               market,
		MarketSymbol:         basket.Universe.MarketIndex,
		From:                 from,
		RiskFreeRate:         basket.CAPM.RiskFreeRate,
		AllowShort:           basket.Optimizer.AllowShort,
		CovarianceSource:     basket.CAPM.CovarianceSource,
		AnnualizationPeriods: basket.CAPM.AnnualizationPeriods,
		Tolerance:            basket.Optimizer.Tolerance,
		MaxIterations:        basket.Optimizer.MaxIterations,
		ConfigHash:           snapshot.ConfigHash,
		Snapshot:             snapshot,
	}

	clip := defaults.ClipWeights
	if basket.Optimizer.ClipWeights != nil {
		clip = *basket.Optimizer.ClipWeights
	}
	in.ClipWeights = &clip

	if in.CovarianceSource == "" {
		in.CovarianceSource = defaults.CovarianceSource
	}
	if in.AnnualizationPeriods == 0 {
		in.AnnualizationPeriods = defaults.AnnualizationPeriods
	}

	return in, nil
}

// SplitMarket separates the market index column from the asset columns
func SplitMarket(table contracts.PriceTable, marketSymbol string) (contracts.PriceTable, contracts.PriceTable, error) {
	m := table.ColumnIndex(marketSymbol)
	if m < 0 {
		return contracts.PriceTable{}, contracts.PriceTable{}, fmt.Errorf("%w: market index %s not in price table",
			contracts.ErrInvalidInput, marketSymbol)
	}

	assetSymbols := make([]string, 0, len(table.Symbols)-1)
	for j, s := range table.Symbols {
		if j != m {
			assetSymbols = append(assetSymbols, s)
		}
	}

	assetRows := make([][]float64, table.Len())
	marketRows := make([][]float64, table.Len())
	for i, row := range table.Rows {
		assetRows[i] = make([]float64, 0, len(row)-1)
		for j, v := range row {
			if j == m {
				marketRows[i] = []float64{v}
				continue
			}
			assetRows[i] = append(assetRows[i], v)
		}
	}

	assets, err := contracts.NewPriceTable(table.Index, assetSymbols, assetRows)
	if err != nil {
		return contracts.PriceTable{}, contracts.PriceTable{}, err
	}
	market, err := contracts.NewPriceTable(append(table.Index[:0:0], table.Index...), []string{marketSymbol}, marketRows)
	if err != nil {
		return contracts.PriceTable{}, contracts.PriceTable{}, err
	}
	return assets, market, nil
}
