package capm

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func days(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = day(i)
	}
	return out
}

func priceTable(t *testing.T, symbols []string, rows [][]float64) contracts.PriceTable {
	t.Helper()
	table, err := contracts.NewPriceTable(days(len(rows)), symbols, rows)
	require.NoError(t, err)
	return table
}

func returnTable(symbols []string, rows [][]float64) contracts.ReturnTable {
	return contracts.ReturnTable{TimeTable: contracts.TimeTable{
		Index:   days(len(rows)),
		Symbols: symbols,
		Rows:    rows,
	}}
}

func series(symbol string, values []float64) contracts.Series {
	return contracts.Series{Symbol: symbol, Index: days(len(values)), Values: values}
}

// syntheticMarket is a deterministic, non-constant daily market return path
func syntheticMarket(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.0004 + 0.01*math.Sin(float64(i)*0.7)
	}
	return out
}
