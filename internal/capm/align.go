package capm

import (
	"fmt"
	"time"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

// MinObservations is the smallest sample any estimator accepts
const MinObservations = 2

// Align inner-joins asset returns with the market series on timestamp.
// Rows strictly before from are dropped; a zero from keeps everything.
func Align(assets contracts.ReturnTable, market contracts.Series, from time.Time) (contracts.ReturnTable, contracts.Series, error) {
	if len(market.Index) != len(market.Values) {
		return contracts.ReturnTable{}, contracts.Series{}, fmt.Errorf("%w: market index has %d entries, values %d",
			contracts.ErrInvalidInput, len(market.Index), len(market.Values))
	}

	marketAt := make(map[int64]float64, len(market.Index))
	for i, ts := range market.Index {
		marketAt[ts.UnixNano()] = market.Values[i]
	}

	var (
		index   []time.Time
		rows    [][]float64
		mValues []float64
	)
	for i, ts := range assets.Index {
		if !from.IsZero() && ts.Before(from) {
			continue
		}
		m, ok := marketAt[ts.UnixNano()]
		if !ok {
			continue
		}
		row := make([]float64, len(assets.Rows[i]))
		copy(row, assets.Rows[i])
		index = append(index, ts)
		rows = append(rows, row)
		mValues = append(mValues, m)
	}

	if len(rows) < MinObservations {
		return contracts.ReturnTable{}, contracts.Series{}, fmt.Errorf("%w: got %d aligned observations, need %d",
			contracts.ErrInsufficientData, len(rows), MinObservations)
	}

	symbols := make([]string, len(assets.Symbols))
	copy(symbols, assets.Symbols)

	marketIndex := make([]time.Time, len(index))
	copy(marketIndex, index)

	aligned := contracts.ReturnTable{TimeTable: contracts.TimeTable{Index: index, Symbols: symbols, Rows: rows}}
	return aligned, contracts.Series{Symbol: market.Symbol, Index: marketIndex, Values: mValues}, nil
}
