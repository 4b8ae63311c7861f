package capm

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

// LogReturns converts prices into per-period log returns r_t = ln(P_t / P_{t-1}).
// A row is kept only when every asset has both P_t and P_{t-1}; the output is
// indexed by the later timestamp of each pair.
func LogReturns(prices contracts.PriceTable) (contracts.ReturnTable, error) {
	if err := prices.Validate(); err != nil {
		return contracts.ReturnTable{}, err
	}

	if prices.Len() < 2 {
		return contracts.ReturnTable{}, fmt.Errorf("%w: got %d price observations, need at least 2",
			contracts.ErrEmptyResult, prices.Len())
	}

	for i, row := range prices.Rows {
		for j, p := range row {
			if math.IsNaN(p) {
				continue
			}
			if p <= 0 || math.IsInf(p, 0) {
				return contracts.ReturnTable{}, fmt.Errorf("%w: price %v for %s at %s",
					contracts.ErrInvalidInput, p, prices.Symbols[j], prices.Index[i].Format("2006-01-02"))
			}
		}
	}

	n := len(prices.Symbols)
	index := make([]time.Time, 0, prices.Len()-1)
	rows := make([][]float64, 0, prices.Len()-1)

	for t := 1; t < prices.Len(); t++ {
		prev, cur := prices.Rows[t-1], prices.Rows[t]
		row := make([]float64, n)
		complete := true
		for j := 0; j < n; j++ {
			if math.IsNaN(prev[j]) || math.IsNaN(cur[j]) {
				complete = false
				break
			}
			row[j] = math.Log(cur[j] / prev[j])
		}
		if !complete {
			continue
		}
		index = append(index, prices.Index[t])
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return contracts.ReturnTable{}, fmt.Errorf("%w: no row has complete consecutive prices", contracts.ErrEmptyResult)
	}

	symbols := make([]string, n)
	copy(symbols, prices.Symbols)

	return contracts.ReturnTable{TimeTable: contracts.TimeTable{
		Index:   index,
		Symbols: symbols,
		Rows:    rows,
	}}, nil
}

// ReconstructPrices is the inverse of LogReturns for a gap-free series:
// P_0 = base at baseTime, P_t = P_{t-1} * exp(r_t).
func ReconstructPrices(baseTime time.Time, base []float64, returns contracts.ReturnTable) (contracts.PriceTable, error) {
	if len(base) != len(returns.Symbols) {
		return contracts.PriceTable{}, fmt.Errorf("%w: %d base prices for %d symbols",
			contracts.ErrInvalidInput, len(base), len(returns.Symbols))
	}

	index := make([]time.Time, 0, returns.Len()+1)
	rows := make([][]float64, 0, returns.Len()+1)

	prev := make([]float64, len(base))
	copy(prev, base)
	index = append(index, baseTime)
	rows = append(rows, prev)

	for t, r := range returns.Rows {
		row := make([]float64, len(r))
		for j := range r {
			row[j] = prev[j] * math.Exp(r[j])
		}
		index = append(index, returns.Index[t])
		rows = append(rows, row)
		prev = row
	}

	symbols := make([]string, len(returns.Symbols))
	copy(symbols, returns.Symbols)

	return contracts.NewPriceTable(index, symbols, rows)
}
