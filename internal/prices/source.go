package prices

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

// Source loads close prices for a set of symbols.
// A zero to means open-ended. Columns follow the order of symbols.
type Source interface {
	Load(ctx context.Context, symbols []string, from, to time.Time) (contracts.PriceTable, error)
}

// Observation is one close price
type Observation struct {
	Symbol string
	Date   time.Time
	Close  float64
}

// BuildTable outer-joins observations by date into a PriceTable.
// Dates missing for a symbol become NaN; symbols with no observation at all fail.
func BuildTable(symbols []string, obs []Observation) (contracts.PriceTable, error) {
	col := make(map[string]int, len(symbols))
	for j, s := range symbols {
		col[s] = j
	}

	dateSet := make(map[time.Time]struct{})
	for _, o := range obs {
		if _, ok := col[o.Symbol]; ok {
			dateSet[o.Date] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	rowOf := make(map[time.Time]int, len(dates))
	rows := make([][]float64, len(dates))
	for i, d := range dates {
		rowOf[d] = i
		rows[i] = make([]float64, len(symbols))
		for j := range rows[i] {
			rows[i][j] = math.NaN()
		}
	}

	found := make([]bool, len(symbols))
	for _, o := range obs {
		j, ok := col[o.Symbol]
		if !ok {
			continue
		}
		i := rowOf[o.Date]
		if !math.IsNaN(rows[i][j]) {
			return contracts.PriceTable{}, fmt.Errorf("%w: duplicate price for %s on %s",
				contracts.ErrInvalidInput, o.Symbol, o.Date.Format("2006-01-02"))
		}
		rows[i][j] = o.Close
		found[j] = true
	}

	for j, ok := range found {
		if !ok {
			return contracts.PriceTable{}, fmt.Errorf("%w: no prices for %s", contracts.ErrInsufficientData, symbols[j])
		}
	}

	return contracts.NewPriceTable(dates, append([]string(nil), symbols...), rows)
}

// inWindow reports whether d falls inside [from, to]; zero bounds are open
func inWindow(d, from, to time.Time) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}
