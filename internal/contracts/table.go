package contracts

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// TimeTable is a time-indexed table with one column per symbol.
// Rows[t][j] is the observation of Symbols[j] at Index[t]; NaN marks a missing value.
type TimeTable struct {
	Index   []time.Time
	Symbols []string
	Rows    [][]float64
}

// PriceTable holds close prices
type PriceTable struct {
	TimeTable
}

// ReturnTable holds per-period log returns
type ReturnTable struct {
	TimeTable
}

// Series is a single time-indexed column
type Series struct {
	Symbol string      `json:"symbol"`
	Index  []time.Time `json:"index"`
	Values []float64   `json:"values"`
}

// Len returns the number of observations
func (s Series) Len() int {
	return len(s.Values)
}

// NewPriceTable builds a PriceTable and validates its shape
func NewPriceTable(index []time.Time, symbols []string, rows [][]float64) (PriceTable, error) {
	t := PriceTable{TimeTable{Index: index, Symbols: symbols, Rows: rows}}
	if err := t.Validate(); err != nil {
		return PriceTable{}, err
	}
	return t, nil
}

// Validate checks the fixed schema: unique symbols, strictly increasing index, rectangular rows
func (t TimeTable) Validate() error {
	if len(t.Symbols) == 0 {
		return fmt.Errorf("%w: table has no symbols", ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(t.Symbols))
	for _, s := range t.Symbols {
		if s == "" {
			return fmt.Errorf("%w: empty symbol", ErrInvalidInput)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("%w: duplicate symbol %s", ErrInvalidInput, s)
		}
		seen[s] = struct{}{}
	}

	if len(t.Index) != len(t.Rows) {
		return fmt.Errorf("%w: index has %d entries, rows %d", ErrInvalidInput, len(t.Index), len(t.Rows))
	}

	for i, row := range t.Rows {
		if len(row) != len(t.Symbols) {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidInput, i, len(row), len(t.Symbols))
		}
		if i > 0 && !t.Index[i].After(t.Index[i-1]) {
			return fmt.Errorf("%w: index not strictly increasing at %s", ErrInvalidInput, t.Index[i].Format(time.RFC3339))
		}
	}

	return nil
}

// Len returns the number of rows
func (t TimeTable) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of symbol, or -1
func (t TimeTable) ColumnIndex(symbol string) int {
	for j, s := range t.Symbols {
		if s == symbol {
			return j
		}
	}
	return -1
}

// Column extracts one symbol as a Series
func (t TimeTable) Column(symbol string) (Series, bool) {
	j := t.ColumnIndex(symbol)
	if j < 0 {
		return Series{}, false
	}

	values := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[j]
	}

	index := make([]time.Time, len(t.Index))
	copy(index, t.Index)

	return Series{Symbol: symbol, Index: index, Values: values}, true
}

// Columns returns column-major copies of the table values, ordered like Symbols
func (t TimeTable) Columns() [][]float64 {
	cols := make([][]float64, len(t.Symbols))
	for j := range t.Symbols {
		cols[j] = make([]float64, len(t.Rows))
		for i, row := range t.Rows {
			cols[j][i] = row[j]
		}
	}
	return cols
}

// Start returns the first timestamp, zero when empty
func (t TimeTable) Start() time.Time {
	if len(t.Index) == 0 {
		return time.Time{}
	}
	return t.Index[0]
}

// End returns the last timestamp, zero when empty
func (t TimeTable) End() time.Time {
	if len(t.Index) == 0 {
		return time.Time{}
	}
	return t.Index[len(t.Index)-1]
}

// ============================================================================
// JSON: NaN 은 JSON 으로 표현할 수 없으므로 null 로 주고받음
// ============================================================================

type timeTableJSON struct {
	Index   []string     `json:"index"`
	Symbols []string     `json:"symbols"`
	Rows    [][]*float64 `json:"rows"`
}

// MarshalJSON encodes missing observations as null
func (t TimeTable) MarshalJSON() ([]byte, error) {
	out := timeTableJSON{
		Index:   make([]string, len(t.Index)),
		Symbols: t.Symbols,
		Rows:    make([][]*float64, len(t.Rows)),
	}
	for i, ts := range t.Index {
		out.Index[i] = ts.Format(time.RFC3339)
	}
	for i, row := range t.Rows {
		out.Rows[i] = make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			v := v
			out.Rows[i][j] = &v
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts RFC3339 or YYYY-MM-DD timestamps; null decodes to NaN
func (t *TimeTable) UnmarshalJSON(data []byte) error {
	var in timeTableJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	index := make([]time.Time, len(in.Index))
	for i, s := range in.Index {
		ts, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		index[i] = ts
	}

	rows := make([][]float64, len(in.Rows))
	for i, row := range in.Rows {
		rows[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				rows[i][j] = math.NaN()
				continue
			}
			rows[i][j] = *v
		}
	}

	t.Index = index
	t.Symbols = in.Symbols
	t.Rows = rows
	return nil
}

// ParseTimestamp parses a date (2006-01-02) or an RFC3339 timestamp
func ParseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrInvalidInput, s)
	}
	return ts, nil
}
