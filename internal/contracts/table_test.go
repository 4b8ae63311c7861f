package contracts

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestNewPriceTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		index   []time.Time
		symbols []string
		rows    [][]float64
		wantErr bool
	}{
		{
			name:    "valid",
			index:   []time.Time{day(1), day(2)},
			symbols: []string{"AAA", "BBB"},
			rows:    [][]float64{{10, 20}, {11, math.NaN()}},
		},
		{
			name:    "no symbols",
			index:   []time.Time{day(1)},
			rows:    [][]float64{{}},
			wantErr: true,
		},
		{
			name:    "duplicate symbol",
			index:   []time.Time{day(1)},
			symbols: []string{"AAA", "AAA"},
			rows:    [][]float64{{1, 2}},
			wantErr: true,
		},
		{
			name:    "ragged row",
			index:   []time.Time{day(1), day(2)},
			symbols: []string{"AAA", "BBB"},
			rows:    [][]float64{{1, 2}, {3}},
			wantErr: true,
		},
		{
			name:    "unsorted index",
			index:   []time.Time{day(2), day(1)},
			symbols: []string{"AAA"},
			rows:    [][]float64{{1}, {2}},
			wantErr: true,
		},
		{
			name:    "index length mismatch",
			index:   []time.Time{day(1)},
			symbols: []string{"AAA"},
			rows:    [][]float64{{1}, {2}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPriceTable(tt.index, tt.symbols, tt.rows)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestColumn(t *testing.T) {
	table, err := NewPriceTable(
		[]time.Time{day(1), day(2), day(3)},
		[]string{"AAA", "BBB"},
		[][]float64{{10, 20}, {11, 21}, {12, 22}},
	)
	require.NoError(t, err)

	col, ok := table.Column("BBB")
	require.True(t, ok)
	assert.Equal(t, []float64{20, 21, 22}, col.Values)
	assert.Equal(t, 3, col.Len())

	_, ok = table.Column("ZZZ")
	assert.False(t, ok)

	assert.Equal(t, [][]float64{{10, 11, 12}, {20, 21, 22}}, table.Columns())
	assert.Equal(t, day(1), table.Start())
	assert.Equal(t, day(3), table.End())
}

func TestTimeTableJSON(t *testing.T) {
	table := PriceTable{TimeTable{
		Index:   []time.Time{day(1), day(2)},
		Symbols: []string{"AAA", "BBB"},
		Rows:    [][]float64{{10, math.NaN()}, {11, 21}},
	}}

	data, err := json.Marshal(table)
	require.NoError(t, err)
	assert.Contains(t, string(data), "null")

	var decoded PriceTable
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, math.IsNaN(decoded.Rows[0][1]))
	assert.Equal(t, 21.0, decoded.Rows[1][1])
	assert.True(t, decoded.Index[0].Equal(day(1)))
}

func TestUnmarshalDateOnly(t *testing.T) {
	var table ReturnTable
	err := json.Unmarshal([]byte(`{"index":["2024-01-02"],"symbols":["A"],"rows":[[0.01]]}`), &table)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), table.Index[0])

	err = json.Unmarshal([]byte(`{"index":["02/01/2024"],"symbols":["A"],"rows":[[0.01]]}`), &table)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
