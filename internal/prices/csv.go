package prices

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

// CSVSource reads a wide close-price file:
//
//	date,VCB,VNM,VNINDEX
//	2024-01-02,86.5,68.1,1130.4
//
// An empty cell is a missing observation.
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSV-backed source
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Load implements Source
func (s *CSVSource) Load(ctx context.Context, symbols []string, from, to time.Time) (contracts.PriceTable, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return contracts.PriceTable{}, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()

	obs, err := ReadCSV(f)
	if err != nil {
		return contracts.PriceTable{}, fmt.Errorf("%s: %w", s.path, err)
	}
	if err := ctx.Err(); err != nil {
		return contracts.PriceTable{}, err
	}

	filtered := obs[:0]
	for _, o := range obs {
		if inWindow(o.Date, from, to) {
			filtered = append(filtered, o)
		}
	}
	return BuildTable(symbols, filtered)
}

// ReadCSV parses every observation of a wide close-price file
func ReadCSV(r io.Reader) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", contracts.ErrInvalidInput, err)
	}
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "date") {
		return nil, fmt.Errorf("%w: header must start with date and name at least one symbol", contracts.ErrInvalidInput)
	}
	symbols := header[1:]

	var obs []Observation
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", contracts.ErrInvalidInput, line, err)
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad date %q", contracts.ErrInvalidInput, line, record[0])
		}

		for j, cell := range record[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d, %s: %q is not a number",
					contracts.ErrInvalidInput, line, symbols[j], cell)
			}
			obs = append(obs, Observation{Symbol: symbols[j], Date: date, Close: v})
		}
	}

	return obs, nil
}
