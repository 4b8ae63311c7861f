package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

// Repository loads close prices from data.daily_prices
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new price repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Load implements Source
func (r *Repository) Load(ctx context.Context, symbols []string, from, to time.Time) (contracts.PriceTable, error) {
	query := `
		SELECT stock_code, trade_date, close_price::float8
		FROM data.daily_prices
		WHERE stock_code = ANY($1)
		  AND trade_date >= $2
		  AND ($3::date IS NULL OR trade_date <= $3)
		ORDER BY trade_date ASC
	`

	var upper *time.Time
	if !to.IsZero() {
		upper = &to
	}

	rows, err := r.pool.Query(ctx, query, symbols, from, upper)
	if err != nil {
		return contracts.PriceTable{}, fmt.Errorf("query daily prices: %w", err)
	}
	defer rows.Close()

	var obs []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.Symbol, &o.Date, &o.Close); err != nil {
			return contracts.PriceTable{}, fmt.Errorf("scan daily price: %w", err)
		}
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return contracts.PriceTable{}, fmt.Errorf("iterate daily prices: %w", err)
	}

	return BuildTable(symbols, obs)
}

// SaveBatch upserts close prices in a single round trip
func (r *Repository) SaveBatch(ctx context.Context, obs []Observation) error {
	if len(obs) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.daily_prices (stock_code, trade_date, close_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			close_price = EXCLUDED.close_price
	`

	batch := &pgx.Batch{}
	for _, o := range obs {
		batch.Queue(query, o.Symbol, o.Date, o.Close)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range obs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert %s %s: %w", obs[i].Symbol, obs[i].Date.Format("2006-01-02"), err)
		}
	}
	return nil
}
