package s0_data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

// insertPriceHistory upserts bars keyed by (ticker, trade_date)
// ⭐ SSOT: 가격 데이터 저장은 이 함수에서만
func insertPriceHistory(ctx context.Context, q querier, ticker string, bars []contracts.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	return withTx(ctx, q, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, b := range bars {
			batch.Queue(`
				INSERT INTO data.price_history (ticker, trade_date, open, high, low, close, volume)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (ticker, trade_date) DO UPDATE SET
					open = EXCLUDED.open,
					high = EXCLUDED.high,
					low = EXCLUDED.low,
					close = EXCLUDED.close,
					volume = EXCLUDED.volume
			`, ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		return sendBatch(ctx, tx, batch, "insert price for "+ticker)
	})
}

// InsertPriceHistory upserts bars outside a collector session (benchmarks, backfills)
func (r *Repository) InsertPriceHistory(ctx context.Context, ticker string, bars []contracts.PriceBar) error {
	return insertPriceHistory(ctx, r.db, ticker, bars)
}

// GetPriceHistory returns the most recent days bars ascending; days <= 0 returns all
func (r *Repository) GetPriceHistory(ctx context.Context, ticker string, days int) ([]contracts.PriceBar, error) {
	limit := any(nil)
	if days > 0 {
		limit = days
	}

	rows, err := r.db.Query(ctx, `
		SELECT trade_date, open, high, low, close, volume FROM (
			SELECT trade_date, open, high, low, close, volume
			FROM data.price_history
			WHERE ticker = $1
			ORDER BY trade_date DESC
			LIMIT $2
		) recent
		ORDER BY trade_date ASC
	`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query prices for %s: %w", ticker, err)
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan price for %s: %w", ticker, err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
