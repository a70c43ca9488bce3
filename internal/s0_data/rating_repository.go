package s0_data

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

// InsertRatings upserts composite ratings. price_vs_52w_high is left to
// UpdatePriceVs52WeekHigh so a ticker without recent bars keeps its value.
func (r *Repository) InsertRatings(ctx context.Context, ratings []contracts.CompositeRating) error {
	if len(ratings) == 0 {
		return nil
	}

	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rt := range ratings {
			batch.Queue(`
				INSERT INTO selection.ratings (
					ticker, rs_rating, eps_rating, ad_rating, smr_rating, smr_percentile,
					comp_rating, industry_group_rs, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
				ON CONFLICT (ticker) DO UPDATE SET
					rs_rating = EXCLUDED.rs_rating,
					eps_rating = EXCLUDED.eps_rating,
					ad_rating = EXCLUDED.ad_rating,
					smr_rating = EXCLUDED.smr_rating,
					smr_percentile = EXCLUDED.smr_percentile,
					comp_rating = EXCLUDED.comp_rating,
					industry_group_rs = EXCLUDED.industry_group_rs,
					updated_at = NOW()
			`, rt.Ticker, rt.RSRating, rt.EPSRating, rt.ADRating, rt.SMRRating, rt.SMRPercentile,
				rt.CompRating, rt.IndustryGroupRS)
		}
		return sendBatch(ctx, tx, batch, "insert ratings")
	})
}

// PruneRatings deletes ratings for tickers outside keep
func (r *Repository) PruneRatings(ctx context.Context, keep []string) (int, error) {
	if keep == nil {
		keep = []string{}
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM selection.ratings WHERE NOT (ticker = ANY($1))`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune ratings: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// GetPriceHighs returns the high since the given time and the latest close
func (r *Repository) GetPriceHighs(ctx context.Context, since time.Time) (map[string]contracts.PriceHigh, error) {
	rows, err := r.db.Query(ctx, `
		WITH highs AS (
			SELECT ticker, MAX(high) AS high_52w
			FROM data.price_history
			WHERE trade_date >= $1
			GROUP BY ticker
		), latest AS (
			SELECT DISTINCT ON (ticker) ticker, close
			FROM data.price_history
			ORDER BY ticker, trade_date DESC
		)
		SELECT h.ticker, h.high_52w, l.close
		FROM highs h
		JOIN latest l ON l.ticker = h.ticker
	`, since)
	if err != nil {
		return nil, fmt.Errorf("query price highs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]contracts.PriceHigh)
	for rows.Next() {
		var ticker string
		var h contracts.PriceHigh
		if err := rows.Scan(&ticker, &h.High, &h.LatestClose); err != nil {
			return nil, fmt.Errorf("scan price high: %w", err)
		}
		out[ticker] = h
	}
	return out, rows.Err()
}

// UpdatePriceVs52WeekHigh sets the deviation on existing rating rows only
func (r *Repository) UpdatePriceVs52WeekHigh(ctx context.Context, values map[string]float64) error {
	if len(values) == 0 {
		return nil
	}

	tickers := make([]string, 0, len(values))
	for t := range values {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range tickers {
			batch.Queue(`UPDATE selection.ratings SET price_vs_52w_high = $2 WHERE ticker = $1`, t, values[t])
		}
		return sendBatch(ctx, tx, batch, "update 52w high")
	})
}

const ratingColumns = `ticker, rs_rating, eps_rating, ad_rating, smr_rating, smr_percentile,
	comp_rating, price_vs_52w_high, industry_group_rs, updated_at`

func scanRating(row pgx.Row) (*contracts.CompositeRating, error) {
	var rt contracts.CompositeRating
	err := row.Scan(&rt.Ticker, &rt.RSRating, &rt.EPSRating, &rt.ADRating, &rt.SMRRating, &rt.SMRPercentile,
		&rt.CompRating, &rt.PriceVs52WeekHigh, &rt.IndustryGroupRS, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// GetAllRatings returns every rating, best composite first
func (r *Repository) GetAllRatings(ctx context.Context) ([]contracts.CompositeRating, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ratingColumns+` FROM selection.ratings ORDER BY comp_rating DESC, ticker`)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var out []contracts.CompositeRating
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, *rt)
	}
	return out, rows.Err()
}

// GetRating returns contracts.ErrNotFound for unrated tickers
func (r *Repository) GetRating(ctx context.Context, ticker string) (*contracts.CompositeRating, error) {
	rt, err := scanRating(r.db.QueryRow(ctx, `SELECT `+ratingColumns+` FROM selection.ratings WHERE ticker = $1`, ticker))
	if err != nil {
		return nil, fmt.Errorf("get rating for %s: %w", ticker, notFound(err))
	}
	return rt, nil
}

// GetDatabaseStats counts rows per table
func (r *Repository) GetDatabaseStats(ctx context.Context) (*contracts.DatabaseStats, error) {
	stats := &contracts.DatabaseStats{Components: make(map[string]int)}

	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM data.tickers WHERE NOT is_benchmark),
			(SELECT COUNT(*) FROM data.price_history),
			(SELECT COUNT(DISTINCT p.ticker) FROM data.price_history p
				JOIN data.tickers t ON t.symbol = p.ticker AND NOT t.is_benchmark),
			(SELECT COUNT(*) FROM data.income_statements),
			(SELECT COUNT(*) FROM data.company_profiles),
			(SELECT COUNT(*) FROM selection.ratings),
			(SELECT MAX(trade_date) FROM data.price_history)
	`).Scan(&stats.Tickers, &stats.PriceBars, &stats.TickersWithPrice, &stats.Statements,
		&stats.Profiles, &stats.Ratings, &stats.LatestPriceDate)
	if err != nil {
		return nil, fmt.Errorf("query database stats: %w", err)
	}

	var rs, eps, smr, industry int
	err = r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM signals.rs_components),
			(SELECT COUNT(*) FROM signals.eps_components),
			(SELECT COUNT(*) FROM signals.smr_components),
			(SELECT COUNT(*) FROM signals.industry_group_rs)
	`).Scan(&rs, &eps, &smr, &industry)
	if err != nil {
		return nil, fmt.Errorf("query component stats: %w", err)
	}
	stats.Components["rs"] = rs
	stats.Components["eps"] = eps
	stats.Components["smr"] = smr
	stats.Components["industry"] = industry

	return stats, nil
}
