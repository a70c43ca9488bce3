package s0_data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

// InsertCalculatedRS overwrites the RS row for a ticker
func (r *Repository) InsertCalculatedRS(ctx context.Context, rs contracts.RSComponents) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO signals.rs_components (ticker, rs_value, roc_63, roc_126, roc_189, roc_252, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			rs_value = EXCLUDED.rs_value,
			roc_63 = EXCLUDED.roc_63,
			roc_126 = EXCLUDED.roc_126,
			roc_189 = EXCLUDED.roc_189,
			roc_252 = EXCLUDED.roc_252,
			calculated_at = NOW()
	`, rs.Ticker, rs.RSValue, rs.ROC63, rs.ROC126, rs.ROC189, rs.ROC252)
	if err != nil {
		return fmt.Errorf("insert rs for %s: %w", rs.Ticker, err)
	}
	return nil
}

// InsertCalculatedEPS overwrites the EPS row for a ticker
func (r *Repository) InsertCalculatedEPS(ctx context.Context, e contracts.EPSComponents) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO signals.eps_components (
			ticker, eps_growth_last_qtr, eps_growth_prev_qtr, annual_growth_rate, stability_score, calculated_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			eps_growth_last_qtr = EXCLUDED.eps_growth_last_qtr,
			eps_growth_prev_qtr = EXCLUDED.eps_growth_prev_qtr,
			annual_growth_rate = EXCLUDED.annual_growth_rate,
			stability_score = EXCLUDED.stability_score,
			calculated_at = NOW()
	`, e.Ticker, e.EPSGrowthLastQtr, e.EPSGrowthPrevQtr, e.AnnualGrowthRate, e.StabilityScore)
	if err != nil {
		return fmt.Errorf("insert eps for %s: %w", e.Ticker, err)
	}
	return nil
}

// InsertCalculatedSMR overwrites the SMR row for a ticker
func (r *Repository) InsertCalculatedSMR(ctx context.Context, s contracts.SMRComponents) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO signals.smr_components (
			ticker, sales_growth_q1, sales_growth_q2, sales_growth_q3, avg_sales_growth_3q,
			pretax_margin_annual, aftertax_margin_quarterly, roe_annual, calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			sales_growth_q1 = EXCLUDED.sales_growth_q1,
			sales_growth_q2 = EXCLUDED.sales_growth_q2,
			sales_growth_q3 = EXCLUDED.sales_growth_q3,
			avg_sales_growth_3q = EXCLUDED.avg_sales_growth_3q,
			pretax_margin_annual = EXCLUDED.pretax_margin_annual,
			aftertax_margin_quarterly = EXCLUDED.aftertax_margin_quarterly,
			roe_annual = EXCLUDED.roe_annual,
			calculated_at = NOW()
	`, s.Ticker, s.SalesGrowthQ1, s.SalesGrowthQ2, s.SalesGrowthQ3, s.AvgSalesGrowth3Q,
		s.PretaxMarginAnnual, s.AftertaxMarginQuarterly, s.ROEAnnual)
	if err != nil {
		return fmt.Errorf("insert smr for %s: %w", s.Ticker, err)
	}
	return nil
}

var componentTables = map[contracts.ComponentKind]string{
	contracts.ComponentRS:  "signals.rs_components",
	contracts.ComponentEPS: "signals.eps_components",
	contracts.ComponentSMR: "signals.smr_components",
}

// DeleteCalculated removes a component row that no longer qualifies
func (r *Repository) DeleteCalculated(ctx context.Context, kind contracts.ComponentKind, ticker string) error {
	table, ok := componentTables[kind]
	if !ok {
		return fmt.Errorf("unknown component kind %q", kind)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM `+table+` WHERE ticker = $1`, ticker); err != nil {
		return fmt.Errorf("delete %s for %s: %w", kind, ticker, err)
	}
	return nil
}

// ReplaceIndustryGroupRS swaps the industry table atomically
func (r *Repository) ReplaceIndustryGroupRS(ctx context.Context, rows []contracts.IndustryGroupRS) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM signals.industry_group_rs`); err != nil {
			return fmt.Errorf("clear industry group rs: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, g := range rows {
			batch.Queue(`
				INSERT INTO signals.industry_group_rs (ticker, sector, industry, industry_group_rs_value, calculated_at)
				VALUES ($1, $2, $3, $4, NOW())
			`, g.Ticker, g.Sector, g.Industry, g.Value)
		}
		return sendBatch(ctx, tx, batch, "insert industry group rs")
	})
}

// GetAllRSValues returns every RS row keyed by ticker
func (r *Repository) GetAllRSValues(ctx context.Context) (map[string]contracts.RSComponents, error) {
	rows, err := r.db.Query(ctx, `SELECT ticker, rs_value, roc_63, roc_126, roc_189, roc_252 FROM signals.rs_components`)
	if err != nil {
		return nil, fmt.Errorf("query rs components: %w", err)
	}
	defer rows.Close()

	out := make(map[string]contracts.RSComponents)
	for rows.Next() {
		var c contracts.RSComponents
		if err := rows.Scan(&c.Ticker, &c.RSValue, &c.ROC63, &c.ROC126, &c.ROC189, &c.ROC252); err != nil {
			return nil, fmt.Errorf("scan rs components: %w", err)
		}
		out[c.Ticker] = c
	}
	return out, rows.Err()
}

// GetAllEPSComponents returns every EPS row keyed by ticker
func (r *Repository) GetAllEPSComponents(ctx context.Context) (map[string]contracts.EPSComponents, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ticker, eps_growth_last_qtr, eps_growth_prev_qtr, annual_growth_rate, stability_score
		FROM signals.eps_components
	`)
	if err != nil {
		return nil, fmt.Errorf("query eps components: %w", err)
	}
	defer rows.Close()

	out := make(map[string]contracts.EPSComponents)
	for rows.Next() {
		var c contracts.EPSComponents
		if err := rows.Scan(&c.Ticker, &c.EPSGrowthLastQtr, &c.EPSGrowthPrevQtr, &c.AnnualGrowthRate, &c.StabilityScore); err != nil {
			return nil, fmt.Errorf("scan eps components: %w", err)
		}
		out[c.Ticker] = c
	}
	return out, rows.Err()
}

// GetAllSMRComponents returns every SMR row keyed by ticker
func (r *Repository) GetAllSMRComponents(ctx context.Context) (map[string]contracts.SMRComponents, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ticker, sales_growth_q1, sales_growth_q2, sales_growth_q3, avg_sales_growth_3q,
			pretax_margin_annual, aftertax_margin_quarterly, roe_annual
		FROM signals.smr_components
	`)
	if err != nil {
		return nil, fmt.Errorf("query smr components: %w", err)
	}
	defer rows.Close()

	out := make(map[string]contracts.SMRComponents)
	for rows.Next() {
		var c contracts.SMRComponents
		if err := rows.Scan(&c.Ticker, &c.SalesGrowthQ1, &c.SalesGrowthQ2, &c.SalesGrowthQ3, &c.AvgSalesGrowth3Q,
			&c.PretaxMarginAnnual, &c.AftertaxMarginQuarterly, &c.ROEAnnual); err != nil {
			return nil, fmt.Errorf("scan smr components: %w", err)
		}
		out[c.Ticker] = c
	}
	return out, rows.Err()
}

// GetAllIndustryGroupRS returns every industry row keyed by ticker
func (r *Repository) GetAllIndustryGroupRS(ctx context.Context) (map[string]contracts.IndustryGroupRS, error) {
	rows, err := r.db.Query(ctx, `SELECT ticker, sector, industry, industry_group_rs_value FROM signals.industry_group_rs`)
	if err != nil {
		return nil, fmt.Errorf("query industry group rs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]contracts.IndustryGroupRS)
	for rows.Next() {
		var g contracts.IndustryGroupRS
		if err := rows.Scan(&g.Ticker, &g.Sector, &g.Industry, &g.Value); err != nil {
			return nil, fmt.Errorf("scan industry group rs: %w", err)
		}
		out[g.Ticker] = g
	}
	return out, rows.Err()
}
