package s0_data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

// insertIncomeStatements upserts statements keyed by (ticker, period, fiscal_date)
func insertIncomeStatements(ctx context.Context, q querier, ticker string, period contracts.PeriodKind, stmts []contracts.IncomeStatement) error {
	if len(stmts) == 0 {
		return nil
	}

	return withTx(ctx, q, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, s := range stmts {
			batch.Queue(`
				INSERT INTO data.income_statements (ticker, period, fiscal_date, revenue, net_income, eps, eps_diluted)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (ticker, period, fiscal_date) DO UPDATE SET
					revenue = EXCLUDED.revenue,
					net_income = EXCLUDED.net_income,
					eps = EXCLUDED.eps,
					eps_diluted = EXCLUDED.eps_diluted
			`, ticker, string(period), s.FiscalDate, s.Revenue, s.NetIncome, s.EPS, s.EPSDiluted)
		}
		return sendBatch(ctx, tx, batch, "insert income statement for "+ticker)
	})
}

func insertBalanceSheets(ctx context.Context, q querier, ticker string, sheets []contracts.BalanceSheet) error {
	if len(sheets) == 0 {
		return nil
	}

	return withTx(ctx, q, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, s := range sheets {
			batch.Queue(`
				INSERT INTO data.balance_sheets (ticker, fiscal_date, total_equity)
				VALUES ($1, $2, $3)
				ON CONFLICT (ticker, fiscal_date) DO UPDATE SET
					total_equity = EXCLUDED.total_equity
			`, ticker, s.FiscalDate, s.TotalEquity)
		}
		return sendBatch(ctx, tx, batch, "insert balance sheet for "+ticker)
	})
}

// insertCompanyProfile overwrites the single profile row for a ticker
func insertCompanyProfile(ctx context.Context, q querier, p *contracts.CompanyProfile) error {
	if p == nil {
		return nil
	}

	_, err := q.Exec(ctx, `
		INSERT INTO data.company_profiles (
			ticker, name, sector, industry, market_cap, country, exchange, description, website, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			market_cap = EXCLUDED.market_cap,
			country = EXCLUDED.country,
			exchange = EXCLUDED.exchange,
			description = EXCLUDED.description,
			website = EXCLUDED.website,
			updated_at = NOW()
	`, p.Ticker, p.Name, p.Sector, p.Industry, p.MarketCap, p.Country, p.Exchange, p.Description, p.Website)
	if err != nil {
		return fmt.Errorf("insert profile for %s: %w", p.Ticker, err)
	}
	return nil
}

// GetIncomeStatements returns up to limit statements, newest first
func (r *Repository) GetIncomeStatements(ctx context.Context, ticker string, period contracts.PeriodKind, limit int) ([]contracts.IncomeStatement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT fiscal_date, revenue, net_income, eps, eps_diluted
		FROM data.income_statements
		WHERE ticker = $1 AND period = $2
		ORDER BY fiscal_date DESC
		LIMIT $3
	`, ticker, string(period), limit)
	if err != nil {
		return nil, fmt.Errorf("query income statements for %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []contracts.IncomeStatement
	for rows.Next() {
		s := contracts.IncomeStatement{Period: period}
		if err := rows.Scan(&s.FiscalDate, &s.Revenue, &s.NetIncome, &s.EPS, &s.EPSDiluted); err != nil {
			return nil, fmt.Errorf("scan income statement for %s: %w", ticker, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetBalanceSheetAnnual returns up to limit balance sheets, newest first
func (r *Repository) GetBalanceSheetAnnual(ctx context.Context, ticker string, limit int) ([]contracts.BalanceSheet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT fiscal_date, total_equity
		FROM data.balance_sheets
		WHERE ticker = $1
		ORDER BY fiscal_date DESC
		LIMIT $2
	`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query balance sheets for %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []contracts.BalanceSheet
	for rows.Next() {
		var s contracts.BalanceSheet
		if err := rows.Scan(&s.FiscalDate, &s.TotalEquity); err != nil {
			return nil, fmt.Errorf("scan balance sheet for %s: %w", ticker, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const profileColumns = `ticker, name, sector, industry, market_cap, country, exchange, description, website`

func scanProfile(row pgx.Row) (*contracts.CompanyProfile, error) {
	var p contracts.CompanyProfile
	err := row.Scan(&p.Ticker, &p.Name, &p.Sector, &p.Industry, &p.MarketCap,
		&p.Country, &p.Exchange, &p.Description, &p.Website)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetCompanyProfile returns contracts.ErrNotFound when no profile exists
func (r *Repository) GetCompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM data.company_profiles WHERE ticker = $1`, ticker))
	if err != nil {
		return nil, fmt.Errorf("get profile for %s: %w", ticker, notFound(err))
	}
	return p, nil
}

// GetAllCompanyProfiles returns every stored profile keyed by ticker
func (r *Repository) GetAllCompanyProfiles(ctx context.Context) (map[string]contracts.CompanyProfile, error) {
	rows, err := r.db.Query(ctx, `SELECT `+profileColumns+` FROM data.company_profiles`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	out := make(map[string]contracts.CompanyProfile)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out[p.Ticker] = *p
	}
	return out, rows.Err()
}

// InsertSectorPerformanceBulk upserts sector rows keyed by (sector, date)
func (r *Repository) InsertSectorPerformanceBulk(ctx context.Context, rows []contracts.SectorPerformance) error {
	if len(rows) == 0 {
		return nil
	}

	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, s := range rows {
			batch.Queue(`
				INSERT INTO data.sector_performance (sector, perf_date, change_percentage)
				VALUES ($1, $2, $3)
				ON CONFLICT (sector, perf_date) DO UPDATE SET
					change_percentage = EXCLUDED.change_percentage
			`, s.Sector, s.Date, s.ChangePercentage)
		}
		return sendBatch(ctx, tx, batch, "insert sector performance")
	})
}
