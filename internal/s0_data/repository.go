package s0_data

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

// querier is satisfied by both *pgxpool.Pool and *pgxpool.Conn
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository is the PostgreSQL implementation of contracts.Store
// ⭐ SSOT: 모든 DB 읽기/쓰기는 이 패키지에서만
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Pool returns the underlying database pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.db
}

// session owns one pooled connection for the life of a collector batch
type session struct {
	conn *pgxpool.Conn
}

// OpenSession acquires a dedicated connection. The caller must Close it.
func (r *Repository) OpenSession(ctx context.Context) (contracts.CollectorSession, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &session{conn: conn}, nil
}

func (s *session) Close() {
	s.conn.Release()
}

func (s *session) InsertPriceHistory(ctx context.Context, ticker string, bars []contracts.PriceBar) error {
	return insertPriceHistory(ctx, s.conn, ticker, bars)
}

func (s *session) InsertIncomeStatements(ctx context.Context, ticker string, period contracts.PeriodKind, stmts []contracts.IncomeStatement) error {
	return insertIncomeStatements(ctx, s.conn, ticker, period, stmts)
}

func (s *session) InsertBalanceSheetAnnual(ctx context.Context, ticker string, sheets []contracts.BalanceSheet) error {
	return insertBalanceSheets(ctx, s.conn, ticker, sheets)
}

func (s *session) InsertCompanyProfile(ctx context.Context, p *contracts.CompanyProfile) error {
	return insertCompanyProfile(ctx, s.conn, p)
}

// GetAllTickers returns tracked non-benchmark symbols, sorted
func (r *Repository) GetAllTickers(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT symbol FROM data.tickers
		WHERE NOT is_benchmark
		ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}

	tickers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan tickers: %w", err)
	}
	return tickers, nil
}

// InsertTickersBulk upserts tickers. Empty name/exchange never overwrite known values.
func (r *Repository) InsertTickersBulk(ctx context.Context, tickers []contracts.Ticker) error {
	if len(tickers) == 0 {
		return nil
	}

	sorted := append([]contracts.Ticker(nil), tickers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })

	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range sorted {
			batch.Queue(`
				INSERT INTO data.tickers (symbol, exchange, name, is_benchmark)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (symbol) DO UPDATE SET
					exchange = COALESCE(NULLIF(EXCLUDED.exchange, ''), data.tickers.exchange),
					name = COALESCE(NULLIF(EXCLUDED.name, ''), data.tickers.name),
					is_benchmark = EXCLUDED.is_benchmark
			`, t.Symbol, t.Exchange, t.Name, t.IsBenchmark)
		}
		return sendBatch(ctx, tx, batch, "insert tickers")
	})
}

// withTx runs fn in a transaction on q
func withTx(ctx context.Context, q querier, fn func(tx pgx.Tx) error) error {
	tx, err := q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// sendBatch executes every queued statement and reports the first failure
func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, what string) error {
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("%s (row %d): %w", what, i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.ErrNotFound
	}
	return err
}

var _ contracts.Store = (*Repository)(nil)
