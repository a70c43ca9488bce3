package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// UniverseStore manages the tracked ticker list
type UniverseStore interface {
	// GetAllTickers returns every tracked non-benchmark symbol, sorted
	GetAllTickers(ctx context.Context) ([]string, error)
	InsertTickersBulk(ctx context.Context, tickers []Ticker) error
}

// PriceReader reads stored price history.
// days limits the result to the most recent N bars; days <= 0 returns all.
type PriceReader interface {
	GetPriceHistory(ctx context.Context, ticker string, days int) ([]PriceBar, error)
}

// FundamentalsReader reads stored statements, newest first
type FundamentalsReader interface {
	GetIncomeStatements(ctx context.Context, ticker string, period PeriodKind, limit int) ([]IncomeStatement, error)
	GetBalanceSheetAnnual(ctx context.Context, ticker string, limit int) ([]BalanceSheet, error)
	// GetCompanyProfile returns ErrNotFound when no profile is stored
	GetCompanyProfile(ctx context.Context, ticker string) (*CompanyProfile, error)
	GetAllCompanyProfiles(ctx context.Context) (map[string]CompanyProfile, error)
}

// CollectorSession is an exclusive write handle owned by one collector worker
type CollectorSession interface {
	InsertPriceHistory(ctx context.Context, ticker string, bars []PriceBar) error
	InsertIncomeStatements(ctx context.Context, ticker string, period PeriodKind, stmts []IncomeStatement) error
	InsertBalanceSheetAnnual(ctx context.Context, ticker string, sheets []BalanceSheet) error
	InsertCompanyProfile(ctx context.Context, profile *CompanyProfile) error
	Close()
}

// SessionFactory hands out collector sessions
type SessionFactory interface {
	OpenSession(ctx context.Context) (CollectorSession, error)
}

// ComponentStore persists the per-ticker factor components
type ComponentStore interface {
	InsertCalculatedRS(ctx context.Context, rs RSComponents) error
	InsertCalculatedEPS(ctx context.Context, eps EPSComponents) error
	InsertCalculatedSMR(ctx context.Context, smr SMRComponents) error
	DeleteCalculated(ctx context.Context, kind ComponentKind, ticker string) error
	// ReplaceIndustryGroupRS swaps the whole industry table in one transaction
	ReplaceIndustryGroupRS(ctx context.Context, rows []IndustryGroupRS) error
}

// ComponentReader loads whole-universe component maps keyed by ticker
type ComponentReader interface {
	GetAllRSValues(ctx context.Context) (map[string]RSComponents, error)
	GetAllEPSComponents(ctx context.Context) (map[string]EPSComponents, error)
	GetAllSMRComponents(ctx context.Context) (map[string]SMRComponents, error)
	GetAllIndustryGroupRS(ctx context.Context) (map[string]IndustryGroupRS, error)
}

// RatingStore persists composite ratings
type RatingStore interface {
	InsertRatings(ctx context.Context, ratings []CompositeRating) error
	// PruneRatings deletes ratings for tickers outside keep and returns the count
	PruneRatings(ctx context.Context, keep []string) (int, error)
	// GetPriceHighs returns max(high) since the given time and the latest close,
	// only for tickers with at least one bar in the window
	GetPriceHighs(ctx context.Context, since time.Time) (map[string]PriceHigh, error)
	UpdatePriceVs52WeekHigh(ctx context.Context, values map[string]float64) error
}

// RatingReader serves stored ratings to readers
type RatingReader interface {
	GetAllRatings(ctx context.Context) ([]CompositeRating, error)
	// GetRating returns ErrNotFound for unrated tickers
	GetRating(ctx context.Context, ticker string) (*CompositeRating, error)
	GetDatabaseStats(ctx context.Context) (*DatabaseStats, error)
}

// MarketStore persists market-wide series
type MarketStore interface {
	InsertSectorPerformanceBulk(ctx context.Context, rows []SectorPerformance) error
}

// Store is the full storage contract
type Store interface {
	UniverseStore
	PriceReader
	FundamentalsReader
	SessionFactory
	ComponentStore
	ComponentReader
	RatingStore
	RatingReader
	MarketStore
}
