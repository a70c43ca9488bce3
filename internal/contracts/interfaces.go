package contracts

import "context"

// PrimarySource is the main market-data provider. Errors are returned raw.
// ⭐ SSOT: 외부 데이터 소스 인터페이스
type PrimarySource interface {
	PriceHistory(ctx context.Context, ticker string, days int) ([]PriceBar, error)
	IncomeStatements(ctx context.Context, ticker string, period PeriodKind, limit int) ([]IncomeStatement, error)
	BalanceSheets(ctx context.Context, ticker string, period PeriodKind, limit int) ([]BalanceSheet, error)
	CompanyProfile(ctx context.Context, ticker string) (*CompanyProfile, error)
	SectorPerformance(ctx context.Context, limit int) ([]SectorPerformance, error)
}

// FallbackSource fills gaps in price history and profiles
type FallbackSource interface {
	PriceHistory(ctx context.Context, ticker string, days int) ([]PriceBar, error)
	CompanyProfile(ctx context.Context, ticker string) (*CompanyProfile, error)
}

// ListingSource enumerates the candidate universe
type ListingSource interface {
	ListTickers(ctx context.Context) ([]Ticker, error)
}

// DataProvider is the rate-limited, fallback-aware view the collector uses.
// A nil or empty result means no data; failures never surface as errors.
type DataProvider interface {
	GetPriceHistory(ctx context.Context, ticker string, days int) []PriceBar
	GetIncomeStatement(ctx context.Context, ticker string, period PeriodKind, limit int) []IncomeStatement
	GetBalanceSheet(ctx context.Context, ticker string, period PeriodKind, limit int) []BalanceSheet
	GetCompanyProfile(ctx context.Context, ticker string) *CompanyProfile
	GetSectorPerformance(ctx context.Context, limit int) []SectorPerformance
}
