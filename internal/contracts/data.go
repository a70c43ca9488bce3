package contracts

import (
	"errors"
	"time"
)

// ErrNotFound is returned by single-row lookups that match nothing
var ErrNotFound = errors.New("not found")

// PeriodKind distinguishes quarterly from annual statements
type PeriodKind string

const (
	PeriodQuarter PeriodKind = "quarter"
	PeriodAnnual  PeriodKind = "annual"
)

// Ticker is one tracked security
// ⭐ SSOT: 종목 식별자는 Symbol
type Ticker struct {
	Symbol      string `json:"symbol"`
	Exchange    string `json:"exchange"`
	Name        string `json:"name"`
	IsBenchmark bool   `json:"is_benchmark"`
}

// PriceBar is one daily OHLCV bar. Series are kept ascending by Date.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// IncomeStatement is one fiscal period. Slices of statements are newest first.
type IncomeStatement struct {
	FiscalDate time.Time  `json:"fiscal_date"`
	Period     PeriodKind `json:"period"`
	Revenue    *float64   `json:"revenue"`
	NetIncome  *float64   `json:"net_income"`
	EPS        *float64   `json:"eps"`
	EPSDiluted *float64   `json:"eps_diluted"`
}

// BalanceSheet is one annual balance sheet, newest first in slices
type BalanceSheet struct {
	FiscalDate  time.Time `json:"fiscal_date"`
	TotalEquity *float64  `json:"total_equity"`
}

// CompanyProfile holds descriptive data for a ticker
type CompanyProfile struct {
	Ticker      string  `json:"ticker"`
	Name        string  `json:"name"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	MarketCap   float64 `json:"market_cap"`
	Country     string  `json:"country"`
	Exchange    string  `json:"exchange"`
	Description string  `json:"description,omitempty"`
	Website     string  `json:"website,omitempty"`
}

// Complete reports whether sector and industry are both known
func (p *CompanyProfile) Complete() bool {
	return p != nil && p.Sector != "" && p.Industry != ""
}

// Merge fills empty fields of p from other. Fields already set are kept.
func (p *CompanyProfile) Merge(other *CompanyProfile) {
	if other == nil {
		return
	}
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&p.Name, other.Name)
	fill(&p.Sector, other.Sector)
	fill(&p.Industry, other.Industry)
	fill(&p.Country, other.Country)
	fill(&p.Exchange, other.Exchange)
	fill(&p.Description, other.Description)
	fill(&p.Website, other.Website)
	if p.MarketCap == 0 {
		p.MarketCap = other.MarketCap
	}
}

// SectorPerformance is one day of sector performance
type SectorPerformance struct {
	Sector           string    `json:"sector"`
	Date             time.Time `json:"date"`
	ChangePercentage float64   `json:"change_percentage"`
}

// PriceHigh is the 52-week high and latest close for a ticker
type PriceHigh struct {
	High        float64
	LatestClose float64
}

// DatabaseStats summarizes stored data after a run
type DatabaseStats struct {
	Tickers          int            `json:"tickers"`
	PriceBars        int            `json:"price_bars"`
	TickersWithPrice int            `json:"tickers_with_price"`
	Statements       int            `json:"statements"`
	Profiles         int            `json:"profiles"`
	Components       map[string]int `json:"components"` // rs, eps, smr, industry
	Ratings          int            `json:"ratings"`
	LatestPriceDate  *time.Time     `json:"latest_price_date,omitempty"`
}

// PriceCoverage returns the share of tracked tickers holding price data
func (s *DatabaseStats) PriceCoverage() float64 {
	if s.Tickers == 0 {
		return 0
	}
	return float64(s.TickersWithPrice) / float64(s.Tickers)
}

// Float returns a pointer to v
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v
func Int(v int) *int { return &v }

// DataQualitySnapshot is the coverage check run after collection
type DataQualitySnapshot struct {
	Date         time.Time          `json:"date"`
	TotalTickers int                `json:"total_tickers"`
	Coverage     map[string]float64 `json:"coverage"` // price, profile, rs, eps, smr
	QualityScore float64            `json:"quality_score"`
	Passed       bool               `json:"passed"`
	Failures     []string           `json:"failures,omitempty"`
}
