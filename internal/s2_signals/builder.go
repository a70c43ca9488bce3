package s2_signals

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

const (
	priceDays      = 400
	quarterlyLimit = 8
	annualLimit    = 5
)

// Store is what the factor stage reads and writes
type Store interface {
	GetAllTickers(ctx context.Context) ([]string, error)
	contracts.PriceReader
	contracts.FundamentalsReader
	contracts.ComponentStore
}

// Config controls the factor stage
type Config struct {
	Workers        int
	StalePriceDays int // RS 입력 최신 봉 허용 일수, 0이면 검사 안 함
}

// DefaultConfig returns 4 workers and a 10-day staleness gate
func DefaultConfig() Config {
	return Config{Workers: 4, StalePriceDays: 10}
}

// Builder recomputes every component for the tracked universe
// ⭐ SSOT: 팩터 계산 오케스트레이션은 여기서만
type Builder struct {
	store  Store
	logger *logger.Logger
	config Config
	now    func() time.Time
}

// NewBuilder creates a new factor builder
func NewBuilder(store Store, log *logger.Logger, config Config) *Builder {
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	return &Builder{
		store:  store,
		logger: log.WithField("module", "factors"),
		config: config,
		now:    time.Now,
	}
}

// WithClock overrides the clock used by the staleness gate
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// tickerFactors is the per-ticker outcome of one pass
type tickerFactors struct {
	rs, eps, smr bool
	score        *float64
	err          error
}

// Run recomputes RS, EPS and SMR for every tracked ticker, deleting rows
// that no longer qualify, then replaces the industry table.
func (b *Builder) Run(ctx context.Context) (*contracts.FactorResult, error) {
	tickers, err := b.store.GetAllTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get tickers: %w", err)
	}

	b.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"workers": b.config.Workers,
	}).Info("Starting factor calculation")

	asOf := b.now()
	results := make([]tickerFactors, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.config.Workers)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			results[i] = b.calculateTicker(gctx, ticker, asOf)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("factor calculation cancelled: %w", err)
	}

	result := &contracts.FactorResult{Tickers: len(tickers)}
	scores := make(map[string]*float64, len(tickers))
	for i, r := range results {
		if r.rs {
			result.RS++
		}
		if r.eps {
			result.EPS++
		}
		if r.smr {
			result.SMR++
		}
		if r.err != nil {
			result.Errors++
			b.logger.WithError(r.err).WithField("ticker", tickers[i]).Warn("Failed to calculate factors")
		}
		scores[tickers[i]] = r.score
	}

	industries, rows, err := b.buildIndustryRS(ctx, tickers, scores)
	if err != nil {
		result.Errors++
		b.logger.WithError(err).Error("Industry group RS not updated")
	} else {
		result.Industries = industries
		result.IndustryRS = rows
	}

	b.logger.WithFields(map[string]interface{}{
		"rs":         result.RS,
		"eps":        result.EPS,
		"smr":        result.SMR,
		"industries": result.Industries,
		"errors":     result.Errors,
	}).Info("Factor calculation completed")

	return result, nil
}

// calculateTicker computes and persists one ticker's components. A ticker
// that no longer qualifies has its stale row deleted.
func (b *Builder) calculateTicker(ctx context.Context, ticker string, asOf time.Time) tickerFactors {
	var out tickerFactors
	keep := func(err error) {
		if err != nil && out.err == nil {
			out.err = err
		}
	}

	// 1. RS
	bars, err := b.store.GetPriceHistory(ctx, ticker, priceDays)
	if err != nil {
		keep(fmt.Errorf("read prices: %w", err))
	} else {
		if b.stale(bars, asOf) {
			bars = nil
		}
		if rs, ok := CalculateRS(ticker, bars); ok {
			out.score = contracts.Float(rs.RSValue)
			err := b.store.InsertCalculatedRS(ctx, rs)
			keep(err)
			out.rs = err == nil
		} else {
			keep(b.store.DeleteCalculated(ctx, contracts.ComponentRS, ticker))
		}
	}

	// 2. 재무
	quarterly, err := b.store.GetIncomeStatements(ctx, ticker, contracts.PeriodQuarter, quarterlyLimit)
	if err != nil {
		keep(fmt.Errorf("read quarterly income: %w", err))
		return out
	}
	annual, err := b.store.GetIncomeStatements(ctx, ticker, contracts.PeriodAnnual, annualLimit)
	if err != nil {
		keep(fmt.Errorf("read annual income: %w", err))
		return out
	}
	balance, err := b.store.GetBalanceSheetAnnual(ctx, ticker, annualLimit)
	if err != nil {
		keep(fmt.Errorf("read balance sheet: %w", err))
		return out
	}

	// 3. EPS
	if eps, ok := CalculateEPS(ticker, quarterly, annual); ok {
		err := b.store.InsertCalculatedEPS(ctx, eps)
		keep(err)
		out.eps = err == nil
	} else {
		keep(b.store.DeleteCalculated(ctx, contracts.ComponentEPS, ticker))
	}

	// 4. SMR
	if smr, ok := CalculateSMR(ticker, quarterly, annual, balance); ok {
		err := b.store.InsertCalculatedSMR(ctx, smr)
		keep(err)
		out.smr = err == nil
	} else {
		keep(b.store.DeleteCalculated(ctx, contracts.ComponentSMR, ticker))
	}

	return out
}

// stale reports whether the latest bar is older than StalePriceDays
func (b *Builder) stale(bars []contracts.PriceBar, asOf time.Time) bool {
	if b.config.StalePriceDays <= 0 || len(bars) == 0 {
		return false
	}
	cutoff := asOf.AddDate(0, 0, -b.config.StalePriceDays)
	return bars[len(bars)-1].Date.Before(cutoff)
}

func (b *Builder) buildIndustryRS(ctx context.Context, tickers []string, scores map[string]*float64) (int, int, error) {
	profiles, err := b.store.GetAllCompanyProfiles(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("get profiles: %w", err)
	}

	members := make([]IndustryMember, 0, len(tickers))
	for _, t := range tickers {
		p, ok := profiles[t]
		if !ok || p.Industry == "" {
			continue
		}
		members = append(members, IndustryMember{
			Ticker:   t,
			Sector:   p.Sector,
			Industry: p.Industry,
			Score:    scores[t],
		})
	}

	rows, industries := CalculateIndustryGroupRS(members)
	if err := b.store.ReplaceIndustryGroupRS(ctx, rows); err != nil {
		return 0, 0, fmt.Errorf("replace industry group rs: %w", err)
	}
	return industries, len(rows), nil
}
