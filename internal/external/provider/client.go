package provider

import (
	"context"
	"time"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/pkg/logger"
	"github.com/wonny/aegis-ratings/pkg/redis"
)

// MinPriceBars is the fewest primary bars accepted before trying the fallback
const MinPriceBars = 30

// DefaultTimeout bounds every provider call
const DefaultTimeout = 30 * time.Second

// ProfileCache stores company profiles across runs
type ProfileCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Client wraps the primary source with the shared call budget, a fixed
// per-call timeout and the fallback source. Failures are logged and turned
// into empty results; no error leaves this type.
// ⭐ SSOT: 수집기는 이 클라이언트를 통해서만 외부 데이터를 조회
type Client struct {
	primary  contracts.PrimarySource
	fallback contracts.FallbackSource
	limiter  Limiter
	logger   *logger.Logger
	timeout  time.Duration

	cache    ProfileCache
	cacheTTL time.Duration
}

// NewClient creates a provider client. fallback may be nil.
func NewClient(primary contracts.PrimarySource, fallback contracts.FallbackSource, limiter Limiter, log *logger.Logger) *Client {
	return &Client{
		primary:  primary,
		fallback: fallback,
		limiter:  limiter,
		logger:   log.WithField("module", "provider"),
		timeout:  DefaultTimeout,
	}
}

// WithTimeout overrides the per-call timeout
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

// WithProfileCache caches complete profiles for ttl
func (c *Client) WithProfileCache(cache ProfileCache, ttl time.Duration) *Client {
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

// primaryCall waits for budget, then runs fn under the call timeout.
// It reports whether fn ran and succeeded.
func (c *Client) primaryCall(ctx context.Context, op, ticker string, fn func(ctx context.Context) error) bool {
	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.WithFields(map[string]interface{}{"op": op, "ticker": ticker}).
			WithError(err).Debug("Rate limit wait aborted")
		return false
	}
	return c.timed(ctx, "primary", op, ticker, fn)
}

func (c *Client) timed(ctx context.Context, source, op, ticker string, fn func(ctx context.Context) error) bool {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := fn(callCtx); err != nil {
		c.logger.WithFields(map[string]interface{}{
			"source": source,
			"op":     op,
			"ticker": ticker,
		}).WithError(err).Warn("Provider call failed")
		return false
	}
	return true
}

// GetPriceHistory returns up to days bars ascending, or nil.
// The fallback is tried when the primary yields fewer than MinPriceBars.
func (c *Client) GetPriceHistory(ctx context.Context, ticker string, days int) []contracts.PriceBar {
	var bars []contracts.PriceBar
	c.primaryCall(ctx, "price_history", ticker, func(ctx context.Context) error {
		var err error
		bars, err = c.primary.PriceHistory(ctx, ticker, days)
		return err
	})

	if len(bars) >= MinPriceBars || c.fallback == nil || ctx.Err() != nil {
		return bars
	}

	var fb []contracts.PriceBar
	c.timed(ctx, "fallback", "price_history", ticker, func(ctx context.Context) error {
		var err error
		fb, err = c.fallback.PriceHistory(ctx, ticker, days)
		return err
	})
	if len(fb) > len(bars) {
		c.logger.WithFields(map[string]interface{}{
			"ticker":  ticker,
			"primary": len(bars),
			"bars":    len(fb),
		}).Debug("Using fallback price history")
		return fb
	}
	return bars
}

// GetIncomeStatement returns statements newest first, or nil
func (c *Client) GetIncomeStatement(ctx context.Context, ticker string, period contracts.PeriodKind, limit int) []contracts.IncomeStatement {
	var out []contracts.IncomeStatement
	c.primaryCall(ctx, "income_"+string(period), ticker, func(ctx context.Context) error {
		var err error
		out, err = c.primary.IncomeStatements(ctx, ticker, period, limit)
		return err
	})
	return out
}

// GetBalanceSheet returns balance sheets newest first, or nil
func (c *Client) GetBalanceSheet(ctx context.Context, ticker string, period contracts.PeriodKind, limit int) []contracts.BalanceSheet {
	var out []contracts.BalanceSheet
	c.primaryCall(ctx, "balance_"+string(period), ticker, func(ctx context.Context) error {
		var err error
		out, err = c.primary.BalanceSheets(ctx, ticker, period, limit)
		return err
	})
	return out
}

// GetCompanyProfile returns the profile or nil.
// Missing sector or industry is filled from the fallback.
func (c *Client) GetCompanyProfile(ctx context.Context, ticker string) *contracts.CompanyProfile {
	if p := c.cachedProfile(ctx, ticker); p != nil {
		return p
	}

	var profile *contracts.CompanyProfile
	c.primaryCall(ctx, "profile", ticker, func(ctx context.Context) error {
		var err error
		profile, err = c.primary.CompanyProfile(ctx, ticker)
		return err
	})

	if !profile.Complete() && c.fallback != nil && ctx.Err() == nil {
		var fb *contracts.CompanyProfile
		c.timed(ctx, "fallback", "profile", ticker, func(ctx context.Context) error {
			var err error
			fb, err = c.fallback.CompanyProfile(ctx, ticker)
			return err
		})
		switch {
		case profile == nil:
			profile = fb
		default:
			profile.Merge(fb)
		}
	}

	if profile == nil {
		return nil
	}
	profile.Ticker = ticker
	if profile.Complete() {
		c.storeProfile(ctx, profile)
	}
	return profile
}

// GetSectorPerformance returns historical sector rows, or nil
func (c *Client) GetSectorPerformance(ctx context.Context, limit int) []contracts.SectorPerformance {
	var out []contracts.SectorPerformance
	c.primaryCall(ctx, "sector_performance", "", func(ctx context.Context) error {
		var err error
		out, err = c.primary.SectorPerformance(ctx, limit)
		return err
	})
	return out
}

func (c *Client) cachedProfile(ctx context.Context, ticker string) *contracts.CompanyProfile {
	if c.cache == nil {
		return nil
	}
	var p contracts.CompanyProfile
	found, err := c.cache.Get(ctx, redis.ProfileKey(ticker), &p)
	if err != nil {
		c.logger.WithField("ticker", ticker).WithError(err).Debug("Profile cache read failed")
		return nil
	}
	if !found {
		return nil
	}
	return &p
}

func (c *Client) storeProfile(ctx context.Context, p *contracts.CompanyProfile) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, redis.ProfileKey(p.Ticker), p, c.cacheTTL); err != nil {
		c.logger.WithField("ticker", p.Ticker).WithError(err).Debug("Profile cache write failed")
	}
}

// GatedListing returns src with every call charged against the shared budget
func (c *Client) GatedListing(src contracts.ListingSource) contracts.ListingSource {
	return &gatedListing{src: src, limiter: c.limiter}
}

type gatedListing struct {
	src     contracts.ListingSource
	limiter Limiter
}

func (g *gatedListing) ListTickers(ctx context.Context) ([]contracts.Ticker, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return g.src.ListTickers(ctx)
}

var _ contracts.DataProvider = (*Client)(nil)
