package collector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alphadose/haxmap"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/internal/external/provider"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

const (
	quarterlyLimit = 8
	annualLimit    = 5
	sectorLimit    = 300
)

// Collector fans the universe out over a bounded worker pool
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	provider contracts.DataProvider
	sessions contracts.SessionFactory
	market   contracts.MarketStore
	logger   *logger.Logger
}

// Config holds collector configuration
type Config struct {
	BatchSize    int           // tickers per batch
	Workers      int           // number of concurrent workers
	BatchTimeout time.Duration // deadline per batch; 0 disables
	PriceDays    int
}

// DefaultConfig returns B=50, W=3
func DefaultConfig() Config {
	return Config{
		BatchSize:    50,
		Workers:      3,
		BatchTimeout: 30 * time.Minute,
		PriceDays:    300,
	}
}

// NewCollector creates a new Collector instance
func NewCollector(
	dataProvider contracts.DataProvider,
	sessions contracts.SessionFactory,
	market contracts.MarketStore,
	log *logger.Logger,
) *Collector {
	return &Collector{
		provider: dataProvider,
		sessions: sessions,
		market:   market,
		logger:   log.WithField("module", "collector"),
	}
}

type batch struct {
	id      int
	tickers []string
}

type tickerResult struct {
	ticker string
	err    error
}

// run carries the per-pass state shared by all workers
type run struct {
	cfg       Config
	priceOnly bool
	results   chan<- tickerResult
	// 가격 저장에 성공한 종목 -> bar 수
	persisted *haxmap.Map[string, int]
}

// Collect fetches and stores prices, statements and profiles for every ticker.
// Failures are counted per ticker, never returned.
func (c *Collector) Collect(ctx context.Context, tickers []string, cfg Config) *contracts.CollectionResult {
	return c.collect(ctx, tickers, cfg, false)
}

// CollectBenchmarks stores price history only
func (c *Collector) CollectBenchmarks(ctx context.Context, tickers []string, cfg Config) *contracts.CollectionResult {
	return c.collect(ctx, tickers, cfg, true)
}

func (c *Collector) collect(ctx context.Context, tickers []string, cfg Config, priceOnly bool) *contracts.CollectionResult {
	start := time.Now()
	cfg = normalize(cfg)
	batches := split(tickers, cfg.BatchSize)

	c.logger.WithFields(map[string]interface{}{
		"tickers":    len(tickers),
		"batches":    len(batches),
		"workers":    cfg.Workers,
		"batch_size": cfg.BatchSize,
		"price_only": priceOnly,
	}).Info("Starting collection")

	resultCh := make(chan tickerResult, len(tickers))
	r := &run{
		cfg:       cfg,
		priceOnly: priceOnly,
		results:   resultCh,
		persisted: haxmap.New[string, int](),
	}

	batchCh := make(chan batch, len(batches))
	for _, b := range batches {
		batchCh <- b
	}
	close(batchCh)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for b := range batchCh {
				c.runBatch(ctx, workerID, b, r)
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	result := &contracts.CollectionResult{}
	for res := range resultCh {
		if res.err != nil {
			result.Failure++
			result.Failed = append(result.Failed, contracts.FailedTicker{Ticker: res.ticker, Reason: res.err.Error()})
			continue
		}
		result.Success++
	}

	r.persisted.ForEach(func(ticker string, bars int) bool {
		if bars > 0 {
			result.Collected = append(result.Collected, ticker)
		}
		return true
	})
	sort.Strings(result.Collected)
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Ticker < result.Failed[j].Ticker })
	result.Duration = time.Since(start)

	c.logger.WithFields(map[string]interface{}{
		"success":   result.Success,
		"failed":    result.Failure,
		"collected": len(result.Collected),
		"duration":  result.Duration.String(),
	}).Info("Collection completed")

	return result
}

// runBatch owns one session for the whole batch. Every ticker of the batch
// produces exactly one result, including when the batch itself breaks.
func (c *Collector) runBatch(ctx context.Context, workerID int, b batch, r *run) {
	done := 0
	failRest := func(err error) {
		for _, t := range b.tickers[done:] {
			r.results <- tickerResult{ticker: t, err: err}
		}
		done = len(b.tickers)
	}

	defer func() {
		if rec := recover(); rec != nil {
			c.logger.WithFields(map[string]interface{}{
				"worker": workerID,
				"batch":  b.id,
				"panic":  fmt.Sprint(rec),
			}).Error("Batch panicked")
			failRest(fmt.Errorf("batch panic: %v", rec))
		}
	}()

	bctx := ctx
	if r.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		bctx, cancel = context.WithTimeout(ctx, r.cfg.BatchTimeout)
		defer cancel()
	}

	sess, err := c.sessions.OpenSession(bctx)
	if err != nil {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"worker": workerID,
			"batch":  b.id,
		}).Error("Failed to open session")
		failRest(fmt.Errorf("open session: %w", err))
		return
	}
	defer sess.Close()

	for done < len(b.tickers) {
		if err := bctx.Err(); err != nil {
			c.logger.WithFields(map[string]interface{}{
				"worker":    workerID,
				"batch":     b.id,
				"remaining": len(b.tickers) - done,
			}).Warn("Batch deadline reached")
			failRest(fmt.Errorf("batch cancelled: %w", err))
			return
		}

		ticker := b.tickers[done]
		err := c.collectTicker(bctx, sess, ticker, r)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"ticker": ticker,
			}).Warn("Ticker failed")
		}
		r.results <- tickerResult{ticker: ticker, err: err}
		done++
	}

	c.logger.WithFields(map[string]interface{}{
		"worker":  workerID,
		"batch":   b.id,
		"tickers": len(b.tickers),
	}).Debug("Batch completed")
}

// collectTicker runs the per-ticker sequence. Only short price history or a
// write failure fails the ticker; missing fundamentals are tolerated.
func (c *Collector) collectTicker(ctx context.Context, sess contracts.CollectorSession, ticker string, r *run) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	bars := c.provider.GetPriceHistory(ctx, ticker, r.cfg.PriceDays)
	if len(bars) < provider.MinPriceBars {
		return fmt.Errorf("insufficient price history: %d bars", len(bars))
	}
	if err := sess.InsertPriceHistory(ctx, ticker, bars); err != nil {
		return fmt.Errorf("persist prices: %w", err)
	}
	r.persisted.Set(ticker, len(bars))

	if r.priceOnly {
		return nil
	}

	if q := c.provider.GetIncomeStatement(ctx, ticker, contracts.PeriodQuarter, quarterlyLimit); len(q) > 0 {
		if err := sess.InsertIncomeStatements(ctx, ticker, contracts.PeriodQuarter, q); err != nil {
			return fmt.Errorf("persist quarterly income: %w", err)
		}
	}

	if a := c.provider.GetIncomeStatement(ctx, ticker, contracts.PeriodAnnual, annualLimit); len(a) > 0 {
		if err := sess.InsertIncomeStatements(ctx, ticker, contracts.PeriodAnnual, a); err != nil {
			return fmt.Errorf("persist annual income: %w", err)
		}
	}

	if bs := c.provider.GetBalanceSheet(ctx, ticker, contracts.PeriodAnnual, annualLimit); len(bs) > 0 {
		if err := sess.InsertBalanceSheetAnnual(ctx, ticker, bs); err != nil {
			return fmt.Errorf("persist balance sheet: %w", err)
		}
	}

	if p := c.provider.GetCompanyProfile(ctx, ticker); p != nil {
		p.Ticker = ticker
		if err := sess.InsertCompanyProfile(ctx, p); err != nil {
			return fmt.Errorf("persist profile: %w", err)
		}
	}

	return nil
}

// CollectSectorPerformance stores historical sector performance
// ⭐ SSOT: 섹터 성과 수집은 이 함수에서만
func (c *Collector) CollectSectorPerformance(ctx context.Context) (int, error) {
	rows := c.provider.GetSectorPerformance(ctx, sectorLimit)
	if len(rows) == 0 {
		c.logger.Warn("No sector performance returned")
		return 0, nil
	}

	if err := c.market.InsertSectorPerformanceBulk(ctx, rows); err != nil {
		return 0, fmt.Errorf("save sector performance: %w", err)
	}

	c.logger.WithField("count", len(rows)).Info("Saved sector performance")
	return len(rows), nil
}

func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.PriceDays <= 0 {
		cfg.PriceDays = def.PriceDays
	}
	return cfg
}

// split partitions tickers into ceil(n/size) batches, preserving order
func split(tickers []string, size int) []batch {
	var out []batch
	for i := 0; i < len(tickers); i += size {
		end := i + size
		if end > len(tickers) {
			end = len(tickers)
		}
		out = append(out, batch{id: len(out), tickers: tickers[i:end]})
	}
	return out
}
