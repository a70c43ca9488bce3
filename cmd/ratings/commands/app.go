package commands

import (
	"fmt"

	"github.com/wonny/aegis-ratings/internal/audit"
	"github.com/wonny/aegis-ratings/internal/brain"
	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/internal/external/fmp"
	"github.com/wonny/aegis-ratings/internal/external/provider"
	"github.com/wonny/aegis-ratings/internal/external/wikipedia"
	"github.com/wonny/aegis-ratings/internal/external/yahoo"
	"github.com/wonny/aegis-ratings/internal/ratingconfig"
	"github.com/wonny/aegis-ratings/internal/s0_data"
	"github.com/wonny/aegis-ratings/internal/s0_data/collector"
	"github.com/wonny/aegis-ratings/internal/s0_data/quality"
	"github.com/wonny/aegis-ratings/internal/s1_universe"
	"github.com/wonny/aegis-ratings/internal/s2_signals"
	"github.com/wonny/aegis-ratings/internal/selection"
	"github.com/wonny/aegis-ratings/pkg/config"
	"github.com/wonny/aegis-ratings/pkg/database"
	"github.com/wonny/aegis-ratings/pkg/httputil"
	"github.com/wonny/aegis-ratings/pkg/logger"
	"github.com/wonny/aegis-ratings/pkg/redis"
)

const redisPrefix = "aegis-ratings"

// app holds the process-wide dependencies built from config
// ⭐ SSOT: 의존성 조립은 여기서만 (전역 변수 없음)
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client
	repo  *s0_data.Repository
}

// newApp loads config, connects to PostgreSQL and Redis
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rc, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &app{
		cfg:   cfg,
		log:   log,
		db:    db,
		redis: rc,
		repo:  s0_data.NewRepository(db.Pool),
	}, nil
}

// Close releases connections
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	a.db.Close()
}

// limiter picks the shared call budget backend
func (a *app) limiter() provider.Limiter {
	if a.cfg.FMP.LimiterType == "redis" && a.redis.Enabled() {
		return redis.NewRateLimiter(a.redis, redisPrefix, "fmp", a.cfg.FMP.RateLimit, a.cfg.FMP.RateWindow)
	}
	return provider.NewWindowLimiter(a.cfg.FMP.RateLimit, a.cfg.FMP.RateWindow)
}

// ratingConfig loads composite weights from RATING_WEIGHTS_FILE or defaults
func (a *app) ratingConfig() (*ratingconfig.Config, string, error) {
	rc, _, err := ratingconfig.Load(a.cfg.Rating.WeightsFile)
	if err != nil {
		return nil, "", fmt.Errorf("load rating config: %w", err)
	}
	hash, err := ratingconfig.Hash(rc)
	if err != nil {
		return nil, "", fmt.Errorf("hash rating config: %w", err)
	}
	return rc, hash, nil
}

func (a *app) exporter() *audit.Exporter {
	return audit.NewExporter(a.cfg.Rating.ExportDir, a.log)
}

func (a *app) qualityGate() *quality.QualityGate {
	return quality.NewQualityGate(quality.DefaultConfig())
}

// orchestrator wires every stage onto the PostgreSQL repository
func (a *app) orchestrator() (*brain.Orchestrator, error) {
	cfg := a.cfg
	rc, hash, err := a.ratingConfig()
	if err != nil {
		return nil, err
	}

	httpClient := httputil.New(a.log, cfg.FMP.Timeout)
	primary := fmp.NewClient(httpClient, a.log, cfg.FMP.BaseURL, cfg.FMP.APIKey, cfg.Universe.Exchanges)
	fallback := yahoo.NewClient(a.log, cfg.Yahoo.BaseURL, cfg.Yahoo.RatePerSec, cfg.FMP.Timeout)

	dataProvider := provider.NewClient(primary, fallback, a.limiter(), a.log).WithTimeout(cfg.FMP.Timeout)
	if a.redis.Enabled() {
		dataProvider.WithProfileCache(redis.NewCache(a.redis, redisPrefix), cfg.Redis.ProfileCacheTTL)
	}

	var listing contracts.ListingSource = dataProvider.GatedListing(primary)
	if cfg.Universe.Source == "sp500" {
		listing = wikipedia.NewSP500Source(httpClient, a.log, cfg.Universe.SP500URL)
	}

	universeCfg := s1_universe.DefaultConfig()
	universeCfg.Exchanges = cfg.Universe.Exchanges
	universeCfg.SampleSize = cfg.Universe.SampleSize

	return brain.NewOrchestrator(
		s1_universe.NewBuilder(listing, a.repo, a.log, universeCfg),
		collector.NewCollector(dataProvider, a.repo, a.repo, a.log),
		s2_signals.NewBuilder(a.repo, a.log, s2_signals.Config{
			Workers:        cfg.Rating.FactorWorkers,
			StalePriceDays: cfg.Rating.StalePriceDays,
		}),
		selection.NewRanker(a.repo, rc, a.log),
		a.qualityGate(),
		a.exporter(),
		a.repo,
		brain.Config{
			Collector: collector.Config{
				BatchSize:    cfg.Collector.BatchSize,
				Workers:      cfg.Collector.Workers,
				BatchTimeout: cfg.Collector.BatchTimeout,
				PriceDays:    cfg.Collector.PriceDays,
			},
			Benchmarks:  cfg.Collector.Benchmarks,
			WeightsHash: hash,
		},
		a.log,
	), nil
}
