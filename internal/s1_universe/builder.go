package s1_universe

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

// SPAC 판별을 위한 정규식 패턴
var spacPattern = regexp.MustCompile(`(?i)(acquisition corp|blank check|\bspac\b)`)

// 워런트/유닛/권리 등 파생 심볼
var derivativePattern = regexp.MustCompile(`(-(WS|WT|U|UN|R|RT)$|[\^/.=])`)

// Builder constructs the candidate universe from a listing source
type Builder struct {
	listing contracts.ListingSource
	store   contracts.UniverseStore
	logger  *logger.Logger
	config  Config
}

// Config holds universe filter criteria
type Config struct {
	Exchanges          []string `yaml:"exchanges"`           // 허용 거래소, 비어 있으면 전체
	SampleSize         int      `yaml:"sample_size"`         // 샘플 모드 최대 종목 수
	ExcludeSPAC        bool     `yaml:"exclude_spac"`        // SPAC 제외
	ExcludeDerivatives bool     `yaml:"exclude_derivatives"` // 워런트/유닛 제외
}

// DefaultConfig returns NASDAQ+NYSE with a 500-ticker sample
func DefaultConfig() Config {
	return Config{
		Exchanges:          []string{"NASDAQ", "NYSE"},
		SampleSize:         500,
		ExcludeDerivatives: true,
	}
}

// Universe is the candidate list for one run
type Universe struct {
	Date     time.Time
	Tickers  []contracts.Ticker // sorted by symbol
	Excluded map[string]string  // symbol -> reason
	Listed   int
	Sampled  bool
}

// Symbols returns the ticker symbols in order
func (u *Universe) Symbols() []string {
	out := make([]string, len(u.Tickers))
	for i, t := range u.Tickers {
		out[i] = t.Symbol
	}
	return out
}

// NewBuilder creates a new Universe Builder
func NewBuilder(listing contracts.ListingSource, store contracts.UniverseStore, log *logger.Logger, config Config) *Builder {
	return &Builder{
		listing: listing,
		store:   store,
		logger:  log.WithField("module", "universe"),
		config:  config,
	}
}

// Build lists, filters and optionally samples the universe.
// Sampling keeps the first SampleSize symbols of the sorted listing.
// ⭐ SSOT: S1 → S0 유니버스 생성
func (b *Builder) Build(ctx context.Context, useFullDataset bool) (*Universe, error) {
	listed, err := b.listing.ListTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}

	universe := &Universe{
		Date:     time.Now().UTC(),
		Excluded: make(map[string]string),
		Listed:   len(listed),
	}

	seen := make(map[string]bool, len(listed))
	for _, t := range listed {
		t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
		if seen[t.Symbol] {
			continue
		}
		seen[t.Symbol] = true

		if reason := b.checkExclusion(t); reason != "" {
			universe.Excluded[t.Symbol] = reason
			continue
		}
		universe.Tickers = append(universe.Tickers, t)
	}

	sort.Slice(universe.Tickers, func(i, j int) bool {
		return universe.Tickers[i].Symbol < universe.Tickers[j].Symbol
	})

	if !useFullDataset && b.config.SampleSize > 0 && len(universe.Tickers) > b.config.SampleSize {
		universe.Tickers = universe.Tickers[:b.config.SampleSize]
		universe.Sampled = true
	}

	b.logger.WithFields(map[string]interface{}{
		"listed":   universe.Listed,
		"eligible": len(universe.Tickers),
		"excluded": len(universe.Excluded),
		"sampled":  universe.Sampled,
	}).Info("Universe built")

	return universe, nil
}

// Track registers the collected tickers as the tracked universe.
// Exchange and name come from the listing when known.
func (b *Builder) Track(ctx context.Context, universe *Universe, collected []string) error {
	known := make(map[string]contracts.Ticker, len(universe.Tickers))
	for _, t := range universe.Tickers {
		known[t.Symbol] = t
	}

	rows := make([]contracts.Ticker, 0, len(collected))
	for _, sym := range collected {
		t, ok := known[sym]
		if !ok {
			t = contracts.Ticker{Symbol: sym}
		}
		t.IsBenchmark = false
		rows = append(rows, t)
	}

	if err := b.store.InsertTickersBulk(ctx, rows); err != nil {
		return fmt.Errorf("track tickers: %w", err)
	}
	b.logger.WithField("count", len(rows)).Info("Tracked tickers updated")
	return nil
}

// TrackBenchmarks registers benchmark symbols, which never enter the ranking
func (b *Builder) TrackBenchmarks(ctx context.Context, symbols []string) error {
	rows := make([]contracts.Ticker, 0, len(symbols))
	for _, s := range symbols {
		rows = append(rows, contracts.Ticker{Symbol: s, IsBenchmark: true})
	}
	if err := b.store.InsertTickersBulk(ctx, rows); err != nil {
		return fmt.Errorf("track benchmarks: %w", err)
	}
	return nil
}

// checkExclusion checks if a ticker should be excluded and returns the reason
func (b *Builder) checkExclusion(t contracts.Ticker) string {
	// 우선순위 순서로 체크

	// 1. 빈 심볼
	if t.Symbol == "" {
		return "empty symbol"
	}

	// 2. 거래소
	if len(b.config.Exchanges) > 0 && t.Exchange != "" && !containsFold(b.config.Exchanges, t.Exchange) {
		return fmt.Sprintf("exchange %s", t.Exchange)
	}

	// 3. 파생 심볼
	if b.config.ExcludeDerivatives && derivativePattern.MatchString(t.Symbol) {
		return "derivative symbol"
	}

	// 4. SPAC
	if b.config.ExcludeSPAC && isSPAC(t.Name) {
		return "SPAC"
	}

	return "" // 통과
}

// isSPAC checks if a company is a SPAC based on name pattern
func isSPAC(name string) bool {
	return spacPattern.MatchString(name)
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
