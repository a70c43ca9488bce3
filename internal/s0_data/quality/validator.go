package quality

import (
	"fmt"
	"time"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

// QualityGate checks stored-data coverage after a collection pass
type QualityGate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MinPriceCoverage   float64 `yaml:"min_price_coverage"`   // 0.90
	MinProfileCoverage float64 `yaml:"min_profile_coverage"` // 0.80
	MinRSCoverage      float64 `yaml:"min_rs_coverage"`      // 0.70
	MinScore           float64 `yaml:"min_score"`            // 0.75
}

// DefaultConfig returns the thresholds used by the full run
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:   0.90,
		MinProfileCoverage: 0.80,
		MinRSCoverage:      0.70,
		MinScore:           0.75,
	}
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	return &QualityGate{config: config}
}

// 가중치 (합계 = 1.0)
var weights = map[string]float64{
	"price":   0.35, // 가격 데이터 필수
	"profile": 0.15, // 업종 RS 입력
	"rs":      0.20,
	"eps":     0.15,
	"smr":     0.15,
}

// Check scores coverage from database stats. It never blocks the run;
// Passed=false is reported and logged by the caller.
// ⭐ SSOT: S0 → S2 품질 검증
func (g *QualityGate) Check(stats *contracts.DatabaseStats, date time.Time) *contracts.DataQualitySnapshot {
	snapshot := &contracts.DataQualitySnapshot{
		Date:     date,
		Coverage: make(map[string]float64),
	}
	if stats == nil {
		snapshot.Failures = []string{"no stats"}
		return snapshot
	}
	snapshot.TotalTickers = stats.Tickers

	snapshot.Coverage["price"] = stats.PriceCoverage()
	snapshot.Coverage["profile"] = ratio(stats.Profiles, stats.Tickers)
	for _, k := range []string{"rs", "eps", "smr"} {
		snapshot.Coverage[k] = ratio(stats.Components[k], stats.Tickers)
	}

	snapshot.QualityScore = g.calculateScore(snapshot.Coverage)

	check := func(name string, got, min float64) {
		if got < min {
			snapshot.Failures = append(snapshot.Failures,
				fmt.Sprintf("%s coverage %.2f below %.2f", name, got, min))
		}
	}
	check("price", snapshot.Coverage["price"], g.config.MinPriceCoverage)
	check("profile", snapshot.Coverage["profile"], g.config.MinProfileCoverage)
	check("rs", snapshot.Coverage["rs"], g.config.MinRSCoverage)
	if snapshot.QualityScore < g.config.MinScore {
		snapshot.Failures = append(snapshot.Failures,
			fmt.Sprintf("score %.2f below %.2f", snapshot.QualityScore, g.config.MinScore))
	}
	snapshot.Passed = len(snapshot.Failures) == 0

	return snapshot
}

// calculateScore calculates overall quality score using weighted average
func (g *QualityGate) calculateScore(coverage map[string]float64) float64 {
	score := 0.0
	for key, weight := range weights {
		if cov, exists := coverage[key]; exists {
			score += cov * weight
		}
	}
	return score
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	r := float64(n) / float64(total)
	if r > 1 {
		r = 1
	}
	return r
}
