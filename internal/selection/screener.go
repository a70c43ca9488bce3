package selection

import (
	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

// Screener filters stored ratings down to leaders
// ⭐ SSOT: 리더 종목 스크리닝 로직은 여기서만
type Screener struct {
	config ScreenerConfig
	logger *logger.Logger
}

// ScreenerConfig defines hard cut conditions. Zero values disable a filter.
type ScreenerConfig struct {
	MinComp int // 종합 점수 최소값 (예: 80)
	MinRS   int // RS 랭크 최소값
	MinEPS  int // EPS 랭크 최소값

	// MaxSMRLetter keeps A through this letter (예: "B" → A, B)
	MaxSMRLetter string

	// MaxOffHigh drops tickers more than N% below their 52-week high (예: 15).
	// nil disables the filter; 0 keeps only tickers at the high.
	MaxOffHigh *float64

	// Limit caps the result after filtering; 0 means no cap
	Limit int
}

// NewScreener creates a new screener
func NewScreener(config ScreenerConfig, log *logger.Logger) *Screener {
	return &Screener{
		config: config,
		logger: log,
	}
}

// Screen returns ratings that pass every filter, preserving input order
func (s *Screener) Screen(ratings []contracts.CompositeRating) []contracts.CompositeRating {
	passed := make([]contracts.CompositeRating, 0)
	filtered := make(map[string]int) // Filter name -> count

	for i := range ratings {
		if reason := s.checkConditions(&ratings[i]); reason != "" {
			filtered[reason]++
			continue
		}
		if s.config.Limit > 0 && len(passed) >= s.config.Limit {
			filtered["limit"]++
			continue
		}
		passed = append(passed, ratings[i])
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(ratings),
		"passed":       len(passed),
		"filtered_out": len(ratings) - len(passed),
		"filters":      filtered,
	}).Debug("Screening completed")

	return passed
}

// checkConditions returns the first failing filter name, or "" when passed
func (s *Screener) checkConditions(r *contracts.CompositeRating) string {
	if r.CompRating < s.config.MinComp {
		return "comp"
	}

	if s.config.MinRS > 0 && (r.RSRating == nil || *r.RSRating < s.config.MinRS) {
		return "rs"
	}

	if s.config.MinEPS > 0 && (r.EPSRating == nil || *r.EPSRating < s.config.MinEPS) {
		return "eps"
	}

	// 문자 비교: "A" < "B" < ... < "E"
	if s.config.MaxSMRLetter != "" && (r.SMRRating == "" || r.SMRRating > s.config.MaxSMRLetter) {
		return "smr"
	}

	if s.config.MaxOffHigh != nil {
		if r.PriceVs52WeekHigh == nil || *r.PriceVs52WeekHigh < -*s.config.MaxOffHigh {
			return "off_high"
		}
	}

	return ""
}
