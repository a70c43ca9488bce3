package s2_signals

import (
	"math"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

const (
	// MinEPSQuarters is the quarterly history an EPS row needs
	MinEPSQuarters = 5

	stabilityWindow    = 8
	stabilityMinPoints = 6
	cagrPoints         = 3
)

// CalculateEPS derives the four EPS sub-metrics from statements ordered
// newest first. Each sub-metric is nil when its own inputs are insufficient.
// ⭐ SSOT: EPS 계산은 여기서만
func CalculateEPS(ticker string, quarterly, annual []contracts.IncomeStatement) (contracts.EPSComponents, bool) {
	if len(quarterly) < MinEPSQuarters {
		return contracts.EPSComponents{}, false
	}

	out := contracts.EPSComponents{Ticker: ticker}

	// 1. 최근 분기 EPS 전년 동기 대비
	out.EPSGrowthLastQtr = growth(quarterly[0].EPS, quarterly[4].EPS)

	// 2. 직전 분기 EPS 전년 동기 대비
	if len(quarterly) >= 6 {
		out.EPSGrowthPrevQtr = growth(quarterly[1].EPS, quarterly[5].EPS)
	}

	// 3. 연간 EPS CAGR
	out.AnnualGrowthRate = annualCAGR(annual)

	// 4. 안정성 (변동계수)
	out.StabilityScore = stability(quarterly)

	return out, true
}

// growth returns (cur - base) / |base| * 100, nil when either is missing or base is 0
func growth(cur, base *float64) *float64 {
	if cur == nil || base == nil || *base == 0 {
		return nil
	}
	return contracts.Float((*cur - *base) / math.Abs(*base) * 100)
}

func annualCAGR(annual []contracts.IncomeStatement) *float64 {
	if len(annual) < cagrPoints {
		return nil
	}
	latest, first := annual[0].EPS, annual[cagrPoints-1].EPS
	if latest == nil || first == nil || *latest <= 0 || *first <= 0 {
		return nil
	}
	years := float64(cagrPoints - 1)
	return contracts.Float((math.Pow(*latest / *first, 1/years) - 1) * 100)
}

// stability maps the coefficient of variation of positive quarterly EPS to
// 0..100. CV=0 scores 100, CV>=1 scores 0.
func stability(quarterly []contracts.IncomeStatement) *float64 {
	if len(quarterly) < stabilityWindow {
		return nil
	}

	values := make([]float64, 0, stabilityWindow)
	for _, st := range quarterly[:stabilityWindow] {
		if st.EPS != nil && *st.EPS > 0 {
			values = append(values, *st.EPS)
		}
	}
	if len(values) < stabilityMinPoints {
		return nil
	}

	mean, std := meanStd(values)
	if mean <= 0 {
		return nil
	}
	return contracts.Float(math.Max(0, 100-std/mean*100))
}

// meanStd returns the mean and population standard deviation
func meanStd(values []float64) (float64, float64) {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}
