package s2_signals

import (
	"github.com/wonny/aegis-ratings/internal/contracts"
)

// MinRSBars is the price history an RS row needs
const MinRSBars = 252

// RS 가중치: 최근 분기 40%, 나머지 각 20%
var rsLookbacks = [4]struct {
	days   int
	weight float64
}{
	{63, 0.4},
	{126, 0.2},
	{189, 0.2},
	{252, 0.2},
}

// CalculateRS computes the weighted rate-of-change momentum score.
// bars must be ascending by date. ok is false below MinRSBars.
// ⭐ SSOT: RS 계산은 여기서만
func CalculateRS(ticker string, bars []contracts.PriceBar) (contracts.RSComponents, bool) {
	if len(bars) < MinRSBars {
		return contracts.RSComponents{}, false
	}

	rocs := [4]float64{}
	score := 0.0
	for i, lb := range rsLookbacks {
		rocs[i] = roc(bars, lb.days)
		score += rocs[i] * lb.weight
	}

	return contracts.RSComponents{
		Ticker:  ticker,
		RSValue: score,
		ROC63:   rocs[0],
		ROC126:  rocs[1],
		ROC189:  rocs[2],
		ROC252:  rocs[3],
	}, true
}

// roc returns (close[n-1] / close[n-k] - 1) * 100, or 0 on a zero base
func roc(bars []contracts.PriceBar, k int) float64 {
	n := len(bars)
	if k <= 0 || n < k {
		return 0
	}
	base := bars[n-k].Close
	if base == 0 {
		return 0
	}
	return (bars[n-1].Close/base - 1) * 100
}
