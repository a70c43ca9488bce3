package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

func TestQualityGate_Check(t *testing.T) {
	gate := NewQualityGate(DefaultConfig())
	date := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		stats      *contracts.DatabaseStats
		wantPassed bool
		wantFails  int
	}{
		{
			name: "full coverage",
			stats: &contracts.DatabaseStats{
				Tickers: 100, TickersWithPrice: 100, Profiles: 100,
				Components: map[string]int{"rs": 100, "eps": 100, "smr": 100},
			},
			wantPassed: true,
		},
		{
			name: "thin price coverage",
			stats: &contracts.DatabaseStats{
				Tickers: 100, TickersWithPrice: 50, Profiles: 95,
				Components: map[string]int{"rs": 45, "eps": 90, "smr": 90},
			},
			wantPassed: false,
			wantFails:  3, // price, rs, score
		},
		{
			name:       "empty universe",
			stats:      &contracts.DatabaseStats{Components: map[string]int{}},
			wantPassed: false,
			wantFails:  4,
		},
		{
			name:       "no stats",
			stats:      nil,
			wantPassed: false,
			wantFails:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := gate.Check(tt.stats, date)
			require.NotNil(t, snap)
			assert.Equal(t, date, snap.Date)
			assert.Equal(t, tt.wantPassed, snap.Passed, snap.Failures)
			if !tt.wantPassed {
				assert.Len(t, snap.Failures, tt.wantFails)
			}
			assert.GreaterOrEqual(t, snap.QualityScore, 0.0)
			assert.LessOrEqual(t, snap.QualityScore, 1.0)
		})
	}
}

func TestQualityGate_calculateScore(t *testing.T) {
	gate := &QualityGate{}

	tests := []struct {
		name     string
		coverage map[string]float64
		wantMin  float64
		wantMax  float64
	}{
		{
			name:     "perfect coverage",
			coverage: map[string]float64{"price": 1, "profile": 1, "rs": 1, "eps": 1, "smr": 1},
			wantMin:  0.99,
			wantMax:  1.01,
		},
		{
			name:     "good coverage",
			coverage: map[string]float64{"price": 0.95, "profile": 0.90, "rs": 0.85, "eps": 0.85, "smr": 0.80},
			wantMin:  0.85,
			wantMax:  0.95,
		},
		{
			name:     "price only",
			coverage: map[string]float64{"price": 1},
			wantMin:  0.34,
			wantMax:  0.36,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := gate.calculateScore(tt.coverage)
			assert.GreaterOrEqual(t, score, tt.wantMin)
			assert.LessOrEqual(t, score, tt.wantMax)
		})
	}
}
