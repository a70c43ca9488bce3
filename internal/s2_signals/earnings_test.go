package s2_signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

// statements builds newest-first statements from per-period EPS values.
// nil entries leave EPS missing.
func statements(period contracts.PeriodKind, eps ...*float64) []contracts.IncomeStatement {
	out := make([]contracts.IncomeStatement, len(eps))
	latest := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	for i, e := range eps {
		out[i] = contracts.IncomeStatement{FiscalDate: latest.AddDate(0, -3*i, 0), Period: period, EPS: e}
	}
	return out
}

func f(v float64) *float64 { return contracts.Float(v) }

func TestCalculateEPS(t *testing.T) {
	tests := []struct {
		name      string
		quarterly []contracts.IncomeStatement
		annual    []contracts.IncomeStatement
		wantOK    bool
		check     func(t *testing.T, e contracts.EPSComponents)
	}{
		{
			name:      "too few quarters",
			quarterly: statements(contracts.PeriodQuarter, f(1), f(1), f(1), f(1)),
			wantOK:    false,
		},
		{
			name:      "five quarters gives last-quarter growth only",
			quarterly: statements(contracts.PeriodQuarter, f(1.5), f(1), f(1), f(1), f(1)),
			wantOK:    true,
			check: func(t *testing.T, e contracts.EPSComponents) {
				require.NotNil(t, e.EPSGrowthLastQtr)
				assert.InDelta(t, 50, *e.EPSGrowthLastQtr, 1e-9)
				assert.Nil(t, e.EPSGrowthPrevQtr)
				assert.Nil(t, e.AnnualGrowthRate)
				assert.Nil(t, e.StabilityScore)
			},
		},
		{
			name:      "negative baseline uses absolute value",
			quarterly: statements(contracts.PeriodQuarter, f(1), f(-1), f(1), f(1), f(-2), f(-2)),
			wantOK:    true,
			check: func(t *testing.T, e contracts.EPSComponents) {
				assert.InDelta(t, 150, *e.EPSGrowthLastQtr, 1e-9)
				assert.InDelta(t, 50, *e.EPSGrowthPrevQtr, 1e-9)
			},
		},
		{
			name:      "zero or missing baseline is null",
			quarterly: statements(contracts.PeriodQuarter, f(1), f(1), f(1), f(1), f(0), nil),
			wantOK:    true,
			check: func(t *testing.T, e contracts.EPSComponents) {
				assert.Nil(t, e.EPSGrowthLastQtr)
				assert.Nil(t, e.EPSGrowthPrevQtr)
				assert.True(t, e.AllNull())
			},
		},
		{
			name:      "zero variance is fully stable",
			quarterly: statements(contracts.PeriodQuarter, f(2), f(2), f(2), f(2), f(2), f(2), f(2), f(2)),
			annual:    statements(contracts.PeriodAnnual, f(4), f(2), f(1)),
			wantOK:    true,
			check: func(t *testing.T, e contracts.EPSComponents) {
				require.NotNil(t, e.StabilityScore)
				assert.InDelta(t, 100, *e.StabilityScore, 1e-9)
				require.NotNil(t, e.AnnualGrowthRate)
				assert.InDelta(t, 100, *e.AnnualGrowthRate, 1e-9)
			},
		},
		{
			name: "high variance clamps to zero",
			// one spike over seven small quarters: CV > 1
			quarterly: statements(contracts.PeriodQuarter, f(10), f(0.1), f(0.1), f(0.1), f(0.1), f(0.1), f(0.1), f(0.1)),
			wantOK:    true,
			check: func(t *testing.T, e contracts.EPSComponents) {
				require.NotNil(t, e.StabilityScore)
				assert.Equal(t, 0.0, *e.StabilityScore)
			},
		},
		{
			name:      "fewer than six positive quarters",
			quarterly: statements(contracts.PeriodQuarter, f(1), f(1), f(1), f(1), f(1), f(-1), f(-1), f(-1)),
			wantOK:    true,
			check: func(t *testing.T, e contracts.EPSComponents) {
				assert.Nil(t, e.StabilityScore)
			},
		},
		{
			name:      "CAGR needs positive endpoints",
			quarterly: statements(contracts.PeriodQuarter, f(1), f(1), f(1), f(1), f(1)),
			annual:    statements(contracts.PeriodAnnual, f(3), f(2), f(-1)),
			wantOK:    true,
			check: func(t *testing.T, e contracts.EPSComponents) {
				assert.Nil(t, e.AnnualGrowthRate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := CalculateEPS("T", tt.quarterly, tt.annual)
			assert.Equal(t, tt.wantOK, ok)
			if tt.check != nil {
				tt.check(t, e)
			}
		})
	}
}
