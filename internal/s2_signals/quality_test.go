package s2_signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

func incomes(revenue []float64, net []float64) []contracts.IncomeStatement {
	out := statements(contracts.PeriodQuarter, make([]*float64, len(revenue))...)
	for i := range out {
		out[i].Revenue = contracts.Float(revenue[i])
		if i < len(net) {
			out[i].NetIncome = contracts.Float(net[i])
		}
	}
	return out
}

func TestCalculateSMR(t *testing.T) {
	t.Run("too few quarters", func(t *testing.T) {
		_, ok := CalculateSMR("T", incomes([]float64{1, 1, 1}, nil), nil, nil)
		assert.False(t, ok)
	})

	t.Run("four quarters gives margins only", func(t *testing.T) {
		smr, ok := CalculateSMR("T", incomes([]float64{200, 100, 100, 100}, []float64{20}), nil, nil)
		require.True(t, ok)
		assert.Nil(t, smr.SalesGrowthQ1)
		assert.Nil(t, smr.AvgSalesGrowth3Q)
		require.NotNil(t, smr.AftertaxMarginQuarterly)
		assert.InDelta(t, 10, *smr.AftertaxMarginQuarterly, 1e-9)
		assert.Nil(t, smr.PretaxMarginAnnual)
		assert.Nil(t, smr.ROEAnnual)
	})

	t.Run("full history", func(t *testing.T) {
		q := incomes([]float64{150, 120, 110, 100, 100, 100, 100, 100}, []float64{15})
		annual := []contracts.IncomeStatement{{Revenue: contracts.Float(400), NetIncome: contracts.Float(60)}}
		balance := []contracts.BalanceSheet{{TotalEquity: contracts.Float(300)}}

		smr, ok := CalculateSMR("T", q, annual, balance)
		require.True(t, ok)
		assert.InDelta(t, 50, *smr.SalesGrowthQ1, 1e-9)
		assert.InDelta(t, 20, *smr.SalesGrowthQ2, 1e-9)
		assert.InDelta(t, 10, *smr.SalesGrowthQ3, 1e-9)
		assert.InDelta(t, 80.0/3, *smr.AvgSalesGrowth3Q, 1e-9)
		assert.InDelta(t, 15, *smr.PretaxMarginAnnual, 1e-9)
		assert.InDelta(t, 10, *smr.AftertaxMarginQuarterly, 1e-9)
		assert.InDelta(t, 20, *smr.ROEAnnual, 1e-9)
	})

	t.Run("zero equity is null", func(t *testing.T) {
		annual := []contracts.IncomeStatement{{Revenue: contracts.Float(400), NetIncome: contracts.Float(60)}}
		balance := []contracts.BalanceSheet{{TotalEquity: contracts.Float(0)}}
		smr, ok := CalculateSMR("T", incomes([]float64{1, 1, 1, 1}, nil), annual, balance)
		require.True(t, ok)
		assert.Nil(t, smr.ROEAnnual)
	})

	t.Run("average skips null growths", func(t *testing.T) {
		q := incomes([]float64{150, 120, 110, 100, 100, 0}, nil)
		smr, ok := CalculateSMR("T", q, nil, nil)
		require.True(t, ok)
		assert.Nil(t, smr.SalesGrowthQ2)
		assert.InDelta(t, 50, *smr.AvgSalesGrowth3Q, 1e-9)
	})
}
