package s2_signals

import (
	"math"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

// MinSMRQuarters is the quarterly history an SMR row needs
const MinSMRQuarters = 4

// CalculateSMR derives sales growth, margins and ROE. Statements are newest first.
// ⭐ SSOT: SMR 계산은 여기서만
func CalculateSMR(ticker string, quarterly, annual []contracts.IncomeStatement, balance []contracts.BalanceSheet) (contracts.SMRComponents, bool) {
	if len(quarterly) < MinSMRQuarters {
		return contracts.SMRComponents{}, false
	}

	out := contracts.SMRComponents{Ticker: ticker}

	// 1. 매출 성장률 (분기 i vs i+4)
	out.SalesGrowthQ1 = salesGrowth(quarterly, 0)
	out.SalesGrowthQ2 = salesGrowth(quarterly, 1)
	out.SalesGrowthQ3 = salesGrowth(quarterly, 2)
	out.AvgSalesGrowth3Q = meanOf(out.SalesGrowthQ1, out.SalesGrowthQ2, out.SalesGrowthQ3)

	// 2. 연간 순이익률 (세전 이익률 대용)
	if len(annual) > 0 {
		out.PretaxMarginAnnual = margin(annual[0])
	}

	// 3. 최근 분기 순이익률
	out.AftertaxMarginQuarterly = margin(quarterly[0])

	// 4. ROE
	if len(annual) > 0 && len(balance) > 0 {
		out.ROEAnnual = roe(annual[0].NetIncome, balance[0].TotalEquity)
	}

	return out, true
}

func salesGrowth(quarterly []contracts.IncomeStatement, i int) *float64 {
	if len(quarterly) <= i+4 {
		return nil
	}
	cur, base := quarterly[i].Revenue, quarterly[i+4].Revenue
	if cur == nil || *cur == 0 {
		return nil
	}
	return growth(cur, base)
}

func margin(st contracts.IncomeStatement) *float64 {
	if st.Revenue == nil || *st.Revenue == 0 || st.NetIncome == nil {
		return nil
	}
	return contracts.Float(*st.NetIncome / *st.Revenue * 100)
}

func roe(netIncome, equity *float64) *float64 {
	if netIncome == nil || equity == nil || *equity == 0 {
		return nil
	}
	return contracts.Float(*netIncome / *equity * 100)
}

// meanOf averages the non-nil values, nil when none are set
func meanOf(values ...*float64) *float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if v != nil && !math.IsNaN(*v) {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return contracts.Float(sum / float64(n))
}
