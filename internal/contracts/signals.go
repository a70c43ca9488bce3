package contracts

// RSComponents is the price-momentum factor for one ticker
// ⭐ SSOT: S2 팩터 결과 (매 실행마다 덮어씀)
type RSComponents struct {
	Ticker  string  `json:"ticker"`
	RSValue float64 `json:"rs_value"`
	ROC63   float64 `json:"roc_63"`
	ROC126  float64 `json:"roc_126"`
	ROC189  float64 `json:"roc_189"`
	ROC252  float64 `json:"roc_252"`
}

// EPSComponents is the earnings-growth factor. Each field may be null.
type EPSComponents struct {
	Ticker           string   `json:"ticker"`
	EPSGrowthLastQtr *float64 `json:"eps_growth_last_qtr"`
	EPSGrowthPrevQtr *float64 `json:"eps_growth_prev_qtr"`
	AnnualGrowthRate *float64 `json:"annual_growth_rate"`
	StabilityScore   *float64 `json:"stability_score"`
}

// AllNull reports whether no EPS sub-metric could be computed
func (e EPSComponents) AllNull() bool {
	return e.EPSGrowthLastQtr == nil && e.EPSGrowthPrevQtr == nil &&
		e.AnnualGrowthRate == nil && e.StabilityScore == nil
}

// SMRComponents is the sales/margin/ROE factor. Each field may be null.
type SMRComponents struct {
	Ticker                  string   `json:"ticker"`
	SalesGrowthQ1           *float64 `json:"sales_growth_q1"`
	SalesGrowthQ2           *float64 `json:"sales_growth_q2"`
	SalesGrowthQ3           *float64 `json:"sales_growth_q3"`
	AvgSalesGrowth3Q        *float64 `json:"avg_sales_growth_3q"`
	PretaxMarginAnnual      *float64 `json:"pretax_margin_annual"`
	AftertaxMarginQuarterly *float64 `json:"aftertax_margin_quarterly"`
	ROEAnnual               *float64 `json:"roe_annual"`
}

// IndustryGroupRS is the industry-relative strength assigned to a member ticker
type IndustryGroupRS struct {
	Ticker   string  `json:"ticker"`
	Sector   string  `json:"sector"`
	Industry string  `json:"industry"`
	Value    float64 `json:"industry_group_rs_value"` // 0 ~ 99
}

// ComponentKind names a per-ticker component table
type ComponentKind string

const (
	ComponentRS  ComponentKind = "rs"
	ComponentEPS ComponentKind = "eps"
	ComponentSMR ComponentKind = "smr"
)
