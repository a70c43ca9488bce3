package yahoo

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []ohlcv `json:"quote"`
	} `json:"indicators"`
}

type ohlcv struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *apiError            `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummaryResult struct {
	AssetProfile *assetProfile `json:"assetProfile"`
	Price        *priceModule  `json:"price"`
}

type assetProfile struct {
	Sector              string `json:"sector"`
	Industry            string `json:"industry"`
	Country             string `json:"country"`
	Website             string `json:"website"`
	LongBusinessSummary string `json:"longBusinessSummary"`
}

type priceModule struct {
	LongName     string `json:"longName"`
	ExchangeName string `json:"exchangeName"`
	MarketCap    struct {
		Raw float64 `json:"raw"`
	} `json:"marketCap"`
}
