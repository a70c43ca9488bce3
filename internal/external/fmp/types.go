package fmp

// FMP v3 wire types. Only fields the ratings pipeline reads are decoded.

type historicalPrice struct {
	Symbol     string            `json:"symbol"`
	Historical []historicalEntry `json:"historical"`
}

type historicalEntry struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type incomeStatement struct {
	Date       string   `json:"date"`
	Symbol     string   `json:"symbol"`
	Period     string   `json:"period"` // Q1..Q4, FY
	Revenue    *float64 `json:"revenue"`
	NetIncome  *float64 `json:"netIncome"`
	EPS        *float64 `json:"eps"`
	EPSDiluted *float64 `json:"epsdiluted"`
}

type balanceSheet struct {
	Date                    string   `json:"date"`
	Symbol                  string   `json:"symbol"`
	TotalStockholdersEquity *float64 `json:"totalStockholdersEquity"`
	TotalEquity             *float64 `json:"totalEquity"`
}

type profile struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"companyName"`
	MktCap            float64 `json:"mktCap"`
	Sector            string  `json:"sector"`
	Industry          string  `json:"industry"`
	Country           string  `json:"country"`
	ExchangeShortName string  `json:"exchangeShortName"`
	Description       string  `json:"description"`
	Website           string  `json:"website"`
}

type listedStock struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	ExchangeShortName string `json:"exchangeShortName"`
	Type              string `json:"type"`
}
