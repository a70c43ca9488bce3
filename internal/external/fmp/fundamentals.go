package fmp

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

// IncomeStatements fetches the latest statements for period, newest first
func (c *Client) IncomeStatements(ctx context.Context, ticker string, period contracts.PeriodKind, limit int) ([]contracts.IncomeStatement, error) {
	params := url.Values{}
	params.Set("period", string(period))
	params.Set("limit", strconv.Itoa(limit))

	var raw []incomeStatement
	if err := c.get(ctx, "/income-statement/"+url.PathEscape(ticker), params, &raw); err != nil {
		return nil, err
	}

	out := make([]contracts.IncomeStatement, 0, len(raw))
	for _, s := range raw {
		date, err := time.Parse(dateLayout, s.Date)
		if err != nil {
			continue
		}
		out = append(out, contracts.IncomeStatement{
			FiscalDate: date,
			Period:     period,
			Revenue:    s.Revenue,
			NetIncome:  s.NetIncome,
			EPS:        s.EPS,
			EPSDiluted: s.EPSDiluted,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FiscalDate.After(out[j].FiscalDate)
	})
	return out, nil
}

// BalanceSheets fetches the latest balance sheets, newest first.
// Total equity falls back from stockholders' equity to total equity.
func (c *Client) BalanceSheets(ctx context.Context, ticker string, period contracts.PeriodKind, limit int) ([]contracts.BalanceSheet, error) {
	params := url.Values{}
	params.Set("period", string(period))
	params.Set("limit", strconv.Itoa(limit))

	var raw []balanceSheet
	if err := c.get(ctx, "/balance-sheet-statement/"+url.PathEscape(ticker), params, &raw); err != nil {
		return nil, err
	}

	out := make([]contracts.BalanceSheet, 0, len(raw))
	for _, s := range raw {
		date, err := time.Parse(dateLayout, s.Date)
		if err != nil {
			continue
		}
		equity := s.TotalStockholdersEquity
		if equity == nil {
			equity = s.TotalEquity
		}
		out = append(out, contracts.BalanceSheet{FiscalDate: date, TotalEquity: equity})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FiscalDate.After(out[j].FiscalDate)
	})
	return out, nil
}

// CompanyProfile fetches the profile; nil when FMP knows nothing about ticker
func (c *Client) CompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	var raw []profile
	if err := c.get(ctx, "/profile/"+url.PathEscape(ticker), nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	p := raw[0]
	return &contracts.CompanyProfile{
		Ticker:      ticker,
		Name:        p.CompanyName,
		Sector:      p.Sector,
		Industry:    p.Industry,
		MarketCap:   p.MktCap,
		Country:     p.Country,
		Exchange:    p.ExchangeShortName,
		Description: p.Description,
		Website:     p.Website,
	}, nil
}
