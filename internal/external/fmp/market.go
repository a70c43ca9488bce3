package fmp

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

const sectorSuffix = "ChangesPercentage"

// SectorPerformance fetches historical sector performance.
// Each FMP row is a date plus one "<sector>ChangesPercentage" column per sector.
func (c *Client) SectorPerformance(ctx context.Context, limit int) ([]contracts.SectorPerformance, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var raw []map[string]json.RawMessage
	if err := c.get(ctx, "/historical-sectors-performance", params, &raw); err != nil {
		return nil, err
	}
	return parseSectorRows(raw), nil
}

// parseSectorRows flattens FMP rows and drops duplicate (sector, date) pairs
func parseSectorRows(raw []map[string]json.RawMessage) []contracts.SectorPerformance {
	type key struct {
		sector string
		date   time.Time
	}
	seen := make(map[key]bool)
	var out []contracts.SectorPerformance

	for _, row := range raw {
		var dateStr string
		if err := json.Unmarshal(row["date"], &dateStr); err != nil {
			continue
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			continue
		}

		for col, val := range row {
			if !strings.HasSuffix(col, sectorSuffix) {
				continue
			}
			change, ok := parseNumber(val)
			if !ok {
				continue
			}
			sector := strings.TrimSpace(strings.TrimSuffix(col, sectorSuffix))
			k := key{sector, date}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, contracts.SectorPerformance{Sector: sector, Date: date, ChangePercentage: change})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

// parseNumber accepts a JSON number or a numeric string
func parseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	return f, err == nil
}

// ListTickers returns common stocks listed on the configured exchanges, sorted
func (c *Client) ListTickers(ctx context.Context) ([]contracts.Ticker, error) {
	var raw []listedStock
	if err := c.get(ctx, "/stock/list", nil, &raw); err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(c.exchanges))
	for _, ex := range c.exchanges {
		allowed[strings.ToUpper(ex)] = true
	}

	out := make([]contracts.Ticker, 0, len(raw))
	for _, s := range raw {
		if s.Type != "stock" || s.Symbol == "" {
			continue
		}
		if len(allowed) > 0 && !allowed[strings.ToUpper(s.ExchangeShortName)] {
			continue
		}
		out = append(out, contracts.Ticker{
			Symbol:   s.Symbol,
			Exchange: s.ExchangeShortName,
			Name:     s.Name,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	c.logger.WithField("count", len(out)).Debug("Listed tickers")
	return out, nil
}
