package fmp

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

// PriceHistory fetches up to days daily bars, returned ascending by date
func (c *Client) PriceHistory(ctx context.Context, ticker string, days int) ([]contracts.PriceBar, error) {
	params := url.Values{}
	params.Set("timeseries", strconv.Itoa(days))

	var resp historicalPrice
	if err := c.get(ctx, "/historical-price-full/"+url.PathEscape(ticker), params, &resp); err != nil {
		return nil, err
	}

	return parseHistorical(resp.Historical), nil
}

// parseHistorical converts FMP entries (newest first) into an ascending series.
// Rows with unparseable dates or non-positive closes are dropped.
func parseHistorical(entries []historicalEntry) []contracts.PriceBar {
	bars := make([]contracts.PriceBar, 0, len(entries))
	seen := make(map[time.Time]bool, len(entries))

	for _, e := range entries {
		date, err := time.Parse(dateLayout, e.Date)
		if err != nil || e.Close <= 0 || seen[date] {
			continue
		}
		seen[date] = true

		bars = append(bars, contracts.PriceBar{
			Date:   date,
			Open:   e.Open,
			High:   e.High,
			Low:    e.Low,
			Close:  e.Close,
			Volume: int64(e.Volume),
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars
}
