package wikipedia

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/pkg/httputil"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

// SP500Source lists S&P 500 constituents from the Wikipedia table
type SP500Source struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewSP500Source creates a listing source reading url
func NewSP500Source(httpClient *httputil.Client, log *logger.Logger, url string) *SP500Source {
	return &SP500Source{
		httpClient: httpClient,
		logger:     log.WithField("module", "sp500"),
		url:        url,
	}
}

// ListTickers fetches and parses the constituents table
func (s *SP500Source) ListTickers(ctx context.Context) ([]contracts.Ticker, error) {
	resp, err := s.httpClient.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch constituents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch constituents: unexpected status code: %d", resp.StatusCode)
	}

	tickers, err := parseConstituents(resp.Body)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("count", len(tickers)).Info("Loaded S&P 500 constituents")
	return tickers, nil
}

// parseConstituents reads table#constituents. Class-share dots become dashes (BRK.B → BRK-B).
func parseConstituents(r io.Reader) ([]contracts.Ticker, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	table := doc.Find("table#constituents")
	if table.Length() == 0 {
		return nil, fmt.Errorf("constituents table not found")
	}

	seen := make(map[string]bool)
	var out []contracts.Ticker

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return // header
		}

		symbol := strings.ToUpper(strings.TrimSpace(cells.Eq(0).Text()))
		symbol = strings.ReplaceAll(symbol, ".", "-")
		if symbol == "" || seen[symbol] {
			return
		}
		seen[symbol] = true

		t := contracts.Ticker{Symbol: symbol}
		if cells.Length() > 1 {
			t.Name = strings.TrimSpace(cells.Eq(1).Text())
		}
		out = append(out, t)
	})

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}
