package fmp

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/aegis-ratings/pkg/httputil"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

const dateLayout = "2006-01-02"

// Client talks to the Financial Modeling Prep v3 REST API
// ⭐ SSOT: FMP API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
	exchanges  []string
}

// NewClient creates an FMP client.
// exchanges restricts ListTickers, e.g. NASDAQ and NYSE.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, apiKey string, exchanges []string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "fmp"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		exchanges:  exchanges,
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	full := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	if err := c.httpClient.GetJSON(ctx, full, out); err != nil {
		return fmt.Errorf("fmp %s: %w", path, err)
	}
	return nil
}
