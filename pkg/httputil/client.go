package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/wonny/aegis-ratings/pkg/logger"
)

// Waiter blocks until a request may be sent
type Waiter interface {
	Wait(ctx context.Context) error
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client is an HTTP client wrapper with logging and an optional limiter.
// Requests are attempted once; callers decide what a failure means.
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	limiter    Waiter
	userAgent  string
}

// New creates a client with the given per-request timeout
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(log *logger.Logger, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
		userAgent:  "aegis-ratings/1.0",
	}
}

// WithLimiter gates every request behind w
func (c *Client) WithLimiter(w Waiter) *Client {
	c.limiter = w
	return c
}

// WithUserAgent overrides the User-Agent header
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// Get performs a GET request. The caller closes the body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

// GetJSON performs a GET and decodes a 2xx JSON body into out
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, URL: redact(resp.Request), Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   req.Method,
			"url":      redact(req),
			"duration": duration,
		}).WithError(err).Debug("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      req.Method,
		"url":         redact(req),
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}

// redact strips the query string so API keys never reach the logs
func redact(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	u := *r.URL
	u.RawQuery = ""
	return u.String()
}
