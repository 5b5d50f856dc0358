package external

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client performs GET requests against a third-party API, retrying rate limiting and, when
// enabled, server errors with exponential backoff.
type Client struct {
	name       string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
	retryOn5xx bool
}

// NewClient creates a client. name labels errors ("CoinGecko", "rates").
func NewClient(name string, delay time.Duration, maxRetries int, retryOn5xx bool) *Client {
	return &Client{
		name:       name,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
		retryOn5xx: retryOn5xx,
	}
}

// Get returns the body of a 200 response. Other statuses are errors; 429 (and 5xx when
// enabled) are retried up to maxRetries times.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.delay
			if baseDelay == 0 {
				baseDelay = 10 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating %s request: %w", c.name, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request failed: %w", c.name, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s response: %w", c.name, err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("%s rate limited (attempt %d/%d)", c.name, attempt+1, c.maxRetries+1)
			continue
		}
		if c.retryOn5xx && resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("%s HTTP %d (attempt %d/%d)", c.name, resp.StatusCode, attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("%s HTTP %d: %s", c.name, resp.StatusCode, string(body))
	}

	return nil, lastErr
}
