package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/external"
)

// Source fetches the latest exchange rates relative to base.
type Source interface {
	Fetch(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// HTTPSource reads rates from an exchangerate-api compatible endpoint: GET {baseURL}/{base}
// returning {"rates": {"EUR": 0.92, ...}}.
type HTTPSource struct {
	baseURL string
	client  *external.Client
}

// NewHTTPSource creates a rate source that retries rate limiting and server errors with
// exponential backoff starting at delay.
func NewHTTPSource(baseURL string, delay time.Duration, maxRetries int) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  external.NewClient("rates", delay, maxRetries, true),
	}
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (s *HTTPSource) Fetch(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	body, err := s.client.Get(ctx, fmt.Sprintf("%s/%s", s.baseURL, base))
	if err != nil {
		return nil, err
	}

	var resp latestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing rates response: %w", err)
	}
	if len(resp.Rates) == 0 {
		return nil, fmt.Errorf("rates response for %s has no rates", base)
	}
	return resp.Rates, nil
}
