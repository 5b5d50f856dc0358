package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/external"
)

// goldCoinID is the CoinGecko id of a token backed by one troy ounce of gold.
const goldCoinID = "tether-gold"

// CoinGeckoClient fetches the gold price from the CoinGecko API.
type CoinGeckoClient struct {
	baseURL string
	client  *external.Client
}

// NewCoinGeckoClient creates a new CoinGecko API client.
func NewCoinGeckoClient(baseURL string, delay time.Duration, maxRetries int) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL: baseURL,
		client:  external.NewClient("CoinGecko", delay, maxRetries, false),
	}
}

// GoldPerGramUSD returns the USD price of one gram of pure gold.
func (c *CoinGeckoClient) GoldPerGramUSD(ctx context.Context) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, goldCoinID)

	body, err := c.client.Get(ctx, url)
	if err != nil {
		return decimal.Zero, err
	}

	// Parse: {"tether-gold":{"usd":4120.55}}
	var raw map[string]map[string]decimal.Decimal
	if err := json.Unmarshal(body, &raw); err != nil {
		return decimal.Zero, fmt.Errorf("parsing CoinGecko response: %w", err)
	}
	perOunce, ok := raw[goldCoinID]["usd"]
	if !ok || !perOunce.IsPositive() {
		return decimal.Zero, fmt.Errorf("CoinGecko response has no USD price for %s", goldCoinID)
	}

	// Quoted per troy ounce
	return perOunce.Div(domain.GramsPerTroyOunce), nil
}
