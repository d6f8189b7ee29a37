package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"
)

// CoinGeckoBaseURL is the default public API endpoint.
const CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoConfig holds spot-price oracle configuration.
type CoinGeckoConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// CoinGeckoClient fetches USD spot prices, caching fresh values and keeping
// the last good value per asset so a flaky oracle degrades to stale data
// instead of failing.
type CoinGeckoClient struct {
	config     CoinGeckoConfig
	httpClient *http.Client
	cache      *ristretto.Cache
	log        zerolog.Logger

	mu       sync.RWMutex
	lastGood map[string]float64
}

// NewCoinGeckoClient creates a spot-price oracle client.
func NewCoinGeckoClient(config CoinGeckoConfig, log zerolog.Logger) (*CoinGeckoClient, error) {
	if config.BaseURL == "" {
		config.BaseURL = CoinGeckoBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = 5 * time.Minute
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create price cache: %w", err)
	}

	return &CoinGeckoClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache:    cache,
		log:      log.With().Str("component", "coingecko").Logger(),
		lastGood: make(map[string]float64),
	}, nil
}

// SpotPrice returns the USD price for an asset ID such as "matic-network".
// Fresh values are served from cache; on fetch failure the last good value
// is returned when one exists.
func (c *CoinGeckoClient) SpotPrice(ctx context.Context, assetID string) (float64, error) {
	if v, ok := c.cache.Get(assetID); ok {
		if price, ok := v.(float64); ok {
			return price, nil
		}
	}

	price, err := c.fetchPrice(ctx, assetID)
	if err != nil {
		c.mu.RLock()
		stale, ok := c.lastGood[assetID]
		c.mu.RUnlock()
		if ok {
			c.log.Warn().Err(err).Str("asset", assetID).Float64("stale_price", stale).
				Msg("spot price fetch failed, serving stale value")
			return stale, nil
		}
		return 0, fmt.Errorf("fetch spot price for %s: %w", assetID, err)
	}

	c.cache.SetWithTTL(assetID, price, 1, c.config.CacheTTL)
	c.mu.Lock()
	c.lastGood[assetID] = price
	c.mu.Unlock()

	return price, nil
}

// Store primes the cache with an externally observed price, e.g. from the
// ticker stream.
func (c *CoinGeckoClient) Store(assetID string, price float64) {
	c.cache.SetWithTTL(assetID, price, 1, c.config.CacheTTL)
	c.mu.Lock()
	c.lastGood[assetID] = price
	c.mu.Unlock()
}

func (c *CoinGeckoClient) fetchPrice(ctx context.Context, assetID string) (float64, error) {
	params := url.Values{}
	params.Set("ids", assetID)
	params.Set("vs_currencies", "usd")
	reqURL := c.config.BaseURL + "/simple/price?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var result map[string]map[string]float64
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	quote, ok := result[assetID]
	if !ok {
		return 0, fmt.Errorf("asset %q missing from response", assetID)
	}
	price, ok := quote["usd"]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("no usd quote for asset %q", assetID)
	}

	return price, nil
}
