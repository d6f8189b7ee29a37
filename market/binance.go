package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// BinanceMainnetURL is the default REST endpoint.
const BinanceMainnetURL = "https://api.binance.com"

// BinanceConfig holds exchange client configuration. Only public market-data
// endpoints are used, so no credentials are required.
type BinanceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// BinanceClient fetches tickers and candles from the Binance public API.
type BinanceClient struct {
	config     BinanceConfig
	httpClient *http.Client
	log        zerolog.Logger
}

// NewBinanceClient creates an exchange client.
func NewBinanceClient(config BinanceConfig, log zerolog.Logger) *BinanceClient {
	if config.BaseURL == "" {
		config.BaseURL = BinanceMainnetURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &BinanceClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		log: log.With().Str("component", "binance").Logger(),
	}
}

// Ticker returns the 24h summary for a symbol.
func (b *BinanceClient) Ticker(ctx context.Context, symbol string) (Ticker, error) {
	endpoint := "/api/v3/ticker/24hr"
	params := url.Values{}
	params.Set("symbol", symbol)

	var result struct {
		Symbol      string `json:"symbol"`
		LastPrice   string `json:"lastPrice"`
		QuoteVolume string `json:"quoteVolume"`
	}

	if err := b.publicRequest(ctx, "GET", endpoint, params, &result); err != nil {
		return Ticker{}, err
	}

	last, err := strconv.ParseFloat(result.LastPrice, 64)
	if err != nil {
		return Ticker{}, fmt.Errorf("parse last price %q: %w", result.LastPrice, err)
	}
	volume, _ := strconv.ParseFloat(result.QuoteVolume, 64)

	return Ticker{
		Symbol:         result.Symbol,
		Last:           last,
		QuoteVolume24h: volume,
	}, nil
}

// DailyCandles returns up to `days` daily candles, oldest first.
func (b *BinanceClient) DailyCandles(ctx context.Context, symbol string, days int) ([]Candle, error) {
	endpoint := "/api/v3/klines"
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", "1d")
	params.Set("limit", strconv.Itoa(days))

	var rawCandles [][]interface{}
	if err := b.publicRequest(ctx, "GET", endpoint, params, &rawCandles); err != nil {
		return nil, err
	}

	candles := make([]Candle, len(rawCandles))
	for i, raw := range rawCandles {
		if len(raw) < 7 {
			return nil, fmt.Errorf("malformed kline at index %d", i)
		}
		candles[i] = Candle{
			OpenTime:  int64(toFloat(raw[0])),
			Open:      toFloat(raw[1]),
			High:      toFloat(raw[2]),
			Low:       toFloat(raw[3]),
			Close:     toFloat(raw[4]),
			Volume:    toFloat(raw[5]),
			CloseTime: int64(toFloat(raw[6])),
		}
	}

	return candles, nil
}

// publicRequest makes an unauthenticated request.
func (b *BinanceClient) publicRequest(ctx context.Context, method, endpoint string, params url.Values, result interface{}) error {
	reqURL := b.config.BaseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return err
	}

	return b.doRequest(req, result)
}

// doRequest executes the HTTP request. A single attempt; no retries.
func (b *BinanceClient) doRequest(req *http.Request, result interface{}) error {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Msg != "" {
			return fmt.Errorf("Binance API error %d: %s", apiErr.Code, apiErr.Msg)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// toFloat helper for interface{} kline fields.
func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	case float64:
		return val
	default:
		return 0
	}
}
