// Package market provides exchange market data: spot prices for the holding
// asset, 24h tickers and daily candles for candidate trading pairs.
package market

import (
	"context"
)

// Ticker is a 24h market summary for a trading pair.
type Ticker struct {
	Symbol         string  `json:"symbol"`
	Last           float64 `json:"last"`
	QuoteVolume24h float64 `json:"quote_volume_24h"`
}

// Candle is a single OHLCV bar.
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"close_time"`
}

// Provider serves the market data the advisor consumes. Implementations
// make a single attempt per call; callers decide how to degrade.
type Provider interface {
	// SpotPrice returns the USD price of an asset by its oracle ID.
	SpotPrice(ctx context.Context, assetID string) (float64, error)
	// Ticker returns the 24h summary for a trading pair symbol.
	Ticker(ctx context.Context, symbol string) (Ticker, error)
	// DailyCandles returns up to `days` daily candles, oldest first.
	DailyCandles(ctx context.Context, symbol string, days int) ([]Candle, error)
}

// Gateway composes the exchange client and the spot-price oracle into a
// single Provider.
type Gateway struct {
	exchange *BinanceClient
	oracle   *CoinGeckoClient
	stream   *Stream
}

// NewGateway builds the production Provider.
func NewGateway(exchange *BinanceClient, oracle *CoinGeckoClient) *Gateway {
	return &Gateway{exchange: exchange, oracle: oracle}
}

// WithStream attaches a live ticker stream; streamed prices override the
// REST last price when present.
func (g *Gateway) WithStream(stream *Stream) *Gateway {
	g.stream = stream
	return g
}

func (g *Gateway) SpotPrice(ctx context.Context, assetID string) (float64, error) {
	return g.oracle.SpotPrice(ctx, assetID)
}

func (g *Gateway) Ticker(ctx context.Context, symbol string) (Ticker, error) {
	ticker, err := g.exchange.Ticker(ctx, symbol)
	if err != nil {
		return ticker, err
	}
	if g.stream != nil {
		if last, ok := g.stream.Latest(symbol); ok {
			ticker.Last = last
		}
	}
	return ticker, nil
}

func (g *Gateway) DailyCandles(ctx context.Context, symbol string, days int) ([]Candle, error) {
	return g.exchange.DailyCandles(ctx, symbol, days)
}
