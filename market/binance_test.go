package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/24hr", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"43250.10","quoteVolume":"123456789.5"}`))
	}))
	defer srv.Close()

	c := NewBinanceClient(BinanceConfig{BaseURL: srv.URL}, zerolog.Nop())
	ticker, err := c.Ticker(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", ticker.Symbol)
	assert.InDelta(t, 43250.10, ticker.Last, 1e-9)
	assert.InDelta(t, 123456789.5, ticker.QuoteVolume24h, 1e-6)
}

func TestTickerAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	c := NewBinanceClient(BinanceConfig{BaseURL: srv.URL}, zerolog.Nop())
	_, err := c.Ticker(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid symbol")
}

func TestDailyCandlesParsesKlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		w.Write([]byte(`[
			[1700000000000,"100.0","110.0","90.0","105.0","1234.5",1700086399999,"0",0,"0","0","0"],
			[1700086400000,"105.0","115.0","95.0","108.0","2345.6",1700172799999,"0",0,"0","0","0"]
		]`))
	}))
	defer srv.Close()

	c := NewBinanceClient(BinanceConfig{BaseURL: srv.URL}, zerolog.Nop())
	candles, err := c.DailyCandles(context.Background(), "BTCUSDT", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, int64(1700000000000), candles[0].OpenTime)
	assert.InDelta(t, 100.0, candles[0].Open, 1e-9)
	assert.InDelta(t, 110.0, candles[0].High, 1e-9)
	assert.InDelta(t, 90.0, candles[0].Low, 1e-9)
	assert.InDelta(t, 105.0, candles[0].Close, 1e-9)
	assert.InDelta(t, 1234.5, candles[0].Volume, 1e-9)
	// Oldest first.
	assert.Less(t, candles[0].OpenTime, candles[1].OpenTime)
}

func TestDailyCandlesMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1700000000000,"100.0"]]`))
	}))
	defer srv.Close()

	c := NewBinanceClient(BinanceConfig{BaseURL: srv.URL}, zerolog.Nop())
	_, err := c.DailyCandles(context.Background(), "BTCUSDT", 1)
	assert.Error(t, err)
}
