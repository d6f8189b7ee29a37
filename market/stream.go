package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// BinanceStreamURL is the combined-stream websocket endpoint.
const BinanceStreamURL = "wss://stream.binance.com:9443/stream"

// Stream subscribes to Binance miniTicker updates for a set of symbols and
// keeps the most recent price per symbol. It is advisory only: the advisor
// consults it when available but never depends on it, and a dropped
// connection ends the stream without reconnect attempts.
type Stream struct {
	url     string
	symbols []string
	log     zerolog.Logger

	mu     sync.RWMutex
	latest map[string]float64
}

// NewStream creates a ticker stream for the given pair symbols.
func NewStream(symbols []string, log zerolog.Logger) *Stream {
	return &Stream{
		url:     BinanceStreamURL,
		symbols: symbols,
		log:     log.With().Str("component", "ticker-stream").Logger(),
		latest:  make(map[string]float64),
	}
}

// Latest returns the most recent streamed price for a symbol.
func (s *Stream) Latest(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.latest[symbol]
	return price, ok
}

// Run connects and consumes ticker updates until the context is cancelled or
// the connection drops.
func (s *Stream) Run(ctx context.Context) error {
	streams := make([]string, len(s.symbols))
	for i, sym := range s.symbols {
		streams[i] = strings.ToLower(sym) + "@miniTicker"
	}
	connURL := fmt.Sprintf("%s?streams=%s", s.url, strings.Join(streams, "/"))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, connURL, nil)
	if err != nil {
		return fmt.Errorf("dial ticker stream: %w", err)
	}
	defer conn.Close()

	s.log.Info().Strs("symbols", s.symbols).Msg("ticker stream connected")

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var msg struct {
			Stream string `json:"stream"`
			Data   struct {
				Symbol string `json:"s"`
				Close  string `json:"c"`
			} `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read ticker stream: %w", err)
		}

		price, err := strconv.ParseFloat(msg.Data.Close, 64)
		if err != nil || price <= 0 {
			continue
		}

		s.mu.Lock()
		s.latest[msg.Data.Symbol] = price
		s.mu.Unlock()
	}
}
