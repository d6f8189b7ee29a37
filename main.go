// Oscarr watches a wallet for unused funds, ranks investment candidates,
// and calls the owner with suggestions through a voice provider.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/oscarlabs/oscarr/advisor"
	"github.com/oscarlabs/oscarr/config"
	"github.com/oscarlabs/oscarr/convlog"
	"github.com/oscarlabs/oscarr/logger"
	"github.com/oscarlabs/oscarr/market"
	"github.com/oscarlabs/oscarr/schedule"
	"github.com/oscarlabs/oscarr/service"
	"github.com/oscarlabs/oscarr/voice"
	"github.com/oscarlabs/oscarr/wallet"
	"github.com/oscarlabs/oscarr/webhook"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	log.Info().Bool("demo", cfg.Demo.Enabled).Msg("starting oscarr")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("oscarr exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Wallet
	ledger := wallet.NewLedger("oscarr-wallet", decimal.NewFromFloat(cfg.Demo.InitialBalance))
	if cfg.Demo.Enabled {
		wallet.SeedDemoHistory(ledger, cfg.Demo.Seed, cfg.Advisor.LookbackDays)
		log.Info().Str("balance", ledger.Balance().String()).Msg("demo history seeded")
	}

	// Market data
	provider, stream, err := buildProvider(cfg, log)
	if err != nil {
		return err
	}
	if stream != nil {
		go func() {
			if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("ticker stream ended")
			}
		}()
	}

	detector := advisor.NewDetector(advisor.DetectorConfig{
		MinInvestment:       cfg.Advisor.MinInvestment,
		SafetyNetMultiplier: cfg.Advisor.SafetyNetMultiplier,
		ThresholdRatio:      cfg.Advisor.ThresholdRatio,
		HoldingAssetID:      cfg.Market.HoldingAssetID,
	}, provider, log)
	ranker := advisor.NewRanker(provider, cfg.Advisor.LookbackDays, log)
	analyzer := advisor.NewAnalyzer(provider, cfg.Advisor.LookbackDays, log)

	// Voice
	parser := voice.NewParser(voice.ParserConfig{
		APIKey: cfg.Anthropic.APIKey,
		Model:  cfg.Anthropic.Model,
	}, log)
	caller := voice.NewCaller(voice.CallerConfig{
		BaseURL: cfg.Voice.BaseURL,
		APIKey:  cfg.Voice.APIKey,
	}, log)

	// Persistence
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, err := convlog.NewStore(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	svc := service.New(service.Config{
		HoldingSymbol:    cfg.Market.HoldingSymbol,
		PhoneNumber:      cfg.Voice.PhoneNumber,
		WebhookURL:       cfg.Voice.WebhookURL,
		ConversationDir:  cfg.Storage.ConversationDir,
		LookbackDays:     cfg.Advisor.LookbackDays,
		MaxInvestment:    cfg.Advisor.MaxInvestment,
		IncludeMemecoins: cfg.Advisor.IncludeMemecoins,
		DryRun:           cfg.Demo.Enabled,
	}, ledger, detector, ranker, analyzer, parser, caller, store, log)

	// Daily cycle
	sched := schedule.New(ctx, schedule.RunnerFunc(func(ctx context.Context) error {
		_, err := svc.CheckUnusedFunds(ctx)
		return err
	}), log)
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()
	if cfg.Schedule.RunOnStart {
		go sched.RunNow()
	}

	// Webhook server
	srv := webhook.New(cfg.Server.ListenAddr, svc, cycleTrigger{svc}, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// buildProvider selects mock data in demo mode, the live gateway otherwise.
func buildProvider(cfg *config.Config, log zerolog.Logger) (market.Provider, *market.Stream, error) {
	if cfg.Demo.Enabled {
		return market.NewMockProvider(cfg.Demo.Seed), nil, nil
	}

	binance := market.NewBinanceClient(market.BinanceConfig{
		BaseURL: cfg.Market.BinanceBaseURL,
	}, log)
	coingecko, err := market.NewCoinGeckoClient(market.CoinGeckoConfig{
		BaseURL: cfg.Market.CoinGeckoBaseURL,
	}, log)
	if err != nil {
		return nil, nil, err
	}

	gateway := market.NewGateway(binance, coingecko)
	if !cfg.Market.StreamEnabled {
		return gateway, nil, nil
	}

	symbols := append([]string{}, advisor.StandardPairs...)
	if cfg.Advisor.IncludeMemecoins {
		symbols = append(symbols, advisor.MemecoinPairs...)
	}
	stream := market.NewStream(symbols, log)
	return gateway.WithStream(stream), stream, nil
}

// cycleTrigger adapts the service to the webhook's manual-trigger endpoint.
type cycleTrigger struct {
	svc *service.Service
}

func (t cycleTrigger) Trigger(ctx context.Context) error {
	_, err := t.svc.CheckUnusedFunds(ctx)
	return err
}
