package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Anthropic struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"anthropic"`
	Voice struct {
		APIKey      string `yaml:"api_key"`
		BaseURL     string `yaml:"base_url"`
		PhoneNumber string `yaml:"phone_number"`
		WebhookURL  string `yaml:"webhook_url"`
	} `yaml:"voice"`
	Market struct {
		BinanceBaseURL   string `yaml:"binance_base_url"`
		CoinGeckoBaseURL string `yaml:"coingecko_base_url"`
		HoldingAssetID   string `yaml:"holding_asset_id"`
		HoldingSymbol    string `yaml:"holding_symbol"`
		StreamEnabled    bool   `yaml:"stream_enabled"`
	} `yaml:"market"`
	Advisor struct {
		MinInvestment       float64 `yaml:"min_investment"`
		MaxInvestment       float64 `yaml:"max_investment"`
		SafetyNetMultiplier float64 `yaml:"safety_net_multiplier"`
		ThresholdRatio      float64 `yaml:"threshold_ratio"`
		LookbackDays        int     `yaml:"lookback_days"`
		IncludeMemecoins    bool    `yaml:"include_memecoins"`
	} `yaml:"advisor"`
	Schedule struct {
		DailyCron  string `yaml:"daily_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Storage struct {
		ConversationDir string `yaml:"conversation_dir"`
		SQLitePath      string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Demo struct {
		Enabled        bool    `yaml:"enabled"`
		Seed           int64   `yaml:"seed"`
		InitialBalance float64 `yaml:"initial_balance"`
	} `yaml:"demo"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Anthropic.APIKey = v
	}
	if v := os.Getenv("VOICE_API_KEY"); v != "" {
		cfg.Voice.APIKey = v
	}
	if v := os.Getenv("USER_PHONE_NUMBER"); v != "" {
		cfg.Voice.PhoneNumber = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		cfg.Voice.WebhookURL = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DEMO_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Demo.Enabled = b
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Anthropic.Model == "" {
		cfg.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Voice.BaseURL == "" {
		cfg.Voice.BaseURL = "https://api.bland.ai"
	}
	if cfg.Market.BinanceBaseURL == "" {
		cfg.Market.BinanceBaseURL = "https://api.binance.com"
	}
	if cfg.Market.CoinGeckoBaseURL == "" {
		cfg.Market.CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Market.HoldingAssetID == "" {
		cfg.Market.HoldingAssetID = "matic-network"
	}
	if cfg.Market.HoldingSymbol == "" {
		cfg.Market.HoldingSymbol = "POL"
	}
	if cfg.Advisor.MinInvestment == 0 {
		cfg.Advisor.MinInvestment = 100
	}
	if cfg.Advisor.MaxInvestment == 0 {
		cfg.Advisor.MaxInvestment = 10000
	}
	if cfg.Advisor.SafetyNetMultiplier == 0 {
		cfg.Advisor.SafetyNetMultiplier = 3
	}
	if cfg.Advisor.ThresholdRatio == 0 {
		cfg.Advisor.ThresholdRatio = 0.5
	}
	if cfg.Advisor.LookbackDays == 0 {
		cfg.Advisor.LookbackDays = 30
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 9 * * *"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":5000"
	}
	if cfg.Storage.ConversationDir == "" {
		cfg.Storage.ConversationDir = "conversations"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/oscarr.db"
	}
	if cfg.Demo.InitialBalance == 0 {
		cfg.Demo.InitialBalance = 1000
	}
}

// Validate checks that all required fields are set. Demo mode relaxes the
// external credential requirements so the advisor can run offline.
func (c *Config) Validate() error {
	if !c.Demo.Enabled {
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("anthropic.api_key is required")
		}
		if c.Voice.APIKey == "" {
			return fmt.Errorf("voice.api_key is required")
		}
		if c.Voice.PhoneNumber == "" {
			return fmt.Errorf("voice.phone_number is required")
		}
	}
	if c.Advisor.MinInvestment <= 0 {
		return fmt.Errorf("advisor.min_investment must be positive")
	}
	if c.Advisor.MaxInvestment < c.Advisor.MinInvestment {
		return fmt.Errorf("advisor.max_investment must be >= min_investment")
	}
	if c.Advisor.SafetyNetMultiplier <= 0 {
		return fmt.Errorf("advisor.safety_net_multiplier must be positive")
	}
	if c.Advisor.LookbackDays <= 0 {
		return fmt.Errorf("advisor.lookback_days must be positive")
	}
	return nil
}
