package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"BinaryTrade/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Market struct {
		DefaultAsset     string `yaml:"default_asset"`
		DefaultTimeframe string `yaml:"default_timeframe"`
		TickIntervalMs   int    `yaml:"tick_interval_ms"`
	} `yaml:"market"`
	Account struct {
		InitialBalance float64 `yaml:"initial_balance"`
		StateFile      string  `yaml:"state_file"`
	} `yaml:"account"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		SweepCron string `yaml:"sweep_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
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
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DEFAULT_ASSET"); v != "" {
		cfg.Market.DefaultAsset = v
	}
	if v := os.Getenv("DEFAULT_TIMEFRAME"); v != "" {
		cfg.Market.DefaultTimeframe = v
	}
	if v := os.Getenv("INITIAL_BALANCE"); v != "" {
		var balance float64
		if _, err := fmt.Sscanf(v, "%f", &balance); err == nil {
			cfg.Account.InitialBalance = balance
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SWEEP_CRON"); v != "" {
		cfg.Schedule.SweepCron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Market.DefaultAsset == "" {
		cfg.Market.DefaultAsset = "bitcoin"
	}
	if cfg.Market.DefaultTimeframe == "" {
		cfg.Market.DefaultTimeframe = "1m"
	}
	if cfg.Market.TickIntervalMs == 0 {
		cfg.Market.TickIntervalMs = 500
	}
	if cfg.Account.InitialBalance == 0 {
		cfg.Account.InitialBalance = 10000
	}
	if cfg.Account.StateFile == "" {
		cfg.Account.StateFile = "data/balance.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/binarytrade.db"
	}
	if cfg.Schedule.SweepCron == "" {
		cfg.Schedule.SweepCron = "*/5 * * * * *"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and coherent.
func (c *Config) Validate() error {
	if _, err := model.ParseTimeframe(c.Market.DefaultTimeframe); err != nil {
		return fmt.Errorf("market.default_timeframe: %w", err)
	}
	if c.Market.TickIntervalMs <= 0 {
		return fmt.Errorf("market.tick_interval_ms must be positive")
	}
	if c.Account.InitialBalance < 0 {
		return fmt.Errorf("account.initial_balance must not be negative")
	}
	if c.Account.StateFile == "" {
		return fmt.Errorf("account.state_file is required")
	}
	return nil
}
