package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Fetcher sources accepted in market.symbols.
const (
	SourceStooq = "stooq"
	SourceYahoo = "yahoo"
)

// Symbol maps an internal symbol to the data source and ticker that serve it.
type Symbol struct {
	Symbol string `yaml:"symbol" validate:"required"`
	Source string `yaml:"source" validate:"oneof=stooq yahoo"`
	Ticker string `yaml:"ticker" validate:"required"`
}

// DefaultSymbols is the indicator basket used when market.symbols is empty.
var DefaultSymbols = []Symbol{
	{Symbol: "SPY", Source: SourceStooq, Ticker: "spy.us"},
	{Symbol: "QQQ", Source: SourceStooq, Ticker: "qqq.us"},
	{Symbol: "ARKK", Source: SourceStooq, Ticker: "arkk.us"},
	{Symbol: "HYG", Source: SourceStooq, Ticker: "hyg.us"},
	{Symbol: "IEF", Source: SourceStooq, Ticker: "ief.us"},
	{Symbol: "VIX", Source: SourceYahoo, Ticker: "^VIX"},
}

// Config holds all application configuration.
type Config struct {
	History struct {
		Path string `yaml:"path" default:"data/history/state_history.csv" validate:"required"`
	} `yaml:"history"`
	Output struct {
		Dir             string `yaml:"dir" default:"data/output" validate:"required"`
		MetricsTextfile string `yaml:"metrics_textfile"`
	} `yaml:"output"`
	Market struct {
		StooqBaseURL string   `yaml:"stooq_base_url" default:"https://stooq.com/q/d/l/" validate:"url"`
		YahooBaseURL string   `yaml:"yahoo_base_url" default:"https://query1.finance.yahoo.com" validate:"url"`
		Symbols      []Symbol `yaml:"symbols" validate:"dive"`
		Proxy        string   `yaml:"proxy" validate:"omitempty,url"`
	} `yaml:"market"`
	Schedule struct {
		WeeklyCron    string `yaml:"weekly_cron" default:"0 0 22 * * 5"`
		MonthlyCron   string `yaml:"monthly_cron" default:"0 0 9 1 * *"`
		QuarterlyCron string `yaml:"quarterly_cron" default:"0 30 9 1 1,4,7,10 *"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	GitHub struct {
		Token      string   `yaml:"token"`
		Repository string   `yaml:"repository" validate:"omitempty,contains=/"`
		Labels     []string `yaml:"labels"`
	} `yaml:"github"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	Backfill struct {
		Weeks int `yaml:"weeks" default:"52" validate:"gte=1,lte=520"`
	} `yaml:"backfill"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr" default:":9108"`
	} `yaml:"metrics"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}
	if len(cfg.Market.Symbols) == 0 {
		cfg.Market.Symbols = append([]Symbol(nil), DefaultSymbols...)
	}
	if len(cfg.GitHub.Labels) == 0 {
		cfg.GitHub.Labels = []string{"regime-alert"}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("GITHUB_REPOSITORY"); v != "" {
		cfg.GitHub.Repository = v
	}
	if v := os.Getenv("HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Market.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CRON_WEEKLY"); v != "" {
		cfg.Schedule.WeeklyCron = v
	}
	if v := os.Getenv("BACKFILL_WEEKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backfill.Weeks = n
		}
	}
}

// Validate checks field constraints declared in the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TelegramEnabled reports whether Telegram delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// GitHubEnabled reports whether escalation issues should be opened.
func (c *Config) GitHubEnabled() bool {
	return c.GitHub.Token != "" && c.GitHub.Repository != ""
}

// RepositoryParts splits github.repository into owner and name.
func (c *Config) RepositoryParts() (owner, name string) {
	owner, name, _ = strings.Cut(c.GitHub.Repository, "/")
	return owner, name
}
