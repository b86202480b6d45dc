package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"RegimeWatch/internal/collector"
	"RegimeWatch/internal/config"
	"RegimeWatch/internal/engine"
	"RegimeWatch/internal/history"
	"RegimeWatch/internal/metrics"
	"RegimeWatch/internal/notifier"
	"RegimeWatch/internal/recorder"
)

// app holds the components built from the configuration.
type app struct {
	cfg       *config.Config
	engine    *engine.Engine
	collector *collector.Collector
	telegram  *notifier.TelegramNotifier
	metrics   *metrics.Metrics
	recorder  recorder.Recorder
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}

	stooq := collector.NewStooqFetcher(cfg.Market.StooqBaseURL, cfg.Market.Proxy)
	yahoo := collector.NewYahooFetcher(cfg.Market.Proxy)
	yahoo.BaseURL = cfg.Market.YahooBaseURL
	var sources []collector.Source
	for _, sym := range cfg.Market.Symbols {
		src := collector.Source{Symbol: sym.Symbol, Ticker: sym.Ticker, Fetcher: stooq}
		if sym.Source == config.SourceYahoo {
			src.Fetcher = yahoo
		}
		sources = append(sources, src)
	}
	a.collector = collector.NewCollector(sources...)

	var channels notifier.Multi
	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Market.Proxy)
		channels = append(channels, a.telegram)
	}
	if cfg.GitHubEnabled() {
		owner, repo := cfg.RepositoryParts()
		channels = append(channels, notifier.NewGitHubNotifier(ctx, cfg.GitHub.Token, owner, repo, cfg.GitHub.Labels))
	}
	var n notifier.Notifier = notifier.Noop{}
	if len(channels) > 0 {
		n = channels
	}
	log.Info().Int("channels", len(channels)).Msg("notifiers configured")

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.recorder = sr
		}
	}

	store := history.NewCSVStore(cfg.History.Path)
	a.engine = engine.New(store, cfg.Output.Dir)
	a.engine.Notifier = n
	a.engine.Recorder = a.recorder
	a.engine.Metrics = a.metrics
	a.engine.MetricsTextfile = cfg.Output.MetricsTextfile
	return a, nil
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		log.Warn().Err(err).Msg("close recorder")
	}
}

func (a *app) String() string {
	return fmt.Sprintf("history=%s output=%s symbols=%d", a.cfg.History.Path, a.cfg.Output.Dir, len(a.cfg.Market.Symbols))
}
