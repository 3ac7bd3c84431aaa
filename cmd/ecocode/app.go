package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/omegabytes/ecocode-sentinel/analyzer"
	"github.com/omegabytes/ecocode-sentinel/config"
	"github.com/omegabytes/ecocode-sentinel/id"
	"github.com/omegabytes/ecocode-sentinel/impact"
	"github.com/omegabytes/ecocode-sentinel/llm"
	"github.com/omegabytes/ecocode-sentinel/metrics"
	"github.com/omegabytes/ecocode-sentinel/prompt"
	"github.com/omegabytes/ecocode-sentinel/session"
)

// app wires the analysis service from configuration.
type app struct {
	cfg       config.Config
	analyzer  *analyzer.Service
	collector *metrics.Collector
	redis     *redis.Client
}

func newApp(ctx context.Context, cfg config.Config, codeLanguage string) (*app, error) {
	if err := id.Init(cfg.NodeID); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, collector: metrics.NewCollector()}

	acc, err := a.openSession(ctx)
	if err != nil {
		return nil, err
	}

	client, err := llm.New(cfg.LLM.Client())
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLM.Provider.DisplayName(), err)
	}

	builder := prompt.NewBuilder(cfg.Server)
	if codeLanguage != "" {
		builder = builder.WithCodeLanguage(codeLanguage)
	}

	a.analyzer = analyzer.New(impact.NewCalculator(cfg.Server), client, acc,
		analyzer.WithCollector(a.collector),
		analyzer.WithMaxSourceBytes(cfg.MaxSourceBytes),
		analyzer.WithBuilder(builder),
	)

	totals := acc.Snapshot()
	a.collector.SetSessionTotals(totals.TotalEnergyKWH, totals.TotalCO2Kg)
	slog.InfoContext(ctx, "analysis service ready",
		"provider", client.Provider(),
		"model", client.Model(),
		"persistent_session", cfg.Session.Persistent())
	return a, nil
}

// openSession restores the configured session from Redis, or starts an in-memory one.
func (a *app) openSession(ctx context.Context) (*session.Accumulator, error) {
	if !a.cfg.Session.Persistent() {
		return session.NewAccumulator(nil), nil
	}

	opts, err := redis.ParseURL(a.cfg.Session.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	a.redis = redis.NewClient(opts)
	if err := a.redis.Ping(ctx).Err(); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	acc, err := session.Restore(ctx, session.NewRedisStore(a.redis, a.cfg.Session.Name, slog.Default()))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	slog.InfoContext(ctx, "redis connected", "session", a.cfg.Session.Name)
	return acc, nil
}

func (a *app) Close() error {
	if a.redis == nil {
		return nil
	}
	err := a.redis.Close()
	a.redis = nil
	if err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
