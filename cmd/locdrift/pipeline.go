package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"locdrift/internal/config"
	"locdrift/internal/domain"
	"locdrift/internal/monitoring"
	"locdrift/internal/oracle"
	"locdrift/internal/pair"
	"locdrift/internal/report"
	"locdrift/internal/runner"
	"locdrift/internal/storage"
)

// parseLocales validates the run's locale set. Zero target locales is an
// unrecoverable setup failure.
func parseLocales(source string, targets []string) (domain.Locales, error) {
	if source == "" {
		return domain.Locales{}, fmt.Errorf("%w: source locale must be set", domain.ErrConfiguration)
	}
	if len(targets) == 0 {
		return domain.Locales{}, fmt.Errorf("%w: at least one target locale is required", domain.ErrConfiguration)
	}
	seen := map[string]struct{}{source: {}}
	for _, t := range targets {
		if t == "" {
			return domain.Locales{}, fmt.Errorf("%w: empty target locale", domain.ErrConfiguration)
		}
		if _, dup := seen[t]; dup {
			return domain.Locales{}, fmt.Errorf("%w: locale %q listed twice", domain.ErrConfiguration, t)
		}
		seen[t] = struct{}{}
	}
	return domain.Locales{Source: source, Targets: targets}, nil
}

func newOracle(ctx context.Context, cfg *config.Config) (domain.Oracle, error) {
	client, err := oracle.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.OracleModel, "", logger)
	if err != nil {
		return nil, err
	}
	return oracle.WithRetry(client, cfg.MaxRetries,
		time.Duration(cfg.RetryBackoff)*time.Second, logger).
		WithCallTimeout(time.Duration(cfg.OracleTimeout) * time.Second), nil
}

// pipeline bundles the run-wide collaborators: metrics (plus the optional
// scrape endpoint), the optional clean cache, and the optional run store.
type pipeline struct {
	cfg        *config.Config
	metrics    *monitoring.Metrics
	metricsSrv *monitoring.Server
	cache      *storage.CleanCache
	store      *storage.RunStore
}

func newPipeline(cfg *config.Config) *pipeline {
	registry := prometheus.NewRegistry()
	p := &pipeline{cfg: cfg, metrics: monitoring.NewMetrics(registry)}

	if cfg.MetricsAddr != "" {
		p.metricsSrv = monitoring.NewServer(cfg.MetricsAddr, registry, logger)
		go func() {
			if err := p.metricsSrv.Start(); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}
	if cfg.RedisAddr != "" {
		p.cache = storage.NewCleanCache(cfg.RedisAddr)
	}
	if cfg.PostgresURL != "" {
		store, err := storage.NewRunStore(cfg.PostgresURL)
		if err != nil {
			logger.Warn("run history disabled", zap.Error(err))
		} else {
			p.store = store
		}
	}
	return p
}

// execute runs the plan, writes the report to stdout, and persists history
// when configured. Findings never make the command fail.
func (p *pipeline) execute(ctx context.Context, mode string, plan *pair.Plan, loader runner.ArtifactLoader, orc domain.Oracle, meta report.Meta) error {
	agg := report.NewAggregator(plan.Order)

	run := runner.New(loader, orc, p.metrics, p.cfg.CompareWorkers, logger)
	if p.cache != nil {
		ttl := time.Duration(p.cfg.CleanCacheDays) * 24 * time.Hour
		run = run.WithCleanCache(p.cache, ttl)
	}
	run.Run(ctx, plan, agg)

	rep := agg.Render(meta)
	if err := report.Write(os.Stdout, rep); err != nil {
		return err
	}

	if p.store != nil {
		// Persist with a fresh context: the run deadline may already be spent.
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.store.SaveRun(saveCtx, mode, rep); err != nil {
			logger.Warn("could not persist run history", zap.Error(err))
		}
	}
	return nil
}

func (p *pipeline) shutdown() {
	if p.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.metricsSrv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}
	if p.store != nil {
		p.store.Close()
	}
}
