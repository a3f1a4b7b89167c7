// Package runner executes a comparison plan with a bounded worker pool and
// feeds outcomes to the aggregator. One failing pair never stops the others;
// cancellation stops feeding new pairs and lets in-flight work drain.
package runner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"locdrift/internal/domain"
	"locdrift/internal/monitoring"
	"locdrift/internal/pair"
	"locdrift/internal/report"
	"locdrift/internal/storage"
)

// ArtifactLoader turns a pair's refs into screenshot bytes. Crawl runs render
// the target on demand; device-farm runs read files from disk.
type ArtifactLoader interface {
	Load(ctx context.Context, p domain.ComparisonPair) (source, target []byte, err error)
}

// CleanCache is the optional cross-run skip cache (see storage.CleanCache).
type CleanCache interface {
	IsClean(ctx context.Context, digest string) (bool, error)
	MarkClean(ctx context.Context, digest string, ttl time.Duration) error
}

// Runner owns the worker pool for one run.
type Runner struct {
	loader   ArtifactLoader
	oracle   domain.Oracle
	cache    CleanCache // nil disables caching
	cacheTTL time.Duration
	metrics  *monitoring.Metrics
	workers  int
	logger   *zap.Logger
}

func New(loader ArtifactLoader, oracle domain.Oracle, metrics *monitoring.Metrics, workers int, logger *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		loader:  loader,
		oracle:  oracle,
		metrics: metrics,
		workers: workers,
		logger:  logger,
	}
}

// WithCleanCache enables the cross-run clean-pair cache.
func (r *Runner) WithCleanCache(cache CleanCache, ttl time.Duration) *Runner {
	r.cache = cache
	r.cacheTTL = ttl
	return r
}

// Run processes every pair in the plan. Pre-decided slots (missing target
// artifacts) go straight to the aggregator. Returns once all workers have
// drained; on cancellation the unfed pairs stay pending in the report.
func (r *Runner) Run(ctx context.Context, plan *pair.Plan, agg *report.Aggregator) {
	for _, res := range plan.Decided {
		agg.Add(res)
		r.metrics.IncComparison(string(res.Status))
	}

	tasks := make(chan domain.ComparisonPair)
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range tasks {
				res := r.process(ctx, p)
				agg.Add(res)
				r.metrics.IncComparison(string(res.Status))
				if res.Status == domain.StatusFindings {
					r.metrics.AddFindings(len(res.Findings))
				}
			}
		}()
	}

feed:
	for _, p := range plan.Pairs {
		if ctx.Err() != nil {
			r.logger.Warn("run cancelled, draining in-flight comparisons")
			break
		}
		select {
		case tasks <- p:
		case <-ctx.Done():
			r.logger.Warn("run cancelled, draining in-flight comparisons")
			break feed
		}
	}
	close(tasks)
	wg.Wait()
}

func (r *Runner) process(ctx context.Context, p domain.ComparisonPair) domain.PairResult {
	res := domain.PairResult{
		ContextKey:   p.ContextKey,
		TargetLocale: p.TargetLocale,
		Artifact:     p.Artifact,
	}

	source, target, err := r.loader.Load(ctx, p)
	if err != nil {
		r.logger.Warn("could not load artifacts for pair",
			zap.String("context", p.ContextKey),
			zap.String("locale", p.TargetLocale),
			zap.Error(err))
		res.Status = domain.StatusFailed
		res.FailReason = err.Error()
		return res
	}

	digest := storage.PairDigest(source, target)
	if r.cache != nil {
		clean, err := r.cache.IsClean(ctx, digest)
		if err != nil {
			r.logger.Warn("clean cache lookup failed", zap.Error(err))
		} else if clean {
			r.logger.Debug("pair unchanged since last clean verdict, skipping oracle",
				zap.String("context", p.ContextKey), zap.String("locale", p.TargetLocale))
			res.Status = domain.StatusClean
			return res
		}
	}

	findings, err := r.oracle.Compare(ctx, source, target)
	if err != nil {
		res.Status = domain.StatusFailed
		res.FailReason = err.Error()
		return res
	}

	if len(findings) == 0 {
		res.Status = domain.StatusClean
		if r.cache != nil {
			if err := r.cache.MarkClean(ctx, digest, r.cacheTTL); err != nil {
				r.logger.Warn("could not record clean verdict", zap.Error(err))
			}
		}
		return res
	}

	res.Status = domain.StatusFindings
	res.Findings = findings
	return res
}
