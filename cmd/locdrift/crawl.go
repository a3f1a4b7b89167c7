package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"locdrift/internal/config"
	"locdrift/internal/discover"
	"locdrift/internal/domain"
	"locdrift/internal/locale"
	"locdrift/internal/pair"
	"locdrift/internal/render"
	"locdrift/internal/report"
	"locdrift/internal/runner"
)

var (
	crawlSource   string
	crawlTargets  []string
	crawlMaxPages int
	crawlOut      string
	crawlTimeout  time.Duration
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <base-url>",
	Short: "Crawl a site in the source locale and compare every page against each target locale",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		locs, err := parseLocales(crawlSource, crawlTargets)
		if err != nil {
			return err
		}
		resolver, err := locale.NewURLResolver(args[0], locs)
		if err != nil {
			return err
		}
		if crawlOut != "" {
			if err := os.MkdirAll(crawlOut, 0o755); err != nil {
				return fmt.Errorf("%w: creating output directory: %v", domain.ErrConfiguration, err)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if crawlTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, crawlTimeout)
			defer cancel()
		}

		orc, err := newOracle(ctx, cfg)
		if err != nil {
			return err
		}

		p := newPipeline(cfg)
		defer p.shutdown()

		renderer := render.NewChromedp(time.Duration(cfg.PageLoadTimeout)*time.Second, logger)
		discoverer := discover.New(resolver, renderer, locs, cfg.CompareWorkers, logger)

		logger.Info("starting crawl",
			zap.String("root", args[0]),
			zap.String("source", locs.Source),
			zap.Strings("targets", locs.Targets),
			zap.Int("max_pages", crawlMaxPages))

		res, err := discoverer.Discover(ctx, args[0], crawlMaxPages)
		if err != nil {
			return err
		}
		for range res.Pages {
			p.metrics.IncPagesDiscovered()
		}

		plan := pair.FromCrawl(res, resolver, locs)
		loader := runner.NewCrawlLoader(renderer, res.Screenshots(), locs, crawlOut, logger)
		meta := report.Meta{ContextLabel: "Route", HeaderLabel: "Pages crawled", HeaderCount: len(res.Pages)}
		return p.execute(ctx, "crawl", plan, loader, orc, meta)
	},
}

func init() {
	crawlCmd.Flags().StringVar(&crawlSource, "source", "", "source locale code (required)")
	crawlCmd.Flags().StringSliceVar(&crawlTargets, "targets", nil, "target locale codes (required)")
	crawlCmd.Flags().IntVar(&crawlMaxPages, "max-pages", 25, "hard cap on pages to discover")
	crawlCmd.Flags().StringVar(&crawlOut, "out", "", "directory to persist screenshots into")
	crawlCmd.Flags().DurationVar(&crawlTimeout, "timeout", 0, "overall run deadline (0 = none)")
	_ = crawlCmd.MarkFlagRequired("source")
	_ = crawlCmd.MarkFlagRequired("targets")
}
