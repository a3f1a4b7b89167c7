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
	"locdrift/internal/devicefarm"
	"locdrift/internal/domain"
	"locdrift/internal/pair"
	"locdrift/internal/report"
	"locdrift/internal/runner"
)

var (
	ftlSource  string
	ftlTargets []string
	ftlTimeout time.Duration
)

var ftlCmd = &cobra.Command{
	Use:   "ftl-analyze <results-dir>",
	Short: "Analyze a device-farm results directory across locales",
	Long: `Analyze screenshots captured by a device-farm run.

The results directory must contain one subdirectory per device/locale
combination, named <model>-<platformVersion>-<locale>-<orientation>,
each holding that run's PNG screenshots.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		locs, err := parseLocales(ftlSource, ftlTargets)
		if err != nil {
			return err
		}

		entries, err := os.ReadDir(args[0])
		if err != nil {
			return fmt.Errorf("%w: reading results directory: %v", domain.ErrConfiguration, err)
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() {
				names = append(names, e.Name())
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if ftlTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, ftlTimeout)
			defer cancel()
		}

		orc, err := newOracle(ctx, cfg)
		if err != nil {
			return err
		}

		p := newPipeline(cfg)
		defer p.shutdown()

		groups := devicefarm.GroupRuns(names, logger)
		manifests, err := devicefarm.BuildManifests(args[0], groups, locs, logger)
		if err != nil {
			return err
		}
		logger.Info("analyzing device-farm results",
			zap.String("dir", args[0]),
			zap.Int("run_groups", len(manifests)),
			zap.Strings("targets", locs.Targets))

		plan := pair.FromRunGroups(args[0], manifests, locs)
		meta := report.Meta{ContextLabel: "Group", HeaderLabel: "Run groups", HeaderCount: len(manifests)}
		return p.execute(ctx, "ftl-analyze", plan, runner.FileLoader{}, orc, meta)
	},
}

func init() {
	ftlCmd.Flags().StringVar(&ftlSource, "source", "", "source locale code (required)")
	ftlCmd.Flags().StringSliceVar(&ftlTargets, "targets", nil, "target locale codes (required)")
	ftlCmd.Flags().DurationVar(&ftlTimeout, "timeout", 0, "overall run deadline (0 = none)")
	_ = ftlCmd.MarkFlagRequired("source")
	_ = ftlCmd.MarkFlagRequired("targets")
}
