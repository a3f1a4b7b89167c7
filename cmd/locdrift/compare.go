package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"locdrift/internal/config"
	"locdrift/internal/domain"
	"locdrift/internal/oracle"
)

var comparePrompt string

var compareCmd = &cobra.Command{
	Use:   "compare <source.png> <target.png>",
	Short: "Compare one source/target screenshot pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("%w: reading source screenshot: %v", domain.ErrConfiguration, err)
		}
		target, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("%w: reading target screenshot: %v", domain.ErrConfiguration, err)
		}

		ctx := cmd.Context()
		client, err := oracle.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.OracleModel, comparePrompt, logger)
		if err != nil {
			return err
		}
		orc := oracle.WithRetry(client, cfg.MaxRetries,
			time.Duration(cfg.RetryBackoff)*time.Second, logger).
			WithCallTimeout(time.Duration(cfg.OracleTimeout) * time.Second)

		findings, err := orc.Compare(ctx, source, target)
		if err != nil {
			return err
		}

		if len(findings) == 0 {
			fmt.Println("No localization issues detected.")
			return nil
		}
		for _, f := range findings {
			switch {
			case f.Location != "" && f.Remediation != "":
				fmt.Printf("- %s: %s → %s\n", f.Location, f.Issue, f.Remediation)
			case f.Location != "":
				fmt.Printf("- %s: %s\n", f.Location, f.Issue)
			default:
				fmt.Printf("- %s\n", f.Issue)
			}
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&comparePrompt, "prompt", "", "override the default QA prompt")
}
