package cli

import (
	"context"
	"fmt"

	"coverdraft/internal/ai"
	"coverdraft/internal/common"
	"coverdraft/internal/generate"
	"coverdraft/internal/jobpost"
	"coverdraft/internal/types"

	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [job-url]",
	Short: "Scrape a job listing into structured fields",
	Long: `Fetch a job listing page and extract its title, company, location,
description, requirements, and hiring contact. Scraping is best-effort:
heavily scripted listing pages may not yield usable fields, in which case
the generate command accepts the job details as flags instead.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if scrapeConfig.OutputFormat == "" {
			scrapeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		if err := jobpost.ValidateURL(args[0]); err != nil {
			return err
		}
		return common.ValidateOutputFormat(scrapeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScrape,
}

var scrapeConfig common.CommandConfig

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	scrapeCmd.Flags().StringVar(&scrapeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = scrapeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Scraping is local, no AI service required
	pipeline := generate.NewPipeline(cfg, nil, logger)

	err := common.RunPipelineCommand(
		cmd.Context(),
		logger,
		scrapeConfig,
		func(ctx context.Context) (types.JobPosting, *ai.TokenUsage, error) {
			job, err := pipeline.ResolveJob(ctx, args[0])
			return job, nil, err
		},
	)

	if err != nil {
		if jobpost.IsManualEntryRequired(err) {
			return fmt.Errorf("could not extract usable job fields from %s; use the generate command's --job-title and --job-description flags instead: %w", args[0], err)
		}
		return fmt.Errorf("failed to scrape job listing: %w", err)
	}
	return nil
}
