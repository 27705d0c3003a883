package cli

import (
	"context"

	"coverdraft/internal/config"
	"coverdraft/internal/errors"

	"github.com/spf13/cobra"
)

// Unexported key types keep context values collision-free.
type configKeyType struct{}
type loggerKeyType struct{}

var (
	configKey = configKeyType{}
	loggerKey = loggerKeyType{}
)

var rootCmd = &cobra.Command{
	Use:   "coverdraft",
	Short: "A CLI tool for drafting job application content using AI",
	Long: `Coverdraft helps you apply for jobs: it parses your resume,
pulls the details out of a job listing, and drafts a personalized cover
letter and outreach email using AI. Drafts are scored for personalization
and professionalism before they reach you.`,
}

// Execute runs the CLI with config and logger reachable from every
// subcommand's context.
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok {
		panic("config not found in context")
	}
	return cfg
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	logger, ok := ctx.Value(loggerKey).(*errors.Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
