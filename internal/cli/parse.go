package cli

import (
	"context"
	"fmt"

	"coverdraft/internal/ai"
	"coverdraft/internal/common"
	"coverdraft/internal/generate"
	"coverdraft/internal/types"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [resume-file]",
	Short: "Parse a resume into a structured candidate profile",
	Long: `Extract text from a resume document (PDF, DOCX, or plain text) and
parse it into a structured candidate profile: name, contact details,
skills, experience, and education. Parsing is heuristic; fields that
cannot be recovered are left empty rather than guessed.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if parseConfig.OutputFormat == "" {
			parseConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(parseConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runParse,
}

var parseConfig common.CommandConfig

func init() {
	parseCmd.Flags().StringVarP(&parseConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	parseCmd.Flags().StringVar(&parseConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = parseCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Parsing is local, no AI service required
	pipeline := generate.NewPipeline(cfg, nil, logger)
	fileProcessor := common.NewFileProcessor(logger)

	resumeData, err := fileProcessor.ReadDocument(args[0])
	if err != nil {
		return err
	}

	err = common.RunPipelineCommand(
		cmd.Context(),
		logger,
		parseConfig,
		func(ctx context.Context) (types.CandidateProfile, *ai.TokenUsage, error) {
			profile, err := pipeline.ParseResume(resumeData, args[0])
			return profile, nil, err
		},
	)

	if err != nil {
		return fmt.Errorf("failed to parse resume: %w", err)
	}
	return nil
}
