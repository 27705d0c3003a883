package cli

import (
	"context"
	"fmt"
	"strings"

	"coverdraft/internal/ai"
	"coverdraft/internal/common"
	"coverdraft/internal/errors"
	"coverdraft/internal/generate"
	"coverdraft/internal/jobpost"
	"coverdraft/internal/types"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [resume-file]",
	Short: "Generate a cover letter and outreach email for a job",
	Long: `Generate a personalized cover letter and outreach email using AI.
The command takes the path to your resume (PDF, DOCX, or plain text) and
the job to apply for, given either as a listing URL (--job-url) or entered
manually (--job-title and --job-description, plus optional detail flags).

When a listing URL cannot be scraped the command falls back to the manual
flags if they are provided.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if generateConfig.OutputFormat == "" {
			generateConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(generateConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runGenerate,
}

var generateConfig common.CommandConfig

var generateFlags struct {
	jobURL         string
	jobTitle       string
	jobCompany     string
	jobLocation    string
	jobDescription string
	contactName    string
	contactEmail   string
	tone           string
	style          string
}

func init() {
	generateCmd.Flags().StringVarP(&generateConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	generateCmd.Flags().StringVar(&generateConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	generateCmd.Flags().StringVar(&generateFlags.jobURL, "job-url", "", "Job listing URL to scrape")
	generateCmd.Flags().StringVar(&generateFlags.jobTitle, "job-title", "", "Job title (manual entry)")
	generateCmd.Flags().StringVar(&generateFlags.jobCompany, "job-company", "", "Company name (manual entry)")
	generateCmd.Flags().StringVar(&generateFlags.jobLocation, "job-location", "", "Job location (manual entry)")
	generateCmd.Flags().StringVar(&generateFlags.jobDescription, "job-description", "", "Job description text or @file to read from a file (manual entry)")
	generateCmd.Flags().StringVar(&generateFlags.contactName, "contact-name", "", "Hiring contact name")
	generateCmd.Flags().StringVar(&generateFlags.contactEmail, "contact-email", "", "Hiring contact email")
	generateCmd.Flags().StringVar(&generateFlags.tone, "tone", "", "Writing tone: professional, warm, concise, or custom")
	generateCmd.Flags().StringVar(&generateFlags.style, "style", "", "Free-form style instructions (implies --tone custom)")

	// Add completion for format flag
	_ = generateCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
	_ = generateCmd.RegisterFlagCompletionFunc("tone", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"professional", "warm", "concise", "custom"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	generateAIConfig := cfg.GetGenerateConfig()
	aiService, err := ai.NewService(&generateAIConfig, cfg.Content, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	pipeline := generate.NewPipeline(cfg, aiService, logger)
	fileProcessor := common.NewFileProcessor(logger)

	resumeData, err := fileProcessor.ReadDocument(args[0])
	if err != nil {
		return err
	}

	candidate, err := pipeline.ParseResume(resumeData, args[0])
	if err != nil {
		return fmt.Errorf("failed to parse resume: %w", err)
	}

	job, err := resolveJobInput(cmd.Context(), pipeline, fileProcessor, logger)
	if err != nil {
		return err
	}

	tone := generateFlags.tone
	if generateFlags.style != "" && tone == "" {
		tone = string(types.ToneCustom)
	}

	logger.Info("Starting draft generation",
		"candidate", candidate.Name,
		"company", job.Company,
		"title", job.Title,
		"output_format", generateConfig.OutputFormat)

	err = common.RunPipelineCommand(
		cmd.Context(),
		logger,
		generateConfig,
		func(ctx context.Context) (types.GenerationResult, *ai.TokenUsage, error) {
			return pipeline.Generate(ctx, candidate, job, types.Tone(tone), generateFlags.style)
		},
	)

	if err != nil {
		return fmt.Errorf("failed to generate drafts: %w", err)
	}
	logger.Info("Draft generation completed successfully")
	return nil
}

// resolveJobInput picks between the scrape path and manual entry. A URL
// that cannot be scraped falls back to the manual flags when present.
func resolveJobInput(ctx context.Context, pipeline *generate.Pipeline, fp *common.FileProcessor, logger *errors.Logger) (types.JobPosting, error) {
	manual, manualErr := manualJobFields(fp)

	if generateFlags.jobURL != "" {
		job, err := pipeline.ResolveJob(ctx, generateFlags.jobURL)
		if err == nil {
			return job, nil
		}
		if !jobpost.IsManualEntryRequired(err) {
			return types.JobPosting{}, err
		}
		if !manualFlagsPresent() {
			return types.JobPosting{}, fmt.Errorf("could not scrape %s; re-run with --job-title and --job-description to enter the job manually: %w", generateFlags.jobURL, err)
		}
		logger.Warn("Job listing could not be scraped, using manual entry",
			"url", generateFlags.jobURL,
			"error", err.Error())
	} else if !manualFlagsPresent() {
		return types.JobPosting{}, fmt.Errorf("no job given: provide --job-url or --job-title and --job-description")
	}

	if manualErr != nil {
		return types.JobPosting{}, manualErr
	}
	return pipeline.JobFromManual(manual)
}

func manualFlagsPresent() bool {
	return generateFlags.jobTitle != "" || generateFlags.jobDescription != ""
}

// manualJobFields assembles the manual-entry fields, expanding an
// @file job description into the file's contents.
func manualJobFields(fp *common.FileProcessor) (jobpost.ManualFields, error) {
	description := generateFlags.jobDescription
	if strings.HasPrefix(description, "@") {
		content, err := fp.ReadFile(strings.TrimPrefix(description, "@"))
		if err != nil {
			return jobpost.ManualFields{}, err
		}
		description = content
	}

	return jobpost.ManualFields{
		Title:        generateFlags.jobTitle,
		Company:      generateFlags.jobCompany,
		Location:     generateFlags.jobLocation,
		Description:  description,
		ContactName:  generateFlags.contactName,
		ContactEmail: generateFlags.contactEmail,
	}, nil
}
