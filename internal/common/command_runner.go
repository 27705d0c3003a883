package common

import (
	"context"
	"fmt"
	"os"

	"coverdraft/internal/ai"
	"coverdraft/internal/errors"
)

// RunFunc produces a command result along with optional AI token usage.
type RunFunc[Output any] func(ctx context.Context) (Output, *ai.TokenUsage, error)

// RunPipelineCommand runs one pipeline step for a CLI command, reports
// any token usage, and writes the formatted result.
func RunPipelineCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	run RunFunc[Output],
) error {
	result, tokenUsage, err := run(ctx)
	if err != nil {
		return err
	}

	if tokenUsage != nil {
		reportTokenUsage(logger, tokenUsage)
	}
	return NewOutputHandler(logger).HandleOutput(result, cmdConfig)
}

func reportTokenUsage(logger *errors.Logger, usage *ai.TokenUsage) {
	if logger != nil {
		logger.Info("AI token usage",
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"total_tokens", usage.TotalTokens)
		return
	}
	fmt.Fprintf(os.Stderr, "AI token usage: input=%d, output=%d, total=%d\n",
		usage.InputTokens, usage.OutputTokens, usage.TotalTokens)
}
