package ai

import (
	"context"

	"coverdraft/internal/types"
)

// AIProvider abstracts the model backend used for draft generation.
// Token usage is reported alongside the draft so callers can surface
// cost information; it may be ignored.
type AIProvider interface {
	GenerateDraft(ctx context.Context, req types.GenerationRequest) (types.GeneratedDraft, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
