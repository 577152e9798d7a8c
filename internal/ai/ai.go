package ai

import (
	"context"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/models"
)

// Usage is the token accounting for one model call, reported fire-and-forget
// to the analytics sink.
type Usage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	Model            string `json:"model"`
}

type Intent string

const (
	IntentGreeting     Intent = "greeting"
	IntentBANT         Intent = "bant"
	IntentPriceInquiry Intent = "price_inquiry"
	IntentCorrection   Intent = "correction"
	IntentOther        Intent = "other"
)

// Adapter is the language-model collaborator. Implementations must be safe
// for concurrent use across conversations.
type Adapter interface {
	// ClassifyIntent labels one message. Used only when the fast keyword
	// path is inconclusive.
	ClassifyIntent(ctx context.Context, text string) (Intent, Usage, error)

	// ExtractBANT returns a best-effort full extraction from the trailing
	// turn window plus the current state. Fields hold literal fragments of
	// user text, nil when the conversation has not supplied them.
	ExtractBANT(ctx context.Context, history []models.Turn, prior models.BANTState) (models.BANTState, Usage, error)

	// NormalizeBANT maps raw slot text onto the closed enum domains. The
	// caller validates the output; out-of-domain values are discarded.
	NormalizeBANT(ctx context.Context, raw models.BANTState) (models.NormalizedBANT, Usage, error)
}
