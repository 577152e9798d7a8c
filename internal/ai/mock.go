package ai

import (
	"context"
	"strings"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/bant"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/models"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/utils"
)

// MockAdapter is a deterministic stand-in used in tests and AI-less
// deployments. It re-runs the pattern battery over the turn window, so its
// answers always agree with the fast path.
type MockAdapter struct {
	ModelVersion string
}

func (m MockAdapter) model() string {
	if m.ModelVersion == "" {
		return "mock-v1"
	}
	return m.ModelVersion
}

func (m MockAdapter) usage(input string) Usage {
	h := utils.HashStringToUint64(input)
	return Usage{
		Model:            m.model(),
		PromptTokens:     len(input)/4 + 1,
		CompletionTokens: int(h%40) + 10,
	}
}

func (m MockAdapter) ClassifyIntent(ctx context.Context, text string) (Intent, Usage, error) {
	usage := m.usage(text)
	lower := strings.ToLower(text)
	switch {
	case bant.IsGreeting(text):
		return IntentGreeting, usage, nil
	case strings.Contains(lower, "actually") || strings.Contains(lower, "i meant"):
		return IntentCorrection, usage, nil
	case strings.Contains(lower, "price") || strings.Contains(lower, "how much") || strings.Contains(lower, "estimate"):
		return IntentPriceInquiry, usage, nil
	case bant.Classify(text, bant.MatchContext{}).IsAnswer || strings.Contains(lower, "buy"):
		return IntentBANT, usage, nil
	}
	return IntentOther, usage, nil
}

func (m MockAdapter) ExtractBANT(ctx context.Context, history []models.Turn, prior models.BANTState) (models.BANTState, Usage, error) {
	tracker := bant.NewTracker(prior)
	var window strings.Builder
	for _, t := range history {
		window.WriteString(t.Text)
		if t.Sender != models.SenderUser {
			continue
		}
		mctx := bant.MatchContext{}
		if f, ok := tracker.NextField(); ok {
			mctx.LastQuestion = f
		}
		tracker.Merge(bant.Classify(t.Text, mctx).Matches)
	}
	return tracker.State(), m.usage(window.String()), nil
}

func (m MockAdapter) NormalizeBANT(ctx context.Context, raw models.BANTState) (models.NormalizedBANT, Usage, error) {
	var parts []string
	for _, p := range []*string{raw.Budget, raw.Authority, raw.Need, raw.Timeline} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	return bant.Fallback(raw), m.usage(strings.Join(parts, "|")), nil
}
