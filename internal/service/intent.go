package service

import (
	"strings"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/ai"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/bant"
)

var priceKeywords = []string{
	"price", "how much", "cost", "estimate", "magkano", "rates", "per sqm",
}

var correctionKeywords = []string{
	"actually", "i meant", "i mean", "change my", "correction", "instead of", "not anymore",
}

var buyKeywords = []string{
	"buy", "looking for", "interested in", "purchase", "house", "condo", "property", "lot",
}

// classifyFast is the keyword path. The bool reports whether the result is
// conclusive; inconclusive messages may be handed to the general classifier.
func classifyFast(text string, mctx bant.MatchContext) (ai.Intent, bool) {
	lower := strings.ToLower(text)

	if bant.IsGreeting(text) {
		return ai.IntentGreeting, true
	}
	for _, k := range correctionKeywords {
		if strings.Contains(lower, k) {
			return ai.IntentCorrection, true
		}
	}
	for _, k := range priceKeywords {
		if strings.Contains(lower, k) {
			return ai.IntentPriceInquiry, true
		}
	}
	if bant.Classify(text, mctx).IsAnswer {
		return ai.IntentBANT, true
	}
	for _, k := range buyKeywords {
		if strings.Contains(lower, k) {
			return ai.IntentBANT, true
		}
	}
	return ai.IntentOther, false
}
