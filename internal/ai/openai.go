package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/models"
)

// OpenAICompatAdapter talks to any OpenAI-compatible chat-completions
// endpoint. Normalization runs at temperature zero with a closed-set output
// contract so the same raw state always normalizes the same way.
type OpenAICompatAdapter struct {
	BaseURL   string
	Model     string
	APIKey    string
	MaxTokens int
	Client    *http.Client
}

type RateLimitError struct {
	RetryAfter time.Duration
}

func (r RateLimitError) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", r.RetryAfter)
	}
	return "rate limited"
}

const intentPrompt = `You classify one chat message from a prospective property buyer.
Reply with exactly one word from: greeting, bant, price_inquiry, correction, other.
- greeting: salutations with no content
- bant: contains budget, decision authority, purpose, timeline, or contact details
- price_inquiry: asks about listing prices or estimates
- correction: changes a previously given answer ("actually...", "I meant...")
- other: anything else`

const extractPrompt = `You extract BANT qualification slots from a property-buyer conversation.
Given the transcript and the currently known slots, return JSON with keys
"budget", "authority", "need", "timeline", "contact". Each value is the literal
fragment of USER text that answers the slot, or null if not supplied yet.
Keep already-known values unless the user explicitly corrected them.
Return only the JSON object.`

const normalizePrompt = `You normalize raw property-buyer answers onto fixed enums.
Return JSON with keys "budget", "authority", "need", "timeline".
Allowed values, or null when the raw text is absent or unmappable:
- budget: "low" | "medium" | "high"  (amounts in PHP; ranges use the UPPER bound; >=30M high, >=10M medium, else low)
- authority: "individual" | "shared"
- need: "residence" | "investment" | "resale"
- timeline: "1m" | "1-3m" | "3-6m" | "6m+"
Never invent values outside these lists. Return only the JSON object.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (a OpenAICompatAdapter) chat(ctx context.Context, system, user string, temperature float64) (string, Usage, error) {
	usage := Usage{Model: a.Model}
	if strings.TrimSpace(a.BaseURL) == "" {
		return "", usage, fmt.Errorf("LLM_BASE_URL is not set")
	}
	if strings.TrimSpace(a.Model) == "" {
		return "", usage, fmt.Errorf("LLM_MODEL is not set")
	}

	payload := struct {
		Model       string        `json:"model"`
		Temperature float64       `json:"temperature"`
		MaxTokens   int           `json:"max_tokens,omitempty"`
		Messages    []chatMessage `json:"messages"`
	}{
		Model:       a.Model,
		Temperature: temperature,
		MaxTokens:   a.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	b, _ := json.Marshal(payload)
	url := strings.TrimRight(a.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", usage, err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(a.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+a.APIKey)
	}

	client := a.Client
	if client == nil {
		timeout := 45 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
				timeout = remaining
			}
		}
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", usage, fmt.Errorf("model request timed out")
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", usage, fmt.Errorf("model request timed out")
		}
		return "", usage, fmt.Errorf("model request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if resp.StatusCode == http.StatusTooManyRequests {
			if d := extractRetryAfter(errBody); d > 0 {
				return "", usage, RateLimitError{RetryAfter: d}
			}
			return "", usage, RateLimitError{}
		}
		return "", usage, fmt.Errorf("model http error: %s: %v", resp.Status, errBody)
	}

	var res struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", usage, err
	}
	usage.PromptTokens = res.Usage.PromptTokens
	usage.CompletionTokens = res.Usage.CompletionTokens
	if len(res.Choices) == 0 {
		return "", usage, fmt.Errorf("empty model response")
	}
	return res.Choices[0].Message.Content, usage, nil
}

func (a OpenAICompatAdapter) ClassifyIntent(ctx context.Context, text string) (Intent, Usage, error) {
	content, usage, err := a.chat(ctx, intentPrompt, text, 0)
	if err != nil {
		return IntentOther, usage, err
	}
	label := strings.ToLower(strings.TrimSpace(content))
	switch Intent(label) {
	case IntentGreeting, IntentBANT, IntentPriceInquiry, IntentCorrection, IntentOther:
		return Intent(label), usage, nil
	}
	return IntentOther, usage, fmt.Errorf("unknown intent label %q", label)
}

func (a OpenAICompatAdapter) ExtractBANT(ctx context.Context, history []models.Turn, prior models.BANTState) (models.BANTState, Usage, error) {
	var sb strings.Builder
	sb.WriteString("Known slots:\n")
	known, _ := json.Marshal(prior)
	sb.Write(known)
	sb.WriteString("\n\nTranscript:\n")
	for _, t := range history {
		fmt.Fprintf(&sb, "%s: %s\n", strings.ToUpper(t.Sender), t.Text)
	}

	content, usage, err := a.chat(ctx, extractPrompt, sb.String(), 0)
	if err != nil {
		return models.BANTState{}, usage, err
	}
	var out models.BANTState
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &out); err != nil {
		return models.BANTState{}, usage, fmt.Errorf("unparseable extraction: %w", err)
	}
	return out, usage, nil
}

func (a OpenAICompatAdapter) NormalizeBANT(ctx context.Context, raw models.BANTState) (models.NormalizedBANT, Usage, error) {
	b, _ := json.Marshal(raw)
	content, usage, err := a.chat(ctx, normalizePrompt, string(b), 0)
	if err != nil {
		return models.NormalizedBANT{}, usage, err
	}
	var out models.NormalizedBANT
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &out); err != nil {
		return models.NormalizedBANT{}, usage, fmt.Errorf("unparseable normalization: %w", err)
	}
	return out, usage, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func extractRetryAfter(errBody map[string]any) time.Duration {
	errObj, ok := errBody["error"].(map[string]any)
	if !ok {
		return 0
	}
	details, ok := errObj["details"].([]any)
	if !ok {
		return 0
	}
	for _, d := range details {
		m, ok := d.(map[string]any)
		if !ok {
			continue
		}
		if t, ok := m["@type"].(string); ok && strings.Contains(t, "RetryInfo") {
			if s, ok := m["retryDelay"].(string); ok {
				if dur, err := time.ParseDuration(s); err == nil {
					return dur
				}
			}
		}
	}
	return 0
}
