package models

import "time"

const (
	SenderUser   = "user"
	SenderSystem = "system"
)

type Turn struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// BANTState holds the raw slot values exactly as the user phrased them.
// A nil field means the slot has not been filled yet.
type BANTState struct {
	Budget    *string `json:"budget,omitempty"`
	Authority *string `json:"authority,omitempty"`
	Need      *string `json:"need,omitempty"`
	Timeline  *string `json:"timeline,omitempty"`
	Contact   *string `json:"contact,omitempty"`
}

// NormalizedBANT is derived from BANTState and always recomputed, never
// persisted on its own. Each field is nil or a member of its closed domain:
// budget {low,medium,high}, authority {individual,shared},
// need {residence,investment,resale}, timeline {1m,1-3m,3-6m,6m+}.
type NormalizedBANT struct {
	Budget    *string `json:"budget,omitempty"`
	Authority *string `json:"authority,omitempty"`
	Need      *string `json:"need,omitempty"`
	Timeline  *string `json:"timeline,omitempty"`
}

type Conversation struct {
	ID             string    `json:"id"`
	AgentID        string    `json:"agent_id"`
	State          BANTState `json:"state"`
	PendingIntents []string  `json:"pending_intents,omitempty"`
	Completed      bool      `json:"completed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Lead struct {
	ID             string             `json:"id"`
	ConversationID string             `json:"conversation_id"`
	AgentID        string             `json:"agent_id"`
	ContactName    string             `json:"contact_name"`
	ContactPhone   string             `json:"contact_phone"`
	ContactEmail   string             `json:"contact_email,omitempty"`
	Budget         *string            `json:"budget"`
	Authority      *string            `json:"authority"`
	Need           *string            `json:"need"`
	Timeline       *string            `json:"timeline"`
	RawState       BANTState          `json:"raw_state"`
	FieldScores    map[string]float64 `json:"field_scores"`
	TotalScore     float64            `json:"total_score"`
	Tier           string             `json:"tier"`
	AssignedTo     *string            `json:"assigned_to,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

type UsageEvent struct {
	ID               string    `json:"id"`
	ConversationID   string    `json:"conversation_id"`
	OperationType    string    `json:"operation_type"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	CreatedAt        time.Time `json:"created_at"`
}
