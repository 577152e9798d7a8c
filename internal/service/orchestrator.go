package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/ai"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/bant"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/models"
)

// Store is the persistence collaborator the orchestrator talks to.
type Store interface {
	CreateConversation(ctx context.Context, c models.Conversation) error
	GetConversation(ctx context.Context, id string) (models.Conversation, error)
	UpdateConversation(ctx context.Context, c models.Conversation) error
	AppendTurn(ctx context.Context, t models.Turn) error
	ListTurns(ctx context.Context, conversationID string, limit int) ([]models.Turn, error)
	CreateLead(ctx context.Context, l models.Lead) error
	GetScoringConfig(ctx context.Context, agentID string) (bant.ScoringConfig, bool, error)
}

// UsageReporter receives token accounting off the reply path.
type UsageReporter interface {
	Report(ev models.UsageEvent)
}

const turnWindow = 12

type Orchestrator struct {
	Store             Store
	AI                ai.Adapter
	Usage             UsageReporter
	Logger            zerolog.Logger
	ExtractionTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*convLock
}

type MessageRequest struct {
	Text           string            `json:"text"`
	ConversationID string            `json:"conversation_id"`
	AgentID        string            `json:"agent_id"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type MessageResponse struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversation_id"`
	LeadCreated    bool   `json:"lead_created"`
	LeadID         string `json:"lead_id,omitempty"`
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

// acquireLock serializes turns per conversation. Merges are not commutative,
// and a stale next-question read would re-ask a filled slot. Entries are
// reference counted so the map only holds conversations with a turn in flight.
func (o *Orchestrator) acquireLock(conversationID string) *convLock {
	o.mu.Lock()
	if o.locks == nil {
		o.locks = map[string]*convLock{}
	}
	l, ok := o.locks[conversationID]
	if !ok {
		l = &convLock{}
		o.locks[conversationID] = l
	}
	l.refs++
	o.mu.Unlock()

	l.mu.Lock()
	return l
}

func (o *Orchestrator) releaseLock(conversationID string, l *convLock) {
	l.mu.Unlock()
	o.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(o.locks, conversationID)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) extractionTimeout() time.Duration {
	if o.ExtractionTimeout > 0 {
		return o.ExtractionTimeout
	}
	return 10 * time.Second
}

var fieldAcks = map[bant.Field]string{
	bant.FieldBudget:    "Got it, I've noted your budget.",
	bant.FieldAuthority: "Understood on the decision making.",
	bant.FieldNeed:      "Noted what the property is for.",
	bant.FieldTimeline:  "Thanks, I've noted your timeline.",
	bant.FieldContact:   "Thank you for your contact details.",
}

// HandleMessage processes one inbound chat turn end to end.
func (o *Orchestrator) HandleMessage(ctx context.Context, req MessageRequest) (MessageResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return MessageResponse{}, fmt.Errorf("empty message")
	}

	conv, created, err := o.loadOrCreate(ctx, req)
	if err != nil {
		return MessageResponse{}, err
	}

	lock := o.acquireLock(conv.ID)
	defer o.releaseLock(conv.ID, lock)

	if !created {
		// re-read under the lock; a concurrent turn may have advanced state
		if fresh, err := o.Store.GetConversation(ctx, conv.ID); err == nil {
			conv = fresh
		}
	}

	now := time.Now().UTC()
	userTurn := models.Turn{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Sender:         models.SenderUser,
		Text:           req.Text,
		CreatedAt:      now,
	}
	if err := o.Store.AppendTurn(ctx, userTurn); err != nil {
		return MessageResponse{}, fmt.Errorf("append turn: %w", err)
	}

	resp := MessageResponse{ConversationID: conv.ID}

	if conv.Completed {
		resp.Reply = "You're already fully set, our agent will reach out shortly. Feel free to leave any extra details here."
		o.appendSystemTurn(ctx, conv.ID, resp.Reply)
		return resp, nil
	}

	tracker := bant.NewTracker(conv.State)
	mctx := bant.MatchContext{}
	if !created {
		// the pending question is always the first unfilled slot
		if f, ok := tracker.NextField(); ok {
			mctx.LastQuestion = f
		}
	}

	intent := o.classifyIntent(ctx, conv, req.Text, mctx, tracker.Status())

	var reply string
	switch intent {
	case ai.IntentGreeting:
		if tracker.Status() == bant.StatusNotStarted && created {
			reply = "Hello! I'd be glad to help you find the right property. " + tracker.NextQuestion()
		} else {
			reply = "Hello again! " + tracker.NextQuestion()
		}

	case ai.IntentPriceInquiry:
		conv.PendingIntents = appendUnique(conv.PendingIntents, string(ai.IntentPriceInquiry))
		// a deferred request can carry a slot answer in the same breath;
		// extract before choosing the next question so it is not lost
		o.extractAndMerge(ctx, conv, tracker, req.Text, mctx)
		reply = "Happy to get you pricing details. Let me grab a few things first so I can match you properly. " + tracker.NextQuestion()

	case ai.IntentOther:
		// patterns were inconclusive; extraction is the disambiguating
		// authority before this turn is written off as an interruption
		newly := o.extractAndMerge(ctx, conv, tracker, req.Text, mctx)
		switch {
		case len(newly) > 0:
			reply = composeReply(newly, tracker, created)
		case created:
			reply = "I'd be glad to help you find the right property. " + tracker.NextQuestion()
		default:
			reply = "Thanks for that! To pick up where we left off: " + tracker.NextQuestion()
		}

	case ai.IntentCorrection:
		changed := o.applyCorrection(ctx, conv, tracker, req.Text, mctx)
		if len(changed) > 0 {
			reply = "Thanks for the correction, I've updated that. " + tracker.NextQuestion()
		} else {
			reply = "I wasn't able to match that correction to anything on file. " + tracker.NextQuestion()
		}

	default: // ai.IntentBANT
		newly := o.extractAndMerge(ctx, conv, tracker, req.Text, mctx)
		reply = composeReply(newly, tracker, created)
	}

	conv.State = tracker.State()

	if tracker.Status() == bant.StatusComplete {
		leadID, leadCreated, deferredNote := o.completeQualification(ctx, &conv, tracker)
		resp.LeadCreated = leadCreated
		resp.LeadID = leadID
		reply = bant.CompletionMessage
		if deferredNote != "" {
			reply += " " + deferredNote
		}
	}

	if err := o.Store.UpdateConversation(ctx, conv); err != nil {
		o.Logger.Error().Err(err).Str("conversation_id", conv.ID).Msg("conversation update failed")
	}

	resp.Reply = reply
	o.appendSystemTurn(ctx, conv.ID, reply)
	return resp, nil
}

func (o *Orchestrator) loadOrCreate(ctx context.Context, req MessageRequest) (models.Conversation, bool, error) {
	if req.ConversationID != "" {
		conv, err := o.Store.GetConversation(ctx, req.ConversationID)
		if err == nil {
			return conv, false, nil
		}
	}
	now := time.Now().UTC()
	conv := models.Conversation{
		ID:        uuid.NewString(),
		AgentID:   req.AgentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ConversationID != "" {
		conv.ID = req.ConversationID
	}
	if err := o.Store.CreateConversation(ctx, conv); err != nil {
		// a concurrent first message may have created it already
		if existing, getErr := o.Store.GetConversation(ctx, conv.ID); getErr == nil {
			return existing, false, nil
		}
		return models.Conversation{}, false, fmt.Errorf("create conversation: %w", err)
	}
	return conv, true, nil
}

// classifyIntent runs the keyword path first. The general classifier only
// runs when the keyword path is inconclusive AND the conversation is not
// mid-qualification; mid-BANT inconclusive turns route to the interruption
// branch, which still runs extraction, so the adapter sees them either way.
func (o *Orchestrator) classifyIntent(ctx context.Context, conv models.Conversation, text string, mctx bant.MatchContext, status bant.Status) ai.Intent {
	intent, conclusive := classifyFast(text, mctx)
	if conclusive {
		return intent
	}
	if status == bant.StatusInProgress {
		return ai.IntentOther
	}

	cctx, cancel := context.WithTimeout(ctx, o.extractionTimeout())
	defer cancel()
	label, usage, err := o.AI.ClassifyIntent(cctx, text)
	o.reportUsage(conv.ID, "classify_intent", usage)
	if err != nil {
		o.Logger.Warn().Err(err).Str("conversation_id", conv.ID).Msg("intent classification failed, using keyword result")
		return intent
	}
	return label
}

// extractAndMerge runs both extraction paths and merges first-write-wins.
// The model call is awaited before the next question is chosen; answering
// before extraction completes is what used to cause duplicate questions.
func (o *Orchestrator) extractAndMerge(ctx context.Context, conv models.Conversation, tracker *bant.Tracker, text string, mctx bant.MatchContext) []bant.Field {
	newly := tracker.Merge(bant.Classify(text, mctx).Matches)

	extracted, ok := o.runExtraction(ctx, conv, tracker.State())
	if ok {
		newly = append(newly, tracker.Merge(stateToMatches(extracted))...)
	}
	return newly
}

func (o *Orchestrator) runExtraction(ctx context.Context, conv models.Conversation, prior models.BANTState) (models.BANTState, bool) {
	history, err := o.Store.ListTurns(ctx, conv.ID, turnWindow)
	if err != nil {
		o.Logger.Warn().Err(err).Str("conversation_id", conv.ID).Msg("history read failed, pattern results only")
		return models.BANTState{}, false
	}

	ectx, cancel := context.WithTimeout(ctx, o.extractionTimeout())
	defer cancel()
	extracted, usage, err := o.AI.ExtractBANT(ectx, history, prior)
	o.reportUsage(conv.ID, "extract_bant", usage)
	if err != nil {
		o.Logger.Warn().Err(err).Str("conversation_id", conv.ID).Msg("extraction failed, pattern results only")
		return models.BANTState{}, false
	}
	return extracted, true
}

// applyCorrection overwrites slots the correction turn re-answers. This is
// the only path allowed to replace a filled slot.
func (o *Orchestrator) applyCorrection(ctx context.Context, conv models.Conversation, tracker *bant.Tracker, text string, mctx bant.MatchContext) []bant.Field {
	var changed []bant.Field
	for _, m := range bant.Classify(text, mctx).Matches {
		tracker.Overwrite(m.Field, m.Value)
		changed = append(changed, m.Field)
	}
	if len(changed) > 0 {
		return changed
	}
	// pattern path found nothing concrete; let the model pin it down
	extracted, ok := o.runExtraction(ctx, conv, models.BANTState{})
	if !ok {
		return nil
	}
	for _, m := range stateToMatches(extracted) {
		cur := tracker.State()
		if prev := slotValue(cur, m.Field); prev != nil && *prev != m.Value {
			tracker.Overwrite(m.Field, m.Value)
			changed = append(changed, m.Field)
		} else if prev == nil {
			tracker.Overwrite(m.Field, m.Value)
			changed = append(changed, m.Field)
		}
	}
	return changed
}

func (o *Orchestrator) completeQualification(ctx context.Context, conv *models.Conversation, tracker *bant.Tracker) (leadID string, created bool, deferredNote string) {
	state := tracker.State()

	normalized := o.normalize(ctx, conv.ID, state)

	cfg, _, err := o.Store.GetScoringConfig(ctx, conv.AgentID)
	if err != nil {
		o.Logger.Error().Err(err).Str("agent_id", conv.AgentID).Msg("scoring config read failed, using default")
		cfg = bant.DefaultScoringConfig()
	}

	var contact bant.Contact
	if state.Contact != nil {
		contact = bant.ParseContact(*state.Contact)
	}
	contactPresent := contact.Phone != "" || contact.Email != ""

	result := bant.Score(normalized, contactPresent, cfg)

	lead := models.Lead{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		AgentID:        conv.AgentID,
		ContactName:    contact.Name,
		ContactPhone:   contact.Phone,
		ContactEmail:   contact.Email,
		Budget:         normalized.Budget,
		Authority:      normalized.Authority,
		Need:           normalized.Need,
		Timeline:       normalized.Timeline,
		RawState:       state,
		FieldScores:    fieldScoreMap(result),
		TotalScore:     result.Total,
		Tier:           result.Tier,
		CreatedAt:      time.Now().UTC(),
	}

	if err := o.Store.CreateLead(ctx, lead); err != nil {
		// reply still goes out; the lead can be re-derived from the turn log
		o.Logger.Error().Err(err).Str("conversation_id", conv.ID).Msg("lead persistence failed, reported for retry")
		conv.Completed = true
		return "", false, o.resolveDeferred(conv)
	}

	conv.Completed = true
	return lead.ID, true, o.resolveDeferred(conv)
}

// normalize prefers the model's closed-set answer, validates it, and patches
// holes with the deterministic rules. Out-of-domain output is a defect and is
// logged, never written.
func (o *Orchestrator) normalize(ctx context.Context, conversationID string, state models.BANTState) models.NormalizedBANT {
	fallback := bant.Fallback(state)

	nctx, cancel := context.WithTimeout(ctx, o.extractionTimeout())
	defer cancel()
	fromModel, usage, err := o.AI.NormalizeBANT(nctx, state)
	o.reportUsage(conversationID, "normalize_bant", usage)
	if err != nil {
		o.Logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("normalization call failed, deterministic rules only")
		sanitized, _ := bant.Sanitize(fallback)
		return sanitized
	}

	sanitized, defects := bant.Sanitize(fromModel)
	for _, f := range defects {
		o.Logger.Error().Str("conversation_id", conversationID).Str("field", string(f)).Msg("normalization produced out-of-domain value")
	}
	merged, _ := bant.Sanitize(bant.MergeNormalized(sanitized, fallback))
	return merged
}

func (o *Orchestrator) resolveDeferred(conv *models.Conversation) string {
	if len(conv.PendingIntents) == 0 {
		return ""
	}
	var notes []string
	for _, intent := range conv.PendingIntents {
		if intent == string(ai.IntentPriceInquiry) {
			notes = append(notes, "About your earlier pricing question: your assigned agent will send current listings and estimates that fit your budget.")
		}
	}
	conv.PendingIntents = nil
	return strings.Join(notes, " ")
}

func (o *Orchestrator) reportUsage(conversationID, operation string, usage ai.Usage) {
	if o.Usage == nil {
		return
	}
	o.Usage.Report(models.UsageEvent{
		ID:               uuid.NewString(),
		ConversationID:   conversationID,
		OperationType:    operation,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
	})
}

func (o *Orchestrator) appendSystemTurn(ctx context.Context, conversationID, text string) {
	turn := models.Turn{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         models.SenderSystem,
		Text:           text,
		CreatedAt:      time.Now().UTC(),
	}
	if err := o.Store.AppendTurn(ctx, turn); err != nil {
		o.Logger.Error().Err(err).Str("conversation_id", conversationID).Msg("system turn append failed")
	}
}

func composeReply(newly []bant.Field, tracker *bant.Tracker, firstTurn bool) string {
	if len(newly) == 0 {
		if firstTurn {
			return "Great, I can help you with that. " + tracker.NextQuestion()
		}
		return "Let me make sure I get this right. " + tracker.NextQuestion()
	}
	var acks []string
	for _, f := range newly {
		acks = append(acks, fieldAcks[f])
	}
	if tracker.Status() == bant.StatusComplete {
		return strings.Join(acks, " ")
	}
	return strings.Join(acks, " ") + " " + tracker.NextQuestion()
}

func fieldScoreMap(r bant.ScoreResult) map[string]float64 {
	out := make(map[string]float64, len(r.PerField))
	for f, v := range r.PerField {
		out[string(f)] = v
	}
	return out
}

func stateToMatches(s models.BANTState) []bant.FieldMatch {
	var out []bant.FieldMatch
	add := func(f bant.Field, v *string) {
		if v != nil && *v != "" {
			out = append(out, bant.FieldMatch{Field: f, Value: *v, Confidence: 1})
		}
	}
	add(bant.FieldBudget, s.Budget)
	add(bant.FieldAuthority, s.Authority)
	add(bant.FieldNeed, s.Need)
	add(bant.FieldTimeline, s.Timeline)
	add(bant.FieldContact, s.Contact)
	return out
}

func slotValue(s models.BANTState, f bant.Field) *string {
	switch f {
	case bant.FieldBudget:
		return s.Budget
	case bant.FieldAuthority:
		return s.Authority
	case bant.FieldNeed:
		return s.Need
	case bant.FieldTimeline:
		return s.Timeline
	case bant.FieldContact:
		return s.Contact
	}
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
