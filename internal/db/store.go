package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/bant"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/models"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) CreateConversation(ctx context.Context, c models.Conversation) error {
	state, err := json.Marshal(c.State)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO conversations (id, agent_id, state, pending_intents, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.AgentID, state, c.PendingIntents, c.Completed, c.CreatedAt, c.UpdatedAt)
	return err
}

func (s *Store) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	var c models.Conversation
	var state []byte
	err := s.Pool.QueryRow(ctx,
		`SELECT id, agent_id, state, pending_intents, completed, created_at, updated_at
		 FROM conversations WHERE id = $1`, id).
		Scan(&c.ID, &c.AgentID, &state, &c.PendingIntents, &c.Completed, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Conversation{}, ErrNotFound
	}
	if err != nil {
		return models.Conversation{}, err
	}
	if err := json.Unmarshal(state, &c.State); err != nil {
		return models.Conversation{}, fmt.Errorf("corrupt conversation state: %w", err)
	}
	return c, nil
}

func (s *Store) UpdateConversation(ctx context.Context, c models.Conversation) error {
	state, err := json.Marshal(c.State)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx,
		`UPDATE conversations
		 SET state = $2, pending_intents = $3, completed = $4, updated_at = $5
		 WHERE id = $1`,
		c.ID, state, c.PendingIntents, c.Completed, time.Now().UTC())
	return err
}

func (s *Store) AppendTurn(ctx context.Context, t models.Turn) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO turns (id, conversation_id, sender, text, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.ConversationID, t.Sender, t.Text, t.CreatedAt)
	return err
}

// ListTurns returns the trailing window of a conversation in chronological
// order. limit <= 0 returns everything.
func (s *Store) ListTurns(ctx context.Context, conversationID string, limit int) ([]models.Turn, error) {
	query := `SELECT id, conversation_id, sender, text, created_at FROM turns
		  WHERE conversation_id = $1 ORDER BY created_at DESC`
	args := []any{conversationID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Turn
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.Sender, &t.Text, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CreateLead writes the lead and marks its conversation completed in one
// transaction. Enum values are re-checked here; a violation means a
// normalization defect upstream and the write is refused.
func (s *Store) CreateLead(ctx context.Context, l models.Lead) error {
	for f, v := range map[bant.Field]*string{
		bant.FieldBudget:    l.Budget,
		bant.FieldAuthority: l.Authority,
		bant.FieldNeed:      l.Need,
		bant.FieldTimeline:  l.Timeline,
	} {
		if v != nil && !bant.InDomain(f, *v) {
			return fmt.Errorf("lead %s value %q outside storage domain", f, *v)
		}
	}

	rawState, err := json.Marshal(l.RawState)
	if err != nil {
		return err
	}
	fieldScores, err := json.Marshal(l.FieldScores)
	if err != nil {
		return err
	}

	return s.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO leads (id, conversation_id, agent_id, contact_name, contact_phone, contact_email,
				budget, authority, need, timeline, raw_state, field_scores, total_score, tier, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			l.ID, l.ConversationID, l.AgentID, l.ContactName, l.ContactPhone, l.ContactEmail,
			l.Budget, l.Authority, l.Need, l.Timeline, rawState, fieldScores, l.TotalScore, l.Tier, l.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE conversations SET completed = TRUE, updated_at = $2 WHERE id = $1`,
			l.ConversationID, time.Now().UTC())
		return err
	})
}

func (s *Store) GetLead(ctx context.Context, id string) (models.Lead, error) {
	var l models.Lead
	var rawState, fieldScores []byte
	err := s.Pool.QueryRow(ctx,
		`SELECT id, conversation_id, agent_id, contact_name, contact_phone, contact_email,
			budget, authority, need, timeline, raw_state, field_scores, total_score, tier, assigned_to, created_at
		 FROM leads WHERE id = $1`, id).
		Scan(&l.ID, &l.ConversationID, &l.AgentID, &l.ContactName, &l.ContactPhone, &l.ContactEmail,
			&l.Budget, &l.Authority, &l.Need, &l.Timeline, &rawState, &fieldScores, &l.TotalScore, &l.Tier, &l.AssignedTo, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Lead{}, ErrNotFound
	}
	if err != nil {
		return models.Lead{}, err
	}
	if err := json.Unmarshal(rawState, &l.RawState); err != nil {
		return models.Lead{}, err
	}
	if err := json.Unmarshal(fieldScores, &l.FieldScores); err != nil {
		return models.Lead{}, err
	}
	return l, nil
}

func (s *Store) ListLeads(ctx context.Context, agentID string, limit, offset int) ([]models.Lead, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, conversation_id, agent_id, contact_name, contact_phone, contact_email,
			budget, authority, need, timeline, raw_state, field_scores, total_score, tier, assigned_to, created_at
		  FROM leads`
	args := []any{}
	if agentID != "" {
		args = append(args, agentID)
		query += ` WHERE agent_id = $1`
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Lead
	for rows.Next() {
		var l models.Lead
		var rawState, fieldScores []byte
		if err := rows.Scan(&l.ID, &l.ConversationID, &l.AgentID, &l.ContactName, &l.ContactPhone, &l.ContactEmail,
			&l.Budget, &l.Authority, &l.Need, &l.Timeline, &rawState, &fieldScores, &l.TotalScore, &l.Tier, &l.AssignedTo, &l.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rawState, &l.RawState); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(fieldScores, &l.FieldScores); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetScoringConfig returns the agent's custom table when one exists, else the
// default. The bool reports whether a custom config was found.
func (s *Store) GetScoringConfig(ctx context.Context, agentID string) (bant.ScoringConfig, bool, error) {
	var raw []byte
	err := s.Pool.QueryRow(ctx,
		`SELECT config FROM scoring_configs WHERE agent_id = $1`, agentID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return bant.DefaultScoringConfig(), false, nil
	}
	if err != nil {
		return bant.ScoringConfig{}, false, err
	}
	var cfg bant.ScoringConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return bant.ScoringConfig{}, false, fmt.Errorf("corrupt scoring config: %w", err)
	}
	return cfg, true, nil
}

func (s *Store) UpsertScoringConfig(ctx context.Context, agentID string, cfg bant.ScoringConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO scoring_configs (agent_id, config, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (agent_id) DO UPDATE SET config = EXCLUDED.config, updated_at = EXCLUDED.updated_at`,
		agentID, raw, time.Now().UTC())
	return err
}

func (s *Store) InsertUsageEvent(ctx context.Context, ev models.UsageEvent) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO ai_usage_events (id, conversation_id, operation_type, model, prompt_tokens, completion_tokens, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.ConversationID, ev.OperationType, ev.Model, ev.PromptTokens, ev.CompletionTokens, ev.CreatedAt)
	return err
}
