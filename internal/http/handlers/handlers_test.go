package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/bant"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/service"
)

type stubChat struct {
	lastReq service.MessageRequest
	resp    service.MessageResponse
	err     error
}

func (s *stubChat) HandleMessage(ctx context.Context, req service.MessageRequest) (service.MessageResponse, error) {
	s.lastReq = req
	return s.resp, s.err
}

func newTestHandler(chat *stubChat) *Handler {
	gin.SetMode(gin.TestMode)
	return &Handler{
		Chat:      chat,
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}
}

func postJSON(t *testing.T, handler gin.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	r := gin.New()
	r.POST(path, handler)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostChat(t *testing.T) {
	chat := &stubChat{resp: service.MessageResponse{
		Reply:          "What budget range do you have in mind for the property?",
		ConversationID: "c1",
	}}
	h := newTestHandler(chat)

	w := postJSON(t, h.PostChat, "/api/chat", map[string]any{
		"text":     "I want to buy a house",
		"agent_id": "agent-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp service.MessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ConversationID != "c1" {
		t.Fatalf("expected conversation id passthrough, got %+v", resp)
	}
	if chat.lastReq.Text != "I want to buy a house" || chat.lastReq.AgentID != "agent-1" {
		t.Fatalf("request not forwarded, got %+v", chat.lastReq)
	}
}

func TestPostChat_RejectsEmptyText(t *testing.T) {
	h := newTestHandler(&stubChat{})

	w := postJSON(t, h.PostChat, "/api/chat", map[string]any{"text": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Code != "INVALID_REQUEST" {
		t.Fatalf("expected INVALID_REQUEST, got %s", body.Error.Code)
	}
}

func TestPostChat_RejectsMalformedJSON(t *testing.T) {
	h := newTestHandler(&stubChat{})
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/api/chat", h.PostChat)
	req, _ := http.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestScoringUpsert_RejectsInvalidWeights(t *testing.T) {
	h := newTestHandler(&stubChat{})

	cfg := bant.DefaultScoringConfig()
	cfg.Weights.Contact = 50 // sum no longer 100

	w := postJSON(t, h.ScoringUpsert, "/api/agents/agent-1/scoring", cfg)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
