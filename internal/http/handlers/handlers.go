package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/bant"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/db"
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/service"
)

// ChatService is what the chat endpoint needs from the orchestrator.
type ChatService interface {
	HandleMessage(ctx context.Context, req service.MessageRequest) (service.MessageResponse, error)
}

type Handler struct {
	Store     *db.Store
	Chat      ChatService
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

func writeError(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type chatRequest struct {
	Text           string            `json:"text" validate:"required,max=4000"`
	ConversationID string            `json:"conversation_id" validate:"omitempty,max=64"`
	AgentID        string            `json:"agent_id" validate:"omitempty,max=64"`
	Metadata       map[string]string `json:"metadata"`
}

// @Summary Send a chat message
// @Description Processes one buyer message through the qualification flow and returns the reply
// @Tags chat
// @Accept json
// @Produce json
// @Param request body chatRequest true "message"
// @Success 200 {object} service.MessageResponse
// @Failure 400 {object} map[string]any
// @Router /api/chat [post]
func (h *Handler) PostChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Validation failed", err.Error())
		return
	}

	resp, err := h.Chat.HandleMessage(c.Request.Context(), service.MessageRequest{
		Text:           req.Text,
		ConversationID: req.ConversationID,
		AgentID:        req.AgentID,
		Metadata:       req.Metadata,
	})
	if err != nil {
		h.Logger.Error().Err(err).Msg("chat turn failed")
		writeError(c, http.StatusInternalServerError, "CHAT_ERROR", "Failed to process message", err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Conversation details
// @Tags conversations
// @Produce json
// @Param id path string true "conversation id"
// @Success 200 {object} map[string]any
// @Router /api/conversations/{id} [get]
func (h *Handler) ConversationDetails(c *gin.Context) {
	id := c.Param("id")
	conv, err := h.Store.GetConversation(c.Request.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found", nil)
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load conversation", err.Error())
		return
	}
	turns, err := h.Store.ListTurns(c.Request.Context(), id, 0)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load turns", err.Error())
		return
	}
	tracker := bant.NewTracker(conv.State)
	c.JSON(http.StatusOK, gin.H{
		"conversation":  conv,
		"turns":         turns,
		"status":        tracker.Status(),
		"next_question": tracker.NextQuestion(),
	})
}

// @Summary List leads
// @Tags leads
// @Produce json
// @Param agent_id query string false "filter by agent"
// @Success 200 {object} map[string]any
// @Router /api/leads [get]
func (h *Handler) LeadsList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	leads, err := h.Store.ListLeads(c.Request.Context(), c.Query("agent_id"), limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list leads", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads, "count": len(leads)})
}

// @Summary Lead details
// @Tags leads
// @Produce json
// @Param id path string true "lead id"
// @Success 200 {object} models.Lead
// @Router /api/leads/{id} [get]
func (h *Handler) LeadDetails(c *gin.Context) {
	lead, err := h.Store.GetLead(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Lead not found", nil)
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load lead", err.Error())
		return
	}
	c.JSON(http.StatusOK, lead)
}

// @Summary Effective scoring config for an agent
// @Tags scoring
// @Produce json
// @Param id path string true "agent id"
// @Success 200 {object} map[string]any
// @Router /api/agents/{id}/scoring [get]
func (h *Handler) ScoringGet(c *gin.Context) {
	cfg, custom, err := h.Store.GetScoringConfig(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load scoring config", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg, "custom": custom})
}

// @Summary Upsert scoring config for an agent
// @Tags scoring
// @Accept json
// @Produce json
// @Param id path string true "agent id"
// @Param request body bant.ScoringConfig true "config"
// @Success 200 {object} map[string]any
// @Router /api/agents/{id}/scoring [put]
func (h *Handler) ScoringUpsert(c *gin.Context) {
	var cfg bant.ScoringConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", err.Error())
		return
	}
	if err := cfg.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", "Scoring config rejected", err.Error())
		return
	}
	if err := h.Store.UpsertScoringConfig(c.Request.Context(), c.Param("id"), cfg); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save scoring config", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}
