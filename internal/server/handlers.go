package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hameedlatif/hospital-assistant/internal/assistant"
	"github.com/hameedlatif/hospital-assistant/internal/config"
	"github.com/hameedlatif/hospital-assistant/pkg/logger"
)

// DefaultSessionID is used when a chat request does not name a session.
const DefaultSessionID = "default"

// Handler holds the dependencies of the API endpoints.
type Handler struct {
	assistant *assistant.Assistant
	entries   int
	app       config.AppInfo
	log       *logger.Logger
}

// NewHandler creates a new Handler. entries is the size of the loaded
// knowledge base, reported by the health endpoint.
func NewHandler(a *assistant.Assistant, entries int, app config.AppInfo, log *logger.Logger) *Handler {
	return &Handler{
		assistant: a,
		entries:   entries,
		app:       app,
		log:       log,
	}
}

// ChatRequest is the JSON body of the chat endpoint.
type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// ChatResponse is the JSON reply of the chat endpoint.
type ChatResponse struct {
	Response  string             `json:"response"`
	SessionID string             `json:"session_id"`
	Sources   []assistant.Source `json:"sources"`
}

// Chat answers one patient question within its session.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = DefaultSessionID
	}

	ans, err := h.assistant.Answer(c.Request.Context(), req.SessionID, req.Question)
	if err != nil {
		h.renderAnswerError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Response:  ans.Text,
		SessionID: ans.SessionID,
		Sources:   ans.Sources,
	})
}

// renderAnswerError maps the assistant's sentinel errors onto HTTP statuses.
// Failure details stay in the logs; the body carries a patient-facing
// message.
func (h *Handler) renderAnswerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, assistant.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question cannot be empty"})
	case errors.Is(err, assistant.ErrEmbedding), errors.Is(err, assistant.ErrRetrieval):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "The assistant is temporarily unavailable, please try again shortly"})
	case errors.Is(err, assistant.ErrGeneration):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Sorry, I could not put an answer together just now, please try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ClearSession wipes the conversation memory of one session.
func (h *Handler) ClearSession(c *gin.Context) {
	id := c.Param("id")
	cleared := h.assistant.ClearSession(id)
	if cleared {
		h.log.WithSession(id).Info("Cleared session memory")
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "cleared": cleared})
}

// Health reports service liveness plus knowledge base and session counts.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"entries":  h.entries,
		"sessions": h.assistant.Sessions(),
	})
}

// Root returns the service banner.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s is running!", h.app.Name),
		"version": h.app.Version,
	})
}
