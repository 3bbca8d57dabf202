package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"finchat-backend/internal/models"
	"finchat-backend/internal/services"
	"finchat-backend/internal/session"
)

// ChatHandler handles document question answering.
type ChatHandler struct {
	answers  *services.AnswerService
	sessions *session.Manager
	logger   *log.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(answers *services.AnswerService, sessions *session.Manager, logger *log.Logger) *ChatHandler {
	return &ChatHandler{
		answers:  answers,
		sessions: sessions,
		logger:   logger,
	}
}

// DocChat answers a question about the session's document
// @Summary Ask a question about an ingested document
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.ChatRequest true "Question and optional session ID"
// @Success 200 {object} models.ChatResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /doc-chat [post]
func (h *ChatHandler) DocChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		h.sendError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	sess := h.sessions.Get(req.SessionID)
	h.logger.Printf("Chat request session=%s", sess.ID)

	answer, err := h.answers.Answer(r.Context(), sess, req.Prompt)
	if err != nil {
		h.logger.Printf("Answer failed: %v", err)
		var pipeErr *models.PipelineError
		if errors.As(err, &pipeErr) && pipeErr.Kind == models.KindInput {
			h.sendError(w, http.StatusNotFound, pipeErr.Message)
		} else {
			h.sendError(w, http.StatusInternalServerError, "Failed to answer question")
		}
		return
	}

	h.sendJSON(w, http.StatusOK, models.ChatResponse{Response: answer})
}

func (h *ChatHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *ChatHandler) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
