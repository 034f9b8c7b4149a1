package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vedikagupta0/ncert-ai-tutor/internal/conversation"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/history"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/tutor"
)

// maxRequestBytes bounds chat request bodies.
const maxRequestBytes = 1 << 20

// TurnRunner runs one tutoring turn. *tutor.Tutor satisfies this.
type TurnRunner interface {
	AnswerWithHistory(ctx context.Context, conversationID uuid.UUID, question string) (string, []history.Turn, error)
}

// ChatRequest is the POST /api/v1/chat body. ConversationID empty
// means the active conversation.
type ChatRequest struct {
	ConversationID string `json:"conversationId"`
	Question       string `json:"question"`
}

// TurnPayload is one turn in a chat response.
type TurnPayload struct {
	Role string `json:"role"`
	Text string `json:"text"`
	Seq  int    `json:"seq"`
}

// ChatResponse is the POST /api/v1/chat response.
type ChatResponse struct {
	ConversationID string        `json:"conversationId"`
	Answer         string        `json:"answer"`
	Turns          []TurnPayload `json:"turns"`
}

type chatHandler struct {
	runner   TurnRunner
	registry *conversation.Registry
	logger   *slog.Logger
}

func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	id, err := h.resolveConversation(req.ConversationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_conversation_id", err.Error())
		return
	}

	answer, turns, err := h.runner.AnswerWithHistory(r.Context(), id, req.Question)
	if err != nil {
		h.writeTurnError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID: id.String(),
		Answer:         answer,
		Turns:          turnPayloads(turns),
	})
}

// resolveConversation maps an optional id string to a conversation id,
// defaulting to the active conversation.
func (h *chatHandler) resolveConversation(raw string) (uuid.UUID, error) {
	if raw == "" {
		return h.registry.Active().ID, nil
	}
	return uuid.Parse(raw)
}

func (h *chatHandler) writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tutor.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, "empty_question", "question is required")
	case errors.Is(err, conversation.ErrNotFound):
		writeError(w, http.StatusNotFound, "conversation_not_found", err.Error())
	case errors.Is(err, tutor.ErrGenerationFailed):
		h.logger.Error("turn failed at generation", "error", err)
		writeError(w, http.StatusBadGateway, "generation_failed",
			"the tutor could not generate an answer, please retry")
	default:
		h.logger.Error("turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func turnPayloads(turns []history.Turn) []TurnPayload {
	out := make([]TurnPayload, len(turns))
	for i, t := range turns {
		out[i] = TurnPayload{Role: string(t.Role), Text: t.Text, Seq: t.Seq}
	}
	return out
}
