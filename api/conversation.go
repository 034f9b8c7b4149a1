package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vedikagupta0/ncert-ai-tutor/internal/conversation"
)

// ConversationPayload is the JSON shape of one conversation's metadata.
type ConversationPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Active    bool      `json:"active"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"createdAt"`
}

type conversationHandler struct {
	registry *conversation.Registry
	logger   *slog.Logger
}

func (h *conversationHandler) list(w http.ResponseWriter, _ *http.Request) {
	activeID := h.registry.Active().ID
	convs := h.registry.List()
	out := make([]ConversationPayload, len(convs))
	for i, c := range convs {
		out[i] = conversationPayload(c, activeID)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *conversationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	// An empty body is a valid "no title" request.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	c := h.registry.Create(strings.TrimSpace(req.Title))
	writeJSON(w, http.StatusCreated, conversationPayload(c, c.ID))
}

func (h *conversationHandler) get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.conversationFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, conversationPayload(c, h.registry.Active().ID))
}

func (h *conversationHandler) activate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idFromPath(w, r)
	if !ok {
		return
	}
	if err := h.registry.Switch(id); err != nil {
		writeError(w, http.StatusNotFound, "conversation_not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": id.String()})
}

func (h *conversationHandler) setTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idFromPath(w, r)
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "empty_title", "title is required")
		return
	}

	if err := h.registry.SetTitle(id, title); err != nil {
		writeError(w, http.StatusNotFound, "conversation_not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id.String(), "title": title})
}

func (h *conversationHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	c, ok := h.conversationFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, turnPayloads(c.History.Turns()))
}

// export renders the full transcript as plain text, one turn per line.
// This is the only place turns become flat strings; nothing parses the
// export back.
func (h *conversationHandler) export(w http.ResponseWriter, r *http.Request) {
	c, ok := h.conversationFromPath(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="chat_history.txt"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(c.History.RenderAll())); err != nil {
		h.logger.Debug("failed to write export", "error", err)
	}
}

func (h *conversationHandler) idFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_conversation_id", "conversation id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *conversationHandler) conversationFromPath(w http.ResponseWriter, r *http.Request) (*conversation.Conversation, bool) {
	id, ok := h.idFromPath(w, r)
	if !ok {
		return nil, false
	}
	c, err := h.registry.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "conversation_not_found", err.Error())
		return nil, false
	}
	return c, true
}

func conversationPayload(c *conversation.Conversation, activeID uuid.UUID) ConversationPayload {
	return ConversationPayload{
		ID:        c.ID.String(),
		Title:     c.Title(),
		Active:    c.ID == activeID,
		Turns:     c.History.Len(),
		CreatedAt: c.CreatedAt,
	}
}
