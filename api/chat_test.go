package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedikagupta0/ncert-ai-tutor/internal/tutor"
)

func TestChatDefaultsToActiveConversation(t *testing.T) {
	srv, reg := newTestServer(t, &fakeRunner{answer: "photosynthesis happens in the chloroplast"})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat",
		`{"question": "What is photosynthesis?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, reg.Active().ID.String(), resp.ConversationID)
	assert.Equal(t, "photosynthesis happens in the chloroplast", resp.Answer)
	require.Len(t, resp.Turns, 2)
	assert.Equal(t, "USER", resp.Turns[0].Role)
	assert.Equal(t, "ASSISTANT", resp.Turns[1].Role)
}

func TestChatExplicitConversation(t *testing.T) {
	srv, reg := newTestServer(t, &fakeRunner{answer: "ok"})
	c := reg.Create("algebra")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat",
		`{"conversationId": "`+c.ID.String()+`", "question": "solve x"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, c.ID.String(), resp.ConversationID)
	assert.Equal(t, 2, c.History.Len())
}

func TestChatMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatInvalidConversationID(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat",
		`{"conversationId": "not-a-uuid", "question": "hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatUnknownConversation(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat",
		`{"conversationId": "`+uuid.NewString()+`", "question": "hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "conversation_not_found")
}

func TestChatEmptyQuestion(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{err: tutor.ErrEmptyQuestion})
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat", `{"question": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty_question")
}

func TestChatGenerationFailure(t *testing.T) {
	srv, reg := newTestServer(t, &fakeRunner{err: tutor.ErrGenerationFailed})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat", `{"question": "What is osmosis?"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "generation_failed")

	// The user turn survives the failed generation.
	assert.Equal(t, 1, reg.Active().History.Len())
}
