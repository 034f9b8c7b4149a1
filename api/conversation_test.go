package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedikagupta0/ncert-ai-tutor/internal/history"
)

func TestListConversations(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	reg.Create("Photosynthesis revision")

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/conversations", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []ConversationPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "Conversation 1", out[0].Title)
	assert.False(t, out[0].Active)
	assert.Equal(t, "Photosynthesis revision", out[1].Title)
	assert.True(t, out[1].Active)
}

func TestCreateConversation(t *testing.T) {
	srv, reg := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/conversations", `{"title": "Cell structure"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var out ConversationPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Cell structure", out.Title)
	assert.True(t, out.Active)
	assert.Equal(t, out.ID, reg.Active().ID.String())
}

func TestCreateConversationEmptyBody(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/conversations", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var out ConversationPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Conversation 2", out.Title)
}

func TestGetConversation(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	c := reg.Active()

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/conversations/"+c.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out ConversationPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, c.ID.String(), out.ID)
}

func TestGetConversationNotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/conversations/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetConversationBadID(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/conversations/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivateConversation(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	first := reg.Active()
	reg.Create("")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/conversations/"+first.ID.String()+"/activate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.ID, reg.Active().ID)
}

func TestActivateUnknownConversation(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/conversations/"+uuid.NewString()+"/activate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetTitle(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	c := reg.Active()

	rec := doJSON(t, srv, http.MethodPut, "/api/v1/conversations/"+c.ID.String()+"/title",
		`{"title": "Osmosis notes"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Osmosis notes", c.Title())
}

func TestSetTitleEmpty(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	c := reg.Active()

	rec := doJSON(t, srv, http.MethodPut, "/api/v1/conversations/"+c.ID.String()+"/title",
		`{"title": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHistory(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	c := reg.Active()
	c.History.Append(history.RoleUser, "What is osmosis?")
	c.History.Append(history.RoleAssistant, "Movement of water across a membrane.")

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/conversations/"+c.ID.String()+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var turns []TurnPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turns))
	require.Len(t, turns, 2)
	assert.Equal(t, TurnPayload{Role: "USER", Text: "What is osmosis?", Seq: 0}, turns[0])
	assert.Equal(t, TurnPayload{Role: "ASSISTANT", Text: "Movement of water across a membrane.", Seq: 1}, turns[1])
}

func TestExport(t *testing.T) {
	srv, reg := newTestServer(t, nil)
	c := reg.Active()
	c.History.Append(history.RoleUser, "What is osmosis?")
	c.History.Append(history.RoleAssistant, "Movement of water across a membrane.")

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/conversations/"+c.ID.String()+"/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "USER: What is osmosis?\nASSISTANT: Movement of water across a membrane.",
		rec.Body.String())
}
