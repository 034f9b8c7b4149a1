package conversation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedikagupta0/ncert-ai-tutor/internal/history"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/log"
)

func TestNewRegistryHasActiveConversation(t *testing.T) {
	r := NewRegistry(log.NewNop())

	active := r.Active()
	require.NotNil(t, active, "active id must always resolve")
	assert.Equal(t, "Conversation 1", active.Title())
	assert.True(t, active.PlaceholderTitle())
	assert.Zero(t, active.History.Len())
}

func TestCreatePlaceholderTitles(t *testing.T) {
	r := NewRegistry(log.NewNop())

	second := r.Create("")
	third := r.Create("Photosynthesis revision")

	assert.Equal(t, "Conversation 2", second.Title())
	assert.True(t, second.PlaceholderTitle())
	assert.Equal(t, "Photosynthesis revision", third.Title())
	assert.False(t, third.PlaceholderTitle())

	// Titles and history are independent: titled but empty is valid.
	assert.Zero(t, third.History.Len())
}

func TestCreateActivates(t *testing.T) {
	r := NewRegistry(log.NewNop())
	c := r.Create("algebra")
	assert.Equal(t, c.ID, r.Active().ID)
}

func TestSwitch(t *testing.T) {
	r := NewRegistry(log.NewNop())
	first := r.Active()
	r.Create("")

	require.NoError(t, r.Switch(first.ID))
	assert.Equal(t, first.ID, r.Active().ID)
}

func TestSwitchUnknownID(t *testing.T) {
	r := NewRegistry(log.NewNop())
	err := r.Switch(uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	// A failed switch must not break the active-id invariant.
	assert.NotNil(t, r.Active())
}

func TestGetUnknownID(t *testing.T) {
	r := NewRegistry(log.NewNop())
	_, err := r.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetTitle(t *testing.T) {
	r := NewRegistry(log.NewNop())
	c := r.Active()

	require.NoError(t, r.SetTitle(c.ID, "Cell structure"))
	assert.Equal(t, "Cell structure", c.Title())
	assert.False(t, c.PlaceholderTitle())

	assert.ErrorIs(t, r.SetTitle(uuid.New(), "x"), ErrNotFound)
}

func TestHistoryIsolation(t *testing.T) {
	r := NewRegistry(log.NewNop())
	a := r.Create("")
	b := r.Create("")

	a.History.Append(history.RoleUser, "question for A")
	a.History.Append(history.RoleAssistant, "answer for A")
	b.History.Append(history.RoleUser, "question for B")

	for turn := range b.History.Window(10) {
		assert.NotContains(t, turn.Text, "for A")
	}
	assert.Equal(t, 2, a.History.Len())
	assert.Equal(t, 1, b.History.Len())
}

func TestListOrdered(t *testing.T) {
	r := NewRegistry(log.NewNop())
	r.Create("")
	r.Create("")

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "Conversation 1", list[0].Title())
	assert.Equal(t, "Conversation 3", list[2].Title())
}
