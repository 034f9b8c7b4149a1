// Package conversation maps conversation ids to their history buffers.
//
// The Registry is the single piece of process-wide mutable state: one
// instance is created at startup and handed to the orchestrator and the
// presentation shells. Conversations live for the process lifetime.
package conversation

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vedikagupta0/ncert-ai-tutor/internal/history"
)

// ErrNotFound indicates the conversation id does not exist.
// This is an integration error from the caller; it is never recovered
// internally.
var ErrNotFound = errors.New("conversation not found")

// Conversation is one independent chat thread. The history buffer is
// owned exclusively by this conversation; it is never shared.
type Conversation struct {
	ID        uuid.UUID
	History   *history.Buffer
	CreatedAt time.Time

	mu          sync.RWMutex
	title       string
	placeholder bool
}

// Title returns the display title.
func (c *Conversation) Title() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.title
}

// PlaceholderTitle reports whether the title is still the generated
// placeholder rather than one chosen by a user or the title generator.
func (c *Conversation) PlaceholderTitle() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.placeholder
}

func (c *Conversation) setTitle(title string, placeholder bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.title = title
	c.placeholder = placeholder
}

// Registry maps conversation ids to conversations and tracks the single
// active conversation. The active id always resolves to an existing
// conversation: NewRegistry creates an initial one, and conversations
// are never removed.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	convs  map[uuid.UUID]*Conversation
	active uuid.UUID
	seq    int
	logger *slog.Logger
}

// NewRegistry creates a registry with one initial active conversation.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		convs:  make(map[uuid.UUID]*Conversation),
		logger: logger,
	}
	initial := r.create("")
	r.active = initial.ID
	return r
}

// Create adds a new conversation and makes it active. An empty title
// gets a generated placeholder; titles and history are independent, so
// a titled conversation may have zero turns.
func (r *Registry) Create(title string) *Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.create(title)
	r.active = c.ID
	r.logger.Debug("created conversation", "id", c.ID, "title", c.title)
	return c
}

// create assumes r.mu is held (or the registry is not yet shared).
func (r *Registry) create(title string) *Conversation {
	r.seq++
	placeholder := title == ""
	if placeholder {
		title = fmt.Sprintf("Conversation %d", r.seq)
	}
	c := &Conversation{
		ID:          uuid.New(),
		History:     history.NewBuffer(),
		CreatedAt:   time.Now(),
		title:       title,
		placeholder: placeholder,
	}
	r.convs[c.ID] = c
	return c
}

// Get returns the conversation for the given id.
func (r *Registry) Get(id uuid.UUID) (*Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.convs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c, nil
}

// Switch makes the given conversation active.
func (r *Registry) Switch(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.convs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.active = id
	r.logger.Debug("switched conversation", "id", id)
	return nil
}

// Active returns the active conversation.
func (r *Registry) Active() *Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.convs[r.active]
}

// SetTitle replaces the title of the given conversation.
func (r *Registry) SetTitle(id uuid.UUID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.setTitle(title, false)
	return nil
}

// List returns all conversations ordered by creation time.
func (r *Registry) List() []*Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conversation, 0, len(r.convs))
	for _, c := range r.convs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
