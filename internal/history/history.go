// Package history holds the per-conversation turn record.
//
// A Buffer is owned by exactly one conversation and grows for the
// lifetime of the process; there is no eviction. Window views are
// computed on demand and never stored.
package history

import (
	"iter"
	"strings"
	"sync"
)

// Role identifies the author of a turn.
type Role string

// Valid turn roles. RenderWindow emits them verbatim as line prefixes.
const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

// Turn is one message in a conversation. Immutable once created.
type Turn struct {
	Role Role
	Text string
	Seq  int
}

// Buffer is the ordered record of turns for one conversation.
// Insertion order is chronological order.
//
// Buffer is safe for concurrent use. The zero value is NOT useful,
// use NewBuffer.
type Buffer struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{turns: make([]Turn, 0)}
}

// Append adds a turn at the end and returns it with its assigned
// sequence number. Callers are internal and maintain the USER/ASSISTANT
// alternation invariant; it is asserted in tests, not enforced here.
func (b *Buffer) Append(role Role, text string) Turn {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := Turn{Role: role, Text: text, Seq: len(b.turns)}
	b.turns = append(b.turns, t)
	return t
}

// Len returns the number of turns.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.turns)
}

// Turns returns a copy of all turns in chronological order.
func (b *Buffer) Turns() []Turn {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Turn, len(b.turns))
	copy(out, b.turns)
	return out
}

// Window returns a lazy, restartable sequence over the last n turns in
// chronological order (all turns when n >= Len). It does not mutate the
// buffer; each range restarts from a fresh snapshot.
func (b *Buffer) Window(n int) iter.Seq[Turn] {
	return func(yield func(Turn) bool) {
		b.mu.RLock()
		start := len(b.turns) - n
		if n <= 0 {
			start = len(b.turns)
		}
		if start < 0 {
			start = 0
		}
		snapshot := make([]Turn, len(b.turns)-start)
		copy(snapshot, b.turns[start:])
		b.mu.RUnlock()

		for _, t := range snapshot {
			if !yield(t) {
				return
			}
		}
	}
}

// RenderWindow renders the last n turns as "<ROLE>: <text>" lines joined
// by newlines. This exact form is the contract consumed by the query
// rewriter and prompt composer; nothing ever parses it back into turns.
func (b *Buffer) RenderWindow(n int) string {
	var sb strings.Builder
	first := true
	for t := range b.Window(n) {
		if !first {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(t.Role))
		sb.WriteString(": ")
		sb.WriteString(t.Text)
		first = false
	}
	return sb.String()
}

// RenderAll renders the full buffer in the same flat form as
// RenderWindow. Used by shells for chat export.
func (b *Buffer) RenderAll() string {
	return b.RenderWindow(b.Len())
}
