// Package tutor implements the conversational retrieval pipeline.
//
// A turn moves through a fixed sequence: the student's question is
// appended to history, rewritten into a standalone search query,
// matched against the passage index, composed into a grounded prompt,
// and answered by the model. The Tutor orchestrates that sequence and
// owns the per-conversation serialization discipline.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vedikagupta0/ncert-ai-tutor/internal/conversation"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/history"
)

// ErrEmptyQuestion indicates the caller passed a blank question.
var ErrEmptyQuestion = errors.New("question must not be empty")

// Config validation errors.
var (
	ErrNoRegistry  = errors.New("registry is required")
	ErrNoRewriter  = errors.New("rewriter is required")
	ErrNoRetriever = errors.New("retriever is required")
	ErrNoGenerator = errors.New("generator is required")
)

// defaultHistoryWindow is the number of recent turns shown to the
// rewriter and composer when Config leaves HistoryWindow unset.
const defaultHistoryWindow = 6

// QueryRewriter produces a self-contained search query. Implementations
// must never return a blank string.
type QueryRewriter interface {
	Rewrite(ctx context.Context, question, historyText string) string
}

// ContextProvider produces the retrieved context for a query. An empty
// string is a valid result.
type ContextProvider interface {
	Context(ctx context.Context, query string) string
}

// AnswerGenerator produces the final answer for a composed prompt.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string) (Result, error)
}

// TitleGenerator produces a short display title from the first
// question of a conversation.
type TitleGenerator interface {
	Title(ctx context.Context, question string) string
}

// Config carries the Tutor's collaborators. Titler and Logger are
// optional; everything else is required.
type Config struct {
	Registry  *conversation.Registry
	Rewriter  QueryRewriter
	Retriever ContextProvider
	Generator AnswerGenerator
	Titler    TitleGenerator
	Logger    *slog.Logger

	// HistoryWindow is the number of recent turns rendered for the
	// rewriter and composer. Zero means defaultHistoryWindow.
	HistoryWindow int
}

func (c Config) validate() error {
	if c.Registry == nil {
		return ErrNoRegistry
	}
	if c.Rewriter == nil {
		return ErrNoRewriter
	}
	if c.Retriever == nil {
		return ErrNoRetriever
	}
	if c.Generator == nil {
		return ErrNoGenerator
	}
	return nil
}

// Tutor runs the per-turn pipeline against the conversation registry.
//
// Turns on different conversations may run concurrently; turns on the
// same conversation are serialized by a per-conversation lock, since
// the shells expose concurrent callers.
type Tutor struct {
	registry  *conversation.Registry
	rewriter  QueryRewriter
	retriever ContextProvider
	generator AnswerGenerator
	titler    TitleGenerator
	logger    *slog.Logger
	window    int

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// New creates a Tutor from cfg.
func New(cfg Config) (*Tutor, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid tutor config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := cfg.HistoryWindow
	if window <= 0 {
		window = defaultHistoryWindow
	}
	return &Tutor{
		registry:  cfg.Registry,
		rewriter:  cfg.Rewriter,
		retriever: cfg.Retriever,
		generator: cfg.Generator,
		titler:    cfg.Titler,
		logger:    logger,
		window:    window,
	}, nil
}

// Answer runs one turn on the given conversation and returns the
// generated answer.
//
// The USER turn is committed before generation, so the question stays
// in history even when generation fails. The ASSISTANT turn is
// committed only on success; a generation failure leaves exactly one
// new turn behind.
func (t *Tutor) Answer(ctx context.Context, conversationID uuid.UUID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	conv, err := t.registry.Get(conversationID)
	if err != nil {
		return "", err
	}

	lock := t.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	conv.History.Append(history.RoleUser, question)
	historyText := conv.History.RenderWindow(t.window)

	query := t.rewriter.Rewrite(ctx, question, historyText)
	contextText := t.retriever.Context(ctx, query)

	// The original question, not the rewrite, goes into the answer
	// prompt. Rewriting optimizes search recall without altering what
	// the model perceives as literally asked.
	prompt := Compose(historyText, contextText, question)

	result, err := t.generator.Generate(ctx, prompt)
	if err != nil {
		t.logger.Error("turn aborted at generation", "conversation", conversationID, "error", err)
		return "", err
	}
	if result.Unrecognized {
		t.logger.Warn("committing stringified response", "conversation", conversationID)
	}

	conv.History.Append(history.RoleAssistant, result.Text)
	t.maybeTitle(ctx, conv, question)

	t.logger.Debug("turn committed",
		"conversation", conversationID,
		"turns", conv.History.Len(),
		"context_empty", contextText == "")
	return result.Text, nil
}

// AnswerWithHistory runs one turn and additionally returns the full
// turn list, for shells that render the whole transcript after each
// turn. Turns stay structured; nothing is parsed back out of strings.
func (t *Tutor) AnswerWithHistory(ctx context.Context, conversationID uuid.UUID, question string) (string, []history.Turn, error) {
	answer, err := t.Answer(ctx, conversationID, question)
	if err != nil {
		return "", nil, err
	}
	conv, err := t.registry.Get(conversationID)
	if err != nil {
		return "", nil, err
	}
	return answer, conv.History.Turns(), nil
}

// maybeTitle replaces a placeholder title after the first committed
// turn. Best effort; the turn already succeeded.
func (t *Tutor) maybeTitle(ctx context.Context, conv *conversation.Conversation, question string) {
	if t.titler == nil || !conv.PlaceholderTitle() || conv.History.Len() != 2 {
		return
	}
	title := t.titler.Title(ctx, question)
	if title == "" {
		return
	}
	if err := t.registry.SetTitle(conv.ID, title); err != nil {
		t.logger.Debug("setting generated title failed", "error", err)
	}
}

// conversationLock returns the serialization lock for a conversation,
// creating it on first use. Locks are never removed; conversations live
// for the process lifetime.
func (t *Tutor) conversationLock(id uuid.UUID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.locks == nil {
		t.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	lock, ok := t.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[id] = lock
	}
	return lock
}
