package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

const rewriteTemplate = `Given the conversation history and a follow-up question from a student, rewrite the follow-up into one self-contained question suitable for searching a textbook index. Resolve pronouns and references using the history.

Conversation history:
%s

Follow-up question: %s

Return only the rewritten question, with no explanation.`

// Rewriter turns a possibly context-dependent question into a
// standalone search query via one model call.
type Rewriter struct {
	genkit    *genkit.Genkit
	modelName string
	logger    *slog.Logger
}

// NewRewriter creates a Rewriter bound to the given model.
func NewRewriter(g *genkit.Genkit, modelName string, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{genkit: g, modelName: modelName, logger: logger}
}

// Rewrite returns a self-contained search query for the question. It
// never fails and never returns a blank query: if the model call errors
// or produces an empty string, the original question is used verbatim,
// so retrieval always has something real to search on.
func (r *Rewriter) Rewrite(ctx context.Context, question, historyText string) string {
	prompt := fmt.Sprintf(rewriteTemplate, historyText, question)

	resp, err := genkit.Generate(ctx, r.genkit,
		ai.WithModelName(r.modelName),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(prompt))),
	)
	if err != nil {
		r.logger.Warn("query rewrite failed, searching with original question", "error", err)
		return question
	}

	rewritten := strings.TrimSpace(resp.Text())
	if rewritten == "" {
		r.logger.Warn("query rewrite returned empty text, searching with original question")
		return question
	}

	r.logger.Debug("rewrote query", "original", question, "rewritten", rewritten)
	return rewritten
}
