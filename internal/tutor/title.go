package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

const (
	// titleInputMaxRunes bounds how much of the first question is sent
	// to the model when generating a title.
	titleInputMaxRunes = 120

	// titleMaxRunes bounds the truncation fallback title.
	titleMaxRunes = 40
)

const titleTemplate = `Generate a very short title, five words at most, for a tutoring conversation that starts with this student question. Return only the title, with no quotes or explanation.

Question: %s`

// Titler produces short display titles for new conversations.
type Titler struct {
	genkit    *genkit.Genkit
	modelName string
	logger    *slog.Logger
}

// NewTitler creates a Titler bound to the given model.
func NewTitler(g *genkit.Genkit, modelName string, logger *slog.Logger) *Titler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Titler{genkit: g, modelName: modelName, logger: logger}
}

// Title returns a short title for a conversation opened by question.
// Best effort: if the model call fails or returns nothing, the title is
// the truncated question, so the caller always gets a usable value.
func (t *Titler) Title(ctx context.Context, question string) string {
	input := question
	if runes := []rune(input); len(runes) > titleInputMaxRunes {
		input = string(runes[:titleInputMaxRunes]) + "..."
	}

	resp, err := genkit.Generate(ctx, t.genkit,
		ai.WithModelName(t.modelName),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(fmt.Sprintf(titleTemplate, input)))),
	)
	if err != nil {
		t.logger.Debug("title generation failed, using truncation fallback", "error", err)
		return truncateTitle(question)
	}

	title := strings.TrimSpace(strings.Trim(strings.TrimSpace(resp.Text()), `"`))
	if title == "" {
		return truncateTitle(question)
	}
	return title
}

func truncateTitle(question string) string {
	runes := []rune(strings.TrimSpace(question))
	if len(runes) <= titleMaxRunes {
		return string(runes)
	}
	return string(runes[:titleMaxRunes]) + "..."
}
