package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ErrGenerationFailed indicates the answer generation call itself
// failed. This is the one condition fatal to a turn.
var ErrGenerationFailed = errors.New("generation failed")

// Result is the outcome of one generation call. Text is always usable.
// Unrecognized is set when the response envelope carried no text
// payload; Text then holds a best-effort string conversion of the raw
// message and Raw holds the same value for callers that want to log it.
type Result struct {
	Text         string
	Unrecognized bool
	Raw          string
}

// Generator wraps the generation model behind a client-side rate
// limit. One instance is created at startup and shared across turns.
type Generator struct {
	genkit      *genkit.Genkit
	modelName   string
	temperature float32
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewGenerator creates a Generator with the given model and sampling
// temperature. Calls are throttled to 10 requests per second with a
// burst of 10.
func NewGenerator(g *genkit.Genkit, modelName string, temperature float32, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		genkit:      g,
		modelName:   modelName,
		temperature: temperature,
		limiter:     rate.NewLimiter(rate.Limit(10), 10),
		logger:      logger,
	}
}

// Generate issues one completion call for the prompt. A transport or
// model failure wraps ErrGenerationFailed. A response with no text part
// does not fail the turn; it degrades to the Unrecognized branch.
func (g *Generator) Generate(ctx context.Context, prompt string) (Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	resp, err := genkit.Generate(ctx, g.genkit,
		ai.WithModelName(g.modelName),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(prompt))),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr(g.temperature),
		}),
	)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		raw := fmt.Sprintf("%v", resp.Message)
		g.logger.Warn("generation response carried no text part, stringifying raw message")
		return Result{Text: raw, Unrecognized: true, Raw: raw}, nil
	}
	return Result{Text: text}, nil
}
